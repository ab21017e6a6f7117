package obj

import (
	"encoding/binary"
	gomath "math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/objbake/pkg/mesh"
	"github.com/Faultbox/objbake/pkg/vertex"
)

func f32(data []byte, off int) float32 {
	return gomath.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
}

func TestLoad_PositionTriangle(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	m, err := Load(strings.NewReader(src), vertex.MustFormat(vertex.PositionFloat), LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, m.VertexCount())
	assert.Equal(t, 12, m.Format().Stride())
	assert.Len(t, m.VertexData(), 36)
	assert.Equal(t, 3, m.IndexCount())
	assert.Equal(t, []uint32{0, 1, 2}, m.Indices())
	assert.Equal(t, mesh.Triangles, m.Topology())
}

func TestLoad_Invariants(t *testing.T) {
	formats := map[string]*vertex.Format{
		"pos":            vertex.Pos,
		"pos_norm":       vertex.PosNorm,
		"pos_col4_norm":  vertex.PosCol4Norm,
		"pos_tex_norm":   vertex.PosTexNorm,
		"tangent_space":  vertex.PosTexNormTangBitang,
		"obj_superset":   vertex.OBJSuperset,
		"int_positions":  vertex.MustFormat(vertex.PositionInt),
		"double_texture": vertex.MustFormat(vertex.PositionFloat, vertex.TextureDouble),
	}

	for name, format := range formats {
		t.Run(name, func(t *testing.T) {
			m, err := Load(strings.NewReader(cubeSource), format, LoadOptions{})
			require.NoError(t, err)

			assert.Equal(t, 24, m.VertexCount())
			assert.Len(t, m.VertexData(), format.Stride()*m.VertexCount())
			assert.Equal(t, 36, m.IndexCount())
			for _, idx := range m.Indices() {
				assert.Less(t, int(idx), m.VertexCount())
			}
		})
	}
}

func TestLoad_DefaultsAndColors(t *testing.T) {
	src := "v 1 2 3 1 0 0\nv 0 0 0\nv 0 1 0\nf 1 2 3\n"
	m, err := Load(strings.NewReader(src), vertex.PosCol4Norm, LoadOptions{})
	require.NoError(t, err)

	data := m.VertexData()
	stride := vertex.PosCol4Norm.Stride()
	require.Equal(t, 52, stride)

	assert.Equal(t, 2.0, gomath.Float64frombits(binary.LittleEndian.Uint64(data[8:])))
	assert.Equal(t, []float32{1, 0, 0, 1}, []float32{f32(data, 24), f32(data, 28), f32(data, 32), f32(data, 36)})
	assert.Equal(t, []float32{1, 0, 0}, []float32{f32(data, 40), f32(data, 44), f32(data, 48)}, "missing normal is +X")
	assert.Equal(t, []float32{1, 1, 1, 1}, []float32{f32(data, stride+24), f32(data, stride+28), f32(data, stride+32), f32(data, stride+36)})
}

func TestLoad_Tangents(t *testing.T) {
	m, err := Load(strings.NewReader(texturedTriangle), vertex.PosTexNormTangBitang, LoadOptions{})
	require.NoError(t, err)

	data := m.VertexData()
	// pos 0, tex 12, norm 20, tangent 32, bitangent 44
	assert.InDelta(t, 1, f32(data, 32), 1e-6)
	assert.InDelta(t, 1, f32(data, 48), 1e-6)
}

func TestLoad_NonFiniteTangents(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nvn 0 0 1\nf 1/1/1 2/1/1 3/1/1\n"

	m, err := Load(strings.NewReader(src), vertex.PosTexNormTangBitang, LoadOptions{})
	require.NoError(t, err, "kept by default")
	assert.Equal(t, 3, m.VertexCount())

	_, err = Load(strings.NewReader(src), vertex.PosTexNormTangBitang, LoadOptions{RejectNonFiniteTangents: true})
	assert.ErrorIs(t, err, ErrNonFiniteTangent)
}

func TestLoad_Lines(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 1 1 0\nl 1 2\nl 2 3\n"
	m, err := Load(strings.NewReader(src), vertex.PosTexNormTangBitang, LoadOptions{Topology: mesh.Lines})
	require.NoError(t, err)
	assert.Equal(t, mesh.Lines, m.Topology())
	assert.Equal(t, []uint32{0, 1, 1, 2}, m.Indices())
	assert.Equal(t, float32(1), f32(m.VertexData(), 40), "fallback tangent z")
}

func TestLoad_IncompatibleFormat(t *testing.T) {
	_, err := Load(strings.NewReader("v 0 0 0\n"), vertex.MustFormat(vertex.NormalFloat, vertex.PositionFloat), LoadOptions{})
	assert.ErrorIs(t, err, vertex.ErrSchema)
}

func TestLoad_ParseErrorReturnsNoMesh(t *testing.T) {
	m, err := Load(strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3 4\n"), vertex.Pos, LoadOptions{})
	assert.Nil(t, m)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 4, pe.Line)
}

func TestLoad_SharedBuffers(t *testing.T) {
	bufs := mesh.NewBuffers(mesh.BufferOptions{VertexCapacity: 64, IndexCapacity: 16, QuietGrowth: true})
	opts := LoadOptions{Buffers: bufs}

	first, err := Load(strings.NewReader(cubeSource), vertex.PosTexNorm, opts)
	require.NoError(t, err)
	assert.True(t, bufs.Empty())
	assert.Greater(t, bufs.Vertex.Grows(), 0)

	second, err := Load(strings.NewReader(texturedTriangle), vertex.PosTexNorm, opts)
	require.NoError(t, err)

	assert.Equal(t, 24, first.VertexCount())
	assert.Len(t, first.VertexData(), 24*vertex.PosTexNorm.Stride())
	assert.Equal(t, 3, second.VertexCount())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tri.obj")
	require.NoError(t, os.WriteFile(path, []byte(texturedTriangle), 0o644))

	m, err := LoadFile(path, vertex.PosTexNorm, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, m.VertexCount())

	_, err = LoadFile(filepath.Join(dir, "missing.obj"), vertex.Pos, LoadOptions{})
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.obj")
	require.NoError(t, os.WriteFile(bad, []byte("vt 1\n"), 0o644))
	_, err = LoadFile(bad, vertex.Pos, LoadOptions{})
	assert.ErrorIs(t, err, ErrParse)
	assert.Contains(t, err.Error(), bad)
}
