package upload

import (
	"testing"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/objbake/pkg/mesh"
	"github.com/Faultbox/objbake/pkg/vertex"
)

func TestGLAttributes(t *testing.T) {
	f := vertex.MustFormat(vertex.PositionDouble, vertex.TextureInt, vertex.Color4Float)
	attrs := GLAttributes(f)

	require.Len(t, attrs, 3)
	assert.Equal(t, GLAttribute{Index: 0, Size: 3, Type: gl.DOUBLE, Stride: 48, Offset: 0}, attrs[0])
	assert.Equal(t, GLAttribute{Index: 1, Size: 2, Type: gl.INT, Stride: 48, Offset: 24}, attrs[1])
	assert.Equal(t, GLAttribute{Index: 2, Size: 4, Type: gl.FLOAT, Stride: 48, Offset: 32}, attrs[2])
}

func TestGLMode(t *testing.T) {
	assert.Equal(t, uint32(gl.TRIANGLES), GLMode(mesh.Triangles))
	assert.Equal(t, uint32(gl.LINES), GLMode(mesh.Lines))
}

func TestWebGPULayout(t *testing.T) {
	layout, err := WebGPULayout(vertex.PosTexNormTangBitang, 2)
	require.NoError(t, err)

	assert.Equal(t, uint64(56), layout.ArrayStride)
	assert.Equal(t, gputypes.VertexStepModeVertex, layout.StepMode)
	assert.Equal(t, []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 2},
		{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 3},
		{Format: gputypes.VertexFormatFloat32x3, Offset: 20, ShaderLocation: 4},
		{Format: gputypes.VertexFormatFloat32x3, Offset: 32, ShaderLocation: 5},
		{Format: gputypes.VertexFormatFloat32x3, Offset: 44, ShaderLocation: 6},
	}, layout.Attributes)

	var sum uint64
	for _, a := range layout.Attributes {
		sum += a.Format.Size()
	}
	assert.Equal(t, layout.ArrayStride, sum)
}

func TestWebGPUVertexFormat(t *testing.T) {
	tests := []struct {
		attr vertex.Attribute
		want gputypes.VertexFormat
	}{
		{vertex.Attribute{Type: vertex.Color, Repr: vertex.Float, Count: 1}, gputypes.VertexFormatFloat32},
		{vertex.Color4Float, gputypes.VertexFormatFloat32x4},
		{vertex.Position2Int, gputypes.VertexFormatSint32x2},
		{vertex.PositionInt, gputypes.VertexFormatSint32x3},
	}
	for _, tt := range tests {
		t.Run(tt.attr.String(), func(t *testing.T) {
			got, err := WebGPUVertexFormat(tt.attr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := WebGPUVertexFormat(vertex.PositionDouble)
	assert.ErrorIs(t, err, ErrUnsupportedAttribute)

	_, err = WebGPULayout(vertex.PosTexNorm, 0)
	assert.ErrorIs(t, err, ErrUnsupportedAttribute)
}

func TestDescribeWebGPU(t *testing.T) {
	b, err := mesh.NewBuilder(vertex.MustFormat(vertex.PositionFloat), mesh.Lines, nil)
	require.NoError(t, err)
	require.NoError(t, b.Pos(0, 0, 0))
	require.NoError(t, b.Pos(1, 0, 0))
	require.NoError(t, b.AddIndices(0, 1, 1, 0))
	m, err := b.Build()
	require.NoError(t, err)

	w, err := DescribeWebGPU(m, 0)
	require.NoError(t, err)

	assert.Equal(t, gputypes.PrimitiveTopologyLineList, w.Primitive.Topology)
	assert.Equal(t, uint64(24), w.VertexBuffer.Size)
	assert.NotZero(t, w.VertexBuffer.Usage&gputypes.BufferUsageVertex)
	assert.Equal(t, uint64(16), w.IndexBuffer.Size)
	assert.NotZero(t, w.IndexBuffer.Usage&gputypes.BufferUsageIndex)
	assert.Equal(t, gputypes.IndexFormatUint32, w.IndexFormat)
	assert.Equal(t, uint32(4), w.DrawCount)
	assert.Contains(t, w.VertexBuffer.Label, m.ID().String())
}

func TestDescribeWebGPU_NotIndexed(t *testing.T) {
	b, err := mesh.NewBuilder(vertex.Pos2Col, mesh.Triangles, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Pos2(float64(i), 0))
		require.NoError(t, b.Col(1, 1, 1))
	}
	m, err := b.Build()
	require.NoError(t, err)

	w, err := DescribeWebGPU(m, 0)
	require.NoError(t, err)
	assert.Zero(t, w.IndexBuffer.Size)
	assert.Equal(t, uint32(3), w.DrawCount)
	assert.Equal(t, gputypes.PrimitiveTopologyTriangleList, w.Primitive.Topology)
}
