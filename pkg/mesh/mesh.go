// Package mesh encodes vertex attributes into packed buffers following a
// vertex.Format, producing immutable meshes ready for GPU upload.
package mesh

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Faultbox/objbake/pkg/vertex"
)

// Topology is the primitive kind of a mesh.
type Topology uint8

const (
	Triangles Topology = iota
	Lines
)

// Arity returns the number of vertices per primitive.
func (t Topology) Arity() int {
	if t == Lines {
		return 2
	}
	return 3
}

// String returns "triangles" or "lines".
func (t Topology) String() string {
	switch t {
	case Triangles:
		return "triangles"
	case Lines:
		return "lines"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// ParseTopology converts "triangles" or "lines" into a Topology.
func ParseTopology(s string) (Topology, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "triangles", "tris", "":
		return Triangles, nil
	case "lines":
		return Lines, nil
	}
	return 0, fmt.Errorf("unknown topology %q", s)
}

// IndexSize is the byte width of one index.
const IndexSize = 4

// Mesh is an encoded mesh. It owns its buffers and is read-only once
// built. Release must be called when the mesh is no longer needed; using a
// mesh after Release is a programming error.
type Mesh struct {
	id          uuid.UUID
	format      *vertex.Format
	topology    Topology
	vertices    []byte
	indices     []byte
	vertexCount int
	indexCount  int
}

// ID returns the unique identity assigned when the mesh was built.
func (m *Mesh) ID() uuid.UUID { return m.id }

// Format returns the vertex format of the vertex data.
func (m *Mesh) Format() *vertex.Format { return m.format }

// Topology returns the primitive kind.
func (m *Mesh) Topology() Topology { return m.topology }

// VertexData returns the packed vertex bytes, Stride() * VertexCount() long.
// The slice must not be modified.
func (m *Mesh) VertexData() []byte { return m.vertices }

// IndexData returns the packed little-endian uint32 indices, or nil when the
// mesh is not indexed. The slice must not be modified.
func (m *Mesh) IndexData() []byte { return m.indices }

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return m.vertexCount }

// IndexCount returns the number of indices.
func (m *Mesh) IndexCount() int { return m.indexCount }

// Indexed reports whether the mesh has an index buffer.
func (m *Mesh) Indexed() bool { return m.indexCount > 0 }

// DrawCount returns how many elements a draw call covers: the index count
// for indexed meshes, the vertex count otherwise.
func (m *Mesh) DrawCount() int {
	if m.Indexed() {
		return m.indexCount
	}
	return m.vertexCount
}

// Indices decodes the index buffer into a new slice.
func (m *Mesh) Indices() []uint32 {
	out := make([]uint32, m.indexCount)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(m.indices[i*IndexSize:])
	}
	return out
}

// Release drops the mesh storage.
func (m *Mesh) Release() {
	m.vertices = nil
	m.indices = nil
}
