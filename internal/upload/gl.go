// Package upload turns encoded meshes into GPU-side descriptions: OpenGL
// vertex arrays and WebGPU vertex buffer layouts.
package upload

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/objbake/pkg/mesh"
	"github.com/Faultbox/objbake/pkg/vertex"
)

// GLAttribute describes one glVertexAttribPointer call.
type GLAttribute struct {
	Index  uint32
	Size   int32 // components
	Type   uint32
	Stride int32
	Offset uintptr
}

// GLType returns the GL component type of a representation.
func GLType(r vertex.Repr) uint32 {
	switch r {
	case vertex.Int:
		return gl.INT
	case vertex.Double:
		return gl.DOUBLE
	default:
		return gl.FLOAT
	}
}

// GLAttributes returns the attribute pointers for format, one per slot,
// bound to consecutive locations from 0.
func GLAttributes(format *vertex.Format) []GLAttribute {
	attrs := make([]GLAttribute, format.Len())
	for i := range attrs {
		a := format.Attribute(i)
		attrs[i] = GLAttribute{
			Index:  uint32(i),
			Size:   int32(a.Count),
			Type:   GLType(a.Repr),
			Stride: int32(format.Stride()),
			Offset: uintptr(format.Offset(i)),
		}
	}
	return attrs
}

// GLMode returns the draw mode of a topology.
func GLMode(t mesh.Topology) uint32 {
	if t == mesh.Lines {
		return gl.LINES
	}
	return gl.TRIANGLES
}

// GLMesh is a mesh living in GL buffers.
type GLMesh struct {
	vao, vbo, ebo uint32
	mode          uint32
	count         int32
	indexed       bool
}

// UploadGL copies m into a new vertex array. It needs a current GL context.
// The mesh itself may be released once this returns.
func UploadGL(m *mesh.Mesh) (*GLMesh, error) {
	if m.VertexCount() == 0 {
		return nil, errors.New("upload: mesh has no vertices")
	}

	g := &GLMesh{
		mode:    GLMode(m.Topology()),
		count:   int32(m.DrawCount()),
		indexed: m.Indexed(),
	}

	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	data := m.VertexData()
	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data), unsafe.Pointer(&data[0]), gl.STATIC_DRAW)

	for _, a := range GLAttributes(m.Format()) {
		gl.VertexAttribPointerWithOffset(a.Index, a.Size, a.Type, false, a.Stride, a.Offset)
		gl.EnableVertexAttribArray(a.Index)
	}

	if g.indexed {
		idx := m.IndexData()
		gl.GenBuffers(1, &g.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(idx), unsafe.Pointer(&idx[0]), gl.STATIC_DRAW)
	}

	gl.BindVertexArray(0)

	if errCode := gl.GetError(); errCode != gl.NO_ERROR {
		g.Destroy()
		return nil, fmt.Errorf("upload: GL error 0x%x", errCode)
	}

	zap.L().Debug("mesh uploaded",
		zap.Stringer("id", m.ID()),
		zap.Uint32("vao", g.vao),
		zap.Int32("count", g.count),
		zap.Bool("indexed", g.indexed))

	return g, nil
}

// Draw issues the draw call for the whole mesh.
func (g *GLMesh) Draw() {
	gl.BindVertexArray(g.vao)
	if g.indexed {
		gl.DrawElementsWithOffset(g.mode, g.count, gl.UNSIGNED_INT, 0)
	} else {
		gl.DrawArrays(g.mode, 0, g.count)
	}
	gl.BindVertexArray(0)
}

// Destroy deletes the GL objects.
func (g *GLMesh) Destroy() {
	if g.ebo != 0 {
		gl.DeleteBuffers(1, &g.ebo)
		g.ebo = 0
	}
	if g.vbo != 0 {
		gl.DeleteBuffers(1, &g.vbo)
		g.vbo = 0
	}
	if g.vao != 0 {
		gl.DeleteVertexArrays(1, &g.vao)
		g.vao = 0
	}
}
