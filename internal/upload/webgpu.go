package upload

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/Faultbox/objbake/pkg/mesh"
	"github.com/Faultbox/objbake/pkg/vertex"
)

// ErrUnsupportedAttribute is returned for attributes WebGPU cannot read,
// such as double precision ones.
var ErrUnsupportedAttribute = errors.New("attribute has no WebGPU vertex format")

var (
	floatFormats = [...]gputypes.VertexFormat{
		gputypes.VertexFormatFloat32,
		gputypes.VertexFormatFloat32x2,
		gputypes.VertexFormatFloat32x3,
		gputypes.VertexFormatFloat32x4,
	}
	sintFormats = [...]gputypes.VertexFormat{
		gputypes.VertexFormatSint32,
		gputypes.VertexFormatSint32x2,
		gputypes.VertexFormatSint32x3,
		gputypes.VertexFormatSint32x4,
	}
)

// WebGPUVertexFormat maps an attribute to its WebGPU vertex format.
func WebGPUVertexFormat(a vertex.Attribute) (gputypes.VertexFormat, error) {
	if a.Count < 1 || a.Count > vertex.MaxComponents {
		return gputypes.VertexFormatUndefined, fmt.Errorf("%w: %s", ErrUnsupportedAttribute, a)
	}
	switch a.Repr {
	case vertex.Float:
		return floatFormats[a.Count-1], nil
	case vertex.Int:
		return sintFormats[a.Count-1], nil
	}
	return gputypes.VertexFormatUndefined, fmt.Errorf("%w: %s", ErrUnsupportedAttribute, a)
}

// WebGPULayout describes format as a per-vertex buffer layout with shader
// locations starting at firstLocation.
func WebGPULayout(format *vertex.Format, firstLocation uint32) (gputypes.VertexBufferLayout, error) {
	layout := gputypes.VertexBufferLayout{
		ArrayStride: uint64(format.Stride()),
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  make([]gputypes.VertexAttribute, format.Len()),
	}
	for i := range layout.Attributes {
		vf, err := WebGPUVertexFormat(format.Attribute(i))
		if err != nil {
			return gputypes.VertexBufferLayout{}, fmt.Errorf("attribute %d: %w", i, err)
		}
		layout.Attributes[i] = gputypes.VertexAttribute{
			Format:         vf,
			Offset:         uint64(format.Offset(i)),
			ShaderLocation: firstLocation + uint32(i),
		}
	}
	return layout, nil
}

// WebGPUTopology maps a mesh topology to a WebGPU primitive topology.
func WebGPUTopology(t mesh.Topology) gputypes.PrimitiveTopology {
	if t == mesh.Lines {
		return gputypes.PrimitiveTopologyLineList
	}
	return gputypes.PrimitiveTopologyTriangleList
}

// WebGPUMesh gathers what a WebGPU renderer needs to create buffers and a
// pipeline for a mesh.
type WebGPUMesh struct {
	Layout       gputypes.VertexBufferLayout
	Primitive    gputypes.PrimitiveState
	VertexBuffer gputypes.BufferDescriptor
	// IndexBuffer has zero size when the mesh is not indexed.
	IndexBuffer gputypes.BufferDescriptor
	IndexFormat gputypes.IndexFormat
	DrawCount   uint32
}

// DescribeWebGPU builds the WebGPU description of m.
func DescribeWebGPU(m *mesh.Mesh, firstLocation uint32) (*WebGPUMesh, error) {
	layout, err := WebGPULayout(m.Format(), firstLocation)
	if err != nil {
		return nil, err
	}

	label := m.ID().String()
	w := &WebGPUMesh{
		Layout:    layout,
		Primitive: gputypes.PrimitiveState{Topology: WebGPUTopology(m.Topology())},
		VertexBuffer: gputypes.BufferDescriptor{
			Label: label + "/vertices",
			Size:  uint64(len(m.VertexData())),
			Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
		},
		IndexFormat: gputypes.IndexFormatUint32,
		DrawCount:   uint32(m.DrawCount()),
	}
	if m.Indexed() {
		w.IndexBuffer = gputypes.BufferDescriptor{
			Label: label + "/indices",
			Size:  uint64(len(m.IndexData())),
			Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
		}
	}
	return w, nil
}
