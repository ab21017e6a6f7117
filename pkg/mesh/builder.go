package mesh

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/objbake/pkg/vertex"
)

// vertexState tracks progress through the attributes of the current vertex.
// It is either awaiting attribute slot, or complete (explicit mode only)
// and waiting for EndVertex.
type vertexState struct {
	slot     int
	complete bool
}

// filled moves past the current slot of a format with n attributes.
func (s *vertexState) filled(n int, explicit bool) {
	s.slot++
	if s.slot < n {
		return
	}
	if explicit {
		s.complete = true
		return
	}
	s.slot = 0
}

func (s *vertexState) end() {
	s.slot = 0
	s.complete = false
}

func (s vertexState) midVertex() bool {
	return s.slot != 0 || s.complete
}

// Builder packs vertices attribute by attribute into a Buffers pair.
//
// Attributes must be submitted in the order of the builder's format. Values
// are converted to each attribute's representation and component count:
// a 2D position fed to a 3D slot gets z = 0, a missing color alpha is 1,
// surplus components are dropped.
//
// In lenient mode, submissions that don't match the expected attribute are
// ignored instead of failing, so one call sequence can serve any format it
// is leniently compatible with. In explicit mode every vertex must be closed
// with EndVertex.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	format   *vertex.Format
	topology Topology
	bufs     *Buffers
	state    vertexState
	lenient  bool
	explicit bool

	indexCount int
}

// NewBuilder creates a builder writing into bufs. A nil bufs allocates a
// private pair with default capacities. The buffers must be empty.
func NewBuilder(format *vertex.Format, topology Topology, bufs *Buffers) (*Builder, error) {
	if bufs == nil {
		bufs = NewBuffers(BufferOptions{})
	} else if !bufs.Empty() {
		return nil, &SequenceError{Msg: "buffers already hold data from another build"}
	}
	return &Builder{
		format:   format,
		topology: topology,
		bufs:     bufs,
	}, nil
}

// Format returns the vertex format being built.
func (b *Builder) Format() *vertex.Format { return b.format }

// SetLenient toggles lenient mode.
func (b *Builder) SetLenient(lenient bool) *Builder {
	b.lenient = lenient
	return b
}

// SetExplicit toggles explicit mode. Leaving explicit mode on a complete
// vertex ends that vertex.
func (b *Builder) SetExplicit(explicit bool) *Builder {
	b.explicit = explicit
	if !explicit && b.state.complete {
		b.state.end()
	}
	return b
}

// VertexCount returns the number of complete vertices written so far.
func (b *Builder) VertexCount() int {
	return b.bufs.Vertex.Len() / b.format.Stride()
}

// IndexCount returns the number of indices written so far.
func (b *Builder) IndexCount() int {
	return b.indexCount
}

// Submit adds an attribute of type t to the current vertex.
func (b *Builder) Submit(t vertex.Type, values ...float64) error {
	if b.state.complete {
		if b.lenient {
			return nil
		}
		return &SequenceError{Msg: fmt.Sprintf("too many attributes in one vertex, got %s", t)}
	}

	attr := b.format.Attribute(b.state.slot)
	if attr.Type != t {
		if b.lenient {
			return nil
		}
		return &SequenceError{Msg: fmt.Sprintf("got %s attribute, expected %s", t, attr.Type)}
	}

	b.put(attr, values)
	b.state.filled(b.format.Len(), b.explicit)
	return nil
}

// put writes values coerced to attr.
func (b *Builder) put(attr vertex.Attribute, values []float64) {
	buf := b.bufs.Vertex
	for i := 0; i < attr.Count; i++ {
		var v float64
		switch {
		case i < len(values):
			v = values[i]
		case attr.Type == vertex.Color && i == 3:
			v = 1
		}

		switch attr.Repr {
		case vertex.Int:
			buf.PutInt32(int32(v))
		case vertex.Float:
			buf.PutFloat32(float32(v))
		case vertex.Double:
			buf.PutFloat64(v)
		}
	}
}

// Pos adds a position. The z value is dropped for 2D formats.
func (b *Builder) Pos(x, y, z float64) error {
	return b.Submit(vertex.Position, x, y, z)
}

// Pos2 adds a 2D position. z is 0 for 3D formats.
func (b *Builder) Pos2(x, y float64) error {
	return b.Submit(vertex.Position, x, y)
}

// Col adds an RGB color in [0, 1]. Alpha is 1 for RGBA formats.
func (b *Builder) Col(r, g, b2 float64) error {
	return b.Submit(vertex.Color, r, g, b2)
}

// Col4 adds an RGBA color in [0, 1]. Alpha is dropped for RGB formats.
func (b *Builder) Col4(r, g, b2, a float64) error {
	return b.Submit(vertex.Color, r, g, b2, a)
}

// ColRGBA8 adds a color from 8-bit channels.
func (b *Builder) ColRGBA8(r, g, b2, a uint8) error {
	return b.Col4(float64(r)/255, float64(g)/255, float64(b2)/255, float64(a)/255)
}

// ColARGB adds a color packed as 0xAARRGGBB.
func (b *Builder) ColARGB(argb uint32) error {
	return b.ColRGBA8(uint8(argb>>16), uint8(argb>>8), uint8(argb), uint8(argb>>24))
}

// Tex adds a texture coordinate.
func (b *Builder) Tex(u, v float64) error {
	return b.Submit(vertex.Texture, u, v)
}

// Norm adds a normal vector.
func (b *Builder) Norm(x, y, z float64) error {
	return b.Submit(vertex.Normal, x, y, z)
}

// Tangent adds a tangent vector.
func (b *Builder) Tangent(x, y, z float64) error {
	return b.Submit(vertex.Tangent, x, y, z)
}

// Bitangent adds a bitangent vector.
func (b *Builder) Bitangent(x, y, z float64) error {
	return b.Submit(vertex.Bitangent, x, y, z)
}

// EndVertex closes the current vertex in explicit mode. It is a no-op
// otherwise.
func (b *Builder) EndVertex() error {
	if !b.explicit {
		return nil
	}
	if !b.state.complete {
		return fmt.Errorf("%w: %d of %d attributes set", ErrIncompleteVertex, b.state.slot, b.format.Len())
	}
	b.state.end()
	return nil
}

// AddIndices appends indices referring to vertices already written.
// Nothing is written if any index is out of range.
func (b *Builder) AddIndices(ids ...uint32) error {
	if b.state.midVertex() {
		return &SequenceError{Msg: "cannot add indices part way through a vertex"}
	}

	count := b.VertexCount()
	for _, id := range ids {
		if int(id) >= count {
			return &IndexOutOfRangeError{Index: int(id), VertexCount: count}
		}
	}

	for _, id := range ids {
		b.bufs.Index.PutUint32(id)
	}
	b.indexCount += len(ids)
	return nil
}

// Build copies the written data into a new Mesh and resets the session
// buffers so the builder can start over.
func (b *Builder) Build() (*Mesh, error) {
	if b.state.midVertex() {
		return nil, &SequenceError{Msg: "cannot build part way through a vertex"}
	}

	m := &Mesh{
		id:          uuid.New(),
		format:      b.format,
		topology:    b.topology,
		vertices:    bytes.Clone(b.bufs.Vertex.Bytes()),
		vertexCount: b.VertexCount(),
		indexCount:  b.indexCount,
	}
	if m.vertices == nil {
		m.vertices = []byte{}
	}
	if b.indexCount > 0 {
		m.indices = bytes.Clone(b.bufs.Index.Bytes())
	}

	b.bufs.Reset()
	b.indexCount = 0

	zap.L().Debug("mesh built",
		zap.Stringer("id", m.id),
		zap.Stringer("topology", m.topology),
		zap.Int("vertices", m.vertexCount),
		zap.Int("indices", m.indexCount),
		zap.Int("stride", b.format.Stride()))

	return m, nil
}
