package obj

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/objbake/pkg/mesh"
	"github.com/Faultbox/objbake/pkg/vertex"
)

// LoadOptions controls Load.
type LoadOptions struct {
	Topology mesh.Topology

	// Buffers is the session buffer pair to encode into. When nil, a pair
	// sized for the model is allocated and released after the build.
	Buffers *mesh.Buffers

	// RejectNonFiniteTangents makes Load fail with ErrNonFiniteTangent
	// instead of encoding NaN or Inf tangents.
	RejectNonFiniteTangents bool
}

// Load parses model source from r and encodes it with format. The format
// must be leniently compatible with vertex.OBJSuperset.
func Load(r io.Reader, format *vertex.Format, opts LoadOptions) (*mesh.Mesh, error) {
	if err := CheckFormat(format); err != nil {
		return nil, err
	}
	model, err := Parse(r, opts.Topology)
	if err != nil {
		return nil, err
	}
	return Encode(model, format, opts)
}

// LoadFile is like Load for a file on disk.
func LoadFile(path string, format *vertex.Format, opts LoadOptions) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open model")
	}
	defer f.Close()

	m, err := Load(f, format, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return m, nil
}

// CheckFormat reports whether format can be produced from OBJ data.
func CheckFormat(format *vertex.Format) error {
	if !vertex.OBJSuperset.LenientlyCompatible(format) {
		return &vertex.SchemaError{Index: -1, Msg: fmt.Sprintf("%s cannot be built from OBJ data, attributes must follow %s", format, vertex.OBJSuperset)}
	}
	return nil
}

// Encode deduplicates a parsed model and encodes it with format.
func Encode(model *Model, format *vertex.Format, opts LoadOptions) (*mesh.Mesh, error) {
	if err := CheckFormat(format); err != nil {
		return nil, err
	}

	table, indices := Dedup(model)

	var frames []TangentFrame
	if format.Has(vertex.Tangent) && format.Has(vertex.Bitangent) {
		var report TangentReport
		frames, report = SynthesizeTangents(model, table, indices)
		if n := len(report.NonFinite); n > 0 {
			zap.L().Warn("non-finite tangents, check texture coordinates for zero-area triangles",
				zap.Int("vertices", n),
				zap.Uint32("first_vertex", report.NonFinite[0]))
			if opts.RejectNonFiniteTangents {
				return nil, fmt.Errorf("%w: %d vertices", ErrNonFiniteTangent, n)
			}
		}
	}

	bufs := opts.Buffers
	if bufs == nil {
		bufs = mesh.NewBuffers(mesh.BufferOptions{
			VertexCapacity: max(table.Len()*format.Stride(), 1),
			IndexCapacity:  max(len(indices)*mesh.IndexSize, 1),
		})
		defer bufs.Release()
	}

	b, err := mesh.NewBuilder(format, model.Topology, bufs)
	if err != nil {
		return nil, err
	}
	b.SetLenient(true).SetExplicit(true)

	for id, k := range table.Keys() {
		var frame TangentFrame
		if frames != nil {
			frame = frames[id]
		}
		if err := submitVertex(b, model, k, frame); err != nil {
			return nil, fmt.Errorf("vertex %d: %w", id, err)
		}
	}

	if err := b.AddIndices(indices...); err != nil {
		return nil, err
	}

	m, err := b.Build()
	if err != nil {
		return nil, err
	}

	zap.L().Debug("model encoded",
		zap.Stringer("topology", model.Topology),
		zap.Int("positions", len(model.Positions)),
		zap.Int("corners", len(model.Corners)),
		zap.Int("unique_vertices", table.Len()),
		zap.Stringer("format", format))

	return m, nil
}

// submitVertex writes every attribute the loader knows in superset order;
// the lenient builder keeps the ones its format wants.
func submitVertex(b *mesh.Builder, model *Model, k VertexKey, frame TangentFrame) error {
	pos := model.Position(k.Pos)
	tex := model.TexCoord(k.Tex)
	col := model.Color(k.Pos)
	norm := model.Normal(k.Norm)
	t, bt := frame.Tangent, frame.Bitangent

	steps := []func() error{
		func() error { return b.Pos(float64(pos.X), float64(pos.Y), float64(pos.Z)) },
		func() error { return b.Tex(float64(tex.X), float64(tex.Y)) },
		func() error { return b.Col4(float64(col.X), float64(col.Y), float64(col.Z), float64(col.W)) },
		func() error { return b.Norm(float64(norm.X), float64(norm.Y), float64(norm.Z)) },
		func() error { return b.Tangent(float64(t.X), float64(t.Y), float64(t.Z)) },
		func() error { return b.Bitangent(float64(bt.X), float64(bt.Y), float64(bt.Z)) },
		b.EndVertex,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
