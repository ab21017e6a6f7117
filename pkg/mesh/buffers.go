package mesh

import (
	"go.uber.org/zap"

	"github.com/Faultbox/objbake/pkg/bytebuf"
)

// Default initial buffer capacities.
const (
	DefaultVertexCapacity = 1 << 20 // 1 MiB
	DefaultIndexCapacity  = 1 << 16 // 64 KiB
)

// BufferOptions configures a Buffers pair.
type BufferOptions struct {
	VertexCapacity int
	IndexCapacity  int
	// QuietGrowth suppresses the warning logged when a buffer outgrows its
	// initial capacity.
	QuietGrowth bool
	Logger      *zap.Logger
}

// Buffers is the vertex and index scratch storage of one encoding session.
// A pair is reused across sequential builds to amortize allocation. It must
// not be shared by builders running at the same time: give each concurrent
// producer its own pair.
type Buffers struct {
	Vertex *bytebuf.Buffer
	Index  *bytebuf.Buffer
}

// NewBuffers allocates a buffer pair. Zero capacities use the defaults.
func NewBuffers(opts BufferOptions) *Buffers {
	if opts.VertexCapacity <= 0 {
		opts.VertexCapacity = DefaultVertexCapacity
	}
	if opts.IndexCapacity <= 0 {
		opts.IndexCapacity = DefaultIndexCapacity
	}

	bufOpts := []bytebuf.Option{bytebuf.WithGrowWarning(!opts.QuietGrowth)}
	if opts.Logger != nil {
		bufOpts = append(bufOpts, bytebuf.WithLogger(opts.Logger))
	}

	return &Buffers{
		Vertex: bytebuf.New(opts.VertexCapacity, bufOpts...),
		Index:  bytebuf.New(opts.IndexCapacity, bufOpts...),
	}
}

// Empty reports whether neither buffer holds data.
func (b *Buffers) Empty() bool {
	return b.Vertex.Len() == 0 && b.Index.Len() == 0
}

// Reset empties both buffers, keeping their capacity.
func (b *Buffers) Reset() {
	b.Vertex.Reset()
	b.Index.Reset()
}

// Release frees both buffers.
func (b *Buffers) Release() {
	b.Vertex.Release()
	b.Index.Release()
}
