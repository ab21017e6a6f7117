// Package bytebuf provides a growable little-endian byte buffer for packing
// vertex and index data.
package bytebuf

import (
	"encoding/binary"
	"math"

	"go.uber.org/zap"
)

// Buffer is an append-only byte buffer that doubles its capacity when a
// write does not fit. Writes never fail.
//
// A Buffer is not safe for concurrent use.
type Buffer struct {
	data  []byte
	grows int
	warn  bool
	log   *zap.Logger
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithGrowWarning enables or disables the warning logged when the buffer
// has to grow past its current capacity. Enabled by default.
func WithGrowWarning(enabled bool) Option {
	return func(b *Buffer) {
		b.warn = enabled
	}
}

// WithLogger sets the logger used for growth warnings.
// Defaults to the global zap logger at construction time.
func WithLogger(log *zap.Logger) Option {
	return func(b *Buffer) {
		if log != nil {
			b.log = log
		}
	}
}

// New creates a buffer with the given initial capacity in bytes.
// Negative capacities are treated as zero.
func New(initialCapacity int, opts ...Option) *Buffer {
	if initialCapacity < 0 {
		initialCapacity = 0
	}
	b := &Buffer{
		data: make([]byte, 0, initialCapacity),
		warn: true,
		log:  zap.L(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Len returns the number of bytes written.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Cap returns the current capacity in bytes.
func (b *Buffer) Cap() int {
	return cap(b.data)
}

// Grows returns how many times the buffer has reallocated.
func (b *Buffer) Grows() int {
	return b.grows
}

// Bytes returns the written bytes. The slice aliases the buffer storage and
// is only valid until the next write, Reset or Release.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Reset discards the written bytes but keeps the capacity for reuse.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
}

// Release drops the underlying storage. The buffer stays usable and will
// allocate again on the next write.
func (b *Buffer) Release() {
	b.data = nil
}

// ensure makes room for n more bytes, doubling capacity as needed.
func (b *Buffer) ensure(n int) {
	if cap(b.data)-len(b.data) >= n {
		return
	}

	oldCap := cap(b.data)
	newCap := oldCap
	if newCap == 0 {
		newCap = 1
	}
	for newCap-len(b.data) < n {
		newCap *= 2
	}

	grown := make([]byte, len(b.data), newCap)
	copy(grown, b.data)
	b.data = grown
	b.grows++

	if b.warn {
		b.log.Warn("byte buffer grew past its initial size, consider a larger capacity",
			zap.Int("old_capacity", oldCap),
			zap.Int("new_capacity", newCap),
			zap.Int("pending_write", n))
	}
}

// Write appends p. It always returns len(p) and a nil error.
func (b *Buffer) Write(p []byte) (int, error) {
	b.ensure(len(p))
	b.data = append(b.data, p...)
	return len(p), nil
}

// PutByte appends a single byte.
func (b *Buffer) PutByte(v byte) {
	b.ensure(1)
	b.data = append(b.data, v)
}

// PutInt16 appends a 16-bit integer.
func (b *Buffer) PutInt16(v int16) {
	b.ensure(2)
	b.data = binary.LittleEndian.AppendUint16(b.data, uint16(v))
}

// PutInt32 appends a 32-bit signed integer.
func (b *Buffer) PutInt32(v int32) {
	b.PutUint32(uint32(v))
}

// PutUint32 appends a 32-bit unsigned integer.
func (b *Buffer) PutUint32(v uint32) {
	b.ensure(4)
	b.data = binary.LittleEndian.AppendUint32(b.data, v)
}

// PutInt64 appends a 64-bit integer.
func (b *Buffer) PutInt64(v int64) {
	b.ensure(8)
	b.data = binary.LittleEndian.AppendUint64(b.data, uint64(v))
}

// PutFloat32 appends an IEEE-754 single.
func (b *Buffer) PutFloat32(v float32) {
	b.PutUint32(math.Float32bits(v))
}

// PutFloat64 appends an IEEE-754 double.
func (b *Buffer) PutFloat64(v float64) {
	b.ensure(8)
	b.data = binary.LittleEndian.AppendUint64(b.data, math.Float64bits(v))
}
