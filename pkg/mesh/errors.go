package mesh

import (
	"errors"
	"fmt"
)

// Builder errors. These signal misuse of the builder API.
var (
	ErrSequence         = errors.New("vertex attribute sequence error")
	ErrIncompleteVertex = errors.New("incomplete vertex")
	ErrIndexOutOfRange  = errors.New("index out of range")
)

// SequenceError is returned when a builder call arrives out of order.
type SequenceError struct {
	Msg string
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("%v: %s", ErrSequence, e.Msg)
}

func (e *SequenceError) Unwrap() error { return ErrSequence }

// IndexOutOfRangeError is returned when an index does not refer to a
// vertex written so far.
type IndexOutOfRangeError struct {
	Index       int
	VertexCount int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("%v: index %d, vertex count %d", ErrIndexOutOfRange, e.Index, e.VertexCount)
}

func (e *IndexOutOfRangeError) Unwrap() error { return ErrIndexOutOfRange }
