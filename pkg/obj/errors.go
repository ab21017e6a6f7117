package obj

import (
	"errors"
	"fmt"

	"github.com/Faultbox/objbake/pkg/mesh"
)

var (
	ErrParse = errors.New("malformed model source")

	// ErrNonFiniteTangent is returned by Load when tangent synthesis produced
	// NaN or infinite vectors and the caller asked for them to be rejected.
	ErrNonFiniteTangent = errors.New("non-finite tangent")
)

// ParseError reports a malformed line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// IndexOutOfRangeError reports a corner referencing an element that had not
// been declared at that point of the source.
type IndexOutOfRangeError struct {
	Line  int
	Kind  string // "position", "texture" or "normal"
	Index int
	Count int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("line %d: %s index %d out of range, %d declared", e.Line, e.Kind, e.Index, e.Count)
}

func (e *IndexOutOfRangeError) Unwrap() error { return mesh.ErrIndexOutOfRange }

func parseErrorf(line int, format string, args ...any) error {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}
