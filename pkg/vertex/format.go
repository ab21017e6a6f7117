package vertex

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrSchema is returned for invalid vertex formats.
var ErrSchema = errors.New("invalid vertex format")

// SchemaError reports which attribute made a format invalid.
type SchemaError struct {
	Index int // attribute position, -1 for the format as a whole
	Msg   string
}

func (e *SchemaError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %s", ErrSchema, e.Msg)
	}
	return fmt.Sprintf("%v: attribute %d: %s", ErrSchema, e.Index, e.Msg)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// Format is an immutable, ordered list of attributes describing one vertex.
type Format struct {
	attrs   []Attribute
	offsets []int
	stride  int
}

// NewFormat validates attrs and computes the byte layout.
func NewFormat(attrs ...Attribute) (*Format, error) {
	if len(attrs) == 0 {
		return nil, &SchemaError{Index: -1, Msg: "no attributes"}
	}

	f := &Format{
		attrs:   make([]Attribute, len(attrs)),
		offsets: make([]int, len(attrs)),
	}
	copy(f.attrs, attrs)

	for i, a := range attrs {
		switch {
		case !a.Type.Valid():
			return nil, &SchemaError{Index: i, Msg: fmt.Sprintf("unknown type %d", uint8(a.Type))}
		case a.Repr.Size() == 0:
			return nil, &SchemaError{Index: i, Msg: fmt.Sprintf("unknown representation %d", uint8(a.Repr))}
		case a.Count <= 0:
			return nil, &SchemaError{Index: i, Msg: fmt.Sprintf("component count %d must be positive", a.Count)}
		case a.Count > MaxComponents:
			return nil, &SchemaError{Index: i, Msg: fmt.Sprintf("component count %d exceeds %d", a.Count, MaxComponents)}
		}
		f.offsets[i] = f.stride
		f.stride += a.Size()
	}
	return f, nil
}

// MustFormat is like NewFormat but panics on error.
func MustFormat(attrs ...Attribute) *Format {
	f, err := NewFormat(attrs...)
	if err != nil {
		panic(err)
	}
	return f
}

// Len returns the number of attributes.
func (f *Format) Len() int {
	return len(f.attrs)
}

// Attribute returns the i-th attribute.
func (f *Format) Attribute(i int) Attribute {
	return f.attrs[i]
}

// Attributes returns a copy of the attribute list.
func (f *Format) Attributes() []Attribute {
	out := make([]Attribute, len(f.attrs))
	copy(out, f.attrs)
	return out
}

// Offset returns the byte offset of the i-th attribute within a vertex.
func (f *Format) Offset(i int) int {
	return f.offsets[i]
}

// Stride returns the number of bytes per vertex.
func (f *Format) Stride() int {
	return f.stride
}

// Has reports whether any attribute has type t.
func (f *Format) Has(t Type) bool {
	for _, a := range f.attrs {
		if a.Type == t {
			return true
		}
	}
	return false
}

// Compatible reports whether f and other can be substituted for each other
// in a mesh builder: same number of attributes with the same type at each
// position. Representation and component count may differ.
func (f *Format) Compatible(other *Format) bool {
	if len(f.attrs) != len(other.attrs) {
		return false
	}
	for i := range f.attrs {
		if f.attrs[i].Type != other.attrs[i].Type {
			return false
		}
	}
	return true
}

// LenientlyCompatible reports whether the types of child appear, in order,
// as a subsequence of f's types. A lenient builder fed calls for f can then
// target child. The relation is one-way.
func (f *Format) LenientlyCompatible(child *Format) bool {
	next := 0
	for _, a := range f.attrs {
		if next < len(child.attrs) && a.Type == child.attrs[next].Type {
			next++
		}
	}
	return next == len(child.attrs)
}

// String returns the attributes joined by commas.
func (f *Format) String() string {
	parts := make([]string, len(f.attrs))
	for i, a := range f.attrs {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

// Presets.
var (
	Pos2Col     = MustFormat(Position2Float, ColorFloat)
	Pos2Col4    = MustFormat(Position2Float, Color4Float)
	Pos2Tex     = MustFormat(Position2Float, TextureFloat)
	Pos2TexCol4 = MustFormat(Position2Float, TextureFloat, Color4Float)
	Pos2        = MustFormat(Position2Float)

	Pos         = MustFormat(PositionDouble)
	PosNorm     = MustFormat(PositionDouble, NormalFloat)
	PosColNorm  = MustFormat(PositionDouble, ColorFloat, NormalFloat)
	PosCol4Norm = MustFormat(PositionDouble, Color4Float, NormalFloat)
	PosTexNorm  = MustFormat(PositionDouble, TextureFloat, NormalFloat)

	PosTexNormTangBitang = MustFormat(PositionFloat, TextureFloat, NormalFloat, TangentFloat, BitangentFloat)

	// OBJSuperset lists every attribute an OBJ model can supply, in the
	// order the OBJ loader submits them.
	OBJSuperset = MustFormat(PositionFloat, TextureFloat, Color4Float, NormalFloat, TangentFloat, BitangentFloat)
)

// Named maps preset names to formats.
var Named = map[string]*Format{
	"pos2_col":                 Pos2Col,
	"pos2_col4":                Pos2Col4,
	"pos2_tex":                 Pos2Tex,
	"pos2_tex_col4":            Pos2TexCol4,
	"pos2":                     Pos2,
	"pos":                      Pos,
	"pos_norm":                 PosNorm,
	"pos_col_norm":             PosColNorm,
	"pos_col4_norm":            PosCol4Norm,
	"pos_tex_norm":             PosTexNorm,
	"pos_tex_norm_tang_bitang": PosTexNormTangBitang,
	"obj_superset":             OBJSuperset,
}

// Lookup returns the preset with the given name.
func Lookup(name string) (*Format, bool) {
	f, ok := Named[strings.ToLower(name)]
	return f, ok
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Named))
	for name := range Named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
