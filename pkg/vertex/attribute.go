// Package vertex describes per-vertex binary layouts: which attributes a
// vertex carries, in what order, and how each is stored.
package vertex

import (
	"fmt"
	"strings"
)

// Type is the semantic kind of a vertex attribute. Attributes of the same
// Type can be converted into one another by the mesh builder.
type Type uint8

const (
	Position Type = iota + 1
	Color
	Texture
	Normal
	Tangent
	Bitangent
)

var typeNames = map[Type]string{
	Position:  "position",
	Color:     "color",
	Texture:   "texture",
	Normal:    "normal",
	Tangent:   "tangent",
	Bitangent: "bitangent",
}

// String returns the lower-case attribute type name.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint8(t))
}

// Valid reports whether t is one of the defined types.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// ParseType converts a name such as "position" or "tex" into a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "position", "pos":
		return Position, nil
	case "color", "colour", "col":
		return Color, nil
	case "texture", "tex", "uv":
		return Texture, nil
	case "normal", "norm":
		return Normal, nil
	case "tangent", "tang":
		return Tangent, nil
	case "bitangent", "bitang":
		return Bitangent, nil
	}
	return 0, fmt.Errorf("%w: unknown attribute type %q", ErrSchema, s)
}

// Repr is the numeric storage of each attribute component.
type Repr uint8

const (
	Int    Repr = iota + 1 // int32
	Float                  // float32
	Double                 // float64
)

// Size returns the byte width of one component.
func (r Repr) Size() int {
	switch r {
	case Int, Float:
		return 4
	case Double:
		return 8
	default:
		return 0
	}
}

// String returns the representation name.
func (r Repr) String() string {
	switch r {
	case Int:
		return "int"
	case Float:
		return "float"
	case Double:
		return "double"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(r))
	}
}

// ParseRepr converts "int", "float" or "double" into a Repr.
func ParseRepr(s string) (Repr, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "int32":
		return Int, nil
	case "float", "float32":
		return Float, nil
	case "double", "float64":
		return Double, nil
	}
	return 0, fmt.Errorf("%w: unknown representation %q", ErrSchema, s)
}

// MaxComponents is the largest component count an attribute may have.
const MaxComponents = 4

// Attribute is one slot of a vertex format.
type Attribute struct {
	Type  Type
	Repr  Repr
	Count int // components per vertex
}

// Size returns the number of bytes the attribute occupies in one vertex.
func (a Attribute) Size() int {
	return a.Count * a.Repr.Size()
}

// String returns e.g. "position:float:3".
func (a Attribute) String() string {
	return fmt.Sprintf("%s:%s:%d", a.Type, a.Repr, a.Count)
}

// Common attributes.
var (
	PositionInt     = Attribute{Position, Int, 3}
	PositionFloat   = Attribute{Position, Float, 3}
	PositionDouble  = Attribute{Position, Double, 3}
	Position2Int    = Attribute{Position, Int, 2}
	Position2Float  = Attribute{Position, Float, 2}
	Position2Double = Attribute{Position, Double, 2}
	ColorFloat      = Attribute{Color, Float, 3}
	Color4Float     = Attribute{Color, Float, 4}
	TextureInt      = Attribute{Texture, Int, 2}
	TextureFloat    = Attribute{Texture, Float, 2}
	TextureDouble   = Attribute{Texture, Double, 2}
	NormalFloat     = Attribute{Normal, Float, 3}
	NormalDouble    = Attribute{Normal, Double, 3}
	TangentFloat    = Attribute{Tangent, Float, 3}
	BitangentFloat  = Attribute{Bitangent, Float, 3}
)
