// Package obj loads a subset of the Wavefront OBJ text format into encoded
// meshes.
//
// Supported directives are v, vt, vn, f (triangles) and l (line segments).
// Indices are 1-based and absolute. Comments, blank lines and any other
// directive are ignored.
package obj

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Faultbox/objbake/pkg/math"
	"github.com/Faultbox/objbake/pkg/mesh"
)

// Absent marks a missing texture or normal reference in a Corner.
const Absent = 0

// maxLineSize bounds a single source line.
const maxLineSize = 1 << 20

// Corner is one vertex reference of a primitive.
type Corner struct {
	Pos, Tex, Norm int
	Line           int // source line, not part of the key
}

// Key returns the deduplication key of the corner.
func (c Corner) Key() VertexKey {
	return VertexKey{Pos: c.Pos, Tex: c.Tex, Norm: c.Norm}
}

// Model is the raw data of a parsed source. Lists are indexed from 1 by
// corners; Colors holds one entry per position.
type Model struct {
	Topology  mesh.Topology
	Positions []math.Vec3
	Colors    []math.Vec4
	TexCoords []math.Vec2
	Normals   []math.Vec3

	// Corners of all primitives, Topology.Arity() per primitive.
	Corners []Corner
}

// PrimitiveCount returns the number of triangles or lines.
func (m *Model) PrimitiveCount() int {
	return len(m.Corners) / m.Topology.Arity()
}

// Primitive returns the corners of primitive i.
func (m *Model) Primitive(i int) []Corner {
	n := m.Topology.Arity()
	return m.Corners[i*n : (i+1)*n]
}

// Position resolves a 1-based position index. Absent resolves to the origin.
func (m *Model) Position(i int) math.Vec3 {
	if i == Absent {
		return math.Vec3{}
	}
	return m.Positions[i-1]
}

// Color resolves the color attached to a position. Absent resolves to white.
func (m *Model) Color(pos int) math.Vec4 {
	if pos == Absent {
		return math.White
	}
	return m.Colors[pos-1]
}

// TexCoord resolves a 1-based texture index. Absent resolves to (0, 0).
func (m *Model) TexCoord(i int) math.Vec2 {
	if i == Absent {
		return math.Vec2{}
	}
	return m.TexCoords[i-1]
}

// Normal resolves a 1-based normal index. Absent resolves to +X.
func (m *Model) Normal(i int) math.Vec3 {
	if i == Absent {
		return math.Vec3{X: 1}
	}
	return m.Normals[i-1]
}

// Parse reads model source from r. Faces are accepted in a triangle
// session, line segments in a line session.
func Parse(r io.Reader, topology mesh.Topology) (*Model, error) {
	p := &parser{model: &Model{Topology: topology}}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := p.parseLine(lineNo, scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read model source after line %d: %w", lineNo, err)
	}
	return p.model, nil
}

// ParseLines is like Parse for source already split into lines.
func ParseLines(lines []string, topology mesh.Topology) (*Model, error) {
	p := &parser{model: &Model{Topology: topology}}
	for i, line := range lines {
		if err := p.parseLine(i+1, line); err != nil {
			return nil, err
		}
	}
	return p.model, nil
}

type parser struct {
	model *Model
}

func (p *parser) parseLine(lineNo int, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	args := fields[1:]
	m := p.model

	switch fields[0] {
	case "v":
		// x y z, x y z w, x y z r g b, x y z r g b a
		if n := len(args); n != 3 && n != 4 && n != 6 && n != 7 {
			return parseErrorf(lineNo, "vertex has %d values, want 3, 4, 6 or 7", n)
		}
		vals, err := parseFloats(lineNo, args)
		if err != nil {
			return err
		}
		m.Positions = append(m.Positions, math.Vec3{X: vals[0], Y: vals[1], Z: vals[2]})
		col := math.White
		if len(vals) >= 6 {
			col = math.Vec4{X: vals[3], Y: vals[4], Z: vals[5], W: 1}
			if len(vals) == 7 {
				col.W = vals[6]
			}
		}
		m.Colors = append(m.Colors, col)

	case "vt":
		if len(args) != 2 {
			return parseErrorf(lineNo, "texture coordinate has %d values, want 2", len(args))
		}
		vals, err := parseFloats(lineNo, args)
		if err != nil {
			return err
		}
		m.TexCoords = append(m.TexCoords, math.Vec2{X: vals[0], Y: vals[1]})

	case "vn":
		if len(args) != 3 {
			return parseErrorf(lineNo, "normal has %d values, want 3", len(args))
		}
		vals, err := parseFloats(lineNo, args)
		if err != nil {
			return err
		}
		m.Normals = append(m.Normals, math.Vec3{X: vals[0], Y: vals[1], Z: vals[2]})

	case "f":
		if m.Topology != mesh.Triangles {
			return parseErrorf(lineNo, "face in a %s model", m.Topology)
		}
		if len(args) != 3 {
			return parseErrorf(lineNo, "face has %d corners, want 3", len(args))
		}
		return p.addPrimitive(lineNo, args)

	case "l":
		if m.Topology != mesh.Lines {
			return parseErrorf(lineNo, "line in a %s model", m.Topology)
		}
		if len(args) != 2 {
			return parseErrorf(lineNo, "line has %d corners, want 2", len(args))
		}
		return p.addPrimitive(lineNo, args)
	}

	return nil
}

// addPrimitive parses all corners before appending any, so a bad corner
// leaves no partial primitive behind.
func (p *parser) addPrimitive(lineNo int, tokens []string) error {
	var corners [3]Corner
	for i, tok := range tokens {
		c, err := p.parseCorner(lineNo, tok)
		if err != nil {
			return err
		}
		corners[i] = c
	}
	p.model.Corners = append(p.model.Corners, corners[:len(tokens)]...)
	return nil
}

// parseCorner parses pos, pos/tex, pos//norm or pos/tex/norm.
func (p *parser) parseCorner(lineNo int, tok string) (Corner, error) {
	parts := strings.Split(tok, "/")
	if len(parts) > 3 {
		return Corner{}, parseErrorf(lineNo, "corner %q has too many parts", tok)
	}

	c := Corner{Line: lineNo}
	m := p.model

	var err error
	if c.Pos, err = p.parseIndex(lineNo, tok, parts[0], "position", len(m.Positions), false); err != nil {
		return Corner{}, err
	}
	if len(parts) > 1 {
		if c.Tex, err = p.parseIndex(lineNo, tok, parts[1], "texture", len(m.TexCoords), true); err != nil {
			return Corner{}, err
		}
	}
	if len(parts) > 2 {
		if c.Norm, err = p.parseIndex(lineNo, tok, parts[2], "normal", len(m.Normals), true); err != nil {
			return Corner{}, err
		}
	}
	return c, nil
}

func (p *parser) parseIndex(lineNo int, tok, s, kind string, count int, optional bool) (int, error) {
	if s == "" {
		if optional {
			return Absent, nil
		}
		return 0, parseErrorf(lineNo, "corner %q has no %s index", tok, kind)
	}
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, parseErrorf(lineNo, "invalid %s index %q", kind, s)
	}
	if idx < 1 || idx > count {
		return 0, &IndexOutOfRangeError{Line: lineNo, Kind: kind, Index: idx, Count: count}
	}
	return idx, nil
}

func parseFloats(lineNo int, args []string) ([]float32, error) {
	vals := make([]float32, len(args))
	for i, s := range args {
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, parseErrorf(lineNo, "invalid number %q", s)
		}
		vals[i] = float32(f)
	}
	return vals, nil
}
