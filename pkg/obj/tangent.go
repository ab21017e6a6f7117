package obj

import (
	"github.com/Faultbox/objbake/pkg/math"
	"github.com/Faultbox/objbake/pkg/mesh"
)

// FallbackTangent is assigned as both tangent and bitangent when a model has
// no texture coordinates. It is not a valid tangent space; lighting that
// relies on it will be wrong.
var FallbackTangent = math.Vec3{Z: 1}

// TangentFrame is the tangent and bitangent of one vertex.
type TangentFrame struct {
	Tangent   math.Vec3
	Bitangent math.Vec3
}

// TangentReport describes how tangents were produced.
type TangentReport struct {
	// Fallback is set when every vertex got FallbackTangent.
	Fallback bool
	// NonFinite lists vertex ids whose frame contains NaN or Inf, typically
	// from triangles with zero UV area.
	NonFinite []uint32
}

// SynthesizeTangents computes a tangent frame for each unique vertex of a
// deduplicated model.
//
// Each triangle's tangent is solved from its position edges and texture
// coordinate deltas, then made orthogonal to each corner's normal. A vertex
// shared by several triangles keeps the frame of the last one processed.
// Corners without texture coordinates use (0,0), (1,0) and (0,1), and
// corners without normals use +X.
//
// Models without texture coordinates, and line models, get the fallback
// frame everywhere.
func SynthesizeTangents(m *Model, table *DedupTable, indices []uint32) ([]TangentFrame, TangentReport) {
	frames := make([]TangentFrame, table.Len())
	var report TangentReport

	if len(m.TexCoords) == 0 || m.Topology != mesh.Triangles {
		for i := range frames {
			frames[i] = TangentFrame{FallbackTangent, FallbackTangent}
		}
		report.Fallback = true
		return frames, report
	}

	keys := table.Keys()
	for f := 0; f+2 < len(indices); f += 3 {
		tri := [3]uint32{indices[f], indices[f+1], indices[f+2]}
		tangent := triangleTangent(m, keys[tri[0]], keys[tri[1]], keys[tri[2]])

		for _, id := range tri {
			n := m.Normal(keys[id].Norm)
			t := tangent.Reject(n).Normalize()
			frames[id] = TangentFrame{
				Tangent:   t,
				Bitangent: n.Cross(t).Normalize(),
			}
		}
	}

	for id, fr := range frames {
		if !fr.Tangent.IsFinite() || !fr.Bitangent.IsFinite() {
			report.NonFinite = append(report.NonFinite, uint32(id))
		}
	}
	return frames, report
}

var defaultTexCoords = [3]math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}

// triangleTangent solves the tangent of one triangle. The determinant is
// not checked: a zero UV area yields a non-finite result.
func triangleTangent(m *Model, k1, k2, k3 VertexKey) math.Vec3 {
	p1 := m.Position(k1.Pos)
	e1 := m.Position(k2.Pos).Sub(p1)
	e2 := m.Position(k3.Pos).Sub(p1)

	var uv [3]math.Vec2
	for i, k := range [3]VertexKey{k1, k2, k3} {
		if k.Tex == Absent {
			uv[i] = defaultTexCoords[i]
		} else {
			uv[i] = m.TexCoord(k.Tex)
		}
	}
	d1 := uv[1].Sub(uv[0])
	d2 := uv[2].Sub(uv[0])

	invDet := 1 / (d1.X*d2.Y - d2.X*d1.Y)
	return e1.Scale(d2.Y).Sub(e2.Scale(d1.Y)).Scale(invDet)
}
