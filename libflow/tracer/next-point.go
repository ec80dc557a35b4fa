package tracer

import (
	"github.com/2x3systems/flowmesh/libflow/geom"
	"github.com/2x3systems/flowmesh/libflow/inmesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// NextPoint finds where the ray from co along dir leaves face f.
// co is expected to lie in f.  If co coincides with a corner (squared distance below eps), the ray is
// treated as leaving that corner into the face interior.
//
// Returns the exit point, the exit edge and an ExitStatus.  On ExitNone the point and edge are undefined.
func NextPoint(M *inmesh.InputMesh, f int32, co, dir r3.Vec, eps float64) (r3.Vec, int32, ExitStatus) {
	tri := M.Tris[f]

	var (
		P [3]r3.Vec
		a [3]r3.Vec
		s [3]float64
	)

	onCorner := -1
	for i := range tri {
		P[i] = M.Coords[tri[i]]
		a[i] = r3.Sub(P[i], co)
		if r3.Norm2(a[i]) < eps {
			onCorner = i
		}
	}

	if onCorner >= 0 {
		u1, _ := geom.Normalize(a[(onCorner+1)%3])
		u2, _ := geom.Normalize(a[(onCorner+2)%3])
		a[onCorner] = r3.Scale(-0.5, r3.Add(u1, u2))
	}

	n := M.Normals[f]
	for i := range a {
		s[i] = r3.Dot(r3.Cross(dir, a[i]), n)
	}

	pick := -1
	for i := range s {
		if s[i] < 0 && s[(i+1)%3] >= 0 {
			pick = i
		}
	}
	if pick < 0 {
		return co, -1, ExitNone
	}

	e := M.FaceEdges[f][pick]
	p0 := P[pick]
	_, exitCo, _, _, ok := geom.LineLineClosest(co, dir, p0, r3.Sub(P[(pick+1)%3], p0))
	if !ok {
		return co, e, ExitNone
	}

	v1, v2 := M.EdgeCoords(e)
	switch {
	case geom.Near(exitCo, v1, eps):
		return exitCo, e, ExitAtV1
	case geom.Near(exitCo, v2, eps):
		return exitCo, e, ExitAtV2
	}
	return exitCo, e, ExitOK
}
