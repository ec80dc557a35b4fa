// Package geom holds the small set of 3D primitives the tracer and assembler share.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Lerp returns a + t*(b-a).
func Lerp(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// ProjectOnPlane removes from v its component along the unit normal n.
func ProjectOnPlane(v, n r3.Vec) r3.Vec {
	return r3.Sub(v, r3.Scale(r3.Dot(v, n), n))
}

// Normalize returns v scaled to unit length and the original length.
// A zero vector is returned unchanged with length 0.
func Normalize(v r3.Vec) (r3.Vec, float64) {
	l := r3.Norm(v)
	if l == 0 {
		return v, 0
	}
	return r3.Scale(1/l, v), l
}

// TriNormal returns the unit normal of triangle (a, b, c) with counter-clockwise winding.
func TriNormal(a, b, c r3.Vec) r3.Vec {
	n, _ := Normalize(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
	return n
}

// Near reports if a and b are within sqrt(eps) of each other.
func Near(a, b r3.Vec, eps float64) bool {
	return r3.Norm2(r3.Sub(a, b)) < eps
}

// LineLineClosest returns the points on lines (p1 + s*d1) and (p2 + t*d2) closest to each other
// along with the params s and t.  ok is false if the lines are parallel or either direction is degenerate.
func LineLineClosest(p1, d1, p2, d2 r3.Vec) (c1, c2 r3.Vec, s, t float64, ok bool) {
	a := r3.Dot(d1, d1)
	e := r3.Dot(d2, d2)
	b := r3.Dot(d1, d2)
	denom := a*e - b*b
	if a == 0 || e == 0 || denom <= 1e-12*a*e {
		return
	}
	r := r3.Sub(p1, p2)
	c := r3.Dot(d1, r)
	f := r3.Dot(d2, r)
	s = (b*f - c*e) / denom
	t = (a*f - b*c) / denom
	c1 = r3.Add(p1, r3.Scale(s, d1))
	c2 = r3.Add(p2, r3.Scale(t, d2))
	ok = true
	return
}

// SegmentsCross tests segments [a0,a1] and [b0,b1] for a crossing.
// Params are half-open: a crossing must satisfy 0 <= s < 1 and 0 <= t < 1, so chained segments sharing
// an endpoint report that point once.  The two closest points must lie within sqrt(eps) of each other.
// The returned point is the midpoint of the two closest points.
func SegmentsCross(a0, a1, b0, b1 r3.Vec, eps float64) (pt r3.Vec, s, t float64, ok bool) {
	c1, c2, s, t, ok := LineLineClosest(a0, r3.Sub(a1, a0), b0, r3.Sub(b1, b0))
	if !ok || s < 0 || s >= 1 || t < 0 || t >= 1 || !Near(c1, c2, eps) {
		return pt, s, t, false
	}
	return Lerp(c1, c2, 0.5), s, t, true
}

// SegmentsTouch is the closed-interval form of SegmentsCross, used for proximity tests.
func SegmentsTouch(a0, a1, b0, b1 r3.Vec, eps float64) bool {
	c1, c2, s, t, ok := LineLineClosest(a0, r3.Sub(a1, a0), b0, r3.Sub(b1, b0))
	return ok && s >= 0 && s <= 1 && t >= 0 && t <= 1 && Near(c1, c2, eps)
}

// OnSegment reports if p lies on segment [a,b]: |a-p| + |p-b| equals |a-b| within tol.
func OnSegment(a, b, p r3.Vec, tol float64) bool {
	d := r3.Norm(r3.Sub(a, p)) + r3.Norm(r3.Sub(p, b)) - r3.Norm(r3.Sub(a, b))
	return math.Abs(d) <= tol
}
