package tracer

import (
	"github.com/2x3systems/flowmesh/flowmesh"
	"github.com/2x3systems/flowmesh/libflow/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// queryDirection marches from co across the surface along dir, perpendicular to the line being traced,
// and reports if a recorded segment lies within MinDist.
//
// If makeSeed is set, the march continues to MaxDist and schedules a face seed where it ends.
func (T *Tracer) queryDirection(co r3.Vec, f int32, dir r3.Vec, makeSeed bool) QueryResult {
	M := T.mesh
	opts := &T.opts
	dist := opts.MinDist
	maxDist := opts.MaxDist

	oldf := f
	oldco := co
	actlen := 0.0

	for step := 0; step < opts.MaxScanSteps; step++ {
		n := M.Normals[f]
		var l float64
		dir, l = geom.Normalize(geom.ProjectOnPlane(dir, n))
		if l < opts.Epsilon {
			return QueryAbstain
		}
		if r3.Dot(M.Normals[oldf], n) < 0 {
			dir = r3.Scale(-1, dir)
		}

		newco, e, status := NextPoint(M, f, oldco, dir, opts.Epsilon)
		if status != ExitOK {
			return QueryAbstain
		}
		oldf = f

		seg := r3.Sub(newco, oldco)
		l = r3.Norm(seg)
		actlen += l

		if actlen-l < dist {
			reachCo := newco
			if actlen > dist {
				reachCo = r3.Add(oldco, r3.Scale((dist-actlen+l)/l, seg))
			}
			if T.nearRecordedSegment(oldco, reachCo, f) {
				return QueryTooClose
			}
		}

		if actlen > dist && !makeSeed {
			return QueryClear
		}

		if actlen > maxDist {
			seedCo := r3.Add(oldco, r3.Scale((maxDist-actlen+l)/l, seg))
			T.cur.seeds.PushFace(f, seedCo, -maxDist)
			T.cur.stats.SeedsQueued++
			T.cur.stats.SeedsSpawned++
			return QueryClear
		}

		f = M.OtherFace(e, f)
		oldco = newco
	}

	return QueryAbstain
}

// nearRecordedSegment reports if segment [a,b] on face f touches a segment recorded there by the tracing family,
// or with SpacingOpposite, by either family.
func (T *Tracer) nearRecordedSegment(a, b r3.Vec, f int32) bool {
	if T.touchesFamily(T.cur.sys, a, b, f) {
		return true
	}
	return T.opts.Spacing == flowmesh.SpacingOpposite && T.touchesFamily(T.cur.sys.Other(), a, b, f)
}

func (T *Tracer) touchesFamily(sys flowmesh.SysID, a, b r3.Vec, f int32) bool {
	for _, ei := range T.out.Systems[sys].FaceSegs[f] {
		p, q := T.out.Segment(sys, ei)
		if geom.SegmentsTouch(a, b, p, q, T.opts.Epsilon) {
			return true
		}
	}
	return false
}

// checkPoint accepts newco unless a spacing scan from it, in either direction perpendicular to
// the segment (oldco, newco), finds another line too close.
func (T *Tracer) checkPoint(oldco, newco r3.Vec, f int32) bool {
	makeSeed := T.rng.Float64() < T.opts.SeedProb

	seg := r3.Sub(oldco, newco)
	if r3.Norm2(seg) < T.opts.Epsilon {
		return true
	}

	dir, _ := geom.Normalize(r3.Cross(T.mesh.Normals[f], seg))
	for d := 0; d < 2; d++ {
		if T.queryDirection(newco, f, dir, makeSeed) == QueryTooClose {
			return false
		}
		dir = r3.Scale(-1, dir)
	}
	return true
}
