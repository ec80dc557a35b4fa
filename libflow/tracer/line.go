package tracer

import (
	"github.com/2x3systems/flowmesh/flowmesh"
	"github.com/2x3systems/flowmesh/libflow/geom"
	"github.com/2x3systems/flowmesh/libflow/seeds"
	"github.com/plan-systems/klog"
	"gonum.org/v1/gonum/spatial/r3"
)

type stagedPoint struct {
	co r3.Vec
	f  int32
}

// line is a curve being traced from one seed.
type line struct {
	state  LineState
	pass   int    // 0: along +gradient, 1: along -gradient
	origin r3.Vec // seed point

	seed flowmesh.VtxID // first committed vertex
	end  flowmesh.VtxID // committed vertex furthest along the current pass

	oldco      r3.Vec  // last accepted point
	lastchk    r3.Vec  // last point that passed a spacing check
	lastchkLen float64 // arc length at lastchk
	qlen       float64 // arc length at oldco

	staged []stagedPoint // accepted points not yet committed, in order
}

func (T *Tracer) newLine(seed seeds.Seed) *line {
	return &line{
		state:   Unseeded,
		origin:  seed.Co,
		seed:    flowmesh.NilVtx,
		end:     flowmesh.NilVtx,
		oldco:   seed.Co,
		lastchk: seed.Co,
		staged:  make([]stagedPoint, 0, T.opts.StagingCap),
	}
}

// sign returns the multiplier applied to the gradient field for the current pass.
func (ln *line) sign() float64 {
	if ln.pass == 0 {
		return 1
	}
	return -1
}

// commit appends a vertex at co to the end of the line, recording the new segment on face f.
func (T *Tracer) commit(ln *line, f int32, co r3.Vec) {
	if geom.Near(co, T.out.Co(ln.end), T.opts.Epsilon) {
		return
	}
	newv := T.out.AddVert(co)
	if ln.pass == 0 {
		T.out.AddEdge(T.cur.sys, ln.end, newv, f)
	} else {
		T.out.AddEdge(T.cur.sys, newv, ln.end, f)
	}
	ln.end = newv
	T.cur.stats.Points++
}

func (T *Tracer) flushStaged(ln *line) {
	for _, pt := range ln.staged {
		T.commit(ln, pt.f, pt.co)
	}
	ln.staged = ln.staged[:0]
}

// addPointToLine stages newco, reached by crossing face f, running a spacing check each time the
// line grows by another SamplingInterval.  Returns false if the current pass must stop.
func (T *Tracer) addPointToLine(ln *line, f int32, newco r3.Vec) bool {
	chklen := T.opts.SamplingInterval

	seg := r3.Sub(newco, ln.oldco)
	curlen := r3.Norm(seg)

	if ln.state == Unseeded {
		if !T.checkPoint(newco, ln.oldco, f) {
			T.cur.stats.SeedsRejected++
			return false
		}
		ln.seed = T.out.AddVert(ln.oldco)
		ln.end = ln.seed
		ln.lastchk = ln.oldco
		ln.lastchkLen, ln.qlen = 0, 0
		ln.staged = ln.staged[:0]
		if ln.pass == 0 {
			ln.state = Forward
		} else {
			ln.state = Backward
		}
		T.cur.stats.Points++
	}

	for ln.qlen+curlen > ln.lastchkLen+chklen {
		newchk := r3.Add(ln.oldco, r3.Scale((ln.lastchkLen+chklen-ln.qlen)/curlen, seg))

		if !T.checkPoint(ln.lastchk, newchk, f) {
			cf := f
			if len(ln.staged) > 0 {
				cf = ln.staged[0].f
			}
			ln.staged = ln.staged[:0]
			T.commit(ln, cf, ln.lastchk)
			T.cur.stats.Truncations++
			return false
		}

		T.flushStaged(ln)
		ln.lastchk = newchk
		ln.lastchkLen += chklen
	}

	if len(ln.staged) == T.opts.StagingCap {
		T.cur.stats.Overflows++
		return false
	}

	ln.oldco = newco
	ln.staged = append(ln.staged, stagedPoint{co: newco, f: f})
	ln.qlen += curlen
	return true
}

// changeLineDirection flushes the current pass and rewinds the line to its seed.
// Returns false once both passes are done.
func (T *Tracer) changeLineDirection(ln *line) bool {
	if ln.seed != flowmesh.NilVtx {
		T.flushStaged(ln)
		ln.oldco = T.out.Co(ln.seed)
	} else {
		ln.oldco = ln.origin
	}

	ln.end = ln.seed
	ln.lastchk = ln.oldco
	ln.lastchkLen, ln.qlen = 0, 0

	ln.pass++
	switch {
	case ln.pass >= 2:
		ln.state = Finished
		return false
	case ln.state == Forward:
		ln.state = Backward
	}
	return true
}

// bounceVert returns the endpoint of input edge e lower along the field for a pass moving in direction dir.
// Ties go to the edge's first vertex.
func (T *Tracer) bounceVert(e int32, dir float64) int32 {
	ev := T.mesh.Edges[e].V
	if dir*T.mesh.U[ev[1]] < dir*T.mesh.U[ev[0]] {
		return ev[1]
	}
	return ev[0]
}

// computeGFLine traces one line from the given seed, first along the field then against it.
func (T *Tracer) computeGFLine(seed seeds.Seed) {
	M := T.mesh
	field := T.cur.field
	eps := T.opts.Epsilon
	ln := T.newLine(seed)

	for {
		dir := ln.sign()

		isVertex := seed.Kind == seeds.VertSeed
		v, f, e := seed.Index, seed.Index, int32(-1)
		if isVertex {
			f = -1
		}

		steps := 0
		for ; steps < T.opts.MaxLineSteps; steps++ {
			var newco r3.Vec

			if isVertex {
				found := false
				for _, vf := range M.VertFaces[v] {
					co, ne, status := NextPoint(M, vf, ln.oldco, r3.Scale(dir, field[vf]), eps)
					if status == ExitOK {
						f, e, newco = vf, ne, co
						found = true
						break
					}
				}
				if !found {
					break
				}
				isVertex = false
			} else {
				co, ne, status := NextPoint(M, f, ln.oldco, r3.Scale(dir, field[f]), eps)
				switch status {
				case ExitAtV1:
					isVertex = true
					v = M.Edges[ne].V[0]
				case ExitAtV2:
					isVertex = true
					v = M.Edges[ne].V[1]
				}
				if status == ExitNone {
					break
				}
				newco = co

				// Bouncing back through the entry edge
				if ne == e {
					v = T.bounceVert(e, dir)
					newco = M.Coords[v]
					isVertex = true
				}
				e = ne
			}

			if !T.addPointToLine(ln, f, newco) {
				break
			}
			f = M.OtherFace(e, f)
		}

		if steps == T.opts.MaxLineSteps {
			klog.Warningf("%v line from %v hit MaxLineSteps (%d)", T.cur.sys, seed, steps)
		}

		if !T.changeLineDirection(ln) {
			break
		}
	}

	klog.V(3).Infof("%v line from %v: %d verts total", T.cur.sys, seed, T.out.NumVerts())
}
