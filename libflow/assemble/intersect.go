package assemble

import (
	"github.com/2x3systems/flowmesh/flowmesh"
	"github.com/2x3systems/flowmesh/libflow/geom"
	"github.com/2x3systems/flowmesh/libflow/outmesh"
	"github.com/plan-systems/klog"
)

// GenerateIntersectionsOnFaces tests every Sys1 segment against every Sys2 segment recorded on the same input face.
// Each crossing becomes a new vertex spliced into both lines, returning the number of crossing vertices added.
//
// Segments are tested using their endpoints as traced, so a segment already split by an earlier crossing
// is still tested whole and insertOnEdge finds the right piece.
func GenerateIntersectionsOnFaces(X *outmesh.Mesh, eps float64) int {
	S1, S2 := X.Systems[flowmesh.Sys1], X.Systems[flowmesh.Sys2]

	crossings := 0
	for f := range S1.FaceSegs {
		segs1, segs2 := S1.FaceSegs[f], S2.FaceSegs[f]
		if len(segs1) == 0 || len(segs2) == 0 {
			continue
		}
		for _, e1 := range segs1 {
			a0, a1 := X.Segment(flowmesh.Sys1, e1)
			for _, e2 := range segs2 {
				b0, b1 := X.Segment(flowmesh.Sys2, e2)
				pt, _, _, ok := geom.SegmentsCross(a0, a1, b0, b1, eps)
				if !ok {
					continue
				}
				nv := X.AddVert(pt)
				ok1 := insertOnEdge(X, flowmesh.Sys1, e1, nv, eps)
				ok2 := insertOnEdge(X, flowmesh.Sys2, e2, nv, eps)
				if !ok1 || !ok2 {
					klog.V(2).Infof("face %d: crossing at %v only partly inserted", f, pt)
				}
				crossings++
			}
		}
	}
	return crossings
}

// insertOnEdge splices nv into the chain of vertices that now spans traced edge ei, between the two
// consecutive chain vertices whose segment contains nv.  Returns false if the chain is broken.
func insertOnEdge(X *outmesh.Mesh, sys flowmesh.SysID, ei outmesh.EdgeID, nv flowmesh.VtxID, eps float64) bool {
	fwd := sys.Forward()
	e := X.Systems[sys].Edges[ei]
	co := X.Co(nv)
	tol := onSegmentTol(eps)

	va := e.V1
	for {
		vc := X.Verts[va].Links[fwd]
		if vc == flowmesh.NilVtx {
			return false
		}
		if vc == e.V2 || geom.OnSegment(X.Co(va), X.Co(vc), co, tol) {
			X.Link(va, fwd, nv)
			X.Link(nv, fwd, vc)
			return true
		}
		va = vc
	}
}
