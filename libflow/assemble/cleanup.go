package assemble

import (
	"github.com/2x3systems/flowmesh/flowmesh"
	"github.com/2x3systems/flowmesh/libflow/outmesh"
)

// DeleteDegenerateVerts removes line ends and pass-through points from the network, returning the number of vertices tombstoned.
//
// A vertex with one link is unlinked and its neighbor reconsidered, so dangling tails peel away entirely.
// A vertex whose two links belong to the same family is spliced out, its neighbors linked directly.
// Vertices with links of both families (corners and T-junctions at the rim of a traced patch) are left as they are.
func DeleteDegenerateVerts(X *outmesh.Mesh) int {
	work := make([]flowmesh.VtxID, 0, len(X.Verts))
	for vi := len(X.Verts) - 1; vi >= 0; vi-- {
		work = append(work, flowmesh.VtxID(vi))
	}

	tombstoned := 0
	for len(work) > 0 {
		vi := work[len(work)-1]
		work = work[:len(work)-1]

		v := &X.Verts[vi]
		switch v.Degree() {
		case 1:
			for i, vb := range v.Links {
				if vb != flowmesh.NilVtx {
					X.Unlink(vi, i)
					work = append(work, vb)
				}
			}
			tombstoned++

		case 2:
			for sys := flowmesh.Sys1; sys < flowmesh.NumSys; sys++ {
				fwd, bwd := sys.Forward(), sys.Backward()
				a, b := v.Links[fwd], v.Links[bwd]
				if a == flowmesh.NilVtx || b == flowmesh.NilVtx {
					continue
				}
				X.Unlink(vi, fwd)
				X.Unlink(vi, bwd)
				if a != b {
					X.Link(b, fwd, a)
				} else {
					work = append(work, a)
				}
				tombstoned++
			}
		}
	}

	return tombstoned
}
