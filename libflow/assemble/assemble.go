// Package assemble turns the curve network traced by the two field families into a polygon mesh:
// crossings become shared vertices, dangling pieces are removed, and the remaining link graph is walked into edges and polygons.
package assemble

import (
	"math"

	"github.com/2x3systems/flowmesh/flowmesh"
	"github.com/2x3systems/flowmesh/libflow/outmesh"
	"github.com/plan-systems/klog"
)

// Links is a snapshot of every output vertex's link slots, indexed by VtxID.
type Links = [][flowmesh.NumSlots]flowmesh.VtxID

// WalkStats reports how polygon extraction consumed link slots.
type WalkStats struct {
	Consumed  int // directed slots consumed
	Open      int // walks discarded for not closing (or closing with fewer than 3 verts)
	OpenSlots int // slots consumed by discarded walks
}

// Assemble runs the full assembly over X, which it modifies in place, and returns the compacted result.
// Only vertices left with at least one link are emitted, in ascending VtxID order.
func Assemble(X *outmesh.Mesh, eps float64) (*flowmesh.PolyMesh, flowmesh.Stats) {
	var st flowmesh.Stats

	st.Crossings = GenerateIntersectionsOnFaces(X, eps)
	st.Tombstoned = DeleteDegenerateVerts(X)

	edges := MakeEdges(X.CloneLinks())
	loops, polys, walks := MakePolys(X.CloneLinks())

	st.Edges = len(edges)
	st.ConsumedSlots = walks.Consumed
	st.OpenWalks = walks.Open
	st.OpenWalkSlots = walks.OpenSlots

	remap := make([]int32, len(X.Verts))
	mesh := &flowmesh.PolyMesh{}
	for vi := range X.Verts {
		remap[vi] = -1
		if X.Verts[vi].Degree() > 0 {
			remap[vi] = int32(len(mesh.Verts))
			mesh.Verts = append(mesh.Verts, X.Verts[vi].Co)
		}
	}

	mesh.Loops = make([]int32, len(loops))
	for i, vi := range loops {
		mesh.Loops[i] = remap[vi]
	}
	mesh.Polys = polys
	mesh.Edges = make([][2]int32, len(edges))
	for i, e := range edges {
		mesh.Edges[i] = [2]int32{remap[e[0]], remap[e[1]]}
	}

	klog.V(2).Infof("assembled %d verts, %d edges, %d polys (%d crossings, %d tombstoned, %d open walks)",
		len(mesh.Verts), len(mesh.Edges), len(mesh.Polys), st.Crossings, st.Tombstoned, st.OpenWalks)
	if walks.Open > 0 {
		klog.V(1).Infof("%d polygon walks did not close (%d slots)", walks.Open, walks.OpenSlots)
	}

	return mesh, st
}

// onSegmentTol converts a squared-distance tolerance into the length tolerance used by geom.OnSegment.
func onSegmentTol(eps float64) float64 {
	return math.Sqrt(eps)
}
