package assemble

import (
	"github.com/2x3systems/flowmesh/flowmesh"
)

// MakeEdges emits one edge per mutual link pair, clearing both slots of each pair as it goes.
// Each edge is given from the vertex holding the lower slot index.
func MakeEdges(links Links) [][2]flowmesh.VtxID {
	var edges [][2]flowmesh.VtxID
	for va := range links {
		for i := 0; i < flowmesh.NumSlots; i++ {
			vb := links[va][i]
			if vb == flowmesh.NilVtx {
				continue
			}
			edges = append(edges, [2]flowmesh.VtxID{flowmesh.VtxID(va), vb})
			links[va][i] = flowmesh.NilVtx
			links[vb][flowmesh.OppositeSlot(i)] = flowmesh.NilVtx
		}
	}
	return edges
}

// nextSlot picks the slot to leave v by after arriving through slot d: the first non-empty of
// a turn to d+1, straight on through d, or a turn to d+3.  Turning back is never taken.
func nextSlot(slots *[flowmesh.NumSlots]flowmesh.VtxID, d int) int {
	for _, turn := range [3]int{1, 0, 3} {
		try := (d + turn) % flowmesh.NumSlots
		if slots[try] != flowmesh.NilVtx {
			return try
		}
	}
	return -1
}

// MakePolys walks the link graph into polygon loops.
//
// Every non-empty slot starts a walk that follows links, consuming each directed slot it leaves by.
// A walk ends when it arrives back at its starting vertex, yielding one loop, or when nextSlot finds nothing.
// Walks that do not close, or close with fewer than 3 verts, are dropped and counted in WalkStats.
func MakePolys(links Links) (loops []flowmesh.VtxID, polys []flowmesh.Poly, walks WalkStats) {
	for vi := range links {
		start := flowmesh.VtxID(vi)
		for j := 0; j < flowmesh.NumSlots; j++ {
			if links[vi][j] == flowmesh.NilVtx {
				continue
			}

			loopStart := len(loops)
			v, d := start, j
			closed := false
			for {
				loops = append(loops, v)
				next := links[v][d]
				links[v][d] = flowmesh.NilVtx
				walks.Consumed++
				v = next
				if v == start {
					closed = true
					break
				}
				if d = nextSlot(&links[v], d); d < 0 {
					break
				}
			}

			n := len(loops) - loopStart
			if !closed || n < 3 {
				loops = loops[:loopStart]
				walks.Open++
				walks.OpenSlots += n
				continue
			}
			polys = append(polys, flowmesh.Poly{
				Start: int32(loopStart),
				Len:   int32(n),
			})
		}
	}
	return loops, polys, walks
}
