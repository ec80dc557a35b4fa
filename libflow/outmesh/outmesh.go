// Package outmesh holds the curve network built by the tracer: output vertices with four link slots,
// plus the segments each field family recorded on each input face.
package outmesh

import (
	"github.com/2x3systems/flowmesh/flowmesh"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vert is an output vertex.  Links[i] == B implies B.Links[(i+2)%4] == this vertex.
type Vert struct {
	Co    r3.Vec
	Links [flowmesh.NumSlots]flowmesh.VtxID
}

// Degree returns the number of non-empty link slots.
func (v *Vert) Degree() int {
	n := 0
	for _, vi := range v.Links {
		if vi != flowmesh.NilVtx {
			n++
		}
	}
	return n
}

// EdgeID indexes an Edge within its System.
type EdgeID int32

// Edge is a traced segment, oriented along +gradient:  V1.Links[sys.Forward()] was V2 when the edge was added.
type Edge struct {
	V1, V2 flowmesh.VtxID
}

// System is the segment storage for one field family.
type System struct {
	Sys      flowmesh.SysID
	Edges    []Edge
	FaceSegs [][]EdgeID // FaceSegs[f] lists the edges traced across input face f
}

// Mesh is the curve network shared by both field families.
type Mesh struct {
	Verts   []Vert
	Systems [flowmesh.NumSys]*System
}

func New(numFaces int) *Mesh {
	X := &Mesh{
		Verts: make([]Vert, 0, 256),
	}
	for i := range X.Systems {
		X.Systems[i] = &System{
			Sys:      flowmesh.SysID(i),
			FaceSegs: make([][]EdgeID, numFaces),
		}
	}
	return X
}

func (X *Mesh) NumVerts() int {
	return len(X.Verts)
}

// AddVert appends an unlinked vertex.  Previously returned IDs remain valid.
func (X *Mesh) AddVert(co r3.Vec) flowmesh.VtxID {
	X.Verts = append(X.Verts, Vert{
		Co:    co,
		Links: [flowmesh.NumSlots]flowmesh.VtxID{flowmesh.NilVtx, flowmesh.NilVtx, flowmesh.NilVtx, flowmesh.NilVtx},
	})
	return flowmesh.VtxID(len(X.Verts) - 1)
}

// Co returns the position of vertex vi.
func (X *Mesh) Co(vi flowmesh.VtxID) r3.Vec {
	return X.Verts[vi].Co
}

// Link sets slot i of va to vb and the opposite slot of vb to va.
func (X *Mesh) Link(va flowmesh.VtxID, i int, vb flowmesh.VtxID) {
	X.Verts[va].Links[i] = vb
	X.Verts[vb].Links[flowmesh.OppositeSlot(i)] = va
}

// Unlink clears slot i of va and the mirroring slot of the vertex it pointed to, returning that vertex.
func (X *Mesh) Unlink(va flowmesh.VtxID, i int) flowmesh.VtxID {
	vb := X.Verts[va].Links[i]
	if vb != flowmesh.NilVtx {
		X.Verts[vb].Links[flowmesh.OppositeSlot(i)] = flowmesh.NilVtx
		X.Verts[va].Links[i] = flowmesh.NilVtx
	}
	return vb
}

// AddEdge links v1 forward to v2 on the given family and records the segment as crossing input face f.
func (X *Mesh) AddEdge(sys flowmesh.SysID, v1, v2 flowmesh.VtxID, f int32) EdgeID {
	S := X.Systems[sys]
	ei := EdgeID(len(S.Edges))
	S.Edges = append(S.Edges, Edge{V1: v1, V2: v2})
	S.FaceSegs[f] = append(S.FaceSegs[f], ei)
	X.Link(v1, sys.Forward(), v2)
	return ei
}

// Segment returns the endpoints of edge ei of the given family.
func (X *Mesh) Segment(sys flowmesh.SysID, ei EdgeID) (r3.Vec, r3.Vec) {
	e := X.Systems[sys].Edges[ei]
	return X.Verts[e.V1].Co, X.Verts[e.V2].Co
}

// CloneLinks returns a copy of every vertex's link slots.
func (X *Mesh) CloneLinks() [][flowmesh.NumSlots]flowmesh.VtxID {
	links := make([][flowmesh.NumSlots]flowmesh.VtxID, len(X.Verts))
	for i := range X.Verts {
		links[i] = X.Verts[i].Links
	}
	return links
}

// CheckLinks verifies that every link is mirrored by the vertex it points to.
func (X *Mesh) CheckLinks() error {
	for va := range X.Verts {
		for i, vb := range X.Verts[va].Links {
			if vb == flowmesh.NilVtx {
				continue
			}
			if vb < 0 || int(vb) >= len(X.Verts) {
				return errors.Errorf("vertex %d slot %d points to invalid vertex %d", va, i, vb)
			}
			if back := X.Verts[vb].Links[flowmesh.OppositeSlot(i)]; back != flowmesh.VtxID(va) {
				return errors.Errorf("vertex %d slot %d points to %d but the mirror slot holds %d", va, i, vb, back)
			}
		}
	}
	return nil
}
