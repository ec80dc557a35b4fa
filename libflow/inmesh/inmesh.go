package inmesh

import (
	"github.com/2x3systems/flowmesh/flowmesh"
	"github.com/2x3systems/flowmesh/libflow/geom"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// New validates the given params and derives edges, adjacency and normals.
func New(p Params) (*InputMesh, error) {
	Nv := len(p.Coords)
	Nf := len(p.Tris)

	if Nf == 0 {
		return nil, errors.Wrap(flowmesh.ErrBadInput, "mesh has no faces")
	}
	if len(p.U) != Nv {
		return nil, errors.Wrapf(flowmesh.ErrBadInput, "got %d scalar values for %d verts", len(p.U), Nv)
	}
	for sys, gf := range p.GF {
		if len(gf) != Nf {
			return nil, errors.Wrapf(flowmesh.ErrBadInput, "got %d %v gradients for %d faces", len(gf), flowmesh.SysID(sys), Nf)
		}
	}
	if p.Normals != nil && len(p.Normals) != Nf {
		return nil, errors.Wrapf(flowmesh.ErrBadInput, "got %d normals for %d faces", len(p.Normals), Nf)
	}

	M := &InputMesh{
		Coords:    p.Coords,
		Tris:      p.Tris,
		U:         p.U,
		GF:        p.GF,
		Normals:   p.Normals,
		FaceEdges: make([][3]int32, Nf),
		VertFaces: make([][]int32, Nv),
		VertEdges: make([][]int32, Nv),
		Edges:     make([]Edge, 0, Nf*3/2),
		edgeIndex: make(map[[2]int32]int32, Nf*3/2),
	}

	faceCount := make([]int, 0, Nf*3/2)

	for fi, tri := range p.Tris {
		f := int32(fi)
		for i, vi := range tri {
			if vi < 0 || int(vi) >= Nv {
				return nil, errors.Wrapf(flowmesh.ErrBadInput, "face %d references vertex %d", fi, vi)
			}
			if vi == tri[(i+1)%3] {
				return nil, errors.Wrapf(flowmesh.ErrBadInput, "face %d is degenerate", fi)
			}
		}
		for i, vi := range tri {
			M.VertFaces[vi] = append(M.VertFaces[vi], f)

			key := edgeKey(vi, tri[(i+1)%3])
			ei, exists := M.edgeIndex[key]
			if !exists {
				ei = int32(len(M.Edges))
				M.edgeIndex[key] = ei
				M.Edges = append(M.Edges, Edge{V: key, F: [2]int32{f, -1}})
				faceCount = append(faceCount, 0)
				M.VertEdges[key[0]] = append(M.VertEdges[key[0]], ei)
				M.VertEdges[key[1]] = append(M.VertEdges[key[1]], ei)
			}
			if faceCount[ei] < 2 {
				M.Edges[ei].F[faceCount[ei]] = f
			}
			faceCount[ei]++
			M.FaceEdges[fi][i] = ei
		}
	}

	for ei, n := range faceCount {
		if n != 2 {
			e := M.Edges[ei]
			return nil, errors.Wrapf(flowmesh.ErrNonManifold, "edge (%d,%d) borders %d faces", e.V[0], e.V[1], n)
		}
	}

	if M.Normals == nil {
		M.Normals = make([]r3.Vec, Nf)
		for fi := range p.Tris {
			a, b, c := M.Corners(int32(fi))
			M.Normals[fi] = geom.TriNormal(a, b, c)
		}
	}

	if p.Features != nil {
		M.Features = make([]int32, 0, len(p.Features))
		for _, vi := range p.Features {
			if vi < 0 || int(vi) >= Nv {
				return nil, errors.Wrapf(flowmesh.ErrBadInput, "feature vertex %d out of range", vi)
			}
			M.Features = append(M.Features, vi)
		}
	} else {
		for _, vi := range p.Constrained {
			if vi < 0 || int(vi) >= Nv {
				return nil, errors.Wrapf(flowmesh.ErrBadInput, "constrained vertex %d out of range", vi)
			}
		}
		M.Features = DetectFeatures(M, p.Constrained)
	}

	return M, nil
}

func edgeKey(a, b int32) [2]int32 {
	if a > b {
		a, b = b, a
	}
	return [2]int32{a, b}
}

func (M *InputMesh) NumVerts() int {
	return len(M.Coords)
}

func (M *InputMesh) NumFaces() int {
	return len(M.Tris)
}

// Corners returns the positions of the three corners of face f.
func (M *InputMesh) Corners(f int32) (r3.Vec, r3.Vec, r3.Vec) {
	tri := M.Tris[f]
	return M.Coords[tri[0]], M.Coords[tri[1]], M.Coords[tri[2]]
}

// EdgeBetween returns the edge joining vertices a and b.
func (M *InputMesh) EdgeBetween(a, b int32) (int32, bool) {
	ei, ok := M.edgeIndex[edgeKey(a, b)]
	return ei, ok
}

// OtherFace returns the face across edge e from face f.
func (M *InputMesh) OtherFace(e, f int32) int32 {
	F := M.Edges[e].F
	if F[0] == f {
		return F[1]
	}
	return F[0]
}

// EdgeCoords returns the positions of the endpoints of edge e.
func (M *InputMesh) EdgeCoords(e int32) (r3.Vec, r3.Vec) {
	V := M.Edges[e].V
	return M.Coords[V[0]], M.Coords[V[1]]
}

// DetectFeatures returns, in ascending order, the vertices of every edge whose two faces meet at 90 degrees or sharper,
// together with the given constrained vertices.
func DetectFeatures(M *InputMesh, constrained []int32) []int32 {
	isFeature := make([]bool, len(M.Coords))
	for _, e := range M.Edges {
		if r3.Dot(M.Normals[e.F[0]], M.Normals[e.F[1]]) <= 0 {
			isFeature[e.V[0]] = true
			isFeature[e.V[1]] = true
		}
	}
	for _, vi := range constrained {
		isFeature[vi] = true
	}

	var features []int32
	for vi, yes := range isFeature {
		if yes {
			features = append(features, int32(vi))
		}
	}
	return features
}
