package inmesh

import (
	"github.com/2x3systems/flowmesh/flowmesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Params is the raw input to New: a closed triangulated surface plus the fields computed over it.
type Params struct {
	Coords []r3.Vec   // vertex positions
	Tris   [][3]int32 // triangle corner indices, counter-clockwise
	U      []float64  // scalar potential, one per vertex

	// GF holds the gradient fields, one vector per face for each family
	GF [flowmesh.NumSys][]r3.Vec

	// Normals are per-face unit normals.  If nil, they are computed from Coords and Tris.
	Normals []r3.Vec

	// Features are the vertices seeded at weight 0.  If nil, features are detected from
	// sharp edges and Constrained is appended.
	Features    []int32
	Constrained []int32
}

// Edge is an input mesh edge between two vertices, bordered by exactly two faces.
type Edge struct {
	V [2]int32 // V[0] < V[1]
	F [2]int32
}

// InputMesh is a read-only triangulated surface with the adjacency the tracer needs.
type InputMesh struct {
	Coords   []r3.Vec
	Tris     [][3]int32
	Normals  []r3.Vec
	U        []float64
	GF       [flowmesh.NumSys][]r3.Vec
	Features []int32
	Edges    []Edge

	// FaceEdges[f][i] is the edge between corners i and (i+1)%3 of face f
	FaceEdges [][3]int32

	// VertFaces[v] lists the faces incident to vertex v, in ascending order
	VertFaces [][]int32

	// VertEdges[v] lists the edges incident to vertex v, in ascending order
	VertEdges [][]int32

	edgeIndex map[[2]int32]int32
}
