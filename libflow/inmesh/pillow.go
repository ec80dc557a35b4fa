package inmesh

import (
	"github.com/2x3systems/flowmesh/flowmesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// FlatPillow returns params for a closed surface made of two n x n grids over the square [0,size]^2 (z = 0),
// the top facing +z and the bottom facing -z, sharing their boundary vertices.
// Both families see a uniform field (g1 and g2) on every face and U is the potential of g1.
// Features are left to detection, which flags every boundary vertex.
//
// n must be at least 2 so that no top and bottom edge share both endpoints.
func FlatPillow(n int, size float64, g1, g2 r3.Vec) Params {
	if n < 2 {
		n = 2
	}
	h := size / float64(n)
	W := n + 1

	p := Params{
		Coords: make([]r3.Vec, 0, W*W+(n-1)*(n-1)),
		Tris:   make([][3]int32, 0, 4*n*n),
	}

	top := func(i, j int) int32 {
		return int32(j*W + i)
	}
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			p.Coords = append(p.Coords, r3.Vec{X: float64(i) * h, Y: float64(j) * h})
		}
	}

	bottomIdx := make([]int32, W*W)
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			if i == 0 || j == 0 || i == n || j == n {
				bottomIdx[j*W+i] = top(i, j)
			} else {
				bottomIdx[j*W+i] = int32(len(p.Coords))
				p.Coords = append(p.Coords, p.Coords[top(i, j)])
			}
		}
	}
	bottom := func(i, j int) int32 {
		return bottomIdx[j*W+i]
	}

	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			a, b, c, d := top(i, j), top(i+1, j), top(i+1, j+1), top(i, j+1)
			p.Tris = append(p.Tris, [3]int32{a, b, c}, [3]int32{a, c, d})
		}
	}
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			a, b, c, d := bottom(i, j), bottom(i+1, j), bottom(i+1, j+1), bottom(i, j+1)
			p.Tris = append(p.Tris, [3]int32{a, d, b}, [3]int32{b, d, c})
		}
	}

	p.U = make([]float64, len(p.Coords))
	for vi, co := range p.Coords {
		p.U[vi] = r3.Dot(co, g1)
	}

	for sys, g := range [flowmesh.NumSys]r3.Vec{g1, g2} {
		gf := make([]r3.Vec, len(p.Tris))
		for fi := range gf {
			gf[fi] = g
		}
		p.GF[sys] = gf
	}

	return p
}
