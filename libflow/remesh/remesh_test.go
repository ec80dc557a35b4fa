package remesh

import (
	"bytes"
	"testing"

	"github.com/2x3systems/flowmesh/flowmesh"
	"github.com/2x3systems/flowmesh/libflow/assemble"
	"github.com/2x3systems/flowmesh/libflow/inmesh"
	"github.com/2x3systems/flowmesh/libflow/tracer"
	"gonum.org/v1/gonum/spatial/r3"
)

var gT *testing.T

func pillowJob(label string, n int) *Job {
	p := inmesh.FlatPillow(n, 1, r3.Unit(r3.Vec{X: 1, Y: 0.3}), r3.Unit(r3.Vec{X: -0.3, Y: 1}))
	M, err := inmesh.New(p)
	if err != nil {
		gT.Fatal(err)
	}
	return NewJob(label, M)
}

func TestPillowRemesh(t *testing.T) {
	gT = t
	job := pillowJob("pillow", 8)

	mesh, st, err := job.Remesh(flowmesh.DefaultTraceOpts)
	if err != nil {
		t.Fatal(err)
	}
	if st.Crossings == 0 || len(mesh.Polys) == 0 {
		t.Fatalf("expected crossings and polys, got %d crossings and %d polys", st.Crossings, len(mesh.Polys))
	}
	for sys, sst := range st.Sys {
		if sst.LinesTraced == 0 || sst.Points == 0 {
			t.Fatalf("sys %d traced nothing: %+v", sys, sst)
		}
	}

	loopSum := 0
	for i := range mesh.Polys {
		poly := mesh.Poly(i)
		if len(poly) < 3 {
			t.Fatalf("poly %d has %d verts", i, len(poly))
		}
		for _, vi := range poly {
			if vi < 0 || int(vi) >= mesh.NumVerts() {
				t.Fatalf("poly %d references vertex %d", i, vi)
			}
		}
		loopSum += len(poly)
	}
	if loopSum+st.OpenWalkSlots != st.ConsumedSlots {
		t.Fatalf("expected %d consumed slots, got %d", loopSum+st.OpenWalkSlots, st.ConsumedSlots)
	}
	if len(mesh.Edges) != st.Edges || 2*st.Edges != st.ConsumedSlots {
		t.Fatalf("expected every edge walked once each way: %d edges, %d slots", st.Edges, st.ConsumedSlots)
	}
}

// After cleanup, a traced network has no line ends and no pass-through points.
func TestCleanupDegrees(t *testing.T) {
	gT = t
	opts := flowmesh.DefaultTraceOpts

	X, _, err := tracer.ComputeFlowLines(pillowJob("pillow", 8).Mesh(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if n := assemble.GenerateIntersectionsOnFaces(X, opts.Epsilon); n == 0 {
		t.Fatal("expected the two families to cross")
	}
	assemble.DeleteDegenerateVerts(X)
	if err = X.CheckLinks(); err != nil {
		t.Fatal(err)
	}

	crossings := 0
	for vi := range X.Verts {
		v := &X.Verts[vi]
		switch v.Degree() {
		case 1:
			t.Fatalf("vertex %d %v is a line end", vi, v.Co)
		case 2:
			for sys := flowmesh.Sys1; sys < flowmesh.NumSys; sys++ {
				if v.Links[sys.Forward()] != flowmesh.NilVtx && v.Links[sys.Backward()] != flowmesh.NilVtx {
					t.Fatalf("vertex %d %v passes through family %d", vi, v.Co, sys)
				}
			}
		case 4:
			crossings++
		}
	}
	if crossings == 0 {
		t.Fatal("expected crossings to survive cleanup")
	}
}

func TestDeterminism(t *testing.T) {
	gT = t
	job := pillowJob("pillow", 6)

	opts := flowmesh.DefaultTraceOpts
	opts.RandSeed = 77

	var encoded [2][]byte
	for i := range encoded {
		mesh, _, err := job.Remesh(opts)
		if err != nil {
			t.Fatal(err)
		}
		if encoded[i], err = mesh.Marshal(); err != nil {
			t.Fatal(err)
		}
	}
	if !bytes.Equal(encoded[0], encoded[1]) {
		t.Fatal("expected identical output for identical opts")
	}
}

func TestKey(t *testing.T) {
	gT = t
	a, b := pillowJob("a", 4), pillowJob("b", 4)
	opts := flowmesh.DefaultTraceOpts

	if a.Key(opts) != b.Key(opts) {
		t.Fatal("expected identical meshes to share a key")
	}
	if c := pillowJob("c", 5); c.Key(opts) == a.Key(opts) {
		t.Fatal("expected different meshes to have different keys")
	}

	k0 := a.Key(opts)
	opts.MinDist *= 2
	if a.Key(opts) == k0 {
		t.Fatal("expected MinDist to change the key")
	}
	opts = flowmesh.DefaultTraceOpts
	opts.RandSeed++
	if a.Key(opts) == k0 {
		t.Fatal("expected RandSeed to change the key")
	}
}
