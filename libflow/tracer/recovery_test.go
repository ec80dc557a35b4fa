package tracer

import (
	"math"
	"testing"

	"github.com/2x3systems/flowmesh/flowmesh"
	"github.com/2x3systems/flowmesh/libflow/inmesh"
	"github.com/2x3systems/flowmesh/libflow/seeds"
	"gonum.org/v1/gonum/spatial/r3"
)

type fixedRand struct {
	v     float64
	calls int
}

func (r *fixedRand) Float64() float64 {
	r.calls++
	return r.v
}

// funnelPillow is a 2x2 pillow over [0,2]^2 whose top faces 0 and 1 carry family-1 fields pointing at
// their shared diagonal (verts 0 and 4), so a line entering face 1 from face 0 is turned straight back.
func funnelPillow() *inmesh.InputMesh {
	M := pillow(2, 2, unit(1, 0), unit(0, 1), []int32{})
	M.GF[flowmesh.Sys1][0] = unit(-1, 1)
	M.GF[flowmesh.Sys1][1] = unit(1, -1)
	return M
}

func TestBounceVert(t *testing.T) {
	gT = t
	M := funnelPillow()
	T := newTestTracer(M, flowmesh.DefaultTraceOpts)

	e, ok := M.EdgeBetween(0, 4)
	if !ok {
		t.Fatal("expected an edge between verts 0 and 4")
	}

	// U is x, so vert 0 is lower along +field and vert 4 along -field
	if v := T.bounceVert(e, 1); v != 0 {
		t.Fatalf("expected vert 0, got %d", v)
	}
	if v := T.bounceVert(e, -1); v != 4 {
		t.Fatalf("expected vert 4, got %d", v)
	}

	M.U[4] = M.U[0]
	if T.bounceVert(e, 1) != 0 || T.bounceVert(e, -1) != 0 {
		t.Fatal("expected ties to go to the edge's first vert")
	}
}

func TestBounceSnapsLine(t *testing.T) {
	tests := []struct {
		name string
		u4   float64
		snap r3.Vec
	}{
		{"lower first", 1, r3.Vec{}},
		{"lower second", -1, r3.Vec{X: 1, Y: 1}},
		{"tie", 0, r3.Vec{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gT = t
			M := funnelPillow()
			M.U[4] = tt.u4

			opts := flowmesh.DefaultTraceOpts
			opts.SeedProb = 0
			opts.MaxLineSteps = 2
			T := newTestTracer(M, opts)
			T.computeGFLine(seeds.Seed{Kind: seeds.FaceSeed, Index: 0, Co: r3.Vec{X: 0.75, Y: 0.25}})

			// seed, the diagonal crossing, then the snapped vert
			X := T.Output()
			if X.NumVerts() < 3 {
				t.Fatalf("expected at least 3 verts, got %d", X.NumVerts())
			}
			if !near(X.Co(1), r3.Vec{X: 0.5, Y: 0.5}) {
				t.Fatalf("expected the diagonal crossing, got %v", X.Co(1))
			}
			fwd := flowmesh.Sys1.Forward()
			if X.Verts[0].Links[fwd] != 1 || X.Verts[1].Links[fwd] != 2 {
				t.Fatalf("unexpected forward links %v %v", X.Verts[0].Links, X.Verts[1].Links)
			}
			if !near(X.Co(2), tt.snap) {
				t.Fatalf("expected the line to snap to %v, got %v", tt.snap, X.Co(2))
			}
			if err := X.CheckLinks(); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestStagingOverflow(t *testing.T) {
	gT = t
	center := int32(5*11 + 5)
	M := pillow(10, 1, unit(1, 0.3), unit(-0.3, 1), []int32{center})

	opts := flowmesh.DefaultTraceOpts
	opts.SeedProb = 0
	opts.LineLimit = 1
	opts.StagingCap = 1
	opts.SamplingInterval = 10

	T, err := NewTracer(M, opts)
	if err != nil {
		t.Fatal(err)
	}
	T.TraceSystem(flowmesh.Sys1)

	// Each pass stages one point, overflows on the next, and commits what it staged
	st := T.Stats()[flowmesh.Sys1]
	if st.Overflows != 2 || st.Truncations != 0 || st.SeedsRejected != 0 {
		t.Fatalf("expected 2 overflows and nothing else, got %+v", st)
	}
	X := T.Output()
	if X.NumVerts() != 3 {
		t.Fatalf("expected seed plus one vert per pass, got %d verts", X.NumVerts())
	}
	if X.Verts[0].Degree() != 2 {
		t.Fatalf("expected the seed to link both ways, got %v", X.Verts[0].Links)
	}
	if err = X.CheckLinks(); err != nil {
		t.Fatal(err)
	}
}

// addBlocker records a family-1 segment from a to b on each of the given faces.
func addBlocker(T *Tracer, a, b r3.Vec, faces ...int32) {
	va := T.out.AddVert(a)
	vb := T.out.AddVert(b)
	for _, f := range faces {
		T.out.AddEdge(flowmesh.Sys1, va, vb, f)
	}
}

func TestTruncation(t *testing.T) {
	gT = t
	M := pillow(10, 1, unit(1, 0), unit(0, 1), []int32{})

	opts := flowmesh.DefaultTraceOpts
	opts.SeedProb = 0
	opts.MaxLineSteps = 60
	T := newTestTracer(M, opts)

	// A line along y = 0.47 over cells 6..9 of row 4, too close to anything traced along y = 0.45
	var faces []int32
	for i := int32(6); i <= 9; i++ {
		faces = append(faces, 2*(40+i), 2*(40+i)+1)
	}
	addBlocker(T, r3.Vec{X: 0.7, Y: 0.47}, r3.Vec{X: 0.9, Y: 0.47}, faces...)
	seedVtx := flowmesh.VtxID(T.out.NumVerts())

	T.computeGFLine(seeds.Seed{Kind: seeds.FaceSeed, Index: 84, Co: r3.Vec{X: 0.27, Y: 0.45}})

	if T.cur.stats.Truncations < 1 || T.cur.stats.SeedsRejected != 0 {
		t.Fatalf("expected a truncation, got %+v", *T.cur.stats)
	}

	// Spacing checks fall every 0.03 from x = 0.27; the one at 0.72 fails, so the line ends at 0.69
	// and the point staged at x = 0.7 is dropped.
	X := T.Output()
	fwd := flowmesh.Sys1.Forward()
	end := seedVtx
	count := 0
	for vi := X.Verts[seedVtx].Links[fwd]; vi != flowmesh.NilVtx; vi = X.Verts[vi].Links[fwd] {
		co := X.Co(vi)
		if co.X > 0.69+1e-9 || math.Abs(co.Y-0.45) > 1e-9 {
			t.Fatalf("vert %d at %v lies past the truncation point", vi, co)
		}
		end = vi
		count++
	}
	if count < 5 || !near(X.Co(end), r3.Vec{X: 0.69, Y: 0.45}) {
		t.Fatalf("expected the line to end at x=0.69 after %d points, got %v", count, X.Co(end))
	}
	if err := X.CheckLinks(); err != nil {
		t.Fatal(err)
	}
}

func TestReseedOnBackwardPass(t *testing.T) {
	gT = t
	M := pillow(10, 1, unit(1, 0), unit(0, 1), []int32{})

	opts := flowmesh.DefaultTraceOpts
	opts.SeedProb = 0
	T := newTestTracer(M, opts)

	// Face 84 is the lower right half of the cell [0.2,0.3] x [0.4,0.5]
	addBlocker(T, r3.Vec{X: 0.2, Y: 0.46}, r3.Vec{X: 0.35, Y: 0.46}, 84)

	origin := r3.Vec{X: 0.27, Y: 0.45}
	ln := T.newLine(seeds.Seed{Kind: seeds.FaceSeed, Index: 84, Co: origin})

	if T.addPointToLine(ln, 84, r3.Vec{X: 0.3, Y: 0.45}) {
		t.Fatal("expected the first point to be rejected")
	}
	if ln.state != Unseeded || ln.seed != flowmesh.NilVtx || T.cur.stats.SeedsRejected != 1 {
		t.Fatalf("expected an unseeded line after rejection, got state %v", ln.state)
	}

	if !T.changeLineDirection(ln) {
		t.Fatal("expected a backward pass")
	}
	if ln.state != Unseeded || ln.pass != 1 || ln.oldco != origin {
		t.Fatalf("expected the backward pass to restart unseeded from the origin, got %v %v", ln.state, ln.oldco)
	}

	// With the blocking line gone, the backward pass seeds the line
	T.out.Systems[flowmesh.Sys1].FaceSegs[84] = nil
	if !T.addPointToLine(ln, 84, r3.Vec{X: 0.25, Y: 0.45}) {
		t.Fatal("expected the backward pass to seed the line")
	}
	if ln.state != Backward || ln.seed == flowmesh.NilVtx || T.cur.stats.SeedsRejected != 1 {
		t.Fatalf("expected a seeded backward line, got state %v", ln.state)
	}
	if T.changeLineDirection(ln) || ln.state != Finished {
		t.Fatal("expected the line to finish after two passes")
	}

	X := T.Output()
	if !near(X.Co(ln.seed), origin) {
		t.Fatalf("expected the seed vert at the origin, got %v", X.Co(ln.seed))
	}
	back := X.Verts[ln.seed].Links[flowmesh.Sys1.Backward()]
	if back == flowmesh.NilVtx || !near(X.Co(back), r3.Vec{X: 0.25, Y: 0.45}) {
		t.Fatalf("expected the backward point linked to the seed, got %v", X.Verts[ln.seed].Links)
	}
}

func TestInjectedRandSource(t *testing.T) {
	gT = t
	M := pillow(10, 1, unit(1, 0), unit(0, 1), []int32{})

	rng := &fixedRand{v: 0.1}
	opts := flowmesh.DefaultTraceOpts
	opts.Rand = rng
	T := newTestTracer(M, opts)

	// Below SeedProb: both clear scans run out to MaxDist and leave a seed there
	if !T.checkPoint(r3.Vec{X: 0.45, Y: 0.45}, r3.Vec{X: 0.48, Y: 0.45}, 88) {
		t.Fatal("expected the point to pass")
	}
	if rng.calls != 1 || T.cur.stats.SeedsSpawned != 2 {
		t.Fatalf("expected 1 draw and 2 seeds, got %d draws and %d seeds", rng.calls, T.cur.stats.SeedsSpawned)
	}
	for T.cur.seeds.Len() > 0 {
		seed, _ := T.cur.seeds.Pop()
		if math.Abs(seed.Co.X-0.48) > 1e-9 || math.Abs(math.Abs(seed.Co.Y-0.45)-opts.MaxDist) > 1e-9 {
			t.Fatalf("unexpected spawned seed %v", seed)
		}
	}

	// Above SeedProb: scans stop at MinDist
	rng.v = 0.9
	if !T.checkPoint(r3.Vec{X: 0.45, Y: 0.45}, r3.Vec{X: 0.48, Y: 0.45}, 88) {
		t.Fatal("expected the point to pass")
	}
	if rng.calls != 2 || T.cur.stats.SeedsSpawned != 2 {
		t.Fatalf("expected no new seeds, got %d", T.cur.stats.SeedsSpawned)
	}
}

// SpacingOpposite stays bounded: family 1, traced first, still spaces against its own lines.
func TestSpacingOppositeBounded(t *testing.T) {
	gT = t
	M := pillow(6, 1, unit(1, 0.3), unit(-0.3, 1), nil)

	var stats [2][flowmesh.NumSys]flowmesh.SysStats
	for i, spacing := range []flowmesh.Spacing{flowmesh.SpacingSame, flowmesh.SpacingOpposite} {
		opts := flowmesh.DefaultTraceOpts
		opts.Spacing = spacing
		X, st, err := ComputeFlowLines(M, opts)
		if err != nil {
			t.Fatal(err)
		}
		if err = X.CheckLinks(); err != nil {
			t.Fatal(err)
		}
		for sys := range st {
			if st[sys].SeedsDiscarded != 0 || st[sys].LinesTraced == 0 {
				t.Fatalf("spacing %d, sys %d: expected a bounded trace, got %+v", spacing, sys, st[sys])
			}
		}
		stats[i] = st
	}

	if stats[0][flowmesh.Sys1] != stats[1][flowmesh.Sys1] {
		t.Fatalf("expected family 1 to trace the same under both modes: %+v vs %+v", stats[0][flowmesh.Sys1], stats[1][flowmesh.Sys1])
	}
}
