package flowmesh

import (
	"strings"
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

func testMesh() *PolyMesh {
	return &PolyMesh{
		Verts: []r3.Vec{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}, {X: 2, Y: 0.5, Z: -1e-9}},
		Loops: []int32{0, 1, 2, 3, 1, 4, 2},
		Polys: []Poly{{Start: 0, Len: 4}, {Start: 4, Len: 3}},
		Edges: [][2]int32{{0, 1}, {1, 2}, {2, 3}, {3, 0}, {1, 4}, {4, 2}},
	}
}

func TestPolyMeshEncoding(t *testing.T) {
	mesh := testMesh()
	buf, err := mesh.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	var out PolyMesh
	if err = out.Unmarshal(buf); err != nil {
		t.Fatal(err)
	}
	if len(out.Verts) != 5 || out.Verts[4] != mesh.Verts[4] {
		t.Fatalf("verts changed: %v", out.Verts)
	}
	if p := out.Poly(1); len(p) != 3 || p[1] != 4 {
		t.Fatalf("poly 1 changed: %v", p)
	}
	if len(out.Edges) != 6 || out.Edges[5] != [2]int32{4, 2} {
		t.Fatalf("edges changed: %v", out.Edges)
	}

	// Every truncation must fail cleanly
	for n := 0; n < len(buf); n++ {
		if err = out.Unmarshal(buf[:n]); err == nil {
			t.Fatalf("expected error decoding %d of %d bytes", n, len(buf))
		}
	}
}

func TestPolyMeshBadEncoding(t *testing.T) {
	mesh := testMesh()
	mesh.Loops[2] = 9
	buf, err := mesh.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	var out PolyMesh
	if err = out.Unmarshal(buf); !errors.Is(err, ErrBadEncoding) {
		t.Fatalf("expected ErrBadEncoding, got %v", err)
	}

	mesh = testMesh()
	mesh.Polys[1].Len = 4
	buf, _ = mesh.Marshal()
	if err = out.Unmarshal(buf); !errors.Is(err, ErrBadEncoding) {
		t.Fatalf("expected ErrBadEncoding for an overrun, got %v", err)
	}

	mesh = testMesh()
	mesh.Loops[0] = -1
	if _, err = mesh.Marshal(); !errors.Is(err, ErrBadEncoding) {
		t.Fatalf("expected ErrBadEncoding for a negative index, got %v", err)
	}
}

func TestPolyMeshHugeCount(t *testing.T) {
	// A vert count whose byte size wraps around 2^64 to a small number
	buf := proto.NewBuffer(nil)
	buf.EncodeVarint(polyMeshEncodingVers)
	buf.EncodeVarint(0x0AAAAAAAAAAAAAAB)
	buf.EncodeVarint(0)

	var out PolyMesh
	if err := out.Unmarshal(buf.Bytes()); !errors.Is(err, ErrUnmarshal) {
		t.Fatalf("expected ErrUnmarshal, got %v", err)
	}
}

func TestWriteAsString(t *testing.T) {
	var buf strings.Builder
	testMesh().WriteAsString(&buf, PrintOpts{})
	if s := buf.String(); s != "verts=5,polys=2,edges=6,tris=1,quads=1,ngons=0" {
		t.Fatalf("unexpected summary %q", s)
	}
}

func TestValidate(t *testing.T) {
	opts := DefaultTraceOpts
	if err := opts.Validate(); err != nil {
		t.Fatal(err)
	}

	for _, edit := range []func(opts *TraceOpts){
		func(opts *TraceOpts) { opts.SamplingInterval = 0 },
		func(opts *TraceOpts) { opts.MaxDist = opts.MinDist / 2 },
		func(opts *TraceOpts) { opts.StagingCap = 0 },
		func(opts *TraceOpts) { opts.SeedProb = 1.5 },
		func(opts *TraceOpts) { opts.Spacing = 7 },
	} {
		opts := DefaultTraceOpts
		edit(&opts)
		if err := opts.Validate(); !errors.Is(err, ErrBadOpts) {
			t.Fatalf("expected ErrBadOpts for %+v, got %v", opts, err)
		}
	}
}

func TestSlots(t *testing.T) {
	for sys := Sys1; sys < NumSys; sys++ {
		fwd, bwd := sys.Forward(), sys.Backward()
		if OppositeSlot(fwd) != bwd || OppositeSlot(bwd) != fwd {
			t.Fatalf("%v: forward and backward slots do not mirror", sys)
		}
		if SlotSys(fwd) != sys || SlotSys(bwd) != sys || sys.Other() == sys {
			t.Fatalf("%v: bad slot ownership", sys)
		}
	}
}
