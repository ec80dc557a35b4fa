package geom

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

const eps = 1.1920929e-07

func TestSegmentsCross(t *testing.T) {
	tests := []struct {
		name           string
		a0, a1, b0, b1 r3.Vec
		ok             bool
		pt             r3.Vec
	}{
		{"plus", r3.Vec{X: -1}, r3.Vec{X: 1}, r3.Vec{Y: -1}, r3.Vec{Y: 1}, true, r3.Vec{}},
		{"skew", r3.Vec{}, r3.Vec{X: 2, Y: 2}, r3.Vec{X: 2}, r3.Vec{Y: 2}, true, r3.Vec{X: 1, Y: 1}},
		{"miss", r3.Vec{}, r3.Vec{X: 1}, r3.Vec{X: 2, Y: -1}, r3.Vec{X: 2, Y: 1}, false, r3.Vec{}},
		{"parallel", r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{X: 1, Y: 1}, false, r3.Vec{}},
		{"apart in z", r3.Vec{X: -1}, r3.Vec{X: 1}, r3.Vec{Y: -1, Z: 0.1}, r3.Vec{Y: 1, Z: 0.1}, false, r3.Vec{}},
		{"at start", r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: -1}, r3.Vec{Y: 1}, true, r3.Vec{}},
		{"at end", r3.Vec{X: -1}, r3.Vec{}, r3.Vec{Y: -1}, r3.Vec{Y: 1}, false, r3.Vec{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt, _, _, ok := SegmentsCross(tt.a0, tt.a1, tt.b0, tt.b1, eps)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v", tt.ok)
			}
			if ok && r3.Norm(r3.Sub(pt, tt.pt)) > 1e-12 {
				t.Fatalf("expected crossing at %v, got %v", tt.pt, pt)
			}
		})
	}

	// The closed form reports the endpoint touch that the half-open form leaves to the next segment.
	if !SegmentsTouch(r3.Vec{X: -1}, r3.Vec{}, r3.Vec{Y: -1}, r3.Vec{Y: 1}, eps) {
		t.Fatal("expected touching segments")
	}
}

func TestPrimitives(t *testing.T) {
	n := TriNormal(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1})
	if n != (r3.Vec{Z: 1}) {
		t.Fatalf("expected +z normal, got %v", n)
	}
	if v := ProjectOnPlane(r3.Vec{X: 1, Y: 2, Z: 3}, n); v != (r3.Vec{X: 1, Y: 2}) {
		t.Fatalf("unexpected projection %v", v)
	}

	u, l := Normalize(r3.Vec{X: 3, Y: 4})
	if l != 5 || math.Abs(r3.Norm(u)-1) > 1e-15 {
		t.Fatalf("unexpected normalize result %v %v", u, l)
	}
	if _, l = Normalize(r3.Vec{}); l != 0 {
		t.Fatal("expected zero length")
	}

	if !OnSegment(r3.Vec{}, r3.Vec{X: 2}, r3.Vec{X: 0.5}, 1e-9) || OnSegment(r3.Vec{}, r3.Vec{X: 2}, r3.Vec{X: 0.5, Y: 0.1}, 1e-9) {
		t.Fatal("OnSegment misclassified a point")
	}
	if !Near(r3.Vec{X: 1}, r3.Vec{X: 1 + 1e-4}, eps) || Near(r3.Vec{X: 1}, r3.Vec{X: 1.001}, eps) {
		t.Fatal("Near misclassified a pair")
	}
	if p := Lerp(r3.Vec{}, r3.Vec{X: 4}, 0.25); p != (r3.Vec{X: 1}) {
		t.Fatalf("unexpected lerp %v", p)
	}
}
