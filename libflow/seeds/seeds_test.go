package seeds

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestQueueOrder(t *testing.T) {
	q := NewQueue()
	if !q.Empty() {
		t.Fatal("new queue should be empty")
	}

	q.PushVert(7, r3.Vec{}, 0)
	q.PushFace(3, r3.Vec{X: 1}, -0.08)
	q.PushVert(8, r3.Vec{}, 0)
	q.PushFace(4, r3.Vec{X: 2}, 0.5)
	q.PushFace(5, r3.Vec{X: 3}, -0.08)
	q.PushVert(9, r3.Vec{}, 0)

	if q.Len() != 6 {
		t.Fatalf("expected 6 seeds, got %d", q.Len())
	}

	expect := []struct {
		kind  Kind
		index int32
	}{
		{FaceSeed, 3},
		{FaceSeed, 5},
		{VertSeed, 7},
		{VertSeed, 8},
		{VertSeed, 9},
		{FaceSeed, 4},
	}
	for i, want := range expect {
		seed, ok := q.Pop()
		if !ok {
			t.Fatalf("pop %d: queue empty", i)
		}
		if seed.Kind != want.kind || seed.Index != want.index {
			t.Fatalf("pop %d: expected %v[%d], got %v", i, want.kind, want.index, seed)
		}
	}

	if _, ok := q.Pop(); ok {
		t.Fatal("expected empty queue")
	}
}

func TestFeatureSeedsPopBeforeLaterSeeds(t *testing.T) {
	q := NewQueue()
	for vi := int32(0); vi < 4; vi++ {
		q.PushVert(vi, r3.Vec{}, 0)
	}

	// Seeds pushed after the features with non-negative weight must wait.
	seed, _ := q.Pop()
	q.PushFace(10, r3.Vec{}, 0)
	q.PushFace(11, r3.Vec{}, 0.25)

	popped := []int32{seed.Index}
	for !q.Empty() {
		seed, _ = q.Pop()
		popped = append(popped, seed.Index)
	}

	expect := []int32{0, 1, 2, 3, 10, 11}
	for i := range expect {
		if popped[i] != expect[i] {
			t.Fatalf("expected pop order %v, got %v", expect, popped)
		}
	}
}
