// Package seeds schedules trace origins for one field family.
package seeds

import (
	"fmt"

	"github.com/emirpasic/gods/trees/binaryheap"
	"gonum.org/v1/gonum/spatial/r3"
)

// Kind tags what a Seed starts from.
type Kind int32

const (
	VertSeed Kind = iota // starts at an input vertex
	FaceSeed             // starts at a point inside an input face
)

func (k Kind) String() string {
	switch k {
	case VertSeed:
		return "vert"
	case FaceSeed:
		return "face"
	}
	return "?"
}

// Seed is a pending trace origin.
type Seed struct {
	Kind   Kind
	Index  int32   // vertex index for VertSeed, face index for FaceSeed
	Co     r3.Vec  // start point
	Weight float64 // lower weights are popped first

	seq uint64
}

func (seed Seed) String() string {
	return fmt.Sprintf("%v[%d]@(%.4f %.4f %.4f)w=%.3f", seed.Kind, seed.Index, seed.Co.X, seed.Co.Y, seed.Co.Z, seed.Weight)
}

// Queue is a min-queue of seeds ordered by weight.  Seeds of equal weight pop in the order they were pushed.
type Queue struct {
	heap    *binaryheap.Heap
	nextSeq uint64
}

func NewQueue() *Queue {
	return &Queue{
		heap: binaryheap.NewWith(seedComparator),
	}
}

func seedComparator(a, b interface{}) int {
	A := a.(*Seed)
	B := b.(*Seed)
	switch {
	case A.Weight < B.Weight:
		return -1
	case A.Weight > B.Weight:
		return 1
	case A.seq < B.seq:
		return -1
	case A.seq > B.seq:
		return 1
	}
	return 0
}

// Push schedules the given seed.
func (q *Queue) Push(seed Seed) {
	seed.seq = q.nextSeq
	q.nextSeq++
	q.heap.Push(&seed)
}

// PushVert schedules a trace starting at input vertex vi located at co.
func (q *Queue) PushVert(vi int32, co r3.Vec, weight float64) {
	q.Push(Seed{
		Kind:   VertSeed,
		Index:  vi,
		Co:     co,
		Weight: weight,
	})
}

// PushFace schedules a trace starting at point co inside face fi.
func (q *Queue) PushFace(fi int32, co r3.Vec, weight float64) {
	q.Push(Seed{
		Kind:   FaceSeed,
		Index:  fi,
		Co:     co,
		Weight: weight,
	})
}

// Pop removes and returns the lowest weight seed.
func (q *Queue) Pop() (Seed, bool) {
	val, ok := q.heap.Pop()
	if !ok {
		return Seed{}, false
	}
	return *val.(*Seed), true
}

func (q *Queue) Len() int {
	return q.heap.Size()
}

func (q *Queue) Empty() bool {
	return q.heap.Empty()
}
