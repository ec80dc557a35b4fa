package flowmesh

import (
	"math/rand"
	"sync"

	"github.com/pkg/errors"
)

// DefaultTraceOpts are tuned for meshes scaled to roughly unit size.
var DefaultTraceOpts = TraceOpts{
	SamplingInterval: 0.03,
	MinDist:          0.04,
	MaxDist:          0.08,
	StagingCap:       10,
	LineLimit:        40000,
	SeedProb:         0.25,
	Epsilon:          1.1920929e-07,
	MaxScanSteps:     1000,
	MaxLineSteps:     100000,
	Spacing:          SpacingSame,
	RandSeed:         1,
}

// Other returns the opposite field family.
func (sys SysID) Other() SysID {
	return 1 - sys
}

// Forward returns the slot that points along +gradient for this family.
func (sys SysID) Forward() int {
	return int(sys)
}

// Backward returns the slot that points along -gradient for this family.
func (sys SysID) Backward() int {
	return int(sys) + 2
}

func (sys SysID) String() string {
	switch sys {
	case Sys1:
		return "sys1"
	case Sys2:
		return "sys2"
	}
	return "sys?"
}

// OppositeSlot returns the slot that mirrors slot i on the vertex that slot i points to.
func OppositeSlot(i int) int {
	return (i + 2) % NumSlots
}

// SlotSys returns the field family that owns slot i.
func SlotSys(i int) SysID {
	return SysID(i % 2)
}

// Validate checks that opts are usable, returning an error wrapping ErrBadOpts if not.
func (opts *TraceOpts) Validate() error {
	switch {
	case opts.SamplingInterval <= 0:
		return errors.Wrap(ErrBadOpts, "SamplingInterval must be > 0")
	case opts.MinDist <= 0:
		return errors.Wrap(ErrBadOpts, "MinDist must be > 0")
	case opts.MaxDist < opts.MinDist:
		return errors.Wrap(ErrBadOpts, "MaxDist must be >= MinDist")
	case opts.StagingCap < 1:
		return errors.Wrap(ErrBadOpts, "StagingCap must be >= 1")
	case opts.LineLimit < 0:
		return errors.Wrap(ErrBadOpts, "LineLimit must be >= 0")
	case opts.SeedProb < 0 || opts.SeedProb > 1:
		return errors.Wrap(ErrBadOpts, "SeedProb must be within [0,1]")
	case opts.Epsilon <= 0:
		return errors.Wrap(ErrBadOpts, "Epsilon must be > 0")
	case opts.MaxScanSteps < 1:
		return errors.Wrap(ErrBadOpts, "MaxScanSteps must be >= 1")
	case opts.MaxLineSteps < 1:
		return errors.Wrap(ErrBadOpts, "MaxLineSteps must be >= 1")
	case opts.Spacing != SpacingSame && opts.Spacing != SpacingOpposite:
		return errors.Wrapf(ErrBadOpts, "unknown Spacing %d", opts.Spacing)
	}
	return nil
}

// RandSource returns opts.Rand if set, otherwise a new source seeded from opts.RandSeed.
func (opts *TraceOpts) RandSource() RandSource {
	if opts.Rand != nil {
		return opts.Rand
	}
	return rand.New(rand.NewSource(opts.RandSeed))
}

// NumVerts returns the number of vertices in this mesh.
func (mesh *PolyMesh) NumVerts() int {
	return len(mesh.Verts)
}

// Poly returns the vertex indices of the i-th polygon.
func (mesh *PolyMesh) Poly(i int) []int32 {
	p := mesh.Polys[i]
	return mesh.Loops[p.Start : p.Start+p.Len]
}

func NewStoreContext() StoreContext {
	ctx := &storeContext{
		openStores: make(map[Store]struct{}),
		closing:    make(chan struct{}),
		closed:     make(chan struct{}),
	}
	ctx.openCount.Add(1)
	go func() {
		<-ctx.closing
		ctx.openCount.Done()
		ctx.openCount.Wait()
		close(ctx.closed)
	}()
	return ctx
}

type storeContext struct {
	mu         sync.Mutex
	openCount  sync.WaitGroup
	openStores map[Store]struct{}
	closing    chan struct{}
	closed     chan struct{}
	closeOnce  sync.Once
}

func (ctx *storeContext) AttachStore(store Store) {
	ctx.openCount.Add(1)
	ctx.mu.Lock()
	ctx.openStores[store] = struct{}{}
	ctx.mu.Unlock()
}

func (ctx *storeContext) DetachStore(store Store) {
	ctx.mu.Lock()
	if _, exists := ctx.openStores[store]; exists {
		delete(ctx.openStores, store)
		ctx.openCount.Done()
	}
	ctx.mu.Unlock()
}

func (ctx *storeContext) Done() <-chan struct{} {
	return ctx.closed
}

func (ctx *storeContext) Close() {
	ctx.closeOnce.Do(func() {
		close(ctx.closing)
		ctx.mu.Lock()
		for store := range ctx.openStores {
			go store.Close()
		}
		ctx.mu.Unlock()
	})
}
