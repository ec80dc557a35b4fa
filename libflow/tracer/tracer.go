// Package tracer traces the two families of flow lines over an input mesh.
package tracer

import (
	"github.com/2x3systems/flowmesh/flowmesh"
	"github.com/2x3systems/flowmesh/libflow/inmesh"
	"github.com/2x3systems/flowmesh/libflow/outmesh"
	"github.com/2x3systems/flowmesh/libflow/seeds"
	"github.com/plan-systems/klog"
	"gonum.org/v1/gonum/spatial/r3"
)

// flowSystem is the per-family tracing state: the family's field, its seed queue and its stats.
// Segment storage for the family lives in the shared outmesh.Mesh.
type flowSystem struct {
	sys   flowmesh.SysID
	field []r3.Vec
	seeds *seeds.Queue
	stats *flowmesh.SysStats
}

// Tracer traces flow lines for both families into a single outmesh.Mesh.
type Tracer struct {
	mesh    *inmesh.InputMesh
	opts    flowmesh.TraceOpts
	rng     flowmesh.RandSource
	out     *outmesh.Mesh
	systems [flowmesh.NumSys]*flowSystem
	stats   [flowmesh.NumSys]flowmesh.SysStats
	cur     *flowSystem // family being traced
}

// NewTracer prepares a fresh output mesh and seeds both families' queues with the input's feature vertices.
func NewTracer(M *inmesh.InputMesh, opts flowmesh.TraceOpts) (*Tracer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	T := &Tracer{
		mesh: M,
		opts: opts,
		rng:  opts.RandSource(),
		out:  outmesh.New(M.NumFaces()),
	}

	for i := range T.systems {
		fs := &flowSystem{
			sys:   flowmesh.SysID(i),
			field: M.GF[i],
			seeds: seeds.NewQueue(),
			stats: &T.stats[i],
		}
		for _, vi := range M.Features {
			fs.seeds.PushVert(vi, M.Coords[vi], 0)
		}
		fs.stats.SeedsQueued = len(M.Features)
		T.systems[i] = fs
	}

	return T, nil
}

// Output returns the curve network traced so far.
func (T *Tracer) Output() *outmesh.Mesh {
	return T.out
}

// Stats returns per-family tracing stats.
func (T *Tracer) Stats() [flowmesh.NumSys]flowmesh.SysStats {
	return T.stats
}

// TraceSystem drains the seed queue of the given family, tracing one line per seed until LineLimit lines are traced.
// Seeds popped after that are discarded.
func (T *Tracer) TraceSystem(sys flowmesh.SysID) {
	T.cur = T.systems[sys]
	defer func() {
		T.cur = nil
	}()

	st := T.cur.stats
	for !T.cur.seeds.Empty() {
		seed, _ := T.cur.seeds.Pop()
		if st.LinesTraced >= T.opts.LineLimit {
			st.SeedsDiscarded++
			continue
		}
		st.LinesTraced++
		T.computeGFLine(seed)
	}

	if st.SeedsDiscarded > 0 {
		klog.Warningf("%v: line limit %d reached, %d seeds discarded", sys, T.opts.LineLimit, st.SeedsDiscarded)
	}
	klog.V(2).Infof("%v: traced %d lines (%d seeds spawned, %d rejected, %d truncations, %d overflows)",
		sys, st.LinesTraced, st.SeedsSpawned, st.SeedsRejected, st.Truncations, st.Overflows)
}

// ComputeFlowLines traces both families over M, family 1 then family 2, into a new outmesh.Mesh.
func ComputeFlowLines(M *inmesh.InputMesh, opts flowmesh.TraceOpts) (*outmesh.Mesh, [flowmesh.NumSys]flowmesh.SysStats, error) {
	T, err := NewTracer(M, opts)
	if err != nil {
		return nil, [flowmesh.NumSys]flowmesh.SysStats{}, err
	}

	for sys := flowmesh.Sys1; sys < flowmesh.NumSys; sys++ {
		T.TraceSystem(sys)
	}

	return T.out, T.stats, nil
}
