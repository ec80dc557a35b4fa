// Package remesh runs the tracer and assembler over input meshes and adapts them to flowmesh.Input.
package remesh

import (
	"encoding/binary"
	"math"
	"path/filepath"
	"strings"

	"github.com/2x3systems/flowmesh/flowmesh"
	"github.com/2x3systems/flowmesh/libflow/assemble"
	"github.com/2x3systems/flowmesh/libflow/inmesh"
	"github.com/2x3systems/flowmesh/libflow/meshfmt"
	"github.com/2x3systems/flowmesh/libflow/tracer"
	"github.com/cespare/xxhash/v2"
	"github.com/plan-systems/klog"
)

// Run traces both field families over M and assembles the resulting curve network into a PolyMesh.
func Run(M *inmesh.InputMesh, opts flowmesh.TraceOpts) (*flowmesh.PolyMesh, flowmesh.Stats, error) {
	X, sysStats, err := tracer.ComputeFlowLines(M, opts)
	if err != nil {
		return nil, flowmesh.Stats{}, err
	}

	mesh, st := assemble.Assemble(X, opts.Epsilon)
	st.Sys = sysStats

	klog.V(2).Infof("remeshed %d faces into %d polys (%d + %d lines)",
		M.NumFaces(), len(mesh.Polys), sysStats[flowmesh.Sys1].LinesTraced, sysStats[flowmesh.Sys2].LinesTraced)
	return mesh, st, nil
}

// Job is an InputMesh with a label, ready to be fed to flowmesh.RemeshInputs.
type Job struct {
	label string
	mesh  *inmesh.InputMesh
	key   uint64 // digest of the mesh alone
}

func NewJob(label string, M *inmesh.InputMesh) *Job {
	return &Job{
		label: label,
		mesh:  M,
		key:   meshDigest(M),
	}
}

// LoadJobs reads each mesh file, labeling each job with its file name sans extension.
func LoadJobs(pathnames []string) ([]flowmesh.Input, error) {
	jobs := make([]flowmesh.Input, 0, len(pathnames))
	for _, pathname := range pathnames {
		M, err := meshfmt.LoadFile(pathname)
		if err != nil {
			return nil, err
		}
		base := filepath.Base(pathname)
		jobs = append(jobs, NewJob(strings.TrimSuffix(base, filepath.Ext(base)), M))
	}
	return jobs, nil
}

func (job *Job) Label() string {
	return job.label
}

func (job *Job) Mesh() *inmesh.InputMesh {
	return job.mesh
}

// Key digests this job's mesh together with every TraceOpts field that affects the result.
// A custom opts.Rand is not digested, so results traced with one should not be cached.
func (job *Job) Key(opts flowmesh.TraceOpts) flowmesh.ResultKey {
	var buf [8 * 12]byte
	b := buf[:0]
	b = binary.LittleEndian.AppendUint64(b, job.key)
	for _, x := range []float64{opts.SamplingInterval, opts.MinDist, opts.MaxDist, opts.SeedProb, opts.Epsilon} {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(x))
	}
	for _, n := range []int64{int64(opts.StagingCap), int64(opts.LineLimit), int64(opts.MaxScanSteps),
		int64(opts.MaxLineSteps), int64(opts.Spacing), opts.RandSeed} {
		b = binary.LittleEndian.AppendUint64(b, uint64(n))
	}
	return flowmesh.ResultKey(xxhash.Sum64(b))
}

func (job *Job) Remesh(opts flowmesh.TraceOpts) (*flowmesh.PolyMesh, flowmesh.Stats, error) {
	return Run(job.mesh, opts)
}

func meshDigest(M *inmesh.InputMesh) uint64 {
	d := xxhash.New()
	var buf [8]byte

	putU64 := func(x uint64) {
		binary.LittleEndian.PutUint64(buf[:], x)
		d.Write(buf[:])
	}
	putVec := func(x, y, z float64) {
		putU64(math.Float64bits(x))
		putU64(math.Float64bits(y))
		putU64(math.Float64bits(z))
	}

	putU64(uint64(len(M.Coords)))
	for _, co := range M.Coords {
		putVec(co.X, co.Y, co.Z)
	}
	putU64(uint64(len(M.Tris)))
	for _, tri := range M.Tris {
		putU64(uint64(uint32(tri[0])) | uint64(uint32(tri[1]))<<32)
		putU64(uint64(uint32(tri[2])))
	}
	for _, u := range M.U {
		putU64(math.Float64bits(u))
	}
	for _, gf := range M.GF {
		for _, g := range gf {
			putVec(g.X, g.Y, g.Z)
		}
	}
	putU64(uint64(len(M.Features)))
	for _, vi := range M.Features {
		putU64(uint64(vi))
	}

	return d.Sum64()
}
