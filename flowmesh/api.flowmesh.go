package flowmesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// VtxID indexes an output vertex.  IDs are stable for the duration of a remesh run.
type VtxID int32

// NilVtx marks an empty link slot.
const NilVtx VtxID = -1

// SysID identifies one of the two field families.
type SysID int32

const (
	Sys1 SysID = 0
	Sys2 SysID = 1

	// NumSys is the number of field families traced per run.
	NumSys = 2

	// NumSlots is the number of link slots on each output vertex:
	//    0: Sys1 forward, 1: Sys2 forward, 2: Sys1 backward, 3: Sys2 backward
	NumSlots = 4
)

// Spacing selects which family's recorded segments a spacing query tests against.
type Spacing int32

const (
	// SpacingSame tests a candidate point against lines already emitted by its own family.
	SpacingSame Spacing = 0

	// SpacingOpposite tests a candidate point against lines emitted by either family.
	SpacingOpposite Spacing = 1
)

// RandSource supplies the uniform draws in [0,1) used to spawn auxiliary seeds.
// *math/rand.Rand satisfies this interface.
type RandSource interface {
	Float64() float64
}

// TraceOpts are the tunables for tracing both field families.
type TraceOpts struct {
	SamplingInterval float64    // arc length between spacing checks
	MinDist          float64    // lines closer than this are truncated
	MaxDist          float64    // spacing scans reaching this distance spawn a new seed
	StagingCap       int        // max uncommitted points per line
	LineLimit        int        // max lines traced per family
	SeedProb         float64    // probability a spacing check spawns an auxiliary seed
	Epsilon          float64    // squared-distance tolerance for geometric coincidence
	MaxScanSteps     int        // max face crossings walked by one spacing scan
	MaxLineSteps     int        // max face crossings walked by one line in one direction
	Spacing          Spacing    // which family a spacing scan tests against
	RandSeed         int64      // seeds the default RandSource when Rand is nil
	Rand             RandSource // if set, overrides RandSeed
}

// Poly is one polygon of a PolyMesh: a run of Len entries in PolyMesh.Loops starting at Start.
type Poly struct {
	Start int32
	Len   int32
}

// PolyMesh is the output of a remesh run.
type PolyMesh struct {
	Verts []r3.Vec
	Loops []int32
	Polys []Poly
	Edges [][2]int32
}

// SysStats reports tracing activity for one field family.
type SysStats struct {
	LinesTraced    int // lines traced (at most TraceOpts.LineLimit)
	SeedsQueued    int // seeds pushed onto the queue, including feature seeds
	SeedsSpawned   int // seeds spawned by spacing scans
	SeedsDiscarded int // seeds popped after LineLimit was reached
	SeedsRejected  int // seeds whose first point failed its spacing check
	Truncations    int // directions stopped by a failed spacing check
	Overflows      int // directions stopped by a full staging buffer
	Points         int // committed trace points
}

// Stats summarizes one remesh run.
type Stats struct {
	Sys           [NumSys]SysStats
	Crossings     int // crossing vertices created by intersecting the two families
	Tombstoned    int // vertices removed by degenerate vertex cleanup
	Edges         int // edges emitted
	ConsumedSlots int // directed slots consumed by polygon extraction
	OpenWalks     int // polygon walks discarded for not closing
	OpenWalkSlots int // slots consumed by discarded walks
}

// ResultKey identifies a remesh result: a digest of an input mesh and the TraceOpts it was traced with.
type ResultKey uint64

// Input is a mesh that can be remeshed, as consumed by a JobStream.
type Input interface {

	// Label is a human readable name for this input.
	Label() string

	// Key returns the key under which results for this input and opts are stored.
	Key(opts TraceOpts) ResultKey

	// Remesh traces both field families over this input and assembles the result.
	Remesh(opts TraceOpts) (*PolyMesh, Stats, error)
}

// Result is a remesh outcome flowing through a JobStream.
type Result struct {
	Label  string
	Key    ResultKey
	Mesh   *PolyMesh
	Stats  Stats
	Cached bool  // set if Mesh was loaded from a Store rather than computed
	Err    error // set if the remesh failed
}

// Store persists remesh results.
type Store interface {

	// Put stores the given mesh under the given key, replacing any previous entry.
	Put(key ResultKey, mesh *PolyMesh) error

	// Get loads the mesh stored under the given key, returning ErrResultNotFound if absent.
	Get(key ResultKey) (*PolyMesh, error)

	// ForEach calls fn with every stored result in key order, stopping at the first error fn returns.
	// fn must not call back into the Store.
	ForEach(fn func(key ResultKey, mesh *PolyMesh) error) error

	// NumResults returns the number of results held.
	NumResults() int64

	IsReadOnly() bool

	Close() error
}

// StoreContext is a container for open / active Store instances.
type StoreContext interface {

	// Attaches the given Store to this context.
	AttachStore(store Store)

	// Detaches the given Store from this context.
	DetachStore(store Store)

	// Closes all open stores then closes.
	Close()

	// Signals when Close() completed and all open Stores have been closed
	Done() <-chan struct{}
}

// StoreOpts specifies params for opening a Store
type StoreOpts struct {
	DbPathName string // if empty, the store is memory resident
	ReadOnly   bool
}

// PrintOpts specifies how a Result is written as a line of text.
type PrintOpts struct {
	Label string
	Stats bool // include per-family trace counts
	Verts bool // include vertex coords
}
