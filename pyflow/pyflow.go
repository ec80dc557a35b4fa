// Package pyflow registers the "_flowmesh" gpython module, exposing mesh loading, remeshing and result stores to scripts.
package pyflow

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/2x3systems/flowmesh/flowmesh"
	"github.com/2x3systems/flowmesh/libflow/inmesh"
	"github.com/2x3systems/flowmesh/libflow/remesh"
	"github.com/2x3systems/flowmesh/libflow/store"
	"github.com/go-python/gpython/py"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	LIB_VERSION = "v1.2024.1"
)

var (
	pyMeshType      = py.NewType("Mesh", "an input mesh with two gradient fields, ready to remesh")
	pyPolyMeshType  = py.NewType("PolyMesh", "flowmesh.PolyMesh")
	pyJobStreamType = py.NewType("JobStream", "flowmesh.JobStream")
	pyStoreType     = py.NewType("Store", "flowmesh.Store")
	pyWorkspaceType = py.NewType("Workspace", "collects active session resources and stores")
)

type pyMesh struct {
	*remesh.Job
}

func (M pyMesh) Type() *py.Type {
	return pyMeshType
}

func (M pyMesh) M__str__() (py.Object, error) {
	in := M.Mesh()
	return py.String(fmt.Sprintf("%s: verts=%d,faces=%d,features=%d", M.Label(), in.NumVerts(), in.NumFaces(), len(in.Features))), nil
}

func (M pyMesh) M__repr__() (py.Object, error) {
	return M.M__str__()
}

func getMesh(obj py.Object) (pyMesh, error) {
	switch v := obj.(type) {
	case pyMesh:
		return v, nil
	case py.String:
		jobs, err := remesh.LoadJobs([]string{string(v)})
		if err != nil {
			return pyMesh{}, py.ExceptionNewf(py.ValueError, "%v", err)
		}
		return pyMesh{jobs[0].(*remesh.Job)}, nil
	}
	return pyMesh{}, py.ExceptionNewf(py.TypeError, "expected Mesh object or pathname (got %v)", obj.Type().Name)
}

// Arg 1 (str): pathname of a mesh file
func py_LoadMesh(module py.Object, args py.Tuple) (py.Object, error) {
	var pathname string
	err := py.LoadTuple(args, []interface{}{&pathname})
	if err != nil {
		return nil, err
	}
	return getMesh(py.String(pathname))
}

// Arg 1 (int): grid resolution n
// Arg 2 (float): side length (default 1)
func py_Pillow(module py.Object, args py.Tuple) (py.Object, error) {
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "Pillow() takes a grid resolution")
	}
	n, err := py.GetInt(args[0])
	if err != nil {
		return nil, err
	}
	size := 1.0
	if len(args) > 1 {
		if size, err = py.FloatAsFloat64(args[1]); err != nil {
			return nil, err
		}
	}

	p := inmesh.FlatPillow(int(n), size, r3.Unit(r3.Vec{X: 1, Y: 0.3}), r3.Unit(r3.Vec{X: -0.3, Y: 1}))
	in, err := inmesh.New(p)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return pyMesh{remesh.NewJob(fmt.Sprintf("pillow%d", n), in)}, nil
}

func py_Mesh_NumVerts(self py.Object, args py.Tuple) (py.Object, error) {
	M := self.(pyMesh)
	return py.Int(M.Mesh().NumVerts()), nil
}

func py_Mesh_NumFaces(self py.Object, args py.Tuple) (py.Object, error) {
	M := self.(pyMesh)
	return py.Int(M.Mesh().NumFaces()), nil
}

func py_Mesh_Key(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	M := self.(pyMesh)
	opts, err := exportTraceOpts(kwargs)
	if err != nil {
		return nil, err
	}
	return py.String(fmt.Sprintf("%016x", uint64(M.Key(opts)))), nil
}

// See Remesh() for kwargs
func py_Mesh_Remesh(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	M := self.(pyMesh)
	opts, err := exportTraceOpts(kwargs)
	if err != nil {
		return nil, err
	}
	mesh, _, err := M.Remesh(opts)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return pyPolyMesh{mesh}, nil
}

type pyPolyMesh struct {
	*flowmesh.PolyMesh
}

func (mesh pyPolyMesh) Type() *py.Type {
	return pyPolyMeshType
}

func (mesh pyPolyMesh) M__str__() (py.Object, error) {
	writer := strings.Builder{}
	mesh.WriteAsString(&writer, flowmesh.PrintOpts{})
	return py.String(writer.String()), nil
}

func (mesh pyPolyMesh) M__repr__() (py.Object, error) {
	return mesh.M__str__()
}

func py_PolyMesh_NumVerts(self py.Object, args py.Tuple) (py.Object, error) {
	mesh := self.(pyPolyMesh)
	return py.Int(mesh.NumVerts()), nil
}

func py_PolyMesh_NumPolys(self py.Object, args py.Tuple) (py.Object, error) {
	mesh := self.(pyPolyMesh)
	return py.Int(len(mesh.Polys)), nil
}

func py_PolyMesh_NumEdges(self py.Object, args py.Tuple) (py.Object, error) {
	mesh := self.(pyPolyMesh)
	return py.Int(len(mesh.Edges)), nil
}

func indexArg(args py.Tuple, N int) (int, error) {
	if len(args) < 1 {
		return 0, py.ExceptionNewf(py.TypeError, "expected an index")
	}
	i, err := py.GetInt(args[0])
	if err != nil {
		return 0, err
	}
	if i < 0 || int(i) >= N {
		return 0, py.ExceptionNewf(py.IndexError, "index %d out of range", i)
	}
	return int(i), nil
}

// Arg 1 (int): poly index; returns a tuple of vertex indices
func py_PolyMesh_Poly(self py.Object, args py.Tuple) (py.Object, error) {
	mesh := self.(pyPolyMesh)
	i, err := indexArg(args, len(mesh.Polys))
	if err != nil {
		return nil, err
	}
	loop := mesh.Poly(i)
	verts := make(py.Tuple, len(loop))
	for j, vi := range loop {
		verts[j] = py.Int(vi)
	}
	return verts, nil
}

// Arg 1 (int): vertex index; returns (x, y, z)
func py_PolyMesh_Vert(self py.Object, args py.Tuple) (py.Object, error) {
	mesh := self.(pyPolyMesh)
	i, err := indexArg(args, len(mesh.Verts))
	if err != nil {
		return nil, err
	}
	v := mesh.Verts[i]
	return py.Tuple{py.Float(v.X), py.Float(v.Y), py.Float(v.Z)}, nil
}

// Arg 1 (tuple or list): Mesh objects or mesh pathnames
//
// kwargs (all optional, see flowmesh.TraceOpts):
//
//	sampling_interval, min_dist, max_dist, seed_prob, epsilon (float)
//	staging_cap, line_limit, seed (int)
//	spacing ("same": own family, "opposite": both families)
func py_Remesh(module py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "Remesh() takes a sequence of meshes")
	}

	var items []py.Object
	switch v := args[0].(type) {
	case py.Tuple:
		items = v
	case *py.List:
		items = v.Items
	default:
		items = []py.Object{v}
	}

	inputs := make([]flowmesh.Input, len(items))
	for i, item := range items {
		M, err := getMesh(item)
		if err != nil {
			return nil, err
		}
		inputs[i] = M.Job
	}

	opts, err := exportTraceOpts(kwargs)
	if err != nil {
		return nil, err
	}

	var cache flowmesh.Store
	if cacheObj, exists := kwargs["cache"]; exists && cacheObj != py.None {
		st, ok := cacheObj.(pyStore)
		if !ok {
			return nil, py.ExceptionNewf(py.TypeError, "cache must be a Store (got %v)", cacheObj.Type().Name)
		}
		cache = st.Store
	}

	return wrapJobStream(flowmesh.RemeshInputs(inputs, opts, cache)), nil
}

const (
	READ_ONLY = 0x01

	kWorkspaceAttr = "_Workspace"
)

type Workspace struct {
	StoreCtx flowmesh.StoreContext
}

func (ws *Workspace) Close() {
	ws.StoreCtx.Close()
	<-ws.StoreCtx.Done()
}

func (ws *Workspace) Type() *py.Type {
	return pyWorkspaceType
}

func py_GetWorkspace(module py.Object, args py.Tuple) (py.Object, error) {
	wsObj, _ := py.GetAttrString(module, kWorkspaceAttr)
	if wsObj == nil {
		ws := &Workspace{
			StoreCtx: flowmesh.NewStoreContext(),
		}
		wsObj = ws
		py.SetAttrString(module, kWorkspaceAttr, wsObj)
	}
	return wsObj, nil
}

func py_Workspace_StoreExists(self py.Object, args py.Tuple) (py.Object, error) {
	_ = self.(*Workspace)

	var pathname string
	err := py.LoadTuple(args, []interface{}{&pathname})
	if err != nil {
		return nil, err
	}
	_, err = os.Stat(pathname)
	if os.IsNotExist(err) {
		return py.False, nil
	}
	return py.True, nil
}

// Arg 1 (str): store pathname ("" for memory resident)
// Arg 2 (int): flags (READ_ONLY)
func py_Workspace_OpenStore(self py.Object, args py.Tuple) (py.Object, error) {
	ws := self.(*Workspace)

	var pathname string
	var flags int32
	err := py.LoadTuple(args, []interface{}{&pathname, &flags})
	if err != nil {
		return nil, err
	}

	opts := flowmesh.StoreOpts{
		ReadOnly:   (flags & READ_ONLY) != 0,
		DbPathName: pathname,
	}

	st, err := store.OpenStore(ws.StoreCtx, opts)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return pyStore{st}, nil
}

type pyStore struct {
	flowmesh.Store
}

func (st pyStore) Type() *py.Type {
	return pyStoreType
}

func py_Store_Close(self py.Object, args py.Tuple) (py.Object, error) {
	st := self.(pyStore)
	if st.Store != nil {
		st.Close()
	}
	return py.None, nil
}

func py_Store_NumResults(self py.Object, args py.Tuple) (py.Object, error) {
	st := self.(pyStore)
	return py.Int(st.NumResults()), nil
}

// Arg 1 (Mesh): the input
// kwargs: the TraceOpts the result was computed with (see Remesh)
// Returns the stored PolyMesh or None.
func py_Store_Get(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	st := self.(pyStore)
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "Get() takes a Mesh")
	}
	M, err := getMesh(args[0])
	if err != nil {
		return nil, err
	}
	opts, err := exportTraceOpts(kwargs)
	if err != nil {
		return nil, err
	}
	mesh, err := st.Get(M.Key(opts))
	if err != nil {
		if errors.Is(err, flowmesh.ErrResultNotFound) {
			return py.None, nil
		}
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return pyPolyMesh{mesh}, nil
}

type jobStream struct {
	*flowmesh.JobStream
}

func (stream jobStream) Type() *py.Type {
	return pyJobStreamType
}

func wrapJobStream(stream *flowmesh.JobStream) py.Object {
	return py.Object(jobStream{stream})
}

// Go drains the stream, returning the number of results.  The first failed result raises RuntimeError.
func py_JobStream_Go(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(jobStream)
	count, err := stream.PullAll()
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return py.Int(count), nil
}

func py_JobStream_SaveTo(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(jobStream)
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "SaveTo() takes a Store")
	}
	st, ok := args[0].(pyStore)
	if !ok {
		return nil, py.ExceptionNewf(py.TypeError, "expected Store object (got %v)", args[0].Type().Name)
	}
	if st.IsReadOnly() {
		return nil, py.ExceptionNewf(py.PermissionError, "store is in read-only mode")
	}
	return wrapJobStream(stream.SaveTo(st.Store)), nil
}

type echoToWriter struct {
	stdout *os.File
	to     io.WriteCloser
}

func (echo *echoToWriter) Write(buf []byte) (int, error) {
	if echo.to == nil {
		return echo.stdout.Write(buf)
	}
	return echo.to.Write(buf)
}

func (echo *echoToWriter) Close() error {
	if echo.to != nil {
		return echo.to.Close()
	}
	return nil
}

var gOutCount = int32(0)

// Arg 1 (str, optional): label
// kwargs: label (str), stats (bool), verts (bool), file (str)
func py_JobStream_Print(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	stream := self.(jobStream)
	var pathname string

	opts := flowmesh.PrintOpts{}
	py.LoadTuple(args, []interface{}{&opts.Label})

	if err := loadKwargs(kwargs, map[string]interface{}{
		"label": &opts.Label,
		"stats": &opts.Stats,
		"verts": &opts.Verts,
		"file":  &pathname,
	}); err != nil {
		return nil, err
	}

	count := atomic.AddInt32(&gOutCount, 1)
	if opts.Label == "" {
		opts.Label = fmt.Sprintf("out[%d]", count)
	}

	writer := &echoToWriter{
		stdout: os.Stdout,
	}
	if len(pathname) > 0 {
		os.MkdirAll(filepath.Dir(pathname), 0700)

		file, err := os.OpenFile(pathname, os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0600)
		if err != nil {
			return nil, py.ExceptionNewf(py.FileNotFoundError, "%v", err)
		}
		writer.to = file
	}

	return wrapJobStream(stream.Print(writer, opts)), nil
}

func init() {

	/////////////////////////////////
	// Mesh
	{
		pyMeshType.Dict["NumVerts"] = py.MustNewMethod("NumVerts", py_Mesh_NumVerts, 0, "")
		pyMeshType.Dict["NumFaces"] = py.MustNewMethod("NumFaces", py_Mesh_NumFaces, 0, "")
		pyMeshType.Dict["Key"] = py.MustNewMethod("Key", py_Mesh_Key, 0, "returns the store key for this mesh traced with the given options")
		pyMeshType.Dict["Remesh"] = py.MustNewMethod("Remesh", py_Mesh_Remesh, 0, "traces and assembles this mesh into a PolyMesh")
	}

	/////////////////////////////////
	// PolyMesh
	{
		pyPolyMeshType.Dict["NumVerts"] = py.MustNewMethod("NumVerts", py_PolyMesh_NumVerts, 0, "")
		pyPolyMeshType.Dict["NumPolys"] = py.MustNewMethod("NumPolys", py_PolyMesh_NumPolys, 0, "")
		pyPolyMeshType.Dict["NumEdges"] = py.MustNewMethod("NumEdges", py_PolyMesh_NumEdges, 0, "")
		pyPolyMeshType.Dict["Poly"] = py.MustNewMethod("Poly", py_PolyMesh_Poly, 0, "")
		pyPolyMeshType.Dict["Vert"] = py.MustNewMethod("Vert", py_PolyMesh_Vert, 0, "")
	}

	/////////////////////////////////
	// Store
	{
		pyStoreType.Dict["Get"] = py.MustNewMethod("Get", py_Store_Get, 0, "")
		pyStoreType.Dict["NumResults"] = py.MustNewMethod("NumResults", py_Store_NumResults, 0, "")
		pyStoreType.Dict["Close"] = py.MustNewMethod("Close", py_Store_Close, 0, "")
	}

	/////////////////////////////////
	// Workspace
	{
		pyWorkspaceType.Dict["OpenStore"] = py.MustNewMethod("OpenStore", py_Workspace_OpenStore, 0, "")
		pyWorkspaceType.Dict["StoreExists"] = py.MustNewMethod("StoreExists", py_Workspace_StoreExists, 0, "")
	}

	/////////////////////////////////
	// JobStream
	{
		pyJobStreamType.Dict["Go"] = py.MustNewMethod("Go", py_JobStream_Go, 0, "counts the number of results output from the JobStream")
		pyJobStreamType.Dict["Print"] = py.MustNewMethod("Print", py_JobStream_Print, 0, "prints a line for each result from the JobStream")
		pyJobStreamType.Dict["SaveTo"] = py.MustNewMethod("SaveTo", py_JobStream_SaveTo, 0, "")
	}

	{
		methods := []*py.Method{
			py.MustNewMethod("LoadMesh", py_LoadMesh, 0, ""),
			py.MustNewMethod("Pillow", py_Pillow, 0, "returns a flat closed test mesh with uniform fields"),
			py.MustNewMethod("Remesh", py_Remesh, 0, ""),
			py.MustNewMethod("GetWorkspace", py_GetWorkspace, 0, ""),
		}

		globals := py.StringDict{
			"LIB_VERSION": py.String(LIB_VERSION),
			"READ_ONLY":   py.Int(READ_ONLY),
		}

		py.RegisterModule(&py.ModuleImpl{
			Info: py.ModuleInfo{
				Name: "_flowmesh",
				Doc:  "flow line remeshing gpython module",
			},
			Methods: methods,
			Globals: globals,
			OnContextClosed: func(m *py.Module) {
				wsObj, _ := py.GetAttrString(m, kWorkspaceAttr)
				if wsObj != nil {
					wsObj.(*Workspace).Close()
				}
			},
		})
	}
}
