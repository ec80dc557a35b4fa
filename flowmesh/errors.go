package flowmesh

import "errors"

// Errors
var (
	ErrBadInput       = errors.New("bad input mesh")
	ErrNonManifold    = errors.New("edge does not border exactly two faces")
	ErrBadOpts        = errors.New("bad trace option")
	ErrUnmarshal      = errors.New("unmarshal failed")
	ErrBadEncoding    = errors.New("bad mesh encoding")
	ErrResultNotFound = errors.New("result not found")
	ErrStoreClosed    = errors.New("store is closed")
	ErrReadOnly       = errors.New("store is read-only")
	ErrBadStoreParam  = errors.New("bad store param")
)
