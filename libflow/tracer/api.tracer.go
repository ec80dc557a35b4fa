package tracer

// ExitStatus is the outcome of advancing a ray across one face.
type ExitStatus int32

const (
	ExitOK   ExitStatus = 0 // exit point lies inside an edge
	ExitAtV1 ExitStatus = 1 // exit point coincides with the exit edge's first vertex
	ExitAtV2 ExitStatus = 2 // exit point coincides with the exit edge's second vertex
	ExitNone ExitStatus = 3 // no exit: degenerate face, or the ray does not cross the face
)

func (st ExitStatus) String() string {
	switch st {
	case ExitOK:
		return "ok"
	case ExitAtV1:
		return "at-v1"
	case ExitAtV2:
		return "at-v2"
	case ExitNone:
		return "none"
	}
	return "?"
}

// QueryResult is the outcome of a spacing scan in one direction.
type QueryResult int32

const (
	QueryTooClose QueryResult = 0 // another line lies within MinDist
	QueryClear    QueryResult = 1 // nothing found within MinDist
	QueryAbstain  QueryResult = 2 // the scan direction degenerated; no information
)

func (qr QueryResult) String() string {
	switch qr {
	case QueryTooClose:
		return "too-close"
	case QueryClear:
		return "clear"
	case QueryAbstain:
		return "abstain"
	}
	return "?"
}

// LineState tracks a line through its two traversal passes.
type LineState int32

const (
	Unseeded LineState = iota // no point accepted yet
	Forward                   // tracing along +gradient
	Backward                  // tracing along -gradient
	Finished                  // both passes exhausted
)

func (ls LineState) String() string {
	switch ls {
	case Unseeded:
		return "unseeded"
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Finished:
		return "finished"
	}
	return "?"
}
