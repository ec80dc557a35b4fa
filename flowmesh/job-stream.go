package flowmesh

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// JobStream is a stage in a pipeline of remesh results.
type JobStream struct {
	Outlet chan *Result
}

func NewJobStream() *JobStream {
	stream := &JobStream{
		Outlet: make(chan *Result, 1),
	}
	return stream
}

func (stream *JobStream) Close() {
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

// RemeshInputs remeshes each input in turn.  If cache is non-nil, results already present in it are loaded rather than recomputed.
func RemeshInputs(inputs []Input, opts TraceOpts, cache Store) *JobStream {
	next := NewJobStream()

	go func() {
		for _, in := range inputs {
			res := &Result{
				Label: in.Label(),
				Key:   in.Key(opts),
			}
			if cache != nil {
				mesh, err := cache.Get(res.Key)
				if err == nil {
					res.Mesh = mesh
					res.Cached = true
				} else if !errors.Is(err, ErrResultNotFound) {
					res.Err = err
				}
			}
			if res.Mesh == nil && res.Err == nil {
				res.Mesh, res.Stats, res.Err = in.Remesh(opts)
			}
			next.Outlet <- res
		}
		next.Close()
	}()

	return next
}

// SaveTo stores each successful, freshly computed result into the given Store.
func (stream *JobStream) SaveTo(store Store) *JobStream {
	next := NewJobStream()

	go func() {
		for res := range stream.Outlet {
			if res.Err == nil && !res.Cached {
				res.Err = store.Put(res.Key, res.Mesh)
			}
			next.Outlet <- res
		}
		next.Close()
	}()

	return next
}

// Print writes one line per result to out, closing out when the stream closes.
func (stream *JobStream) Print(out io.WriteCloser, opts PrintOpts) *JobStream {
	next := NewJobStream()

	go func() {
		buf := strings.Builder{}
		buf.Grow(256)

		count := 0
		for res := range stream.Outlet {
			count++
			if len(opts.Label) > 0 {
				buf.WriteString(opts.Label)
				buf.WriteByte(',')
			}
			fmt.Fprintf(&buf, "%04d,%s,%016x,", count, res.Label, uint64(res.Key))
			switch {
			case res.Err != nil:
				fmt.Fprintf(&buf, "error=%q", res.Err.Error())
			default:
				res.Mesh.WriteAsString(&buf, opts)
				if res.Cached {
					buf.WriteString(",cached")
				} else if opts.Stats {
					for sys := Sys1; sys < NumSys; sys++ {
						st := &res.Stats.Sys[sys]
						fmt.Fprintf(&buf, ",%v.lines=%d,%v.seeds=%d", sys, st.LinesTraced, sys, st.SeedsQueued)
					}
					fmt.Fprintf(&buf, ",crossings=%d,open=%d", res.Stats.Crossings, res.Stats.OpenWalks)
				}
			}
			buf.WriteByte('\n')
			out.Write([]byte(buf.String()))
			buf.Reset()
			next.Outlet <- res
		}
		out.Close()
		next.Close()
	}()

	return next
}

// PullAll drains the stream, returning the number of results and the first error encountered.
func (stream *JobStream) PullAll() (int, error) {
	count := 0
	var err error
	for res := range stream.Outlet {
		count++
		if err == nil && res.Err != nil {
			err = errors.Wrapf(res.Err, "remesh %q", res.Label)
		}
	}
	return count, err
}
