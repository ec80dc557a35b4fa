package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/2x3systems/flowmesh/flowmesh"
	"github.com/2x3systems/flowmesh/libflow/inmesh"
	"github.com/2x3systems/flowmesh/libflow/remesh"
	"github.com/2x3systems/flowmesh/libflow/store"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"gonum.org/v1/gonum/spatial/r3"
)

type cmdOpts struct {
	trace   flowmesh.TraceOpts
	print   flowmesh.PrintOpts
	dbPath  string
	demo    int
	list    bool
	script  string
	repl    bool
	spacing string
}

func newFlagSet(opts *cmdOpts) *flag.FlagSet {
	opts.trace = flowmesh.DefaultTraceOpts

	fset := flag.NewFlagSet("flowmesh", flag.ContinueOnError)
	fset.Float64Var(&opts.trace.SamplingInterval, "sampling", opts.trace.SamplingInterval, "arc length between spacing checks")
	fset.Float64Var(&opts.trace.MinDist, "min-dist", opts.trace.MinDist, "lines closer than this are truncated")
	fset.Float64Var(&opts.trace.MaxDist, "max-dist", opts.trace.MaxDist, "spacing scans reaching this distance spawn a seed")
	fset.Float64Var(&opts.trace.SeedProb, "seed-prob", opts.trace.SeedProb, "probability a spacing check spawns a seed")
	fset.IntVar(&opts.trace.LineLimit, "line-limit", opts.trace.LineLimit, "max lines traced per family")
	fset.Int64Var(&opts.trace.RandSeed, "seed", opts.trace.RandSeed, "random seed")
	fset.StringVar(&opts.spacing, "spacing", "same", "lines a spacing scan tests against: same (own family) or opposite (both families)")
	fset.StringVar(&opts.dbPath, "db", "", "store pathname for caching results")
	fset.IntVar(&opts.demo, "demo", 0, "also remesh a built-in flat pillow of the given resolution")
	fset.BoolVar(&opts.list, "list", false, "list the results held in -db and exit")
	fset.BoolVar(&opts.print.Stats, "stats", false, "print trace stats for each result")
	fset.BoolVar(&opts.print.Verts, "verts", false, "print vertex coords for each result")
	fset.StringVar(&opts.script, "py", "", "run the given gpython script and exit")
	fset.BoolVar(&opts.repl, "repl", false, "start a gpython REPL")
	return fset
}

func (opts *cmdOpts) finish() error {
	switch opts.spacing {
	case "same":
		opts.trace.Spacing = flowmesh.SpacingSame
	case "opposite":
		opts.trace.Spacing = flowmesh.SpacingOpposite
	default:
		return errors.Wrapf(flowmesh.ErrBadOpts, "unknown spacing %q", opts.spacing)
	}
	return opts.trace.Validate()
}

func main() {
	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", "2")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	var opts cmdOpts
	cmd := newFlagSet(&opts)
	if err := cmd.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	var err error
	switch {
	case opts.repl || len(opts.script) > 0:
		err = go_gpython(opts.script)
	default:
		err = run(&opts, cmd.Args(), os.Stdout)
	}

	klog.Flush()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts *cmdOpts, pathnames []string, out io.WriteCloser) error {
	if err := opts.finish(); err != nil {
		return err
	}

	ctx := flowmesh.NewStoreContext()
	defer func() {
		ctx.Close()
		<-ctx.Done()
	}()

	var db flowmesh.Store
	if len(opts.dbPath) > 0 {
		var err error
		db, err = store.OpenStore(ctx, flowmesh.StoreOpts{
			DbPathName: opts.dbPath,
			ReadOnly:   opts.list,
		})
		if err != nil {
			return err
		}
	}

	if opts.list {
		if db == nil {
			return errors.Wrap(flowmesh.ErrBadStoreParam, "-list requires -db")
		}
		return listStore(db, out)
	}

	inputs, err := remesh.LoadJobs(pathnames)
	if err != nil {
		return err
	}
	if opts.demo > 0 {
		p := inmesh.FlatPillow(opts.demo, 1, r3.Unit(r3.Vec{X: 1, Y: 0.3}), r3.Unit(r3.Vec{X: -0.3, Y: 1}))
		M, err := inmesh.New(p)
		if err != nil {
			return err
		}
		inputs = append(inputs, remesh.NewJob(fmt.Sprintf("pillow%d", opts.demo), M))
	}
	if len(inputs) == 0 {
		return errors.Wrap(flowmesh.ErrBadInput, "no mesh files given (or use -demo)")
	}

	startTime := time.Now()
	stream := flowmesh.RemeshInputs(inputs, opts.trace, db)
	if db != nil {
		stream = stream.SaveTo(db)
	}
	count, err := stream.Print(out, opts.print).PullAll()

	klog.Infof("remeshed %s inputs in %v", humanize.Comma(int64(count)), time.Since(startTime).Round(time.Millisecond))
	if db != nil {
		klog.Infof("%q holds %s results", opts.dbPath, humanize.Comma(db.NumResults()))
	}
	return err
}

func listStore(db flowmesh.Store, out io.WriteCloser) error {
	defer out.Close()

	var total uint64
	err := db.ForEach(func(key flowmesh.ResultKey, mesh *flowmesh.PolyMesh) error {
		buf, err := mesh.Marshal()
		if err != nil {
			return err
		}
		total += uint64(len(buf))
		fmt.Fprintf(out, "%016x,%s,", uint64(key), humanize.Bytes(uint64(len(buf))))
		mesh.WriteAsString(out, flowmesh.PrintOpts{})
		fmt.Fprintln(out)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s results, %s\n", humanize.Comma(db.NumResults()), humanize.Bytes(total))
	return nil
}
