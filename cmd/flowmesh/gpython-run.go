package main

import (
	"fmt"
	"time"

	"github.com/2x3systems/flowmesh/pyflow"
	"github.com/go-python/gpython/py"
	"github.com/go-python/gpython/repl"
	"github.com/go-python/gpython/repl/cli"
	"github.com/plan-systems/klog"

	_ "github.com/go-python/gpython/stdlib"
)

// replStartup is run in the REPL's module before the first prompt, one statement at a time.
var replStartup = []string{
	"import _flowmesh as fm",
	"ws = fm.GetWorkspace()",
	"pillow = fm.Pillow(8)",
}

// go_gpython runs the given gpython script, or an interactive session if pathname is empty.
// Stores opened through the workspace are closed when the session ends.
func go_gpython(pathname string) error {
	ctx := py.NewContext(py.DefaultContextOpts())

	var err error
	if len(pathname) == 0 {
		err = runREPL(ctx)
	} else {
		err = runScript(ctx, pathname)
	}

	ctx.Close()
	<-ctx.Done()

	if err != nil {
		py.TracebackDump(err)
	}
	return err
}

// startREPL returns a REPL whose module has fm, ws and a demo pillow mesh bound.
func startREPL(ctx py.Context) (*repl.REPL, error) {
	replCtx := repl.New(ctx)
	for _, src := range replStartup {
		if _, err := py.RunSrc(ctx, src, "<startup>", replCtx.Module); err != nil {
			return nil, err
		}
	}
	return replCtx, nil
}

func runREPL(ctx py.Context) error {
	replCtx, err := startREPL(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("flowmesh %s\n  fm      = _flowmesh\n  ws      = fm.GetWorkspace()\n  pillow  = fm.Pillow(8)\n", pyflow.LIB_VERSION)
	cli.RunREPL(replCtx)
	return nil
}

func runScript(ctx py.Context, pathname string) error {
	startTime := time.Now()
	klog.Infof("running %q", pathname)

	_, err := py.RunFile(ctx, pathname, py.CompileOpts{}, nil)
	if err == nil {
		klog.Infof("%q finished in %v", pathname, time.Since(startTime))
	}
	return err
}
