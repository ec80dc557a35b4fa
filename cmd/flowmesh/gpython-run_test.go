package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-python/gpython/py"
)

func TestREPLStartup(t *testing.T) {
	ctx := py.NewContext(py.DefaultContextOpts())
	defer func() {
		ctx.Close()
		<-ctx.Done()
	}()

	replCtx, err := startREPL(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"fm", "ws", "pillow"} {
		if _, ok := replCtx.Module.Globals[name]; !ok {
			t.Fatalf("expected %q to be bound at startup", name)
		}
	}

	// The preloaded workspace serves stores to the session
	for _, src := range []string{
		"st = ws.OpenStore(\"\", 0)",
		"n = fm.Remesh((pillow,)).SaveTo(st).Go()",
		"assert st.NumResults() == 1",
	} {
		if _, err = py.RunSrc(ctx, src, "<test>", replCtx.Module); err != nil {
			py.TracebackDump(err)
			t.Fatal(err)
		}
	}
}

func TestScriptRun(t *testing.T) {
	dir, err := os.MkdirTemp("", "junk*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	pathname := filepath.Join(dir, "faces.py")
	os.WriteFile(pathname, []byte("import _flowmesh as fm\nassert fm.Pillow(3).NumFaces() == 36\n"), 0644)
	if err = go_gpython(pathname); err != nil {
		t.Fatal(err)
	}

	os.WriteFile(pathname, []byte("import _flowmesh as fm\nassert fm.Pillow(3).NumFaces() == 35\n"), 0644)
	if err = go_gpython(pathname); err == nil {
		t.Fatal("expected a failing script to report an error")
	}
}
