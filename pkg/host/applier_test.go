package host_test

import (
	"context"
	"errors"
	"testing"

	qerrors "github.com/vango-dev/quill/internal/errors"
	"github.com/vango-dev/quill/pkg/host"
	"github.com/vango-dev/quill/pkg/host/memhost"
	"github.com/vango-dev/quill/pkg/quill"
	"github.com/vango-dev/quill/pkg/reactive"
	"github.com/vango-dev/quill/pkg/reconcile"
	"github.com/vango-dev/quill/pkg/view"
)

func items(keys ...string) *view.Node {
	return view.ForEach(keys, func(k string) string { return k }, func(k string, i int) *view.Node {
		if i%2 == 0 {
			return view.Label(k)
		}
		// Odd rows are virtual so flattening is exercised inside lists.
		return view.Fragment(view.Text(k), view.Text(k+"!"))
	})
}

func labels(keys ...string) *view.Node {
	return view.ForEach(keys, func(k string) string { return k }, func(k string, _ int) *view.Node {
		return view.Label(k)
	})
}

func mount(t *testing.T, tree *view.Node) *memhost.World {
	t.Helper()
	w := memhost.New()
	script, _, err := reconcile.New().Reconcile(nil, tree, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := host.NewApplier(w, w.Root()).Apply(script); err != nil {
		t.Fatal(err)
	}
	return w
}

func TestApplyMatchesFreshMount(t *testing.T) {
	tests := []struct {
		name string
		old  *view.Node
		next *view.Node
	}{
		{
			name: "text and props",
			old:  view.Box(view.Class("a"), view.Prop("x", 1), "hello"),
			next: view.Box(view.Class("b"), "world"),
		},
		{
			name: "grow and shrink",
			old:  view.Box(view.Label("a"), view.Label("b"), view.Label("c")),
			next: view.Box(view.Label("a"), view.Button("b")),
		},
		{
			name: "conditional switch with fragments",
			old: view.Box(view.IfElse(true,
				func() *view.Node { return view.Fragment(view.Text("x"), view.Text("y")) },
				func() *view.Node { return view.Text("z") },
			), view.Label("tail")),
			next: view.Box(view.IfElse(false,
				func() *view.Node { return view.Fragment(view.Text("x"), view.Text("y")) },
				func() *view.Node { return view.Text("z") },
			), view.Label("tail")),
		},
		{
			name: "keyed shuffle",
			old:  view.Box(view.Label("head"), items("a", "b", "c", "d", "e", "f"), view.Label("tail")),
			next: view.Box(view.Label("head"), items("f", "x", "b", "a", "y", "d", "e"), view.Label("tail")),
		},
		{
			name: "list to empty",
			old:  view.Box(items("a", "b"), view.Label("tail")),
			next: view.Box(items(), view.Label("tail")),
		},
		{
			name: "element replaced by fragment",
			old:  view.Box(view.Label("a"), view.Box(view.Text("b")), view.Label("c")),
			next: view.Box(view.Label("a"), view.Fragment(view.Text("b1"), view.Text("b2")), view.Label("c")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := memhost.New()
			a := host.NewApplier(w, w.Root())
			r := reconcile.New()

			script, committed, err := r.Reconcile(nil, tt.old, 0)
			if err != nil {
				t.Fatal(err)
			}
			if err := a.Apply(script); err != nil {
				t.Fatal(err)
			}
			script, _, err = r.Reconcile(committed, tt.next, 0)
			if err != nil {
				t.Fatal(err)
			}
			if err := a.Apply(script); err != nil {
				t.Fatal(err)
			}

			want := mount(t, tt.next).Dump()
			if got := w.Dump(); got != want {
				t.Errorf("world after edits differs from fresh mount:\ngot:\n%s\nwant:\n%s", got, want)
			}
		})
	}
}

func TestReorderDoesNotRematerialize(t *testing.T) {
	w := memhost.New()
	a := host.NewApplier(w, w.Root())
	r := reconcile.New()

	script, committed, err := r.Reconcile(nil, view.Box(labels("a", "b", "c")), 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Apply(script); err != nil {
		t.Fatal(err)
	}
	before := w.Stats()

	script, _, err = r.Reconcile(committed, view.Box(labels("c", "a", "b")), 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Apply(script); err != nil {
		t.Fatal(err)
	}
	after := w.Stats()
	if after.Materialized != before.Materialized || after.Despawned != before.Despawned {
		t.Errorf("reorder touched entities: before %+v, after %+v", before, after)
	}
	if got, want := w.Dump(), mount(t, view.Box(labels("c", "a", "b"))).Dump(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFlattensVirtualNodes(t *testing.T) {
	w := mount(t, view.Box(
		view.Fragment(view.Text("a"), view.Text("b")),
		view.If(true, func() *view.Node { return view.Text("c") }),
		view.If(false, func() *view.Node { return view.Text("hidden") }),
	))
	want := "box\n  \"a\"\n  \"b\"\n  \"c\"\n"
	if got := w.Dump(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
	if w.Len() != 5 {
		t.Errorf("expected 5 entities including the root, got %d", w.Len())
	}
}

func TestUnknownRef(t *testing.T) {
	w := memhost.New()
	a := host.NewApplier(w, w.Root())

	err := a.Apply(reconcile.Script{{Op: reconcile.OpRemove, Ref: 42}})
	if !errors.Is(err, host.ErrUnknownRef) {
		t.Fatalf("expected ErrUnknownRef, got %v", err)
	}
	if qerrors.CodeOf(err) != "Q004" {
		t.Errorf("code = %q, want Q004", qerrors.CodeOf(err))
	}
}

func TestRemoveDespawnsSubtree(t *testing.T) {
	w := memhost.New()
	a := host.NewApplier(w, w.Root())
	r := reconcile.New()

	script, committed, _ := r.Reconcile(nil, view.Box(view.Fragment(view.Label("a"), view.Label("b"))), 0)
	if err := a.Apply(script); err != nil {
		t.Fatal(err)
	}
	script, _, _ = r.Reconcile(committed, view.Box(), 0)
	if err := a.Apply(script); err != nil {
		t.Fatal(err)
	}
	if w.Len() != 2 || w.Stats().Despawned != 4 {
		t.Errorf("expected only root and box left, got %d entities and %d despawns", w.Len(), w.Stats().Despawned)
	}
	if a.Len() != 1 {
		t.Errorf("applier still mirrors %d nodes, want 1", a.Len())
	}
}

func TestApplyRootTicks(t *testing.T) {
	root := quill.New()
	todos := reactive.NewSignal(root.Runtime(), []string{"milk", "eggs"})
	row := view.DefineWith("Row", func(cx *view.Cx, name string) *view.Node {
		done := view.UseLocal(cx, false)
		return view.Label(view.Prop("done", done.Get()), name)
	})
	app := view.Define("App", func(cx *view.Cx) *view.Node {
		return view.Box(view.ForEach(todos.Get(), func(s string) string { return s }, func(s string, _ int) *view.Node {
			return row.BindKeyed(s, s)
		}))
	})

	w := memhost.New()
	a := host.NewApplier(w, w.Root())
	tick := func() {
		t.Helper()
		script, err := root.Flush(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if err := a.Apply(script); err != nil {
			t.Fatal(err)
		}
	}

	if err := root.Mount(app, nil); err != nil {
		t.Fatal(err)
	}
	tick()
	todos.Set([]string{"eggs", "bread", "milk"})
	tick()

	want := mount(t, view.Box(
		view.Label(view.Prop("done", false), "eggs"),
		view.Label(view.Prop("done", false), "bread"),
		view.Label(view.Prop("done", false), "milk"),
	)).Dump()
	if got := w.Dump(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
	// Only the new row is materialized.
	if got := w.Stats().Materialized; got != 7 {
		t.Errorf("materialized %d entities, want 7", got)
	}
}
