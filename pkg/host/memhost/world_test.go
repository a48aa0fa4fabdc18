package memhost

import (
	"testing"

	"github.com/vango-dev/quill/pkg/host"
	"github.com/vango-dev/quill/pkg/reconcile"
	"github.com/vango-dev/quill/pkg/view"
)

func TestWorld(t *testing.T) {
	w := New()
	box, err := w.Materialize(&view.Node{Kind: view.KindElement, Tag: "box", Props: view.Props{"class": "a"}})
	if err != nil {
		t.Fatal(err)
	}
	text, _ := w.Materialize(&view.Node{Kind: view.KindText, Text: "hi"})
	other, _ := w.Materialize(&view.Node{Kind: view.KindElement, Tag: "panel"})

	if box == text || box == "" {
		t.Fatalf("handles should be distinct and non-empty: %q %q", box, text)
	}
	if err := w.SetChildren(w.Root(), []host.Handle{box, other}); err != nil {
		t.Fatal(err)
	}
	if err := w.SetChildren(box, []host.Handle{text}); err != nil {
		t.Fatal(err)
	}
	if err := w.ApplyProps(text, reconcile.PropDiff{Set: map[string]any{"text": "hello"}}); err != nil {
		t.Fatal(err)
	}
	if err := w.ApplyProps(box, reconcile.PropDiff{Set: map[string]any{"id": "main"}, Removed: []string{"class"}}); err != nil {
		t.Fatal(err)
	}

	want := "box id=main\n  \"hello\"\npanel\n"
	if got := w.Dump(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}

	// Moving the text under another parent counts as a reparent.
	if err := w.SetChildren(other, []host.Handle{text}); err != nil {
		t.Fatal(err)
	}
	if e, _ := w.Entity(box); len(e.Children) != 0 {
		t.Errorf("old parent still lists the child: %v", e.Children)
	}
	if w.Stats().Reparents != 1 {
		t.Errorf("reparents = %d, want 1", w.Stats().Reparents)
	}

	if err := w.Despawn(other); err != nil {
		t.Fatal(err)
	}
	if _, ok := w.Entity(text); ok {
		t.Error("despawn should remove descendants")
	}
	stats := w.Stats()
	if stats.Materialized != 3 || stats.Despawned != 2 || stats.PropUpdates != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if w.Dump() != "box id=main\n" {
		t.Errorf("unexpected dump after despawn:\n%s", w.Dump())
	}
}

func TestMaterializeRejectsVirtualNodes(t *testing.T) {
	w := New()
	if _, err := w.Materialize(&view.Node{Kind: view.KindFragment}); err == nil {
		t.Error("expected error for a fragment")
	}
	if err := w.Despawn("missing"); err == nil {
		t.Error("expected error for an unknown handle")
	}
}
