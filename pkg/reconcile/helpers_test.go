package reconcile

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vango-dev/quill/pkg/view"
)

var ignoreComponent = cmpopts.IgnoreFields(view.Node{}, "Comp", "Input")

// mirror replays scripts on a mutable copy of a committed tree.
type mirror struct {
	root   *view.Node // container with ref 0
	nodes  map[view.Ref]*view.Node
	parent map[view.Ref]*view.Node
}

func newMirror(committed *view.Node) *mirror {
	m := &mirror{
		root:   &view.Node{Kind: view.KindFragment},
		nodes:  make(map[view.Ref]*view.Node),
		parent: make(map[view.Ref]*view.Node),
	}
	m.nodes[0] = m.root
	if committed != nil {
		m.root.Children = []*view.Node{m.adopt(committed, m.root)}
	}
	return m
}

func (m *mirror) adopt(n, parent *view.Node) *view.Node {
	c := n.Clone()
	if n.Props != nil {
		c.Props = make(view.Props, len(n.Props))
		for k, v := range n.Props {
			c.Props[k] = v
		}
	}
	m.nodes[c.Ref] = c
	m.parent[c.Ref] = parent
	for i, child := range c.Children {
		c.Children[i] = m.adopt(child, c)
	}
	return c
}

func (m *mirror) detach(t *testing.T, ref view.Ref) *view.Node {
	t.Helper()
	n, ok := m.nodes[ref]
	if !ok {
		t.Fatalf("unknown ref #%d", ref)
	}
	p := m.parent[ref]
	i := slices.Index(p.Children, n)
	p.Children = slices.Delete(p.Children, i, i+1)
	return n
}

func (m *mirror) attach(t *testing.T, n *view.Node, parent view.Ref, index int) {
	t.Helper()
	p, ok := m.nodes[parent]
	if !ok {
		t.Fatalf("unknown parent #%d", parent)
	}
	if index < 0 || index > len(p.Children) {
		t.Fatalf("index %d out of range for #%d with %d children", index, parent, len(p.Children))
	}
	p.Children = slices.Insert(p.Children, index, n)
	m.parent[n.Ref] = p
}

func (m *mirror) apply(t *testing.T, script Script) {
	t.Helper()
	for _, e := range script {
		switch e.Op {
		case OpInsert:
			m.attach(t, m.adopt(e.Node, nil), e.Parent, e.Index)
		case OpRemove:
			n := m.detach(t, e.Ref)
			view.Walk(n, func(c *view.Node) bool {
				delete(m.nodes, c.Ref)
				delete(m.parent, c.Ref)
				return true
			})
		case OpMove:
			m.attach(t, m.detach(t, e.Ref), e.Parent, e.Index)
		case OpUpdateProps:
			n, ok := m.nodes[e.Ref]
			if !ok {
				t.Fatalf("unknown ref #%d", e.Ref)
			}
			for k, v := range e.Props.Set {
				if k == "text" && n.Kind == view.KindText {
					n.Text = v.(string)
					continue
				}
				if n.Props == nil {
					n.Props = make(view.Props)
				}
				n.Props[k] = v
			}
			for _, k := range e.Props.Removed {
				delete(n.Props, k)
			}
		}
	}
}

func (m *mirror) tree() *view.Node {
	if len(m.root.Children) == 0 {
		return nil
	}
	return m.root.Children[0]
}

// assertApplies checks that replaying script on old yields committed.
func assertApplies(t *testing.T, old *view.Node, script Script, committed *view.Node) {
	t.Helper()
	m := newMirror(old)
	m.apply(t, script)
	if diff := cmp.Diff(committed, m.tree(), ignoreComponent, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("applied script differs from committed tree (-want +got):\n%s", diff)
	}
}

func list(keys ...string) *view.Node {
	return view.ForEach(keys, func(k string) string { return k }, func(k string, _ int) *view.Node {
		return view.Label(k)
	})
}

func mustMaterialize(t *testing.T, r *Reconciler, n *view.Node) *view.Node {
	t.Helper()
	committed, _, err := r.Materialize(n)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	return committed
}
