package host

import (
	"log/slog"
	"sort"

	qerrors "github.com/vango-dev/quill/internal/errors"
	"github.com/vango-dev/quill/pkg/reconcile"
	"github.com/vango-dev/quill/pkg/view"
)

// mirrorNode is one node of the committed view tree as the host sees it.
type mirrorNode struct {
	ref      view.Ref
	kind     view.Kind
	handle   Handle // empty for virtual nodes
	parent   *mirrorNode
	children []*mirrorNode
	removed  bool
}

func (m *mirrorNode) real() bool {
	return !m.kind.IsVirtual()
}

// hostParent returns the nearest ancestor with a host object.
func (m *mirrorNode) hostParent() *mirrorNode {
	for p := m.parent; p != nil; p = p.parent {
		if p.real() || p.ref == 0 {
			return p
		}
	}
	return nil
}

// hostChildren flattens virtual children into the host objects they
// contain, in order.
func (m *mirrorNode) hostChildren(out []Handle) []Handle {
	for _, c := range m.children {
		if c.real() {
			out = append(out, c.handle)
			continue
		}
		out = c.hostChildren(out)
	}
	return out
}

// ApplierOption configures an Applier.
type ApplierOption func(*Applier)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ApplierOption {
	return func(a *Applier) {
		a.logger = l
	}
}

// Applier applies edit scripts to a Host.
type Applier struct {
	host   Host
	top    *mirrorNode // ref 0, backed by the root handle
	nodes  map[view.Ref]*mirrorNode
	logger *slog.Logger
}

// NewApplier creates an Applier that mounts under the host object root.
func NewApplier(h Host, root Handle, opts ...ApplierOption) *Applier {
	a := &Applier{
		host:  h,
		top:   &mirrorNode{kind: view.KindElement, handle: root},
		nodes: make(map[view.Ref]*mirrorNode),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default().With("component", "host")
	}
	a.nodes[0] = a.top
	return a
}

// Handle returns the host object of ref, if ref is a materialized node.
func (a *Applier) Handle(ref view.Ref) (Handle, bool) {
	m, ok := a.nodes[ref]
	if !ok || !m.real() || ref == 0 {
		return "", false
	}
	return m.handle, true
}

// Len returns the number of mirrored view nodes.
func (a *Applier) Len() int {
	return len(a.nodes) - 1
}

// Apply applies script in order. Host parents whose children changed are
// updated once, after every edit has been applied. Apply stops at the
// first failing edit.
func (a *Applier) Apply(script reconcile.Script) error {
	touched := make(map[*mirrorNode]struct{})
	touch := func(m *mirrorNode) {
		if p := m.hostParent(); p != nil {
			touched[p] = struct{}{}
		}
	}

	for _, e := range script {
		switch e.Op {
		case reconcile.OpInsert:
			parent, err := a.lookup(e.Parent)
			if err != nil {
				return err
			}
			m, err := a.build(e.Node, touched)
			if err != nil {
				return err
			}
			attach(parent, m, e.Index)
			touch(m)
		case reconcile.OpRemove:
			m, err := a.lookup(e.Ref)
			if err != nil {
				return err
			}
			touch(m)
			detach(m)
			if err := a.destroy(m); err != nil {
				return err
			}
		case reconcile.OpMove:
			m, err := a.lookup(e.Ref)
			if err != nil {
				return err
			}
			parent, err := a.lookup(e.Parent)
			if err != nil {
				return err
			}
			touch(m)
			detach(m)
			attach(parent, m, e.Index)
			touch(m)
		case reconcile.OpUpdateProps:
			m, err := a.lookup(e.Ref)
			if err != nil {
				return err
			}
			if !m.real() {
				a.logger.Debug("props on virtual node ignored", "ref", e.Ref)
				continue
			}
			if err := a.host.ApplyProps(m.handle, e.Props); err != nil {
				return err
			}
		}
	}

	parents := make([]*mirrorNode, 0, len(touched))
	for p := range touched {
		if !p.removed {
			parents = append(parents, p)
		}
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i].ref < parents[j].ref })
	for _, p := range parents {
		if err := a.host.SetChildren(p.handle, p.hostChildren(nil)); err != nil {
			return err
		}
	}
	return nil
}

func (a *Applier) lookup(ref view.Ref) (*mirrorNode, error) {
	m, ok := a.nodes[ref]
	if !ok {
		return nil, qerrors.New("Q004").WithDetailf("ref #%d", ref).Wrap(ErrUnknownRef)
	}
	return m, nil
}

// build mirrors a described subtree and materializes its host objects.
// Host nodes with children are marked touched so their child lists are set.
func (a *Applier) build(n *view.Node, touched map[*mirrorNode]struct{}) (*mirrorNode, error) {
	m := &mirrorNode{ref: n.Ref, kind: n.Kind}
	if m.real() {
		shallow := *n
		shallow.Children = nil
		h, err := a.host.Materialize(&shallow)
		if err != nil {
			return nil, err
		}
		m.handle = h
	}
	a.nodes[n.Ref] = m
	for _, child := range n.Children {
		c, err := a.build(child, touched)
		if err != nil {
			return nil, err
		}
		c.parent = m
		m.children = append(m.children, c)
	}
	if m.real() && len(m.children) > 0 {
		touched[m] = struct{}{}
	}
	return m, nil
}

// destroy forgets a detached subtree and despawns its top-most host
// objects. Despawning a host object takes its descendants with it.
func (a *Applier) destroy(m *mirrorNode) error {
	m.removed = true
	delete(a.nodes, m.ref)
	if m.real() {
		a.forget(m.children)
		return a.host.Despawn(m.handle)
	}
	for _, c := range m.children {
		if err := a.destroy(c); err != nil {
			return err
		}
	}
	return nil
}

func (a *Applier) forget(children []*mirrorNode) {
	for _, c := range children {
		c.removed = true
		delete(a.nodes, c.ref)
		a.forget(c.children)
	}
}

func attach(parent, m *mirrorNode, index int) {
	if index < 0 || index > len(parent.children) {
		index = len(parent.children)
	}
	parent.children = append(parent.children, nil)
	copy(parent.children[index+1:], parent.children[index:])
	parent.children[index] = m
	m.parent = parent
}

func detach(m *mirrorNode) {
	p := m.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == m {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	m.parent = nil
}
