package reconcile

import (
	"errors"
	"fmt"
	"log/slog"

	qerrors "github.com/vango-dev/quill/internal/errors"
	"github.com/vango-dev/quill/pkg/view"
)

// Resolver owns the output of component boundaries.
type Resolver interface {
	// Mount creates an instance for a newly committed boundary and returns
	// its committed output. The boundary already carries its ref.
	Mount(boundary *view.Node) (*view.Node, error)

	// Update hands new props to the instance behind old. The instance
	// reconciles its own output; the parent diff does not look inside.
	Update(old, next *view.Node) error

	// Unmount disposes the instance behind a removed boundary.
	Unmount(boundary *view.Node)
}

// DuplicateKeyError reports two items of one list with the same key.
type DuplicateKeyError struct {
	Key    string
	List   view.Ref // Ref of the list
	First  int
	Second int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("reconcile: duplicate key %q in list #%d (items %d and %d)", e.Key, e.List, e.First, e.Second)
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithRefs shares a ref allocator between reconcilers.
func WithRefs(a *RefAllocator) Option {
	return func(r *Reconciler) {
		r.refs = a
	}
}

// WithResolver sets the component boundary resolver.
func WithResolver(res Resolver) Option {
	return func(r *Reconciler) {
		r.resolver = res
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = l
	}
}

// Reconciler diffs view trees and allocates refs for new nodes.
type Reconciler struct {
	refs     *RefAllocator
	resolver Resolver
	logger   *slog.Logger
}

// New creates a Reconciler.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{}
	for _, opt := range opts {
		opt(r)
	}
	if r.refs == nil {
		r.refs = NewRefAllocator()
	}
	if r.logger == nil {
		r.logger = slog.Default().With("component", "reconcile")
	}
	return r
}

// Refs returns the ref allocator.
func (r *Reconciler) Refs() *RefAllocator {
	return r.refs
}

// pass collects the output of one Reconcile or Materialize call.
type pass struct {
	script Script
	errs   []error
}

func (p *pass) insert(parent view.Ref, index int, desc *view.Node) {
	p.script = append(p.script, Edit{Op: OpInsert, Parent: parent, Index: index, Node: desc})
}

// Reconcile diffs the committed tree old against the fresh tree next.
// The subtree is the only child of parent. It returns the edit script and
// the new committed tree. Errors are local: a list with duplicate keys
// keeps its previous generation while the rest of the tree is reconciled.
func (r *Reconciler) Reconcile(old, next *view.Node, parent view.Ref) (Script, *view.Node, error) {
	p := &pass{}
	committed := r.diff(p, old, next, parent, 0)
	return p.script, committed, errors.Join(p.errs...)
}

// Materialize commits a fresh tree. It returns the committed tree and its
// description: the same tree with mounted component output embedded under
// each boundary.
func (r *Reconciler) Materialize(next *view.Node) (*view.Node, *view.Node, error) {
	if next == nil {
		return nil, nil, nil
	}
	p := &pass{}
	committed, desc := r.materialize(p, next)
	return committed, desc, errors.Join(p.errs...)
}

// Diff reconciles two trees without a resolver. New refs start above the
// largest ref in old.
func Diff(old, next *view.Node) (Script, *view.Node, error) {
	r := New()
	r.refs.Seed(old)
	return r.Reconcile(old, next, 0)
}

// sameNode reports whether next can update old in place.
func sameNode(old, next *view.Node) bool {
	if old.Kind != next.Kind || old.Key != next.Key || old.Tag != next.Tag {
		return false
	}
	return old.Kind != view.KindComponent || old.Comp == next.Comp
}

// commit returns next as a committed node carrying old's ref, without
// children.
func commit(old, next *view.Node) *view.Node {
	c := *next
	c.Ref = old.Ref
	c.Children = nil
	return &c
}

func (r *Reconciler) diff(p *pass, old, next *view.Node, parent view.Ref, index int) *view.Node {
	switch {
	case old == nil && next == nil:
		return nil
	case old == nil:
		committed, desc := r.materialize(p, next)
		p.insert(parent, index, desc)
		return committed
	case next == nil:
		r.remove(p, old)
		return nil
	case !sameNode(old, next):
		r.remove(p, old)
		committed, desc := r.materialize(p, next)
		p.insert(parent, index, desc)
		return committed
	}

	c := commit(old, next)
	switch next.Kind {
	case view.KindText:
		if old.Text != next.Text {
			p.script = append(p.script, Edit{
				Op:    OpUpdateProps,
				Ref:   old.Ref,
				Props: PropDiff{Set: map[string]any{"text": next.Text}},
			})
		}
	case view.KindElement:
		if d := diffProps(old.Props, next.Props); !d.IsEmpty() {
			p.script = append(p.script, Edit{Op: OpUpdateProps, Ref: old.Ref, Props: d})
		}
		c.Children = r.diffFixed(p, old, next)
	case view.KindFragment:
		c.Children = r.diffFixed(p, old, next)
	case view.KindConditional:
		if old.Branch == next.Branch {
			c.Children = r.diffInner(p, old, next)
		} else {
			c.Children = r.switchBranch(p, old, next)
		}
	case view.KindItem:
		c.Children = r.diffInner(p, old, next)
	case view.KindForEach:
		c.Children = r.diffKeyed(p, old, next)
	case view.KindComponent:
		if r.resolver != nil {
			if err := r.resolver.Update(old, c); err != nil {
				p.errs = append(p.errs, err)
			}
		} else {
			c.Children = r.diffFixed(p, old, next)
		}
	}
	return c
}

// diffFixed matches children by position.
func (r *Reconciler) diffFixed(p *pass, old, next *view.Node) []*view.Node {
	prev, curr := old.Children, next.Children
	if len(curr) == 0 {
		for _, child := range prev {
			r.remove(p, child)
		}
		return nil
	}
	out := make([]*view.Node, 0, len(curr))
	for i, child := range curr {
		var prevChild *view.Node
		if i < len(prev) {
			prevChild = prev[i]
		}
		if c := r.diff(p, prevChild, child, old.Ref, i); c != nil {
			out = append(out, c)
		}
	}
	for i := len(curr); i < len(prev); i++ {
		r.remove(p, prev[i])
	}
	return out
}

// diffInner diffs the single child of a conditional or item.
func (r *Reconciler) diffInner(p *pass, old, next *view.Node) []*view.Node {
	if c := r.diff(p, old.Inner(), next.Inner(), old.Ref, 0); c != nil {
		return []*view.Node{c}
	}
	return nil
}

// switchBranch replaces the content of a conditional whose branch changed,
// even when old and new content have the same shape.
func (r *Reconciler) switchBranch(p *pass, old, next *view.Node) []*view.Node {
	if inner := old.Inner(); inner != nil {
		r.remove(p, inner)
	}
	inner := next.Inner()
	if inner == nil {
		return nil
	}
	committed, desc := r.materialize(p, inner)
	p.insert(old.Ref, 0, desc)
	return []*view.Node{committed}
}

// remove emits a Remove edit and unmounts every boundary in the subtree.
func (r *Reconciler) remove(p *pass, n *view.Node) {
	p.script = append(p.script, Edit{Op: OpRemove, Ref: n.Ref})
	if r.resolver == nil {
		return
	}
	view.Walk(n, func(child *view.Node) bool {
		if child.Kind == view.KindComponent {
			r.resolver.Unmount(child)
		}
		return true
	})
}

// materialize assigns refs to a fresh subtree and mounts its boundaries.
// Subtrees without boundaries share one node for committed and description.
func (r *Reconciler) materialize(p *pass, n *view.Node) (*view.Node, *view.Node) {
	c := *n
	c.Ref = r.refs.Next()
	c.Children = nil

	if n.Kind == view.KindComponent && r.resolver != nil {
		out, err := r.resolver.Mount(&c)
		if err != nil {
			p.errs = append(p.errs, err)
		}
		d := c
		if out != nil {
			d.Children = []*view.Node{out}
		}
		return &c, &d
	}

	children := n.Children
	if n.Kind == view.KindForEach {
		if err := r.checkKeys(children, c.Ref); err != nil {
			p.errs = append(p.errs, err)
			children = nil
		}
	}
	if len(children) == 0 {
		return &c, &c
	}

	c.Children = make([]*view.Node, 0, len(children))
	descs := make([]*view.Node, 0, len(children))
	split := false
	for _, child := range children {
		cc, cd := r.materialize(p, child)
		c.Children = append(c.Children, cc)
		descs = append(descs, cd)
		if cc != cd {
			split = true
		}
	}
	if !split {
		return &c, &c
	}
	d := c
	d.Children = descs
	return &c, &d
}

// checkKeys returns a Q001 error for the first duplicate key of a list.
func (r *Reconciler) checkKeys(items []*view.Node, list view.Ref) error {
	seen := make(map[string]int, len(items))
	for i, item := range items {
		if first, ok := seen[item.Key]; ok {
			r.logger.Warn("duplicate key in list", "key", item.Key, "list", list)
			dup := &DuplicateKeyError{Key: item.Key, List: list, First: first, Second: i}
			return qerrors.New("Q001").WithDetailf("key %q in list #%d", item.Key, list).Wrap(dup)
		}
		seen[item.Key] = i
	}
	return nil
}
