package reconcile

import (
	"sync"

	"github.com/vango-dev/quill/pkg/view"
)

// RefAllocator hands out node refs. Refs are never reused.
type RefAllocator struct {
	counter uint64
	mu      sync.Mutex
}

// NewRefAllocator creates a new RefAllocator.
func NewRefAllocator() *RefAllocator {
	return &RefAllocator{}
}

// Next returns the next ref (1, 2, ...).
func (a *RefAllocator) Next() view.Ref {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counter++
	return view.Ref(a.counter)
}

// Current returns the last ref handed out without incrementing.
func (a *RefAllocator) Current() view.Ref {
	a.mu.Lock()
	defer a.mu.Unlock()
	return view.Ref(a.counter)
}

// Seed makes sure later refs are greater than every ref in tree.
func (a *RefAllocator) Seed(tree *view.Node) {
	a.mu.Lock()
	defer a.mu.Unlock()
	view.Walk(tree, func(n *view.Node) bool {
		if uint64(n.Ref) > a.counter {
			a.counter = uint64(n.Ref)
		}
		return true
	})
}

// Refs returns every ref in tree, parents first.
func Refs(tree *view.Node) []view.Ref {
	var refs []view.Ref
	view.Walk(tree, func(n *view.Node) bool {
		if n.Ref != 0 {
			refs = append(refs, n.Ref)
		}
		return true
	})
	return refs
}
