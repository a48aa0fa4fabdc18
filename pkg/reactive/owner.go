package reactive

// Owner represents a scope that owns reactive primitives.
// When an Owner is disposed, all signals, memos, effects, views and child
// owners it contains are also disposed, and none of its computations is
// evaluated again.
//
// Owners form a hierarchy: each component instance creates an Owner that is
// a child of its parent instance's Owner. This mirrors the component tree.
type Owner struct {
	rt *Runtime
	id uint64

	// parent is nil for the runtime's root owner.
	parent   *Owner
	children []*Owner

	// nodes are the signals and computations created in this scope.
	nodes []*node

	// cleanups are manual cleanup functions registered via OnCleanup.
	cleanups []func()

	// values stores context values provided by this scope.
	values map[any]any

	disposed bool

	// Hook slot storage for stable identity across renders.
	hookSlots   []any
	hookSlotIdx int
}

func newOwner(rt *Runtime, parent *Owner) *Owner {
	rt.ownerSeq++
	o := &Owner{
		rt:     rt,
		id:     rt.ownerSeq,
		parent: parent,
	}
	if parent != nil {
		parent.children = append(parent.children, o)
	}
	return o
}

// ID returns the unique identifier for this Owner.
func (o *Owner) ID() uint64 {
	return o.id
}

// Parent returns the parent Owner, or nil if this is a root Owner.
func (o *Owner) Parent() *Owner {
	return o.parent
}

// Runtime returns the runtime the owner belongs to.
func (o *Owner) Runtime() *Runtime {
	return o.rt
}

// IsDisposed returns true if this Owner has been disposed.
func (o *Owner) IsDisposed() bool {
	return o.disposed
}

// Len returns the number of live nodes created directly in this scope.
func (o *Owner) Len() int {
	return len(o.nodes)
}

// OnCleanup registers a cleanup function to run when this Owner is disposed.
// On an already disposed owner fn runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	if o.disposed {
		fn()
		return
	}
	o.cleanups = append(o.cleanups, fn)
}

// Provide stores a context value visible to this scope and its descendants.
func (o *Owner) Provide(key, value any) {
	if o.values == nil {
		o.values = make(map[any]any)
	}
	o.values[key] = value
}

// Lookup finds the nearest value provided for key, walking up the tree.
func (o *Owner) Lookup(key any) (any, bool) {
	for cur := o; cur != nil; cur = cur.parent {
		if v, ok := cur.values[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Dispose disposes this Owner and all its children, nodes, and cleanups.
// Children are disposed in reverse order (last created first).
// After disposal, the Owner cannot be used.
func (o *Owner) Dispose() {
	if o.disposed {
		return
	}
	o.disposed = true

	if o.parent != nil {
		o.parent.removeChild(o)
	}
	o.release()
	o.values = nil
	o.hookSlots = nil
}

// release disposes the child scopes, nodes and cleanups of o but leaves o
// itself usable.
func (o *Owner) release() {
	children := o.children
	o.children = nil
	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	nodes := o.nodes
	o.nodes = nil
	for i := len(nodes) - 1; i >= 0; i-- {
		o.rt.disposeNode(nodes[i])
	}

	cleanups := o.cleanups
	o.cleanups = nil
	for i := len(cleanups) - 1; i >= 0; i-- {
		o.rt.Untracked(cleanups[i])
	}
}

func (o *Owner) removeChild(child *Owner) {
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

// =============================================================================
// Hook Slot Storage for Stable Identity
// =============================================================================

// StartRender resets the hook slot index. It is called at the beginning of
// every render of the component that owns this scope.
func (o *Owner) StartRender() {
	o.hookSlotIdx = 0
}

// UseHookSlot returns the stored value for the current hook slot,
// or nil on the first render.
//
// Usage pattern:
//
//	func SomeHook[T any](o *reactive.Owner) *T {
//	    if slot := o.UseHookSlot(); slot != nil {
//	        return slot.(*T)  // Subsequent render: return stored instance
//	    }
//	    instance := &T{...}  // First render: create new instance
//	    o.SetHookSlot(instance)
//	    return instance
//	}
func (o *Owner) UseHookSlot() any {
	idx := o.hookSlotIdx
	o.hookSlotIdx++

	if idx < len(o.hookSlots) {
		return o.hookSlots[idx]
	}
	return nil
}

// SetHookSlot stores a value in the current hook slot.
// Must be called after UseHookSlot returns nil (first render).
func (o *Owner) SetHookSlot(value any) {
	o.hookSlots = append(o.hookSlots, value)
}
