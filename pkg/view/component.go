package view

import (
	"fmt"

	"github.com/vango-dev/quill/pkg/reactive"
)

// RenderFunc renders a component instance.
type RenderFunc func(cx *Cx) *Node

// Component is a named render function. Its identity is the pointer: two
// boundaries refer to the same component only if they were bound from the
// same definition.
type Component struct {
	name   string
	render RenderFunc
}

// Define creates a component definition.
func Define(name string, render RenderFunc) *Component {
	return &Component{name: name, render: render}
}

// DefineWith creates a component whose props have type P.
//
//	var Slot = view.DefineWith("Slot", func(cx *view.Cx, it Item) *view.Node {
//	    return view.Label(it.Name)
//	})
func DefineWith[P any](name string, render func(cx *Cx, props P) *Node) *Component {
	return Define(name, func(cx *Cx) *Node {
		return render(cx, PropsOf[P](cx))
	})
}

// Name returns the component name.
func (c *Component) Name() string {
	return c.name
}

// String implements fmt.Stringer.
func (c *Component) String() string {
	return c.name
}

// Render runs the render function. It is called by roots; application
// code binds components instead.
func (c *Component) Render(cx *Cx) *Node {
	return c.render(cx)
}

// Bind produces a boundary node carrying props.
func (c *Component) Bind(props any) *Node {
	return &Node{Kind: KindComponent, Comp: c, Input: props}
}

// BindKeyed produces a keyed boundary node. Keys keep instances apart when
// several boundaries of one component sit among the same siblings.
func (c *Component) BindKeyed(key string, props any) *Node {
	return &Node{Kind: KindComponent, Comp: c, Key: key, Input: props}
}

// Cx is the per-instance render context handed to a component.
type Cx struct {
	rt    *reactive.Runtime
	owner *reactive.Owner
	props any
	gen   uint64 // bumped by SetProps
}

// NewCx creates a render context for an instance whose state lives in owner.
func NewCx(rt *reactive.Runtime, owner *reactive.Owner, props any) *Cx {
	return &Cx{rt: rt, owner: owner, props: props}
}

// Runtime returns the reactive runtime.
func (cx *Cx) Runtime() *reactive.Runtime {
	return cx.rt
}

// Owner returns the instance scope.
func (cx *Cx) Owner() *reactive.Owner {
	return cx.owner
}

// Props returns the props the boundary was bound with.
func (cx *Cx) Props() any {
	return cx.props
}

// SetProps replaces the props before a re-render.
func (cx *Cx) SetProps(props any) {
	cx.props = props
	cx.gen++
}

// PropsOf returns the props as P, or P's zero value when the boundary was
// bound with nil. Any other type mismatch panics.
func PropsOf[P any](cx *Cx) P {
	if cx.props == nil {
		var zero P
		return zero
	}
	p, ok := cx.props.(P)
	if !ok {
		var zero P
		panic(fmt.Sprintf("view: props are %T, want %T", cx.props, zero))
	}
	return p
}

// OnCleanup runs fn when the instance unmounts.
func (cx *Cx) OnCleanup(fn func()) {
	cx.owner.OnCleanup(fn)
}

// Provide makes value visible to UseContext calls in descendant instances.
func (cx *Cx) Provide(key, value any) {
	cx.owner.Provide(key, value)
}

// create runs fn untracked with the instance scope current, so state made
// by hooks belongs to the instance regardless of where render was called.
func (cx *Cx) create(fn func()) {
	cx.rt.RunWithOwner(cx.owner, func() {
		cx.rt.Untracked(fn)
	})
}

// UseContext returns the nearest value provided for key by this instance
// or an ancestor.
func UseContext[T any](cx *Cx, key any) (T, bool) {
	v, ok := cx.owner.Lookup(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// =============================================================================
// Hooks
// =============================================================================

// Hooks are slot-indexed: the n-th hook call of a render gets the state of
// the n-th hook call of the previous render. Components must call hooks
// unconditionally and in the same order on every render.

// UseLocal returns instance-local state, created with initial on the first
// render and preserved until the instance unmounts.
func UseLocal[T any](cx *Cx, initial T) *reactive.Signal[T] {
	if slot := cx.owner.UseHookSlot(); slot != nil {
		s, ok := slot.(*reactive.Signal[T])
		if !ok {
			panic("view: hook slot type mismatch for UseLocal")
		}
		return s
	}
	var s *reactive.Signal[T]
	cx.create(func() {
		s = reactive.NewSignal(cx.rt, initial)
	})
	cx.owner.SetHookSlot(s)
	return s
}

type memoHook[T any] struct {
	memo *reactive.Memo[T]
	gen  uint64
}

// UseMemo returns an instance-local memo. On later renders the memo keeps
// its identity and switches to the new fn. It recomputes only when a
// source it read changed or the props changed since the previous render,
// so values fn captures should come from props or be read from signals
// inside fn.
func UseMemo[T any](cx *Cx, fn func() T) *reactive.Memo[T] {
	if slot := cx.owner.UseHookSlot(); slot != nil {
		h, ok := slot.(*memoHook[T])
		if !ok {
			panic("view: hook slot type mismatch for UseMemo")
		}
		if h.gen != cx.gen {
			h.gen = cx.gen
			h.memo.Replace(fn)
		} else {
			h.memo.Swap(fn)
		}
		return h.memo
	}
	var m *reactive.Memo[T]
	cx.create(func() {
		m = reactive.NewMemo(cx.rt, fn)
	})
	cx.owner.SetHookSlot(&memoHook[T]{memo: m, gen: cx.gen})
	return m
}

// UseEffect registers an instance-local effect. It runs once on the first
// render and again whenever a source it read changes; later renders swap
// in the new fn without running it.
func UseEffect(cx *Cx, fn func() reactive.Cleanup) *reactive.Effect {
	if slot := cx.owner.UseHookSlot(); slot != nil {
		e, ok := slot.(*reactive.Effect)
		if !ok {
			panic("view: hook slot type mismatch for UseEffect")
		}
		e.Replace(fn)
		return e
	}
	var e *reactive.Effect
	cx.create(func() {
		e = reactive.NewEffect(cx.rt, fn)
	})
	cx.owner.SetHookSlot(e)
	return e
}
