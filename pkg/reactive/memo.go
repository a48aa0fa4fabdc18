package reactive

// Memo is a cached computation that automatically tracks its dependencies.
//
// Memos are evaluated eagerly on creation and again by the scheduler when
// a dependency changes. A read of a dirty memo re-evaluates it first, so a
// memo never returns a value computed from outdated sources. When the new
// value equals the old one under the memo's equality policy, its own
// subscribers are left alone.
//
// Memos can also be subscribed to, behaving like signals themselves.
// This allows building chains of derived values.
type Memo[T any] struct {
	rt *Runtime
	n  *node

	compute func() T
	value   T
	valid   bool

	equal func(T, T) bool
}

// NewMemo creates a memo in the runtime's current scope and evaluates it.
func NewMemo[T any](rt *Runtime, compute func() T) *Memo[T] {
	m := &Memo[T]{rt: rt, compute: compute}
	m.n = rt.newNode(KindMemo, "")
	m.n.run = m.recompute
	rt.evaluate(m.n)
	return m
}

// Get returns the memo's value, recomputing if necessary.
// Creates a dependency on this memo for the running computation.
func (m *Memo[T]) Get() T {
	v, err := m.Read()
	if err != nil {
		panic(err)
	}
	return v
}

// Read is Get returning an error instead of panicking.
func (m *Memo[T]) Read() (T, error) {
	if m.n.disposed {
		var zero T
		return zero, invalidHandle(m.n.id)
	}
	m.rt.pull(m.n)
	m.rt.recordRead(m.n)
	return m.value, nil
}

// Peek returns the memo's value without subscribing.
// Still triggers recomputation if the value is outdated.
func (m *Memo[T]) Peek() T {
	if m.n.disposed {
		panic(invalidHandle(m.n.id))
	}
	m.rt.pull(m.n)
	return m.value
}

// WithEquals configures the memo with a custom equality function.
func (m *Memo[T]) WithEquals(fn func(T, T) bool) *Memo[T] {
	m.equal = fn
	return m
}

// Named sets a label shown in diagnostics.
func (m *Memo[T]) Named(label string) *Memo[T] {
	m.n.label = label
	return m
}

// Replace swaps the computation and marks the memo dirty, so the next read
// or pass evaluates the new function.
func (m *Memo[T]) Replace(compute func() T) {
	if m.n.disposed {
		return
	}
	m.compute = compute
	m.rt.markDirty(m.n)
}

// Swap replaces the computation without invalidating the memo. The cached
// value stays until a source changes or Replace is called.
func (m *Memo[T]) Swap(compute func() T) {
	m.compute = compute
}

// ID returns the node ID of this memo.
func (m *Memo[T]) ID() NodeID {
	return m.n.id
}

// Dispose detaches the memo from the graph. Later reads fail.
func (m *Memo[T]) Dispose() {
	m.rt.disposeNode(m.n)
}

// Disposed reports whether the memo was destroyed.
func (m *Memo[T]) Disposed() bool {
	return m.n.disposed
}

func (m *Memo[T]) recompute() bool {
	next := m.compute()
	if m.valid && m.equals(m.value, next) {
		return false
	}
	m.value = next
	m.valid = true
	return true
}

func (m *Memo[T]) equals(a, b T) bool {
	if m.equal != nil {
		return m.equal(a, b)
	}
	return defaultEquals(a, b)
}
