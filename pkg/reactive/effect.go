package reactive

// Cleanup is a function returned by effects to clean up resources.
// It is called before the effect re-runs and when the effect is disposed.
type Cleanup func()

// Effect represents a reactive side effect that runs when its dependencies change.
//
// Effects run immediately when created, and re-run whenever any signal or memo
// they read during execution changes. They can return a Cleanup function that
// will be called before the effect re-runs or when the effect is disposed.
type Effect struct {
	rt *Runtime
	n  *node

	fn      func() Cleanup
	cleanup Cleanup
}

// EffectOption is an option for configuring an Effect.
type EffectOption interface {
	applyEffect(e *Effect)
}

type effectOptionFunc func(*Effect)

func (f effectOptionFunc) applyEffect(e *Effect) { f(e) }

// EffectName sets the label shown for the effect in diagnostics.
func EffectName(name string) EffectOption {
	return effectOptionFunc(func(e *Effect) {
		e.n.label = name
	})
}

// NewEffect creates and runs a new effect within the current scope.
//
// Example:
//
//	reactive.NewEffect(rt, func() reactive.Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { fmt.Println("Cleanup") }
//	})
func NewEffect(rt *Runtime, fn func() Cleanup, opts ...EffectOption) *Effect {
	e := &Effect{rt: rt, fn: fn}
	e.n = rt.newNode(KindEffect, "")
	e.n.run = e.run
	e.n.teardown = e.runCleanup

	for _, opt := range opts {
		opt.applyEffect(e)
	}

	rt.evaluate(e.n)
	return e
}

// Replace swaps the effect function. The new function is used from the
// next time a dependency changes; the effect is not re-run now.
func (e *Effect) Replace(fn func() Cleanup) {
	e.fn = fn
}

// ID returns the node ID of this effect.
func (e *Effect) ID() NodeID {
	return e.n.id
}

// Dispose runs the pending cleanup and detaches the effect.
func (e *Effect) Dispose() {
	e.rt.disposeNode(e.n)
}

// Disposed reports whether the effect was destroyed.
func (e *Effect) Disposed() bool {
	return e.n.disposed
}

func (e *Effect) run() bool {
	e.runCleanup()
	e.cleanup = e.fn()
	return false
}

func (e *Effect) runCleanup() {
	if e.cleanup == nil {
		return
	}
	c := e.cleanup
	e.cleanup = nil
	e.rt.Untracked(func() { c() })
}

// Computation is a view computation: a tracked function whose output is
// consumed by its caller rather than stored in the graph.
type Computation struct {
	rt *Runtime
	n  *node
}

// NewView creates a view computation in the current scope and runs fn once.
// fn re-runs whenever a source it read changes or Invalidate is called.
func NewView(rt *Runtime, label string, fn func()) *Computation {
	c := &Computation{rt: rt}
	c.n = rt.newNode(KindView, label)
	c.n.run = func() bool {
		fn()
		return false
	}
	rt.evaluate(c.n)
	return c
}

// ID returns the node ID of this computation.
func (c *Computation) ID() NodeID {
	return c.n.id
}

// Label returns the diagnostic label.
func (c *Computation) Label() string {
	return c.n.label
}

// Rank returns the scheduling rank.
func (c *Computation) Rank() int {
	return c.n.rank
}

// Invalidate schedules a re-run on the next pass.
func (c *Computation) Invalidate() {
	c.rt.markDirty(c.n)
}

// Dispose detaches the computation from the graph.
func (c *Computation) Dispose() {
	c.rt.disposeNode(c.n)
}

// Disposed reports whether the computation was destroyed.
func (c *Computation) Disposed() bool {
	return c.n.disposed
}
