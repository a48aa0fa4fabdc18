// Package reactive provides the signal graph and scheduler for quill.
//
// A Runtime is an explicit context object: it owns the tracking stack, the
// scope hierarchy, the pending-write set and the dirty queue. Nothing is
// stored in package-level state, so independent runtimes can coexist in one
// process. A runtime must only be used from one goroutine at a time.
//
// # Core Types
//
// Signal[T] is a reactive value container:
//
//	rt := reactive.New(reactive.Config{})
//	count := reactive.NewSignal(rt, 0)
//	value := count.Get()  // Read (subscribes the running computation)
//	count.Set(5)          // Write (coalesced until the next flush)
//	count.Update(func(n int) int { return n + 1 })
//
// Memo[T] is a cached derived computation:
//
//	doubled := reactive.NewMemo(rt, func() int { return count.Get() * 2 })
//	value := doubled.Get()  // Never stale: re-evaluates first when dirty
//
// Effect runs side effects when dependencies change:
//
//	reactive.NewEffect(rt, func() reactive.Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { /* cleanup */ }
//	})
//
// # Flushing
//
// Writes are stored immediately but only invalidate subscribers when they
// settle. With BatchPerTick (the default) every write made between two
// calls to Flush settles once at the start of the next Flush, so several
// writes to one signal produce a single invalidation carrying the final
// value, and a write that is reverted before the flush produces none.
//
//	count.Set(1)
//	count.Set(2)
//	stats, err := rt.Flush() // subscribers re-run once and observe 2
//
// Flush evaluates dirty computations in passes ordered by rank, so sources
// run before their dependents and parent views before the views they
// created. A computation runs at most once per pass. Runaway invalidation
// is bounded by Config.MaxPasses and reported as a *CycleError.
//
// # Scopes
//
// Every signal and computation belongs to the Owner that was current when
// it was created. Disposing an Owner detaches everything it holds from the
// graph, so a torn-down component is never evaluated again.
package reactive
