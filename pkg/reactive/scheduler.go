package reactive

import (
	"container/heap"
	"errors"
	"runtime/debug"
	"sort"
	"time"

	qerrors "github.com/vango-dev/quill/internal/errors"
)

// FlushStats summarises one flush.
type FlushStats struct {
	Tick          uint64        `json:"tick"`
	Passes        int           `json:"passes"`
	Evaluations   int           `json:"evaluations"`
	Invalidations int           `json:"invalidations"`
	Skipped       int           `json:"skipped"`
	Deferred      int           `json:"deferred"`
	Duration      time.Duration `json:"duration"`
}

// nodeQueue is a min-heap of dirty computations ordered by rank, then ID.
type nodeQueue []*node

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if q[i].rank != q[j].rank {
		return q[i].rank < q[j].rank
	}
	return q[i].id < q[j].id
}

func (q nodeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].heapIndex = i
	q[j].heapIndex = j
}

func (q *nodeQueue) Push(x any) {
	n := x.(*node)
	n.heapIndex = len(*q)
	*q = append(*q, n)
}

func (q *nodeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	old[len(old)-1] = nil
	n.heapIndex = -1
	*q = old[:len(old)-1]
	return n
}

func (q *nodeQueue) fix(n *node) {
	heap.Fix(q, n.heapIndex)
}

// Invalidate marks computation id dirty so it re-evaluates on the next
// pass even though none of its sources changed.
func (r *Runtime) Invalidate(id NodeID) error {
	n, err := r.lookup(id)
	if err != nil {
		return err
	}
	if n.kind == KindSignal {
		return invalidHandle(id)
	}
	r.markDirty(n)
	return nil
}

// markDirty queues n for evaluation. During a flush, a computation that
// has not run in the current pass joins it; otherwise it waits for the
// next pass.
func (r *Runtime) markDirty(n *node) {
	if n.disposed || n.dirty || n.kind == KindSignal {
		return
	}
	n.dirty = true
	r.invalidations++
	if r.flushing && !n.running && n.evalPass != r.passSeq {
		if n.heapIndex < 0 {
			heap.Push(&r.queue, n)
		}
		return
	}
	r.deferred = append(r.deferred, n)
}

func (r *Runtime) invalidateSubs(n *node) {
	for _, sub := range n.subs {
		r.markDirty(sub)
	}
}

// enqueue adds a written signal to the pending-change set.
func (r *Runtime) enqueue(n *node) {
	if !n.pending {
		n.pending = true
		r.pending = append(r.pending, n)
	}
	if r.cfg.Batching == BatchManual && r.batchDepth == 0 && !r.flushing {
		r.settlePending()
	}
}

// settlePending compares every written signal with the value its
// subscribers last saw and invalidates them once if it differs.
func (r *Runtime) settlePending() {
	for len(r.pending) > 0 {
		batch := r.pending
		r.pending = nil
		for _, s := range batch {
			s.pending = false
			if s.disposed {
				continue
			}
			if s.settle() {
				r.invalidateSubs(s)
			}
		}
	}
}

// pull brings a memo up to date before it is read. During a flush, writes
// stay pending until the next pass.
func (r *Runtime) pull(n *node) {
	if len(r.pending) > 0 && !r.flushing {
		r.settlePending()
	}
	if n.dirty && !n.running && !n.disposed {
		r.evaluate(n)
	}
}

// evaluate runs one computation under tracking. Nodes and scopes created
// by the previous run are disposed first; RunWithOwner places a node in a
// scope that outlives the run.
func (r *Runtime) evaluate(n *node) {
	n.dirty = false
	n.evalPass = r.passSeq
	r.evaluations++
	if n.scope == nil {
		n.scope = newOwner(r, n.owner)
	} else {
		n.scope.release()
	}
	r.clearDeps(n)

	depth := len(r.frames)
	prevOwner := r.owner
	n.running = true
	r.frames = append(r.frames, frame{tracking: n, within: n})
	r.owner = n.scope

	changed, err := r.protect(n)

	r.frames = r.frames[:depth]
	r.owner = prevOwner
	n.running = false
	r.updateRank(n)

	if err != nil {
		r.logger.Warn("computation panicked", "node", n.info().String(), "error", err)
		r.errs = append(r.errs, qerrors.New("Q005").WithDetail(n.info().String()).Wrap(err))
		return
	}
	if changed && n.kind == KindMemo && !n.disposed {
		r.invalidateSubs(n)
	}
}

func (r *Runtime) protect(n *node) (changed bool, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &EvalError{Node: n.info(), Value: v, Stack: debug.Stack()}
		}
	}()
	return n.run(), nil
}

// Flush settles pending writes and evaluates dirty computations until the
// graph is quiet, the pass bound is hit or the evaluation budget runs out.
//
// Errors from individual computations do not stop the flush; they are
// joined into the returned error together with any cycle or budget error.
func (r *Runtime) Flush() (FlushStats, error) {
	if r.flushing {
		return FlushStats{}, qerrors.New("Q007").Wrap(ErrReentrantFlush)
	}
	start := time.Now()
	r.flushing = true
	defer func() { r.flushing = false }()
	r.tick++
	stats := FlushStats{Tick: r.tick}
	evalStart := r.evaluations

	var errs []error
	budget := r.cfg.MaxEvaluationsPerFlush

passes:
	for {
		r.settlePending()
		stats.Skipped += r.compactDeferred()
		if len(r.deferred) == 0 {
			break
		}
		if stats.Passes >= r.cfg.MaxPasses {
			errs = append(errs, r.cycleError(stats.Passes))
			break
		}
		stats.Passes++
		r.passSeq++
		for _, n := range r.deferred {
			if n.heapIndex < 0 {
				heap.Push(&r.queue, n)
			}
		}
		r.deferred = nil
		r.logger.Debug("flush pass", "tick", r.tick, "pass", stats.Passes, "queued", r.queue.Len())

		for r.queue.Len() > 0 {
			n := heap.Pop(&r.queue).(*node)
			if n.disposed {
				stats.Skipped++
				continue
			}
			if !n.dirty {
				continue
			}
			if budget > 0 && r.evaluations-evalStart >= budget {
				r.deferred = append(r.deferred, n)
				for r.queue.Len() > 0 {
					r.deferred = append(r.deferred, heap.Pop(&r.queue).(*node))
				}
				r.compactDeferred()
				r.logger.Warn("evaluation budget exceeded", "tick", r.tick, "budget", budget, "deferred", len(r.deferred))
				errs = append(errs, qerrors.New("Q006").
					WithDetailf("%d evaluations, %d computations deferred", budget, len(r.deferred)).
					Wrap(ErrBudgetExceeded))
				break passes
			}
			r.evaluate(n)
		}
	}

	errs = append(r.errs, errs...)
	r.errs = nil

	stats.Deferred = len(r.deferred)
	stats.Evaluations = r.evaluations - evalStart
	stats.Invalidations = r.invalidations - r.lastInvalidated
	r.lastInvalidated = r.invalidations
	stats.Duration = time.Since(start)

	return stats, errors.Join(errs...)
}

// compactDeferred drops disposed and clean entries from the next-pass list
// and returns how many disposed ones it dropped.
func (r *Runtime) compactDeferred() int {
	skipped := 0
	kept := r.deferred[:0]
	for _, n := range r.deferred {
		switch {
		case n.disposed:
			skipped++
		case !n.dirty:
		default:
			kept = append(kept, n)
		}
	}
	for i := len(kept); i < len(r.deferred); i++ {
		r.deferred[i] = nil
	}
	r.deferred = kept
	return skipped
}

func (r *Runtime) cycleError(passes int) error {
	seen := make(map[NodeID]bool, len(r.deferred))
	cerr := &CycleError{Passes: passes}
	for _, n := range r.deferred {
		if seen[n.id] {
			continue
		}
		seen[n.id] = true
		cerr.Computations = append(cerr.Computations, n.info())
	}
	sort.Slice(cerr.Computations, func(i, j int) bool {
		return cerr.Computations[i].ID < cerr.Computations[j].ID
	})
	r.logger.Warn("invalidation cycle", "tick", r.tick, "passes", passes, "computations", len(cerr.Computations))
	return qerrors.New("Q002").WithDetail(cerr.Error()).Wrap(cerr)
}

// Dispose destroys one signal or computation. Owners dispose their nodes
// automatically; this is for nodes whose lifetime is managed by hand.
func (r *Runtime) Dispose(id NodeID) error {
	n, err := r.lookup(id)
	if err != nil {
		return err
	}
	r.disposeNode(n)
	return nil
}

func (r *Runtime) disposeNode(n *node) {
	if n.disposed {
		return
	}
	n.disposed = true
	n.dirty = false
	n.pending = false

	if n.scope != nil {
		n.scope.Dispose()
		n.scope = nil
	}
	if n.teardown != nil {
		r.Untracked(n.teardown)
	}
	r.clearDeps(n)
	for _, sub := range n.subs {
		sub.deps = removeNode(sub.deps, n)
	}
	n.subs = nil
	if n.parent != nil {
		n.parent.kids = removeNode(n.parent.kids, n)
		n.parent = nil
	}
	for _, k := range n.kids {
		k.parent = nil
	}
	n.kids = nil
	if n.owner != nil {
		n.owner.nodes = removeNode(n.owner.nodes, n)
	}
	delete(r.nodes, n.id)
}

func removeNode(list []*node, n *node) []*node {
	for i, x := range list {
		if x == n {
			copy(list[i:], list[i+1:])
			list[len(list)-1] = nil
			return list[:len(list)-1]
		}
	}
	return list
}
