package reactive

import (
	"log/slog"
	"sort"
)

// NodeID identifies a signal or computation within one Runtime.
// IDs are assigned in creation order and never reused.
type NodeID uint64

// Kind is the type of a graph node.
type Kind uint8

const (
	KindSignal Kind = iota + 1
	KindMemo
	KindEffect
	KindView
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindSignal:
		return "signal"
	case KindMemo:
		return "memo"
	case KindEffect:
		return "effect"
	case KindView:
		return "view"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Batching controls when writes settle into invalidations.
type Batching int

const (
	// BatchPerTick settles every write made since the previous flush at
	// the start of the next flush.
	BatchPerTick Batching = iota

	// BatchManual settles each write as it happens, unless it is made
	// inside Runtime.Batch, in which case it settles when the outermost
	// batch returns.
	BatchManual
)

// DefaultMaxPasses is used when Config.MaxPasses is zero.
const DefaultMaxPasses = 32

// Config configures a Runtime.
type Config struct {
	// MaxPasses bounds the scheduler passes of one flush.
	// Default: DefaultMaxPasses.
	MaxPasses int

	// Batching selects when writes settle. Default: BatchPerTick.
	Batching Batching

	// MaxEvaluationsPerFlush stops a flush after this many evaluations.
	// 0 means no limit.
	MaxEvaluationsPerFlush int

	// Logger receives pass and diagnostic logs.
	// Default: slog.Default().With("component", "reactive").
	Logger *slog.Logger
}

// node is the type-erased representation shared by every signal and
// computation.
type node struct {
	id    NodeID
	kind  Kind
	label string
	owner *Owner

	// Source side (signals and memos).
	subs    map[NodeID]*node
	settle  func() bool
	pending bool

	// Computation side (memos, effects and views).
	deps      []*node
	run       func() bool
	teardown  func()
	parent    *node
	kids      []*node
	scope     *Owner // holds what the last evaluation created
	rank      int
	dirty     bool
	running   bool
	evalPass  uint64
	heapIndex int

	disposed bool
}

func (n *node) info() NodeInfo {
	return NodeInfo{ID: n.id, Kind: n.kind, Label: n.label, Rank: n.rank, Dirty: n.dirty}
}

// frame is one entry of the tracking stack. tracking is nil for an
// untracked frame; within is the computation whose extent the frame is in.
type frame struct {
	tracking *node
	within   *node
}

// Runtime owns one reactive graph.
type Runtime struct {
	cfg    Config
	logger *slog.Logger

	nextID   NodeID
	ownerSeq uint64
	nodes    map[NodeID]*node

	frames []frame
	root   *Owner
	owner  *Owner

	pending    []*node
	batchDepth int

	queue    nodeQueue
	deferred []*node
	errs     []error

	flushing bool
	tick     uint64
	passSeq  uint64

	evaluations     int
	invalidations   int
	lastInvalidated int
}

// New creates a Runtime. Zero fields of cfg take their defaults.
func New(cfg Config) *Runtime {
	if cfg.MaxPasses <= 0 {
		cfg.MaxPasses = DefaultMaxPasses
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default().With("component", "reactive")
	}
	r := &Runtime{
		cfg:    cfg,
		logger: cfg.Logger,
		nodes:  make(map[NodeID]*node),
	}
	r.root = newOwner(r, nil)
	r.owner = r.root
	return r
}

// Config returns the effective configuration.
func (r *Runtime) Config() Config {
	return r.cfg
}

// Logger returns the runtime's logger.
func (r *Runtime) Logger() *slog.Logger {
	return r.logger
}

// Root returns the root scope. It is never disposed by the runtime.
func (r *Runtime) Root() *Owner {
	return r.root
}

// CurrentOwner returns the scope new nodes are created in.
func (r *Runtime) CurrentOwner() *Owner {
	return r.owner
}

// NewScope creates a child scope of parent, or of the current scope when
// parent is nil.
func (r *Runtime) NewScope(parent *Owner) *Owner {
	if parent == nil {
		parent = r.owner
	}
	return newOwner(r, parent)
}

// RunWithOwner runs fn with o as the current scope.
func (r *Runtime) RunWithOwner(o *Owner, fn func()) {
	prev := r.owner
	r.owner = o
	defer func() { r.owner = prev }()
	fn()
}

// Tick returns the number of flushes started so far.
func (r *Runtime) Tick() uint64 {
	return r.tick
}

// HasWork reports whether a flush would do anything: unsettled writes,
// dirty computations or errors waiting to be reported.
func (r *Runtime) HasWork() bool {
	if len(r.pending) > 0 || len(r.errs) > 0 {
		return true
	}
	for _, n := range r.deferred {
		if n.dirty && !n.disposed {
			return true
		}
	}
	return false
}

func (r *Runtime) newNode(kind Kind, label string) *node {
	r.nextID++
	n := &node{
		id:        r.nextID,
		kind:      kind,
		label:     label,
		owner:     r.owner,
		heapIndex: -1,
	}
	if kind == KindSignal || kind == KindMemo {
		n.subs = make(map[NodeID]*node)
	}
	if kind == KindEffect || kind == KindView {
		if p := r.currentComputation(); p != nil {
			n.parent = p
			p.kids = append(p.kids, n)
		}
	}
	r.nodes[n.id] = n
	if n.owner != nil {
		n.owner.nodes = append(n.owner.nodes, n)
	}
	return n
}

// lookup returns the live node for id.
func (r *Runtime) lookup(id NodeID) (*node, error) {
	n, ok := r.nodes[id]
	if !ok || n.disposed {
		return nil, invalidHandle(id)
	}
	return n, nil
}

// =============================================================================
// Tracking
// =============================================================================

// Track runs fn with computation id as the tracking scope. The
// computation's previous dependencies are dropped first, so afterwards its
// dependency set is exactly what fn read.
func (r *Runtime) Track(id NodeID, fn func()) error {
	n, err := r.lookup(id)
	if err != nil {
		return err
	}
	if n.kind == KindSignal {
		return invalidHandle(id)
	}
	r.clearDeps(n)
	r.frames = append(r.frames, frame{tracking: n, within: n})
	defer r.popFrame()
	fn()
	r.updateRank(n)
	return nil
}

// Untracked runs fn without recording reads. Nodes created inside fn are
// still attributed to the enclosing computation.
func (r *Runtime) Untracked(fn func()) {
	r.frames = append(r.frames, frame{within: r.currentComputation()})
	defer r.popFrame()
	fn()
}

// Batch groups writes. With BatchManual the writes settle once when the
// outermost batch returns. With BatchPerTick writes already settle once
// per flush, so Batch only runs fn.
func (r *Runtime) Batch(fn func()) {
	r.batchDepth++
	defer func() {
		r.batchDepth--
		if r.batchDepth == 0 && r.cfg.Batching == BatchManual && !r.flushing {
			r.settlePending()
		}
	}()
	fn()
}

// Tracking reports whether reads are currently being recorded.
func (r *Runtime) Tracking() bool {
	if len(r.frames) == 0 {
		return false
	}
	return r.frames[len(r.frames)-1].tracking != nil
}

func (r *Runtime) popFrame() {
	r.frames = r.frames[:len(r.frames)-1]
}

func (r *Runtime) currentComputation() *node {
	if len(r.frames) == 0 {
		return nil
	}
	return r.frames[len(r.frames)-1].within
}

// recordRead subscribes the tracking computation to src.
func (r *Runtime) recordRead(src *node) {
	if len(r.frames) == 0 {
		return
	}
	c := r.frames[len(r.frames)-1].tracking
	if c == nil || c == src || c.disposed || src.disposed {
		return
	}
	if _, ok := src.subs[c.id]; ok {
		return
	}
	src.subs[c.id] = c
	c.deps = append(c.deps, src)
}

func (r *Runtime) clearDeps(n *node) {
	for _, d := range n.deps {
		delete(d.subs, n.id)
	}
	n.deps = n.deps[:0]
}

// updateRank recomputes n's rank from its sources and its creator, then
// raises the ranks of the computations n created so they stay after it.
func (r *Runtime) updateRank(n *node) {
	rank := 1
	if n.parent != nil && !n.parent.disposed {
		rank = n.parent.rank + 1
	}
	for _, d := range n.deps {
		if d.rank+1 > rank {
			rank = d.rank + 1
		}
	}
	r.setRank(n, rank)
	r.bumpKids(n)
}

func (r *Runtime) bumpKids(n *node) {
	for _, k := range n.kids {
		if k.rank <= n.rank {
			r.setRank(k, n.rank+1)
			r.bumpKids(k)
		}
	}
}

func (r *Runtime) setRank(n *node, rank int) {
	if n.rank == rank {
		return
	}
	n.rank = rank
	if n.heapIndex >= 0 {
		r.queue.fix(n)
	}
}

// =============================================================================
// Introspection
// =============================================================================

// Dependencies returns the sources computation id read during its last
// evaluation, in first-read order.
func (r *Runtime) Dependencies(id NodeID) ([]NodeID, error) {
	n, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	ids := make([]NodeID, len(n.deps))
	for i, d := range n.deps {
		ids[i] = d.id
	}
	return ids, nil
}

// Subscribers returns the computations subscribed to source id, sorted.
func (r *Runtime) Subscribers(id NodeID) ([]NodeID, error) {
	n, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return sortedSubs(n), nil
}

// Describe returns a snapshot of one node.
func (r *Runtime) Describe(id NodeID) (NodeInfo, error) {
	n, err := r.lookup(id)
	if err != nil {
		return NodeInfo{}, err
	}
	return describe(n), nil
}

// Graph returns a snapshot of every live node ordered by ID.
func (r *Runtime) Graph() []NodeInfo {
	out := make([]NodeInfo, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, describe(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func describe(n *node) NodeInfo {
	info := n.info()
	for _, d := range n.deps {
		info.Deps = append(info.Deps, d.id)
	}
	info.Subs = sortedSubs(n)
	return info
}

func sortedSubs(n *node) []NodeID {
	if len(n.subs) == 0 {
		return nil
	}
	ids := make([]NodeID, 0, len(n.subs))
	for id := range n.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
