package quill

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	qerrors "github.com/vango-dev/quill/internal/errors"
	"github.com/vango-dev/quill/pkg/reactive"
	"github.com/vango-dev/quill/pkg/reconcile"
	"github.com/vango-dev/quill/pkg/view"
)

// Option configures a Root.
type Option func(*Root)

// WithRuntime mounts into an existing runtime.
func WithRuntime(rt *reactive.Runtime) Option {
	return func(r *Root) {
		r.rt = rt
	}
}

// WithConfig creates the runtime with cfg. Ignored when WithRuntime is
// also given.
func WithConfig(cfg reactive.Config) Option {
	return func(r *Root) {
		r.cfg = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Root) {
		r.logger = l
	}
}

// WithHooks registers tick hooks.
func WithHooks(hooks ...Hook) Option {
	return func(r *Root) {
		r.hooks = append(r.hooks, hooks...)
	}
}

// Root mounts one component tree. It is not safe for concurrent use; all
// calls must come from the goroutine that drives the runtime.
type Root struct {
	rt     *reactive.Runtime
	cfg    reactive.Config
	rec    *reconcile.Reconciler
	logger *slog.Logger
	hooks  []Hook

	top       *view.Node // committed root boundary
	instances map[view.Ref]*instance
	pending   reconcile.Script
	errs      []error
}

// New creates a Root.
func New(opts ...Option) *Root {
	r := &Root{instances: make(map[view.Ref]*instance)}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default().With("component", "quill")
	}
	if r.rt == nil {
		cfg := r.cfg
		if cfg.Logger == nil {
			cfg.Logger = r.logger.With("component", "reactive")
		}
		r.rt = reactive.New(cfg)
	}
	r.rec = reconcile.New(
		reconcile.WithResolver(resolver{r}),
		reconcile.WithLogger(r.logger.With("component", "reconcile")),
	)
	return r
}

// Runtime returns the reactive runtime.
func (r *Root) Runtime() *reactive.Runtime {
	return r.rt
}

// Logger returns the root's logger.
func (r *Root) Logger() *slog.Logger {
	return r.logger
}

// Use registers more tick hooks.
func (r *Root) Use(hooks ...Hook) {
	r.hooks = append(r.hooks, hooks...)
}

// Mounted reports whether a component is mounted.
func (r *Root) Mounted() bool {
	return r.top != nil
}

// Mount renders c with props as the root component. Mounting the same
// component again only updates its props; a different component replaces
// the tree. The resulting edits are returned by the next Flush.
func (r *Root) Mount(c *view.Component, props any) error {
	if c == nil {
		return errors.New("quill: nil component")
	}
	return r.reconcileTop(c.Bind(props))
}

// Unmount removes the mounted tree and disposes every instance.
func (r *Root) Unmount() error {
	if r.top == nil {
		return qerrors.New("Q008")
	}
	return r.reconcileTop(nil)
}

func (r *Root) reconcileTop(next *view.Node) error {
	var (
		script reconcile.Script
		err    error
	)
	r.rt.Untracked(func() {
		script, r.top, err = r.rec.Reconcile(r.top, next, 0)
	})
	r.pending = append(r.pending, script...)
	return err
}

// Flush runs one tick: pending writes settle, dirty instances re-render
// and their edits are collected. It returns every edit produced since the
// previous Flush, including those of Mount and Unmount.
//
// Errors do not stop the tick. Instances that failed keep their previous
// output; the errors are joined into the returned error.
func (r *Root) Flush(ctx context.Context) (reconcile.Script, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tick := r.rt.Tick() + 1
	ctxs := make([]context.Context, len(r.hooks))
	for i, h := range r.hooks {
		ctx = h.BeforeTick(ctx, tick)
		ctxs[i] = ctx
	}

	start := time.Now()
	stats, err := r.rt.Flush()
	script := r.pending
	r.pending = nil
	errs := append(r.errs, err)
	r.errs = nil
	err = errors.Join(errs...)

	report := TickReport{
		Tick:      stats.Tick,
		Edits:     script,
		Stats:     stats,
		Instances: len(r.instances),
		Duration:  time.Since(start),
		Err:       err,
	}
	if err != nil {
		r.logger.Warn("tick finished with errors", "tick", report.Tick, "error", err)
	}
	r.logger.Debug("tick", "tick", report.Tick, "edits", len(script), "evaluations", stats.Evaluations, "passes", stats.Passes)
	for i, h := range r.hooks {
		h.AfterTick(ctxs[i], report)
	}
	return script, err
}

// Snapshot returns the committed tree with every boundary expanded to its
// instance's committed output.
func (r *Root) Snapshot() *view.Node {
	return r.expand(r.top)
}

func (r *Root) expand(n *view.Node) *view.Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Kind == view.KindComponent {
		if inst, ok := r.instances[n.Ref]; ok && inst.committed != nil {
			c.Children = []*view.Node{r.expand(inst.committed)}
		}
		return &c
	}
	if len(n.Children) > 0 {
		c.Children = make([]*view.Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = r.expand(child)
		}
	}
	return &c
}

// InstanceInfo describes one mounted component instance.
type InstanceInfo struct {
	Ref       view.Ref        `json:"ref"`
	Component string          `json:"component"`
	Key       string          `json:"key,omitempty"`
	Scope     uint64          `json:"scope"`
	View      reactive.NodeID `json:"view"`
	Renders   int             `json:"renders"`
}

// Instances lists the mounted instances ordered by boundary ref.
func (r *Root) Instances() []InstanceInfo {
	out := make([]InstanceInfo, 0, len(r.instances))
	for _, inst := range r.instances {
		info := InstanceInfo{
			Ref:       inst.boundary,
			Component: inst.comp.Name(),
			Key:       inst.key,
			Scope:     inst.owner.ID(),
			Renders:   inst.renders,
		}
		if inst.view != nil {
			info.View = inst.view.ID()
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref < out[j].Ref })
	return out
}

func (r *Root) emit(script reconcile.Script, err error) {
	r.pending = append(r.pending, script...)
	if err != nil {
		r.errs = append(r.errs, err)
	}
}
