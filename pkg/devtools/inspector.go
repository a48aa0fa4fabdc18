package devtools

import (
	"context"
	"sync"

	"github.com/vango-dev/quill/pkg/quill"
	"github.com/vango-dev/quill/pkg/reactive"
	"github.com/vango-dev/quill/pkg/view"
)

// DefaultHistory is the number of tick summaries an Inspector keeps.
const DefaultHistory = 256

// TickSummary is the devtools view of one tick.
type TickSummary struct {
	Tick          uint64         `json:"tick"`
	Edits         int            `json:"edits"`
	Ops           map[string]int `json:"ops,omitempty"`
	Passes        int            `json:"passes"`
	Evaluations   int            `json:"evaluations"`
	Invalidations int            `json:"invalidations"`
	Deferred      int            `json:"deferred"`
	Instances     int            `json:"instances"`
	DurationMS    float64        `json:"durationMs"`
	Errors        []string       `json:"errors,omitempty"`
}

// Summarize converts a tick report.
func Summarize(report quill.TickReport) TickSummary {
	s := TickSummary{
		Tick:          report.Tick,
		Edits:         len(report.Edits),
		Passes:        report.Stats.Passes,
		Evaluations:   report.Stats.Evaluations,
		Invalidations: report.Stats.Invalidations,
		Deferred:      report.Stats.Deferred,
		Instances:     report.Instances,
		DurationMS:    float64(report.Duration.Microseconds()) / 1000,
	}
	for _, e := range report.Edits {
		if s.Ops == nil {
			s.Ops = make(map[string]int)
		}
		s.Ops[e.Op.String()]++
	}
	if report.Err != nil {
		s.Errors = append(s.Errors, report.Err.Error())
	}
	return s
}

// InspectorOption configures an Inspector.
type InspectorOption func(*Inspector)

// WithHistory sets how many tick summaries are kept.
func WithHistory(n int) InspectorOption {
	return func(i *Inspector) {
		if n > 0 {
			i.history = n
		}
	}
}

// WithHub streams summaries to hub.
func WithHub(h *Hub) InspectorOption {
	return func(i *Inspector) {
		i.hub = h
	}
}

// Inspector captures root state after every tick.
type Inspector struct {
	root    *quill.Root
	hub     *Hub
	history int

	mu        sync.RWMutex
	ticks     []TickSummary
	tree      *view.Node
	graph     []reactive.NodeInfo
	instances []quill.InstanceInfo
}

var _ quill.Hook = (*Inspector)(nil)

// NewInspector creates an Inspector for root and registers it as a hook.
func NewInspector(root *quill.Root, opts ...InspectorOption) *Inspector {
	i := &Inspector{root: root, history: DefaultHistory}
	for _, opt := range opts {
		opt(i)
	}
	root.Use(i)
	i.capture()
	return i
}

// Hub returns the hub summaries are streamed to, or nil.
func (i *Inspector) Hub() *Hub {
	return i.hub
}

// BeforeTick implements quill.Hook.
func (i *Inspector) BeforeTick(ctx context.Context, _ uint64) context.Context {
	return ctx
}

// AfterTick implements quill.Hook.
func (i *Inspector) AfterTick(_ context.Context, report quill.TickReport) {
	summary := Summarize(report)
	i.capture()

	i.mu.Lock()
	i.ticks = append(i.ticks, summary)
	if over := len(i.ticks) - i.history; over > 0 {
		i.ticks = append(i.ticks[:0:0], i.ticks[over:]...)
	}
	i.mu.Unlock()

	if i.hub != nil {
		i.hub.Broadcast(Message{Type: MessageTick, Tick: &summary})
	}
}

// capture copies root state. It runs on the goroutine driving the root.
func (i *Inspector) capture() {
	tree := i.root.Snapshot()
	graph := i.root.Runtime().Graph()
	instances := i.root.Instances()

	i.mu.Lock()
	i.tree, i.graph, i.instances = tree, graph, instances
	i.mu.Unlock()
}

// Ticks returns up to limit of the most recent summaries, oldest first.
// A limit of zero returns all of them.
func (i *Inspector) Ticks(limit int) []TickSummary {
	i.mu.RLock()
	defer i.mu.RUnlock()
	ticks := i.ticks
	if limit > 0 && len(ticks) > limit {
		ticks = ticks[len(ticks)-limit:]
	}
	return append([]TickSummary(nil), ticks...)
}

// Tick returns the summary of one tick if it is still in the history.
func (i *Inspector) Tick(tick uint64) (TickSummary, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	for _, s := range i.ticks {
		if s.Tick == tick {
			return s, true
		}
	}
	return TickSummary{}, false
}

// Tree returns the committed tree as of the last tick.
func (i *Inspector) Tree() *view.Node {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.tree
}

// Graph returns the reactive graph as of the last tick.
func (i *Inspector) Graph() []reactive.NodeInfo {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.graph
}

// Instances returns the mounted instances as of the last tick.
func (i *Inspector) Instances() []quill.InstanceInfo {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.instances
}
