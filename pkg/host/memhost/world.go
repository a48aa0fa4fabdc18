// Package memhost is an in-memory Host: a flat entity store with parent
// and child links, used by tests, the CLI and the devtools demo.
package memhost

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/vango-dev/quill/pkg/host"
	"github.com/vango-dev/quill/pkg/reconcile"
	"github.com/vango-dev/quill/pkg/view"
)

// Entity is one host object.
type Entity struct {
	Handle   host.Handle
	Kind     view.Kind
	Tag      string
	Text     string
	Props    view.Props
	Parent   host.Handle
	Children []host.Handle
}

// Stats counts host operations since the world was created.
type Stats struct {
	Materialized int `json:"materialized"`
	Despawned    int `json:"despawned"`
	PropUpdates  int `json:"propUpdates"`
	Reparents    int `json:"reparents"`
}

// World is an in-memory Host. It is safe for concurrent use so inspectors
// can read it while a tick applies edits.
type World struct {
	mu       sync.RWMutex
	entities map[host.Handle]*Entity
	root     host.Handle
	stats    Stats
}

var _ host.Host = (*World)(nil)

// New creates a world with an empty root entity.
func New() *World {
	w := &World{entities: make(map[host.Handle]*Entity)}
	w.root = newHandle()
	w.entities[w.root] = &Entity{Handle: w.root, Kind: view.KindElement, Tag: "root"}
	return w
}

func newHandle() host.Handle {
	return host.Handle(ulid.Make().String())
}

// Root returns the root entity's handle.
func (w *World) Root() host.Handle {
	return w.root
}

// Materialize implements host.Host.
func (w *World) Materialize(n *view.Node) (host.Handle, error) {
	if n.Kind != view.KindElement && n.Kind != view.KindText {
		return "", fmt.Errorf("memhost: cannot materialize %s node", n.Kind)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	e := &Entity{
		Handle: newHandle(),
		Kind:   n.Kind,
		Tag:    n.Tag,
		Text:   n.Text,
	}
	if len(n.Props) > 0 {
		e.Props = make(view.Props, len(n.Props))
		for k, v := range n.Props {
			e.Props[k] = v
		}
	}
	w.entities[e.Handle] = e
	w.stats.Materialized++
	return e.Handle, nil
}

// Despawn implements host.Host.
func (w *World) Despawn(h host.Handle) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.entities[h]
	if !ok {
		return fmt.Errorf("memhost: no entity %s", h)
	}
	if p, ok := w.entities[e.Parent]; ok {
		p.Children = without(p.Children, h)
	}
	w.despawn(e)
	return nil
}

func (w *World) despawn(e *Entity) {
	for _, c := range e.Children {
		if child, ok := w.entities[c]; ok {
			w.despawn(child)
		}
	}
	delete(w.entities, e.Handle)
	w.stats.Despawned++
}

// ApplyProps implements host.Host.
func (w *World) ApplyProps(h host.Handle, diff reconcile.PropDiff) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.entities[h]
	if !ok {
		return fmt.Errorf("memhost: no entity %s", h)
	}
	for k, v := range diff.Set {
		if e.Kind == view.KindText && k == "text" {
			e.Text = fmt.Sprint(v)
			continue
		}
		if e.Props == nil {
			e.Props = make(view.Props)
		}
		e.Props[k] = v
	}
	for _, k := range diff.Removed {
		delete(e.Props, k)
	}
	w.stats.PropUpdates++
	return nil
}

// SetChildren implements host.Host.
func (w *World) SetChildren(parent host.Handle, children []host.Handle) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.entities[parent]
	if !ok {
		return fmt.Errorf("memhost: no entity %s", parent)
	}
	for _, c := range children {
		child, ok := w.entities[c]
		if !ok {
			return fmt.Errorf("memhost: no entity %s", c)
		}
		if child.Parent != "" && child.Parent != parent {
			if old, ok := w.entities[child.Parent]; ok {
				old.Children = without(old.Children, c)
			}
			w.stats.Reparents++
		}
		child.Parent = parent
	}
	p.Children = append([]host.Handle(nil), children...)
	return nil
}

// Entity returns a copy of the entity behind h.
func (w *World) Entity(h host.Handle) (Entity, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[h]
	if !ok {
		return Entity{}, false
	}
	return *e, true
}

// Len returns the number of entities, the root included.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.entities)
}

// Stats returns the operation counters.
func (w *World) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// Dump renders the entity tree below the root as indented text. Handles
// are left out so two worlds with the same structure dump the same.
func (w *World) Dump() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var b strings.Builder
	for _, c := range w.entities[w.root].Children {
		w.dump(&b, c, 0)
	}
	return b.String()
}

func (w *World) dump(b *strings.Builder, h host.Handle, depth int) {
	e, ok := w.entities[h]
	if !ok {
		fmt.Fprintf(b, "%s<missing %s>\n", strings.Repeat("  ", depth), h)
		return
	}
	b.WriteString(strings.Repeat("  ", depth))
	if e.Kind == view.KindText {
		fmt.Fprintf(b, "%q\n", e.Text)
		return
	}
	b.WriteString(e.Tag)
	keys := make([]string, 0, len(e.Props))
	for k := range e.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%v", k, e.Props[k])
	}
	b.WriteString("\n")
	for _, c := range e.Children {
		w.dump(b, c, depth+1)
	}
}

func without(list []host.Handle, h host.Handle) []host.Handle {
	out := list[:0]
	for _, x := range list {
		if x != h {
			out = append(out, x)
		}
	}
	return out
}
