package reconcile

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/vango-dev/quill/pkg/view"
)

// Op is the type of an edit.
type Op uint8

const (
	OpInsert      Op = 0x01 // Insert a new subtree
	OpRemove      Op = 0x02 // Remove a subtree
	OpMove        Op = 0x03 // Detach a node and insert it at Index
	OpUpdateProps Op = 0x04 // Change properties in place
)

// String returns the string representation of the Op.
func (op Op) String() string {
	switch op {
	case OpInsert:
		return "Insert"
	case OpRemove:
		return "Remove"
	case OpMove:
		return "Move"
	case OpUpdateProps:
		return "UpdateProps"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (op Op) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (op *Op) UnmarshalText(text []byte) error {
	for _, o := range []Op{OpInsert, OpRemove, OpMove, OpUpdateProps} {
		if o.String() == string(text) {
			*op = o
			return nil
		}
	}
	return fmt.Errorf("reconcile: unknown op %q", text)
}

// PropDiff lists property changes. Text nodes report their content under
// the "text" key.
type PropDiff struct {
	Set     map[string]any `json:"set,omitempty"`
	Removed []string       `json:"removed,omitempty"`
}

// IsEmpty reports whether the diff changes nothing.
func (d PropDiff) IsEmpty() bool {
	return len(d.Set) == 0 && len(d.Removed) == 0
}

// Edit is a single structural change.
type Edit struct {
	Op     Op         `json:"op"`
	Ref    view.Ref   `json:"ref,omitempty"`    // Target for Remove/Move/UpdateProps
	Parent view.Ref   `json:"parent,omitempty"` // Parent for Insert/Move
	Index  int        `json:"index"`            // Position for Insert/Move
	Node   *view.Node `json:"node,omitempty"`   // Description for Insert
	Props  PropDiff   `json:"props,omitempty"`  // For UpdateProps
}

// String returns a one-line description of the edit.
func (e Edit) String() string {
	switch e.Op {
	case OpInsert:
		ref := view.Ref(0)
		if e.Node != nil {
			ref = e.Node.Ref
		}
		return fmt.Sprintf("Insert #%d into #%d at %d", ref, e.Parent, e.Index)
	case OpRemove:
		return fmt.Sprintf("Remove #%d", e.Ref)
	case OpMove:
		return fmt.Sprintf("Move #%d to #%d at %d", e.Ref, e.Parent, e.Index)
	case OpUpdateProps:
		keys := make([]string, 0, len(e.Props.Set))
		for k := range e.Props.Set {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys)+len(e.Props.Removed))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Props.Set[k]))
		}
		for _, k := range e.Props.Removed {
			parts = append(parts, "-"+k)
		}
		return fmt.Sprintf("UpdateProps #%d %s", e.Ref, strings.Join(parts, " "))
	default:
		return "Unknown"
	}
}

// Script is an ordered list of edits. Applying the edits in order
// transforms the old structure into the new one.
type Script []Edit

// Count returns the number of edits with the given op.
func (s Script) Count(op Op) int {
	n := 0
	for _, e := range s {
		if e.Op == op {
			n++
		}
	}
	return n
}

// String returns one edit per line.
func (s Script) String() string {
	var b strings.Builder
	for _, e := range s {
		b.WriteString(e.String())
		b.WriteString("\n")
	}
	return b.String()
}

// diffProps compares two property maps.
func diffProps(prev, next view.Props) PropDiff {
	var d PropDiff
	for key, prevVal := range prev {
		nextVal, exists := next[key]
		if !exists {
			d.Removed = append(d.Removed, key)
		} else if !PropsEqual(prevVal, nextVal) {
			if d.Set == nil {
				d.Set = make(map[string]any)
			}
			d.Set[key] = nextVal
		}
	}
	for key, nextVal := range next {
		if _, exists := prev[key]; !exists {
			if d.Set == nil {
				d.Set = make(map[string]any)
			}
			d.Set[key] = nextVal
		}
	}
	sort.Strings(d.Removed)
	return d
}

// PropsEqual compares two property values. Two non-nil functions are never
// equal, since closures from one literal may capture different values.
// view.Handler values compare by key.
func PropsEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return av == bv
		}
		return false
	case int:
		if bv, ok := b.(int); ok {
			return av == bv
		}
		return false
	case int64:
		if bv, ok := b.(int64); ok {
			return av == bv
		}
		return false
	case float64:
		if bv, ok := b.(float64); ok {
			return av == bv
		}
		return false
	case bool:
		if bv, ok := b.(bool); ok {
			return av == bv
		}
		return false
	case nil:
		return b == nil
	case view.Handler:
		bv, ok := b.(view.Handler)
		return ok && av.Key != "" && av.Key == bv.Key
	}
	return reflect.DeepEqual(a, b)
}
