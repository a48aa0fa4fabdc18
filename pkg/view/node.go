package view

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement     Kind = iota // Host element
	KindText                    // Plain text
	KindFragment                // Grouping without wrapper
	KindConditional             // Branch-tagged content
	KindForEach                 // Keyed list
	KindItem                    // One keyed entry of a ForEach
	KindComponent               // Component boundary
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindConditional:
		return "Conditional"
	case KindForEach:
		return "ForEach"
	case KindItem:
		return "Item"
	case KindComponent:
		return "Component"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	for c := KindElement; c <= KindComponent; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("view: unknown kind %q", text)
}

// IsVirtual reports whether nodes of this kind exist only in the view tree
// and are flattened away by hosts.
func (k Kind) IsVirtual() bool {
	return k != KindElement && k != KindText
}

// Ref is the stable identity the reconciler assigns to a committed node.
// It is zero in freshly built trees.
type Ref uint64

// Props holds the host properties of an element.
type Props map[string]any

// MarshalJSON implements json.Marshaler. Values JSON cannot hold, such as
// event handlers, are encoded as their Go type.
func (p Props) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		switch reflect.ValueOf(v).Kind() {
		case reflect.Func, reflect.Chan, reflect.UnsafePointer:
			out[k] = fmt.Sprintf("%T", v)
		default:
			out[k] = v
		}
	}
	return json.Marshal(out)
}

// Node is one immutable node of a view tree.
type Node struct {
	Kind     Kind       `json:"kind"`
	Tag      string     `json:"tag,omitempty"`    // Element tag
	Key      string     `json:"key,omitempty"`    // Reconciliation key
	Props    Props      `json:"props,omitempty"`  // Element properties
	Children []*Node    `json:"children,omitempty"`
	Text     string     `json:"text,omitempty"`   // For KindText
	Branch   string     `json:"branch,omitempty"` // For KindConditional
	Comp     *Component `json:"-"`                // For KindComponent
	Input    any        `json:"-"`                // Component props
	Ref      Ref        `json:"ref,omitempty"`
}

// Inner returns the single child of a conditional or item node, or nil.
func (n *Node) Inner() *Node {
	if n == nil || len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

// Clone returns a shallow copy of n with its own children slice.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		copy(c.Children, n.Children)
	}
	return &c
}

// ComponentName returns the name of a component boundary's definition.
func (n *Node) ComponentName() string {
	if n == nil || n.Comp == nil {
		return ""
	}
	return n.Comp.Name()
}

// Walk visits n and its descendants depth-first, parents first.
// Returning false from fn skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Find returns the node with the given ref, or nil.
func Find(root *Node, ref Ref) *Node {
	var found *Node
	Walk(root, func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.Ref == ref {
			found = n
			return false
		}
		return true
	})
	return found
}

// Handler is a callback prop with an explicit identity. Handlers with the
// same non-empty key are the same prop value to the reconciler, so a
// closure re-created on every render does not produce an update. Plain
// function props always do.
type Handler struct {
	Key string
	Fn  any
}

// MarshalJSON implements json.Marshaler. Only the key is encoded.
func (h Handler) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"handler": h.Key})
}

// On sets prop to a Handler wrapping fn with identity key.
func On(prop, key string, fn any) Attr {
	return Attr{Key: prop, Value: Handler{Key: key, Fn: fn}}
}

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}
