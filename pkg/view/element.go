package view

import (
	"fmt"
	"strings"
)

// keyAttr is the attribute name that sets Node.Key instead of a prop.
const keyAttr = "key"

// El creates an element with the given tag.
// Arguments can be: nil, Attr, []Attr, *Node, []*Node, string.
// Strings become text children; nil arguments are ignored so attributes
// and children can be conditional.
func El(tag string, args ...any) *Node {
	node := &Node{
		Kind:  KindElement,
		Tag:   tag,
		Props: make(Props),
	}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue

		case Attr:
			node.setAttr(v)

		case []Attr:
			for _, a := range v {
				node.setAttr(a)
			}

		case *Node:
			if v != nil {
				node.Children = append(node.Children, v)
			}

		case []*Node:
			for _, child := range v {
				if child != nil {
					node.Children = append(node.Children, child)
				}
			}

		case string:
			node.Children = append(node.Children, Text(v))

		default:
			panic(fmt.Sprintf("view: unsupported argument %T for <%s>", arg, tag))
		}
	}

	return node
}

func (n *Node) setAttr(a Attr) {
	if a.IsEmpty() {
		return
	}
	if a.Key == keyAttr {
		n.Key = fmt.Sprint(a.Value)
		return
	}
	n.Props[a.Key] = a.Value
}

// Text creates a text node.
func Text(content string) *Node {
	return &Node{Kind: KindText, Text: content}
}

// Textf creates a text node with formatted content.
func Textf(format string, args ...any) *Node {
	return Text(fmt.Sprintf(format, args...))
}

// Fragment groups children without a wrapper element.
// Accepts the same child arguments as El; attributes other than Key are
// ignored.
func Fragment(children ...any) *Node {
	el := El("", children...)
	return &Node{Kind: KindFragment, Key: el.Key, Children: el.Children}
}

// Common element helpers.

// Box creates a layout container.
func Box(args ...any) *Node { return El("box", args...) }

// Button creates a button.
func Button(args ...any) *Node { return El("button", args...) }

// Image creates an image element.
func Image(args ...any) *Node { return El("image", args...) }

// Label creates a text label.
func Label(args ...any) *Node { return El("label", args...) }

// Attributes.

// Prop sets an arbitrary host property.
func Prop(key string, value any) Attr { return Attr{Key: key, Value: value} }

// Key sets the reconciliation key of an element or fragment.
func Key(key any) Attr { return Attr{Key: keyAttr, Value: key} }

// ID sets the id property.
func ID(id string) Attr { return Prop("id", id) }

// Class sets the class property, joining multiple classes with spaces.
func Class(classes ...string) Attr { return Prop("class", strings.Join(classes, " ")) }

// Style sets the style property.
func Style(style string) Attr { return Prop("style", style) }

// Data creates a data-* property.
func Data(key string, value any) Attr { return Prop("data-"+key, value) }

// Bundle groups attributes so they can be shared between elements.
// Empty attributes are dropped.
func Bundle(attrs ...Attr) []Attr {
	out := make([]Attr, 0, len(attrs))
	for _, a := range attrs {
		if !a.IsEmpty() {
			out = append(out, a)
		}
	}
	return out
}

// Attrs converts a map into attributes.
func Attrs(props Props) []Attr {
	out := make([]Attr, 0, len(props))
	for k, v := range props {
		out = append(out, Prop(k, v))
	}
	return out
}
