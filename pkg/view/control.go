package view

import "strconv"

// Branch tags used by If and IfElse.
const (
	BranchThen = "then"
	BranchElse = "else"
)

// If renders then when condition is true. The thunk is only called for
// the taken branch. When condition is false the conditional is empty.
func If(condition bool, then func() *Node) *Node {
	if condition {
		return conditional(BranchThen, then)
	}
	return conditional(BranchElse, nil)
}

// IfElse renders one of two branches.
func IfElse(condition bool, then, otherwise func() *Node) *Node {
	if condition {
		return conditional(BranchThen, then)
	}
	return conditional(BranchElse, otherwise)
}

// Match renders the branch identified by tag. A change of tag between
// renders replaces the content even when the new content has the same
// shape as the old.
func Match(tag string, render func() *Node) *Node {
	return conditional(tag, render)
}

func conditional(branch string, render func() *Node) *Node {
	n := &Node{Kind: KindConditional, Branch: branch}
	if render != nil {
		if inner := render(); inner != nil {
			n.Children = []*Node{inner}
		}
	}
	return n
}

// ForEach renders a keyed list. key must return a distinct string for
// every item; the reconciler rejects duplicates.
func ForEach[T any](items []T, key func(T) string, render func(item T, index int) *Node) *Node {
	list := &Node{Kind: KindForEach, Children: make([]*Node, 0, len(items))}
	for i, item := range items {
		list.Children = append(list.Children, ItemOf(key(item), render(item, i)))
	}
	return list
}

// ForIndex renders a list keyed by position. Appends and truncations are
// cheap; reordering re-renders content in place instead of moving it.
func ForIndex[T any](items []T, render func(item T, index int) *Node) *Node {
	list := &Node{Kind: KindForEach, Children: make([]*Node, 0, len(items))}
	for i, item := range items {
		list.Children = append(list.Children, ItemOf(strconv.Itoa(i), render(item, i)))
	}
	return list
}

// ItemOf wraps content as a keyed list entry.
func ItemOf(key string, content *Node) *Node {
	n := &Node{Kind: KindItem, Key: key}
	if content != nil {
		n.Children = []*Node{content}
	}
	return n
}

// List builds a ForEach node from already keyed items.
func List(items ...*Node) *Node {
	return &Node{Kind: KindForEach, Children: items}
}
