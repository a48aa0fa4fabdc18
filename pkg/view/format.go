package view

import (
	"fmt"
	"sort"
	"strings"
)

// Format renders a tree as indented text, one node per line. Props are
// printed in key order so the output is stable.
func Format(n *Node) string {
	var b strings.Builder
	format(&b, n, 0)
	return b.String()
}

func format(b *strings.Builder, n *Node, depth int) {
	if n == nil {
		return
	}
	b.WriteString(strings.Repeat("  ", depth))
	switch n.Kind {
	case KindElement:
		b.WriteString("<" + n.Tag)
		writeKey(b, n)
		keys := make([]string, 0, len(n.Props))
		for k := range n.Props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(b, " %s=%v", k, n.Props[k])
		}
		b.WriteString(">")
	case KindText:
		fmt.Fprintf(b, "%q", n.Text)
	case KindFragment:
		b.WriteString("[fragment")
		writeKey(b, n)
		b.WriteString("]")
	case KindConditional:
		fmt.Fprintf(b, "[match %s]", n.Branch)
	case KindForEach:
		b.WriteString("[for]")
	case KindItem:
		fmt.Fprintf(b, "[item %s]", n.Key)
	case KindComponent:
		b.WriteString("<" + n.ComponentName())
		writeKey(b, n)
		b.WriteString("/>")
	}
	if n.Ref != 0 {
		fmt.Fprintf(b, " #%d", n.Ref)
	}
	b.WriteString("\n")
	for _, c := range n.Children {
		format(b, c, depth+1)
	}
}

func writeKey(b *strings.Builder, n *Node) {
	if n.Key != "" {
		fmt.Fprintf(b, " key=%s", n.Key)
	}
}
