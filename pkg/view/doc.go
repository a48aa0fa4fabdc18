// Package view provides the immutable view tree that components render.
//
// A render produces a fresh tree of *Node values every time it runs. Nodes
// are never mutated after construction; the reconciler compares a new tree
// against the previously committed one and emits structural edits.
//
// # Building Trees
//
//	view.Box(view.Class("inventory"),
//	    view.Label(view.Textf("%d items", len(items))),
//	    view.ForEach(items, func(it Item) string { return it.ID },
//	        func(it Item, i int) *view.Node {
//	            return view.Button(view.Prop("slot", i), it.Name)
//	        }),
//	    view.If(open, func() *view.Node { return details.Bind(sel) }),
//	)
//
// Besides elements and text, a tree has three kinds of virtual nodes that
// the host never sees directly: fragments group children, conditionals
// remember which branch produced their content, and ForEach lists carry
// keyed items so reordering moves existing nodes instead of rebuilding them.
//
// # Components
//
// A Component is a named render function. Bind produces a boundary node
// that a root resolves into a component instance with its own scope:
//
//	var Counter = view.Define("Counter", func(cx *view.Cx) *view.Node {
//	    count := view.UseLocal(cx, 0)
//	    return view.Button(view.Textf("clicked %d", count.Get()))
//	})
//
//	root := view.Box(Counter.Bind(nil))
package view
