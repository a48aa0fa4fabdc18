// Package reconcile turns two generations of a view tree into an edit
// script.
//
// The reconciler compares the last committed tree with a freshly built one
// and emits the smallest set of structural edits that transforms the first
// into the second:
//
//	OpInsert       add a new subtree at an index under a parent
//	OpRemove       drop a subtree
//	OpMove         detach a node and re-insert it at an index
//	OpUpdateProps  change properties of a node that stays in place
//
// Every node of a committed tree carries a Ref. Matched nodes keep their
// ref across generations; new nodes get fresh refs from the RefAllocator.
//
// # Matching
//
// Nodes match when kind, key and tag agree. A mismatch replaces the whole
// subtree without diffing its children. Fixed children (elements,
// fragments) match by position. Conditionals whose branch tag changed
// remove the old content and insert the new. ForEach items match by key
// and are reordered with a longest-increasing-subsequence pass so that
// only items outside the subsequence move.
//
// # Component boundaries
//
// A Resolver owns the output of component boundaries. Boundaries with the
// same definition and key are handed to Resolver.Update and are opaque to
// the parent diff. Without a resolver the diff descends into the boundary's
// children like any other node.
package reconcile
