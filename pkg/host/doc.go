// Package host applies edit scripts to a retained host structure.
//
// The reconciler works on view trees, which contain virtual nodes
// (fragments, conditionals, lists, items, component boundaries) that have
// no host counterpart. The Applier keeps a mirror of the committed view
// tree keyed by ref, materializes only element and text nodes, and after
// each script tells the Host the flattened child list of every host
// parent the script touched.
package host
