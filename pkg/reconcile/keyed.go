package reconcile

import "github.com/vango-dev/quill/pkg/view"

// diffKeyed reconciles the items of a list by key.
//
// Removed items go first. The survivors keep their relative order, and a
// longest increasing subsequence of their old positions (in new order)
// stays put. Items are then placed right to left: each moved or inserted
// item goes directly before its right-hand neighbour. Until it moves, an
// item sits at its old position, so the index of the neighbour chain is
// the number of unplaced survivors before the nearest stable item to the
// right, which a Fenwick tree answers in O(log n).
func (r *Reconciler) diffKeyed(p *pass, old, next *view.Node) []*view.Node {
	if err := r.checkKeys(next.Children, old.Ref); err != nil {
		p.errs = append(p.errs, err)
		return old.Children
	}

	prev, curr := old.Children, next.Children
	oldIndex := make(map[string]int, len(prev))
	for i, item := range prev {
		oldIndex[item.Key] = i
	}

	// src maps a new position to its old index, or -1 for new items.
	src := make([]int, len(curr))
	kept := make([]bool, len(prev))
	for j, item := range curr {
		src[j] = -1
		if i, ok := oldIndex[item.Key]; ok && sameNode(prev[i], item) {
			src[j] = i
			kept[i] = true
		}
	}

	// pos is the position of an old item among the survivors.
	pos := make([]int, len(prev))
	survivors := 0
	for i, item := range prev {
		if !kept[i] {
			r.remove(p, item)
			pos[i] = -1
			continue
		}
		pos[i] = survivors
		survivors++
	}

	seq := make([]int, len(curr))
	for j, i := range src {
		seq[j] = -1
		if i >= 0 {
			seq[j] = pos[i]
		}
	}
	stable := longestIncreasing(seq)

	unplaced := newFenwick(survivors)
	for k := 0; k < survivors; k++ {
		unplaced.add(k, 1)
	}

	out := make([]*view.Node, len(curr))
	anchor := -1
	for j := len(curr) - 1; j >= 0; j-- {
		item := curr[j]
		if src[j] < 0 {
			committed, desc := r.materialize(p, item)
			p.insert(old.Ref, placement(unplaced, anchor), desc)
			out[j] = committed
			continue
		}
		prevItem := prev[src[j]]
		unplaced.add(seq[j], -1)
		if stable[j] {
			anchor = seq[j]
		} else {
			p.script = append(p.script, Edit{
				Op:     OpMove,
				Ref:    prevItem.Ref,
				Parent: old.Ref,
				Index:  placement(unplaced, anchor),
			})
		}
		out[j] = r.diff(p, prevItem, item, old.Ref, j)
	}
	return out
}

// placement returns the index directly before the chain that ends at the
// stable survivor anchor, or the end of the list when there is none.
func placement(unplaced *fenwick, anchor int) int {
	if anchor < 0 {
		return unplaced.total
	}
	return unplaced.prefix(anchor)
}
