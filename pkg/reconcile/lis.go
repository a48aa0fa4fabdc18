package reconcile

import "sort"

// longestIncreasing marks the positions of seq that form one longest
// strictly increasing subsequence. Negative entries never take part.
// Patience sorting, O(n log n).
func longestIncreasing(seq []int) []bool {
	in := make([]bool, len(seq))
	tails := make([]int, 0, len(seq)) // positions of the smallest tail per length
	prev := make([]int, len(seq))
	for i, v := range seq {
		if v < 0 {
			continue
		}
		j := sort.Search(len(tails), func(k int) bool { return seq[tails[k]] >= v })
		if j > 0 {
			prev[i] = tails[j-1]
		} else {
			prev[i] = -1
		}
		if j == len(tails) {
			tails = append(tails, i)
		} else {
			tails[j] = i
		}
	}
	if len(tails) == 0 {
		return in
	}
	for i := tails[len(tails)-1]; i >= 0; i = prev[i] {
		in[i] = true
	}
	return in
}

// fenwick counts present positions with O(log n) updates and prefix sums.
type fenwick struct {
	tree  []int
	total int
}

func newFenwick(n int) *fenwick {
	return &fenwick{tree: make([]int, n+1)}
}

func (f *fenwick) add(i, delta int) {
	f.total += delta
	for i++; i < len(f.tree); i += i & -i {
		f.tree[i] += delta
	}
}

// prefix returns the count of present positions below i.
func (f *fenwick) prefix(i int) int {
	sum := 0
	for ; i > 0; i -= i & -i {
		sum += f.tree[i]
	}
	return sum
}
