package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLongestIncreasing(t *testing.T) {
	tests := []struct {
		seq  []int
		want []bool
	}{
		{nil, []bool{}},
		{[]int{0, 1, 2}, []bool{true, true, true}},
		{[]int{2, 0, 1}, []bool{false, true, true}},
		{[]int{1, 2, 0}, []bool{true, true, false}},
		{[]int{3, 2, 1, 0}, []bool{false, false, false, true}},
		{[]int{0, -1, 2, -1, 1}, []bool{true, false, false, false, true}},
		{[]int{-1, -1}, []bool{false, false}},
	}

	for _, tt := range tests {
		got := longestIncreasing(tt.seq)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("longestIncreasing(%v) mismatch (-want +got):\n%s", tt.seq, diff)
		}
	}
}

func TestFenwick(t *testing.T) {
	f := newFenwick(5)
	for i := 0; i < 5; i++ {
		f.add(i, 1)
	}
	f.add(1, -1)
	f.add(3, -1)

	if f.total != 3 {
		t.Errorf("total = %d, want 3", f.total)
	}
	for i, want := range []int{0, 1, 1, 2, 2, 3} {
		if got := f.prefix(i); got != want {
			t.Errorf("prefix(%d) = %d, want %d", i, got, want)
		}
	}
}
