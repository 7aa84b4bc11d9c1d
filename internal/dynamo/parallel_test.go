package dynamo

import (
	"sync/atomic"
	"testing"
)

func TestParallelForCoversRangeOnce(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		hits := make([]int32, n)
		ParallelFor(n, 8, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, h)
			}
		}
	}
}

func TestParallelForSmallRangeInline(t *testing.T) {
	calls := 0
	ParallelFor(5, 10, func(start, end int) {
		calls++
		if start != 0 || end != 5 {
			t.Fatalf("got chunk [%d, %d)", start, end)
		}
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
