package topk

import (
	"math"
	"testing"

	"github.com/viant/nnview/point"
)

func TestHeap(t *testing.T) {
	h := New(3)
	if !math.IsInf(h.Bound(), 1) {
		t.Fatalf("expected +Inf bound before full, got %v", h.Bound())
	}
	for _, n := range []point.Neighbor{{ID: 4, Distance: 2}, {ID: 1, Distance: 5}, {ID: 3, Distance: 1}, {ID: 2, Distance: 2}, {ID: 0, Distance: 9}} {
		h.Offer(n)
	}
	if !h.Full() || h.Len() != 3 {
		t.Fatalf("expected full heap of 3, got %d", h.Len())
	}
	if h.Bound() != 2 {
		t.Fatalf("expected bound 2, got %v", h.Bound())
	}
	if h.Offer(point.Neighbor{ID: 9, Distance: 2}) {
		t.Fatalf("tie with a larger id must not displace the worst entry")
	}
	if !h.Offer(point.Neighbor{ID: 0, Distance: 2}) {
		t.Fatalf("tie with a smaller id must displace the worst entry")
	}
	got := h.Sorted()
	want := []point.Neighbor{{ID: 3, Distance: 1}, {ID: 0, Distance: 2}, {ID: 2, Distance: 2}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rank %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestHeapZero(t *testing.T) {
	h := New(0)
	if h.Offer(point.Neighbor{ID: 1}) {
		t.Fatalf("zero-capacity heap must reject candidates")
	}
	if !math.IsInf(h.Bound(), -1) {
		t.Fatalf("expected -Inf bound, got %v", h.Bound())
	}
	if len(h.Sorted()) != 0 {
		t.Fatalf("expected empty result")
	}
}

func TestSlack(t *testing.T) {
	if Slack(1) <= 1 {
		t.Fatalf("slack must widen the bound")
	}
	if !math.IsInf(Slack(math.Inf(1)), 1) {
		t.Fatalf("infinite bound must stay infinite")
	}
	if Slack(1e6)-1e6 < 5e-4 {
		t.Fatalf("slack must scale with the bound")
	}
}
