// Package topk keeps the best n neighbors seen so far, ordered by distance
// and ascending id.
package topk

import (
	"container/heap"
	"math"

	"github.com/viant/nnview/point"
)

// Neighbors implements heap.Interface with the worst neighbor on top
// (max-heap by distance, then id).
type Neighbors []point.Neighbor

func (h Neighbors) Len() int           { return len(h) }
func (h Neighbors) Less(i, j int) bool { return point.Less(h[j], h[i]) }
func (h Neighbors) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *Neighbors) Push(x interface{}) {
	*h = append(*h, x.(point.Neighbor))
}

func (h *Neighbors) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Heap is a bounded collector of the n best neighbors.
type Heap struct {
	n     int
	items Neighbors
}

// New returns a Heap holding at most n neighbors.
func New(n int) *Heap {
	if n < 0 {
		n = 0
	}
	return &Heap{n: n, items: make(Neighbors, 0, n)}
}

// Full reports whether the heap holds n neighbors.
func (h *Heap) Full() bool { return len(h.items) >= h.n }

// Len returns the number of collected neighbors.
func (h *Heap) Len() int { return len(h.items) }

// Offer adds cand if the heap is not full or cand ranks before the current
// worst. It reports whether cand was kept.
func (h *Heap) Offer(cand point.Neighbor) bool {
	if h.n == 0 {
		return false
	}
	if len(h.items) < h.n {
		heap.Push(&h.items, cand)
		return true
	}
	if !point.Less(cand, h.items[0]) {
		return false
	}
	h.items[0] = cand
	heap.Fix(&h.items, 0)
	return true
}

// Bound returns the distance a candidate must not exceed to be kept: the
// worst collected distance once full, +Inf before.
func (h *Heap) Bound() float64 {
	if h.n == 0 {
		return math.Inf(-1)
	}
	if !h.Full() {
		return math.Inf(1)
	}
	return h.items[0].Distance
}

// Sorted drains the heap into best-first order.
func (h *Heap) Sorted() []point.Neighbor {
	out := make([]point.Neighbor, len(h.items))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h.items).(point.Neighbor)
	}
	return out
}

// Slack widens a pruning bound so that rounding in triangle-inequality
// arithmetic never discards a candidate tied with the bound.
func Slack(bound float64) float64 {
	if math.IsInf(bound, 0) {
		return bound
	}
	return bound + 1e-9*(1+math.Abs(bound))
}
