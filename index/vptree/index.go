package vptree

import (
	"slices"

	"github.com/viant/nnview/internal/topk"
	"github.com/viant/nnview/point"
)

// Index implements an exact Euclidean kNN index using a VP-tree to prune
// search.
type Index struct {
	points []point.Point
	bounds point.Bounds
	root   *node
}

type node struct {
	idx   int // index into points
	thr   float64
	left  *node
	right *node
}

// New creates an unbuilt VP-tree index.
func New() *Index { return &Index{} }

// Build constructs the VP-tree. Points with non-finite coordinates, or
// spread so far apart that their distances overflow, are rejected with
// point.ErrNumericAnomaly.
func (i *Index) Build(points []point.Point) error {
	if err := point.CheckCoordinates(points); err != nil {
		return err
	}
	if err := point.CheckSpan(points); err != nil {
		return err
	}
	i.points = points
	i.bounds = point.BoundsOf(points)
	idxs := make([]int, len(points))
	for k := range idxs {
		idxs[k] = k
	}
	i.root = i.buildVP(idxs)
	return nil
}

func (i *Index) buildVP(idxs []int) *node {
	if len(idxs) == 0 {
		return nil
	}
	// pick last as vantage point to avoid extra randomness
	vp := idxs[len(idxs)-1]
	idxs = idxs[:len(idxs)-1]
	if len(idxs) == 0 {
		return &node{idx: vp}
	}
	type ranked struct {
		idx  int
		dist float64
	}
	order := make([]ranked, len(idxs))
	for k, j := range idxs {
		order[k] = ranked{idx: j, dist: point.Distance(i.points[vp], i.points[j])}
	}
	slices.SortFunc(order, func(a, b ranked) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		}
		return 0
	})
	mid := len(order) / 2
	thr := order[mid].dist
	leftIdxs := make([]int, 0, mid+1)
	rightIdxs := make([]int, 0, len(order)-(mid+1))
	for rank, r := range order {
		if rank <= mid {
			leftIdxs = append(leftIdxs, r.idx)
		} else {
			rightIdxs = append(rightIdxs, r.idx)
		}
	}
	return &node{
		idx:   vp,
		thr:   thr,
		left:  i.buildVP(leftIdxs),
		right: i.buildVP(rightIdxs),
	}
}

// Query returns up to n neighbors ordered by distance, then id.
func (i *Index) Query(query point.Point, n int) ([]point.Neighbor, error) {
	if i.root == nil || n <= 0 {
		return nil, nil
	}
	if err := point.CheckCoordinates([]point.Point{query}); err != nil {
		return nil, err
	}
	if err := point.CheckReach(i.points, i.bounds, query); err != nil {
		return nil, err
	}
	h := topk.New(n)
	i.search(i.root, query, h)
	return h.Sorted(), nil
}

// search prunes using the triangle inequality: the left subtree holds
// points within thr of the vantage point, the right subtree points at or
// beyond it.
func (i *Index) search(n *node, q point.Point, h *topk.Heap) {
	if n == nil {
		return
	}
	vp := i.points[n.idx]
	d := point.Distance(q, vp)
	h.Offer(point.Neighbor{ID: vp.ID, Distance: d})
	if d < n.thr {
		if d-topk.Slack(h.Bound()) <= n.thr {
			i.search(n.left, q, h)
		}
		if d+topk.Slack(h.Bound()) >= n.thr {
			i.search(n.right, q, h)
		}
		return
	}
	if d+topk.Slack(h.Bound()) >= n.thr {
		i.search(n.right, q, h)
	}
	if d-topk.Slack(h.Bound()) <= n.thr {
		i.search(n.left, q, h)
	}
}
