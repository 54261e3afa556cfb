package tree

// This implementation is adapted from github.com/viant/gds/tree/cover.

import (
	"container/heap"
	"fmt"
	"math"
	"slices"

	"github.com/viant/nnview/internal/topk"
	"github.com/viant/nnview/point"
)

// DefaultBase is the level expansion factor used when none is given.
const DefaultBase = 1.3

// Tree represents a cover tree for exact Euclidean kNN queries. It is
// filled with Insert, sealed with Finalize, and read-only afterwards, so
// concurrent searches need no locking.
type Tree struct {
	root  *Node
	base  float64
	size  int
	final bool
}

// NewTree constructs a cover tree with the provided base.
func NewTree(base float64) *Tree {
	if base <= 1 {
		base = DefaultBase
	}
	return &Tree{base: base}
}

// Len returns the number of inserted points.
func (t *Tree) Len() int { return t.size }

// Insert adds a point to the tree. It must not be called after Finalize.
func (t *Tree) Insert(p point.Point) error {
	if t.final {
		return fmt.Errorf("cover: insert into finalized tree")
	}
	if t.root == nil {
		node := NewNode(p, 0, t.base)
		t.root = &node
		t.size++
		return nil
	}
	d := point.Distance(p, t.root.point)
	if !point.IsFinite(d) {
		return &point.AnomalyError{ID: p.ID, Distance: d}
	}
	for d >= t.root.baseLevel {
		t.root.level++
		t.root.baseLevel = math.Pow(t.base, float64(t.root.level))
	}
	t.insert(t.root, p)
	t.size++
	return nil
}

// insert descends from a node that covers p to the deepest covering child
// and attaches p one level below it.
func (t *Tree) insert(node *Node, p point.Point) {
	for {
		var next *Node
		for i := range node.children {
			child := &node.children[i]
			if point.Distance(p, child.point) < child.baseLevel {
				next = child
				break
			}
		}
		if next == nil {
			node.children = append(node.children, NewNode(p, node.level-1, t.base))
			return
		}
		node = next
	}
}

// Finalize computes per-node subtree radii and seals the tree.
func (t *Tree) Finalize() {
	if t.root != nil {
		t.ensureRadius(t.root)
	}
	t.final = true
}

func (t *Tree) ensureRadius(n *Node) float64 {
	maxR := 0.0
	for i := range n.children {
		child := &n.children[i]
		cr := t.ensureRadius(child)
		if d := point.Distance(n.point, child.point) + cr; d > maxR {
			maxR = d
		}
	}
	n.radius = maxR
	return maxR
}

// KNearestNeighbors runs a depth-first kNN search, visiting closer children
// first.
func (t *Tree) KNearestNeighbors(q point.Point, k int) []point.Neighbor {
	if t.root == nil || k <= 0 {
		return nil
	}
	h := topk.New(k)
	t.kNearestNeighbors(t.root, point.Distance(q, t.root.point), q, h)
	return h.Sorted()
}

type childDist struct {
	child *Node
	dist  float64
}

func (t *Tree) kNearestNeighbors(node *Node, dc float64, q point.Point, h *topk.Heap) {
	h.Offer(point.Neighbor{ID: node.point.ID, Distance: dc})
	if len(node.children) == 0 {
		return
	}
	cds := make([]childDist, 0, len(node.children))
	for i := range node.children {
		child := &node.children[i]
		cds = append(cds, childDist{child: child, dist: point.Distance(q, child.point)})
	}
	slices.SortFunc(cds, func(a, b childDist) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		}
		return 0
	})
	for _, cd := range cds {
		if h.Full() && cd.dist-cd.child.radius > topk.Slack(h.Bound()) {
			continue
		}
		t.kNearestNeighbors(cd.child, cd.dist, q, h)
	}
}

// KNearestNeighborsBestFirst performs a best-first search with a node
// priority queue ordered by lower bound.
func (t *Tree) KNearestNeighborsBestFirst(q point.Point, k int) []point.Neighbor {
	if t.root == nil || k <= 0 {
		return nil
	}
	nh := topk.New(k)
	pq := &nodeQueue{}
	heap.Init(pq)
	rootDist := point.Distance(q, t.root.point)
	heap.Push(pq, nodeItem{node: t.root, lb: rootDist - t.root.radius, centerDist: rootDist})

	for pq.Len() > 0 {
		top := heap.Pop(pq).(nodeItem)
		if nh.Full() && top.lb > topk.Slack(nh.Bound()) {
			break
		}
		nh.Offer(point.Neighbor{ID: top.node.point.ID, Distance: top.centerDist})
		for i := range top.node.children {
			child := &top.node.children[i]
			cd := point.Distance(q, child.point)
			lb := cd - child.radius
			if nh.Full() && lb > topk.Slack(nh.Bound()) {
				continue
			}
			heap.Push(pq, nodeItem{node: child, lb: lb, centerDist: cd})
		}
	}
	return nh.Sorted()
}

type nodeItem struct {
	node       *Node
	lb         float64
	centerDist float64
}

type nodeQueue []nodeItem

func (q nodeQueue) Len() int            { return len(q) }
func (q nodeQueue) Less(i, j int) bool  { return q[i].lb < q[j].lb }
func (q nodeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x interface{}) { *q = append(*q, x.(nodeItem)) }
func (q *nodeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}
