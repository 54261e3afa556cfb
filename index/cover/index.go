package cover

import (
	"github.com/viant/nnview/internal/cover/tree"
	"github.com/viant/nnview/point"
)

// SearchStrategy selects how the tree is traversed.
type SearchStrategy int

const (
	// DepthFirst descends into closer children first.
	DepthFirst SearchStrategy = iota
	// BestFirst expands nodes in order of their distance lower bound.
	BestFirst
)

// Index implements an exact Euclidean kNN index on a cover tree.
type Index struct {
	base     float64
	strategy SearchStrategy
	points   []point.Point
	bounds   point.Bounds
	tree     *tree.Tree
}

// Option configures an Index.
type Option func(*Index)

// WithBase sets the cover-tree level base; values <= 1 use the default.
func WithBase(base float64) Option {
	return func(i *Index) { i.base = base }
}

// WithSearch selects the traversal strategy.
func WithSearch(s SearchStrategy) Option {
	return func(i *Index) { i.strategy = s }
}

// New creates an unbuilt cover index.
func New(opts ...Option) *Index {
	i := &Index{base: tree.DefaultBase}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Build constructs the tree. Points with non-finite coordinates, or spread
// so far apart that their distances overflow, are rejected with
// point.ErrNumericAnomaly.
func (i *Index) Build(points []point.Point) error {
	if err := point.CheckCoordinates(points); err != nil {
		return err
	}
	if err := point.CheckSpan(points); err != nil {
		return err
	}
	t := tree.NewTree(i.base)
	for _, p := range points {
		if err := t.Insert(p); err != nil {
			return err
		}
	}
	t.Finalize()
	i.points = points
	i.bounds = point.BoundsOf(points)
	i.tree = t
	return nil
}

// Query returns up to n neighbors ordered by distance, then id.
func (i *Index) Query(query point.Point, n int) ([]point.Neighbor, error) {
	if i.tree == nil || n <= 0 {
		return nil, nil
	}
	if err := point.CheckCoordinates([]point.Point{query}); err != nil {
		return nil, err
	}
	if err := point.CheckReach(i.points, i.bounds, query); err != nil {
		return nil, err
	}
	if i.strategy == BestFirst {
		return i.tree.KNearestNeighborsBestFirst(query, n), nil
	}
	return i.tree.KNearestNeighbors(query, n), nil
}
