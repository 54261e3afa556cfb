package index

import "github.com/viant/nnview/point"

// Index defines an exact 2D nearest-neighbor index over a fixed point set.
type Index interface {
	// Build constructs the index from points. The index keeps its own copy of
	// the slice header; points must not be modified afterwards.
	Build(points []point.Point) error

	// Query returns the n points closest to query, ordered by ascending
	// distance and then ascending id. A point sharing the query location
	// (including the query point itself) is part of the answer. n larger
	// than the set is capped; n <= 0 yields no neighbors.
	Query(query point.Point, n int) ([]point.Neighbor, error)
}
