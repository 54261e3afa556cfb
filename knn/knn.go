package knn

import (
	"fmt"

	"github.com/viant/nnview/index/bruteforce"
	"github.com/viant/nnview/point"
)

// ComputeDistances returns the Euclidean distance from every point to
// query, in input order. Non-finite values are returned unchanged.
func ComputeDistances(points []point.Point, query point.Point) []float64 {
	return point.Distances(points, query)
}

// NearestNeighbors ranks every point of set by distance to the query point,
// removes the query point by id and returns the first k entries.
//
// It fails with point.ErrNotFound for an unknown queryID,
// point.ErrInvalidArgument for k < 0 and point.ErrNumericAnomaly when a
// distance is NaN or infinite. k = 0 yields an empty result.
func NearestNeighbors(set *point.Set, queryID, k int) (point.Result, error) {
	return nearest(set, queryID, k, ExcludeByID)
}

// NearestNeighborsWithPolicy is NearestNeighbors with an explicit
// self-exclusion policy.
func NearestNeighborsWithPolicy(set *point.Set, queryID, k int, policy Policy) (point.Result, error) {
	return nearest(set, queryID, k, policy)
}

func nearest(set *point.Set, queryID, k int, policy Policy) (point.Result, error) {
	query, err := validate(set, queryID, k)
	if err != nil {
		return nil, err
	}
	if k == 0 {
		return point.Result{}, nil
	}
	idx := bruteforce.New()
	if err := idx.Build(set.Points()); err != nil {
		return nil, err
	}
	ranked, err := idx.Query(query, set.Len())
	if err != nil {
		return nil, err
	}
	return policy.apply(ranked, queryID, k), nil
}

func validate(set *point.Set, queryID, k int) (point.Point, error) {
	if k < 0 {
		return point.Point{}, fmt.Errorf("knn: k=%d: %w", k, point.ErrInvalidArgument)
	}
	query, ok := set.Lookup(queryID)
	if !ok {
		return point.Point{}, fmt.Errorf("knn: query id %d: %w", queryID, point.ErrNotFound)
	}
	return query, nil
}
