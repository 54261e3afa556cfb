package point

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
)

// parallelChunk is the minimum number of points handed to a single worker.
const parallelChunk = 4096

// Distance computes the Euclidean distance between two points in float64.
// Every index in this module uses it, so equal inputs give bit-identical
// distances regardless of the index kind.
func Distance(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Distances returns the distance from every point to query, in the same
// order. NaN and infinite values are returned as computed.
func Distances(points []Point, query Point) []float64 {
	out := make([]float64, len(points))
	for i := range points {
		out[i] = Distance(points[i], query)
	}
	return out
}

// ParallelDistances is Distances split across up to workers goroutines.
// Small inputs are computed inline.
func ParallelDistances(ctx context.Context, points []Point, query Point, workers int) ([]float64, error) {
	if workers <= 1 || len(points) < 2*parallelChunk {
		return Distances(points, query), nil
	}
	out := make([]float64, len(points))
	chunk := (len(points) + workers - 1) / workers
	if chunk < parallelChunk {
		chunk = parallelChunk
	}
	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(points); start += chunk {
		end := min(start+chunk, len(points))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				out[i] = Distance(points[i], query)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// IsFinite reports whether d is neither NaN nor infinite.
func IsFinite(d float64) bool {
	return !math.IsNaN(d) && !math.IsInf(d, 0)
}

// CheckFinite returns an *AnomalyError for the first non-finite distance;
// ids[i] names the point that produced distances[i].
func CheckFinite(ids []int, distances []float64) error {
	for i, d := range distances {
		if !IsFinite(d) {
			return &AnomalyError{ID: ids[i], Distance: d}
		}
	}
	return nil
}

// CheckCoordinates reports the first point with a non-finite coordinate.
func CheckCoordinates(points []Point) error {
	for _, p := range points {
		if !IsFinite(p.X) {
			return &AnomalyError{ID: p.ID, Distance: p.X}
		}
		if !IsFinite(p.Y) {
			return &AnomalyError{ID: p.ID, Distance: p.Y}
		}
	}
	return nil
}
