package bruteforce

import (
	"context"
	"slices"

	"github.com/viant/nnview/internal/topk"
	"github.com/viant/nnview/point"
)

// Index is a brute-force index. By default it sorts every candidate
// (O(M log M)); with WithPartialSelection it keeps a bounded max-heap
// (O(M log n)) and produces the same output.
type Index struct {
	points  []point.Point
	ids     []int
	partial bool
	workers int
}

// Option configures an Index.
type Option func(*Index)

// WithPartialSelection switches ranking to a bounded heap.
func WithPartialSelection() Option {
	return func(i *Index) { i.partial = true }
}

// WithWorkers spreads distance computation of large sets over up to n
// goroutines.
func WithWorkers(n int) Option {
	return func(i *Index) { i.workers = n }
}

// New creates a brute-force index.
func New(opts ...Option) *Index {
	i := &Index{}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Build stores the points. Non-finite coordinates are accepted and reported
// when a query meets them.
func (i *Index) Build(points []point.Point) error {
	i.points = points
	i.ids = make([]int, len(points))
	for j, p := range points {
		i.ids[j] = p.ID
	}
	return nil
}

// Query scores every point against query and returns the top n.
func (i *Index) Query(query point.Point, n int) ([]point.Neighbor, error) {
	if len(i.points) > 0 {
		if err := point.CheckCoordinates([]point.Point{query}); err != nil {
			return nil, err
		}
	}
	distances, err := point.ParallelDistances(context.Background(), i.points, query, i.workers)
	if err != nil {
		return nil, err
	}
	if err := point.CheckFinite(i.ids, distances); err != nil {
		return nil, err
	}
	if n <= 0 || len(i.points) == 0 {
		return nil, nil
	}
	if i.partial {
		return i.selectTop(distances, n), nil
	}
	return i.sortTop(distances, n), nil
}

func (i *Index) sortTop(distances []float64, n int) []point.Neighbor {
	scored := make([]point.Neighbor, len(distances))
	for j, d := range distances {
		scored[j] = point.Neighbor{ID: i.ids[j], Distance: d}
	}
	slices.SortFunc(scored, point.Compare)
	if n > len(scored) {
		n = len(scored)
	}
	return scored[:n:n]
}

func (i *Index) selectTop(distances []float64, n int) []point.Neighbor {
	h := topk.New(min(n, len(distances)))
	for j, d := range distances {
		h.Offer(point.Neighbor{ID: i.ids[j], Distance: d})
	}
	return h.Sorted()
}
