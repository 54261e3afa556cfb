package point

import (
	"fmt"
)

// Point is a labeled 2D point loaded once per dataset. ID is a stable,
// 0-based index into the dataset; ImageRef is an opaque asset identifier.
type Point struct {
	ID       int
	X        float64
	Y        float64
	Label    int
	ImageRef string
}

// Set is an ordered, read-only collection of points. Order follows the
// source dataset and governs nothing but position.
type Set struct {
	points []Point
	byID   map[int]int
}

// NewSet validates points and builds an id lookup. Ids must be unique and
// non-negative; labels must be non-negative.
func NewSet(points []Point) (*Set, error) {
	byID := make(map[int]int, len(points))
	for pos, p := range points {
		if p.ID < 0 {
			return nil, fmt.Errorf("point: negative id %d at position %d: %w", p.ID, pos, ErrInvalidArgument)
		}
		if p.Label < 0 {
			return nil, fmt.Errorf("point: negative label %d for id %d: %w", p.Label, p.ID, ErrInvalidArgument)
		}
		if prev, ok := byID[p.ID]; ok {
			return nil, fmt.Errorf("point: duplicate id %d at positions %d and %d: %w", p.ID, prev, pos, ErrInvalidArgument)
		}
		byID[p.ID] = pos
	}
	return &Set{points: append([]Point(nil), points...), byID: byID}, nil
}

// Len returns the number of points.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.points)
}

// Points returns the underlying points. Callers must not modify the slice.
func (s *Set) Points() []Point {
	if s == nil {
		return nil
	}
	return s.points
}

// At returns the point at position i.
func (s *Set) At(i int) Point { return s.points[i] }

// Lookup returns the point with the given id.
func (s *Set) Lookup(id int) (Point, bool) {
	if s == nil {
		return Point{}, false
	}
	pos, ok := s.byID[id]
	if !ok {
		return Point{}, false
	}
	return s.points[pos], true
}

// Get is like Lookup but reports a missing id as ErrNotFound.
func (s *Set) Get(id int) (Point, error) {
	p, ok := s.Lookup(id)
	if !ok {
		return Point{}, fmt.Errorf("point: id %d: %w", id, ErrNotFound)
	}
	return p, nil
}

// Neighbor pairs a point id with its distance to a query.
type Neighbor struct {
	ID       int
	Distance float64
}

// Less orders neighbors by distance, then by ascending id.
func Less(a, b Neighbor) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.ID < b.ID
}

// Compare is the three-way form of Less, suitable for slices.SortFunc.
func Compare(a, b Neighbor) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	default:
		return 0
	}
}

// Result is an ordered neighbor list for a single query.
type Result []Neighbor

// IDs returns the neighbor ids in rank order.
func (r Result) IDs() []int {
	ids := make([]int, len(r))
	for i, n := range r {
		ids[i] = n.ID
	}
	return ids
}
