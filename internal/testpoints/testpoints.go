// Package testpoints generates deterministic point clouds for tests.
package testpoints

import (
	"math/rand/v2"

	"github.com/viant/nnview/point"
)

// Random returns n points uniformly spread over [-scale, scale)^2.
func Random(seed uint64, n int, scale float64) []point.Point {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]point.Point, n)
	for i := range out {
		out[i] = point.Point{
			ID:    i,
			X:     (r.Float64()*2 - 1) * scale,
			Y:     (r.Float64()*2 - 1) * scale,
			Label: r.IntN(3),
		}
	}
	return out
}

// Grid returns points on an integer side x side lattice, which produces
// many exactly tied distances.
func Grid(side int) []point.Point {
	out := make([]point.Point, 0, side*side)
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			out = append(out, point.Point{ID: len(out), X: float64(x), Y: float64(y)})
		}
	}
	return out
}

// WithDuplicates returns points plus copies of every step-th point under
// fresh ids, placed at the front so duplicates carry smaller ids too.
func WithDuplicates(points []point.Point, step int) []point.Point {
	var dups []point.Point
	for i := 0; i < len(points); i += step {
		dups = append(dups, points[i])
	}
	out := make([]point.Point, 0, len(points)+len(dups))
	for i, p := range dups {
		p.ID = i
		out = append(out, p)
	}
	for _, p := range points {
		p.ID += len(dups)
		out = append(out, p)
	}
	return out
}
