package point

// Bounds is the axis-aligned bounding box of a set of points. The zero
// value is empty.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
	n          int
}

// BoundsOf returns the bounding box of points.
func BoundsOf(points []Point) Bounds {
	var b Bounds
	for _, p := range points {
		b = b.Extend(p)
	}
	return b
}

// Extend returns b grown to contain p.
func (b Bounds) Extend(p Point) Bounds {
	if b.n == 0 {
		return Bounds{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y, n: 1}
	}
	b.MinX = min(b.MinX, p.X)
	b.MinY = min(b.MinY, p.Y)
	b.MaxX = max(b.MaxX, p.X)
	b.MaxY = max(b.MaxY, p.Y)
	b.n++
	return b
}

// Empty reports whether no point was added.
func (b Bounds) Empty() bool { return b.n == 0 }

// Diagonal is the length of the box diagonal. No distance between two
// points inside the box exceeds it, so a finite diagonal means no distance
// within the box overflows.
func (b Bounds) Diagonal() float64 {
	if b.n == 0 {
		return 0
	}
	return Distance(Point{X: b.MinX, Y: b.MinY}, Point{X: b.MaxX, Y: b.MaxY})
}

// CheckSpan reports an *AnomalyError when distances between points may
// overflow float64, which happens once the bounding-box diagonal is not
// finite. The error names the first point, in input order, whose distance to
// one of the extreme points is not finite.
func CheckSpan(points []Point) error {
	b := BoundsOf(points)
	diagonal := b.Diagonal()
	if IsFinite(diagonal) {
		return nil
	}
	var extremes []Point
	for _, p := range points {
		if p.X == b.MinX || p.X == b.MaxX || p.Y == b.MinY || p.Y == b.MaxY {
			extremes = append(extremes, p)
		}
	}
	for _, p := range points {
		for _, e := range extremes {
			if d := Distance(p, e); !IsFinite(d) {
				return &AnomalyError{ID: p.ID, Distance: d}
			}
		}
	}
	// Only the box overflows; the extreme points still name the cause.
	return &AnomalyError{ID: extremes[0].ID, Distance: diagonal}
}

// CheckReach reports the first point, in input order, whose distance to
// query is not finite. b must be the bounds of points; the scan is skipped
// when the box grown by query has a finite diagonal.
func CheckReach(points []Point, b Bounds, query Point) error {
	if IsFinite(b.Extend(query).Diagonal()) {
		return nil
	}
	for _, p := range points {
		if d := Distance(p, query); !IsFinite(d) {
			return &AnomalyError{ID: p.ID, Distance: d}
		}
	}
	return nil
}
