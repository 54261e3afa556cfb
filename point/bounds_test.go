package point

import (
	"errors"
	"math"
	"testing"
)

func TestBounds(t *testing.T) {
	var empty Bounds
	if !empty.Empty() || empty.Diagonal() != 0 {
		t.Fatalf("zero Bounds = %+v, want empty with zero diagonal", empty)
	}

	b := BoundsOf([]Point{{X: 1, Y: -1}, {X: -2, Y: 3}, {X: 0, Y: 0}})
	if b.MinX != -2 || b.MaxX != 1 || b.MinY != -1 || b.MaxY != 3 {
		t.Fatalf("BoundsOf = %+v, want [-2,1]x[-1,3]", b)
	}
	if d := b.Diagonal(); d != 5 {
		t.Fatalf("Diagonal = %v, want 5", d)
	}
}

func TestCheckSpan(t *testing.T) {
	if err := CheckSpan([]Point{{ID: 0}, {ID: 1, X: 1e150, Y: -1e150}}); err != nil {
		t.Fatalf("CheckSpan(finite) = %v, want nil", err)
	}
	if err := CheckSpan(nil); err != nil {
		t.Fatalf("CheckSpan(nil) = %v, want nil", err)
	}

	err := CheckSpan([]Point{{ID: 0}, {ID: 1, X: 1e154}, {ID: 2, X: -1e154}})
	var anomaly *AnomalyError
	if !errors.As(err, &anomaly) {
		t.Fatalf("CheckSpan(overflow) = %v, want *AnomalyError", err)
	}
	if anomaly.ID != 1 || !math.IsInf(anomaly.Distance, 1) {
		t.Fatalf("CheckSpan(overflow) = %+v, want id 1 at +Inf", anomaly)
	}
}

func TestCheckReach(t *testing.T) {
	points := []Point{{ID: 3}, {ID: 4, X: 1, Y: 1}}
	b := BoundsOf(points)
	if err := CheckReach(points, b, Point{X: 1e150}); err != nil {
		t.Fatalf("CheckReach(near) = %v, want nil", err)
	}
	err := CheckReach(points, b, Point{Y: -1e200})
	var anomaly *AnomalyError
	if !errors.As(err, &anomaly) || anomaly.ID != 3 {
		t.Fatalf("CheckReach(far) = %v, want anomaly for id 3", err)
	}
}
