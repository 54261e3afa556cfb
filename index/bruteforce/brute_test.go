package bruteforce

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/nnview/internal/testpoints"
	"github.com/viant/nnview/point"
)

func TestIndex_Query(t *testing.T) {
	points := []point.Point{{ID: 0, X: 0, Y: 0}, {ID: 1, X: 1, Y: 0}, {ID: 2, X: 0, Y: 1}, {ID: 3, X: 5, Y: 5}}

	for _, tc := range []struct {
		name string
		idx  *Index
	}{
		{"Sort", New()},
		{"Partial", New(WithPartialSelection())},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, tc.idx.Build(points))

			got, err := tc.idx.Query(points[0], 3)
			require.NoError(t, err)
			assert.Equal(t, []point.Neighbor{{ID: 0, Distance: 0}, {ID: 1, Distance: 1}, {ID: 2, Distance: 1}}, got)

			got, err = tc.idx.Query(point.Point{X: 5, Y: 4}, 10)
			require.NoError(t, err)
			require.Len(t, got, 4)
			assert.Equal(t, 3, got[0].ID)
			assert.Equal(t, 1.0, got[0].Distance)

			got, err = tc.idx.Query(points[0], 0)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestIndex_Empty(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Build(nil))
	got, err := idx.Query(point.Point{}, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIndex_NumericAnomaly(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Build([]point.Point{{ID: 0}, {ID: 5, X: math.NaN()}}))

	_, err := idx.Query(point.Point{}, 1)
	require.ErrorIs(t, err, point.ErrNumericAnomaly)
	var anomaly *point.AnomalyError
	require.ErrorAs(t, err, &anomaly)
	assert.Equal(t, 5, anomaly.ID)

	// a non-finite query names itself, not the first point scanned
	points := []point.Point{{ID: 0}, {ID: 5, X: 1, Y: 1}, {ID: 7, X: math.NaN()}}
	require.NoError(t, idx.Build(points))
	_, err = idx.Query(points[2], 1)
	require.ErrorAs(t, err, &anomaly)
	assert.Equal(t, 7, anomaly.ID)

	// overflow of finite coordinates is reported as well
	require.NoError(t, idx.Build([]point.Point{{ID: 0}, {ID: 1, X: 1e300, Y: 1e300}}))
	_, err = idx.Query(point.Point{X: -1e300}, 1)
	assert.ErrorIs(t, err, point.ErrNumericAnomaly)
}

func TestIndex_PartialMatchesSort(t *testing.T) {
	points := testpoints.WithDuplicates(testpoints.Grid(12), 5)
	full, partial := New(), New(WithPartialSelection())
	require.NoError(t, full.Build(points))
	require.NoError(t, partial.Build(points))

	for _, q := range points[:40] {
		for _, n := range []int{1, 4, 9, 50, len(points) + 3} {
			want, err := full.Query(q, n)
			require.NoError(t, err)
			got, err := partial.Query(q, n)
			require.NoError(t, err)
			require.Equal(t, want, got, "query %d n=%d", q.ID, n)
		}
	}
}

func TestIndex_ParallelMatchesSerial(t *testing.T) {
	points := testpoints.Random(5, 20000, 100)
	serial, parallel := New(), New(WithWorkers(4), WithPartialSelection())
	require.NoError(t, serial.Build(points))
	require.NoError(t, parallel.Build(points))

	for _, q := range []int{0, 777, 19999} {
		want, err := serial.Query(points[q], 25)
		require.NoError(t, err)
		got, err := parallel.Query(points[q], 25)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
