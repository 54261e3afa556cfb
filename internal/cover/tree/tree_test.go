package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/nnview/internal/testpoints"
	"github.com/viant/nnview/point"
)

// checkCover walks the tree and verifies that every descendant lies within
// the radius cached on each ancestor.
func checkCover(t *testing.T, n *Node) []point.Point {
	t.Helper()
	all := []point.Point{n.point}
	for i := range n.children {
		all = append(all, checkCover(t, &n.children[i])...)
	}
	for _, p := range all {
		assert.LessOrEqual(t, point.Distance(n.point, p), n.radius*(1+1e-12)+1e-12)
	}
	return all
}

func TestTree_InsertFinalize(t *testing.T) {
	tr := NewTree(0)
	points := testpoints.WithDuplicates(testpoints.Random(5, 300, 50), 7)
	for _, p := range points {
		require.NoError(t, tr.Insert(p))
	}
	tr.Finalize()
	assert.Equal(t, len(points), tr.Len())
	assert.Len(t, checkCover(t, tr.root), len(points))

	assert.Error(t, tr.Insert(point.Point{ID: 10000}))
}

func TestTree_InsertOverflow(t *testing.T) {
	tr := NewTree(2)
	require.NoError(t, tr.Insert(point.Point{ID: 0, X: -1e300, Y: -1e300}))
	err := tr.Insert(point.Point{ID: 1, X: 1e300, Y: 1e300})
	assert.ErrorIs(t, err, point.ErrNumericAnomaly)
}

func TestTree_SearchStrategiesAgree(t *testing.T) {
	tr := NewTree(1.5)
	points := testpoints.Grid(8)
	for _, p := range points {
		require.NoError(t, tr.Insert(p))
	}
	tr.Finalize()

	q := point.Point{X: 3, Y: 3}
	df := tr.KNearestNeighbors(q, 9)
	bf := tr.KNearestNeighborsBestFirst(q, 9)
	assert.Equal(t, df, bf)
	require.Len(t, df, 9)
	assert.Equal(t, point.Neighbor{ID: 27, Distance: 0}, df[0])
	assert.Equal(t, []int{19, 26, 28, 35}, point.Result(df[1:5]).IDs())

	assert.Nil(t, tr.KNearestNeighbors(q, 0))
}
