package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/nnview/point"
)

func TestClasses_Name(t *testing.T) {
	c := Classes(DefaultClasses)
	assert.Equal(t, "Non-Covid", c.Name(0))
	assert.Equal(t, "Covid", c.Name(1))
	assert.Equal(t, "class 4", c.Name(4))
	assert.Equal(t, "class -1", c.Name(-1))
}

func TestClasses_Legend(t *testing.T) {
	set, err := point.NewSet([]point.Point{{ID: 0, Label: 3}, {ID: 1, Label: 1}, {ID: 2, Label: 3}})
	require.NoError(t, err)
	assert.Equal(t, []LegendEntry{{Label: 1, Class: "Covid"}, {Label: 3, Class: "class 3"}}, Classes(DefaultClasses).Legend(set))
}

func TestBuildView(t *testing.T) {
	set, err := point.NewSet([]point.Point{
		{ID: 0, ImageRef: "q.png", Label: 1},
		{ID: 1, X: 1, ImageRef: "a.png"},
		{ID: 2, Y: 1, ImageRef: "b.png"},
	})
	require.NoError(t, err)
	result := point.Result{{ID: 1, Distance: 1}, {ID: 2, Distance: 1}}

	v, err := buildView(set, set.At(0), 2, result, DefaultClasses, "images", 1)
	require.NoError(t, err)
	assert.Equal(t, "Covid", v.Class)
	assert.Equal(t, "images/q.png", v.QueryImage)
	assert.Equal(t, 2, v.K)
	assert.Equal(t, []int{1, 2}, []int{v.Neighbors[0].ID, v.Neighbors[1].ID})
	assert.Equal(t, [][]string{{"images/a.png"}, {"images/b.png"}}, v.Gallery)
	assert.True(t, v.IsHighlighted(1))
	assert.False(t, v.IsHighlighted(0))

	_, err = buildView(set, set.At(0), 1, point.Result{{ID: 9}}, DefaultClasses, "", 5)
	assert.ErrorIs(t, err, point.ErrNotFound)

	var nilView *View
	assert.False(t, nilView.IsHighlighted(1))
}
