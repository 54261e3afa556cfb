package session

import (
	"fmt"
	"path"
	"slices"

	"github.com/viant/nnview/point"
)

// DefaultClasses are the class names of the chest X-ray embedding set.
var DefaultClasses = []string{"Non-Covid", "Covid"}

// View is everything a view layer needs to draw one selection.
type View struct {
	Query      point.Point
	Class      string
	QueryImage string
	K          int
	Result     point.Result
	// Neighbors are the points of Result, in rank order.
	Neighbors   []point.Point
	Highlighted map[int]bool
	Gallery     [][]string
}

// IsHighlighted reports whether the marker of id should be restyled.
func (v *View) IsHighlighted(id int) bool {
	return v != nil && v.Highlighted[id]
}

// LegendEntry maps a label to its class name.
type LegendEntry struct {
	Label int
	Class string
}

// Classes resolves labels to display names.
type Classes []string

// Name returns the class name of label, or "class <label>" when no name
// is configured for it.
func (c Classes) Name(label int) string {
	if label >= 0 && label < len(c) {
		return c[label]
	}
	return fmt.Sprintf("class %d", label)
}

// Legend lists the labels present in set, ascending.
func (c Classes) Legend(set *point.Set) []LegendEntry {
	var labels []int
	for _, p := range set.Points() {
		if !slices.Contains(labels, p.Label) {
			labels = append(labels, p.Label)
		}
	}
	slices.Sort(labels)
	out := make([]LegendEntry, len(labels))
	for i, label := range labels {
		out[i] = LegendEntry{Label: label, Class: c.Name(label)}
	}
	return out
}

func buildView(set *point.Set, query point.Point, k int, result point.Result, classes Classes, imageDir string, width int) (View, error) {
	v := View{
		Query:       query,
		Class:       classes.Name(query.Label),
		QueryImage:  imagePath(imageDir, query.ImageRef),
		K:           k,
		Result:      result,
		Neighbors:   make([]point.Point, 0, len(result)),
		Highlighted: make(map[int]bool, len(result)),
	}
	refs := make([]string, 0, len(result))
	for _, n := range result {
		p, err := set.Get(n.ID)
		if err != nil {
			return View{}, fmt.Errorf("session: neighbor %d: %w", n.ID, err)
		}
		v.Neighbors = append(v.Neighbors, p)
		v.Highlighted[p.ID] = true
		refs = append(refs, imagePath(imageDir, p.ImageRef))
	}
	v.Gallery = GalleryRows(refs, width)
	return v, nil
}

func imagePath(dir, ref string) string {
	if dir == "" || ref == "" {
		return ref
	}
	return path.Join(dir, ref)
}
