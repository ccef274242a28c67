package geo

import (
	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
)

// Index is a bounding-box index of named rings.
type Index struct {
	tree rtree.RTreeG[string]
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{}
}

// Insert adds a named ring to the index. Degenerate rings are ignored.
func (i *Index) Insert(name string, p Polygon) {
	if !p.Valid() {
		return
	}

	b := p.Bound()
	i.tree.Insert(
		[2]float64{b.Min.X(), b.Min.Y()},
		[2]float64{b.Max.X(), b.Max.Y()},
		name,
	)
}

// Intersecting returns names of indexed rings whose bounds touch b.
func (i *Index) Intersecting(b orb.Bound) []string {
	result := make([]string, 0)
	i.tree.Search(
		[2]float64{b.Min.X(), b.Min.Y()},
		[2]float64{b.Max.X(), b.Max.Y()},
		func(min, max [2]float64, name string) bool {
			result = append(result, name)
			return true
		},
	)
	return result
}

// Len returns the number of indexed rings.
func (i *Index) Len() int {
	return i.tree.Len()
}
