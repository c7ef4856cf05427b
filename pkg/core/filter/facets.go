package filter

import (
	"math"
	"strconv"

	"github.com/sanonone/lawgraph/pkg/model"
	"github.com/tidwall/btree"
)

// FacetValues lists the distinct values available for each facet.
type FacetValues struct {
	Chapters []string `json:"chapters"`
	Titles   []string `json:"titles"`
}

// Facets collects the distinct chapter and title values of nodes.
// Numeric chapters come first in numeric order, followed by the rest in
// lexicographic order; titles are ordered lexicographically.
// Empty values are skipped.
func Facets(nodes []model.Node) FacetValues {
	chapters := btree.NewBTreeG[string](lessChapter)
	titles := btree.NewBTreeG[string](lessString)
	for i := range nodes {
		if c := nodes[i].ChapterNumber; c != "" {
			chapters.Set(c)
		}
		if t := nodes[i].TitleLabel; t != "" {
			titles.Set(t)
		}
	}
	return FacetValues{Chapters: collect(chapters), Titles: collect(titles)}
}

func collect(tr *btree.BTreeG[string]) []string {
	out := make([]string, 0, tr.Len())
	tr.Scan(func(v string) bool {
		out = append(out, v)
		return true
	})
	return out
}

func lessString(a, b string) bool {
	return a < b
}

// lessChapter orders "2" before "10". Non-numeric chapters sort after all
// numeric ones, lexicographically among themselves.
func lessChapter(a, b string) bool {
	fa, numA := chapterNumber(a)
	fb, numB := chapterNumber(b)
	switch {
	case numA && numB:
		if fa != fb {
			return fa < fb
		}
		return a < b
	case numA:
		return true
	case numB:
		return false
	default:
		return a < b
	}
}

// chapterNumber parses a chapter as a finite number. "NaN" and "Inf" are
// text: NaN is unordered and would break the btree ordering.
func chapterNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func sortedKeys(set map[string]struct{}, less func(a, b string) bool) []string {
	tr := btree.NewBTreeG[string](less)
	for k := range set {
		tr.Set(k)
	}
	return collect(tr)
}
