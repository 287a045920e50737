package profile

import (
	"math"
	"slices"

	"github.com/rohmanhakim/result-finder/internal/dom"
	"github.com/rohmanhakim/result-finder/internal/layout"
	"gonum.org/v1/gonum/floats"
)

// Histogram counts the descendants of a node by their path relative to it,
// e.g. "./div/a" -> 2.
type Histogram map[string]float64

// Structure returns the descendant histogram of id.
func Structure(doc *dom.Document, id dom.NodeID) Histogram {
	h := make(Histogram)
	for _, d := range doc.Descendants(id) {
		h[doc.RelativeName(id, d)]++
	}
	return h
}

// Combine sums histograms pointwise.
func Combine(hs []Histogram) Histogram {
	out := make(Histogram)
	for _, h := range hs {
		for k, v := range h {
			out[k] += v
		}
	}
	return out
}

// Cosine returns dot(a,b) / (|a|*|b|), or 0 when either norm is 0.
func Cosine(a, b Histogram) float64 {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	va := make([]float64, len(keys))
	vb := make([]float64, len(keys))
	for i, k := range keys {
		va[i] = a[k]
		vb[i] = b[k]
	}

	na := floats.Norm(va, 2)
	nb := floats.Norm(vb, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(va, vb) / (na * nb)
}

type Similarity struct {
	Min float64
	Avg float64
}

// CompareToCombined scores every histogram against the sum of all of them,
// each one's own contribution included.
func CompareToCombined(hs []Histogram) Similarity {
	if len(hs) == 0 {
		return Similarity{}
	}
	combined := Combine(hs)

	lowest := math.Inf(1)
	sum := 0.0
	for _, h := range hs {
		sim := Cosine(h, combined)
		sum += sim
		if sim < lowest {
			lowest = sim
		}
	}
	return Similarity{Min: lowest, Avg: sum / float64(len(hs))}
}

// Grid is a rows x columns layout estimate.
type Grid struct {
	Rows    int
	Columns int
}

func (g Grid) IsGrid() bool {
	return g.Rows > 1 && g.Columns > 1
}

/*
EstimateGrid guesses the grid shape of a set of boxes.

For each axis the boxes are grouped by coordinate, and the group sizes are
counted. The most frequent group size is the estimate: boxes sharing a top
coordinate form a row, so the usual size of a top group is the column
count; boxes sharing a left coordinate form a column, so the usual size of
a left group is the row count. Group sizes are examined in ascending order
and a tie keeps the smaller size.
*/
func EstimateGrid(boxes []layout.Box) Grid {
	tops := make([]float64, len(boxes))
	lefts := make([]float64, len(boxes))
	for i, b := range boxes {
		tops[i] = b.Top
		lefts[i] = b.Left
	}
	return Grid{
		Rows:    modeRepetition(lefts),
		Columns: modeRepetition(tops),
	}
}

func modeRepetition(coords []float64) int {
	perCoord := make(map[float64]int)
	for _, c := range coords {
		perCoord[c]++
	}
	frequency := make(map[int]int)
	for _, n := range perCoord {
		frequency[n]++
	}

	sizes := make([]int, 0, len(frequency))
	for size := range frequency {
		sizes = append(sizes, size)
	}
	slices.Sort(sizes)

	best, bestFreq := 0, 0
	for _, size := range sizes {
		if frequency[size] > bestFreq {
			best, bestFreq = size, frequency[size]
		}
	}
	return best
}

// InvisibleRatio is the share of nodes the provider reports as hidden.
func InvisibleRatio(lp layout.Provider, nodes []dom.NodeID) float64 {
	if len(nodes) == 0 {
		return 0
	}
	hidden := 0
	for _, n := range nodes {
		if !lp.IsVisible(n) {
			hidden++
		}
	}
	return float64(hidden) / float64(len(nodes))
}
