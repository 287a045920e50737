package wrapper

import (
	"fmt"
	"slices"

	"github.com/rohmanhakim/result-finder/internal/dom"
	"github.com/rohmanhakim/result-finder/internal/layout"
	"github.com/rohmanhakim/result-finder/internal/profile"
	"github.com/rohmanhakim/result-finder/internal/query"
	"github.com/rohmanhakim/result-finder/pkg/failure"
)

/*
Wrapper is a selector bound to the nodes it selects, together with the
metrics the finder ranks it by.

  - boxes of invisible nodes are empty and add no area
  - the grid estimate and the similarity profile are computed once
  - the canonical selector is the shortest one seen; the others are kept as
    alternatives
*/
type Wrapper struct {
	xpath          string
	alternatives   []string
	nodes          []dom.NodeID
	boxes          []layout.Box
	area           float64
	boundingBox    layout.Box
	grid           profile.Grid
	similarity     profile.Similarity
	invisibleRatio float64
}

// Materialize evaluates xpath and derives the wrapper metrics. A selector
// that matches nothing yields an empty-result query error.
func Materialize(
	doc *dom.Document,
	evaluator query.Evaluator,
	lp layout.Provider,
	xpath string,
) (*Wrapper, failure.ClassifiedError) {
	nodes, err := query.Select(evaluator, xpath)
	if err != nil {
		return nil, err
	}

	w := &Wrapper{
		xpath: xpath,
		nodes: nodes,
		boxes: make([]layout.Box, len(nodes)),
	}

	histograms := make([]profile.Histogram, len(nodes))
	for i, n := range nodes {
		if lp.IsVisible(n) {
			w.boxes[i] = lp.BoundingBox(n)
		}
		w.area += w.boxes[i].Area()
		w.boundingBox = w.boundingBox.Union(w.boxes[i])
		histograms[i] = profile.Structure(doc, n)
	}

	w.grid = profile.EstimateGrid(w.boxes)
	w.similarity = profile.CompareToCombined(histograms)
	w.invisibleRatio = profile.InvisibleRatio(lp, nodes)
	return w, nil
}

func (w *Wrapper) XPath() string {
	return w.xpath
}

// Alternatives returns the other selectors known to match the same nodes.
func (w *Wrapper) Alternatives() []string {
	return slices.Clone(w.alternatives)
}

// Nodes returns the bound nodes in document order.
func (w *Wrapper) Nodes() []dom.NodeID {
	return slices.Clone(w.nodes)
}

func (w *Wrapper) Len() int {
	return len(w.nodes)
}

func (w *Wrapper) Area() float64 {
	return w.area
}

func (w *Wrapper) BoundingBox() layout.Box {
	return w.boundingBox
}

func (w *Wrapper) Grid() profile.Grid {
	return w.grid
}

func (w *Wrapper) IsGrid() bool {
	return w.grid.IsGrid()
}

func (w *Wrapper) MinSimilarity() float64 {
	return w.similarity.Min
}

func (w *Wrapper) AvgSimilarity() float64 {
	return w.similarity.Avg
}

func (w *Wrapper) InvisibleRatio() float64 {
	return w.invisibleRatio
}

// HasInvisibleNodes reports whether more than ratio of the nodes are hidden.
func (w *Wrapper) HasInvisibleNodes(ratio float64) bool {
	return w.invisibleRatio > ratio
}

// PassesSimilarity reports whether both similarity figures exceed their
// thresholds.
func (w *Wrapper) PassesSimilarity(minThreshold, avgThreshold float64) bool {
	return w.similarity.Min > minThreshold && w.similarity.Avg > avgThreshold
}

// EqualNodes reports whether both wrappers bind the same nodes in the same
// order.
func (w *Wrapper) EqualNodes(other *Wrapper) bool {
	return slices.Equal(w.nodes, other.nodes)
}

// AddAlternative records another selector for the same nodes. A shorter
// selector becomes canonical and the previous one moves to the
// alternatives.
func (w *Wrapper) AddAlternative(xpath string) {
	if len(xpath) < len(w.xpath) {
		w.xpath, xpath = xpath, w.xpath
	}
	w.alternatives = append(w.alternatives, xpath)
}

func (w *Wrapper) String() string {
	return fmt.Sprintf("Wrapper{xpath: %s, nodes: %d, area: %.0f, grid: %dx%d, sim: %.2f/%.2f}",
		w.xpath, len(w.nodes), w.area, w.grid.Rows, w.grid.Columns, w.similarity.Min, w.similarity.Avg)
}

// Subsumes reports whether every node of child has a proper ancestor among
// the nodes of parent, and every node of parent is such an ancestor of at
// least one child node.
func Subsumes(doc *dom.Document, parent, child *Wrapper) bool {
	parents := dom.NewSetOf(parent.nodes...)
	seen := dom.NewSet[dom.NodeID]()

	for _, c := range child.nodes {
		found := false
		for cur := doc.Parent(c); cur != dom.NoNode; cur = doc.Parent(cur) {
			if parents.Contains(cur) {
				seen.Add(cur)
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return seen.Size() == parents.Size()
}
