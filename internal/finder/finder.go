package finder

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rohmanhakim/result-finder/internal/attrtable"
	"github.com/rohmanhakim/result-finder/internal/dom"
	"github.com/rohmanhakim/result-finder/internal/layout"
	"github.com/rohmanhakim/result-finder/internal/metadata"
	"github.com/rohmanhakim/result-finder/internal/pathexpr"
	"github.com/rohmanhakim/result-finder/internal/query"
	"github.com/rohmanhakim/result-finder/internal/wrapper"
	"github.com/rohmanhakim/result-finder/pkg/failure"
	"go.uber.org/zap"
)

/*
Responsibilities
- Find anchor paths that repeat on the page
- Refine each repeating path with ancestor attributes
- Generalize every refinement upward while the match count holds
- Register, deduplicate and filter the resulting wrappers
- Rank wrappers and drop rows that only group a finer grid

A pass is synchronous and runs to completion. Failures of individual
selectors are logged and end only the branch that produced them; the only
error Find returns is a violated internal invariant.
*/
type Finder struct {
	doc          *dom.Document
	evaluator    query.Evaluator
	layout       layout.Provider
	options      Options
	logger       *zap.Logger
	metadataSink metadata.MetadataSink

	seeds    []SeedPath
	wrappers []*wrapper.Wrapper
	seen     dom.Set[string]
	elapsed  time.Duration
}

// SeedPath is a generalized anchor path and the number of anchors on it.
type SeedPath struct {
	Path  string
	Count int
}

func NewFinder(
	doc *dom.Document,
	evaluator query.Evaluator,
	lp layout.Provider,
	options Options,
	logger *zap.Logger,
	metadataSink metadata.MetadataSink,
) *Finder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finder{
		doc:          doc,
		evaluator:    evaluator,
		layout:       lp,
		options:      options,
		logger:       logger,
		metadataSink: metadataSink,
		seen:         dom.NewSet[string](),
	}
}

// Find runs a full pass and returns the ranked wrappers. Running it again
// on the same document yields the same list.
func (f *Finder) Find() ([]*wrapper.Wrapper, failure.ClassifiedError) {
	start := time.Now()
	f.wrappers = nil

	f.seeds = f.FindRepeatingPaths()
	for _, seed := range f.seeds {
		f.logger.Debug("seed path", zap.String("xpath", seed.Path), zap.Int("nodes", seed.Count))
		if err := f.findCandidates(seed.Path); err != nil {
			f.elapsed = time.Since(start)
			return nil, err
		}
	}

	f.logger.Debug("ranking candidates", zap.Int("wrappers", len(f.wrappers)))
	f.Rank()

	if f.options.RemoveRows {
		f.RemoveRows()
	}

	f.elapsed = time.Since(start)
	return f.Wrappers(), nil
}

// FindRepeatingPaths groups the bootstrap anchors by generalized path and
// keeps the groups with at least MinRepetition anchors, in order of first
// appearance.
func (f *Finder) FindRepeatingPaths() []SeedPath {
	anchors, err := f.evaluator.Evaluate(bootstrapPath, dom.NoNode)
	if err != nil {
		f.recordError("Finder.FindRepeatingPaths", bootstrapPath, err)
		return nil
	}

	counts := make(map[string]int)
	var order []string
	for _, a := range anchors {
		path := f.doc.SimplePath(a)
		if _, ok := counts[path]; !ok {
			order = append(order, path)
		}
		counts[path]++
	}

	var seeds []SeedPath
	for _, path := range order {
		if counts[path] >= f.options.MinRepetition {
			seeds = append(seeds, SeedPath{Path: path, Count: counts[path]})
		}
	}
	return seeds
}

/*
findCandidates explores one seed path.

The plain path is generalized first. Then every discriminating ancestor
attribute is added to the path on its own, generalized, and removed again
before the next one is tried. Attributes are never combined.
*/
func (f *Finder) findCandidates(path string) failure.ClassifiedError {
	f.seen = dom.NewSet[string]()

	nodes, err := f.evaluator.Evaluate(path, dom.NoNode)
	if err != nil {
		f.recordError("Finder.findCandidates", path, err)
		return nil
	}
	if len(nodes) < f.options.MinRepetition {
		return nil
	}

	xb, err := pathexpr.Parse(path)
	if err != nil {
		f.recordError("Finder.findCandidates", path, err)
		return nil
	}

	f.findMore(xb)

	if !f.options.UseAttributeTable {
		return nil
	}

	table, err := attrtable.Build(f.doc, nodes)
	if err != nil {
		return f.inconsistent("Finder.findCandidates", path, err)
	}

	total := len(nodes)
	table.Filter(func(e attrtable.Entry) bool {
		return e.Count >= f.options.MinRepetition && e.Count != total
	})

	for _, entry := range table.Sorted() {
		if xb.HasPredicate(entry.Depth, entry.Predicate) {
			continue
		}
		if !xb.AddPredicate(entry.Depth, entry.Predicate) {
			return f.inconsistent("Finder.findCandidates", path, &FinderError{
				Message:   fmt.Sprintf("attribute depth %d outside a path of %d steps", entry.Depth, xb.Len()),
				Retryable: false,
				Cause:     ErrCauseInconsistentState,
			})
		}
		f.findMore(xb)
		xb.RemovePredicate(entry.Depth, entry.Predicate)
	}
	return nil
}

/*
findMore walks xb upward one step at a time. Each level moves the trailing
steps into a descendant predicate; as long as the match count stays the
same the more general selector replaces the current one. When the count
changes the current selector is registered and the walk continues from the
new count, stopping once it drops below MinRepetition.
*/
func (f *Finder) findMore(xb *pathexpr.PathExpression) {
	xpath := xb.String()
	count, err := query.Count(f.evaluator, xpath)
	if err != nil {
		f.recordError("Finder.findMore", xpath, err)
		return
	}
	if count == 0 {
		f.logger.Debug("selector matched no nodes", zap.String("xpath", xpath))
		return
	}

	for level := 1; level < xb.Len()-1; level++ {
		lifted := xb.LiftTrailingSteps(level)
		if f.seen.Contains(lifted) {
			count = -1
			break
		}
		liftedCount, err := query.Count(f.evaluator, lifted)
		if err != nil {
			f.recordError("Finder.findMore", lifted, err)
			return
		}
		f.logger.Debug("testing selector", zap.String("xpath", lifted), zap.Int("nodes", liftedCount))

		if liftedCount == count {
			xpath = lifted
			continue
		}
		f.register(xpath)
		xpath, count = lifted, liftedCount
		if count < f.options.MinRepetition {
			break
		}
	}

	if count >= f.options.MinRepetition {
		f.register(xpath)
	}
}

// register adds xpath in its simplified form, once per seed.
func (f *Finder) register(xpath string) {
	if f.seen.Contains(xpath) {
		return
	}
	f.seen.Add(xpath)

	simple := f.Simplify(xpath)
	if f.seen.Contains(simple) {
		return
	}
	f.seen.Add(simple)
	f.AddWrapper(simple)
}

/*
AddWrapper materializes xpath and registers it unless

  - a registered wrapper binds the same nodes, in which case xpath becomes
    one of its alternatives
  - more than 60% of the nodes are invisible (RemoveInvisibleNodes)
  - the nodes do not line up into at least two rows of a grid whose size
    roughly matches the node count (UseGrid)
*/
func (f *Finder) AddWrapper(xpath string) {
	w, err := wrapper.Materialize(f.doc, f.evaluator, f.layout, xpath)
	if err != nil {
		f.logger.Warn("selector ignored", zap.String("xpath", xpath), zap.Error(err))
		f.recordError("Finder.AddWrapper", xpath, err)
		return
	}

	for _, existing := range f.wrappers {
		if existing.EqualNodes(w) {
			existing.AddAlternative(xpath)
			return
		}
	}

	if f.options.RemoveInvisibleNodes && w.HasInvisibleNodes(invisibleRatioLimit) {
		f.reject(w, "too many invisible nodes")
		return
	}
	if f.options.UseGrid {
		grid := w.Grid()
		if grid.Rows <= 1 || (grid.Rows+1)*grid.Columns < w.Len() {
			f.reject(w, fmt.Sprintf("fails grid constraints %dx%d", grid.Rows, grid.Columns))
			return
		}
	}

	f.logger.Debug("wrapper added", zap.String("xpath", xpath), zap.Int("nodes", w.Len()))
	f.wrappers = append(f.wrappers, w)
}

/*
Simplify shortens xpath without changing how many nodes it matches.

Ancestors shared by every matched node that carry an id are pinned with an
@id predicate (unless their step already tests @id). Then leading steps are
dropped, shortest selector first, and the first descendant selector that
still matches the same number of nodes is returned. Otherwise the pinned
selector is returned as is.
*/
func (f *Finder) Simplify(xpath string) string {
	nodes, err := f.evaluator.Evaluate(xpath, dom.NoNode)
	if err != nil || len(nodes) == 0 {
		return xpath
	}
	xb, err := pathexpr.Parse(xpath)
	if err != nil {
		return xpath
	}

	// depths only line up with steps on absolute paths
	if !xb.Descendant() {
		for _, a := range f.commonAncestors(nodes) {
			id, ok := f.doc.Attr(a, "id")
			if !ok || id == "" || strings.ContainsAny(id, `'"`) {
				continue
			}
			depth := f.doc.Depth(a)
			if xb.TestsAttribute(depth, "id") {
				continue
			}
			xb.AddPredicate(depth, "@id='"+id+"'")
		}
	}

	for from := xb.Len() - 1; from > 0; from-- {
		shorter := xb.Serialize(from)
		count, err := query.Count(f.evaluator, shorter)
		if err != nil {
			continue
		}
		if count == len(nodes) {
			return shorter
		}
	}
	return xb.String()
}

// commonAncestors returns, in document order, the elements that are an
// ancestor (or self) of every node.
func (f *Finder) commonAncestors(nodes []dom.NodeID) []dom.NodeID {
	counts := make(map[dom.NodeID]int)
	for _, n := range nodes {
		for _, a := range f.doc.Ancestors(n) {
			counts[a]++
		}
	}
	var common []dom.NodeID
	for a, c := range counts {
		if c == len(nodes) {
			common = append(common, a)
		}
	}
	slices.Sort(common)
	return common
}

/*
Rank orders the wrappers:

 1. wrappers passing both similarity thresholds first (UseSimilarity)
 2. larger total area first
 3. shorter selector first

The sort is stable, so equal wrappers keep their registration order.
*/
func (f *Finder) Rank() {
	slices.SortStableFunc(f.wrappers, f.compare)
}

func (f *Finder) compare(a, b *wrapper.Wrapper) int {
	if f.options.UseSimilarity {
		ap := f.passesSimilarity(a)
		bp := f.passesSimilarity(b)
		if ap != bp {
			if ap {
				return -1
			}
			return 1
		}
	}
	if a.Area() != b.Area() {
		if a.Area() > b.Area() {
			return -1
		}
		return 1
	}
	return len(a.XPath()) - len(b.XPath())
}

func (f *Finder) passesSimilarity(w *wrapper.Wrapper) bool {
	return w.PassesSimilarity(f.options.MinSimilarityThreshold, f.options.AvgSimilarityThreshold)
}

/*
RemoveRows drops coarse wrappers whose nodes only group the cells of a
finer grid wrapper. For a pair where p has fewer nodes than c, p is removed
when c is a grid passing both similarity thresholds, p is not a grid,
(|p|-1)*2 <= |c|, and p subsumes c.
*/
func (f *Finder) RemoveRows() {
	n := len(f.wrappers)
	remove := make([]bool, n)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if remove[i] {
				break
			}
			if remove[j] {
				continue
			}
			pi, ci := i, j
			if f.wrappers[i].Len() > f.wrappers[j].Len() {
				pi, ci = j, i
			}
			p, c := f.wrappers[pi], f.wrappers[ci]

			if c.IsGrid() && !p.IsGrid() &&
				f.passesSimilarity(c) &&
				(p.Len()-1)*2 <= c.Len() &&
				wrapper.Subsumes(f.doc, p, c) {
				f.logger.Debug("wrapper contains rows",
					zap.String("xpath", p.XPath()),
					zap.String("rows_of", c.XPath()),
				)
				remove[pi] = true
			}
		}
	}

	kept := f.wrappers[:0]
	for i, w := range f.wrappers {
		if !remove[i] {
			kept = append(kept, w)
		}
	}
	f.wrappers = kept
}

// Wrappers returns the registered wrappers in their current order.
func (f *Finder) Wrappers() []*wrapper.Wrapper {
	return slices.Clone(f.wrappers)
}

// Seeds returns the repeating paths of the last pass.
func (f *Finder) Seeds() []SeedPath {
	return slices.Clone(f.seeds)
}

// Elapsed is the duration of the last pass.
func (f *Finder) Elapsed() time.Duration {
	return f.elapsed
}

func (f *Finder) reject(w *wrapper.Wrapper, reason string) {
	f.logger.Debug("candidate rejected",
		zap.String("xpath", w.XPath()),
		zap.Int("nodes", w.Len()),
		zap.String("reason", reason),
	)
}

func (f *Finder) recordError(action string, xpath string, err failure.ClassifiedError) {
	cause := metadata.CauseUnknown
	var queryErr *query.QueryError
	if errors.As(err, &queryErr) {
		cause = query.MapQueryErrorToMetadataCause(queryErr)
	} else if _, ok := err.(*pathexpr.PathError); ok {
		cause = metadata.CauseMalformedExpression
	}
	f.logger.Debug("selector failed", zap.String("xpath", xpath), zap.Error(err))
	f.metadataSink.RecordError(
		time.Now(),
		"finder",
		action,
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrXPath, xpath),
		},
	)
}

func (f *Finder) inconsistent(action string, xpath string, err failure.ClassifiedError) failure.ClassifiedError {
	finderErr, ok := err.(*FinderError)
	if !ok {
		finderErr = &FinderError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseInconsistentState,
		}
	}
	f.logger.Error("inconsistent state", zap.String("xpath", xpath), zap.Error(finderErr))
	f.metadataSink.RecordError(
		time.Now(),
		"finder",
		action,
		mapFinderErrorToMetadataCause(finderErr),
		finderErr.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrXPath, xpath),
		},
	)
	return finderErr
}
