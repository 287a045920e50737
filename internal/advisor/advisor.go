package advisor

import (
	"errors"
	"sort"
	"time"

	"github.com/rohmanhakim/result-finder/internal/dom"
	"github.com/rohmanhakim/result-finder/internal/metadata"
	"github.com/rohmanhakim/result-finder/internal/query"
	"github.com/rohmanhakim/result-finder/internal/wrapper"
	"github.com/rohmanhakim/result-finder/pkg/failure"
	"go.uber.org/zap"
)

/*
Responsibilities
- Generate alternative selectors for the nodes of a wrapper
- Keep only those that select the same nodes
- Order them by readability

Strategies
- ancestor: //ul[@class='results']/li
- own attribute: //li[@class="result"], //li[contains(@class,"result")]
- structure: //li[.//h3/a]
- ancestor with own attribute, ancestor with structure
*/
type Advisor struct {
	doc          *dom.Document
	evaluator    query.Evaluator
	logger       *zap.Logger
	metadataSink metadata.MetadataSink
}

// Suggestion is a validated alternative selector. Lower scores read better.
type Suggestion struct {
	XPath    string
	Score    float64
	Features Features
}

func NewAdvisor(
	doc *dom.Document,
	evaluator query.Evaluator,
	logger *zap.Logger,
	metadataSink metadata.MetadataSink,
) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{
		doc:          doc,
		evaluator:    evaluator,
		logger:       logger,
		metadataSink: metadataSink,
	}
}

// Candidates returns every generated selector for w, unvalidated and
// without duplicates, starting with the wrapper's own selectors.
func (a *Advisor) Candidates(w *wrapper.Wrapper) []string {
	nodes := w.Nodes()
	if len(nodes) == 0 {
		return nil
	}
	first := nodes[0]

	parents := byAncestor(a.doc, first)
	selves := append(byOwnAttribute(a.doc, nodes, false), byOwnAttribute(a.doc, nodes, true)...)
	structures := byStructure(a.doc, first)

	groups := [][]string{
		{w.XPath()},
		w.Alternatives(),
		parents,
		selves,
		structures,
		combine(parents, selves),
		combine(parents, structures),
	}

	seen := dom.NewSet[string]()
	var out []string
	for _, g := range groups {
		for _, xpath := range g {
			if seen.Contains(xpath) {
				continue
			}
			seen.Add(xpath)
			out = append(out, xpath)
		}
	}
	return out
}

// Advise returns the validated candidates of w ordered from most to least
// readable. A candidate is valid when it selects as many nodes as w and the
// same first and last node.
func (a *Advisor) Advise(w *wrapper.Wrapper) ([]Suggestion, failure.ClassifiedError) {
	nodes := w.Nodes()
	if len(nodes) == 0 {
		err := &AdvisorError{
			Message: "wrapper " + w.XPath() + " has no nodes",
			Cause:   ErrCauseEmptyWrapper,
		}
		a.metadataSink.RecordError(
			time.Now(),
			"advisor",
			"Advisor.Advise",
			mapAdvisorErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrXPath, w.XPath()),
			},
		)
		return nil, err
	}

	var valid []string
	for _, xpath := range a.Candidates(w) {
		if a.selectsSame(xpath, nodes) {
			valid = append(valid, xpath)
		}
	}

	features := make([]Features, len(valid))
	for i, xpath := range valid {
		features[i] = Measure(xpath)
	}
	scores := scoreAll(features)

	suggestions := make([]Suggestion, len(valid))
	for i, xpath := range valid {
		suggestions[i] = Suggestion{XPath: xpath, Score: scores[i], Features: features[i]}
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score < suggestions[j].Score
	})

	a.logger.Debug("advised selectors",
		zap.String("xpath", w.XPath()),
		zap.Int("candidates", len(valid)),
	)
	return suggestions, nil
}

func (a *Advisor) selectsSame(xpath string, want []dom.NodeID) bool {
	got, err := a.evaluator.Evaluate(xpath, dom.NoNode)
	if err != nil {
		cause := metadata.CauseUnknown
		var queryErr *query.QueryError
		if errors.As(err, &queryErr) {
			cause = query.MapQueryErrorToMetadataCause(queryErr)
		}
		a.logger.Debug("candidate failed", zap.String("xpath", xpath), zap.Error(err))
		a.metadataSink.RecordError(
			time.Now(),
			"advisor",
			"Advisor.selectsSame",
			cause,
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrXPath, xpath),
			},
		)
		return false
	}
	return len(got) == len(want) &&
		got[0] == want[0] &&
		got[len(got)-1] == want[len(want)-1]
}
