package finder_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rohmanhakim/result-finder/internal/dom"
	"github.com/rohmanhakim/result-finder/internal/finder"
	"github.com/rohmanhakim/result-finder/internal/layout"
	"github.com/rohmanhakim/result-finder/internal/metadata"
	"github.com/rohmanhakim/result-finder/internal/query"
	"github.com/rohmanhakim/result-finder/pkg/failure"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// metadataSinkMock is a mock for metadata.MetadataSink
type metadataSinkMock struct {
	recordErrorCalls  int
	recordErrorAction string
	recordErrorCause  metadata.ErrorCause
	recordErrorAttrs  []metadata.Attribute
	recordDiscovery   []metadata.DiscoveryEvent
}

func (m *metadataSinkMock) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	m.recordErrorCalls++
	m.recordErrorAction = action
	m.recordErrorCause = cause
	m.recordErrorAttrs = attrs
}

func (m *metadataSinkMock) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
) {
}

func (m *metadataSinkMock) RecordArtifact(kind metadata.ArtifactKind, path string, attrs []metadata.Attribute) {
}

func (m *metadataSinkMock) RecordDiscovery(event metadata.DiscoveryEvent) {
	m.recordDiscovery = append(m.recordDiscovery, event)
}

// failingEvaluator reports every selector containing marker as malformed.
type failingEvaluator struct {
	inner  query.Evaluator
	marker string
}

func (e *failingEvaluator) Evaluate(expr string, ctx dom.NodeID) ([]dom.NodeID, failure.ClassifiedError) {
	if strings.Contains(expr, e.marker) {
		return nil, &query.QueryError{
			Message:    "rejected by test",
			Cause:      query.ErrCauseMalformedExpression,
			Expression: expr,
		}
	}
	return e.inner.Evaluate(expr, ctx)
}

// listPage renders a result list of n linked items plus unrelated links.
func listPage(n int) string {
	var sb strings.Builder
	sb.WriteString(`<html><head><title>results</title></head><body>`)
	sb.WriteString(`<div id="header"><a href="/">home</a></div>`)
	sb.WriteString(`<div id="content"><ul class="results">`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, `<li><a href="/item/%d">Item number %d</a></li>`, i, i)
	}
	sb.WriteString(`</ul></div>`)
	sb.WriteString(`<div class="footer"><a href="/about">about</a></div>`)
	sb.WriteString(`</body></html>`)
	return sb.String()
}

type harness struct {
	doc    *dom.Document
	query  *query.HTMLQuery
	sink   *metadataSinkMock
	finder *finder.Finder
}

func newHarness(t *testing.T, markup string, lp func(*dom.Document) layout.Provider, options finder.Options) harness {
	t.Helper()
	doc, err := dom.ParseString(markup)
	require.Nil(t, err)

	q := query.NewHTMLQuery(doc)
	sink := &metadataSinkMock{}
	return harness{
		doc:    doc,
		query:  q,
		sink:   sink,
		finder: finder.NewFinder(doc, q, lp(doc), options, zap.NewNop(), sink),
	}
}

func flowLayout(doc *dom.Document) layout.Provider {
	return layout.NewFlow(doc)
}

func nodesWithAttr(doc *dom.Document, name, value string) []dom.NodeID {
	var out []dom.NodeID
	for i := 0; i < doc.Len(); i++ {
		if v, ok := doc.Attr(dom.NodeID(i), name); ok && v == value {
			out = append(out, dom.NodeID(i))
		}
	}
	return out
}
