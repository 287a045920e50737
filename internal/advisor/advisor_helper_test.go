package advisor_test

import (
	"testing"
	"time"

	"github.com/rohmanhakim/result-finder/internal/advisor"
	"github.com/rohmanhakim/result-finder/internal/dom"
	"github.com/rohmanhakim/result-finder/internal/layout"
	"github.com/rohmanhakim/result-finder/internal/metadata"
	"github.com/rohmanhakim/result-finder/internal/query"
	"github.com/rohmanhakim/result-finder/internal/wrapper"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// metadataSinkMock is a mock for metadata.MetadataSink
type metadataSinkMock struct {
	recordErrorCalls  int
	recordErrorAction string
	recordErrorCause  metadata.ErrorCause
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
}

const resultPage = `<html><body><div id="main">` +
	`<ul class="results list">` +
	`<li class="result first"><h3><a href="/1">One</a></h3><p>first</p></li>` +
	`<li class="result"><h3><a href="/2">Two</a></h3><p>second</p></li>` +
	`<li class="result"><h3><a href="/3">Three</a></h3><p>third</p></li>` +
	`</ul>` +
	`<ul class="nav"><li><a href="/about">about</a></li></ul>` +
	`</div></body></html>`

const resultXPath = "/html/body/div/ul[@class='results list']/li"

type fixture struct {
	doc     *dom.Document
	query   *query.HTMLQuery
	sink    *metadataSinkMock
	advisor *advisor.Advisor
}

func newFixture(t *testing.T, markup string) fixture {
	t.Helper()
	doc, err := dom.ParseString(markup)
	require.Nil(t, err)
	q := query.NewHTMLQuery(doc)
	sink := &metadataSinkMock{}
	return fixture{
		doc:     doc,
		query:   q,
		sink:    sink,
		advisor: advisor.NewAdvisor(doc, q, zap.NewNop(), sink),
	}
}

func (f fixture) materialize(t *testing.T, xpath string) *wrapper.Wrapper {
	t.Helper()
	w, err := wrapper.Materialize(f.doc, f.query, layout.NewStatic(), xpath)
	require.Nil(t, err)
	return w
}
