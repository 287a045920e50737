package advisor_test

import (
	"testing"

	"github.com/rohmanhakim/result-finder/internal/advisor"
	"github.com/rohmanhakim/result-finder/internal/dom"
	"github.com/rohmanhakim/result-finder/internal/metadata"
	"github.com/rohmanhakim/result-finder/internal/wrapper"
	"github.com/rohmanhakim/result-finder/pkg/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidates(t *testing.T) {
	f := newFixture(t, resultPage)
	w := f.materialize(t, resultXPath)

	candidates := f.advisor.Candidates(w)
	require.NotEmpty(t, candidates)
	assert.Equal(t, resultXPath, candidates[0])

	for _, want := range []string{
		// ancestor
		"//ul/li",
		"//ul[@class='results list']/li",
		"//div[@id='main']/ul/li",
		"//body/div/ul/li",
		// own attribute
		`//li[contains(@class,"result")]`,
		// structure
		"//li[.//h3/a]",
		"//li[./h3]",
		"//li[./h3/a]",
		// combinations
		`//ul[@class='results list']/li[contains(@class,"result")]`,
		"//div[@id='main']/ul/li[.//h3/a]",
	} {
		assert.Contains(t, candidates, want)
	}

	// the first node's full class is not shared by the others
	assert.NotContains(t, candidates, `//li[@class="result first"]`)
	assert.NotContains(t, candidates, `//li[contains(@class,"first")]`)
	assert.NotContains(t, candidates, "//html/body/div/ul/li")

	seen := map[string]bool{}
	for _, c := range candidates {
		assert.False(t, seen[c], "duplicate candidate %s", c)
		seen[c] = true
	}
}

func TestAdvise_OnlyEquivalentSelectors(t *testing.T) {
	f := newFixture(t, resultPage)
	w := f.materialize(t, resultXPath)

	suggestions, err := f.advisor.Advise(w)
	require.Nil(t, err)
	require.NotEmpty(t, suggestions)

	var xpaths []string
	for _, s := range suggestions {
		xpaths = append(xpaths, s.XPath)

		nodes, queryErr := f.query.Evaluate(s.XPath, dom.NoNode)
		require.Nil(t, queryErr)
		require.Len(t, nodes, w.Len(), s.XPath)
		assert.Equal(t, w.Nodes()[0], nodes[0])
		assert.Equal(t, w.Nodes()[w.Len()-1], nodes[len(nodes)-1])
	}

	assert.Contains(t, xpaths, `//li[contains(@class,"result")]`)
	assert.Contains(t, xpaths, "//li[.//h3/a]")
	assert.Contains(t, xpaths, "//ul[@class='results list']/li")
	assert.NotContains(t, xpaths, "//ul/li")
	assert.NotContains(t, xpaths, "//div[@id='main']/ul/li")
	assert.NotContains(t, xpaths, `//li[contains(@class,"first")]`)
}

func TestAdvise_SortedAscending(t *testing.T) {
	f := newFixture(t, resultPage)
	w := f.materialize(t, resultXPath)

	suggestions, err := f.advisor.Advise(w)
	require.Nil(t, err)
	for i := 1; i < len(suggestions); i++ {
		assert.LessOrEqual(t, suggestions[i-1].Score, suggestions[i].Score)
	}
}

func TestAdvise_MalformedCandidateIsSkipped(t *testing.T) {
	page := `<html><body><div data-note="it's">` +
		`<p>a</p><p>b</p><p>c</p><p>d</p>` +
		`</div></body></html>`
	f := newFixture(t, page)
	w := f.materialize(t, "//p")

	suggestions, err := f.advisor.Advise(w)
	require.Nil(t, err)

	var xpaths []string
	for _, s := range suggestions {
		xpaths = append(xpaths, s.XPath)
	}
	assert.Contains(t, xpaths, "//p")
	assert.Contains(t, xpaths, "//div/p")
	assert.Positive(t, f.sink.recordErrorCalls)
	assert.Equal(t, "Advisor.selectsSame", f.sink.recordErrorAction)
	assert.Equal(t, metadata.CauseMalformedExpression, f.sink.recordErrorCause)
}

func TestAdvise_EmptyWrapper(t *testing.T) {
	f := newFixture(t, resultPage)

	suggestions, err := f.advisor.Advise(&wrapper.Wrapper{})
	assert.Nil(t, suggestions)
	require.NotNil(t, err)

	var advisorErr *advisor.AdvisorError
	require.ErrorAs(t, err, &advisorErr)
	assert.Equal(t, advisor.AdvisorErrorCause(advisor.ErrCauseEmptyWrapper), advisorErr.Cause)
	assert.Equal(t, failure.SeverityFatal, advisorErr.Severity())
	assert.Equal(t, metadata.CauseEmptyResult, f.sink.recordErrorCause)
}

func TestMeasure(t *testing.T) {
	tests := []struct {
		xpath string
		want  advisor.Features
	}{
		{"//li", advisor.Features{4, 0, 0, 2, 0}},
		{"//li[@id='x']", advisor.Features{13, 1, 0, 2, 0}},
		{"//ul[@class='results']/li", advisor.Features{25, 1, 1, 3, 0}},
		{"//li[.//h3/a]", advisor.Features{13, 0, 0, 2, 3}},
		{"//DIV[@class='Product']", advisor.Features{23, 1, 1, 2, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.xpath, func(t *testing.T) {
			assert.Equal(t, tt.want, advisor.Measure(tt.xpath))
		})
	}
}
