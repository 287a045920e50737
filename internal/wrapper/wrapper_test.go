package wrapper_test

import (
	"errors"
	"testing"

	"github.com/rohmanhakim/result-finder/internal/dom"
	"github.com/rohmanhakim/result-finder/internal/layout"
	"github.com/rohmanhakim/result-finder/internal/query"
	"github.com/rohmanhakim/result-finder/internal/wrapper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// two rows, each holding two cells
const gridPage = `<html><body><div id="grid">` +
	`<div class="row"><div class="cell"><a href="/1">1</a></div><div class="cell"><a href="/2">2</a></div></div>` +
	`<div class="row"><div class="cell"><a href="/3">3</a></div><div class="cell"><a href="/4">4</a></div></div>` +
	`</div></body></html>`

type fixture struct {
	doc   *dom.Document
	q     *query.HTMLQuery
	lp    *layout.Static
	rows  []dom.NodeID
	cells []dom.NodeID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	doc, err := dom.ParseString(gridPage)
	require.Nil(t, err)

	f := fixture{doc: doc, q: query.NewHTMLQuery(doc), lp: layout.NewStatic()}
	for i := 0; i < doc.Len(); i++ {
		id := dom.NodeID(i)
		switch v, _ := doc.Attr(id, "class"); v {
		case "row":
			f.rows = append(f.rows, id)
		case "cell":
			f.cells = append(f.cells, id)
		}
	}
	require.Len(t, f.rows, 2)
	require.Len(t, f.cells, 4)

	f.lp.Set(f.rows[0], layout.Box{Top: 0, Left: 0, Width: 200, Height: 100})
	f.lp.Set(f.rows[1], layout.Box{Top: 100, Left: 0, Width: 200, Height: 100})
	f.lp.Set(f.cells[0], layout.Box{Top: 0, Left: 0, Width: 100, Height: 100})
	f.lp.Set(f.cells[1], layout.Box{Top: 0, Left: 100, Width: 100, Height: 100})
	f.lp.Set(f.cells[2], layout.Box{Top: 100, Left: 0, Width: 100, Height: 100})
	f.lp.Set(f.cells[3], layout.Box{Top: 100, Left: 100, Width: 100, Height: 100})
	return f
}

func TestMaterialize_Metrics(t *testing.T) {
	f := newFixture(t)

	w, err := wrapper.Materialize(f.doc, f.q, f.lp, "//div[@class='cell']")
	require.Nil(t, err)

	assert.Equal(t, f.cells, w.Nodes())
	assert.Equal(t, 4, w.Len())
	assert.Equal(t, 40000.0, w.Area())
	assert.Equal(t, layout.Box{Top: 0, Left: 0, Width: 200, Height: 200}, w.BoundingBox())
	assert.True(t, w.IsGrid())
	assert.Equal(t, 2, w.Grid().Rows)
	assert.Equal(t, 2, w.Grid().Columns)
	assert.InDelta(t, 1.0, w.MinSimilarity(), 1e-9)
	assert.InDelta(t, 1.0, w.AvgSimilarity(), 1e-9)
	assert.True(t, w.PassesSimilarity(0.55, 0.65))
	assert.Equal(t, 0.0, w.InvisibleRatio())
}

func TestMaterialize_InvisibleNodesHaveNoArea(t *testing.T) {
	f := newFixture(t)
	f.lp.Hide(f.cells[0]).Hide(f.cells[1]).Hide(f.cells[2])

	w, err := wrapper.Materialize(f.doc, f.q, f.lp, "//div[@class='cell']")
	require.Nil(t, err)

	assert.Equal(t, 10000.0, w.Area())
	assert.InDelta(t, 0.75, w.InvisibleRatio(), 1e-9)
	assert.True(t, w.HasInvisibleNodes(0.6))
	assert.False(t, w.HasInvisibleNodes(0.8))
}

func TestMaterialize_EmptyResult(t *testing.T) {
	f := newFixture(t)

	_, err := wrapper.Materialize(f.doc, f.q, f.lp, "//table")
	require.NotNil(t, err)

	var queryErr *query.QueryError
	require.True(t, errors.As(err, &queryErr))
	assert.Equal(t, query.QueryErrorCause(query.ErrCauseEmptyResult), queryErr.Cause)
}

func TestAddAlternative_ShorterBecomesCanonical(t *testing.T) {
	f := newFixture(t)

	w, err := wrapper.Materialize(f.doc, f.q, f.lp, "/html/body/div/div/div")
	require.Nil(t, err)

	w.AddAlternative("/html/body/div[@id='grid']/div/div")
	assert.Equal(t, "/html/body/div/div/div", w.XPath())
	assert.Equal(t, []string{"/html/body/div[@id='grid']/div/div"}, w.Alternatives())

	w.AddAlternative("//div/div/div")
	assert.Equal(t, "//div/div/div", w.XPath())
	assert.Equal(t, []string{"/html/body/div[@id='grid']/div/div", "/html/body/div/div/div"}, w.Alternatives())
}

func TestEqualNodes(t *testing.T) {
	f := newFixture(t)

	a, err := wrapper.Materialize(f.doc, f.q, f.lp, "//div[@class='cell']")
	require.Nil(t, err)
	b, err := wrapper.Materialize(f.doc, f.q, f.lp, "/html/body/div/div/div")
	require.Nil(t, err)
	c, err := wrapper.Materialize(f.doc, f.q, f.lp, "//div[@class='row']")
	require.Nil(t, err)

	assert.True(t, a.EqualNodes(b))
	assert.False(t, a.EqualNodes(c))
}

func TestSubsumes(t *testing.T) {
	f := newFixture(t)

	cells, err := wrapper.Materialize(f.doc, f.q, f.lp, "//div[@class='cell']")
	require.Nil(t, err)
	rows, err := wrapper.Materialize(f.doc, f.q, f.lp, "//div[@class='row']")
	require.Nil(t, err)
	firstRow, err := wrapper.Materialize(f.doc, f.q, f.lp, "//div[@class='row'][1]")
	require.Nil(t, err)

	assert.True(t, wrapper.Subsumes(f.doc, rows, cells))
	assert.False(t, wrapper.Subsumes(f.doc, cells, rows))
	// cells of the second row have no ancestor in firstRow
	assert.False(t, wrapper.Subsumes(f.doc, firstRow, cells))
}
