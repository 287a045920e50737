package mdconvert_test

import (
	"strings"
	"testing"

	"github.com/rohmanhakim/result-finder/internal/mdconvert"
	"github.com/rohmanhakim/result-finder/internal/metadata"
	"github.com/rohmanhakim/result-finder/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	c := mdconvert.NewConverter(&metadata.NoopSink{})

	digest, err := c.Convert(samplePage())
	require.Nil(t, err)
	md := string(digest.Markdown())

	assert.True(t, strings.HasPrefix(md, "# Search results\n"))
	assert.Contains(t, md, "- Page: https://shop.example.com/search?q=camera")
	assert.Contains(t, md, "- Selector: `//li[@class='result']`")
	assert.Contains(t, md, "- Results: 2")
	assert.Contains(t, md, "- Time: 42 ms")

	first := strings.Index(md, "## Result 1")
	second := strings.Index(md, "## Result 2")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)

	assert.Contains(t, md, "[Nikon D7000](/item/1)")
	assert.Contains(t, md, "**SLR**")
	assert.Contains(t, md, "<https://shop.example.com/item/1>")
	assert.Contains(t, md, "Canon EOS")
	assert.Equal(t, 2, digest.Entries())
}

func TestConvert_SanitizesSnippets(t *testing.T) {
	c := mdconvert.NewConverter(&metadata.NoopSink{})

	digest, err := c.Convert(samplePage())
	require.Nil(t, err)
	md := string(digest.Markdown())

	assert.NotContains(t, md, "alert")
	assert.NotContains(t, md, "onclick")
	assert.NotContains(t, md, "<script")
}

func TestConvert_Deterministic(t *testing.T) {
	c := mdconvert.NewConverter(&metadata.NoopSink{})

	first, err := c.Convert(samplePage())
	require.Nil(t, err)
	second, err := c.Convert(samplePage())
	require.Nil(t, err)
	assert.Equal(t, first.Markdown(), second.Markdown())
}

func TestConvert_Links(t *testing.T) {
	c := mdconvert.NewConverter(&metadata.NoopSink{})

	digest, err := c.Convert(samplePage())
	require.Nil(t, err)

	links := digest.Links()
	require.Len(t, links, 3)

	expected := []struct {
		raw  string
		kind mdconvert.LinkKind
		rank int
	}{
		{"/item/1", mdconvert.KindNavigation, 1},
		{"/img/1.png", mdconvert.KindImage, 1},
		{"#reviews", mdconvert.KindAnchor, 2},
	}
	for i, want := range expected {
		assert.Equal(t, want.raw, links[i].Raw())
		assert.Equal(t, want.kind, links[i].Kind())
		assert.Equal(t, want.rank, links[i].Rank())
	}
}

func TestConvert_NilReport(t *testing.T) {
	sink := &metadataSinkMock{}
	c := mdconvert.NewConverter(sink)

	_, err := c.Convert(nil)
	require.NotNil(t, err)

	var conversionErr *mdconvert.ConversionError
	require.ErrorAs(t, err, &conversionErr)
	assert.Equal(t, mdconvert.ConversionErrorCause(mdconvert.ErrCauseEmptyReport), conversionErr.Cause)
	assert.Equal(t, 1, sink.recordErrorCalls)
	assert.Equal(t, metadata.CauseContentInvalid, sink.recordErrorCause)
}

func TestConvert_EmptyResults(t *testing.T) {
	c := mdconvert.NewConverter(&metadata.NoopSink{})

	digest, err := c.Convert(&report.Page{ID: "page", XPath: "//li"})
	require.Nil(t, err)
	assert.Contains(t, string(digest.Markdown()), "- Results: 0")
	assert.NotContains(t, string(digest.Markdown()), "## Result")
	assert.Empty(t, digest.Links())
}

func TestRenderHTML(t *testing.T) {
	c := mdconvert.NewConverter(&metadata.NoopSink{})
	digest, err := c.Convert(samplePage())
	require.Nil(t, err)

	out := string(mdconvert.RenderHTML(digest, "camera results"))

	assert.Contains(t, out, "<title>camera results</title>")
	assert.Contains(t, out, "Search results</h1>")
	assert.Contains(t, out, `<a href="/item/1">Nikon D7000</a>`)
	assert.Contains(t, out, "<strong>SLR</strong>")
	assert.NotContains(t, out, "alert")
}
