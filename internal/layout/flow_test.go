package layout_test

import (
	"testing"

	"github.com/rohmanhakim/result-finder/internal/dom"
	"github.com/rohmanhakim/result-finder/internal/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func elementsByTag(doc *dom.Document, tag string) []dom.NodeID {
	var out []dom.NodeID
	for i := 0; i < doc.Len(); i++ {
		if doc.Tag(dom.NodeID(i)) == tag {
			out = append(out, dom.NodeID(i))
		}
	}
	return out
}

func TestFlow_BlockItemsStackVertically(t *testing.T) {
	doc, err := dom.ParseString(`<html><body><ul>` +
		`<li><a href="/1">one</a></li>` +
		`<li><a href="/2">two</a></li>` +
		`<li><a href="/3">three</a></li>` +
		`</ul></body></html>`)
	require.Nil(t, err)

	flow := layout.NewFlow(doc)
	items := elementsByTag(doc, "li")
	require.Len(t, items, 3)

	for i, li := range items {
		box := flow.BoundingBox(li)
		assert.Equal(t, float64(i)*20, box.Top, "li %d top", i)
		assert.Equal(t, 0.0, box.Left)
		assert.Equal(t, 1024.0, box.Width)
		assert.Equal(t, 20.0, box.Height)
		assert.True(t, flow.IsVisible(li))
	}

	ul := elementsByTag(doc, "ul")[0]
	assert.Equal(t, 60.0, flow.BoundingBox(ul).Height)
}

func TestFlow_InlineBlocksWrapIntoGrid(t *testing.T) {
	cell := `<div style="display:inline-block; width:500px; height:50px"><a href="#">x</a></div>`
	doc, err := dom.ParseString(`<html><body><div id="grid" style="width:1000px">` +
		cell + cell + cell + cell +
		`</div></body></html>`)
	require.Nil(t, err)

	flow := layout.NewFlow(doc)
	var cells []dom.NodeID
	for _, id := range elementsByTag(doc, "div") {
		if _, ok := doc.Attr(id, "id"); !ok {
			cells = append(cells, id)
		}
	}
	require.Len(t, cells, 4)

	want := []layout.Box{
		{Top: 0, Left: 0, Width: 500, Height: 50},
		{Top: 0, Left: 500, Width: 500, Height: 50},
		{Top: 50, Left: 0, Width: 500, Height: 50},
		{Top: 50, Left: 500, Width: 500, Height: 50},
	}
	for i, id := range cells {
		assert.Equal(t, want[i], flow.BoundingBox(id), "cell %d", i)
	}
}

func TestFlow_Visibility(t *testing.T) {
	doc, err := dom.ParseString(`<html><body>` +
		`<div style="display:none"><a id="none">x</a></div>` +
		`<div style="visibility:hidden"><a id="hidden">x</a><a id="shown" style="visibility:visible">y</a></div>` +
		`<p id="transparent" style="opacity: 0">z</p>` +
		`<p id="attr" hidden>w</p>` +
		`<p id="plain">v</p>` +
		`<script id="script">var a;</script>` +
		`</body></html>`)
	require.Nil(t, err)

	flow := layout.NewFlow(doc)
	byID := func(id string) dom.NodeID {
		for i := 0; i < doc.Len(); i++ {
			if v, ok := doc.Attr(dom.NodeID(i), "id"); ok && v == id {
				return dom.NodeID(i)
			}
		}
		t.Fatalf("no element with id %q", id)
		return dom.NoNode
	}

	assert.False(t, flow.IsVisible(byID("none")))
	assert.True(t, flow.BoundingBox(byID("none")).Empty())
	assert.False(t, flow.IsVisible(byID("hidden")))
	assert.True(t, flow.IsVisible(byID("shown")))
	assert.False(t, flow.IsVisible(byID("transparent")))
	assert.False(t, flow.IsVisible(byID("attr")))
	assert.True(t, flow.IsVisible(byID("plain")))
	assert.False(t, flow.IsVisible(byID("script")))
}

func TestFlow_InlineStyleDeclarations(t *testing.T) {
	doc, err := dom.ParseString(`<html><body>` +
		`<p id="upper" style="DISPLAY: None !important">a</p>` +
		`<p id="important" style="display:none !important; display:block">b</p>` +
		`<p id="override" style="display:none; display:block">c</p>` +
		`<p id="malformed" style="color red; ;">d</p>` +
		`<p id="spaced" style="  visibility :  HIDDEN  ">e</p>` +
		`</body></html>`)
	require.Nil(t, err)

	flow := layout.NewFlow(doc)
	byID := func(id string) dom.NodeID {
		for i := 0; i < doc.Len(); i++ {
			if v, ok := doc.Attr(dom.NodeID(i), "id"); ok && v == id {
				return dom.NodeID(i)
			}
		}
		t.Fatalf("no element with id %q", id)
		return dom.NoNode
	}

	assert.False(t, flow.IsVisible(byID("upper")))
	assert.False(t, flow.IsVisible(byID("important")))
	assert.True(t, flow.IsVisible(byID("override")))
	assert.True(t, flow.IsVisible(byID("malformed")))
	assert.False(t, flow.IsVisible(byID("spaced")))
}

func TestFlow_OutOfRange(t *testing.T) {
	doc, err := dom.ParseString(`<p>x</p>`)
	require.Nil(t, err)

	flow := layout.NewFlow(doc)
	assert.False(t, flow.IsVisible(dom.NodeID(doc.Len())))
	assert.Equal(t, layout.Box{}, flow.BoundingBox(dom.NoNode))
}

func TestStatic(t *testing.T) {
	s := layout.NewStatic().
		Set(1, layout.Box{Top: 10, Left: 20, Width: 30, Height: 40}).
		Hide(2)

	assert.Equal(t, 50.0, s.BoundingBox(1).Bottom())
	assert.Equal(t, 50.0, s.BoundingBox(1).Right())
	assert.Equal(t, 1200.0, s.BoundingBox(1).Area())
	assert.True(t, s.IsVisible(1))
	assert.False(t, s.IsVisible(2))
	assert.Equal(t, layout.Box{}, s.BoundingBox(3))
}

func TestBox_Union(t *testing.T) {
	a := layout.Box{Top: 0, Left: 0, Width: 10, Height: 10}
	b := layout.Box{Top: 20, Left: 5, Width: 10, Height: 5}

	assert.Equal(t, layout.Box{Top: 0, Left: 0, Width: 15, Height: 25}, a.Union(b))
	assert.Equal(t, a, a.Union(layout.Box{}))
	assert.Equal(t, b, layout.Box{}.Union(b))
}
