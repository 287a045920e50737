package layout

import (
	"math"
	"strconv"
	"strings"

	"github.com/aymerick/douceur/parser"
	"github.com/rohmanhakim/result-finder/internal/dom"
	"golang.org/x/net/html"
)

/*
Flow is an estimated layout computed from markup alone, for runs without a
browser. It follows a reduced normal-flow model:

  - block-level elements take their parent's width and stack vertically
  - inline-level elements (inline tags, inline-block, table cells and the
    children of flex or grid containers) sit side by side and wrap when
    the row is full
  - text occupies fixed-size character cells on fixed-height lines
  - inline style width/height in px override the estimate

Visibility honours the hidden attribute, display:none, inherited
visibility:hidden, opacity:0 and elements that are never rendered.
*/
type Flow struct {
	boxes   []Box
	visible []bool
}

const (
	viewportWidth = 1024.0
	lineHeight    = 20.0
	charWidth     = 8.0
	imageSize     = 100.0
)

var nonRendered = dom.NewSetOf("head", "script", "style", "template", "noscript", "title", "meta", "link", "base")

var inlineTags = dom.NewSetOf(
	"a", "abbr", "b", "button", "cite", "code", "em", "i", "img", "input",
	"label", "mark", "select", "small", "span", "strong", "sub", "sup", "time", "u",
)

var cellTags = dom.NewSetOf("td", "th")

type flowDisplay int

const (
	displayBlock flowDisplay = iota
	displayInline
	displayNone
)

type flowState struct {
	doc        *dom.Document
	display    []flowDisplay
	rowsParent []bool
	visible    []bool
	explicitW  []float64
	explicitH  []float64
	textLen    []int
	ownText    []int
	width      []float64
	ownHeight  []float64
	height     []float64
	row        []int
	top        []float64
	left       []float64
}

func NewFlow(doc *dom.Document) *Flow {
	n := doc.Len()
	s := &flowState{
		doc:        doc,
		display:    make([]flowDisplay, n),
		rowsParent: make([]bool, n),
		visible:    make([]bool, n),
		explicitW:  make([]float64, n),
		explicitH:  make([]float64, n),
		textLen:    make([]int, n),
		ownText:    make([]int, n),
		width:      make([]float64, n),
		ownHeight:  make([]float64, n),
		height:     make([]float64, n),
		row:        make([]int, n),
		top:        make([]float64, n),
		left:       make([]float64, n),
	}
	s.classify()
	s.measureText()
	s.assignWidths()
	s.assignHeights()
	s.assignPositions()

	f := &Flow{boxes: make([]Box, n), visible: s.visible}
	for i := 0; i < n; i++ {
		f.boxes[i] = Box{Top: s.top[i], Left: s.left[i], Width: s.width[i], Height: s.height[i]}
	}
	return f
}

func (f *Flow) BoundingBox(id dom.NodeID) Box {
	if id < 0 || int(id) >= len(f.boxes) {
		return Box{}
	}
	return f.boxes[id]
}

func (f *Flow) IsVisible(id dom.NodeID) bool {
	if id < 0 || int(id) >= len(f.visible) {
		return false
	}
	return f.visible[id]
}

// classify resolves display and visibility top-down.
func (s *flowState) classify() {
	n := s.doc.Len()
	visHidden := make([]bool, n)
	transparent := make([]bool, n)

	for i := 0; i < n; i++ {
		id := dom.NodeID(i)
		p := s.doc.Parent(id)
		tag := s.doc.Tag(id)
		style := inlineStyle(s.doc, id)
		_, hiddenAttr := s.doc.Attr(id, "hidden")

		d := displayBlock
		switch {
		case hiddenAttr || nonRendered.Contains(tag):
			d = displayNone
		case style["display"] == "none":
			d = displayNone
		case oneOf(style["display"], "block", "flex", "grid", "list-item", "table", "table-row"):
			d = displayBlock
		case oneOf(style["display"], "inline", "inline-block", "inline-flex", "table-cell"):
			d = displayInline
		case p != dom.NoNode && s.rowsParent[p]:
			d = displayInline
		case inlineTags.Contains(tag) || cellTags.Contains(tag):
			d = displayInline
		}
		if p != dom.NoNode && s.display[p] == displayNone {
			d = displayNone
		}
		s.display[i] = d
		s.rowsParent[i] = oneOf(style["display"], "flex", "grid", "inline-flex")

		if p != dom.NoNode {
			visHidden[i] = visHidden[p]
			transparent[i] = transparent[p]
		}
		switch style["visibility"] {
		case "hidden", "collapse":
			visHidden[i] = true
		case "visible":
			visHidden[i] = false
		}
		if op, ok := style["opacity"]; ok {
			if v, err := strconv.ParseFloat(op, 64); err == nil && v == 0 {
				transparent[i] = true
			}
		}
		s.visible[i] = d != displayNone && !visHidden[i] && !transparent[i]

		s.explicitW[i] = parsePx(style["width"])
		s.explicitH[i] = parsePx(style["height"])
	}
}

// measureText counts collapsed text characters, own and per subtree.
func (s *flowState) measureText() {
	n := s.doc.Len()
	for i := 0; i < n; i++ {
		node := s.doc.Node(dom.NodeID(i))
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				s.ownText[i] += len(strings.Join(strings.Fields(c.Data), " "))
			}
		}
	}
	for i := n - 1; i >= 0; i-- {
		if s.display[i] == displayNone {
			continue
		}
		s.textLen[i] += s.ownText[i]
		if p := s.doc.Parent(dom.NodeID(i)); p != dom.NoNode {
			s.textLen[p] += s.textLen[i]
		}
	}
}

// assignWidths sizes every element and groups each element's children
// into rows.
func (s *flowState) assignWidths() {
	n := s.doc.Len()
	for i := 0; i < n; i++ {
		id := dom.NodeID(i)
		if s.doc.Parent(id) == dom.NoNode {
			s.width[i] = s.explicitOr(i, viewportWidth)
			if s.display[i] == displayNone {
				s.width[i] = 0
			}
		}

		children := s.doc.Children(id)
		cells := 0
		for _, c := range children {
			if s.display[c] != displayNone && cellTags.Contains(s.doc.Tag(c)) {
				cells++
			}
		}

		row := -1
		cursor := 0.0
		inlineRun := false
		for _, c := range children {
			switch s.display[c] {
			case displayNone:
				s.width[c] = 0
				s.row[c] = -1
				continue
			case displayBlock:
				s.width[c] = s.explicitOr(int(c), s.width[i])
				row++
				inlineRun = false
			case displayInline:
				s.width[c] = s.inlineWidth(c, s.width[i], cells)
				if !inlineRun || cursor+s.width[c] > s.width[i]+0.5 {
					row++
					cursor = 0
				}
				cursor += s.width[c]
				inlineRun = true
			}
			s.row[c] = row
		}

		ownLines := 0.0
		if s.ownText[i] > 0 && s.width[i] > 0 {
			ownLines = math.Ceil(float64(s.ownText[i]) * charWidth / s.width[i])
		}
		s.ownHeight[i] = ownLines * lineHeight
	}
}

func (s *flowState) inlineWidth(c dom.NodeID, parentWidth float64, cells int) float64 {
	if w := s.explicitW[c]; w > 0 {
		return w
	}
	tag := s.doc.Tag(c)
	if cellTags.Contains(tag) && cells > 0 {
		return parentWidth / float64(cells)
	}
	if tag == "img" {
		return math.Min(parentWidth, attrPx(s.doc, c, "width", imageSize))
	}
	return math.Min(parentWidth, float64(s.textLen[c])*charWidth)
}

// assignHeights sums row heights bottom-up.
func (s *flowState) assignHeights() {
	n := s.doc.Len()
	for i := n - 1; i >= 0; i-- {
		id := dom.NodeID(i)
		if s.display[i] == displayNone {
			s.height[i] = 0
			continue
		}
		if h := s.explicitH[i]; h > 0 {
			s.height[i] = h
			continue
		}
		if s.doc.Tag(id) == "img" {
			s.height[i] = attrPx(s.doc, id, "height", imageSize)
			continue
		}

		total := s.ownHeight[i]
		current, rowHeight := -1, 0.0
		for _, c := range s.doc.Children(id) {
			if s.row[c] < 0 {
				continue
			}
			if s.row[c] != current {
				total += rowHeight
				current, rowHeight = s.row[c], 0
			}
			rowHeight = math.Max(rowHeight, s.height[c])
		}
		s.height[i] = total + rowHeight
	}
}

// assignPositions places rows top-down, left to right within a row.
func (s *flowState) assignPositions() {
	n := s.doc.Len()
	for i := 0; i < n; i++ {
		id := dom.NodeID(i)
		y := s.top[i] + s.ownHeight[i]
		x := s.left[i]
		current, rowHeight := -1, 0.0
		for _, c := range s.doc.Children(id) {
			if s.row[c] < 0 {
				s.top[c], s.left[c] = s.top[i], s.left[i]
				continue
			}
			if s.row[c] != current {
				y += rowHeight
				x = s.left[i]
				current, rowHeight = s.row[c], 0
			}
			s.top[c], s.left[c] = y, x
			x += s.width[c]
			rowHeight = math.Max(rowHeight, s.height[c])
		}
	}
}

func (s *flowState) explicitOr(i int, fallback float64) float64 {
	if s.explicitW[i] > 0 {
		return s.explicitW[i]
	}
	return fallback
}

// inlineStyle returns the declarations of the style attribute, lowercased.
// A later declaration wins unless an earlier one is !important. Styles
// that do not parse count as absent.
func inlineStyle(doc *dom.Document, id dom.NodeID) map[string]string {
	out := make(map[string]string)
	raw, ok := doc.Attr(id, "style")
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return out
	}
	// the last declaration only gets its value once terminated
	if !strings.HasSuffix(raw, ";") {
		raw += ";"
	}
	decls, err := parser.ParseDeclarations(raw)
	if err != nil {
		return out
	}
	important := make(map[string]bool)
	for _, decl := range decls {
		key := strings.ToLower(strings.TrimSpace(decl.Property))
		if important[key] && !decl.Important {
			continue
		}
		out[key] = strings.ToLower(strings.TrimSpace(decl.Value))
		important[key] = important[key] || decl.Important
	}
	return out
}

func parsePx(v string) float64 {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

func attrPx(doc *dom.Document, id dom.NodeID, name string, fallback float64) float64 {
	raw, ok := doc.Attr(id, name)
	if !ok {
		return fallback
	}
	if v := parsePx(raw); v > 0 {
		return v
	}
	return fallback
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
