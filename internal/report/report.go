package report

import (
	"bytes"
	"encoding/xml"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/result-finder/internal/dom"
	"github.com/rohmanhakim/result-finder/internal/wrapper"
	"github.com/rohmanhakim/result-finder/pkg/failure"
	"github.com/rohmanhakim/result-finder/pkg/urlutil"
	"golang.org/x/net/html"
)

// Page is the report of one discovery pass: the chosen selector, every
// selector that selects the same nodes, and one entry per result. Time is
// the duration of the pass in milliseconds.
//
//	<page id=".." time=".." xpath="..">
//	  <xpath>..</xpath>
//	  <srr><rank/><xpath/><url/><text/></srr>
//	</page>
type Page struct {
	XMLName xml.Name `xml:"page"`
	ID      string   `xml:"id,attr"`
	Time    int64    `xml:"time,attr"`
	XPath   string   `xml:"xpath,attr"`
	XPaths  []string `xml:"xpath"`
	Results []Result `xml:"srr"`
}

// Result is one search result. Snippet holds the outer HTML of the node and
// is not part of the XML form.
type Result struct {
	Rank    int    `xml:"rank"`
	XPath   string `xml:"xpath"`
	URL     string `xml:"url"`
	Text    string `xml:"text"`
	Snippet string `xml:"-"`
}

// Build describes the nodes of w. pageID names the page in the report;
// pageURL, when known, resolves relative result links.
func Build(doc *dom.Document, w *wrapper.Wrapper, pageID, pageURL string, elapsed time.Duration) *Page {
	page := &Page{
		ID:     pageID,
		Time:   elapsed.Milliseconds(),
		XPath:  w.XPath(),
		XPaths: append([]string{w.XPath()}, w.Alternatives()...),
	}

	for i, id := range w.Nodes() {
		node := doc.Node(id)
		page.Results = append(page.Results, Result{
			Rank:    i + 1,
			XPath:   doc.UniquePath(id),
			URL:     urlutil.Resolve(pageURL, ResultLink(node)),
			Text:    NodeText(node),
			Snippet: doc.OuterHTML(id),
		})
	}
	return page
}

// ResultLink returns the href of n when n is a link, otherwise the href of
// the first link inside it, or "" when there is none.
func ResultLink(n *html.Node) string {
	if n == nil {
		return ""
	}
	sel := goquery.NewDocumentFromNode(n).Selection
	if sel.Is("a[href]") {
		return sel.AttrOr("href", "")
	}
	return sel.Find("a[href]").First().AttrOr("href", "")
}

// Marshal encodes the page as indented XML with a declaration.
func (p *Page) Marshal() ([]byte, failure.ClassifiedError) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(p); err != nil {
		return nil, &ReportError{
			Message: err.Error(),
			Cause:   ErrCauseEncodeFailed,
		}
	}
	if err := enc.Close(); err != nil {
		return nil, &ReportError{
			Message: err.Error(),
			Cause:   ErrCauseEncodeFailed,
		}
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
