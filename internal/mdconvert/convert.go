package mdconvert

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rohmanhakim/result-finder/internal/metadata"
	"github.com/rohmanhakim/result-finder/internal/report"
	"github.com/rohmanhakim/result-finder/pkg/failure"
)

/*
Digest layout
- A title and the page, selector and timing of the pass
- One "## Result N" section per result, in rank order
- The result link below each section when there is one

Snippets are sanitized before conversion: scripts, styles, event handlers
and unknown tags are dropped. Links are kept as written on the page.
*/
type Converter struct {
	policy       *bluemonday.Policy
	conv         *converter.Converter
	metadataSink metadata.MetadataSink
}

func NewConverter(metadataSink metadata.MetadataSink) *Converter {
	return &Converter{
		policy: bluemonday.UGCPolicy(),
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		metadataSink: metadataSink,
	}
}

func (c *Converter) Convert(page *report.Page) (Digest, failure.ClassifiedError) {
	digest, err := c.convert(page)
	if err != nil {
		var conversionError *ConversionError
		errors.As(err, &conversionError)

		c.metadataSink.RecordError(
			time.Now(),
			"mdconvert",
			"Converter.Convert",
			mapConversionErrorToMetadataCause(*conversionError),
			err.Error(),
			[]metadata.Attribute{},
		)
		return Digest{}, conversionError
	}
	return digest, nil
}

func (c *Converter) convert(page *report.Page) (Digest, *ConversionError) {
	if page == nil {
		return Digest{}, &ConversionError{
			Message: "cannot convert nil report",
			Cause:   ErrCauseEmptyReport,
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Search results\n\n")
	fmt.Fprintf(&buf, "- Page: %s\n", page.ID)
	fmt.Fprintf(&buf, "- Selector: `%s`\n", page.XPath)
	fmt.Fprintf(&buf, "- Results: %d\n", len(page.Results))
	fmt.Fprintf(&buf, "- Time: %d ms\n", page.Time)

	var links []LinkRef
	for _, r := range page.Results {
		sanitized := c.policy.Sanitize(r.Snippet)
		md, err := c.conv.ConvertString(sanitized)
		if err != nil {
			return Digest{}, &ConversionError{
				Message: fmt.Sprintf("result %d: %v", r.Rank, err),
				Cause:   ErrCauseConversionFailure,
			}
		}

		fmt.Fprintf(&buf, "\n## Result %d\n\n", r.Rank)
		if body := strings.TrimSpace(md); body != "" {
			buf.WriteString(body)
			buf.WriteString("\n")
		}
		if r.URL != "" {
			fmt.Fprintf(&buf, "\n<%s>\n", r.URL)
		}

		snippetLinks, err := extractLinkRefs(sanitized, r.Rank)
		if err != nil {
			return Digest{}, &ConversionError{
				Message: fmt.Sprintf("result %d: %v", r.Rank, err),
				Cause:   ErrCauseConversionFailure,
			}
		}
		links = append(links, snippetLinks...)
	}

	return NewDigest(buf.Bytes(), links, len(page.Results)), nil
}

// extractLinkRefs returns the links and images of a sanitized snippet in
// document order.
func extractLinkRefs(snippet string, rank int) ([]LinkRef, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snippet))
	if err != nil {
		return nil, err
	}

	var linkRefs []LinkRef
	doc.Find("a[href], img[src]").Each(func(i int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "a":
			href, _ := s.Attr("href")
			linkRefs = append(linkRefs, toLinkRef("a", href, rank))
		case "img":
			src, _ := s.Attr("src")
			linkRefs = append(linkRefs, toLinkRef("img", src, rank))
		}
	})
	return linkRefs, nil
}

func toLinkRef(tagName, raw string, rank int) LinkRef {
	var kind LinkKind
	switch strings.ToLower(tagName) {
	case "img":
		kind = KindImage
	case "a":
		if strings.HasPrefix(raw, "#") {
			kind = KindAnchor
		} else {
			kind = KindNavigation
		}
	default:
		kind = KindNavigation
	}
	return NewLinkRef(raw, kind, rank)
}
