package report

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// altAttributes stand in for their element, first present wins.
var altAttributes = []string{"title", "alt", "href", "src"}

// inline elements add nothing to the text layout.
var inline = map[string]bool{
	"i": true, "a": true, "b": true, "em": true, "span": true,
}

// breaking elements start a new line.
var breaking = map[string]bool{
	"div": true, "br": true, "p": true, "img": true, "tr": true, "li": true,
	"dd": true, "dt": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// skipped elements never contribute text.
var skipped = map[string]bool{
	"script": true, "style": true, "template": true, "noscript": true,
}

var void = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// printable keeps newlines and printable ASCII.
var printable = runes.Map(func(r rune) rune {
	if r == '\n' || r == '\r' || (r >= 0x20 && r <= 0x7e) {
		return r
	}
	return ' '
})

// NodeText returns the readable text inside n: one line per block, the
// title, alt, href or src of an element in place of its tag, only printable
// ASCII, and no blank lines.
func NodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(&sb, c)
	}

	ascii, _, err := transform.String(printable, sb.String())
	if err != nil {
		ascii = sb.String()
	}
	return normalizeLines(ascii)
}

func writeText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(strings.ReplaceAll(n.Data, "\n", " "))
		return
	case html.CommentNode:
		sb.WriteString(" ")
		return
	case html.ElementNode:
	default:
		return
	}

	tag := strings.ToLower(n.Data)
	if skipped[tag] {
		sb.WriteString(" ")
		return
	}

	sb.WriteString(openingText(n, tag))
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(sb, c)
	}
	if !void[tag] && !inline[tag] {
		sb.WriteString(" ")
	}
}

func openingText(n *html.Node, tag string) string {
	for _, name := range altAttributes {
		for _, a := range n.Attr {
			if a.Namespace == "" && a.Key == name {
				return " " + a.Val + " "
			}
		}
	}
	switch {
	case inline[tag]:
		return ""
	case breaking[tag]:
		return "\n"
	default:
		return " "
	}
}

func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
