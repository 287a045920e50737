package advisor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/result-finder/internal/dom"
	"golang.org/x/net/html"
)

// maxAncestorLevel bounds how far up the parent strategy climbs.
const maxAncestorLevel = 10

// structureSelector picks headings and links below a result node.
const structureSelector = "h1, h2, h3, h4, h5, h6, a"

// stepNames returns the bare tag name followed by one attribute-qualified
// name per attribute, e.g. div, div[@id='main'], div[@class='list'].
func stepNames(doc *dom.Document, id dom.NodeID) []string {
	tag := doc.Tag(id)
	names := []string{tag}
	for _, a := range doc.Attributes(id) {
		names = append(names, fmt.Sprintf("%s[@%s='%s']", tag, a.Key, a.Val))
	}
	return names
}

// byAncestor selects the node through one of its ancestors, e.g.
// //ul[@class='results']/li or //div[@id='main']/ul/li.
func byAncestor(doc *dom.Document, first dom.NodeID) []string {
	var out []string
	child := doc.Tag(first)
	parent := doc.Parent(first)

	inner := ""
	cur := parent
	for level := 0; cur != dom.NoNode && doc.Tag(cur) != "html" && level < maxAncestorLevel; level++ {
		for _, name := range stepNames(doc, cur) {
			out = append(out, "//"+name+inner+"/"+child)
		}
		inner = "/" + doc.Tag(cur) + inner
		cur = doc.Parent(cur)
	}
	return out
}

type attrValue struct {
	name  string
	value string
}

// byOwnAttribute selects the node by an attribute every node carries. With
// contains set, whitespace separated tokens are tried one by one.
func byOwnAttribute(doc *dom.Document, nodes []dom.NodeID, contains bool) []string {
	first := nodes[0]
	var attrs []attrValue
	for _, a := range doc.Attributes(first) {
		if contains {
			for _, v := range strings.Split(a.Val, " ") {
				attrs = append(attrs, attrValue{name: a.Key, value: v})
			}
			continue
		}
		attrs = append(attrs, attrValue{name: a.Key, value: a.Val})
	}

	tag := doc.Tag(first)
	var out []string
	for _, a := range attrs {
		if !allShareAttribute(doc, nodes, a, contains) {
			continue
		}
		if contains {
			out = append(out, fmt.Sprintf(`//%s[contains(@%s,"%s")]`, tag, a.name, a.value))
		} else {
			out = append(out, fmt.Sprintf(`//%s[@%s="%s"]`, tag, a.name, a.value))
		}
	}
	return out
}

func allShareAttribute(doc *dom.Document, nodes []dom.NodeID, want attrValue, contains bool) bool {
	for _, n := range nodes {
		v, ok := doc.Attr(n, want.name)
		if !ok {
			return false
		}
		if contains {
			if !tokenPresent(v, want.value) {
				return false
			}
		} else if v != want.value {
			return false
		}
	}
	return true
}

func tokenPresent(list, token string) bool {
	for _, t := range strings.Split(list, " ") {
		if t == token {
			return true
		}
	}
	return false
}

// byStructure selects the node by the headings and links it contains,
// e.g. //li[.//h3/a] or //li[./div/h3].
func byStructure(doc *dom.Document, first dom.NodeID) []string {
	top := doc.Node(first)
	if top == nil {
		return nil
	}

	var structures []string
	goquery.NewDocumentFromNode(top).Find(structureSelector).Each(func(_ int, el *goquery.Selection) {
		name := goquery.NodeName(el)
		if el.ChildrenFiltered("a").Length() == 1 {
			structures = append(structures, "//"+name+"/a")
		} else if el.Parent().Is("a") {
			structures = append(structures, "//a/"+name)
		}
		structures = append(structures, pathBelow(top, el.Get(0)))
	})

	tag := doc.Tag(first)
	out := make([]string, 0, len(structures))
	for _, s := range structures {
		out = append(out, "//"+tag+"[."+s+"]")
	}
	return out
}

// pathBelow returns the tag path from top (exclusive) down to n, e.g. /div/h3.
func pathBelow(top, n *html.Node) string {
	var steps []string
	for p := n; p != nil && p != top; p = p.Parent {
		steps = append(steps, strings.ToLower(p.Data))
	}
	var sb strings.Builder
	for i := len(steps) - 1; i >= 0; i-- {
		sb.WriteString("/")
		sb.WriteString(steps[i])
	}
	return sb.String()
}

// combine swaps the trailing step of every parent selector for each
// node selector, e.g. //div[@id='main']/ul/li with //li[@class="r"]
// gives //div[@id='main']/ul/li[@class="r"].
func combine(parents, selves []string) []string {
	out := make([]string, 0, len(parents)*len(selves))
	for _, p := range parents {
		head := p[:strings.LastIndex(p, "/")]
		for _, s := range selves {
			out = append(out, head+"/"+strings.TrimPrefix(s, "//"))
		}
	}
	return out
}
