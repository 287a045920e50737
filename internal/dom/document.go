package dom

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rohmanhakim/result-finder/pkg/failure"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

/*
Document is a read-only snapshot of a parsed HTML tree.

Every element node is assigned a NodeID equal to its position in a preorder
walk, starting at 0 for the root element. Because the numbering is preorder,
the descendants of a node occupy the contiguous ID range (id, end(id)), which
makes ancestor tests and descendant enumeration O(1) per node.

The snapshot never mutates the underlying *html.Node tree. All walks are
iterative so that deep or malformed trees cannot exhaust the stack.
*/
type Document struct {
	root   *html.Node
	nodes  []*html.Node
	ids    map[*html.Node]NodeID
	parent []NodeID
	depth  []int
	end    []NodeID
}

type NodeID int

const NoNode NodeID = -1

// Parse decodes and parses an HTML document. The charset comes from
// contentType when it names one, otherwise it is detected from the bytes.
func Parse(r io.Reader, contentType string) (*Document, failure.ClassifiedError) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &DomError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseReadFailure,
		}
	}

	reader, decodeErr := decodingReader(data, contentType)
	if decodeErr != nil {
		return nil, decodeErr
	}

	root, err := html.Parse(reader)
	if err != nil {
		return nil, &DomError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseParseFailure,
		}
	}

	doc := NewDocument(root)
	if doc.Len() == 0 {
		return nil, &DomError{
			Message:   "no element nodes",
			Retryable: false,
			Cause:     ErrCauseNoRootElement,
		}
	}
	return doc, nil
}

// ParseString is Parse for in-memory UTF-8 markup.
func ParseString(markup string) (*Document, failure.ClassifiedError) {
	return Parse(strings.NewReader(markup), "text/html; charset=utf-8")
}

func decodingReader(data []byte, contentType string) (io.Reader, failure.ClassifiedError) {
	if strings.Contains(strings.ToLower(contentType), "charset=") {
		r, err := charset.NewReader(bytes.NewReader(data), contentType)
		if err != nil {
			return nil, &DomError{
				Message:   err.Error(),
				Retryable: false,
				Cause:     ErrCauseCharsetFailure,
			}
		}
		return r, nil
	}

	if utf8.Valid(data) {
		return bytes.NewReader(data), nil
	}

	detected := DetectCharset(data)
	r, err := charset.NewReader(bytes.NewReader(data), "text/html; charset="+detected)
	if err != nil {
		// unknown label, let the html parser cope with raw bytes
		return bytes.NewReader(data), nil
	}
	return r, nil
}

// DetectCharset returns the most likely charset label of data, "utf-8" when
// detection fails.
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// NewDocument snapshots the element nodes reachable from root.
func NewDocument(root *html.Node) *Document {
	doc := &Document{
		root: root,
		ids:  make(map[*html.Node]NodeID),
	}

	type frame struct {
		node   *html.Node
		parent NodeID
		depth  int
	}

	// preorder walk with an explicit stack; children are pushed in reverse
	// so they pop in document order
	stack := []frame{{node: root, parent: NoNode, depth: 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		parent := f.parent
		depth := f.depth
		if f.node.Type == html.ElementNode {
			id := NodeID(len(doc.nodes))
			doc.nodes = append(doc.nodes, f.node)
			doc.ids[f.node] = id
			doc.parent = append(doc.parent, f.parent)
			doc.depth = append(doc.depth, f.depth)
			doc.end = append(doc.end, id+1)
			parent = id
			depth = f.depth + 1
		}

		var children []*html.Node
		for c := f.node.FirstChild; c != nil; c = c.NextSibling {
			children = append(children, c)
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: children[i], parent: parent, depth: depth})
		}
	}

	// children carry larger IDs than their parent, so a reverse sweep
	// settles every subtree end before its parent is visited
	for id := len(doc.nodes) - 1; id > 0; id-- {
		p := doc.parent[id]
		if p != NoNode && doc.end[id] > doc.end[p] {
			doc.end[p] = doc.end[id]
		}
	}

	return doc
}

func (d *Document) Root() *html.Node {
	return d.root
}

// Len returns the number of element nodes.
func (d *Document) Len() int {
	return len(d.nodes)
}

func (d *Document) Node(id NodeID) *html.Node {
	if !d.valid(id) {
		return nil
	}
	return d.nodes[id]
}

func (d *Document) ID(n *html.Node) (NodeID, bool) {
	id, ok := d.ids[n]
	return id, ok
}

func (d *Document) Parent(id NodeID) NodeID {
	if !d.valid(id) {
		return NoNode
	}
	return d.parent[id]
}

// Depth is the number of element ancestors; the root element has depth 0.
func (d *Document) Depth(id NodeID) int {
	if !d.valid(id) {
		return -1
	}
	return d.depth[id]
}

// Tag returns the lowercase element name.
func (d *Document) Tag(id NodeID) string {
	if !d.valid(id) {
		return ""
	}
	return strings.ToLower(d.nodes[id].Data)
}

func (d *Document) Attr(id NodeID, name string) (string, bool) {
	if !d.valid(id) {
		return "", false
	}
	for _, a := range d.nodes[id].Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (d *Document) Attributes(id NodeID) []html.Attribute {
	if !d.valid(id) {
		return nil
	}
	return d.nodes[id].Attr
}

// Children returns the element children of id in document order.
func (d *Document) Children(id NodeID) []NodeID {
	if !d.valid(id) {
		return nil
	}
	var out []NodeID
	for c := id + 1; c < d.end[id]; c = d.end[c] {
		out = append(out, c)
	}
	return out
}

// Descendants returns every element below id in document order.
func (d *Document) Descendants(id NodeID) []NodeID {
	if !d.valid(id) {
		return nil
	}
	out := make([]NodeID, 0, int(d.end[id]-id-1))
	for c := id + 1; c < d.end[id]; c++ {
		out = append(out, c)
	}
	return out
}

// Ancestors returns id followed by its ancestors up to the root element.
func (d *Document) Ancestors(id NodeID) []NodeID {
	var out []NodeID
	for cur := id; d.valid(cur); cur = d.parent[cur] {
		out = append(out, cur)
	}
	return out
}

// IsAncestor reports whether a is a proper ancestor of n.
func (d *Document) IsAncestor(a, n NodeID) bool {
	if !d.valid(a) || !d.valid(n) {
		return false
	}
	return a < n && n < d.end[a]
}

// SimplePath returns the predicate-free tag path from the root, e.g.
// /html/body/div/a.
func (d *Document) SimplePath(id NodeID) string {
	ancestors := d.Ancestors(id)
	var sb strings.Builder
	for i := len(ancestors) - 1; i >= 0; i-- {
		sb.WriteByte('/')
		sb.WriteString(d.Tag(ancestors[i]))
	}
	return sb.String()
}

// UniquePath returns a positional path that selects exactly id, e.g.
// /html/body/div[2]/p[3]. The index is left out when the element is the
// only sibling with its name.
func (d *Document) UniquePath(id NodeID) string {
	ancestors := d.Ancestors(id)
	var sb strings.Builder
	for i := len(ancestors) - 1; i >= 0; i-- {
		cur := ancestors[i]
		tag := d.Tag(cur)
		sb.WriteByte('/')
		sb.WriteString(tag)

		parent := d.parent[cur]
		if parent == NoNode {
			continue
		}
		position, total := 0, 0
		for _, sibling := range d.Children(parent) {
			if d.Tag(sibling) != tag {
				continue
			}
			total++
			if sibling == cur {
				position = total
			}
		}
		if total > 1 {
			sb.WriteString("[" + strconv.Itoa(position) + "]")
		}
	}
	return sb.String()
}

// RelativeName returns the path from ctx down to id, e.g. ./div/p. It
// returns "." when id == ctx and "" when ctx is not an ancestor of id.
func (d *Document) RelativeName(ctx, id NodeID) string {
	if ctx == id {
		return "."
	}
	if !d.IsAncestor(ctx, id) {
		return ""
	}
	var steps []string
	for cur := id; cur != ctx; cur = d.parent[cur] {
		steps = append(steps, d.Tag(cur))
	}
	var sb strings.Builder
	sb.WriteByte('.')
	for i := len(steps) - 1; i >= 0; i-- {
		sb.WriteByte('/')
		sb.WriteString(steps[i])
	}
	return sb.String()
}

// OuterHTML renders the element and its subtree.
func (d *Document) OuterHTML(id NodeID) string {
	n := d.Node(id)
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

func (d *Document) String() string {
	return fmt.Sprintf("Document{elements: %d}", len(d.nodes))
}

func (d *Document) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(d.nodes)
}
