package mdconvert

// Digest is the Markdown rendition of a report: one section per result and
// the links found in the result snippets.
type Digest struct {
	markdown []byte
	links    []LinkRef
	entries  int
}

func NewDigest(markdown []byte, links []LinkRef, entries int) Digest {
	return Digest{
		markdown: markdown,
		links:    links,
		entries:  entries,
	}
}

func (d *Digest) Markdown() []byte {
	return d.markdown
}

func (d *Digest) Links() []LinkRef {
	return d.links
}

// Entries is the number of result sections.
func (d *Digest) Entries() int {
	return d.entries
}

type LinkKind string

const (
	KindNavigation LinkKind = "navigation"
	KindImage      LinkKind = "image"
	KindAnchor     LinkKind = "anchor"
)

type LinkRef struct {
	raw  string
	kind LinkKind
	rank int
}

func NewLinkRef(raw string, kind LinkKind, rank int) LinkRef {
	return LinkRef{
		raw:  raw,
		kind: kind,
		rank: rank,
	}
}

func (l *LinkRef) Raw() string {
	return l.raw
}

func (l *LinkRef) Kind() LinkKind {
	return l.kind
}

// Rank is the rank of the result the link was found in.
func (l *LinkRef) Rank() int {
	return l.rank
}
