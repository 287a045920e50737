package attrtable

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/rohmanhakim/result-finder/internal/dom"
	"github.com/rohmanhakim/result-finder/pkg/failure"
)

/*
Table records, for a set of N candidate nodes, which attribute predicates on
their ancestors (the nodes themselves included) select which subset of the
candidates. Subsets are bit sets of length N indexed by candidate position.

	depth -> predicate -> {candidate indices reachable through a matching ancestor}

Observations of the same (depth, predicate) are OR-combined. Depth is the
ancestor's element depth (root element = 0), which lines up with the step
index of an absolute path expression.
*/
type Table struct {
	size    int
	buckets map[int]map[string]*bitset.BitSet
}

type Entry struct {
	Depth     int
	Predicate string
	Count     int
}

func New(size int) *Table {
	return &Table{
		size:    size,
		buckets: make(map[int]map[string]*bitset.BitSet),
	}
}

// Build tabulates the ancestor attributes of nodes and collapses predicates
// that select an identical subset (see FilterAttributes).
func Build(doc *dom.Document, nodes []dom.NodeID) (*Table, failure.ClassifiedError) {
	t := New(len(nodes))

	reach := make(map[dom.NodeID]*bitset.BitSet)
	for i, n := range nodes {
		for _, a := range doc.Ancestors(n) {
			set, ok := reach[a]
			if !ok {
				set = bitset.New(uint(len(nodes)))
				reach[a] = set
			}
			set.Set(uint(i))
		}
	}

	ancestors := make([]dom.NodeID, 0, len(reach))
	for a := range reach {
		ancestors = append(ancestors, a)
	}
	slices.Sort(ancestors)

	for _, a := range ancestors {
		depth := doc.Depth(a)
		for _, pred := range Predicates(doc, a) {
			if err := t.Add(depth, pred, reach[a]); err != nil {
				return nil, err
			}
		}
	}

	t.FilterAttributes()
	return t, nil
}

// Size is the number of candidate nodes the table was built for.
func (t *Table) Size() int {
	return t.size
}

// Add OR-combines subset into the observation (depth, pred).
func (t *Table) Add(depth int, pred string, subset *bitset.BitSet) failure.ClassifiedError {
	if subset.Len() != uint(t.size) {
		return &TableError{
			Message:   fmt.Sprintf("subset of length %d in a table of %d nodes", subset.Len(), t.size),
			Retryable: false,
			Cause:     ErrCauseInconsistentState,
		}
	}
	bucket, ok := t.buckets[depth]
	if !ok {
		bucket = make(map[string]*bitset.BitSet)
		t.buckets[depth] = bucket
	}
	if existing, ok := bucket[pred]; ok {
		existing.InPlaceUnion(subset)
		return nil
	}
	bucket[pred] = subset.Clone()
	return nil
}

// Subset returns a copy of the subset recorded for (depth, pred), nil when
// there is none.
func (t *Table) Subset(depth int, pred string) *bitset.BitSet {
	if set, ok := t.buckets[depth][pred]; ok {
		return set.Clone()
	}
	return nil
}

// Len returns the number of (depth, predicate) entries.
func (t *Table) Len() int {
	n := 0
	for _, bucket := range t.buckets {
		n += len(bucket)
	}
	return n
}

// FilterAttributes keeps one predicate per distinct subset. Entries are
// visited deepest first, shorter predicate first; a subset already produced
// by an earlier entry drops the later one.
func (t *Table) FilterAttributes() {
	entries := t.sortedBy(func(a, b Entry) int {
		if a.Depth != b.Depth {
			return b.Depth - a.Depth
		}
		if len(a.Predicate) != len(b.Predicate) {
			return len(a.Predicate) - len(b.Predicate)
		}
		return strings.Compare(a.Predicate, b.Predicate)
	})

	seen := dom.NewSet[string]()
	for _, e := range entries {
		key := t.buckets[e.Depth][e.Predicate].String()
		if seen.Contains(key) {
			delete(t.buckets[e.Depth], e.Predicate)
			continue
		}
		seen.Add(key)
	}
	t.removeEmpty()
}

// Filter keeps only the entries for which keep returns true.
func (t *Table) Filter(keep func(Entry) bool) {
	for depth, bucket := range t.buckets {
		for pred, set := range bucket {
			if !keep(Entry{Depth: depth, Predicate: pred, Count: int(set.Count())}) {
				delete(bucket, pred)
			}
		}
	}
	t.removeEmpty()
}

// Sorted returns the entries by descending match count, then descending
// depth, then descending predicate length.
func (t *Table) Sorted() []Entry {
	return t.sortedBy(func(a, b Entry) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		if a.Depth != b.Depth {
			return b.Depth - a.Depth
		}
		if len(a.Predicate) != len(b.Predicate) {
			return len(b.Predicate) - len(a.Predicate)
		}
		return strings.Compare(a.Predicate, b.Predicate)
	})
}

func (t *Table) sortedBy(cmp func(a, b Entry) int) []Entry {
	var entries []Entry
	for depth, bucket := range t.buckets {
		for pred, set := range bucket {
			entries = append(entries, Entry{Depth: depth, Predicate: pred, Count: int(set.Count())})
		}
	}
	slices.SortFunc(entries, cmp)
	return entries
}

func (t *Table) removeEmpty() {
	for depth, bucket := range t.buckets {
		if len(bucket) == 0 {
			delete(t.buckets, depth)
		}
	}
}
