package index

import (
	"sort"
	"sync"
)

// accumulator collects term -> docID -> count for one scan. Workers fill a
// private accumulator and merge it into the shared one under its lock.
type accumulator struct {
	mu    sync.Mutex
	terms map[string]map[uint32]uint16
}

func newAccumulator() *accumulator {
	return &accumulator{terms: make(map[string]map[uint32]uint16)}
}

func (a *accumulator) add(term string, id uint32, count uint16) {
	docs, ok := a.terms[term]
	if !ok {
		docs = make(map[uint32]uint16)
		a.terms[term] = docs
	}
	docs[id] = count
}

func (a *accumulator) merge(local *accumulator) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for term, docs := range local.terms {
		existing, ok := a.terms[term]
		if !ok {
			a.terms[term] = docs
			continue
		}
		for id, count := range docs {
			existing[id] = count
		}
	}
}

// sortedTerms returns the accumulated terms in write order.
func (a *accumulator) sortedTerms() []string {
	terms := make([]string, 0, len(a.terms))
	for term := range a.terms {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

type posting struct {
	id    uint32
	count uint16
}

// postings returns term's documents in ascending id order.
func (a *accumulator) postings(term string) []posting {
	docs := a.terms[term]
	out := make([]posting, 0, len(docs))
	for id, count := range docs {
		out = append(out, posting{id: id, count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// frequencies counts, per term, the documents that contain it.
type frequencies struct {
	mu     sync.Mutex
	counts map[string]uint32
}

func newFrequencies() *frequencies {
	return &frequencies{counts: make(map[string]uint32)}
}

func (f *frequencies) merge(local map[string]uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for term, n := range local {
		f.counts[term] += n
	}
}

// partition splits the terms into n groups by dealing them round-robin in
// descending frequency order, so every group gets a similar share of
// frequent and rare terms.
func (f *frequencies) partition(n int) []map[string]struct{} {
	terms := make([]string, 0, len(f.counts))
	for term := range f.counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		ci, cj := f.counts[terms[i]], f.counts[terms[j]]
		if ci != cj {
			return ci > cj
		}
		return terms[i] < terms[j]
	})
	groups := make([]map[string]struct{}, n)
	for i := range groups {
		groups[i] = make(map[string]struct{}, len(terms)/n+1)
	}
	for rank, term := range terms {
		groups[rank%n][term] = struct{}{}
	}
	return groups
}
