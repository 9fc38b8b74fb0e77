package index

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/store"
)

// SearchIndex is one session's lazily cached view of the index. It is not
// safe for concurrent use; create one per goroutine. Returned bitmaps and
// count maps may be shared with other sessions and must not be modified.
type SearchIndex struct {
	reader *Reader
	cursor *store.Reader

	bitsets       map[string]*roaring.Bitmap
	counts        map[string]map[uint32]uint16
	cardinalities map[string]uint64
}

// TermBitset returns the postings of term.
func (s *SearchIndex) TermBitset(term string) (*roaring.Bitmap, error) {
	if bm, ok := s.bitsets[term]; ok {
		return bm, nil
	}
	if !isTermKey(term) {
		return nil, unknownTerm(term)
	}
	bm, err := s.reader.decodeBitmap(s.cursor, term)
	if err != nil {
		return nil, err
	}
	s.bitsets[term] = bm
	return bm, nil
}

// TermCounts returns docID -> occurrence count for a free-text term. The
// keys are a subset of TermBitset(term). Classification terms have none.
func (s *SearchIndex) TermCounts(term string) (map[uint32]uint16, error) {
	if counts, ok := s.counts[term]; ok {
		return counts, nil
	}
	if !isTermKey(term) {
		return nil, unknownTerm(term)
	}
	counts, err := s.reader.decodeCounts(s.cursor, term)
	if err != nil {
		return nil, err
	}
	s.counts[term] = counts
	return counts, nil
}

// TermCardinality returns the number of documents containing term.
func (s *SearchIndex) TermCardinality(term string) (uint64, error) {
	if c, ok := s.cardinalities[term]; ok {
		return c, nil
	}
	bm, err := s.TermBitset(term)
	if err != nil {
		return 0, err
	}
	c := bm.GetCardinality()
	s.cardinalities[term] = c
	return c, nil
}

// TermSelectivity returns cardinality / N.
func (s *SearchIndex) TermSelectivity(term string) (float64, error) {
	c, err := s.TermCardinality(term)
	if err != nil {
		return 0, err
	}
	return float64(c) / float64(s.reader.DocumentCount()), nil
}

// HasTerm reports whether term is indexed without reading it.
func (s *SearchIndex) HasTerm(term string) bool {
	if _, ok := s.bitsets[term]; ok {
		return true
	}
	return s.reader.HasTerm(term)
}

func (s *SearchIndex) DocumentCount() int {
	return s.reader.DocumentCount()
}

func (s *SearchIndex) PublicationNumber(id uint32) (string, bool) {
	return s.reader.PublicationNumber(id)
}

func (s *SearchIndex) DocumentID(publicationNumber string) (uint32, bool) {
	return s.reader.DocumentID(publicationNumber)
}

// ClearCache drops every cached bitmap, count map and cardinality.
func (s *SearchIndex) ClearCache() {
	clear(s.bitsets)
	clear(s.counts)
	clear(s.cardinalities)
}

// Close releases the session's file handle.
func (s *SearchIndex) Close() error {
	return s.cursor.Close()
}
