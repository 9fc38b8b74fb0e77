// Package searcher evaluates parsed queries against an index session and
// ranks the matches by tf-idf. Results are memoized per Searcher.
package searcher

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/query"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/metrics"
)

const (
	DefaultMatchCeiling = 5000
	DefaultResultLimit  = 50
)

// Results is the ordered set of publication numbers a query returned.
type Results struct {
	IDs []string
	set map[string]struct{}
}

func newResults(ids []string) *Results {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return &Results{IDs: ids, set: set}
}

func (r *Results) Contains(publicationNumber string) bool {
	_, ok := r.set[publicationNumber]
	return ok
}

func (r *Results) Len() int {
	return len(r.IDs)
}

// Searcher is bound to one SearchIndex and, like it, is single-goroutine.
type Searcher struct {
	index        *index.SearchIndex
	matchCeiling int
	resultLimit  int
	cache        map[string]*Results
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

type Option func(*Searcher)

// WithMatchCeiling sets the match count above which a query returns
// nothing.
func WithMatchCeiling(n int) Option {
	return func(s *Searcher) { s.matchCeiling = n }
}

// WithResultLimit sets how many results a ranked query keeps.
func WithResultLimit(n int) Option {
	return func(s *Searcher) { s.resultLimit = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Searcher) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Searcher) { s.logger = l }
}

func New(si *index.SearchIndex, opts ...Option) *Searcher {
	s := &Searcher{
		index:        si,
		matchCeiling: DefaultMatchCeiling,
		resultLimit:  DefaultResultLimit,
		cache:        make(map[string]*Results),
		logger:       logger.WithComponent("searcher"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Index returns the session the searcher evaluates against.
func (s *Searcher) Index() *index.SearchIndex {
	return s.index
}

// Search parses and evaluates q. Queries matching more than the match
// ceiling return no results; up to the result limit are returned in id
// order, and larger match sets are ranked. Unknown terms and malformed
// queries are errors and are not cached.
func (s *Searcher) Search(q string) (*Results, error) {
	if r, ok := s.cache[q]; ok {
		s.metrics.ObserveSearch(metrics.OutcomeCached, 0, r.Len())
		return r, nil
	}
	start := time.Now()
	r, outcome, err := s.search(q)
	if err != nil {
		s.metrics.ObserveSearch(metrics.OutcomeError, time.Since(start), 0)
		return nil, err
	}
	s.cache[q] = r
	s.metrics.ObserveSearch(outcome, time.Since(start), r.Len())
	return r, nil
}

func (s *Searcher) search(q string) (*Results, string, error) {
	expr, err := query.Parse(q)
	if err != nil {
		return nil, "", err
	}
	matches, err := evaluate(expr, s.index)
	if err != nil {
		return nil, "", fmt.Errorf("evaluating %q: %w", q, err)
	}

	card := matches.GetCardinality()
	if card > uint64(s.matchCeiling) {
		s.logger.Debug("query too broad", "query", q, "matches", card)
		return newResults(nil), metrics.OutcomeTooBroad, nil
	}
	if card <= uint64(s.resultLimit) {
		ids, err := s.publicationNumbers(matches.ToArray())
		return newResults(ids), metrics.OutcomeDirect, err
	}

	ranked, err := Rank(matches, query.Terms(expr), s.index, s.resultLimit)
	if err != nil {
		return nil, "", fmt.Errorf("ranking %q: %w", q, err)
	}
	docIDs := make([]uint32, len(ranked))
	for i, d := range ranked {
		docIDs[i] = d.ID
	}
	ids, err := s.publicationNumbers(docIDs)
	return newResults(ids), metrics.OutcomeRanked, err
}

func (s *Searcher) publicationNumbers(docIDs []uint32) ([]string, error) {
	out := make([]string, len(docIDs))
	for i, id := range docIDs {
		pn, ok := s.index.PublicationNumber(id)
		if !ok {
			return nil, fmt.Errorf("document id %d outside id table", id)
		}
		out[i] = pn
	}
	return out, nil
}

// ClearCache drops memoized results. The index session cache is separate.
func (s *Searcher) ClearCache() {
	clear(s.cache)
}
