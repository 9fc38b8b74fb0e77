// Package generator synthesizes boolean queries that try to recall an
// ordered list of target patents. Every strategy implements Generator and
// is scored with the same rank-weighted recall metric.
package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/patents"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/searcher"
)

const (
	DefaultTokenBudget     = 50
	DefaultMaxXorGroups    = 5
	DefaultOptimizerBudget = 20 * time.Second
)

// Input is everything a generator may consult for one task. All fields
// belong to the calling worker and must not be shared across goroutines.
type Input struct {
	Targets  []string
	Patents  *patents.Reader
	Index    *index.SearchIndex
	Searcher *searcher.Searcher
}

// Generator proposes one query for a set of targets. An empty query means
// the strategy found no candidate.
type Generator interface {
	Name() string
	Generate(ctx context.Context, in Input) (string, error)
}

// Score rates query against the ordered targets as
// (1/n) * sum over i of covered(i)/(i+1), where covered(i) counts the first
// i+1 targets present in the results. Empty queries score 0.
func Score(s *searcher.Searcher, query string, targets []string) (float64, error) {
	if query == "" || len(targets) == 0 {
		return 0, nil
	}
	results, err := s.Search(query)
	if err != nil {
		return 0, err
	}
	var total float64
	found := 0
	for i, target := range targets {
		if results.Contains(target) {
			found++
		}
		total += float64(found) / float64(i+1)
	}
	return total / float64(len(targets)), nil
}

// Option tunes the shared limits of the multi-group strategies.
type Option func(*limits)

type limits struct {
	tokenBudget  int
	maxXorGroups int
	timeBudget   time.Duration
}

func defaultLimits(opts []Option) limits {
	l := limits{
		tokenBudget:  DefaultTokenBudget,
		maxXorGroups: DefaultMaxXorGroups,
		timeBudget:   DefaultOptimizerBudget,
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// WithTokenBudget caps the number of terms plus connectives in a query.
func WithTokenBudget(n int) Option {
	return func(l *limits) { l.tokenBudget = n }
}

// WithMaxXorGroups caps how many exclusive groups are XOR-joined; the rest
// are ORed.
func WithMaxXorGroups(n int) Option {
	return func(l *limits) { l.maxXorGroups = n }
}

// WithTimeBudget sets the soft wall-clock limit of the optimizing strategy.
func WithTimeBudget(d time.Duration) Option {
	return func(l *limits) { l.timeBudget = d }
}

// groupSplitter sorts term groups into the OR and XOR halves of a query.
type groupSplitter struct {
	maxXor int
	or     [][]string
	xor    [][]string
}

func (s *groupSplitter) add(terms []string, exclusive bool) {
	if exclusive && len(s.xor) < s.maxXor {
		s.xor = append(s.xor, terms)
		return
	}
	s.or = append(s.or, terms)
}

func (s *groupSplitter) String() string {
	return serializeGroups(s.or, s.xor)
}

// serializeGroups renders "(or-half) XOR xor-half", or whichever half is
// non-empty.
func serializeGroups(orGroups, xorGroups [][]string) string {
	orQuery := joinGroups("OR", orGroups)
	xorQuery := joinGroups("XOR", xorGroups)
	switch {
	case orQuery != "" && xorQuery != "":
		return fmt.Sprintf("(%s) XOR %s", orQuery, xorQuery)
	case orQuery != "":
		return orQuery
	default:
		return xorQuery
	}
}

// joinGroups left-nests groups with op: ((g0 op g1) op g2).
func joinGroups(op string, groups [][]string) string {
	switch len(groups) {
	case 0:
		return ""
	case 1:
		return serializeGroup(groups[0])
	}
	out := fmt.Sprintf("(%s %s %s)", serializeGroup(groups[0]), op, serializeGroup(groups[1]))
	for _, g := range groups[2:] {
		out = fmt.Sprintf("(%s %s %s)", out, op, serializeGroup(g))
	}
	return out
}

func serializeGroup(terms []string) string {
	if len(terms) == 1 {
		return terms[0]
	}
	return "(" + strings.Join(terms, " ") + ")"
}

// termSet is the set of indexed terms one target contains.
type termSet map[string]struct{}

func (s termSet) containsAll(terms []string) bool {
	for _, t := range terms {
		if _, ok := s[t]; !ok {
			return false
		}
	}
	return true
}

// readTargetTerms reads each target's terms in the given categories and
// keeps only terms present in the index session, preserving read order.
// Proposing an unindexed term would make evaluation fail.
func readTargetTerms(in Input, categories patents.Category) ([][]string, error) {
	out := make([][]string, len(in.Targets))
	for i, target := range in.Targets {
		terms, err := in.Patents.ReadTerms(target, categories)
		if err != nil {
			return nil, fmt.Errorf("reading terms of target %s: %w", target, err)
		}
		seen := make(map[string]struct{}, len(terms))
		kept := terms[:0]
		for _, t := range terms {
			if _, dup := seen[t]; dup || !in.Index.HasTerm(t) {
				continue
			}
			seen[t] = struct{}{}
			kept = append(kept, t)
		}
		out[i] = kept
	}
	return out, nil
}

func toSet(terms []string) termSet {
	s := make(termSet, len(terms))
	for _, t := range terms {
		s[t] = struct{}{}
	}
	return s
}
