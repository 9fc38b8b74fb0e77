package generator

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/patents"
)

// BestEffort grows a query one term at a time, opening a group for the
// next target the current query misses, and keeps the best-scoring prefix.
type BestEffort struct {
	categories patents.Category
	limits     limits
}

func NewBestEffort(categories patents.Category, opts ...Option) *BestEffort {
	return &BestEffort{categories: categories, limits: defaultLimits(opts)}
}

func (g *BestEffort) Name() string {
	return fmt.Sprintf("best-effort[%s]", g.categories)
}

type bestEffortRun struct {
	in    Input
	sets  []termSet
	terms [][]string // per target, ascending cardinality
	order []int      // targets by ascending rarest-term cardinality

	groups   [][]string
	inGroup  map[string]struct{}
	skipped  map[int]struct{}
	maxXor   int
	best     string
	maxScore float64
}

func (g *BestEffort) Generate(ctx context.Context, in Input) (string, error) {
	termsByTarget, err := readTargetTerms(in, g.categories)
	if err != nil {
		return "", err
	}
	run := &bestEffortRun{
		in:      in,
		sets:    make([]termSet, len(termsByTarget)),
		terms:   termsByTarget,
		inGroup: make(map[string]struct{}),
		skipped: make(map[int]struct{}),
		maxXor:  g.limits.maxXorGroups,
	}
	if err := run.prepare(); err != nil {
		return "", err
	}

	remaining := g.limits.tokenBudget
	previous := -1
	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		q, err := run.rescore()
		if err != nil {
			return "", err
		}

		current := -1
		last := len(run.groups) - 1
		_, previousSkipped := run.skipped[previous]
		if last >= 0 && len(run.groups[last]) < 2 && !previousSkipped {
			current = previous
		} else if current, err = run.nextMissedTarget(q); err != nil {
			return "", err
		}
		if current < 0 {
			break
		}

		cost := 1
		if last >= 0 && current != previous {
			cost++
		}
		if cost > remaining {
			break
		}

		var term string
		if current != previous {
			term = run.rarestUnused(current)
		} else if term, err = run.narrowest(current, run.groups[last]); err != nil {
			return "", err
		}
		if term == "" {
			run.skipped[current] = struct{}{}
			continue
		}

		if current != previous {
			run.groups = append(run.groups, nil)
			last++
		}
		run.groups[last] = append(run.groups[last], term)
		run.inGroup[term] = struct{}{}
		remaining -= cost
		previous = current
	}

	if _, err := run.rescore(); err != nil {
		return "", err
	}
	return run.best, nil
}

// prepare sorts each target's terms by ascending cardinality and orders the
// targets by the cardinality of their rarest term. Targets without terms
// come last.
func (r *bestEffortRun) prepare() error {
	cards := make(map[string]uint64)
	rarest := make([]uint64, len(r.terms))
	for i, terms := range r.terms {
		r.sets[i] = toSet(terms)
		for _, t := range terms {
			if _, ok := cards[t]; ok {
				continue
			}
			c, err := r.in.Index.TermCardinality(t)
			if err != nil {
				return err
			}
			cards[t] = c
		}
		sort.SliceStable(terms, func(a, b int) bool { return cards[terms[a]] < cards[terms[b]] })
		rarest[i] = ^uint64(0)
		if len(terms) > 0 {
			rarest[i] = cards[terms[0]]
		}
	}
	r.order = make([]int, len(r.terms))
	for i := range r.order {
		r.order[i] = i
	}
	sort.SliceStable(r.order, func(a, b int) bool { return rarest[r.order[a]] < rarest[r.order[b]] })
	return nil
}

// rescore serializes the current groups, scores the query and remembers it
// if it beats every earlier prefix.
func (r *bestEffortRun) rescore() (string, error) {
	q := r.query()
	score, err := Score(r.in.Searcher, q, r.in.Targets)
	if err != nil {
		return "", err
	}
	if score > r.maxScore {
		r.best, r.maxScore = q, score
	}
	return q, nil
}

// nextMissedTarget returns the first target, in processing order, that is
// neither skipped nor returned by q, or -1.
func (r *bestEffortRun) nextMissedTarget(q string) (int, error) {
	returned := func(string) bool { return false }
	if q != "" {
		results, err := r.in.Searcher.Search(q)
		if err != nil {
			return -1, err
		}
		returned = results.Contains
	}
	for _, i := range r.order {
		if _, ok := r.skipped[i]; ok {
			continue
		}
		if !returned(r.in.Targets[i]) {
			return i, nil
		}
	}
	return -1, nil
}

// rarestUnused returns the lowest-cardinality term of target not already
// used by any group.
func (r *bestEffortRun) rarestUnused(target int) string {
	for _, t := range r.terms[target] {
		if _, used := r.inGroup[t]; !used {
			return t
		}
	}
	return ""
}

// narrowest returns the term of target that leaves the fewest documents
// when intersected with the group's terms.
func (r *bestEffortRun) narrowest(target int, group []string) (string, error) {
	acc, err := r.in.Index.TermBitset(group[0])
	if err != nil {
		return "", err
	}
	acc = acc.Clone()
	for _, t := range group[1:] {
		bm, err := r.in.Index.TermBitset(t)
		if err != nil {
			return "", err
		}
		acc.And(bm)
	}

	best := ""
	bestCard := ^uint64(0)
	for _, t := range r.terms[target] {
		if slices.Contains(group, t) {
			continue
		}
		bm, err := r.in.Index.TermBitset(t)
		if err != nil {
			return "", err
		}
		if c := acc.AndCardinality(bm); c < bestCard {
			best, bestCard = t, c
		}
	}
	return best, nil
}

// query marks a group exclusive when every target it matches is matched by
// no other group.
func (r *bestEffortRun) query() string {
	matched := make([][]int, len(r.groups))
	groupsPerTarget := make([]int, len(r.sets))
	for g, terms := range r.groups {
		for i, set := range r.sets {
			if set.containsAll(terms) {
				matched[g] = append(matched[g], i)
				groupsPerTarget[i]++
			}
		}
	}

	split := groupSplitter{maxXor: r.maxXor}
	for g, terms := range r.groups {
		exclusive := true
		for _, i := range matched[g] {
			if groupsPerTarget[i] > 1 {
				exclusive = false
				break
			}
		}
		split.add(terms, exclusive)
	}
	return split.String()
}
