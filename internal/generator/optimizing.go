package generator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/patents"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/logger"
)

// maxCandidateSelectivity excludes terms too common to narrow a group.
const maxCandidateSelectivity = 0.01

// Optimizing partitions the targets into groups, gives each group the rare
// terms all its members share, and hill-climbs over partitions.
type Optimizing struct {
	categories patents.Category
	limits     limits
}

func NewOptimizing(categories patents.Category, opts ...Option) *Optimizing {
	return &Optimizing{
		categories: categories,
		limits:     defaultLimits(opts),
	}
}

func (g *Optimizing) Name() string {
	return fmt.Sprintf("optimizing[%s]", g.categories)
}

// partition holds target indexes per group.
type partition [][]int

func (p partition) clone() partition {
	out := make(partition, len(p))
	for i, g := range p {
		out[i] = append([]int(nil), g...)
	}
	return out
}

// move rewrites a partition. Moves are enumerated in a fixed order so the
// search is deterministic for a given scoring.
type move func(partition) partition

func mergeGroups(a, b int) move {
	return func(p partition) partition {
		p[a] = append(p[a], p[b]...)
		return append(p[:b], p[b+1:]...)
	}
}

func splitMember(group, member int) move {
	return func(p partition) partition {
		target := p[group][member]
		p[group] = append(p[group][:member], p[group][member+1:]...)
		return append(p, []int{target})
	}
}

func moveMember(from, to, member int) move {
	return func(p partition) partition {
		target := p[from][member]
		p[to] = append(p[to], target)
		p[from] = append(p[from][:member], p[from][member+1:]...)
		return p
	}
}

func candidateMoves(p partition) []move {
	var moves []move
	for a := range p {
		for b := a + 1; b < len(p); b++ {
			moves = append(moves, mergeGroups(a, b))
		}
		if len(p[a]) == 1 {
			continue
		}
		for m := range p[a] {
			moves = append(moves, splitMember(a, m))
			for b := range p {
				if b != a {
					moves = append(moves, moveMember(a, b, m))
				}
			}
		}
	}
	return moves
}

func (g *Optimizing) Generate(ctx context.Context, in Input) (string, error) {
	if len(in.Targets) == 0 {
		return "", nil
	}
	termsByTarget, err := readTargetTerms(in, g.categories)
	if err != nil {
		return "", err
	}
	sets := make([]termSet, len(termsByTarget))
	sorted := make([][]string, len(termsByTarget))
	for i, terms := range termsByTarget {
		sets[i] = toSet(terms)
		sorted[i] = append([]string(nil), terms...)
		sort.Strings(sorted[i])
	}
	b := &queryBuilder{gen: g, in: in, sets: sets, sortedTerms: sorted}

	current := partition{make([]int, len(in.Targets))}
	for i := range in.Targets {
		current[0][i] = i
	}
	bestQuery, err := b.build(current)
	if err != nil {
		return "", err
	}
	bestScore, err := Score(in.Searcher, bestQuery, in.Targets)
	if err != nil {
		return "", err
	}

	start := time.Now()
	rounds := 0
	for time.Since(start) < g.limits.timeBudget {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		improved := false
		for _, mv := range candidateMoves(current) {
			next := mv(current.clone())
			q, err := b.build(next)
			if err != nil {
				return "", err
			}
			score, err := Score(in.Searcher, q, in.Targets)
			if err != nil {
				return "", err
			}
			if score > bestScore {
				bestQuery, bestScore, current = q, score, next
				improved = true
				break
			}
		}
		if !improved {
			return bestQuery, nil
		}
		rounds++
	}
	// The context logger carries the task being processed.
	logger.FromContext(ctx).Info("optimizer time budget exhausted",
		"component", "generator",
		"generator", g.Name(),
		"rounds", rounds, "groups", len(current), "score", bestScore)
	return bestQuery, nil
}

type queryBuilder struct {
	gen         *Optimizing
	in          Input
	sets        []termSet
	sortedTerms [][]string
}

type candidate struct {
	term        string
	selectivity float64
}

type termGroup struct {
	targets     []int
	available   []candidate
	selected    []string
	selectivity float64
}

// build allocates the token budget across the groups of p and serializes
// the selected terms.
func (b *queryBuilder) build(p partition) (string, error) {
	groups := make([]*termGroup, 0, len(p))
	for _, members := range p {
		available, err := b.sharedCandidates(members)
		if err != nil {
			return "", err
		}
		groups = append(groups, &termGroup{targets: members, available: available, selectivity: 1})
	}

	budget := b.gen.limits.tokenBudget
	remaining := budget
	for remaining > 0 {
		var pick *termGroup
		pickCost := 0
		for _, grp := range groups {
			cost := 1
			if remaining < budget && len(grp.selected) == 0 {
				cost = 2
			}
			if cost > remaining || len(grp.available) == 0 {
				continue
			}
			if pick == nil || len(grp.selected) < len(pick.selected) ||
				(len(grp.selected) == len(pick.selected) && grp.selectivity > pick.selectivity) {
				pick, pickCost = grp, cost
			}
		}
		if pick == nil {
			break
		}
		last := pick.available[len(pick.available)-1]
		pick.available = pick.available[:len(pick.available)-1]
		pick.selected = append(pick.selected, last.term)
		pick.selectivity *= last.selectivity
		remaining -= pickCost
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].selectivity > groups[j].selectivity
	})

	split := groupSplitter{maxXor: b.gen.limits.maxXorGroups}
	for _, grp := range groups {
		if len(grp.selected) == 0 {
			continue
		}
		split.add(grp.selected, b.exclusive(grp, groups))
	}
	return split.String(), nil
}

// sharedCandidates returns the rare terms every member has, most common
// first so the rarest is taken from the back.
func (b *queryBuilder) sharedCandidates(members []int) ([]candidate, error) {
	var out []candidate
	for _, term := range b.sortedTerms[members[0]] {
		shared := true
		for _, m := range members[1:] {
			if _, ok := b.sets[m][term]; !ok {
				shared = false
				break
			}
		}
		if !shared {
			continue
		}
		s, err := b.in.Index.TermSelectivity(term)
		if err != nil {
			return nil, err
		}
		if s < maxCandidateSelectivity {
			out = append(out, candidate{term: term, selectivity: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].selectivity > out[j].selectivity
	})
	return out, nil
}

// exclusive reports whether no target outside grp contains all its terms.
func (b *queryBuilder) exclusive(grp *termGroup, groups []*termGroup) bool {
	for _, other := range groups {
		if other == grp {
			continue
		}
		for _, t := range other.targets {
			if b.sets[t].containsAll(grp.selected) {
				return false
			}
		}
	}
	return true
}
