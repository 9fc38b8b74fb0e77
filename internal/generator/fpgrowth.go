package generator

import (
	"context"
	"fmt"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/patents"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/topk"
)

// maxItemsets bounds how many mined itemsets are kept for assembly.
const maxItemsets = 1000

// FPGrowth mines term combinations shared by several targets and ORs or
// XORs the most discriminative ones together.
type FPGrowth struct {
	categories patents.Category
	minSupport int
	minSize    int
	maxSize    int
	limits     limits
}

func NewFPGrowth(categories patents.Category, minSupport, minSize, maxSize int, opts ...Option) *FPGrowth {
	return &FPGrowth{
		categories: categories,
		minSupport: minSupport,
		minSize:    minSize,
		maxSize:    maxSize,
		limits:     defaultLimits(opts),
	}
}

func (g *FPGrowth) Name() string {
	return fmt.Sprintf("fp-growth[%s support=%d size=%d..%d]", g.categories, g.minSupport, g.minSize, g.maxSize)
}

type scoredItemset struct {
	itemset
	score float64
}

// moreDiscriminative orders by ascending support*selectivity, then by
// descending support.
func moreDiscriminative(a, b scoredItemset) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	if a.support != b.support {
		return a.support > b.support
	}
	return slices.Compare(a.items, b.items) < 0
}

func (g *FPGrowth) Generate(ctx context.Context, in Input) (string, error) {
	termsByTarget, err := readTargetTerms(in, g.categories)
	if err != nil {
		return "", err
	}
	hasTerms := false
	sets := make([]termSet, len(termsByTarget))
	for i, terms := range termsByTarget {
		sets[i] = toSet(terms)
		hasTerms = hasTerms || len(terms) > 0
	}
	if !hasTerms {
		return "", nil
	}

	best := topk.New(maxItemsets, moreDiscriminative)
	var scoreErr error
	miner := &fpMiner{minSupport: g.minSupport, minSize: g.minSize, maxSize: g.maxSize}
	miner.mine(termsByTarget, func(set itemset) {
		if scoreErr != nil {
			return
		}
		selectivity := 1.0
		for _, t := range set.items {
			s, err := in.Index.TermSelectivity(t)
			if err != nil {
				scoreErr = err
				return
			}
			selectivity *= s
		}
		best.Push(scoredItemset{itemset: set, score: float64(set.support) * selectivity})
	})
	if scoreErr != nil {
		return "", scoreErr
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return g.assemble(best.Sorted(), in.Targets, sets), nil
}

// assemble takes itemsets best first while they fit the token budget,
// skipping ones that cover no new target until every target is covered.
func (g *FPGrowth) assemble(candidates []scoredItemset, targets []string, sets []termSet) string {
	type chosen struct {
		terms   []string
		covered []int
	}
	var groups []chosen
	coverage := make([]int, len(targets))
	uncovered := len(targets)
	size := 0

	for _, c := range candidates {
		newSize := size + len(c.items)
		if size > 0 {
			newSize++
		}
		if newSize > g.limits.tokenBudget {
			continue
		}

		var covered []int
		coversNew := false
		for i := range targets {
			if !sets[i].containsAll(c.items) {
				continue
			}
			covered = append(covered, i)
			coversNew = coversNew || coverage[i] == 0
		}
		if uncovered > 0 && !coversNew {
			continue
		}

		groups = append(groups, chosen{terms: c.items, covered: covered})
		for _, i := range covered {
			if coverage[i] == 0 {
				uncovered--
			}
			coverage[i]++
		}
		size = newSize
	}

	split := groupSplitter{maxXor: g.limits.maxXorGroups}
	for _, group := range groups {
		exclusive := true
		for _, i := range group.covered {
			if coverage[i] != 1 {
				exclusive = false
				break
			}
		}
		split.add(group.terms, exclusive)
	}
	return split.String()
}
