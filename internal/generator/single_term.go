package generator

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/patents"
)

// SingleTerm proposes the one term that occurs in the most targets relative
// to how common it is in the whole index.
type SingleTerm struct {
	category patents.Category
}

func NewSingleTerm(category patents.Category) *SingleTerm {
	return &SingleTerm{category: category}
}

func (g *SingleTerm) Name() string {
	return fmt.Sprintf("single-term[%s]", g.category)
}

func (g *SingleTerm) Generate(ctx context.Context, in Input) (string, error) {
	termsByTarget, err := readTargetTerms(in, g.category)
	if err != nil {
		return "", err
	}

	counts := make(map[string]int)
	var order []string
	for _, terms := range termsByTarget {
		for _, t := range terms {
			if counts[t] == 0 {
				order = append(order, t)
			}
			counts[t]++
		}
	}

	best, bestScore := "", 0.0
	for _, t := range order {
		card, err := in.Index.TermCardinality(t)
		if err != nil {
			return "", err
		}
		score := float64(counts[t]) / float64(card)
		if score > bestScore {
			best, bestScore = t, score
		}
	}
	return best, nil
}
