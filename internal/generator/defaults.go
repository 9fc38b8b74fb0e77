package generator

import (
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/patents"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/config"
)

// Defaults returns the generators tried for every task, in order.
func Defaults(cfg config.SynthesisConfig) []Generator {
	opts := []Option{
		WithTokenBudget(cfg.TokenBudget),
		WithMaxXorGroups(cfg.MaxXorGroups),
		WithTimeBudget(cfg.OptimizerTimeout),
	}
	broad := patents.Cpc | patents.Title | patents.Abstract | patents.Claims

	out := []Generator{
		NewBestEffort(broad, opts...),
		NewOptimizing(broad, opts...),
	}
	for _, c := range []patents.Category{
		patents.Cpc,
		patents.Title,
		patents.Abstract,
		patents.Cpc | patents.Title,
		patents.Cpc | patents.Abstract,
		patents.Title | patents.Abstract,
		patents.Cpc | patents.Title | patents.Abstract,
	} {
		out = append(out, NewFPGrowth(c, 2, 2, 2, opts...))
	}
	for _, c := range []patents.Category{patents.Cpc, patents.Title, patents.Abstract, patents.Claims} {
		out = append(out, NewSingleTerm(c))
	}
	return out
}
