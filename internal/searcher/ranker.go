package searcher

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/topk"
)

type ScoredDoc struct {
	ID    uint32
	Score float64
}

func ahead(a, b ScoredDoc) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ID < b.ID
}

type weightedTerm struct {
	idf    float64
	counts map[uint32]uint16
}

// Rank scores every matching document by sum(count * idf) over terms and
// returns the best limit, highest score first with ties by ascending id.
func Rank(matches *roaring.Bitmap, terms []string, si *index.SearchIndex, limit int) ([]ScoredDoc, error) {
	n := float64(si.DocumentCount())
	weighted := make([]weightedTerm, 0, len(terms))
	for _, term := range terms {
		df, err := si.TermCardinality(term)
		if err != nil {
			return nil, err
		}
		counts, err := si.TermCounts(term)
		if err != nil {
			return nil, err
		}
		if len(counts) == 0 {
			continue
		}
		weighted = append(weighted, weightedTerm{
			idf:    computeIDF(n, float64(df)),
			counts: counts,
		})
	}

	best := topk.New(limit, ahead)
	it := matches.Iterator()
	for it.HasNext() {
		id := it.Next()
		var score float64
		for _, w := range weighted {
			if c, ok := w.counts[id]; ok {
				score += float64(c) * w.idf
			}
		}
		best.Push(ScoredDoc{ID: id, Score: score})
	}
	return best.Sorted(), nil
}

func computeIDF(totalDocs, docFreq float64) float64 {
	return math.Log(totalDocs/(docFreq+1)) + 1
}
