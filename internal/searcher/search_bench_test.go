package searcher_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/patents"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/searcher"
	corpus "github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/testutil"
)

var benchWords = []string{"rotor", "stator", "winding", "bearing", "shaft", "coil", "magnet", "housing"}

func benchCorpus(n int) []patents.Patent {
	docs := make([]patents.Patent, n)
	for i := range docs {
		docs[i] = patents.Patent{
			PublicationNumber: fmt.Sprintf("US-%06d-A1", i),
			CpcCodes:          []string{fmt.Sprintf("H02K%d/00", i%16)},
			Title:             benchWords[i%len(benchWords)] + " " + benchWords[(i/3)%len(benchWords)],
			Abstract:          strings.Repeat(benchWords[(i/7)%len(benchWords)]+" ", i%5+1),
		}
	}
	return docs
}

// BenchmarkSearch measures uncached evaluation and ranking over a
// synthetic corpus.
func BenchmarkSearch(b *testing.B) {
	c := corpus.NewCorpus(b, benchCorpus(4000))
	s := searcher.New(c.SearchIndex(b))

	queries := []struct {
		name  string
		query string
	}{
		{"single", "ti:rotor"},
		{"and", "ti:rotor ab:winding"},
		{"or_ranked", "ti:rotor OR ab:bearing"},
		{"not", "ti:rotor NOT ti:stator"},
		{"xor", "(ti:coil ab:magnet) XOR cpc:H02K3/00"},
		{"wildcard", "cpc:H02K1/* ti:shaft"},
	}
	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				s.ClearCache()
				if _, err := s.Search(q.query); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
