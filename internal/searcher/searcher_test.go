package searcher_test

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/patents"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/searcher"
	corpus "github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/testutil"
	apperrors "github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/metrics"
)

func newSearcher(t *testing.T, docs []patents.Patent, opts ...searcher.Option) *searcher.Searcher {
	t.Helper()
	c := corpus.NewCorpus(t, docs)
	return searcher.New(c.SearchIndex(t), opts...)
}

func TestPrecedenceChangesResults(t *testing.T) {
	s := newSearcher(t, []patents.Patent{
		{PublicationNumber: "A", Title: "xx"},
		{PublicationNumber: "B", Title: "yy zz"},
		{PublicationNumber: "C", Title: "xx zz"},
	})

	r, err := s.Search("ti:xx OR ti:yy ti:zz")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, r.IDs)

	r, err = s.Search("ti:xx OR (ti:yy ti:zz)")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, r.IDs)
}

func TestOperators(t *testing.T) {
	s := newSearcher(t, []patents.Patent{
		{PublicationNumber: "A", Title: "gear shaft"},
		{PublicationNumber: "B", Title: "gear"},
		{PublicationNumber: "C", Title: "shaft"},
		{PublicationNumber: "D", Title: "bearing"},
	})

	tests := []struct {
		query string
		want  []string
	}{
		{"ti:gear", []string{"A", "B"}},
		{"ti:gear AND ti:shaft", []string{"A"}},
		{"ti:gear ti:shaft", []string{"A"}},
		{"ti:gear OR ti:shaft", []string{"A", "B", "C"}},
		{"ti:gear XOR ti:shaft", []string{"B", "C"}},
		{"NOT ti:gear", []string{"C", "D"}},
		{"NOT ti:gear ti:shaft", []string{"C"}},
		{"ti:bearing NOT ti:gear", []string{"D"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r, err := s.Search(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.IDs)
			for _, id := range tt.want {
				assert.True(t, r.Contains(id))
			}
		})
	}
}

func rankingCorpus() []patents.Patent {
	docs := make([]patents.Patent, 60)
	for i := range docs {
		docs[i] = patents.Patent{
			PublicationNumber: fmt.Sprintf("DOC-%02d", i),
			Title:             "alpha",
			Abstract:          strings.Repeat("beta ", i%7+1),
		}
	}
	return docs
}

func TestRankingTopFifty(t *testing.T) {
	s := newSearcher(t, rankingCorpus())

	r, err := s.Search("ti:alpha ab:beta")
	require.NoError(t, err)
	require.Len(t, r.IDs, 50)

	type scored struct {
		id    int
		count int
	}
	expected := make([]scored, 60)
	for i := range expected {
		expected[i] = scored{id: i, count: 1 + i%7 + 1}
	}
	sort.Slice(expected, func(i, j int) bool {
		if expected[i].count != expected[j].count {
			return expected[i].count > expected[j].count
		}
		return expected[i].id < expected[j].id
	})
	want := make([]string, 50)
	for i := range want {
		want[i] = fmt.Sprintf("DOC-%02d", expected[i].id)
	}
	assert.Equal(t, want, r.IDs)
}

func TestRankingWeighsRareTermsByIDF(t *testing.T) {
	// Six documents carry a rare term once; the rest repeat a term every
	// document has. Raw counts favour the repeats, idf favours the rare term.
	docs := make([]patents.Patent, 60)
	for i := range docs {
		docs[i] = patents.Patent{PublicationNumber: fmt.Sprintf("DOC-%02d", i)}
		if i < 6 {
			docs[i].Title = "widget"
			docs[i].Abstract = "gyroscope"
		} else {
			docs[i].Title = "widget widget widget"
		}
	}
	s := newSearcher(t, docs)

	r, err := s.Search("ti:widget OR ab:gyroscope")
	require.NoError(t, err)
	want := make([]string, 50)
	for i := range want {
		want[i] = fmt.Sprintf("DOC-%02d", i)
	}
	assert.Equal(t, want, r.IDs)
}

func TestRankRespectsResultLimit(t *testing.T) {
	s := newSearcher(t, rankingCorpus(), searcher.WithResultLimit(5))

	r, err := s.Search("ab:beta")
	require.NoError(t, err)
	assert.Equal(t, []string{"DOC-06", "DOC-13", "DOC-20", "DOC-27", "DOC-34"}, r.IDs)
}

func TestSmallMatchSetIsVerbatim(t *testing.T) {
	s := newSearcher(t, rankingCorpus())

	r, err := s.Search("ti:alpha NOT ab:beta")
	require.NoError(t, err)
	assert.Empty(t, r.IDs)

	r, err = s.Search("(ti:alpha ab:beta) XOR ti:alpha")
	require.NoError(t, err)
	assert.Empty(t, r.IDs)
}

func TestMatchCeiling(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s := newSearcher(t, rankingCorpus(), searcher.WithMatchCeiling(59), searcher.WithMetrics(m))

	r, err := s.Search("ti:alpha")
	require.NoError(t, err)
	assert.Zero(t, r.Len())
	assert.False(t, r.Contains("DOC-00"))

	_, err = s.Search("ti:alpha")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues(metrics.OutcomeTooBroad)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues(metrics.OutcomeCached)))
}

func TestDefaultMatchCeiling(t *testing.T) {
	docs := make([]patents.Patent, searcher.DefaultMatchCeiling+1)
	for i := range docs {
		docs[i] = patents.Patent{PublicationNumber: fmt.Sprintf("DOC-%05d", i), Title: "alpha beta"}
	}
	docs[0].Title = "alpha"
	s := newSearcher(t, docs)

	r, err := s.Search("ti:alpha")
	require.NoError(t, err)
	assert.Zero(t, r.Len())

	r, err = s.Search("ti:beta")
	require.NoError(t, err)
	assert.Equal(t, searcher.DefaultResultLimit, r.Len())
	assert.Equal(t, "DOC-00001", r.IDs[0])
}

func TestResultsNeverExceedLimit(t *testing.T) {
	s := newSearcher(t, rankingCorpus())
	for _, q := range []string{"ti:alpha", "ab:beta", "ti:alpha OR ab:beta", "NOT (ti:alpha XOR ab:beta)"} {
		r, err := s.Search(q)
		require.NoError(t, err)
		assert.LessOrEqual(t, r.Len(), 50, q)
	}
}

func TestMemoization(t *testing.T) {
	s := newSearcher(t, rankingCorpus())

	first, err := s.Search("ti:alpha")
	require.NoError(t, err)
	second, err := s.Search("ti:alpha")
	require.NoError(t, err)
	assert.Same(t, first, second)

	s.ClearCache()
	third, err := s.Search("ti:alpha")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, first.IDs, third.IDs)
}

func TestErrors(t *testing.T) {
	s := newSearcher(t, rankingCorpus())

	_, err := s.Search("ti:alpha ti:missing")
	assert.True(t, errors.Is(err, apperrors.ErrUnknownTerm))

	_, err = s.Search("ti:alpha OR")
	assert.True(t, errors.Is(err, apperrors.ErrMalformedQuery))

	_, err = s.Search("zz:alpha")
	assert.True(t, errors.Is(err, apperrors.ErrMalformedQuery))
}

func TestClassificationTermsMatchButDoNotScore(t *testing.T) {
	docs := make([]patents.Patent, 55)
	for i := range docs {
		docs[i] = patents.Patent{
			PublicationNumber: fmt.Sprintf("P%02d", i),
			CpcCodes:          []string{"B60K6/20"},
		}
		if i >= 50 {
			docs[i].Title = "hybrid hybrid"
		}
	}
	s := newSearcher(t, docs)

	r, err := s.Search("cpc:B60K6/* OR ti:hybrid")
	require.NoError(t, err)
	require.Len(t, r.IDs, 50)
	assert.Equal(t, []string{"P50", "P51", "P52", "P53", "P54"}, r.IDs[:5])
	assert.Equal(t, "P00", r.IDs[5])
}
