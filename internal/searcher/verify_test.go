package searcher_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/patents"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/internal/searcher"
)

func TestCheckAgainstRecordedResults(t *testing.T) {
	s := newSearcher(t, []patents.Patent{
		{PublicationNumber: "A", Title: "gear shaft"},
		{PublicationNumber: "B", Title: "gear"},
		{PublicationNumber: "C", Title: "shaft"},
	})

	full := s.Check("full", "ti:gear", []string{"A", "B"})
	assert.NoError(t, full.Err)
	assert.Equal(t, 2, full.Matched)
	assert.Equal(t, 100.0, full.Recall())

	partial := s.Check("partial", "ti:shaft", []string{"A", "B", "C", "D"})
	assert.Equal(t, 2, partial.Matched)
	assert.Equal(t, 50.0, partial.Recall())

	broken := s.Check("broken", "ti:missing", []string{"A"})
	assert.Error(t, broken.Err)
	assert.Zero(t, broken.Recall())

	sum := searcher.Summarize([]searcher.CaseResult{full, partial, broken})
	assert.Equal(t, 3, sum.Cases)
	assert.Equal(t, 1, sum.Failed)
	assert.InDelta(t, 50.0, sum.MeanRecall, 1e-9)
	assert.Equal(t, 50.0, sum.MedianRecall)
}

func TestSummarizeMedianOfEvenCount(t *testing.T) {
	sum := searcher.Summarize([]searcher.CaseResult{
		{Expected: 1, Matched: 1, Duration: time.Millisecond},
		{Expected: 2, Matched: 0, Duration: 3 * time.Millisecond},
	})
	assert.Equal(t, 50.0, sum.MedianRecall)
	assert.Equal(t, 2*time.Millisecond, sum.MedianTime)
	assert.Equal(t, 4*time.Millisecond, sum.Total)
	assert.Equal(t, searcher.CheckSummary{}, searcher.Summarize(nil))
}
