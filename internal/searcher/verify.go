package searcher

import (
	"sort"
	"time"
)

// CaseResult compares one query against the results a reference engine
// returned for it.
type CaseResult struct {
	Name     string
	Query    string
	Matched  int
	Expected int
	Duration time.Duration
	Err      error
}

// Recall is the share of expected results found, in percent. A case with
// no expected results is fully recalled.
func (c CaseResult) Recall() float64 {
	if c.Err != nil {
		return 0
	}
	if c.Matched == c.Expected {
		return 100
	}
	return float64(c.Matched) / float64(c.Expected) * 100
}

// Check runs q and counts how many of expected it returns. Evaluation
// errors are recorded on the result.
func (s *Searcher) Check(name, q string, expected []string) CaseResult {
	start := time.Now()
	r, err := s.Search(q)
	res := CaseResult{Name: name, Query: q, Expected: len(expected), Duration: time.Since(start), Err: err}
	if err != nil {
		return res
	}
	for _, pn := range expected {
		if r.Contains(pn) {
			res.Matched++
		}
	}
	return res
}

// CheckSummary aggregates recall and latency over many cases.
type CheckSummary struct {
	Cases        int
	Failed       int
	Total        time.Duration
	MeanRecall   float64
	MedianRecall float64
	MeanTime     time.Duration
	MedianTime   time.Duration
}

func Summarize(results []CaseResult) CheckSummary {
	s := CheckSummary{Cases: len(results)}
	if len(results) == 0 {
		return s
	}
	recalls := make([]float64, len(results))
	times := make([]float64, len(results))
	var recallSum float64
	for i, r := range results {
		if r.Err != nil {
			s.Failed++
		}
		recalls[i] = r.Recall()
		times[i] = float64(r.Duration)
		recallSum += recalls[i]
		s.Total += r.Duration
	}
	s.MeanRecall = recallSum / float64(len(results))
	s.MedianRecall = median(recalls)
	s.MeanTime = s.Total / time.Duration(len(results))
	s.MedianTime = time.Duration(median(times))
	return s
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
