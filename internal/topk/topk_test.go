package topk

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scored struct {
	id    uint32
	score float64
}

func higherScore(a, b scored) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.id < b.id
}

func TestKeepsBestK(t *testing.T) {
	h := New(3, higherScore)
	for i, s := range []float64{1, 5, 3, 9, 2, 7} {
		h.Push(scored{id: uint32(i), score: s})
	}
	got := h.Sorted()
	require.Len(t, got, 3)
	assert.Equal(t, []float64{9, 7, 5}, []float64{got[0].score, got[1].score, got[2].score})

	worst, ok := h.Worst()
	assert.True(t, ok)
	assert.Equal(t, 5.0, worst.score)
}

func TestTieBreakByID(t *testing.T) {
	h := New(2, higherScore)
	for _, id := range []uint32{9, 4, 7, 1} {
		h.Push(scored{id: id, score: 1})
	}
	got := h.Sorted()
	assert.Equal(t, []uint32{1, 4}, []uint32{got[0].id, got[1].id})
}

func TestMatchesFullSort(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var all []scored
	h := New(50, higherScore)
	for i := 0; i < 5000; i++ {
		s := scored{id: uint32(i), score: float64(rng.Intn(100))}
		all = append(all, s)
		h.Push(s)
	}
	sort.Slice(all, func(i, j int) bool { return higherScore(all[i], all[j]) })
	assert.Equal(t, all[:50], h.Sorted())
}

func TestZeroCapacity(t *testing.T) {
	h := New(0, higherScore)
	assert.False(t, h.Push(scored{id: 1, score: 1}))
	assert.Equal(t, 0, h.Len())
	_, ok := h.Worst()
	assert.False(t, ok)
}

func TestLowestFirstOrdering(t *testing.T) {
	h := New(2, func(a, b int) bool { return a < b })
	for _, v := range []int{5, 1, 4, 2, 3} {
		h.Push(v)
	}
	assert.True(t, h.Full())
	assert.Equal(t, []int{1, 2}, h.Sorted())
}

func BenchmarkPush(b *testing.B) {
	b.ReportAllocs()
	rng := rand.New(rand.NewSource(1))
	h := New(50, higherScore)
	for i := 0; i < b.N; i++ {
		h.Push(scored{id: uint32(i), score: rng.Float64()})
	}
}
