// Package topk keeps the best K items seen from a stream using a
// fixed-capacity binary heap whose root is the current worst item.
package topk

import (
	"container/heap"
	"sort"
)

// Heap retains at most K items. better(a, b) reports whether a ranks ahead
// of b and must be a strict total order for results to be deterministic.
type Heap[T any] struct {
	k      int
	better func(a, b T) bool
	items  worstFirst[T]
}

func New[T any](k int, better func(a, b T) bool) *Heap[T] {
	return &Heap[T]{
		k:      k,
		better: better,
		items:  worstFirst[T]{better: better, data: make([]T, 0, k)},
	}
}

// Push offers item and reports whether it was retained.
func (h *Heap[T]) Push(item T) bool {
	if h.k <= 0 {
		return false
	}
	if len(h.items.data) < h.k {
		heap.Push(&h.items, item)
		return true
	}
	if !h.better(item, h.items.data[0]) {
		return false
	}
	h.items.data[0] = item
	heap.Fix(&h.items, 0)
	return true
}

func (h *Heap[T]) Len() int {
	return len(h.items.data)
}

// Full reports whether K items are held.
func (h *Heap[T]) Full() bool {
	return len(h.items.data) >= h.k
}

// Worst returns the item that the next better Push would evict.
func (h *Heap[T]) Worst() (T, bool) {
	if len(h.items.data) == 0 {
		var zero T
		return zero, false
	}
	return h.items.data[0], true
}

// Sorted returns the retained items best first. The heap is left intact.
func (h *Heap[T]) Sorted() []T {
	out := make([]T, len(h.items.data))
	copy(out, h.items.data)
	sort.Slice(out, func(i, j int) bool { return h.better(out[i], out[j]) })
	return out
}

type worstFirst[T any] struct {
	better func(a, b T) bool
	data   []T
}

func (w worstFirst[T]) Len() int           { return len(w.data) }
func (w worstFirst[T]) Less(i, j int) bool { return w.better(w.data[j], w.data[i]) }
func (w worstFirst[T]) Swap(i, j int)      { w.data[i], w.data[j] = w.data[j], w.data[i] }

func (w *worstFirst[T]) Push(x any) {
	w.data = append(w.data, x.(T))
}

func (w *worstFirst[T]) Pop() any {
	old := w.data
	n := len(old)
	item := old[n-1]
	w.data = old[:n-1]
	return item
}
