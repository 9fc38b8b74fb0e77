package generator

import "sort"

// itemset is one frequent combination of terms and the number of
// transactions containing all of them.
type itemset struct {
	items   []string
	support int
}

type fpNode struct {
	item     int
	count    int
	parent   *fpNode
	children map[int]*fpNode
	next     *fpNode
}

type fpTree struct {
	root    *fpNode
	heads   map[int]*fpNode
	support map[int]int
}

func newFPTree() *fpTree {
	return &fpTree{
		root:    &fpNode{item: -1, children: make(map[int]*fpNode)},
		heads:   make(map[int]*fpNode),
		support: make(map[int]int),
	}
}

// insert adds a path of item ranks, which must be ascending.
func (t *fpTree) insert(path []int, count int) {
	node := t.root
	for _, item := range path {
		child, ok := node.children[item]
		if !ok {
			child = &fpNode{
				item:     item,
				parent:   node,
				children: make(map[int]*fpNode),
				next:     t.heads[item],
			}
			node.children[item] = child
			t.heads[item] = child
		}
		child.count += count
		t.support[item] += count
		node = child
	}
}

// fpMiner enumerates frequent itemsets with FP-growth. Items are ranked by
// descending support so shared prefixes compress well.
type fpMiner struct {
	minSupport int
	minSize    int
	maxSize    int
	names      []string
}

// mine calls report for every itemset whose size is within
// [minSize, maxSize] and whose support is at least minSupport. Each
// transaction must hold distinct items.
func (m *fpMiner) mine(transactions [][]string, report func(itemset)) {
	if m.maxSize < 1 || m.maxSize < m.minSize {
		return
	}
	support := make(map[string]int)
	for _, tx := range transactions {
		for _, item := range tx {
			support[item]++
		}
	}
	for item, s := range support {
		if s >= m.minSupport {
			m.names = append(m.names, item)
		}
	}
	sort.Slice(m.names, func(i, j int) bool {
		si, sj := support[m.names[i]], support[m.names[j]]
		if si != sj {
			return si > sj
		}
		return m.names[i] < m.names[j]
	})
	rank := make(map[string]int, len(m.names))
	for i, name := range m.names {
		rank[name] = i
	}

	tree := newFPTree()
	for _, tx := range transactions {
		path := make([]int, 0, len(tx))
		for _, item := range tx {
			if r, ok := rank[item]; ok {
				path = append(path, r)
			}
		}
		if len(path) == 0 {
			continue
		}
		sort.Ints(path)
		tree.insert(path, 1)
	}
	m.grow(tree, nil, report)
}

func (m *fpMiner) grow(tree *fpTree, suffix []int, report func(itemset)) {
	items := make([]int, 0, len(tree.heads))
	for item := range tree.heads {
		if tree.support[item] >= m.minSupport {
			items = append(items, item)
		}
	}
	// Least frequent first, so conditional trees stay small.
	sort.Sort(sort.Reverse(sort.IntSlice(items)))

	for _, item := range items {
		set := append(append(make([]int, 0, len(suffix)+1), suffix...), item)
		if len(set) >= m.minSize {
			report(m.itemset(set, tree.support[item]))
		}
		if len(set) >= m.maxSize {
			continue
		}
		if cond := m.conditional(tree, item); cond != nil {
			m.grow(cond, set, report)
		}
	}
}

// conditional builds the tree of prefix paths leading to item, pruned to
// items still frequent within those paths.
func (m *fpMiner) conditional(tree *fpTree, item int) *fpTree {
	type prefixPath struct {
		items []int
		count int
	}
	var paths []prefixPath
	counts := make(map[int]int)
	for node := tree.heads[item]; node != nil; node = node.next {
		var path []int
		for p := node.parent; p != nil && p.item >= 0; p = p.parent {
			path = append(path, p.item)
			counts[p.item] += node.count
		}
		if len(path) > 0 {
			paths = append(paths, prefixPath{items: path, count: node.count})
		}
	}
	if len(paths) == 0 {
		return nil
	}

	cond := newFPTree()
	for _, p := range paths {
		kept := make([]int, 0, len(p.items))
		for i := len(p.items) - 1; i >= 0; i-- {
			if counts[p.items[i]] >= m.minSupport {
				kept = append(kept, p.items[i])
			}
		}
		if len(kept) > 0 {
			cond.insert(kept, p.count)
		}
	}
	if len(cond.heads) == 0 {
		return nil
	}
	return cond
}

func (m *fpMiner) itemset(set []int, support int) itemset {
	sorted := append([]int(nil), set...)
	sort.Ints(sorted)
	items := make([]string, len(sorted))
	for i, r := range sorted {
		items[i] = m.names[r]
	}
	return itemset{items: items, support: support}
}
