// Package btree implements a persistent, copy-on-write B-tree.
//
// A Tree is an immutable value. Put, Remove and Clear return a new tree
// and leave the receiver untouched, so every tree is a stable snapshot
// that can be read from any goroutine without locking. Versions derived
// from one another share every page a mutation did not touch.
//
// Writers of one logical tree must be linearized by its owner, typically
// by publishing each new version through a mutex or an atomic pointer.
package btree

import (
	"cmp"
	"iter"
	"slices"
)

// Context holds the ordering and the page size policy of a tree.
type Context[K any] struct {
	Compare func(a, b K) int
	// ShouldSplit reports whether a page of the given arity must split.
	ShouldSplit func(arity int) bool
	// ShouldMerge reports whether a page of the given arity must merge
	// with a sibling.
	ShouldMerge func(arity int) bool
}

const (
	DefaultSplit = 32
	DefaultMerge = DefaultSplit / 2
)

// NewContext returns a context ordering keys by compare, splitting pages
// above DefaultSplit entries and merging them below DefaultMerge.
func NewContext[K any](compare func(a, b K) int) *Context[K] {
	return &Context[K]{
		Compare:     compare,
		ShouldSplit: func(n int) bool { return n > DefaultSplit },
		ShouldMerge: func(n int) bool { return n < DefaultMerge },
	}
}

// Ordered returns a context for naturally ordered keys.
func Ordered[K cmp.Ordered]() *Context[K] {
	return NewContext(cmp.Compare[K])
}

// Tree is a persistent sorted map.
type Tree[K, V any] struct {
	ctx   *Context[K]
	arena *arena[K, V]
	root  int32
}

// New returns an empty tree.
func New[K, V any](ctx *Context[K]) Tree[K, V] {
	if ctx == nil || ctx.Compare == nil {
		panic(violation("tree context without a comparator"))
	}
	return Tree[K, V]{ctx: ctx, arena: newArena[K, V](), root: none}
}

func (t Tree[K, V]) page(i int32) *page[K, V] {
	return t.arena.get(i)
}

func (t Tree[K, V]) with(root int32) Tree[K, V] {
	t.root = root
	return t
}

// Context returns the tree's context.
func (t Tree[K, V]) Context() *Context[K] {
	return t.ctx
}

// Len returns the number of entries.
func (t Tree[K, V]) Len() int {
	if t.arena == nil || t.root == none {
		return 0
	}
	return t.page(t.root).size
}

// search returns the position of k in keys and whether it is present.
func (t Tree[K, V]) search(keys []K, k K) (int, bool) {
	return slices.BinarySearchFunc(keys, k, t.ctx.Compare)
}

// child returns the index of the child of p whose range holds k.
func (t Tree[K, V]) child(p *page[K, V], k K) int {
	i, found := t.search(p.keys, k)
	if found || i == 0 {
		return i
	}
	return i - 1
}

// Get returns the value stored under k.
func (t Tree[K, V]) Get(k K) (V, bool) {
	if t.Len() == 0 {
		var zero V
		return zero, false
	}
	p := t.page(t.root)
	for !p.leaf() {
		p = t.page(p.kids[t.child(p, k)])
	}
	if i, ok := t.search(p.keys, k); ok {
		return p.vals[i], true
	}
	var zero V
	return zero, false
}

// Has reports whether k is present.
func (t Tree[K, V]) Has(k K) bool {
	_, ok := t.Get(k)
	return ok
}

// At returns the entry of rank i in key order.
func (t Tree[K, V]) At(i int) (K, V, bool) {
	if i < 0 || i >= t.Len() {
		var (
			k K
			v V
		)
		return k, v, false
	}
	p := t.page(t.root)
	for !p.leaf() {
		for _, kid := range p.kids {
			c := t.page(kid)
			if i < c.size {
				p = c
				break
			}
			i -= c.size
		}
	}
	return p.keys[i], p.vals[i], true
}

// First returns the entry with the least key.
func (t Tree[K, V]) First() (K, V, bool) {
	return t.At(0)
}

// Last returns the entry with the greatest key.
func (t Tree[K, V]) Last() (K, V, bool) {
	return t.At(t.Len() - 1)
}

// All yields the entries in strictly increasing key order.
func (t Tree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if t.Len() > 0 {
			t.walk(t.root, yield)
		}
	}
}

func (t Tree[K, V]) walk(i int32, yield func(K, V) bool) bool {
	p := t.page(i)
	if p.leaf() {
		for j := range p.keys {
			if !yield(p.keys[j], p.vals[j]) {
				return false
			}
		}
		return true
	}
	for _, kid := range p.kids {
		if !t.walk(kid, yield) {
			return false
		}
	}
	return true
}

// Keys yields the keys in increasing order.
func (t Tree[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range t.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// Clear returns an empty tree with the same context.
func (t Tree[K, V]) Clear() Tree[K, V] {
	return t.with(none)
}

// Put returns a tree in which k maps to v.
func (t Tree[K, V]) Put(k K, v V) Tree[K, V] {
	if t.arena == nil {
		panic(violation("tree not created with New"))
	}
	if t.root == none {
		return t.with(t.arena.alloc(page[K, V]{keys: []K{k}, vals: []V{v}, size: 1}))
	}
	left, right := t.put(t.root, k, v)
	if right == none {
		return t.with(left)
	}
	return t.with(t.branch([]int32{left, right}))
}

// put inserts into the subtree at i and returns its replacement, split in
// two when it overflowed.
func (t Tree[K, V]) put(i int32, k K, v V) (int32, int32) {
	p := t.page(i)
	if p.leaf() {
		j, found := t.search(p.keys, k)
		if found {
			vals := slices.Clone(p.vals)
			vals[j] = v
			return t.arena.alloc(page[K, V]{keys: p.keys, vals: vals, size: p.size}), none
		}
		keys := slices.Insert(slices.Clip(p.keys), j, k)
		vals := slices.Insert(slices.Clip(p.vals), j, v)
		return t.splitLeaf(keys, vals)
	}
	j := t.child(p, k)
	left, right := t.put(p.kids[j], k, v)
	kids := slices.Clone(p.kids)
	kids[j] = left
	if right != none {
		kids = slices.Insert(kids, j+1, right)
	}
	return t.splitBranch(kids)
}

func (t Tree[K, V]) splitLeaf(keys []K, vals []V) (int32, int32) {
	if !t.ctx.ShouldSplit(len(keys)) {
		return t.arena.alloc(page[K, V]{keys: keys, vals: vals, size: len(keys)}), none
	}
	h := len(keys) / 2
	left := t.arena.alloc(page[K, V]{keys: keys[:h:h], vals: vals[:h:h], size: h})
	right := t.arena.alloc(page[K, V]{keys: keys[h:], vals: vals[h:], size: len(keys) - h})
	return left, right
}

func (t Tree[K, V]) splitBranch(kids []int32) (int32, int32) {
	if !t.ctx.ShouldSplit(len(kids)) {
		return t.branch(kids), none
	}
	h := len(kids) / 2
	return t.branch(kids[:h:h]), t.branch(kids[h:])
}

// branch allocates a branch over kids, deriving its keys and size.
func (t Tree[K, V]) branch(kids []int32) int32 {
	keys := make([]K, len(kids))
	size := 0
	for j, kid := range kids {
		c := t.page(kid)
		keys[j] = c.keys[0]
		size += c.size
	}
	return t.arena.alloc(page[K, V]{keys: keys, kids: kids, size: size})
}

// Remove returns a tree without k. The receiver is returned when k is
// absent.
func (t Tree[K, V]) Remove(k K) Tree[K, V] {
	if t.Len() == 0 {
		return t
	}
	root, ok := t.remove(t.root, k)
	if !ok {
		return t
	}
	for root != none {
		p := t.page(root)
		switch {
		case p.size == 0:
			root = none
		case !p.leaf() && len(p.kids) == 1:
			root = p.kids[0]
		default:
			return t.with(root)
		}
	}
	return t.with(none)
}

// remove deletes k from the subtree at i. The replacement may be an empty
// page, which the parent drops, or an underfull one, which the parent
// merges with a sibling.
func (t Tree[K, V]) remove(i int32, k K) (int32, bool) {
	p := t.page(i)
	if p.leaf() {
		j, found := t.search(p.keys, k)
		if !found {
			return i, false
		}
		keys := slices.Delete(slices.Clone(p.keys), j, j+1)
		vals := slices.Delete(slices.Clone(p.vals), j, j+1)
		return t.arena.alloc(page[K, V]{keys: keys, vals: vals, size: len(keys)}), true
	}
	j := t.child(p, k)
	c, ok := t.remove(p.kids[j], k)
	if !ok {
		return i, false
	}
	kids := slices.Clone(p.kids)
	cp := t.page(c)
	switch {
	case cp.size == 0:
		kids = slices.Delete(kids, j, j+1)
	case t.ctx.ShouldMerge(cp.arity()) && len(kids) > 1:
		kids[j] = c
		a := j
		if a == len(kids)-1 {
			a--
		}
		merged := t.merge(kids[a], kids[a+1])
		kids = slices.Replace(kids, a, a+2, merged...)
	default:
		kids[j] = c
	}
	if len(kids) == 0 {
		return t.arena.alloc(page[K, V]{}), true
	}
	return t.branch(kids), true
}

// merge joins two adjacent siblings, splitting the result evenly again if
// it overflows.
func (t Tree[K, V]) merge(a, b int32) []int32 {
	pa, pb := t.page(a), t.page(b)
	if pa.leaf() {
		keys := slices.Concat(pa.keys, pb.keys)
		vals := slices.Concat(pa.vals, pb.vals)
		l, r := t.splitLeaf(keys, vals)
		return pages(l, r)
	}
	l, r := t.splitBranch(slices.Concat(pa.kids, pb.kids))
	return pages(l, r)
}

func pages(l, r int32) []int32 {
	if r == none {
		return []int32{l}
	}
	return []int32{l, r}
}

// Allocated returns the number of pages allocated in t's arena by t and
// by every version sharing it.
func (t Tree[K, V]) Allocated() int {
	if t.arena == nil {
		return 0
	}
	return t.arena.allocated()
}

// Compact copies the tree into a fresh arena, releasing the pages of other
// versions that share the current arena.
func (t Tree[K, V]) Compact() Tree[K, V] {
	c := Tree[K, V]{ctx: t.ctx, arena: newArena[K, V](), root: none}
	if t.Len() > 0 {
		c.root = t.copyTo(c.arena, t.root)
	}
	return c
}

func (t Tree[K, V]) copyTo(dst *arena[K, V], i int32) int32 {
	p := *t.page(i)
	if !p.leaf() {
		kids := make([]int32, len(p.kids))
		for j, kid := range p.kids {
			kids[j] = t.copyTo(dst, kid)
		}
		p.kids = kids
	}
	return dst.alloc(p)
}
