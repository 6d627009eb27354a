package btree

import (
	"math"
	"sync"
	"sync/atomic"
)

const (
	chunkBits = 9
	chunkSize = 1 << chunkBits
	chunkMask = chunkSize - 1

	// none is the index of no page.
	none int32 = -1
)

// page is a leaf or a branch. A published page is never written again.
//
// In a leaf, keys and vals hold the entries. In a branch, kids hold the
// children and keys[i] is the least key under kids[i].
type page[K, V any] struct {
	keys []K
	vals []V
	kids []int32
	size int
}

func (p *page[K, V]) leaf() bool {
	return p.kids == nil
}

func (p *page[K, V]) arity() int {
	if p.leaf() {
		return len(p.keys)
	}
	return len(p.kids)
}

// arena holds pages in fixed-size chunks addressed by index. Allocation
// is serialized; lookups read the chunk directory atomically and never
// lock, since a slot is written once before its index is handed out.
type arena[K, V any] struct {
	mu   sync.Mutex
	dir  atomic.Pointer[[][]page[K, V]]
	next int32
}

func newArena[K, V any]() *arena[K, V] {
	a := &arena[K, V]{}
	dir := [][]page[K, V]{}
	a.dir.Store(&dir)
	return a
}

func (a *arena[K, V]) alloc(p page[K, V]) int32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.next == math.MaxInt32 {
		panic(violation("arena exhausted"))
	}
	i := a.next
	dir := *a.dir.Load()
	c := int(i >> chunkBits)
	if c == len(dir) {
		grown := make([][]page[K, V], c+1)
		copy(grown, dir)
		grown[c] = make([]page[K, V], chunkSize)
		a.dir.Store(&grown)
		dir = grown
	}
	dir[c][i&chunkMask] = p
	a.next++
	return i
}

func (a *arena[K, V]) get(i int32) *page[K, V] {
	dir := *a.dir.Load()
	return &dir[i>>chunkBits][i&chunkMask]
}

// allocated returns the number of pages ever allocated.
func (a *arena[K, V]) allocated() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return int(a.next)
}
