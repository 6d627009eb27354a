package btree

import (
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/swim-go/swim/item"
)

func small() *Context[int] {
	ctx := Ordered[int]()
	ctx.ShouldSplit = func(n int) bool { return n > 4 }
	ctx.ShouldMerge = func(n int) bool { return n < 2 }
	return ctx
}

type entry struct {
	K int
	V string
}

func entries(t Tree[int, string]) []entry {
	var res []entry
	for k, v := range t.All() {
		res = append(res, entry{K: k, V: v})
	}
	return res
}

func TestPutGet(t *testing.T) {
	for _, ctx := range []*Context[int]{Ordered[int](), small()} {
		tr := New[int, string](ctx)
		if _, ok := tr.Get(1); ok {
			t.Fatal("empty tree has a key")
		}
		for i := 999; i >= 0; i-- {
			tr = tr.Put(i*2, "v")
		}
		tr = tr.Put(10, "ten")
		if err := tr.Check(); err != nil {
			t.Fatal(err)
		}
		if tr.Len() != 1000 {
			t.Errorf("Len %d", tr.Len())
		}
		if v, ok := tr.Get(10); !ok || v != "ten" {
			t.Errorf("Get(10) = %q, %v", v, ok)
		}
		if tr.Has(11) {
			t.Error("Has(11)")
		}
		k, _, _ := tr.First()
		l, _, _ := tr.Last()
		if k != 0 || l != 1998 {
			t.Errorf("First %d Last %d", k, l)
		}
		for i := range 1000 {
			k, _, ok := tr.At(i)
			if !ok || k != i*2 {
				t.Fatalf("At(%d) = %d, %v", i, k, ok)
			}
		}
		if _, _, ok := tr.At(1000); ok {
			t.Error("At past the end")
		}
	}
}

// TestRandomOps checks random puts and removes against a reference map,
// and that every earlier snapshot keeps its contents.
func TestRandomOps(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for _, ctx := range []*Context[int]{Ordered[int](), small()} {
		tr := New[int, string](ctx)
		ref := map[int]string{}
		type snapshot struct {
			tree Tree[int, string]
			want []entry
		}
		var snaps []snapshot
		for step := range 5000 {
			k := r.IntN(300)
			if r.IntN(3) == 0 {
				tr = tr.Remove(k)
				delete(ref, k)
			} else {
				v := string(rune('a' + r.IntN(26)))
				tr = tr.Put(k, v)
				ref[k] = v
			}
			if step%250 == 0 {
				if err := tr.Check(); err != nil {
					t.Fatalf("step %d: %v", step, err)
				}
				snaps = append(snaps, snapshot{tree: tr, want: sortedEntries(ref)})
			}
		}
		if err := tr.Check(); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(sortedEntries(ref), entries(tr)); diff != "" {
			t.Errorf("(-ref +tree):\n%s", diff)
		}
		for i, s := range snaps {
			if diff := cmp.Diff(s.want, entries(s.tree)); diff != "" {
				t.Errorf("snapshot %d changed (-want +got):\n%s", i, diff)
			}
		}
	}
}

func sortedEntries(m map[int]string) []entry {
	var res []entry
	for k, v := range m {
		res = append(res, entry{K: k, V: v})
	}
	slices.SortFunc(res, func(a, b entry) int { return a.K - b.K })
	return res
}

func TestRemoveAll(t *testing.T) {
	tr := New[int, string](small())
	for i := range 200 {
		tr = tr.Put(i, "x")
	}
	full := tr
	for _, i := range rand.New(rand.NewPCG(1, 1)).Perm(200) {
		tr = tr.Remove(i)
		if err := tr.Check(); err != nil {
			t.Fatalf("after removing %d: %v", i, err)
		}
	}
	if tr.Len() != 0 {
		t.Errorf("Len %d after removing everything", tr.Len())
	}
	if full.Len() != 200 {
		t.Errorf("snapshot Len %d", full.Len())
	}
	if same := full.Remove(1000); same.root != full.root {
		t.Error("removing an absent key changed the tree")
	}
}

func TestStructuralSharing(t *testing.T) {
	tr := New[int, string](Ordered[int]())
	for i := range 10000 {
		tr = tr.Put(i, "x")
	}
	depth := 0
	for p := tr.page(tr.root); !p.leaf(); p = tr.page(p.kids[0]) {
		depth++
	}
	before := tr.arena.allocated()
	next := tr.Put(5000, "y")
	if n := next.arena.allocated() - before; n != depth+1 {
		t.Errorf("replacing one value allocated %d pages, want %d", n, depth+1)
	}
	if v, _ := tr.Get(5000); v != "x" {
		t.Errorf("old version sees %q", v)
	}
	if v, _ := next.Get(5000); v != "y" {
		t.Errorf("new version sees %q", v)
	}
}

func TestCompact(t *testing.T) {
	tr := New[int, string](small())
	for i := range 100 {
		tr = tr.Put(i, "x").Remove(i - 50)
	}
	c := tr.Compact()
	if err := c.Check(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(entries(tr), entries(c)); diff != "" {
		t.Errorf("(-tree +compacted):\n%s", diff)
	}
	if c.arena.allocated() >= tr.arena.allocated() {
		t.Errorf("compacted arena holds %d pages, original %d", c.arena.allocated(), tr.arena.allocated())
	}
	if c.Clear().Len() != 0 || c.Len() != 50 {
		t.Error("Clear changed the receiver")
	}
}

func TestCheckDetectsCorruption(t *testing.T) {
	tr := New[int, string](small())
	tr = tr.with(tr.arena.alloc(page[int, string]{keys: []int{2, 1}, vals: []string{"a", "b"}, size: 2}))
	err := tr.Check()
	var iv *InvariantViolation
	if !errors.As(err, &iv) || !errors.Is(err, item.ErrInvariant) {
		t.Errorf("got %v, want an invariant violation", err)
	}
}

func TestIterStops(t *testing.T) {
	tr := New[int, string](small())
	for i := range 50 {
		tr = tr.Put(i, "x")
	}
	var got []int
	for k := range tr.Keys() {
		if k == 10 {
			break
		}
		got = append(got, k)
	}
	if len(got) != 10 {
		t.Errorf("got %v", got)
	}
}

func TestItemKeys(t *testing.T) {
	ctx := NewContext(func(a, b item.Value) int { return item.Compare(a, b) })
	tr := New[item.Value, int](ctx)
	keys := []item.Value{item.Text("b"), item.Int(2), item.Text("a"), item.Float(1.5), item.Bool(true), item.Extant}
	for i, k := range keys {
		tr = tr.Put(k, i)
	}
	tr = tr.Put(item.Float(2), 99)
	if v, _ := tr.Get(item.Int(2)); v != 99 {
		t.Errorf("Float(2) and Int(2) are distinct keys")
	}
	var prev item.Value
	for k := range tr.Keys() {
		if prev != nil && item.Compare(prev, k) >= 0 {
			t.Errorf("keys out of order: %v then %v", prev, k)
		}
		prev = k
	}
}

// TestConcurrentReaders reads published snapshots while a single writer
// keeps deriving new versions from the same arena.
func TestConcurrentReaders(t *testing.T) {
	var (
		mu  sync.Mutex
		cur = New[int, string](small())
		wg  sync.WaitGroup
	)
	for i := range 100 {
		cur = cur.Put(i, "x")
	}
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				mu.Lock()
				snap := cur
				mu.Unlock()
				n := 0
				for range snap.All() {
					n++
				}
				if n != snap.Len() {
					t.Errorf("iterated %d of %d entries", n, snap.Len())
					return
				}
			}
		}()
	}
	for i := range 2000 {
		mu.Lock()
		next := cur.Put(100+i, "y").Remove(i)
		cur = next
		mu.Unlock()
	}
	wg.Wait()
}
