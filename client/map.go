package client

import (
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/swim-go/swim/btree"
	"github.com/swim-go/swim/item"
	"github.com/swim-go/swim/recon"
)

// MapObserver observes a map downlink.
type MapObserver struct {
	DownlinkObserver
	DidUpdate func(key, newValue, oldValue item.Value)
	DidRemove func(key, oldValue item.Value)
	DidDrop   func(n int)
	DidTake   func(n int)
	DidClear  func()
}

// Tree is the state of a map downlink, ordered by item.Compare.
type Tree = btree.Tree[item.Value, item.Value]

const compactPages = 4096

var treeContext = btree.NewContext(func(a, b item.Value) int { return item.Compare(a, b) })

// MapDownlink follows a lane holding an ordered map.
type MapDownlink struct {
	downlink
	lane *mapLane
}

// Snapshot returns the current state. It is immutable and stays valid
// while the downlink changes.
func (d *MapDownlink) Snapshot() Tree {
	return d.lane.load()
}

// Get returns the value stored under key.
func (d *MapDownlink) Get(key item.Value) (item.Value, bool) {
	v, ok := d.lane.load().Get(key)
	if !ok {
		return item.Absent, false
	}
	return v, true
}

// Has reports whether key is present.
func (d *MapDownlink) Has(key item.Value) bool {
	return d.lane.load().Has(key)
}

// Len returns the number of entries.
func (d *MapDownlink) Len() int {
	return d.lane.load().Len()
}

// All yields the entries of the current state in key order.
func (d *MapDownlink) All() iter.Seq2[item.Value, item.Value] {
	return d.lane.load().All()
}

// Put stores value under key and sends the update to the lane.
func (d *MapDownlink) Put(key, value item.Value) error {
	return d.mutate(mapOp{tag: "update", key: key, value: value})
}

// Remove removes key and sends the removal to the lane.
func (d *MapDownlink) Remove(key item.Value) error {
	return d.mutate(mapOp{tag: "remove", key: key})
}

// Drop removes the n least entries.
func (d *MapDownlink) Drop(n int) error {
	return d.mutate(mapOp{tag: "drop", n: max(n, 0)})
}

// Take keeps the n least entries.
func (d *MapDownlink) Take(n int) error {
	return d.mutate(mapOp{tag: "take", n: max(n, 0)})
}

// Clear removes every entry.
func (d *MapDownlink) Clear() error {
	return d.mutate(mapOp{tag: "clear"})
}

func (d *MapDownlink) mutate(op mapOp) error {
	if d.v.closed.Load() {
		return ErrClosed
	}
	m := d.v.m
	l := d.lane
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := m.h.enqueue(&command{addr: m.addr, body: op.body(), m: m}); err != nil {
		return err
	}
	t, old, changed := op.apply(*l.cur.Load())
	l.store(t)
	if changed {
		m.observe(op.notify(old))
	}
	return nil
}

// mapOp is one map operation, received as an event or sent as a command:
//
//	@update(key:k) value
//	@remove(key:k)
//	@drop(n)
//	@take(n)
//	@clear
type mapOp struct {
	tag   string
	key   item.Value
	value item.Value
	n     int
}

func parseMapOp(body item.Value) (mapOp, bool) {
	op := mapOp{tag: item.Tag(body)}
	h := item.Header(body, op.tag)
	switch op.tag {
	case "update":
		op.key, op.value = item.Get(h, "key"), item.Body(body)
		return op, item.IsDefined(op.key)
	case "remove":
		op.key = item.Get(h, "key")
		return op, item.IsDefined(op.key)
	case "drop", "take":
		op.n = int(item.IntValue(h, 0))
		return op, op.n >= 0
	case "clear":
		return op, true
	}
	return op, false
}

// apply applies op to t, reporting whether t changed.
func (op mapOp) apply(t Tree) (Tree, item.Value, bool) {
	switch op.tag {
	case "update":
		old, ok := t.Get(op.key)
		if !ok {
			old = item.Absent
		}
		return t.Put(op.key, op.value), old, true
	case "remove":
		old, ok := t.Get(op.key)
		if !ok {
			return t, item.Absent, false
		}
		return t.Remove(op.key), old, true
	case "drop":
		for i := 0; i < op.n && t.Len() > 0; i++ {
			k, _, _ := t.First()
			t = t.Remove(k)
		}
		return t, item.Absent, true
	case "take":
		for t.Len() > op.n {
			k, _, _ := t.Last()
			t = t.Remove(k)
		}
		return t, item.Absent, true
	case "clear":
		return t.Clear(), item.Absent, true
	}
	return t, item.Absent, false
}

func (op mapOp) body() item.Value {
	switch op.tag {
	case "update":
		return item.Attributed(op.tag, item.RecordOf(item.TextSlot("key", op.key)), op.value)
	case "remove":
		return item.Attributed(op.tag, item.RecordOf(item.TextSlot("key", op.key)), item.Extant)
	case "drop", "take":
		return item.Attributed(op.tag, item.Int(int64(op.n)), item.Extant)
	}
	return item.Attributed(op.tag, item.Extant, item.Extant)
}

func (op mapOp) notify(old item.Value) update {
	return func(v *view) {
		o := v.mapObs
		switch op.tag {
		case "update":
			if o.DidUpdate != nil {
				o.DidUpdate(op.key, op.value, old)
			}
		case "remove":
			if o.DidRemove != nil {
				o.DidRemove(op.key, old)
			}
		case "drop":
			callInt(o.DidDrop, op.n)
		case "take":
			callInt(o.DidTake, op.n)
		case "clear":
			call(o.DidClear)
		}
	}
}

// mapLane holds the map as a persistent tree. Writers hold mu and
// publish new versions; readers load cur without locking.
type mapLane struct {
	mu      sync.Mutex
	cur     atomic.Pointer[Tree]
	pending Tree
	build   bool
	log     *slog.Logger
}

func newMapLane(log *slog.Logger) *mapLane {
	l := &mapLane{log: log}
	t := btree.New[item.Value, item.Value](treeContext)
	l.cur.Store(&t)
	return l
}

func (l *mapLane) load() Tree {
	return *l.cur.Load()
}

// store publishes t. A tree whose arena mostly holds superseded pages is
// first copied into a fresh one.
func (l *mapLane) store(t Tree) {
	if n := t.Allocated(); n > compactPages && n > 8*(t.Len()/btree.DefaultMerge+1) {
		t = t.Compact()
	}
	l.cur.Store(&t)
}

// begin starts the baseline from an empty tree in a fresh arena, so the
// pages of earlier versions are released once no snapshot holds them.
func (l *mapLane) begin() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.build, l.pending = true, btree.New[item.Value, item.Value](treeContext)
}

func (l *mapLane) building() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.build
}

func (l *mapLane) publish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.build {
		t := l.pending
		l.cur.Store(&t)
	}
	l.build, l.pending = false, Tree{}
}

func (l *mapLane) event(body item.Value) update {
	op, ok := parseMapOp(body)
	if !ok {
		l.log.Debug("ignoring map event", "event", recon.String(body))
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.build {
		l.pending, _, _ = op.apply(l.pending)
		return nil
	}
	t, old, changed := op.apply(*l.cur.Load())
	if !changed {
		return nil
	}
	l.store(t)
	return op.notify(old)
}
