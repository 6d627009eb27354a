package client

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/swim-go/swim/item"
	"github.com/swim-go/swim/recon"
)

// ListObserver observes a list downlink. An update at the end of the
// list appends, with an Absent old value.
type ListObserver struct {
	DownlinkObserver
	DidUpdate func(index int, newValue, oldValue item.Value)
	DidMove   func(from, to int, value item.Value)
	DidRemove func(index int, oldValue item.Value)
	DidDrop   func(n int)
	DidTake   func(n int)
	DidClear  func()
}

// ListDownlink follows a lane holding a sequence of values.
type ListDownlink struct {
	downlink
	lane *listLane
}

// Len returns the length of the list.
func (d *ListDownlink) Len() int {
	return len(d.lane.load())
}

// Get returns the value at index i.
func (d *ListDownlink) Get(i int) (item.Value, bool) {
	s := d.lane.load()
	if i < 0 || i >= len(s) {
		return item.Absent, false
	}
	return s[i], true
}

// Values returns the list. The slice must not be modified.
func (d *ListDownlink) Values() []item.Value {
	return d.lane.load()
}

// Set replaces the value at index i. Setting index Len appends.
func (d *ListDownlink) Set(i int, v item.Value) error {
	if i < 0 {
		return fmt.Errorf("%w: update(index:%d)", ErrOutOfRange, i)
	}
	return d.mutate(listOp{tag: "update", index: i, value: v})
}

// Push appends v.
func (d *ListDownlink) Push(v item.Value) error {
	return d.mutate(listOp{tag: "update", index: -1, value: v})
}

// Move moves the value at index from to index to.
func (d *ListDownlink) Move(from, to int) error {
	return d.mutate(listOp{tag: "move", index: from, to: to})
}

// Remove removes the value at index i.
func (d *ListDownlink) Remove(i int) error {
	return d.mutate(listOp{tag: "remove", index: i})
}

// Drop removes the first n values.
func (d *ListDownlink) Drop(n int) error {
	return d.mutate(listOp{tag: "drop", n: n})
}

// Take keeps the first n values.
func (d *ListDownlink) Take(n int) error {
	return d.mutate(listOp{tag: "take", n: n})
}

// Clear removes every value.
func (d *ListDownlink) Clear() error {
	return d.mutate(listOp{tag: "clear"})
}

func (d *ListDownlink) mutate(op listOp) error {
	if d.v.closed.Load() {
		return ErrClosed
	}
	m := d.v.m
	l := d.lane
	l.mu.Lock()
	defer l.mu.Unlock()
	s := slices.Clone(*l.cur.Load())
	if op.index < 0 && op.tag == "update" {
		op.index = len(s)
	}
	s, old, ok := op.apply(s)
	if !ok {
		return fmt.Errorf("%w: %s of list of length %d", ErrOutOfRange, op, len(*l.cur.Load()))
	}
	if err := m.h.enqueue(&command{addr: m.addr, body: op.body(), m: m}); err != nil {
		return err
	}
	l.cur.Store(&s)
	m.observe(op.notify(old))
	return nil
}

// listOp is one list operation, received as an event or sent as a
// command:
//
//	@update(index:i) value
//	@move(from:i,to:j)
//	@remove(index:i)
//	@drop(n)
//	@take(n)
//	@clear
type listOp struct {
	tag       string
	index, to int
	n         int
	value     item.Value
}

func parseListOp(body item.Value) (listOp, bool) {
	op := listOp{tag: item.Tag(body)}
	h := item.Header(body, op.tag)
	index := func(key string) int {
		return int(item.IntValue(item.Get(h, key), -1))
	}
	switch op.tag {
	case "update":
		op.index, op.value = index("index"), item.Body(body)
		return op, op.index >= 0
	case "move":
		op.index, op.to = index("from"), index("to")
		return op, op.index >= 0 && op.to >= 0
	case "remove":
		op.index = index("index")
		return op, op.index >= 0
	case "drop", "take":
		op.n = int(item.IntValue(h, 0))
		return op, op.n >= 0
	case "clear":
		return op, true
	}
	return op, false
}

func (op listOp) String() string {
	switch op.tag {
	case "update", "remove":
		return fmt.Sprintf("%s(index:%d)", op.tag, op.index)
	case "move":
		return fmt.Sprintf("move(from:%d,to:%d)", op.index, op.to)
	case "drop", "take":
		return fmt.Sprintf("%s(%d)", op.tag, op.n)
	}
	return op.tag
}

// apply applies op to s in place, returning the result and the value
// replaced or removed.
func (op listOp) apply(s []item.Value) ([]item.Value, item.Value, bool) {
	if op.index < 0 || op.to < 0 || op.n < 0 {
		return s, item.Absent, false
	}
	switch op.tag {
	case "update":
		switch {
		case op.index < len(s):
			old := s[op.index]
			s[op.index] = op.value
			return s, old, true
		case op.index == len(s):
			return append(s, op.value), item.Absent, true
		}
	case "move":
		if op.index < len(s) && op.to < len(s) {
			v := s[op.index]
			s = slices.Delete(s, op.index, op.index+1)
			return slices.Insert(s, op.to, v), v, true
		}
	case "remove":
		if op.index < len(s) {
			old := s[op.index]
			return slices.Delete(s, op.index, op.index+1), old, true
		}
	case "drop":
		return slices.Delete(s, 0, min(op.n, len(s))), item.Absent, true
	case "take":
		return s[:min(op.n, len(s)):min(op.n, len(s))], item.Absent, true
	case "clear":
		return s[:0:0], item.Absent, true
	}
	return s, item.Absent, false
}

func (op listOp) body() item.Value {
	index := func(key string, i int) item.Slot {
		return item.TextSlot(key, item.Int(int64(i)))
	}
	switch op.tag {
	case "update":
		return item.Attributed(op.tag, item.RecordOf(index("index", op.index)), op.value)
	case "move":
		return item.Attributed(op.tag, item.RecordOf(index("from", op.index), index("to", op.to)), item.Extant)
	case "remove":
		return item.Attributed(op.tag, item.RecordOf(index("index", op.index)), item.Extant)
	case "drop", "take":
		return item.Attributed(op.tag, item.Int(int64(op.n)), item.Extant)
	}
	return item.Attributed(op.tag, item.Extant, item.Extant)
}

func (op listOp) notify(old item.Value) update {
	return func(v *view) {
		o := v.list
		switch op.tag {
		case "update":
			if o.DidUpdate != nil {
				o.DidUpdate(op.index, op.value, old)
			}
		case "move":
			if o.DidMove != nil {
				o.DidMove(op.index, op.to, old)
			}
		case "remove":
			if o.DidRemove != nil {
				o.DidRemove(op.index, old)
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

// listLane holds the list as an immutable slice. Writers hold mu and
// publish a fresh slice; readers load cur without locking.
type listLane struct {
	mu      sync.Mutex
	cur     atomic.Pointer[[]item.Value]
	pending []item.Value
	build   bool
	log     *slog.Logger
}

func newListLane(log *slog.Logger) *listLane {
	l := &listLane{log: log}
	l.cur.Store(&[]item.Value{})
	return l
}

func (l *listLane) load() []item.Value {
	return *l.cur.Load()
}

func (l *listLane) begin() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.build, l.pending = true, nil
}

func (l *listLane) building() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.build
}

func (l *listLane) publish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.build {
		s := l.pending
		if s == nil {
			s = []item.Value{}
		}
		l.cur.Store(&s)
	}
	l.build, l.pending = false, nil
}

func (l *listLane) event(body item.Value) update {
	op, ok := parseListOp(body)
	if !ok {
		l.log.Debug("ignoring list event", "event", recon.String(body))
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.build {
		s, _, ok := op.apply(l.pending)
		if !ok {
			l.log.Warn("list event out of range", "op", op.String(), "len", len(l.pending))
			return nil
		}
		l.pending = s
		return nil
	}
	cur := *l.cur.Load()
	s, old, ok := op.apply(slices.Clone(cur))
	if !ok {
		l.log.Warn("list event out of range", "op", op.String(), "len", len(cur))
		return nil
	}
	l.cur.Store(&s)
	return op.notify(old)
}
