package client

import (
	"sync"
	"sync/atomic"

	"github.com/swim-go/swim/item"
)

// ValueObserver observes a value downlink.
type ValueObserver struct {
	DownlinkObserver
	DidSet func(newValue, oldValue item.Value)
}

// ValueDownlink follows a lane holding a single value.
type ValueDownlink struct {
	downlink
	lane *valueLane
}

// Get returns the current value, or Absent before the first one arrives.
func (d *ValueDownlink) Get() item.Value {
	return d.lane.get()
}

// Set replaces the value locally and sends it to the lane.
func (d *ValueDownlink) Set(v item.Value) error {
	if d.v.closed.Load() {
		return ErrClosed
	}
	m := d.v.m
	d.lane.mu.Lock()
	defer d.lane.mu.Unlock()
	if err := m.h.enqueue(&command{addr: m.addr, body: v, m: m}); err != nil {
		return err
	}
	old := d.lane.cur.Load().v
	d.lane.cur.Store(&box{v: v})
	m.observe(didSet(v, old))
	return nil
}

func didSet(newValue, oldValue item.Value) update {
	return func(v *view) {
		if f := v.value.DidSet; f != nil {
			f(newValue, oldValue)
		}
	}
}

type box struct {
	v item.Value
}

// valueLane holds the last value received. Writers hold mu; readers load
// cur without locking.
type valueLane struct {
	mu      sync.Mutex
	cur     atomic.Pointer[box]
	pending item.Value
	build   bool
}

func newValueLane() *valueLane {
	l := &valueLane{}
	l.cur.Store(&box{v: item.Absent})
	return l
}

func (l *valueLane) get() item.Value {
	return l.cur.Load().v
}

func (l *valueLane) begin() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.build, l.pending = true, nil
}

func (l *valueLane) building() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.build
}

// publish makes the value received during the sync visible. A sync that
// carried no value keeps the previous one.
func (l *valueLane) publish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.build && l.pending != nil {
		l.cur.Store(&box{v: l.pending})
	}
	l.build, l.pending = false, nil
}

func (l *valueLane) event(body item.Value) update {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.build {
		l.pending = body
		return nil
	}
	old := l.cur.Load().v
	l.cur.Store(&box{v: body})
	return didSet(body, old)
}
