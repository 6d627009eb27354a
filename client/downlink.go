package client

import (
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/swim-go/swim/debug"
	"github.com/swim-go/swim/item"
	"github.com/swim-go/swim/warp"
)

// DownlinkSpec addresses a lane and sets how a downlink follows it.
type DownlinkSpec struct {
	Node string
	Lane string
	Prio float64
	Rate float64
	// Body is sent with the link or sync request.
	Body item.Value
	// KeepLinked relinks the downlink after a reconnect. Without it the
	// downlink closes when the connection drops.
	KeepLinked bool
	// KeepSynced requests a snapshot of the lane state on every link.
	// Event downlinks never sync.
	KeepSynced bool
}

// NewDownlinkSpec returns a spec for lane of node that stays linked and
// synced.
func NewDownlinkSpec(node, lane string) DownlinkSpec {
	return DownlinkSpec{Node: node, Lane: lane, KeepLinked: true, KeepSynced: true}
}

// DownlinkState is the link state of a downlink.
type DownlinkState int32

const (
	DownlinkClosed DownlinkState = iota
	DownlinkLinking
	DownlinkLinked
	DownlinkSyncing
	DownlinkSynced
	DownlinkUnlinking
)

var downlinkStateNames = [...]string{
	DownlinkClosed:    "closed",
	DownlinkLinking:   "linking",
	DownlinkLinked:    "linked",
	DownlinkSyncing:   "syncing",
	DownlinkSynced:    "synced",
	DownlinkUnlinking: "unlinking",
}

func (s DownlinkState) String() string {
	if s < 0 || int(s) >= len(downlinkStateNames) {
		return fmt.Sprintf("DownlinkState(%d)", int(s))
	}
	return downlinkStateNames[s]
}

// DownlinkObserver holds the lifecycle callbacks shared by every kind of
// downlink. A nil field is not called. Callbacks run on the host's
// dispatch goroutine, one at a time, in the order of the events they
// report.
type DownlinkObserver struct {
	WillLink   func()
	DidLink    func()
	WillSync   func()
	DidSync    func()
	WillUnlink func()
	DidUnlink  func()
	// OnEvent is called with the body of every event received.
	OnEvent func(body item.Value)
	// OnCommand is called with the body of every command written.
	OnCommand     func(body item.Value)
	DidConnect    func()
	DidDisconnect func()
	DidFail       func(err error)
	DidClose      func()
}

type kind int

const (
	kindEvent kind = iota
	kindValue
	kindList
	kindMap
)

func (k kind) String() string {
	switch k {
	case kindEvent:
		return "event"
	case kindValue:
		return "value"
	case kindList:
		return "list"
	}
	return "map"
}

// update delivers one state change to a view.
type update func(v *view)

// lane is the cached state of a stateful downlink.
type lane interface {
	// begin starts a new baseline. Events go to it, unobserved, until
	// publish replaces the visible state with it.
	begin()
	building() bool
	publish()
	// event applies an event body and returns the update to deliver, or
	// nil when there is none to observe.
	event(body item.Value) update
}

// model is the state of one lane shared by all the downlinks opened on
// it. Its link state and callbacks are driven by the host's dispatch
// goroutine.
type model struct {
	h     *Host
	addr  warp.Address
	kind  kind
	spec  DownlinkSpec
	seq   uint64
	log   *slog.Logger
	lane  lane
	state atomic.Int32
	// views is guarded by h.mu.
	views []*view
}

func newModel(h *Host, k kind, spec DownlinkSpec, seq uint64) *model {
	m := &model{
		h:    h,
		addr: warp.Address{Node: spec.Node, Lane: spec.Lane},
		kind: k,
		spec: spec,
		seq:  seq,
		log:  h.log.With("node", spec.Node, "lane", spec.Lane),
	}
	switch k {
	case kindValue:
		m.lane = newValueLane()
	case kindList:
		m.lane = newListLane(m.log)
	case kindMap:
		m.lane = newMapLane(m.log)
	}
	return m
}

func (m *model) State() DownlinkState {
	return DownlinkState(m.state.Load())
}

func (m *model) setState(s DownlinkState) {
	prev := DownlinkState(m.state.Swap(int32(s)))
	if debug.Downlinks() && prev != s {
		debug.Logf("swim: %s %s/%s %s -> %s\n", m.h.uri, m.addr.Node, m.addr.Lane, prev, s)
	}
}

// linked reports whether commands may be written for the lane.
func (m *model) linked() bool {
	s := m.State()
	return s >= DownlinkLinked && s <= DownlinkSynced
}

func (m *model) syncs() bool {
	return m.lane != nil && m.spec.KeepSynced
}

// each calls f on every view open on m.
func (m *model) each(f func(v *view)) {
	m.h.mu.Lock()
	views := slices.Clone(m.views)
	m.h.mu.Unlock()
	for _, v := range views {
		f(v)
	}
}

// link sends the link or sync request. It is called once the host is
// open.
func (m *model) link() {
	if m.State() != DownlinkClosed {
		return
	}
	m.setState(DownlinkLinking)
	m.each(func(v *view) { call(v.obs.WillLink) })
	body := m.spec.Body
	if body == nil {
		body = item.Extant
	}
	if m.syncs() {
		m.lane.begin()
		m.h.send(warp.SyncRequest{Address: m.addr, Prio: m.spec.Prio, Rate: m.spec.Rate, Body: body})
		return
	}
	m.h.send(warp.LinkRequest{Address: m.addr, Prio: m.spec.Prio, Rate: m.spec.Rate, Body: body})
}

func (m *model) onLinked() {
	if m.State() != DownlinkLinking {
		return
	}
	m.setState(DownlinkLinked)
	m.each(func(v *view) { call(v.obs.DidLink) })
	if m.syncs() {
		m.setState(DownlinkSyncing)
		m.each(func(v *view) { call(v.obs.WillSync) })
	}
	m.h.flush()
}

func (m *model) onSynced() {
	if s := m.State(); s != DownlinkSyncing && s != DownlinkLinked {
		return
	}
	if m.lane != nil {
		m.lane.publish()
	}
	m.setState(DownlinkSynced)
	m.each(func(v *view) { call(v.obs.DidSync) })
}

func (m *model) onEvent(body item.Value) {
	m.each(func(v *view) { callValue(v.obs.OnEvent, body) })
	if m.lane == nil {
		return
	}
	if u := m.lane.event(body); u != nil {
		m.each(u)
	}
}

// observe delivers an update made through a downlink. Updates are held
// back while a baseline is being built.
func (m *model) observe(u update) {
	if u == nil {
		return
	}
	m.h.mbox.post(func() {
		if m.lane == nil || !m.lane.building() {
			m.each(u)
		}
	})
}

// onUnlinked handles an unlink initiated by the host.
func (m *model) onUnlinked() {
	m.setState(DownlinkClosed)
	m.each(func(v *view) { call(v.obs.DidUnlink) })
	m.h.retire(m)
}

func (m *model) connected() {
	m.each(func(v *view) { call(v.obs.DidConnect) })
}

func (m *model) disconnected() {
	m.setState(DownlinkClosed)
	m.each(func(v *view) { call(v.obs.DidDisconnect) })
}

func (m *model) failed(err error) {
	m.each(func(v *view) { callErr(v.obs.DidFail, err) })
}

// unlink is called when the last view v closes.
func (m *model) unlink(v *view) {
	if m.State() != DownlinkClosed && m.h.Phase() == PhaseOpen {
		call(v.obs.WillUnlink)
		m.setState(DownlinkUnlinking)
		m.h.unlinks[m.addr]++
		m.h.send(warp.UnlinkRequest{Address: m.addr, Body: item.Extant})
		call(v.obs.DidUnlink)
	}
	m.setState(DownlinkClosed)
}

// view is one downlink opened on a model.
type view struct {
	m      *model
	obs    *DownlinkObserver
	value  *ValueObserver
	list   *ListObserver
	mapObs *MapObserver
	closed atomic.Bool
}

func call(f func()) {
	if f != nil {
		f()
	}
}

func callValue(f func(item.Value), v item.Value) {
	if f != nil {
		f(v)
	}
}

func callErr(f func(error), err error) {
	if f != nil {
		f(err)
	}
}

func callInt(f func(int), n int) {
	if f != nil {
		f(n)
	}
}

// downlink holds the operations common to every kind of downlink.
type downlink struct {
	v *view
}

// Node returns the node URI of the downlink.
func (d downlink) Node() string { return d.v.m.addr.Node }

// Lane returns the lane URI of the downlink.
func (d downlink) Lane() string { return d.v.m.addr.Lane }

// State returns the link state of the lane.
func (d downlink) State() DownlinkState {
	if d.v.closed.Load() {
		return DownlinkClosed
	}
	return d.v.m.State()
}

// Command sends body to the lane. Commands issued before the lane is
// linked are written once it is.
func (d downlink) Command(body item.Value) error {
	if d.v.closed.Load() {
		return ErrClosed
	}
	return d.v.m.h.enqueue(&command{addr: d.v.m.addr, body: body, m: d.v.m})
}

// Close closes the downlink. The lane is unlinked when no other downlink
// remains open on it. DidClose is called once the close has taken effect.
func (d downlink) Close() {
	if d.v.closed.Swap(true) {
		return
	}
	h := d.v.m.h
	h.mbox.post(func() { h.closeView(d.v) })
}

// EventDownlink observes the events of a lane without keeping state.
type EventDownlink struct {
	downlink
}
