package client

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/swim-go/swim/debug"
	"github.com/swim-go/swim/item"
	"github.com/swim-go/swim/transport"
	"github.com/swim-go/swim/warp"
)

// Phase is the connection phase of a host.
type Phase int32

const (
	PhaseDisconnected Phase = iota
	PhaseConnecting
	PhaseConnected
	PhaseAuthenticating
	PhaseAuthenticated
	PhaseOpen
	PhaseClosed
)

var phaseNames = [...]string{
	PhaseDisconnected:   "disconnected",
	PhaseConnecting:     "connecting",
	PhaseConnected:      "connected",
	PhaseAuthenticating: "authenticating",
	PhaseAuthenticated:  "authenticated",
	PhaseOpen:           "open",
	PhaseClosed:         "closed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// HostObserver holds callbacks for the connection events of a host. A nil
// field is not called. Callbacks run on the host's dispatch goroutine.
type HostObserver struct {
	DidConnect func()
	// DidAuthenticate is called with the session body of an authed
	// response.
	DidAuthenticate   func(session item.Value)
	DidDeauthenticate func(err *AuthError)
	DidDisconnect     func()
	// DidFail is called with the *transport.Error that ended a connection
	// or a connection attempt.
	DidFail func(err error)
}

// Host multiplexes the downlinks of one endpoint over one connection.
//
// A single dispatch goroutine owns the connection and runs every
// callback. Operations called from any goroutine, callbacks included,
// take effect on the dispatch goroutine after the current step.
type Host struct {
	uri    string
	c      *Client
	cfg    *Config
	dialer transport.Dialer
	log    *slog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	mbox    *mailbox
	inbound chan inbound
	dialed  chan dialed
	done    chan struct{}
	phase   atomic.Int32

	mu        sync.Mutex
	closed    bool
	models    map[warp.Address]*model
	queue     commandQueue
	observers []*HostObserver
	keepAlive bool
	seq       uint64

	// Owned by the dispatch goroutine.
	conn        transport.Conn
	gen         int
	clog        *slog.Logger
	credentials item.Value
	unlinks     map[warp.Address]int
	attempt     int
	retry       *time.Timer
	idle        *time.Timer
	buf         []byte
}

type inbound struct {
	gen int
	env warp.Envelope
	err error
}

type dialed struct {
	gen  int
	conn transport.Conn
	err  error
}

func newHost(c *Client, uri string) *Host {
	ctx, cancel := context.WithCancel(context.Background())
	log := c.spec.Log.With("host", uri)
	h := &Host{
		uri:     uri,
		c:       c,
		cfg:     c.spec.Config,
		dialer:  c.spec.Dialer,
		log:     log,
		clog:    log,
		ctx:     ctx,
		cancel:  cancel,
		mbox:    newMailbox(),
		inbound: make(chan inbound),
		dialed:  make(chan dialed),
		done:    make(chan struct{}),
		models:  map[warp.Address]*model{},
		queue:   commandQueue{cfg: c.spec.Config.CommandQueue},
		unlinks: map[warp.Address]int{},
	}
	go h.run()
	return h
}

// URI returns the endpoint URI of the host.
func (h *Host) URI() string { return h.uri }

// Phase returns the connection phase.
func (h *Host) Phase() Phase { return Phase(h.phase.Load()) }

func (h *Host) setPhase(p Phase) {
	prev := Phase(h.phase.Swap(int32(p)))
	if debug.Reconnect() && prev != p {
		debug.Logf("swim: %s %s -> %s\n", h.uri, prev, p)
	}
}

// Done is closed once the host has shut down.
func (h *Host) Done() <-chan struct{} { return h.done }

// Observe registers obs until the returned function is called. A host
// with observers is never closed for idleness.
func (h *Host) Observe(obs *HostObserver) (stop func()) {
	h.mu.Lock()
	h.observers = append(h.observers, obs)
	h.mu.Unlock()
	h.mbox.post(func() {})
	return func() {
		h.mu.Lock()
		h.observers = slices.DeleteFunc(h.observers, func(o *HostObserver) bool { return o == obs })
		h.mu.Unlock()
		h.mbox.post(func() {})
	}
}

func (h *Host) eachObserver(f func(o *HostObserver)) {
	h.mu.Lock()
	obs := slices.Clone(h.observers)
	h.mu.Unlock()
	for _, o := range obs {
		f(o)
	}
}

// SetKeepAlive keeps the host connected while it has no downlinks.
func (h *Host) SetKeepAlive(v bool) {
	h.mu.Lock()
	h.keepAlive = v
	h.mu.Unlock()
	h.mbox.post(func() {})
}

// Authenticate sets the credentials sent on every connection. If the host
// is connected they are sent at once.
func (h *Host) Authenticate(credentials item.Value) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return ErrClosed
	}
	h.mbox.post(func() {
		h.credentials = credentials
		switch h.Phase() {
		case PhaseConnected:
			h.authenticate()
		case PhaseAuthenticated, PhaseOpen:
			h.send(warp.AuthRequest{Body: credentials})
		}
	})
	return nil
}

// Command sends body to lane of node once the host is open.
func (h *Host) Command(node, lane string, body item.Value) error {
	return h.enqueue(&command{addr: warp.Address{Node: node, Lane: lane}, body: body})
}

func (h *Host) enqueue(c *command) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	dropped, err := h.queue.push(c)
	h.mu.Unlock()
	if err != nil {
		return err
	}
	if dropped != nil {
		h.log.Warn("command dropped", "node", dropped.addr.Node, "lane", dropped.addr.Lane,
			"overflow", h.cfg.CommandQueue.Overflow.String())
	}
	h.mbox.post(h.flush)
	return nil
}

// OpenEvent opens an event downlink.
func (h *Host) OpenEvent(spec DownlinkSpec, obs *DownlinkObserver) (*EventDownlink, error) {
	if obs == nil {
		obs = &DownlinkObserver{}
	}
	spec.KeepSynced = false
	v := &view{obs: obs}
	if err := h.openView(spec, kindEvent, v); err != nil {
		return nil, err
	}
	return &EventDownlink{downlink{v}}, nil
}

// OpenValue opens a value downlink.
func (h *Host) OpenValue(spec DownlinkSpec, obs *ValueObserver) (*ValueDownlink, error) {
	if obs == nil {
		obs = &ValueObserver{}
	}
	v := &view{obs: &obs.DownlinkObserver, value: obs}
	if err := h.openView(spec, kindValue, v); err != nil {
		return nil, err
	}
	return &ValueDownlink{downlink{v}, v.m.lane.(*valueLane)}, nil
}

// OpenList opens a list downlink.
func (h *Host) OpenList(spec DownlinkSpec, obs *ListObserver) (*ListDownlink, error) {
	if obs == nil {
		obs = &ListObserver{}
	}
	v := &view{obs: &obs.DownlinkObserver, list: obs}
	if err := h.openView(spec, kindList, v); err != nil {
		return nil, err
	}
	return &ListDownlink{downlink{v}, v.m.lane.(*listLane)}, nil
}

// OpenMap opens a map downlink.
func (h *Host) OpenMap(spec DownlinkSpec, obs *MapObserver) (*MapDownlink, error) {
	if obs == nil {
		obs = &MapObserver{}
	}
	v := &view{obs: &obs.DownlinkObserver, mapObs: obs}
	if err := h.openView(spec, kindMap, v); err != nil {
		return nil, err
	}
	return &MapDownlink{downlink{v}, v.m.lane.(*mapLane)}, nil
}

// openView registers v on the model of its lane, creating the model on
// first use.
func (h *Host) openView(spec DownlinkSpec, k kind, v *view) error {
	addr := warp.Address{Node: spec.Node, Lane: spec.Lane}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	m := h.models[addr]
	switch {
	case m == nil:
		h.seq++
		m = newModel(h, k, spec, h.seq)
		h.models[addr] = m
	case m.kind != k:
		h.mu.Unlock()
		return fmt.Errorf("%w: %s/%s has a %s downlink", ErrDownlinkConflict, addr.Node, addr.Lane, m.kind)
	}
	v.m = m
	m.views = append(m.views, v)
	h.mu.Unlock()
	h.mbox.post(func() { h.attach(v) })
	return nil
}

// attach brings a new view up to the state of its model.
func (h *Host) attach(v *view) {
	m := v.m
	switch m.State() {
	case DownlinkClosed:
		if h.Phase() == PhaseOpen {
			m.link()
		}
	case DownlinkLinked, DownlinkSyncing:
		call(v.obs.DidLink)
	case DownlinkSynced:
		call(v.obs.DidLink)
		call(v.obs.DidSync)
	}
}

func (h *Host) closeView(v *view) {
	m := v.m
	h.mu.Lock()
	i := slices.Index(m.views, v)
	if i < 0 {
		h.mu.Unlock()
		return
	}
	m.views = slices.Delete(m.views, i, i+1)
	last := len(m.views) == 0 && h.models[m.addr] == m
	if last {
		delete(h.models, m.addr)
		if n := h.queue.purge(m); n > 0 {
			m.log.Debug("discarding commands of closed downlink", "count", n)
		}
	}
	h.mu.Unlock()
	if last {
		m.unlink(v)
	}
	call(v.obs.DidClose)
}

// retire removes m from the registry and closes its views.
func (h *Host) retire(m *model) {
	h.mu.Lock()
	if h.models[m.addr] == m {
		delete(h.models, m.addr)
	}
	views := m.views
	m.views = nil
	h.queue.purge(m)
	h.mu.Unlock()
	m.setState(DownlinkClosed)
	for _, v := range views {
		v.closed.Store(true)
		call(v.obs.DidClose)
	}
}

func (h *Host) sortedModels() []*model {
	h.mu.Lock()
	defer h.mu.Unlock()
	ms := make([]*model, 0, len(h.models))
	for _, m := range h.models {
		ms = append(ms, m)
	}
	slices.SortFunc(ms, func(a, b *model) int { return cmp.Compare(a.seq, b.seq) })
	return ms
}

// Close closes every downlink of the host and its connection,
// writing queued commands first when the host is open. It does not wait;
// Done is closed once the host has shut down.
func (h *Host) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()
	h.c.forget(h)
	h.mbox.post(h.shutdown)
}

func (h *Host) run() {
	defer close(h.done)
	for h.Phase() != PhaseClosed {
		select {
		case <-h.mbox.notify:
			for _, step := range h.mbox.take() {
				step()
				if h.Phase() == PhaseClosed {
					return
				}
			}
		case in := <-h.inbound:
			h.receive(in)
		case d := <-h.dialed:
			h.onDialed(d)
		case <-timerC(h.retry):
			h.retry = nil
		case <-timerC(h.idle):
			h.idle = nil
			h.onIdle()
		}
		if h.Phase() != PhaseClosed {
			h.maintain()
		}
	}
}

func timerC(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

// needsConnection reports whether the host has work for a connection.
func (h *Host) needsConnection() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.models) > 0 || h.queue.len() > 0 || h.keepAlive || h.credentials != nil
}

func (h *Host) idleLocked() bool {
	return len(h.models) == 0 && h.queue.len() == 0 && !h.keepAlive && len(h.observers) == 0 &&
		h.credentials == nil
}

// maintain connects when there is work and arms the idle timer when there
// is none.
func (h *Host) maintain() {
	if h.needsConnection() {
		if h.idle != nil {
			h.idle.Stop()
			h.idle = nil
		}
		if h.Phase() == PhaseDisconnected && h.retry == nil {
			h.connect()
		}
		return
	}
	h.mu.Lock()
	idle := h.idleLocked()
	h.mu.Unlock()
	if idle && h.idle == nil && h.cfg.IdleTimeout > 0 {
		h.idle = time.NewTimer(time.Duration(h.cfg.IdleTimeout))
	}
}

func (h *Host) onIdle() {
	if !h.c.retire(h) {
		return
	}
	h.log.Info("closing idle host")
	h.shutdown()
}

func (h *Host) connect() {
	h.setPhase(PhaseConnecting)
	h.gen++
	gen := h.gen
	if debug.Reconnect() {
		debug.Logf("swim: %s dialing, attempt %d\n", h.uri, h.attempt)
	}
	go func() {
		conn, err := h.dialer.Dial(h.ctx, h.uri)
		select {
		case h.dialed <- dialed{gen: gen, conn: conn, err: err}:
		case <-h.done:
			if conn != nil {
				conn.Close()
			}
		}
	}()
}

func (h *Host) onDialed(d dialed) {
	if d.gen != h.gen || h.Phase() != PhaseConnecting {
		if d.conn != nil {
			d.conn.Close()
		}
		return
	}
	if d.err != nil {
		h.log.Warn("connect failed", "error", d.err, "attempt", h.attempt)
		h.setPhase(PhaseDisconnected)
		h.failed(d.err)
		h.backoff()
		return
	}
	h.conn = d.conn
	h.clog = h.log.With("conn", ulid.Make().String())
	h.setPhase(PhaseConnected)
	h.clog.Info("connected")
	go h.read(d.conn, d.gen)
	h.eachObserver(func(o *HostObserver) { call(o.DidConnect) })
	for _, m := range h.sortedModels() {
		m.connected()
	}
	if h.Phase() != PhaseConnected {
		return
	}
	if h.credentials != nil {
		h.authenticate()
		return
	}
	h.ready()
}

func (h *Host) authenticate() {
	h.setPhase(PhaseAuthenticating)
	h.send(warp.AuthRequest{Body: h.credentials})
}

// ready opens the host: every registered downlink links again and queued
// commands are written in order.
func (h *Host) ready() {
	h.setPhase(PhaseOpen)
	h.attempt = 0
	for _, m := range h.sortedModels() {
		m.link()
		if h.Phase() != PhaseOpen {
			return
		}
	}
	h.flush()
}

// backoff schedules the next connection attempt, doubling the delay from
// ReconnectMin up to ReconnectMax.
func (h *Host) backoff() {
	d := max(time.Duration(h.cfg.ReconnectMin), time.Millisecond)
	for range h.attempt {
		d *= 2
		if d >= time.Duration(h.cfg.ReconnectMax) {
			d = time.Duration(h.cfg.ReconnectMax)
			break
		}
	}
	h.attempt++
	if debug.Reconnect() {
		debug.Logf("swim: %s reconnecting in %s\n", h.uri, d)
	}
	h.retry = time.NewTimer(d)
}

// read delivers the envelopes of conn to the dispatch goroutine until the
// connection fails.
func (h *Host) read(conn transport.Conn, gen int) {
	dec := warp.NewDecoder()
	for {
		r, err := conn.NextReader()
		var env warp.Envelope
		if err == nil {
			env, err = dec.ReadEnvelope(r)
			var pe *warp.ProtocolError
			if errors.As(err, &pe) {
				h.log.Warn("discarding envelope", "error", err)
				continue
			}
		}
		if err != nil {
			var te *transport.Error
			if !errors.As(err, &te) {
				err = &transport.Error{Op: "read", URI: h.uri, Err: err}
			}
		}
		select {
		case h.inbound <- inbound{gen: gen, env: env, err: err}:
		case <-h.done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (h *Host) receive(in inbound) {
	if in.gen != h.gen || h.conn == nil {
		return
	}
	if in.err != nil {
		h.drop(in.err)
		return
	}
	if debug.Envelopes() {
		debug.Logf("swim: %s recv %s\n", h.uri, warp.String(in.env))
	}
	h.dispatch(in.env)
}

func (h *Host) dispatch(env warp.Envelope) {
	switch e := env.(type) {
	case warp.AuthedResponse:
		h.clog.Info("authenticated")
		h.eachObserver(func(o *HostObserver) { callValue(o.DidAuthenticate, e.Body) })
		if h.Phase() == PhaseAuthenticating {
			h.setPhase(PhaseAuthenticated)
			h.ready()
		}
		return
	case warp.DeauthedResponse:
		err := &AuthError{Host: h.uri, Body: e.Body}
		h.clog.Warn("deauthenticated", "error", err)
		h.eachObserver(func(o *HostObserver) {
			if o.DidDeauthenticate != nil {
				o.DidDeauthenticate(err)
			}
		})
		if h.Phase() == PhaseAuthenticating {
			h.ready()
		}
		return
	}
	le, ok := env.(warp.LaneEnvelope)
	if !ok {
		h.clog.Debug("ignoring envelope", "tag", env.Tag())
		return
	}
	addr := le.Addr()
	// Until the host answers our unlink, replies for addr belong to the
	// closed link, not to a model reopened on the same lane.
	if n := h.unlinks[addr]; n > 0 {
		if _, ok := env.(warp.UnlinkedResponse); ok {
			if n == 1 {
				delete(h.unlinks, addr)
			} else {
				h.unlinks[addr] = n - 1
			}
		}
		if debug.Envelopes() {
			debug.Logf("swim: %s discarding %s for closed link %s/%s\n", h.uri, env.Tag(), addr.Node, addr.Lane)
		}
		return
	}
	h.mu.Lock()
	m := h.models[addr]
	h.mu.Unlock()
	if m == nil {
		if debug.Envelopes() {
			debug.Logf("swim: %s no downlink for %s/%s\n", h.uri, addr.Node, addr.Lane)
		}
		return
	}
	switch e := env.(type) {
	case warp.EventMessage:
		m.onEvent(e.Body)
	case warp.LinkedResponse:
		m.onLinked()
	case warp.SyncedResponse:
		m.onSynced()
	case warp.UnlinkedResponse:
		m.onUnlinked()
	default:
		m.log.Debug("ignoring envelope", "tag", env.Tag())
	}
}

// send writes env, reporting whether the connection survived. An
// envelope that cannot be encoded is logged and skipped.
func (h *Host) send(env warp.Envelope) bool {
	if h.conn == nil {
		return false
	}
	b, err := warp.Append(h.buf[:0], env)
	if err != nil {
		h.clog.Error("cannot encode envelope", "tag", env.Tag(), "error", err)
		return true
	}
	h.buf = b
	if debug.Envelopes() {
		debug.Logf("swim: %s send %s\n", h.uri, b)
	}
	w, err := h.conn.NextWriter()
	if err == nil {
		_, err = w.Write(b)
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		h.drop(err)
		return false
	}
	return true
}

// flush writes queued commands in order while the host is open. A
// command is removed only once written; commands of lanes not yet linked
// wait.
func (h *Host) flush() {
	for h.Phase() == PhaseOpen {
		h.mu.Lock()
		c := h.queue.next()
		h.mu.Unlock()
		if c == nil {
			return
		}
		if !h.send(warp.CommandMessage{Address: c.addr, Body: c.body}) {
			return
		}
		h.mu.Lock()
		h.queue.remove(c)
		h.mu.Unlock()
		if c.m != nil {
			c.m.each(func(v *view) { callValue(v.obs.OnCommand, c.body) })
		}
	}
}

// drop ends the current connection after a failure and schedules a
// reconnect.
func (h *Host) drop(err error) {
	if h.conn == nil {
		return
	}
	h.conn.Close()
	h.conn = nil
	h.gen++
	clear(h.unlinks)
	h.setPhase(PhaseDisconnected)
	if errors.Is(err, io.EOF) {
		h.clog.Info("disconnected")
	} else {
		h.clog.Warn("connection failed", "error", err)
		h.failed(err)
	}
	h.clog = h.log
	h.eachObserver(func(o *HostObserver) { call(o.DidDisconnect) })
	for _, m := range h.sortedModels() {
		m.disconnected()
		if !m.spec.KeepLinked {
			h.retire(m)
		}
	}
	h.backoff()
}

func (h *Host) failed(err error) {
	h.eachObserver(func(o *HostObserver) { callErr(o.DidFail, err) })
	for _, m := range h.sortedModels() {
		m.failed(err)
	}
}

func (h *Host) shutdown() {
	if h.Phase() == PhaseClosed {
		return
	}
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	if h.Phase() == PhaseOpen {
		h.flush()
	}
	for _, m := range h.sortedModels() {
		if m.State() != DownlinkClosed && h.Phase() == PhaseOpen {
			m.each(func(v *view) { call(v.obs.WillUnlink) })
			h.send(warp.UnlinkRequest{Address: m.addr, Body: item.Extant})
			m.each(func(v *view) { call(v.obs.DidUnlink) })
		}
		h.retire(m)
	}
	if h.conn != nil {
		h.conn.Close()
		h.conn = nil
		h.eachObserver(func(o *HostObserver) { call(o.DidDisconnect) })
	}
	for _, t := range []*time.Timer{h.retry, h.idle} {
		if t != nil {
			t.Stop()
		}
	}
	h.retry, h.idle = nil, nil
	h.cancel()
	h.setPhase(PhaseClosed)
	h.log.Info("host closed")
}
