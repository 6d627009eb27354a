package client

import (
	"errors"
	"sync"

	"github.com/swim-go/swim/item"
)

// closer is implemented by every downlink.
type closer interface {
	Close()
}

// owner tracks what a ref opened so that closing the ref closes it.
type owner struct {
	mu     sync.Mutex
	links  []closer
	stops  []func()
	closed bool
}

func (o *owner) own(d closer) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		d.Close()
		return ErrClosed
	}
	o.links = append(o.links, d)
	return nil
}

func (o *owner) close() {
	o.mu.Lock()
	links, stops := o.links, o.stops
	o.links, o.stops, o.closed = nil, nil, true
	o.mu.Unlock()
	for _, d := range links {
		d.Close()
	}
	for _, stop := range stops {
		stop()
	}
}

// HostRef addresses a host by URI. A ref resolves its host on every call,
// so it outlives the host closing for idleness.
type HostRef struct {
	c   *Client
	uri string
	owner
}

// URI returns the host URI.
func (r *HostRef) URI() string { return r.uri }

// with calls f on the current host, retrying once when the host closed
// under it.
func (r *HostRef) with(f func(h *Host) error) error {
	for try := 0; ; try++ {
		h, err := r.c.Host(r.uri)
		if err != nil {
			return err
		}
		err = f(h)
		if !errors.Is(err, ErrClosed) || try > 0 || r.c.isClosed() {
			return err
		}
	}
}

// Observe registers obs on the host until the ref is closed.
func (r *HostRef) Observe(obs *HostObserver) error {
	h, err := r.c.Host(r.uri)
	if err != nil {
		return err
	}
	stop := h.Observe(obs)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		stop()
		return ErrClosed
	}
	r.stops = append(r.stops, stop)
	return nil
}

// Authenticate sets the credentials of the host.
func (r *HostRef) Authenticate(credentials item.Value) error {
	return r.with(func(h *Host) error { return h.Authenticate(credentials) })
}

// Command sends body to lane of node.
func (r *HostRef) Command(node, lane string, body item.Value) error {
	return r.with(func(h *Host) error { return h.Command(node, lane, body) })
}

// NodeRef returns a reference to node on the host.
func (r *HostRef) NodeRef(node string) *NodeRef {
	return &NodeRef{host: r, node: node}
}

// OpenEvent opens an event downlink owned by the ref.
func (r *HostRef) OpenEvent(spec DownlinkSpec, obs *DownlinkObserver) (d *EventDownlink, err error) {
	err = r.open(func(h *Host) (closer, error) {
		d, err = h.OpenEvent(spec, obs)
		return d, err
	}, &r.owner)
	return d, err
}

// OpenValue opens a value downlink owned by the ref.
func (r *HostRef) OpenValue(spec DownlinkSpec, obs *ValueObserver) (d *ValueDownlink, err error) {
	err = r.open(func(h *Host) (closer, error) {
		d, err = h.OpenValue(spec, obs)
		return d, err
	}, &r.owner)
	return d, err
}

// OpenList opens a list downlink owned by the ref.
func (r *HostRef) OpenList(spec DownlinkSpec, obs *ListObserver) (d *ListDownlink, err error) {
	err = r.open(func(h *Host) (closer, error) {
		d, err = h.OpenList(spec, obs)
		return d, err
	}, &r.owner)
	return d, err
}

// OpenMap opens a map downlink owned by the ref.
func (r *HostRef) OpenMap(spec DownlinkSpec, obs *MapObserver) (d *MapDownlink, err error) {
	err = r.open(func(h *Host) (closer, error) {
		d, err = h.OpenMap(spec, obs)
		return d, err
	}, &r.owner)
	return d, err
}

func (r *HostRef) open(f func(h *Host) (closer, error), o *owner) error {
	var d closer
	err := r.with(func(h *Host) (err error) {
		d, err = f(h)
		return err
	})
	if err != nil {
		return err
	}
	return o.own(d)
}

// Close closes the downlinks opened through the ref and removes its
// observers.
func (r *HostRef) Close() { r.close() }

// NodeRef addresses a node of a host.
type NodeRef struct {
	host *HostRef
	node string
	owner
}

// Node returns the node URI.
func (r *NodeRef) Node() string { return r.node }

// LaneRef returns a reference to lane of the node.
func (r *NodeRef) LaneRef(lane string) *LaneRef {
	return &LaneRef{node: r, lane: lane}
}

// Command sends body to lane of the node.
func (r *NodeRef) Command(lane string, body item.Value) error {
	return r.host.Command(r.node, lane, body)
}

// Close closes the downlinks opened through the ref.
func (r *NodeRef) Close() { r.close() }

// LaneRef addresses a lane of a node.
type LaneRef struct {
	node *NodeRef
	lane string
	owner
}

// Spec returns the default downlink spec for the lane.
func (r *LaneRef) Spec() DownlinkSpec {
	return NewDownlinkSpec(r.node.node, r.lane)
}

// Command sends body to the lane.
func (r *LaneRef) Command(body item.Value) error {
	return r.node.Command(r.lane, body)
}

// OpenEvent opens an event downlink on the lane, owned by the ref.
func (r *LaneRef) OpenEvent(obs *DownlinkObserver) (d *EventDownlink, err error) {
	err = r.node.host.open(func(h *Host) (closer, error) {
		d, err = h.OpenEvent(r.Spec(), obs)
		return d, err
	}, &r.owner)
	return d, err
}

// OpenValue opens a value downlink on the lane, owned by the ref.
func (r *LaneRef) OpenValue(obs *ValueObserver) (d *ValueDownlink, err error) {
	err = r.node.host.open(func(h *Host) (closer, error) {
		d, err = h.OpenValue(r.Spec(), obs)
		return d, err
	}, &r.owner)
	return d, err
}

// OpenList opens a list downlink on the lane, owned by the ref.
func (r *LaneRef) OpenList(obs *ListObserver) (d *ListDownlink, err error) {
	err = r.node.host.open(func(h *Host) (closer, error) {
		d, err = h.OpenList(r.Spec(), obs)
		return d, err
	}, &r.owner)
	return d, err
}

// OpenMap opens a map downlink on the lane, owned by the ref.
func (r *LaneRef) OpenMap(obs *MapObserver) (d *MapDownlink, err error) {
	err = r.node.host.open(func(h *Host) (closer, error) {
		d, err = h.OpenMap(r.Spec(), obs)
		return d, err
	}, &r.owner)
	return d, err
}

// Close closes the downlinks opened through the ref.
func (r *LaneRef) Close() { r.close() }
