// Package client links to the lanes of WARP hosts.
//
// A Client keeps one Host per endpoint URI. Each host multiplexes every
// downlink opened on it over a single connection, which it opens when the
// first downlink or command needs it, reopens with backoff after failures
// and closes once it has been idle for Config.IdleTimeout.
//
// Downlinks opened on the same lane share one link and one copy of the
// lane state. Local changes made through a value, list or map downlink
// are visible at once and sent to the lane as commands.
package client

import (
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/swim-go/swim/transport"
)

// Spec holds what New builds a client from.
// Config contains the serializable settings loaded from a file.
type Spec struct {
	Config *Config
	// Dialer opens connections. It defaults to a transport.WebSocketDialer
	// configured from Config.
	Dialer transport.Dialer
	Log    *slog.Logger
}

// Client owns the hosts it has connected to.
type Client struct {
	spec Spec

	mu     sync.Mutex
	hosts  map[string]*Host
	closed bool
}

// New creates a client.
func New(spec *Spec) *Client {
	if spec == nil {
		spec = &Spec{}
	}
	s := *spec
	if s.Config == nil {
		s.Config = DefaultConfig()
	}
	if s.Log == nil {
		s.Log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slogLevel(),
		}))
	}
	if s.Dialer == nil {
		s.Dialer = &transport.WebSocketDialer{
			HandshakeTimeout: time.Duration(s.Config.HandshakeTimeout),
			WriteTimeout:     time.Duration(s.Config.WriteTimeout),
			Compression:      s.Config.Compression,
		}
	}
	return &Client{spec: s, hosts: map[string]*Host{}}
}

func slogLevel() slog.Level {
	if os.Getenv("SWIM_DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Host returns the host for uri, creating it on first use. The host does
// not connect until it has a downlink or a command to send.
func (c *Client) Host(uri string) (*Host, error) {
	if uri == "" {
		return nil, errors.New("client: empty host uri")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	h := c.hosts[uri]
	if h == nil {
		h = newHost(c, uri)
		c.hosts[uri] = h
	}
	return h, nil
}

// HostRef returns a reference to the host for uri.
func (c *Client) HostRef(uri string) *HostRef {
	return &HostRef{c: c, uri: uri}
}

// Close closes every host and waits for them to shut down. It must not
// be called from a callback.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	hosts := make([]*Host, 0, len(c.hosts))
	for _, h := range c.hosts {
		hosts = append(hosts, h)
	}
	c.mu.Unlock()
	for _, h := range hosts {
		h.Close()
	}
	for _, h := range hosts {
		<-h.Done()
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// forget removes a closed host so that the next Host call creates a new
// one.
func (c *Client) forget(h *Host) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hosts[h.uri] == h {
		delete(c.hosts, h.uri)
	}
}

// retire closes h if it is still idle, reporting whether it did. It runs
// on the dispatch goroutine of h.
func (c *Client) retire(h *Host) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || !h.idleLocked() || c.hosts[h.uri] != h {
		return false
	}
	h.closed = true
	delete(c.hosts, h.uri)
	return true
}
