package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketDialer dials hosts over WebSocket. Host URIs may use the ws,
// wss, http, https, warp and warps schemes; the latter four are mapped
// onto ws and wss.
type WebSocketDialer struct {
	HandshakeTimeout time.Duration
	// WriteTimeout bounds the time to send one message. Zero means no
	// deadline.
	WriteTimeout time.Duration
	// Compression negotiates permessage-deflate.
	Compression bool
	Header      http.Header
	TLS         *tls.Config
}

// DefaultWebSocketDialer returns a dialer with the default timeouts.
func DefaultWebSocketDialer() *WebSocketDialer {
	return &WebSocketDialer{
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}

func (d *WebSocketDialer) Dial(ctx context.Context, uri string) (Conn, error) {
	u, err := WebSocketURL(uri)
	if err != nil {
		return nil, &Error{Op: "dial", URI: uri, Err: err}
	}
	wd := &websocket.Dialer{
		Proxy:             http.ProxyFromEnvironment,
		HandshakeTimeout:  d.HandshakeTimeout,
		Subprotocols:      []string{Subprotocol},
		EnableCompression: d.Compression,
		TLSClientConfig:   d.TLS,
	}
	ws, resp, err := wd.DialContext(ctx, u, d.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, &Error{Op: "dial", URI: uri, Err: err}
	}
	return &wsConn{ws: ws, uri: uri, writeTimeout: d.WriteTimeout}, nil
}

// WebSocketURL returns the WebSocket form of a host URI.
func WebSocketURL(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http", "warp":
		u.Scheme = "ws"
	case "https", "warps":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host in %q", uri)
	}
	return u.String(), nil
}

type wsConn struct {
	ws           *websocket.Conn
	uri          string
	writeTimeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

func (c *wsConn) NextReader() (io.Reader, error) {
	_, r, err := c.ws.NextReader()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, &Error{Op: "read", URI: c.uri, Err: io.EOF}
		}
		return nil, &Error{Op: "read", URI: c.uri, Err: err}
	}
	return r, nil
}

func (c *wsConn) NextWriter() (io.WriteCloser, error) {
	if c.writeTimeout > 0 {
		c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	w, err := c.ws.NextWriter(websocket.TextMessage)
	if err != nil {
		return nil, &Error{Op: "write", URI: c.uri, Err: err}
	}
	return &wsWriter{w: w, uri: c.uri}, nil
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.closeErr = wrap("close", c.uri, c.ws.Close())
	})
	return c.closeErr
}

type wsWriter struct {
	w   io.WriteCloser
	uri string
}

func (w *wsWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	return n, wrap("write", w.uri, err)
}

func (w *wsWriter) Close() error {
	return wrap("write", w.uri, w.w.Close())
}
