// Package transport carries WARP envelopes between a client and a host.
//
// A Conn exchanges whole messages, one envelope each. Message bodies
// are streamed, so a reader may feed a chunked decoder as bytes arrive.
// A Conn supports one concurrent reader and one concurrent writer.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Subprotocol is the WebSocket subprotocol spoken by WARP hosts.
const Subprotocol = "warp0"

// ErrClosed is returned by operations on a closed connection.
var ErrClosed = errors.New("transport: connection closed")

// Conn is a message-oriented duplex connection.
type Conn interface {
	// NextReader blocks until the next message arrives and returns a
	// reader over its body. The reader is valid until the following
	// call to NextReader.
	NextReader() (io.Reader, error)
	// NextWriter returns a writer for one outgoing message. The message
	// is sent when the writer is closed.
	NextWriter() (io.WriteCloser, error)
	Close() error
}

// Dialer opens connections to hosts.
type Dialer interface {
	Dial(ctx context.Context, uri string) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, uri string) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, uri string) (Conn, error) {
	return f(ctx, uri)
}

// Error is a failure of the underlying connection. Hosts recover from
// it by reconnecting.
type Error struct {
	Op  string // "dial", "read", "write" or "close"
	URI string
	Err error
}

func (e *Error) Error() string {
	if e.URI == "" {
		return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport: %s %s: %v", e.Op, e.URI, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrap returns err as an *Error, leaving existing ones untouched.
func wrap(op, uri string, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	return &Error{Op: op, URI: uri, Err: err}
}
