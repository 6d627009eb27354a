package transport

import (
	"bytes"
	"context"
	"io"
	"sync"
)

const pipeBuffer = 64

// Pipe returns the two ends of an in-memory connection. Closing either
// end closes both.
func Pipe() (Conn, Conn) {
	ab := make(chan []byte, pipeBuffer)
	ba := make(chan []byte, pipeBuffer)
	s := &pipeState{done: make(chan struct{})}
	return &pipeConn{in: ba, out: ab, state: s}, &pipeConn{in: ab, out: ba, state: s}
}

type pipeState struct {
	once sync.Once
	done chan struct{}
}

type pipeConn struct {
	in    <-chan []byte
	out   chan<- []byte
	state *pipeState
}

func (c *pipeConn) NextReader() (io.Reader, error) {
	// Deliver what the peer sent before it closed.
	select {
	case msg := <-c.in:
		return bytes.NewReader(msg), nil
	default:
	}
	select {
	case msg := <-c.in:
		return bytes.NewReader(msg), nil
	case <-c.state.done:
		return nil, &Error{Op: "read", Err: io.EOF}
	}
}

func (c *pipeConn) NextWriter() (io.WriteCloser, error) {
	select {
	case <-c.state.done:
		return nil, &Error{Op: "write", Err: ErrClosed}
	default:
	}
	return &pipeWriter{c: c}, nil
}

func (c *pipeConn) Close() error {
	c.state.once.Do(func() { close(c.state.done) })
	return nil
}

type pipeWriter struct {
	c   *pipeConn
	buf bytes.Buffer
}

func (w *pipeWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *pipeWriter) Close() error {
	select {
	case w.c.out <- w.buf.Bytes():
		return nil
	case <-w.c.state.done:
		return &Error{Op: "write", Err: ErrClosed}
	}
}

// PipeDialer dials in-memory hosts. Each Dial creates a Pipe and hands
// its server end to Accept, which must not block.
type PipeDialer struct {
	// Accept serves one connection. A non-nil error fails the dial.
	Accept func(uri string, server Conn) error
}

func (d *PipeDialer) Dial(ctx context.Context, uri string) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "dial", URI: uri, Err: err}
	}
	client, server := Pipe()
	if err := d.Accept(uri, server); err != nil {
		client.Close()
		return nil, &Error{Op: "dial", URI: uri, Err: err}
	}
	return client, nil
}
