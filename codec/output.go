package codec

// Status is the outcome of a resumable parse or write step.
type Status uint8

const (
	// Cont means the step stopped for lack of input or output capacity
	// and may be resumed.
	Cont Status = iota
	// Done means the step completed.
	Done
	// Error means the step failed; the error is terminal.
	Error
)

func (s Status) String() string {
	switch s {
	case Cont:
		return "cont"
	case Done:
		return "done"
	case Error:
		return "error"
	}
	return "status(?)"
}

// Output is a bounded byte sink over a caller-provided buffer.
type Output struct {
	buf []byte
	n   int
}

// NewOutput returns an output writing into buf[:len(buf)].
func NewOutput(buf []byte) *Output {
	return &Output{buf: buf}
}

// Write copies as much of p as fits and returns the number of bytes
// accepted.
func (o *Output) Write(p []byte) int {
	n := copy(o.buf[o.n:], p)
	o.n += n
	return n
}

// WriteString is Write for strings.
func (o *Output) WriteString(s string) int {
	n := copy(o.buf[o.n:], s)
	o.n += n
	return n
}

// Remaining returns the free capacity.
func (o *Output) Remaining() int {
	return len(o.buf) - o.n
}

// Full reports whether no capacity is left.
func (o *Output) Full() bool {
	return o.n == len(o.buf)
}

// Len returns the number of bytes written.
func (o *Output) Len() int {
	return o.n
}

// Bytes returns the bytes written so far.
func (o *Output) Bytes() []byte {
	return o.buf[:o.n]
}
