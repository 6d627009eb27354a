package codec

import (
	"fmt"
	"unicode/utf8"
)

// Position locates a rune in an input stream. Line and Column are
// 1-based; Column counts runes.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, col %d (offset %d)", p.Line, p.Column, p.Offset)
}

// Input is a rune cursor over chunks of UTF-8 that arrive over time.
//
// At any moment the input is in one of three states:
//   - Cont: a full rune is available at Head.
//   - Empty: no full rune is available yet but more input may be fed.
//     A multi-byte sequence split across chunks is held back until it
//     completes.
//   - Done: Close has been called and every byte has been consumed.
//
// Consumed bytes are released on the next Feed.
type Input struct {
	buf   []byte
	off   int
	final bool
	pos   Position

	head rune
	size int
}

// NewInput returns an empty input positioned at line 1, column 1.
func NewInput() *Input {
	return &Input{pos: Position{Line: 1, Column: 1}}
}

// Feed appends chunk to the unread input. The chunk is copied. It panics
// if the input has been closed.
func (in *Input) Feed(chunk []byte) {
	if in.final {
		panic("codec: Feed after Close")
	}
	if in.off > 0 {
		n := copy(in.buf, in.buf[in.off:])
		in.buf = in.buf[:n]
		in.off = 0
	}
	in.buf = append(in.buf, chunk...)
	in.size = 0
}

// Close marks the end of input.
func (in *Input) Close() {
	in.final = true
	in.size = 0
}

// Reset discards all input and state.
func (in *Input) Reset() {
	in.buf = in.buf[:0]
	in.off = 0
	in.final = false
	in.pos = Position{Line: 1, Column: 1}
	in.size = 0
}

// decode caches the head rune. Invalid bytes and a truncated sequence at
// the end of a closed input decode as utf8.RuneError of width 1.
func (in *Input) decode() bool {
	if in.size > 0 {
		return true
	}
	rest := in.buf[in.off:]
	if len(rest) == 0 {
		return false
	}
	if !utf8.FullRune(rest) && !in.final {
		return false
	}
	in.head, in.size = utf8.DecodeRune(rest)
	return true
}

// Cont reports whether a full rune is available.
func (in *Input) Cont() bool {
	return in.decode()
}

// Empty reports whether more input is needed before the next rune.
func (in *Input) Empty() bool {
	return !in.final && !in.decode()
}

// Done reports whether the input is closed and exhausted.
func (in *Input) Done() bool {
	return in.final && in.off >= len(in.buf)
}

// Final reports whether Close has been called.
func (in *Input) Final() bool {
	return in.final
}

// Head returns the rune at the cursor. It is only meaningful when Cont
// reports true.
func (in *Input) Head() rune {
	if !in.decode() {
		return -1
	}
	return in.head
}

// Step advances past the head rune.
func (in *Input) Step() {
	if !in.decode() {
		panic("codec: Step without a rune")
	}
	in.off += in.size
	in.pos.Offset += in.size
	if in.head == '\n' {
		in.pos.Line++
		in.pos.Column = 1
	} else {
		in.pos.Column++
	}
	in.size = 0
}

// Pos returns the position of the head rune.
func (in *Input) Pos() Position {
	return in.pos
}

// Buffered returns the number of unconsumed bytes held by in.
func (in *Input) Buffered() int {
	return len(in.buf) - in.off
}
