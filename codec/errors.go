// Package codec holds the resumable input and output primitives shared by
// the Recon parser and writer, and the errors they report.
package codec

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrParse = errors.New("parse error")
	ErrWrite = errors.New("write error")
)

// ParseError reports malformed input. It is terminal for the parse that
// produced it.
type ParseError struct {
	Pos Position
	// Expected describes what the parser was looking for, e.g. "')'".
	Expected string
	// Found is the offending rune; it is -1 at end of input.
	Found rune
	Msg   string
}

func (e *ParseError) Error() string {
	found := "end of input"
	if e.Found >= 0 {
		found = strconv.QuoteRune(e.Found)
	}
	switch {
	case e.Expected != "" && e.Msg != "":
		return fmt.Sprintf("parse error at %s: %s: expected %s but found %s", e.Pos, e.Msg, e.Expected, found)
	case e.Expected != "":
		return fmt.Sprintf("parse error at %s: expected %s but found %s", e.Pos, e.Expected, found)
	}
	return fmt.Sprintf("parse error at %s: %s (found %s)", e.Pos, e.Msg, found)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// Expected returns a ParseError at the head of in.
func Expected(in *Input, expected string) *ParseError {
	return &ParseError{Pos: in.Pos(), Expected: expected, Found: found(in)}
}

// Unexpected returns a ParseError at the head of in with a message.
func Unexpected(in *Input, format string, args ...any) *ParseError {
	return &ParseError{Pos: in.Pos(), Found: found(in), Msg: fmt.Sprintf(format, args...)}
}

func found(in *Input) rune {
	if in.Cont() {
		return in.Head()
	}
	return -1
}

// WriteError reports a value that cannot be written.
type WriteError struct {
	Msg string
}

func (e *WriteError) Error() string {
	return "write error: " + e.Msg
}

func (e *WriteError) Unwrap() error {
	return ErrWrite
}
