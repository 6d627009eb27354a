package warp

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownEnvelope   = errors.New("unknown envelope")
	ErrMalformedEnvelope = errors.New("malformed envelope")
)

// ProtocolError reports a value that is not a valid envelope. Err is
// ErrUnknownEnvelope, ErrMalformedEnvelope or the parse error of the
// envelope text.
type ProtocolError struct {
	Tag string
	Msg string
	Err error
}

func (e *ProtocolError) Error() string {
	var s string
	switch {
	case e.Tag != "" && e.Msg != "":
		s = fmt.Sprintf("warp: @%s: %v: %s", e.Tag, e.Err, e.Msg)
	case e.Tag != "":
		s = fmt.Sprintf("warp: @%s: %v", e.Tag, e.Err)
	case e.Msg != "":
		s = fmt.Sprintf("warp: %v: %s", e.Err, e.Msg)
	default:
		s = fmt.Sprintf("warp: %v", e.Err)
	}
	return s
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func malformed(tag, format string, args ...any) *ProtocolError {
	return &ProtocolError{Tag: tag, Err: ErrMalformedEnvelope, Msg: fmt.Sprintf(format, args...)}
}
