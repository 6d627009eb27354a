package client

import (
	"errors"

	"github.com/swim-go/swim/item"
	"github.com/swim-go/swim/recon"
)

var (
	// ErrClosed is returned by operations on a closed client, host or
	// downlink.
	ErrClosed = errors.New("client: closed")
	// ErrQueueFull is returned by commands that find the outbound queue
	// at capacity under OverflowReject.
	ErrQueueFull = errors.New("client: command queue full")
	// ErrDownlinkConflict is returned when a downlink of one kind is
	// opened on a lane that has a downlink of another kind.
	ErrDownlinkConflict = errors.New("client: conflicting downlink kind")
	// ErrOutOfRange is returned by list operations on an index past the
	// end of the list.
	ErrOutOfRange = errors.New("client: index out of range")
)

// AuthError reports a deauthed response from a host.
type AuthError struct {
	Host string
	Body item.Value
}

func (e *AuthError) Error() string {
	s := "client: deauthenticated by " + e.Host
	if item.IsDefined(e.Body) && e.Body != item.Extant {
		s += ": " + recon.String(e.Body)
	}
	return s
}
