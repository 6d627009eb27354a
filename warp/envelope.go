// Package warp defines the WARP protocol envelopes and their encoding as
// Recon values.
//
// Every envelope is a record led by an attribute naming its kind. Lane
// envelopes address a lane of a node in the attribute's parameters:
//
//	@link(node:"house/kitchen",lane:light)
//	@event(node:"house/kitchen",lane:light){on:true}
//	@auth{jwt:"..."}
//
// Items following the header attribute form the envelope body.
package warp

import "github.com/swim-go/swim/item"

// Envelope tags.
const (
	TagLink     = "link"
	TagLinked   = "linked"
	TagSync     = "sync"
	TagSynced   = "synced"
	TagUnlink   = "unlink"
	TagUnlinked = "unlinked"
	TagEvent    = "event"
	TagCommand  = "command"
	TagAuth     = "auth"
	TagAuthed   = "authed"
	TagDeauthed = "deauthed"
)

// Envelope is one complete protocol message.
type Envelope interface {
	// Tag returns the name of the envelope's header attribute.
	Tag() string
	// Payload returns the envelope body; it is Extant when there is none.
	Payload() item.Value
}

// LaneEnvelope is an envelope addressed to a lane.
type LaneEnvelope interface {
	Envelope
	Addr() Address
}

// Address identifies a lane of a node.
type Address struct {
	Node string
	Lane string
}

// Addr returns a.
func (a Address) Addr() Address { return a }

// LinkRequest subscribes to a lane's live updates.
type LinkRequest struct {
	Address
	Prio float64
	Rate float64
	Body item.Value
}

func (LinkRequest) Tag() string           { return TagLink }
func (e LinkRequest) Payload() item.Value { return payload(e.Body) }
func (e LinkRequest) options() (float64, float64) {
	return e.Prio, e.Rate
}

// SyncRequest subscribes to a lane and requests its current state first.
type SyncRequest struct {
	Address
	Prio float64
	Rate float64
	Body item.Value
}

func (SyncRequest) Tag() string           { return TagSync }
func (e SyncRequest) Payload() item.Value { return payload(e.Body) }
func (e SyncRequest) options() (float64, float64) {
	return e.Prio, e.Rate
}

// LinkedResponse confirms a link.
type LinkedResponse struct {
	Address
	Prio float64
	Rate float64
	Body item.Value
}

func (LinkedResponse) Tag() string           { return TagLinked }
func (e LinkedResponse) Payload() item.Value { return payload(e.Body) }
func (e LinkedResponse) options() (float64, float64) {
	return e.Prio, e.Rate
}

// SyncedResponse marks the end of a lane's state snapshot.
type SyncedResponse struct {
	Address
	Body item.Value
}

func (SyncedResponse) Tag() string           { return TagSynced }
func (e SyncedResponse) Payload() item.Value { return payload(e.Body) }

// UnlinkRequest cancels a link. Servers send it to close a link they will
// no longer serve.
type UnlinkRequest struct {
	Address
	Body item.Value
}

func (UnlinkRequest) Tag() string           { return TagUnlink }
func (e UnlinkRequest) Payload() item.Value { return payload(e.Body) }

// UnlinkedResponse confirms that a link is closed.
type UnlinkedResponse struct {
	Address
	Body item.Value
}

func (UnlinkedResponse) Tag() string           { return TagUnlinked }
func (e UnlinkedResponse) Payload() item.Value { return payload(e.Body) }

// EventMessage carries a lane update from the server.
type EventMessage struct {
	Address
	Body item.Value
}

func (EventMessage) Tag() string           { return TagEvent }
func (e EventMessage) Payload() item.Value { return payload(e.Body) }

// CommandMessage carries a command to a lane.
type CommandMessage struct {
	Address
	Body item.Value
}

func (CommandMessage) Tag() string           { return TagCommand }
func (e CommandMessage) Payload() item.Value { return payload(e.Body) }

// AuthRequest presents credentials for the connection.
type AuthRequest struct {
	Body item.Value
}

func (AuthRequest) Tag() string           { return TagAuth }
func (e AuthRequest) Payload() item.Value { return payload(e.Body) }

// AuthedResponse accepts credentials; the body is the session.
type AuthedResponse struct {
	Body item.Value
}

func (AuthedResponse) Tag() string           { return TagAuthed }
func (e AuthedResponse) Payload() item.Value { return payload(e.Body) }

// DeauthedResponse rejects or revokes credentials.
type DeauthedResponse struct {
	Body item.Value
}

func (DeauthedResponse) Tag() string           { return TagDeauthed }
func (e DeauthedResponse) Payload() item.Value { return payload(e.Body) }

// linkOptions is implemented by envelopes carrying link priority and rate.
type linkOptions interface {
	options() (prio, rate float64)
}

func payload(v item.Value) item.Value {
	if !item.IsDefined(v) {
		return item.Extant
	}
	return v
}
