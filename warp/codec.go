package warp

import (
	"io"

	"github.com/swim-go/swim/item"
	"github.com/swim-go/swim/recon"
)

// Encode returns the value form of e.
func Encode(e Envelope) item.Value {
	return item.Attributed(e.Tag(), header(e), e.Payload())
}

func header(e Envelope) item.Value {
	le, ok := e.(LaneEnvelope)
	if !ok {
		return item.Extant
	}
	a := le.Addr()
	b := item.NewBuilder(4)
	b.Push(item.TextSlot("node", item.Text(a.Node)), item.TextSlot("lane", item.Text(a.Lane)))
	if lo, ok := e.(linkOptions); ok {
		prio, rate := lo.options()
		if prio != 0 {
			b.Push(item.TextSlot("prio", item.Float(prio)))
		}
		if rate != 0 {
			b.Push(item.TextSlot("rate", item.Float(rate)))
		}
	}
	return b.Build()
}

// Decode returns the envelope v encodes. The tag must be one of the
// envelope tags and lane envelopes must name both node and lane.
func Decode(v item.Value) (Envelope, error) {
	tag := item.Tag(v)
	if tag == "" {
		return nil, &ProtocolError{Err: ErrMalformedEnvelope, Msg: "missing header attribute"}
	}
	body := item.Body(v)
	switch tag {
	case TagAuth:
		return AuthRequest{Body: body}, nil
	case TagAuthed:
		return AuthedResponse{Body: body}, nil
	case TagDeauthed:
		return DeauthedResponse{Body: body}, nil
	case TagLink, TagLinked, TagSync, TagSynced, TagUnlink, TagUnlinked, TagEvent, TagCommand:
	default:
		return nil, &ProtocolError{Tag: tag, Err: ErrUnknownEnvelope}
	}
	h, err := decodeHeader(tag, item.Header(v, tag))
	if err != nil {
		return nil, err
	}
	switch tag {
	case TagLink:
		return LinkRequest{Address: h.addr, Prio: h.prio, Rate: h.rate, Body: body}, nil
	case TagLinked:
		return LinkedResponse{Address: h.addr, Prio: h.prio, Rate: h.rate, Body: body}, nil
	case TagSync:
		return SyncRequest{Address: h.addr, Prio: h.prio, Rate: h.rate, Body: body}, nil
	case TagSynced:
		return SyncedResponse{Address: h.addr, Body: body}, nil
	case TagUnlink:
		return UnlinkRequest{Address: h.addr, Body: body}, nil
	case TagUnlinked:
		return UnlinkedResponse{Address: h.addr, Body: body}, nil
	case TagEvent:
		return EventMessage{Address: h.addr, Body: body}, nil
	}
	return CommandMessage{Address: h.addr, Body: body}, nil
}

type laneHeader struct {
	addr       Address
	prio, rate float64
}

// decodeHeader reads node and lane from named slots, or from values in
// the first and second header positions.
func decodeHeader(tag string, head item.Value) (laneHeader, error) {
	var (
		h                laneHeader
		hasNode, hasLane bool
	)
	for i, it := range item.ToRecord(head).All() {
		var key string
		switch x := it.(type) {
		case item.Attr:
			continue
		case item.Slot:
			k, ok := x.FieldKey().(item.Text)
			if !ok {
				continue
			}
			key = string(k)
		default:
			switch i {
			case 0:
				key = "node"
			case 1:
				key = "lane"
			}
		}
		v := item.ToValue(it)
		switch key {
		case "node":
			s, ok := uri(v)
			if !ok {
				return h, malformed(tag, "node uri is not text")
			}
			h.addr.Node, hasNode = s, true
		case "lane":
			s, ok := uri(v)
			if !ok {
				return h, malformed(tag, "lane uri is not text")
			}
			h.addr.Lane, hasLane = s, true
		case "prio":
			h.prio = item.FloatValue(v, 0)
		case "rate":
			h.rate = item.FloatValue(v, 0)
		}
	}
	switch {
	case !hasNode:
		return h, malformed(tag, "missing node uri")
	case !hasLane:
		return h, malformed(tag, "missing lane uri")
	}
	return h, nil
}

func uri(v item.Value) (string, bool) {
	t, ok := v.(item.Text)
	return string(t), ok
}

// Parse parses one envelope from Recon text.
func Parse(s string) (Envelope, error) {
	v, err := recon.Parse(s)
	if err != nil {
		return nil, &ProtocolError{Err: err}
	}
	return Decode(v)
}

// String returns the Recon form of e.
func String(e Envelope) string {
	return recon.String(Encode(e))
}

// Append appends the Recon form of e to dst.
func Append(dst []byte, e Envelope) ([]byte, error) {
	return recon.Append(dst, Encode(e))
}

// Write streams the Recon form of e to w.
func Write(w io.Writer, e Envelope) error {
	_, err := recon.NewWriter(Encode(e)).WriteTo(w)
	return err
}
