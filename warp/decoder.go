package warp

import (
	"errors"
	"io"

	"github.com/swim-go/swim/codec"
	"github.com/swim-go/swim/recon"
)

// Decoder decodes envelopes from text that arrives in chunks. Each message
// is fed with Feed and finished with Close; the decoder is then ready for
// the next message.
type Decoder struct {
	p   *recon.Parser
	buf []byte
}

// NewDecoder returns a decoder ready for the first message.
func NewDecoder() *Decoder {
	return &Decoder{p: recon.NewParser()}
}

// Feed parses chunk. It reports a parse error as soon as the text can no
// longer form a value; the rest of the message should then be discarded
// with Reset.
func (d *Decoder) Feed(chunk []byte) error {
	if d.p.Feed(chunk) == codec.Error {
		return &ProtocolError{Err: d.p.Err()}
	}
	return nil
}

// Close ends the current message and returns its envelope.
func (d *Decoder) Close() (Envelope, error) {
	defer d.p.Reset()
	if d.p.Close() != codec.Done {
		return nil, &ProtocolError{Err: d.p.Err()}
	}
	return Decode(d.p.Value())
}

// Reset abandons the current message.
func (d *Decoder) Reset() {
	d.p.Reset()
}

// ReadEnvelope decodes one message read from r up to io.EOF.
func (d *Decoder) ReadEnvelope(r io.Reader) (Envelope, error) {
	if d.buf == nil {
		d.buf = make([]byte, 4096)
	}
	for {
		n, err := r.Read(d.buf)
		if n > 0 {
			if ferr := d.Feed(d.buf[:n]); ferr != nil {
				d.Reset()
				return nil, ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return d.Close()
		}
		if err != nil {
			d.Reset()
			return nil, err
		}
	}
}
