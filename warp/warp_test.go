package warp

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/swim-go/swim/codec"
	"github.com/swim-go/swim/item"
)

var itemCmp = cmp.Comparer(func(a, b item.Item) bool { return item.Equal(a, b) })

var kitchen = Address{Node: "house/kitchen", Lane: "light"}

func TestParseLink(t *testing.T) {
	in := `@link(node:"house/kitchen",lane:light)`
	e, err := Parse(in)
	if err != nil {
		t.Fatal(err)
	}
	want := LinkRequest{Address: kitchen, Body: item.Extant}
	if diff := cmp.Diff(Envelope(want), e, itemCmp); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if got := String(e); got != in {
		t.Errorf("got %s, want %s", got, in)
	}
}

func TestRoundTrip(t *testing.T) {
	bodies := []item.Value{
		item.Extant,
		item.Text("on"),
		item.Int(42),
		item.Empty(),
		item.RecordOf(item.Int(1)),
		item.RecordOf(item.TextSlot("k", item.Int(1))),
		item.RecordOf(item.TextSlot("k", item.Int(1)), item.Int(2)),
		item.RecordOf(item.AttrOf("update", item.RecordOf(item.TextSlot("key", item.Text("a")))), item.Int(1)),
		item.RecordOf(item.AttrOf("clear", item.Extant)),
		item.RecordOf(item.RecordOf(item.Int(1), item.Int(2))),
	}
	for _, body := range bodies {
		envs := []Envelope{
			LinkRequest{Address: kitchen, Body: body},
			LinkRequest{Address: kitchen, Prio: 0.5, Rate: 2, Body: body},
			SyncRequest{Address: kitchen, Prio: 1, Body: body},
			LinkedResponse{Address: kitchen, Rate: 10, Body: body},
			SyncedResponse{Address: kitchen, Body: body},
			UnlinkRequest{Address: kitchen, Body: body},
			UnlinkedResponse{Address: kitchen, Body: body},
			EventMessage{Address: Address{Node: "/unit/0", Lane: "a b"}, Body: body},
			CommandMessage{Address: kitchen, Body: body},
			AuthRequest{Body: body},
			AuthedResponse{Body: body},
			DeauthedResponse{Body: body},
		}
		for _, e := range envs {
			s := String(e)
			t.Run(s, func(t *testing.T) {
				got, err := Parse(s)
				if err != nil {
					t.Fatal(err)
				}
				if diff := cmp.Diff(e, got, itemCmp); diff != "" {
					t.Errorf("(-want +got):\n%s", diff)
				}
				dv, err := Decode(Encode(e))
				if err != nil {
					t.Fatal(err)
				}
				if diff := cmp.Diff(e, dv, itemCmp); diff != "" {
					t.Errorf("decode(encode) (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestDecodeForms(t *testing.T) {
	tests := []struct {
		in   string
		want Envelope
	}{
		{`@event(a,b)`, EventMessage{Address: Address{Node: "a", Lane: "b"}, Body: item.Extant}},
		{`@event(node:a,b)`, EventMessage{Address: Address{Node: "a", Lane: "b"}, Body: item.Extant}},
		{`@command(lane:b,node:a) 1`, CommandMessage{Address: Address{Node: "a", Lane: "b"}, Body: item.Int(1)}},
		{`@sync(node:a,lane:b,prio:0.5,rate:2)`, SyncRequest{Address: Address{Node: "a", Lane: "b"}, Prio: 0.5, Rate: 2, Body: item.Extant}},
		{`@event(node:a,lane:b){x:1,y:2}`, EventMessage{
			Address: Address{Node: "a", Lane: "b"},
			Body:    item.RecordOf(item.TextSlot("x", item.Int(1)), item.TextSlot("y", item.Int(2))),
		}},
		{`@event(node:a,lane:b)@update(key:k)3`, EventMessage{
			Address: Address{Node: "a", Lane: "b"},
			Body:    item.RecordOf(item.AttrOf("update", item.RecordOf(item.TextSlot("key", item.Text("k")))), item.Int(3)),
		}},
		{`@auth{jwt:"abc"}`, AuthRequest{Body: item.RecordOf(item.TextSlot("jwt", item.Text("abc")))}},
		{`@deauthed`, DeauthedResponse{Body: item.Extant}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got, itemCmp); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		in  string
		err error
	}{
		{`@linky(node:a,lane:b)`, ErrUnknownEnvelope},
		{`@LINK(node:a,lane:b)`, ErrUnknownEnvelope},
		{`@link(node:a)`, ErrMalformedEnvelope},
		{`@link`, ErrMalformedEnvelope},
		{`@event(node:1,lane:b)`, ErrMalformedEnvelope},
		{`{x:1}`, ErrMalformedEnvelope},
		{`hello`, ErrMalformedEnvelope},
		{``, ErrMalformedEnvelope},
		{`@event(node:a,lane:b`, codec.ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			e, err := Parse(tt.in)
			if err == nil {
				t.Fatalf("got %v, want error", e)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("got %v, want %v", err, tt.err)
			}
			var perr *ProtocolError
			if !errors.As(err, &perr) {
				t.Errorf("got %T, want *ProtocolError", err)
			}
		})
	}
}

func TestDecoder(t *testing.T) {
	msgs := []string{
		`@event(node:"/unit/0",lane:chat){from:"é",msg:"hello"}`,
		`@linked(node:"/unit/0",lane:chat,prio:1.0)`,
	}
	d := NewDecoder()
	for _, m := range msgs {
		want, err := Parse(m)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < len(m); i += 3 {
			if err := d.Feed([]byte(m[i:min(i+3, len(m))])); err != nil {
				t.Fatal(err)
			}
		}
		got, err := d.Close()
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, got, itemCmp); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
		got, err = d.ReadEnvelope(iotest.OneByteReader(strings.NewReader(m)))
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, got, itemCmp); diff != "" {
			t.Errorf("ReadEnvelope (-want +got):\n%s", diff)
		}
	}
	if err := d.Feed([]byte("@event(node:a,lane:b))")); !errors.Is(err, codec.ErrParse) {
		t.Errorf("got %v, want a parse error", err)
	}
	d.Reset()
	if _, err := d.ReadEnvelope(strings.NewReader("@unlinked(node:a,lane:b)")); err != nil {
		t.Errorf("decoder did not recover after Reset: %v", err)
	}
}

func TestBearerCredentials(t *testing.T) {
	sign := func(exp time.Time) string {
		tok := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{"sub": "u1", "exp": exp.Unix()})
		s, err := tok.SignedString([]byte("secret"))
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	good := sign(time.Now().Add(time.Hour))
	v, err := BearerCredentials(good)
	if err != nil {
		t.Fatal(err)
	}
	want := item.RecordOf(item.TextSlot("jwt", item.Text(good)))
	if diff := cmp.Diff(item.Value(want), v, itemCmp); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if _, err := BearerCredentials(sign(time.Now().Add(-time.Hour))); !errors.Is(err, gojwt.ErrTokenExpired) {
		t.Errorf("expired token: got %v", err)
	}
	if _, err := BearerCredentials("not-a-token"); err == nil {
		t.Error("malformed token accepted")
	}
}
