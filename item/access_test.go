package item

import "testing"

func TestFlattening(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		rec  *Record
		flat Value
	}{
		{"absent", Absent, Empty(), Extant},
		{"extant", Extant, Empty(), Extant},
		{"scalar", Int(1), RecordOf(Int(1)), Int(1)},
		{"text", Text("a"), RecordOf(Text("a")), Text("a")},
		{"record", RecordOf(Int(1), Int(2)), RecordOf(Int(1), Int(2)), RecordOf(Int(1), Int(2))},
		{"field record", RecordOf(TextSlot("a", Int(1))), RecordOf(TextSlot("a", Int(1))), RecordOf(TextSlot("a", Int(1)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ToRecord(tt.in)
			if !Equal(r, tt.rec) {
				t.Errorf("ToRecord(%v) = %v, want %v", tt.in, r, tt.rec)
			}
			if got := Flattened(r); !Equal(got, tt.flat) {
				t.Errorf("Flattened = %v, want %v", got, tt.flat)
			}
		})
	}
}

func TestHeaderBody(t *testing.T) {
	v := RecordOf(AttrOf("event", RecordOf(TextSlot("node", Text("a")))), Int(1))
	if Tag(v) != "event" {
		t.Errorf("Tag = %q", Tag(v))
	}
	if got := Get(Header(v, "event"), "node"); !Equal(got, Text("a")) {
		t.Errorf("header node = %v", got)
	}
	if got := Header(v, "other"); got != Absent {
		t.Errorf("Header(other) = %v", got)
	}
	if got := Body(v); !Equal(got, Int(1)) {
		t.Errorf("Body = %v", got)
	}
	if got := Body(RecordOf(AttrOf("a", nil))); got != Extant {
		t.Errorf("empty Body = %v", got)
	}
	if got := Body(Text("x")); !Equal(got, Text("x")) {
		t.Errorf("Body(text) = %v", got)
	}
}

func TestCoercions(t *testing.T) {
	if got := StringValue(Int(5), ""); got != "5" {
		t.Errorf("StringValue(5) = %q", got)
	}
	if got := StringValue(Empty(), "def"); got != "def" {
		t.Errorf("StringValue(record) = %q", got)
	}
	if got := IntValue(Text("0x10"), 0); got != 16 {
		t.Errorf("IntValue(0x10) = %d", got)
	}
	if got := IntValue(Float(2.9), 0); got != 2 {
		t.Errorf("IntValue(2.9) = %d", got)
	}
	if got := FloatValue(Text("1.5"), 0); got != 1.5 {
		t.Errorf("FloatValue = %v", got)
	}
	if !BoolValue(Text("true"), false) || BoolValue(Int(1), false) {
		t.Errorf("BoolValue")
	}
	if IsDefined(Absent) || IsDefined(nil) || !IsDefined(Extant) {
		t.Errorf("IsDefined")
	}
}

func TestInvariantViolation(t *testing.T) {
	defer func() {
		r := recover()
		if _, ok := r.(*InvariantViolation); !ok {
			t.Fatalf("recovered %v, want *InvariantViolation", r)
		}
	}()
	Binary(OpNot, Int(1), Int(2))
}

func TestAttributed(t *testing.T) {
	key := RecordOf(TextSlot("key", Text("k")))
	tests := []struct {
		name string
		head Value
		body Value
		want *Record
	}{
		{"extant", Extant, Extant, RecordOf(AttrOf("clear", Extant))},
		{"scalar", key, Int(1), RecordOf(AttrOf("clear", key), Int(1))},
		{"fields", Int(2), RecordOf(TextSlot("a", Int(1)), Int(3)), RecordOf(AttrOf("clear", Int(2)), TextSlot("a", Int(1)), Int(3))},
		{"one field", Extant, RecordOf(TextSlot("a", Int(1))), RecordOf(AttrOf("clear", Extant), TextSlot("a", Int(1)))},
		{"nested", Extant, RecordOf(RecordOf(Int(1), Int(2))), RecordOf(AttrOf("clear", Extant), RecordOf(RecordOf(Int(1), Int(2))))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Attributed("clear", tt.head, tt.body)
			if !Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if Tag(got) != "clear" || !Equal(Header(got, "clear"), tt.head) {
				t.Errorf("header of %v", got)
			}
		})
	}
}
