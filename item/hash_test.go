package item

import (
	"math"
	"testing"
)

func TestHashConsistentWithEqual(t *testing.T) {
	pairs := []struct {
		name string
		a, b Item
	}{
		{"int float", Int(3), Float(3)},
		{"nan", Float(math.NaN()), Float(-math.NaN())},
		{"nested", RecordOf(TextSlot("a", Int(1)), Float(2)), RecordOf(TextSlot("a", Float(1)), Int(2))},
		{"absent slot", TextSlot("a", Absent), TextSlot("a", Extant)},
		{"nil then", GetSelector{Key: "a"}, GetOf("a", Identity)},
		{"nil item", nil, Absent},
	}
	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			if !Equal(p.a, p.b) {
				t.Fatalf("expected %v == %v", p.a, p.b)
			}
			if Hash(p.a) != Hash(p.b) {
				t.Errorf("Hash(%v) != Hash(%v)", p.a, p.b)
			}
		})
	}
}

func TestHashDistinguishes(t *testing.T) {
	values := []Item{
		Absent, Extant, Empty(), RecordOf(Extant), Text(""), Text("a"), Int(0), Int(1), Float(0.5),
		Bool(false), Bool(true), DataOf(nil), DataOf([]byte("a")),
		AttrOf("a", nil), TextSlot("a", nil), Identity, GetOf("a", nil), GetAttrOf("a", nil),
		GetOf("a", GetOf("b", nil)), GetOf("ab", nil), Binary(OpPlus, Int(1), Int(2)),
		Binary(OpMinus, Int(1), Int(2)), Unary(OpNegative, Int(1)),
		RecordOf(Text("ab")), RecordOf(Text("a"), Text("b")),
	}
	seen := map[uint64]Item{}
	for _, v := range values {
		h := Hash(v)
		if prev, ok := seen[h]; ok {
			t.Errorf("hash collision between %v and %v", prev, v)
		}
		seen[h] = v
	}
}

func TestHashStable(t *testing.T) {
	v := RecordOf(AttrOf("link", RecordOf(TextSlot("node", Text("a")))), Int(7))
	if Hash(v) != Hash(v) {
		t.Fatal("hash not deterministic")
	}
}
