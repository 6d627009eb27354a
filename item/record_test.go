package item

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var itemCmp = cmp.Comparer(func(a, b Item) bool { return Equal(a, b) })

func TestBuilder(t *testing.T) {
	var b Builder
	b.Push(AttrOf("a", nil), nil, Absent, Int(1), TextSlot("k", Text("v")))
	if b.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", b.Len())
	}
	r := b.Build()
	if b.Len() != 0 {
		t.Errorf("builder not reset")
	}
	if r.FieldCount() != 2 || r.ValueCount() != 1 {
		t.Errorf("counts = %d/%d, want 2/1", r.FieldCount(), r.ValueCount())
	}
	b.Push(Int(2))
	if r.Len() != 3 {
		t.Errorf("published record changed by later push")
	}
	if got := b.Build(); got.Len() != 1 {
		t.Errorf("second build Len() = %d", got.Len())
	}
	if NewBuilder(4).Build() != Empty() {
		t.Errorf("empty build is not Empty()")
	}
}

func TestRecordDerivations(t *testing.T) {
	base := RecordOf(TextSlot("a", Int(1)), TextSlot("b", Int(2)))
	snapshot := base.Items()

	tests := []struct {
		name string
		got  *Record
		want *Record
	}{
		{"Appended", base.Appended(Int(3)), RecordOf(TextSlot("a", Int(1)), TextSlot("b", Int(2)), Int(3))},
		{"Updated existing", base.Updated(Text("a"), Int(9)), RecordOf(TextSlot("a", Int(9)), TextSlot("b", Int(2)))},
		{"Updated new", base.Updated(Text("c"), Int(3)), RecordOf(TextSlot("a", Int(1)), TextSlot("b", Int(2)), TextSlot("c", Int(3)))},
		{"Removed", base.Removed(Text("a")), RecordOf(TextSlot("b", Int(2)))},
		{"Removed missing", base.Removed(Text("z")), base},
		{"Concat", base.Concat(RecordOf(Int(3))), base.Appended(Int(3))},
		{"Tail", base.Tail(), RecordOf(TextSlot("b", Int(2)))},
		{"Slice", base.Slice(1, 2), RecordOf(TextSlot("b", Int(2)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want.Items(), tt.got.Items(), itemCmp); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
	if diff := cmp.Diff(snapshot, base.Items(), itemCmp); diff != "" {
		t.Errorf("base record modified (-want +got):\n%s", diff)
	}
}

func TestRecordLookup(t *testing.T) {
	r := RecordOf(AttrOf("tag", Int(1)), TextSlot("a", Int(2)), SlotOf(Int(3), Text("three")), Text("x"))
	if got := r.Tag(); got != "tag" {
		t.Errorf("Tag() = %q", got)
	}
	if got := r.Get("a"); !Equal(got, Int(2)) {
		t.Errorf("Get(a) = %v", got)
	}
	if got := r.Get("tag"); !Equal(got, Int(1)) {
		t.Errorf("Get(tag) = %v", got)
	}
	if got := r.GetField(Int(3)); !Equal(got, Text("three")) {
		t.Errorf("GetField(3) = %v", got)
	}
	if got := r.GetAttr("a"); got != Absent {
		t.Errorf("GetAttr(a) = %v, want Absent", got)
	}
	if got := r.Get("missing"); got != Absent {
		t.Errorf("Get(missing) = %v", got)
	}
	var n int
	for i, it := range r.All() {
		if !Equal(it, r.At(i)) {
			t.Errorf("All()[%d] mismatch", i)
		}
		n++
	}
	if n != r.Len() {
		t.Errorf("All yielded %d items, want %d", n, r.Len())
	}
}
