package item

import (
	"iter"
	"slices"
)

// Record is an immutable ordered sequence of items.
// The zero value is not valid; use RecordOf, Empty or a Builder.
type Record struct {
	items  []Item
	fields int
}

func (*Record) Kind() Kind { return KindRecord }
func (*Record) isItem()    {}
func (*Record) isValue()   {}

var empty = &Record{}

// Empty returns the empty record.
func Empty() *Record {
	return empty
}

// RecordOf returns a record holding items in order. Absent values and nil
// items are skipped.
func RecordOf(items ...Item) *Record {
	var b Builder
	b.Push(items...)
	return b.Build()
}

// Len returns the number of items.
func (r *Record) Len() int {
	return len(r.items)
}

// IsEmpty reports whether r has no items.
func (r *Record) IsEmpty() bool {
	return len(r.items) == 0
}

// At returns the i'th item.
func (r *Record) At(i int) Item {
	return r.items[i]
}

// FieldCount returns the number of attrs and slots in r.
func (r *Record) FieldCount() int {
	return r.fields
}

// ValueCount returns the number of non-field items in r.
func (r *Record) ValueCount() int {
	return len(r.items) - r.fields
}

// All iterates over the items of r in order.
func (r *Record) All() iter.Seq2[int, Item] {
	return func(yield func(int, Item) bool) {
		for i, it := range r.items {
			if !yield(i, it) {
				return
			}
		}
	}
}

// Items returns a copy of the items of r.
func (r *Record) Items() []Item {
	return slices.Clone(r.items)
}

// Head returns the first item, or Absent if r is empty.
func (r *Record) Head() Item {
	if len(r.items) == 0 {
		return Absent
	}
	return r.items[0]
}

// Tail returns a record of every item after the first.
func (r *Record) Tail() *Record {
	if len(r.items) <= 1 {
		return empty
	}
	return newRecord(r.items[1:])
}

// Tag returns the key of the leading attribute, or "" if r does not start
// with one.
func (r *Record) Tag() string {
	if len(r.items) == 0 {
		return ""
	}
	if a, ok := r.items[0].(Attr); ok {
		return a.Key
	}
	return ""
}

// Get returns the value of the first field whose key is Text(key), or
// Absent.
func (r *Record) Get(key string) Value {
	for _, it := range r.items {
		switch f := it.(type) {
		case Slot:
			if t, ok := f.Key.(Text); ok && string(t) == key {
				return f.FieldValue()
			}
		case Attr:
			if f.Key == key {
				return f.FieldValue()
			}
		}
	}
	return Absent
}

// GetField returns the value of the first slot whose key equals key.
func (r *Record) GetField(key Value) Value {
	for _, it := range r.items {
		if s, ok := it.(Slot); ok && Equal(s.FieldKey(), key) {
			return s.FieldValue()
		}
	}
	return Absent
}

// GetAttr returns the value of the first attribute named key, or Absent.
func (r *Record) GetAttr(key string) Value {
	for _, it := range r.items {
		if a, ok := it.(Attr); ok && a.Key == key {
			return a.FieldValue()
		}
	}
	return Absent
}

// Appended returns a record with items added to the end.
func (r *Record) Appended(items ...Item) *Record {
	b := NewBuilder(len(r.items) + len(items))
	b.Push(r.items...)
	b.Push(items...)
	return b.Build()
}

// Concat returns a record holding the items of r followed by those of o.
func (r *Record) Concat(o *Record) *Record {
	if o.IsEmpty() {
		return r
	}
	if r.IsEmpty() {
		return o
	}
	return r.Appended(o.items...)
}

// Updated returns a record whose slot keyed by key holds value. An
// existing slot is replaced in place; otherwise the slot is appended.
func (r *Record) Updated(key, value Value) *Record {
	slot := SlotOf(key, value)
	for i, it := range r.items {
		if s, ok := it.(Slot); ok && Equal(s.FieldKey(), slot.Key) {
			items := slices.Clone(r.items)
			items[i] = slot
			return newRecord(items)
		}
	}
	return r.Appended(slot)
}

// Removed returns a record without the slots keyed by key.
func (r *Record) Removed(key Value) *Record {
	b := NewBuilder(len(r.items))
	found := false
	for _, it := range r.items {
		if s, ok := it.(Slot); ok && Equal(s.FieldKey(), key) {
			found = true
			continue
		}
		b.Push(it)
	}
	if !found {
		return r
	}
	return b.Build()
}

// Slice returns a record of the items in [lo, hi).
func (r *Record) Slice(lo, hi int) *Record {
	return newRecord(r.items[lo:hi])
}

func newRecord(items []Item) *Record {
	if len(items) == 0 {
		return empty
	}
	res := &Record{items: slices.Clip(slices.Clone(items))}
	for _, it := range res.items {
		if IsField(it) {
			res.fields++
		}
	}
	return res
}

// Builder assembles a Record. Build publishes the record and resets the
// builder; the published record is never touched again.
type Builder struct {
	items  []Item
	fields int
}

// NewBuilder returns a builder with room for n items.
func NewBuilder(n int) *Builder {
	return &Builder{items: make([]Item, 0, n)}
}

// Push appends items. Nil items and Absent values are skipped.
func (b *Builder) Push(items ...Item) {
	for _, it := range items {
		if it == nil || it == Absent {
			continue
		}
		if IsField(it) {
			b.fields++
		}
		b.items = append(b.items, it)
	}
}

// Len returns the number of items pushed so far.
func (b *Builder) Len() int {
	return len(b.items)
}

// Build returns the record and resets b.
func (b *Builder) Build() *Record {
	if len(b.items) == 0 {
		return empty
	}
	res := &Record{items: slices.Clip(b.items), fields: b.fields}
	b.items = nil
	b.fields = 0
	return res
}
