package item

// Attr is an attribute field, written @key(value). Its key is always text.
type Attr struct {
	Key   string
	Value Value
}

func (Attr) Kind() Kind { return KindAttr }
func (Attr) isItem()    {}
func (Attr) isField()   {}

func (a Attr) FieldKey() Value   { return Text(a.Key) }
func (a Attr) FieldValue() Value { return orExtant(a.Value) }

// AttrOf returns the attribute key(value). A nil or Absent value is
// stored as Extant.
func AttrOf(key string, value Value) Attr {
	return Attr{Key: key, Value: orExtant(value)}
}

// Slot is a key/value field, written key: value.
type Slot struct {
	Key   Value
	Value Value
}

func (Slot) Kind() Kind { return KindSlot }
func (Slot) isItem()    {}
func (Slot) isField()   {}

func (s Slot) FieldKey() Value   { return orExtant(s.Key) }
func (s Slot) FieldValue() Value { return orExtant(s.Value) }

// SlotOf returns the slot key: value.
func SlotOf(key, value Value) Slot {
	return Slot{Key: orExtant(key), Value: orExtant(value)}
}

// TextSlot is shorthand for SlotOf(Text(key), value).
func TextSlot(key string, value Value) Slot {
	return SlotOf(Text(key), value)
}
