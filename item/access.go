package item

import (
	"strconv"
)

// ToRecord returns v as a record. A record is returned as is, Extant and
// Absent become the empty record, and any other value becomes a one-item
// record.
func ToRecord(v Value) *Record {
	switch x := v.(type) {
	case nil:
		return empty
	case *Record:
		return x
	}
	if v == Extant || v == Absent {
		return empty
	}
	return newRecord([]Item{v})
}

// Flattened collapses r to a single value where that loses nothing: the
// empty record is Extant and a record holding one non-field item is that
// item.
func Flattened(r *Record) Value {
	switch {
	case r.IsEmpty():
		return Extant
	case len(r.items) == 1 && !IsField(r.items[0]):
		return r.items[0].(Value)
	}
	return r
}

// Tag returns the key of the leading attribute of v, or "".
func Tag(v Value) string {
	if r, ok := v.(*Record); ok {
		return r.Tag()
	}
	return ""
}

// Header returns the value of v's leading attribute if it is named tag,
// or Absent.
func Header(v Value, tag string) Value {
	r, ok := v.(*Record)
	if !ok || r.Tag() != tag {
		return Absent
	}
	return r.items[0].(Attr).FieldValue()
}

// Body returns the items of v following its leading attribute, flattened.
// A value without a leading attribute is its own body.
func Body(v Value) Value {
	r, ok := v.(*Record)
	if !ok {
		return orExtant(v)
	}
	if r.Tag() == "" {
		return r
	}
	return Flattened(r.Tail())
}

// Get returns the field of v named key, or Absent when v is not a record.
func Get(v Value, key string) Value {
	if r, ok := v.(*Record); ok {
		return r.Get(key)
	}
	return Absent
}

// GetAttr returns the attribute of v named key, or Absent.
func GetAttr(v Value, key string) Value {
	if r, ok := v.(*Record); ok {
		return r.GetAttr(key)
	}
	return Absent
}

// IsDefined reports whether v is neither nil nor Absent.
func IsDefined(v Value) bool {
	return v != nil && v != Absent
}

// StringValue returns the text form of a scalar v, or def.
func StringValue(v Value, def string) string {
	switch x := v.(type) {
	case Text:
		return string(x)
	case Num:
		return x.String()
	case Bool:
		return strconv.FormatBool(bool(x))
	}
	return def
}

// IntValue returns v as an int64 when it is a number or numeric text.
func IntValue(v Value, def int64) int64 {
	switch x := v.(type) {
	case Num:
		return x.Int64()
	case Text:
		if i, err := strconv.ParseInt(string(x), 0, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(string(x), 64); err == nil {
			return int64(f)
		}
	}
	return def
}

// FloatValue returns v as a float64 when it is a number or numeric text.
func FloatValue(v Value, def float64) float64 {
	switch x := v.(type) {
	case Num:
		return x.Float64()
	case Text:
		if f, err := strconv.ParseFloat(string(x), 64); err == nil {
			return f
		}
	}
	return def
}

// BoolValue returns v as a bool when it is a Bool or the text true/false.
func BoolValue(v Value, def bool) bool {
	switch x := v.(type) {
	case Bool:
		return bool(x)
	case Text:
		switch x {
		case "true":
			return true
		case "false":
			return false
		}
	}
	return def
}

// Attributed returns the record of the attribute @key(header) followed by
// body. A record body is spliced after the attribute, except for empty and
// one-value records, which would read back through Body as Extant and as
// their sole value; those are nested. An Extant body is omitted.
func Attributed(key string, header, body Value) *Record {
	b := NewBuilder(4)
	b.Push(AttrOf(key, header))
	switch r, _ := body.(*Record); {
	case r != nil && (r.Len() > 1 || r.Len() == 1 && IsField(r.items[0])):
		b.Push(r.items...)
	case body != Extant:
		b.Push(body)
	}
	return b.Build()
}
