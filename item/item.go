package item

import "fmt"

// Kind identifies the variant of an Item.
type Kind uint8

const (
	KindAttr Kind = iota + 1
	KindSlot
	KindRecord
	KindData
	KindText
	KindNum
	KindBool
	KindSelector
	KindOperator
	KindExtant
	KindAbsent
)

func (k Kind) String() string {
	switch k {
	case KindAttr:
		return "attr"
	case KindSlot:
		return "slot"
	case KindRecord:
		return "record"
	case KindData:
		return "data"
	case KindText:
		return "text"
	case KindNum:
		return "num"
	case KindBool:
		return "bool"
	case KindSelector:
		return "selector"
	case KindOperator:
		return "operator"
	case KindExtant:
		return "extant"
	case KindAbsent:
		return "absent"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Item is a member of a record: a field or a value.
type Item interface {
	Kind() Kind
	isItem()
}

// Value is any item that is not a field.
type Value interface {
	Item
	isValue()
}

// Field is an Attr or a Slot.
type Field interface {
	Item
	FieldKey() Value
	FieldValue() Value
	isField()
}

// IsField reports whether it is an Attr or a Slot.
func IsField(it Item) bool {
	_, ok := it.(Field)
	return ok
}

// ToValue returns it as a Value. Fields yield their value.
func ToValue(it Item) Value {
	switch x := it.(type) {
	case nil:
		return Absent
	case Field:
		return x.FieldValue()
	case Value:
		return x
	}
	panic(violation("unknown item %T", it))
}

// orExtant coerces nil and Absent to Extant. Fields and operands always
// hold a defined-or-empty value.
func orExtant(v Value) Value {
	if v == nil || v == Absent {
		return Extant
	}
	return v
}
