package item

import (
	"cmp"
	"math"
	"strings"
)

// Compare returns an integer comparing two items.
// The result will be 0 if a==b, -1 if a < b, and +1 if a > b.
// Items of different kinds order by rank; see the package documentation.
func Compare(a, b Item) int {
	if a == nil {
		a = Absent
	}
	if b == nil {
		b = Absent
	}
	rankA, rankB := rank(a), rank(b)
	if rankA != rankB {
		return cmp.Compare(rankA, rankB)
	}
	switch x := a.(type) {
	case Attr:
		y := b.(Attr)
		if c := strings.Compare(x.Key, y.Key); c != 0 {
			return c
		}
		return Compare(x.FieldValue(), y.FieldValue())
	case Slot:
		y := b.(Slot)
		if c := Compare(x.FieldKey(), y.FieldKey()); c != 0 {
			return c
		}
		return Compare(x.FieldValue(), y.FieldValue())
	case *Record:
		return compareRecords(x, b.(*Record))
	case Data:
		return strings.Compare(x.b, b.(Data).b)
	case Text:
		return strings.Compare(string(x), string(b.(Text)))
	case Num:
		return compareNums(x, b.(Num))
	case Bool:
		y := b.(Bool)
		if x == y {
			return 0
		}
		if !x {
			return -1
		}
		return 1
	case BinaryOperator:
		y := b.(BinaryOperator)
		if c := Compare(x.LHS, y.LHS); c != 0 {
			return c
		}
		return Compare(x.RHS, y.RHS)
	case UnaryOperator:
		return Compare(x.Operand, b.(UnaryOperator).Operand)
	case Selector:
		return compareSelectors(x, b.(Selector))
	}
	return 0
}

// Equal reports whether a and b are structurally equal.
func Equal(a, b Item) bool {
	return Compare(a, b) == 0
}

// rank returns the sorting rank of an item.
// Order: Attr < Slot < Record < Data < Text < Num < Bool < selectors < operators < Extant < Absent
func rank(it Item) int {
	switch x := it.(type) {
	case Attr:
		return 1
	case Slot:
		return 2
	case *Record:
		return 3
	case Data:
		return 4
	case Text:
		return 5
	case Num:
		return 6
	case Bool:
		return 7
	case IdentitySelector:
		return 10
	case GetSelector:
		return 11
	case GetAttrSelector:
		return 12
	case GetItemSelector:
		return 13
	case KeysSelector:
		return 14
	case ValuesSelector:
		return 15
	case ChildrenSelector:
		return 16
	case DescendantsSelector:
		return 17
	case FilterSelector:
		return 18
	case LiteralSelector:
		return 19
	case BinaryOperator:
		return 19 + int(x.Op)
	case UnaryOperator:
		return 19 + int(x.Op)
	case extant:
		return 98
	case absent:
		return 99
	}
	panic(violation("unknown item %T", it))
}

func compareRecords(a, b *Record) int {
	n := min(len(a.items), len(b.items))
	for i := range n {
		if c := Compare(a.items[i], b.items[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a.items), len(b.items))
}

func compareNums(a, b Num) int {
	if !a.isFloat && !b.isFloat {
		return cmp.Compare(a.i, b.i)
	}
	x, y := a.Float64(), b.Float64()
	// NaN sorts after every other number and equal to itself.
	switch xn, yn := math.IsNaN(x), math.IsNaN(y); {
	case xn && yn:
		return 0
	case xn:
		return 1
	case yn:
		return -1
	}
	if c := cmp.Compare(x, y); c != 0 {
		return c
	}
	// float64 conversion loses precision above 2^53
	ai, aok := a.integral()
	bi, bok := b.integral()
	switch {
	case aok && bok:
		return cmp.Compare(ai, bi)
	case aok:
		// b lies outside the int64 range
		return -cmp.Compare(y, 0)
	case bok:
		return cmp.Compare(x, 0)
	}
	return 0
}

func compareSelectors(a, b Selector) int {
	for {
		if c := cmp.Compare(rank(a), rank(b)); c != 0 {
			return c
		}
		var c int
		switch x := a.(type) {
		case IdentitySelector:
			return 0
		case GetSelector:
			c = strings.Compare(x.Key, b.(GetSelector).Key)
		case GetAttrSelector:
			c = strings.Compare(x.Key, b.(GetAttrSelector).Key)
		case GetItemSelector:
			c = cmp.Compare(x.Index, b.(GetItemSelector).Index)
		case FilterSelector:
			c = Compare(x.Predicate, b.(FilterSelector).Predicate)
		case LiteralSelector:
			c = Compare(x.Item, b.(LiteralSelector).Item)
		}
		if c != 0 {
			return c
		}
		a, b = then(a.Next()), then(b.Next())
	}
}
