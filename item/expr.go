package item

// Op names an operator.
type Op uint8

const (
	OpOr Op = iota + 1
	OpAnd
	OpBitOr
	OpBitXor
	OpBitAnd
	OpLt
	OpLe
	OpEq
	OpNe
	OpGe
	OpGt
	OpPlus
	OpMinus
	OpTimes
	OpDivide
	OpModulo
	OpNot
	OpBitNot
	OpNegative
	OpPositive
)

var opSymbols = [...]string{
	OpOr:       "||",
	OpAnd:      "&&",
	OpBitOr:    "|",
	OpBitXor:   "^",
	OpBitAnd:   "&",
	OpLt:       "<",
	OpLe:       "<=",
	OpEq:       "==",
	OpNe:       "!=",
	OpGe:       ">=",
	OpGt:       ">",
	OpPlus:     "+",
	OpMinus:    "-",
	OpTimes:    "*",
	OpDivide:   "/",
	OpModulo:   "%",
	OpNot:      "!",
	OpBitNot:   "~",
	OpNegative: "-",
	OpPositive: "+",
}

// Symbol returns the Recon spelling of op.
func (op Op) Symbol() string {
	if int(op) < len(opSymbols) {
		return opSymbols[op]
	}
	return ""
}

func (op Op) String() string {
	return op.Symbol()
}

// IsUnary reports whether op takes a single operand.
func (op Op) IsUnary() bool {
	return op >= OpNot && op <= OpPositive
}

// IsBinary reports whether op takes two operands.
func (op Op) IsBinary() bool {
	return op >= OpOr && op <= OpModulo
}

// Precedence levels, loosest first.
const (
	PrecItem     = 0
	PrecOr       = 3
	PrecAnd      = 4
	PrecBitOr    = 5
	PrecBitXor   = 6
	PrecBitAnd   = 7
	PrecCompare  = 8
	PrecAdditive = 9
	PrecMultiply = 10
	PrecUnary    = 11
	PrecPrimary  = 12
)

// Precedence returns the binding strength of op.
func (op Op) Precedence() int {
	switch op {
	case OpOr:
		return PrecOr
	case OpAnd:
		return PrecAnd
	case OpBitOr:
		return PrecBitOr
	case OpBitXor:
		return PrecBitXor
	case OpBitAnd:
		return PrecBitAnd
	case OpLt, OpLe, OpEq, OpNe, OpGe, OpGt:
		return PrecCompare
	case OpPlus, OpMinus:
		return PrecAdditive
	case OpTimes, OpDivide, OpModulo:
		return PrecMultiply
	case OpNot, OpBitNot, OpNegative, OpPositive:
		return PrecUnary
	}
	return PrecPrimary
}

// BinaryOperator is a structural binary expression.
type BinaryOperator struct {
	Op  Op
	LHS Value
	RHS Value
}

func (BinaryOperator) Kind() Kind { return KindOperator }
func (BinaryOperator) isItem()    {}
func (BinaryOperator) isValue()   {}

// Binary returns lhs op rhs. It panics if op is not a binary operator.
func Binary(op Op, lhs, rhs Value) BinaryOperator {
	if !op.IsBinary() {
		panic(violation("%q is not a binary operator", op.Symbol()))
	}
	return BinaryOperator{Op: op, LHS: orExtant(lhs), RHS: orExtant(rhs)}
}

// UnaryOperator is a structural prefix expression.
type UnaryOperator struct {
	Op      Op
	Operand Value
}

func (UnaryOperator) Kind() Kind { return KindOperator }
func (UnaryOperator) isItem()    {}
func (UnaryOperator) isValue()   {}

// Unary returns op operand. It panics if op is not a unary operator.
func Unary(op Op, operand Value) UnaryOperator {
	if !op.IsUnary() {
		panic(violation("%q is not a unary operator", op.Symbol()))
	}
	return UnaryOperator{Op: op, Operand: orExtant(operand)}
}

// Selector is a step of a path expression. Every selector except
// IdentitySelector continues with Then.
type Selector interface {
	Value
	Next() Selector
	isSelector()
}

type selectorKind struct{}

func (selectorKind) Kind() Kind { return KindSelector }
func (selectorKind) isItem()    {}
func (selectorKind) isValue()   {}
func (selectorKind) isSelector() {}

// IdentitySelector selects its input; it terminates every chain.
type IdentitySelector struct{ selectorKind }

func (IdentitySelector) Next() Selector { return nil }

// Identity is the terminal selector, written $.
var Identity Selector = IdentitySelector{}

// GetSelector selects the value of the field named Key.
type GetSelector struct {
	selectorKind
	Key  string
	Then Selector
}

func (s GetSelector) Next() Selector { return s.Then }

// GetAttrSelector selects the value of the attribute named Key.
type GetAttrSelector struct {
	selectorKind
	Key  string
	Then Selector
}

func (s GetAttrSelector) Next() Selector { return s.Then }

// GetItemSelector selects the item at Index.
type GetItemSelector struct {
	selectorKind
	Index int64
	Then  Selector
}

func (s GetItemSelector) Next() Selector { return s.Then }

// KeysSelector selects the keys of every field.
type KeysSelector struct {
	selectorKind
	Then Selector
}

func (s KeysSelector) Next() Selector { return s.Then }

// ValuesSelector selects the values of every field.
type ValuesSelector struct {
	selectorKind
	Then Selector
}

func (s ValuesSelector) Next() Selector { return s.Then }

// ChildrenSelector selects every child item.
type ChildrenSelector struct {
	selectorKind
	Then Selector
}

func (s ChildrenSelector) Next() Selector { return s.Then }

// DescendantsSelector selects every descendant item.
type DescendantsSelector struct {
	selectorKind
	Then Selector
}

func (s DescendantsSelector) Next() Selector { return s.Then }

// FilterSelector keeps inputs for which Predicate holds.
type FilterSelector struct {
	selectorKind
	Predicate Value
	Then      Selector
}

func (s FilterSelector) Next() Selector { return s.Then }

// LiteralSelector applies Then to a literal Item.
type LiteralSelector struct {
	selectorKind
	Item Value
	Then Selector
}

func (s LiteralSelector) Next() Selector { return s.Then }

func then(s Selector) Selector {
	if s == nil {
		return Identity
	}
	return s
}

// GetOf returns the selector $key followed by next.
func GetOf(key string, next Selector) Selector {
	return GetSelector{Key: key, Then: then(next)}
}

// GetAttrOf returns the selector $@key followed by next.
func GetAttrOf(key string, next Selector) Selector {
	return GetAttrSelector{Key: key, Then: then(next)}
}

// GetItem returns the selector $#index followed by next.
func GetItem(index int64, next Selector) Selector {
	return GetItemSelector{Index: index, Then: then(next)}
}

// Keys returns the selector $*: followed by next.
func Keys(next Selector) Selector {
	return KeysSelector{Then: then(next)}
}

// Values returns the selector $:* followed by next.
func Values(next Selector) Selector {
	return ValuesSelector{Then: then(next)}
}

// Children returns the selector $* followed by next.
func Children(next Selector) Selector {
	return ChildrenSelector{Then: then(next)}
}

// Descendants returns the selector $** followed by next.
func Descendants(next Selector) Selector {
	return DescendantsSelector{Then: then(next)}
}

// Filter returns the selector $[predicate] followed by next.
func Filter(predicate Value, next Selector) Selector {
	return FilterSelector{Predicate: orExtant(predicate), Then: then(next)}
}

// Literal applies next to v. A literal followed only by the identity
// selector is v itself.
func Literal(v Value, next Selector) Value {
	next = then(next)
	if next == Identity {
		return v
	}
	return LiteralSelector{Item: orExtant(v), Then: next}
}

// Precedence returns the syntactic precedence of v.
func Precedence(v Item) int {
	switch x := v.(type) {
	case Attr, Slot:
		return PrecItem
	case BinaryOperator:
		return x.Op.Precedence()
	case UnaryOperator:
		return x.Op.Precedence()
	case *Record:
		if x.Tag() != "" {
			return PrecItem
		}
	}
	return PrecPrimary
}
