package item

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/zeebo/blake3"
)

// Hash returns a 64-bit hash of it that is stable across processes.
// Items that are Equal hash identically; in particular an integral float
// hashes like the equal int.
func Hash(it Item) uint64 {
	h := blake3.New()
	e := hashEncoder{h: h}
	e.item(it)
	var sum [32]byte
	h.Sum(sum[:0])
	return binary.LittleEndian.Uint64(sum[:8])
}

type hashEncoder struct {
	h   *blake3.Hasher
	buf [9]byte
}

func (e *hashEncoder) byte(b byte) {
	e.buf[0] = b
	e.h.Write(e.buf[:1])
}

func (e *hashEncoder) uint64(v uint64) {
	binary.LittleEndian.PutUint64(e.buf[:8], v)
	e.h.Write(e.buf[:8])
}

func (e *hashEncoder) string(s string) {
	e.uint64(uint64(len(s)))
	io.WriteString(e.h, s)
}

func (e *hashEncoder) item(it Item) {
	if it == nil {
		it = Absent
	}
	e.byte(byte(rank(it)))
	switch x := it.(type) {
	case Attr:
		e.string(x.Key)
		e.item(x.FieldValue())
	case Slot:
		e.item(x.FieldKey())
		e.item(x.FieldValue())
	case *Record:
		e.uint64(uint64(len(x.items)))
		for _, c := range x.items {
			e.item(c)
		}
	case Data:
		e.string(x.b)
	case Text:
		e.string(string(x))
	case Num:
		e.num(x)
	case Bool:
		if x {
			e.byte(1)
		} else {
			e.byte(0)
		}
	case BinaryOperator:
		e.item(x.LHS)
		e.item(x.RHS)
	case UnaryOperator:
		e.item(x.Operand)
	case Selector:
		e.selector(x)
	}
}

func (e *hashEncoder) num(n Num) {
	if i, ok := n.integral(); ok {
		e.byte('i')
		e.uint64(uint64(i))
		return
	}
	f := n.Float64()
	if math.IsNaN(f) {
		f = math.NaN()
	}
	e.byte('f')
	e.uint64(math.Float64bits(f))
}

func (e *hashEncoder) selector(s Selector) {
	for {
		switch x := s.(type) {
		case IdentitySelector:
			return
		case GetSelector:
			e.string(x.Key)
		case GetAttrSelector:
			e.string(x.Key)
		case GetItemSelector:
			e.uint64(uint64(x.Index))
		case FilterSelector:
			e.item(x.Predicate)
		case LiteralSelector:
			e.item(x.Item)
		}
		s = then(s.Next())
		e.byte(byte(rank(s)))
	}
}
