package item

import (
	"math"
	"strconv"
)

// Text is a string value.
type Text string

func (Text) Kind() Kind { return KindText }
func (Text) isItem()    {}
func (Text) isValue()   {}

// Bool is a boolean value.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (Bool) isItem()    {}
func (Bool) isValue()   {}

// Num is a numeric value holding either an int64 or a float64.
// Two nums are equal when they denote the same number, so Int(1) equals
// Float(1.0).
type Num struct {
	i       int64
	f       float64
	isFloat bool
}

func (Num) Kind() Kind { return KindNum }
func (Num) isItem()    {}
func (Num) isValue()   {}

// Int returns an integral Num.
func Int(i int64) Num {
	return Num{i: i}
}

// Float returns a floating point Num.
func Float(f float64) Num {
	return Num{f: f, isFloat: true}
}

// IsInt reports whether n holds an int64.
func (n Num) IsInt() bool {
	return !n.isFloat
}

// Int64 returns n truncated to an int64.
func (n Num) Int64() int64 {
	if n.isFloat {
		return int64(n.f)
	}
	return n.i
}

// Float64 returns n as a float64.
func (n Num) Float64() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

// IsFinite reports whether n is neither NaN nor infinite.
func (n Num) IsFinite() bool {
	if !n.isFloat {
		return true
	}
	return !math.IsNaN(n.f) && !math.IsInf(n.f, 0)
}

// integral reports whether n denotes an integer representable as int64,
// returning it.
func (n Num) integral() (int64, bool) {
	if !n.isFloat {
		return n.i, true
	}
	if n.f != math.Trunc(n.f) || n.f < math.MinInt64 || n.f >= math.MaxInt64 {
		return 0, false
	}
	return int64(n.f), true
}

func (n Num) String() string {
	if !n.isFloat {
		return strconv.FormatInt(n.i, 10)
	}
	return strconv.FormatFloat(n.f, 'g', -1, 64)
}

// Data is an opaque byte sequence, written in Recon as %base64.
type Data struct {
	b string
}

func (Data) Kind() Kind { return KindData }
func (Data) isItem()    {}
func (Data) isValue()   {}

// DataOf copies b into a Data value.
func DataOf(b []byte) Data {
	return Data{b: string(b)}
}

// Bytes returns a copy of the data.
func (d Data) Bytes() []byte {
	return []byte(d.b)
}

// Len returns the number of bytes.
func (d Data) Len() int {
	return len(d.b)
}

type extant struct{}

func (extant) Kind() Kind { return KindExtant }
func (extant) isItem()    {}
func (extant) isValue()   {}

type absent struct{}

func (absent) Kind() Kind { return KindAbsent }
func (absent) isItem()    {}
func (absent) isValue()   {}

var (
	// Extant is the value that is defined but empty.
	Extant Value = extant{}
	// Absent is the value that was not provided.
	Absent Value = absent{}
)
