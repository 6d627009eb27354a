package recon

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/swim-go/swim/codec"
	"github.com/swim-go/swim/item"
)

var itemCmp = cmp.Comparer(func(a, b item.Item) bool { return item.Equal(a, b) })

type parseTest struct {
	in   string
	want item.Value
}

func TestParseOK(t *testing.T) {
	pts := []parseTest{
		{in: ``, want: item.Absent},
		{in: `()`, want: item.Extant},
		{in: `{}`, want: item.Empty()},
		{in: `hello`, want: item.Text("hello")},
		{in: `"hello world"`, want: item.Text("hello world")},
		{in: `'single'`, want: item.Text("single")},
		{in: `"\u00e9\n\"\\"`, want: item.Text("é\n\"\\")},
		{in: `"\ud83d\ude00"`, want: item.Text("😀")},
		{in: `true`, want: item.Bool(true)},
		{in: `false`, want: item.Bool(false)},
		{in: `42`, want: item.Int(42)},
		{in: `-42`, want: item.Int(-42)},
		{in: `0x1F`, want: item.Int(31)},
		{in: `1.5`, want: item.Float(1.5)},
		{in: `2e3`, want: item.Float(2000)},
		{in: `-1.25E-2`, want: item.Float(-0.0125)},
		{in: `9223372036854775808`, want: item.Float(9223372036854775808)},
		{in: `%aGk=`, want: item.DataOf([]byte("hi"))},
		{in: `%`, want: item.DataOf(nil)},
		{in: `1,2`, want: item.RecordOf(item.Int(1), item.Int(2))},
		{in: "1\n2;3", want: item.RecordOf(item.Int(1), item.Int(2), item.Int(3))},
		{in: `{1}`, want: item.RecordOf(item.Int(1))},
		{in: `{{}}`, want: item.RecordOf(item.Empty())},
		{in: `a:1`, want: item.RecordOf(item.TextSlot("a", item.Int(1)))},
		{in: `{a:1,b:two}`, want: item.RecordOf(
			item.TextSlot("a", item.Int(1)),
			item.TextSlot("b", item.Text("two")),
		)},
		{in: `{a:}`, want: item.RecordOf(item.TextSlot("a", item.Extant))},
		{in: `{"a b": 1, 2: 3}`, want: item.RecordOf(
			item.TextSlot("a b", item.Int(1)),
			item.SlotOf(item.Int(2), item.Int(3)),
		)},
		{in: `@a`, want: item.RecordOf(item.AttrOf("a", item.Extant))},
		{in: `@a@b`, want: item.RecordOf(item.AttrOf("a", item.Extant), item.AttrOf("b", item.Extant))},
		{in: `@a(1)`, want: item.RecordOf(item.AttrOf("a", item.Int(1)))},
		{in: `@a()`, want: item.RecordOf(item.AttrOf("a", item.Extant))},
		{in: `@a({})`, want: item.RecordOf(item.AttrOf("a", item.Empty()))},
		{in: `@a(1,2)`, want: item.RecordOf(item.AttrOf("a", item.RecordOf(item.Int(1), item.Int(2))))},
		{in: `@"a b"`, want: item.RecordOf(item.AttrOf("a b", item.Extant))},
		{in: `@a x`, want: item.RecordOf(item.AttrOf("a", item.Extant), item.Text("x"))},
		{in: `@a{x:1}`, want: item.RecordOf(item.AttrOf("a", item.Extant), item.TextSlot("x", item.Int(1)))},
		{in: `@a {x:1, 2}`, want: item.RecordOf(
			item.AttrOf("a", item.Extant),
			item.TextSlot("x", item.Int(1)),
			item.Int(2),
		)},
		{in: `@a{{1}}`, want: item.RecordOf(item.AttrOf("a", item.Extant), item.RecordOf(item.Int(1)))},
		{in: `{@a,1}`, want: item.RecordOf(item.AttrOf("a", item.Extant), item.Int(1))},
		{in: `k:@a 1`, want: item.RecordOf(item.TextSlot("k", item.RecordOf(item.AttrOf("a", item.Extant), item.Int(1))))},
		{in: `k:@a`, want: item.RecordOf(item.TextSlot("k", item.RecordOf(item.AttrOf("a", item.Extant))))},
		{in: `(@a):1`, want: item.RecordOf(item.SlotOf(item.RecordOf(item.AttrOf("a", item.Extant)), item.Int(1)))},
		{in: `():1`, want: item.RecordOf(item.SlotOf(item.Extant, item.Int(1)))},
		{
			in: `@link(node:"house/kitchen",lane:light)`,
			want: item.RecordOf(item.AttrOf("link", item.RecordOf(
				item.TextSlot("node", item.Text("house/kitchen")),
				item.TextSlot("lane", item.Text("light")),
			))),
		},
		{in: `1 + 2 * 3`, want: item.Binary(item.OpPlus, item.Int(1), item.Binary(item.OpTimes, item.Int(2), item.Int(3)))},
		{in: `1 - 2 - 3`, want: item.Binary(item.OpMinus, item.Binary(item.OpMinus, item.Int(1), item.Int(2)), item.Int(3))},
		{in: `(1 + 2) * 3`, want: item.Binary(item.OpTimes, item.Binary(item.OpPlus, item.Int(1), item.Int(2)), item.Int(3))},
		{in: `a || b && c`, want: item.Binary(item.OpOr, item.Text("a"), item.Binary(item.OpAnd, item.Text("b"), item.Text("c")))},
		{in: `a < b == c`, want: item.Binary(item.OpEq, item.Binary(item.OpLt, item.Text("a"), item.Text("b")), item.Text("c"))},
		{in: `a | b ^ c & d`, want: item.Binary(item.OpBitOr, item.Text("a"),
			item.Binary(item.OpBitXor, item.Text("b"), item.Binary(item.OpBitAnd, item.Text("c"), item.Text("d"))))},
		{in: `x % 2`, want: item.Binary(item.OpModulo, item.Text("x"), item.Int(2))},
		{in: `!a`, want: item.Unary(item.OpNot, item.Text("a"))},
		{in: `~1`, want: item.Unary(item.OpBitNot, item.Int(1))},
		{in: `-x`, want: item.Unary(item.OpNegative, item.Text("x"))},
		{in: `-(1)`, want: item.Unary(item.OpNegative, item.Int(1))},
		{in: `+1`, want: item.Unary(item.OpPositive, item.Int(1))},
		{in: `1 - -1`, want: item.Binary(item.OpMinus, item.Int(1), item.Int(-1))},
		{in: `-x * y`, want: item.Binary(item.OpTimes, item.Unary(item.OpNegative, item.Text("x")), item.Text("y"))},
		{in: `$`, want: item.Identity},
		{in: `$a`, want: item.GetOf("a", nil)},
		{in: `$a.b`, want: item.GetOf("a", item.GetOf("b", nil))},
		{in: `$"a b".c`, want: item.GetOf("a b", item.GetOf("c", nil))},
		{in: `$@a`, want: item.GetAttrOf("a", nil)},
		{in: `$#2`, want: item.GetItem(2, nil)},
		{in: `$a.#0`, want: item.GetOf("a", item.GetItem(0, nil))},
		{in: `$*`, want: item.Children(nil)},
		{in: `$**`, want: item.Descendants(nil)},
		{in: `$*:`, want: item.Keys(nil)},
		{in: `$:*`, want: item.Values(nil)},
		{in: `$*.**`, want: item.Children(item.Descendants(nil))},
		{in: `$* * 2`, want: item.Binary(item.OpTimes, item.Children(nil), item.Int(2))},
		{in: `$ * 2`, want: item.Binary(item.OpTimes, item.Identity, item.Int(2))},
		{in: `$a[$b > 1]`, want: item.GetOf("a", item.Filter(
			item.Binary(item.OpGt, item.GetOf("b", nil), item.Int(1)), nil))},
		{in: `$[x][y].z`, want: item.Filter(item.Text("x"), item.Filter(item.Text("y"), item.GetOf("z", nil)))},
		{in: `({1,2}).a`, want: item.Literal(item.RecordOf(item.Int(1), item.Int(2)), item.GetOf("a", nil))},
		{in: `(1)[x]`, want: item.Literal(item.Int(1), item.Filter(item.Text("x"), nil))},
		{in: `(x)`, want: item.Text("x")},
		{in: `{a:{b:{c:1}}}`, want: item.RecordOf(item.TextSlot("a", item.RecordOf(
			item.TextSlot("b", item.RecordOf(item.TextSlot("c", item.Int(1))))),
		))},
		{in: `[hello world]`, want: item.RecordOf(item.Text("hello world"))},
		{in: `[]`, want: item.Empty()},
		{in: `c:[1]`, want: item.RecordOf(item.TextSlot("c", item.RecordOf(item.Text("1"))))},
		{in: `[a{b:1,2}c]`, want: item.RecordOf(item.Text("a"), item.TextSlot("b", item.Int(1)), item.Int(2), item.Text("c"))},
		{in: `[a\]b\{\@\n]`, want: item.RecordOf(item.Text("a]b{@\n"))},
		{in: `@p[say @em[hi]!]`, want: item.RecordOf(item.AttrOf("p", item.Extant), item.Text("say "),
			item.RecordOf(item.AttrOf("em", item.Extant), item.Text("hi")), item.Text("!"))},
		{in: `[@a(1){x} @b @c[y] z]`, want: item.RecordOf(
			item.RecordOf(item.AttrOf("a", item.Int(1)), item.Text("x")), item.Text(" "),
			item.RecordOf(item.AttrOf("b", item.Extant)), item.Text(" "),
			item.RecordOf(item.AttrOf("c", item.Extant), item.Text("y")), item.Text(" z"))},
		{in: `[a [b] c]`, want: item.RecordOf(item.Text("a "), item.RecordOf(item.Text("b")), item.Text(" c"))},
		{in: `[x] + 1`, want: item.Binary(item.OpPlus, item.RecordOf(item.Text("x")), item.Int(1))},
	}
	for _, pt := range pts {
		t.Run(pt.in, func(t *testing.T) {
			v, err := Parse(pt.in)
			if err != nil {
				t.Fatalf("parse %q: %v", pt.in, err)
			}
			if diff := cmp.Diff(pt.want, v, itemCmp); diff != "" {
				t.Errorf("parse %q (-want +got):\n%s", pt.in, diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		in  string
		msg string
	}{
		{`{1,2`, `parse error at line 1, col 5 (offset 4): expected '}' but found end of input`},
		{`(1`, `parse error at line 1, col 3 (offset 2): expected ')' but found end of input`},
		{`1)`, `parse error at line 1, col 2 (offset 1): expected end of input but found ')'`},
		{`1 2`, `parse error at line 1, col 3 (offset 2): expected ',' or end of input but found '2'`},
		{`{,}`, `parse error at line 1, col 2 (offset 1): expected item but found ','`},
		{"a\n  )", `parse error at line 2, col 3 (offset 4): expected end of input but found ')'`},
		{`"abc`, `parse error at line 1, col 5 (offset 4): expected closing quote but found end of input`},
		{`@`, `parse error at line 1, col 2 (offset 1): expected attribute name but found end of input`},
		{`1 +`, `parse error at line 1, col 4 (offset 3): expected value but found end of input`},
		{`?`, `parse error at line 1, col 1 (offset 0): unexpected character (found '?')`},
		{`1 = 2`, `parse error at line 1, col 4 (offset 3): expected '=' but found ' '`},
		{`0x`, `parse error at line 1, col 3 (offset 2): expected hex digit but found end of input`},
		{`$.`, `parse error at line 1, col 2 (offset 1): expected ',' or end of input but found '.'`},
		{`$a.`, `parse error at line 1, col 4 (offset 3): expected selector step but found end of input`},
		{`[abc`, `parse error at line 1, col 5 (offset 4): expected ']' but found end of input`},
		{`[a@]`, `parse error at line 1, col 4 (offset 3): expected attribute name but found ']'`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := Parse(tt.in)
			if err == nil {
				t.Fatalf("parse %q: expected error, got %v", tt.in, v)
			}
			if !errors.Is(err, codec.ErrParse) {
				t.Errorf("error %v does not wrap ErrParse", err)
			}
			if got := err.Error(); got != tt.msg {
				t.Errorf("parse %q:\n got %s\nwant %s", tt.in, got, tt.msg)
			}
		})
	}
}

var chunkInputs = []string{
	`@link(node:"house/kitchen",lane:light)`,
	`@event(node:"/unit/0",lane:"chat"){from:"é😀",msg:"a\tb\u0041",n:-12.5e-3,x:0xff}`,
	`{a:{b:{c:[1]}},d:%aGVsbG8gd29ybGQ=,e:true}`,
	`$a.b[$#1 >= 2 && !$c.*:].**`,
	`1 + 2 * (3 - -4) / x % 5 || y != z`,
	"k:@tag(1,2) {x:1\n y:2; z:3}",
	`(({1,2})).@a.:*`,
	`@p[dear {name:"é"}, see @em(2)[w\]o]@x!]`,
}

// TestParseChunked checks that a parse split at any byte, including in
// the middle of a multi-byte rune, gives the same value as parsing the
// whole input at once.
func TestParseChunked(t *testing.T) {
	for _, in := range chunkInputs {
		want, err := Parse(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		for i := 0; i <= len(in); i++ {
			p := NewParser()
			if st := p.Feed([]byte(in[:i])); st == codec.Error {
				t.Fatalf("split %d of %q: %v", i, in, p.Err())
			}
			p.Feed([]byte(in[i:]))
			if st := p.Close(); st != codec.Done {
				t.Fatalf("split %d of %q: status %s: %v", i, in, st, p.Err())
			}
			if diff := cmp.Diff(want, p.Value(), itemCmp); diff != "" {
				t.Errorf("split %d of %q (-whole +split):\n%s", i, in, diff)
			}
		}
		p := NewParser()
		for i := 0; i < len(in); i++ {
			p.Feed([]byte{in[i]})
		}
		if st := p.Close(); st != codec.Done {
			t.Fatalf("bytewise %q: %v", in, p.Err())
		}
		if diff := cmp.Diff(want, p.Value(), itemCmp); diff != "" {
			t.Errorf("bytewise %q (-whole +bytewise):\n%s", in, diff)
		}
	}
}

func TestParseChunkedError(t *testing.T) {
	in := `{a:1,b:"x"` + "\n" + `c:?}`
	for i := 0; i <= len(in); i++ {
		p := NewParser()
		p.Feed([]byte(in[:i]))
		p.Feed([]byte(in[i:]))
		if st := p.Close(); st != codec.Error {
			t.Fatalf("split %d: status %s", i, st)
		}
		var perr *codec.ParseError
		if !errors.As(p.Err(), &perr) {
			t.Fatalf("split %d: error %T", i, p.Err())
		}
		if perr.Pos.Line != 2 || perr.Found != '?' {
			t.Errorf("split %d: got %v", i, perr)
		}
	}
}

func TestParserReset(t *testing.T) {
	p := NewParser()
	p.Feed([]byte("{"))
	if st := p.Close(); st != codec.Error {
		t.Fatalf("status %s", st)
	}
	if p.Feed([]byte("1")) != codec.Error {
		t.Errorf("feed after error should keep the error status")
	}
	p.Reset()
	p.Feed([]byte("@a 1"))
	if st := p.Close(); st != codec.Done {
		t.Fatalf("status %s: %v", st, p.Err())
	}
	want := item.RecordOf(item.AttrOf("a", item.Extant), item.Int(1))
	if diff := cmp.Diff(item.Value(want), p.Value(), itemCmp); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestParseLongChain(t *testing.T) {
	const n = 100000
	in := strings.Repeat("1 + ", n-1) + "1"
	v, err := Parse(in)
	if err != nil {
		t.Fatal(err)
	}
	depth := 0
	for {
		b, ok := v.(item.BinaryOperator)
		if !ok {
			break
		}
		if b.Op != item.OpPlus || !item.Equal(b.RHS, item.Int(1)) {
			t.Fatalf("depth %d: unexpected node %v", depth, b)
		}
		depth++
		v = b.LHS
	}
	if depth != n-1 {
		t.Errorf("got depth %d, want %d", depth, n-1)
	}
}

func TestParseDeepNesting(t *testing.T) {
	const n = 10000
	in := strings.Repeat("{", n) + strings.Repeat("}", n)
	v, err := Parse(in)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n-1; i++ {
		r, ok := v.(*item.Record)
		if !ok || r.Len() != 1 {
			t.Fatalf("level %d: got %T", i, v)
		}
		v = r.At(0).(item.Value)
	}
	if r, ok := v.(*item.Record); !ok || r.Len() != 0 {
		t.Errorf("innermost: got %v", v)
	}
}
