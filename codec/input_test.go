package codec

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func drain(in *Input) []rune {
	var res []rune
	for in.Cont() {
		res = append(res, in.Head())
		in.Step()
	}
	return res
}

func TestInputSplitRune(t *testing.T) {
	src := []byte("aé€😀z")
	for i := 0; i <= len(src); i++ {
		in := NewInput()
		in.Feed(src[:i])
		got := drain(in)
		if !in.Empty() {
			t.Fatalf("split %d: expected Empty state", i)
		}
		in.Feed(src[i:])
		got = append(got, drain(in)...)
		in.Close()
		if !in.Done() {
			t.Fatalf("split %d: expected Done state", i)
		}
		if diff := cmp.Diff([]rune("aé€😀z"), got); diff != "" {
			t.Errorf("split %d (-want +got):\n%s", i, diff)
		}
	}
}

func TestInputTruncatedAtClose(t *testing.T) {
	in := NewInput()
	in.Feed([]byte{'a', 0xe2, 0x82})
	if got := drain(in); string(got) != "a" {
		t.Fatalf("got %q", string(got))
	}
	in.Close()
	if !in.Cont() || in.Head() != 0xfffd {
		t.Fatalf("truncated sequence should decode as RuneError")
	}
	drain(in)
	if !in.Done() {
		t.Errorf("expected Done")
	}
}

func TestInputPosition(t *testing.T) {
	in := NewInput()
	in.Feed([]byte("ab\nc"))
	in.Step()
	in.Step()
	in.Step()
	want := Position{Offset: 3, Line: 2, Column: 1}
	if diff := cmp.Diff(want, in.Pos()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if in.Buffered() != 1 {
		t.Errorf("Buffered() = %d", in.Buffered())
	}
}

func TestOutput(t *testing.T) {
	o := NewOutput(make([]byte, 4))
	if n := o.WriteString("abc"); n != 3 {
		t.Errorf("n = %d", n)
	}
	if n := o.Write([]byte("def")); n != 1 {
		t.Errorf("n = %d", n)
	}
	if !o.Full() || string(o.Bytes()) != "abcd" {
		t.Errorf("got %q", o.Bytes())
	}
}

func TestParseErrorMessage(t *testing.T) {
	in := NewInput()
	in.Feed([]byte("x"))
	err := error(Expected(in, "')'"))
	if !errors.Is(err, ErrParse) {
		t.Errorf("not ErrParse")
	}
	want := "parse error at line 1, col 1 (offset 0): expected ')' but found 'x'"
	if err.Error() != want {
		t.Errorf("got %q", err.Error())
	}
	in.Step()
	in.Close()
	if got := Expected(in, "value").Error(); got != "parse error at line 1, col 2 (offset 1): expected value but found end of input" {
		t.Errorf("got %q", got)
	}
}
