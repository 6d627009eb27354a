package recon

import (
	"encoding/base64"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/swim-go/swim/codec"
	"github.com/swim-go/swim/item"
)

// context determines how a value is delimited where it is written.
type context uint8

const (
	// cTop is the whole input, or the sole item inside ( ) or [ ].
	cTop context = iota
	// cItem is one item among the items of a block.
	cItem
	// cSlot is the value of a slot.
	cSlot
	// cKey is the key of a slot.
	cKey
	// cOperand is an operand; values binding looser than the task's prec
	// are parenthesized.
	cOperand
)

type taskKind uint8

const (
	kText taskKind = iota
	kItem
	kItems
	kStep
	kMarkup
)

type task struct {
	kind  taskKind
	class ColorAttr
	text  string
	it    item.Item
	ctx   context
	prec  int
	rec   *item.Record
	i     int
	start int
	end   int
	first bool
}

func txt(class ColorAttr, s string) task {
	return task{kind: kText, class: class, text: s}
}

func val(it item.Item, c context, prec int) task {
	return task{kind: kItem, it: it, ctx: c, prec: prec}
}

func items(r *item.Record, start int) task {
	return itemRange(r, start, r.Len())
}

func itemRange(r *item.Record, start, end int) task {
	return task{kind: kItems, rec: r, i: start, start: start, end: end}
}

func markup(r *item.Record, start int) task {
	return task{kind: kMarkup, rec: r, i: start}
}

func step(s item.Selector, first bool) task {
	return task{kind: kStep, it: s, first: first}
}

// Writer is a resumable Recon writer. Each Pull fills the caller's buffer
// and stops wherever the buffer ends; the next Pull resumes at that exact
// byte. The writer walks the value with an explicit task stack.
type Writer struct {
	tasks   []task
	pending []byte
	off     int
	err     error
	status  codec.Status
	colors  *Colors
	spaces  bool
	markup  bool
}

// NewWriter returns a writer for v.
func NewWriter(v item.Value, opts ...WriteOption) *Writer {
	w := &Writer{}
	for _, o := range opts {
		o(w)
	}
	w.Reset(v)
	return w
}

// Reset starts writing v, keeping the writer's options.
func (w *Writer) Reset(v item.Value) {
	clear(w.tasks)
	w.tasks = append(w.tasks[:0], val(v, cTop, 0))
	w.pending = w.pending[:0]
	w.off = 0
	w.err = nil
	w.status = codec.Cont
}

// Err returns the terminal write error, or nil.
func (w *Writer) Err() error {
	return w.err
}

// Pull writes into buf. It returns the number of bytes written and
// codec.Cont if more output remains, codec.Done when the value is
// complete, or codec.Error if the value cannot be written.
func (w *Writer) Pull(buf []byte) (int, codec.Status) {
	out := codec.NewOutput(buf)
	for {
		if w.off < len(w.pending) {
			w.off += out.Write(w.pending[w.off:])
			if w.off < len(w.pending) {
				return out.Len(), codec.Cont
			}
		}
		w.pending = w.pending[:0]
		w.off = 0
		if w.status != codec.Cont {
			return out.Len(), w.status
		}
		if len(w.tasks) == 0 {
			w.status = codec.Done
			return out.Len(), codec.Done
		}
		t := w.tasks[len(w.tasks)-1]
		w.tasks[len(w.tasks)-1] = task{}
		w.tasks = w.tasks[:len(w.tasks)-1]
		w.run(t)
	}
}

// WriteTo writes the whole value to dst.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	var (
		buf [4096]byte
		n   int64
	)
	for {
		m, st := w.Pull(buf[:])
		if m > 0 {
			k, err := dst.Write(buf[:m])
			n += int64(k)
			if err != nil {
				return n, err
			}
		}
		switch st {
		case codec.Done:
			return n, nil
		case codec.Error:
			return n, w.err
		}
	}
}

func (w *Writer) push(ts ...task) {
	for i := len(ts) - 1; i >= 0; i-- {
		w.tasks = append(w.tasks, ts[i])
	}
}

func (w *Writer) emit(class ColorAttr, s string) {
	if w.colors != nil {
		s = w.colors.Color(class, s)
	}
	w.pending = append(w.pending, s...)
}

func (w *Writer) fail(msg string) {
	w.err = &codec.WriteError{Msg: msg}
	w.status = codec.Error
	w.tasks = w.tasks[:0]
}

func (w *Writer) run(t task) {
	switch t.kind {
	case kText:
		w.emit(t.class, t.text)
	case kItem:
		w.item(t.it, t.ctx, t.prec)
	case kItems:
		if t.i >= t.end {
			return
		}
		if t.i > t.start {
			w.emit(PunctColor, w.sep())
		}
		next := t
		next.i++
		w.push(val(t.rec.At(t.i), cItem, 0), next)
	case kStep:
		s, _ := t.it.(item.Selector)
		w.step(s, t.first)
	case kMarkup:
		w.markupItems(t.rec, t.i)
	}
}

// markupItems writes the items of r from i on as markup content. Text
// items are written raw; every run of other items goes in one { } block.
func (w *Writer) markupItems(r *item.Record, i int) {
	if i >= r.Len() {
		w.emit(PunctColor, "]")
		return
	}
	if s, ok := r.At(i).(item.Text); ok {
		w.emit(TextColor, escapeMarkup(string(s)))
		w.push(markup(r, i+1))
		return
	}
	j := i + 1
	for j < r.Len() {
		if _, ok := r.At(j).(item.Text); ok {
			break
		}
		j++
	}
	w.emit(PunctColor, "{")
	w.push(itemRange(r, i, j), txt(PunctColor, "}"), markup(r, j))
}

// isMarkup reports whether the items of r from start on can be written as
// markup: at least one text, no empty text and no two texts in a row.
func isMarkup(r *item.Record, start int) bool {
	text, prev := false, false
	for i := start; i < r.Len(); i++ {
		s, ok := r.At(i).(item.Text)
		if ok && (s == "" || prev) {
			return false
		}
		text = text || ok
		prev = ok
	}
	return text
}

func escapeMarkup(s string) string {
	if !strings.ContainsAny(s, `\[]{}@`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '[', ']', '{', '}', '@':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (w *Writer) sep() string {
	if w.spaces {
		return ", "
	}
	return ","
}

func (w *Writer) item(it item.Item, c context, prec int) {
	switch x := it.(type) {
	case item.Attr:
		w.attr(x)
		return
	case item.Slot:
		colon := ":"
		if w.spaces {
			colon = ": "
		}
		w.push(val(x.FieldKey(), cKey, 0), txt(PunctColor, colon), val(x.FieldValue(), cSlot, 0))
		return
	}
	v, _ := it.(item.Value)
	if v == nil || v == item.Absent {
		if c == cTop {
			return
		}
		v = item.Extant
	}
	if c == cOperand && item.Precedence(v) < prec || c == cKey && keyNeedsParens(v) {
		w.emit(PunctColor, "(")
		w.push(val(v, cTop, 0), txt(PunctColor, ")"))
		return
	}
	switch x := v.(type) {
	case item.Text:
		w.text(string(x), c == cKey)
	case item.Num:
		s, ok := formatNum(x)
		if !ok {
			w.fail("non-finite number " + x.String())
			return
		}
		w.emit(NumColor, s)
	case item.Bool:
		w.emit(BoolColor, strconv.FormatBool(bool(x)))
	case item.Data:
		w.emit(DataColor, "%"+base64.StdEncoding.EncodeToString(x.Bytes()))
	case *item.Record:
		w.record(x, c)
	case item.BinaryOperator:
		p := x.Op.Precedence()
		w.push(val(x.LHS, cOperand, p), txt(OpColor, " "+x.Op.Symbol()+" "), val(x.RHS, cOperand, p+1))
	case item.UnaryOperator:
		w.emit(OpColor, x.Op.Symbol())
		if _, ok := x.Operand.(item.Num); ok && x.Op == item.OpNegative {
			w.push(txt(PunctColor, "("), val(x.Operand, cTop, 0), txt(PunctColor, ")"))
			return
		}
		w.push(val(x.Operand, cOperand, item.PrecUnary))
	case item.LiteralSelector:
		w.emit(PunctColor, "(")
		w.push(val(x.Item, cTop, 0), txt(PunctColor, ")"), step(x.Then, false))
	case item.Selector:
		w.emit(SelectorColor, "$")
		w.push(step(x, true))
	default:
		if v == item.Extant {
			if c != cSlot {
				w.emit(PunctColor, "()")
			}
			return
		}
		w.fail("unknown value")
	}
}

// keyNeedsParens reports whether key must be parenthesized before a slot
// colon. Any operator key is wrapped: its right-most operand may end in a
// selector step such as $* whose star would lex together with the colon.
func keyNeedsParens(key item.Value) bool {
	switch x := key.(type) {
	case *item.Record:
		return x.Tag() != ""
	case item.Selector, item.BinaryOperator, item.UnaryOperator:
		return true
	}
	return false
}

// record writes r; in cOperand and cKey contexts attributed records have
// already been parenthesized.
func (w *Writer) record(r *item.Record, c context) {
	la := 0
	for la < r.Len() {
		if _, ok := r.At(la).(item.Attr); !ok {
			break
		}
		la++
	}
	if la == 0 && w.markup && isMarkup(r, 0) {
		w.emit(PunctColor, "[")
		w.push(markup(r, 0))
		return
	}
	if la == 0 {
		w.emit(PunctColor, "{")
		w.push(items(r, 0), txt(PunctColor, "}"))
		return
	}
	ts := make([]task, 0, la+4)
	rest := r.Len() - la
	wrap := rest == 0 && c == cItem
	if wrap {
		ts = append(ts, txt(PunctColor, "{"))
	}
	for i := range la {
		ts = append(ts, val(r.At(i), cItem, 0))
	}
	switch {
	case rest == 0:
		if wrap {
			ts = append(ts, txt(PunctColor, "}"))
		}
	case rest == 1 && simpleBody(r.At(la)):
		ts = append(ts, txt(PunctColor, " "), val(r.At(la), cOperand, item.PrecItem+1))
	case w.markup && isMarkup(r, la):
		ts = append(ts, txt(PunctColor, "["), markup(r, la))
	default:
		ts = append(ts, txt(PunctColor, "{"), items(r, la), txt(PunctColor, "}"))
	}
	w.push(ts...)
}

// simpleBody reports whether it can follow attributes without braces.
func simpleBody(it item.Item) bool {
	if item.IsField(it) {
		return false
	}
	if _, ok := it.(*item.Record); ok {
		return false
	}
	return !startsWithParen(it.(item.Value))
}

// startsWithParen reports whether the written form of v begins with '(',
// which would read as attribute parameters.
func startsWithParen(v item.Value) bool {
	for {
		switch x := v.(type) {
		case item.LiteralSelector:
			return true
		case item.BinaryOperator:
			if item.Precedence(x.LHS) < x.Op.Precedence() {
				return true
			}
			v = x.LHS
			continue
		case *item.Record:
			return x.Tag() != ""
		}
		return v == item.Extant || v == item.Absent || v == nil
	}
}

func (w *Writer) attr(a item.Attr) {
	w.emit(AttrColor, "@"+name(a.Key))
	v := a.FieldValue()
	if v == item.Extant {
		return
	}
	if r, ok := v.(*item.Record); ok && !(r.Len() == 0 || r.Len() == 1 && !item.IsField(r.At(0))) {
		w.push(txt(PunctColor, "("), items(r, 0), txt(PunctColor, ")"))
		return
	}
	w.push(txt(PunctColor, "("), val(v, cTop, 0), txt(PunctColor, ")"))
}

func (w *Writer) step(s item.Selector, first bool) {
	switch x := s.(type) {
	case nil, item.IdentitySelector:
		return
	case item.FilterSelector:
		w.emit(SelectorColor, "[")
		w.push(val(x.Predicate, cTop, 0), txt(SelectorColor, "]"), step(x.Then, false))
		return
	}
	var b strings.Builder
	if !first {
		b.WriteByte('.')
	}
	switch x := s.(type) {
	case item.GetSelector:
		b.WriteString(name(x.Key))
	case item.GetAttrSelector:
		b.WriteString("@" + name(x.Key))
	case item.GetItemSelector:
		if x.Index < 0 {
			w.fail("negative selector index")
			return
		}
		b.WriteString("#" + strconv.FormatInt(x.Index, 10))
	case item.KeysSelector:
		b.WriteString("*:")
	case item.ValuesSelector:
		b.WriteString(":*")
	case item.ChildrenSelector:
		b.WriteString("*")
	case item.DescendantsSelector:
		b.WriteString("**")
	default:
		w.fail("unknown selector")
		return
	}
	w.emit(SelectorColor, b.String())
	w.push(step(s.Next(), false))
}

func (w *Writer) text(s string, key bool) {
	switch {
	case IsIdent(s) && key:
		w.emit(KeyColor, s)
	case IsIdent(s):
		w.emit(TextColor, s)
	default:
		w.emit(StringColor, Quote(s))
	}
}

func name(s string) string {
	if IsIdent(s) {
		return s
	}
	return Quote(s)
}

const hexDigits = "0123456789abcdef"

// Quote returns s as a double-quoted Recon string.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 || r == utf8.RuneError {
				b.WriteString(`\u`)
				for shift := 12; shift >= 0; shift -= 4 {
					b.WriteByte(hexDigits[r>>shift&0xf])
				}
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func formatNum(n item.Num) (string, bool) {
	if n.IsInt() {
		return strconv.FormatInt(n.Int64(), 10), true
	}
	if !n.IsFinite() {
		return "", false
	}
	s := strconv.FormatFloat(n.Float64(), 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s, true
}
