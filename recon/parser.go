package recon

import (
	"errors"
	"strconv"
	"strings"

	"github.com/swim-go/swim/codec"
	"github.com/swim-go/swim/debug"
	"github.com/swim-go/swim/item"
)

// Parser is a resumable Recon parser. Input is fed in chunks of any size;
// the parser keeps an explicit stack of frames so that it can stop at any
// byte and resume when the next chunk arrives. Nesting depth and operator
// chain length never grow the Go call stack.
//
// A Parser parses one value. Call Reset to parse another.
type Parser struct {
	in     *codec.Input
	lx     lexer
	frames []frame
	value  item.Value
	err    error
	status codec.Status
}

// NewParser returns a parser ready for input.
func NewParser() *Parser {
	p := &Parser{in: codec.NewInput()}
	p.Reset()
	return p
}

// Reset discards all state so p can parse a new value.
func (p *Parser) Reset() {
	p.in.Reset()
	p.lx.reset()
	clear(p.frames)
	p.frames = append(p.frames[:0], &blockFrame{closer: tEOF, top: true})
	p.value = nil
	p.err = nil
	p.status = codec.Cont
}

// Feed parses as much of chunk as possible. It returns codec.Cont when more
// input is needed, codec.Done once a complete value was parsed and
// codec.Error on malformed input. Feed after Done or Error returns the
// same status.
func (p *Parser) Feed(chunk []byte) codec.Status {
	if p.status != codec.Cont {
		return p.status
	}
	p.in.Feed(chunk)
	return p.run()
}

// Close marks the end of input and finishes the parse.
func (p *Parser) Close() codec.Status {
	if p.status != codec.Cont {
		return p.status
	}
	p.in.Close()
	return p.run()
}

// Status returns the current parse status.
func (p *Parser) Status() codec.Status {
	return p.status
}

// Value returns the parsed value once the parse is Done, or nil.
func (p *Parser) Value() item.Value {
	return p.value
}

// Err returns the parse error once the parse failed, or nil. The error is
// a *codec.ParseError.
func (p *Parser) Err() error {
	return p.err
}

// Pos returns the position of the next unread rune.
func (p *Parser) Pos() codec.Position {
	return p.in.Pos()
}

func (p *Parser) run() codec.Status {
	for {
		top := p.frames[len(p.frames)-1]
		p.lx.prefix = top.wantsOperand()
		p.lx.step = top.wantsStep()
		p.lx.markup = mkNone
		if m, ok := top.(markupReader); ok {
			p.lx.markup = m.markupMode()
		}
		t, st, err := p.lx.next(p.in)
		switch st {
		case codec.Cont:
			return codec.Cont
		case codec.Error:
			return p.fail(err)
		}
		if debug.Recon() {
			debug.Logf("recon: %s %s %q\n", t.pos, t.typ, t.text)
		}
		if err := p.accept(t); err != nil {
			return p.fail(err)
		}
		if len(p.frames) == 0 {
			p.status = codec.Done
			return codec.Done
		}
	}
}

func (p *Parser) fail(err error) codec.Status {
	var perr *codec.ParseError
	if !errors.As(err, &perr) {
		err = &codec.ParseError{Pos: p.in.Pos(), Found: -1, Msg: err.Error()}
	}
	p.err = err
	p.value = nil
	p.status = codec.Error
	return codec.Error
}

// accept hands t to the frame stack. A frame that does not consume t has
// either pushed a child or popped itself, so t is offered again to the new
// top frame.
func (p *Parser) accept(t token) error {
	for len(p.frames) > 0 {
		f := p.frames[len(p.frames)-1]
		consumed, err := f.feed(p, t)
		if err != nil {
			return err
		}
		if consumed {
			return nil
		}
	}
	return nil
}

func (p *Parser) push(f frame) {
	p.frames = append(p.frames, f)
}

// deliver pops the top frame and passes its result to the new top.
func (p *Parser) deliver(r result) error {
	p.frames[len(p.frames)-1] = nil
	p.frames = p.frames[:len(p.frames)-1]
	if len(p.frames) == 0 {
		p.value = r.value
		return nil
	}
	return p.frames[len(p.frames)-1].take(p, r)
}

type frame interface {
	feed(p *Parser, t token) (consumed bool, err error)
	take(p *Parser, r result) error
	wantsOperand() bool
	wantsStep() bool
}

// markupReader is implemented by frames that read markup text.
type markupReader interface {
	markupMode() markupMode
}

// result is what a completed frame hands to its parent.
type result struct {
	value item.Value
	// items is the block-level contribution of an item frame; an
	// attribute-only item contributes its attributes.
	items  []item.Item
	braced bool
	paren  bool
}

func unexpected(t token, expected string) error {
	return &codec.ParseError{Pos: t.pos, Expected: expected, Found: t.r}
}

// blockFrame parses items separated by ',', ';' or newlines up to closer.
type blockFrame struct {
	closer tokenType
	braced bool
	top    bool
	after  bool
	b      item.Builder
}

func (f *blockFrame) wantsOperand() bool { return !f.after }
func (f *blockFrame) wantsStep() bool    { return false }

func (f *blockFrame) feed(p *Parser, t token) (bool, error) {
	if t.typ == f.closer {
		return true, p.deliver(f.result())
	}
	switch t.typ {
	case tEOF, tRParen, tRBrace, tRBracket:
		return false, unexpected(t, f.closer.String())
	}
	if f.after {
		if t.isSeparator() {
			f.after = false
			return true, nil
		}
		return false, unexpected(t, "',' or "+f.closer.String())
	}
	switch t.typ {
	case tNewline:
		return true, nil
	case tComma, tSemi:
		return false, unexpected(t, "item")
	}
	p.push(&itemFrame{})
	return false, nil
}

func (f *blockFrame) take(p *Parser, r result) error {
	f.b.Push(r.items...)
	f.after = true
	return nil
}

func (f *blockFrame) result() result {
	rec := f.b.Build()
	r := result{braced: f.braced, paren: f.closer == tRParen}
	switch {
	case f.braced:
		r.value = rec
	case rec.Len() == 0 && f.top:
		r.value = item.Absent
	case rec.Len() == 0:
		r.value = item.Extant
	case rec.Len() == 1 && !item.IsField(rec.At(0)):
		r.value = rec.At(0).(item.Value)
	default:
		r.value = rec
	}
	return r
}

type itemStep uint8

const (
	iAttrs itemStep = iota
	iAttrName
	iParams
	iValue
	iAfterValue
	iSlotValue
	iSlotDone
)

// itemFrame parses one block item: leading attributes, an optional value
// and, for slots, ':' followed by the slot value. A slot value may itself
// carry attributes.
type itemFrame struct {
	step   itemStep
	slot   bool
	attrs  []item.Attr
	value  item.Value
	braced bool
	key    item.Value
}

func (f *itemFrame) wantsOperand() bool {
	return f.step == iAttrs || f.step == iAttrName
}

func (f *itemFrame) wantsStep() bool { return false }

func (f *itemFrame) feed(p *Parser, t token) (bool, error) {
	switch f.step {
	case iAttrName:
		if t.typ == tLParen {
			f.step = iParams
			p.push(&blockFrame{closer: tRParen})
			return true, nil
		}
		f.step = iAttrs
		return false, nil
	case iAttrs:
		if t.typ == tAttr {
			f.attrs = append(f.attrs, item.AttrOf(t.text, item.Extant))
			f.step = iAttrName
			return true, nil
		}
		if t.startsOperand() {
			f.step = iValue
			p.push(&exprFrame{})
			return false, nil
		}
		return false, f.finish(p, t)
	case iAfterValue:
		if t.typ == tColon && !f.slot {
			f.key = f.combined()
			f.step = iSlotValue
			p.push(&itemFrame{slot: true})
			return true, nil
		}
		return false, f.finish(p, t)
	case iSlotDone:
		slot := item.SlotOf(f.key, f.value)
		return false, p.deliver(result{value: slot.FieldValue(), items: []item.Item{slot}})
	}
	return false, unexpected(t, "value")
}

func (f *itemFrame) take(p *Parser, r result) error {
	switch f.step {
	case iParams:
		last := &f.attrs[len(f.attrs)-1]
		*last = item.AttrOf(last.Key, r.value)
		f.step = iAttrs
	case iValue:
		f.value = r.value
		f.braced = r.braced
		f.step = iAfterValue
	case iSlotValue:
		f.value = r.value
		f.step = iSlotDone
	}
	return nil
}

// combined returns the attributes and value as one value. A braced record
// following attributes contributes its items.
func (f *itemFrame) combined() item.Value {
	if len(f.attrs) == 0 {
		return f.value
	}
	b := item.NewBuilder(len(f.attrs) + 1)
	for _, a := range f.attrs {
		b.Push(a)
	}
	if rec, ok := f.value.(*item.Record); ok && f.braced {
		b.Push(rec.Items()...)
	} else {
		b.Push(f.value)
	}
	return b.Build()
}

func (f *itemFrame) finish(p *Parser, t token) error {
	switch {
	case f.step == iAfterValue:
		v := f.combined()
		return p.deliver(result{value: v, items: []item.Item{v}})
	case f.slot && len(f.attrs) == 0:
		return p.deliver(result{value: item.Extant})
	case len(f.attrs) == 0:
		return unexpected(t, "value")
	}
	items := make([]item.Item, len(f.attrs))
	b := item.NewBuilder(len(f.attrs))
	for i, a := range f.attrs {
		items[i] = a
		b.Push(a)
	}
	return p.deliver(result{value: b.Build(), items: items})
}

type opEntry struct {
	op    item.Op
	unary bool
}

func (e opEntry) prec() int {
	if e.unary {
		return item.PrecUnary
	}
	return e.op.Precedence()
}

// exprFrame folds an operator expression with explicit operand and
// operator stacks. Left-associative chains reduce as they are read.
type exprFrame struct {
	operands []item.Value
	ops      []opEntry
	operator bool // an operand is complete; expecting an operator
	neg      bool // the previous token was a prefix '-'
	nops     int

	lastParen  bool
	lastBraced bool
}

func (f *exprFrame) wantsOperand() bool { return !f.operator }
func (f *exprFrame) wantsStep() bool    { return false }

func (f *exprFrame) feed(p *Parser, t token) (bool, error) {
	neg := f.neg
	f.neg = false
	if f.operator {
		return f.feedOperator(p, t)
	}
	switch t.typ {
	case tNewline:
		return true, nil
	case tOp:
		f.nops++
		switch t.op {
		case item.OpNot, item.OpBitNot:
			f.ops = append(f.ops, opEntry{op: t.op, unary: true})
		case item.OpMinus:
			f.ops = append(f.ops, opEntry{op: item.OpNegative, unary: true})
			f.neg = true
		case item.OpPlus:
			f.ops = append(f.ops, opEntry{op: item.OpPositive, unary: true})
		default:
			return false, unexpected(t, "value")
		}
		return true, nil
	case tNum:
		if neg {
			f.ops = f.ops[:len(f.ops)-1]
			f.nops--
		}
		n, err := parseNum(t, neg)
		if err != nil {
			return false, err
		}
		f.operand(n, false, false)
		return true, nil
	case tIdent:
		switch t.text {
		case "true":
			f.operand(item.Bool(true), false, false)
		case "false":
			f.operand(item.Bool(false), false, false)
		default:
			f.operand(item.Text(t.text), false, false)
		}
		return true, nil
	case tString:
		f.operand(item.Text(t.text), false, false)
		return true, nil
	case tData:
		f.operand(item.DataOf(t.data), false, false)
		return true, nil
	case tLParen:
		p.push(&blockFrame{closer: tRParen})
		return true, nil
	case tLBrace:
		p.push(&blockFrame{closer: tRBrace, braced: true})
		return true, nil
	case tDollar:
		p.push(&selectorFrame{})
		return true, nil
	case tLBracket:
		p.push(&markupFrame{})
		return true, nil
	}
	return false, unexpected(t, "value")
}

func (f *exprFrame) feedOperator(p *Parser, t token) (bool, error) {
	switch {
	case t.typ == tOp && t.op.IsBinary():
		prec := t.op.Precedence()
		for len(f.ops) > 0 && f.ops[len(f.ops)-1].prec() >= prec {
			f.reduce()
		}
		f.ops = append(f.ops, opEntry{op: t.op})
		f.nops++
		f.operator = false
		return true, nil
	case (t.typ == tDot || t.typ == tLBracket) && f.lastParen:
		base := f.operands[len(f.operands)-1]
		f.operands = f.operands[:len(f.operands)-1]
		f.operator = false
		p.push(&selectorFrame{literal: true, base: base, state: sAfter})
		return false, nil
	}
	for len(f.ops) > 0 {
		f.reduce()
	}
	v := f.operands[0]
	return false, p.deliver(result{value: v, braced: f.nops == 0 && f.lastBraced})
}

func (f *exprFrame) take(p *Parser, r result) error {
	f.operand(r.value, r.paren, r.braced)
	return nil
}

func (f *exprFrame) operand(v item.Value, paren, braced bool) {
	f.operands = append(f.operands, v)
	f.operator = true
	f.lastParen = paren
	f.lastBraced = braced
}

func (f *exprFrame) reduce() {
	e := f.ops[len(f.ops)-1]
	f.ops = f.ops[:len(f.ops)-1]
	n := len(f.operands)
	if e.unary {
		f.operands[n-1] = item.Unary(e.op, f.operands[n-1])
		return
	}
	lhs, rhs := f.operands[n-2], f.operands[n-1]
	f.operands = f.operands[:n-1]
	f.operands[n-2] = item.Binary(e.op, lhs, rhs)
}

func parseNum(t token, neg bool) (item.Num, error) {
	s := t.text
	if neg {
		s = "-" + s
	}
	if t.hex {
		i, err := strconv.ParseInt(s, 16, 64)
		if err == nil {
			return item.Int(i), nil
		}
		u, err := strconv.ParseUint(t.text, 16, 64)
		if err != nil {
			return item.Num{}, &codec.ParseError{Pos: t.pos, Found: t.r, Msg: "hex number out of range"}
		}
		f := float64(u)
		if neg {
			f = -f
		}
		return item.Float(f), nil
	}
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return item.Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return item.Num{}, &codec.ParseError{Pos: t.pos, Found: t.r, Msg: "number out of range"}
	}
	return item.Float(f), nil
}

type selectorState uint8

const (
	sFirst selectorState = iota
	sStep
	sAfter
	sFilter
)

type selectorStep struct {
	typ   tokenType
	key   string
	index int64
	pred  item.Value
}

// selectorFrame parses a path expression: $ followed by steps, or the
// steps following a parenthesized literal.
type selectorFrame struct {
	state   selectorState
	steps   []selectorStep
	literal bool
	base    item.Value
}

func (f *selectorFrame) wantsOperand() bool { return false }
func (f *selectorFrame) wantsStep() bool    { return f.state == sFirst || f.state == sStep }

func (f *selectorFrame) feed(p *Parser, t token) (bool, error) {
	switch f.state {
	case sFirst, sStep:
		switch t.typ {
		case tIdent, tString, tAttr, tStar, tStarStar, tKeys, tValues:
			f.steps = append(f.steps, selectorStep{typ: t.typ, key: t.text})
			f.state = sAfter
			return true, nil
		case tIndex:
			i, err := strconv.ParseInt(t.text, 10, 64)
			if err != nil {
				return false, &codec.ParseError{Pos: t.pos, Found: t.r, Msg: "index out of range"}
			}
			f.steps = append(f.steps, selectorStep{typ: tIndex, index: i})
			f.state = sAfter
			return true, nil
		case tLBracket:
			f.state = sFilter
			p.push(&blockFrame{closer: tRBracket})
			return true, nil
		}
		if f.state == sStep {
			return false, unexpected(t, "selector step")
		}
	case sAfter:
		switch t.typ {
		case tDot:
			f.state = sStep
			return true, nil
		case tLBracket:
			f.state = sFilter
			p.push(&blockFrame{closer: tRBracket})
			return true, nil
		}
	}
	return false, p.deliver(result{value: f.build()})
}

func (f *selectorFrame) take(p *Parser, r result) error {
	f.steps = append(f.steps, selectorStep{typ: tLBracket, pred: r.value})
	f.state = sAfter
	return nil
}

func (f *selectorFrame) build() item.Value {
	s := item.Identity
	for i := len(f.steps) - 1; i >= 0; i-- {
		st := f.steps[i]
		switch st.typ {
		case tIdent, tString:
			s = item.GetOf(st.key, s)
		case tAttr:
			s = item.GetAttrOf(st.key, s)
		case tIndex:
			s = item.GetItem(st.index, s)
		case tStar:
			s = item.Children(s)
		case tStarStar:
			s = item.Descendants(s)
		case tKeys:
			s = item.Keys(s)
		case tValues:
			s = item.Values(s)
		case tLBracket:
			s = item.Filter(st.pred, s)
		}
	}
	if f.literal {
		return item.Literal(f.base, s)
	}
	return s
}

// markupFrame parses [ ] markup into a record. Text runs become text
// items, the items of a { } block are spliced in, and an inline
// attribute such as @em[text] becomes a nested record.
type markupFrame struct {
	b     item.Builder
	block bool
}

func (f *markupFrame) wantsOperand() bool     { return false }
func (f *markupFrame) wantsStep() bool        { return false }
func (f *markupFrame) markupMode() markupMode { return mkText }

func (f *markupFrame) feed(p *Parser, t token) (bool, error) {
	switch t.typ {
	case tMarkup:
		f.b.Push(item.Text(t.text))
	case tRBracket:
		return true, p.deliver(result{value: f.b.Build(), braced: true})
	case tLBrace:
		f.block = true
		p.push(&blockFrame{closer: tRBrace, braced: true})
	case tLBracket:
		p.push(&markupFrame{})
	case tAttr:
		p.push(&inlineFrame{attrs: []item.Attr{item.AttrOf(t.text, item.Extant)}})
	default:
		return false, unexpected(t, "']'")
	}
	return true, nil
}

func (f *markupFrame) take(p *Parser, r result) error {
	if rec, ok := r.value.(*item.Record); ok && f.block {
		f.b.Push(rec.Items()...)
	} else {
		f.b.Push(r.value)
	}
	f.block = false
	return nil
}

type inlineStep uint8

const (
	inAttrs inlineStep = iota
	inParams
	inBody
	inDone
)

// inlineFrame parses an attribute inside markup with its directly
// following parameters and { } or [ ] body.
type inlineFrame struct {
	step   inlineStep
	params bool // the last attribute has parameters
	attrs  []item.Attr
	body   *item.Record
}

func (f *inlineFrame) wantsOperand() bool { return false }
func (f *inlineFrame) wantsStep() bool    { return false }

func (f *inlineFrame) markupMode() markupMode {
	switch {
	case f.step == inDone:
		return mkText
	case f.params:
		return mkBody
	}
	return mkInline
}

func (f *inlineFrame) feed(p *Parser, t token) (bool, error) {
	if f.step != inAttrs {
		return false, f.finish(p)
	}
	switch t.typ {
	case tLParen:
		f.step = inParams
		p.push(&blockFrame{closer: tRParen})
	case tAttr:
		f.attrs = append(f.attrs, item.AttrOf(t.text, item.Extant))
		f.params = false
	case tLBrace:
		f.step = inBody
		p.push(&blockFrame{closer: tRBrace, braced: true})
	case tLBracket:
		f.step = inBody
		p.push(&markupFrame{})
	case tNone:
		return true, f.finish(p)
	default:
		return false, f.finish(p)
	}
	return true, nil
}

func (f *inlineFrame) take(p *Parser, r result) error {
	switch f.step {
	case inParams:
		last := &f.attrs[len(f.attrs)-1]
		*last = item.AttrOf(last.Key, r.value)
		f.params = true
		f.step = inAttrs
	case inBody:
		f.body, _ = r.value.(*item.Record)
		f.step = inDone
	}
	return nil
}

func (f *inlineFrame) finish(p *Parser) error {
	b := item.NewBuilder(len(f.attrs))
	for _, a := range f.attrs {
		b.Push(a)
	}
	if f.body != nil {
		b.Push(f.body.Items()...)
	}
	return p.deliver(result{value: b.Build()})
}
