package recon

import (
	"encoding/base64"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/swim-go/swim/codec"
	"github.com/swim-go/swim/item"
)

type lexState uint8

const (
	lsStart lexState = iota
	lsIdent
	lsString
	lsEscape
	lsUnicode
	lsZero
	lsInt
	lsHex0
	lsHex
	lsFrac0
	lsFrac
	lsExp0
	lsExpSign
	lsExp
	lsData
	lsAttr0
	lsAttrName
	lsOp2
	lsStar
	lsColon
	lsIndex0
	lsIndex
	lsMarkup
	lsMarkupEscape
)

// markupMode selects how the lexer reads inside [ ].
type markupMode uint8

const (
	mkNone markupMode = iota
	// mkText reads raw text up to ']', '{', '[' or '@'.
	mkText
	// mkInline follows an inline attribute: parameters, a body or another
	// attribute may follow directly. Anything else yields tNone.
	mkInline
	// mkBody follows inline attribute parameters.
	mkBody
)

// lexer is a resumable tokenizer. Every call to next either completes a
// token or consumes all available input and returns codec.Cont; the
// partial token is kept in the lexer until more input arrives.
type lexer struct {
	state lexState
	start codec.Position
	lead  rune
	sb    strings.Builder

	quote rune
	attr  bool // string is an attribute name
	hexN  int
	hexV  rune
	surr  rune // pending high surrogate
	first rune // first rune of a two-rune operator

	// prefix is set by the parser when a value may start; it makes '%'
	// begin a data literal rather than the modulo operator.
	prefix  bool
	// step is set by the parser when a selector step may start. Step
	// punctuation only counts when it directly follows the $ or '.'.
	step    bool
	skipped bool
	markup  markupMode
}

func (lx *lexer) reset() {
	lx.state = lsStart
	lx.sb.Reset()
	lx.prefix = false
	lx.step = false
	lx.skipped = false
	lx.markup = mkNone
}

func (lx *lexer) begin(in *codec.Input, s lexState) {
	lx.state = s
	lx.start = in.Pos()
	lx.sb.Reset()
}

func (lx *lexer) emit(t token) (token, codec.Status, error) {
	t.pos = lx.start
	t.r = lx.lead
	lx.state = lsStart
	lx.skipped = false
	return t, codec.Done, nil
}

func (lx *lexer) fail(err error) (token, codec.Status, error) {
	return token{}, codec.Error, err
}

// next scans the next token from in.
func (lx *lexer) next(in *codec.Input) (token, codec.Status, error) {
	for {
		if !in.Cont() {
			if !in.Done() {
				return token{}, codec.Cont, nil
			}
			return lx.end(in)
		}
		r := in.Head()
		switch lx.state {
		case lsStart:
			if lx.markup != mkNone {
				lx.start = in.Pos()
				lx.lead = r
				switch {
				case r == '@':
					in.Step()
					lx.state = lsAttr0
					continue
				case r == '{':
					in.Step()
					return lx.emit(token{typ: tLBrace})
				case r == '[':
					in.Step()
					return lx.emit(token{typ: tLBracket})
				case r == '(' && lx.markup == mkInline:
					in.Step()
					return lx.emit(token{typ: tLParen})
				case lx.markup != mkText:
					return lx.emit(token{typ: tNone})
				case r == ']':
					in.Step()
					return lx.emit(token{typ: tRBracket})
				}
				lx.begin(in, lsMarkup)
				continue
			}
			if isSpace(r) {
				in.Step()
				lx.skipped = true
				continue
			}
			lx.start = in.Pos()
			lx.lead = r
			if lx.step && !lx.skipped {
				switch r {
				case '*':
					in.Step()
					lx.state = lsStar
					continue
				case ':':
					in.Step()
					lx.state = lsColon
					continue
				case '#':
					in.Step()
					lx.sb.Reset()
					lx.state = lsIndex0
					continue
				}
			}
			switch {
			case isIdentStart(r):
				lx.begin(in, lsIdent)
				continue
			case isDigit(r):
				lx.begin(in, lsZero)
				if r != '0' {
					lx.state = lsInt
				}
				lx.sb.WriteRune(r)
				in.Step()
				continue
			}
			in.Step()
			switch r {
			case '\n':
				return lx.emit(token{typ: tNewline})
			case ',':
				return lx.emit(token{typ: tComma})
			case ';':
				return lx.emit(token{typ: tSemi})
			case ':':
				return lx.emit(token{typ: tColon})
			case '.':
				return lx.emit(token{typ: tDot})
			case '(':
				return lx.emit(token{typ: tLParen})
			case ')':
				return lx.emit(token{typ: tRParen})
			case '{':
				return lx.emit(token{typ: tLBrace})
			case '}':
				return lx.emit(token{typ: tRBrace})
			case '[':
				return lx.emit(token{typ: tLBracket})
			case ']':
				return lx.emit(token{typ: tRBracket})
			case '$':
				return lx.emit(token{typ: tDollar})
			case '"', '\'':
				lx.sb.Reset()
				lx.quote = r
				lx.attr = false
				lx.surr = 0
				lx.state = lsString
			case '@':
				lx.state = lsAttr0
			case '%':
				if lx.prefix {
					lx.sb.Reset()
					lx.state = lsData
					continue
				}
				return lx.emit(token{typ: tOp, op: item.OpModulo})
			case '+':
				return lx.emit(token{typ: tOp, op: item.OpPlus})
			case '-':
				return lx.emit(token{typ: tOp, op: item.OpMinus})
			case '*':
				return lx.emit(token{typ: tOp, op: item.OpTimes})
			case '/':
				return lx.emit(token{typ: tOp, op: item.OpDivide})
			case '^':
				return lx.emit(token{typ: tOp, op: item.OpBitXor})
			case '~':
				return lx.emit(token{typ: tOp, op: item.OpBitNot})
			case '|', '&', '<', '>', '=', '!':
				lx.first = r
				lx.state = lsOp2
			default:
				return lx.fail(&codec.ParseError{Pos: lx.start, Found: r, Msg: "unexpected character"})
			}

		case lsIdent:
			if isIdentChar(r) {
				lx.sb.WriteRune(r)
				in.Step()
				continue
			}
			return lx.emit(token{typ: tIdent, text: lx.sb.String()})

		case lsStar:
			switch r {
			case '*':
				in.Step()
				return lx.emit(token{typ: tStarStar})
			case ':':
				in.Step()
				return lx.emit(token{typ: tKeys})
			}
			return lx.emit(token{typ: tStar})

		case lsColon:
			if r == '*' {
				in.Step()
				return lx.emit(token{typ: tValues})
			}
			return lx.emit(token{typ: tColon})

		case lsIndex0:
			if !isDigit(r) {
				return lx.fail(codec.Expected(in, "index digits"))
			}
			lx.sb.WriteRune(r)
			in.Step()
			lx.state = lsIndex
		case lsIndex:
			if isDigit(r) {
				lx.sb.WriteRune(r)
				in.Step()
				continue
			}
			return lx.emit(token{typ: tIndex, text: lx.sb.String()})

		case lsMarkup:
			switch r {
			case ']', '{', '[', '@':
				return lx.emit(token{typ: tMarkup, text: lx.sb.String()})
			case '\\':
				lx.state = lsMarkupEscape
			default:
				lx.sb.WriteRune(r)
			}
			in.Step()
		case lsMarkupEscape:
			in.Step()
			c, ok := markupEscape(r)
			if !ok {
				return lx.fail(&codec.ParseError{Pos: in.Pos(), Expected: "escape character", Found: r})
			}
			lx.sb.WriteRune(c)
			lx.state = lsMarkup

		case lsString:
			in.Step()
			switch r {
			case lx.quote:
				if lx.surr != 0 {
					lx.sb.WriteRune(utf8.RuneError)
					lx.surr = 0
				}
				if lx.attr {
					return lx.emit(token{typ: tAttr, text: lx.sb.String()})
				}
				return lx.emit(token{typ: tString, text: lx.sb.String()})
			case '\\':
				lx.state = lsEscape
			default:
				lx.flushSurrogate()
				lx.sb.WriteRune(r)
			}
		case lsEscape:
			in.Step()
			var c rune
			switch r {
			case '"', '\'', '\\', '/':
				c = r
			case 'b':
				c = '\b'
			case 'f':
				c = '\f'
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			case 'u':
				lx.hexN, lx.hexV = 0, 0
				lx.state = lsUnicode
				continue
			default:
				return lx.fail(&codec.ParseError{Pos: in.Pos(), Expected: "escape character", Found: r})
			}
			lx.flushSurrogate()
			lx.sb.WriteRune(c)
			lx.state = lsString
		case lsUnicode:
			if !isHexDigit(r) {
				return lx.fail(codec.Expected(in, "hex digit"))
			}
			in.Step()
			lx.hexV = lx.hexV<<4 | hexVal(r)
			lx.hexN++
			if lx.hexN < 4 {
				continue
			}
			lx.state = lsString
			switch {
			case utf16.IsSurrogate(lx.hexV) && lx.hexV < 0xdc00:
				lx.flushSurrogate()
				lx.surr = lx.hexV
			case utf16.IsSurrogate(lx.hexV) && lx.surr != 0:
				lx.sb.WriteRune(utf16.DecodeRune(lx.surr, lx.hexV))
				lx.surr = 0
			default:
				lx.flushSurrogate()
				lx.sb.WriteRune(lx.hexV)
			}

		case lsZero:
			if r == 'x' || r == 'X' {
				in.Step()
				lx.sb.Reset()
				lx.state = lsHex0
				continue
			}
			lx.state = lsInt
			continue
		case lsInt:
			switch {
			case isDigit(r):
				lx.sb.WriteRune(r)
				in.Step()
			case r == '.':
				lx.sb.WriteRune(r)
				in.Step()
				lx.state = lsFrac0
			case r == 'e' || r == 'E':
				lx.sb.WriteRune(r)
				in.Step()
				lx.state = lsExp0
			default:
				return lx.emit(token{typ: tNum, text: lx.sb.String()})
			}
		case lsHex0, lsHex:
			if isHexDigit(r) {
				lx.sb.WriteRune(r)
				in.Step()
				lx.state = lsHex
				continue
			}
			if lx.state == lsHex0 {
				return lx.fail(codec.Expected(in, "hex digit"))
			}
			return lx.emit(token{typ: tNum, text: lx.sb.String(), hex: true})
		case lsFrac0:
			if !isDigit(r) {
				return lx.fail(codec.Expected(in, "digit"))
			}
			lx.sb.WriteRune(r)
			in.Step()
			lx.state = lsFrac
		case lsFrac:
			switch {
			case isDigit(r):
				lx.sb.WriteRune(r)
				in.Step()
			case r == 'e' || r == 'E':
				lx.sb.WriteRune(r)
				in.Step()
				lx.state = lsExp0
			default:
				return lx.emit(token{typ: tNum, text: lx.sb.String()})
			}
		case lsExp0:
			if r == '+' || r == '-' {
				lx.sb.WriteRune(r)
				in.Step()
				lx.state = lsExpSign
				continue
			}
			lx.state = lsExpSign
			continue
		case lsExpSign:
			if !isDigit(r) {
				return lx.fail(codec.Expected(in, "exponent digit"))
			}
			lx.sb.WriteRune(r)
			in.Step()
			lx.state = lsExp
		case lsExp:
			if isDigit(r) {
				lx.sb.WriteRune(r)
				in.Step()
				continue
			}
			return lx.emit(token{typ: tNum, text: lx.sb.String()})

		case lsData:
			if isBase64(r) {
				lx.sb.WriteRune(r)
				in.Step()
				continue
			}
			return lx.data(in)

		case lsAttr0:
			switch {
			case isIdentStart(r):
				lx.sb.Reset()
				lx.state = lsAttrName
			case r == '"' || r == '\'':
				in.Step()
				lx.sb.Reset()
				lx.quote = r
				lx.attr = true
				lx.surr = 0
				lx.state = lsString
			default:
				return lx.fail(codec.Expected(in, "attribute name"))
			}
		case lsAttrName:
			if isIdentChar(r) {
				lx.sb.WriteRune(r)
				in.Step()
				continue
			}
			return lx.emit(token{typ: tAttr, text: lx.sb.String()})

		case lsOp2:
			if op, ok := twoRuneOp(lx.first, r); ok {
				in.Step()
				return lx.emit(token{typ: tOp, op: op})
			}
			return lx.oneRuneOp(in)
		}
	}
}

// end completes the pending token at the end of a closed input.
func (lx *lexer) end(in *codec.Input) (token, codec.Status, error) {
	switch lx.state {
	case lsStart:
		lx.start = in.Pos()
		lx.lead = -1
		return lx.emit(token{typ: tEOF})
	case lsIdent:
		return lx.emit(token{typ: tIdent, text: lx.sb.String()})
	case lsAttrName:
		return lx.emit(token{typ: tAttr, text: lx.sb.String()})
	case lsZero, lsInt, lsFrac, lsExp:
		return lx.emit(token{typ: tNum, text: lx.sb.String()})
	case lsHex:
		return lx.emit(token{typ: tNum, text: lx.sb.String(), hex: true})
	case lsIndex:
		return lx.emit(token{typ: tIndex, text: lx.sb.String()})
	case lsData:
		return lx.data(in)
	case lsStar:
		return lx.emit(token{typ: tStar})
	case lsColon:
		return lx.emit(token{typ: tColon})
	case lsOp2:
		return lx.oneRuneOp(in)
	case lsString, lsEscape, lsUnicode:
		return lx.fail(codec.Expected(in, "closing quote"))
	case lsMarkup, lsMarkupEscape:
		return lx.fail(codec.Expected(in, "']'"))
	case lsAttr0:
		return lx.fail(codec.Expected(in, "attribute name"))
	case lsIndex0:
		return lx.fail(codec.Expected(in, "index digits"))
	case lsHex0:
		return lx.fail(codec.Expected(in, "hex digit"))
	case lsFrac0:
		return lx.fail(codec.Expected(in, "digit"))
	}
	return lx.fail(codec.Expected(in, "exponent digit"))
}

func (lx *lexer) data(in *codec.Input) (token, codec.Status, error) {
	b, err := base64.StdEncoding.DecodeString(lx.sb.String())
	if err != nil {
		return lx.fail(&codec.ParseError{Pos: lx.start, Found: -1, Msg: "malformed base64 data"})
	}
	return lx.emit(token{typ: tData, data: b})
}

func (lx *lexer) oneRuneOp(in *codec.Input) (token, codec.Status, error) {
	switch lx.first {
	case '|':
		return lx.emit(token{typ: tOp, op: item.OpBitOr})
	case '&':
		return lx.emit(token{typ: tOp, op: item.OpBitAnd})
	case '<':
		return lx.emit(token{typ: tOp, op: item.OpLt})
	case '>':
		return lx.emit(token{typ: tOp, op: item.OpGt})
	case '!':
		return lx.emit(token{typ: tOp, op: item.OpNot})
	}
	return lx.fail(codec.Expected(in, "'='"))
}

func (lx *lexer) flushSurrogate() {
	if lx.surr != 0 {
		lx.sb.WriteRune(utf8.RuneError)
		lx.surr = 0
	}
}

// markupEscape decodes the rune following a backslash in markup text.
func markupEscape(r rune) (rune, bool) {
	switch r {
	case '$', '\'', '"', '/', '@', '[', '\\', ']', '{', '}':
		return r, true
	case 'b':
		return '\b', true
	case 'f':
		return '\f', true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	}
	return 0, false
}

func twoRuneOp(a, b rune) (item.Op, bool) {
	switch {
	case a == '|' && b == '|':
		return item.OpOr, true
	case a == '&' && b == '&':
		return item.OpAnd, true
	case a == '<' && b == '=':
		return item.OpLe, true
	case a == '>' && b == '=':
		return item.OpGe, true
	case a == '=' && b == '=':
		return item.OpEq, true
	case a == '!' && b == '=':
		return item.OpNe, true
	}
	return 0, false
}

func hexVal(r rune) rune {
	switch {
	case r >= '0' && r <= '9':
		return r - '0'
	case r >= 'a' && r <= 'f':
		return r - 'a' + 10
	}
	return r - 'A' + 10
}
