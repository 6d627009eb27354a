package recon

import (
	"unicode"

	"github.com/swim-go/swim/codec"
	"github.com/swim-go/swim/item"
)

type tokenType uint8

const (
	tEOF tokenType = iota
	tNewline
	tComma
	tSemi
	tColon
	tDot
	tLParen
	tRParen
	tLBrace
	tRBrace
	tLBracket
	tRBracket
	tDollar
	tIdent
	tString
	tNum
	tData
	tAttr
	tOp

	// selector steps, only produced directly after $ or a selector dot
	tIndex
	tStar
	tStarStar
	tKeys
	tValues

	// markup, only produced inside [ ]
	tMarkup
	// tNone is a zero-width token ending an inline markup attribute
	tNone
)

func (t tokenType) String() string {
	switch t {
	case tEOF:
		return "end of input"
	case tNewline:
		return "newline"
	case tComma:
		return "','"
	case tSemi:
		return "';'"
	case tColon:
		return "':'"
	case tDot:
		return "'.'"
	case tLParen:
		return "'('"
	case tRParen:
		return "')'"
	case tLBrace:
		return "'{'"
	case tRBrace:
		return "'}'"
	case tLBracket:
		return "'['"
	case tRBracket:
		return "']'"
	case tDollar:
		return "'$'"
	case tIdent:
		return "identifier"
	case tString:
		return "string"
	case tNum:
		return "number"
	case tData:
		return "data"
	case tAttr:
		return "attribute"
	case tOp:
		return "operator"
	case tIndex:
		return "index"
	case tStar:
		return "'*'"
	case tStarStar:
		return "'**'"
	case tKeys:
		return "'*:'"
	case tValues:
		return "':*'"
	case tMarkup:
		return "markup text"
	}
	return "token"
}

type token struct {
	typ tokenType
	pos codec.Position
	// r is the first rune of the token, or -1 at end of input.
	r rune
	// text holds the identifier, decoded string, attribute name or raw
	// number digits.
	text string
	data []byte
	op   item.Op
	// hex marks a 0x number
	hex bool
}

// startsOperand reports whether t can begin a value.
func (t token) startsOperand() bool {
	switch t.typ {
	case tIdent, tString, tNum, tData, tLParen, tLBrace, tLBracket, tDollar:
		return true
	case tOp:
		return t.op.IsUnary() || t.op == item.OpMinus || t.op == item.OpPlus
	}
	return false
}

// isSeparator reports whether t ends a block item.
func (t token) isSeparator() bool {
	return t.typ == tComma || t.typ == tSemi || t.typ == tNewline
}

func isIdentStart(r rune) bool {
	return r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r > 0x7f && unicode.IsLetter(r)
}

func isIdentChar(r rune) bool {
	return isIdentStart(r) || r == '-' || r >= '0' && r <= '9' || r > 0x7f && unicode.IsDigit(r)
}

// IsIdent reports whether s can be written without quotes.
func IsIdent(s string) bool {
	if s == "" || s == "true" || s == "false" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !isIdentStart(r) {
				return false
			}
			continue
		}
		if !isIdentChar(r) {
			return false
		}
	}
	return true
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F'
}

func isBase64(r rune) bool {
	return r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || isDigit(r) || r == '+' || r == '/' || r == '='
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\ufeff'
}
