// Package recon reads and writes Recon, the textual value format carried
// by WARP envelopes.
//
// Both directions are resumable. A [Parser] accepts input in chunks of
// any size and a [Writer] fills output buffers of any size; neither
// blocks, buffers a whole message or recurses on the Go stack.
//
// Grammar, loosest binding first:
//
//	block    = item { (',' | ';' | newline) item }
//	item     = { '@' name [ '(' block ')' ] } [ expr [ ':' value ] ]
//	expr     = or
//	or       = and { '||' and }
//	and      = bitor { '&&' bitor }
//	bitor    = bitxor { '|' bitxor }
//	bitxor   = bitand { '^' bitand }
//	bitand   = compare { '&' compare }
//	compare  = additive { ('<' | '<=' | '==' | '!=' | '>=' | '>') additive }
//	additive = mult { ('+' | '-') mult }
//	mult     = unary { ('*' | '/' | '%') unary }
//	unary    = { '!' | '~' | '-' | '+' } primary
//	primary  = ident | number | string | '%' base64 | '{' block '}'
//	         | '(' block ')' [ steps ] | '$' [ step ] [ steps ] | markup
//	markup   = '[' { text | '{' block '}' | markup | '@' name [ '(' block ')' ] [ markup ] } ']'
//	steps    = { '.' step | '[' block ']' }
//	step     = name | '@' name | '#' digits | '*' | '**' | '*:' | ':*' | '[' block ']'
package recon

import (
	"bytes"
	"strings"

	"github.com/swim-go/swim/codec"
	"github.com/swim-go/swim/item"
)

// Parse parses a complete Recon document.
func Parse(s string) (item.Value, error) {
	return ParseBytes([]byte(s))
}

// ParseBytes parses a complete Recon document.
func ParseBytes(b []byte) (item.Value, error) {
	p := NewParser()
	p.Feed(b)
	if p.Close() != codec.Done {
		return nil, p.Err()
	}
	return p.Value(), nil
}

// Append appends the Recon form of v to dst.
func Append(dst []byte, v item.Value, opts ...WriteOption) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	_, err := NewWriter(v, opts...).WriteTo(buf)
	return buf.Bytes(), err
}

// String returns the Recon form of v. Values that cannot be written, such
// as non-finite numbers, yield the output up to the failure; use Append to
// detect them.
func String(v item.Value, opts ...WriteOption) string {
	var sb strings.Builder
	NewWriter(v, opts...).WriteTo(&sb)
	return sb.String()
}

// MustString is String but panics if v cannot be written.
func MustString(v item.Value, opts ...WriteOption) string {
	b, err := Append(nil, v, opts...)
	if err != nil {
		panic(err)
	}
	return string(b)
}
