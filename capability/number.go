package capability

import (
	"strings"

	"github.com/owacoder/skate-sub000/numeric"
	"github.com/owacoder/skate-sub000/utf"
	"github.com/owacoder/skate-sub000/value"
)

// wholeInt parses lit as a base-10 integer that must span the literal.
func wholeInt[T numeric.Integer](lit string) (T, bool) {
	c := utf.NewStringCursor(lit)
	n, ok := numeric.ParseInt[T](c, 10)
	if !ok {
		return 0, false
	}
	_, more := c.Peek()
	return n, !more
}

// wholeFloat parses lit as a finite float that must span the literal.
func wholeFloat[T numeric.Float](lit string) (T, bool) {
	c := utf.NewStringCursor(lit)
	f, ok := numeric.ParseFloat[T](c, numeric.Format{})
	if !ok {
		return 0, false
	}
	_, more := c.Peek()
	return f, !more
}

// isIntegerLiteral reports whether lit has no fraction or exponent.
func isIntegerLiteral(lit string) bool {
	return !strings.ContainsAny(lit, ".eE")
}

// NumberValue converts a numeric literal to the narrowest exact Value:
// Int when it fits int64, Uint when it fits uint64, Float when it has a
// fraction or exponent. An integer literal beyond uint64, or a float
// beyond float64, fails.
func NumberValue(lit string) (value.Value, bool) {
	if isIntegerLiteral(lit) {
		if i, ok := wholeInt[int64](lit); ok {
			return value.Int(i), true
		}
		if u, ok := wholeInt[uint64](lit); ok {
			return value.Uint(u), true
		}
		return value.Null(), false
	}
	f, ok := wholeFloat[float64](lit)
	if !ok {
		return value.Null(), false
	}
	return value.Float(f), true
}
