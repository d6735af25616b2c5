package numeric

import (
	"math"
	"strconv"

	"github.com/owacoder/skate-sub000/utf"
)

// ParseInt consumes an optional sign and a maximal run of digits in the
// given base (2 to 36) and converts them to T.
//
// It fails if no digit was consumed, if the value does not fit T, or if a
// minus sign precedes a non-zero value for an unsigned T. Parsing stops at
// the first unit that is not a digit of base; that unit is not consumed.
func ParseInt[T Integer, U utf.Unit](c utf.Cursor[U], base int) (T, bool) {
	if base < 2 || base > 36 {
		return 0, false
	}

	negative := false
	if u, ok := c.Peek(); ok && (u == '-' || u == '+') {
		negative = u == '-'
		c.Next()
	}

	limit := maxMagnitude[T](negative)
	var mag uint64
	digits := 0
	overflow := false
	for {
		u, ok := c.Peek()
		if !ok {
			break
		}
		d := digitValue(u)
		if int(d) >= base {
			break
		}
		c.Next()
		digits++
		if overflow {
			continue
		}
		if uint64(d) > limit || mag > (limit-uint64(d))/uint64(base) {
			overflow = true
			continue
		}
		mag = mag*uint64(base) + uint64(d)
	}

	if digits == 0 || overflow {
		return 0, false
	}
	if negative {
		if mag == 0 {
			return 0, true
		}
		// two's complement negation handles the minimum value
		return T(-int64(mag - 1) - 1), true
	}
	return T(mag), true
}

// ParseFloat consumes a decimal floating-point literal: optional sign,
// integer digits, optional fraction, optional exponent. At least one digit
// is required in the integer part or the fraction. Infinity and NaN are
// recognized only when f.AllowNonFinite is set.
//
// The result is correctly rounded to T. Literals whose magnitude exceeds
// the largest finite T fail.
func ParseFloat[T Float, U utf.Unit](c utf.Cursor[U], f Format) (T, bool) {
	var buf [64]byte
	lit := buf[:0]

	u, ok := c.Peek()
	if ok && (u == '-' || u == '+') {
		lit = append(lit, byte(u))
		c.Next()
		u, ok = c.Peek()
	}

	if ok && (u == 'I' || u == 'N') {
		if !f.AllowNonFinite {
			return 0, false
		}
		return parseNonFinite[T](c, len(lit) > 0 && lit[0] == '-')
	}

	digits := 0
	lit, digits = appendDigits(c, lit)

	if u, ok := c.Peek(); ok && u == '.' {
		c.Next()
		lit = append(lit, '.')
		var frac int
		lit, frac = appendDigits(c, lit)
		digits += frac
	}
	if digits == 0 {
		return 0, false
	}

	if u, ok := c.Peek(); ok && (u == 'e' || u == 'E') {
		c.Next()
		lit = append(lit, 'e')
		if u, ok := c.Peek(); ok && (u == '-' || u == '+') {
			lit = append(lit, byte(u))
			c.Next()
		}
		var exp int
		lit, exp = appendDigits(c, lit)
		if exp == 0 {
			return 0, false
		}
	}

	v, ok := ParseFloatLiteral[T](lit)
	return v, ok
}

// ParseFloatLiteral converts a complete ASCII literal that has already been
// scanned. Out-of-range magnitudes fail.
func ParseFloatLiteral[T Float](lit []byte) (T, bool) {
	v, err := strconv.ParseFloat(string(lit), bitSize[T]())
	if err != nil {
		// ErrRange is reported for overflow to ±Inf; underflow rounds to
		// zero without error.
		return 0, false
	}
	return T(v), true
}

func appendDigits[U utf.Unit](c utf.Cursor[U], lit []byte) ([]byte, int) {
	n := 0
	for {
		u, ok := c.Peek()
		if !ok || !IsDigit(u) {
			return lit, n
		}
		c.Next()
		lit = append(lit, byte(u))
		n++
	}
}

func parseNonFinite[T Float, U utf.Unit](c utf.Cursor[U], negative bool) (T, bool) {
	u, _ := c.Peek()
	word := InfinityToken
	if u == 'N' {
		if negative {
			return 0, false
		}
		word = NaNToken
	}
	if !MatchWord(c, word) {
		return 0, false
	}
	switch {
	case word == NaNToken:
		return T(math.NaN()), true
	case negative:
		return T(math.Inf(-1)), true
	default:
		return T(math.Inf(1)), true
	}
}

// MatchWord consumes word from c unit by unit. It reports false at the
// first mismatch; the units matched so far stay consumed.
func MatchWord[U utf.Unit](c utf.Cursor[U], word string) bool {
	for i := 0; i < len(word); i++ {
		u, ok := c.Next()
		if !ok || u != U(word[i]) {
			return false
		}
	}
	return true
}
