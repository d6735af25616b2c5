// Package numeric implements exact integer and floating-point conversions
// over utf cursors and sinks.
//
// Parsing never wraps or truncates: a literal that does not fit the
// destination type is a failure. Formatting produces the shortest decimal
// text that parses back to the identical value.
package numeric

import (
	"unsafe"

	"github.com/owacoder/skate-sub000/utf"
)

// Integer is any built-in integer type.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Float is any built-in floating-point type.
type Float interface {
	~float32 | ~float64
}

// Format controls the non-finite tokens of a text format.
type Format struct {
	// AllowNonFinite accepts and emits Infinity, -Infinity and NaN.
	AllowNonFinite bool
}

// Token spellings for non-finite floats.
const (
	InfinityToken = "Infinity"
	NaNToken      = "NaN"
)

// signed reports whether T is a signed integer type.
func signed[T Integer]() bool {
	var zero T
	return ^zero < zero
}

// bitSize returns the width of T in bits.
func bitSize[T Integer | Float]() int {
	var zero T
	return int(unsafe.Sizeof(zero)) * 8
}

// maxMagnitude returns the largest magnitude T can hold for the given sign.
// For signed types the negative magnitude is one larger than the positive.
func maxMagnitude[T Integer](negative bool) uint64 {
	bits := bitSize[T]()
	if !signed[T]() {
		if negative {
			return 0
		}
		if bits == 64 {
			return ^uint64(0)
		}
		return 1<<bits - 1
	}
	limit := uint64(1) << (bits - 1)
	if negative {
		return limit
	}
	return limit - 1
}

// digitValue returns the value of u as a digit, or 255 if it is not one.
func digitValue[U utf.Unit](u U) byte {
	switch {
	case u >= '0' && u <= '9':
		return byte(u - '0')
	case u >= 'a' && u <= 'z':
		return byte(u-'a') + 10
	case u >= 'A' && u <= 'Z':
		return byte(u-'A') + 10
	default:
		return 255
	}
}

// IsDigit reports whether u is an ASCII decimal digit.
func IsDigit[U utf.Unit](u U) bool {
	return u >= '0' && u <= '9'
}
