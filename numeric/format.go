package numeric

import (
	"math"
	"strconv"

	"github.com/owacoder/skate-sub000/utf"
)

// AppendInt appends the base-b text of v to dst.
func AppendInt[T Integer](dst []byte, v T, base int) []byte {
	if signed[T]() {
		return strconv.AppendInt(dst, int64(v), base)
	}
	return strconv.AppendUint(dst, uint64(v), base)
}

// AppendFloat appends the shortest decimal text that parses back to v.
// Magnitudes in [1e-6, 1e21) use plain notation, others use an exponent
// without leading zeros ("1e-7", "1e+21"). Non-finite values are appended
// as Infinity, -Infinity or NaN; callers decide whether the format allows
// them.
func AppendFloat[T Float](dst []byte, v T) []byte {
	f := float64(v)
	switch {
	case math.IsNaN(f):
		return append(dst, NaNToken...)
	case math.IsInf(f, 1):
		return append(dst, InfinityToken...)
	case math.IsInf(f, -1):
		return append(append(dst, '-'), InfinityToken...)
	}

	bits := bitSize[T]()
	abs := math.Abs(f)
	verb := byte('f')
	if abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) ||
			bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			verb = 'e'
		}
	}
	start := len(dst)
	dst = strconv.AppendFloat(dst, f, verb, -1, bits)
	if verb == 'e' {
		// clean up e-09 to e-9
		n := len(dst) - start
		if n >= 4 && dst[len(dst)-4] == 'e' && dst[len(dst)-3] == '-' && dst[len(dst)-2] == '0' {
			dst[len(dst)-2] = dst[len(dst)-1]
			dst = dst[:len(dst)-1]
		}
		if n >= 4 && dst[len(dst)-4] == 'e' && dst[len(dst)-3] == '+' && dst[len(dst)-2] == '0' {
			dst[len(dst)-2] = dst[len(dst)-1]
			dst = dst[:len(dst)-1]
		}
	}
	return dst
}

// FormatInt writes the base-b text of v to s.
func FormatInt[T Integer, U utf.Unit](s utf.Sink[U], v T, base int) bool {
	var buf [65]byte
	return writeASCII(s, AppendInt(buf[:0], v, base))
}

// FormatFloat writes the shortest round-trip text of v to s. Non-finite
// values fail unless f.AllowNonFinite is set.
func FormatFloat[T Float, U utf.Unit](s utf.Sink[U], v T, f Format) bool {
	x := float64(v)
	if !f.AllowNonFinite && (math.IsNaN(x) || math.IsInf(x, 0)) {
		return false
	}
	var buf [32]byte
	return writeASCII(s, AppendFloat(buf[:0], v))
}

// writeASCII writes ASCII bytes as units of any width.
func writeASCII[U utf.Unit](s utf.Sink[U], b []byte) bool {
	var tmp [65]U
	units := tmp[:len(b)]
	for i, c := range b {
		units[i] = U(c)
	}
	return s.Write(units)
}
