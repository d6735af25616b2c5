package utf

// MaxRune is the largest Unicode scalar value.
const MaxRune = 0x10FFFF

const (
	surrogateMin = 0xD800
	highMax      = 0xDBFF
	lowMin       = 0xDC00
	surrogateMax = 0xDFFF
	surrSelf     = 0x10000
)

// CodePoint is a decoded scalar with a validity flag.
type CodePoint struct {
	r     rune
	valid bool
}

// Valid wraps r, marking it invalid if it is not a Unicode scalar value.
func Valid(r rune) CodePoint {
	return CodePoint{r: r, valid: ValidRune(r)}
}

// Invalid returns an invalid code point.
func Invalid() CodePoint {
	return CodePoint{}
}

// Rune returns the scalar value, or -1 if the code point is invalid.
func (c CodePoint) Rune() rune {
	if !c.valid {
		return -1
	}
	return c.r
}

// IsValid reports whether c holds a Unicode scalar value.
func (c CodePoint) IsValid() bool {
	return c.valid
}

// ValidRune reports whether r is a Unicode scalar value: in range and not
// a surrogate.
func ValidRune(r rune) bool {
	switch {
	case r < 0:
		return false
	case r >= surrogateMin && r <= surrogateMax:
		return false
	case r > MaxRune:
		return false
	}
	return true
}

// IsHighSurrogate reports whether r is a UTF-16 high (lead) surrogate.
func IsHighSurrogate(r rune) bool {
	return r >= surrogateMin && r <= highMax
}

// IsLowSurrogate reports whether r is a UTF-16 low (trail) surrogate.
func IsLowSurrogate(r rune) bool {
	return r >= lowMin && r <= surrogateMax
}

// CombineSurrogates composes a surrogate pair. It returns an invalid code
// point unless hi is a high surrogate and lo a low surrogate.
func CombineSurrogates(hi, lo rune) CodePoint {
	if !IsHighSurrogate(hi) || !IsLowSurrogate(lo) {
		return Invalid()
	}
	return CodePoint{r: (hi-surrogateMin)<<10 | (lo - lowMin) + surrSelf, valid: true}
}

// SplitSurrogates splits a supplementary-plane scalar into a surrogate
// pair. ok is false for scalars that fit in one UTF-16 unit or are invalid.
func SplitSurrogates(r rune) (hi, lo rune, ok bool) {
	if r < surrSelf || r > MaxRune {
		return 0, 0, false
	}
	r -= surrSelf
	return surrogateMin + (r>>10)&0x3FF, lowMin + r&0x3FF, true
}

// EncodedLen returns the number of U units needed to encode r, or 0 if r is
// not a valid scalar.
func EncodedLen[U Unit](r rune) int {
	if !ValidRune(r) {
		return 0
	}
	switch Width[U]() {
	case 1:
		switch {
		case r < 0x80:
			return 1
		case r < 0x800:
			return 2
		case r < 0x10000:
			return 3
		default:
			return 4
		}
	case 2:
		if r < surrSelf {
			return 1
		}
		return 2
	default:
		return 1
	}
}
