package utf

// DecodeNext decodes one code point from c and returns it with the number of
// units consumed. The encoding is chosen from the width of U.
//
// At end of input it returns an invalid code point and 0. For malformed
// input it returns an invalid code point and the number of units consumed
// before the error was detected; a unit that could begin the next sequence
// is pushed back rather than swallowed.
func DecodeNext[U Unit](c Cursor[U]) (CodePoint, int) {
	switch Width[U]() {
	case 1:
		return decodeUTF8(c)
	case 2:
		return decodeUTF16(c)
	default:
		u, ok := c.Next()
		if !ok {
			return Invalid(), 0
		}
		return Valid(rune(u)), 1
	}
}

// UTF-8 sequence lead byte ranges.
const (
	tx = 0x80 // 1000_0000
	t2 = 0xC0 // 1100_0000
	t3 = 0xE0 // 1110_0000
	t4 = 0xF0 // 1111_0000
	t5 = 0xF8 // 1111_1000

	maskx = 0x3F
	mask2 = 0x1F
	mask3 = 0x0F
	mask4 = 0x07
)

func decodeUTF8[U Unit](c Cursor[U]) (CodePoint, int) {
	u, ok := c.Next()
	if !ok {
		return Invalid(), 0
	}
	b0 := uint32(u)

	var need int
	var r rune
	var lowest rune
	switch {
	case b0 < tx:
		return CodePoint{r: rune(b0), valid: true}, 1
	case b0 < t2:
		// stray continuation byte
		return Invalid(), 1
	case b0 < t3:
		need, r, lowest = 1, rune(b0&mask2), 0x80
	case b0 < t4:
		need, r, lowest = 2, rune(b0&mask3), 0x800
	case b0 < t5:
		need, r, lowest = 3, rune(b0&mask4), 0x10000
	default:
		return Invalid(), 1
	}

	n := 1
	for i := 0; i < need; i++ {
		u, ok := c.Next()
		if !ok {
			return Invalid(), n
		}
		b := uint32(u)
		if b&0xC0 != tx {
			c.Unread()
			return Invalid(), n
		}
		r = r<<6 | rune(b&maskx)
		n++
	}

	if r < lowest || !ValidRune(r) {
		// overlong, surrogate or out of range
		return Invalid(), n
	}
	return CodePoint{r: r, valid: true}, n
}

func decodeUTF16[U Unit](c Cursor[U]) (CodePoint, int) {
	u, ok := c.Next()
	if !ok {
		return Invalid(), 0
	}
	r := rune(u)
	switch {
	case IsLowSurrogate(r):
		return Invalid(), 1
	case !IsHighSurrogate(r):
		return CodePoint{r: r, valid: true}, 1
	}

	u2, ok := c.Next()
	if !ok {
		return Invalid(), 1
	}
	lo := rune(u2)
	if !IsLowSurrogate(lo) {
		c.Unread()
		return Invalid(), 1
	}
	return CombineSurrogates(r, lo), 2
}

// Encode appends the encoding of r to s. It fails without writing if r is
// not a valid scalar, and reports false if the sink rejects the write.
func Encode[U Unit](r rune, s Sink[U]) bool {
	if !ValidRune(r) {
		return false
	}
	switch Width[U]() {
	case 1:
		var buf [4]U
		n := encodeUTF8(buf[:], r)
		if n == 1 {
			return s.Put(buf[0])
		}
		return s.Write(buf[:n])
	case 2:
		if hi, lo, ok := SplitSurrogates(r); ok {
			return s.Write([]U{U(hi), U(lo)})
		}
		return s.Put(U(r))
	default:
		return s.Put(U(r))
	}
}

// EncodeCodePoint is Encode for a CodePoint; invalid code points fail.
func EncodeCodePoint[U Unit](cp CodePoint, s Sink[U]) bool {
	if !cp.valid {
		return false
	}
	return Encode(cp.r, s)
}

func encodeUTF8[U Unit](buf []U, r rune) int {
	switch {
	case r < 0x80:
		buf[0] = U(r)
		return 1
	case r < 0x800:
		buf[0] = U(t2 | r>>6)
		buf[1] = U(tx | r&maskx)
		return 2
	case r < 0x10000:
		buf[0] = U(t3 | r>>12)
		buf[1] = U(tx | (r>>6)&maskx)
		buf[2] = U(tx | r&maskx)
		return 3
	default:
		buf[0] = U(t4 | r>>18)
		buf[1] = U(tx | (r>>12)&maskx)
		buf[2] = U(tx | (r>>6)&maskx)
		buf[3] = U(tx | r&maskx)
		return 4
	}
}

// Transcode re-encodes every code point read from src into dst. It stops at
// the first invalid sequence or failed write and reports whether src was
// fully consumed.
func Transcode[S, D Unit](src Cursor[S], dst Sink[D]) bool {
	for {
		if _, ok := src.Peek(); !ok {
			return true
		}
		cp, _ := DecodeNext(src)
		if !EncodeCodePoint(cp, dst) {
			return false
		}
	}
}
