package json

import (
	"fmt"
	"math"

	"github.com/owacoder/skate-sub000/capability"
	"github.com/owacoder/skate-sub000/numeric"
	"github.com/owacoder/skate-sub000/utf"
)

// decoder is a single-pass recursive descent parser over a cursor. It
// never looks more than one unit ahead and reports every node straight to
// a Builder, so nothing is buffered except the current string or number.
type decoder[U utf.Unit] struct {
	c   utf.Cursor[U]
	str utf.SliceSink[byte]
	lit []byte
}

func newDecoder[U utf.Unit](c utf.Cursor[U]) *decoder[U] {
	return &decoder[U]{c: c}
}

func (d *decoder[U]) syntax(format string, args ...any) error {
	return &SyntaxError{Offset: d.c.Offset(), Msg: fmt.Sprintf(format, args...)}
}

// build turns a Builder failure into a TypeError at the current offset.
func (d *decoder[U]) build(err error) error {
	if err == nil {
		return nil
	}
	return &TypeError{Offset: d.c.Offset(), Err: err}
}

func isSpace[U utf.Unit](u U) bool {
	return u == ' ' || u == '\t' || u == '\n' || u == '\r'
}

// skipSpace consumes whitespace and peeks at the next unit.
func (d *decoder[U]) skipSpace() (U, bool) {
	for {
		u, ok := d.c.Peek()
		if !ok || !isSpace(u) {
			return u, ok
		}
		d.c.Next()
	}
}

// document parses one value and requires only whitespace after it.
func (d *decoder[U]) document(b capability.Builder, opts ReadOptions) error {
	if err := d.value(b, opts); err != nil {
		return err
	}
	if _, ok := d.skipSpace(); ok {
		return d.syntax("unexpected data after top-level value")
	}
	return nil
}

func (d *decoder[U]) value(b capability.Builder, opts ReadOptions) error {
	u, ok := d.skipSpace()
	if !ok {
		return d.syntax("unexpected end of input")
	}
	switch {
	case u == '{':
		d.c.Next()
		return d.object(b, opts)
	case u == '[':
		d.c.Next()
		return d.array(b, opts)
	case u == '"':
		d.c.Next()
		s, err := d.string()
		if err != nil {
			return err
		}
		return d.build(b.String(s))
	case u == 't':
		if !numeric.MatchWord(d.c, "true") {
			return d.syntax("invalid literal")
		}
		return d.build(b.Bool(true))
	case u == 'f':
		if !numeric.MatchWord(d.c, "false") {
			return d.syntax("invalid literal")
		}
		return d.build(b.Bool(false))
	case u == 'n':
		if !numeric.MatchWord(d.c, "null") {
			return d.syntax("invalid literal")
		}
		return d.build(b.Null())
	case u == '-' || numeric.IsDigit(u) || u == 'I' || u == 'N':
		return d.number(b, opts)
	}
	return d.syntax("unexpected character %q", rune(u))
}

// ============================================================
// Containers
// ============================================================

func (d *decoder[U]) enter(opts ReadOptions) error {
	if opts.depth >= opts.limit() {
		return &DepthError{Offset: d.c.Offset(), Limit: opts.limit()}
	}
	return nil
}

func (d *decoder[U]) array(b capability.Builder, opts ReadOptions) error {
	if err := d.enter(opts); err != nil {
		return err
	}
	ab, err := b.Array()
	if err != nil {
		return d.build(err)
	}
	inner := opts.nested()

	if u, ok := d.skipSpace(); ok && u == ']' {
		d.c.Next()
		return d.build(ab.End())
	}
	for {
		eb, err := ab.Elem()
		if err != nil {
			return d.build(err)
		}
		if err := d.value(eb, inner); err != nil {
			return err
		}

		u, ok := d.skipSpace()
		if !ok {
			return d.syntax("unterminated array")
		}
		d.c.Next()
		switch u {
		case ']':
			return d.build(ab.End())
		case ',':
			if u, ok := d.skipSpace(); ok && u == ']' {
				return d.syntax("trailing comma in array")
			}
		default:
			return d.syntax("expected ',' or ']' in array, got %q", rune(u))
		}
	}
}

func (d *decoder[U]) object(b capability.Builder, opts ReadOptions) error {
	if err := d.enter(opts); err != nil {
		return err
	}
	ob, err := b.Object()
	if err != nil {
		return d.build(err)
	}
	inner := opts.nested()

	if u, ok := d.skipSpace(); ok && u == '}' {
		d.c.Next()
		return d.build(ob.End())
	}
	for {
		u, ok := d.skipSpace()
		switch {
		case !ok:
			return d.syntax("unterminated object")
		case u == '}':
			return d.syntax("trailing comma in object")
		case u != '"':
			return d.syntax("expected string key, got %q", rune(u))
		}
		d.c.Next()
		key, err := d.string()
		if err != nil {
			return err
		}
		if u, ok := d.skipSpace(); !ok || u != ':' {
			return d.syntax("expected ':' after object key")
		}
		d.c.Next()

		mb, err := ob.Key(key)
		if err != nil {
			return d.build(err)
		}
		if err := d.value(mb, inner); err != nil {
			return err
		}

		u, ok = d.skipSpace()
		if !ok {
			return d.syntax("unterminated object")
		}
		d.c.Next()
		switch u {
		case '}':
			return d.build(ob.End())
		case ',':
		default:
			return d.syntax("expected ',' or '}' in object, got %q", rune(u))
		}
	}
}

// ============================================================
// Strings
// ============================================================

// string parses the body of a string whose opening quote is consumed.
// The result is always valid UTF-8 regardless of the input width.
func (d *decoder[U]) string() (string, error) {
	d.str.Reset()
	for {
		u, ok := d.c.Next()
		switch {
		case !ok:
			return "", d.syntax("unterminated string")
		case u == '"':
			return string(d.str.Units()), nil
		case u == '\\':
			if err := d.escape(); err != nil {
				return "", err
			}
		case u < 0x20:
			return "", d.syntax("control character %#x in string", uint32(u))
		case u < 0x80:
			d.str.Put(byte(u))
		default:
			d.c.Unread()
			cp, _ := utf.DecodeNext(d.c)
			if !cp.IsValid() {
				return "", d.syntax("invalid %d-bit encoding in string", 8*utf.Width[U]())
			}
			utf.Encode(cp.Rune(), &d.str)
		}
	}
}

func (d *decoder[U]) escape() error {
	u, ok := d.c.Next()
	if !ok {
		return d.syntax("unterminated string")
	}
	var b byte
	switch u {
	case '"', '\\', '/':
		b = byte(u)
	case 'b':
		b = '\b'
	case 'f':
		b = '\f'
	case 'n':
		b = '\n'
	case 'r':
		b = '\r'
	case 't':
		b = '\t'
	case 'u':
		r, err := d.hex4()
		if err != nil {
			return err
		}
		if utf.IsLowSurrogate(r) {
			return d.syntax("unpaired low surrogate \\u%04X", r)
		}
		if utf.IsHighSurrogate(r) {
			if !numeric.MatchWord(d.c, `\u`) {
				return d.syntax("unpaired high surrogate \\u%04X", r)
			}
			lo, err := d.hex4()
			if err != nil {
				return err
			}
			cp := utf.CombineSurrogates(r, lo)
			if !cp.IsValid() {
				return d.syntax("unpaired high surrogate \\u%04X", r)
			}
			r = cp.Rune()
		}
		utf.Encode(r, &d.str)
		return nil
	default:
		return d.syntax("invalid escape character %q", rune(u))
	}
	d.str.Put(b)
	return nil
}

func (d *decoder[U]) hex4() (rune, error) {
	var r rune
	for range 4 {
		u, ok := d.c.Next()
		if !ok {
			return 0, d.syntax("unterminated \\u escape")
		}
		var v rune
		switch {
		case u >= '0' && u <= '9':
			v = rune(u - '0')
		case u >= 'a' && u <= 'f':
			v = rune(u-'a') + 10
		case u >= 'A' && u <= 'F':
			v = rune(u-'A') + 10
		default:
			return 0, d.syntax("invalid hex digit %q in \\u escape", rune(u))
		}
		r = r<<4 | v
	}
	return r, nil
}

// ============================================================
// Numbers
// ============================================================

func (d *decoder[U]) number(b capability.Builder, opts ReadOptions) error {
	if u, _ := d.c.Peek(); u == 'I' || u == 'N' {
		return d.nonFinite(b, opts, false)
	}
	lit := d.scanNumber()
	if len(lit) == 1 && lit[0] == '-' {
		if u, _ := d.c.Peek(); u == 'I' {
			return d.nonFinite(b, opts, true)
		}
	}
	if err := d.checkNumber(lit); err != nil {
		return err
	}
	return d.build(b.Number(string(lit)))
}

// scanNumber consumes the longest prefix that can start a number literal:
// sign, integer, fraction, exponent. The result is validated separately so
// a lone "-" can still lead to -Infinity.
func (d *decoder[U]) scanNumber() []byte {
	lit := d.lit[:0]
	defer func() { d.lit = lit }()

	if u, _ := d.c.Peek(); u == '-' {
		d.c.Next()
		lit = append(lit, '-')
	}
	lit = d.digits(lit)
	if u, ok := d.c.Peek(); ok && u == '.' {
		d.c.Next()
		lit = append(lit, '.')
		lit = d.digits(lit)
	}
	if u, ok := d.c.Peek(); ok && (u == 'e' || u == 'E') {
		d.c.Next()
		lit = append(lit, 'e')
		if u, ok := d.c.Peek(); ok && (u == '+' || u == '-') {
			d.c.Next()
			lit = append(lit, byte(u))
		}
		lit = d.digits(lit)
	}
	return lit
}

func (d *decoder[U]) digits(lit []byte) []byte {
	for {
		u, ok := d.c.Peek()
		if !ok || !numeric.IsDigit(u) {
			return lit
		}
		d.c.Next()
		lit = append(lit, byte(u))
	}
}

// checkNumber enforces the canonical grammar on a scanned literal:
// -?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?
func (d *decoder[U]) checkNumber(lit []byte) error {
	if !ValidNumber(lit) {
		return d.syntax("invalid number %q", lit)
	}
	return nil
}

// ValidNumber reports whether lit is a number literal of the canonical
// grammar.
func ValidNumber(lit []byte) bool {
	i := 0
	if i < len(lit) && lit[i] == '-' {
		i++
	}
	switch {
	case i < len(lit) && lit[i] == '0':
		i++
	case i < len(lit) && lit[i] >= '1' && lit[i] <= '9':
		for i < len(lit) && lit[i] >= '0' && lit[i] <= '9' {
			i++
		}
	default:
		return false
	}
	if i < len(lit) && lit[i] == '.' {
		i++
		start := i
		for i < len(lit) && lit[i] >= '0' && lit[i] <= '9' {
			i++
		}
		if i == start {
			return false
		}
	}
	if i < len(lit) && (lit[i] == 'e' || lit[i] == 'E') {
		i++
		if i < len(lit) && (lit[i] == '+' || lit[i] == '-') {
			i++
		}
		start := i
		for i < len(lit) && lit[i] >= '0' && lit[i] <= '9' {
			i++
		}
		if i == start {
			return false
		}
	}
	return i == len(lit)
}

func (d *decoder[U]) nonFinite(b capability.Builder, opts ReadOptions, negative bool) error {
	if !opts.AllowNonFinite {
		return d.syntax("non-finite number not allowed")
	}
	if u, _ := d.c.Peek(); u == 'I' {
		if !numeric.MatchWord(d.c, numeric.InfinityToken) {
			return d.syntax("invalid literal")
		}
		sign := 1
		if negative {
			sign = -1
		}
		return d.build(b.Float(math.Inf(sign), 64))
	}
	if negative || !numeric.MatchWord(d.c, numeric.NaNToken) {
		return d.syntax("invalid literal")
	}
	return d.build(b.Float(math.NaN(), 64))
}
