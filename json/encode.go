package json

import (
	"math"

	"github.com/owacoder/skate-sub000/capability"
	"github.com/owacoder/skate-sub000/numeric"
	"github.com/owacoder/skate-sub000/utf"
)

// writer is a capability.Builder that writes canonical text to a sink.
// Each nested container gets its own writer carrying opts.nested(), so
// indentation and depth checks are derived, never mutated.
type writer[U utf.Unit] struct {
	s    utf.Sink[U]
	opts WriteOptions
}

func newWriter[U utf.Unit](s utf.Sink[U], opts WriteOptions) *writer[U] {
	return &writer[U]{s: s, opts: opts}
}

func (w *writer[U]) put(u U) error {
	if !w.s.Put(u) {
		return ErrSinkWrite
	}
	return nil
}

// ascii writes ASCII bytes as units.
func (w *writer[U]) ascii(b []byte) error {
	var tmp [64]U
	for len(b) > 0 {
		n := 0
		for n < len(tmp) && n < len(b) {
			tmp[n] = U(b[n])
			n++
		}
		if !w.s.Write(tmp[:n]) {
			return ErrSinkWrite
		}
		b = b[n:]
	}
	return nil
}

func (w *writer[U]) asciiString(s string) error {
	for i := 0; i < len(s); i++ {
		if err := w.put(U(s[i])); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer[U]) newline(depth int) error {
	if w.opts.Indent <= 0 {
		return nil
	}
	if err := w.put('\n'); err != nil {
		return err
	}
	for range depth * w.opts.Indent {
		if err := w.put(' '); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================
// Scalars
// ============================================================

func (w *writer[U]) Null() error { return w.asciiString("null") }

func (w *writer[U]) Bool(b bool) error {
	if b {
		return w.asciiString("true")
	}
	return w.asciiString("false")
}

func (w *writer[U]) Int(i int64) error {
	if !numeric.FormatInt(w.s, i, 10) {
		return ErrSinkWrite
	}
	return nil
}

func (w *writer[U]) Uint(u uint64) error {
	if !numeric.FormatInt(w.s, u, 10) {
		return ErrSinkWrite
	}
	return nil
}

// Float writes the shortest round-trip text and appends ".0" to integral
// values so a decoded Value keeps its Float kind.
func (w *writer[U]) Float(f float64, bitSize int) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		if !w.opts.AllowNonFinite {
			return ErrNonFinite
		}
		return w.ascii(numeric.AppendFloat(nil, f))
	}
	var buf [40]byte
	var b []byte
	if bitSize == 32 {
		b = numeric.AppendFloat(buf[:0], float32(f))
	} else {
		b = numeric.AppendFloat(buf[:0], f)
	}
	integral := true
	for _, c := range b {
		if c == '.' || c == 'e' {
			integral = false
			break
		}
	}
	if integral {
		b = append(b, '.', '0')
	}
	return w.ascii(b)
}

// Number writes a literal verbatim after checking its grammar.
func (w *writer[U]) Number(lit string) error {
	if !ValidNumber([]byte(lit)) {
		return &SyntaxError{Offset: -1, Msg: "invalid number literal " + lit}
	}
	return w.asciiString(lit)
}

func (w *writer[U]) String(s string) error {
	if err := w.put('"'); err != nil {
		return err
	}
	c := utf.NewStringCursor(s)
	for {
		cp, n := utf.DecodeNext(c)
		if n == 0 {
			break
		}
		if !cp.IsValid() {
			return &SyntaxError{Offset: c.Offset(), Msg: "invalid UTF-8 in string"}
		}
		if err := w.char(cp.Rune()); err != nil {
			return err
		}
	}
	return w.put('"')
}

const hexDigits = "0123456789abcdef"

func (w *writer[U]) char(r rune) error {
	switch r {
	case '"':
		return w.asciiString(`\"`)
	case '\\':
		return w.asciiString(`\\`)
	case '\b':
		return w.asciiString(`\b`)
	case '\f':
		return w.asciiString(`\f`)
	case '\n':
		return w.asciiString(`\n`)
	case '\r':
		return w.asciiString(`\r`)
	case '\t':
		return w.asciiString(`\t`)
	}
	switch {
	case r < 0x20:
		return w.escapeUnit(r)
	case r < 0x80:
		return w.put(U(r))
	case w.opts.ASCII:
		if hi, lo, ok := utf.SplitSurrogates(r); ok {
			if err := w.escapeUnit(hi); err != nil {
				return err
			}
			return w.escapeUnit(lo)
		}
		return w.escapeUnit(r)
	}
	if !utf.Encode(r, w.s) {
		return ErrSinkWrite
	}
	return nil
}

func (w *writer[U]) escapeUnit(r rune) error {
	b := [6]byte{'\\', 'u', hexDigits[r>>12&0xF], hexDigits[r>>8&0xF], hexDigits[r>>4&0xF], hexDigits[r&0xF]}
	return w.ascii(b[:])
}

// Clear is a no-op: written output is never retracted.
func (w *writer[U]) Clear() {}

// ============================================================
// Containers
// ============================================================

func (w *writer[U]) enter() error {
	if w.opts.depth >= w.opts.limit() {
		return &DepthError{Offset: -1, Limit: w.opts.limit()}
	}
	return nil
}

func (w *writer[U]) Array() (capability.ArrayBuilder, error) {
	if err := w.enter(); err != nil {
		return nil, err
	}
	if err := w.put('['); err != nil {
		return nil, err
	}
	return &arrayWriter[U]{parent: w, child: newWriter(w.s, w.opts.nested())}, nil
}

func (w *writer[U]) Object() (capability.ObjectBuilder, error) {
	if err := w.enter(); err != nil {
		return nil, err
	}
	if err := w.put('{'); err != nil {
		return nil, err
	}
	return &objectWriter[U]{parent: w, child: newWriter(w.s, w.opts.nested())}, nil
}

type arrayWriter[U utf.Unit] struct {
	parent, child *writer[U]
	n             int
}

func (a *arrayWriter[U]) Elem() (capability.Builder, error) {
	if a.n > 0 {
		if err := a.child.put(','); err != nil {
			return nil, err
		}
	}
	a.n++
	if err := a.child.newline(a.child.opts.depth); err != nil {
		return nil, err
	}
	return a.child, nil
}

func (a *arrayWriter[U]) End() error {
	if a.n > 0 {
		if err := a.parent.newline(a.parent.opts.depth); err != nil {
			return err
		}
	}
	return a.parent.put(']')
}

type objectWriter[U utf.Unit] struct {
	parent, child *writer[U]
	n             int
}

func (o *objectWriter[U]) Key(k string) (capability.Builder, error) {
	if o.n > 0 {
		if err := o.child.put(','); err != nil {
			return nil, err
		}
	}
	o.n++
	if err := o.child.newline(o.child.opts.depth); err != nil {
		return nil, err
	}
	if err := o.child.String(k); err != nil {
		return nil, err
	}
	if err := o.child.put(':'); err != nil {
		return nil, err
	}
	if o.child.opts.Indent > 0 {
		if err := o.child.put(' '); err != nil {
			return nil, err
		}
	}
	return o.child, nil
}

func (o *objectWriter[U]) End() error {
	if o.n > 0 {
		if err := o.parent.newline(o.parent.opts.depth); err != nil {
			return err
		}
	}
	return o.parent.put('}')
}
