// Package json implements the canonical skate text format, RFC 8259 JSON,
// on top of the utf cursors and sinks.
//
// # Decoding
//
// Decoding is a single pass with one unit of lookahead. Each node goes
// straight into its destination through a capability.Builder: a typed Go
// value, a value.Value, or a discarding builder for validation. Input may
// be UTF-8 bytes, UTF-16 units or UTF-32 units.
//
// Any failure (syntax, depth, type mismatch) resets the destination to
// its zero value, so a caller never observes a partially decoded result.
//
// # Encoding
//
// Go values are walked by category (see package capability) and written
// to a sink of any unit width. Floats always carry a fraction or exponent
// so that Float values survive a round trip through value.Value. A failed
// sink write aborts with ErrSinkWrite; output already written stays.
package json

import (
	"errors"
	"io"

	"github.com/owacoder/skate-sub000/capability"
	"github.com/owacoder/skate-sub000/utf"
	"github.com/owacoder/skate-sub000/value"
)

// ============================================================
// Decoding
// ============================================================

// Unmarshal decodes one document from data into the value v points to.
func Unmarshal(data []byte, v any) error {
	return UnmarshalWithOptions(data, v, DefaultReadOptions())
}

// UnmarshalString decodes one document from s.
func UnmarshalString(s string, v any) error {
	return Decode(utf.NewStringCursor(s), v, DefaultReadOptions())
}

// UnmarshalUTF16 decodes one document from UTF-16 units.
func UnmarshalUTF16(data []uint16, v any) error {
	return Decode(utf.NewSliceCursor(data), v, DefaultReadOptions())
}

// UnmarshalWithOptions decodes one document from data using opts.
func UnmarshalWithOptions(data []byte, v any, opts ReadOptions) error {
	return Decode(utf.NewSliceCursor(data), v, opts)
}

// Decode reads one document from c into the value v points to. Only
// whitespace may follow the document.
func Decode[U utf.Unit](c utf.Cursor[U], v any, opts ReadOptions) error {
	b, err := capability.TargetOf(v)
	if err != nil {
		return err
	}
	return decodeInto(newDecoder(c), b, opts, true)
}

// DecodeValue decodes data into a Value.
func DecodeValue(data []byte) (value.Value, error) {
	var v value.Value
	err := Unmarshal(data, &v)
	return v, err
}

// Validate checks that data holds exactly one well-formed document.
func Validate(data []byte, opts ReadOptions) error {
	return decodeInto(newDecoder(utf.NewSliceCursor(data)), capability.Discard, opts, true)
}

func decodeInto[U utf.Unit](d *decoder[U], b capability.Builder, opts ReadOptions, whole bool) error {
	var err error
	if whole {
		err = d.document(b, opts)
	} else {
		err = d.value(b, opts)
	}
	if err != nil {
		if ioErr := cursorErr(d.c); ioErr != nil {
			err = ioErr
		}
		b.Clear()
	}
	return err
}

func cursorErr(c any) error {
	if e, ok := c.(interface{ Err() error }); ok {
		return e.Err()
	}
	return nil
}

// Decoder reads a sequence of whitespace-separated documents from a
// reader, such as newline-delimited JSON.
type Decoder struct {
	d    *decoder[byte]
	c    *utf.ReaderCursor
	opts ReadOptions
	n    int
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	c := utf.NewReaderCursor(r)
	return &Decoder{d: newDecoder[byte](c), c: c, opts: DefaultReadOptions()}
}

// SetOptions replaces the read options for later documents.
func (dec *Decoder) SetOptions(opts ReadOptions) {
	dec.opts = opts
}

// More reports whether another document follows.
func (dec *Decoder) More() bool {
	_, ok := dec.d.skipSpace()
	return ok
}

// Decode reads the next document into the value v points to. It returns
// io.EOF when the input holds no more documents. Two documents must be
// separated by at least one whitespace character.
func (dec *Decoder) Decode(v any) error {
	b, err := capability.TargetOf(v)
	if err != nil {
		return err
	}
	if dec.n > 0 {
		if u, ok := dec.c.Peek(); ok && !isSpace(u) {
			b.Clear()
			return &SyntaxError{Offset: dec.c.Offset(), Msg: "documents must be separated by whitespace"}
		}
	}
	if !dec.More() {
		if err := dec.c.Err(); err != nil {
			return err
		}
		return io.EOF
	}
	dec.n++
	return decodeInto(dec.d, b, dec.opts, false)
}

// ============================================================
// Encoding
// ============================================================

// Marshal encodes v as compact UTF-8 text.
func Marshal(v any) ([]byte, error) {
	return MarshalWithOptions(v, DefaultWriteOptions())
}

// MarshalIndent encodes v with indent spaces per nesting level.
func MarshalIndent(v any, indent int) ([]byte, error) {
	opts := DefaultWriteOptions()
	opts.Indent = indent
	return MarshalWithOptions(v, opts)
}

// MarshalWithOptions encodes v as UTF-8 text using opts.
func MarshalWithOptions(v any, opts WriteOptions) ([]byte, error) {
	s := utf.NewSliceSink[byte](128)
	if err := Encode(s, v, opts); err != nil {
		return nil, err
	}
	return s.Units(), nil
}

// MarshalUTF16 encodes v as UTF-16 units.
func MarshalUTF16(v any, opts WriteOptions) ([]uint16, error) {
	s := utf.NewSliceSink[uint16](128)
	if err := Encode(s, v, opts); err != nil {
		return nil, err
	}
	return s.Units(), nil
}

// MarshalValue encodes a Value as compact UTF-8 text.
func MarshalValue(v value.Value) ([]byte, error) {
	return MarshalWithOptions(v, DefaultWriteOptions())
}

// Encode writes v to s. A value.Value, or a pointer to one, is written as
// the document it holds.
func Encode[U utf.Unit](s utf.Sink[U], v any, opts WriteOptions) error {
	w := newWriter(s, opts)
	switch x := v.(type) {
	case value.Value:
		return capability.Replay(x, w)
	case *value.Value:
		if x != nil {
			return capability.Replay(*x, w)
		}
	}
	return capability.Walk(v, w)
}

// Encoder writes documents to a stream, one per line.
type Encoder struct {
	s    *utf.WriterSink
	opts WriteOptions
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{s: utf.NewWriterSink(w), opts: DefaultWriteOptions()}
}

// SetIndent sets the number of spaces per nesting level.
func (enc *Encoder) SetIndent(n int) {
	enc.opts.Indent = n
}

// SetOptions replaces the write options.
func (enc *Encoder) SetOptions(opts WriteOptions) {
	enc.opts = opts
}

// Encode writes v followed by a newline and flushes.
func (enc *Encoder) Encode(v any) error {
	if err := Encode(enc.s, v, enc.opts); err != nil {
		if errors.Is(err, ErrSinkWrite) && enc.s.Err() != nil {
			return enc.s.Err()
		}
		return err
	}
	if !enc.s.Put('\n') {
		return enc.s.Err()
	}
	return enc.s.Flush()
}
