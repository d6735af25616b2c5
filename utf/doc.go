// Package utf implements the Unicode primitives shared by every skate format.
//
// Text is read through a Cursor and written through a Sink. Both are generic
// over the code unit type, so the same decoder works on UTF-8 bytes, UTF-16
// units and UTF-32 units:
//
//	uint8  -> UTF-8  (1-4 units per code point)
//	uint16 -> UTF-16 (1-2 units, surrogate pairs above U+FFFF)
//	uint32 -> UTF-32 (1 unit)
//
// # Decoding
//
// DecodeNext reads exactly one code point and reports how many units it
// consumed. Malformed input is rejected, never replaced:
//   - overlong UTF-8 sequences
//   - UTF-8 encodings of surrogate code points
//   - unpaired UTF-16 surrogates
//   - anything above U+10FFFF
//
// # Encoding
//
// Encode appends the units of a single code point to a Sink. Invalid scalars
// (surrogates, out-of-range values) are refused before anything is written.
package utf
