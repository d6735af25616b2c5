package utf

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// Cursor Tests
// ============================================================

func TestSliceCursor_PeekNextUnread(t *testing.T) {
	c := NewSliceCursor([]byte("ab"))

	u, ok := c.Peek()
	require.True(t, ok)
	assert.Equal(t, byte('a'), u)
	assert.EqualValues(t, 0, c.Offset())

	u, ok = c.Next()
	require.True(t, ok)
	assert.Equal(t, byte('a'), u)
	assert.EqualValues(t, 1, c.Offset())

	assert.True(t, c.Unread())
	assert.False(t, c.Unread(), "only one unit of pushback is guaranteed")
	assert.EqualValues(t, 0, c.Offset())

	buf := make([]byte, 4)
	assert.Equal(t, 2, c.ReadN(buf))
	assert.Equal(t, "ab", string(buf[:2]))

	_, ok = c.Next()
	assert.False(t, ok, "end sentinel")
	_, ok = c.Peek()
	assert.False(t, ok)
}

func TestReaderCursor(t *testing.T) {
	c := NewReaderCursor(strings.NewReader("xyz"))

	u, ok := c.Next()
	require.True(t, ok)
	assert.Equal(t, byte('x'), u)
	assert.True(t, c.Unread())
	assert.EqualValues(t, 0, c.Offset())

	buf := make([]byte, 2)
	assert.Equal(t, 2, c.ReadN(buf))
	assert.Equal(t, "xy", string(buf))

	u, ok = c.Peek()
	require.True(t, ok)
	assert.Equal(t, byte('z'), u)
	c.Next()

	_, ok = c.Next()
	assert.False(t, ok)
	assert.NoError(t, c.Err())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestReaderCursor_Error(t *testing.T) {
	c := NewReaderCursor(failingReader{})
	_, ok := c.Next()
	assert.False(t, ok)
	assert.EqualError(t, c.Err(), "boom")
}

// ============================================================
// Sink Tests
// ============================================================

func TestLimitSink(t *testing.T) {
	inner := NewSliceSink[byte](0)
	s := &LimitSink[byte]{S: inner, Limit: 3}

	assert.True(t, s.Put('a'))
	assert.True(t, s.Write([]byte("bc")))
	assert.False(t, s.Put('d'))
	assert.False(t, s.Write([]byte("e")))
	assert.Equal(t, "abc", string(inner.Units()))
	assert.Equal(t, 3, s.Written())
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf)
	require.True(t, s.Write([]byte("hello ")))
	require.True(t, s.Put('!'))
	require.NoError(t, s.Flush())
	assert.Equal(t, "hello !", buf.String())
}

// ============================================================
// Decode Tests
// ============================================================

func TestDecodeNext_UTF8(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  rune
		n     int
		valid bool
	}{
		{"ascii", []byte("A"), 'A', 1, true},
		{"two byte", []byte("é"), 'é', 2, true},
		{"three byte", []byte("€"), '€', 3, true},
		{"four byte", []byte("𝄞"), '𝄞', 4, true},
		{"overlong slash", []byte{0xC0, 0xAF}, -1, 2, false},
		{"overlong three", []byte{0xE0, 0x80, 0xAF}, -1, 3, false},
		{"encoded surrogate", []byte{0xED, 0xA0, 0x80}, -1, 3, false},
		{"above max", []byte{0xF4, 0x90, 0x80, 0x80}, -1, 4, false},
		{"stray continuation", []byte{0x80}, -1, 1, false},
		{"truncated", []byte{0xE2, 0x82}, -1, 2, false},
		{"bad lead", []byte{0xFF}, -1, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp, n := DecodeNext[byte](NewSliceCursor(tt.input))
			assert.Equal(t, tt.valid, cp.IsValid())
			assert.Equal(t, tt.want, cp.Rune())
			assert.Equal(t, tt.n, n)
		})
	}
}

func TestDecodeNext_UTF8PushesBackBreakingUnit(t *testing.T) {
	c := NewSliceCursor([]byte{0xE2, 'x'})
	cp, n := DecodeNext[byte](c)
	assert.False(t, cp.IsValid())
	assert.Equal(t, 1, n)

	u, ok := c.Next()
	require.True(t, ok)
	assert.Equal(t, byte('x'), u)
}

func TestDecodeNext_UTF16(t *testing.T) {
	pair := utf16.Encode([]rune{'𝄞'})

	cp, n := DecodeNext[uint16](NewSliceCursor(pair))
	require.True(t, cp.IsValid())
	assert.Equal(t, '𝄞', cp.Rune())
	assert.Equal(t, 2, n)

	cp, n = DecodeNext[uint16](NewSliceCursor([]uint16{'z'}))
	assert.Equal(t, 'z', cp.Rune())
	assert.Equal(t, 1, n)
}

func TestDecodeNext_LoneHighSurrogate(t *testing.T) {
	c := NewSliceCursor([]uint16{0xD834, 'a'})
	cp, n := DecodeNext[uint16](c)
	assert.False(t, cp.IsValid())
	assert.Equal(t, 1, n)

	// the unit that broke the pair is still readable
	cp, _ = DecodeNext[uint16](c)
	assert.Equal(t, 'a', cp.Rune())

	cp, _ = DecodeNext[uint16](NewSliceCursor([]uint16{0xD834}))
	assert.False(t, cp.IsValid(), "high surrogate at end of input")

	cp, _ = DecodeNext[uint16](NewSliceCursor([]uint16{0xDD1E}))
	assert.False(t, cp.IsValid(), "lone low surrogate")
}

func TestDecodeNext_UTF32(t *testing.T) {
	cp, n := DecodeNext[uint32](NewSliceCursor([]uint32{0x1F600}))
	assert.Equal(t, rune(0x1F600), cp.Rune())
	assert.Equal(t, 1, n)

	cp, _ = DecodeNext[uint32](NewSliceCursor([]uint32{0xD800}))
	assert.False(t, cp.IsValid())

	cp, _ = DecodeNext[uint32](NewSliceCursor([]uint32{0x110000}))
	assert.False(t, cp.IsValid())
}

func TestDecodeNext_End(t *testing.T) {
	cp, n := DecodeNext[byte](NewSliceCursor([]byte{}))
	assert.False(t, cp.IsValid())
	assert.Equal(t, 0, n)
}

// ============================================================
// Encode Tests
// ============================================================

func TestEncode_RejectsInvalid(t *testing.T) {
	s := NewSliceSink[byte](0)
	assert.False(t, Encode[byte](0xD800, s))
	assert.False(t, Encode[byte](MaxRune+1, s))
	assert.False(t, Encode[byte](-1, s))
	assert.Zero(t, s.Len())
	assert.False(t, EncodeCodePoint[byte](Invalid(), s))
}

func TestEncode_MatchesStdlib(t *testing.T) {
	for _, r := range []rune{0, 'a', 0x7F, 0x80, 0x7FF, 0x800, 0xFFFD, 0xFFFF, 0x10000, MaxRune} {
		s8 := NewSliceSink[byte](4)
		require.True(t, Encode(r, s8))
		assert.Equal(t, string(r), string(s8.Units()), "rune %U", r)
		assert.Equal(t, len(s8.Units()), EncodedLen[byte](r))

		s16 := NewSliceSink[uint16](2)
		require.True(t, Encode(r, s16))
		assert.Equal(t, utf16.Encode([]rune{r}), s16.Units(), "rune %U", r)
		assert.Equal(t, len(s16.Units()), EncodedLen[uint16](r))
	}
}

// Every valid scalar survives encode then decode at every width.
func TestRoundTrip_AllScalars(t *testing.T) {
	s8 := NewSliceSink[byte](4)
	s16 := NewSliceSink[uint16](2)
	s32 := NewSliceSink[uint32](1)

	for r := rune(0); r <= MaxRune; r++ {
		if !ValidRune(r) {
			continue
		}
		s8.Reset()
		s16.Reset()
		s32.Reset()
		require.True(t, Encode(r, s8))
		require.True(t, Encode(r, s16))
		require.True(t, Encode(r, s32))

		if cp, _ := DecodeNext[byte](NewSliceCursor(s8.Units())); cp.Rune() != r {
			t.Fatalf("utf-8 round trip of %U gave %U", r, cp.Rune())
		}
		if cp, _ := DecodeNext[uint16](NewSliceCursor(s16.Units())); cp.Rune() != r {
			t.Fatalf("utf-16 round trip of %U gave %U", r, cp.Rune())
		}
		if cp, _ := DecodeNext[uint32](NewSliceCursor(s32.Units())); cp.Rune() != r {
			t.Fatalf("utf-32 round trip of %U gave %U", r, cp.Rune())
		}
	}
}

func TestSurrogateHelpers(t *testing.T) {
	hi, lo, ok := SplitSurrogates(0x1D11E)
	require.True(t, ok)
	assert.Equal(t, rune(0xD834), hi)
	assert.Equal(t, rune(0xDD1E), lo)
	assert.Equal(t, rune(0x1D11E), CombineSurrogates(hi, lo).Rune())

	_, _, ok = SplitSurrogates('a')
	assert.False(t, ok)
	assert.False(t, CombineSurrogates(lo, hi).IsValid())
}

func TestTranscode(t *testing.T) {
	dst := NewSliceSink[uint16](0)
	require.True(t, Transcode[byte, uint16](NewStringCursor("héllo 𝄞"), dst))
	assert.Equal(t, "héllo 𝄞", string(utf16.Decode(dst.Units())))

	assert.False(t, Transcode[byte, uint16](NewSliceCursor([]byte{'a', 0xFF}), NewSliceSink[uint16](0)))
}
