package numeric

import (
	"math"
	"strconv"
	"testing"

	"github.com/owacoder/skate-sub000/utf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cursor(s string) *utf.SliceCursor[byte] {
	return utf.NewStringCursor(s)
}

// ============================================================
// ParseInt Tests
// ============================================================

func TestParseInt_Int64Bounds(t *testing.T) {
	v, ok := ParseInt[int64](cursor("9223372036854775807"), 10)
	require.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64), v)

	v, ok = ParseInt[int64](cursor("-9223372036854775808"), 10)
	require.True(t, ok)
	assert.Equal(t, int64(math.MinInt64), v)

	_, ok = ParseInt[int64](cursor("9223372036854775808"), 10)
	assert.False(t, ok, "one past the signed maximum")

	_, ok = ParseInt[int64](cursor("-9223372036854775809"), 10)
	assert.False(t, ok)
}

func TestParseInt_Uint64(t *testing.T) {
	v, ok := ParseInt[uint64](cursor("9223372036854775808"), 10)
	require.True(t, ok)
	assert.Equal(t, uint64(1)<<63, v)

	v, ok = ParseInt[uint64](cursor("18446744073709551615"), 10)
	require.True(t, ok)
	assert.Equal(t, uint64(math.MaxUint64), v)

	_, ok = ParseInt[uint64](cursor("18446744073709551616"), 10)
	assert.False(t, ok)

	_, ok = ParseInt[uint64](cursor("-1"), 10)
	assert.False(t, ok)

	v, ok = ParseInt[uint64](cursor("-0"), 10)
	require.True(t, ok)
	assert.Zero(t, v)
}

func TestParseInt_NarrowTypes(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"127", true},
		{"128", false},
		{"-128", true},
		{"-129", false},
		{"0", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, ok := ParseInt[int8](cursor(tt.input), 10)
			assert.Equal(t, tt.ok, ok)
			if ok {
				want, _ := strconv.ParseInt(tt.input, 10, 8)
				assert.Equal(t, int8(want), v)
			}
		})
	}

	u, ok := ParseInt[uint8](cursor("255"), 10)
	require.True(t, ok)
	assert.Equal(t, uint8(255), u)
	_, ok = ParseInt[uint8](cursor("256"), 10)
	assert.False(t, ok)
}

func TestParseInt_StopsAtNonDigit(t *testing.T) {
	c := cursor("42,")
	v, ok := ParseInt[int](c, 10)
	require.True(t, ok)
	assert.Equal(t, 42, v)
	u, _ := c.Peek()
	assert.Equal(t, byte(','), u)
}

func TestParseInt_NoDigits(t *testing.T) {
	for _, input := range []string{"", "-", "+", "x"} {
		_, ok := ParseInt[int](cursor(input), 10)
		assert.False(t, ok, "input %q", input)
	}
}

func TestParseInt_Bases(t *testing.T) {
	v, ok := ParseInt[uint32](cursor("ffFF"), 16)
	require.True(t, ok)
	assert.Equal(t, uint32(0xFFFF), v)

	b, ok := ParseInt[int](cursor("-1010"), 2)
	require.True(t, ok)
	assert.Equal(t, -10, b)

	_, ok = ParseInt[int](cursor("1"), 1)
	assert.False(t, ok)
}

func TestParseInt_UTF16Cursor(t *testing.T) {
	v, ok := ParseInt[int32](utf.NewSliceCursor([]uint16{'-', '1', '2'}), 10)
	require.True(t, ok)
	assert.Equal(t, int32(-12), v)
}

// ============================================================
// ParseFloat Tests
// ============================================================

func TestParseFloat(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"0", 0},
		{"0.1", 0.1},
		{"-2.5e10", -2.5e10},
		{"1E-7", 1e-7},
		{".5", 0.5},
		{"5.", 5},
		{"+3", 3},
		{"1e-400", 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, ok := ParseFloat[float64](cursor(tt.input), Format{})
			require.True(t, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestParseFloat_Failures(t *testing.T) {
	for _, input := range []string{"", "-", ".", "1e", "1e+", "1e999", "-1e999", "Infinity", "NaN"} {
		_, ok := ParseFloat[float64](cursor(input), Format{})
		assert.False(t, ok, "input %q", input)
	}

	_, ok := ParseFloat[float32](cursor("1e39"), Format{})
	assert.False(t, ok, "float32 overflow")
}

func TestParseFloat_NonFinite(t *testing.T) {
	f := Format{AllowNonFinite: true}

	v, ok := ParseFloat[float64](cursor("Infinity"), f)
	require.True(t, ok)
	assert.True(t, math.IsInf(v, 1))

	v, ok = ParseFloat[float64](cursor("-Infinity"), f)
	require.True(t, ok)
	assert.True(t, math.IsInf(v, -1))

	v, ok = ParseFloat[float64](cursor("NaN"), f)
	require.True(t, ok)
	assert.True(t, math.IsNaN(v))

	for _, input := range []string{"Inf", "-NaN", "Infinite", "Nope"} {
		_, ok := ParseFloat[float64](cursor(input), f)
		assert.False(t, ok, "input %q", input)
	}
}

// ============================================================
// Format Tests
// ============================================================

func TestAppendFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.1, "0.1"},
		{0, "0"},
		{-1.5, "-1.5"},
		{100, "100"},
		{1e21, "1e+21"},
		{1e-7, "1e-7"},
		{123456789.125, "123456789.125"},
		{math.MaxFloat64, "1.7976931348623157e+308"},
		{math.SmallestNonzeroFloat64, "5e-324"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, string(AppendFloat(nil, tt.in)))
	}
	assert.Equal(t, "0.1", string(AppendFloat(nil, float32(0.1))))
}

func TestFormatFloat_RoundTrip(t *testing.T) {
	values := []float64{0.1, 1.0 / 3, -0.0, 5e-324, 1e300, 2.2250738585072014e-308, 9007199254740993}
	for _, v := range values {
		s := utf.NewSliceSink[byte](0)
		require.True(t, FormatFloat(s, v, Format{}))

		got, ok := ParseFloat[float64](cursor(string(s.Units())), Format{})
		require.True(t, ok, "parse %q", s.Units())
		assert.Equal(t, math.Float64bits(v), math.Float64bits(got), "round trip of %v via %q", v, s.Units())
	}
}

func TestFormatFloat_NonFinite(t *testing.T) {
	s := utf.NewSliceSink[byte](0)
	assert.False(t, FormatFloat(s, math.NaN(), Format{}))
	assert.Zero(t, s.Len())

	assert.True(t, FormatFloat(s, math.Inf(1), Format{AllowNonFinite: true}))
	assert.Equal(t, "Infinity", string(s.Units()))
}

func TestFormatInt(t *testing.T) {
	s := utf.NewSliceSink[uint16](0)
	require.True(t, FormatInt(s, int64(math.MinInt64), 10))
	got := make([]byte, 0, s.Len())
	for _, u := range s.Units() {
		got = append(got, byte(u))
	}
	assert.Equal(t, "-9223372036854775808", string(got))

	b := utf.NewSliceSink[byte](0)
	require.True(t, FormatInt(b, uint64(math.MaxUint64), 16))
	assert.Equal(t, "ffffffffffffffff", string(b.Units()))

	failing := &utf.LimitSink[byte]{S: utf.NewSliceSink[byte](0), Limit: 2}
	assert.False(t, FormatInt(failing, 12345, 10))
}
