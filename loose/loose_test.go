package loose

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owacoder/skate-sub000/value"
)

// ============================================================
// Lexer Tests
// ============================================================

func TestLexer_BasicTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenType
	}{
		{"123", []TokenType{TokenInt, TokenEOF}},
		{"-456", []TokenType{TokenInt, TokenEOF}},
		{"3.14", []TokenType{TokenFloat, TokenEOF}},
		{"-2.5e10", []TokenType{TokenFloat, TokenEOF}},
		{"Infinity", []TokenType{TokenFloat, TokenEOF}},
		{"-Infinity", []TokenType{TokenFloat, TokenEOF}},
		{"NaN", []TokenType{TokenFloat, TokenEOF}},
		{"true", []TokenType{TokenTrue, TokenEOF}},
		{"false", []TokenType{TokenFalse, TokenEOF}},
		{"t", []TokenType{TokenTrue, TokenEOF}},
		{"f", []TokenType{TokenFalse, TokenEOF}},
		{"null", []TokenType{TokenNull, TokenEOF}},
		{"none", []TokenType{TokenNull, TokenEOF}},
		{"nil", []TokenType{TokenNull, TokenEOF}},
		{"∅", []TokenType{TokenNull, TokenEOF}},
		{`"hello"`, []TokenType{TokenString, TokenEOF}},
		{"hello_world", []TokenType{TokenBareStr, TokenEOF}},
		{"a/b.c-d", []TokenType{TokenBareStr, TokenEOF}},
		{"{}", []TokenType{TokenLBrace, TokenRBrace, TokenEOF}},
		{"[]", []TokenType{TokenLBracket, TokenRBracket, TokenEOF}},
		{"=", []TokenType{TokenEq, TokenEOF}},
		{":", []TokenType{TokenEq, TokenEOF}},
		{",", []TokenType{TokenComma, TokenEOF}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := NewLexer(tt.input).Tokenize()
			require.NoError(t, err)
			require.Len(t, tokens, len(tt.expected))
			for i, tok := range tokens {
				assert.Equal(t, tt.expected[i], tok.Type, "token %d", i)
			}
		})
	}
}

func TestLexer_Positions(t *testing.T) {
	tokens, err := NewLexer("a = 1\n  // note ∅\n  b: \"x\"").Tokenize()
	require.NoError(t, err)

	require.Len(t, tokens, 7)
	assert.Equal(t, Position{Line: 1, Column: 1, Offset: 0}, tokens[0].Pos)
	assert.Equal(t, Position{Line: 1, Column: 5, Offset: 4}, tokens[2].Pos)
	assert.Equal(t, Position{Line: 3, Column: 3, Offset: 22}, tokens[3].Pos)
	assert.Equal(t, "x", tokens[5].Value)

	// é is not a bare word; it is reported at its position
	_, err = NewLexer("a = 1\n  é").Tokenize()
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "2:3", pe.Pos.String())
}

func TestLexer_StringEscapes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"plain"`, "plain"},
		{`"a\"b\\c\/d"`, `a"b\c/d`},
		{`"\b\f\n\r\t"`, "\b\f\n\r\t"},
		{`"éé"`, "éé"},
		{`"😀"`, "😀"},
		{`"héllo 😀"`, "héllo 😀"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := NewLexer(tt.input).Tokenize()
			require.NoError(t, err)
			assert.Equal(t, TokenString, tokens[0].Type)
			assert.Equal(t, tt.want, tokens[0].Value)
		})
	}
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"unterminated", `"abc`, "unterminated string"},
		{"newline in string", "\"ab\ncd\"", "unterminated string"},
		{"lone high surrogate", `"\ud83d"`, `unpaired high surrogate \uD83D`},
		{"lone low surrogate", `"\ude00"`, `unpaired low surrogate \uDE00`},
		{"bad escape", `"\q"`, `invalid escape character 'q'`},
		{"short hex", `"\u12"`, `invalid \u escape`},
		{"signed hex", `"\u+123"`, `invalid \u escape`},
		{"bad number", "12ab", `invalid number "12a"`},
		{"lone minus", "-", `invalid number "-"`},
		{"bad fraction", "1.", `invalid number "1."`},
		{"bad exponent", "1e", `invalid number "1e"`},
		{"unexpected", "@", "unexpected character '@'"},
		{"invalid utf8", "\"\xff\"", "invalid UTF-8 in string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := NewLexer(tt.input).Tokenize()
			require.Error(t, err)
			assert.Equal(t, TokenError, tokens[len(tokens)-1].Type)
			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.msg, pe.Message)
		})
	}
}

// ============================================================
// Parser Tests
// ============================================================

func TestParse_Scalars(t *testing.T) {
	tests := []struct {
		input string
		want  value.Value
	}{
		{"null", value.Null()},
		{"∅", value.Null()},
		{"t", value.Bool(true)},
		{"false", value.Bool(false)},
		{"42", value.Int(42)},
		{"-7", value.Int(-7)},
		{"2.5", value.Float(2.5)},
		{"1e3", value.Float(1000)},
		{"hello", value.Str("hello")},
		{`"two words"`, value.Str("two words")},
		{"Infinity", value.Float(math.Inf(1))},
		{"-Infinity", value.Float(math.Inf(-1))},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Kind(), got.Kind())
			assert.True(t, value.Equal(tt.want, got), "got %v", got)
		})
	}

	nan, err := Parse("NaN")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(nan.GetFloat(0)))
}

func TestParse_IntegerOverflowFallsBackToFloat(t *testing.T) {
	tests := []struct {
		input string
		kind  value.Kind
	}{
		{"9223372036854775807", value.KindInt},
		{"-9223372036854775808", value.KindInt},
		{"9223372036854775808", value.KindUint},
		{"18446744073709551615", value.KindUint},
		{"18446744073709551616", value.KindFloat},
		{"-9223372036854775809", value.KindFloat},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, got.Kind())
		})
	}

	got, err := Parse("18446744073709551616")
	require.NoError(t, err)
	assert.Equal(t, 18446744073709551616.0, got.GetFloat(0))

	_, err = Parse("1e400")
	assert.ErrorContains(t, err, "out of range")
}

func TestParse_Containers(t *testing.T) {
	input := `{
		// service settings
		name = server-1
		ports: [80, 443 8080]
		tls = {cert: "/etc/cert.pem", verify: t}
		tags = []
		extra: {}
	}`
	got, err := Parse(input)
	require.NoError(t, err)

	want := value.Map(
		value.Entry("name", value.Str("server-1")),
		value.Entry("ports", value.Array(value.Int(80), value.Int(443), value.Int(8080))),
		value.Entry("tls", value.Map(
			value.Entry("cert", value.Str("/etc/cert.pem")),
			value.Entry("verify", value.Bool(true)),
		)),
		value.Entry("tags", value.Array()),
		value.Entry("extra", value.Map()),
	)
	assert.True(t, value.Equal(want, got), "got %v", got)
}

func TestParse_BareTopLevelObject(t *testing.T) {
	got, err := Parse("a = 1\nb: [x y]\n\"c d\" = null\n")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":["x","y"],"c d":null}`, got.String())

	// keywords keep their spelling as keys
	got, err = Parse("{t: 1, null: 2}")
	require.NoError(t, err)
	assert.Equal(t, []string{"null", "t"}, got.Obj().Keys())
}

func TestParse_DuplicateKeysLastWins(t *testing.T) {
	got, err := Parse("{a: 1 a: 2}")
	require.NoError(t, err)
	v, ok := got.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, int64(2), v.GetInt(0))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		err   string
	}{
		{"empty", "", "loose: unexpected end of input at 1:1"},
		{"unterminated list", "[1 2", "loose: unterminated list at 1:1"},
		{"unterminated map", "{a: 1\n b: 2", "loose: unterminated map at 1:1"},
		{"missing eq", "{a 1}", `loose: expected = or : after key "a" at 1:4`},
		{"bad key", "{1: 2}", "loose: expected key, got INT at 1:2"},
		{"stray close", "[1]]", "loose: unexpected ] after top-level value at 1:4"},
		{"lexer error", "{a: 1\n  b: @}", "loose: unexpected character '@' at 2:6"},
		{"bare object missing value", "a =", "loose: unexpected end of input at 1:4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.Error(t, err)
			assert.EqualError(t, err, tt.err)
			assert.True(t, got.IsNull())
		})
	}
}

func TestParse_DepthLimit(t *testing.T) {
	const limit = 3
	opts := ParseOptions{MaxDepth: limit}

	_, err := ParseWithOptions("[[[1]]]", opts)
	require.NoError(t, err)
	_, err = ParseWithOptions("{a: {b: [1]}}", opts)
	require.NoError(t, err)

	_, err = ParseWithOptions("[[[[1]]]]", opts)
	assert.ErrorContains(t, err, "nesting exceeds 3 levels at 1:4")
	_, err = ParseWithOptions("a = {b: [[1]]}", opts)
	assert.ErrorContains(t, err, "nesting exceeds 3 levels")

	deep := strings.Repeat("[", DefaultMaxDepth+1) + strings.Repeat("]", DefaultMaxDepth+1)
	_, err = Parse(deep)
	assert.ErrorContains(t, err, "nesting exceeds 512 levels")
}

// ============================================================
// Emitter Tests
// ============================================================

func sample() value.Value {
	return value.Map(
		value.Entry("a", value.Int(1)),
		value.Entry("b", value.Array(value.Int(1), value.Float(2.5), value.Str("x y"))),
		value.Entry("c", value.Null()),
		value.Entry("d", value.Bool(true)),
	)
}

func TestEmit_Modes(t *testing.T) {
	assert.Equal(t, `{a: 1, b: [1, 2.5, "x y"], c: null, d: true}`, Emit(sample()))
	assert.Equal(t, `{a=1 b=[1 2.5 "x y"] c=∅ d=t}`, EmitCompact(sample()))

	v := value.Map(
		value.Entry("a", value.Array(value.Int(1))),
		value.Entry("b", value.Map()),
	)
	assert.Equal(t, "{\n  a: [\n    1\n  ]\n  b: {}\n}", EmitWithOptions(v, PrettyEmitOptions()))
	assert.Equal(t, "{\n\ta: [\n\t\t1\n\t]\n\tb: {}\n}", EmitWithOptions(v, EmitOptions{Pretty: true, Indent: "\t"}))
}

func TestEmit_Floats(t *testing.T) {
	tests := []struct {
		f    float64
		want string
	}{
		{3, "3.0"},
		{0.1, "0.1"},
		{-2.5, "-2.5"},
		{1e21, "1e+21"},
		{1e-7, "1e-7"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{math.NaN(), "NaN"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Emit(value.Float(tt.f)))
		})
	}
}

func TestEmit_Strings(t *testing.T) {
	tests := []struct {
		s    string
		want string
	}{
		{"server-1", "server-1"},
		{"a/b.c", "a/b.c"},
		{"_x", "_x"},
		{"", `""`},
		{"t", `"t"`},
		{"null", `"null"`},
		{"Infinity", `"Infinity"`},
		{"NaN", `"NaN"`},
		{"1abc", `"1abc"`},
		{"/etc", `"/etc"`},
		{"a b", `"a b"`},
		{"é", `"é"`},
		{"q\"\\\n\t\x01", `"q\"\\\n\t\u0001"`},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Emit(value.Str(tt.s)))
		})
	}
}

func TestEmit_RoundTrip(t *testing.T) {
	values := []value.Value{
		sample(),
		value.Array(),
		value.Map(),
		value.Uint(math.MaxUint64),
		value.Int(math.MinInt64),
		value.Float(math.Inf(-1)),
		value.Float(3),
		value.Map(
			value.Entry("", value.Str("empty key")),
			value.Entry("nil", value.Str("none")),
			value.Entry("😀", value.Array(value.Str("f"), value.Str("∅"), value.Str("q\"\\\n\x7f"))),
		),
	}
	for _, opts := range []EmitOptions{DefaultEmitOptions(), CompactEmitOptions(), PrettyEmitOptions()} {
		for _, v := range values {
			text := EmitWithOptions(v, opts)
			got, err := Parse(text)
			require.NoError(t, err, "text %s", text)
			assert.True(t, value.Equal(v, got), "text %s", text)
			assert.Equal(t, v.Kind(), got.Kind())
		}
	}
}

func TestCanonicalAndFingerprint(t *testing.T) {
	v := value.Map(
		value.Entry("b", value.Array(value.Bool(true), value.Null())),
		value.Entry("a", value.Int(1)),
	)
	assert.Equal(t, "{a=1 b=[t ∅]}", Canonical(v))
	assert.Equal(t, "0246f85f8e66789c", Fingerprint(v))

	same, err := Parse("b: [true, null]\na: 1")
	require.NoError(t, err)
	assert.Equal(t, Fingerprint(v), Fingerprint(same))

	assert.NotEqual(t, Fingerprint(v), Fingerprint(value.Map(value.Entry("a", value.Float(1)))))
	assert.Len(t, Fingerprint(value.Null()), 16)
}
