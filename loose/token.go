package loose

import (
	"fmt"
	"strings"

	"github.com/owacoder/skate-sub000/numeric"
	"github.com/owacoder/skate-sub000/utf"
)

// Position is a location in the input.
type Position struct {
	Line   int
	Column int
	Offset int
}

// String returns position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// TokenType represents the type of a lexer token.
type TokenType uint8

const (
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenNull    // ∅, null, none, nil
	TokenTrue    // t, true
	TokenFalse   // f, false
	TokenInt     // 123, -456
	TokenFloat   // 1.23, -4.56e7, Infinity, -Infinity, NaN
	TokenString  // "quoted string"
	TokenBareStr // bare_word

	// Structural
	TokenLBrace   // {
	TokenRBrace   // }
	TokenLBracket // [
	TokenRBracket // ]
	TokenEq       // = or :
	TokenComma    // , (optional)
)

// String returns the token type name.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return "ERROR"
	case TokenNull:
		return "NULL"
	case TokenTrue:
		return "TRUE"
	case TokenFalse:
		return "FALSE"
	case TokenInt:
		return "INT"
	case TokenFloat:
		return "FLOAT"
	case TokenString:
		return "STRING"
	case TokenBareStr:
		return "BARESTR"
	case TokenLBrace:
		return "{"
	case TokenRBrace:
		return "}"
	case TokenLBracket:
		return "["
	case TokenRBracket:
		return "]"
	case TokenEq:
		return "="
	case TokenComma:
		return ","
	default:
		return "UNKNOWN"
	}
}

// Token represents a lexer token. Value holds the decoded text of a
// quoted string and the raw text of everything else.
type Token struct {
	Type  TokenType
	Value string
	Pos   Position
}

// String returns a debug representation of the token.
func (t Token) String() string {
	if t.Value == "" {
		return t.Type.String()
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Value)
}

// Lexer tokenizes loose text.
type Lexer struct {
	input string
	pos   int // byte offset
	line  int // 1-based
	col   int // 1-based, in code points
	err   *ParseError
	str   utf.SliceSink[byte]
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

// Tokenize returns all tokens from the input. On error the last token is
// a TokenError and the error is returned.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok := l.nextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}
	if l.err != nil {
		return tokens, l.err
	}
	return tokens, nil
}

func (l *Lexer) nextToken() Token {
	l.skipWhitespaceAndComments()
	if l.err != nil {
		return Token{Type: TokenError, Pos: l.err.Pos}
	}

	startPos := l.currentPos()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: startPos}
	}

	ch := l.peek()
	switch ch {
	case '{':
		l.advance()
		return Token{Type: TokenLBrace, Value: "{", Pos: startPos}
	case '}':
		l.advance()
		return Token{Type: TokenRBrace, Value: "}", Pos: startPos}
	case '[':
		l.advance()
		return Token{Type: TokenLBracket, Value: "[", Pos: startPos}
	case ']':
		l.advance()
		return Token{Type: TokenRBracket, Value: "]", Pos: startPos}
	case '=', ':':
		l.advance()
		return Token{Type: TokenEq, Value: string(ch), Pos: startPos}
	case ',':
		l.advance()
		return Token{Type: TokenComma, Value: ",", Pos: startPos}
	case '"':
		return l.scanString(startPos)
	}

	if strings.HasPrefix(l.input[l.pos:], "∅") {
		l.pos += len("∅")
		l.col++
		return Token{Type: TokenNull, Value: "∅", Pos: startPos}
	}
	if ch == '-' || isDigit(ch) {
		return l.scanNumber(startPos)
	}
	if isBareStart(ch) {
		return l.scanBareOrKeyword(startPos)
	}

	r := l.decodeRune()
	return l.fail(startPos, "unexpected character %q", r)
}

func (l *Lexer) fail(pos Position, format string, args ...any) Token {
	l.err = &ParseError{Message: fmt.Sprintf(format, args...), Pos: pos}
	return Token{Type: TokenError, Pos: pos}
}

// scanString reads a quoted string with the JSON escape set. The token
// value is the decoded text.
func (l *Lexer) scanString(startPos Position) Token {
	l.advance() // opening quote
	l.str.Reset()
	for {
		if l.pos >= len(l.input) {
			return l.fail(startPos, "unterminated string")
		}
		ch := l.peek()
		switch {
		case ch == '"':
			l.advance()
			return Token{Type: TokenString, Value: string(l.str.Units()), Pos: startPos}
		case ch == '\\':
			escPos := l.currentPos()
			l.advance()
			if err := l.scanEscape(escPos); err != nil {
				return Token{Type: TokenError, Pos: escPos}
			}
		case ch == '\n':
			return l.fail(startPos, "unterminated string")
		case ch < 0x20:
			return l.fail(l.currentPos(), "control character %#x in string", ch)
		case ch < 0x80:
			l.str.Put(ch)
			l.advance()
		default:
			pos := l.currentPos()
			c := utf.NewStringCursor(l.input[l.pos:])
			cp, n := utf.DecodeNext(c)
			if !cp.IsValid() {
				return l.fail(pos, "invalid UTF-8 in string")
			}
			utf.Encode(cp.Rune(), &l.str)
			l.pos += n
			l.col++
		}
	}
}

func (l *Lexer) scanEscape(pos Position) *ParseError {
	if l.pos >= len(l.input) {
		l.fail(pos, "unterminated string")
		return l.err
	}
	ch := l.advance()
	switch ch {
	case '"', '\\', '/':
		l.str.Put(ch)
	case 'b':
		l.str.Put('\b')
	case 'f':
		l.str.Put('\f')
	case 'n':
		l.str.Put('\n')
	case 'r':
		l.str.Put('\r')
	case 't':
		l.str.Put('\t')
	case 'u':
		r, ok := l.hex4()
		if !ok {
			l.fail(pos, "invalid \\u escape")
			return l.err
		}
		if utf.IsLowSurrogate(r) {
			l.fail(pos, "unpaired low surrogate \\u%04X", r)
			return l.err
		}
		if utf.IsHighSurrogate(r) {
			if !strings.HasPrefix(l.input[l.pos:], `\u`) {
				l.fail(pos, "unpaired high surrogate \\u%04X", r)
				return l.err
			}
			l.advance()
			l.advance()
			lo, ok := l.hex4()
			cp := utf.CombineSurrogates(r, lo)
			if !ok || !cp.IsValid() {
				l.fail(pos, "unpaired high surrogate \\u%04X", r)
				return l.err
			}
			r = cp.Rune()
		}
		utf.Encode(r, &l.str)
	default:
		l.fail(pos, "invalid escape character %q", rune(ch))
		return l.err
	}
	return nil
}

func (l *Lexer) hex4() (rune, bool) {
	if l.pos+4 > len(l.input) || l.input[l.pos] == '+' || l.input[l.pos] == '-' {
		return 0, false
	}
	c := utf.NewStringCursor(l.input[l.pos : l.pos+4])
	r, ok := numeric.ParseInt[uint16](c, 16)
	if !ok || c.Offset() != 4 {
		return 0, false
	}
	l.pos += 4
	l.col += 4
	return rune(r), true
}

// scanNumber reads -?digits(.digits)?([eE][+-]?digits)? or -Infinity.
// Validation of the digits happens in the parser.
func (l *Lexer) scanNumber(startPos Position) Token {
	start := l.pos
	if l.peek() == '-' {
		l.advance()
		if strings.HasPrefix(l.input[l.pos:], numeric.InfinityToken) {
			l.pos += len(numeric.InfinityToken)
			l.col += len(numeric.InfinityToken)
			return Token{Type: TokenFloat, Value: l.input[start:l.pos], Pos: startPos}
		}
	}
	if !l.digits() {
		return l.fail(startPos, "invalid number %q", l.input[start:l.pos])
	}

	typ := TokenInt
	if l.pos < len(l.input) && l.peek() == '.' {
		typ = TokenFloat
		l.advance()
		if !l.digits() {
			return l.fail(startPos, "invalid number %q", l.input[start:l.pos])
		}
	}
	if l.pos < len(l.input) && (l.peek() == 'e' || l.peek() == 'E') {
		typ = TokenFloat
		l.advance()
		if l.pos < len(l.input) && (l.peek() == '+' || l.peek() == '-') {
			l.advance()
		}
		if !l.digits() {
			return l.fail(startPos, "invalid number %q", l.input[start:l.pos])
		}
	}
	if l.pos < len(l.input) && isBareChar(l.peek()) {
		return l.fail(startPos, "invalid number %q", l.input[start:l.pos+1])
	}
	return Token{Type: typ, Value: l.input[start:l.pos], Pos: startPos}
}

func (l *Lexer) digits() bool {
	n := 0
	for l.pos < len(l.input) && isDigit(l.peek()) {
		l.advance()
		n++
	}
	return n > 0
}

func (l *Lexer) scanBareOrKeyword(startPos Position) Token {
	start := l.pos
	for l.pos < len(l.input) && isBareChar(l.peek()) {
		l.advance()
	}
	word := l.input[start:l.pos]

	switch word {
	case "null", "none", "nil":
		return Token{Type: TokenNull, Value: word, Pos: startPos}
	case "true", "t":
		return Token{Type: TokenTrue, Value: word, Pos: startPos}
	case "false", "f":
		return Token{Type: TokenFalse, Value: word, Pos: startPos}
	case numeric.InfinityToken, numeric.NaNToken:
		return Token{Type: TokenFloat, Value: word, Pos: startPos}
	}
	return Token{Type: TokenBareStr, Value: word, Pos: startPos}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		ch := l.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance()
		case ch == '/' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '/':
			for l.pos < len(l.input) && l.peek() != '\n' {
				l.decodeRune()
			}
		default:
			return
		}
	}
}

func (l *Lexer) peek() byte {
	return l.input[l.pos]
}

// advance consumes one ASCII byte.
func (l *Lexer) advance() byte {
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

// decodeRune consumes one code point, or one byte of malformed input.
func (l *Lexer) decodeRune() rune {
	c := utf.NewStringCursor(l.input[l.pos:])
	cp, n := utf.DecodeNext(c)
	if n == 0 {
		n = 1
	}
	if l.input[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos += n
	if !cp.IsValid() {
		return 0xFFFD
	}
	return cp.Rune()
}

func (l *Lexer) currentPos() Position {
	return Position{Line: l.line, Column: l.col, Offset: l.pos}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isBareStart(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_'
}

func isBareChar(ch byte) bool {
	return isBareStart(ch) || isDigit(ch) || ch == '-' || ch == '.' || ch == '/'
}

// isBareSafe reports whether s can be written without quotes and read
// back as the same string: [A-Za-z_][A-Za-z0-9_\-./]* and not a keyword.
func isBareSafe(s string) bool {
	if s == "" || !isBareStart(s[0]) {
		return false
	}
	switch s {
	case "t", "f", "true", "false", "null", "none", "nil",
		numeric.InfinityToken, numeric.NaNToken:
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isBareChar(s[i]) {
			return false
		}
	}
	return true
}

// ============================================================
// Token Stream
// ============================================================

// TokenStream provides lookahead over a token slice.
type TokenStream struct {
	tokens []Token
	pos    int
}

// NewTokenStream creates a token stream. The slice must end with an EOF
// or error token.
func NewTokenStream(tokens []Token) *TokenStream {
	return &TokenStream{tokens: tokens}
}

// Peek returns the current token without consuming it.
func (ts *TokenStream) Peek() Token {
	if ts.pos >= len(ts.tokens) {
		return ts.tokens[len(ts.tokens)-1]
	}
	return ts.tokens[ts.pos]
}

// PeekN returns the token n positions ahead.
func (ts *TokenStream) PeekN(n int) Token {
	if ts.pos+n >= len(ts.tokens) {
		return ts.tokens[len(ts.tokens)-1]
	}
	return ts.tokens[ts.pos+n]
}

// Advance consumes and returns the current token.
func (ts *TokenStream) Advance() Token {
	tok := ts.Peek()
	if ts.pos < len(ts.tokens) {
		ts.pos++
	}
	return tok
}

// Match consumes the current token if it has type t.
func (ts *TokenStream) Match(t TokenType) bool {
	if ts.Peek().Type == t {
		ts.pos++
		return true
	}
	return false
}

// AtEnd reports whether only EOF remains.
func (ts *TokenStream) AtEnd() bool {
	return ts.Peek().Type == TokenEOF
}
