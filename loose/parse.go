package loose

import (
	"fmt"
	"math"

	"github.com/owacoder/skate-sub000/numeric"
	"github.com/owacoder/skate-sub000/utf"
	"github.com/owacoder/skate-sub000/value"
)

// DefaultMaxDepth is the nesting limit used when ParseOptions.MaxDepth is
// zero.
const DefaultMaxDepth = 512

// ParseError describes malformed input.
type ParseError struct {
	Message string
	Pos     Position
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("loose: %s at %s", e.Message, e.Pos)
}

// ParseOptions configures the parser.
type ParseOptions struct {
	// MaxDepth limits container nesting (default DefaultMaxDepth).
	MaxDepth int
}

// DefaultParseOptions returns sensible defaults.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{MaxDepth: DefaultMaxDepth}
}

func (o ParseOptions) limit() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// Parse parses loose text into a Value.
func Parse(input string) (value.Value, error) {
	return ParseWithOptions(input, DefaultParseOptions())
}

// ParseWithOptions parses loose text with custom options. A document whose
// first token is a key followed by '=' or ':' is an object with the outer
// braces omitted. On error the returned Value is Null.
func ParseWithOptions(input string, opts ParseOptions) (value.Value, error) {
	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		return value.Null(), err
	}
	p := &Parser{stream: NewTokenStream(tokens), limit: opts.limit()}

	var v value.Value
	if p.bareObject() {
		v = p.parseMembers(TokenEOF, 1, p.stream.Peek().Pos)
	} else {
		v = p.parseValue(0)
		if p.err == nil && !p.stream.AtEnd() {
			tok := p.stream.Peek()
			p.addError(tok.Pos, "unexpected %s after top-level value", tok.Type)
		}
	}
	if p.err != nil {
		return value.Null(), p.err
	}
	return v, nil
}

// Parser turns a token stream into a Value. The first error stops it.
type Parser struct {
	stream *TokenStream
	limit  int
	err    *ParseError
}

func (p *Parser) bareObject() bool {
	return isKeyToken(p.stream.Peek().Type) && p.stream.PeekN(1).Type == TokenEq
}

func (p *Parser) parseValue(depth int) value.Value {
	tok := p.stream.Peek()

	switch tok.Type {
	case TokenNull:
		p.stream.Advance()
		return value.Null()
	case TokenTrue:
		p.stream.Advance()
		return value.Bool(true)
	case TokenFalse:
		p.stream.Advance()
		return value.Bool(false)
	case TokenInt:
		p.stream.Advance()
		return p.parseInt(tok)
	case TokenFloat:
		p.stream.Advance()
		return p.parseFloat(tok)
	case TokenString, TokenBareStr:
		p.stream.Advance()
		return value.Str(tok.Value)
	case TokenLBracket:
		return p.parseList(depth)
	case TokenLBrace:
		if !p.enter(tok, depth) {
			return value.Null()
		}
		p.stream.Advance()
		return p.parseMembers(TokenRBrace, depth+1, tok.Pos)
	case TokenEOF:
		p.addError(tok.Pos, "unexpected end of input")
	default:
		p.addError(tok.Pos, "unexpected %s", tok.Type)
	}
	return value.Null()
}

// parseInt tries Int, then Uint, then falls back to Float when the literal
// overflows both.
func (p *Parser) parseInt(tok Token) value.Value {
	if i, ok := parseWhole[int64](tok.Value); ok {
		return value.Int(i)
	}
	if u, ok := parseWhole[uint64](tok.Value); ok {
		return value.Uint(u)
	}
	return p.parseFloat(tok)
}

func parseWhole[T numeric.Integer](lit string) (T, bool) {
	c := utf.NewStringCursor(lit)
	v, ok := numeric.ParseInt[T](c, 10)
	return v, ok && int(c.Offset()) == len(lit)
}

func (p *Parser) parseFloat(tok Token) value.Value {
	switch tok.Value {
	case numeric.InfinityToken:
		return value.Float(math.Inf(1))
	case "-" + numeric.InfinityToken:
		return value.Float(math.Inf(-1))
	case numeric.NaNToken:
		return value.Float(math.NaN())
	}
	f, ok := numeric.ParseFloatLiteral[float64]([]byte(tok.Value))
	if !ok {
		p.addError(tok.Pos, "number %s out of range", tok.Value)
		return value.Null()
	}
	return value.Float(f)
}

func (p *Parser) enter(tok Token, depth int) bool {
	if depth >= p.limit {
		p.addError(tok.Pos, "nesting exceeds %d levels", p.limit)
		return false
	}
	return true
}

// parseList parses a list: [a b c] or [a, b, c]
func (p *Parser) parseList(depth int) value.Value {
	open := p.stream.Peek()
	if !p.enter(open, depth) {
		return value.Null()
	}
	p.stream.Advance() // consume [

	list := value.Array()
	elems := list.MutArray()
	for p.err == nil {
		tok := p.stream.Peek()

		switch tok.Type {
		case TokenRBracket:
			p.stream.Advance()
			return list
		case TokenEOF:
			p.addError(open.Pos, "unterminated list")
			return value.Null()
		case TokenComma:
			// Skip optional commas
			p.stream.Advance()
			continue
		}

		*elems = append(*elems, p.parseValue(depth+1))
	}
	return value.Null()
}

// parseMembers parses key/value pairs up to the closing token: {k:v k2:v2}
// or {k=v, k2=v2}. Duplicate keys keep the last value.
func (p *Parser) parseMembers(closing TokenType, depth int, open Position) value.Value {
	m := value.Map()
	obj := m.MutObject()
	for p.err == nil {
		tok := p.stream.Peek()

		switch {
		case tok.Type == closing:
			p.stream.Advance()
			return m
		case tok.Type == TokenEOF:
			p.addError(open, "unterminated map")
			return value.Null()
		case tok.Type == TokenComma:
			p.stream.Advance()
			continue
		case !isKeyToken(tok.Type):
			p.addError(tok.Pos, "expected key, got %s", tok.Type)
			return value.Null()
		}
		p.stream.Advance()

		if !p.stream.Match(TokenEq) {
			p.addError(p.stream.Peek().Pos, "expected = or : after key %q", tok.Value)
			return value.Null()
		}
		v := p.parseValue(depth)
		obj.Set(tok.Value, v)
	}
	return value.Null()
}

// isKeyToken reports whether a token can name a map entry. Keywords used
// as keys keep their spelling.
func isKeyToken(t TokenType) bool {
	switch t {
	case TokenString, TokenBareStr, TokenNull, TokenTrue, TokenFalse:
		return true
	}
	return false
}

func (p *Parser) addError(pos Position, format string, args ...any) {
	if p.err != nil {
		return
	}
	p.err = &ParseError{Message: fmt.Sprintf(format, args...), Pos: pos}
}
