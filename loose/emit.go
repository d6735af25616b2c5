package loose

import (
	"strings"

	"github.com/owacoder/skate-sub000/numeric"
	"github.com/owacoder/skate-sub000/value"
)

// EmitOptions configures the emitter.
type EmitOptions struct {
	// Compact removes optional whitespace and uses the short keywords
	// t, f and ∅.
	Compact bool

	// Pretty puts each element on its own line.
	Pretty bool

	// Indent string for pretty mode (default: "  ")
	Indent string
}

// DefaultEmitOptions returns sensible defaults.
func DefaultEmitOptions() EmitOptions {
	return EmitOptions{Indent: "  "}
}

// CompactEmitOptions returns options for minimal output.
func CompactEmitOptions() EmitOptions {
	return EmitOptions{Compact: true}
}

// PrettyEmitOptions returns options for indented output.
func PrettyEmitOptions() EmitOptions {
	return EmitOptions{Pretty: true, Indent: "  "}
}

// Emit converts a Value to loose text.
func Emit(v value.Value) string {
	return EmitWithOptions(v, DefaultEmitOptions())
}

// EmitCompact converts a Value to compact loose text.
func EmitCompact(v value.Value) string {
	return EmitWithOptions(v, CompactEmitOptions())
}

// EmitWithOptions converts a Value with custom options. Object members
// are written in key order.
func EmitWithOptions(v value.Value, opts EmitOptions) string {
	if opts.Pretty && opts.Indent == "" {
		opts.Indent = "  "
	}
	e := &emitter{opts: opts}
	e.emit(v, 0)
	return e.sb.String()
}

type emitter struct {
	sb   strings.Builder
	opts EmitOptions
}

func (e *emitter) emit(v value.Value, depth int) {
	switch v.Kind() {
	case value.KindNull:
		if e.opts.Compact {
			e.sb.WriteString("∅")
		} else {
			e.sb.WriteString("null")
		}

	case value.KindBool:
		b := v.GetBool(false)
		switch {
		case e.opts.Compact && b:
			e.sb.WriteString("t")
		case e.opts.Compact:
			e.sb.WriteString("f")
		case b:
			e.sb.WriteString("true")
		default:
			e.sb.WriteString("false")
		}

	case value.KindInt:
		e.sb.Write(numeric.AppendInt(nil, v.GetInt(0), 10))

	case value.KindUint:
		e.sb.Write(numeric.AppendInt(nil, v.GetUint(0), 10))

	case value.KindFloat:
		e.emitFloat(v.GetFloat(0))

	case value.KindString:
		e.emitString(v.GetString(""))

	case value.KindArray:
		e.emitList(v.Elems(), depth)

	case value.KindObject:
		e.emitMap(v.Obj(), depth)
	}
}

// emitFloat writes the shortest round-trip text, with ".0" added to
// integral values so they read back as floats.
func (e *emitter) emitFloat(f float64) {
	var buf [40]byte
	b := numeric.AppendFloat(buf[:0], f)
	integral := true
	for _, c := range b {
		if c == '.' || c == 'e' || c == 'I' || c == 'N' {
			integral = false
			break
		}
	}
	e.sb.Write(b)
	if integral {
		e.sb.WriteString(".0")
	}
}

func (e *emitter) emitString(s string) {
	if isBareSafe(s) {
		e.sb.WriteString(s)
		return
	}
	writeQuoted(&e.sb, s)
}

func (e *emitter) separator() string {
	if e.opts.Compact || e.opts.Pretty {
		return " "
	}
	return ", "
}

func (e *emitter) emitList(elems []value.Value, depth int) {
	e.sb.WriteString("[")

	if e.opts.Pretty && len(elems) > 0 {
		e.sb.WriteString("\n")
	}

	for i, elem := range elems {
		if e.opts.Pretty {
			e.writeIndent(depth + 1)
		}

		e.emit(elem, depth+1)

		if e.opts.Pretty {
			e.sb.WriteString("\n")
		} else if i < len(elems)-1 {
			e.sb.WriteString(e.separator())
		}
	}

	if e.opts.Pretty && len(elems) > 0 {
		e.writeIndent(depth)
	}
	e.sb.WriteString("]")
}

func (e *emitter) emitMap(obj *value.Object, depth int) {
	members := obj.Members()

	e.sb.WriteString("{")

	if e.opts.Pretty && len(members) > 0 {
		e.sb.WriteString("\n")
	}

	for i, m := range members {
		if e.opts.Pretty {
			e.writeIndent(depth + 1)
		}

		e.emitString(m.Key)
		if e.opts.Compact {
			e.sb.WriteString("=")
		} else {
			e.sb.WriteString(": ")
		}
		e.emit(m.Value, depth+1)

		if e.opts.Pretty {
			e.sb.WriteString("\n")
		} else if i < len(members)-1 {
			e.sb.WriteString(e.separator())
		}
	}

	if e.opts.Pretty && len(members) > 0 {
		e.writeIndent(depth)
	}
	e.sb.WriteString("}")
}

func (e *emitter) writeIndent(depth int) {
	for range depth {
		e.sb.WriteString(e.opts.Indent)
	}
}

const hexDigits = "0123456789ABCDEF"

// writeQuoted writes s as a quoted string with minimal escapes. Invalid
// UTF-8 bytes are replaced with U+FFFD.
func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString(`\u00`)
				b.WriteByte(hexDigits[r>>4])
				b.WriteByte(hexDigits[r&0xF])
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}
