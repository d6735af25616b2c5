// Package bridge converts value.Value documents to and from peer formats:
// CBOR, YAML, TOML and protobuf's google.protobuf.Value. It also exposes
// every supported format, including the canonical JSON and the loose text
// format, behind the Format interface so tools can convert between any
// pair by name.
//
// Each format maps the Value model as faithfully as it can and reports an
// *Error for values it cannot represent rather than approximating them:
// TOML has no null, protobuf numbers are doubles, and CBOR maps decoded
// here must have string keys.
package bridge

import (
	"fmt"
	"slices"

	"github.com/owacoder/skate-sub000/json"
	"github.com/owacoder/skate-sub000/loose"
	"github.com/owacoder/skate-sub000/value"
)

// DefaultMaxDepth limits nesting when decoding peer formats.
const DefaultMaxDepth = json.DefaultMaxDepth

// Error reports a document a format cannot hold or a malformed input.
type Error struct {
	Format string
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("bridge: %s: %s", e.Format, e.Msg)
}

func errorf(format, msg string, args ...any) *Error {
	return &Error{Format: format, Msg: fmt.Sprintf(msg, args...)}
}

// Format converts Values to and from one serialized representation.
type Format interface {
	Name() string
	Marshal(v value.Value) ([]byte, error)
	Unmarshal(data []byte) (value.Value, error)
}

// Options tune the formats returned by New.
type Options struct {
	// MaxDepth limits nesting when decoding (default DefaultMaxDepth).
	MaxDepth int

	// Indent is the number of spaces per level for text formats that
	// support indentation. Zero means compact output where available.
	Indent int

	// ASCII escapes non-ASCII characters in JSON output.
	ASCII bool

	// AllowNonFinite accepts and emits Infinity and NaN in JSON.
	AllowNonFinite bool
}

func (o Options) limit() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

var constructors = map[string]func(Options) Format{
	"json":  func(o Options) Format { return jsonFormat{o} },
	"loose": func(o Options) Format { return looseFormat{o} },
	"cbor":  func(o Options) Format { return cborFormat{o} },
	"yaml":  func(o Options) Format { return yamlFormat{o} },
	"toml":  func(o Options) Format { return tomlFormat{o} },
	"proto": func(o Options) Format { return protoFormat{o} },
}

// Names returns the supported format names in order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New returns the named format.
func New(name string, opts Options) (Format, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("bridge: unknown format %q (have %v)", name, Names())
	}
	return ctor(opts), nil
}

// Convert decodes data in one format and encodes the result in another.
func Convert(data []byte, from, to Format) ([]byte, error) {
	v, err := from.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return to.Marshal(v)
}

// ============================================================
// Text formats
// ============================================================

type jsonFormat struct{ opts Options }

func (jsonFormat) Name() string { return "json" }

func (f jsonFormat) Marshal(v value.Value) ([]byte, error) {
	opts := json.DefaultWriteOptions()
	opts.Indent = f.opts.Indent
	opts.ASCII = f.opts.ASCII
	opts.AllowNonFinite = f.opts.AllowNonFinite
	return json.MarshalWithOptions(v, opts)
}

func (f jsonFormat) Unmarshal(data []byte) (value.Value, error) {
	opts := json.DefaultReadOptions()
	opts.MaxDepth = f.opts.limit()
	opts.AllowNonFinite = f.opts.AllowNonFinite
	var v value.Value
	err := json.UnmarshalWithOptions(data, &v, opts)
	return v, err
}

type looseFormat struct{ opts Options }

func (looseFormat) Name() string { return "loose" }

func (f looseFormat) Marshal(v value.Value) ([]byte, error) {
	opts := loose.DefaultEmitOptions()
	if f.opts.Indent > 0 {
		opts = loose.PrettyEmitOptions()
		opts.Indent = fmt.Sprintf("%*s", f.opts.Indent, "")
	}
	return []byte(loose.EmitWithOptions(v, opts)), nil
}

func (f looseFormat) Unmarshal(data []byte) (value.Value, error) {
	return loose.ParseWithOptions(string(data), loose.ParseOptions{MaxDepth: f.opts.limit()})
}
