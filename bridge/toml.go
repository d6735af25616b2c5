package bridge

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/owacoder/skate-sub000/value"
)

// ToTOML encodes an Object as a TOML document. TOML has no null and its
// integers are 64-bit signed, so Null anywhere and Uint values above
// math.MaxInt64 are errors.
func ToTOML(v value.Value) ([]byte, error) {
	if v.Kind() != value.KindObject {
		return nil, errorf("toml", "top-level value must be an object, got %s", v.Kind())
	}
	doc, err := tomlTree(v, "")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("bridge: toml: %w", err)
	}
	return buf.Bytes(), nil
}

func tomlTree(v value.Value, path string) (any, error) {
	switch v.Kind() {
	case value.KindNull:
		return nil, errorf("toml", "cannot represent null at %q", path)
	case value.KindUint:
		u := v.GetUint(0)
		if u > math.MaxInt64 {
			return nil, errorf("toml", "integer %d at %q exceeds int64", u, path)
		}
		return int64(u), nil
	case value.KindArray:
		elems := v.Elems()
		out := make([]any, len(elems))
		for i, e := range elems {
			x, err := tomlTree(e, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = x
		}
		return out, nil
	case value.KindObject:
		out := make(map[string]any, v.Len())
		for _, m := range v.Obj().Members() {
			key := m.Key
			if path != "" {
				key = path + "." + m.Key
			}
			x, err := tomlTree(m.Value, key)
			if err != nil {
				return nil, err
			}
			out[m.Key] = x
		}
		return out, nil
	}
	return v.Interface(), nil
}

// FromTOML decodes a TOML document into an Object. Date and time values
// become their RFC 3339 text.
func FromTOML(data []byte) (value.Value, error) {
	return fromTOML(data, DefaultMaxDepth)
}

func fromTOML(data []byte, limit int) (value.Value, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return value.Null(), fmt.Errorf("bridge: toml: %w", err)
	}
	return tomlValue(doc, 0, limit)
}

func tomlValue(x any, depth, limit int) (value.Value, error) {
	switch x.(type) {
	case []map[string]any, []any, map[string]any:
		if depth >= limit {
			return value.Null(), errorf("toml", "nesting exceeds %d levels", limit)
		}
	}
	switch t := x.(type) {
	case time.Time:
		return value.Str(t.Format(time.RFC3339Nano)), nil
	case []map[string]any:
		arr := value.Array()
		elems := arr.MutArray()
		for _, e := range t {
			ev, err := tomlValue(e, depth+1, limit)
			if err != nil {
				return value.Null(), err
			}
			*elems = append(*elems, ev)
		}
		return arr, nil
	case []any:
		arr := value.Array()
		elems := arr.MutArray()
		for _, e := range t {
			ev, err := tomlValue(e, depth+1, limit)
			if err != nil {
				return value.Null(), err
			}
			*elems = append(*elems, ev)
		}
		return arr, nil
	case map[string]any:
		m := value.Map()
		obj := m.MutObject()
		for k, e := range t {
			ev, err := tomlValue(e, depth+1, limit)
			if err != nil {
				return value.Null(), err
			}
			obj.Set(k, ev)
		}
		return m, nil
	}
	v, err := value.FromInterface(x)
	if err != nil {
		return value.Null(), errorf("toml", "%v", err)
	}
	return v, nil
}

type tomlFormat struct{ opts Options }

func (tomlFormat) Name() string { return "toml" }

func (tomlFormat) Marshal(v value.Value) ([]byte, error) { return ToTOML(v) }

func (f tomlFormat) Unmarshal(data []byte) (value.Value, error) {
	return fromTOML(data, f.opts.limit())
}
