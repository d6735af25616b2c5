package bridge

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/owacoder/skate-sub000/value"
)

// cborEncMode writes canonical CBOR: sorted map keys, shortest integer
// and float encodings.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bridge: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// cborDecMode bounds nesting; the library accepts limits from 4 up.
func cborDecMode(limit int) (cbor.DecMode, error) {
	limit = max(limit, 4)
	return cbor.DecOptions{MaxNestedLevels: limit}.DecMode()
}

// ToCBOR encodes v as canonical CBOR. Non-negative integers use major
// type 0 and negative integers major type 1.
func ToCBOR(v value.Value) ([]byte, error) {
	data, err := cborEncMode.Marshal(v.Interface())
	if err != nil {
		return nil, fmt.Errorf("bridge: cbor: %w", err)
	}
	return data, nil
}

// FromCBOR decodes one CBOR data item. Integers that fit int64 become Int;
// larger non-negative integers become Uint. Maps must have text keys.
func FromCBOR(data []byte) (value.Value, error) {
	return fromCBOR(data, DefaultMaxDepth)
}

func fromCBOR(data []byte, limit int) (value.Value, error) {
	dm, err := cborDecMode(limit)
	if err != nil {
		return value.Null(), fmt.Errorf("bridge: cbor: %w", err)
	}
	var x any
	if err := dm.Unmarshal(data, &x); err != nil {
		return value.Null(), fmt.Errorf("bridge: cbor: %w", err)
	}
	return cborValue(x)
}

func cborValue(x any) (value.Value, error) {
	switch t := x.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.Bool(t), nil
	case uint64:
		if t <= math.MaxInt64 {
			return value.Int(int64(t)), nil
		}
		return value.Uint(t), nil
	case int64:
		return value.Int(t), nil
	case float32:
		return value.Float(float64(t)), nil
	case float64:
		return value.Float(t), nil
	case string:
		return value.Str(t), nil
	case time.Time:
		return value.Str(t.Format(time.RFC3339Nano)), nil
	case []any:
		arr := value.Array()
		elems := arr.MutArray()
		for i, e := range t {
			ev, err := cborValue(e)
			if err != nil {
				return value.Null(), fmt.Errorf("index %d: %w", i, err)
			}
			*elems = append(*elems, ev)
		}
		return arr, nil
	case map[any]any:
		m := value.Map()
		obj := m.MutObject()
		for k, e := range t {
			key, ok := k.(string)
			if !ok {
				return value.Null(), errorf("cbor", "map key %v (%T) is not a text string", k, k)
			}
			ev, err := cborValue(e)
			if err != nil {
				return value.Null(), fmt.Errorf("key %q: %w", key, err)
			}
			obj.Set(key, ev)
		}
		return m, nil
	case big.Int:
		return value.Null(), errorf("cbor", "integer %s out of range", t.String())
	case *big.Int:
		return value.Null(), errorf("cbor", "integer %s out of range", t.String())
	case []byte:
		return value.Null(), errorf("cbor", "byte strings are not supported")
	case cbor.Tag:
		return value.Null(), errorf("cbor", "unsupported tag %d", t.Number)
	}
	return value.Null(), errorf("cbor", "unsupported item %T", x)
}

type cborFormat struct{ opts Options }

func (cborFormat) Name() string { return "cbor" }

func (cborFormat) Marshal(v value.Value) ([]byte, error) { return ToCBOR(v) }

func (f cborFormat) Unmarshal(data []byte) (value.Value, error) {
	return fromCBOR(data, f.opts.limit())
}
