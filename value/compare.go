package value

import (
	"fmt"
	"math"
	"sort"
)

// Equal reports whether a and b hold the same document. Numbers of
// different kinds are equal when they denote exactly the same value, so
// Int(1), Uint(1) and Float(1) are all equal. NaN is never equal to
// anything.
func Equal(a, b Value) bool {
	if a.kind.IsNumber() && b.kind.IsNumber() {
		return numbersEqual(a, b)
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.boolVal == b.boolVal
	case KindString:
		return a.strVal == b.strVal
	case KindArray:
		if len(a.arrVal) != len(b.arrVal) {
			return false
		}
		for i := range a.arrVal {
			if !Equal(a.arrVal[i], b.arrVal[i]) {
				return false
			}
		}
		return true
	case KindObject:
		am, bm := a.objVal.Members(), b.objVal.Members()
		if len(am) != len(bm) {
			return false
		}
		for i := range am {
			if am[i].Key != bm[i].Key || !Equal(am[i].Value, bm[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

func numbersEqual(a, b Value) bool {
	if a.kind > b.kind {
		a, b = b, a
	}
	switch {
	case a.kind == KindInt && b.kind == KindInt:
		return a.intVal == b.intVal
	case a.kind == KindUint && b.kind == KindUint:
		return a.uintVal == b.uintVal
	case a.kind == KindFloat && b.kind == KindFloat:
		return a.floatVal == b.floatVal
	case a.kind == KindInt && b.kind == KindUint:
		return a.intVal >= 0 && uint64(a.intVal) == b.uintVal
	case a.kind == KindInt && b.kind == KindFloat:
		i, ok := floatToInt(b.floatVal)
		return ok && i == a.intVal
	case a.kind == KindUint && b.kind == KindFloat:
		u, ok := floatToUint(b.floatVal)
		return ok && u == a.uintVal
	}
	return false
}

// ============================================================
// Go dynamic values
// ============================================================

// Interface converts v to plain Go values: nil, bool, int64, uint64,
// float64, string, []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.boolVal
	case KindInt:
		return v.intVal
	case KindUint:
		return v.uintVal
	case KindFloat:
		return v.floatVal
	case KindString:
		return v.strVal
	case KindArray:
		out := make([]any, len(v.arrVal))
		for i, e := range v.arrVal {
			out[i] = e.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, v.objVal.Len())
		for _, m := range v.objVal.Members() {
			out[m.Key] = m.Value.Interface()
		}
		return out
	}
	return nil
}

// FromInterface converts a tree of plain Go values into a Value. It
// accepts the types produced by Interface plus the other built-in integer
// and float widths, []Value, map[string]Value and Value itself. Any other
// type is an error; use the capability package for arbitrary Go types.
func FromInterface(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t.Clone(), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Uint(uint64(t)), nil
	case uint8:
		return Uint(uint64(t)), nil
	case uint16:
		return Uint(uint64(t)), nil
	case uint32:
		return Uint(uint64(t)), nil
	case uint64:
		return Uint(t), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case string:
		return Str(t), nil
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			ev, err := FromInterface(e)
			if err != nil {
				return Null(), fmt.Errorf("value: index %d: %w", i, err)
			}
			elems[i] = ev
		}
		return Array(elems...), nil
	case []Value:
		return Array(t...).Clone(), nil
	case map[string]any:
		obj := NewObject(len(t))
		for _, k := range sortedKeys(t) {
			ev, err := FromInterface(t[k])
			if err != nil {
				return Null(), fmt.Errorf("value: key %q: %w", k, err)
			}
			obj.Set(k, ev)
		}
		return Value{kind: KindObject, objVal: obj}, nil
	case map[string]Value:
		obj := NewObject(len(t))
		for _, k := range sortedKeys(t) {
			obj.Set(k, t[k].Clone())
		}
		return Value{kind: KindObject, objVal: obj}, nil
	}
	return Null(), fmt.Errorf("value: unsupported dynamic type %T", x)
}

// sortedKeys lets Object.Set append in order instead of shifting.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsFinite reports whether v is a number other than ±Inf and NaN.
func (v Value) IsFinite() bool {
	switch v.kind {
	case KindInt, KindUint:
		return true
	case KindFloat:
		return !math.IsInf(v.floatVal, 0) && !math.IsNaN(v.floatVal)
	}
	return false
}
