package value

import "math"

// ============================================================
// Coercing mutable accessors
// ============================================================
//
// Each Mut accessor retags v to the requested kind (dropping any other
// payload) and returns a pointer into the live storage. Calling it on a
// value that already has the kind keeps the payload.

// MutBool coerces v to Bool.
func (v *Value) MutBool() *bool {
	v.retag(KindBool)
	return &v.boolVal
}

// MutInt coerces v to Int.
func (v *Value) MutInt() *int64 {
	v.retag(KindInt)
	return &v.intVal
}

// MutUint coerces v to Uint.
func (v *Value) MutUint() *uint64 {
	v.retag(KindUint)
	return &v.uintVal
}

// MutFloat coerces v to Float.
func (v *Value) MutFloat() *float64 {
	v.retag(KindFloat)
	return &v.floatVal
}

// MutString coerces v to String.
func (v *Value) MutString() *string {
	v.retag(KindString)
	return &v.strVal
}

// MutArray coerces v to Array. The slice is shared with any copy of v.
func (v *Value) MutArray() *[]Value {
	v.retag(KindArray)
	return &v.arrVal
}

// MutObject coerces v to Object. The Object is shared with any copy of
// v; Clone first to mutate independently.
func (v *Value) MutObject() *Object {
	v.retag(KindObject)
	return v.objVal
}

// Set replaces v with a copy of other's tag and payload.
func (v *Value) Set(other Value) {
	*v = other
}

// Append coerces v to Array and appends elems.
func (v *Value) Append(elems ...Value) {
	arr := v.MutArray()
	*arr = append(*arr, elems...)
}

// At coerces v to Array and returns a pointer to element i, growing the
// array with Null elements when i is past the end. It panics if i < 0.
// The pointer is invalidated by the next growth of the array. Writes
// through it are visible to copies of v that share the array.
func (v *Value) At(i int) *Value {
	if i < 0 {
		panic("value: negative array index")
	}
	arr := v.MutArray()
	if i >= len(*arr) {
		*arr = append(*arr, make([]Value, i+1-len(*arr))...)
	}
	return &(*arr)[i]
}

// Key coerces v to Object and returns a pointer to the member named key,
// inserting a Null member when it is missing. Copies of v share the
// Object, so Clone a copy before writing through Key.
func (v *Value) Key(key string) *Value {
	return v.MutObject().Key(key)
}

// ============================================================
// Non-mutating typed getters
// ============================================================
//
// Each Get accessor returns the value converted to the requested kind, or
// def when the conversion would lose information. Numeric kinds convert
// among each other only when the value is exactly representable. Strings
// never convert to or from other kinds.

// GetBool returns the Bool payload or def.
func (v Value) GetBool(def bool) bool {
	if v.kind == KindBool {
		return v.boolVal
	}
	return def
}

// GetInt returns v as int64 or def.
func (v Value) GetInt(def int64) int64 {
	switch v.kind {
	case KindInt:
		return v.intVal
	case KindUint:
		if v.uintVal <= math.MaxInt64 {
			return int64(v.uintVal)
		}
	case KindFloat:
		if i, ok := floatToInt(v.floatVal); ok {
			return i
		}
	}
	return def
}

// GetUint returns v as uint64 or def.
func (v Value) GetUint(def uint64) uint64 {
	switch v.kind {
	case KindUint:
		return v.uintVal
	case KindInt:
		if v.intVal >= 0 {
			return uint64(v.intVal)
		}
	case KindFloat:
		if u, ok := floatToUint(v.floatVal); ok {
			return u
		}
	}
	return def
}

// GetFloat returns v as float64 or def.
func (v Value) GetFloat(def float64) float64 {
	switch v.kind {
	case KindFloat:
		return v.floatVal
	case KindInt:
		if f, ok := intToFloat(v.intVal); ok {
			return f
		}
	case KindUint:
		if f, ok := uintToFloat(v.uintVal); ok {
			return f
		}
	}
	return def
}

// GetString returns the String payload or def.
func (v Value) GetString(def string) string {
	if v.kind == KindString {
		return v.strVal
	}
	return def
}

// GetArray returns a deep copy of the elements or def.
func (v Value) GetArray(def []Value) []Value {
	if v.kind != KindArray {
		return def
	}
	return v.Clone().arrVal
}

// GetObject returns a deep copy of the object or def.
func (v Value) GetObject(def *Object) *Object {
	if v.kind != KindObject {
		return def
	}
	return v.objVal.Clone()
}

// ============================================================
// Exact numeric conversions
// ============================================================

const (
	// 2^63 and 2^64 as float64; both are exact.
	twoTo63 = 9223372036854775808.0
	twoTo64 = 18446744073709551616.0
)

func floatToInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < -twoTo63 || f >= twoTo63 {
		return 0, false
	}
	return int64(f), true
}

func floatToUint(f float64) (uint64, bool) {
	if f != math.Trunc(f) || f < 0 || f >= twoTo64 {
		return 0, false
	}
	return uint64(f), true
}

func intToFloat(i int64) (float64, bool) {
	f := float64(i)
	if f >= twoTo63 || int64(f) != i {
		return 0, false
	}
	return f, true
}

func uintToFloat(u uint64) (float64, bool) {
	f := float64(u)
	if f >= twoTo64 || uint64(f) != u {
		return 0, false
	}
	return f, true
}
