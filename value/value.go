// Package value implements Value, a tagged union that holds any decoded
// document when its static type is unknown.
//
// # Data Model
//
//	Null | Bool | Int (int64) | Uint (uint64) | Float (float64) |
//	String | Array ([]Value) | Object (string-keyed, key-sorted)
//
// The zero Value is Null. Every retagging operation drops the previous
// payload before installing the new one, so a Value never exposes stale
// storage from an earlier tag.
//
// # Ownership
//
// A Value owns its Array and Object payloads. Plain assignment shares them;
// Clone makes an independent deep copy and Take moves the payload out,
// leaving Null behind.
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the active payload of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindArray
	KindObject
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// IsNumber reports whether k is Int, Uint or Float.
func (k Kind) IsNumber() bool {
	return k == KindInt || k == KindUint || k == KindFloat
}

// Value is a dynamically typed document node.
//
// Assigning a Value copies its scalar payload but not its container:
// copies of an Array or Object share elements and members until one of
// them is replaced. Clone a copy before mutating it through At, Key,
// MutArray or MutObject if the original must stay unchanged.
type Value struct {
	kind Kind

	// Scalar payloads (only the one matching kind is meaningful)
	boolVal  bool
	intVal   int64
	uintVal  uint64
	floatVal float64
	strVal   string

	// Container payloads
	arrVal []Value
	objVal *Object
}

// ============================================================
// Constructors
// ============================================================

// Null returns a null value.
func Null() Value {
	return Value{}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, boolVal: b}
}

// Int returns a signed integer value.
func Int(i int64) Value {
	return Value{kind: KindInt, intVal: i}
}

// Uint returns an unsigned integer value.
func Uint(u uint64) Value {
	return Value{kind: KindUint, uintVal: u}
}

// Float returns a floating-point value.
func Float(f float64) Value {
	return Value{kind: KindFloat, floatVal: f}
}

// Str returns a string value.
func Str(s string) Value {
	return Value{kind: KindString, strVal: s}
}

// Array returns an array value that takes ownership of elems.
func Array(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{kind: KindArray, arrVal: elems}
}

// Map returns an object value built from members. Later duplicates of a
// key replace earlier ones.
func Map(members ...Member) Value {
	obj := &Object{}
	for _, m := range members {
		obj.Set(m.Key, m.Value)
	}
	return Value{kind: KindObject, objVal: obj}
}

// Entry creates a Member for use with Map.
func Entry(key string, v Value) Member {
	return Member{Key: key, Value: v}
}

// ============================================================
// Inspection
// ============================================================

// Kind returns the active tag.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether v is Null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Len returns the number of elements of an array, members of an object,
// bytes of a string, and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arrVal)
	case KindObject:
		return v.objVal.Len()
	case KindString:
		return len(v.strVal)
	default:
		return 0
	}
}

// Elems returns the elements of an array without copying, or nil.
func (v Value) Elems() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arrVal
}

// Obj returns the object payload without copying, or nil.
func (v Value) Obj() *Object {
	if v.kind != KindObject {
		return nil
	}
	return v.objVal
}

// Elem returns the i-th array element without vivifying anything.
func (v Value) Elem(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arrVal) {
		return Value{}, false
	}
	return v.arrVal[i], true
}

// Lookup returns an object member without vivifying anything.
func (v Value) Lookup(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	p := v.objVal.Get(key)
	if p == nil {
		return Value{}, false
	}
	return *p, true
}

// ============================================================
// Ownership
// ============================================================

// Reset drops the payload and makes v Null.
func (v *Value) Reset() {
	*v = Value{}
}

// Take moves the payload out of v and leaves v Null.
func (v *Value) Take() Value {
	out := *v
	*v = Value{}
	return out
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		elems := make([]Value, len(v.arrVal))
		for i := range v.arrVal {
			elems[i] = v.arrVal[i].Clone()
		}
		return Value{kind: KindArray, arrVal: elems}
	case KindObject:
		return Value{kind: KindObject, objVal: v.objVal.Clone()}
	default:
		return v
	}
}

// retag drops the current payload and installs an empty payload of kind k.
// It is a no-op when v already has kind k.
func (v *Value) retag(k Kind) {
	if v.kind == k {
		return
	}
	*v = Value{kind: k}
	switch k {
	case KindArray:
		v.arrVal = []Value{}
	case KindObject:
		v.objVal = &Object{}
	}
}

// ============================================================
// Debug formatting
// ============================================================

// String returns a compact JSON-like rendering for debugging. It is not a
// serializer: use the json package for that.
func (v Value) String() string {
	var sb strings.Builder
	v.debug(&sb)
	return sb.String()
}

// GoString implements fmt.GoStringer.
func (v Value) GoString() string {
	return fmt.Sprintf("value.%s(%s)", v.kind, v.String())
}

func (v Value) debug(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.boolVal))
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.intVal, 10))
	case KindUint:
		sb.WriteString(strconv.FormatUint(v.uintVal, 10))
	case KindFloat:
		sb.WriteString(strconv.FormatFloat(v.floatVal, 'g', -1, 64))
	case KindString:
		sb.WriteString(strconv.Quote(v.strVal))
	case KindArray:
		sb.WriteByte('[')
		for i, e := range v.arrVal {
			if i > 0 {
				sb.WriteByte(',')
			}
			e.debug(sb)
		}
		sb.WriteByte(']')
	case KindObject:
		sb.WriteByte('{')
		for i, m := range v.objVal.members {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(m.Key))
			sb.WriteByte(':')
			m.Value.debug(sb)
		}
		sb.WriteByte('}')
	}
}
