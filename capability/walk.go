package capability

import (
	"encoding"
	"reflect"
	"slices"
	"strconv"

	"github.com/owacoder/skate-sub000/value"
)

// walkLimit bounds recursion through Go values. Format encoders enforce
// their own, much smaller, nesting limits; this one only stops cycles.
const walkLimit = 10000

// Walk drives b with the document form of x.
func Walk(x any, b Builder) error {
	return walk(reflect.ValueOf(x), b, 0)
}

// WalkValue drives b with the document form of rv.
func WalkValue(rv reflect.Value, b Builder) error {
	return walk(rv, b, 0)
}

func walk(rv reflect.Value, b Builder, depth int) error {
	if depth > walkLimit {
		return ErrTooDeep
	}
	if !rv.IsValid() {
		return b.Null()
	}
	d, err := Classify(rv.Type())
	if err != nil {
		return err
	}

	switch d.Category {
	case Hook:
		if d.isValue {
			return Replay(rv.Interface().(value.Value), b)
		}
		if !d.marshal {
			return &UnsupportedTypeError{Type: d.Type, Reason: "no MarshalValue method"}
		}
		v, err := marshalerOf(rv).MarshalValue()
		if err != nil {
			return &HookError{Type: d.Type, Err: err}
		}
		return Replay(v, b)

	case String:
		if !d.text {
			return b.String(rv.String())
		}
		text, err := textMarshalerOf(rv).MarshalText()
		if err != nil {
			return &HookError{Type: d.Type, Err: err}
		}
		return b.String(string(text))

	case Map:
		if rv.IsNil() {
			return b.Null()
		}
		return walkMap(rv, d, b, depth)

	case Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return b.Null()
		}
		ab, err := b.Array()
		if err != nil {
			return err
		}
		for i := range rv.Len() {
			eb, err := ab.Elem()
			if err != nil {
				return err
			}
			if err := walk(rv.Index(i), eb, depth+1); err != nil {
				return err
			}
		}
		return ab.End()

	case Tuple:
		ab, err := b.Array()
		if err != nil {
			return err
		}
		for _, f := range d.Fields {
			eb, err := ab.Elem()
			if err != nil {
				return err
			}
			if err := walk(rv.Field(f.Index[0]), eb, depth+1); err != nil {
				return err
			}
		}
		return ab.End()

	case Optional, Dynamic:
		if rv.IsNil() {
			return b.Null()
		}
		return walk(rv.Elem(), b, depth+1)

	case Record:
		ob, err := b.Object()
		if err != nil {
			return err
		}
		for _, f := range d.Fields {
			fv, ok := fieldByIndex(rv, f.Index, false)
			if !ok || f.OmitEmpty && isEmptyValue(fv) {
				continue
			}
			kb, err := ob.Key(f.Name)
			if err != nil {
				return err
			}
			if err := walk(fv, kb, depth+1); err != nil {
				return err
			}
		}
		return ob.End()
	}

	switch rv.Kind() {
	case reflect.Bool:
		return b.Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return b.Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return b.Uint(rv.Uint())
	case reflect.Float32:
		return b.Float(rv.Float(), 32)
	default:
		return b.Float(rv.Float(), 64)
	}
}

func walkMap(rv reflect.Value, d *Descriptor, b Builder, depth int) error {
	type member struct {
		key string
		val reflect.Value
	}
	members := make([]member, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := formatMapKey(d, iter.Key())
		if err != nil {
			return err
		}
		members = append(members, member{key: k, val: iter.Value()})
	}
	slices.SortFunc(members, func(a, b member) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		}
		return 0
	})

	ob, err := b.Object()
	if err != nil {
		return err
	}
	for _, m := range members {
		kb, err := ob.Key(m.key)
		if err != nil {
			return err
		}
		if err := walk(m.val, kb, depth+1); err != nil {
			return err
		}
	}
	return ob.End()
}

func formatMapKey(d *Descriptor, k reflect.Value) (string, error) {
	switch d.mapKey {
	case keyString:
		return k.String(), nil
	case keyText:
		text, err := k.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", &HookError{Type: k.Type(), Err: err}
		}
		return string(text), nil
	case keyInt:
		return strconv.FormatInt(k.Int(), 10), nil
	default:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
}

// marshalerOf returns rv as a Marshaler, copying it to addressable
// storage when only the pointer type has the method.
func marshalerOf(rv reflect.Value) Marshaler {
	if m, ok := rv.Interface().(Marshaler); ok {
		return m
	}
	return addressable(rv).Addr().Interface().(Marshaler)
}

func textMarshalerOf(rv reflect.Value) encoding.TextMarshaler {
	if m, ok := rv.Interface().(encoding.TextMarshaler); ok {
		return m
	}
	return addressable(rv).Addr().Interface().(encoding.TextMarshaler)
}

func addressable(rv reflect.Value) reflect.Value {
	if rv.CanAddr() {
		return rv
	}
	p := reflect.New(rv.Type())
	p.Elem().Set(rv)
	return p.Elem()
}

// ============================================================
// Value replay
// ============================================================

// Replay drives b with the nodes of v.
func Replay(v value.Value, b Builder) error {
	switch v.Kind() {
	case value.KindNull:
		return b.Null()
	case value.KindBool:
		return b.Bool(v.GetBool(false))
	case value.KindInt:
		return b.Int(v.GetInt(0))
	case value.KindUint:
		return b.Uint(v.GetUint(0))
	case value.KindFloat:
		return b.Float(v.GetFloat(0), 64)
	case value.KindString:
		return b.String(v.GetString(""))
	case value.KindArray:
		ab, err := b.Array()
		if err != nil {
			return err
		}
		for _, e := range v.Elems() {
			eb, err := ab.Elem()
			if err != nil {
				return err
			}
			if err := Replay(e, eb); err != nil {
				return err
			}
		}
		return ab.End()
	default:
		ob, err := b.Object()
		if err != nil {
			return err
		}
		for _, m := range v.Obj().Members() {
			kb, err := ob.Key(m.Key)
			if err != nil {
				return err
			}
			if err := Replay(m.Value, kb); err != nil {
				return err
			}
		}
		return ob.End()
	}
}

// ToValue converts x to its document form.
func ToValue(x any) (value.Value, error) {
	var v value.Value
	if err := Walk(x, ValueTarget(&v)); err != nil {
		return value.Null(), err
	}
	return v, nil
}

// FromValue stores v into the value ptr points to. On failure the
// destination is reset to its zero value.
func FromValue(v value.Value, ptr any) error {
	b, err := TargetOf(ptr)
	if err != nil {
		return err
	}
	if err := Replay(v, b); err != nil {
		b.Clear()
		return err
	}
	return nil
}
