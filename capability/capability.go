// Package capability classifies Go types by structural shape and moves
// data between Go values and format encoders/decoders.
//
// # Categories
//
// Every supported type falls into exactly one Category. When a type could
// qualify for several, the first match in this order wins:
//
//	Hook > String > Map > Array > Tuple > Optional > Record > Scalar
//
// Pointer types are always Optional and interface types are always
// Dynamic; hooks and text methods are looked up on the element type.
//
// Classification runs once per reflect.Type. Results are cached in a
// concurrent map shared by every goroutine.
//
// # Builders
//
// Decoders drive a Builder with one event per document node. Target wraps
// a settable reflect.Value, ValueTarget wraps a *value.Value. Walk and
// Replay drive any Builder from a Go value or a value.Value, so encoders
// implement Builder as well.
package capability

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"

	"github.com/owacoder/skate-sub000/value"
	"github.com/puzpuzpuz/xsync/v3"
)

// Category is the structural class of a Go type.
type Category uint8

const (
	Scalar Category = iota
	String
	Array
	Map
	Tuple
	Optional
	Hook
	Record
	Dynamic
)

var categoryNames = [...]string{
	Scalar:   "scalar",
	String:   "string",
	Array:    "array",
	Map:      "map",
	Tuple:    "tuple",
	Optional: "optional",
	Hook:     "hook",
	Record:   "record",
	Dynamic:  "dynamic",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// Marshaler is implemented by types that convert themselves to a document.
type Marshaler interface {
	MarshalValue() (value.Value, error)
}

// Unmarshaler is implemented by types that populate themselves from a
// document. The method must have a pointer receiver.
type Unmarshaler interface {
	UnmarshalValue(value.Value) error
}

var (
	marshalerType       = reflect.TypeFor[Marshaler]()
	unmarshalerType     = reflect.TypeFor[Unmarshaler]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	valueType           = reflect.TypeFor[value.Value]()
)

// Descriptor is the cached classification of one type.
type Descriptor struct {
	Type     reflect.Type
	Category Category

	// Fields lists the encoded fields of a Record or Tuple in output order.
	Fields []Field

	byName map[string]int

	// Hook directions. A Hook type may support only one of them.
	marshal   bool
	unmarshal bool
	isValue   bool

	// text marks a String type that round-trips through the Text methods.
	text bool

	// mapKey describes how a Map's keys become strings.
	mapKey keyKind
}

// Field looks up a Record field by its encoded name.
func (d *Descriptor) Field(name string) (Field, bool) {
	i, ok := d.byName[name]
	if !ok {
		return Field{}, false
	}
	return d.Fields[i], true
}

type keyKind uint8

const (
	keyString keyKind = iota
	keyText
	keyInt
	keyUint
)

type entry struct {
	d   *Descriptor
	err error
}

var cache = xsync.NewMapOf[reflect.Type, entry]()

// Classify returns the descriptor for t.
func Classify(t reflect.Type) (*Descriptor, error) {
	if e, ok := cache.Load(t); ok {
		return e.d, e.err
	}
	d, err := classify(t)
	e, _ := cache.LoadOrStore(t, entry{d: d, err: err})
	return e.d, e.err
}

// Of returns the category of t, or Scalar with ok false when t is not
// supported.
func Of(t reflect.Type) (Category, bool) {
	d, err := Classify(t)
	if err != nil {
		return Scalar, false
	}
	return d.Category, true
}

func classify(t reflect.Type) (*Descriptor, error) {
	d := &Descriptor{Type: t}
	switch t.Kind() {
	case reflect.Pointer:
		d.Category = Optional
		return d, nil
	case reflect.Interface:
		d.Category = Dynamic
		return d, nil
	case reflect.Chan, reflect.Func, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer, reflect.Invalid:
		return nil, &UnsupportedTypeError{Type: t}
	}

	pt := reflect.PointerTo(t)
	if t == valueType {
		d.Category = Hook
		d.marshal, d.unmarshal, d.isValue = true, true, true
		return d, nil
	}
	if t.Implements(marshalerType) || pt.Implements(marshalerType) || pt.Implements(unmarshalerType) {
		d.Category = Hook
		d.marshal = t.Implements(marshalerType) || pt.Implements(marshalerType)
		d.unmarshal = pt.Implements(unmarshalerType)
		return d, nil
	}

	if t.Kind() == reflect.String {
		d.Category = String
		return d, nil
	}
	if (t.Implements(textMarshalerType) || pt.Implements(textMarshalerType)) && pt.Implements(textUnmarshalerType) {
		d.Category = String
		d.text = true
		return d, nil
	}

	switch t.Kind() {
	case reflect.Map:
		k, ok := mapKeyKind(t.Key())
		if !ok {
			return nil, &UnsupportedTypeError{Type: t, Reason: "map key " + t.Key().String()}
		}
		d.Category = Map
		d.mapKey = k
		return d, nil
	case reflect.Slice, reflect.Array:
		d.Category = Array
		return d, nil
	case reflect.Struct:
		if isTuple(t) {
			d.Category = Tuple
			d.Fields = tupleFields(t)
			return d, nil
		}
		d.Category = Record
		d.Fields = recordFields(t)
		d.byName = make(map[string]int, len(d.Fields))
		for i, f := range d.Fields {
			d.byName[f.Name] = i
		}
		return d, nil
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		d.Category = Scalar
		return d, nil
	}
	return nil, &UnsupportedTypeError{Type: t}
}

func mapKeyKind(k reflect.Type) (keyKind, bool) {
	switch {
	case k.Kind() == reflect.String:
		return keyString, true
	case k.Implements(textMarshalerType) && reflect.PointerTo(k).Implements(textUnmarshalerType):
		return keyText, true
	}
	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return keyInt, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return keyUint, true
	}
	return 0, false
}

// ============================================================
// Errors
// ============================================================

// UnsupportedTypeError reports a type no category accepts.
type UnsupportedTypeError struct {
	Type   reflect.Type
	Reason string
}

func (e *UnsupportedTypeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("capability: unsupported type %s: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("capability: unsupported type %s", e.Type)
}

// HookError wraps an error returned by a Marshaler or Unmarshaler.
type HookError struct {
	Type reflect.Type
	Err  error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("capability: hook on %s: %v", e.Type, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// MismatchError reports a document node that the destination type cannot
// hold, such as a string decoded into an int or 300 into a uint8.
type MismatchError struct {
	Type reflect.Type
	Got  string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("capability: cannot store %s in %s", e.Got, e.Type)
}

// InvalidTargetError reports a decode destination that is not a non-nil
// pointer.
type InvalidTargetError struct {
	Type reflect.Type
}

func (e *InvalidTargetError) Error() string {
	if e.Type == nil {
		return "capability: decode into nil"
	}
	if e.Type.Kind() != reflect.Pointer {
		return "capability: decode into non-pointer " + e.Type.String()
	}
	return "capability: decode into nil " + e.Type.String()
}

// ErrTooDeep is returned by Walk when a Go value nests beyond any
// representable depth, which in practice means it contains a cycle.
var ErrTooDeep = errors.New("capability: value nested too deeply")
