package capability

import (
	"encoding"
	"reflect"
	"strconv"

	"github.com/owacoder/skate-sub000/value"
)

// Target returns a Builder that stores one document into rv, which must
// be settable. Containers are rebuilt from scratch: a decoded slice, map
// or struct never keeps elements or fields from its previous contents.
func Target(rv reflect.Value) (Builder, error) {
	if !rv.CanSet() {
		return nil, &InvalidTargetError{Type: rv.Type()}
	}
	d, err := Classify(rv.Type())
	if err != nil {
		return nil, err
	}
	return &target{rv: rv, d: d}, nil
}

// TargetOf returns a Builder for the value ptr points to.
func TargetOf(ptr any) (Builder, error) {
	rv := reflect.ValueOf(ptr)
	if !rv.IsValid() {
		return nil, &InvalidTargetError{}
	}
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, &InvalidTargetError{Type: rv.Type()}
	}
	if v, ok := ptr.(*value.Value); ok {
		return ValueTarget(v), nil
	}
	return Target(rv.Elem())
}

type target struct {
	rv reflect.Value
	d  *Descriptor
}

func (t *target) mismatch(got string) error {
	return &MismatchError{Type: t.rv.Type(), Got: got}
}

func (t *target) Clear() {
	t.rv.SetZero()
}

// indirect returns the builder that handles non-null nodes for Optional,
// Hook and Dynamic destinations, or nil for the other categories.
func (t *target) indirect() (Builder, error) {
	switch t.d.Category {
	case Optional:
		if t.rv.IsNil() {
			t.rv.Set(reflect.New(t.rv.Type().Elem()))
		}
		return Target(t.rv.Elem())
	case Hook:
		return t.hook()
	case Dynamic:
		return t.dynamic()
	}
	return nil, nil
}

func (t *target) hook() (Builder, error) {
	if t.d.isValue {
		return ValueTarget(t.rv.Addr().Interface().(*value.Value)), nil
	}
	if !t.d.unmarshal {
		return nil, &UnsupportedTypeError{Type: t.rv.Type(), Reason: "no UnmarshalValue method"}
	}
	u := t.rv.Addr().Interface().(Unmarshaler)
	return collect(func(v value.Value) error {
		if err := u.UnmarshalValue(v); err != nil {
			return &HookError{Type: t.rv.Type(), Err: err}
		}
		return nil
	}), nil
}

// dynamic decodes into an interface. An empty interface receives the
// plain Go form of the document (see value.Value.Interface). A non-empty
// interface must already hold a non-nil pointer, which is decoded into.
func (t *target) dynamic() (Builder, error) {
	if t.rv.NumMethod() == 0 {
		return collect(func(v value.Value) error {
			if x := v.Interface(); x != nil {
				t.rv.Set(reflect.ValueOf(x))
			} else {
				t.rv.SetZero()
			}
			return nil
		}), nil
	}
	if !t.rv.IsNil() {
		if e := t.rv.Elem(); e.Kind() == reflect.Pointer && !e.IsNil() {
			return Target(e.Elem())
		}
	}
	return nil, t.mismatch("document (interface holds no pointer)")
}

// ============================================================
// Scalars
// ============================================================

func (t *target) Null() error {
	switch t.d.Category {
	case Optional, Dynamic:
		t.rv.SetZero()
		return nil
	case Hook:
		b, err := t.hook()
		if err != nil {
			return err
		}
		return b.Null()
	case Map:
		t.rv.SetZero()
		return nil
	case Array:
		if t.rv.Kind() == reflect.Slice {
			t.rv.SetZero()
			return nil
		}
	}
	return t.mismatch("null")
}

func (t *target) Bool(b bool) error {
	if next, err := t.indirect(); next != nil || err != nil {
		if err != nil {
			return err
		}
		return next.Bool(b)
	}
	if t.rv.Kind() != reflect.Bool {
		return t.mismatch("bool")
	}
	t.rv.SetBool(b)
	return nil
}

func (t *target) Int(i int64) error {
	if next, err := t.indirect(); next != nil || err != nil {
		if err != nil {
			return err
		}
		return next.Int(i)
	}
	if t.d.Category == Scalar && setExact(t.rv, value.Int(i)) {
		return nil
	}
	return t.mismatch("integer " + strconv.FormatInt(i, 10))
}

func (t *target) Uint(u uint64) error {
	if next, err := t.indirect(); next != nil || err != nil {
		if err != nil {
			return err
		}
		return next.Uint(u)
	}
	if t.d.Category == Scalar && setExact(t.rv, value.Uint(u)) {
		return nil
	}
	return t.mismatch("integer " + strconv.FormatUint(u, 10))
}

func (t *target) Float(f float64, bitSize int) error {
	if next, err := t.indirect(); next != nil || err != nil {
		if err != nil {
			return err
		}
		return next.Float(f, bitSize)
	}
	if t.d.Category == Scalar && setExact(t.rv, value.Float(f)) {
		return nil
	}
	return t.mismatch("float " + strconv.FormatFloat(f, 'g', -1, bitSize))
}

func (t *target) Number(lit string) error {
	if next, err := t.indirect(); next != nil || err != nil {
		if err != nil {
			return err
		}
		return next.Number(lit)
	}
	if t.d.Category != Scalar {
		return t.mismatch("number " + lit)
	}
	ok := false
	switch t.rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var n int64
		if n, ok = wholeInt[int64](lit); ok && !t.rv.OverflowInt(n) {
			t.rv.SetInt(n)
			return nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		var n uint64
		if n, ok = wholeInt[uint64](lit); ok && !t.rv.OverflowUint(n) {
			t.rv.SetUint(n)
			return nil
		}
	case reflect.Float32:
		var f float32
		if f, ok = wholeFloat[float32](lit); ok {
			t.rv.SetFloat(float64(f))
			return nil
		}
	case reflect.Float64:
		var f float64
		if f, ok = wholeFloat[float64](lit); ok {
			t.rv.SetFloat(f)
			return nil
		}
	}
	return t.mismatch("number " + lit)
}

// setExact stores a numeric Value into a scalar destination when the
// conversion loses nothing.
func setExact(rv reflect.Value, n value.Value) bool {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		const sentinel = -1 << 63
		i := n.GetInt(sentinel)
		if i == sentinel && !value.Equal(n, value.Int(sentinel)) || rv.OverflowInt(i) {
			return false
		}
		rv.SetInt(i)
		return true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		const sentinel = 1<<64 - 1
		u := n.GetUint(sentinel)
		if u == sentinel && !value.Equal(n, value.Uint(sentinel)) || rv.OverflowUint(u) {
			return false
		}
		rv.SetUint(u)
		return true
	case reflect.Float32, reflect.Float64:
		if n.Kind() == value.KindFloat {
			f := n.GetFloat(0)
			if rv.OverflowFloat(f) {
				return false
			}
			rv.SetFloat(f)
			return true
		}
		f, ok := exactFloat(n)
		if !ok || rv.Kind() == reflect.Float32 && float64(float32(f)) != f {
			return false
		}
		rv.SetFloat(f)
		return true
	}
	return false
}

func exactFloat(n value.Value) (float64, bool) {
	const sentinel = 0.5
	f := n.GetFloat(sentinel)
	return f, f != sentinel
}

// ============================================================
// Strings
// ============================================================

func (t *target) String(s string) error {
	if next, err := t.indirect(); next != nil || err != nil {
		if err != nil {
			return err
		}
		return next.String(s)
	}
	if t.d.Category != String {
		return t.mismatch("string")
	}
	if t.d.text {
		u := t.rv.Addr().Interface().(encoding.TextUnmarshaler)
		if err := u.UnmarshalText([]byte(s)); err != nil {
			return &HookError{Type: t.rv.Type(), Err: err}
		}
		return nil
	}
	t.rv.SetString(s)
	return nil
}

// ============================================================
// Arrays and tuples
// ============================================================

func (t *target) Array() (ArrayBuilder, error) {
	if next, err := t.indirect(); next != nil || err != nil {
		if err != nil {
			return nil, err
		}
		return next.Array()
	}
	switch t.d.Category {
	case Array:
		if t.rv.Kind() == reflect.Slice {
			t.rv.Set(reflect.MakeSlice(t.rv.Type(), 0, 0))
			return &sliceBuilder{rv: t.rv}, nil
		}
		t.rv.SetZero()
		return &fixedBuilder{t: t, n: t.rv.Len(), at: t.rv.Index}, nil
	case Tuple:
		t.rv.SetZero()
		fields := t.d.Fields
		return &fixedBuilder{t: t, n: len(fields), at: func(i int) reflect.Value {
			return t.rv.Field(fields[i].Index[0])
		}}, nil
	}
	return nil, t.mismatch("array")
}

type sliceBuilder struct {
	rv reflect.Value
}

func (b *sliceBuilder) Elem() (Builder, error) {
	b.rv.Set(reflect.Append(b.rv, reflect.Zero(b.rv.Type().Elem())))
	return Target(b.rv.Index(b.rv.Len() - 1))
}

func (b *sliceBuilder) End() error { return nil }

// fixedBuilder fills Go arrays and tuples, which require an exact
// element count.
type fixedBuilder struct {
	t  *target
	n  int
	i  int
	at func(int) reflect.Value
}

func (b *fixedBuilder) Elem() (Builder, error) {
	if b.i >= b.n {
		return nil, b.t.mismatch("array longer than " + strconv.Itoa(b.n))
	}
	b.i++
	return Target(b.at(b.i - 1))
}

func (b *fixedBuilder) End() error {
	if b.i != b.n {
		return b.t.mismatch("array of " + strconv.Itoa(b.i) + " elements, want " + strconv.Itoa(b.n))
	}
	return nil
}

// ============================================================
// Maps and records
// ============================================================

func (t *target) Object() (ObjectBuilder, error) {
	if next, err := t.indirect(); next != nil || err != nil {
		if err != nil {
			return nil, err
		}
		return next.Object()
	}
	switch t.d.Category {
	case Map:
		t.rv.Set(reflect.MakeMap(t.rv.Type()))
		return &mapBuilder{t: t}, nil
	case Record:
		t.rv.SetZero()
		return &recordBuilder{t: t}, nil
	}
	return nil, t.mismatch("object")
}

type mapBuilder struct {
	t       *target
	key     reflect.Value
	pending reflect.Value
}

func (b *mapBuilder) commit() {
	if b.pending.IsValid() {
		b.t.rv.SetMapIndex(b.key, b.pending)
		b.pending = reflect.Value{}
	}
}

func (b *mapBuilder) Key(k string) (Builder, error) {
	b.commit()
	key, err := parseMapKey(b.t.d, k)
	if err != nil {
		return nil, err
	}
	b.key = key
	b.pending = reflect.New(b.t.rv.Type().Elem()).Elem()
	return Target(b.pending)
}

func (b *mapBuilder) End() error {
	b.commit()
	return nil
}

func parseMapKey(d *Descriptor, k string) (reflect.Value, error) {
	kt := d.Type.Key()
	switch d.mapKey {
	case keyString:
		return reflect.ValueOf(k).Convert(kt), nil
	case keyText:
		p := reflect.New(kt)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(k)); err != nil {
			return reflect.Value{}, &HookError{Type: kt, Err: err}
		}
		return p.Elem(), nil
	case keyInt:
		n, err := strconv.ParseInt(k, 10, 64)
		kv := reflect.New(kt).Elem()
		if err != nil || kv.OverflowInt(n) {
			return reflect.Value{}, &MismatchError{Type: kt, Got: "key " + strconv.Quote(k)}
		}
		kv.SetInt(n)
		return kv, nil
	default:
		n, err := strconv.ParseUint(k, 10, 64)
		kv := reflect.New(kt).Elem()
		if err != nil || kv.OverflowUint(n) {
			return reflect.Value{}, &MismatchError{Type: kt, Got: "key " + strconv.Quote(k)}
		}
		kv.SetUint(n)
		return kv, nil
	}
}

type recordBuilder struct {
	t *target
}

// Key ignores members that match no field.
func (b *recordBuilder) Key(k string) (Builder, error) {
	f, ok := b.t.d.Field(k)
	if !ok {
		return Discard, nil
	}
	fv, ok := fieldByIndex(b.t.rv, f.Index, true)
	if !ok {
		return Discard, nil
	}
	return Target(fv)
}

func (b *recordBuilder) End() error { return nil }
