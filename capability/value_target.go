package capability

import (
	"github.com/owacoder/skate-sub000/value"
)

// ValueTarget returns a Builder that stores one document into v.
func ValueTarget(v *value.Value) Builder {
	return &valueTarget{v: v}
}

// collect builds a document into a private Value and hands it to done
// once the document is complete.
func collect(done func(value.Value) error) Builder {
	t := &valueTarget{v: new(value.Value)}
	t.done = func() error { return done(t.v.Take()) }
	return t
}

type valueTarget struct {
	v    *value.Value
	done func() error
}

func (t *valueTarget) finish() error {
	if t.done == nil {
		return nil
	}
	return t.done()
}

func (t *valueTarget) Null() error {
	t.v.Reset()
	return t.finish()
}

func (t *valueTarget) Bool(b bool) error {
	*t.v = value.Bool(b)
	return t.finish()
}

func (t *valueTarget) Int(i int64) error {
	*t.v = value.Int(i)
	return t.finish()
}

func (t *valueTarget) Uint(u uint64) error {
	*t.v = value.Uint(u)
	return t.finish()
}

func (t *valueTarget) Float(f float64, _ int) error {
	*t.v = value.Float(f)
	return t.finish()
}

func (t *valueTarget) Number(lit string) error {
	n, ok := NumberValue(lit)
	if !ok {
		return &MismatchError{Type: valueType, Got: "number " + lit}
	}
	*t.v = n
	return t.finish()
}

func (t *valueTarget) String(s string) error {
	*t.v = value.Str(s)
	return t.finish()
}

func (t *valueTarget) Array() (ArrayBuilder, error) {
	*t.v = value.Array()
	return &valueArray{t: t}, nil
}

func (t *valueTarget) Object() (ObjectBuilder, error) {
	*t.v = value.Map()
	return &valueObject{t: t}, nil
}

func (t *valueTarget) Clear() {
	t.v.Reset()
}

type valueArray struct {
	t *valueTarget
}

func (a *valueArray) Elem() (Builder, error) {
	return &valueTarget{v: a.t.v.At(a.t.v.Len())}, nil
}

func (a *valueArray) End() error {
	return a.t.finish()
}

type valueObject struct {
	t *valueTarget
}

// Key replaces an earlier member with the same key.
func (o *valueObject) Key(k string) (Builder, error) {
	slot := o.t.v.Key(k)
	slot.Reset()
	return &valueTarget{v: slot}, nil
}

func (o *valueObject) End() error {
	return o.t.finish()
}
