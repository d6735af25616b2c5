package value

import (
	"iter"
	"slices"
	"strings"
)

// Member is a key/value pair of an Object.
type Member struct {
	Key   string
	Value Value
}

// Object is a string-keyed map whose members are kept sorted by key.
// The zero Object is empty and ready to use.
type Object struct {
	members []Member
}

// NewObject returns an empty object with room for n members.
func NewObject(n int) *Object {
	return &Object{members: make([]Member, 0, n)}
}

// Len returns the number of members. A nil Object is empty.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.members)
}

func (o *Object) search(key string) (int, bool) {
	return slices.BinarySearchFunc(o.members, key, func(m Member, k string) int {
		return strings.Compare(m.Key, k)
	})
}

// Get returns a pointer to the value stored under key, or nil.
// The pointer is invalidated by the next insertion or deletion.
func (o *Object) Get(key string) *Value {
	if o == nil {
		return nil
	}
	if i, ok := o.search(key); ok {
		return &o.members[i].Value
	}
	return nil
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	return o.Get(key) != nil
}

// Set stores v under key, replacing any previous value.
func (o *Object) Set(key string, v Value) {
	i, ok := o.search(key)
	if ok {
		o.members[i].Value = v
		return
	}
	o.members = slices.Insert(o.members, i, Member{Key: key, Value: v})
}

// Key returns a pointer to the value stored under key, inserting a Null
// member first if the key is missing.
func (o *Object) Key(key string) *Value {
	i, ok := o.search(key)
	if !ok {
		o.members = slices.Insert(o.members, i, Member{Key: key})
	}
	return &o.members[i].Value
}

// Delete removes key and reports whether it was present.
func (o *Object) Delete(key string) bool {
	i, ok := o.search(key)
	if !ok {
		return false
	}
	o.members = slices.Delete(o.members, i, i+1)
	return true
}

// Members returns the members in key order. The slice is owned by o.
func (o *Object) Members() []Member {
	if o == nil {
		return nil
	}
	return o.members
}

// Keys returns the keys in sorted order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.Len())
	for _, m := range o.Members() {
		keys = append(keys, m.Key)
	}
	return keys
}

// All iterates over the members in key order.
func (o *Object) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, m := range o.Members() {
			if !yield(m.Key, m.Value) {
				return
			}
		}
	}
}

// Clone returns a deep copy of o.
func (o *Object) Clone() *Object {
	if o == nil {
		return &Object{}
	}
	out := &Object{members: make([]Member, len(o.members))}
	for i, m := range o.members {
		out.members[i] = Member{Key: m.Key, Value: m.Value.Clone()}
	}
	return out
}
