package capability

import (
	"reflect"
	"strings"
)

// TagName is the struct tag key read by Record and Tuple classification.
const TagName = "skate"

// Field is one encoded struct field.
type Field struct {
	Name      string
	Index     []int
	Type      reflect.Type
	OmitEmpty bool
	tagged    bool
}

// tagOptions is the comma-separated list after the name in a struct tag.
type tagOptions string

func parseTag(tag string) (string, tagOptions) {
	name, opts, _ := strings.Cut(tag, ",")
	return name, tagOptions(opts)
}

func (o tagOptions) Contains(opt string) bool {
	s := string(o)
	for s != "" {
		var name string
		name, s, _ = strings.Cut(s, ",")
		if name == opt {
			return true
		}
	}
	return false
}

// isTuple reports whether t declares the blank tuple marker field.
func isTuple(t reflect.Type) bool {
	for i := range t.NumField() {
		f := t.Field(i)
		if f.Name != "_" {
			continue
		}
		if _, opts := parseTag(f.Tag.Get(TagName)); opts.Contains("tuple") {
			return true
		}
	}
	return false
}

// tupleFields returns the exported fields of t in declaration order.
func tupleFields(t reflect.Type) []Field {
	var fields []Field
	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Tag.Get(TagName) == "-" {
			continue
		}
		fields = append(fields, Field{Name: sf.Name, Index: []int{i}, Type: sf.Type})
	}
	return fields
}

// recordFields resolves the encoded fields of t, flattening untagged
// embedded structs breadth first. A name found at a shallower depth hides
// deeper ones; at equal depth a single tagged field wins and otherwise the
// name is dropped. The result is sorted by declaration index path.
func recordFields(t reflect.Type) []Field {
	type level struct {
		typ   reflect.Type
		index []int
	}

	var (
		current []level
		next    = []level{{typ: t}}
		visited = map[reflect.Type]bool{}
		byName  = map[string][]Field{}
		order   []string
	)

	for len(next) > 0 {
		current, next = next, nil
		found := map[string][]Field{}

		for _, lv := range current {
			if visited[lv.typ] {
				continue
			}
			visited[lv.typ] = true

			for i := range lv.typ.NumField() {
				sf := lv.typ.Field(i)
				if sf.Name == "_" {
					continue
				}
				ft := sf.Type
				if sf.Anonymous {
					if ft.Kind() == reflect.Pointer {
						if !sf.IsExported() {
							continue
						}
						ft = ft.Elem()
					}
					if !sf.IsExported() && ft.Kind() != reflect.Struct {
						continue
					}
				} else if !sf.IsExported() {
					continue
				}

				tag := sf.Tag.Get(TagName)
				if tag == "-" {
					continue
				}
				name, opts := parseTag(tag)
				index := append(append([]int(nil), lv.index...), i)

				if sf.Anonymous && name == "" && ft.Kind() == reflect.Struct {
					next = append(next, level{typ: ft, index: index})
					continue
				}

				f := Field{
					Name:      name,
					Index:     index,
					Type:      sf.Type,
					OmitEmpty: opts.Contains("omitempty"),
					tagged:    name != "",
				}
				if f.Name == "" {
					f.Name = sf.Name
				}
				found[f.Name] = append(found[f.Name], f)
			}
		}

		for name, fs := range found {
			if _, hidden := byName[name]; hidden {
				continue
			}
			byName[name] = fs
			order = append(order, name)
		}
	}

	var fields []Field
	for _, name := range order {
		if f, ok := dominant(byName[name]); ok {
			fields = append(fields, f)
		}
	}
	sortByIndex(fields)
	return fields
}

func dominant(fs []Field) (Field, bool) {
	if len(fs) == 1 {
		return fs[0], true
	}
	var winner Field
	tagged := 0
	for _, f := range fs {
		if f.tagged {
			winner = f
			tagged++
		}
	}
	return winner, tagged == 1
}

func sortByIndex(fields []Field) {
	for i := 1; i < len(fields); i++ {
		for j := i; j > 0 && indexLess(fields[j].Index, fields[j-1].Index); j-- {
			fields[j], fields[j-1] = fields[j-1], fields[j]
		}
	}
}

func indexLess(a, b []int) bool {
	for k := range min(len(a), len(b)) {
		if a[k] != b[k] {
			return a[k] < b[k]
		}
	}
	return len(a) < len(b)
}

// fieldByIndex returns the field at index, allocating nil embedded
// pointers on the way when alloc is set. It reports false when a nil
// embedded pointer blocks the path and alloc is not set.
func fieldByIndex(v reflect.Value, index []int, alloc bool) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !alloc || !v.CanSet() {
					return reflect.Value{}, false
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

// isEmptyValue reports whether v is omitted by an omitempty field.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Interface, reflect.Pointer:
		return v.IsZero()
	}
	return false
}
