package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// Constructor and Kind Tests
// ============================================================

func TestZeroValueIsNull(t *testing.T) {
	var v Value
	assert.True(t, v.IsNull())
	assert.Equal(t, KindNull, v.Kind())
	assert.Equal(t, "null", v.String())
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		kind Kind
		str  string
	}{
		{"bool", Bool(true), KindBool, "true"},
		{"int", Int(-3), KindInt, "-3"},
		{"uint", Uint(math.MaxUint64), KindUint, "18446744073709551615"},
		{"float", Float(1.5), KindFloat, "1.5"},
		{"string", Str("hi"), KindString, `"hi"`},
		{"empty array", Array(), KindArray, "[]"},
		{"empty object", Map(), KindObject, "{}"},
		{"nested", Map(Entry("b", Int(1)), Entry("a", Array(Null()))), KindObject, `{"a":[null],"b":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.v.Kind())
			assert.Equal(t, tt.str, tt.v.String())
		})
	}
}

func TestMapDuplicateKeyLastWins(t *testing.T) {
	v := Map(Entry("k", Int(1)), Entry("k", Int(2)))
	assert.Equal(t, 1, v.Len())
	got, ok := v.Lookup("k")
	require.True(t, ok)
	assert.Equal(t, int64(2), got.GetInt(0))
}

// ============================================================
// Retag Tests
// ============================================================

func TestRetagDropsPayload(t *testing.T) {
	v := Str("payload")
	*v.MutInt() = 7
	assert.Equal(t, KindInt, v.Kind())
	assert.Equal(t, "", v.GetString(""))

	arr := v.MutArray()
	assert.Empty(t, *arr, "retag must install an empty array")
	*arr = append(*arr, Int(1))

	obj := v.MutObject()
	assert.Equal(t, 0, obj.Len(), "retag must install an empty object")
	assert.Nil(t, v.Elems())

	*v.MutString() = "back"
	assert.Nil(t, v.Obj())
	assert.Equal(t, "back", v.GetString(""))
}

func TestMutKeepsPayloadOnSameKind(t *testing.T) {
	v := Array(Int(1), Int(2))
	assert.Len(t, *v.MutArray(), 2)

	s := Str("x")
	assert.Equal(t, "x", *s.MutString())
}

// ============================================================
// Auto-vivification Tests
// ============================================================

func TestAtGrowsWithNull(t *testing.T) {
	var v Value
	*v.At(2) = Str("c")
	require.Equal(t, KindArray, v.Kind())
	require.Equal(t, 3, v.Len())
	assert.True(t, v.Elems()[0].IsNull())
	assert.True(t, v.Elems()[1].IsNull())
	assert.Equal(t, "c", v.Elems()[2].GetString(""))
}

func TestAtNegativePanics(t *testing.T) {
	var v Value
	assert.Panics(t, func() { v.At(-1) })
}

func TestKeyVivifies(t *testing.T) {
	v := Int(1)
	*v.Key("a").Key("b") = Bool(true)
	assert.Equal(t, `{"a":{"b":true}}`, v.String())

	_, ok := v.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, v.Len(), "Lookup must not insert")
}

func TestElemBounds(t *testing.T) {
	v := Array(Int(1))
	_, ok := v.Elem(1)
	assert.False(t, ok)
	_, ok = v.Elem(-1)
	assert.False(t, ok)
	_, ok = Int(1).Elem(0)
	assert.False(t, ok)
}

// ============================================================
// Getter Tests
// ============================================================

func TestGetNumericExactness(t *testing.T) {
	assert.Equal(t, int64(5), Uint(5).GetInt(-1))
	assert.Equal(t, int64(-1), Uint(math.MaxUint64).GetInt(-1))
	assert.Equal(t, uint64(9), Int(-1).GetUint(9))
	assert.Equal(t, int64(3), Float(3).GetInt(0))
	assert.Equal(t, int64(0), Float(3.5).GetInt(0))
	assert.Equal(t, int64(0), Float(math.Inf(1)).GetInt(0))
	assert.Equal(t, int64(0), Float(9223372036854775808).GetInt(0))
	assert.Equal(t, uint64(1)<<63, Float(9223372036854775808).GetUint(0))
	assert.Equal(t, 2.0, Int(2).GetFloat(0))
	assert.Equal(t, 0.5, Int(9007199254740993).GetFloat(0.5), "2^53+1 is not exact in float64")
	assert.Equal(t, 0.5, Uint(math.MaxUint64).GetFloat(0.5))
}

func TestGetNoStringCoercion(t *testing.T) {
	assert.Equal(t, int64(7), Str("12").GetInt(7))
	assert.Equal(t, "d", Int(12).GetString("d"))
	assert.False(t, Str("true").GetBool(false))
}

func TestGetArrayIsCopy(t *testing.T) {
	v := Array(Array(Int(1)))
	got := v.GetArray(nil)
	*got[0].At(0) = Int(99)
	assert.Equal(t, "[[1]]", v.String())
	assert.Nil(t, Int(1).GetArray(nil))
}

// ============================================================
// Ownership Tests
// ============================================================

func TestCloneIsDeep(t *testing.T) {
	orig := Map(Entry("list", Array(Int(1), Int(2))))
	cp := orig.Clone()
	*cp.Key("list").At(0) = Str("changed")
	cp.Key("extra")

	assert.Equal(t, `{"list":[1,2]}`, orig.String())
	assert.Equal(t, `{"extra":null,"list":["changed",2]}`, cp.String())
}

func TestCopySharesContainers(t *testing.T) {
	orig := Map(Entry("a", Int(1)))
	shared := orig
	*shared.Key("a") = Int(2)
	assert.Equal(t, `{"a":2}`, orig.String())

	owned := orig.Clone()
	*owned.Key("a") = Int(3)
	assert.Equal(t, `{"a":2}`, orig.String())

	// Replacing a copy detaches it.
	shared.Set(Str("x"))
	assert.Equal(t, `{"a":2}`, orig.String())
}

func TestTakeLeavesNull(t *testing.T) {
	v := Array(Int(1))
	got := v.Take()
	assert.True(t, v.IsNull())
	assert.Equal(t, "[1]", got.String())
}

func TestReset(t *testing.T) {
	v := Map(Entry("a", Int(1)))
	v.Reset()
	assert.True(t, v.IsNull())
	assert.Equal(t, 0, v.Len())
}

// ============================================================
// Object Tests
// ============================================================

func TestObjectSortedOperations(t *testing.T) {
	o := &Object{}
	for _, k := range []string{"m", "a", "z", "b"} {
		o.Set(k, Str(k))
	}
	assert.Equal(t, []string{"a", "b", "m", "z"}, o.Keys())
	assert.True(t, o.Has("m"))
	assert.True(t, o.Delete("m"))
	assert.False(t, o.Delete("m"))
	assert.Equal(t, []string{"a", "b", "z"}, o.Keys())

	var seen []string
	for k := range o.All() {
		seen = append(seen, k)
		if k == "b" {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestNilObjectIsEmpty(t *testing.T) {
	var o *Object
	assert.Equal(t, 0, o.Len())
	assert.Nil(t, o.Get("x"))
	assert.Empty(t, o.Keys())
	assert.Equal(t, 0, o.Clone().Len())
}

// ============================================================
// Equality Tests
// ============================================================

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"null", Null(), Null(), true},
		{"int uint", Int(1), Uint(1), true},
		{"int float", Int(-4), Float(-4), true},
		{"uint float", Uint(1 << 63), Float(9223372036854775808), true},
		{"negative int uint", Int(-1), Uint(math.MaxUint64), false},
		{"fraction", Int(1), Float(1.5), false},
		{"nan", Float(math.NaN()), Float(math.NaN()), false},
		{"string vs number", Str("1"), Int(1), false},
		{"arrays", Array(Int(1), Str("x")), Array(Uint(1), Str("x")), true},
		{"array length", Array(Int(1)), Array(), false},
		{"objects", Map(Entry("a", Int(1))), Map(Entry("a", Float(1))), true},
		{"object keys", Map(Entry("a", Int(1))), Map(Entry("b", Int(1))), false},
		{"bool", Bool(true), Bool(false), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
			assert.Equal(t, tt.want, Equal(tt.b, tt.a))
		})
	}
}

// ============================================================
// Interface Conversion Tests
// ============================================================

func TestInterfaceRoundTrip(t *testing.T) {
	v := Map(
		Entry("n", Null()),
		Entry("i", Int(-2)),
		Entry("u", Uint(3)),
		Entry("f", Float(0.25)),
		Entry("s", Str("x")),
		Entry("a", Array(Bool(true))),
	)
	dyn := v.Interface()
	m, ok := dyn.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(-2), m["i"])
	assert.Equal(t, []any{true}, m["a"])

	back, err := FromInterface(dyn)
	require.NoError(t, err)
	assert.True(t, Equal(v, back))
	assert.Equal(t, v.String(), back.String())
}

func TestFromInterfaceWidths(t *testing.T) {
	v, err := FromInterface([]any{int8(-1), uint16(2), float32(0.5), map[string]Value{"k": Int(1)}})
	require.NoError(t, err)
	assert.Equal(t, `[-1,2,0.5,{"k":1}]`, v.String())
	assert.Equal(t, KindUint, v.Elems()[1].Kind())
}

func TestFromInterfaceUnsupported(t *testing.T) {
	_, err := FromInterface(map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `key "ch"`)
}

func TestIsFinite(t *testing.T) {
	assert.True(t, Int(1).IsFinite())
	assert.True(t, Float(1).IsFinite())
	assert.False(t, Float(math.Inf(-1)).IsFinite())
	assert.False(t, Str("1").IsFinite())
}
