package bridge

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/owacoder/skate-sub000/value"
)

// maxSafeInteger is the largest magnitude a double holds for every
// smaller integer as well.
const maxSafeInteger = 1 << 53

// ToProto converts v to a google.protobuf.Value. Protobuf numbers are
// doubles, so integers beyond ±2^53 are rejected rather than rounded.
func ToProto(v value.Value) (*structpb.Value, error) {
	switch v.Kind() {
	case value.KindNull:
		return structpb.NewNullValue(), nil
	case value.KindBool:
		return structpb.NewBoolValue(v.GetBool(false)), nil
	case value.KindInt:
		i := v.GetInt(0)
		if i > maxSafeInteger || i < -maxSafeInteger {
			return nil, errorf("proto", "integer %d is not exactly representable as a double", i)
		}
		return structpb.NewNumberValue(float64(i)), nil
	case value.KindUint:
		u := v.GetUint(0)
		if u > maxSafeInteger {
			return nil, errorf("proto", "integer %d is not exactly representable as a double", u)
		}
		return structpb.NewNumberValue(float64(u)), nil
	case value.KindFloat:
		return structpb.NewNumberValue(v.GetFloat(0)), nil
	case value.KindString:
		return structpb.NewStringValue(v.GetString("")), nil
	case value.KindArray:
		list := &structpb.ListValue{Values: make([]*structpb.Value, 0, v.Len())}
		for i, e := range v.Elems() {
			pv, err := ToProto(e)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			list.Values = append(list.Values, pv)
		}
		return structpb.NewListValue(list), nil
	case value.KindObject:
		st := &structpb.Struct{Fields: make(map[string]*structpb.Value, v.Len())}
		for _, m := range v.Obj().Members() {
			pv, err := ToProto(m.Value)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", m.Key, err)
			}
			st.Fields[m.Key] = pv
		}
		return structpb.NewStructValue(st), nil
	}
	return nil, errorf("proto", "unknown kind %s", v.Kind())
}

// FromProto converts a google.protobuf.Value. Every number becomes a
// Float.
func FromProto(pv *structpb.Value) (value.Value, error) {
	return fromProto(pv, 0, DefaultMaxDepth)
}

func fromProto(pv *structpb.Value, depth, limit int) (value.Value, error) {
	switch k := pv.GetKind().(type) {
	case *structpb.Value_NullValue:
		return value.Null(), nil
	case *structpb.Value_BoolValue:
		return value.Bool(k.BoolValue), nil
	case *structpb.Value_NumberValue:
		return value.Float(k.NumberValue), nil
	case *structpb.Value_StringValue:
		return value.Str(k.StringValue), nil
	case *structpb.Value_ListValue:
		if depth >= limit {
			return value.Null(), errorf("proto", "nesting exceeds %d levels", limit)
		}
		arr := value.Array()
		elems := arr.MutArray()
		for _, e := range k.ListValue.GetValues() {
			ev, err := fromProto(e, depth+1, limit)
			if err != nil {
				return value.Null(), err
			}
			*elems = append(*elems, ev)
		}
		return arr, nil
	case *structpb.Value_StructValue:
		if depth >= limit {
			return value.Null(), errorf("proto", "nesting exceeds %d levels", limit)
		}
		m := value.Map()
		obj := m.MutObject()
		for key, e := range k.StructValue.GetFields() {
			ev, err := fromProto(e, depth+1, limit)
			if err != nil {
				return value.Null(), err
			}
			obj.Set(key, ev)
		}
		return m, nil
	}
	return value.Null(), errorf("proto", "value has no kind")
}

// MarshalProto encodes v as a binary google.protobuf.Value message with
// deterministic map ordering.
func MarshalProto(v value.Value) ([]byte, error) {
	pv, err := ToProto(v)
	if err != nil {
		return nil, err
	}
	data, err := proto.MarshalOptions{Deterministic: true}.Marshal(pv)
	if err != nil {
		return nil, fmt.Errorf("bridge: proto: %w", err)
	}
	return data, nil
}

// UnmarshalProto decodes a binary google.protobuf.Value message.
func UnmarshalProto(data []byte) (value.Value, error) {
	return unmarshalProto(data, DefaultMaxDepth)
}

func unmarshalProto(data []byte, limit int) (value.Value, error) {
	var pv structpb.Value
	if err := proto.Unmarshal(data, &pv); err != nil {
		return value.Null(), fmt.Errorf("bridge: proto: %w", err)
	}
	return fromProto(&pv, 0, limit)
}

type protoFormat struct{ opts Options }

func (protoFormat) Name() string { return "proto" }

func (protoFormat) Marshal(v value.Value) ([]byte, error) { return MarshalProto(v) }

func (f protoFormat) Unmarshal(data []byte) (value.Value, error) {
	return unmarshalProto(data, f.opts.limit())
}
