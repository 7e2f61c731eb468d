package core

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ValueKind enumerates the shapes a context value may take.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueString
	ValueNumber
	ValueBool
	ValueList
	ValueMap
)

// Value is the tagged union used for user-context values and tool arguments.
// Serialization happens only at the store and reasoning-call boundaries;
// everything in between works with the typed accessors.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	list []Value
	m    map[string]Value
}

func StringValue(s string) Value        { return Value{kind: ValueString, str: s} }
func NumberValue(n float64) Value       { return Value{kind: ValueNumber, num: n} }
func BoolValue(b bool) Value            { return Value{kind: ValueBool, b: b} }
func ListValue(items []Value) Value     { return Value{kind: ValueList, list: items} }
func MapValue(m map[string]Value) Value { return Value{kind: ValueMap, m: m} }

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) String() (string, bool)  { return v.str, v.kind == ValueString }
func (v Value) Number() (float64, bool) { return v.num, v.kind == ValueNumber }
func (v Value) Bool() (bool, bool)      { return v.b, v.kind == ValueBool }
func (v Value) List() ([]Value, bool)   { return v.list, v.kind == ValueList }

func (v Value) Map() (map[string]Value, bool) {
	return v.m, v.kind == ValueMap
}

// Keys returns sorted map keys for deterministic iteration.
func (v Value) Keys() []string {
	if v.kind != ValueMap {
		return nil
	}
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueNull:
		return []byte("null"), nil
	case ValueString:
		return json.Marshal(v.str)
	case ValueNumber:
		return json.Marshal(v.num)
	case ValueBool:
		return json.Marshal(v.b)
	case ValueList:
		return json.Marshal(v.list)
	case ValueMap:
		return json.Marshal(v.m)
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.kind)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := valueFromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func valueFromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Value{}, nil
	case string:
		return StringValue(t), nil
	case float64:
		return NumberValue(t), nil
	case bool:
		return BoolValue(t), nil
	case []any:
		list := make([]Value, 0, len(t))
		for _, item := range t {
			v, err := valueFromAny(item)
			if err != nil {
				return Value{}, err
			}
			list = append(list, v)
		}
		return ListValue(list), nil
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			v, err := valueFromAny(item)
			if err != nil {
				return Value{}, err
			}
			m[k] = v
		}
		return MapValue(m), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}
