package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface for the JSON-shaped data model IR is encoded
// into. Only the types below implement it.
// There is no float variant: float literals encode as strings.
type Value interface {
	value()
}

// Null is JSON null.
type Null struct{}

// String is a JSON string.
type String string

// Integer is a JSON integer.
type Integer int64

// Boolean is a JSON boolean.
type Boolean bool

// List is a JSON array.
type List []Value

// Object is a JSON object. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Null) value()    {}
func (String) value()  {}
func (Integer) value() {}
func (Boolean) value() {}
func (List) value()    {}
func (Object) value()  {}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings orders by UTF-8 bytes, which differs for
// supplementary-plane characters.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	return len(a16) - len(b16)
}

// DecodeValue parses JSON into a Value. Numbers must be integers.
func DecodeValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return fromAny(raw)
}

func fromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Boolean(val), nil
	case string:
		return String(val), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %s", val)
		}
		return Integer(n), nil
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			ev, err := fromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list[i] = ev
		}
		return list, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			ev, err := fromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = ev
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported JSON value %T", v)
	}
}
