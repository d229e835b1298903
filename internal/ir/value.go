package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Value is a sealed interface over the runtime values a game program
// manipulates: variable contents, bindings, move parameters and query results.
// Only Int, Bool, Str, List and Object implement it.
// There is no float variant; every number in a game is an int64.
type Value interface {
	gameValue() // Sealed - only these types implement it
}

// Int is an integer value. Player indices are Ints.
type Int int64

func (Int) gameValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) gameValue() {}

// Str is a string value. Zone ids, token ids, seats and enum members are Strs.
type Str string

func (Str) gameValue() {}

// List is an ordered sequence of values.
type List []Value

func (List) gameValue() {}

// Object is a map of string keys to values.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) gameValue() {}

// Kind returns a short name for the value's variant, used in error payloads.
func Kind(v Value) string {
	switch v.(type) {
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Str:
		return "string"
	case List:
		return "list"
	case Object:
		return "object"
	case nil:
		return "nil"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// AsInt returns the integer held by v.
func AsInt(v Value) (int64, bool) {
	n, ok := v.(Int)
	return int64(n), ok
}

// AsBool returns the boolean held by v.
func AsBool(v Value) (bool, bool) {
	b, ok := v.(Bool)
	return bool(b), ok
}

// AsStr returns the string held by v.
func AsStr(v Value) (string, bool) {
	s, ok := v.(Str)
	return string(s), ok
}

// AsList returns the list held by v.
func AsList(v Value) (List, bool) {
	l, ok := v.(List)
	return l, ok
}

// Equal reports deep equality. Values of different variants are never equal.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Int:
		y, ok := b.(Int)
		return ok && x == y
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Str:
		y, ok := b.(Str)
		return ok && x == y
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Object:
		y, ok := b.(Object)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	default:
		return a == nil && b == nil
	}
}

// Contains reports whether list holds a value equal to v.
func Contains(list List, v Value) bool {
	for _, item := range list {
		if Equal(item, v) {
			return true
		}
	}
	return false
}

// kindRank orders variants for CompareValues.
func kindRank(v Value) int {
	switch v.(type) {
	case Bool:
		return 0
	case Int:
		return 1
	case Str:
		return 2
	case List:
		return 3
	case Object:
		return 4
	default:
		return 5
	}
}

// CompareValues totally orders values: first by variant, then by content.
// Strings compare by UTF-16 code units so the order matches canonical JSON.
func CompareValues(a, b Value) int {
	ra, rb := kindRank(a), kindRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch x := a.(type) {
	case Bool:
		y := b.(Bool)
		switch {
		case x == y:
			return 0
		case !bool(x):
			return -1
		default:
			return 1
		}
	case Int:
		y := b.(Int)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	case Str:
		return compareKeysRFC8785(string(x), string(b.(Str)))
	case List:
		y := b.(List)
		for i := 0; i < len(x) && i < len(y); i++ {
			if c := CompareValues(x[i], y[i]); c != 0 {
				return c
			}
		}
		return len(x) - len(y)
	case Object:
		ca, _ := MarshalCanonical(x)
		cb, _ := MarshalCanonical(b.(Object))
		return bytes.Compare(ca, cb)
	default:
		return 0
	}
}

// Describe renders a value for bind-name templates and error messages.
// Strings render bare; lists render as [a,b].
func Describe(v Value) string {
	switch x := v.(type) {
	case Int:
		return strconv.FormatInt(int64(x), 10)
	case Bool:
		return strconv.FormatBool(bool(x))
	case Str:
		return string(x)
	case List:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = Describe(item)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case Object:
		data, err := MarshalCanonical(x)
		if err != nil {
			return "{?}"
		}
		return string(data)
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units as RFC 8785 requires.
// Go's native string comparison is by UTF-8 bytes, which orders some
// supplementary-plane characters differently.
func compareKeysRFC8785(a, b string) int {
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
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}

// MarshalJSON encodes a List as canonical JSON.
func (l List) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(l)
}

// MarshalJSON encodes an Object as canonical JSON.
func (o Object) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(o)
}

// UnmarshalValue decodes JSON into a Value.
// Floats and null are rejected.
func UnmarshalValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return FromAny(raw)
}

// FromAny converts a decoded JSON/YAML/CUE value into a Value.
// Accepts json.Number, Go integer types and integral float64 (YAML and
// generic decoders produce those); rejects fractional numbers and null.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is not a game value")
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return Str(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d out of int64 range", val)
		}
		return Int(int64(val)), nil
	case float64:
		if val != math.Trunc(val) || math.Abs(val) > 1<<53 {
			return nil, fmt.Errorf("fractional numbers are not game values: %v", val)
		}
		return Int(int64(val)), nil
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			return nil, fmt.Errorf("fractional numbers are not game values: %s", s)
		}
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", s)
		}
		return Int(n), nil
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			item, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list[i] = item
		}
		return list, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			item, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = item
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// ToAny converts a Value to plain Go types for non-canonical encoders.
func ToAny(v Value) any {
	switch x := v.(type) {
	case Int:
		return int64(x)
	case Bool:
		return bool(x)
	case Str:
		return string(x)
	case List:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = ToAny(item)
		}
		return out
	case Object:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = ToAny(item)
		}
		return out
	default:
		return nil
	}
}
