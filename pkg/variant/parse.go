package variant

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValidSignature reports whether sig is a single complete type this package
// can represent.
func ValidSignature(sig string) bool {
	n, err := completeType(sig)
	return err == nil && n == len(sig)
}

// completeType returns the length of the first complete type in sig.
func completeType(sig string) (int, error) {
	if sig == "" {
		return 0, fmt.Errorf("empty signature")
	}

	switch sig[0] {
	case 'b', 'y', 'n', 'q', 'i', 'u', 'x', 't', 'd', 's':
		return 1, nil
	case 'a':
		if strings.HasPrefix(sig, "a{sv}") {
			return len("a{sv}"), nil
		}
		return 0, fmt.Errorf("unsupported array signature %q", sig)
	case '(':
		pos := 1
		for pos < len(sig) && sig[pos] != ')' {
			n, err := completeType(sig[pos:])
			if err != nil {
				return 0, err
			}
			pos += n
		}
		if pos >= len(sig) {
			return 0, fmt.Errorf("unterminated tuple in %q", sig)
		}
		return pos + 1, nil
	default:
		return 0, fmt.Errorf("unsupported signature %q", sig)
	}
}

// tupleMembers splits "(sib)" into ["s", "i", "b"].
func tupleMembers(sig string) ([]string, error) {
	inner := sig[1 : len(sig)-1]
	var members []string
	for inner != "" {
		n, err := completeType(inner)
		if err != nil {
			return nil, err
		}
		members = append(members, inner[:n])
		inner = inner[n:]
	}

	return members, nil
}

// Parse converts a loosely typed value, as decoded from YAML or JSON, into a
// Value of the requested signature.
func Parse(sig string, raw any) (Value, error) {
	if !ValidSignature(sig) {
		return Value{}, fmt.Errorf("invalid signature %q", sig)
	}

	switch sig[0] {
	case 'b':
		switch typed := raw.(type) {
		case bool:
			return NewBool(typed), nil
		case string:
			parsed, err := strconv.ParseBool(typed)
			if err != nil {
				return Value{}, fmt.Errorf("parse boolean %q: %w", typed, err)
			}
			return NewBool(parsed), nil
		}
		return Value{}, fmt.Errorf("cannot use %T as boolean", raw)
	case 'y':
		u, err := toUint(raw, 8)
		return NewByte(uint8(u)), err
	case 'n':
		i, err := toInt(raw, 16)
		return NewInt16(int16(i)), err
	case 'q':
		u, err := toUint(raw, 16)
		return NewUint16(uint16(u)), err
	case 'i':
		i, err := toInt(raw, 32)
		return NewInt32(int32(i)), err
	case 'u':
		u, err := toUint(raw, 32)
		return NewUint32(uint32(u)), err
	case 'x':
		i, err := toInt(raw, 64)
		return NewInt64(i), err
	case 't':
		u, err := toUint(raw, 64)
		return NewUint64(u), err
	case 'd':
		f, err := toFloat(raw)
		return NewDouble(f), err
	case 's':
		switch typed := raw.(type) {
		case string:
			return NewString(typed), nil
		case fmt.Stringer:
			return NewString(typed.String()), nil
		}
		return NewString(fmt.Sprint(raw)), nil
	case 'a':
		entries, ok := raw.(map[string]any)
		if !ok {
			return Value{}, fmt.Errorf("cannot use %T as a{sv}", raw)
		}
		dict := make(map[string]Value, len(entries))
		for key, item := range entries {
			value, err := Infer(item)
			if err != nil {
				return Value{}, fmt.Errorf("entry %q: %w", key, err)
			}
			dict[key] = value
		}
		return NewDict(dict), nil
	default:
		members, err := tupleMembers(sig)
		if err != nil {
			return Value{}, err
		}
		list, ok := raw.([]any)
		if !ok {
			return Value{}, fmt.Errorf("cannot use %T as tuple %s", raw, sig)
		}
		if len(list) != len(members) {
			return Value{}, fmt.Errorf("tuple %s needs %d members, got %d", sig, len(members), len(list))
		}
		items := make([]Value, len(list))
		for i, member := range members {
			item, err := Parse(member, list[i])
			if err != nil {
				return Value{}, fmt.Errorf("tuple member %d: %w", i, err)
			}
			items[i] = item
		}
		return NewTuple(items...), nil
	}
}

// Infer picks a type for an untyped value: booleans stay booleans, integers
// become int64, floats doubles, strings strings, lists tuples and maps a{sv}.
// A map of exactly {type, value} is read as an explicitly typed value.
func Infer(raw any) (Value, error) {
	switch typed := raw.(type) {
	case Value:
		return typed, nil
	case bool:
		return NewBool(typed), nil
	case int:
		return NewInt64(int64(typed)), nil
	case int64:
		return NewInt64(typed), nil
	case int32:
		return NewInt32(typed), nil
	case uint64:
		return NewUint64(typed), nil
	case float64:
		return NewDouble(typed), nil
	case string:
		return NewString(typed), nil
	case []any:
		items := make([]Value, len(typed))
		for i, item := range typed {
			value, err := Infer(item)
			if err != nil {
				return Value{}, fmt.Errorf("tuple member %d: %w", i, err)
			}
			items[i] = value
		}
		return NewTuple(items...), nil
	case map[string]any:
		if sig, value, ok := explicitType(typed); ok {
			return Parse(sig, value)
		}
		return Parse("a{sv}", typed)
	case nil:
		return Value{}, fmt.Errorf("missing value")
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

func explicitType(entries map[string]any) (string, any, bool) {
	if len(entries) != 2 {
		return "", nil, false
	}
	sig, ok := entries["type"].(string)
	if !ok {
		return "", nil, false
	}
	value, ok := entries["value"]
	return sig, value, ok
}

func toInt(raw any, bits int) (int64, error) {
	var value int64
	switch typed := raw.(type) {
	case int:
		value = int64(typed)
	case int64:
		value = typed
	case uint64:
		if typed > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int%d", typed, bits)
		}
		value = int64(typed)
	case float64:
		if typed != math.Trunc(typed) {
			return 0, fmt.Errorf("%v is not an integer", typed)
		}
		value = int64(typed)
	case string:
		parsed, err := strconv.ParseInt(typed, 0, bits)
		if err != nil {
			return 0, fmt.Errorf("parse int%d %q: %w", bits, typed, err)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("cannot use %T as int%d", raw, bits)
	}

	if bits < 64 {
		limit := int64(1) << (bits - 1)
		if value < -limit || value >= limit {
			return 0, fmt.Errorf("%d overflows int%d", value, bits)
		}
	}

	return value, nil
}

func toUint(raw any, bits int) (uint64, error) {
	var value uint64
	switch typed := raw.(type) {
	case int:
		if typed < 0 {
			return 0, fmt.Errorf("%d is negative", typed)
		}
		value = uint64(typed)
	case int64:
		if typed < 0 {
			return 0, fmt.Errorf("%d is negative", typed)
		}
		value = uint64(typed)
	case uint64:
		value = typed
	case float64:
		if typed < 0 || typed != math.Trunc(typed) {
			return 0, fmt.Errorf("%v is not an unsigned integer", typed)
		}
		value = uint64(typed)
	case string:
		parsed, err := strconv.ParseUint(typed, 0, bits)
		if err != nil {
			return 0, fmt.Errorf("parse uint%d %q: %w", bits, typed, err)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("cannot use %T as uint%d", raw, bits)
	}

	if bits < 64 && value >= uint64(1)<<bits {
		return 0, fmt.Errorf("%d overflows uint%d", value, bits)
	}

	return value, nil
}

func toFloat(raw any) (float64, error) {
	switch typed := raw.(type) {
	case float64:
		return typed, nil
	case int:
		return float64(typed), nil
	case int64:
		return float64(typed), nil
	case uint64:
		return float64(typed), nil
	case string:
		parsed, err := strconv.ParseFloat(typed, 64)
		if err != nil {
			return 0, fmt.Errorf("parse double %q: %w", typed, err)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("cannot use %T as double", raw)
	}
}

type jsonValue struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// MarshalJSON emits {"type": signature, "value": payload}.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.IsValid() {
		return []byte("null"), nil
	}

	return json.Marshal(jsonValue{Type: v.Signature(), Value: v.jsonPayload()})
}

func (v Value) jsonPayload() any {
	switch v.kind {
	case Tuple:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.jsonPayload()
		}
		return out
	case Dict:
		out := make(map[string]Value, len(v.dict))
		for key, item := range v.dict {
			out[key] = item
		}
		return out
	default:
		return v.Interface()
	}
}

// UnmarshalJSON accepts the form produced by MarshalJSON as well as bare
// scalars, which are inferred.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, err := Infer(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
