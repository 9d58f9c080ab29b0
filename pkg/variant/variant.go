// Package variant implements the closed set of typed values carried by menu
// attributes and action state: booleans, bytes, signed and unsigned integers
// of 16, 32 and 64 bits, doubles, strings, tuples and string-keyed maps.
//
// Type signatures follow the session bus notation (b, y, n, q, i, u, x, t, d,
// s, (..) and a{sv}) so values can be exported without a lookup table.
package variant

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies the concrete type held by a Value.
type Kind uint8

const (
	Invalid Kind = iota
	Bool
	Byte
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Double
	String
	Tuple
	Dict
)

var kindSignatures = map[Kind]string{
	Bool:   "b",
	Byte:   "y",
	Int16:  "n",
	Uint16: "q",
	Int32:  "i",
	Uint32: "u",
	Int64:  "x",
	Uint64: "t",
	Double: "d",
	String: "s",
	Dict:   "a{sv}",
}

// Value is an immutable tagged union. The zero Value is Invalid.
type Value struct {
	kind  Kind
	b     bool
	i     int64
	u     uint64
	f     float64
	s     string
	items []Value
	dict  map[string]Value
}

func NewBool(v bool) Value { return Value{kind: Bool, b: v} }
func NewByte(v uint8) Value { return Value{kind: Byte, u: uint64(v)} }
func NewInt16(v int16) Value { return Value{kind: Int16, i: int64(v)} }
func NewUint16(v uint16) Value { return Value{kind: Uint16, u: uint64(v)} }
func NewInt32(v int32) Value { return Value{kind: Int32, i: int64(v)} }
func NewUint32(v uint32) Value { return Value{kind: Uint32, u: uint64(v)} }
func NewInt64(v int64) Value { return Value{kind: Int64, i: v} }
func NewUint64(v uint64) Value { return Value{kind: Uint64, u: v} }
func NewDouble(v float64) Value { return Value{kind: Double, f: v} }
func NewString(v string) Value { return Value{kind: String, s: v} }
func NewTuple(v ...Value) Value { return Value{kind: Tuple, items: slices.Clone(v)} }

// NewDict builds an a{sv} value. The map is copied.
func NewDict(v map[string]Value) Value {
	return Value{kind: Dict, dict: maps.Clone(v)}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsValid() bool { return v.kind != Invalid }

// Bool returns the boolean payload; false for other kinds.
func (v Value) Bool() bool { return v.kind == Bool && v.b }

// Int returns signed payloads widened to int64.
func (v Value) Int() int64 {
	switch v.kind {
	case Int16, Int32, Int64:
		return v.i
	case Byte, Uint16, Uint32, Uint64:
		return int64(v.u)
	default:
		return 0
	}
}

// Uint returns unsigned payloads widened to uint64.
func (v Value) Uint() uint64 {
	switch v.kind {
	case Byte, Uint16, Uint32, Uint64:
		return v.u
	case Int16, Int32, Int64:
		return uint64(v.i)
	default:
		return 0
	}
}

func (v Value) Double() float64 {
	if v.kind == Double {
		return v.f
	}
	return 0
}

// Str returns the string payload. String() is reserved for the text form.
func (v Value) Str() string {
	if v.kind == String {
		return v.s
	}
	return ""
}

// Items returns a copy of the tuple members.
func (v Value) Items() []Value {
	return slices.Clone(v.items)
}

// Entries returns a copy of the dictionary entries.
func (v Value) Entries() map[string]Value {
	return maps.Clone(v.dict)
}

// Signature returns the type signature of the value.
func (v Value) Signature() string {
	if v.kind == Tuple {
		var b strings.Builder
		b.WriteByte('(')
		for _, item := range v.items {
			b.WriteString(item.Signature())
		}
		b.WriteByte(')')
		return b.String()
	}

	return kindSignatures[v.kind]
}

// Equal reports deep equality, including the type of every member.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case Invalid:
		return true
	case Bool:
		return v.b == other.b
	case Byte, Uint16, Uint32, Uint64:
		return v.u == other.u
	case Int16, Int32, Int64:
		return v.i == other.i
	case Double:
		return v.f == other.f || (math.IsNaN(v.f) && math.IsNaN(other.f))
	case String:
		return v.s == other.s
	case Tuple:
		return slices.EqualFunc(v.items, other.items, Value.Equal)
	case Dict:
		return maps.EqualFunc(v.dict, other.dict, Value.Equal)
	default:
		return false
	}
}

// Interface converts the value to plain Go types. Tuples become []any and
// dictionaries map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case Bool:
		return v.b
	case Byte:
		return uint8(v.u)
	case Int16:
		return int16(v.i)
	case Uint16:
		return uint16(v.u)
	case Int32:
		return int32(v.i)
	case Uint32:
		return uint32(v.u)
	case Int64:
		return v.i
	case Uint64:
		return v.u
	case Double:
		return v.f
	case String:
		return v.s
	case Tuple:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case Dict:
		out := make(map[string]any, len(v.dict))
		for key, item := range v.dict {
			out[key] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// String renders the value in the GVariant text format, e.g. int16 -42,
// 'dança' or {'k': <true>}.
func (v Value) String() string {
	switch v.kind {
	case Bool:
		return strconv.FormatBool(v.b)
	case Byte:
		return fmt.Sprintf("byte 0x%02x", v.u)
	case Int16:
		return "int16 " + strconv.FormatInt(v.i, 10)
	case Uint16:
		return "uint16 " + strconv.FormatUint(v.u, 10)
	case Int32:
		return strconv.FormatInt(v.i, 10)
	case Uint32:
		return "uint32 " + strconv.FormatUint(v.u, 10)
	case Int64:
		return "int64 " + strconv.FormatInt(v.i, 10)
	case Uint64:
		return "uint64 " + strconv.FormatUint(v.u, 10)
	case Double:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case String:
		return "'" + strings.ReplaceAll(v.s, "'", `\'`) + "'"
	case Tuple:
		parts := make([]string, len(v.items))
		for i, item := range v.items {
			parts[i] = item.String()
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case Dict:
		keys := slices.Sorted(maps.Keys(v.dict))
		parts := make([]string, len(keys))
		for i, key := range keys {
			parts[i] = fmt.Sprintf("'%s': <%s>", key, v.dict[key].String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<invalid>"
	}
}
