package variant

import (
	"encoding/json"
	"testing"
)

func TestSignature(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value Value
		want  string
	}{
		{NewBool(true), "b"},
		{NewByte(42), "y"},
		{NewInt16(-42), "n"},
		{NewUint16(42), "q"},
		{NewInt32(-42), "i"},
		{NewUint32(42), "u"},
		{NewInt64(-42), "x"},
		{NewUint64(42), "t"},
		{NewDouble(42.42), "d"},
		{NewString("dança"), "s"},
		{NewTuple(NewUint32(0), NewUint32(3)), "(uu)"},
		{NewTuple(NewString("a"), NewTuple(NewInt32(1), NewBool(false))), "(s(ib))"},
		{NewDict(map[string]Value{"int64": NewInt64(-42)}), "a{sv}"},
	}

	for _, tc := range tests {
		if got := tc.value.Signature(); got != tc.want {
			t.Fatalf("Signature(%s) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestParseTypedValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sig  string
		raw  any
		want Value
	}{
		{"b", true, NewBool(true)},
		{"y", 42, NewByte(42)},
		{"n", -42, NewInt16(-42)},
		{"q", 42, NewUint16(42)},
		{"i", float64(-42), NewInt32(-42)},
		{"u", "42", NewUint32(42)},
		{"x", -42, NewInt64(-42)},
		{"t", 42, NewUint64(42)},
		{"d", 42.42, NewDouble(42.42)},
		{"s", "42", NewString("42")},
		{"(uu)", []any{0, 7}, NewTuple(NewUint32(0), NewUint32(7))},
		{"a{sv}", map[string]any{"string": "42"}, NewDict(map[string]Value{"string": NewString("42")})},
	}

	for _, tc := range tests {
		got, err := Parse(tc.sig, tc.raw)
		if err != nil {
			t.Fatalf("Parse(%q, %v) error: %v", tc.sig, tc.raw, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("Parse(%q, %v) = %s, want %s", tc.sig, tc.raw, got, tc.want)
		}
	}
}

func TestParseRejectsOverflowAndBadSignatures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		sig string
		raw any
	}{
		{"y", 256},
		{"n", 40000},
		{"q", -1},
		{"i", 1.5},
		{"as", []any{"a"}},
		{"(uu", []any{1, 2}},
		{"(uu)", []any{1}},
		{"b", 1},
	}

	for _, tc := range cases {
		if _, err := Parse(tc.sig, tc.raw); err == nil {
			t.Fatalf("Parse(%q, %v) expected error", tc.sig, tc.raw)
		}
	}
}

func TestInferExplicitType(t *testing.T) {
	t.Parallel()

	got, err := Infer(map[string]any{"type": "n", "value": -42})
	if err != nil {
		t.Fatalf("Infer error: %v", err)
	}
	if !got.Equal(NewInt16(-42)) {
		t.Fatalf("Infer = %s, want int16 -42", got)
	}

	got, err = Infer(map[string]any{"a": 1, "b": "x"})
	if err != nil {
		t.Fatalf("Infer error: %v", err)
	}
	if got.Kind() != Dict {
		t.Fatalf("kind = %v, want Dict", got.Kind())
	}
}

func TestEqualDistinguishesTypes(t *testing.T) {
	t.Parallel()

	if NewInt32(1).Equal(NewInt64(1)) {
		t.Fatal("int32 and int64 must not compare equal")
	}
	if !NewTuple(NewString("a"), NewByte(1)).Equal(NewTuple(NewString("a"), NewByte(1))) {
		t.Fatal("identical tuples must compare equal")
	}
}

func TestJSONRoundTripKeepsTypes(t *testing.T) {
	t.Parallel()

	original := NewDict(map[string]Value{
		"x-int16": NewInt16(-42),
		"x-pair":  NewTuple(NewUint32(0), NewUint32(2)),
		"x-utf8":  NewString("dança"),
	})

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Value
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Equal(original) {
		t.Fatalf("decoded = %s, want %s", decoded, original)
	}
}

func TestStringTextFormat(t *testing.T) {
	t.Parallel()

	if got := NewInt16(-42).String(); got != "int16 -42" {
		t.Fatalf("String() = %q", got)
	}
	if got := NewTuple(NewString("a")).String(); got != "('a',)" {
		t.Fatalf("String() = %q", got)
	}
	if got := NewDict(map[string]Value{"b": NewBool(true), "a": NewInt32(1)}).String(); got != "{'a': <1>, 'b': <true>}" {
		t.Fatalf("String() = %q", got)
	}
}
