package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalScalars(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", Str("hello"), `"hello"`},
		{"int", Int(-42), `-42`},
		{"bool", Bool(true), `true`},
		{"go string", "x", `"x"`},
		{"go int", 7, `7`},
		{"go int64", int64(9), `9`},
		{"empty list", List{}, `[]`},
		{"empty object", Object{}, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortsNestedKeys(t *testing.T) {
	v := Object{
		"zones": Object{"hand:1": List{Str("c2")}, "hand:0": List{Str("c1")}},
		"aid":   Int(3),
	}

	result, err := MarshalCanonical(v)
	require.NoError(t, err)
	assert.Equal(t, `{"aid":3,"zones":{"hand:0":["c1"],"hand:1":["c2"]}}`, string(result))
}

func TestMarshalCanonicalUTF16KeyOrder(t *testing.T) {
	// U+E000 is one UTF-16 unit (0xE000); U+1F600 is a surrogate pair
	// starting 0xD83D. UTF-8 byte order would put the emoji last.
	v := Object{"\uE000": Int(1), "\U0001F600": Int(2)}

	result, err := MarshalCanonical(v)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\uE000\":1}", string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(Str("<a&b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, string(result))
}

func TestMarshalCanonicalRejectsFloatsAndNull(t *testing.T) {
	_, err := MarshalCanonical(1.5)
	assert.Error(t, err)

	_, err = MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(List{Int(1), nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[1]")
}

func TestMarshalCanonicalNFC(t *testing.T) {
	decomposed := "e\u0301"
	result, err := MarshalCanonical(Object{decomposed: Str(decomposed)})
	require.NoError(t, err)
	assert.Equal(t, "{\"\u00e9\":\"\u00e9\"}", string(result))
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"newline", "a\nb", `"a\nb"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"line separator", "a\u2028b", "\"a\u2028b\""},
		{"paragraph separator", "a\u2029b", "\"a\u2029b\""},
		{"literal escape text", `see \u2028`, `"see \\u2028"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(Str(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalIdempotent(t *testing.T) {
	inputs := []string{
		`{"b":[1,2,{"y":true,"x":"s"}],"a":-3}`,
		`["é","<>",0]`,
		`{"":{}}`,
	}
	for _, in := range inputs {
		v, err := UnmarshalValue([]byte(in))
		require.NoError(t, err)

		first, err := MarshalCanonical(v)
		require.NoError(t, err)

		again, err := UnmarshalValue(first)
		require.NoError(t, err)
		second, err := MarshalCanonical(again)
		require.NoError(t, err)

		assert.Equal(t, string(first), string(second), in)
	}
}
