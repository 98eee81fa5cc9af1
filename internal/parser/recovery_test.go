package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, text string) Value {
	t.Helper()
	v, err := Parse(text)
	require.NoError(t, err)
	return v
}

func TestRecover_ValidPayloadIsNoOp(t *testing.T) {
	inputs := []string{`{"a":1}`, `[1,2,3]`, `"x"`, `null`, `  {"nested":{"k":[true,false]}}  `}
	for _, in := range inputs {
		out := Recover(in)
		assert.Equal(t, StateParsed, out.State, in)
		assert.Empty(t, out.Applied, in)
		assert.Empty(t, out.Effective, in)
		assert.Empty(t, out.Repaired, in)
		assert.Equal(t, in, out.Original)
		assert.NoError(t, out.Error())
	}
}

func TestRecover_Cases(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      string
		class     ErrorClass
		effective []string
	}{
		{
			name:      "trailing comma in object",
			input:     `{"a":1,}`,
			want:      `{"a":1}`,
			class:     ClassTrailingComma,
			effective: []string{HeuristicTrailingComma},
		},
		{
			name:      "trailing comma in array",
			input:     "[1, 2, ]",
			want:      `[1,2]`,
			class:     ClassTrailingComma,
			effective: []string{HeuristicTrailingComma},
		},
		{
			name:      "missing closing bracket",
			input:     `[1,2`,
			want:      `[1,2]`,
			class:     ClassUnexpectedEnd,
			effective: []string{HeuristicBalanceBrackets},
		},
		{
			name:      "missing nested closers",
			input:     `{"a":[1,{"b":2}`,
			want:      `{"a":[1,{"b":2}]}`,
			class:     ClassUnexpectedEnd,
			effective: []string{HeuristicBalanceBrackets},
		},
		{
			name:      "dangling comma at end of input",
			input:     `[1,2,`,
			want:      `[1,2]`,
			class:     ClassUnexpectedEnd,
			effective: []string{HeuristicTrailingComma, HeuristicBalanceBrackets},
		},
		{
			name:      "unterminated string mid document",
			input:     "{\"a\": \"abc\n}",
			want:      `{"a":"abc"}`,
			class:     ClassUnterminatedString,
			effective: []string{HeuristicUnterminatedString},
		},
		{
			name:      "unterminated string at end",
			input:     `{"a":"abc`,
			want:      `{"a":"abc"}`,
			class:     ClassUnexpectedEnd,
			effective: []string{HeuristicUnterminatedString, HeuristicBalanceBrackets},
		},
		{
			name:      "control character in string",
			input:     "{\"a\":\"b\x01c\"}",
			want:      `{"a":"bc"}`,
			class:     ClassControlCharacter,
			effective: []string{HeuristicControlCharacters},
		},
		{
			name:      "several defects at once",
			input:     "{\"a\":[1,2,],\"b\":\"x\x07\"",
			want:      `{"a":[1,2],"b":"x"}`,
			class:     ClassTrailingComma,
			effective: []string{HeuristicTrailingComma, HeuristicBalanceBrackets, HeuristicControlCharacters},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Recover(tt.input)
			require.Equal(t, StateRecovered, out.State, "err: %v", out.Err)
			assert.Equal(t, tt.class, out.Class)
			assert.Equal(t, tt.effective, out.Effective)
			assert.True(t, out.Value.Equal(mustParse(t, tt.want)), "got %s", out.Value)
			assert.Equal(t, tt.input, out.Original)
			assert.Error(t, out.Err)
		})
	}
}

func TestRecover_Unrecoverable(t *testing.T) {
	tests := []struct {
		name  string
		input string
		class ErrorClass
	}{
		{name: "missing value", input: `{"a": }`, class: ClassUnexpectedToken},
		{name: "empty", input: "", class: ClassEmpty},
		{name: "garbage", input: "not json at all", class: ClassUnexpectedToken},
		{name: "mismatched closer", input: `{"a":[1,2}`, class: ClassUnexpectedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Recover(tt.input)
			assert.Equal(t, StateUnrecoverable, out.State)
			assert.Equal(t, tt.class, out.Class)
			assert.Equal(t, tt.input, out.Original)
			assert.False(t, out.OK())

			err := out.Error()
			require.Error(t, err)
			var re *RecoveryError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.class, re.Class)
			assert.Contains(t, err.Error(), string(tt.class))
		})
	}
}

func TestRecoverer_CustomChain(t *testing.T) {
	const bom = "\ufeff"
	r := NewRecoverer(Heuristic{
		Name:   "strip_bom",
		Class:  ClassUnexpectedToken,
		Repair: func(s string) string { return strings.TrimPrefix(s, bom) },
	})
	out := r.Recover(bom + "[1]")
	require.Equal(t, StateRecovered, out.State)
	assert.Equal(t, []string{"strip_bom"}, out.Effective)
}

func TestHeuristicsAreIsolated(t *testing.T) {
	assert.Equal(t, `{"a":[1]}`, RemoveTrailingCommas(`{"a":[1,],}`))
	assert.Equal(t, `{"s":",]"}`, RemoveTrailingCommas(`{"s":",]"}`))

	assert.Equal(t, "\"a\": \"b\"\n\"c\"", CloseUnterminatedStrings("\"a\": \"b\n\"c\""))
	assert.Equal(t, `"done"`, CloseUnterminatedStrings(`"done"`))
	assert.Equal(t, `{"q":"say \"hi\""}`, CloseUnterminatedStrings(`{"q":"say \"hi\""}`))

	assert.Equal(t, `{"a":[{}]}`, BalanceBrackets(`{"a":[{}`))
	assert.Equal(t, `{"a":"[{"}`, BalanceBrackets(`{"a":"[{"`))
	assert.Equal(t, `[1]`, BalanceBrackets(`[1]`))

	assert.Equal(t, "a\tb\nc\r", StripControlCharacters("a\tb\x00\nc\x1b\r\x7f"))
}

func TestClassify(t *testing.T) {
	classOf := func(s string) ErrorClass {
		_, err := Parse(s)
		require.Error(t, err)
		return Classify(s, err)
	}
	assert.Equal(t, ClassTrailingComma, classOf(`{"a":1 , }`))
	assert.Equal(t, ClassUnexpectedEnd, classOf(`{"a":1`))
	assert.Equal(t, ClassUnterminatedString, classOf("[\"a\n]"))
	assert.Equal(t, ClassControlCharacter, classOf("[\"a\x02\"]"))
	assert.Equal(t, ClassUnexpectedToken, classOf(`[1 2]`))
	assert.Equal(t, ClassEmpty, classOf("   "))
}
