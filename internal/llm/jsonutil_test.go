package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		want   string
		method string
	}{
		{name: "bare object", input: `{"title":"Cells"}`, want: `{"title":"Cells"}`, method: recoveryDirect},
		{name: "bare array with whitespace", input: "\n  [1, 2]  \n", want: `[1, 2]`, method: recoveryDirect},
		{name: "fenced with language tag", input: "```json\n{\"title\":\"Cells\"}\n```", want: `{"title":"Cells"}`, method: recoveryFenced},
		{name: "fenced without tag", input: "```\n[{\"a\":1}]\n```", want: `[{"a":1}]`, method: recoveryFenced},
		{name: "prose wrapped", input: `Sure! Here is your lesson: {"title":"Cells","tags":["bio"]} Hope it helps.`, want: `{"title":"Cells","tags":["bio"]}`, method: recoverySalvaged},
		{name: "brackets inside strings", input: `Result: {"title":"use } and ] freely","tags":["a\"]"]}`, want: `{"title":"use } and ] freely","tags":["a\"]"]}`, method: recoverySalvaged},
		{name: "skips non-JSON bracketed prose", input: `Note [see below]: [{"q":"x"}]`, want: `[{"q":"x"}]`, method: recoverySalvaged},
		{name: "trailing comma cleaned", input: `Here: {"tags":["a","b",],}`, want: `{"tags":["a","b"]}`, method: recoverySalvaged},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, method, err := extractJSON(tc.input)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, got)
			assert.Equal(t, tc.method, method)
		})
	}
}

func TestExtractJSONFailures(t *testing.T) {
	for _, input := range []string{"", "   ", "I cannot help with that.", `{"title": "unterminated`} {
		_, method, err := extractJSON(input)
		assert.ErrorIs(t, err, ErrUnparsableOutput, "input %q", input)
		assert.Equal(t, recoveryFailed, method)
	}
}

func TestDecodeJSON(t *testing.T) {
	got, err := DecodeJSON[sample]("```json\n{\"title\":\"Photosynthesis\",\"tags\":[\"science\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, sample{Title: "Photosynthesis", Tags: []string{"science"}}, got)

	_, err = DecodeJSON[sample](`["not", "an", "object"]`)
	assert.True(t, IsUnparsable(err))
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```JSON\n{\"a\":1}\n```"))
	assert.Equal(t, "plain", StripCodeFences("  plain  "))
}
