package contract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reply struct {
	Message string   `json:"message"`
	Tags    []string `json:"tags"`
	Score   *int     `json:"score,omitempty"`
}

func (r reply) Validate() error {
	if r.Message == "" {
		return errors.New("message is required")
	}
	return nil
}

func fallbackReply(raw string) reply {
	return reply{Message: raw, Tags: []string{}}
}

func TestParseStrictRoundTrip(t *testing.T) {
	got, err := Parse(`{"message":"hola","tags":["a","b"],"score":3}`, fallbackReply)
	require.NoError(t, err)

	require.NotNil(t, got.Score)
	assert.Equal(t, reply{Message: "hola", Tags: []string{"a", "b"}, Score: got.Score}, got)
	assert.Equal(t, 3, *got.Score)
}

func TestParseAcceptsMissingOptionalFields(t *testing.T) {
	got, err := Parse(`{"message":"only the required field"}`, fallbackReply)
	require.NoError(t, err)
	assert.Equal(t, "only the required field", got.Message)
	assert.Nil(t, got.Tags)
}

func TestParseRecoversFromProseAndFences(t *testing.T) {
	cases := map[string]string{
		"prose":        `Sure! Here it is: {"message":"ok","tags":[]} Hope it helps.`,
		"fenced":       "```json\n{\"message\":\"ok\",\"tags\":[]}\n```",
		"brace in str": `note {"message":"ok } still inside","tags":[]} trailing }`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Parse(raw, fallbackReply)
			require.NoError(t, err)
			assert.Contains(t, got.Message, "ok")
		})
	}
}

func TestParseFallbackPreservesRawText(t *testing.T) {
	cases := map[string]string{
		"plain text":       "Lo siento, no puedo ayudarte con eso.",
		"broken json":      `{"message": "unterminated`,
		"missing required": `{"tags":["x"]}`,
		"wrong type":       `{"message": 42}`,
		"array":            `["message"]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Parse(raw, fallbackReply)
			require.ErrorIs(t, err, ErrContract)
			assert.Equal(t, raw, got.Message)
			assert.Equal(t, []string{}, got.Tags)
			assert.Nil(t, got.Score)
		})
	}
}

func TestParseEmptyReply(t *testing.T) {
	got, err := Parse("   ", fallbackReply)
	require.ErrorIs(t, err, ErrEmptyReply)
	assert.Equal(t, "   ", got.Message)
}

func TestFindObject(t *testing.T) {
	obj, ok := FindObject(`x {"a":{"b":"}"}} y {"c":1}`)
	require.True(t, ok)
	assert.Equal(t, `{"a":{"b":"}"}}`, obj)

	obj, ok = FindObject(`{"a": {"b": 1} }}`)
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": 1} }`, obj)

	obj, ok = FindObject(`pre {"a": {"b": 1} post`)
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": 1}`, obj)

	_, ok = FindObject("no braces here")
	assert.False(t, ok)

	_, ok = FindObject("} backwards {")
	assert.False(t, ok)
}
