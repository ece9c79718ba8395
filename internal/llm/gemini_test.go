package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiClientWithoutKeyIsNotConfigured(t *testing.T) {
	c, err := NewGeminiClient(context.Background(), GeminiConfig{}, nil)
	require.NoError(t, err)

	assert.False(t, c.Configured())
	assert.Equal(t, DefaultModel, c.Model())

	_, err = c.Generate(context.Background(), Prompt("hola", true))
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestToContentsMapsRolesInOrder(t *testing.T) {
	req := Request{
		Messages: []Message{
			{Role: RoleUser, Content: "system"},
			{Role: RoleAssistant, Content: "ack"},
			{Role: RoleUser, Content: "question"},
		},
		Attachments: []Attachment{{MIMEType: "image/png", Data: []byte{0x89, 0x50}}},
	}

	contents := toContents(req)
	require.Len(t, contents, 3)

	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
	assert.Equal(t, string(genai.RoleUser), contents[2].Role)

	assert.Equal(t, "system", contents[0].Parts[0].Text)
	assert.Len(t, contents[0].Parts, 1)
	require.Len(t, contents[2].Parts, 2)
	require.NotNil(t, contents[2].Parts[1].InlineData)
	assert.Equal(t, "image/png", contents[2].Parts[1].InlineData.MIMEType)
}
