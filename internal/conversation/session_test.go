package conversation

import (
	"context"
	"fmt"
	"testing"

	"github.com/ashureev/misogi/internal/domain"
	"github.com/ashureev/misogi/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingClient struct {
	calls []llm.Request
	reply string
}

func (r *recordingClient) Generate(_ context.Context, req llm.Request) (string, error) {
	r.calls = append(r.calls, req)
	return r.reply, nil
}

func (r *recordingClient) Configured() bool { return true }

func TestTranscriptShape(t *testing.T) {
	for _, n := range []int{0, 1, 4, 9} {
		t.Run(fmt.Sprintf("prior=%d", n), func(t *testing.T) {
			prior := make([]domain.Turn, n)
			for i := range prior {
				role := domain.RoleUser
				if i%2 == 1 {
					role = domain.RoleAssistant
				}
				prior[i] = domain.Turn{Role: role, Content: fmt.Sprintf("turn-%d", i)}
			}

			msgs, err := Transcript("SYSTEM", prior, "newest")
			require.NoError(t, err)
			require.Len(t, msgs, n+3)

			assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "SYSTEM"}, msgs[0])
			assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: Acknowledgement}, msgs[1])
			for i := range prior {
				assert.Equal(t, fmt.Sprintf("turn-%d", i), msgs[i+2].Content)
			}
			assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "newest"}, msgs[n+2])
		})
	}
}

func TestTranscriptKeepsDuplicates(t *testing.T) {
	prior := []domain.Turn{
		{Role: domain.RoleUser, Content: "same"},
		{Role: domain.RoleUser, Content: "same"},
	}
	msgs, err := Transcript("SYSTEM", prior, "same")
	require.NoError(t, err)
	assert.Len(t, msgs, 5)
}

func TestTranscriptRejectsBadInput(t *testing.T) {
	_, err := Transcript("SYSTEM", nil, "  ")
	require.ErrorIs(t, err, ErrEmptyMessage)

	_, err = Transcript("SYSTEM", []domain.Turn{{Role: "system", Content: "x"}}, "hi")
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestSessionSendMakesOneJSONCall(t *testing.T) {
	client := &recordingClient{reply: `{"message":"ok"}`}
	session := NewSession(client)

	reply, err := session.Send(context.Background(), "SYSTEM", []domain.Turn{{Role: domain.RoleUser, Content: "earlier"}}, "now")
	require.NoError(t, err)
	assert.Equal(t, `{"message":"ok"}`, reply)

	require.Len(t, client.calls, 1)
	assert.True(t, client.calls[0].JSON)
	assert.Len(t, client.calls[0].Messages, 4)
}

func TestSplit(t *testing.T) {
	prior, msg, err := Split([]domain.Turn{
		{Role: domain.RoleUser, Content: "a"},
		{Role: domain.RoleAssistant, Content: "b"},
		{Role: domain.RoleUser, Content: "c"},
	})
	require.NoError(t, err)
	assert.Len(t, prior, 2)
	assert.Equal(t, "c", msg)

	_, _, err = Split(nil)
	require.ErrorIs(t, err, ErrEmptyMessage)

	_, _, err = Split([]domain.Turn{{Role: domain.RoleAssistant, Content: "x"}})
	require.ErrorIs(t, err, ErrInvalidRole)
}
