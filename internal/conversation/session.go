// Package conversation assembles a model transcript from prior turns and sends it.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ashureev/misogi/internal/domain"
	"github.com/ashureev/misogi/internal/llm"
)

// Acknowledgement is the fixed assistant turn that follows the system prompt.
const Acknowledgement = "Understood. I have the full context and I will answer only with the requested JSON object."

var (
	// ErrEmptyMessage is returned when the new user message is blank.
	ErrEmptyMessage = errors.New("message is required")
	// ErrInvalidRole is returned for prior turns that are neither user nor assistant.
	ErrInvalidRole = errors.New("invalid message role")
)

// Transcript returns the full ordered history for one request:
// system prompt, acknowledgement, every prior turn in order, then newMessage.
func Transcript(systemPrompt string, prior []domain.Turn, newMessage string) ([]llm.Message, error) {
	if strings.TrimSpace(newMessage) == "" {
		return nil, ErrEmptyMessage
	}

	msgs := make([]llm.Message, 0, len(prior)+3)
	msgs = append(msgs,
		llm.Message{Role: llm.RoleUser, Content: systemPrompt},
		llm.Message{Role: llm.RoleAssistant, Content: Acknowledgement},
	)
	for i, turn := range prior {
		role, err := roleOf(turn.Role)
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", i, err)
		}
		msgs = append(msgs, llm.Message{Role: role, Content: turn.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: newMessage})
	return msgs, nil
}

func roleOf(role string) (llm.Role, error) {
	switch role {
	case domain.RoleUser:
		return llm.RoleUser, nil
	case domain.RoleAssistant:
		return llm.RoleAssistant, nil
	default:
		return "", fmt.Errorf("%w %q", ErrInvalidRole, role)
	}
}

// Session sends transcripts through a model client.
type Session struct {
	client llm.Client
}

// NewSession creates a session bound to client.
func NewSession(client llm.Client) *Session {
	return &Session{client: client}
}

// Send builds the transcript and performs exactly one model round trip with
// JSON output requested.
func (s *Session) Send(ctx context.Context, systemPrompt string, prior []domain.Turn, newMessage string) (string, error) {
	msgs, err := Transcript(systemPrompt, prior, newMessage)
	if err != nil {
		return "", err
	}
	return s.client.Generate(ctx, llm.Request{Messages: msgs, JSON: true})
}

// Split separates a client-supplied history into prior turns and the newest
// user message, which must be last.
func Split(messages []domain.Turn) ([]domain.Turn, string, error) {
	if len(messages) == 0 {
		return nil, "", ErrEmptyMessage
	}
	last := messages[len(messages)-1]
	if last.Role != domain.RoleUser {
		return nil, "", fmt.Errorf("%w: last message must come from the user", ErrInvalidRole)
	}
	if strings.TrimSpace(last.Content) == "" {
		return nil, "", ErrEmptyMessage
	}
	return messages[:len(messages)-1], last.Content, nil
}
