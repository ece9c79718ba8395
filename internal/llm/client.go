// Package llm wraps the hosted language model behind a small request/response client.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured is returned when no model credential is configured.
	ErrNotConfigured = errors.New("model API key is not configured")
	// ErrUpstream is returned when the model call fails or yields no usable text.
	ErrUpstream = errors.New("model call failed")
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of an ordered message history.
type Message struct {
	Role    Role
	Content string
}

// Attachment is binary input (receipt photo, statement PDF) sent with the last user message.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Request is a single model call. A one-element Messages slice is a plain prompt.
type Request struct {
	Messages    []Message
	JSON        bool
	Attachments []Attachment
}

// Prompt builds a single-message request.
func Prompt(text string, json bool) Request {
	return Request{Messages: []Message{{Role: RoleUser, Content: text}}, JSON: json}
}

// Client returns the model's text output for a request. Implementations do not retry.
type Client interface {
	// Generate performs exactly one round trip to the model.
	Generate(ctx context.Context, req Request) (string, error)

	// Configured reports whether a credential is available.
	Configured() bool
}
