package domain

import (
	"time"
)

// Conversation roles accepted from clients.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message of an in-flight conversation. Turns are never persisted.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}
