// Package agent implements the AI assistant use cases and their HTTP surface.
package agent

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ashureev/misogi/internal/action"
	"github.com/ashureev/misogi/internal/domain"
	"github.com/ashureev/misogi/internal/prompt"
)

// Caller identifies who a request is served for.
type Caller struct {
	UserID    string
	SessionID string
	RequestID string
}

// TriageRequest is the body of POST /api/ai/triage.
type TriageRequest struct {
	Messages []domain.Turn         `json:"messages"`
	Context  *prompt.TriageContext `json:"context,omitempty"`
}

// CoachRequest is the body of POST /api/ai/coach.
type CoachRequest struct {
	Messages []domain.Turn        `json:"messages"`
	Context  *prompt.CoachContext `json:"context,omitempty"`
}

// MisogiRequest is the body of POST /api/ai/misogi.
type MisogiRequest struct {
	Messages []domain.Turn        `json:"messages"`
	Mode     string               `json:"mode,omitempty"`
	Context  prompt.MisogiContext `json:"context"`
}

// JournalRequest is the body of POST /api/ai/journal.
type JournalRequest struct {
	Messages []domain.Turn          `json:"messages"`
	Date     string                 `json:"date,omitempty"`
	Context  *prompt.JournalContext `json:"context,omitempty"`
}

// ReceiptInput is an uploaded receipt or statement.
type ReceiptInput struct {
	Kind     string
	Currency string
	FileName string
	MIMEType string
	Data     []byte
}

// ApplyRequest is the body of POST /api/actions/apply.
type ApplyRequest struct {
	Actions []action.Suggested `json:"actions"`
}

// TriageOutcome is the structured triage reply.
type TriageOutcome struct {
	Message          string              `json:"message"`
	Title            string              `json:"title"`
	Category         domain.TaskCategory `json:"category"`
	Priority         domain.Priority     `json:"priority"`
	SuggestedActions []action.Suggested  `json:"suggestedActions"`
}

// Validate implements contract.Outcome.
func (o TriageOutcome) Validate() error {
	if o.Message == "" {
		return errors.New("message is required")
	}
	if !o.Category.Valid() {
		return fmt.Errorf("invalid category %q", o.Category)
	}
	if !o.Priority.Valid() {
		return fmt.Errorf("invalid priority %q", o.Priority)
	}
	return validateSuggestions(o.SuggestedActions)
}

func triageFallback(raw string) TriageOutcome {
	return TriageOutcome{
		Message:          raw,
		Category:         domain.TaskCategoryAction,
		Priority:         domain.PriorityMedium,
		SuggestedActions: []action.Suggested{},
	}
}

// CoachOutcome is the financial coaching reply. ShouldRefresh and
// ActionResults reflect what the server actually applied.
type CoachOutcome struct {
	Reply         string             `json:"reply"`
	Actions       []action.Suggested `json:"actions"`
	ShouldRefresh bool               `json:"shouldRefresh"`
	ActionResults []action.Result    `json:"actionResults"`
}

// Validate implements contract.Outcome.
func (o CoachOutcome) Validate() error {
	if o.Reply == "" {
		return errors.New("reply is required")
	}
	return validateSuggestions(o.Actions)
}

func coachFallback(raw string) CoachOutcome {
	return CoachOutcome{
		Reply:         raw,
		Actions:       []action.Suggested{},
		ActionResults: []action.Result{},
	}
}

// MisogiOutcome is the Misogi coach/assistant reply. Suggestions are not applied.
type MisogiOutcome struct {
	Message          string             `json:"message"`
	SuggestedActions []action.Suggested `json:"suggestedActions"`
}

// Validate implements contract.Outcome.
func (o MisogiOutcome) Validate() error {
	if o.Message == "" {
		return errors.New("message is required")
	}
	return validateSuggestions(o.SuggestedActions)
}

func misogiFallback(raw string) MisogiOutcome {
	return MisogiOutcome{Message: raw, SuggestedActions: []action.Suggested{}}
}

// JournalOutcome is one step of the guided journal conversation.
type JournalOutcome struct {
	Message  string `json:"message"`
	Question string `json:"question"`
	Done     bool   `json:"done"`
}

// Validate implements contract.Outcome.
func (o JournalOutcome) Validate() error {
	if o.Message == "" {
		return errors.New("message is required")
	}
	return nil
}

func journalFallback(raw string) JournalOutcome {
	return JournalOutcome{Message: raw}
}

// ReceiptOutcome is the extraction result for an uploaded document.
type ReceiptOutcome struct {
	Message       string            `json:"message"`
	Merchant      string            `json:"merchant"`
	Date          string            `json:"date"`
	Total         *float64          `json:"total"`
	Currency      string            `json:"currency"`
	Category      string            `json:"category"`
	Items         []domain.LineItem `json:"items"`
	TransactionID string            `json:"transactionId,omitempty"`
}

// Validate implements contract.Outcome.
func (o ReceiptOutcome) Validate() error {
	if o.Message == "" {
		return errors.New("message is required")
	}
	if o.Category != "" && !slices.Contains(domain.ExpenseCategories, o.Category) {
		return fmt.Errorf("invalid category %q", o.Category)
	}
	return nil
}

func receiptFallback(raw string) ReceiptOutcome {
	return ReceiptOutcome{Message: raw, Items: []domain.LineItem{}}
}

func validateSuggestions(list []action.Suggested) error {
	for i, s := range list {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	return nil
}
