package prompt

import (
	"fmt"

	"github.com/ashureev/misogi/internal/action"
	"github.com/ashureev/misogi/internal/domain"
)

// TriageContext is the snapshot embedded in the triage prompt.
type TriageContext struct {
	Today string        `json:"today"`
	Tasks []domain.Task `json:"tasks"`
	Goals []domain.Goal `json:"goals"`
}

// PurchaseContext describes a purchase the user is considering.
type PurchaseContext struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency,omitempty"`
}

// CoachContext is the snapshot embedded in the financial coaching prompt.
type CoachContext struct {
	Goals    []domain.Goal    `json:"goals"`
	Tasks    []domain.Task    `json:"tasks"`
	Purchase *PurchaseContext `json:"purchase,omitempty"`
}

// Misogi modes.
const (
	MisogiModeCoach     = "coach"
	MisogiModeAssistant = "assistant"
)

// MisogiContext is the snapshot embedded in the Misogi prompt.
type MisogiContext struct {
	Mode      string          `json:"-"`
	Challenge domain.Misogi   `json:"challenge"`
	Pillars   []domain.Pillar `json:"pillars,omitempty"`
}

// JournalContext is the snapshot embedded in the journal guide prompt.
type JournalContext struct {
	Date          string `json:"date"`
	PreviousEntry string `json:"previousEntry,omitempty"`
}

// Receipt document kinds.
const (
	KindReceipt   = "receipt"
	KindStatement = "bank statement"
)

// ReceiptContext is the snapshot embedded in the extraction prompt.
type ReceiptContext struct {
	Kind            string `json:"kind"`
	DefaultCurrency string `json:"defaultCurrency"`
	FileName        string `json:"fileName,omitempty"`
}

func categories() []string {
	out := make([]string, len(domain.TaskCategories))
	for i, c := range domain.TaskCategories {
		out[i] = string(c)
	}
	return out
}

func priorities() []string {
	out := make([]string, len(domain.Priorities))
	for i, p := range domain.Priorities {
		out[i] = string(p)
	}
	return out
}

func actionTypes(types ...action.Type) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

// Triage builds the inbox triage prompt.
func Triage(c TriageContext) (string, error) {
	return render("triage", map[string]any{
		"Categories":  categories(),
		"Priorities":  priorities(),
		"ActionTypes": actionTypes(action.TypeCreateTask),
	}, c)
}

// Coach builds the financial coaching prompt.
func Coach(c CoachContext) (string, error) {
	return render("coach", map[string]any{
		"Categories":  categories(),
		"Priorities":  priorities(),
		"ActionTypes": actionTypes(action.TypeCreateTask, action.TypeCreateGoal),
	}, c)
}

// Misogi builds the Misogi coach or assistant prompt.
func Misogi(c MisogiContext) (string, error) {
	mode := c.Mode
	if mode == "" {
		mode = MisogiModeCoach
	}
	if mode != MisogiModeCoach && mode != MisogiModeAssistant {
		return "", fmt.Errorf("unknown misogi mode %q", c.Mode)
	}
	return render("misogi", map[string]any{
		"Mode":        mode,
		"Categories":  categories(),
		"Priorities":  priorities(),
		"ActionTypes": actionTypes(action.KnownTypes...),
	}, c)
}

// Journal builds the journal guide prompt.
func Journal(c JournalContext) (string, error) {
	return render("journal", map[string]any{"Date": c.Date}, c)
}

// Receipt builds the receipt/statement extraction prompt.
func Receipt(c ReceiptContext) (string, error) {
	kind := c.Kind
	if kind == "" {
		kind = KindReceipt
	}
	return render("receipt", map[string]any{
		"Kind":              kind,
		"ExpenseCategories": domain.ExpenseCategories,
	}, c)
}
