package domain

import "time"

// TaskCategory is the triage bucket a task lands in.
type TaskCategory string

const (
	// TaskCategoryAction is a single next step that can be done right away.
	TaskCategoryAction TaskCategory = "action"
	// TaskCategoryMission is a multi-step outcome.
	TaskCategoryMission TaskCategory = "mission"
	// TaskCategoryDelegate is work someone else should do.
	TaskCategoryDelegate TaskCategory = "delegate"
)

// TaskCategories lists every valid category in display order.
var TaskCategories = []TaskCategory{TaskCategoryAction, TaskCategoryMission, TaskCategoryDelegate}

// Valid reports whether c is a known category.
func (c TaskCategory) Valid() bool {
	for _, known := range TaskCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Priority ranks tasks.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists every valid priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

// Task status values.
const (
	TaskStatusInbox = "inbox"
	TaskStatusOpen  = "open"
	TaskStatusDone  = "done"
)

// Task is an inbox item, next action or mission.
type Task struct {
	ID        string       `json:"id"`
	UserID    string       `json:"-"`
	Title     string       `json:"title"`
	Notes     string       `json:"notes,omitempty"`
	Category  TaskCategory `json:"category"`
	Priority  Priority     `json:"priority"`
	Status    string       `json:"status"`
	DueDate   string       `json:"due_date,omitempty"`
	Source    string       `json:"source,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// Goal is a user goal, usually financial.
type Goal struct {
	ID           string    `json:"id"`
	UserID       string    `json:"-"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	TargetAmount float64   `json:"target_amount,omitempty"`
	Deadline     string    `json:"deadline,omitempty"`
	Pillar       string    `json:"pillar,omitempty"`
	Source       string    `json:"source,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
