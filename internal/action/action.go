// Package action turns model-suggested actions into typed mutations and applies them.
package action

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ashureev/misogi/internal/domain"
)

// Type is the discriminator of a suggested action.
type Type string

const (
	TypeCreateTask  Type = "create_task"
	TypeCreateGoal  Type = "create_goal"
	TypeAddResource Type = "add_resource"
	TypeAddRoadmap  Type = "add_roadmap"
)

// KnownTypes lists every action type the executor can apply.
var KnownTypes = []Type{TypeAddResource, TypeAddRoadmap, TypeCreateTask, TypeCreateGoal}

// ErrInvalidPayload is returned when a known action carries an unusable payload.
var ErrInvalidPayload = errors.New("invalid action payload")

// Suggested is the wire form of an action emitted by the model.
type Suggested struct {
	Type    Type            `json:"type"`
	Label   string          `json:"label,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Validate rejects suggestions without a type; such a reply is not acted upon.
func (s Suggested) Validate() error {
	if strings.TrimSpace(string(s.Type)) == "" {
		return errors.New("action type is required")
	}
	return nil
}

// Action is one of CreateTask, CreateGoal, AddResource, AddRoadmap or Unknown.
type Action interface {
	Kind() Type
	isAction()
}

// CreateTask inserts one task.
type CreateTask struct {
	Title    string              `json:"title"`
	Notes    string              `json:"notes"`
	Category domain.TaskCategory `json:"category"`
	Priority domain.Priority     `json:"priority"`
	DueDate  string              `json:"dueDate"`
}

// CreateGoal inserts one goal.
type CreateGoal struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	TargetAmount float64 `json:"targetAmount"`
	Deadline     string  `json:"deadline"`
	Pillar       string  `json:"pillar"`
}

// AddResource attaches a resource to a Misogi.
type AddResource struct {
	MisogiID     string `json:"misogiId"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	ResourceKind string `json:"kind"`
}

// AddRoadmap appends a step to a Misogi roadmap.
type AddRoadmap struct {
	MisogiID    string `json:"misogiId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Position    int    `json:"position"`
}

// Unknown carries an action type this build does not understand.
type Unknown struct {
	Type Type
	Raw  json.RawMessage
}

func (CreateTask) Kind() Type  { return TypeCreateTask }
func (CreateGoal) Kind() Type  { return TypeCreateGoal }
func (AddResource) Kind() Type { return TypeAddResource }
func (AddRoadmap) Kind() Type  { return TypeAddRoadmap }
func (u Unknown) Kind() Type   { return u.Type }

func (CreateTask) isAction()  {}
func (CreateGoal) isAction()  {}
func (AddResource) isAction() {}
func (AddRoadmap) isAction()  {}
func (Unknown) isAction()     {}

// Decode converts a suggestion into its typed variant. Unknown types decode
// to Unknown without error. Payload fields that identify a user are never
// read: the structs have nowhere to put them.
func Decode(s Suggested) (Action, error) {
	var (
		act Action
		err error
	)
	switch s.Type {
	case TypeCreateTask:
		var a CreateTask
		err = decodePayload(s.Payload, &a)
		if err == nil {
			err = a.normalize()
		}
		act = a
	case TypeCreateGoal:
		var a CreateGoal
		err = decodePayload(s.Payload, &a)
		if err == nil && strings.TrimSpace(a.Title) == "" {
			err = fmt.Errorf("%w: title is required", ErrInvalidPayload)
		}
		if err == nil && a.TargetAmount < 0 {
			err = fmt.Errorf("%w: targetAmount must not be negative", ErrInvalidPayload)
		}
		act = a
	case TypeAddResource:
		var a AddResource
		err = decodePayload(s.Payload, &a)
		if err == nil && (a.MisogiID == "" || strings.TrimSpace(a.Title) == "") {
			err = fmt.Errorf("%w: misogiId and title are required", ErrInvalidPayload)
		}
		act = a
	case TypeAddRoadmap:
		var a AddRoadmap
		err = decodePayload(s.Payload, &a)
		if err == nil && (a.MisogiID == "" || strings.TrimSpace(a.Title) == "") {
			err = fmt.Errorf("%w: misogiId and title are required", ErrInvalidPayload)
		}
		act = a
	default:
		return Unknown{Type: s.Type, Raw: s.Payload}, nil
	}
	if err != nil {
		return nil, err
	}
	return act, nil
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("%w: payload is required", ErrInvalidPayload)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func (a *CreateTask) normalize() error {
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidPayload)
	}
	if a.Category == "" {
		a.Category = domain.TaskCategoryAction
	}
	if !a.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidPayload, a.Category)
	}
	if a.Priority == "" {
		a.Priority = domain.PriorityMedium
	}
	if !a.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidPayload, a.Priority)
	}
	if a.DueDate != "" && !domain.ValidDate(a.DueDate) {
		return fmt.Errorf("%w: dueDate must be YYYY-MM-DD", ErrInvalidPayload)
	}
	return nil
}
