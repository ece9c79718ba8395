package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/ashureev/misogi/internal/action"
	"github.com/ashureev/misogi/internal/contract"
	"github.com/ashureev/misogi/internal/conversation"
	"github.com/ashureev/misogi/internal/domain"
	"github.com/ashureev/misogi/internal/llm"
	"github.com/ashureev/misogi/internal/prompt"
	"github.com/ashureev/misogi/internal/store"
	"github.com/google/uuid"
)

// snapshotLimit bounds how many tasks and goals are embedded in a prompt.
const snapshotLimit = 50

// Store is the read/write surface the assistant needs beyond the executor.
type Store interface {
	ListTasks(ctx context.Context, userID string, limit int) ([]domain.Task, error)
	ListGoals(ctx context.Context, userID string, limit int) ([]domain.Goal, error)
	GetJournalEntry(ctx context.Context, userID, date string) (*domain.JournalEntry, error)
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
}

// Service runs the prompt → model → contract → executor pipeline per use case.
type Service struct {
	client   llm.Client
	session  *conversation.Session
	store    Store
	executor *action.Executor
	log      ConversationLogger
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates an assistant service.
func NewService(client llm.Client, st Store, executor *action.Executor, convLog ConversationLogger, logger *slog.Logger) *Service {
	if convLog == nil {
		convLog = noopConversationLogger{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:   client,
		session:  conversation.NewSession(client),
		store:    st,
		executor: executor,
		log:      convLog,
		logger:   logger,
		now:      time.Now,
	}
}

// Configured reports whether the model client has a credential.
func (s *Service) Configured() bool {
	return s.client != nil && s.client.Configured()
}

// Triage classifies the newest inbox message.
func (s *Service) Triage(ctx context.Context, c Caller, req TriageRequest) (*TriageOutcome, error) {
	if !s.Configured() {
		return nil, llm.ErrNotConfigured
	}
	snapshot := req.Context
	if snapshot == nil {
		tasks, goals, err := s.loadSnapshot(ctx, c.UserID)
		if err != nil {
			return nil, err
		}
		snapshot = &prompt.TriageContext{Tasks: tasks, Goals: goals}
	}
	if snapshot.Today == "" {
		snapshot.Today = s.now().Format(domain.DateLayout)
	}

	system, err := prompt.Triage(*snapshot)
	if err != nil {
		return nil, fmt.Errorf("build triage prompt: %w", err)
	}
	out, err := converse(ctx, s, c, "triage", system, req.Messages, triageFallback)
	if err != nil {
		return nil, err
	}
	if out.SuggestedActions == nil {
		out.SuggestedActions = []action.Suggested{}
	}
	return &out, nil
}

// Coach answers a finance question and applies the suggested actions for the caller.
func (s *Service) Coach(ctx context.Context, c Caller, req CoachRequest) (*CoachOutcome, error) {
	if !s.Configured() {
		return nil, llm.ErrNotConfigured
	}
	snapshot := req.Context
	if snapshot == nil {
		tasks, goals, err := s.loadSnapshot(ctx, c.UserID)
		if err != nil {
			return nil, err
		}
		snapshot = &prompt.CoachContext{Tasks: tasks, Goals: goals}
	}

	system, err := prompt.Coach(*snapshot)
	if err != nil {
		return nil, fmt.Errorf("build coach prompt: %w", err)
	}
	out, err := converse(ctx, s, c, "coach", system, req.Messages, coachFallback)
	if err != nil {
		return nil, err
	}
	if out.Actions == nil {
		out.Actions = []action.Suggested{}
	}

	report := s.executor.Execute(ctx, c.UserID, out.Actions)
	out.ShouldRefresh = report.ShouldRefresh
	out.ActionResults = report.Results
	return &out, nil
}

// Misogi talks with the Misogi coach or assistant. Suggestions are returned, not applied.
func (s *Service) Misogi(ctx context.Context, c Caller, req MisogiRequest) (*MisogiOutcome, error) {
	if !s.Configured() {
		return nil, llm.ErrNotConfigured
	}
	snapshot := req.Context
	snapshot.Mode = req.Mode

	system, err := prompt.Misogi(snapshot)
	if err != nil {
		return nil, validationError(err)
	}
	out, err := converse(ctx, s, c, "misogi", system, req.Messages, misogiFallback)
	if err != nil {
		return nil, err
	}
	if out.SuggestedActions == nil {
		out.SuggestedActions = []action.Suggested{}
	}
	return &out, nil
}

// Journal guides one step of writing the entry for a date.
func (s *Service) Journal(ctx context.Context, c Caller, req JournalRequest) (*JournalOutcome, error) {
	if !s.Configured() {
		return nil, llm.ErrNotConfigured
	}
	date := req.Date
	if date == "" {
		date = s.now().Format(domain.DateLayout)
	}
	if !domain.ValidDate(date) {
		return nil, validationError(fmt.Errorf("invalid date %q", date))
	}

	snapshot := prompt.JournalContext{Date: date}
	if req.Context != nil {
		snapshot = *req.Context
		snapshot.Date = date
	} else {
		entry, err := s.store.GetJournalEntry(ctx, c.UserID, date)
		switch {
		case err == nil:
			snapshot.PreviousEntry = entry.Content
		case !errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("load journal entry: %w", err)
		}
	}

	system, err := prompt.Journal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("build journal prompt: %w", err)
	}
	out, err := converse(ctx, s, c, "journal", system, req.Messages, journalFallback)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Receipt extracts an expense from an uploaded document and stores it when a
// total could be read.
func (s *Service) Receipt(ctx context.Context, c Caller, in ReceiptInput) (*ReceiptOutcome, error) {
	if !s.Configured() {
		return nil, llm.ErrNotConfigured
	}
	if len(in.Data) == 0 {
		return nil, validationError(errors.New("file is required"))
	}
	if !supportedUpload(in.MIMEType) {
		return nil, validationError(fmt.Errorf("unsupported file type %q", in.MIMEType))
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "USD"
	}

	system, err := prompt.Receipt(prompt.ReceiptContext{
		Kind:            in.Kind,
		DefaultCurrency: currency,
		FileName:        in.FileName,
	})
	if err != nil {
		return nil, validationError(err)
	}

	req := llm.Prompt(system, true)
	req.Attachments = []llm.Attachment{{MIMEType: in.MIMEType, Data: in.Data}}

	s.logEvent(c, "receipt", "outbound", "receipt_upload", in.FileName, map[string]any{
		"mime_type": in.MIMEType,
		"bytes":     len(in.Data),
	})
	raw, err := s.client.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	out, perr := contract.Parse(raw, receiptFallback)
	s.logReply(c, "receipt", raw, perr)
	if out.Items == nil {
		out.Items = []domain.LineItem{}
	}
	if perr != nil || out.Total == nil {
		return &out, nil
	}

	if out.Currency == "" {
		out.Currency = currency
	}
	if out.Category == "" {
		out.Category = "other"
	}
	tx := &domain.Transaction{
		ID:        uuid.NewString(),
		UserID:    c.UserID,
		Merchant:  out.Merchant,
		Date:      out.Date,
		Total:     *out.Total,
		Currency:  out.Currency,
		Category:  out.Category,
		Items:     out.Items,
		Source:    "receipt",
		CreatedAt: s.now(),
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		s.logger.Error("Failed to store extracted transaction", "user_id", c.UserID, "error", err)
		return &out, nil
	}
	out.TransactionID = tx.ID
	return &out, nil
}

// Apply runs suggestions the user accepted through the executor.
func (s *Service) Apply(ctx context.Context, c Caller, req ApplyRequest) (action.Report, error) {
	if len(req.Actions) == 0 {
		return action.Report{}, validationError(errors.New("actions are required"))
	}
	return s.executor.Execute(ctx, c.UserID, req.Actions), nil
}

func (s *Service) loadSnapshot(ctx context.Context, userID string) ([]domain.Task, []domain.Goal, error) {
	tasks, err := s.store.ListTasks(ctx, userID, snapshotLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("load tasks: %w", err)
	}
	goals, err := s.store.ListGoals(ctx, userID, snapshotLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("load goals: %w", err)
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	if goals == nil {
		goals = []domain.Goal{}
	}
	return tasks, goals, nil
}

// converse runs one conversational round trip and parses the reply into T.
// A reply that breaks the contract degrades to fallback(raw) and is not an error.
func converse[T contract.Outcome](ctx context.Context, s *Service, c Caller, useCase, system string, messages []domain.Turn, fallback func(string) T) (T, error) {
	var zero T
	prior, newMessage, err := conversation.Split(messages)
	if err != nil {
		return zero, validationError(err)
	}

	s.logEvent(c, useCase, "outbound", "user_message", newMessage, map[string]any{
		"prior_turns": len(prior),
	})
	raw, err := s.session.Send(ctx, system, prior, newMessage)
	if err != nil {
		if errors.Is(err, conversation.ErrInvalidRole) || errors.Is(err, conversation.ErrEmptyMessage) {
			return zero, validationError(err)
		}
		return zero, err
	}

	out, perr := contract.Parse(raw, fallback)
	s.logReply(c, useCase, raw, perr)
	return out, nil
}

func (s *Service) logReply(c Caller, useCase, raw string, parseErr error) {
	if parseErr != nil {
		s.logger.Warn("Model reply did not match contract, using fallback",
			"use_case", useCase,
			"user_id", c.UserID,
			"error", parseErr,
		)
	}
	s.logEvent(c, useCase, "inbound", "assistant_message", raw, map[string]any{
		"fallback": parseErr != nil,
	})
}

func (s *Service) logEvent(c Caller, useCase, direction, eventType, content string, meta map[string]any) {
	if meta == nil {
		meta = map[string]any{}
	}
	meta["request_id"] = c.RequestID
	s.log.Log(ConversationLogEvent{
		Timestamp:  s.now().UTC().Format(time.RFC3339Nano),
		UserID:     c.UserID,
		SessionID:  c.SessionID,
		Channel:    "ai_" + useCase,
		Direction:  direction,
		EventType:  eventType,
		ContentRaw: content,
		Content:    cleanForReadability(content),
		Meta:       meta,
	})
}

var uploadTypes = []string{
	"image/jpeg", "image/png", "image/webp", "image/heic", "image/heif", "application/pdf",
}

func supportedUpload(mimeType string) bool {
	return slices.Contains(uploadTypes, mimeType)
}
