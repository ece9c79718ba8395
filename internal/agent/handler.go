package agent

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ashureev/misogi/internal/api"
	"github.com/ashureev/misogi/internal/config"
	"github.com/ashureev/misogi/internal/identity"
	"github.com/ashureev/misogi/internal/llm"
	"github.com/ashureev/misogi/internal/prompt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

const (
	// defaultMaxRequestBodySize is the default maximum allowed request body size (1MB).
	defaultMaxRequestBodySize = 1 << 20
	defaultMaxUploadSize      = 10 << 20

	notConfiguredMessage = "AI assistant is not configured"
	notConfiguredDetails = "set GEMINI_API_KEY and restart the server"
)

// Handler serves the AI assistant endpoints.
type Handler struct {
	svc           *Service
	rateLimiter   *RateLimiter
	maxBodySize   int64
	maxUploadSize int64
}

// NewHandler creates an assistant handler. cfg may be nil in tests.
func NewHandler(svc *Service, cfg *config.Config) *Handler {
	h := &Handler{
		svc:           svc,
		maxBodySize:   defaultMaxRequestBodySize,
		maxUploadSize: defaultMaxUploadSize,
	}
	var (
		limit  int
		window time.Duration
	)
	if cfg != nil {
		limit, window = cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.WindowDuration
		if cfg.HTTP.MaxRequestBodySize > 0 {
			h.maxBodySize = cfg.HTTP.MaxRequestBodySize
		}
		if cfg.HTTP.MaxUploadSize > 0 {
			h.maxUploadSize = cfg.HTTP.MaxUploadSize
		}
	}
	h.rateLimiter = NewRateLimiter(limit, window)
	return h
}

// RegisterRoutes registers assistant routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/ai", func(r chi.Router) {
		r.Post("/triage", h.HandleTriage)
		r.Post("/coach", h.HandleCoach)
		r.Post("/misogi", h.HandleMisogi)
		r.Post("/journal", h.HandleJournal)
		r.Post("/receipt", h.HandleReceipt)
	})
	r.Post("/api/actions/apply", h.HandleApply)
}

// Close releases handler resources.
func (h *Handler) Close() {
	h.rateLimiter.Stop()
}

// HandleTriage handles POST /api/ai/triage.
func (h *Handler) HandleTriage(w http.ResponseWriter, r *http.Request) {
	c, ok := h.begin(w, r)
	if !ok {
		return
	}
	var req TriageRequest
	if !api.DecodeJSON(w, r, h.maxBodySize, &req) {
		return
	}
	out, err := h.svc.Triage(r.Context(), c, req)
	h.respond(w, c, "triage", out, err)
}

// HandleCoach handles POST /api/ai/coach.
func (h *Handler) HandleCoach(w http.ResponseWriter, r *http.Request) {
	c, ok := h.begin(w, r)
	if !ok {
		return
	}
	var req CoachRequest
	if !api.DecodeJSON(w, r, h.maxBodySize, &req) {
		return
	}
	out, err := h.svc.Coach(r.Context(), c, req)
	h.respond(w, c, "coach", out, err)
}

// HandleMisogi handles POST /api/ai/misogi.
func (h *Handler) HandleMisogi(w http.ResponseWriter, r *http.Request) {
	c, ok := h.begin(w, r)
	if !ok {
		return
	}
	var req MisogiRequest
	if !api.DecodeJSON(w, r, h.maxBodySize, &req) {
		return
	}
	out, err := h.svc.Misogi(r.Context(), c, req)
	h.respond(w, c, "misogi", out, err)
}

// HandleJournal handles POST /api/ai/journal.
func (h *Handler) HandleJournal(w http.ResponseWriter, r *http.Request) {
	c, ok := h.begin(w, r)
	if !ok {
		return
	}
	var req JournalRequest
	if !api.DecodeJSON(w, r, h.maxBodySize, &req) {
		return
	}
	out, err := h.svc.Journal(r.Context(), c, req)
	h.respond(w, c, "journal", out, err)
}

// HandleReceipt handles POST /api/ai/receipt with a multipart "file" field.
func (h *Handler) HandleReceipt(w http.ResponseWriter, r *http.Request) {
	c, ok := h.begin(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Error(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		api.ErrorWithDetails(w, http.StatusBadRequest, "invalid upload", err.Error())
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	kind := prompt.KindReceipt
	if r.FormValue("kind") == "statement" {
		kind = prompt.KindStatement
	}

	out, err := h.svc.Receipt(r.Context(), c, ReceiptInput{
		Kind:     kind,
		Currency: r.FormValue("currency"),
		FileName: header.Filename,
		MIMEType: mimeType,
		Data:     data,
	})
	h.respond(w, c, "receipt", out, err)
}

// HandleApply handles POST /api/actions/apply.
func (h *Handler) HandleApply(w http.ResponseWriter, r *http.Request) {
	c := caller(r)
	if c.UserID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req ApplyRequest
	if !api.DecodeJSON(w, r, h.maxBodySize, &req) {
		return
	}
	report, err := h.svc.Apply(r.Context(), c, req)
	h.respond(w, c, "apply", report, err)
}

// begin runs the checks shared by every AI endpoint. The configuration check
// comes first so an unconfigured server never reads the body or calls the model.
func (h *Handler) begin(w http.ResponseWriter, r *http.Request) (Caller, bool) {
	c := caller(r)
	if c.UserID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return c, false
	}
	if !h.svc.Configured() {
		api.ErrorWithDetails(w, http.StatusInternalServerError, notConfiguredMessage, notConfiguredDetails)
		return c, false
	}
	if !h.rateLimiter.Allow(c.UserID) {
		api.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return c, false
	}
	return c, true
}

func (h *Handler) respond(w http.ResponseWriter, c Caller, useCase string, out any, err error) {
	switch {
	case err == nil:
		api.JSON(w, http.StatusOK, out)
	case errors.Is(err, ErrValidation):
		api.ErrorWithDetails(w, http.StatusBadRequest, "invalid request", err.Error())
	case errors.Is(err, llm.ErrNotConfigured):
		api.ErrorWithDetails(w, http.StatusInternalServerError, notConfiguredMessage, notConfiguredDetails)
	case errors.Is(err, llm.ErrUpstream):
		slog.Error("Model call failed", "use_case", useCase, "user_id", c.UserID, "request_id", c.RequestID, "error", err)
		api.ErrorWithDetails(w, http.StatusInternalServerError, "assistant unavailable", "the model did not answer, try again")
	default:
		slog.Error("Assistant request failed", "use_case", useCase, "user_id", c.UserID, "request_id", c.RequestID, "error", err)
		api.ErrorWithDetails(w, http.StatusInternalServerError, "internal error", "the request could not be completed")
	}
}

func caller(r *http.Request) Caller {
	return Caller{
		UserID:    identity.UserIDFromContext(r.Context()),
		SessionID: identity.SessionIDFromContext(r.Context()),
		RequestID: chiMiddleware.GetReqID(r.Context()),
	}
}
