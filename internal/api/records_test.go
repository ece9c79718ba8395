//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/misogi/internal/config"
	"github.com/ashureev/misogi/internal/domain"
	"github.com/ashureev/misogi/internal/identity"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	repo    *fakeRepo
	unlocks *fakeUnlocks
	router  chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := newFakeRepo()
	unlocks := &fakeUnlocks{sessions: map[string]bool{}}
	cfg := &config.Config{
		Model: config.ModelConfig{Name: "gemini-2.5-flash"},
		HTTP:  config.HTTPConfig{MaxRequestBodySize: 1 << 10, MaxUploadSize: 1 << 20},
	}
	h := NewHandler(repo, unlocks, cfg)
	h.now = func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return &testEnv{repo: repo, unlocks: unlocks, router: r}
}

func (e *testEnv) do(t *testing.T, userID, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(identity.WithUser(req.Context(), userID, "tab-1"))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestCreateAndListTasks(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "u1", http.MethodPost, "/api/tasks", `{"title":"  Pay rent ","priority":"high"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created domain.Task
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, "Pay rent", created.Title)
	assert.Equal(t, domain.TaskCategoryAction, created.Category)
	assert.Equal(t, domain.TaskStatusInbox, created.Status)
	assert.NotEmpty(t, created.ID)

	env.do(t, "u2", http.MethodPost, "/api/tasks", `{"title":"Other user"}`)

	w = env.do(t, "u1", http.MethodGet, "/api/tasks", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Tasks []domain.Task `json:"tasks"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, "Pay rent", list.Tasks[0].Title)
}

func TestCreateTaskValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := map[string]string{
		"missing title":    `{"title":" "}`,
		"bad category":     `{"title":"x","category":"someday"}`,
		"bad due date":     `{"title":"x","due_date":"next week"}`,
		"malformed":        `{"title":`,
		"unknown priority": `{"title":"x","priority":"urgent"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, "u1", http.MethodPost, "/api/tasks", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, env.repo.tasks)
}

func TestRequestBodyTooLarge(t *testing.T) {
	env := newTestEnv(t)
	body := `{"title":"` + strings.Repeat("a", 2<<10) + `"}`
	w := env.do(t, "u1", http.MethodPost, "/api/tasks", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestCreateGoal(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "u1", http.MethodPost, "/api/goals", `{"title":"Emergency fund","target_amount":3000,"deadline":"2027-01-01"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, env.repo.goals, 1)
	assert.Equal(t, "u1", env.repo.goals[0].UserID)

	w = env.do(t, "u1", http.MethodPost, "/api/goals", `{"title":"Debt","target_amount":-5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPutRoutineLogIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	path := "/api/routines/morning/logs/2026-10-19"

	w := env.do(t, "u1", http.MethodPut, path, `{"completed_blocks":["stretch"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, "u1", http.MethodPut, path, `{"completed_blocks":["stretch","run"],"notes":"done"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "u1", http.MethodGet, "/api/routines/morning/logs", "")
	var list struct {
		Logs []domain.RoutineLog `json:"logs"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list.Logs, 1)
	assert.Equal(t, []string{"stretch", "run"}, list.Logs[0].CompletedBlocks)

	w = env.do(t, "u2", http.MethodPut, path, `{"completed_blocks":[]}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, "u1", http.MethodPut, "/api/routines/morning/logs/19-10-2026", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJournalEntryRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "u1", http.MethodGet, "/api/journal/2026-10-19", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, "u1", http.MethodPut, "/api/journal/2026-10-19", `{"content":"Hoy corrí 10k","mood":"proud"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "u1", http.MethodGet, "/api/journal/2026-10-19", "")
	require.Equal(t, http.StatusOK, w.Code)
	var entry domain.JournalEntry
	require.NoError(t, json.NewDecoder(w.Body).Decode(&entry))
	assert.Equal(t, "Hoy corrí 10k", entry.Content)

	w = env.do(t, "u1", http.MethodPut, "/api/journal/2026-10-19", `{"content":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnlockEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "", http.MethodGet, "/api/unlocks/cs_1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sessionId":"cs_1","unlocked":false}`, w.Body.String())

	w = env.do(t, "", http.MethodPost, "/api/unlocks", `{"sessionId":"cs_1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "", http.MethodGet, "/api/unlocks/cs_1", "")
	assert.JSONEq(t, `{"sessionId":"cs_1","unlocked":true}`, w.Body.String())

	w = env.do(t, "", http.MethodPost, "/api/unlocks", `{"sessionId":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.unlocks.fail = true
	w = env.do(t, "", http.MethodPost, "/api/unlocks", `{"sessionId":"cs_2"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMeConfigAndHealth(t *testing.T) {
	env := newTestEnv(t)
	env.repo.users["u1"] = &domain.User{UserID: "u1", Username: "anon-u1", LastSeenAt: time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC)}

	w := env.do(t, "u1", http.MethodGet, "/api/me", "")
	require.Equal(t, http.StatusOK, w.Code)
	var me map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&me))
	assert.Equal(t, "anon-u1", me["username"])
	assert.InDelta(t, 3600, me["idle_seconds"], 0.1)

	w = env.do(t, "", http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, "u1", http.MethodGet, "/api/config", "")
	assert.JSONEq(t, `{"ai_enabled":false,"model":"gemini-2.5-flash","max_upload_size":1048576}`, w.Body.String())

	w = env.do(t, "", http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	env.repo.pingErr = errors.New("closed")
	w = env.do(t, "", http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
