package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestEchoRequestID(t *testing.T) {
	h := chiMiddleware.RequestID(EchoRequestID(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set(chiMiddleware.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(chiMiddleware.RequestIDHeader))
}

func TestEchoRequestIDWithoutID(t *testing.T) {
	w := httptest.NewRecorder()
	EchoRequestID(http.NotFoundHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, w.Header().Get(chiMiddleware.RequestIDHeader))
}
