package middleware

import (
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// EchoRequestID copies the request ID assigned by chi's RequestID middleware
// onto the response so clients can quote it in bug reports.
func EchoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chiMiddleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(chiMiddleware.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}
