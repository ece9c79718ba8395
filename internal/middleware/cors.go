// Package middleware provides HTTP middleware for the Misogi API.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultCORSMaxAge is how long browsers may cache a preflight result.
const DefaultCORSMaxAge = 10 * time.Minute

// CORSOptions configures cross-origin access to the API.
type CORSOptions struct {
	AllowedOrigins []string
	// AllowedHeaders is appended to Content-Type and Authorization.
	AllowedHeaders []string
	// ExposedHeaders are readable by browser scripts.
	ExposedHeaders []string
	MaxAge         time.Duration
}

// CORS returns middleware that handles CORS headers.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	allowHeaders := strings.Join(append([]string{"Content-Type", "Authorization"}, opts.AllowedHeaders...), ", ")
	exposeHeaders := strings.Join(opts.ExposedHeaders, ", ")
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultCORSMaxAge
	}
	maxAgeSeconds := strconv.Itoa(int(maxAge / time.Second))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			w.Header().Add("Vary", "Origin")

			wildcard, explicit := matchOrigin(opts.AllowedOrigins, origin)
			if origin != "" && (wildcard || explicit) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
				if exposeHeaders != "" {
					w.Header().Set("Access-Control-Expose-Headers", exposeHeaders)
				}
				// Credentials only for explicit origins. A wildcard-echoed origin with
				// credentials enables CSRF.
				if explicit {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				if r.Method == http.MethodOptions {
					w.Header().Set("Access-Control-Max-Age", maxAgeSeconds)
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func matchOrigin(allowed []string, origin string) (wildcard, explicit bool) {
	for _, o := range allowed {
		switch o {
		case origin:
			explicit = true
		case "*":
			wildcard = true
		}
	}
	return wildcard, explicit
}
