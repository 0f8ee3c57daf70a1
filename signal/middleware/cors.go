// Package middleware contains common middleware functions for HTTP handlers.
package middleware

import (
	"net/http"
	"slices"
)

// AnyOrigin allows every origin.
const AnyOrigin = "*"

// CORS sets up CORS headers for the allowed origins.
type CORS struct {
	origins []string
}

// NewCORS creates a new CORS middleware.
func NewCORS(origins []string) *CORS {
	return &CORS{origins: origins}
}

// Intercept sets up CORS headers.
func (c CORS) Intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case slices.Contains(c.origins, AnyOrigin):
			w.Header().Set("Access-Control-Allow-Origin", AnyOrigin)
		case origin != "" && AllowOrigin(c.origins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AllowOrigin reports whether the origin is allowed. Requests without an
// Origin header come from non-browser clients and are allowed.
func AllowOrigin(origins []string, origin string) bool {
	if origin == "" {
		return true
	}
	return slices.Contains(origins, AnyOrigin) || slices.Contains(origins, origin)
}
