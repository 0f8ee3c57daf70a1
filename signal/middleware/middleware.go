// Package middleware contains common middleware functions for HTTP handlers.
package middleware

import "net/http"

// Interceptor is a middleware interface.
type Interceptor interface {
	Intercept(handlerFunc http.Handler) http.Handler
}

// Set applies multiple middleware to a handler. The last one given is the
// outermost: Set(h, socket, cors, logger) logs first, then sets CORS headers,
// and finally upgrades the socket.
func Set(h http.Handler, m ...Interceptor) http.Handler {
	for _, i := range m {
		h = i.Intercept(h)
	}
	return h
}
