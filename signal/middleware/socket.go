// Package middleware contains common middleware functions for HTTP handlers.
package middleware

import (
	"log/slog"
	"net/http"
	"relay/pkg/socket"
	"relay/signal/controller"
)

// Socket upgrades requests on its path and hands the socket to the controller.
type Socket struct {
	controller *controller.Controller
	path       string
	origins    []string
}

// NewSocket creates a new Socket middleware.
func NewSocket(con *controller.Controller, path string, origins []string) *Socket {
	return &Socket{
		controller: con,
		path:       path,
		origins:    origins,
	}
}

// Intercept processes the request and call the next handler.
func (s *Socket) Intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != s.path {
			next.ServeHTTP(w, r)
			return
		}

		ws, err := socket.New(w, r, func(r *http.Request) bool {
			return AllowOrigin(s.origins, r.Header.Get("Origin"))
		})
		if err != nil {
			slog.Warn("failed to create websocket", "remote_addr", r.RemoteAddr, "error", err)
			return
		}
		if err := s.controller.Process(ws); err != nil {
			slog.Debug("failed to process websocket", "remote_addr", r.RemoteAddr, "error", err)
		}
	})
}
