package signal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"relay/metric"
	"relay/signal/controller"
	"relay/signal/middleware"
	"time"
)

const (
	// WebSocketPath is the path of the signaling endpoint.
	WebSocketPath = "/ws"

	// HealthPath is the path of the liveness endpoint.
	HealthPath = "/health"
)

// Signal contains the server and configuration.
type Signal struct {
	server *http.Server
	conf   Config
}

// New creates a new instance of Signal.
func New(config Config, con *controller.Controller, met *metric.Metrics) *Signal {
	mux := http.NewServeMux()
	mux.HandleFunc(HealthPath, health)

	mds := []middleware.Interceptor{
		middleware.NewSocket(con, WebSocketPath, config.AllowedOrigins),
		middleware.NewCORS(config.AllowedOrigins),
		middleware.NewLogger(met),
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		ReadHeaderTimeout: 2 * time.Second,
		Handler:           middleware.Set(mux, mds...),
	}
	srv.RegisterOnShutdown(con.CloseAll)

	return &Signal{
		server: srv,
		conf:   config,
	}
}

// Handler returns the root handler of the server.
func (s *Signal) Handler() http.Handler {
	return s.server.Handler
}

// Start runs the signal server until Shutdown is called.
func (s *Signal) Start() error {
	var err error
	if s.conf.IsTLS() {
		slog.Info("starting server", "port", s.conf.Port, "tls", true)
		err = s.server.ListenAndServeTLS(s.conf.CertFile, s.conf.KeyFile)
	} else {
		slog.Info("starting server", "port", s.conf.Port, "tls", false)
		err = s.server.ListenAndServe()
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and closes the open sockets.
func (s *Signal) Shutdown(ctx context.Context) error {
	slog.Info("stopping server", "port", s.conf.Port)
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
