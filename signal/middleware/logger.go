// Package middleware contains common middleware functions for HTTP handlers.
package middleware

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"relay/metric"
	"time"
)

// Logger logs requests and exports their status code and duration.
type Logger struct {
	metric *metric.Metrics
}

type logWriter struct {
	http.ResponseWriter
	statusCode int
}

func (l *logWriter) WriteHeader(code int) {
	l.statusCode = code
	l.ResponseWriter.WriteHeader(code)
}

func (l *logWriter) Write(b []byte) (int, error) {
	if l.statusCode == 0 {
		l.statusCode = http.StatusOK
	}
	return l.ResponseWriter.Write(b)
}

// Hijack hijacks the connection. This is necessary for using websockets.
func (l *logWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := l.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	l.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

// NewLogger creates a new Logger middleware.
func NewLogger(m *metric.Metrics) *Logger {
	return &Logger{metric: m}
}

// Intercept logs the request and response.
func (l Logger) Intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := logWriter{ResponseWriter: w}
		next.ServeHTTP(&rw, r)

		if rw.statusCode == 0 {
			rw.statusCode = http.StatusOK
		}
		elapsed := time.Since(start)
		l.metric.ObserveHTTPRequest(rw.statusCode, elapsed)

		if rw.statusCode >= 400 {
			slog.Warn("request failed", "method", r.Method, "path", r.URL.Path, "code", rw.statusCode, "elapsed", elapsed)
			return
		}
		slog.Debug("request succeeded", "method", r.Method, "path", r.URL.Path, "code", rw.statusCode, "elapsed", elapsed)
	})
}
