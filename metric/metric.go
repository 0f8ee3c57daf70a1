// Package metric provides Prometheus metrics collection and monitoring.
package metric

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
)

// Results recorded for joins and relays.
const (
	ResultSuccess = "success"
)

// Metrics contains the Prometheus metrics server and registered custom metrics.
type Metrics struct {
	httpServer *http.Server
	config     Config
	registry   *prometheus.Registry

	webSocketConnections prometheus.Gauge
	roomsActive          prometheus.Gauge
	roomJoins            *prometheus.CounterVec
	signalingRelays      *prometheus.CounterVec
	peerDisconnects      prometheus.Counter
	httpRequests         *prometheus.CounterVec
	httpRequestDuration  prometheus.Histogram
	cpuUsage             prometheus.Gauge
	memoryUsage          prometheus.Gauge
	goAlloc              prometheus.Gauge
}

// New creates a new Metrics instance with the specified configuration.
func New(config Config) *Metrics {
	m := &Metrics{
		config:   config,
		registry: prometheus.NewRegistry(),
		webSocketConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of WebSocket connections.",
		}),
		roomsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rooms_active",
			Help: "Current number of rooms with at least one member.",
		}),
		roomJoins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "room_joins_total",
			Help: "Number of join attempts by result.",
		}, []string{"result"}),
		signalingRelays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signaling_relays_total",
			Help: "Number of relayed signaling messages by kind and result.",
		}, []string{"kind", "result"}),
		peerDisconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "peer_disconnects_total",
			Help: "Number of peer-disconnected notifications sent.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Number of HTTP requests by status code.",
		}, []string{"code"}),
		httpRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}),
		cpuUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cpu_usage_percentage",
			Help: "CPU usage percentage.",
		}),
		memoryUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "memory_usage_bytes",
			Help: "Current memory usage of the host in bytes.",
		}),
		goAlloc: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "go_alloc_bytes",
			Help: "Bytes of allocated heap objects.",
		}),
	}

	mux := http.NewServeMux()
	mux.Handle(config.Path, m.Handler())
	m.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           mux,
		ReadHeaderTimeout: 2 * time.Second,
	}
	return m
}

// RegisterMetrics registers custom metrics with the registry of this instance.
func (m *Metrics) RegisterMetrics() {
	m.registry.MustRegister(
		m.webSocketConnections,
		m.roomsActive,
		m.roomJoins,
		m.signalingRelays,
		m.peerDisconnects,
		m.httpRequests,
		m.httpRequestDuration,
		m.cpuUsage,
		m.memoryUsage,
		m.goAlloc,
	)
}

// Handler returns the HTTP handler exposing the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer returns the registry of this instance.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Start runs the metrics HTTP server until Stop is called.
func (m *Metrics) Start() error {
	slog.Info("starting metrics server", "port", m.config.Port, "path", m.config.Path)
	if err := m.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the metrics server.
func (m *Metrics) Stop(ctx context.Context) error {
	slog.Info("stopping metrics server", "port", m.config.Port)
	return m.httpServer.Shutdown(ctx)
}

// UpdateSystemMetrics collects system-level metrics every interval until the
// context is done.
func (m *Metrics) UpdateSystemMetrics(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.collectSystemMetrics()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Metrics) collectSystemMetrics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	m.goAlloc.Set(float64(memStats.Alloc))

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		m.cpuUsage.Set(percents[0])
	} else if err != nil {
		slog.Debug("failed to read cpu usage", "error", err)
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		m.memoryUsage.Set(float64(vm.Used))
	} else {
		slog.Debug("failed to read memory usage", "error", err)
	}
}

// IncrementWebSocketConnections increments the WebSocket connection count.
func (m *Metrics) IncrementWebSocketConnections() {
	m.webSocketConnections.Inc()
}

// DecrementWebSocketConnections decrements the WebSocket connection count.
func (m *Metrics) DecrementWebSocketConnections() {
	m.webSocketConnections.Dec()
}

// IncrementRoomsActive counts a room created by its first member.
func (m *Metrics) IncrementRoomsActive() {
	m.roomsActive.Inc()
}

// DecrementRoomsActive counts a room deleted with its last member.
func (m *Metrics) DecrementRoomsActive() {
	m.roomsActive.Dec()
}

// ObserveRoomJoin counts a join attempt.
func (m *Metrics) ObserveRoomJoin(result string) {
	m.roomJoins.WithLabelValues(result).Inc()
}

// ObserveSignalingRelay counts a relay attempt of the given kind.
func (m *Metrics) ObserveSignalingRelay(kind, result string) {
	m.signalingRelays.WithLabelValues(kind, result).Inc()
}

// IncrementPeerDisconnects counts a peer-disconnected notification.
func (m *Metrics) IncrementPeerDisconnects() {
	m.peerDisconnects.Inc()
}

// ObserveHTTPRequest records the status code and duration of an HTTP request.
func (m *Metrics) ObserveHTTPRequest(code int, d time.Duration) {
	m.httpRequests.WithLabelValues(strconv.Itoa(code)).Inc()
	m.httpRequestDuration.Observe(d.Seconds())
}
