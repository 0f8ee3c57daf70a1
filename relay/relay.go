package relay

import (
	"context"
	"fmt"
	"log/slog"
	"relay/broker"
	"relay/broker/subscription"
	"relay/coordinator"
	"relay/database"
	"relay/database/memory"
	"relay/metric"
	"relay/signal"
	"relay/signal/controller"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// ShutdownTimeout bounds the graceful shutdown of the servers.
	ShutdownTimeout = 5 * time.Second

	// SystemMetricsInterval is the period of the system metrics collection.
	SystemMetricsInterval = 15 * time.Second
)

// Relay contains servers and configuration.
type Relay struct {
	broker      *broker.Broker
	database    database.Database
	coordinator *coordinator.Coordinator
	signal      *signal.Signal
	metric      *metric.Metrics
}

// New creates a new instance of Relay.
func New(config Config) *Relay {
	brk := broker.New(subscription.DefaultQueueSize)
	db := memory.New()
	met := metric.New(config.Metrics)
	met.RegisterMetrics()
	cod := coordinator.New(config.Coordinator, brk, db, met)
	con := controller.New(brk, cod, met)
	sig := signal.New(config.Signal, con, met)

	return &Relay{
		broker:      brk,
		database:    db,
		coordinator: cod,
		signal:      sig,
		metric:      met,
	}
}

// Start runs the signal server and metrics server until the context is done
// or one of them fails.
func (r *Relay) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.metric.UpdateSystemMetrics(ctx, SystemMetricsInterval)
		return nil
	})
	g.Go(func() error {
		return r.metric.Start()
	})
	g.Go(func() error {
		if err := r.signal.Start(); err != nil {
			return fmt.Errorf("failed to start signal server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return r.shutdown()
	})

	return g.Wait()
}

func (r *Relay) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	slog.Info("shutting down relay")
	if err := r.signal.Shutdown(ctx); err != nil {
		return err
	}
	if err := r.metric.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop metrics server: %w", err)
	}
	return nil
}
