// Package relay composes the signaling relay from its components.
package relay

import (
	"errors"
	"fmt"
	"relay/coordinator"
	"relay/metric"
	"relay/signal"
)

// ErrPortConflict is returned when the signal and metrics servers share a port.
var ErrPortConflict = errors.New("port conflict")

// Config contains the configuration for the relay.
type Config struct {
	Signal      signal.Config
	Coordinator coordinator.Config
	Metrics     metric.Config
}

// Validate validates every sub-configuration.
func (c Config) Validate() error {
	if err := c.Signal.Validate(); err != nil {
		return fmt.Errorf("signal: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if c.Signal.Port == c.Metrics.Port {
		return fmt.Errorf("signal and metrics both use %d: %w", c.Signal.Port, ErrPortConflict)
	}
	return nil
}
