package metric

import (
	"errors"
	"fmt"
	"strings"
)

// Default values for metrics configuration.
const (
	DefaultMetricsPort = 9090
	DefaultMetricsPath = "/metrics"
)

// Below is the Error message for the metrics server.
var (
	ErrInvalidPort = errors.New("invalid metrics port")
	ErrInvalidPath = errors.New("invalid metrics path")
)

// Config defines the configuration for the metrics server.
type Config struct {
	Port int    // Port for metrics server
	Path string // Path for metrics endpoint
}

// Validate validates the port number and the endpoint path.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("must be between 1 and 65535, given %d: %w", c.Port, ErrInvalidPort)
	}
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("must start with '/', given %q: %w", c.Path, ErrInvalidPath)
	}
	return nil
}
