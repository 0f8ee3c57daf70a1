// Package signal serves the signaling endpoints over HTTP.
package signal

import (
	"errors"
	"fmt"
	"os"
	"relay/signal/middleware"
	"slices"
)

const (
	// DefaultPort is the default port number for the server.
	DefaultPort = 7070

	// AnyOrigin allows every origin.
	AnyOrigin = middleware.AnyOrigin
)

// Below is the Error message for the server.
var (
	ErrInvalidPort     = errors.New("invalid port")
	ErrInvalidCertFile = errors.New("invalid cert file")
	ErrInvalidKeyFile  = errors.New("invalid key file")
	ErrInvalidOrigins  = errors.New("invalid origins")
)

// Config is the configuration for creating a Server instance.
type Config struct {
	Port           int
	Debug          bool
	CertFile       string
	KeyFile        string
	AllowedOrigins []string
}

// IsSame checks if the given config is the same as the current one.
func (c Config) IsSame(config Config) bool {
	return c.Port == config.Port &&
		c.Debug == config.Debug &&
		c.CertFile == config.CertFile &&
		c.KeyFile == config.KeyFile &&
		slices.Equal(c.AllowedOrigins, config.AllowedOrigins)
}

// IsTLS reports whether the server is configured to serve TLS.
func (c Config) IsTLS() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// Validate validates the port number, the origins and the files for certification.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("must be between 1 and 65535, given %d: %w", c.Port, ErrInvalidPort)
	}

	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one origin is required: %w", ErrInvalidOrigins)
	}
	for _, origin := range c.AllowedOrigins {
		if origin == "" {
			return fmt.Errorf("empty origin: %w", ErrInvalidOrigins)
		}
	}

	if c.CertFile == "" && c.KeyFile == "" {
		return nil
	}

	if err := checkFile(c.CertFile); err != nil {
		return fmt.Errorf("%s: %w", err, ErrInvalidCertFile)
	}
	if err := checkFile(c.KeyFile); err != nil {
		return fmt.Errorf("%s: %w", err, ErrInvalidKeyFile)
	}

	return nil
}

func checkFile(name string) error {
	if name == "" {
		return errors.New("file is not given")
	}
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s does not exist", name)
		}
		return fmt.Errorf("unable to access %s", name)
	}
	return nil
}
