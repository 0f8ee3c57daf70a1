// Package logging configures the default slog logger.
package logging

import (
	"log/slog"
	"os"
)

// EnvLevel is the environment variable that overrides the log level.
const EnvLevel = "LOG_LEVEL"

// Init installs a text logger on stderr as the default logger.
func Init(debug bool) {
	value, _ := os.LookupEnv(EnvLevel)
	logger := slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: Level(debug, value),
		}),
	)
	slog.SetDefault(logger)
}

// Level resolves the log level. The debug flag wins over the environment.
func Level(debug bool, value string) slog.Level {
	if debug {
		return slog.LevelDebug
	}

	switch value {
	case "dev", "development", "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "production", "prod":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
