package logging_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"relay/logging"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		name  string
		debug bool
		value string
		want  slog.Level
	}{
		{name: "given nothing when resolved then return info", want: slog.LevelInfo},
		{name: "given debug flag when resolved then return debug", debug: true, value: "error", want: slog.LevelDebug},
		{name: "given debug env when resolved then return debug", value: "debug", want: slog.LevelDebug},
		{name: "given warning env when resolved then return warn", value: "warning", want: slog.LevelWarn},
		{name: "given prod env when resolved then return error", value: "prod", want: slog.LevelError},
		{name: "given unknown env when resolved then return info", value: "verbose", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logging.Level(tt.debug, tt.value))
		})
	}
}

func TestInit(t *testing.T) {
	t.Setenv(logging.EnvLevel, "warn")
	logging.Init(false)

	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelWarn))
}
