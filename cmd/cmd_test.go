package cmd_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"relay/cmd"
	"relay/metric"
	"relay/relay"
	"relay/signal"
)

var anyOrigin = []string{signal.AnyOrigin}

// parse parses the command-line arguments and returns the configuration.
// It returns an error if the arguments are invalid.
func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    signal.Config
		wantErr bool
	}{
		{
			name: "given valid args when parsed then return config",
			args: []string{"--port=8080", "--key=/path/to/key.pem", "--cert=/path/to/cert.pem"},
			want: signal.Config{Port: 8080, KeyFile: "/path/to/key.pem", CertFile: "/path/to/cert.pem", AllowedOrigins: anyOrigin},
		},
		{
			name: "given missing port when parsed then return config with default port",
			args: []string{"--key=/path/to/key.pem", "--cert=/path/to/cert.pem"},
			want: signal.Config{Port: signal.DefaultPort, KeyFile: "/path/to/key.pem", CertFile: "/path/to/cert.pem", AllowedOrigins: anyOrigin},
		},
		{
			name: "given repeated origins when parsed then return all of them",
			args: []string{"--origin=https://a.example", "--origin=https://b.example"},
			want: signal.Config{Port: signal.DefaultPort, AllowedOrigins: []string{"https://a.example", "https://b.example"}},
		},
		{
			name: "given debug flag when parsed then return debug config",
			args: []string{"--debug"},
			want: signal.Config{Port: signal.DefaultPort, Debug: true, AllowedOrigins: anyOrigin},
		},
		{
			name: "given no args when parsed then return config",
			args: []string{},
			want: signal.Config{Port: signal.DefaultPort, AllowedOrigins: anyOrigin},
		},
		{
			name:    "given extra args when parsed then return error",
			args:    []string{"--port=8080", "extra"},
			wantErr: true,
		},
		{
			name:    "given unknown flag when parsed then return error",
			args:    []string{"--extra"},
			wantErr: true,
		},
		{
			name:    "given port flag without value when parsed then return error",
			args:    []string{"--port"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			got, err := cmd.Parse(&output, tt.args)
			if tt.wantErr {
				assert.Errorf(t, err, "parse() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Truef(t, got.Signal.IsSame(tt.want), "parse() = %v, want %v", got.Signal, tt.want)
		})
	}
}

func TestParseRelayFlags(t *testing.T) {
	var output bytes.Buffer
	got, err := cmd.Parse(&output, []string{"--strict-relay", "--metrics-port=9100", "--metrics-path=/stats"})
	assert.NoError(t, err)
	assert.True(t, got.Coordinator.StrictRelay)
	assert.Equal(t, metric.Config{Port: 9100, Path: "/stats"}, got.Metrics)

	got, err = cmd.Parse(&output, nil)
	assert.NoError(t, err)
	assert.False(t, got.Coordinator.StrictRelay)
	assert.Equal(t, metric.Config{Port: metric.DefaultMetricsPort, Path: metric.DefaultMetricsPath}, got.Metrics)
}

// Helper function to create a temporary file and return its path
func createTempFile(t *testing.T) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "testfile")
	assert.NoError(t, err)
	assert.NoError(t, tmpFile.Close())
	return tmpFile.Name()
}

// TestSetupConfig tests the SetupConfig function, including handling errors from parse and Config.Validate.
func TestSetupConfig(t *testing.T) {
	keyFile := createTempFile(t)
	certFile := createTempFile(t)

	tests := []struct {
		name        string
		args        []string
		expected    signal.Config
		expectError error
		expectFail  bool
	}{
		{
			name:     "given valid args when setup config then return valid config",
			args:     []string{"--port=8080", "--key=" + keyFile, "--cert=" + certFile},
			expected: signal.Config{Port: 8080, KeyFile: keyFile, CertFile: certFile, AllowedOrigins: anyOrigin},
		},
		{
			name:     "given no args when setup config then return default config",
			args:     []string{},
			expected: signal.Config{Port: signal.DefaultPort, AllowedOrigins: anyOrigin},
		},
		{
			name:        "given invalid port value when setup config then return error",
			args:        []string{"--port=70000"},
			expectError: signal.ErrInvalidPort,
		},
		{
			name:        "given non-existent cert file when setup config then return error",
			args:        []string{"--key=" + keyFile, "--cert=/non/existent/cert.pem"},
			expectError: signal.ErrInvalidCertFile,
		},
		{
			name:        "given non-existent key file when setup config then return error",
			args:        []string{"--cert=" + certFile, "--key=/non/existent/key.pem"},
			expectError: signal.ErrInvalidKeyFile,
		},
		{
			name:        "given cert file without key file when setup config then return error",
			args:        []string{"--cert=" + certFile},
			expectError: signal.ErrInvalidKeyFile,
		},
		{
			name:        "given empty origin when setup config then return error",
			args:        []string{"--origin="},
			expectError: signal.ErrInvalidOrigins,
		},
		{
			name:        "given metrics port equal to signal port when setup config then return error",
			args:        []string{"--port=9000", "--metrics-port=9000"},
			expectError: relay.ErrPortConflict,
		},
		{
			name:        "given relative metrics path when setup config then return error",
			args:        []string{"--metrics-path=metrics"},
			expectError: metric.ErrInvalidPath,
		},
		{
			name:       "given port flag without value when setup config then return error",
			args:       []string{"--port"},
			expectFail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := bytes.NewBuffer(make([]byte, 1024))

			config, err := cmd.SetupConfig(buf, tt.args)
			if tt.expectFail {
				assert.Error(t, err)
				return
			}
			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				return
			}

			assert.NoError(t, err)
			assert.Truef(t, config.Signal.IsSame(tt.expected), "SetupConfig() = %v, expected %v", config.Signal, tt.expected)
		})
	}
}
