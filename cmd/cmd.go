// Package cmd parse args to configure application.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	osignal "os/signal"
	"relay/coordinator"
	"relay/logging"
	"relay/metric"
	"relay/relay"
	"relay/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Run starts the application.
func Run() {
	var config relay.Config

	root := &cobra.Command{
		Use:           "relay",
		Short:         "WebRTC signaling relay",
		Long:          "relay pairs WebRTC peers in two-member rooms and forwards their offers, answers and ICE candidates over WebSocket.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(c *cobra.Command, _ []string) error {
			logging.Init(config.Signal.Debug)
			if err := config.Validate(); err != nil {
				return err
			}

			ctx, stop := osignal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return relay.New(config).Start(ctx)
		},
	}
	bindFlags(root.Flags(), &config)

	if err := root.ExecuteContext(context.Background()); err != nil {
		slog.Error("relay stopped", "error", err)
		os.Exit(1)
	}
}

// SetupConfig sets up and returns the configuration.
func SetupConfig(w io.Writer, args []string) (relay.Config, error) {
	config, err := Parse(w, args)
	if err != nil {
		return config, err
	}
	if err = config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// Parse parses the command line arguments.
func Parse(w io.Writer, args []string) (relay.Config, error) {
	con := relay.Config{}

	fs := pflag.NewFlagSet("relay", pflag.ContinueOnError)
	fs.SetOutput(w)
	bindFlags(fs, &con)

	err := fs.Parse(args)
	if err != nil {
		return relay.Config{}, fmt.Errorf("failed to parse args: %w", err)
	}

	if fs.NArg() != 0 {
		return relay.Config{}, errors.New("some args are not parsed")
	}

	return con, nil
}

func bindFlags(fs *pflag.FlagSet, con *relay.Config) {
	fs.IntVar(&con.Signal.Port, "port", signal.DefaultPort, "listening port")
	fs.BoolVar(&con.Signal.Debug, "debug", false, "debug mode")
	fs.StringVar(&con.Signal.KeyFile, "key", "", "key file path")
	fs.StringVar(&con.Signal.CertFile, "cert", "", "cert file path")
	fs.StringSliceVar(&con.Signal.AllowedOrigins, "origin", []string{signal.AnyOrigin}, "allowed origin, repeatable")
	fs.BoolVar(&con.Coordinator.StrictRelay, "strict-relay", coordinator.DefaultStrictRelay, "reject relays to peers outside the room")
	fs.IntVar(&con.Metrics.Port, "metrics-port", metric.DefaultMetricsPort, "metrics listening port")
	fs.StringVar(&con.Metrics.Path, "metrics-path", metric.DefaultMetricsPath, "metrics endpoint path")
}
