package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/go-relp-tts/internal/server"
	"github.com/example/go-relp-tts/internal/tts"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the synthesis HTTP server",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			svc, err := tts.Load(cfg, slog.Default())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.New(cfg, svc, slog.Default()).Start(ctx)
		},
	}

	return cmd
}
