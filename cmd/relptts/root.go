package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-relp-tts/internal/config"
	"github.com/example/go-relp-tts/internal/observability"
	"github.com/example/go-relp-tts/internal/runtime/tensor"
	"github.com/example/go-relp-tts/internal/server"
)

// version is overridden at link time with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgFile   string
	activeCfg config.Config

	tracerShutdown func(context.Context) error
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "relptts",
		Short:         "Unit-selection speech synthesis with RELP concatenation",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded
			setupLogger(loaded.LogLevel)
			tensor.SetWorkers(loaded.Synth.Workers)

			if loaded.Observability.Trace {
				return setupTracer()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newSynthCmd())
	cmd.AddCommand(newSelectCmd())
	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newCatalogueCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHealthCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	lvl, err := server.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(observability.NewLogger(os.Stderr, lvl))
}

func setupTracer() error {
	if tracerShutdown != nil {
		return nil
	}

	tp, err := observability.InitTracer(os.Stderr, "relptts", version)
	if err != nil {
		return err
	}
	tracerShutdown = tp.Shutdown
	return nil
}

// shutdownTracer flushes pending spans, if tracing was enabled.
func shutdownTracer() error {
	if tracerShutdown == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := tracerShutdown(ctx)
	tracerShutdown = nil
	if err != nil {
		return fmt.Errorf("flush traces: %w", err)
	}
	return nil
}

func requireConfig() (config.Config, error) {
	if activeCfg.Paths.CataloguePath == "" {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return activeCfg, nil
}
