package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"

	"github.com/example/go-relp-tts/internal/bench"
	"github.com/example/go-relp-tts/internal/tts"
)

func newBenchCmd() *cobra.Command {
	var (
		input        string
		runs         int
		format       string
		rtfThreshold float64
		warm         bool
		cpuProfile   string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark synthesis latency and realtime factor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			utt, err := readUtterance(input, os.Stdin)
			if err != nil {
				return err
			}

			svc, err := tts.Load(cfg, slog.Default())
			if err != nil {
				return err
			}

			if cpuProfile != "" {
				stop, err := startCPUProfile(cpuProfile)
				if err != nil {
					return err
				}
				defer stop()
			}

			results, err := bench.Run(cmd.Context(), svc, utt, runs)
			if err != nil {
				return err
			}

			stats := bench.ComputeStats(bench.Durations(results, warm))

			switch format {
			case "json":
				if err := bench.FormatJSON(results, stats, os.Stdout); err != nil {
					return err
				}
			default:
				bench.FormatTable(results, stats, os.Stdout)
			}

			return bench.CheckRTFThreshold(bench.MeanRTF(results), rtfThreshold)
		},
	}

	cmd.Flags().StringVar(&input, "utterance", "", "Utterance document, JSON or YAML (empty or '-' reads stdin)")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of synthesis runs")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&rtfThreshold, "rtf-threshold", 0, "Exit non-zero if mean RTF exceeds this value (0 = disabled)")
	cmd.Flags().BoolVar(&warm, "warm", false, "Exclude the first (cold) run from latency stats")
	cmd.Flags().StringVar(&cpuProfile, "cpuprofile", "", "Write a CPU profile of the runs to this file")

	return cmd
}

func startCPUProfile(path string) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create cpu profile: %w", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("start cpu profile: %w", err)
	}

	return func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	}, nil
}
