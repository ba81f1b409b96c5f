package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-relp-tts/internal/tts"
)

func newSelectCmd() *cobra.Command {
	var input string
	var columns bool

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Run unit selection and print the chosen units and segment times as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			utt, err := readUtterance(input, os.Stdin)
			if err != nil {
				return err
			}

			svc, err := tts.Load(cfg, slog.Default())
			if err != nil {
				return err
			}

			sel, err := svc.Select(cmd.Context(), utt)
			if err != nil {
				return fmt.Errorf("select failed: %w", err)
			}

			return writeReport(os.Stdout, tts.NewReport(utt, sel, columns))
		},
	}

	cmd.Flags().StringVar(&input, "utterance", "", "Utterance document, JSON or YAML (empty or '-' reads stdin)")
	cmd.Flags().BoolVar(&columns, "columns", false, "Include per-position candidate and survivor counts")

	return cmd
}

func writeReport(w io.Writer, r *tts.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
