package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-relp-tts/internal/config"
	"github.com/example/go-relp-tts/internal/doctor"
)

func newDoctorCmd() *cobra.Command {
	var skipCatalogue bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run configuration, catalogue and runtime checks",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			return runDoctor(doctor.Config{
				Settings:      cfg,
				SkipCatalogue: skipCatalogue,
			}, os.Stdout, os.Stderr)
		},
	}

	cmd.Flags().BoolVar(&skipCatalogue, "skip-catalogue", false, "Skip loading the catalogue")

	return cmd
}

func runDoctor(dcfg doctor.Config, stdout, stderr io.Writer) error {
	if dcfg.Settings == (config.Config{}) {
		return errors.New("doctor: empty configuration")
	}

	result := doctor.Run(dcfg, stdout)

	if result.Failed() {
		for _, f := range result.Failures() {
			// #nosec G705 -- Writes plain diagnostic text to stderr for CLI output, not HTML rendering.
			fmt.Fprintf(stderr, "FAIL: %s\n", f)
		}

		return errors.New("doctor checks failed")
	}

	_, _ = fmt.Fprintln(stdout, "doctor checks passed")

	return nil
}
