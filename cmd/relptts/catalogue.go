package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-relp-tts/internal/catalogue"
)

func newCatalogueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalogue",
		Short: "Inspect and build unit catalogues",
	}

	cmd.AddCommand(newCatalogueInspectCmd())
	cmd.AddCommand(newCatalogueUnitsCmd())
	cmd.AddCommand(newCataloguePackCmd())

	return cmd
}

func newCatalogueInspectCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a JSON summary of a catalogue",
		RunE: func(_ *cobra.Command, _ []string) error {
			cat, err := openCatalogue(path)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cat.Summary())
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Catalogue file (defaults to paths.catalogue_path)")

	return cmd
}

func newCatalogueUnitsCmd() *cobra.Command {
	var path string
	var full bool

	cmd := &cobra.Command{
		Use:   "units",
		Short: "List unit names with candidate counts",
		RunE: func(_ *cobra.Command, _ []string) error {
			cat, err := openCatalogue(path)
			if err != nil {
				return err
			}

			if full {
				return cat.WriteYAML(os.Stdout)
			}
			return writeUnitCounts(os.Stdout, cat)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Catalogue file (defaults to paths.catalogue_path)")
	cmd.Flags().BoolVar(&full, "full", false, "Write the whole catalogue as a YAML dump")

	return cmd
}

func newCataloguePackCmd() *cobra.Command {
	var maxCandidates int

	cmd := &cobra.Command{
		Use:   "pack <dump.yaml|dump.json> <out.safetensors>",
		Short: "Convert a YAML or JSON catalogue dump to a safetensors catalogue",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return packCatalogue(args[0], args[1], catalogue.Options{
				MaxCandidates: maxCandidates,
				Logger:        slog.Default(),
			})
		},
	}

	cmd.Flags().IntVar(&maxCandidates, "max-candidates", 0, "Keep at most this many candidates per unit name (0 = all)")

	return cmd
}

// openCatalogue loads path, or the configured catalogue when path is empty.
// The file's own sample rate is used.
func openCatalogue(path string) (*catalogue.Catalogue, error) {
	if strings.TrimSpace(path) == "" {
		cfg, err := requireConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Paths.CataloguePath
	}

	return catalogue.Load(path, catalogue.Options{Logger: slog.Default()})
}

func writeUnitCounts(w io.Writer, cat *catalogue.Catalogue) error {
	for _, name := range cat.Names() {
		cands, err := cat.Candidates(name)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\t%d\n", name, len(cands)); err != nil {
			return err
		}
	}
	return nil
}

func packCatalogue(dumpPath, outPath string, opts catalogue.Options) error {
	f, err := os.Open(dumpPath)
	if err != nil {
		return fmt.Errorf("open dump: %w", err)
	}
	defer f.Close()

	cat, err := catalogue.ReadDump(f, opts)
	if err != nil {
		return err
	}

	if err := cat.Write(outPath); err != nil {
		return err
	}

	sum := cat.Summary()
	slog.Info("catalogue packed", "out", outPath, "units", sum.Units, "names", sum.Names, "sample_rate", sum.SampleRate)

	return nil
}
