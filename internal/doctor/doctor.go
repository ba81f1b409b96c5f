// Package doctor provides environment preflight checks for relptts.
package doctor

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/cwbudde/algo-vecmath/cpu"

	"github.com/example/go-relp-tts/internal/catalogue"
	"github.com/example/go-relp-tts/internal/config"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// SummaryFunc loads the catalogue at path and describes it.
type SummaryFunc func(path string) (catalogue.Summary, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	Settings config.Config
	// LoadCatalogue defaults to loading the file with catalogue.Load.
	LoadCatalogue SummaryFunc
	// SkipCatalogue skips the catalogue checks.
	SkipCatalogue bool
	// Features defaults to cpu.DetectFeatures.
	Features func() cpu.Features
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- configuration ----------------------------------------------------
	if err := cfg.Settings.Validate(); err != nil {
		res.fail(fmt.Sprintf("config: %v", err))
		fmt.Fprintf(w, "%s config: %v\n", FailMark, err)
	} else {
		s := cfg.Settings.Synth
		fmt.Fprintf(w, "%s config: unit_type=%s prune_score_delta=%g prune_num_cands=%d\n",
			PassMark, s.UnitType, s.PruneScoreDelta, s.PruneNumCands)
	}

	// ---- catalogue --------------------------------------------------------
	if cfg.SkipCatalogue {
		fmt.Fprintf(w, "%s catalogue: skipped\n", PassMark)
	} else {
		checkCatalogue(cfg, w, &res)
	}

	// ---- vector kernels ---------------------------------------------------
	detect := cfg.Features
	if detect == nil {
		detect = cpu.DetectFeatures
	}

	f := detect()
	fmt.Fprintf(w, "%s vector kernels: %s (%s)\n", PassMark, BestSIMD(f), f.Architecture)

	// ---- runtime ----------------------------------------------------------
	fmt.Fprintf(w, "%s go runtime: %s, %d CPUs, synth workers %d\n",
		PassMark, runtime.Version(), runtime.NumCPU(), cfg.Settings.Synth.Workers)

	return res
}

func checkCatalogue(cfg Config, w io.Writer, res *Result) {
	path := cfg.Settings.Paths.CataloguePath

	if _, err := os.Stat(path); err != nil {
		res.fail(fmt.Sprintf("catalogue file %q: %v", path, err))
		fmt.Fprintf(w, "%s catalogue file %s: not found\n", FailMark, path)

		return
	}

	load := cfg.LoadCatalogue
	if load == nil {
		load = func(p string) (catalogue.Summary, error) {
			cat, err := catalogue.Load(p, catalogue.Options{
				SampleRate:    cfg.Settings.Synth.SampleRate,
				MaxCandidates: cfg.Settings.Synth.MaxCandidates,
			})
			if err != nil {
				return catalogue.Summary{}, err
			}

			return cat.Summary(), nil
		}
	}

	sum, err := load(path)
	if err != nil {
		res.fail(fmt.Sprintf("catalogue %q: %v", path, err))
		fmt.Fprintf(w, "%s catalogue %s: %v\n", FailMark, path, err)

		return
	}

	fmt.Fprintf(w, "%s catalogue: %s (%d units, %d names, %d Hz, join dim %d, LPC order %d, %.1fs audio)\n",
		PassMark, path, sum.Units, sum.Names, sum.SampleRate, sum.JoinDim, sum.LPCOrder, sum.TotalSeconds)

	if sum.SampleRate != cfg.Settings.Synth.SampleRate {
		res.fail(fmt.Sprintf("catalogue sample rate %d Hz does not match synth.sample_rate %d", sum.SampleRate, cfg.Settings.Synth.SampleRate))
		fmt.Fprintf(w, "%s sample rate: catalogue %d Hz, configured %d Hz\n", FailMark, sum.SampleRate, cfg.Settings.Synth.SampleRate)
	}
}

// BestSIMD returns the most capable SIMD level f supports.
func BestSIMD(f cpu.Features) cpu.SIMDLevel {
	for _, level := range []cpu.SIMDLevel{cpu.SIMDAVX512, cpu.SIMDAVX2, cpu.SIMDAVX, cpu.SIMDSSE2, cpu.SIMDNEON} {
		if cpu.Supports(f, level) {
			return level
		}
	}

	return cpu.SIMDNone
}
