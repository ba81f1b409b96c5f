// Package bench provides benchmarking primitives for the relptts bench command.
package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/example/go-relp-tts/internal/tts"
	"github.com/example/go-relp-tts/internal/utterance"
)

// ---------------------------------------------------------------------------
// Run result and stats
// ---------------------------------------------------------------------------

// RunResult holds the timing and audio metadata for a single synthesis run.
type RunResult struct {
	Index         int
	Cold          bool // true for the first run
	Duration      time.Duration
	AudioDuration time.Duration
	Units         int
	RTF           float64
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// ComputeStats calculates min, max and mean over a slice of durations.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}

	mn, mx := durations[0], durations[0]

	var sum time.Duration

	for _, d := range durations {
		mn = min(mn, d)
		mx = max(mx, d)
		sum += d
	}

	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// Durations extracts the wall-clock durations of runs, skipping the cold run
// when warm is set and more than one run exists.
func Durations(runs []RunResult, warm bool) []time.Duration {
	out := make([]time.Duration, 0, len(runs))

	for _, r := range runs {
		if warm && r.Cold && len(runs) > 1 {
			continue
		}

		out = append(out, r.Duration)
	}

	return out
}

// ---------------------------------------------------------------------------
// Running
// ---------------------------------------------------------------------------

// Synthesizer is the part of *tts.Service that bench drives.
type Synthesizer interface {
	Synthesize(ctx context.Context, utt *utterance.Utterance) (*tts.Result, error)
}

// Run synthesizes utt n times and records each run.
func Run(ctx context.Context, s Synthesizer, utt *utterance.Utterance, n int) ([]RunResult, error) {
	if n < 1 {
		return nil, fmt.Errorf("bench: run count must be >= 1, got %d", n)
	}

	runs := make([]RunResult, 0, n)

	for i := range n {
		start := time.Now()

		res, err := s.Synthesize(ctx, utt)
		if err != nil {
			return runs, fmt.Errorf("bench run %d: %w", i+1, err)
		}

		elapsed := time.Since(start)
		audio := res.Waveform.Duration()

		runs = append(runs, RunResult{
			Index:         i,
			Cold:          i == 0,
			Duration:      elapsed,
			AudioDuration: audio,
			Units:         len(res.Path.Units),
			RTF:           CalcRTF(elapsed, audio),
		})
	}

	return runs, nil
}

// ---------------------------------------------------------------------------
// RTF helpers
// ---------------------------------------------------------------------------

// CalcRTF returns synthesis_duration / audio_duration.
// Returns 0 if audioDur is zero to avoid division by zero.
func CalcRTF(synthDur, audioDur time.Duration) float64 {
	if audioDur <= 0 {
		return 0
	}

	return float64(synthDur) / float64(audioDur)
}

// MeanRTF averages the RTF of runs.
func MeanRTF(runs []RunResult) float64 {
	if len(runs) == 0 {
		return 0
	}

	sum := 0.0
	for _, r := range runs {
		sum += r.RTF
	}

	return sum / float64(len(runs))
}

// CheckRTFThreshold returns an error if meanRTF > threshold.
// A threshold of 0 disables the gate.
func CheckRTFThreshold(meanRTF, threshold float64) error {
	if threshold <= 0 {
		return nil
	}

	if meanRTF > threshold {
		return fmt.Errorf("mean RTF %.3f exceeds threshold %.3f", meanRTF, threshold)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

// FormatTable writes a human-readable ASCII table of bench results to w.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-5s  %-5s  %10s  %12s  %6s  %8s\n", "Run", "Cold", "MS", "Audio(ms)", "Units", "RTF")
	fmt.Fprintln(sb, strings.Repeat("-", 56))

	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}

		fmt.Fprintf(sb, "%-5d  %-5s  %10.1f  %12.1f  %6d  %8.3f\n",
			r.Index+1,
			cold,
			ms(r.Duration),
			ms(r.AudioDuration),
			r.Units,
			r.RTF,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 56))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (min)\n", "", "", ms(stats.Min))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (mean)\n", "", "", ms(stats.Mean))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (max)\n", "", "", ms(stats.Max))

	fmt.Fprint(w, sb.String())
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// jsonReport is the top-level JSON structure emitted by FormatJSON.
type jsonReport struct {
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

type jsonRun struct {
	Index      int     `json:"index"`
	Cold       bool    `json:"cold"`
	DurationMS float64 `json:"duration_ms"`
	AudioMS    float64 `json:"audio_ms"`
	Units      int     `json:"units"`
	RTF        float64 `json:"rtf"`
}

type jsonStats struct {
	MinMS   float64 `json:"min_ms"`
	MeanMS  float64 `json:"mean_ms"`
	MaxMS   float64 `json:"max_ms"`
	MeanRTF float64 `json:"mean_rtf"`
}

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer) error {
	jr := jsonReport{
		Runs: make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinMS:   ms(stats.Min),
			MeanMS:  ms(stats.Mean),
			MaxMS:   ms(stats.Max),
			MeanRTF: MeanRTF(runs),
		},
	}

	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:      r.Index,
			Cold:       r.Cold,
			DurationMS: ms(r.Duration),
			AudioMS:    ms(r.AudioDuration),
			Units:      r.Units,
			RTF:        r.RTF,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(jr)
}
