package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-relp-tts/internal/audio"
	"github.com/example/go-relp-tts/internal/tts"
	"github.com/example/go-relp-tts/internal/utterance"
)

// normalizePeak leaves about 1 dB of headroom.
const normalizePeak = 0.89

func newSynthCmd() *cobra.Command {
	var input string
	var out string
	var normalize bool
	var dcBlock bool
	var fadeInMS float64
	var fadeOutMS float64

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize an utterance document to WAV",
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

			res, err := svc.Synthesize(cmd.Context(), utt)
			if err != nil {
				return fmt.Errorf("synth failed: %w", err)
			}

			res.Waveform.ApplyHooks(dspHooks(synthDSPOptions{
				Normalize: normalize,
				DCBlock:   dcBlock,
				FadeInMS:  fadeInMS,
				FadeOutMS: fadeOutMS,
			}, res.Waveform.SampleRate)...)

			data, err := audio.EncodeWAV(res.Waveform)
			if err != nil {
				return err
			}

			slog.Info("synthesized",
				"segments", utt.NumSegments(),
				"units", len(res.Path.Units),
				"score", res.Path.Score,
				"audio", res.Waveform.Duration(),
				"out", out,
			)

			return writeSynthOutput(out, data, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&input, "utterance", "", "Utterance document, JSON or YAML (empty or '-' reads stdin)")
	cmd.Flags().StringVar(&out, "out", "out.wav", "Output WAV path ('-' for stdout)")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Peak-normalize the output")
	cmd.Flags().BoolVar(&dcBlock, "dc-block", false, "Remove DC offset")
	cmd.Flags().Float64Var(&fadeInMS, "fade-in-ms", 0, "Linear fade-in length in milliseconds")
	cmd.Flags().Float64Var(&fadeOutMS, "fade-out-ms", 0, "Linear fade-out length in milliseconds")

	return cmd
}

type synthDSPOptions struct {
	Normalize bool
	DCBlock   bool
	FadeInMS  float64
	FadeOutMS float64
}

// dspHooks returns the post-processing chain in a fixed order: DC block,
// normalize, then fades.
func dspHooks(opts synthDSPOptions, sampleRate int) []audio.Hook {
	var hooks []audio.Hook
	if opts.DCBlock {
		hooks = append(hooks, audio.DCBlock(sampleRate))
	}
	if opts.Normalize {
		hooks = append(hooks, audio.PeakNormalize(normalizePeak))
	}
	if opts.FadeInMS > 0 {
		hooks = append(hooks, audio.FadeIn(sampleRate, opts.FadeInMS))
	}
	if opts.FadeOutMS > 0 {
		hooks = append(hooks, audio.FadeOut(sampleRate, opts.FadeOutMS))
	}
	return hooks
}

func readUtterance(path string, stdin io.Reader) (*utterance.Utterance, error) {
	path = strings.TrimSpace(path)
	if path != "" && path != "-" {
		return utterance.ReadFile(path)
	}
	if stdin == nil {
		return nil, fmt.Errorf("either provide --utterance or pipe a document on stdin")
	}
	return utterance.Decode(stdin)
}

func writeSynthOutput(outPath string, wavData []byte, stdout io.Writer) error {
	if outPath == "-" {
		if stdout == nil {
			return fmt.Errorf("stdout writer is nil")
		}
		_, err := stdout.Write(wavData)
		return err
	}
	return os.WriteFile(outPath, wavData, 0o644)
}
