// Package relp resynthesizes speech from selected units by residual-excited
// linear prediction: windowed residual frames are overlap-added into one
// excitation signal which then drives an all-pole LPC synthesis filter.
package relp

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/example/go-relp-tts/internal/audio"
	"github.com/example/go-relp-tts/internal/catalogue"
)

const DefaultWindowFactor = 1.0

type Options struct {
	// SampleRate of the unit residuals and the output. 0 means
	// audio.DefaultSampleRate.
	SampleRate int
	// WindowFactor scales the residual frame half-width. 0 means
	// DefaultWindowFactor.
	WindowFactor float64
	// Dither is the TPDF dither gain in LSBs applied before quantizing.
	Dither float64
	Logger *slog.Logger
}

type Concatenator struct {
	opts   Options
	logger *slog.Logger
}

func NewConcatenator(opts Options) *Concatenator {
	if opts.SampleRate == 0 {
		opts.SampleRate = audio.DefaultSampleRate
	}

	if opts.WindowFactor == 0 {
		opts.WindowFactor = DefaultWindowFactor
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Concatenator{opts: opts, logger: logger}
}

func (c *Concatenator) SampleRate() int { return c.opts.SampleRate }

// Concatenate joins the units, in order, into one mono waveform whose length
// is the sum of the units' declared durations.
func (c *Concatenator) Concatenate(ctx context.Context, units []*catalogue.CandidateUnit) (*audio.Waveform, error) {
	order, err := validate(units)
	if err != nil {
		return nil, err
	}

	sr := float64(c.opts.SampleRate)

	total := 0.0
	for _, u := range units {
		total += u.Duration
	}

	excitation := make([]float64, int(math.Round(total*sr)))
	times := make([]float64, 0, len(units)*8)
	coefs := make([][]float64, 0, len(units)*8)
	offset := 0.0

	for k, u := range units {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("concatenate aborted at unit %d: %w", k, err)
		}

		frames := WindowResidual(u.LPC, u.Residual, c.opts.SampleRate, c.opts.WindowFactor)

		for i, f := range frames {
			t := offset + u.LPC.Times[i]
			overlapAdd(excitation, f, int(math.Round(t*sr)))

			times = append(times, t)
			coefs = append(coefs, u.LPC.Coefs[i])
		}

		offset += u.Duration
	}

	out := SynthesisFilter(times, coefs, excitation, c.opts.SampleRate)

	for n, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &SignalError{Position: -1, Reason: fmt.Sprintf("synthesis filter diverged at sample %d", n)}
		}
	}

	c.logger.Debug("relp concatenation",
		"units", len(units),
		"frames", len(times),
		"lpc_order", order,
		"samples", len(out),
		"peak", vecmath.MaxAbs(out),
	)

	return &audio.Waveform{
		Samples:    audio.QuantizePCM16(out, audio.QuantizeOptions{Dither: c.opts.Dither}),
		SampleRate: c.opts.SampleRate,
		Channels:   1,
	}, nil
}

// overlapAdd accumulates f into buf with f's time mark at sample center.
// Parts falling outside buf are dropped.
func overlapAdd(buf []float64, f Frame, center int) {
	start := center - f.Offset
	lo, hi := max(start, 0), min(start+len(f.Samples), len(buf))

	if lo >= hi {
		return
	}

	vecmath.AddBlockInPlace(buf[lo:hi], f.Samples[lo-start:hi-start])
}

// validate checks every unit and returns the common LPC order.
func validate(units []*catalogue.CandidateUnit) (int, error) {
	if len(units) == 0 {
		return 0, &SignalError{Position: -1, Reason: "empty unit path"}
	}

	order := -1

	for k, u := range units {
		fail := func(format string, args ...any) (int, error) {
			return 0, &SignalError{Position: k, Unit: unitLabel(u), Reason: fmt.Sprintf(format, args...)}
		}

		if u == nil {
			return fail("nil unit")
		}

		switch {
		case len(u.Residual) == 0:
			return fail("empty residual")
		case len(u.LPC.Times) == 0:
			return fail("empty LPC track")
		case len(u.LPC.Times) != len(u.LPC.Coefs):
			return fail("%d LPC time marks but %d coefficient frames", len(u.LPC.Times), len(u.LPC.Coefs))
		case !(u.Duration > 0):
			return fail("non-positive duration %v", u.Duration)
		}

		prev := 0.0

		for i, t := range u.LPC.Times {
			if t < prev || math.IsNaN(t) {
				return fail("LPC time mark %d (%v) precedes %v", i, t, prev)
			}

			prev = t

			if order < 0 {
				order = len(u.LPC.Coefs[i])
			}

			if len(u.LPC.Coefs[i]) != order {
				return fail("LPC frame %d has order %d, want %d", i, len(u.LPC.Coefs[i]), order)
			}
		}
	}

	return order, nil
}

func unitLabel(u *catalogue.CandidateUnit) string {
	if u == nil {
		return "<nil>"
	}

	if u.ID == "" {
		return u.Name
	}

	return u.Name + "/" + u.ID
}
