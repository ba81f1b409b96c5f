// Package audio holds the synthesized waveform type, its WAV codec and the
// post-processing hooks applied before output.
package audio

import (
	"math"
	"time"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// Output format defaults.
const (
	DefaultSampleRate = 16000
	DefaultChannels   = 1
	BitDepth          = 16
)

// pcmScale maps int16 samples onto [-1, 1).
const pcmScale = 32768.0

// Waveform is interleaved 16-bit PCM audio.
type Waveform struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Frames is the number of sample frames (samples per channel).
func (w *Waveform) Frames() int {
	if w.Channels < 1 {
		return len(w.Samples)
	}

	return len(w.Samples) / w.Channels
}

func (w *Waveform) Duration() time.Duration {
	if w.SampleRate < 1 {
		return 0
	}

	return time.Duration(float64(w.Frames()) / float64(w.SampleRate) * float64(time.Second))
}

// Float64s returns the samples scaled to [-1, 1).
func (w *Waveform) Float64s() []float64 {
	out := make([]float64, len(w.Samples))
	for i, s := range w.Samples {
		out[i] = float64(s)
	}

	vecmath.ScaleBlockInPlace(out, 1/pcmScale)

	return out
}

// ApplyHooks runs hooks over the normalized samples and stores the result
// back as PCM.
func (w *Waveform) ApplyHooks(hooks ...Hook) {
	if len(hooks) == 0 {
		return
	}

	out := ApplyHooks(w.Float64s(), hooks...)
	vecmath.ScaleBlockInPlace(out, pcmScale)
	w.Samples = QuantizePCM16(out, QuantizeOptions{})
}

type QuantizeOptions struct {
	// Dither is the TPDF dither gain in LSBs. 0 disables dithering.
	Dither float64
	// Seed for the dither generator.
	Seed int64
}

// QuantizePCM16 rounds samples already on the int16 scale to int16,
// clamping out-of-range values. x is modified when dithering.
func QuantizePCM16(x []float64, opts QuantizeOptions) []int16 {
	if opts.Dither > 0 {
		vecmath.AddDitherTPDF(x, opts.Dither, vecmath.NewDitherState(opts.Seed))
	}

	out := make([]int16, len(x))
	for i, v := range x {
		switch r := math.Round(v); {
		case r >= math.MaxInt16:
			out[i] = math.MaxInt16
		case r <= math.MinInt16:
			out[i] = math.MinInt16
		default:
			out[i] = int16(r)
		}
	}

	return out
}
