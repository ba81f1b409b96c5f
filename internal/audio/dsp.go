package audio

import (
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// Hook transforms normalized samples. Hooks may modify their input.
type Hook func(samples []float64) []float64

func ApplyHooks(samples []float64, hooks ...Hook) []float64 {
	out := samples
	for _, hook := range hooks {
		out = hook(out)
	}

	return out
}

// PeakNormalize scales samples so the peak amplitude reaches peak.
// Silence is returned unchanged.
func PeakNormalize(peak float64) Hook {
	return func(samples []float64) []float64 {
		m := vecmath.MaxAbs(samples)
		if m == 0 {
			return samples
		}

		vecmath.ScaleBlockInPlace(samples, peak/m)

		return samples
	}
}

// dcCutoffHz is the corner of the DC blocking high-pass.
const dcCutoffHz = 20.0

// DCBlock removes DC offset with a one-pole high-pass filter.
func DCBlock(sampleRate int) Hook {
	r := math.Exp(-2 * math.Pi * dcCutoffHz / float64(sampleRate))

	return func(samples []float64) []float64 {
		var x1, y1 float64
		for i, x := range samples {
			y := x - x1 + r*y1
			x1, y1 = x, y
			samples[i] = y
		}

		return samples
	}
}

// FadeIn applies a linear ramp over the first ms milliseconds.
func FadeIn(sampleRate int, ms float64) Hook {
	return func(samples []float64) []float64 {
		n := min(int(float64(sampleRate)*ms/1000), len(samples))
		if n <= 0 {
			return samples
		}

		vecmath.MulBlockInPlace(samples[:n], ramp(n, false))

		return samples
	}
}

// FadeOut applies a linear ramp down over the last ms milliseconds.
func FadeOut(sampleRate int, ms float64) Hook {
	return func(samples []float64) []float64 {
		n := min(int(float64(sampleRate)*ms/1000), len(samples))
		if n <= 0 {
			return samples
		}

		vecmath.MulBlockInPlace(samples[len(samples)-n:], ramp(n, true))

		return samples
	}
}

// ramp returns n gains rising from 0 toward 1, or falling from 1 toward 0.
func ramp(n int, down bool) []float64 {
	g := make([]float64, n)
	for i := range g {
		if down {
			g[i] = float64(n-1-i) / float64(n)
		} else {
			g[i] = float64(i) / float64(n)
		}
	}

	return g
}
