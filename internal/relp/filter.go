package relp

import (
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// SynthesisFilter runs excitation through the all-pole filter
//
//	y[n] = e[n] - sum_k a_k * y[n-k]
//
// where a is the coefficient frame in force at n. Frame i governs samples up
// to its time mark times[i]; the last frame runs to the end of the signal.
// Filter memory carries across frame boundaries.
func SynthesisFilter(times []float64, coefs [][]float64, excitation []float64, sampleRate int) []float64 {
	out := make([]float64, len(excitation))
	if len(coefs) == 0 {
		copy(out, excitation)
		return out
	}

	order := len(coefs[0])
	// hist holds past outputs, most recent first.
	hist := make([]float64, order)
	sr := float64(sampleRate)
	n := 0

	for i, a := range coefs {
		end := len(excitation)
		if i < len(coefs)-1 {
			end = min(int(math.Round(times[i]*sr)), len(excitation))
		}

		for ; n < end; n++ {
			y := excitation[n]
			if order > 0 {
				y -= vecmath.DotProduct(a, hist)
				copy(hist[1:], hist[:order-1])
				hist[0] = y
			}

			out[n] = y
		}
	}

	return out
}
