package relp

import (
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/example/go-relp-tts/internal/catalogue"
)

// Frame is one windowed residual segment. Center is the sample index of its
// LPC time mark relative to the start of the unit, and Offset the position
// of that mark within Samples.
type Frame struct {
	Center  int
	Offset  int
	Samples []float64
}

// Hamming returns the symmetric n-point Hamming window.
func Hamming(n int) []float64 {
	if n <= 0 {
		return nil
	}

	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}

	for i := range w {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}

	return w
}

// WindowResidual cuts the residual into Hamming-windowed frames centered on
// each LPC time mark. A frame spans windowFactor times the interval to the
// previous mark (or to 0 for the first) on either side of its center,
// clipped to the residual.
func WindowResidual(track catalogue.LPCTrack, residual []float64, sampleRate int, windowFactor float64) []Frame {
	sr := float64(sampleRate)
	frames := make([]Frame, len(track.Times))
	prev := 0.0

	for i, t := range track.Times {
		half := (t - prev) * windowFactor
		center := int(math.Round(t * sr))
		first := int(math.Round((t - half) * sr))
		last := 2*center - first

		lo, hi := max(first, 0), min(last, len(residual)-1)
		frames[i] = Frame{Center: center, Offset: center - lo}

		if lo <= hi {
			seg := make([]float64, hi-lo+1)
			vecmath.MulBlock(seg, residual[lo:hi+1], Hamming(len(seg)))
			frames[i].Samples = seg
		}

		prev = t
	}

	return frames
}
