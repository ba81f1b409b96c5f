package relp

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/example/go-relp-tts/internal/catalogue"
)

func TestHamming(t *testing.T) {
	if got := Hamming(0); got != nil {
		t.Fatalf("Hamming(0) = %v, want nil", got)
	}

	if got := Hamming(1); len(got) != 1 || got[0] != 1 {
		t.Fatalf("Hamming(1) = %v, want [1]", got)
	}

	w := Hamming(5)
	want := []float64{0.08, 0.54, 1, 0.54, 0.08}

	for i := range want {
		if math.Abs(w[i]-want[i]) > 1e-12 {
			t.Fatalf("Hamming(5)[%d] = %v, want %v", i, w[i], want[i])
		}
	}
}

func TestWindowResidualClipsToResidual(t *testing.T) {
	residual := make([]float64, 100)
	for i := range residual {
		residual[i] = 1
	}

	// sr=1000: marks at 10ms and 90ms.
	track := catalogue.LPCTrack{Times: []float64{0.010, 0.090}, Coefs: [][]float64{{0}, {0}}}
	frames := WindowResidual(track, residual, 1000, 1)

	if len(frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(frames))
	}

	// First frame: half = 10 samples, span [0, 20].
	f := frames[0]
	if f.Center != 10 || f.Offset != 10 || len(f.Samples) != 21 {
		t.Fatalf("frame 0 = center %d offset %d len %d", f.Center, f.Offset, len(f.Samples))
	}

	if math.Abs(f.Samples[10]-1) > 1e-12 {
		t.Fatalf("frame 0 peak = %v, want 1", f.Samples[10])
	}

	// Second frame: half = 80 samples, span [10, 170] clipped to [10, 99].
	f = frames[1]
	if f.Center != 90 || f.Offset != 80 || len(f.Samples) != 90 {
		t.Fatalf("frame 1 = center %d offset %d len %d", f.Center, f.Offset, len(f.Samples))
	}
}

func TestSynthesisFilterImpulse(t *testing.T) {
	e := make([]float64, 6)
	e[0] = 1

	// y[n] = e[n] + 0.5 y[n-1]
	out := SynthesisFilter([]float64{1}, [][]float64{{-0.5}}, e, 1000)
	want := []float64{1, 0.5, 0.25, 0.125, 0.0625, 0.03125}

	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-12 {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestSynthesisFilterSwitchesFrames(t *testing.T) {
	e := []float64{1, 0, 0, 1, 0, 0}

	// Frame 0 governs samples [0,3), frame 1 the rest.
	out := SynthesisFilter([]float64{0.003, 0.006}, [][]float64{{0}, {-1}}, e, 1000)
	want := []float64{1, 0, 0, 1, 1, 1}

	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-12 {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestSynthesisFilterZeroOrderIsIdentity(t *testing.T) {
	e := []float64{0.1, -0.2, 0.3}

	out := SynthesisFilter([]float64{0.003}, [][]float64{{}}, e, 1000)
	for i := range e {
		if out[i] != e[i] {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], e[i])
		}
	}
}

func testUnit(name string, dur float64, sr int) *catalogue.CandidateUnit {
	n := int(math.Round(dur * float64(sr)))
	residual := make([]float64, n)

	for i := range residual {
		residual[i] = 0.3 * math.Sin(2*math.Pi*float64(i)/16)
	}

	times := []float64{dur / 4, dur / 2, 3 * dur / 4, dur}
	coefs := make([][]float64, len(times))

	for i := range coefs {
		coefs[i] = []float64{-0.3, 0.1}
	}

	return &catalogue.CandidateUnit{
		ID:       name,
		Name:     name,
		Residual: residual,
		LPC:      catalogue.LPCTrack{Times: times, Coefs: coefs},
		Duration: dur,
	}
}

func TestConcatenateLength(t *testing.T) {
	c := NewConcatenator(Options{SampleRate: 16000})

	units := []*catalogue.CandidateUnit{
		testUnit("a", 0.05, 16000),
		testUnit("b", 0.0731, 16000),
		testUnit("c", 0.04, 16000),
	}

	w, err := c.Concatenate(context.Background(), units)
	if err != nil {
		t.Fatalf("Concatenate: %v", err)
	}

	want := int(math.Round((0.05 + 0.0731 + 0.04) * 16000))
	if len(w.Samples) != want {
		t.Fatalf("samples = %d, want %d", len(w.Samples), want)
	}

	if w.SampleRate != 16000 || w.Channels != 1 {
		t.Fatalf("format = %d Hz x %d, want 16000 Hz mono", w.SampleRate, w.Channels)
	}

	nonzero := false
	for _, s := range w.Samples {
		if s != 0 {
			nonzero = true
			break
		}
	}

	if !nonzero {
		t.Fatal("waveform is silent")
	}
}

func TestConcatenateSingleUnitDuration(t *testing.T) {
	c := NewConcatenator(Options{SampleRate: 8000})
	u := testUnit("a", 0.1234, 8000)

	w, err := c.Concatenate(context.Background(), []*catalogue.CandidateUnit{u})
	if err != nil {
		t.Fatalf("Concatenate: %v", err)
	}

	if got := float64(len(w.Samples)) / 8000; math.Abs(got-u.Duration) > 1.0/8000 {
		t.Fatalf("duration = %v, want %v within one sample", got, u.Duration)
	}
}

func TestConcatenateErrors(t *testing.T) {
	c := NewConcatenator(Options{SampleRate: 16000})

	tests := []struct {
		name   string
		mutate func(u *catalogue.CandidateUnit)
	}{
		{"empty residual", func(u *catalogue.CandidateUnit) { u.Residual = nil }},
		{"empty track", func(u *catalogue.CandidateUnit) { u.LPC = catalogue.LPCTrack{} }},
		{"count mismatch", func(u *catalogue.CandidateUnit) { u.LPC.Coefs = u.LPC.Coefs[:2] }},
		{"zero duration", func(u *catalogue.CandidateUnit) { u.Duration = 0 }},
		{"decreasing times", func(u *catalogue.CandidateUnit) { u.LPC.Times[2] = 0 }},
		{"ragged order", func(u *catalogue.CandidateUnit) { u.LPC.Coefs[1] = []float64{0.1} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			good := testUnit("a", 0.05, 16000)
			bad := testUnit("b", 0.05, 16000)
			tt.mutate(bad)

			_, err := c.Concatenate(context.Background(), []*catalogue.CandidateUnit{good, bad})
			if !errors.Is(err, ErrSignal) {
				t.Fatalf("err = %v, want ErrSignal", err)
			}

			var se *SignalError
			if !errors.As(err, &se) || se.Position != 1 {
				t.Fatalf("err = %#v, want SignalError at position 1", err)
			}
		})
	}

	if _, err := c.Concatenate(context.Background(), nil); !errors.Is(err, ErrSignal) {
		t.Fatalf("empty path err = %v, want ErrSignal", err)
	}
}

func TestConcatenateOrderMismatchAcrossUnits(t *testing.T) {
	c := NewConcatenator(Options{SampleRate: 16000})
	a := testUnit("a", 0.05, 16000)
	b := testUnit("b", 0.05, 16000)

	for i := range b.LPC.Coefs {
		b.LPC.Coefs[i] = []float64{0.1, 0.1, 0.1}
	}

	if _, err := c.Concatenate(context.Background(), []*catalogue.CandidateUnit{a, b}); !errors.Is(err, ErrSignal) {
		t.Fatalf("err = %v, want ErrSignal", err)
	}
}

func TestConcatenateUnstableFilter(t *testing.T) {
	c := NewConcatenator(Options{SampleRate: 16000})
	u := testUnit("a", 0.5, 16000)

	for i := range u.LPC.Coefs {
		u.LPC.Coefs[i] = []float64{-2.5, 0}
	}

	_, err := c.Concatenate(context.Background(), []*catalogue.CandidateUnit{u})
	if !errors.Is(err, ErrSignal) {
		t.Fatalf("err = %v, want ErrSignal", err)
	}
}

func TestConcatenateCancelled(t *testing.T) {
	c := NewConcatenator(Options{SampleRate: 16000})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Concatenate(ctx, []*catalogue.CandidateUnit{testUnit("a", 0.05, 16000)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestOverlapAdd_Accumulates(t *testing.T) {
	buf := make([]float64, 8)

	overlapAdd(buf, Frame{Offset: 2, Samples: []float64{1, 2, 3, 4, 5}}, 3)
	overlapAdd(buf, Frame{Offset: 1, Samples: []float64{10, 20, 30, 40}}, 4)

	// First frame covers 1..5, second covers 3..6.
	want := []float64{0, 1, 2, 13, 24, 35, 40, 0}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("buf = %v, want %v", buf, want)
		}
	}
}

func TestOverlapAdd_ClipsAtEdges(t *testing.T) {
	buf := make([]float64, 4)

	overlapAdd(buf, Frame{Offset: 2, Samples: []float64{1, 2, 3, 4}}, 0)
	overlapAdd(buf, Frame{Offset: 0, Samples: []float64{5, 6, 7}}, 2)
	overlapAdd(buf, Frame{Offset: 0, Samples: []float64{9}}, 10)

	want := []float64{3, 4, 5, 6}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("buf = %v, want %v", buf, want)
		}
	}
}
