package audio

import (
	"math"
	"testing"
)

func TestApplyHooks_InOrder(t *testing.T) {
	var order []int
	h1 := func(s []float64) []float64 { order = append(order, 1); return s }
	h2 := func(s []float64) []float64 { order = append(order, 2); return s }

	ApplyHooks([]float64{0}, h1, h2)

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("hooks applied in wrong order: %v", order)
	}
}

func TestPeakNormalize(t *testing.T) {
	got := PeakNormalize(1)([]float64{0, 0.25, -0.5})
	want := []float64{0, 0.5, -1}

	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	silence := PeakNormalize(1)([]float64{0, 0})
	if silence[0] != 0 || silence[1] != 0 {
		t.Errorf("silence changed: %v", silence)
	}
}

func TestDCBlock_RemovesOffset(t *testing.T) {
	const sr = 16000

	in := make([]float64, sr)
	for i := range in {
		in[i] = 0.5
	}

	out := DCBlock(sr)(in)

	tail := out[len(out)-100:]
	for _, v := range tail {
		if math.Abs(v) > 1e-3 {
			t.Fatalf("residual DC %v after one second", v)
		}
	}
}

func TestFades(t *testing.T) {
	const sr = 1000

	ones := func() []float64 {
		s := make([]float64, 100)
		for i := range s {
			s[i] = 1
		}

		return s
	}

	in := FadeIn(sr, 10)(ones())
	if in[0] != 0 || in[5] != 0.5 || in[10] != 1 || in[99] != 1 {
		t.Errorf("fade in = %v", in[:12])
	}

	out := FadeOut(sr, 10)(ones())
	if out[99] != 0 || out[90] != 0.9 || out[89] != 1 {
		t.Errorf("fade out tail = %v", out[88:])
	}

	short := FadeIn(sr, 1000)([]float64{1, 1})
	if short[0] != 0 || short[1] != 0.5 {
		t.Errorf("fade longer than signal = %v", short)
	}
}

func TestQuantizePCM16(t *testing.T) {
	got := QuantizePCM16([]float64{0.4, 0.6, -1.5, 40000, -40000}, QuantizeOptions{})
	want := []int16{0, 1, -2, math.MaxInt16, math.MinInt16}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestQuantizePCM16_DitherIsDeterministic(t *testing.T) {
	in := func() []float64 { return []float64{100, 200, 300, 400, 500, 600, 700, 800} }

	a := QuantizePCM16(in(), QuantizeOptions{Dither: 1, Seed: 42})
	b := QuantizePCM16(in(), QuantizeOptions{Dither: 1, Seed: 42})

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different output at %d", i)
		}

		if d := int(a[i]) - int(in()[i]); d > 1 || d < -1 {
			t.Errorf("dither moved sample %d by %d LSB", i, d)
		}
	}
}

func TestWaveformApplyHooks(t *testing.T) {
	w := &Waveform{Samples: []int16{0, 8192, -16384}, SampleRate: 16000, Channels: 1}
	w.ApplyHooks(PeakNormalize(0.5))

	if w.Samples[2] != -16384 || w.Samples[1] != 8192 {
		t.Errorf("samples = %v", w.Samples)
	}

	w.ApplyHooks(PeakNormalize(1))

	if w.Samples[2] != math.MinInt16 {
		t.Errorf("full-scale peak = %d, want %d", w.Samples[2], math.MinInt16)
	}
}
