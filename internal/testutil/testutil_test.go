package testutil_test

import (
	"testing"

	"github.com/example/go-relp-tts/internal/audio"
	"github.com/example/go-relp-tts/internal/testutil"
)

func TestRequireCatalogue_SkipsWhenUnset(t *testing.T) {
	t.Setenv(testutil.CatalogueEnv, "")

	skipped := false
	fakeT := &skipTracker{TB: t, onSkip: func() { skipped = true }}
	testutil.RequireCatalogue(fakeT)

	if !skipped {
		t.Error("expected RequireCatalogue to skip when env var is unset")
	}
}

func TestRequireCatalogue_SkipsWhenMissing(t *testing.T) {
	t.Setenv(testutil.CatalogueEnv, "/nonexistent/catalogue.safetensors")

	skipped := false
	fakeT := &skipTracker{TB: t, onSkip: func() { skipped = true }}
	testutil.RequireCatalogue(fakeT)

	if !skipped {
		t.Error("expected RequireCatalogue to skip when file is absent")
	}
}

func TestCatalogueForCoversUtterance(t *testing.T) {
	utt := testutil.HelloWorld(t)
	cat := testutil.CatalogueFor(t, utt, 3)

	for _, name := range testutil.UnitNames(t, utt) {
		cands, err := cat.Candidates(name)
		if err != nil {
			t.Fatalf("Candidates(%q): %v", name, err)
		}

		if len(cands) != 3 {
			t.Errorf("Candidates(%q) = %d units, want 3", name, len(cands))
		}
	}

	if cat.SampleRate() != testutil.FixtureSampleRate {
		t.Errorf("SampleRate = %d", cat.SampleRate())
	}
}

func TestSyntheticUnitDeterministic(t *testing.T) {
	a := testutil.SyntheticUnit("left-a", 7, 4)
	b := testutil.SyntheticUnit("left-a", 7, 4)

	if a.Duration != b.Duration || a.LeftJoin[0] != b.LeftJoin[0] || a.Residual[10] != b.Residual[10] {
		t.Error("same seed produced different units")
	}

	if got := float64(len(a.Residual)) / testutil.FixtureSampleRate; got != a.Duration {
		t.Errorf("duration %v does not match residual length %v", a.Duration, got)
	}
}

func TestAssertValidWAV(t *testing.T) {
	data, err := audio.EncodeWAV(&audio.Waveform{
		Samples:    make([]int16, 800),
		SampleRate: 8000,
		Channels:   1,
	})
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	testutil.AssertValidWAV(t, data, 8000)

	if d := testutil.WAVDuration(t, data); d != 0.1 {
		t.Errorf("WAVDuration = %v, want 0.1", d)
	}
}

// skipTracker is a minimal testing.TB implementation that intercepts Skip calls.
type skipTracker struct {
	testing.TB
	onSkip func()
}

func (s *skipTracker) Helper() {}

func (s *skipTracker) Skipf(_ string, _ ...any) {
	s.onSkip()
	// Do NOT call s.TB.Skip, that would skip the outer test.
}
