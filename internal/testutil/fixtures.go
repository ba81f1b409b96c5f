package testutil

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/example/go-relp-tts/internal/catalogue"
	"github.com/example/go-relp-tts/internal/unitsel"
	"github.com/example/go-relp-tts/internal/utterance"
)

// FixtureSampleRate is the sample rate of synthetic units.
const FixtureSampleRate = 8000

// SyntheticUnit returns a small deterministic unit: a decaying tone residual,
// a mildly resonant order-2 LPC track and random join vectors of length
// joinDim.
func SyntheticUnit(name string, seed uint64, joinDim int) *catalogue.CandidateUnit {
	rng := rand.New(rand.NewPCG(seed, 0x5eed))

	dur := 0.03 + 0.03*rng.Float64()
	n := int(math.Round(dur * FixtureSampleRate))
	freq := 100 + 300*rng.Float64()

	residual := make([]float64, n)
	for i := range residual {
		t := float64(i) / FixtureSampleRate
		residual[i] = 0.2 * math.Sin(2*math.Pi*freq*t) * math.Exp(-3*t)
	}

	const frames = 4

	times := make([]float64, frames)
	coefs := make([][]float64, frames)

	for i := range frames {
		times[i] = dur * float64(i+1) / frames
		coefs[i] = []float64{-0.4 + 0.1*rng.Float64(), 0.1}
	}

	join := func() []float64 {
		v := make([]float64, joinDim)
		for i := range v {
			v[i] = rng.NormFloat64()
		}

		return v
	}

	return &catalogue.CandidateUnit{
		Name:      name,
		LeftJoin:  join(),
		RightJoin: join(),
		LPC:       catalogue.LPCTrack{Times: times, Coefs: coefs},
		Residual:  residual,
		Duration:  float64(n) / FixtureSampleRate,
	}
}

// Units returns perName synthetic units for each name, grouped by name in
// the order given.
func Units(names []string, perName, joinDim int) []*catalogue.CandidateUnit {
	units := make([]*catalogue.CandidateUnit, 0, len(names)*perName)
	seed := uint64(1)

	for _, name := range names {
		for range perName {
			units = append(units, SyntheticUnit(name, seed, joinDim))
			seed++
		}
	}

	return units
}

// Catalogue builds a catalogue at FixtureSampleRate over Units.
func Catalogue(tb testing.TB, names []string, perName int) *catalogue.Catalogue {
	tb.Helper()

	cat, err := catalogue.New(Units(names, perName, 4), catalogue.Options{SampleRate: FixtureSampleRate})
	if err != nil {
		tb.Fatalf("build catalogue: %v", err)
	}

	return cat
}

// CatalogueFor builds a catalogue covering every half-phone and word target
// of utt.
func CatalogueFor(tb testing.TB, utt *utterance.Utterance, perName int) *catalogue.Catalogue {
	tb.Helper()

	return Catalogue(tb, UnitNames(tb, utt), perName)
}

// UnitNames lists the distinct half-phone and word unit names utt needs, in
// first-use order.
func UnitNames(tb testing.TB, utt *utterance.Utterance) []string {
	tb.Helper()

	half, err := unitsel.BuildHalfphoneTargets(utt, unitsel.TargetOptions{})
	if err != nil {
		tb.Fatalf("halfphone targets: %v", err)
	}

	words, err := unitsel.BuildWordTargets(utt)
	if err != nil {
		tb.Fatalf("word targets: %v", err)
	}

	seen := map[string]bool{}
	var names []string

	for _, t := range append(half, words...) {
		if !seen[t.Name] {
			seen[t.Name] = true
			names = append(names, t.Name)
		}
	}

	return names
}
