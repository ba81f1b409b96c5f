// Package testutil provides shared fixtures and skip helpers for tests.
//
// Skip helpers call t.Skip with a clear reason when a prerequisite is
// absent, so integration tests stay runnable in partial environments.
//
// Typical usage:
//
//	func TestSynthesizeFromVoice(t *testing.T) {
//	    path := testutil.RequireCatalogue(t)
//	    ...
//	}
package testutil

import (
	"os"
	"testing"

	"github.com/example/go-relp-tts/internal/utterance"
)

// CatalogueEnv names the environment variable pointing at a real catalogue
// for integration tests.
const CatalogueEnv = "RELPTTS_TEST_CATALOGUE"

// RequireCatalogue returns the catalogue path from CatalogueEnv, skipping the
// test when it is unset or the file is missing.
func RequireCatalogue(tb testing.TB) string {
	tb.Helper()

	p := os.Getenv(CatalogueEnv)
	if p == "" {
		tb.Skipf("no recorded catalogue configured; set %s", CatalogueEnv)
		return ""
	}

	if _, err := os.Stat(p); err != nil {
		tb.Skipf("catalogue not found at %s=%q: %v", CatalogueEnv, p, err)
		return ""
	}

	return p
}

// HelloWorld returns "pau hello world pau" as one phrase of two words.
func HelloWorld(tb testing.TB) *utterance.Utterance {
	tb.Helper()

	utt, err := utterance.NewBuilder().
		Pause("pau").
		Phrase("p0",
			utterance.W("hello", []string{"h", "@"}, []string{"l", "ou"}),
			utterance.W("world", []string{"w", "@@", "l", "d"}),
		).
		Pause("pau").
		Build()
	if err != nil {
		tb.Fatalf("build utterance: %v", err)
	}

	return utt
}
