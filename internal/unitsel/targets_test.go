package unitsel

import (
	"errors"
	"testing"

	"github.com/example/go-relp-tts/internal/utterance"
)

func helloWorld(t *testing.T) *utterance.Utterance {
	t.Helper()

	u, err := utterance.NewBuilder().
		Pause("pau").
		Phrase("p1",
			utterance.W("hello", []string{"h", "e"}, []string{"l", "ou"}),
			utterance.W("world", []string{"w", "er", "l", "d"}),
		).
		Pause("pau").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	return u
}

func TestBuildHalfphoneTargets_OmitsEdgeSilence(t *testing.T) {
	u := helloWorld(t)

	targets, err := BuildHalfphoneTargets(u, TargetOptions{})
	if err != nil {
		t.Fatalf("BuildHalfphoneTargets: %v", err)
	}

	if want := 2*u.NumSegments() - 2; len(targets) != want {
		t.Fatalf("got %d targets, want %d", len(targets), want)
	}

	if targets[0].Name != "right-pau" || targets[0].Segment != 0 {
		t.Errorf("first target = %+v, want right-pau of segment 0", targets[0])
	}

	if last := targets[len(targets)-1]; last.Name != "left-pau" {
		t.Errorf("last target = %q, want left-pau", last.Name)
	}

	// targets[1], targets[2] are left-h, right-h
	lh, rh := targets[1], targets[2]
	if lh.Name != "left-h" || rh.Name != "right-h" {
		t.Fatalf("targets[1:3] = %q %q", lh.Name, rh.Name)
	}

	if lh.Context != rh.Context {
		t.Errorf("halves of one segment must share context: %+v vs %+v", lh.Context, rh.Context)
	}

	ctx := lh.Context
	if ctx.NumSyls != 2 || ctx.SylPosition != utterance.Initial || ctx.WordPosition != utterance.Initial ||
		ctx.PhrasePosition != utterance.Initial || ctx.PrevSegment != "pau" || ctx.NextSegment != "e" {
		t.Errorf("left-h context = %+v", ctx)
	}
}

func TestBuildHalfphoneTargets_InnerSilenceKept(t *testing.T) {
	u, err := utterance.NewBuilder().
		Phrase("", utterance.W("a", []string{"a"})).
		Pause("pau").
		Phrase("", utterance.W("b", []string{"b"})).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	targets, err := BuildHalfphoneTargets(u, TargetOptions{})
	if err != nil {
		t.Fatalf("BuildHalfphoneTargets: %v", err)
	}

	if len(targets) != 6 {
		t.Fatalf("got %d targets, want 6", len(targets))
	}

	if targets[2].Name != "left-pau" || targets[3].Name != "right-pau" {
		t.Errorf("inner pause targets = %q %q", targets[2].Name, targets[3].Name)
	}
}

func TestBuildHalfphoneTargets_CustomSilence(t *testing.T) {
	u, err := utterance.NewBuilder().Pause("sil").Phrase("", utterance.W("a", []string{"a"})).Pause("sil").Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	targets, err := BuildHalfphoneTargets(u, TargetOptions{Silence: "sil"})
	if err != nil {
		t.Fatalf("BuildHalfphoneTargets: %v", err)
	}

	if len(targets) != 4 {
		t.Fatalf("got %d targets, want 4", len(targets))
	}
}

func TestBuildHalfphoneTargets_OnlySilence(t *testing.T) {
	u, err := utterance.NewBuilder().Pause("pau").Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	_, err = BuildHalfphoneTargets(u, TargetOptions{})
	if !errors.Is(err, utterance.ErrMalformed) {
		t.Fatalf("want ErrMalformed, got %v", err)
	}
}

func TestBuildWordTargets(t *testing.T) {
	u := helloWorld(t)

	targets, err := BuildWordTargets(u)
	if err != nil {
		t.Fatalf("BuildWordTargets: %v", err)
	}

	if len(targets) != 2 || targets[0].Name != "hello" || targets[1].Name != "world" {
		t.Fatalf("targets = %+v", targets)
	}

	if targets[0].Context.NextWord != "world" || targets[0].Context.PrevWord != "" {
		t.Errorf("hello context = %+v", targets[0].Context)
	}

	empty, err := utterance.NewBuilder().Pause("pau").Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, err := BuildWordTargets(empty); !errors.Is(err, utterance.ErrMalformed) {
		t.Fatalf("want ErrMalformed for wordless utterance, got %v", err)
	}
}
