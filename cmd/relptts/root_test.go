package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/go-relp-tts/internal/config"
	"github.com/example/go-relp-tts/internal/runtime/tensor"
	"github.com/example/go-relp-tts/internal/testutil"
)

func TestNewRootCmd_HasExpectedSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"synth", "select", "bench", "catalogue", "serve", "health", "doctor"}
	for _, name := range want {
		found := false

		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}

		if !found {
			t.Errorf("expected subcommand %q not found in root", name)
		}
	}
}

func TestNewRootCmd_HasPersistentConfigFlag(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"config", "paths-catalogue-path", "synth-unit-type", "log-level"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected --%s persistent flag to be registered", name)
		}
	}
}

func TestSetupLogger_DoesNotPanic(_ *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		setupLogger(level)
	}
}

func TestSetupLogger_InvalidLevelFallsBackToInfo(_ *testing.T) {
	setupLogger("not-a-level")
}

func TestShutdownTracer_NoopWhenDisabled(t *testing.T) {
	orig := tracerShutdown

	t.Cleanup(func() { tracerShutdown = orig })

	tracerShutdown = nil

	if err := shutdownTracer(); err != nil {
		t.Fatalf("shutdownTracer() = %v; want nil", err)
	}
}

func TestRequireConfig_FailsWhenNotInitialized(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.Config{}

	_, err := requireConfig()
	if err == nil {
		t.Fatal("expected error when config is not loaded")
	}
}

func TestRequireConfig_SucceedsWhenLoaded(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.Config{
		Paths: config.PathsConfig{CataloguePath: "/some/catalogue.safetensors"},
	}

	got, err := requireConfig()
	if err != nil {
		t.Fatalf("requireConfig returned unexpected error: %v", err)
	}

	if got.Paths.CataloguePath != "/some/catalogue.safetensors" {
		t.Errorf("unexpected CataloguePath: %q", got.Paths.CataloguePath)
	}
}

// writeFixtures writes a synthetic catalogue covering HelloWorld and the
// utterance document itself into a temp dir.
func writeFixtures(t *testing.T) (catPath, uttPath string) {
	t.Helper()

	dir := t.TempDir()
	utt := testutil.HelloWorld(t)

	catPath = filepath.Join(dir, "catalogue.safetensors")
	if err := testutil.CatalogueFor(t, utt, 2).Write(catPath); err != nil {
		t.Fatalf("write catalogue: %v", err)
	}

	doc, err := json.Marshal(utt.Document())
	if err != nil {
		t.Fatalf("marshal utterance: %v", err)
	}

	uttPath = filepath.Join(dir, "hello.json")
	if err := os.WriteFile(uttPath, doc, 0o644); err != nil {
		t.Fatalf("write utterance: %v", err)
	}

	return catPath, uttPath
}

// fixtureArgs points the root command at the fixture catalogue.
func fixtureArgs(catPath string, args ...string) []string {
	return append([]string{
		"--paths-catalogue-path", catPath,
		"--synth-sample-rate=8000",
		"--log-level=error",
	}, args...)
}

func TestRootCmd_SynthWritesWAV(t *testing.T) {
	t.Chdir(t.TempDir())

	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	catPath, uttPath := writeFixtures(t)
	out := filepath.Join(t.TempDir(), "hello.wav")

	root := NewRootCmd()
	root.SetArgs(fixtureArgs(catPath, "synth", "--utterance", uttPath, "--out", out, "--fade-in-ms=2"))

	if err := root.Execute(); err != nil {
		t.Fatalf("synth: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	testutil.AssertValidWAV(t, data, testutil.FixtureSampleRate)

	if d := testutil.WAVDuration(t, data); d <= 0 {
		t.Errorf("WAV duration = %v; want > 0", d)
	}
}

func TestRootCmd_SynthUnknownUnitFails(t *testing.T) {
	t.Chdir(t.TempDir())

	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	catPath, _ := writeFixtures(t)

	uttPath := filepath.Join(t.TempDir(), "zz.yaml")
	if err := os.WriteFile(uttPath, []byte("segments:\n  - name: zz\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	root := NewRootCmd()
	root.SetArgs(fixtureArgs(catPath, "synth", "--utterance", uttPath, "--out", filepath.Join(t.TempDir(), "x.wav")))

	if err := root.Execute(); err == nil {
		t.Fatal("expected error for a unit missing from the catalogue")
	}
}

func TestRootCmd_InvalidUnitTypeFails(t *testing.T) {
	t.Chdir(t.TempDir())

	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	root := NewRootCmd()
	root.SetArgs([]string{"--synth-unit-type=diphone", "doctor", "--skip-catalogue"})

	if err := root.Execute(); err == nil {
		t.Fatal("expected config error for unknown unit type")
	}
}

func TestRootCmd_AppliesSynthWorkers(t *testing.T) {
	t.Chdir(t.TempDir())

	orig, origWorkers := activeCfg, tensor.Workers()

	t.Cleanup(func() {
		activeCfg = orig
		tensor.SetWorkers(origWorkers)
	})

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--synth-workers=3", "doctor", "--skip-catalogue"})

	// Only the pre-run matters here; doctor itself may report failures.
	_ = root.Execute()

	if got := tensor.Workers(); got != 3 {
		t.Errorf("tensor workers = %d, want 3", got)
	}
}
