package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cwbudde/algo-vecmath/cpu"

	"github.com/example/go-relp-tts/internal/catalogue"
	"github.com/example/go-relp-tts/internal/config"
	"github.com/example/go-relp-tts/internal/doctor"
)

func activeCfgWith(catPath string) config.Config {
	cfg := config.DefaultConfig()
	cfg.Paths.CataloguePath = catPath
	return cfg
}

func genericFeatures() cpu.Features {
	return cpu.Features{ForceGeneric: true, Architecture: "amd64"}
}

func TestRunDoctor_EmptyConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := runDoctor(doctor.Config{}, &stdout, &stderr); err == nil {
		t.Fatal("expected error for empty configuration")
	}
}

func TestRunDoctor_Passes(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := runDoctor(doctor.Config{
		Settings:      config.DefaultConfig(),
		SkipCatalogue: true,
		Features:      genericFeatures,
	}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("runDoctor: %v\nstderr: %s", err, stderr.String())
	}

	if !strings.Contains(stdout.String(), "doctor checks passed") {
		t.Errorf("stdout = %q", stdout.String())
	}

	if stderr.Len() != 0 {
		t.Errorf("stderr = %q; want empty", stderr.String())
	}
}

func TestRunDoctor_ReportsFailures(t *testing.T) {
	var stdout, stderr bytes.Buffer

	cfg := activeCfgWith("/catalogue/that/does/not/exist.safetensors")

	err := runDoctor(doctor.Config{
		Settings: cfg,
		LoadCatalogue: func(string) (catalogue.Summary, error) {
			t.Fatal("loader must not run for a missing file")
			return catalogue.Summary{}, nil
		},
		Features: genericFeatures,
	}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected doctor failure")
	}

	if !strings.Contains(stderr.String(), "FAIL: catalogue file") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
