package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-relp-tts/internal/catalogue"
	"github.com/example/go-relp-tts/internal/testutil"
)

func TestWriteUnitCounts(t *testing.T) {
	cat := testutil.Catalogue(t, []string{"right-a", "left-a"}, 3)

	var buf bytes.Buffer
	if err := writeUnitCounts(&buf, cat); err != nil {
		t.Fatalf("writeUnitCounts: %v", err)
	}

	want := "left-a\t3\nright-a\t3\n"
	if buf.String() != want {
		t.Errorf("output = %q; want %q", buf.String(), want)
	}
}

func TestPackCatalogue_FromYAMLDump(t *testing.T) {
	dir := t.TempDir()
	src := testutil.Catalogue(t, []string{"left-a", "right-a", "a"}, 2)

	var dump bytes.Buffer
	if err := src.WriteYAML(&dump); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	dumpPath := filepath.Join(dir, "dump.yaml")
	if err := os.WriteFile(dumpPath, dump.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "packed.safetensors")
	if err := packCatalogue(dumpPath, out, catalogue.Options{MaxCandidates: 1}); err != nil {
		t.Fatalf("packCatalogue: %v", err)
	}

	got, err := catalogue.Load(out, catalogue.Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	sum := got.Summary()
	if sum.Units != 3 || sum.Names != 3 {
		t.Errorf("summary = %+v; want 3 units over 3 names", sum)
	}

	if sum.SampleRate != testutil.FixtureSampleRate {
		t.Errorf("sample rate = %d; want %d", sum.SampleRate, testutil.FixtureSampleRate)
	}
}

func TestPackCatalogue_MissingDump(t *testing.T) {
	err := packCatalogue(filepath.Join(t.TempDir(), "none.yaml"), filepath.Join(t.TempDir(), "x.safetensors"), catalogue.Options{})
	if err == nil || !strings.Contains(err.Error(), "open dump") {
		t.Fatalf("err = %v; want open dump error", err)
	}
}

func TestOpenCatalogue_UsesConfiguredPath(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	catPath, _ := writeFixtures(t)

	activeCfg = activeCfgWith(catPath)

	cat, err := openCatalogue("")
	if err != nil {
		t.Fatalf("openCatalogue: %v", err)
	}

	if cat.SampleRate() != testutil.FixtureSampleRate {
		t.Errorf("sample rate = %d", cat.SampleRate())
	}
}

func TestRootCmd_CatalogueInspect(t *testing.T) {
	t.Chdir(t.TempDir())

	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	catPath, _ := writeFixtures(t)

	root := NewRootCmd()
	root.SetArgs([]string{"--log-level=error", "catalogue", "inspect", "--path", catPath})

	if err := root.Execute(); err != nil {
		t.Fatalf("catalogue inspect: %v", err)
	}
}
