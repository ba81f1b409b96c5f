package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/example/go-relp-tts/internal/tts"
)

func TestWriteReport_IndentedJSON(t *testing.T) {
	r := &tts.Report{
		UnitType: "halfphone",
		Score:    0.75,
		Units:    []tts.UnitChoice{{Target: "left-a", ID: "u1", Duration: 0.05, Score: 0.75}},
		Segments: []tts.SegmentTime{{Name: "a", Start: 0, End: 0.05}},
	}

	var buf bytes.Buffer
	if err := writeReport(&buf, r); err != nil {
		t.Fatalf("writeReport: %v", err)
	}

	if !strings.Contains(buf.String(), "\n  \"unit_type\": \"halfphone\"") {
		t.Errorf("output not indented: %s", buf.String())
	}

	var back tts.Report
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if back.Units[0].ID != "u1" || back.Segments[0].End != 0.05 {
		t.Errorf("decoded = %+v", back)
	}

	if strings.Contains(buf.String(), "columns") {
		t.Error("empty columns should be omitted")
	}
}

func TestRootCmd_Select(t *testing.T) {
	t.Chdir(t.TempDir())

	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	catPath, uttPath := writeFixtures(t)

	root := NewRootCmd()
	root.SetArgs(fixtureArgs(catPath, "--synth-unit-type=word", "select", "--utterance", uttPath, "--columns"))

	if err := root.Execute(); err != nil {
		t.Fatalf("select: %v", err)
	}
}
