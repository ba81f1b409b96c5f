package tts

import (
	"github.com/example/go-relp-tts/internal/config"
	"github.com/example/go-relp-tts/internal/unitsel"
	"github.com/example/go-relp-tts/internal/utterance"
)

// Report is the JSON view of a Selection.
type Report struct {
	UnitType string                `json:"unit_type"`
	Score    float64               `json:"score"`
	Units    []UnitChoice          `json:"units"`
	Segments []SegmentTime         `json:"segments"`
	Columns  []unitsel.ColumnStats `json:"columns,omitempty"`
}

type UnitChoice struct {
	Target   string  `json:"target"`
	Segment  int     `json:"segment"`
	ID       string  `json:"id"`
	Duration float64 `json:"duration"`
	Score    float64 `json:"score"`
}

// SegmentTime names the segment (or word) an interval belongs to.
type SegmentTime struct {
	Name  string  `json:"name"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// NewReport summarizes sel. utt must be the utterance sel was built from.
// Column statistics are included when withColumns is set.
func NewReport(utt *utterance.Utterance, sel *Selection, withColumns bool) *Report {
	r := &Report{
		UnitType: sel.UnitType,
		Score:    sel.Path.Score,
		Units:    make([]UnitChoice, len(sel.Targets)),
		Segments: make([]SegmentTime, len(sel.Times)),
	}

	for i, t := range sel.Targets {
		u := sel.Path.Units[i]
		r.Units[i] = UnitChoice{
			Target:   t.Name,
			Segment:  t.Segment,
			ID:       u.ID,
			Duration: u.Duration,
			Score:    sel.Path.Scores[i],
		}
	}

	for i, iv := range sel.Times {
		var name string
		if sel.UnitType == config.UnitWord {
			name = utt.Word(i).Name
		} else {
			name = utt.Segment(i).Name
		}

		r.Segments[i] = SegmentTime{Name: name, Start: iv.Start, End: iv.End}
	}

	if withColumns {
		r.Columns = sel.Path.Columns
	}

	return r
}
