package catalogue

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Dump is the human-editable catalogue form read by "catalogue pack" and
// written by "catalogue units --full".
type Dump struct {
	SampleRate int        `json:"sample_rate" yaml:"sample_rate"`
	Units      []UnitDump `json:"units" yaml:"units"`
}

type UnitDump struct {
	ID        string      `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string      `json:"name" yaml:"name"`
	Duration  float64     `json:"duration" yaml:"duration"`
	Context   Context     `json:"context" yaml:"context"`
	LeftJoin  []float64   `json:"left_join" yaml:"left_join,flow"`
	RightJoin []float64   `json:"right_join" yaml:"right_join,flow"`
	LPCTimes  []float64   `json:"lpc_times" yaml:"lpc_times,flow"`
	LPCCoefs  [][]float64 `json:"lpc_coefs" yaml:"lpc_coefs"`
	Residual  []float64   `json:"residual" yaml:"residual,flow"`
}

// ReadDump decodes a JSON or YAML dump and builds a catalogue from it.
func ReadDump(r io.Reader, opts Options) (*Catalogue, error) {
	var d Dump
	if err := yaml.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("catalogue: decode dump: %w", err)
	}

	if opts.SampleRate == 0 {
		opts.SampleRate = d.SampleRate
	}

	units := make([]*CandidateUnit, len(d.Units))
	for i, ud := range d.Units {
		units[i] = &CandidateUnit{
			ID:        ud.ID,
			Name:      ud.Name,
			LeftJoin:  ud.LeftJoin,
			RightJoin: ud.RightJoin,
			LPC:       LPCTrack{Times: ud.LPCTimes, Coefs: ud.LPCCoefs},
			Residual:  ud.Residual,
			Duration:  ud.Duration,
			Context:   ud.Context,
		}
	}

	return New(units, opts)
}

// Dump returns the catalogue in dump form.
func (c *Catalogue) Dump() *Dump {
	units := c.Units()
	d := &Dump{SampleRate: c.sampleRate, Units: make([]UnitDump, len(units))}

	for i, u := range units {
		d.Units[i] = UnitDump{
			ID:        u.ID,
			Name:      u.Name,
			Duration:  u.Duration,
			Context:   u.Context,
			LeftJoin:  u.LeftJoin,
			RightJoin: u.RightJoin,
			LPCTimes:  u.LPC.Times,
			LPCCoefs:  u.LPC.Coefs,
			Residual:  u.Residual,
		}
	}

	return d
}

// WriteYAML writes the dump form of c to w.
func (c *Catalogue) WriteYAML(w io.Writer) error {
	return encodeDumpYAML(w, c.Dump())
}

func encodeDumpYAML(w io.Writer, d *Dump) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("catalogue: encode dump: %w", err)
	}

	return enc.Close()
}
