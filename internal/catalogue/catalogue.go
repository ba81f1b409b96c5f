package catalogue

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"golang.org/x/text/unicode/norm"
)

const DefaultSampleRate = 16000

type Options struct {
	// SampleRate of the residual signals. 0 means DefaultSampleRate.
	SampleRate int
	// MaxCandidates caps every bucket; extra candidates are dropped in
	// catalogue order. 0 keeps everything.
	MaxCandidates int
	Logger        *slog.Logger
}

// Catalogue maps unit names to their ordered candidate lists. It is
// immutable after construction and safe for concurrent readers.
type Catalogue struct {
	sampleRate int
	joinDim    int
	buckets    map[string][]*CandidateUnit
	names      []string
	size       int
}

// Summary describes a catalogue for diagnostics.
type Summary struct {
	Units        int     `json:"units"`
	Names        int     `json:"names"`
	SampleRate   int     `json:"sample_rate"`
	JoinDim      int     `json:"join_dim"`
	LPCOrder     int     `json:"lpc_order"`
	TotalSeconds float64 `json:"total_seconds"`
	Largest      string  `json:"largest_bucket"`
	LargestSize  int     `json:"largest_bucket_size"`
}

// New groups units by name, preserving their relative order. Units without
// an ID are assigned one from their index.
func New(units []*CandidateUnit, opts Options) (*Catalogue, error) {
	if len(units) == 0 {
		return nil, errors.New("catalogue: no units")
	}

	if opts.SampleRate == 0 {
		opts.SampleRate = DefaultSampleRate
	}

	if opts.SampleRate < 0 {
		return nil, fmt.Errorf("catalogue: invalid sample rate %d", opts.SampleRate)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Catalogue{
		sampleRate: opts.SampleRate,
		joinDim:    len(units[0].LeftJoin),
		buckets:    make(map[string][]*CandidateUnit),
	}

	dropped := map[string]int{}

	for i, u := range units {
		if u == nil {
			return nil, fmt.Errorf("catalogue: unit %d is nil", i)
		}

		if u.Name == "" {
			return nil, fmt.Errorf("catalogue: unit %d has no name", i)
		}

		if len(u.LeftJoin) != c.joinDim || len(u.RightJoin) != c.joinDim {
			return nil, fmt.Errorf(
				"catalogue: unit %d (%s) join vectors have lengths %d/%d, want %d",
				i, u.Name, len(u.LeftJoin), len(u.RightJoin), c.joinDim,
			)
		}

		u = normalized(u, i)

		if err := checkFinite(u); err != nil {
			return nil, err
		}

		bucket := c.buckets[u.Name]
		if opts.MaxCandidates > 0 && len(bucket) >= opts.MaxCandidates {
			dropped[u.Name]++
			continue
		}

		if bucket == nil {
			c.names = append(c.names, u.Name)
		}

		c.buckets[u.Name] = append(bucket, u)
		c.size++
	}

	sort.Strings(c.names)

	for _, name := range c.names {
		if n := dropped[name]; n > 0 {
			logger.Warn("catalogue bucket truncated",
				"unit", name,
				"kept", len(c.buckets[name]),
				"dropped", n,
			)
		}
	}

	return c, nil
}

// Candidates returns the candidate list for name. The slice is shared and
// must not be modified.
func (c *Catalogue) Candidates(name string) ([]*CandidateUnit, error) {
	cands := c.buckets[norm.NFC.String(name)]
	if len(cands) == 0 {
		return nil, &LookupError{Unit: name}
	}

	return cands, nil
}

// Names lists the unit names in sorted order.
func (c *Catalogue) Names() []string {
	return append([]string(nil), c.names...)
}

func (c *Catalogue) SampleRate() int { return c.sampleRate }

func (c *Catalogue) JoinDim() int { return c.joinDim }

// Len is the total number of candidates across all buckets.
func (c *Catalogue) Len() int { return c.size }

// Units returns every candidate grouped by sorted name.
func (c *Catalogue) Units() []*CandidateUnit {
	out := make([]*CandidateUnit, 0, c.size)
	for _, name := range c.names {
		out = append(out, c.buckets[name]...)
	}

	return out
}

func (c *Catalogue) Summary() Summary {
	s := Summary{
		Units:      c.size,
		Names:      len(c.names),
		SampleRate: c.sampleRate,
		JoinDim:    c.joinDim,
	}

	for _, name := range c.names {
		bucket := c.buckets[name]
		if len(bucket) > s.LargestSize {
			s.Largest, s.LargestSize = name, len(bucket)
		}

		for _, u := range bucket {
			s.TotalSeconds += u.Duration
			if s.LPCOrder == 0 {
				s.LPCOrder = u.LPC.Order()
			}
		}
	}

	return s
}

// normalized returns a copy of u with a default ID and its name and
// neighbour tags in NFC, so composed and decomposed phone symbols address
// the same bucket and context. The caller's record is left untouched.
func normalized(u *CandidateUnit, i int) *CandidateUnit {
	c := *u
	if c.ID == "" {
		c.ID = fmt.Sprintf("u%05d", i)
	}

	c.Name = norm.NFC.String(c.Name)
	c.Context.PrevSegment = norm.NFC.String(c.Context.PrevSegment)
	c.Context.NextSegment = norm.NFC.String(c.Context.NextSegment)
	c.Context.PrevWord = norm.NFC.String(c.Context.PrevWord)
	c.Context.NextWord = norm.NFC.String(c.Context.NextWord)

	return &c
}

// checkFinite rejects NaN or infinite values anywhere in u's signal data.
func checkFinite(u *CandidateUnit) error {
	bad := func(field string, v []float64) error {
		for k, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return &UnitError{ID: u.ID, Name: u.Name, Reason: fmt.Sprintf("%s[%d] is %v", field, k, x)}
			}
		}

		return nil
	}

	if err := bad("left_join", u.LeftJoin); err != nil {
		return err
	}

	if err := bad("right_join", u.RightJoin); err != nil {
		return err
	}

	if err := bad("lpc_times", u.LPC.Times); err != nil {
		return err
	}

	for f, row := range u.LPC.Coefs {
		if err := bad(fmt.Sprintf("lpc_coefs[%d]", f), row); err != nil {
			return err
		}
	}

	if err := bad("residual", u.Residual); err != nil {
		return err
	}

	return bad("duration", []float64{u.Duration})
}
