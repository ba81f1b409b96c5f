// Package catalogue holds the read-only store of recorded candidate units
// that unit selection draws from.
package catalogue

import "github.com/example/go-relp-tts/internal/utterance"

// Context is the linguistic context a unit was recorded in, or the context a
// target unit asks for. Zero values mean undefined: NumSyls 0, Position
// Undefined and "" for neighbours at an utterance boundary.
type Context struct {
	NumSyls        int                `json:"num_syls,omitempty" yaml:"num_syls,omitempty"`
	SylPosition    utterance.Position `json:"syl_position,omitempty" yaml:"syl_position,omitempty"`
	WordPosition   utterance.Position `json:"word_position,omitempty" yaml:"word_position,omitempty"`
	PhrasePosition utterance.Position `json:"phrase_position,omitempty" yaml:"phrase_position,omitempty"`
	PrevSegment    string             `json:"prev_segment,omitempty" yaml:"prev_segment,omitempty"`
	NextSegment    string             `json:"next_segment,omitempty" yaml:"next_segment,omitempty"`
	PrevWord       string             `json:"prev_word,omitempty" yaml:"prev_word,omitempty"`
	NextWord       string             `json:"next_word,omitempty" yaml:"next_word,omitempty"`
}

// LPCTrack is a time-indexed sequence of LPC coefficient vectors. Times are
// in seconds relative to the start of the unit.
type LPCTrack struct {
	Times []float64
	Coefs [][]float64
}

// Order is the coefficient count of the first frame, or 0 for an empty track.
func (t LPCTrack) Order() int {
	if len(t.Coefs) == 0 {
		return 0
	}

	return len(t.Coefs[0])
}

// CandidateUnit is one recorded half-phone (or word) unit.
type CandidateUnit struct {
	ID        string
	Name      string
	LeftJoin  []float64
	RightJoin []float64
	LPC       LPCTrack
	Residual  []float64
	Duration  float64
	Context   Context
}
