// Package unitsel turns an utterance into target units and selects the
// best-matching sequence of recorded candidates for them.
package unitsel

import (
	"github.com/example/go-relp-tts/internal/catalogue"
	"github.com/example/go-relp-tts/internal/utterance"
)

// DefaultSilence is the segment name treated as silence at utterance edges.
const DefaultSilence = "pau"

// TargetUnit is one position of the selection trellis. Segment is the index
// of the segment (or word, for word units) it was derived from.
type TargetUnit struct {
	Name    string            `json:"name"`
	Segment int               `json:"segment"`
	Context catalogue.Context `json:"context"`
}

type TargetOptions struct {
	// Silence overrides DefaultSilence.
	Silence string
}

// BuildHalfphoneTargets derives a left and right half-phone target for every
// segment, in order. The left half of a leading silence and the right half
// of a trailing silence are omitted.
func BuildHalfphoneTargets(utt *utterance.Utterance, opts TargetOptions) ([]TargetUnit, error) {
	silence := opts.Silence
	if silence == "" {
		silence = DefaultSilence
	}

	n := utt.NumSegments()
	targets := make([]TargetUnit, 0, 2*n)

	for i := range n {
		seg := utt.Segment(i)
		ctx := catalogue.Context{
			NumSyls:        utt.NumSyllablesInWord(i),
			SylPosition:    utt.SyllablePosition(i),
			WordPosition:   utt.WordPosition(i),
			PhrasePosition: utt.PhrasePosition(i),
			PrevSegment:    utt.PrevSegmentName(i),
			NextSegment:    utt.NextSegmentName(i),
		}

		if i != 0 || seg.Name != silence {
			targets = append(targets, TargetUnit{Name: "left-" + seg.Name, Segment: i, Context: ctx})
		}

		if i != n-1 || seg.Name != silence {
			targets = append(targets, TargetUnit{Name: "right-" + seg.Name, Segment: i, Context: ctx})
		}
	}

	if len(targets) == 0 {
		return nil, &utterance.MalformedError{Segment: -1, Reason: "utterance yields no target units"}
	}

	return targets, nil
}

// BuildWordTargets derives one target per word, carrying the neighbouring
// word names as context.
func BuildWordTargets(utt *utterance.Utterance) ([]TargetUnit, error) {
	n := utt.NumWords()
	if n == 0 {
		return nil, &utterance.MalformedError{Segment: -1, Reason: "utterance has no words"}
	}

	targets := make([]TargetUnit, n)
	for w := range n {
		targets[w] = TargetUnit{
			Name:    utt.Word(w).Name,
			Segment: w,
			Context: catalogue.Context{
				PrevWord: utt.PrevWordName(w),
				NextWord: utt.NextWordName(w),
			},
		}
	}

	return targets, nil
}
