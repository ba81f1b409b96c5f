package unitsel

import (
	"errors"
	"fmt"
)

// ErrScore is matched by every *ScoreError.
var ErrScore = errors.New("invalid path score")

// ScoreError reports a trellis position whose scores cannot be ranked,
// typically because a candidate's join data is not finite.
type ScoreError struct {
	Position  int
	Unit      string
	Candidate string
	Reason    string
}

func (e *ScoreError) Error() string {
	if e.Candidate != "" {
		return fmt.Sprintf("position %d (%s): candidate %s: %s", e.Position, e.Unit, e.Candidate, e.Reason)
	}

	return fmt.Sprintf("position %d (%s): %s", e.Position, e.Unit, e.Reason)
}

func (e *ScoreError) Is(target error) bool {
	return target == ErrScore
}
