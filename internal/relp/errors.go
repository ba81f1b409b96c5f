package relp

import (
	"errors"
	"fmt"
)

// ErrSignal is matched by every *SignalError.
var ErrSignal = errors.New("signal processing error")

// SignalError reports degenerate acoustic data in a selected unit. Position
// is the unit's index in the path, or -1 when not tied to one unit.
type SignalError struct {
	Position int
	Unit     string
	Reason   string
}

func (e *SignalError) Error() string {
	if e.Position < 0 {
		return "signal processing: " + e.Reason
	}

	return fmt.Sprintf("signal processing: unit %d (%s): %s", e.Position, e.Unit, e.Reason)
}

func (e *SignalError) Is(target error) bool {
	return target == ErrSignal
}
