package utterance

import (
	"errors"
	"fmt"
)

// ErrMalformed is matched by every *MalformedError.
var ErrMalformed = errors.New("malformed utterance")

// ErrSyntax wraps documents that are not valid JSON or YAML.
var ErrSyntax = errors.New("utterance document syntax")

// MalformedError reports an utterance whose structure cannot support target
// unit construction. Segment is -1 when the problem is not tied to a single
// segment.
type MalformedError struct {
	Segment int
	Name    string
	Reason  string
}

func (e *MalformedError) Error() string {
	if e.Segment < 0 {
		return fmt.Sprintf("malformed utterance: %s", e.Reason)
	}
	return fmt.Sprintf("malformed utterance: segment %d (%q): %s", e.Segment, e.Name, e.Reason)
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

func malformed(seg int, name, format string, args ...any) *MalformedError {
	return &MalformedError{Segment: seg, Name: name, Reason: fmt.Sprintf(format, args...)}
}
