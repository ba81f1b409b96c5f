package catalogue

import (
	"errors"
	"fmt"
)

// ErrUnitNotFound is matched by every *LookupError.
var ErrUnitNotFound = errors.New("unit not found")

// LookupError reports a unit name with no candidates in the catalogue.
type LookupError struct {
	Unit string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("unit not found: no candidates for %q", e.Unit)
}

func (e *LookupError) Is(target error) bool {
	return target == ErrUnitNotFound
}

// ErrInvalidUnit is matched by every *UnitError.
var ErrInvalidUnit = errors.New("invalid unit")

// UnitError reports a candidate whose recorded data cannot be used.
type UnitError struct {
	ID     string
	Name   string
	Reason string
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("invalid unit %s (%s): %s", e.ID, e.Name, e.Reason)
}

func (e *UnitError) Is(target error) bool {
	return target == ErrInvalidUnit
}
