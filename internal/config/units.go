package config

import (
	"fmt"
	"strings"
)

const (
	UnitHalfphone = "halfphone"
	UnitWord      = "word"
)

func NormalizeUnitType(raw string) (string, error) {
	unit := strings.ToLower(strings.TrimSpace(raw))
	if unit == "" {
		unit = UnitHalfphone
	}

	switch unit {
	case UnitHalfphone, UnitWord:
		return unit, nil
	case "half-phone", "halfphones":
		return UnitHalfphone, nil
	case "words":
		return UnitWord, nil
	default:
		return "", fmt.Errorf("invalid unit type %q (expected %s|%s)", raw, UnitHalfphone, UnitWord)
	}
}
