package utterance

import "fmt"

// Position locates an item among the members of its enclosing group.
type Position uint8

const (
	Undefined Position = iota
	Initial
	Medial
	Final
)

func (p Position) String() string {
	switch p {
	case Initial:
		return "initial"
	case Medial:
		return "medial"
	case Final:
		return "final"
	default:
		return ""
	}
}

// ParsePosition is the inverse of Position.String. The empty string and
// "undefined" map to Undefined.
func ParsePosition(s string) (Position, error) {
	switch s {
	case "", "undefined":
		return Undefined, nil
	case "initial":
		return Initial, nil
	case "medial":
		return Medial, nil
	case "final":
		return Final, nil
	default:
		return Undefined, fmt.Errorf("unknown position %q (want initial|medial|final)", s)
	}
}

func (p Position) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Position) UnmarshalText(text []byte) error {
	v, err := ParsePosition(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// positionOf reports where member sits in members. A group with a single
// member yields Undefined: it has neither a preceding nor a following
// neighbour.
func positionOf(members []int, member int) Position {
	idx := -1
	for i, m := range members {
		if m == member {
			idx = i
			break
		}
	}
	if idx < 0 || len(members) < 2 {
		return Undefined
	}
	switch idx {
	case 0:
		return Initial
	case len(members) - 1:
		return Final
	default:
		return Medial
	}
}
