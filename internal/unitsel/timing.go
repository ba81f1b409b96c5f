package unitsel

import "fmt"

// Interval is an approximate [Start, End) span in seconds.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// SegmentTimes estimates the time span of each of the n source items
// (segments, or words for word units) by summing the declared durations of
// the units selected for it. Items without units get an empty interval at
// the current time.
func SegmentTimes(targets []TargetUnit, path *Path, n int) ([]Interval, error) {
	if path == nil || len(path.Units) != len(targets) {
		return nil, fmt.Errorf("segment times: path does not match %d targets", len(targets))
	}

	durs := make([]float64, n)
	for k, t := range targets {
		if t.Segment < 0 || t.Segment >= n {
			return nil, fmt.Errorf("segment times: target %d references item %d of %d", k, t.Segment, n)
		}

		durs[t.Segment] += path.Units[k].Duration
	}

	out := make([]Interval, n)
	start := 0.0

	for i, d := range durs {
		out[i] = Interval{Start: start, End: start + d}
		start += d
	}

	return out, nil
}
