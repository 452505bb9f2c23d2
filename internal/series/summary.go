package series

import (
	"math"
	"time"
)

// Summary collapses a run of points into the figures the chart and API need.
type Summary struct {
	Count      int       `json:"count"`
	FirstIndex int       `json:"first_index"`
	LastIndex  int       `json:"last_index"`
	Min        float64   `json:"min"`
	Max        float64   `json:"max"`
	Last       float64   `json:"last"`
	LastAt     time.Time `json:"last_at"`
}

// Summarize scans points in order. An empty input yields the zero Summary.
func Summarize(points []Point) Summary {
	if len(points) == 0 {
		return Summary{}
	}
	first := points[0]
	sum := Summary{
		Count:      len(points),
		FirstIndex: first.Index,
		Min:        first.Value,
		Max:        first.Value,
	}
	for _, p := range points {
		if p.Value < sum.Min {
			sum.Min = p.Value
		}
		if p.Value > sum.Max {
			sum.Max = p.Value
		}
	}
	last := points[len(points)-1]
	sum.LastIndex = last.Index
	sum.Last = last.Value
	sum.LastAt = last.ObservedAt
	return sum
}

// Range returns a y range covering the summary with pad added on both sides.
// A flat series is widened so the range is never empty.
func (s Summary) Range(pad float64) (lo, hi float64) {
	if s.Count == 0 {
		return 0, 1
	}
	lo, hi = s.Min, s.Max
	span := hi - lo
	if span == 0 {
		span = max(math.Abs(hi)*0.001, 0.5)
		return lo - span, hi + span
	}
	return lo - span*pad, hi + span*pad
}
