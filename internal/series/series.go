package series

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrNaN rejects points without a usable value.
	ErrNaN = errors.New("series: value is not a number")
	// ErrIndex rejects points that do not extend the series.
	ErrIndex = errors.New("series: index must increase")
)

// Point is one plotted observation.
type Point struct {
	Index      int       `json:"index"`
	Value      float64   `json:"value"`
	ObservedAt time.Time `json:"observed_at"`
}

// Series is an append-only sequence of points ordered by index.
// It is not safe for concurrent use; callers confine it to one goroutine.
type Series struct {
	Name   string
	points []Point
}

func New(name string) *Series { return &Series{Name: name} }

// Append adds p to the end of the series.
func (s *Series) Append(p Point) error {
	if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
		return fmt.Errorf("%w: index %d", ErrNaN, p.Index)
	}
	if p.Index < 1 {
		return fmt.Errorf("%w: index %d < 1", ErrIndex, p.Index)
	}
	if n := len(s.points); n > 0 && p.Index <= s.points[n-1].Index {
		return fmt.Errorf("%w: index %d after %d", ErrIndex, p.Index, s.points[n-1].Index)
	}
	s.points = append(s.points, p)
	return nil
}

func (s *Series) Len() int { return len(s.points) }

// Last returns the newest point.
func (s *Series) Last() (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[len(s.points)-1], true
}

// Points returns a copy of all points.
func (s *Series) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Snapshot copies the series into a value that may leave the owning goroutine.
func (s *Series) Snapshot() Snapshot {
	pts := s.Points()
	return Snapshot{Name: s.Name, Points: pts, Summary: Summarize(pts)}
}

// Snapshot is an immutable copy of a series.
type Snapshot struct {
	Name    string  `json:"name"`
	Points  []Point `json:"points"`
	Summary Summary `json:"summary"`
}
