package sim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// DurationModel turns a nominal processing duration into the actual duration
// of one machining attempt.
type DurationModel interface {
	// Sample returns a duration >= 1 for a nominal duration >= 1.
	Sample(nominal int64) int64
}

// FixedDuration always returns the nominal duration.
type FixedDuration struct{}

func (FixedDuration) Sample(nominal int64) int64 {
	return nominal
}

// TriangularDuration draws cycle times from Triangle(lower*nominal, upper*nominal, nominal).
// The mode is the nominal duration, so planned completions are the most likely outcome.
type TriangularDuration struct {
	lower float64
	upper float64
	src   rand.Source
}

// NewTriangularDuration creates a TriangularDuration.
// Requires 0 < lower <= 1 <= upper and lower < upper.
func NewTriangularDuration(lower, upper float64, src rand.Source) (*TriangularDuration, error) {
	if lower <= 0 || lower > 1 || upper < 1 || lower >= upper {
		return nil, fmt.Errorf("triangular cycle time needs 0 < lower <= 1 <= upper and lower < upper, got lower=%v upper=%v", lower, upper)
	}
	if src == nil {
		panic("NewTriangularDuration: src must not be nil")
	}
	return &TriangularDuration{lower: lower, upper: upper, src: src}, nil
}

func (t *TriangularDuration) Sample(nominal int64) int64 {
	if nominal <= 0 {
		return nominal
	}
	mode := float64(nominal)
	d := distuv.NewTriangle(t.lower*mode, t.upper*mode, mode, t.src)
	v := int64(math.Round(d.Rand()))
	if v < 1 {
		return 1
	}
	return v
}
