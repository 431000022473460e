package sim

import (
	"fmt"

	"github.com/plant-sim/plant-sim/sim/trace"
)

// EngineConfig groups run parameters for NewPlant.
type EngineConfig struct {
	Seed           int64  // master seed of the PartitionedRNG
	Horizon        int64  // last tick to simulate (<= 0 = run until the event queue drains)
	LookaheadDepth int    // feasibility recursion cap (0 = single-stage variant)
	TraceLevel     string // "none" (default) or "decisions"
}

// DefaultEngineConfig returns the configuration used when no flags are given.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Seed:           42,
		LookaheadDepth: DefaultLookaheadDepth,
		TraceLevel:     string(trace.TraceLevelNone),
	}
}

// Validate checks the run parameters.
func (c EngineConfig) Validate() error {
	if c.LookaheadDepth < 0 {
		return fmt.Errorf("lookahead depth must be >= 0, got %d", c.LookaheadDepth)
	}
	if c.TraceLevel != "" && !trace.IsValidTraceLevel(c.TraceLevel) {
		return fmt.Errorf("unknown trace level %q", c.TraceLevel)
	}
	return nil
}
