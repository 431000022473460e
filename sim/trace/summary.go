package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDecisions     int
	NoDelayCount       int
	FallbackCount      int
	ParallelCount      int
	LatePlacements     int
	MeanLateness       float64 // mean over late placements only
	MaxLateness        int64
	UniqueTargets      int
	TargetDistribution map[string]int // resource name → count of placements
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		TargetDistribution: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDecisions = len(st.Dispatches)
	var totalLateness int64
	for _, d := range st.Dispatches {
		switch d.Pass {
		case PassNoDelay:
			summary.NoDelayCount++
		case PassFallback:
			summary.FallbackCount++
		case PassParallel:
			summary.ParallelCount++
		}
		summary.TargetDistribution[d.Resource]++
		if d.Lateness > 0 {
			summary.LatePlacements++
			totalLateness += d.Lateness
			if d.Lateness > summary.MaxLateness {
				summary.MaxLateness = d.Lateness
			}
		}
	}
	if summary.LatePlacements > 0 {
		summary.MeanLateness = float64(totalLateness) / float64(summary.LatePlacements)
	}

	summary.UniqueTargets = len(summary.TargetDistribution)

	return summary
}
