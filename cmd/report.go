package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/plant-sim/plant-sim/sim/trace"
)

// printTraceSummary writes the decision-trace summary after the metrics report.
func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Dispatch Trace Summary ===")
	fmt.Fprintf(w, "Decisions            : %d\n", s.TotalDecisions)
	fmt.Fprintf(w, "No-delay / Fallback  : %d / %d\n", s.NoDelayCount, s.FallbackCount)
	if s.ParallelCount > 0 {
		fmt.Fprintf(w, "Parallel             : %d\n", s.ParallelCount)
	}
	fmt.Fprintf(w, "Late Placements      : %d (mean %.2f, max %d ticks)\n", s.LatePlacements, s.MeanLateness, s.MaxLateness)

	names := make([]string, 0, len(s.TargetDistribution))
	for name := range s.TargetDistribution {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-16s %d\n", name, s.TargetDistribution[name])
	}
}
