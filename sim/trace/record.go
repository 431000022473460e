// Package trace provides decision-trace recording for dispatch analysis.
// This package has no dependencies on sim/ — it stores pure data types.
package trace

// Pass names the dispatch pass that produced a placement.
const (
	PassParallel = "parallel"
	PassNoDelay  = "no-delay"
	PassFallback = "fallback"
)

// DispatchRecord captures a single dispatch decision.
type DispatchRecord struct {
	OrderID           int
	Product           string
	State             int
	Clock             int64
	Resource          string
	Index             int   // queue position the order was inserted at
	Pass              string
	Candidates        int   // number of eligible resources
	PlannedCompletion int64 // planned completion of the stage at placement
	DueDate           int64
	Lateness          int64 // PlannedCompletion + remaining lookahead - DueDate; > 0 means planned late
}
