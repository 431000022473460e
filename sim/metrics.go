// Tracks plant-wide and per-resource outcomes such as:
// finished orders, lateness, lead times, and machine utilization.

package sim

import (
	"fmt"
	"io"
	"maps"
	"sort"

	"github.com/google/uuid"
)

// Metrics aggregates statistics about the run for final reporting.
// Background orders occupy capacity but are excluded from lateness figures.
type Metrics struct {
	RunID uuid.UUID

	CompletedOrders   int   // production orders that reached the terminal state
	LateOrders        int   // billed orders finished after their due date
	TotalTardiness    int64 // sum of positive lateness over billed orders
	BackgroundOrders  int   // finished background orders
	CompletedCustomer int   // customer orders with every line finished
	LateCustomer      int   // customer orders finished after their due date

	LeadTimes []int64 // production end - production start, billed orders only
	Lateness  []int64 // signed lateness, billed orders only

	Placements map[Pass]int // dispatch decisions per pass
	Overflows  int          // lookahead depth-cap hits

	SimEndedTime int64
	Unfinished   int // production orders still in production when the run ended
	Resources    []ResourceMetrics
}

// ResourceMetrics is the per-machine slice of the report.
type ResourceMetrics struct {
	Name        string
	Group       string
	BusyTime    int64
	Completed   int
	Utilization float64 // BusyTime / SimEndedTime; may exceed 1 on parallel resources
}

// NewMetrics returns an empty Metrics stamped with runID.
func NewMetrics(runID uuid.UUID) *Metrics {
	return &Metrics{
		RunID:      runID,
		Placements: make(map[Pass]int),
	}
}

// RecordOrder accounts for a finished production order.
func (m *Metrics) RecordOrder(o *ProductionOrder) {
	m.CompletedOrders++
	if o.Background {
		m.BackgroundOrders++
		return
	}
	late := o.Lateness()
	m.Lateness = append(m.Lateness, late)
	m.LeadTimes = append(m.LeadTimes, o.LeadTime())
	if late > 0 {
		m.LateOrders++
		m.TotalTardiness += late
	}
}

// RecordCustomerOrder accounts for a finished customer order.
func (m *Metrics) RecordCustomerOrder(co *CustomerOrder) {
	m.CompletedCustomer++
	if !co.Background && co.Lateness() > 0 {
		m.LateCustomer++
	}
}

// CollectDispatch copies the dispatcher's decision counts and the estimator's overflow count.
func (m *Metrics) CollectDispatch(d *Dispatcher, e *FeasibilityEstimator) {
	m.Placements = maps.Clone(d.Placements)
	m.Overflows = e.Overflows
}

// CollectResources snapshots per-resource counters at time end.
func (m *Metrics) CollectResources(groups *GroupRegistry, end int64) {
	m.SimEndedTime = end
	m.Resources = m.Resources[:0]
	for _, g := range groups.All() {
		for _, r := range g.Resources() {
			rm := ResourceMetrics{
				Name:      r.Name,
				Group:     g.Name,
				BusyTime:  r.BusyTime,
				Completed: r.Completed,
			}
			if end > 0 {
				rm.Utilization = float64(r.BusyTime) / float64(end)
			}
			m.Resources = append(m.Resources, rm)
		}
	}
}

// OnTimeRate returns the share of billed finished orders that met their due date.
func (m *Metrics) OnTimeRate() float64 {
	if len(m.Lateness) == 0 {
		return 0
	}
	return 1 - float64(m.LateOrders)/float64(len(m.Lateness))
}

// Print writes the report to w.
func (m *Metrics) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Run ID               : %s\n", m.RunID)
	fmt.Fprintf(w, "Simulated Ticks      : %d\n", m.SimEndedTime)
	fmt.Fprintf(w, "Completed Orders     : %d (%d background)\n", m.CompletedOrders, m.BackgroundOrders)
	if m.Unfinished > 0 {
		fmt.Fprintf(w, "Unfinished Orders    : %d\n", m.Unfinished)
	}
	fmt.Fprintf(w, "Completed Customers  : %d (%d late)\n", m.CompletedCustomer, m.LateCustomer)
	if n := len(m.Lateness); n > 0 {
		lead := DescribeInt64(m.LeadTimes)
		fmt.Fprintf(w, "Late Orders          : %d (on-time rate %.2f%%)\n", m.LateOrders, 100*m.OnTimeRate())
		fmt.Fprintf(w, "Mean Tardiness       : %.2f ticks\n", float64(m.TotalTardiness)/float64(n))
		fmt.Fprintf(w, "Lead Time mean/std   : %.2f / %.2f ticks\n", lead.Mean, lead.StdDev)
		fmt.Fprintf(w, "Lead Time p50/p90/p99: %.0f / %.0f / %.0f ticks\n", lead.P50, lead.P90, lead.P99)
	}

	passes := make([]string, 0, len(m.Placements))
	for p := range m.Placements {
		passes = append(passes, string(p))
	}
	sort.Strings(passes)
	for _, p := range passes {
		fmt.Fprintf(w, "Placements %-10s: %d\n", p, m.Placements[Pass(p)])
	}
	if m.Overflows > 0 {
		fmt.Fprintf(w, "Lookahead Overflows  : %d\n", m.Overflows)
	}

	if len(m.Resources) > 0 {
		fmt.Fprintln(w, "--- Resources ---")
		for _, r := range m.Resources {
			fmt.Fprintf(w, "%-16s %-12s busy %8d  done %5d  util %6.2f%%\n",
				r.Name, r.Group, r.BusyTime, r.Completed, 100*r.Utilization)
		}
	}
}
