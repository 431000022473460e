package sim

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/plant-sim/plant-sim/sim/trace"
)

// Pass names the dispatch pass that placed an order.
type Pass string

const (
	PassParallel Pass = trace.PassParallel // appended to a parallel-capable resource
	PassNoDelay  Pass = trace.PassNoDelay  // placed without planning any order late
	PassFallback Pass = trace.PassFallback // best-effort placement, possibly late
)

// Placement describes where the Dispatcher put an order.
type Placement struct {
	Resource   *Resource
	Index      int   // queue position at insertion
	Completion int64 // planned completion of the stage at insertion
	Pass       Pass
	// Lateness is Completion plus the remaining lookahead minus the due date.
	// Positive values mean the order was knowingly planned late (fallback only).
	Lateness int64
}

// Late reports whether the placement plans the order past its due date.
func (p Placement) Late() bool {
	return p.Lateness > 0
}

// Dispatcher chooses a resource and a queue position for an order.
//
// Serial resources are sorted by TotalQueuedDuration. The least-loaded one is
// spared: the no-delay pass tries the others first, accepting the first
// (resource, index) where neither the new order nor any order behind it is
// planned past its due date (planned completion plus remaining lookahead).
// If that fails, the fallback pass inserts at the position with the globally
// earliest completion that keeps downstream orders on time, even if the new
// order itself ends up late. An order is never refused.
type Dispatcher struct {
	estimator *FeasibilityEstimator
	clock     Clock
	trace     *trace.SimulationTrace

	// Placements counts decisions per pass.
	Placements map[Pass]int
}

// NewDispatcher creates a Dispatcher. tr may be nil.
func NewDispatcher(estimator *FeasibilityEstimator, clock Clock, tr *trace.SimulationTrace) *Dispatcher {
	if estimator == nil {
		panic("NewDispatcher: estimator must not be nil")
	}
	if clock == nil {
		panic("NewDispatcher: clock must not be nil")
	}
	return &Dispatcher{estimator: estimator, clock: clock, trace: tr, Placements: make(map[Pass]int)}
}

// Dispatch inserts o into one of resources and starts it if the resource is idle.
// Returns ErrNoEligibleMachine if resources is empty.
func (d *Dispatcher) Dispatch(o *ProductionOrder, resources []*Resource) (Placement, error) {
	if len(resources) == 0 {
		return Placement{}, fmt.Errorf("order %d product %q state %d: %w", o.ID, o.Product.Name, o.State, ErrNoEligibleMachine)
	}

	remaining := d.estimator.RemainingAfter(o, o.State)

	for _, r := range resources {
		if r.Parallel() {
			return d.place(o, r, r.Len(), PassParallel, remaining, len(resources)), nil
		}
	}

	sorted := slices.Clone(resources)
	slices.SortStableFunc(sorted, func(a, b *Resource) int {
		return cmp.Compare(a.TotalQueuedDuration(), b.TotalQueuedDuration())
	})

	if remaining != UnboundedLookahead {
		candidates := sorted
		if len(sorted) > 1 {
			candidates = sorted[1:]
		}
		for _, r := range candidates {
			idx := d.firstSafeIndex(o, r)
			if r.ProjectedCompletion(o, idx)+remaining <= o.DueDate {
				return d.place(o, r, idx, PassNoDelay, remaining, len(resources)), nil
			}
		}
	}

	var (
		best           *Resource
		bestIdx        int
		bestCompletion int64
	)
	for _, r := range sorted {
		idx := d.firstSafeIndex(o, r)
		completion := r.ProjectedCompletion(o, idx)
		if best == nil || completion < bestCompletion {
			best, bestIdx, bestCompletion = r, idx, completion
		}
	}
	return d.place(o, best, bestIdx, PassFallback, remaining, len(resources)), nil
}

// firstSafeIndex returns the smallest index at which o can be inserted into r
// without pushing any queued order at or behind it past its due date.
// Own completion grows with the index, so this is also the best position for
// o. Len() is always safe.
//
// Inserting o shifts every order behind it by the same amount, so the check
// walks from the tail until the first order that cannot absorb the shift.
func (d *Dispatcher) firstSafeIndex(o *ProductionOrder, r *Resource) int {
	shift := r.ProcessingDuration(o)
	queue := r.Queue()
	idx := len(queue)
	for k := len(queue) - 1; k >= 0; k-- {
		if !d.absorbs(queue[k], shift) {
			break
		}
		idx = k
	}
	return idx
}

// absorbs reports whether queued order q stays on time when pushed back by shift.
// Orders with unknown lookahead are judged on their planned completion alone.
func (d *Dispatcher) absorbs(q *ProductionOrder, shift int64) bool {
	rest := d.estimator.RemainingAfter(q, q.State)
	if rest == UnboundedLookahead {
		rest = 0
	}
	return q.PlannedCompletion+shift+rest <= q.DueDate
}

func (d *Dispatcher) place(o *ProductionOrder, r *Resource, idx int, pass Pass, remaining int64, candidates int) Placement {
	r.InsertAt(o, idx)
	completion := o.PlannedCompletion
	if remaining == UnboundedLookahead {
		remaining = 0
	}
	p := Placement{
		Resource:   r,
		Index:      idx,
		Completion: completion,
		Pass:       pass,
		Lateness:   completion + remaining - o.DueDate,
	}
	d.Placements[pass]++
	if p.Late() {
		logrus.Warnf("[dispatch] order %d planned late by %d on %s (%s)", o.ID, p.Lateness, r.Name, pass)
	} else {
		logrus.Debugf("[dispatch] order %d -> %s[%d] (%s), done at %d", o.ID, r.Name, idx, pass, completion)
	}
	if d.trace.Enabled() {
		d.trace.RecordDispatch(trace.DispatchRecord{
			OrderID:           int(o.ID),
			Product:           o.Product.Name,
			State:             int(o.State),
			Clock:             d.clock.Now(),
			Resource:          r.Name,
			Index:             idx,
			Pass:              string(pass),
			Candidates:        candidates,
			PlannedCompletion: completion,
			DueDate:           o.DueDate,
			Lateness:          p.Lateness,
		})
	}
	r.StartNextIfIdle()
	return p
}
