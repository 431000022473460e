package sim

import (
	"github.com/sirupsen/logrus"
)

// UnboundedLookahead is returned by MaxRemainingDuration when the recursion
// exceeds the configured depth, which usually means the routing has a cycle.
const UnboundedLookahead int64 = -1

// DefaultLookaheadDepth is the default recursion cap of the estimator.
const DefaultLookaheadDepth = 10

// memoKey caches depth-0 lookahead per (product, state).
type memoKey struct {
	product ProductID
	state   StateID
}

// FeasibilityEstimator computes worst-case remaining lead times over the routing graph.
//
// The lookahead depth selects the variant: 0 accounts for the current stage
// only; N > 0 follows transitions recursively and gives up with
// UnboundedLookahead once more than N levels deep.
//
// The graph and duration tables are read-only during a run, so depth-0 results
// are memoised per (product, state).
type FeasibilityEstimator struct {
	graph  *RoutingGraph
	groups *GroupRegistry
	depth  int

	remaining map[memoKey]int64

	// Overflows counts depth-cap hits, for reporting.
	Overflows int
}

// NewFeasibilityEstimator creates an estimator. Panics if depth < 0.
func NewFeasibilityEstimator(graph *RoutingGraph, groups *GroupRegistry, depth int) *FeasibilityEstimator {
	if depth < 0 {
		panic("NewFeasibilityEstimator: depth must be >= 0")
	}
	return &FeasibilityEstimator{
		graph:     graph,
		groups:    groups,
		depth:     depth,
		remaining: make(map[memoKey]int64),
	}
}

// Depth returns the configured lookahead depth.
func (e *FeasibilityEstimator) Depth() int {
	return e.depth
}

// MaxDurationForState returns the largest nominal duration of o's product over
// the groups eligible for state (0 if none).
func (e *FeasibilityEstimator) MaxDurationForState(o *ProductionOrder, state StateID) int64 {
	return e.MaxDurationForProduct(o.Product, state)
}

// MaxDurationForProduct is MaxDurationForState for a product without an order.
func (e *FeasibilityEstimator) MaxDurationForProduct(p *Product, state StateID) int64 {
	var longest int64
	for _, g := range e.groups.Eligible(e.graph, p, state) {
		if d, ok := g.Duration(p); ok && d > longest {
			longest = d
		}
	}
	return longest
}

// MaxRemainingDuration returns the worst-case time from entering state until
// the terminal state: the maximum over outgoing transitions of this stage's
// longest duration plus the remaining duration of the target state.
//
// Returns 0 for states without transitions and UnboundedLookahead when the
// recursion goes deeper than the configured depth.
func (e *FeasibilityEstimator) MaxRemainingDuration(o *ProductionOrder, state StateID, depth int) int64 {
	if depth == 0 {
		key := memoKey{product: o.Product.ID, state: state}
		if v, ok := e.remaining[key]; ok {
			return v
		}
		v := e.maxRemaining(o.Product, state, 0)
		e.remaining[key] = v
		return v
	}
	return e.maxRemaining(o.Product, state, depth)
}

func (e *FeasibilityEstimator) maxRemaining(p *Product, state StateID, depth int) int64 {
	transitions := e.graph.Transitions(p.Class, state)
	if len(transitions) == 0 {
		return 0
	}
	stage := e.MaxDurationForProduct(p, state)
	if e.depth == 0 {
		return stage
	}
	if depth > e.depth {
		e.Overflows++
		logrus.Warnf("lookahead for product %q exceeded depth %d at state %d; routing may contain a cycle",
			p.Name, e.depth, state)
		return UnboundedLookahead
	}

	var longest int64
	for _, tr := range transitions {
		rest := e.maxRemaining(p, tr.Next, depth+1)
		if rest == UnboundedLookahead {
			return UnboundedLookahead
		}
		longest = max(longest, stage+rest)
	}
	return longest
}

// RemainingAfter returns the worst-case time still needed after the stage at
// state completes, or UnboundedLookahead. Always 0 in single-stage mode.
func (e *FeasibilityEstimator) RemainingAfter(o *ProductionOrder, state StateID) int64 {
	if e.depth == 0 {
		return 0
	}
	total := e.MaxRemainingDuration(o, state, 0)
	if total == UnboundedLookahead {
		return UnboundedLookahead
	}
	if total == 0 {
		return 0
	}
	return total - e.MaxDurationForState(o, state)
}
