package sim

import (
	"fmt"
	"math"
)

// StateID is a process state within a product class's routing.
type StateID int

// TerminalState ends the routing.
const TerminalState StateID = -1

// GroupID identifies a ResourceGroup.
type GroupID int

// probabilityTolerance bounds how far a transition list may deviate from summing to 1.
const probabilityTolerance = 1e-6

// NextStep is one outgoing edge of a routing state as supplied by the loader.
type NextStep struct {
	State       StateID
	Probability float64
}

// Transition is a stored outgoing edge. Cumulative probabilities increase
// monotonically along a state's list and the last one is exactly 1.
type Transition struct {
	Cumulative float64
	Next       StateID
}

// routeKey addresses one (product class, state) record.
type routeKey struct {
	class int
	state StateID
}

// stateRecord is one arena slot of the routing graph.
type stateRecord struct {
	key         routeKey
	groups      []GroupID
	transitions []Transition
}

// RoutingGraph maps (product class, state) to eligible resource groups and
// probabilistic next-state transitions.
//
// Records live in a flat slice indexed by integer id; lookups go through a
// single map from (class index, state) to record id. The graph is built once
// before a run and is read-only afterwards.
type RoutingGraph struct {
	classes []string
	classID map[string]int
	records []stateRecord
	index   map[routeKey]int
	initial map[int]StateID
	fixed   map[routeKey]bool
}

// NewRoutingGraph creates an empty RoutingGraph.
func NewRoutingGraph() *RoutingGraph {
	return &RoutingGraph{
		classID: make(map[string]int),
		index:   make(map[routeKey]int),
		initial: make(map[int]StateID),
		fixed:   make(map[routeKey]bool),
	}
}

func (g *RoutingGraph) classIndex(class string, create bool) (int, bool) {
	if idx, ok := g.classID[class]; ok {
		return idx, true
	}
	if !create {
		return 0, false
	}
	idx := len(g.classes)
	g.classes = append(g.classes, class)
	g.classID[class] = idx
	return idx, true
}

// AddRoute adds the routing entry for (class, state).
// The next list is converted into cumulative form. An empty list makes the
// state the last one of the route: it gets a single transition to TerminalState.
// Returns ErrDuplicateRoute if the entry exists and ErrInvalidRoute if the
// probabilities are negative or do not sum to 1.
func (g *RoutingGraph) AddRoute(class string, state StateID, groups []GroupID, next []NextStep) error {
	if state == TerminalState {
		return fmt.Errorf("class %q: terminal state cannot carry a route: %w", class, ErrInvalidRoute)
	}
	cls, _ := g.classIndex(class, true)
	key := routeKey{class: cls, state: state}
	if _, exists := g.index[key]; exists {
		return fmt.Errorf("class %q state %d: %w", class, state, ErrDuplicateRoute)
	}

	transitions := make([]Transition, 0, len(next))
	cumulative := 0.0
	for _, n := range next {
		if n.Probability < 0 || math.IsNaN(n.Probability) {
			return fmt.Errorf("class %q state %d: probability %v for next state %d: %w",
				class, state, n.Probability, n.State, ErrInvalidRoute)
		}
		if n.Probability == 0 {
			continue
		}
		cumulative += n.Probability
		transitions = append(transitions, Transition{Cumulative: cumulative, Next: n.State})
	}
	switch {
	case len(next) == 0:
		transitions = append(transitions, Transition{Cumulative: 1, Next: TerminalState})
	case math.Abs(cumulative-1) > probabilityTolerance:
		return fmt.Errorf("class %q state %d: probabilities sum to %v: %w", class, state, cumulative, ErrInvalidRoute)
	default:
		transitions[len(transitions)-1].Cumulative = 1
	}

	g.index[key] = len(g.records)
	g.records = append(g.records, stateRecord{
		key:         key,
		groups:      append([]GroupID(nil), groups...),
		transitions: transitions,
	})
	return nil
}

// SetInitialState sets the state new orders of class enter at.
func (g *RoutingGraph) SetInitialState(class string, state StateID) {
	cls, _ := g.classIndex(class, true)
	g.initial[cls] = state
}

// InitialState returns the entry state of class.
func (g *RoutingGraph) InitialState(class string) (StateID, error) {
	cls, ok := g.classIndex(class, false)
	if !ok {
		return TerminalState, fmt.Errorf("product class %q has no routing: %w", class, ErrUnknownProduct)
	}
	state, ok := g.initial[cls]
	if !ok {
		return TerminalState, fmt.Errorf("product class %q has no initial state: %w", class, ErrInvalidRoute)
	}
	return state, nil
}

// MarkFixed flags (class, state) as an always-traversed checkpoint.
// Entering a fixed state does not extend an order's due date.
func (g *RoutingGraph) MarkFixed(class string, state StateID) {
	cls, _ := g.classIndex(class, true)
	g.fixed[routeKey{class: cls, state: state}] = true
}

// IsFixed reports whether (class, state) is a fixed checkpoint.
func (g *RoutingGraph) IsFixed(class string, state StateID) bool {
	cls, ok := g.classIndex(class, false)
	if !ok {
		return false
	}
	return g.fixed[routeKey{class: cls, state: state}]
}

// FixedStates returns the fixed checkpoints of class in insertion order of their routes.
func (g *RoutingGraph) FixedStates(class string) []StateID {
	cls, ok := g.classIndex(class, false)
	if !ok {
		return nil
	}
	var states []StateID
	for _, rec := range g.records {
		if rec.key.class == cls && g.fixed[rec.key] {
			states = append(states, rec.key.state)
		}
	}
	return states
}

func (g *RoutingGraph) record(class string, state StateID) (*stateRecord, bool) {
	cls, ok := g.classIndex(class, false)
	if !ok {
		return nil, false
	}
	id, ok := g.index[routeKey{class: cls, state: state}]
	if !ok {
		return nil, false
	}
	return &g.records[id], true
}

// HasRoute reports whether (class, state) has an entry.
func (g *RoutingGraph) HasRoute(class string, state StateID) bool {
	_, ok := g.record(class, state)
	return ok
}

// EligibleGroups returns the pre-loaded eligible group ids for (class, state).
// The caller filters them against the product's weight.
// The returned slice is the graph's internal storage and MUST NOT be modified.
func (g *RoutingGraph) EligibleGroups(class string, state StateID) []GroupID {
	rec, ok := g.record(class, state)
	if !ok {
		return nil
	}
	return rec.groups
}

// Transitions returns the cumulative transition list of (class, state).
// Nil for the terminal state and unknown states.
// The returned slice is the graph's internal storage and MUST NOT be modified.
func (g *RoutingGraph) Transitions(class string, state StateID) []Transition {
	rec, ok := g.record(class, state)
	if !ok {
		return nil
	}
	return rec.transitions
}

// NextState returns the first transition whose cumulative probability exceeds draw.
// draw is expected in [0, 1). Returns ErrRoutingCorruption if nothing matches,
// including for states that are not routed.
func (g *RoutingGraph) NextState(class string, state StateID, draw float64) (StateID, error) {
	for _, tr := range g.Transitions(class, state) {
		if tr.Cumulative > draw {
			return tr.Next, nil
		}
	}
	return TerminalState, fmt.Errorf("class %q state %d draw %v: %w", class, state, draw, ErrRoutingCorruption)
}

// Classes returns the product classes that have routing entries.
func (g *RoutingGraph) Classes() []string {
	return append([]string(nil), g.classes...)
}

// Validate checks that every referenced group exists, every transition target
// is terminal or routed, and every class has a routed initial state.
func (g *RoutingGraph) Validate(groups *GroupRegistry) error {
	for _, rec := range g.records {
		class := g.classes[rec.key.class]
		for _, id := range rec.groups {
			if _, ok := groups.Get(id); !ok {
				return fmt.Errorf("class %q state %d references group %d: %w", class, rec.key.state, id, ErrUnknownGroup)
			}
		}
		for _, tr := range rec.transitions {
			if tr.Next != TerminalState && !g.HasRoute(class, tr.Next) {
				return fmt.Errorf("class %q state %d transitions to unrouted state %d: %w",
					class, rec.key.state, tr.Next, ErrInvalidRoute)
			}
		}
	}
	for cls, class := range g.classes {
		state, ok := g.initial[cls]
		if !ok {
			return fmt.Errorf("product class %q has no initial state: %w", class, ErrInvalidRoute)
		}
		if !g.HasRoute(class, state) {
			return fmt.Errorf("product class %q initial state %d is not routed: %w", class, state, ErrInvalidRoute)
		}
	}
	return nil
}
