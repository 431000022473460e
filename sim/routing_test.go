package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plant-sim/plant-sim/sim/internal/testutil"
)

func TestRoutingGraph_AddRoute_DuplicateRejected(t *testing.T) {
	// GIVEN a graph with (std, 1) routed
	g := NewRoutingGraph()
	require.NoError(t, g.AddRoute("std", 1, []GroupID{1}, nil))

	// WHEN the same entry is added again
	err := g.AddRoute("std", 1, []GroupID{2}, nil)

	// THEN it is rejected and the first entry is untouched
	assert.ErrorIs(t, err, ErrDuplicateRoute)
	assert.Equal(t, []GroupID{1}, g.EligibleGroups("std", 1))

	// AND the same state of another class is independent
	assert.NoError(t, g.AddRoute("gear", 1, []GroupID{2}, nil))
}

func TestRoutingGraph_AddRoute_InvalidProbabilities(t *testing.T) {
	tests := []struct {
		name string
		next []NextStep
	}{
		{"sum below one", []NextStep{{State: 2, Probability: 0.5}, {State: 3, Probability: 0.4}}},
		{"sum above one", []NextStep{{State: 2, Probability: 0.7}, {State: 3, Probability: 0.4}}},
		{"negative", []NextStep{{State: 2, Probability: 1.5}, {State: 3, Probability: -0.5}}},
		{"all zero", []NextStep{{State: 2, Probability: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewRoutingGraph()
			err := g.AddRoute("std", 1, []GroupID{1}, tt.next)
			assert.ErrorIs(t, err, ErrInvalidRoute)
			assert.False(t, g.HasRoute("std", 1))
		})
	}
}

func TestRoutingGraph_AddRoute_TerminalStateRejected(t *testing.T) {
	g := NewRoutingGraph()
	assert.ErrorIs(t, g.AddRoute("std", TerminalState, nil, nil), ErrInvalidRoute)
}

func TestRoutingGraph_CumulativeTransitions(t *testing.T) {
	// GIVEN probabilities that sum to 1 within tolerance, with a zero entry
	g := NewRoutingGraph()
	require.NoError(t, g.AddRoute("std", 1, []GroupID{1}, []NextStep{
		{State: 2, Probability: 0.2},
		{State: 9, Probability: 0},
		{State: 3, Probability: 0.3},
		{State: TerminalState, Probability: 0.4999999},
	}))

	// THEN the zero entry is dropped, cumulative values rise, and the last is exactly 1
	tr := g.Transitions("std", 1)
	require.Len(t, tr, 3)
	assert.InDelta(t, 0.2, tr[0].Cumulative, 1e-12)
	assert.InDelta(t, 0.5, tr[1].Cumulative, 1e-12)
	assert.Equal(t, 1.0, tr[2].Cumulative)
	assert.Equal(t, []StateID{2, 3, TerminalState}, []StateID{tr[0].Next, tr[1].Next, tr[2].Next})
}

func TestRoutingGraph_EmptyNext_LeadsToTerminal(t *testing.T) {
	g := NewRoutingGraph()
	require.NoError(t, g.AddRoute("std", 5, []GroupID{1}, nil))

	next, err := g.NextState("std", 5, 0.99)

	require.NoError(t, err)
	assert.Equal(t, TerminalState, next)
}

func TestRoutingGraph_NextState_Boundaries(t *testing.T) {
	g := NewRoutingGraph()
	require.NoError(t, g.AddRoute("std", 1, nil, []NextStep{
		{State: 2, Probability: 0.25},
		{State: 3, Probability: 0.75},
	}))

	tests := []struct {
		draw float64
		want StateID
	}{
		{0, 2},
		{0.2499, 2},
		{0.25, 3},
		{0.9999999, 3},
	}
	for _, tt := range tests {
		got, err := g.NextState("std", 1, tt.draw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "draw %v", tt.draw)
	}
}

func TestRoutingGraph_NextState_Corruption(t *testing.T) {
	g := NewRoutingGraph()
	require.NoError(t, g.AddRoute("std", 1, nil, []NextStep{{State: 2, Probability: 1}}))

	// A draw outside [0, 1) matches nothing.
	_, err := g.NextState("std", 1, 1.0)
	assert.ErrorIs(t, err, ErrRoutingCorruption)

	// An unrouted state has no transitions at all.
	_, err = g.NextState("std", 42, 0.1)
	assert.ErrorIs(t, err, ErrRoutingCorruption)
}

func TestRoutingGraph_NextState_FrequenciesMatchProbabilities(t *testing.T) {
	// GIVEN a three-way split
	g := NewRoutingGraph()
	probs := []float64{0.5, 0.3, 0.2}
	require.NoError(t, g.AddRoute("std", 1, nil, []NextStep{
		{State: 10, Probability: probs[0]},
		{State: 11, Probability: probs[1]},
		{State: 12, Probability: probs[2]},
	}))
	rng := NewPartitionedRNG(NewSimulationKey(99)).ForSubsystem(SubsystemRouting)

	// WHEN 10000 next states are drawn
	observed := make([]float64, 3)
	for i := 0; i < 10000; i++ {
		next, err := g.NextState("std", 1, rng.Float64())
		require.NoError(t, err)
		observed[next-10]++
	}

	// THEN the frequencies fit the configured probabilities
	testutil.AssertChiSquareFit(t, "next-state draws", observed, probs, 0.001)
}

func TestRoutingGraph_FixedAndInitialStates(t *testing.T) {
	g := linearGraph(t, []GroupID{1, 2, 3})

	initial, err := g.InitialState("std")
	require.NoError(t, err)
	assert.Equal(t, StateID(1), initial)
	assert.Equal(t, []StateID{1, 2, 3}, g.FixedStates("std"))
	assert.True(t, g.IsFixed("std", 2))
	assert.False(t, g.IsFixed("std", 4))
	assert.False(t, g.IsFixed("other", 1))

	_, err = g.InitialState("other")
	assert.ErrorIs(t, err, ErrUnknownProduct)
}

func TestRoutingGraph_Validate(t *testing.T) {
	registry := NewGroupRegistry()
	require.NoError(t, registry.Add(NewResourceGroup(1, "saw", 0, 10, false)))

	t.Run("valid", func(t *testing.T) {
		g := linearGraph(t, []GroupID{1, 1})
		assert.NoError(t, g.Validate(registry))
	})
	t.Run("unknown group", func(t *testing.T) {
		g := linearGraph(t, []GroupID{1, 7})
		assert.ErrorIs(t, g.Validate(registry), ErrUnknownGroup)
	})
	t.Run("unrouted target", func(t *testing.T) {
		g := NewRoutingGraph()
		require.NoError(t, g.AddRoute("std", 1, []GroupID{1}, []NextStep{{State: 2, Probability: 1}}))
		g.SetInitialState("std", 1)
		assert.ErrorIs(t, g.Validate(registry), ErrInvalidRoute)
	})
	t.Run("missing initial state", func(t *testing.T) {
		g := NewRoutingGraph()
		require.NoError(t, g.AddRoute("std", 1, []GroupID{1}, nil))
		assert.ErrorIs(t, g.Validate(registry), ErrInvalidRoute)
	})
	t.Run("unrouted initial state", func(t *testing.T) {
		g := NewRoutingGraph()
		require.NoError(t, g.AddRoute("std", 1, []GroupID{1}, nil))
		g.SetInitialState("std", 3)
		assert.ErrorIs(t, g.Validate(registry), ErrInvalidRoute)
	})
}
