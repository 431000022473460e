package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingHandler collects completion callbacks in order.
type recordingHandler struct {
	done []OrderID
	at   []int64
	sim  *Simulator
}

func (h *recordingHandler) OnComplete(_ *Resource, o *ProductionOrder) error {
	h.done = append(h.done, o.ID)
	h.at = append(h.at, h.sim.Now())
	return nil
}

var (
	productP = &Product{ID: 1, Name: "P", Class: "std", Weight: 1}
	productQ = &Product{ID: 2, Name: "Q", Class: "std", Weight: 1}
)

// newSerialGroup returns a serial group processing P in dP and Q in dQ ticks.
func newSerialGroup(id GroupID, name string, dP, dQ int64) *ResourceGroup {
	g := NewResourceGroup(id, name, 0, 10, false)
	g.SetDuration(productP.ID, dP)
	g.SetDuration(productQ.ID, dQ)
	return g
}

// newOrder returns a pending order for p due at due.
func newOrder(id int, p *Product, due int64) *ProductionOrder {
	return NewProductionOrder(OrderID(id), p, 1, due, 0)
}

// linearGraph routes class "std" through states 1..n with one group per state.
func linearGraph(t *testing.T, groups []GroupID) *RoutingGraph {
	t.Helper()
	g := NewRoutingGraph()
	for i, id := range groups {
		state := StateID(i + 1)
		var next []NextStep
		if i+1 < len(groups) {
			next = []NextStep{{State: state + 1, Probability: 1}}
		}
		require.NoError(t, g.AddRoute("std", state, []GroupID{id}, next))
		g.MarkFixed("std", state)
	}
	g.SetInitialState("std", 1)
	return g
}
