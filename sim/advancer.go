package sim

import (
	"fmt"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
)

// Finalizer consumes orders that reached the terminal state.
type Finalizer interface {
	FinalizeOrder(o *ProductionOrder)
	FinalizeCustomerOrder(co *CustomerOrder)
}

// StageAdvancer drives an order through the routing graph: on every
// completion it records the stage, draws the next state, and either finalizes
// the order or hands it back to the Dispatcher.
type StageAdvancer struct {
	graph      *RoutingGraph
	groups     *GroupRegistry
	estimator  *FeasibilityEstimator
	dispatcher *Dispatcher
	store      *OrderStore
	rng        *rand.Rand
	clock      Clock
	finalizer  Finalizer
}

// NewStageAdvancer wires an advancer. finalizer may be nil.
func NewStageAdvancer(graph *RoutingGraph, groups *GroupRegistry, estimator *FeasibilityEstimator,
	dispatcher *Dispatcher, store *OrderStore, rng *rand.Rand, clock Clock, finalizer Finalizer) *StageAdvancer {
	return &StageAdvancer{
		graph:      graph,
		groups:     groups,
		estimator:  estimator,
		dispatcher: dispatcher,
		store:      store,
		rng:        rng,
		clock:      clock,
		finalizer:  finalizer,
	}
}

// Admit dispatches a new order at its initial state. An optional initial
// state extends the due date like any other optional stage.
func (a *StageAdvancer) Admit(o *ProductionOrder) error {
	if !a.graph.IsFixed(o.Product.Class, o.State) {
		a.extendDueDate(o, o.State)
	}
	return a.Enter(o)
}

// Enter dispatches o at its current state.
func (a *StageAdvancer) Enter(o *ProductionOrder) error {
	resources := a.groups.EligibleResources(a.graph, o.Product, o.State)
	if _, err := a.dispatcher.Dispatch(o, resources); err != nil {
		logrus.Errorf("cannot dispatch order %d: %v", o.ID, err)
		return err
	}
	return nil
}

// OnComplete implements CompletionHandler.
func (a *StageAdvancer) OnComplete(r *Resource, o *ProductionOrder) error {
	now := a.clock.Now()
	o.History = append(o.History, ProcessStep{
		State:      o.State,
		ResourceID: r.ID,
		Resource:   r.Name,
		Start:      o.StageStart,
		End:        now,
	})

	next, err := a.graph.NextState(o.Product.Class, o.State, a.rng.Float64())
	if err != nil {
		logrus.Errorf("order %d: %v", o.ID, err)
		return fmt.Errorf("advance order %d: %w", o.ID, err)
	}
	if next == TerminalState {
		a.finish(o, now)
		return nil
	}

	o.State = next
	o.Status = StatusPending
	if !a.graph.IsFixed(o.Product.Class, next) {
		a.extendDueDate(o, next)
	}
	return a.Enter(o)
}

// extendDueDate grants the worst-case duration of an optional stage to o and its customer order.
func (a *StageAdvancer) extendDueDate(o *ProductionOrder, state StateID) {
	extra := a.estimator.MaxDurationForState(o, state)
	if extra == 0 {
		return
	}
	o.DueDate += extra
	if co, ok := a.store.CustomerOrder(o.CustomerOrder); ok {
		co.DueDate += extra
	}
	logrus.Debugf("order %d entered optional state %d, due date +%d -> %d", o.ID, state, extra, o.DueDate)
}

func (a *StageAdvancer) finish(o *ProductionOrder, now int64) {
	o.Status = StatusFinished
	o.ProductionEnd = now
	o.PlannedCompletion = now
	a.store.Release(o.ID)
	logrus.Debugf("order %d finished at %d (lateness %d)", o.ID, now, o.Lateness())
	if a.finalizer != nil {
		a.finalizer.FinalizeOrder(o)
	}

	co, ok := a.store.CustomerOrder(o.CustomerOrder)
	if !ok || co.Finished || !a.store.AllFinished(co) {
		return
	}
	co.Finished = true
	co.FinishedAt = now
	if a.finalizer != nil {
		a.finalizer.FinalizeCustomerOrder(co)
	}
}
