package sim

import "github.com/sirupsen/logrus"

// Event defines the interface for all simulation events.
// Each event must have a Timestamp (in ticks) and an Execute method
// that advances simulation state when invoked. A non-nil error aborts the run.
type Event interface {
	Timestamp() int64
	Execute(*Simulator) error
}

// ArrivalHandler accepts customer orders as they arrive.
type ArrivalHandler interface {
	Plan(co *CustomerOrder) error
}

// ArrivalEvent represents a customer order arriving at the plant.
type ArrivalEvent struct {
	time    int64          // Simulation time of arrival (in ticks)
	Order   *CustomerOrder // The arriving customer order
	handler ArrivalHandler
}

// NewArrivalEvent creates an ArrivalEvent handing co to handler at time t.
func NewArrivalEvent(t int64, co *CustomerOrder, handler ArrivalHandler) *ArrivalEvent {
	return &ArrivalEvent{time: t, Order: co, handler: handler}
}

// Timestamp returns the scheduled time of the ArrivalEvent.
func (e *ArrivalEvent) Timestamp() int64 {
	return e.time
}

// Execute plans the customer order into the dispatch engine.
func (e *ArrivalEvent) Execute(sim *Simulator) error {
	logrus.Infof("<< Arrival: customer order %d at %d ticks", e.Order.ID, e.time)
	return e.handler.Plan(e.Order)
}

// TimerEvent runs a callback registered through Clock.After.
type TimerEvent struct {
	time int64
	fn   func() error
}

// Timestamp returns the scheduled time of the TimerEvent.
func (e *TimerEvent) Timestamp() int64 {
	return e.time
}

// Execute runs the callback.
func (e *TimerEvent) Execute(_ *Simulator) error {
	return e.fn()
}
