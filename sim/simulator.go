// sim/simulator.go
package sim

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// eventEntry wraps an Event with a sequence ID for deterministic FIFO
// tie-breaking when timestamps are equal.
type eventEntry struct {
	event Event
	seqID int64
}

// EventQueue implements heap.Interface and orders events by (timestamp, seqID).
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue []eventEntry

func (eq EventQueue) Len() int { return len(eq) }

func (eq EventQueue) Less(i, j int) bool {
	if eq[i].event.Timestamp() != eq[j].event.Timestamp() {
		return eq[i].event.Timestamp() < eq[j].event.Timestamp()
	}
	return eq[i].seqID < eq[j].seqID
}

func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(eventEntry))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}

// Simulator is the event loop: it holds simulation time and the pending events.
// It implements Clock for the dispatch engine.
//
// Thread-safety: NOT thread-safe. All methods must be called from the same goroutine.
type Simulator struct {
	Clock   int64
	Horizon int64
	// EventQueue has all pending events (arrivals and timer callbacks)
	EventQueue EventQueue
	// ProcessedEvents counts executed events, for reporting
	ProcessedEvents int64
	nextSeq         int64
}

// NewSimulator creates an event loop that stops once the clock passes horizon.
// A horizon <= 0 means no horizon.
func NewSimulator(horizon int64) *Simulator {
	if horizon <= 0 {
		horizon = math.MaxInt64
	}
	return &Simulator{
		Clock:      0,
		Horizon:    horizon,
		EventQueue: make(EventQueue, 0),
	}
}

// Schedule pushes an event into the simulator's EventQueue.
// Panics if the event lies in the past.
func (sim *Simulator) Schedule(ev Event) {
	if ev.Timestamp() < sim.Clock {
		panic(fmt.Sprintf("Schedule: event at %d is before clock %d", ev.Timestamp(), sim.Clock))
	}
	sim.nextSeq++
	heap.Push(&sim.EventQueue, eventEntry{event: ev, seqID: sim.nextSeq})
}

// Now implements Clock.
func (sim *Simulator) Now() int64 {
	return sim.Clock
}

// After implements Clock. Panics on a negative delay.
func (sim *Simulator) After(delay int64, fn func() error) {
	if delay < 0 {
		panic(fmt.Sprintf("After: negative delay %d", delay))
	}
	if fn == nil {
		panic("After: fn must not be nil")
	}
	sim.Schedule(&TimerEvent{time: sim.Clock + delay, fn: fn})
}

// HasPendingEvents returns true if the EventQueue is non-empty.
func (sim *Simulator) HasPendingEvents() bool {
	return len(sim.EventQueue) > 0
}

// PeekNextEventTime returns the timestamp of the earliest pending event.
// Caller MUST check HasPendingEvents() first; panics on empty queue.
func (sim *Simulator) PeekNextEventTime() int64 {
	return sim.EventQueue[0].event.Timestamp()
}

// ProcessNextEvent pops the earliest event, advances the clock, and executes it.
// Caller MUST check HasPendingEvents() first; panics on empty queue.
func (sim *Simulator) ProcessNextEvent() error {
	entry := heap.Pop(&sim.EventQueue).(eventEntry)
	sim.Clock = entry.event.Timestamp()
	sim.ProcessedEvents++
	logrus.Debugf("[tick %07d] Executing %T", sim.Clock, entry.event)
	return entry.event.Execute(sim)
}

// Run drains the event queue until it is empty or the horizon is passed.
// The first event error stops the loop and is returned.
func (sim *Simulator) Run() error {
	for sim.HasPendingEvents() {
		if sim.PeekNextEventTime() > sim.Horizon {
			break
		}
		if err := sim.ProcessNextEvent(); err != nil {
			logrus.Errorf("[tick %07d] Simulation aborted: %v", sim.Clock, err)
			return err
		}
	}
	logrus.Infof("[tick %07d] Simulation ended", sim.Clock)
	return nil
}
