package sim

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
)

// ResourceID identifies a Resource.
type ResourceID int

// CompletionHandler receives control when a resource finishes machining an order.
type CompletionHandler interface {
	OnComplete(r *Resource, o *ProductionOrder) error
}

// Resource is one physical machine. It owns an ordered queue of waiting orders
// and a machining slot (a set, for parallel groups).
//
// For serial resources the queue satisfies:
//
//	planned[0] = completion of the machining order (or now, if idle) + duration(queue[0])
//	planned[k] = planned[k-1] + duration(queue[k])
//
// Every mutation re-derives the planned completions of the affected suffix.
//
// Thread-safety: NOT thread-safe. All methods must be called from the event loop goroutine.
type Resource struct {
	ID   ResourceID
	Name string

	group   *ResourceGroup
	clock   Clock
	handler CompletionHandler

	queue     []*ProductionOrder
	machining []*ProductionOrder

	BusyTime  int64 // total machining ticks; summed per order on parallel resources
	Completed int   // machining attempts finished
}

// NewResource creates a resource and adds it to group.
func NewResource(id ResourceID, name string, group *ResourceGroup, clock Clock) *Resource {
	if group == nil {
		panic("NewResource: group must not be nil")
	}
	if clock == nil {
		panic("NewResource: clock must not be nil")
	}
	r := &Resource{
		ID:    id,
		Name:  name,
		group: group,
		clock: clock,
	}
	group.AddResource(r)
	return r
}

// SetCompletionHandler sets the receiver of completion callbacks.
func (r *Resource) SetCompletionHandler(h CompletionHandler) {
	r.handler = h
}

// Group returns the owning group.
func (r *Resource) Group() *ResourceGroup {
	return r.group
}

// Parallel reports whether the resource processes all of its orders concurrently.
func (r *Resource) Parallel() bool {
	return r.group.Parallel
}

// Len returns the number of queued (not yet machining) orders.
func (r *Resource) Len() int {
	return len(r.queue)
}

// Busy reports whether at least one order is being machined.
func (r *Resource) Busy() bool {
	return len(r.machining) > 0
}

// Queue returns the queue contents for iteration.
// The returned slice is the resource's internal storage: callers MUST NOT
// append to it, reslice it, or reorder it. Use InsertAt and Remove instead.
func (r *Resource) Queue() []*ProductionOrder {
	return r.queue
}

// Machining returns the orders currently being machined. MUST NOT be modified.
func (r *Resource) Machining() []*ProductionOrder {
	return r.machining
}

// ProcessingDuration returns the nominal duration of o on this resource (0 if the group does not process it).
func (r *Resource) ProcessingDuration(o *ProductionOrder) int64 {
	d, _ := r.group.Duration(o.Product)
	return d
}

// TotalQueuedDuration returns the remaining time of the machining order plus
// the nominal durations of all queued orders. Used as a load-balancing signal.
// Always 0 for parallel resources.
func (r *Resource) TotalQueuedDuration() int64 {
	if r.group.Parallel {
		return 0
	}
	now := r.clock.Now()
	var total int64
	for _, o := range r.machining {
		total += max(0, o.PlannedCompletion-now)
	}
	for _, o := range r.queue {
		total += r.ProcessingDuration(o)
	}
	return total
}

// headStart returns the time the queue head can start.
func (r *Resource) headStart() int64 {
	now := r.clock.Now()
	if r.group.Parallel || len(r.machining) == 0 {
		return now
	}
	return max(now, r.machining[0].PlannedCompletion)
}

// ProjectedCompletion returns the planned completion o would get if inserted at index,
// without mutating the queue. Panics if index is out of [0, Len()].
func (r *Resource) ProjectedCompletion(o *ProductionOrder, index int) int64 {
	if index < 0 || index > len(r.queue) {
		panic(fmt.Sprintf("ProjectedCompletion: index %d out of range [0, %d]", index, len(r.queue)))
	}
	if r.group.Parallel {
		return r.clock.Now() + r.ProcessingDuration(o)
	}
	start := r.headStart()
	if index > 0 {
		start = r.queue[index-1].PlannedCompletion
	}
	return start + r.ProcessingDuration(o)
}

// InsertAt splices o into the queue at index and re-derives the planned
// completion of o and every order behind it. Panics if index is out of [0, Len()].
func (r *Resource) InsertAt(o *ProductionOrder, index int) {
	if o == nil {
		panic("InsertAt: order must not be nil")
	}
	if index < 0 || index > len(r.queue) {
		panic(fmt.Sprintf("InsertAt: index %d out of range [0, %d]", index, len(r.queue)))
	}
	r.queue = slices.Insert(r.queue, index, o)
	o.Resource = r
	o.Status = StatusQueued
	r.recompute(index)
}

// Remove takes the queued order id out of the queue and re-derives the
// planned completions behind it. Returns false if id is not queued here.
func (r *Resource) Remove(id OrderID) bool {
	idx := slices.IndexFunc(r.queue, func(o *ProductionOrder) bool { return o.ID == id })
	if idx < 0 {
		return false
	}
	removed := r.queue[idx]
	r.queue = slices.Delete(r.queue, idx, idx+1)
	removed.Resource = nil
	removed.Status = StatusPending
	r.recompute(idx)
	return true
}

// recompute re-derives planned completions from queue position from onward.
func (r *Resource) recompute(from int) {
	if r.group.Parallel {
		now := r.clock.Now()
		for _, o := range r.queue[from:] {
			o.PlannedCompletion = now + r.ProcessingDuration(o)
		}
		return
	}
	t := r.headStart()
	if from > 0 {
		t = r.queue[from-1].PlannedCompletion
	}
	for _, o := range r.queue[from:] {
		t += r.ProcessingDuration(o)
		o.PlannedCompletion = t
	}
}

// StartNextIfIdle starts the queue head if the resource is not machining.
// Parallel resources start every queued order.
func (r *Resource) StartNextIfIdle() {
	if r.group.Parallel {
		for len(r.queue) > 0 {
			r.start(r.dequeue())
		}
		return
	}
	if len(r.machining) > 0 || len(r.queue) == 0 {
		return
	}
	r.start(r.dequeue())
	r.recompute(0)
}

func (r *Resource) dequeue() *ProductionOrder {
	o := r.queue[0]
	r.queue = r.queue[1:]
	return o
}

// start moves o into the machining slot and schedules its completion after
// a sampled cycle time.
func (r *Resource) start(o *ProductionOrder) {
	now := r.clock.Now()
	actual := r.group.Sample(o.Product)
	o.Status = StatusMachining
	o.StageStart = now
	if !o.Started {
		o.Started = true
		o.ProductionStart = now
	}
	o.PlannedCompletion = now + actual
	o.Resource = r
	r.machining = append(r.machining, o)
	logrus.Debugf("[%s] start order %d state %d, done at %d", r.Name, o.ID, o.State, o.PlannedCompletion)
	r.clock.After(actual, func() error { return r.complete(o) })
}

// complete frees the machining slot, starts the next order, and hands o to the handler.
func (r *Resource) complete(o *ProductionOrder) error {
	idx := slices.Index(r.machining, o)
	if idx < 0 {
		return fmt.Errorf("resource %q order %d: %w", r.Name, o.ID, ErrEmptyMachiningSlot)
	}
	r.machining = slices.Delete(r.machining, idx, idx+1)
	r.BusyTime += r.clock.Now() - o.StageStart
	r.Completed++
	o.Resource = nil
	r.StartNextIfIdle()
	if r.handler == nil {
		return nil
	}
	return r.handler.OnComplete(r, o)
}

// Verify checks the planned-completion invariant of the queue.
func (r *Resource) Verify() error {
	if r.group.Parallel {
		return nil
	}
	prev := r.headStart()
	for k, o := range r.queue {
		want := prev + r.ProcessingDuration(o)
		if o.PlannedCompletion != want {
			return fmt.Errorf("resource %q position %d order %d: planned %d, want %d",
				r.Name, k, o.ID, o.PlannedCompletion, want)
		}
		prev = o.PlannedCompletion
	}
	return nil
}

func (r *Resource) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s[", r.Name)
	for i, o := range r.queue {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%d@%d", o.ID, o.PlannedCompletion)
	}
	sb.WriteString("]")
	return sb.String()
}
