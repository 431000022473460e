// Package sim provides the discrete-event dispatch engine for a simulated
// manufacturing site.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - order.go: ProductionOrder / CustomerOrder lifecycle and the id-indexed OrderStore
//   - routing.go: per-product-class routing graph (eligible groups, probabilistic next state)
//   - resource.go: machine queues and the planned-completion cascade
//   - dispatcher.go: the no-delay / fallback placement heuristic
//   - advancer.go: stage-by-stage progression of an order until the terminal state
//   - plant.go: the run context that wires everything to the event loop
//
// # Architecture
//
// Everything runs on a single goroutine inside callbacks fired by Simulator,
// a timestamp-ordered event heap. Callbacks scheduled for the same tick fire in
// the order they were scheduled. No locking is needed; planned completion dates
// are re-derived immediately after every queue mutation.
//
// Sub-packages:
//   - sim/trace/: dispatch decision recording and summaries
//   - sim/workload/: customer-order arrival generation from a YAML spec
//
// # Key Interfaces
//
//   - Clock: current time and "run after delay" (implemented by Simulator)
//   - DurationModel: actual cycle time for a nominal processing duration
//   - CompletionHandler: receives a machine's completion callback (StageAdvancer)
//   - Finalizer: consumes finished production and customer orders (Plant)
package sim
