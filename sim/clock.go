package sim

// Clock is the time source the dispatch engine depends on.
//
// After registers a fire-and-forget callback at Now()+delay. Callbacks scheduled
// for the same instant fire in the order they were registered, and never
// concurrently. A callback error aborts the run.
type Clock interface {
	Now() int64
	After(delay int64, fn func() error)
}
