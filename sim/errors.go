package sim

import "errors"

// Data-integrity errors. They indicate malformed plant data and abort a run.
var (
	// ErrDuplicateRoute is returned when a (product class, state) entry is added twice.
	ErrDuplicateRoute = errors.New("duplicate routing entry")
	// ErrInvalidRoute is returned for transition lists whose probabilities do not sum to 1.
	ErrInvalidRoute = errors.New("invalid routing entry")
	// ErrRoutingCorruption is returned when a next-state draw matches no transition.
	ErrRoutingCorruption = errors.New("routing corruption: draw matched no transition")
	// ErrNoEligibleMachine is returned when no resource can process an order in its state.
	ErrNoEligibleMachine = errors.New("no eligible machine")
	// ErrUnknownProduct is returned for references to products that were never defined.
	ErrUnknownProduct = errors.New("unknown product")
	// ErrUnknownGroup is returned for references to resource groups that were never defined.
	ErrUnknownGroup = errors.New("unknown resource group")
)

// ErrEmptyMachiningSlot signals a completion callback for an order the resource is not
// machining. Unreachable under single-threaded execution; treated as fatal.
var ErrEmptyMachiningSlot = errors.New("completion fired with empty machining slot")
