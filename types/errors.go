package types

import "errors"

var (
	// ErrAllocationFailure is returned when matrix or vector storage cannot be
	// obtained. The pending solve is abandoned.
	ErrAllocationFailure = errors.New("allocation failure")
	// ErrNumericTrap reports a NaN, an Inf or a division by zero inside the
	// assembly or the iteration.
	ErrNumericTrap = errors.New("numeric trap")
	// ErrInvalidConfiguration is returned before any allocation takes place.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrSolveInProgress      = errors.New("solve in progress")
)
