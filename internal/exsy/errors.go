package exsy

import (
	"errors"
	"fmt"
)

// Domain errors for rate estimation.
var (
	// ErrShapeMismatch indicates unequal series lengths or too few points.
	ErrShapeMismatch = errors.New("exsy: times and ratios must have equal length of at least 2")

	// ErrFitDidNotConverge indicates the solver found no optimum or could not
	// estimate the parameter covariance.
	ErrFitDidNotConverge = errors.New("exsy: fit did not converge")

	// ErrDegenerateParameter indicates a fitted rate of zero where Kex or its
	// error would divide by it.
	ErrDegenerateParameter = errors.New("exsy: degenerate fitted rate (division by zero)")
)

// MinPoints is the smallest series length accepted for two free parameters.
const MinPoints = 2

// ShapeError reports the offending lengths of a rejected input.
type ShapeError struct {
	Times  int
	Ratios int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s (times=%d, ratios=%d)", ErrShapeMismatch, e.Times, e.Ratios)
}

func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

// FitError wraps a solver failure with the point at which it gave up.
type FitError struct {
	Iterations int
	Guess      RateParameters
	Wrapped    error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("%s after %d iterations from guess (%g, %g): %v",
		ErrFitDidNotConverge, e.Iterations, e.Guess.K12, e.Guess.K21, e.Wrapped)
}

func (e *FitError) Unwrap() []error {
	return []error{ErrFitDidNotConverge, e.Wrapped}
}
