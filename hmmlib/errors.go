package hmmlib

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDimension is returned when a buffer or size argument does not
	// match the dimensions of the model.
	ErrDimension = errors.New("dimension mismatch")

	// ErrNoDensity is returned when the model is not given exactly one
	// density per state.
	ErrNoDensity = errors.New("one density per state is required")

	// ErrNotInitialized is returned by BaumWelch if the transition matrix
	// or initial distribution has not been set.
	ErrNotInitialized = errors.New("transition matrix and initial distribution must be initialized")

	// ErrDivergence matches every *DivergenceError with errors.Is.
	ErrDivergence = errors.New("numeric divergence")
)

var (
	negInf = math.Inf(-1)
	posInf = math.Inf(1)
)

// DivergenceError reports a value that became NaN or infinite during a
// fit.  The parameters from before the failing iteration are retained.
type DivergenceError struct {

	// Iteration in which the value was produced (1-based)
	Iteration int

	// One of "forward", "backward", "loglike" or "reestimate"
	Phase string

	// Time point, or -1 if not applicable
	Time int

	// State index (row of the transition matrix for "reestimate"), or -1
	State int

	// Destination state for "reestimate", otherwise -1
	Target int

	// The offending value
	Value float64
}

func (e *DivergenceError) Error() string {
	switch {
	case e.Target >= 0:
		return fmt.Sprintf("hmmlib: %s diverged at iteration %d, A[%d][%d]=%v", e.Phase, e.Iteration, e.State, e.Target, e.Value)
	case e.Time >= 0:
		return fmt.Sprintf("hmmlib: %s diverged at iteration %d, t=%d, state=%d, value=%v", e.Phase, e.Iteration, e.Time, e.State, e.Value)
	default:
		return fmt.Sprintf("hmmlib: %s diverged at iteration %d, value=%v", e.Phase, e.Iteration, e.Value)
	}
}

// Is reports whether target is ErrDivergence.
func (e *DivergenceError) Is(target error) bool {
	return target == ErrDivergence
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
