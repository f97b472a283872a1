package simplex

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when a row or coefficient vector has the
	// wrong shape, or an operator/direction token is not recognized.
	ErrInvalidInput = errors.New("lp: invalid input")
	// ErrStructure is returned when the tableau is assembled out of order.
	ErrStructure = errors.New("lp: structural violation")
	// ErrInfeasible is returned when phase 1 cannot drive every artificial
	// variable out of the basis.
	ErrInfeasible = errors.New("lp: problem is infeasible")
	// ErrUnbounded is returned when the entering column has no eligible
	// leaving row.
	ErrUnbounded = errors.New("lp: problem is unbounded")
	// ErrIterationLimit is returned when the pivot budget set with
	// WithMaxIterations is exhausted.
	ErrIterationLimit = errors.New("lp: iteration limit reached")
	// ErrNumeric is returned when rounding errors made the final tableau
	// inconsistent with the problem it was built from.
	ErrNumeric = errors.New("lp: numerically unstable solution")
)

// Error reports which operation failed and wraps one of the sentinel
// errors above, so callers can use errors.Is to branch on the kind.
type Error struct {
	Op  string // operation that failed (e.g. "AddConstraint", "DropArtificial")
	Err error  // one of the sentinel errors
	Msg string // additional context
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %s", e.Err, e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Op)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an *Error for op wrapping kind.
func NewError(op string, kind error, format string, args ...any) error {
	return &Error{Op: op, Err: kind, Msg: fmt.Sprintf(format, args...)}
}
