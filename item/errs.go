package item

import (
	"errors"
	"fmt"
)

// ErrInvariant is matched by every InvariantViolation.
var ErrInvariant = errors.New("invariant violation")

// InvariantViolation reports a broken value-model invariant. It is always
// a defect; it is raised with panic and never returned as a runtime
// condition.
type InvariantViolation struct {
	Msg string
}

func (e *InvariantViolation) Error() string {
	return "item: " + e.Msg
}

func (e *InvariantViolation) Unwrap() error {
	return ErrInvariant
}

func violation(format string, args ...any) *InvariantViolation {
	return &InvariantViolation{Msg: fmt.Sprintf(format, args...)}
}
