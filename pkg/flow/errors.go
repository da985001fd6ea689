// Package flow implements the runtime behavior of a compiled flow graph: the
// keyboard resolver, the navigation resolver, the input collection engine,
// and the per-event dispatch tying them together.
package flow

import (
	"errors"
	"fmt"
)

var (
	// ErrNavigationTargetMissing indicates a navigation action referenced a
	// node or command that does not exist. After validation this should be
	// unreachable; at runtime it ends the turn without a user-visible crash.
	ErrNavigationTargetMissing = errors.New("navigation target missing")

	// ErrUnknownAction indicates a button carried an action outside the
	// closed action set.
	ErrUnknownAction = errors.New("unknown navigation action")
)

// NavigationError wraps navigation failures with the action context.
type NavigationError struct {
	Action string
	Target string
	Err    error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("cannot resolve %s action to %q: %v", e.Action, e.Target, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

func (e *NavigationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// InputValidationError reports why a candidate answer was rejected. It is
// recoverable: the engine re-prompts and the session stays armed.
type InputValidationError struct {
	Reason  string // "length", "number", "email", "phone"
	Message string
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("input rejected (%s): %s", e.Reason, e.Message)
}

// IsNavigationTargetMissing checks if an error indicates a missing navigation
// target.
func IsNavigationTargetMissing(err error) bool {
	return errors.Is(err, ErrNavigationTargetMissing)
}
