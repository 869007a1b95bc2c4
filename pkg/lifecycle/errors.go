package lifecycle

import (
	"errors"
	"fmt"
	"strings"
)

// Lifecycle errors. Check with errors.Is.
var (
	// ErrNoStates is returned when aggregating an empty list of states.
	ErrNoStates = errors.New("lifecycle: no states to aggregate")

	// ErrNilComponent is returned when registering a nil subcomponent.
	ErrNilComponent = errors.New("lifecycle: nil component")

	// ErrDuplicateComponent is returned when a subcomponent is registered twice.
	ErrDuplicateComponent = errors.New("lifecycle: component already registered")

	// ErrIncompatibleComponent is returned for subcomponents that cannot be tracked:
	// non-comparable types, the parent itself, or registrations that would form a cycle.
	ErrIncompatibleComponent = errors.New("lifecycle: incompatible component")

	// ErrInvalidTransition is returned by Degrade and Recover from the wrong state.
	ErrInvalidTransition = errors.New("lifecycle: invalid state transition")

	// ErrHookPanic wraps a panic raised by a hook or a subcomponent operation.
	ErrHookPanic = errors.New("lifecycle: hook panicked")
)

// ValidationError reports a rejected subcomponent registration.
type ValidationError struct {
	Component string
	Err       error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("register subcomponent on %s: %v", e.Component, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// LifecycleError reports a failed initialize or shutdown.
type LifecycleError struct {
	Component string
	Op        string
	Err       error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Component, e.Err)
}

func (e *LifecycleError) Unwrap() error { return e.Err }

// AggregateError bundles the failures of several subcomponents.
type AggregateError struct {
	Component string
	Errors    []error
}

func (e *AggregateError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%s: %d subcomponent(s) failed: %s", e.Component, len(e.Errors), strings.Join(msgs, "; "))
}

func (e *AggregateError) Unwrap() []error { return e.Errors }
