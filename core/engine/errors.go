package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvablePath means a reference could not be mapped to a path.
	ErrUnresolvablePath = errors.New("unresolvable module path")
	// ErrTransientLoad means one fetch attempt failed or timed out.
	ErrTransientLoad = errors.New("transient load failure")
	// ErrPermanentLoad means the retry budget was exhausted.
	ErrPermanentLoad = errors.New("permanent load failure")
	// ErrInitialization means initialize failed, timed out or returned false.
	ErrInitialization = errors.New("module initialization failed")
	// ErrCircularDependency marks a load answered by a deferred stand-in.
	ErrCircularDependency = errors.New("circular module dependency")
)

// LoadError describes a failed load. errors.Is matches both Kind and the
// underlying cause.
type LoadError struct {
	Path     string
	Kind     error
	Attempts int
	Err      error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("load %s: %v", e.Path, e.Kind)
	if e.Attempts > 0 {
		msg += fmt.Sprintf(" after %d attempt(s)", e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}
