package systems

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyStarted is returned by Init on a loop that was started before
	ErrAlreadyStarted = errors.New("game loop already started")
	// ErrLoopStopped is returned by Init on a loop stopped before it started
	ErrLoopStopped = errors.New("game loop stopped")
	// ErrNoScheduler is returned by Init on a loop without a frame scheduler
	ErrNoScheduler = errors.New("game loop has no scheduler")
)

// Phase is the part of a frame an entity fault happened in
type Phase string

const (
	PhaseUpdate Phase = "update"
	PhaseRender Phase = "render"
)

// EntityFaultError reports an entity whose Update or Render returned an
// error or panicked
type EntityFaultError struct {
	Phase  Phase
	Frame  uint64
	Index  int    // position in frame order
	Entity string // entity name
	Err    error
}

func (e *EntityFaultError) Error() string {
	return fmt.Sprintf("frame %d: %s of entity %d (%s): %v", e.Frame, e.Phase, e.Index, e.Entity, e.Err)
}

func (e *EntityFaultError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panicking entity
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// safeCall runs fn, turning a panic into a *PanicError
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return fn()
}
