package gol

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by Run. Every failure is wrapped in a *RunError.
var (
	ErrInvalidParams      = errors.New("invalid params")
	ErrInputUnavailable   = errors.New("input unavailable")
	ErrEventChannelClosed = errors.New("event channel closed")
	ErrIdleSignalLost     = errors.New("idle signal lost")
)

// Phase names the part of a run that failed.
type Phase string

const (
	PhaseLoad     Phase = "load"
	PhaseExecute  Phase = "execute"
	PhaseFinalize Phase = "finalize"
)

// RunError reports which phase of a run failed and the last completed turn at that point.
//
// The error unwraps to one of the sentinel errors above, so callers can use errors.Is:
//
//	if err := gol.Run(ctx, p, events); errors.Is(err, gol.ErrInputUnavailable) {
//	    // the image could not be read
//	}
type RunError struct {
	Phase Phase
	Turn  int
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s failed at turn %d: %v", e.Phase, e.Turn, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
