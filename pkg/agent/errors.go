package agent

import (
	"errors"
	"fmt"
)

// ValidationError rejects a request before any stage runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StageError marks a failure inside a specific stage. Critical stage errors
// fail the session; non-critical ones degrade it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ErrQualityBelowThreshold is returned when the reviewer still rejects the
// analysis after the retry budget is spent. The session completes with this
// recorded rather than failing; the plan carries a quality caveat.
var ErrQualityBelowThreshold = errors.New("analysis quality below threshold after retries")

// ErrSessionNotFound is returned by read operations for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")
