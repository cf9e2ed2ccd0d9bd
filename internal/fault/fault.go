// Package fault defines the structured error surface of the engine.
// Handlers map these to HTTP responses; none of them wrap raw internals.
package fault

import (
	"fmt"
	"strings"
)

// Forbidden indicates the acting role lacks permission for the requested
// event or for specific answer/external-data keys. Keys holds every
// offending key when a strict write was rejected.
type Forbidden struct {
	Role   string
	Reason string
	Keys   []string
}

func (e Forbidden) Error() string {
	if len(e.Keys) > 0 {
		return fmt.Sprintf("forbidden: keys [%s] outside writable scope", strings.Join(e.Keys, ", "))
	}
	if e.Reason != "" {
		return "forbidden: " + e.Reason
	}
	return "forbidden"
}

// InvalidTransition indicates the event has no transition from the current
// state. Firing anything on a terminal state lands here too.
type InvalidTransition struct {
	State string
	Event string
}

func (e InvalidTransition) Error() string {
	return fmt.Sprintf("no transition for event %s from state %s", e.Event, e.State)
}

// FieldError describes a single failed answer key.
type FieldError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// ValidationFailed carries field-level schema violations back to the caller.
type ValidationFailed struct {
	Fields []FieldError
}

func (e ValidationFailed) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Key+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConcurrentModification indicates another transition committed first; the
// caller should refetch and retry rather than resubmit blindly.
type ConcurrentModification struct {
	ApplicationID   string
	ExpectedVersion int64
}

func (e ConcurrentModification) Error() string {
	return fmt.Sprintf("application %s changed since version %d", e.ApplicationID, e.ExpectedVersion)
}
