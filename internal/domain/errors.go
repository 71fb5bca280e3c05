package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when a status change would break the state machine.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrSeedNotFound is returned when a target references a missing or inactive seed.
	ErrSeedNotFound = errors.New("seed not found or inactive")
)

// TransportError means the AI service was unreachable, timed out or answered non-2xx.
type TransportError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError means no structured object could be extracted from a response.
type ParseError struct {
	Reason  string
	Snippet string
}

func (e *ParseError) Error() string {
	if e.Snippet == "" {
		return "parse response: " + e.Reason
	}
	return fmt.Sprintf("parse response: %s (near %q)", e.Reason, e.Snippet)
}

// FieldViolation names one field that failed validation.
type FieldViolation struct {
	Field   string
	Problem string
}

// ValidationError lists every violated field of a generated object.
type ValidationError struct {
	ContentType ContentType
	Violations  []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Problem)
	}
	return fmt.Sprintf("invalid %s content: %s", e.ContentType, strings.Join(parts, "; "))
}

// Fields returns the violated field names in order.
func (e *ValidationError) Fields() []string {
	out := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		out = append(out, v.Field)
	}
	return out
}
