package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError is raised before dispatch; no backend call has been made.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

// TransportError covers network failures, non-2xx statuses and failures the
// backend reports inside an otherwise successful response.
type TransportError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BusyError rejects a request while one of the same kind is in flight.
type BusyError struct {
	Op string
}

func (e *BusyError) Error() string { return e.Op + " is already in progress" }

// StaleResponseDiscarded reports that a reply arrived after a newer request
// of the same kind had been issued and was dropped.
type StaleResponseDiscarded struct {
	Op string
}

func (e *StaleResponseDiscarded) Error() string { return e.Op + ": response superseded" }

func IsStale(err error) bool {
	var stale *StaleResponseDiscarded
	return errors.As(err, &stale)
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
