// Package errors provides custom error types for the macrosync system.
// These errors enable programmatic error checking across the reconciliation
// pipeline: validation failures are distinguishable from lookup failures,
// which are distinguishable from write failures and constraint violations.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// As is an alias for the standard library errors.As.
var As = errors.As

// Is is an alias for the standard library errors.Is.
var Is = errors.Is

// Common sentinel errors for the macrosync system
var (
	// ErrNotFound indicates that a requested record was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrConstraint indicates that the store rejected a write due to a
	// constraint violation (foreign key, unique, not-null)
	ErrConstraint = errors.New("constraint violation")

	// ErrStoreUnavailable indicates that the store is temporarily unreachable
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrNoSource indicates that a sync was requested with no feed sources
	ErrNoSource = errors.New("no feed sources configured")
)

// RowError records a single validation failure within an uploaded batch.
// Row is 1-based and includes the header-row offset, so it matches the row
// number the uploader sees in their spreadsheet.
type RowError struct {
	Row     int
	Field   string
	Message string
}

// Error implements the error interface
func (e *RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: field %s: %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// Is implements errors.Is support
func (e *RowError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ValidationError represents a rejected batch. It carries every row failure
// found during validation (not just the first), capped by the engine before
// it is returned to callers.
type ValidationError struct {
	Rows      []*RowError
	Truncated int // failures beyond the cap, 0 if none
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Rows) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(e.Rows))
	for _, r := range e.Rows {
		msgs = append(msgs, r.Error())
	}
	s := fmt.Sprintf("validation failed for %d rows: %s", len(e.Rows)+e.Truncated, strings.Join(msgs, "; "))
	if e.Truncated > 0 {
		s += fmt.Sprintf(" (and %d more)", e.Truncated)
	}
	return s
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// LookupError represents a failed resolver chunk query. Nothing has been
// written when a LookupError is returned; re-running the batch is safe.
type LookupError struct {
	Entity string // "indicator" or "release"
	Chunk  int    // zero-based chunk index
	Keys   int    // number of keys in the failed chunk
	Err    error
}

// Error implements the error interface
func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup failed for %s chunk %d (%d keys): %v", e.Entity, e.Chunk, e.Keys, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *LookupError) Unwrap() error {
	return e.Err
}

// StoreError represents a failed insert or update. Because same-type updates
// are dispatched concurrently, a StoreError from the writer means "possibly
// partially applied", not "rolled back".
type StoreError struct {
	Operation string // "insert" or "update"
	Entity    string // "indicator" or "release"
	ID        string // record id for updates, empty for bulk inserts
	Err       error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %v", e.Operation, e.Entity, e.ID, e.Err)
	}
	return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Entity, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StoreError) Unwrap() error {
	return e.Err
}

// FeedError represents a failure fetching candidate events from one feed
// source during a sync run.
type FeedError struct {
	Source string
	Err    error
}

// Error implements the error interface
func (e *FeedError) Error() string {
	return fmt.Sprintf("feed %s: %v", e.Source, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *FeedError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConstraint checks if an error is a store constraint violation
func IsConstraint(err error) bool {
	return errors.Is(err, ErrConstraint)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Helper wrapping functions for common patterns

// WrapLookup wraps a chunk query failure as a LookupError
func WrapLookup(entity string, chunk, keys int, err error) error {
	if err == nil {
		return nil
	}
	return &LookupError{Entity: entity, Chunk: chunk, Keys: keys, Err: err}
}

// WrapStore wraps an insert/update failure as a StoreError
func WrapStore(operation, entity, id string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Operation: operation, Entity: entity, ID: id, Err: err}
}

// WrapFeed wraps a feed fetch failure as a FeedError
func WrapFeed(source string, err error) error {
	if err == nil {
		return nil
	}
	return &FeedError{Source: source, Err: err}
}
