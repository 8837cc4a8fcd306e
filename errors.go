package nodus

import (
	"errors"
	"fmt"

	"github.com/syssam/nodus/codec"
	"github.com/syssam/nodus/dialect/cypher"
	"github.com/syssam/nodus/schema"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a specifically requested entity does
	// not exist. An empty query result is not an error.
	ErrNotFound = errors.New("nodus: entity not found")

	// ErrNotSingular is returned when a query that expects exactly one
	// result returns more than one.
	ErrNotSingular = errors.New("nodus: entity not singular")

	// ErrTxStarted is returned when attempting to start a new transaction
	// within an existing transaction.
	ErrTxStarted = errors.New("nodus: cannot start a transaction within a transaction")

	// ErrClosed is returned by operations on a closed Graph.
	ErrClosed = errors.New("nodus: graph is closed")
)

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
	id    any // Optional: the ID that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("nodus: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("nodus: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the ID that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given entity label.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a new NotFoundError with the ID that was searched for.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error reports an absent entity, from
// either the store facade or the schema registry.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound) || schema.IsNotFound(err)
}

// NotSingularError represents an error when a query expects a singular
// result but receives multiple results.
type NotSingularError struct {
	label string
	count int // Number of results returned (-1 if unknown)
}

// Error returns the error string.
func (e *NotSingularError) Error() string {
	if e.count >= 0 {
		return fmt.Sprintf("nodus: %s not singular (got %d results, expected 1)", e.label, e.count)
	}
	return fmt.Sprintf("nodus: %s not singular", e.label)
}

// Is reports whether the target error matches NotSingularError.
// This allows errors.Is(notSingularErr, ErrNotSingular) to return true.
func (e *NotSingularError) Is(err error) bool {
	return err == ErrNotSingular
}

// Label returns the entity label.
func (e *NotSingularError) Label() string {
	return e.label
}

// Count returns the number of results, or -1 if unknown.
func (e *NotSingularError) Count() int {
	return e.count
}

// NewNotSingularError returns a new NotSingularError for the given entity label.
func NewNotSingularError(label string) *NotSingularError {
	return &NotSingularError{label: label, count: -1}
}

// NewNotSingularErrorWithCount returns a new NotSingularError with the result count.
func NewNotSingularErrorWithCount(label string, count int) *NotSingularError {
	return &NotSingularError{label: label, count: count}
}

// IsNotSingular returns true if the error is a NotSingularError.
func IsNotSingular(err error) bool {
	if err == nil {
		return false
	}
	var e *NotSingularError
	return errors.As(err, &e) || errors.Is(err, ErrNotSingular)
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err error // Original error that triggered rollback
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("nodus: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// QueryError wraps a query error with additional context.
type QueryError struct {
	Entity string // Entity label being queried
	Op     string // Operation (e.g., "all", "first", "count")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("nodus: querying %s (%s): %v", e.Entity, e.Op, e.Err)
	}
	return fmt.Sprintf("nodus: querying %s: %v", e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(entity, op string, err error) *QueryError {
	return &QueryError{Entity: entity, Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// MutationError wraps a write error with additional context.
type MutationError struct {
	Entity string // Entity label being written
	Op     string // Operation (e.g., "create", "update", "delete")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("nodus: %s %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError returns a new MutationError.
func NewMutationError(entity, op string, err error) *MutationError {
	return &MutationError{Entity: entity, Op: op, Err: err}
}

// IsMutationError returns true if the error is a MutationError.
func IsMutationError(err error) bool {
	if err == nil {
		return false
	}
	var e *MutationError
	return errors.As(err, &e)
}

// The remaining taxonomy lives with the package that raises it; the
// checks are re-exported here so callers branching on a failure class
// need a single import.

// IsConfiguration reports whether the error is a schema
// ConfigurationError.
func IsConfiguration(err error) bool { return schema.IsConfigurationError(err) }

// IsSerialization reports whether the error is a codec
// SerializationError.
func IsSerialization(err error) bool { return codec.IsSerializationError(err) }

// IsCycleDetected reports whether the error is a codec
// CycleDetectedError.
func IsCycleDetected(err error) bool { return codec.IsCycleDetected(err) }

// IsTranslation reports whether the error is a cypher TranslationError.
func IsTranslation(err error) bool { return cypher.IsTranslationError(err) }

// IsAliasResolution reports whether the error is a cypher
// AliasResolutionError.
func IsAliasResolution(err error) bool { return cypher.IsAliasResolutionError(err) }

// IsParameterBinding reports whether the error is a cypher
// ParameterBindingError.
func IsParameterBinding(err error) bool { return cypher.IsParameterBindingError(err) }
