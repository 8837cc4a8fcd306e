// Package cypher translates typed query expressions into Cypher text
// with named parameters.
package cypher

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrTranslation indicates an expression the translator cannot
	// lower to Cypher.
	ErrTranslation = errors.New("nodus: translation failed")
	// ErrAliasResolution indicates a reference to a pattern binding
	// that is not in scope.
	ErrAliasResolution = errors.New("nodus: alias resolution failed")
	// ErrParameterBinding indicates a literal value that cannot be
	// carried as a query parameter.
	ErrParameterBinding = errors.New("nodus: parameter binding failed")
)

// TranslationError reports an expression or clause the translator
// cannot lower.
type TranslationError struct {
	Type    string // entity type under translation, when known
	Clause  string // clause being lowered, when known
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *TranslationError) Error() string {
	var b strings.Builder
	b.WriteString("nodus: translation error")
	if e.Clause != "" {
		b.WriteString(" in ")
		b.WriteString(e.Clause)
		b.WriteString(" clause")
	}
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for
// TranslationError.
func (e *TranslationError) Is(target error) bool {
	return target == ErrTranslation
}

// NewTranslationError creates a new TranslationError.
func NewTranslationError(typeName, clause, message string, cause error) *TranslationError {
	return &TranslationError{
		Type:    typeName,
		Clause:  clause,
		Message: message,
		Cause:   cause,
	}
}

// AliasResolutionError reports a reference to an alias the scope does
// not bind.
type AliasResolutionError struct {
	Alias   string
	Message string
}

// Error implements the error interface.
func (e *AliasResolutionError) Error() string {
	if e.Alias != "" {
		return fmt.Sprintf("nodus: alias error for %q: %s", e.Alias, e.Message)
	}
	return "nodus: alias error: " + e.Message
}

// Is reports whether the target matches the sentinel error for
// AliasResolutionError.
func (e *AliasResolutionError) Is(target error) bool {
	return target == ErrAliasResolution
}

// NewAliasResolutionError creates a new AliasResolutionError.
func NewAliasResolutionError(alias, message string) *AliasResolutionError {
	return &AliasResolutionError{
		Alias:   alias,
		Message: message,
	}
}

// ParameterBindingError reports a literal that cannot travel as a
// query parameter.
type ParameterBindingError struct {
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ParameterBindingError) Error() string {
	return fmt.Sprintf("nodus: parameter error (value: %v): %s", e.Value, e.Message)
}

// Is reports whether the target matches the sentinel error for
// ParameterBindingError.
func (e *ParameterBindingError) Is(target error) bool {
	return target == ErrParameterBinding
}

// NewParameterBindingError creates a new ParameterBindingError.
func NewParameterBindingError(value any, message string) *ParameterBindingError {
	return &ParameterBindingError{
		Value:   value,
		Message: message,
	}
}

// IsTranslationError reports whether the error is a TranslationError.
func IsTranslationError(err error) bool {
	var te *TranslationError
	return errors.As(err, &te)
}

// IsAliasResolutionError reports whether the error is an
// AliasResolutionError.
func IsAliasResolutionError(err error) bool {
	var ae *AliasResolutionError
	return errors.As(err, &ae)
}

// IsParameterBindingError reports whether the error is a
// ParameterBindingError.
func IsParameterBindingError(err error) bool {
	var pe *ParameterBindingError
	return errors.As(err, &pe)
}
