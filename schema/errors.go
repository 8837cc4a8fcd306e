package schema

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrConfiguration indicates an invalid type declaration or manifest.
	ErrConfiguration = errors.New("nodus: invalid schema configuration")
	// ErrNotFound indicates a lookup for an unregistered type or label.
	ErrNotFound = errors.New("nodus: schema not found")
)

// ConfigurationError reports an invalid type declaration: conflicting
// stored names, unsupported property kinds, relationship types carrying
// complex properties, and similar manifest defects.
type ConfigurationError struct {
	Type    string // Entity type name
	Field   string // Field name (if applicable)
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("nodus: configuration error")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
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
func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for ConfigurationError.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(typeName, fieldName, message string, cause error) *ConfigurationError {
	return &ConfigurationError{
		Type:    typeName,
		Field:   fieldName,
		Message: message,
		Cause:   cause,
	}
}

// NotFoundError reports a registry lookup that matched nothing, either
// because the registry was never initialized or because the key was not
// part of the manifest.
type NotFoundError struct {
	Key     string // Label, relationship kind or type name looked up
	Message string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	var b strings.Builder
	b.WriteString("nodus: schema not found")
	if e.Key != "" {
		b.WriteString(" for ")
		b.WriteString(e.Key)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(key, message string) *NotFoundError {
	return &NotFoundError{Key: key, Message: message}
}

// IsConfigurationError reports whether the error is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var confErr *ConfigurationError
	return errors.As(err, &confErr)
}

// IsNotFound reports whether the error is a NotFoundError.
func IsNotFound(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}
