package codec

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrSerialization indicates a value that cannot be mapped onto
	// graph storage, or storage that cannot be mapped back.
	ErrSerialization = errors.New("nodus: serialization failed")
	// ErrCycleDetected indicates a reference cycle in the entity's
	// complex property graph.
	ErrCycleDetected = errors.New("nodus: reference cycle detected")
)

// SerializationError reports a failed conversion in either direction,
// naming the entity type and property where it stopped.
type SerializationError struct {
	Type     string // Entity type name
	Property string // Stored property name (if applicable)
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *SerializationError) Error() string {
	var b strings.Builder
	b.WriteString("nodus: serialization error")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Property != "" {
		b.WriteString(" property ")
		b.WriteString(e.Property)
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
func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for SerializationError.
func (e *SerializationError) Is(target error) bool {
	return target == ErrSerialization
}

// NewSerializationError creates a new SerializationError.
func NewSerializationError(typeName, property, message string, cause error) *SerializationError {
	return &SerializationError{
		Type:     typeName,
		Property: property,
		Message:  message,
		Cause:    cause,
	}
}

// CycleDetectedError reports a reference cycle found during the
// pre-write scan. Path lists the property chain that closed the cycle.
// Nothing is written when this error is returned.
type CycleDetectedError struct {
	Type string
	Path []string
}

// Error implements the error interface.
func (e *CycleDetectedError) Error() string {
	var b strings.Builder
	b.WriteString("nodus: reference cycle detected")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if len(e.Path) > 0 {
		b.WriteString(" via ")
		b.WriteString(strings.Join(e.Path, "."))
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for CycleDetectedError.
func (e *CycleDetectedError) Is(target error) bool {
	return target == ErrCycleDetected
}

// NewCycleDetectedError creates a new CycleDetectedError.
func NewCycleDetectedError(typeName string, path []string) *CycleDetectedError {
	return &CycleDetectedError{Type: typeName, Path: path}
}

// IsSerializationError reports whether the error is a SerializationError.
func IsSerializationError(err error) bool {
	var serErr *SerializationError
	return errors.As(err, &serErr)
}

// IsCycleDetected reports whether the error is a CycleDetectedError.
func IsCycleDetected(err error) bool {
	var cycErr *CycleDetectedError
	return errors.As(err, &cycErr)
}
