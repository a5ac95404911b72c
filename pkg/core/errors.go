package core

import (
	"errors"
	"fmt"
)

// StructuralError indicates the metadata is missing something an analysis cannot proceed without,
// such as a named mapping.
type StructuralError struct {
	Message string
}

func (e *StructuralError) Error() string { return e.Message }

// ErrMappingNotFound creates a StructuralError with a formatted message.
func ErrMappingNotFound(format string, args ...interface{}) *StructuralError {
	return &StructuralError{Message: fmt.Sprintf(format, args...)}
}

// IsStructural reports whether err wraps a StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
