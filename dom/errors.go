package dom

import (
	"errors"
	"fmt"
)

// DOMError represents a DOM exception with a name and message.
type DOMError struct {
	Name    string
	Message string
}

func (e *DOMError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// Common DOM error constructors

// ErrInvalidState creates an InvalidStateError.
func ErrInvalidState(message string) *DOMError {
	return &DOMError{Name: "InvalidStateError", Message: message}
}

// ErrType creates a TypeError. The script layer throws it as a native
// TypeError rather than a DOMException.
func ErrType(message string) *DOMError {
	return &DOMError{Name: "TypeError", Message: message}
}

// IsTypeError reports whether err is a TypeError produced by ErrType.
func IsTypeError(err error) bool {
	var de *DOMError
	return errors.As(err, &de) && de.Name == "TypeError"
}
