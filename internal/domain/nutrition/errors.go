package nutrition

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the referenced patient does not exist.
	ErrNotFound = errors.New("patient not found")

	// ErrPersistenceFailed is returned when the updated nutrition state
	// could not be written back. The mutation is all-or-nothing: on this
	// error nothing was persisted.
	ErrPersistenceFailed = errors.New("nutrition state persistence failed")
)

// ValidationError reports bad caller input, detected before any
// external call or state mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
