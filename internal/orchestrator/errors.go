package orchestrator

import (
	"errors"
	"fmt"
)

// ValidationError reports structurally invalid input. It is the only error
// Answer returns to callers; everything downstream is absorbed into the
// response text.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
