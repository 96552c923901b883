package entities

import "fmt"

// ValidationError reports malformed or missing input, detected before any
// write is issued.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}
