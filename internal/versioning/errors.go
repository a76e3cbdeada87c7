package versioning

import (
	"errors"
	"fmt"

	"slidecast/internal/services"
)

// ErrUnknownKind marks operations invoked with a kind outside the fixed set.
var ErrUnknownKind = errors.New("unknown asset kind")

// ValidationError reports a programmer error such as an unknown kind or a
// content value that cannot be materialized for the kind. It matches both its
// wrapped error and services.ErrValidation under errors.Is.
type ValidationError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s %q: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is lets callers classify the error with the shared services marker.
func (e *ValidationError) Is(target error) bool {
	return target == services.ErrValidation
}
