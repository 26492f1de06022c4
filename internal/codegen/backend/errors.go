package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is returned by process calls a backend does not implement.
	ErrUnsupported = errors.New("operation not supported by backend")
	// ErrUnrecognizedField means the classifier exhausted every shape rule.
	ErrUnrecognizedField = errors.New("unrecognized field shape")
	// ErrMixedDimensions is returned for matrices like [3,num_x].
	ErrMixedDimensions = errors.New("matrix dimensions mix literal and field sizes")
	// ErrNoStruct is returned when a process call arrives before BeginStruct.
	ErrNoStruct = errors.New("no struct in progress")
	// ErrAlreadyGenerated is returned by a second Generate or by calls after it.
	ErrAlreadyGenerated = errors.New("backend already generated")
	// ErrUnbalancedBraces is returned by the IDL formatter.
	ErrUnbalancedBraces = errors.New("unbalanced braces")
)

// FieldError attributes a failure to one field of one struct.
type FieldError struct {
	Backend string
	Struct  string
	Field   string
	Err     error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s.%s: %v", e.Backend, e.Struct, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Unsupportedf wraps ErrUnsupported with the operation and field name.
func Unsupportedf(op, field string) error {
	return fmt.Errorf("%s %q: %w", op, field, ErrUnsupported)
}
