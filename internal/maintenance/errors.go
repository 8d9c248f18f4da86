package maintenance

import "fmt"

// NotFoundError reports an operation against a missing record. Callers
// map it to a 404-equivalent, distinct from validation failures.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("maintenance: %s %d not found", e.Resource, e.ID)
}

// ValidationError reports client-supplied input that cannot be used:
// bad enum strings, missing required fields, oversized notes.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "maintenance: " + e.Msg
}

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
