package manga

import "errors"

// ErrNotFound is returned when no record carries the requested id.
var ErrNotFound = errors.New("manga not found")

// ValidationError names the first field that broke its rule.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Rule
}
