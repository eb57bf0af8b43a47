package models

import (
	"errors"
	"strings"
)

// ErrNotFound marks a reference to an entity id that does not exist. Stores
// wrap it with the entity kind and id.
var ErrNotFound = errors.New("not found")

// ValidationError collects the problems found in a request payload. It is
// always returned before any mutation is attempted.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// Validation builds a ValidationError, or returns nil when there are no
// problems so callers can return it directly.
func Validation(problems ...string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}
