package dlsite

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the storefront has no page for a work.
var ErrNotFound = errors.New("work not found")

// ParseError reports a required field missing from a storefront response.
// It is never retried: the page was fetched but does not have the
// expected shape.
type ParseError struct {
	WorkNo string
	Field  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: parse %s: %v", e.WorkNo, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: no %s found", e.WorkNo, e.Field)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
