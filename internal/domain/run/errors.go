package run

import (
	"errors"
	"fmt"
)

// ErrAllLevelsFailed is returned when every requested budget level failed;
// partial failures are reported inside the result instead.
var ErrAllLevelsFailed = errors.New("all budget levels failed")

// InvalidRequestError indicates a request precondition was violated. It is
// raised before any call to the data source.
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}
