package source

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownProject is returned when the requested project is not in
	// the server's project list.
	ErrUnknownProject = errors.New("unknown project")
)

// TransportError indicates the remote service could not be reached at all:
// no response was received.
type TransportError struct {
	Step string
	URL  string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: request to %s failed: %v", e.Step, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError indicates the remote service answered with a non-success
// status. Status and body are retained so callers can render the failure
// without re-interpretation.
type ServerError struct {
	Step   string
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: server returned %d: %s", e.Step, e.Status, e.Body)
}
