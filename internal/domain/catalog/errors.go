package catalog

import "fmt"

// IntegrityError indicates a payload referenced an entity inconsistently:
// a barrier naming an unknown region, a region claiming a barrier that is
// not in the barrier table, or similar.
type IntegrityError struct {
	Entity string
	ID     string
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Entity, e.ID, e.Reason)
}
