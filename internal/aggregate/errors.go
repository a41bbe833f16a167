package aggregate

import (
	"errors"
	"fmt"
)

// ErrEmptyCurrentBatch is returned when the current period has no records.
// Aggregation fails rather than producing a misleading empty report.
var ErrEmptyCurrentBatch = errors.New("current period batch is empty")

// InvariantViolation reports a failed aggregation postcondition. It always
// indicates an upstream defect and must surface, never be swallowed.
type InvariantViolation struct {
	Check  string
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("aggregation invariant %q violated: %s", e.Check, e.Detail)
}
