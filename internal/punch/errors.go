package punch

import (
	"errors"
	"fmt"
)

// ErrDuplicateEvent is returned by an EventStore when an event with the same
// ID has already been appended.
var ErrDuplicateEvent = errors.New("punch event already recorded")

// MalformedEventError reports a punch that failed validation at the ingestion
// boundary. Such events never reach the reconstructor or the calculator.
type MalformedEventError struct {
	EventID string
	Field   string
	Value   string
	Reason  string
}

func (e *MalformedEventError) Error() string {
	if e.EventID != "" {
		return fmt.Sprintf("malformed punch event %s: %s %q: %s", e.EventID, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("malformed punch event: %s %q: %s", e.Field, e.Value, e.Reason)
}
