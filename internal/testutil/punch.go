package testutil

import "punch-go/internal/punch"

// Punch builds an event captured at the RFC 3339 timestamp ts. The offset
// written in ts becomes the event's OffsetMinutes, so "2024-03-04T08:00:00-03:00"
// is an 08:00 punch on a device at UTC-3.
func Punch(id string, kind punch.Kind, ts string) punch.PunchEvent {
	t := MustTime(ts)
	return punch.PunchEvent{
		ID:            id,
		Kind:          kind,
		CapturedAt:    t,
		OffsetMinutes: punch.OffsetOf(t),
	}
}
