package punch

import "time"

// PunchEvent is a single timestamped clock action. Events are immutable once
// appended to an EventStore; corrections are new events, never edits.
type PunchEvent struct {
	ID   string
	Kind Kind

	// CapturedAt is the absolute instant of the punch, with millisecond
	// precision. Ingestion truncates to Precision so an event read back
	// from the store equals the one appended.
	CapturedAt time.Time

	// OffsetMinutes is the capturing device's UTC offset at capture time,
	// in minutes east of UTC (local = UTC + offset).
	OffsetMinutes int

	LocationLabel          *string
	LocationAccuracyMeters *float64
	Source                 *Source

	// Synced is advisory only: true if the device was online when the punch
	// was captured.
	Synced bool
}

// Precision is the resolution CapturedAt is kept at.
const Precision = time.Millisecond

// Zone returns the fixed zone the event was captured in.
func (e PunchEvent) Zone() *time.Location {
	return time.FixedZone("", e.OffsetMinutes*60)
}

// LocalTime returns CapturedAt as seen on the capturing device's wall clock.
func (e PunchEvent) LocalTime() time.Time {
	return e.CapturedAt.In(e.Zone())
}

// OffsetOf returns the UTC offset of t in minutes east of UTC.
func OffsetOf(t time.Time) int {
	_, sec := t.Zone()
	return sec / 60
}
