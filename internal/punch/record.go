package punch

import (
	"math"
	"strconv"
	"time"
)

// maxOffsetMinutes bounds accepted UTC offsets (±18:00, the ISO 8601 limit).
const maxOffsetMinutes = 18 * 60

// Record is the serialized shape of a punch, as exchanged with devices that
// queue punches offline and with export consumers.
type Record struct {
	ID                     string   `json:"id"`
	Kind                   string   `json:"kind"`
	CapturedAt             string   `json:"capturedAt"`
	TimezoneOffsetMinutes  *int     `json:"timezoneOffsetMinutes"`
	LocationLabel          *string  `json:"locationLabel,omitempty"`
	LocationAccuracyMeters *float64 `json:"locationAccuracyMeters,omitempty"`
	Source                 *string  `json:"source,omitempty"`
	Synced                 *bool    `json:"synced,omitempty"`
}

// ParseRecord validates r and converts it to a PunchEvent. Any structural
// problem is reported as a *MalformedEventError.
func ParseRecord(r Record) (PunchEvent, error) {
	if r.ID == "" {
		return PunchEvent{}, &MalformedEventError{Field: "id", Reason: "required"}
	}
	malformed := func(field, value, reason string) error {
		return &MalformedEventError{EventID: r.ID, Field: field, Value: value, Reason: reason}
	}

	kind, err := ParseKind(r.Kind)
	if err != nil {
		return PunchEvent{}, malformed("kind", r.Kind, "not one of entry, break_start, break_end, exit")
	}

	capturedAt, err := time.Parse(time.RFC3339Nano, r.CapturedAt)
	if err != nil {
		return PunchEvent{}, malformed("capturedAt", r.CapturedAt, "not an RFC 3339 instant")
	}
	capturedAt = capturedAt.Truncate(Precision)

	if r.TimezoneOffsetMinutes == nil {
		return PunchEvent{}, malformed("timezoneOffsetMinutes", "", "required")
	}
	offset := *r.TimezoneOffsetMinutes
	if offset < -maxOffsetMinutes || offset > maxOffsetMinutes {
		return PunchEvent{}, malformed("timezoneOffsetMinutes", strconv.Itoa(offset), "out of range")
	}

	ev := PunchEvent{
		ID:            r.ID,
		Kind:          kind,
		CapturedAt:    capturedAt,
		OffsetMinutes: offset,
		LocationLabel: r.LocationLabel,
	}

	if r.LocationAccuracyMeters != nil {
		acc := *r.LocationAccuracyMeters
		if acc < 0 || math.IsNaN(acc) || math.IsInf(acc, 0) {
			return PunchEvent{}, malformed("locationAccuracyMeters", strconv.FormatFloat(acc, 'g', -1, 64), "must be a non-negative number")
		}
		ev.LocationAccuracyMeters = &acc
	}
	if r.Source != nil {
		src, err := ParseSource(*r.Source)
		if err != nil {
			return PunchEvent{}, malformed("source", *r.Source, "not one of gps, network, external")
		}
		ev.Source = &src
	}
	if r.Synced != nil {
		ev.Synced = *r.Synced
	}
	return ev, nil
}

// RecordOf converts an event to its serialized shape. CapturedAt is written in
// the event's own offset so the record reads naturally on the device.
func RecordOf(ev PunchEvent) Record {
	offset := ev.OffsetMinutes
	synced := ev.Synced
	r := Record{
		ID:                     ev.ID,
		Kind:                   string(ev.Kind),
		CapturedAt:             ev.LocalTime().Format(time.RFC3339Nano),
		TimezoneOffsetMinutes:  &offset,
		LocationLabel:          ev.LocationLabel,
		LocationAccuracyMeters: ev.LocationAccuracyMeters,
		Synced:                 &synced,
	}
	if ev.Source != nil {
		s := string(*ev.Source)
		r.Source = &s
	}
	return r
}
