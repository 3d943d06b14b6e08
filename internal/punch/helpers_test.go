package punch

import "time"

// ev builds an event at the RFC 3339 timestamp ts, taking the offset from ts.
func ev(id string, kind Kind, ts string) PunchEvent {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		panic(err)
	}
	return PunchEvent{ID: id, Kind: kind, CapturedAt: t, OffsetMinutes: OffsetOf(t)}
}

// workday is Entry 08:00, BreakStart 12:00, BreakEnd 13:00, Exit at exit,
// on 2024-03-04 at UTC-3.
func workday(exit string) []PunchEvent {
	return []PunchEvent{
		ev("a", KindEntry, "2024-03-04T08:00:00-03:00"),
		ev("b", KindBreakStart, "2024-03-04T12:00:00-03:00"),
		ev("c", KindBreakEnd, "2024-03-04T13:00:00-03:00"),
		ev("d", KindExit, "2024-03-04T"+exit+":00-03:00"),
	}
}

func mustParse(ts string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		panic(err)
	}
	return t
}
