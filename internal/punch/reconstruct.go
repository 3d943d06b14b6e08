package punch

import (
	"slices"
	"strings"
)

// DayInterval is the reconstructed view of one local calendar day. It is a
// projection: built on demand from the event log and never stored.
type DayInterval struct {
	Date   Date
	Events []PunchEvent // ascending by CapturedAt
	Totals
}

// First returns the earliest event of the given kind, or nil.
func (d DayInterval) First(kind Kind) *PunchEvent {
	for i := range d.Events {
		if d.Events[i].Kind == kind {
			return &d.Events[i]
		}
	}
	return nil
}

// Last returns the latest event of the given kind, or nil.
func (d DayInterval) Last(kind Kind) *PunchEvent {
	for i := len(d.Events) - 1; i >= 0; i-- {
		if d.Events[i].Kind == kind {
			return &d.Events[i]
		}
	}
	return nil
}

// Reconstruct groups events by local calendar date, keeps the days that fall
// in month, and orders each day's events by instant. Storage order is
// irrelevant: offline-queued events may have been appended late. Days are
// returned most recent first. Totals are left zero; see Calculator.
func Reconstruct(events []PunchEvent, month YearMonth) []DayInterval {
	groups := make(map[Date][]PunchEvent)
	for _, ev := range events {
		d := LocalDate(ev)
		if !month.Contains(d) {
			continue
		}
		groups[d] = append(groups[d], ev)
	}

	days := make([]DayInterval, 0, len(groups))
	for d, evs := range groups {
		SortEvents(evs)
		days = append(days, DayInterval{Date: d, Events: evs})
	}
	SortDaysDescending(days)
	return days
}

// EventsOn returns the events captured on the given local date, ascending.
func EventsOn(events []PunchEvent, day Date) []PunchEvent {
	var out []PunchEvent
	for _, ev := range events {
		if LocalDate(ev) == day {
			out = append(out, ev)
		}
	}
	SortEvents(out)
	return out
}

// LastEventOn returns the most recent event captured on the given local date,
// or nil if there is none.
func LastEventOn(events []PunchEvent, day Date) *PunchEvent {
	evs := EventsOn(events, day)
	if len(evs) == 0 {
		return nil
	}
	return &evs[len(evs)-1]
}

// SortEvents orders events by instant. Events captured at the same instant
// are ordered by cycle phase and then by ID so the result never depends on
// input order.
func SortEvents(events []PunchEvent) {
	slices.SortFunc(events, compareEvents)
}

func compareEvents(a, b PunchEvent) int {
	if c := a.CapturedAt.Compare(b.CapturedAt); c != 0 {
		return c
	}
	if c := cmpInt(a.Kind.phase(), b.Kind.phase()); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// SortDaysDescending orders days most recent first.
func SortDaysDescending(days []DayInterval) {
	slices.SortFunc(days, func(a, b DayInterval) int {
		return b.Date.Compare(a.Date)
	})
}
