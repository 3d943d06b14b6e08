package punch

import (
	"fmt"
	"time"
)

// DayStatus is the state of today: what has been punched, what comes next,
// and live totals.
type DayStatus struct {
	Date       Date
	Now        time.Time
	Events     []PunchEvent
	LastEvent  *PunchEvent
	State      State
	NextAction Kind
	Totals     Totals
}

// Status returns today's status. An open span is counted up to now.
func (s *PunchService) Status() (*DayStatus, error) {
	now := s.clock.Now()
	today := LocalDateAt(now, OffsetOf(now))

	all, err := s.database.ListAll()
	if err != nil {
		return nil, fmt.Errorf("listing punches: %w", err)
	}

	events := EventsOn(all, today)
	var last *PunchEvent
	if len(events) > 0 {
		last = &events[len(events)-1]
	}

	totals := s.calc.CalculateAt(events, now)
	s.logAnomalies(today, totals.Anomalies)

	state := StateAfter(last)
	return &DayStatus{
		Date:       today,
		Now:        now,
		Events:     events,
		LastEvent:  last,
		State:      state,
		NextAction: state.Expects(),
		Totals:     totals,
	}, nil
}
