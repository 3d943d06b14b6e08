package punch

import "fmt"

// Timesheet is one month of reconstructed days with their totals.
type Timesheet struct {
	Month            YearMonth
	ThresholdMinutes int

	// Days are most recent first. Work days in the past with no punches are
	// included as Missing.
	Days []DayInterval

	TotalWorkedMinutes   int
	TotalOvertimeMinutes int
	TotalDeficitMinutes  int

	WorkingDays    int // days with at least one punch
	Absences       int // missing work days
	IncompleteDays int
}

// Timesheet reconstructs and calculates every day of month for display. A
// span still open today is counted up to now.
func (s *PunchService) Timesheet(month YearMonth) (*Timesheet, error) {
	return s.timesheet(month, true)
}

// ClosedTimesheet is Timesheet without the live add: open spans contribute
// nothing. Use it for anything that is stored, such as exports.
func (s *PunchService) ClosedTimesheet(month YearMonth) (*Timesheet, error) {
	return s.timesheet(month, false)
}

func (s *PunchService) timesheet(month YearMonth, live bool) (*Timesheet, error) {
	now := s.clock.Now()
	today := LocalDateAt(now, OffsetOf(now))

	events, err := s.database.ListAll()
	if err != nil {
		return nil, fmt.Errorf("listing punches: %w", err)
	}

	days := Reconstruct(events, month)
	present := make(map[Date]bool, len(days))
	for i := range days {
		if live {
			days[i].Totals = s.calc.CalculateAt(days[i].Events, now)
		} else {
			days[i].Totals = s.calc.Calculate(days[i].Events)
		}
		present[days[i].Date] = true
		s.logAnomalies(days[i].Date, days[i].Anomalies)
	}
	days = append(days, s.missingDays(month, today, present)...)
	SortDaysDescending(days)

	ts := &Timesheet{
		Month:            month,
		ThresholdMinutes: s.calc.ThresholdMinutes,
		Days:             days,
	}
	for _, d := range days {
		ts.TotalWorkedMinutes += d.WorkedMinutes
		ts.TotalOvertimeMinutes += d.OvertimeMinutes
		ts.TotalDeficitMinutes += d.DeficitMinutes
		switch d.Completion {
		case Missing:
			ts.Absences++
		case Incomplete:
			ts.IncompleteDays++
			ts.WorkingDays++
		default:
			ts.WorkingDays++
		}
	}

	s.logger.Debug("timesheet built", "month", month.String(), "days", len(days))
	return ts, nil
}

// missingDays returns a Missing row for every work day of month before today
// that has no punches. Today and later are never missing: they are not over.
func (s *PunchService) missingDays(month YearMonth, today Date, present map[Date]bool) []DayInterval {
	var out []DayInterval
	for d := month.First(); !d.After(month.Last()) && d.Before(today); d = d.AddDays(1) {
		if present[d] || !s.isWorkDay(d) {
			continue
		}
		out = append(out, DayInterval{Date: d, Totals: Totals{Completion: Missing}})
	}
	return out
}
