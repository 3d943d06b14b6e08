package punch

import (
	"fmt"
	"time"
)

// DefaultThresholdMinutes is the daily threshold above which worked time
// counts as overtime (9 hours).
const DefaultThresholdMinutes = 540

// CompletionState classifies a day by punch presence and closure.
type CompletionState string

const (
	Missing    CompletionState = "missing"
	Incomplete CompletionState = "incomplete"
	Complete   CompletionState = "complete"
)

// AnomalyKind names a non-fatal irregularity found while walking a day.
type AnomalyKind string

const (
	// ClockSkew: a span would have negative length; it contributes zero.
	ClockSkew AnomalyKind = "clock_skew"
	// OutOfSequence: a punch is not the one the daily cycle expects next.
	OutOfSequence AnomalyKind = "out_of_sequence"
)

// Anomaly is reported as data, never as an error.
type Anomaly struct {
	Kind    AnomalyKind
	EventID string
	Detail  string
}

// Totals are the derived numbers for one day.
type Totals struct {
	// Worked is the exact worked time; WorkedMinutes truncates it.
	Worked          time.Duration
	WorkedMinutes   int
	OvertimeMinutes int
	DeficitMinutes  int
	Completion      CompletionState

	// Live is set when an open span was counted up to "now". Live totals are
	// for display only.
	Live bool

	Anomalies []Anomaly
}

// Calculator turns one day's ordered punches into Totals. The zero value uses
// a threshold of zero minutes; use NewCalculator for the default.
type Calculator struct {
	ThresholdMinutes int
}

// NewCalculator returns a Calculator with the given daily threshold. A
// non-positive threshold selects DefaultThresholdMinutes.
func NewCalculator(thresholdMinutes int) Calculator {
	if thresholdMinutes <= 0 {
		thresholdMinutes = DefaultThresholdMinutes
	}
	return Calculator{ThresholdMinutes: thresholdMinutes}
}

// Calculate computes totals for a closed-out (past) day. A span left open at
// the end of the day contributes nothing. events must be one day's punches in
// ascending order, as produced by Reconstruct or EventsOn. Calculate is total:
// any sequence of valid kinds yields a result.
func (c Calculator) Calculate(events []PunchEvent) Totals {
	return c.calculate(events, nil)
}

// CalculateAt is Calculate, except that when events belong to the day that is
// current at now and a span is still open, the span is counted up to now.
func (c Calculator) CalculateAt(events []PunchEvent, now time.Time) Totals {
	return c.calculate(events, &now)
}

func (c Calculator) calculate(events []PunchEvent, now *time.Time) Totals {
	if len(events) == 0 {
		return Totals{Completion: Missing}
	}

	var (
		t        Totals
		worked   time.Duration
		openAt   time.Time
		isOpen   bool
		complete bool
		prev     *PunchEvent
	)

	closeSpan := func(ev PunchEvent) {
		d := ev.CapturedAt.Sub(openAt)
		if d < 0 {
			t.Anomalies = append(t.Anomalies, Anomaly{
				Kind:    ClockSkew,
				EventID: ev.ID,
				Detail:  fmt.Sprintf("%s is %s before the span it closes", ev.Kind, -d),
			})
			d = 0
		}
		worked += d
		isOpen = false
	}

	for i := range events {
		ev := events[i]
		if want := NextAction(prev); ev.Kind != want {
			t.Anomalies = append(t.Anomalies, Anomaly{
				Kind:    OutOfSequence,
				EventID: ev.ID,
				Detail:  fmt.Sprintf("got %s, expected %s", ev.Kind, want),
			})
		}

		switch ev.Kind {
		case KindEntry, KindBreakEnd:
			// A second Entry while a span is open overwrites the start.
			openAt = ev.CapturedAt
			isOpen = true
			complete = false
		case KindBreakStart:
			if isOpen {
				closeSpan(ev)
			}
		case KindExit:
			if isOpen {
				closeSpan(ev)
				complete = true
			}
		}
		prev = &events[i]
	}

	if isOpen && now != nil && LocalDateAt(*now, prev.OffsetMinutes) == LocalDate(*prev) {
		if d := now.Sub(openAt); d > 0 {
			worked += d
		}
		t.Live = true
	}

	t.Worked = worked
	t.WorkedMinutes = int(worked / time.Minute)
	if complete && !isOpen {
		t.Completion = Complete
	} else {
		t.Completion = Incomplete
	}

	if over := t.WorkedMinutes - c.ThresholdMinutes; over > 0 {
		t.OvertimeMinutes = over
	}
	if t.Completion == Complete && t.WorkedMinutes < c.ThresholdMinutes {
		t.DeficitMinutes = c.ThresholdMinutes - t.WorkedMinutes
	}
	return t
}
