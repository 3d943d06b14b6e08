package punch

import (
	"fmt"
	"slices"
	"time"
)

// Settings are the calculation parameters the service runs with.
type Settings struct {
	// ThresholdMinutes is the daily overtime threshold. Non-positive selects
	// DefaultThresholdMinutes.
	ThresholdMinutes int

	// WorkDays are the weekdays a timesheet expects punches on. Days in the
	// past with no punches are reported as missing.
	WorkDays []time.Weekday
}

// DefaultWorkDays is Monday through Friday.
var DefaultWorkDays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// PunchService is the orchestration layer between the CLI and the event log.
// It is the only writer: every new punch goes through Clock or Import.
type PunchService struct {
	database Database
	logger   Logger
	clock    Clock
	idgen    IDGenerator
	calc     Calculator
	workDays []time.Weekday
}

// NewPunchService creates a new PunchService with the provided dependencies.
func NewPunchService(database Database, logger Logger, clock Clock, idgen IDGenerator, settings Settings) *PunchService {
	workDays := settings.WorkDays
	if workDays == nil {
		workDays = DefaultWorkDays
	}
	return &PunchService{
		database: database,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
		calc:     NewCalculator(settings.ThresholdMinutes),
		workDays: workDays,
	}
}

// ClockRequest carries the optional context attached to a punch.
type ClockRequest struct {
	LocationLabel  string
	AccuracyMeters *float64
	Source         string

	// Offline marks a punch captured without connectivity.
	Offline bool
}

// Clock appends the next punch of today's cycle. The kind is never chosen
// by the caller: it is whatever the state machine expects after the last
// punch of today.
func (s *PunchService) Clock(req ClockRequest) (*PunchEvent, error) {
	now := s.clock.Now().Truncate(Precision)
	offset := OffsetOf(now)
	today := LocalDateAt(now, offset)

	events, err := s.database.ListAll()
	if err != nil {
		return nil, fmt.Errorf("listing punches: %w", err)
	}
	last := LastEventOn(events, today)
	kind := NextAction(last)

	ev := PunchEvent{
		ID:            s.idgen.New(),
		Kind:          kind,
		CapturedAt:    now,
		OffsetMinutes: offset,
		Synced:        !req.Offline,
	}
	if req.LocationLabel != "" {
		label := req.LocationLabel
		ev.LocationLabel = &label
	}
	if req.AccuracyMeters != nil {
		if *req.AccuracyMeters < 0 {
			return nil, fmt.Errorf("location accuracy must be non-negative, got %v", *req.AccuracyMeters)
		}
		acc := *req.AccuracyMeters
		ev.LocationAccuracyMeters = &acc
	}
	if req.Source != "" {
		src, err := ParseSource(req.Source)
		if err != nil {
			return nil, err
		}
		ev.Source = &src
	}

	if err := s.database.AppendEvent(ev); err != nil {
		return nil, fmt.Errorf("appending punch: %w", err)
	}

	s.logger.Info("punch recorded", "id", ev.ID, "kind", ev.Kind, "date", today.String())
	return &ev, nil
}

// GetHistory returns the most recent operations, ordered newest first.
func (s *PunchService) GetHistory(limit int) ([]*Operation, error) {
	ops, err := s.database.ListOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

func (s *PunchService) isWorkDay(d Date) bool {
	return slices.Contains(s.workDays, d.Weekday())
}

func (s *PunchService) logAnomalies(d Date, anomalies []Anomaly) {
	for _, a := range anomalies {
		s.logger.Warn("punch anomaly", "date", d.String(), "kind", string(a.Kind), "event", a.EventID, "detail", a.Detail)
	}
}
