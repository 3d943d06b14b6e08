package punch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ImportResult summarizes an Import.
type ImportResult struct {
	Imported   int
	Duplicates int
	Rejected   []*MalformedEventError
}

// Import appends punches queued offline by a device. r holds a JSON array of
// Records. Records may arrive in any order. Malformed records are rejected
// and reported without stopping the import; records whose ID is already
// stored are skipped.
func (s *PunchService) Import(r io.Reader) (*ImportResult, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding punch records: %w", err)
	}

	result := &ImportResult{}
	for _, msg := range raw {
		ev, err := decodeRecord(msg)
		if err != nil {
			var malformed *MalformedEventError
			if !errors.As(err, &malformed) {
				return result, err
			}
			s.logger.Warn("punch rejected", "id", malformed.EventID, "field", malformed.Field, "reason", malformed.Reason)
			result.Rejected = append(result.Rejected, malformed)
			continue
		}

		if err := s.database.AppendEvent(ev); err != nil {
			if errors.Is(err, ErrDuplicateEvent) {
				s.logger.Debug("punch already recorded", "id", ev.ID)
				result.Duplicates++
				continue
			}
			return result, fmt.Errorf("appending punch %s: %w", ev.ID, err)
		}
		result.Imported++
	}

	s.logger.Info("punches imported", "imported", result.Imported, "duplicates", result.Duplicates, "rejected", len(result.Rejected))
	return result, nil
}

// decodeRecord unmarshals and validates one record. A record whose JSON does
// not fit the Record shape is malformed as a whole; its ID is reported when
// it can be read.
func decodeRecord(msg json.RawMessage) (PunchEvent, error) {
	var rec Record
	if err := json.Unmarshal(msg, &rec); err != nil {
		var id struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(msg, &id)
		return PunchEvent{}, &MalformedEventError{EventID: id.ID, Field: "record", Reason: err.Error()}
	}
	return ParseRecord(rec)
}
