package punch

import "time"

// EventStore is the append-only punch log. Implementations never update or
// delete an event once appended.
type EventStore interface {
	// AppendEvent stores ev. It returns ErrDuplicateEvent if an event with
	// the same ID is already stored.
	AppendEvent(ev PunchEvent) error

	// ListAll returns every stored event in insertion order. Insertion order
	// carries no meaning: offline-queued punches may arrive late.
	ListAll() ([]PunchEvent, error)
}

// Operation is an audit record of a CLI command that mutated the log.
type Operation struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt *time.Time
	Operation  string
	Parameters string
	Status     string
}

// Database is the local store: the event log plus the operation audit log.
type Database interface {
	EventStore

	// CreateOperation records the start of a mutating command and returns it
	// with its auto-increment ID.
	CreateOperation(operation, parameters string) (*Operation, error)

	// FinishOperation stamps the finish time and final status.
	FinishOperation(id int64, status string) error

	// ListOperations returns the most recent operations, newest first.
	ListOperations(limit int) ([]*Operation, error)

	// MaxOperationID returns the highest operation ID, or 0 if there is none.
	MaxOperationID() (int64, error)

	// BackupTo writes a consistent snapshot of the database to path.
	BackupTo(path string) error

	// CheckMigrations returns an error if the schema is not up to date.
	CheckMigrations() error

	Close() error
}
