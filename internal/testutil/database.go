package testutil

import (
	"errors"
	"testing"

	"punch-go/internal/database"
	"punch-go/internal/punch"
)

// NewTestDatabase creates a new in-memory SQLite database with migrations
// applied. The database is automatically closed when the test completes.
func NewTestDatabase(t *testing.T, clock punch.Clock) *database.SQLiteDatabase {
	t.Helper()

	db, err := database.NewSQLiteDatabase(":memory:", clock)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.MigrateUp(); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

// NewTestStore creates a test database seeded with events.
func NewTestStore(t *testing.T, clock punch.Clock, events ...punch.PunchEvent) *database.SQLiteDatabase {
	t.Helper()

	db := NewTestDatabase(t, clock)
	for _, ev := range events {
		if err := db.AppendEvent(ev); err != nil {
			t.Fatalf("seeding event %s: %v", ev.ID, err)
		}
	}
	return db
}

// ErrInjected is returned by FailingDatabase.
var ErrInjected = errors.New("injected failure")

// FailingDatabase wraps a Database and fails the operations whose flags are set.
type FailingDatabase struct {
	punch.Database
	FailList   bool
	FailAppend bool
}

func (f *FailingDatabase) ListAll() ([]punch.PunchEvent, error) {
	if f.FailList {
		return nil, ErrInjected
	}
	return f.Database.ListAll()
}

func (f *FailingDatabase) AppendEvent(ev punch.PunchEvent) error {
	if f.FailAppend {
		return ErrInjected
	}
	return f.Database.AppendEvent(ev)
}
