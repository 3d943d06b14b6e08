package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"punch-go/internal/database/migrations"
	"punch-go/internal/punch"
)

// SQLiteDatabase implements punch.Database on SQLite. The punches table is
// append-only: triggers abort any UPDATE or DELETE.
type SQLiteDatabase struct {
	db    *sql.DB
	clock punch.Clock
	path  string
}

// NewSQLiteDatabase opens a SQLite database without touching its schema.
// path can be a file path or ":memory:". clock stamps recorded_at and
// operation times; nil means the real clock.
func NewSQLiteDatabase(path string, clock punch.Clock) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = punch.RealClock{}
	}
	return &SQLiteDatabase{db: db, clock: clock, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection. An in-memory
// database is pinned to a single connection: each new connection to
// ":memory:" would otherwise see its own empty database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	return db, nil
}

// Punch log

const punchColumns = `id, kind, captured_at_ms, offset_minutes, location_label,
	location_accuracy_m, source, synced`

func (s *SQLiteDatabase) AppendEvent(ev punch.PunchEvent) error {
	var source sql.NullString
	if ev.Source != nil {
		source = sql.NullString{String: string(*ev.Source), Valid: true}
	}

	_, err := s.db.Exec(`INSERT INTO punches (`+punchColumns+`, recorded_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID,
		string(ev.Kind),
		ev.CapturedAt.UnixMilli(),
		ev.OffsetMinutes,
		nullString(ev.LocationLabel),
		nullFloat(ev.LocationAccuracyMeters),
		source,
		ev.Synced,
		s.clock.Now().UnixMilli(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("appending punch %s: %w", ev.ID, punch.ErrDuplicateEvent)
	}
	if err != nil {
		return fmt.Errorf("appending punch %s: %w", ev.ID, err)
	}
	return nil
}

func (s *SQLiteDatabase) ListAll() ([]punch.PunchEvent, error) {
	rows, err := s.db.Query(`SELECT ` + punchColumns + ` FROM punches ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("listing punches: %w", err)
	}
	defer rows.Close()

	var events []punch.PunchEvent
	for rows.Next() {
		ev, err := scanPunch(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing punches: %w", err)
	}
	return events, nil
}

// scanPunch decodes one row, re-validating the closed sets so a row written
// by a foreign tool cannot smuggle an unknown kind into the calculator.
func scanPunch(rows *sql.Rows) (punch.PunchEvent, error) {
	var (
		ev         punch.PunchEvent
		kind       string
		capturedAt int64
		label      sql.NullString
		accuracy   sql.NullFloat64
		source     sql.NullString
	)
	if err := rows.Scan(&ev.ID, &kind, &capturedAt, &ev.OffsetMinutes, &label, &accuracy, &source, &ev.Synced); err != nil {
		return punch.PunchEvent{}, fmt.Errorf("scanning punch: %w", err)
	}

	k, err := punch.ParseKind(kind)
	if err != nil {
		return punch.PunchEvent{}, withEventID(err, ev.ID)
	}
	ev.Kind = k
	ev.CapturedAt = time.UnixMilli(capturedAt).UTC()

	if label.Valid {
		ev.LocationLabel = &label.String
	}
	if accuracy.Valid {
		ev.LocationAccuracyMeters = &accuracy.Float64
	}
	if source.Valid {
		src, err := punch.ParseSource(source.String)
		if err != nil {
			return punch.PunchEvent{}, withEventID(err, ev.ID)
		}
		ev.Source = &src
	}
	return ev, nil
}

func withEventID(err error, id string) error {
	var malformed *punch.MalformedEventError
	if errors.As(err, &malformed) {
		malformed.EventID = id
	}
	return err
}

// Operation tracking

func (s *SQLiteDatabase) CreateOperation(operation string, parameters string) (*punch.Operation, error) {
	startedAt := s.clock.Now()
	res, err := s.db.Exec(`INSERT INTO operations (started_at_ms, operation, parameters) VALUES (?, ?, ?)`,
		startedAt.UnixMilli(), operation, parameters)
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading operation ID: %w", err)
	}
	return &punch.Operation{
		ID:         id,
		StartedAt:  time.UnixMilli(startedAt.UnixMilli()).UTC(),
		Operation:  operation,
		Parameters: parameters,
		Status:     "running",
	}, nil
}

func (s *SQLiteDatabase) FinishOperation(id int64, status string) error {
	res, err := s.db.Exec(`UPDATE operations SET finished_at_ms = ?, status = ? WHERE id = ?`,
		s.clock.Now().UnixMilli(), status, id)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finishing operation: no operation with ID %d", id)
	}
	return nil
}

func (s *SQLiteDatabase) ListOperations(limit int) ([]*punch.Operation, error) {
	rows, err := s.db.Query(`SELECT id, started_at_ms, finished_at_ms, operation, parameters, status
		FROM operations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*punch.Operation
	for rows.Next() {
		var (
			op         punch.Operation
			startedAt  int64
			finishedAt sql.NullInt64
		)
		if err := rows.Scan(&op.ID, &startedAt, &finishedAt, &op.Operation, &op.Parameters, &op.Status); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		op.StartedAt = time.UnixMilli(startedAt).UTC()
		if finishedAt.Valid {
			t := time.UnixMilli(finishedAt.Int64).UTC()
			op.FinishedAt = &t
		}
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

func (s *SQLiteDatabase) MaxOperationID() (int64, error) {
	var id int64
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(id), 0) FROM operations`).Scan(&id); err != nil {
		return 0, fmt.Errorf("getting max operation ID: %w", err)
	}
	return id, nil
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// MigrateUp applies pending schema migrations.
func (s *SQLiteDatabase) MigrateUp() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo writes a complete copy of the database to destPath using VACUUM
// INTO. destPath must not already exist as a non-empty file.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

var _ punch.Database = (*SQLiteDatabase)(nil)
