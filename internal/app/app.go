package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"punch-go/internal/config"
	"punch-go/internal/database"
	"punch-go/internal/encryption"
	"punch-go/internal/export"
	"punch-go/internal/punch"
	"punch-go/internal/vault"
)

// metadataName is the vault metadata item holding the database snapshot.
const metadataName = "db"

// PunchApp is the application layer between the CLI and PunchService.
// It constructs all dependencies from config, exposes high-level operations,
// and manages the DB lifecycle on Close.
type PunchApp struct {
	cfg       *config.Config
	db        punch.Database
	vault     punch.Vault
	encryptor punch.Encryptor
	service   *punch.PunchService
	clock     punch.Clock
	op        *AuditOperation
	logFile   *os.File
}

// NewPunchApp creates a fully wired PunchApp from the given config.
// operation identifies the CLI command being run (e.g. "Clock", "Import").
// The caller must call Close when done.
func NewPunchApp(cfg *config.Config, operation string) (*PunchApp, error) {
	loc, err := cfg.Calculation.Location()
	if err != nil {
		return nil, err
	}
	return newPunchApp(cfg, operation, punch.RealClock{Location: loc}, punch.UUIDGenerator{}, os.Stderr)
}

func newPunchApp(cfg *config.Config, operation string, clock punch.Clock, idgen punch.IDGenerator, stderr io.Writer) (*PunchApp, error) {
	workDays, err := cfg.Calculation.Weekdays()
	if err != nil {
		return nil, fmt.Errorf("reading work days: %w", err)
	}

	if len(cfg.Vaults) == 0 {
		return nil, fmt.Errorf("no vaults configured")
	}
	v, err := vault.NewVaultFromConfig(cfg.Vaults[0])
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.DeviceID, clock)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	// A snapshot uploaded by a later operation means this copy is stale.
	remoteVersion, err := v.GetMetadataVersion(cfg.DeviceID, metadataName)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("checking remote metadata version: %w", err)
	}

	localMax, err := db.MaxOperationID()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("checking local metadata version: %w", err)
	}

	if remoteVersion > localMax {
		db.Close()
		return nil, fmt.Errorf("local database is behind remote (local=%d, remote=%d): restore from vault or re-initialize", localMax, remoteVersion)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	opID := clock.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID, stderr)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := punch.NewPunchService(db, &slogAdapter{l: logger}, clock, idgen, punch.Settings{
		ThresholdMinutes: cfg.Calculation.DailyThresholdMinutes,
		WorkDays:         workDays,
	})

	return &PunchApp{
		cfg:       cfg,
		db:        db,
		vault:     v,
		encryptor: enc,
		service:   svc,
		clock:     clock,
		op:        NewAuditOperation(operation, ""),
		logFile:   logFile,
	}, nil
}

// persistOperation saves the audit operation to the database, giving it an
// auto-increment ID. Only commands that append punches call it.
func (a *PunchApp) persistOperation(parameters string) error {
	if a.op.Persisted() {
		return nil
	}
	a.op.Parameters = parameters
	dbOp, err := a.db.CreateOperation(a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

// Clock records the next punch of today's cycle.
func (a *PunchApp) Clock(req punch.ClockRequest) (*punch.PunchEvent, error) {
	if err := a.persistOperation(req.LocationLabel); err != nil {
		return nil, err
	}
	ev, err := a.service.Clock(req)
	if err != nil {
		a.op.Fail()
		return nil, err
	}
	return ev, nil
}

// Import appends the offline-queued punches in the JSON file at path.
func (a *PunchApp) Import(path string) (*punch.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()

	if err := a.persistOperation(path); err != nil {
		return nil, err
	}
	res, err := a.service.Import(f)
	if err != nil {
		a.op.Fail()
		return res, err
	}
	return res, nil
}

// Status returns today's punches, the next expected action and live totals.
func (a *PunchApp) Status() (*punch.DayStatus, error) {
	return a.service.Status()
}

// Timesheet returns the reconstructed days of month.
func (a *PunchApp) Timesheet(month punch.YearMonth) (*punch.Timesheet, error) {
	return a.service.Timesheet(month)
}

// CurrentMonth returns the month that is current on the device.
func (a *PunchApp) CurrentMonth() punch.YearMonth {
	now := a.clock.Now()
	return punch.LocalDateAt(now, punch.OffsetOf(now)).YearMonth()
}

// GetHistory returns the most recent audited operations.
func (a *PunchApp) GetHistory(limit int) ([]*punch.Operation, error) {
	return a.service.GetHistory(limit)
}

// ExportOptions selects how a timesheet export is produced.
type ExportOptions struct {
	Month   punch.YearMonth
	Format  export.Format
	Encrypt bool

	// ToVault stores the export in the vault instead of writing it to the
	// caller's writer.
	ToVault bool
}

// Export renders the closed-out timesheet of opts.Month: a span still open
// today contributes nothing. The rendered bytes go to w, or to the vault
// when opts.ToVault is set. It returns the export's name.
func (a *PunchApp) Export(opts ExportOptions, w io.Writer) (string, error) {
	ts, err := a.service.ClosedTimesheet(opts.Month)
	if err != nil {
		return "", err
	}

	name := export.FileName(ts, opts.Format)
	var buf bytes.Buffer
	if err := export.Render(&buf, ts, opts.Format); err != nil {
		return "", fmt.Errorf("rendering export: %w", err)
	}

	if opts.Encrypt {
		if !a.encryptor.IsConfigured() {
			return "", fmt.Errorf("encryption keys not configured: run `punch config keys`")
		}
		var sealed bytes.Buffer
		if err := a.encryptor.Encrypt(&buf, &sealed); err != nil {
			return "", fmt.Errorf("encrypting export: %w", err)
		}
		buf = sealed
		name += ".age"
	}

	if opts.ToVault {
		if err := a.vault.PutExport(name, bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
			return "", fmt.Errorf("storing export in vault: %w", err)
		}
		return name, nil
	}

	if _, err := buf.WriteTo(w); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return name, nil
}

// ListExports returns the names of the exports stored in the vault.
func (a *PunchApp) ListExports() ([]string, error) {
	return a.vault.ListExports()
}

// DecryptExport fetches an encrypted export from the vault, unlocks the
// private key with passphrase and writes the plaintext to w.
func (a *PunchApp) DecryptExport(name, passphrase string, w io.Writer) error {
	var sealed bytes.Buffer
	if err := a.vault.GetExport(name, &sealed); err != nil {
		return fmt.Errorf("fetching export: %w", err)
	}

	dc, err := a.encryptor.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking private key: %w", err)
	}
	if err := dc.Decrypt(&sealed, w); err != nil {
		return fmt.Errorf("decrypting export: %w", err)
	}
	return nil
}

// Watch calls fn with today's status immediately and then every interval
// until ctx is cancelled. Punches appended by other processes (the clock
// action, an import) show up on the next tick.
func (a *PunchApp) Watch(ctx context.Context, interval time.Duration, fn func(*punch.DayStatus) error) error {
	if interval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %s", interval)
	}

	emit := func() error {
		st, err := a.service.Status()
		if err != nil {
			return err
		}
		return fn(st)
	}

	if err := emit(); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := emit(); err != nil {
				return err
			}
		}
	}
}

// Close finalizes the operation and closes all resources.
// For persisted operations: finishes the operation record, snapshots the DB, and uploads it to the vault.
// For non-persisted operations: just closes the database.
func (a *PunchApp) Close() error {
	var firstErr error

	if a.op.Persisted() {
		if err := a.db.FinishOperation(a.op.ID, a.op.Status); err != nil {
			firstErr = fmt.Errorf("finishing operation: %w", err)
		}

		var tmpPath string
		tmpFile, err := os.CreateTemp("", "punch-db-snapshot-*.db")
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("creating temp file for db snapshot: %w", err)
			}
		} else {
			tmpPath = tmpFile.Name()
			tmpFile.Close()

			if err := a.db.BackupTo(tmpPath); err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("snapshotting database: %w", err)
				}
				tmpPath = ""
			}
		}

		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing database: %w", err)
		}

		if tmpPath != "" {
			if err := a.uploadMetadata(tmpPath, a.op.ID); err != nil && firstErr == nil {
				firstErr = err
			}
			os.Remove(tmpPath)
		}
	} else {
		if err := a.db.Close(); err != nil {
			firstErr = fmt.Errorf("closing database: %w", err)
		}
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

// uploadMetadata opens the DB snapshot and uploads it to the vault as metadata.
func (a *PunchApp) uploadMetadata(path string, version int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening db snapshot for upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat db snapshot: %w", err)
	}

	if err := a.vault.PutMetadata(a.cfg.DeviceID, metadataName, f, info.Size(), version); err != nil {
		return fmt.Errorf("uploading metadata to vault: %w", err)
	}
	return nil
}

// ValidateVault builds the first configured vault and checks it is reachable.
func ValidateVault(cfg *config.Config) error {
	if len(cfg.Vaults) == 0 {
		return fmt.Errorf("no vaults configured")
	}
	v, err := vault.NewVaultFromConfig(cfg.Vaults[0])
	if err != nil {
		return fmt.Errorf("creating vault: %w", err)
	}
	return v.ValidateSetup()
}

// SetupKeys generates the export key pair, protecting the private key with
// passphrase.
func SetupKeys(cfg *config.Config, passphrase string) error {
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if err := enc.Setup(passphrase); err != nil {
		return fmt.Errorf("setting up keys: %w", err)
	}
	return nil
}
