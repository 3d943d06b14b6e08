package config

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := NewConfig("device-abc", "/home/user/.local/share/punch")
	original.Calculation.Timezone = "Europe/Berlin"
	original.Vaults = append(original.Vaults, VaultConfig{
		Type: "s3", Name: "offsite", S3Bucket: "timesheets", S3Prefix: "punch/", S3Region: "eu-central-1",
	})

	var buf bytes.Buffer
	m := &Manager{}
	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.DeviceID != original.DeviceID {
		t.Errorf("DeviceID = %q, want %q", got.DeviceID, original.DeviceID)
	}
	if got.Calculation.DailyThresholdMinutes != 540 {
		t.Errorf("DailyThresholdMinutes = %d, want 540", got.Calculation.DailyThresholdMinutes)
	}
	if got.Calculation.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %q, want Europe/Berlin", got.Calculation.Timezone)
	}
	if !slices.Equal(got.Calculation.WorkDays, original.Calculation.WorkDays) {
		t.Errorf("WorkDays = %v, want %v", got.Calculation.WorkDays, original.Calculation.WorkDays)
	}
	if len(got.Vaults) != 2 {
		t.Fatalf("len(Vaults) = %d, want 2", len(got.Vaults))
	}
	if got.Vaults[1].S3Bucket != "timesheets" {
		t.Errorf("Vaults[1].S3Bucket = %q, want timesheets", got.Vaults[1].S3Bucket)
	}
	if got.Sync.PollInterval != "30s" {
		t.Errorf("Sync.PollInterval = %q, want 30s", got.Sync.PollInterval)
	}
}

func TestManager_Read(t *testing.T) {
	t.Run("decodes a hand-written file", func(t *testing.T) {
		input := `
device_id = "d1"
base_dir = "/data"

[calculation]
daily_threshold_minutes = 480
work_days = ["Mon", "tuesday"]

[database]
type = "memory"

[[vaults]]
type = "memory"
name = "scratch"

[sync]
poll_interval = "5s"
`
		cfg, err := (&Manager{}).Read(strings.NewReader(input))
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if cfg.Calculation.DailyThresholdMinutes != 480 {
			t.Errorf("DailyThresholdMinutes = %d, want 480", cfg.Calculation.DailyThresholdMinutes)
		}
		days, err := cfg.Calculation.Weekdays()
		if err != nil {
			t.Fatalf("Weekdays() error = %v", err)
		}
		if want := []time.Weekday{time.Monday, time.Tuesday}; !slices.Equal(days, want) {
			t.Errorf("Weekdays() = %v, want %v", days, want)
		}
		interval, err := cfg.Sync.Interval()
		if err != nil {
			t.Fatalf("Interval() error = %v", err)
		}
		if interval != 5*time.Second {
			t.Errorf("Interval() = %s, want 5s", interval)
		}
	})

	t.Run("rejects malformed toml", func(t *testing.T) {
		if _, err := (&Manager{}).Read(strings.NewReader("device_id = ")); err == nil {
			t.Error("Read() expected error for malformed input")
		}
	})
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("device-1", "/data/punch")

	if cfg.DeviceID != "device-1" {
		t.Errorf("DeviceID = %q, want %q", cfg.DeviceID, "device-1")
	}
	if cfg.LogDir != "/data/punch/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/punch/log")
	}
	if cfg.Database.DataDir != "/data/punch/db" {
		t.Errorf("Database.DataDir = %q, want %q", cfg.Database.DataDir, "/data/punch/db")
	}
	if cfg.Encryption.PublicKeyPath != "/data/punch/keys/punch.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q", cfg.Encryption.PublicKeyPath)
	}
	if len(cfg.Vaults) != 1 || cfg.Vaults[0].FSVaultRoot != "/data/punch/vault" {
		t.Errorf("Vaults = %+v, want one filesystem vault under base dir", cfg.Vaults)
	}
}

func TestCalculationConfig_Location(t *testing.T) {
	t.Run("empty is local", func(t *testing.T) {
		loc, err := CalculationConfig{}.Location()
		if err != nil {
			t.Fatalf("Location() error = %v", err)
		}
		if loc != time.Local {
			t.Errorf("Location() = %v, want Local", loc)
		}
	})

	t.Run("loads a named zone", func(t *testing.T) {
		loc, err := CalculationConfig{Timezone: "UTC"}.Location()
		if err != nil {
			t.Fatalf("Location() error = %v", err)
		}
		if loc.String() != "UTC" {
			t.Errorf("Location() = %v, want UTC", loc)
		}
	})

	t.Run("rejects unknown zone", func(t *testing.T) {
		if _, err := (CalculationConfig{Timezone: "Mars/Olympus"}).Location(); err == nil {
			t.Error("Location() expected error")
		}
	})
}

func TestCalculationConfig_Weekdays(t *testing.T) {
	t.Run("empty returns nil", func(t *testing.T) {
		days, err := CalculationConfig{}.Weekdays()
		if err != nil || days != nil {
			t.Errorf("Weekdays() = %v, %v; want nil, nil", days, err)
		}
	})

	t.Run("rejects unknown names", func(t *testing.T) {
		if _, err := (CalculationConfig{WorkDays: []string{"mon", "funday"}}).Weekdays(); err == nil {
			t.Error("Weekdays() expected error")
		}
	})
}

func TestSyncConfig_Interval(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{name: "empty uses default", in: "", want: DefaultPollInterval},
		{name: "parses minutes", in: "2m", want: 2 * time.Minute},
		{name: "rejects garbage", in: "soon", wantErr: true},
		{name: "rejects zero", in: "0s", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SyncConfig{PollInterval: tt.in}.Interval()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Interval() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Interval() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "punch.toml")

		if err := Init(path, NewConfig("d1", dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "punch.toml")
		cfg := NewConfig("d1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}
		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "punch.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.DeviceID != "read-test" {
			t.Errorf("DeviceID = %q, want %q", got.DeviceID, "read-test")
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want memory", got.Database.Type)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/punch.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
