package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	homeBase := filepath.Join(homeDir, ".local", "share", "punch")

	tests := []struct {
		name       string
		configEnv  string
		homeEnv    string
		wantConfig string
		wantBase   string
	}{
		{
			name:       "uses env vars when set",
			configEnv:  "/custom/config.toml",
			homeEnv:    "/custom/punch",
			wantConfig: "/custom/config.toml",
			wantBase:   "/custom/punch",
		},
		{
			name:       "falls back to home dir defaults",
			wantConfig: filepath.Join(homeDir, ".config", "punch.toml"),
			wantBase:   homeBase,
		},
		{
			name:       "data dir can move without the config",
			homeEnv:    "/srv/punch",
			wantConfig: filepath.Join(homeDir, ".config", "punch.toml"),
			wantBase:   "/srv/punch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PUNCH_CONFIG_PATH", tt.configEnv)
			t.Setenv("PUNCH_HOME", tt.homeEnv)

			defaults, err := GetDefaults()
			if err != nil {
				t.Fatalf("GetDefaults() error = %v", err)
			}
			if defaults["config_path"] != tt.wantConfig {
				t.Errorf("config_path = %q, want %q", defaults["config_path"], tt.wantConfig)
			}
			if defaults["base_dir"] != tt.wantBase {
				t.Errorf("base_dir = %q, want %q", defaults["base_dir"], tt.wantBase)
			}
			if want := filepath.Join(tt.wantBase, "log"); defaults["log_dir"] != want {
				t.Errorf("log_dir = %q, want %q", defaults["log_dir"], want)
			}
		})
	}
}
