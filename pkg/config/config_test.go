package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var ledgerEnv = []string{
	"LEDGER_STORE", "LEDGER_DATA_DIR", "LEDGER_DB_PATH", "LEDGER_BOLT_PATH",
	"LEDGER_EXPORT_ROOT", "LEDGER_SEED_FILE", "LEDGER_MAPPING_FILE",
	"LEDGER_HTTP_ADDR", "LEDGER_CURRENCY", "LEDGER_PROJECTION_DAYS",
	"DEBUG", "LEDGER_ENV",
}

// clearEnv unsets every variable Load reads and writes an empty .env so
// that a developer's local file does not leak into the test.
func clearEnv(t *testing.T) string {
	t.Helper()
	for _, key := range ledgerEnv {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	envPath := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envPath, nil, 0644); err != nil {
		t.Fatal(err)
	}
	return envPath
}

func TestLoadDefaults(t *testing.T) {
	envPath := clearEnv(t)

	cfg, err := Load(envPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"driver", cfg.Store.Driver, DriverSQLite},
		{"data dir", cfg.Store.DataDir, "./data"},
		{"addr", cfg.Server.Addr, ":8080"},
		{"currency", cfg.Ledger.Currency, "MXN"},
		{"projection days", cfg.Ledger.ProjectionDays, 30},
		{"debug", cfg.Debug, false},
		{"env", cfg.Env, "development"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, expected %v", tt.got, tt.expected)
			}
		})
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	envPath := filepath.Join(t.TempDir(), "custom.env")
	content := strings.Join([]string{
		"LEDGER_STORE=bolt",
		"LEDGER_DATA_DIR=/srv/ledger",
		"LEDGER_PROJECTION_DAYS=7",
		"LEDGER_CURRENCY=USD",
		"DEBUG=true",
	}, "\n")
	if err := os.WriteFile(envPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(envPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store.Driver != DriverBolt {
		t.Errorf("Driver = %q, expected %q", cfg.Store.Driver, DriverBolt)
	}
	if cfg.Ledger.ProjectionDays != 7 {
		t.Errorf("ProjectionDays = %d, expected 7", cfg.Ledger.ProjectionDays)
	}
	if !cfg.Debug {
		t.Error("Debug = false, expected true")
	}
	if got := cfg.Paths().GetBoltPath(); got != filepath.Join("/srv/ledger", "ledger.bolt") {
		t.Errorf("bolt path = %q", got)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown driver", "LEDGER_STORE", "postgres"},
		{"non-numeric days", "LEDGER_PROJECTION_DAYS", "thirty"},
		{"zero days", "LEDGER_PROJECTION_DAYS", "0"},
		{"days above a year", "LEDGER_PROJECTION_DAYS", "9000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envPath := clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(envPath); err == nil {
				t.Errorf("Load() with %s=%q succeeded, expected error", tt.key, tt.value)
			}
		})
	}
}

func TestLoadMissingEnvFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("Load() with a missing explicit file succeeded, expected error")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Store:  StoreConfig{Driver: DriverSQLite, DataDir: "./data"},
		Server: ServerConfig{Addr: ":8080"},
	}

	if err := cfg.Validate([]string{"store", "driver"}, []string{"server", "addr"}); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	err := cfg.Validate([]string{"store", "driver"}, []string{"export", "mappingFile"}, []string{"ledger", "seedFile"})
	if err == nil {
		t.Fatal("Validate() succeeded, expected missing fields")
	}
	for _, want := range []string{"export.mappingFile", "ledger.seedFile"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
	if strings.Contains(err.Error(), "store.driver") {
		t.Errorf("error %q mentions a field that is set", err)
	}
}
