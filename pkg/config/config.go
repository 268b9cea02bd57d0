// Package config provides configuration management for the ledger.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/cashflow"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/pathutil"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

// Config represents the application configuration.
type Config struct {
	Store  StoreConfig
	Export ExportConfig
	Server ServerConfig
	Ledger LedgerConfig
	Debug  bool
	Env    string
}

// StoreConfig selects and locates the storage backend.
type StoreConfig struct {
	Driver   string
	DataDir  string
	DBPath   string
	BoltPath string
}

// ExportConfig represents Beancount export configuration.
type ExportConfig struct {
	Root        string
	MappingFile string
}

// ServerConfig represents the HTTP server configuration.
type ServerConfig struct {
	Addr string
}

// LedgerConfig holds the domain settings.
type LedgerConfig struct {
	Currency       string
	ProjectionDays int
	SeedFile       string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	days, err := parseIntEnv("LEDGER_PROJECTION_DAYS", 30)
	if err != nil {
		return nil, err
	}
	if days < 1 || days > cashflow.MaxProjectionDays {
		return nil, fmt.Errorf("invalid LEDGER_PROJECTION_DAYS: %d (expected 1 to %d)", days, cashflow.MaxProjectionDays)
	}

	driver := strings.ToLower(getEnvOrDefault("LEDGER_STORE", DriverSQLite))
	if driver != DriverSQLite && driver != DriverBolt {
		return nil, fmt.Errorf("invalid LEDGER_STORE: %q (expected %s or %s)", driver, DriverSQLite, DriverBolt)
	}

	config := &Config{
		Store: StoreConfig{
			Driver:   driver,
			DataDir:  getEnvOrDefault("LEDGER_DATA_DIR", "./data"),
			DBPath:   os.Getenv("LEDGER_DB_PATH"),
			BoltPath: os.Getenv("LEDGER_BOLT_PATH"),
		},
		Export: ExportConfig{
			Root:        os.Getenv("LEDGER_EXPORT_ROOT"),
			MappingFile: os.Getenv("LEDGER_MAPPING_FILE"),
		},
		Server: ServerConfig{
			Addr: getEnvOrDefault("LEDGER_HTTP_ADDR", ":8080"),
		},
		Ledger: LedgerConfig{
			Currency:       getEnvOrDefault("LEDGER_CURRENCY", "MXN"),
			ProjectionDays: days,
			SeedFile:       os.Getenv("LEDGER_SEED_FILE"),
		},
		Debug: os.Getenv("DEBUG") == "true",
		Env:   getEnvOrDefault("LEDGER_ENV", "development"),
	}

	return config, nil
}

// Paths returns the resolver for the configured file locations.
func (c *Config) Paths() *pathutil.PathResolver {
	return pathutil.New(pathutil.Config{
		DataDir:      c.Store.DataDir,
		DatabasePath: c.Store.DBPath,
		BoltPath:     c.Store.BoltPath,
		ExportRoot:   c.Export.Root,
	})
}

// Validate validates the configuration.
// It checks if all required fields are set.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "store":
			switch path[1] {
			case "driver":
				value = c.Store.Driver
			case "dataDir":
				value = c.Store.DataDir
			case "dbPath":
				value = c.Store.DBPath
			case "boltPath":
				value = c.Store.BoltPath
			}
		case "export":
			switch path[1] {
			case "root":
				value = c.Export.Root
			case "mappingFile":
				value = c.Export.MappingFile
			}
		case "server":
			if path[1] == "addr" {
				value = c.Server.Addr
			}
		case "ledger":
			switch path[1] {
			case "currency":
				value = c.Ledger.Currency
			case "seedFile":
				value = c.Ledger.SeedFile
			}
		}

		if value == "" {
			missing = append(missing, strings.Join(path, "."))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv parses an int from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %s", key, value)
	}

	return parsed, nil
}
