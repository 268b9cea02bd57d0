// Package pathutil provides centralized path management for the ledger's
// data directory, databases and Beancount exports.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathResolver manages paths for the databases and the exported Beancount files.
type PathResolver struct {
	dataDir      string
	databasePath string
	boltPath     string
	exportRoot   string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// DataDir is the root directory for everything the ledger writes (e.g., ./data)
	DataDir string
	// DatabasePath is the SQLite database file
	DatabasePath string
	// BoltPath is the bbolt database file
	BoltPath string
	// ExportRoot is the root directory of the Beancount export
	ExportRoot string
}

// New creates a new PathResolver with the given configuration.
// Empty paths default to locations under DataDir:
//
//	{DataDir}/ledger.db, {DataDir}/ledger.bolt, {DataDir}/beancount
func New(config Config) *PathResolver {
	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "data"
	}

	dbPath := config.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "ledger.db")
	}

	boltPath := config.BoltPath
	if boltPath == "" {
		boltPath = filepath.Join(dataDir, "ledger.bolt")
	}

	exportRoot := config.ExportRoot
	if exportRoot == "" {
		exportRoot = filepath.Join(dataDir, "beancount")
	}

	return &PathResolver{
		dataDir:      dataDir,
		databasePath: dbPath,
		boltPath:     boltPath,
		exportRoot:   exportRoot,
	}
}

// GetDataDir returns the data directory.
func (p *PathResolver) GetDataDir() string {
	return p.dataDir
}

// GetDatabasePath returns the SQLite database file path.
func (p *PathResolver) GetDatabasePath() string {
	return p.databasePath
}

// GetBoltPath returns the bbolt database file path.
func (p *PathResolver) GetBoltPath() string {
	return p.boltPath
}

// GetExportRoot returns the Beancount export directory.
func (p *PathResolver) GetExportRoot() string {
	return p.exportRoot
}

// GetYearDir returns the export directory for a year.
// Example: data/beancount/2024
func (p *PathResolver) GetYearDir(year string) string {
	return filepath.Join(p.exportRoot, year)
}

// GetMonthFilePath returns the export file path for a month.
// yearMonth should be in YYYY-MM format.
// Example: data/beancount/2024/2024-01.beancount
func (p *PathResolver) GetMonthFilePath(yearMonth string) (string, error) {
	parts := strings.Split(yearMonth, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return "", fmt.Errorf("invalid year-month format: %s. Expected YYYY-MM", yearMonth)
	}

	return filepath.Join(p.GetYearDir(parts[0]), yearMonth+".beancount"), nil
}

// EnsureDir creates a directory if it doesn't exist, like mkdir -p.
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	return p.EnsureDir(filepath.Dir(filePath))
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
