package beancount

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/pathutil"
)

// IDKey is the metadata key that carries the ledger transaction id on every
// exported entry.
const IDKey = "ledger_id"

// Repository stores exported entries in one Beancount file per month.
type Repository interface {
	// EnsureMonthFile creates the month file with its header if it is
	// missing and returns its path.
	EnsureMonthFile(yearMonth string) (string, error)

	// AppendTransaction appends entry to the month file unless an entry
	// tagged with id is already there. It reports whether it wrote.
	AppendTransaction(yearMonth, id, entry string) (bool, error)
}

// FileSystemRepository is a file system implementation of Repository.
type FileSystemRepository struct {
	pathResolver *pathutil.PathResolver
	currency     string

	// Clock stamps generated file headers. Tests replace it.
	Clock func() time.Time
}

// NewFileSystemRepository creates a new FileSystemRepository. New monthly
// files declare currency as their operating currency.
func NewFileSystemRepository(pathResolver *pathutil.PathResolver, currency string) *FileSystemRepository {
	return &FileSystemRepository{
		pathResolver: pathResolver,
		currency:     currency,
		Clock:        time.Now,
	}
}

// EnsureMonthFile creates the monthly file with a header. An existing file
// is left untouched.
func (r *FileSystemRepository) EnsureMonthFile(yearMonth string) (string, error) {
	filePath, err := r.pathResolver.GetMonthFilePath(yearMonth)
	if err != nil {
		return "", fmt.Errorf("failed to get month file path: %w", err)
	}
	if r.pathResolver.FileExists(filePath) {
		return filePath, nil
	}

	if err := r.pathResolver.EnsureParentDir(filePath); err != nil {
		return "", fmt.Errorf("failed to ensure parent directory: %w", err)
	}
	if err := os.WriteFile(filePath, []byte(r.header(yearMonth)), 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return filePath, nil
}

// AppendTransaction writes entry followed by a blank line. The month file is
// scanned for the id first, so an entry whose export was never recorded is
// not written twice when the export runs again.
func (r *FileSystemRepository) AppendTransaction(yearMonth, id, entry string) (bool, error) {
	filePath, err := r.EnsureMonthFile(yearMonth)
	if err != nil {
		return false, err
	}

	f, err := os.OpenFile(filePath, os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return false, fmt.Errorf("failed to open file for appending: %w", err)
	}
	defer f.Close()

	found, err := containsID(f, id)
	if err != nil {
		return false, fmt.Errorf("failed to scan %s: %w", filePath, err)
	}
	if found {
		return false, nil
	}

	if !strings.HasSuffix(entry, "\n") {
		entry += "\n"
	}
	if _, err := f.WriteString(entry + "\n"); err != nil {
		return false, fmt.Errorf("failed to write to file: %w", err)
	}
	return true, nil
}

// containsID reports whether any entry in rd carries id in its metadata.
func containsID(rd io.Reader, id string) (bool, error) {
	marker := fmt.Sprintf("%s: %q", IDKey, id)
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == marker {
			return true, nil
		}
	}
	return false, scanner.Err()
}

func (r *FileSystemRepository) header(yearMonth string) string {
	now := r.Clock().Format(time.RFC3339)
	header := fmt.Sprintf("; Ledger export for %s\n; Generated at %s\n", yearMonth, now)
	if r.currency != "" {
		header += fmt.Sprintf("option \"operating_currency\" %q\n", r.currency)
	}
	return header + "\n"
}
