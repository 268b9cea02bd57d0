package db

import (
	"fmt"
	"time"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
)

// AppendCommand records a classified command.
func (r *repo) AppendCommand(rec *model.CommandRecord) error {
	query := `
		INSERT INTO command_log (text, kind, status, message, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	res, err := r.tx.Exec(query, rec.Text, rec.Kind, rec.Status, rec.Message, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record command: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get command id: %w", err)
	}
	rec.ID = id

	return nil
}

// ExportedIDs retrieves every transaction id already written to Beancount.
// This is useful for bulk filtering.
func (r *repo) ExportedIDs() (map[string]bool, error) {
	rows, err := r.tx.Query(`SELECT transaction_id FROM export_history`)
	if err != nil {
		return nil, fmt.Errorf("failed to get exported IDs: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan transaction ID: %w", err)
		}
		ids[id] = true
	}

	return ids, rows.Err()
}

// MarkExported records an export.
// If the transaction was exported before, the record is replaced.
func (r *repo) MarkExported(rec model.ExportRecord) error {
	query := `
		INSERT INTO export_history (transaction_id, beancount_file, exported_at)
		VALUES (?, ?, ?)
		ON CONFLICT(transaction_id) DO UPDATE SET
			beancount_file = excluded.beancount_file,
			exported_at = excluded.exported_at
	`

	if _, err := r.tx.Exec(query, rec.TransactionID, rec.File, rec.ExportedAt); err != nil {
		return fmt.Errorf("failed to record export: %w", err)
	}

	return nil
}

// Stats retrieves command and export statistics.
func (r *repo) Stats() (*model.Stats, error) {
	stats := &model.Stats{Commands: make(map[string]int)}

	rows, err := r.tx.Query(`SELECT kind, COUNT(*) FROM command_log GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to get command counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("failed to scan command count: %w", err)
		}
		stats.Commands[kind] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.tx.QueryRow(`SELECT COUNT(*) FROM export_history`).Scan(&stats.Exported)
	if err != nil {
		return nil, fmt.Errorf("failed to get export count: %w", err)
	}

	if stats.LastCommand, err = r.latest(`SELECT created_at FROM command_log ORDER BY created_at DESC LIMIT 1`); err != nil {
		return nil, fmt.Errorf("failed to get last command time: %w", err)
	}
	if stats.LastExport, err = r.latest(`SELECT exported_at FROM export_history ORDER BY exported_at DESC LIMIT 1`); err != nil {
		return nil, fmt.Errorf("failed to get last export time: %w", err)
	}

	return stats, nil
}

// latest returns the single timestamp selected by query, or nil when the
// table is empty.
func (r *repo) latest(query string) (*time.Time, error) {
	rows, err := r.tx.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var at time.Time
	if err := rows.Scan(&at); err != nil {
		return nil, err
	}
	return &at, nil
}
