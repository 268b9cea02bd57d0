package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/store"
)

var (
	_ store.Store = (*Store)(nil)
	_ store.Repo  = (*repo)(nil)
)

// Store is the SQLite implementation of store.Store.
type Store struct {
	conn *Connection
}

// NewStore opens the SQLite database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.conn.GetPath()
}

// Update runs fn inside one SQLite transaction.
func (s *Store) Update(ctx context.Context, fn func(store.Repo) error) error {
	return s.conn.Transaction(ctx, func(tx *sql.Tx) error {
		return fn(&repo{tx: tx})
	})
}

// View runs fn inside a transaction that is rolled back afterwards.
func (s *Store) View(ctx context.Context, fn func(store.Repo) error) error {
	return s.conn.Snapshot(ctx, func(tx *sql.Tx) error {
		return fn(&repo{tx: tx})
	})
}

// repo implements store.Repo on one *sql.Tx.
type repo struct {
	tx *sql.Tx
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// checkUpdated turns a zero-row versioned UPDATE into the right error.
func (r *repo) checkUpdated(res sql.Result, table, entity, id string, version *int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		*version++
		return nil
	}

	var stored int64
	err = r.tx.QueryRow(`SELECT version FROM `+table+` WHERE id = ?`, id).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NotFound(entity, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s version: %w", entity, err)
	}
	return fmt.Errorf("%w: %s %s is at version %d, got %d", model.ErrConflict, entity, id, stored, *version)
}

func (r *repo) deleteByID(table, id string) error {
	if _, err := r.tx.Exec(`DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

func toJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal: %w", err)
	}
	return string(data), nil
}

func fromJSON(data string, v interface{}) error {
	if data == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("failed to unmarshal: %w", err)
	}
	return nil
}
