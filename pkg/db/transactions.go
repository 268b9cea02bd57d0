package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
)

const transactionColumns = `id, date, direction, amount, category, subcategory, description,
	account_id, evidence, version, created_at, updated_at`

func scanTransaction(s scanner) (*model.Transaction, error) {
	var t model.Transaction
	var direction string
	if err := s.Scan(&t.ID, &t.Date, &direction, &t.Amount, &t.Category, &t.Subcategory,
		&t.Description, &t.AccountID, &t.Evidence, &t.Version, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Direction = model.Direction(direction)
	return &t, nil
}

func (r *repo) GetTransaction(id string) (*model.Transaction, error) {
	row := r.tx.QueryRow(`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("transaction", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

func (r *repo) ListTransactions(accountID string) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions`
	var args []interface{}
	if accountID != "" {
		query += ` WHERE account_id = ?`
		args = append(args, accountID)
	}
	query += ` ORDER BY rowid`

	rows, err := r.tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txns := []model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *t)
	}
	return txns, rows.Err()
}

func (r *repo) CreateTransaction(t *model.Transaction) error {
	_, err := r.tx.Exec(`
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`, t.ID, t.Date, string(t.Direction), t.Amount, t.Category, t.Subcategory, t.Description,
		t.AccountID, t.Evidence, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	t.Version = 1
	return nil
}

// UpdateTransaction rewrites the descriptive fields of a transaction.
// Amount, direction and account are immutable once recorded.
func (r *repo) UpdateTransaction(t *model.Transaction) error {
	res, err := r.tx.Exec(`
		UPDATE transactions SET
			category = ?, subcategory = ?, description = ?, evidence = ?,
			updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, t.Category, t.Subcategory, t.Description, t.Evidence, t.UpdatedAt, t.ID, t.Version)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return r.checkUpdated(res, "transactions", "transaction", t.ID, &t.Version)
}

func (r *repo) DeleteTransaction(id string) error {
	return r.deleteByID("transactions", id)
}

func (r *repo) DeleteTransactionsByAccount(accountID string) (int, error) {
	res, err := r.tx.Exec(`DELETE FROM transactions WHERE account_id = ?`, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete account transactions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}
