package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
)

const accountColumns = `id, name, kind, balance, opening_balance, color, version, created_at, updated_at`

func scanAccount(s scanner) (*model.Account, error) {
	var a model.Account
	var kind string
	if err := s.Scan(&a.ID, &a.Name, &kind, &a.Balance, &a.OpeningBalance, &a.Color,
		&a.Version, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Kind = model.AccountKind(kind)
	return &a, nil
}

func (r *repo) GetAccount(id string) (*model.Account, error) {
	row := r.tx.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("account", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

func (r *repo) ListAccounts() ([]model.Account, error) {
	rows, err := r.tx.Query(`SELECT ` + accountColumns + ` FROM accounts ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (r *repo) CreateAccount(a *model.Account) error {
	_, err := r.tx.Exec(`
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
	`, a.ID, a.Name, string(a.Kind), a.Balance, a.OpeningBalance, a.Color, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	a.Version = 1
	return nil
}

func (r *repo) UpdateAccount(a *model.Account) error {
	res, err := r.tx.Exec(`
		UPDATE accounts SET
			name = ?, kind = ?, balance = ?, opening_balance = ?, color = ?,
			updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, a.Name, string(a.Kind), a.Balance, a.OpeningBalance, a.Color, a.UpdatedAt, a.ID, a.Version)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return r.checkUpdated(res, "accounts", "account", a.ID, &a.Version)
}

func (r *repo) DeleteAccount(id string) error {
	return r.deleteByID("accounts", id)
}
