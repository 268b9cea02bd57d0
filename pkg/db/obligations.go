package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
)

const payableColumns = `id, name, amount, due_date, category, subcategory, recurring, frequency,
	previous_amount, notes, receipt, is_paid, paid_amount, payments, version, created_at, updated_at`

func scanPayable(s scanner) (*model.Payable, error) {
	var p model.Payable
	var frequency, payments string
	if err := s.Scan(&p.ID, &p.Name, &p.Amount, &p.DueDate, &p.Category, &p.Subcategory,
		&p.Recurring, &frequency, &p.PreviousAmount, &p.Notes, &p.Receipt, &p.IsPaid,
		&p.PaidAmount, &payments, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Frequency = model.Frequency(frequency)
	p.Payments = []model.Payment{}
	if err := fromJSON(payments, &p.Payments); err != nil {
		return nil, fmt.Errorf("payments of payable %s: %w", p.ID, err)
	}
	return &p, nil
}

func (r *repo) GetPayable(id string) (*model.Payable, error) {
	row := r.tx.QueryRow(`SELECT `+payableColumns+` FROM payables WHERE id = ?`, id)
	p, err := scanPayable(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("payable", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payable: %w", err)
	}
	return p, nil
}

func (r *repo) ListPayables() ([]model.Payable, error) {
	rows, err := r.tx.Query(`SELECT ` + payableColumns + ` FROM payables ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list payables: %w", err)
	}
	defer rows.Close()

	payables := []model.Payable{}
	for rows.Next() {
		p, err := scanPayable(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payable: %w", err)
		}
		payables = append(payables, *p)
	}
	return payables, rows.Err()
}

func (r *repo) CreatePayable(p *model.Payable) error {
	payments, err := toJSON(nonNilPayments(p.Payments))
	if err != nil {
		return err
	}
	_, err = r.tx.Exec(`
		INSERT INTO payables (`+payableColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`, p.ID, p.Name, p.Amount, p.DueDate, p.Category, p.Subcategory, p.Recurring,
		string(p.Frequency), p.PreviousAmount, p.Notes, p.Receipt, p.IsPaid, p.PaidAmount,
		payments, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payable: %w", err)
	}
	p.Version = 1
	return nil
}

func (r *repo) UpdatePayable(p *model.Payable) error {
	payments, err := toJSON(nonNilPayments(p.Payments))
	if err != nil {
		return err
	}
	res, err := r.tx.Exec(`
		UPDATE payables SET
			name = ?, amount = ?, due_date = ?, category = ?, subcategory = ?,
			recurring = ?, frequency = ?, previous_amount = ?, notes = ?, receipt = ?,
			is_paid = ?, paid_amount = ?, payments = ?,
			updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, p.Name, p.Amount, p.DueDate, p.Category, p.Subcategory, p.Recurring,
		string(p.Frequency), p.PreviousAmount, p.Notes, p.Receipt, p.IsPaid, p.PaidAmount,
		payments, p.UpdatedAt, p.ID, p.Version)
	if err != nil {
		return fmt.Errorf("failed to update payable: %w", err)
	}
	return r.checkUpdated(res, "payables", "payable", p.ID, &p.Version)
}

func (r *repo) DeletePayable(id string) error {
	return r.deleteByID("payables", id)
}

func nonNilPayments(p []model.Payment) []model.Payment {
	if p == nil {
		return []model.Payment{}
	}
	return p
}

const receivableColumns = `id, number, client, issued_date, due_date, items, subtotal, tax, total,
	status, paid_amount, payments, logo, notes, version, created_at, updated_at`

func scanReceivable(s scanner) (*model.Receivable, error) {
	var rc model.Receivable
	var client, items, status, payments string
	if err := s.Scan(&rc.ID, &rc.Number, &client, &rc.IssuedDate, &rc.DueDate, &items,
		&rc.Subtotal, &rc.Tax, &rc.Total, &status, &rc.PaidAmount, &payments, &rc.Logo,
		&rc.Notes, &rc.Version, &rc.CreatedAt, &rc.UpdatedAt); err != nil {
		return nil, err
	}
	rc.Status = model.ReceivableStatus(status)
	rc.Items = []model.LineItem{}
	rc.Payments = []model.Collection{}
	if err := fromJSON(client, &rc.Client); err != nil {
		return nil, fmt.Errorf("client of receivable %s: %w", rc.ID, err)
	}
	if err := fromJSON(items, &rc.Items); err != nil {
		return nil, fmt.Errorf("items of receivable %s: %w", rc.ID, err)
	}
	if err := fromJSON(payments, &rc.Payments); err != nil {
		return nil, fmt.Errorf("payments of receivable %s: %w", rc.ID, err)
	}
	return &rc, nil
}

// receivableJSON encodes the nested columns of a receivable.
func receivableJSON(rc *model.Receivable) (client, items, payments string, err error) {
	if client, err = toJSON(rc.Client); err != nil {
		return
	}
	lineItems := rc.Items
	if lineItems == nil {
		lineItems = []model.LineItem{}
	}
	if items, err = toJSON(lineItems); err != nil {
		return
	}
	collections := rc.Payments
	if collections == nil {
		collections = []model.Collection{}
	}
	payments, err = toJSON(collections)
	return
}

func (r *repo) GetReceivable(id string) (*model.Receivable, error) {
	row := r.tx.QueryRow(`SELECT `+receivableColumns+` FROM receivables WHERE id = ?`, id)
	rc, err := scanReceivable(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("receivable", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receivable: %w", err)
	}
	return rc, nil
}

func (r *repo) ListReceivables() ([]model.Receivable, error) {
	rows, err := r.tx.Query(`SELECT ` + receivableColumns + ` FROM receivables ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list receivables: %w", err)
	}
	defer rows.Close()

	receivables := []model.Receivable{}
	for rows.Next() {
		rc, err := scanReceivable(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receivable: %w", err)
		}
		receivables = append(receivables, *rc)
	}
	return receivables, rows.Err()
}

func (r *repo) CreateReceivable(rc *model.Receivable) error {
	client, items, payments, err := receivableJSON(rc)
	if err != nil {
		return err
	}
	_, err = r.tx.Exec(`
		INSERT INTO receivables (`+receivableColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`, rc.ID, rc.Number, client, rc.IssuedDate, rc.DueDate, items, rc.Subtotal, rc.Tax,
		rc.Total, string(rc.Status), rc.PaidAmount, payments, rc.Logo, rc.Notes,
		rc.CreatedAt, rc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create receivable: %w", err)
	}
	rc.Version = 1
	return nil
}

func (r *repo) UpdateReceivable(rc *model.Receivable) error {
	client, items, payments, err := receivableJSON(rc)
	if err != nil {
		return err
	}
	res, err := r.tx.Exec(`
		UPDATE receivables SET
			number = ?, client = ?, issued_date = ?, due_date = ?, items = ?,
			subtotal = ?, tax = ?, total = ?, status = ?, paid_amount = ?, payments = ?,
			logo = ?, notes = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, rc.Number, client, rc.IssuedDate, rc.DueDate, items, rc.Subtotal, rc.Tax, rc.Total,
		string(rc.Status), rc.PaidAmount, payments, rc.Logo, rc.Notes, rc.UpdatedAt,
		rc.ID, rc.Version)
	if err != nil {
		return fmt.Errorf("failed to update receivable: %w", err)
	}
	return r.checkUpdated(res, "receivables", "receivable", rc.ID, &rc.Version)
}

func (r *repo) DeleteReceivable(id string) error {
	return r.deleteByID("receivables", id)
}
