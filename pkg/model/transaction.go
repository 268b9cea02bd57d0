package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the sign of a transaction against its account.
type Direction string

const (
	Income  Direction = "income"
	Expense Direction = "expense"
)

// Valid reports whether d is income or expense.
func (d Direction) Valid() bool {
	return d == Income || d == Expense
}

// Transaction is a single income or expense movement on an account.
type Transaction struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Direction   Direction       `json:"direction"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory,omitempty"`
	Description string          `json:"description"`
	AccountID   string          `json:"account_id"`
	Evidence    string          `json:"evidence,omitempty"`
	Version     int64           `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// EntityID returns the Transaction id. It implements Versioned.
func (t *Transaction) EntityID() string { return t.ID }

// VersionRef exposes the version counter so stores can check and bump it.
func (t *Transaction) VersionRef() *int64 { return &t.Version }

// Signed returns the amount with the sign it applies to the account balance.
func (t Transaction) Signed() decimal.Decimal {
	if t.Direction == Income {
		return t.Amount
	}
	return t.Amount.Neg()
}
