// Package model defines the entities of the obligation ledger and the error kinds
// shared by every service.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind classifies a cash container.
type AccountKind string

const (
	AccountCash    AccountKind = "cash"
	AccountDebit   AccountKind = "debit"
	AccountSavings AccountKind = "savings"
	AccountCredit  AccountKind = "credit"
	AccountOther   AccountKind = "other"
)

// Valid reports whether k is one of the known account kinds.
func (k AccountKind) Valid() bool {
	switch k {
	case AccountCash, AccountDebit, AccountSavings, AccountCredit, AccountOther:
		return true
	}
	return false
}

// Account is a named cash container with a running balance.
// Balance is only ever changed by recording or deleting transactions.
type Account struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Kind           AccountKind     `json:"kind"`
	Balance        decimal.Decimal `json:"balance"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Color          string          `json:"color"`
	Version        int64           `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// EntityID returns the Account id. It implements Versioned.
func (a *Account) EntityID() string { return a.ID }

// VersionRef exposes the version counter so stores can check and bump it.
func (a *Account) VersionRef() *int64 { return &a.Version }
