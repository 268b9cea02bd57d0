package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency of a recurring payable.
type Frequency string

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// Payment is one partial settlement of a payable, linked to the expense
// transaction it produced.
type Payment struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id"`
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	AccountID     string          `json:"account_id"`
}

// Payable is an amount owed by the ledger owner (a bill).
type Payable struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	DueDate        string          `json:"due_date"`
	Category       string          `json:"category"`
	Subcategory    string          `json:"subcategory,omitempty"`
	Recurring      bool            `json:"recurring"`
	Frequency      Frequency       `json:"frequency"`
	PreviousAmount decimal.Decimal `json:"previous_amount"`
	Notes          string          `json:"notes,omitempty"`
	Receipt        string          `json:"receipt,omitempty"`
	IsPaid         bool            `json:"is_paid"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	Payments       []Payment       `json:"payments"`
	Version        int64           `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// EntityID returns the Payable id. It implements Versioned.
func (p *Payable) EntityID() string { return p.ID }

// VersionRef exposes the version counter so stores can check and bump it.
func (p *Payable) VersionRef() *int64 { return &p.Version }

// Outstanding is what is still owed.
func (p Payable) Outstanding() decimal.Decimal {
	return p.Amount.Sub(p.PaidAmount)
}

// ReceivableStatus of an invoice. Overdue is only ever set by the caller.
type ReceivableStatus string

const (
	StatusPending ReceivableStatus = "pending"
	StatusPaid    ReceivableStatus = "paid"
	StatusOverdue ReceivableStatus = "overdue"
)

// Valid reports whether s is a known status.
func (s ReceivableStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// ClientRef is the denormalized client snapshot stored on a receivable.
type ClientRef struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	TaxID string `json:"tax_id,omitempty"`
}

// LineItem is one invoiced line.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
}

// Collection is one payment received against a receivable.
type Collection struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	AccountID     string          `json:"account_id"`
	Proof         string          `json:"proof,omitempty"`
}

// Receivable is an amount owed to the ledger owner (an invoice).
type Receivable struct {
	ID         string           `json:"id"`
	Number     string           `json:"number"`
	Client     ClientRef        `json:"client"`
	IssuedDate string           `json:"issued_date"`
	DueDate    string           `json:"due_date,omitempty"`
	Items      []LineItem       `json:"items"`
	Subtotal   decimal.Decimal  `json:"subtotal"`
	Tax        decimal.Decimal  `json:"tax"`
	Total      decimal.Decimal  `json:"total"`
	Status     ReceivableStatus `json:"status"`
	PaidAmount decimal.Decimal  `json:"paid_amount"`
	Payments   []Collection     `json:"payments"`
	Logo       string           `json:"logo,omitempty"`
	Notes      string           `json:"notes,omitempty"`
	Version    int64            `json:"version"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// EntityID returns the Receivable id. It implements Versioned.
func (r *Receivable) EntityID() string { return r.ID }

// VersionRef exposes the version counter so stores can check and bump it.
func (r *Receivable) VersionRef() *int64 { return &r.Version }

// Outstanding is what is still to be collected.
func (r Receivable) Outstanding() decimal.Decimal {
	return r.Total.Sub(r.PaidAmount)
}
