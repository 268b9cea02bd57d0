// Package store defines the storage contract of the ledger and an embedded
// bbolt implementation of it.
package store

import (
	"context"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
)

// Store runs units of work against a Repo.
//
// Update executes fn in a single read-write transaction: either every write
// made through the Repo commits or none does. View executes fn against a
// consistent snapshot and must not be used for writes.
type Store interface {
	Update(ctx context.Context, fn func(Repo) error) error
	View(ctx context.Context, fn func(Repo) error) error
	Close() error
}

// Repo is the per-transaction view of the ledger's records.
//
// Get returns a *model.NotFoundError for unknown ids. List returns records in
// insertion order. Create assigns version 1. Update fails with
// model.ErrConflict unless the record's Version matches the stored one, and
// increments it on success. Delete of an unknown id is not an error.
type Repo interface {
	GetAccount(id string) (*model.Account, error)
	ListAccounts() ([]model.Account, error)
	CreateAccount(a *model.Account) error
	UpdateAccount(a *model.Account) error
	DeleteAccount(id string) error

	GetTransaction(id string) (*model.Transaction, error)
	// ListTransactions returns the transactions of one account, or all of
	// them when accountID is empty.
	ListTransactions(accountID string) ([]model.Transaction, error)
	CreateTransaction(t *model.Transaction) error
	UpdateTransaction(t *model.Transaction) error
	DeleteTransaction(id string) error
	DeleteTransactionsByAccount(accountID string) (int, error)

	GetPayable(id string) (*model.Payable, error)
	ListPayables() ([]model.Payable, error)
	CreatePayable(p *model.Payable) error
	UpdatePayable(p *model.Payable) error
	DeletePayable(id string) error

	GetReceivable(id string) (*model.Receivable, error)
	ListReceivables() ([]model.Receivable, error)
	CreateReceivable(r *model.Receivable) error
	UpdateReceivable(r *model.Receivable) error
	DeleteReceivable(id string) error

	GetClient(id string) (*model.Client, error)
	ListClients() ([]model.Client, error)
	CreateClient(c *model.Client) error
	UpdateClient(c *model.Client) error
	DeleteClient(id string) error

	GetCategory(id string) (*model.Category, error)
	ListCategories() ([]model.Category, error)
	CreateCategory(c *model.Category) error
	UpdateCategory(c *model.Category) error
	DeleteCategory(id string) error

	GetTodo(id string) (*model.Todo, error)
	ListTodos() ([]model.Todo, error)
	CreateTodo(t *model.Todo) error
	UpdateTodo(t *model.Todo) error
	DeleteTodo(id string) error

	AppendCommand(rec *model.CommandRecord) error
	ExportedIDs() (map[string]bool, error)
	MarkExported(rec model.ExportRecord) error
	Stats() (*model.Stats, error)
}
