package engine

import (
	"context"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/catalog"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/ledger"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/payable"
)

// actions adapts the services to classifier.Actions.
type actions struct {
	e *Engine
}

func (a actions) ListAccounts(ctx context.Context) ([]model.Account, error) {
	return a.e.Ledger.ListAccounts(ctx)
}

func (a actions) ListCategories(ctx context.Context) ([]model.Category, error) {
	return a.e.Catalog.ListCategories(ctx)
}

func (a actions) AddTodo(ctx context.Context, title string) (*model.Todo, error) {
	return a.e.Catalog.CreateTodo(ctx, catalog.TodoInput{Title: title})
}

func (a actions) AddPayable(ctx context.Context, in payable.Input) (*model.Payable, error) {
	return a.e.Payables.Add(ctx, in)
}

func (a actions) RecordTransaction(ctx context.Context, e ledger.Entry) (*model.Transaction, error) {
	return a.e.Ledger.RecordTransaction(ctx, e)
}
