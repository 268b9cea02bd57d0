// Package storetest is a conformance suite for store.Store implementations.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/store"
)

// Opener returns a fresh, empty store. It registers its own cleanup.
type Opener func(t *testing.T) store.Store

// Run runs every conformance test against stores returned by open.
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(t *testing.T, st store.Store)
	}{
		{"AccountLifecycle", testAccountLifecycle},
		{"VersionConflict", testVersionConflict},
		{"InsertionOrder", testInsertionOrder},
		{"TransactionsByAccount", testTransactionsByAccount},
		{"PayableRoundTrip", testPayableRoundTrip},
		{"ReceivableRoundTrip", testReceivableRoundTrip},
		{"CatalogRoundTrip", testCatalogRoundTrip},
		{"RollbackOnError", testRollbackOnError},
		{"CanceledContext", testCanceledContext},
		{"CommandLogAndExports", testCommandLogAndExports},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open(t))
		})
	}
}

var now = time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func update(t *testing.T, st store.Store, fn func(store.Repo) error) {
	t.Helper()
	if err := st.Update(context.Background(), fn); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
}

func view(t *testing.T, st store.Store, fn func(store.Repo) error) {
	t.Helper()
	if err := st.View(context.Background(), fn); err != nil {
		t.Fatalf("View() error = %v", err)
	}
}

func newAccount(name string) *model.Account {
	return &model.Account{
		ID:             uuid.NewString(),
		Name:           name,
		Kind:           model.AccountCash,
		Balance:        dec("100.50"),
		OpeningBalance: dec("100.50"),
		Color:          "#3B82F6",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func newTransaction(accountID string, amount string) *model.Transaction {
	return &model.Transaction{
		ID:          uuid.NewString(),
		Date:        now,
		Direction:   model.Expense,
		Amount:      dec(amount),
		Category:    "Otros",
		Description: "test",
		AccountID:   accountID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func testAccountLifecycle(t *testing.T, st store.Store) {
	a := newAccount("Efectivo")
	update(t, st, func(r store.Repo) error { return r.CreateAccount(a) })
	if a.Version != 1 {
		t.Errorf("Version after create = %d, expected 1", a.Version)
	}

	view(t, st, func(r store.Repo) error {
		got, err := r.GetAccount(a.ID)
		if err != nil {
			return err
		}
		if got.Name != "Efectivo" || !got.Balance.Equal(dec("100.50")) || got.Version != 1 {
			t.Errorf("GetAccount() = %+v", got)
		}
		if !got.CreatedAt.Equal(now) {
			t.Errorf("CreatedAt = %v, expected %v", got.CreatedAt, now)
		}
		return nil
	})

	a.Balance = dec("80")
	update(t, st, func(r store.Repo) error { return r.UpdateAccount(a) })
	if a.Version != 2 {
		t.Errorf("Version after update = %d, expected 2", a.Version)
	}

	update(t, st, func(r store.Repo) error { return r.DeleteAccount(a.ID) })
	view(t, st, func(r store.Repo) error {
		_, err := r.GetAccount(a.ID)
		if !errors.Is(err, model.ErrNotFound) {
			t.Errorf("GetAccount() after delete error = %v, expected ErrNotFound", err)
		}
		var nf *model.NotFoundError
		if !errors.As(err, &nf) || nf.ID != a.ID {
			t.Errorf("expected *NotFoundError for %s, got %v", a.ID, err)
		}
		return nil
	})

	// Deleting an unknown id is not an error.
	update(t, st, func(r store.Repo) error { return r.DeleteAccount("missing") })
}

func testVersionConflict(t *testing.T, st store.Store) {
	a := newAccount("Banco")
	update(t, st, func(r store.Repo) error { return r.CreateAccount(a) })

	stale := *a
	a.Name = "Banco principal"
	update(t, st, func(r store.Repo) error { return r.UpdateAccount(a) })

	stale.Name = "Banco viejo"
	err := st.Update(context.Background(), func(r store.Repo) error { return r.UpdateAccount(&stale) })
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("stale UpdateAccount() error = %v, expected ErrConflict", err)
	}

	ghost := newAccount("Ghost")
	ghost.Version = 1
	err = st.Update(context.Background(), func(r store.Repo) error { return r.UpdateAccount(ghost) })
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("UpdateAccount() of unknown id error = %v, expected ErrNotFound", err)
	}

	view(t, st, func(r store.Repo) error {
		got, err := r.GetAccount(a.ID)
		if err != nil {
			return err
		}
		if got.Name != "Banco principal" || got.Version != 2 {
			t.Errorf("stored account = %q v%d, expected %q v2", got.Name, got.Version, "Banco principal")
		}
		return nil
	})
}

func testInsertionOrder(t *testing.T, st store.Store) {
	names := []string{"Zeta", "Alfa", "Media"}
	var ids []string
	update(t, st, func(r store.Repo) error {
		for _, n := range names {
			a := newAccount(n)
			ids = append(ids, a.ID)
			if err := r.CreateAccount(a); err != nil {
				return err
			}
		}
		return nil
	})

	// Updating must not move a record.
	update(t, st, func(r store.Repo) error {
		a, err := r.GetAccount(ids[0])
		if err != nil {
			return err
		}
		a.Color = "#000000"
		return r.UpdateAccount(a)
	})

	view(t, st, func(r store.Repo) error {
		accounts, err := r.ListAccounts()
		if err != nil {
			return err
		}
		if len(accounts) != len(names) {
			t.Fatalf("ListAccounts() returned %d, expected %d", len(accounts), len(names))
		}
		for i, a := range accounts {
			if a.Name != names[i] {
				t.Errorf("accounts[%d] = %q, expected %q", i, a.Name, names[i])
			}
		}
		return nil
	})
}

func testTransactionsByAccount(t *testing.T, st store.Store) {
	a, b := newAccount("A"), newAccount("B")
	update(t, st, func(r store.Repo) error {
		if err := r.CreateAccount(a); err != nil {
			return err
		}
		if err := r.CreateAccount(b); err != nil {
			return err
		}
		for _, tx := range []*model.Transaction{
			newTransaction(a.ID, "10"),
			newTransaction(b.ID, "20"),
			newTransaction(a.ID, "30.25"),
		} {
			if err := r.CreateTransaction(tx); err != nil {
				return err
			}
		}
		return nil
	})

	view(t, st, func(r store.Repo) error {
		all, err := r.ListTransactions("")
		if err != nil {
			return err
		}
		if len(all) != 3 {
			t.Errorf("ListTransactions(\"\") = %d, expected 3", len(all))
		}
		ofA, err := r.ListTransactions(a.ID)
		if err != nil {
			return err
		}
		if len(ofA) != 2 || !ofA[1].Amount.Equal(dec("30.25")) {
			t.Errorf("ListTransactions(a) = %+v", ofA)
		}
		return nil
	})

	var removed int
	update(t, st, func(r store.Repo) error {
		var err error
		removed, err = r.DeleteTransactionsByAccount(a.ID)
		return err
	})
	if removed != 2 {
		t.Errorf("DeleteTransactionsByAccount() = %d, expected 2", removed)
	}
	view(t, st, func(r store.Repo) error {
		all, err := r.ListTransactions("")
		if err != nil {
			return err
		}
		if len(all) != 1 || all[0].AccountID != b.ID {
			t.Errorf("remaining transactions = %+v", all)
		}
		return nil
	})
}

func testPayableRoundTrip(t *testing.T, st store.Store) {
	p := &model.Payable{
		ID:        uuid.NewString(),
		Name:      "Luz",
		Amount:    dec("1000"),
		DueDate:   "2024-06-15",
		Category:  "Servicios",
		Frequency: model.Monthly,
		Payments:  []model.Payment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	update(t, st, func(r store.Repo) error { return r.CreatePayable(p) })

	p.Payments = append(p.Payments, model.Payment{
		ID:            uuid.NewString(),
		TransactionID: uuid.NewString(),
		Date:          now,
		Amount:        dec("400"),
		AccountID:     "acct",
	})
	p.PaidAmount = dec("400")
	update(t, st, func(r store.Repo) error { return r.UpdatePayable(p) })

	view(t, st, func(r store.Repo) error {
		got, err := r.GetPayable(p.ID)
		if err != nil {
			return err
		}
		if len(got.Payments) != 1 || !got.Payments[0].Amount.Equal(dec("400")) {
			t.Errorf("payments = %+v", got.Payments)
		}
		if !got.PaidAmount.Equal(dec("400")) || got.IsPaid || got.Version != 2 {
			t.Errorf("GetPayable() = %+v", got)
		}
		list, err := r.ListPayables()
		if err != nil {
			return err
		}
		if len(list) != 1 || list[0].Frequency != model.Monthly {
			t.Errorf("ListPayables() = %+v", list)
		}
		return nil
	})
}

func testReceivableRoundTrip(t *testing.T, st store.Store) {
	rc := &model.Receivable{
		ID:         uuid.NewString(),
		Number:     "A-000123",
		Client:     model.ClientRef{ID: "c1", Name: "Acme", TaxID: "XAXX010101000"},
		IssuedDate: "2024-06-01",
		DueDate:    "2024-06-30",
		Items: []model.LineItem{
			{Description: "Consultoría", Quantity: dec("2"), Price: dec("500"), Total: dec("1000")},
		},
		Subtotal:   dec("1000"),
		Tax:        dec("160"),
		Total:      dec("1160"),
		Status:     model.StatusPending,
		PaidAmount: decimal.Zero,
		Payments:   []model.Collection{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	update(t, st, func(r store.Repo) error { return r.CreateReceivable(rc) })

	view(t, st, func(r store.Repo) error {
		got, err := r.GetReceivable(rc.ID)
		if err != nil {
			return err
		}
		if got.Client.Name != "Acme" || got.Client.TaxID != "XAXX010101000" {
			t.Errorf("client = %+v", got.Client)
		}
		if len(got.Items) != 1 || !got.Items[0].Total.Equal(dec("1000")) {
			t.Errorf("items = %+v", got.Items)
		}
		if !got.Total.Equal(dec("1160")) || got.Status != model.StatusPending {
			t.Errorf("GetReceivable() = %+v", got)
		}
		return nil
	})

	update(t, st, func(r store.Repo) error { return r.DeleteReceivable(rc.ID) })
	view(t, st, func(r store.Repo) error {
		list, err := r.ListReceivables()
		if err != nil {
			return err
		}
		if len(list) != 0 {
			t.Errorf("ListReceivables() after delete = %d, expected 0", len(list))
		}
		return nil
	})
}

func testCatalogRoundTrip(t *testing.T, st store.Store) {
	cat := &model.Category{
		ID: uuid.NewString(), Name: "Transporte", Icon: "car", Color: "#3b82f6",
		Subcategories: []string{"Gasolina", "Uber"}, CreatedAt: now, UpdatedAt: now,
	}
	todo := &model.Todo{
		ID: uuid.NewString(), Title: "llamar al contador", Priority: model.PriorityMedium,
		CreatedAt: now, UpdatedAt: now,
	}
	client := &model.Client{
		ID: uuid.NewString(), Name: "Acme", Email: "pagos@acme.mx", CreatedAt: now, UpdatedAt: now,
	}
	update(t, st, func(r store.Repo) error {
		if err := r.CreateCategory(cat); err != nil {
			return err
		}
		if err := r.CreateTodo(todo); err != nil {
			return err
		}
		return r.CreateClient(client)
	})

	todo.Completed = true
	update(t, st, func(r store.Repo) error { return r.UpdateTodo(todo) })

	view(t, st, func(r store.Repo) error {
		c, err := r.GetCategory(cat.ID)
		if err != nil {
			return err
		}
		if len(c.Subcategories) != 2 || c.Subcategories[1] != "Uber" {
			t.Errorf("subcategories = %v", c.Subcategories)
		}
		td, err := r.GetTodo(todo.ID)
		if err != nil {
			return err
		}
		if !td.Completed || td.Version != 2 {
			t.Errorf("todo = %+v", td)
		}
		clients, err := r.ListClients()
		if err != nil {
			return err
		}
		if len(clients) != 1 || clients[0].Email != "pagos@acme.mx" {
			t.Errorf("clients = %+v", clients)
		}
		return nil
	})
}

func testRollbackOnError(t *testing.T, st store.Store) {
	a := newAccount("Efectivo")
	boom := errors.New("boom")

	err := st.Update(context.Background(), func(r store.Repo) error {
		if err := r.CreateAccount(a); err != nil {
			return err
		}
		if err := r.CreateTransaction(newTransaction(a.ID, "5")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v, expected %v", err, boom)
	}

	view(t, st, func(r store.Repo) error {
		if _, err := r.GetAccount(a.ID); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("account survived a failed unit of work: %v", err)
		}
		txns, err := r.ListTransactions("")
		if err != nil {
			return err
		}
		if len(txns) != 0 {
			t.Errorf("transactions survived a failed unit of work: %d", len(txns))
		}
		return nil
	})
}

func testCanceledContext(t *testing.T, st store.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := st.Update(ctx, func(r store.Repo) error {
		called = true
		return nil
	})
	if err == nil {
		t.Error("Update() with a canceled context succeeded")
	}
	if called {
		t.Error("Update() ran fn with a canceled context")
	}
}

func testCommandLogAndExports(t *testing.T, st store.Store) {
	view(t, st, func(r store.Repo) error {
		stats, err := r.Stats()
		if err != nil {
			return err
		}
		if len(stats.Commands) != 0 || stats.Exported != 0 || stats.LastCommand != nil || stats.LastExport != nil {
			t.Errorf("empty Stats() = %+v", stats)
		}
		return nil
	})

	recs := []*model.CommandRecord{
		{Text: "super 500", Kind: "expense", Status: "success", CreatedAt: now},
		{Text: "hola", Kind: "unknown", Status: "unknown", CreatedAt: now.Add(time.Minute)},
		{Text: "taxi 80", Kind: "expense", Status: "success", CreatedAt: now.Add(2 * time.Minute)},
	}
	update(t, st, func(r store.Repo) error {
		for _, rec := range recs {
			if err := r.AppendCommand(rec); err != nil {
				return err
			}
		}
		if err := r.MarkExported(model.ExportRecord{TransactionID: "t1", File: "a.beancount", ExportedAt: now}); err != nil {
			return err
		}
		// Re-exporting replaces the record.
		return r.MarkExported(model.ExportRecord{TransactionID: "t1", File: "b.beancount", ExportedAt: now.Add(time.Hour)})
	})
	if recs[0].ID == 0 || recs[0].ID >= recs[2].ID {
		t.Errorf("command ids = %d, %d, %d; expected increasing non-zero", recs[0].ID, recs[1].ID, recs[2].ID)
	}

	view(t, st, func(r store.Repo) error {
		stats, err := r.Stats()
		if err != nil {
			return err
		}
		if stats.Commands["expense"] != 2 || stats.Commands["unknown"] != 1 {
			t.Errorf("Commands = %v", stats.Commands)
		}
		if stats.Exported != 1 {
			t.Errorf("Exported = %d, expected 1", stats.Exported)
		}
		if stats.LastCommand == nil || !stats.LastCommand.Equal(now.Add(2*time.Minute)) {
			t.Errorf("LastCommand = %v", stats.LastCommand)
		}
		if stats.LastExport == nil || !stats.LastExport.Equal(now.Add(time.Hour)) {
			t.Errorf("LastExport = %v", stats.LastExport)
		}

		ids, err := r.ExportedIDs()
		if err != nil {
			return err
		}
		if !ids["t1"] || len(ids) != 1 {
			t.Errorf("ExportedIDs() = %v", ids)
		}
		return nil
	})
}
