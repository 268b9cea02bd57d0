package receivable

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/ledger"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/store"
)

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	receivables *Service
	ledger      *ledger.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "ledger.bolt"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	f := fixture{receivables: New(st, nil), ledger: ledger.New(st, nil)}
	clock := func() time.Time { return fixedNow }
	f.receivables.Clock = clock
	f.ledger.Clock = clock
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f fixture) account(t *testing.T) *model.Account {
	t.Helper()
	a, err := f.ledger.CreateAccount(context.Background(), ledger.AccountInput{Name: "Banco", InitialBalance: dec("0")})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	return a
}

func (f fixture) invoice(t *testing.T, total string) *model.Receivable {
	t.Helper()
	rc, err := f.receivables.Add(context.Background(), Input{
		Client:  model.ClientRef{Name: "Acme"},
		DueDate: "2024-06-30",
		Total:   dec(total),
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	return rc
}

func TestAddDerivesTotals(t *testing.T) {
	f := newFixture(t)

	rc, err := f.receivables.Add(context.Background(), Input{
		Client: model.ClientRef{Name: " <Acme> "},
		Items: []model.LineItem{
			{Description: "Diseño", Quantity: dec("2"), Price: dec("1500")},
			{Description: "Hosting", Quantity: dec("1"), Price: dec("999"), Total: dec("1000")},
		},
		Tax: dec("640"),
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	tests := []struct {
		name     string
		got      decimal.Decimal
		expected string
	}{
		{"first line total", rc.Items[0].Total, "3000"},
		{"explicit line total", rc.Items[1].Total, "1000"},
		{"subtotal", rc.Subtotal, "4000"},
		{"total", rc.Total, "4640"},
		{"paid amount", rc.PaidAmount, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.Equal(dec(tt.expected)) {
				t.Errorf("%s = %s, expected %s", tt.name, tt.got, tt.expected)
			}
		})
	}

	if rc.Client.Name != "Acme" {
		t.Errorf("Client.Name = %q, expected %q", rc.Client.Name, "Acme")
	}
	if rc.Number != "A-400000" {
		t.Errorf("Number = %q, expected %q", rc.Number, "A-400000")
	}
	if rc.IssuedDate != "2024-06-01" {
		t.Errorf("IssuedDate = %q, expected %q", rc.IssuedDate, "2024-06-01")
	}
	if rc.Status != model.StatusPending {
		t.Errorf("Status = %q, expected %q", rc.Status, model.StatusPending)
	}
}

func TestUpdateRederivesTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rc, err := f.receivables.Add(ctx, Input{
		Client: model.ClientRef{Name: "Acme"},
		Items: []model.LineItem{
			{Description: "Diseño", Quantity: dec("2"), Price: dec("1500")},
			{Description: "Hosting", Quantity: dec("1"), Price: dec("1000")},
		},
		Tax: dec("640"),
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	fixed := f.invoice(t, "500")

	zero, tax, subtotal, total := dec("0"), dec("16"), dec("900"), dec("1234")
	tests := []struct {
		name             string
		in               Update
		expectedSubtotal string
		expectedTotal    string
	}{
		{
			name:             "new items",
			in:               Update{ID: rc.ID, Items: []model.LineItem{{Description: "Diseño", Quantity: dec("2"), Price: dec("1000")}}},
			expectedSubtotal: "2000",
			expectedTotal:    "2640",
		},
		{
			name:             "tax only",
			in:               Update{ID: rc.ID, Tax: &zero},
			expectedSubtotal: "2000",
			expectedTotal:    "2000",
		},
		{
			name:             "subtotal only",
			in:               Update{ID: rc.ID, Subtotal: &subtotal},
			expectedSubtotal: "900",
			expectedTotal:    "900",
		},
		{
			name:             "explicit total wins",
			in:               Update{ID: rc.ID, Items: []model.LineItem{{Description: "Soporte", Quantity: dec("3"), Price: dec("100")}}, Total: &total},
			expectedSubtotal: "300",
			expectedTotal:    "1234",
		},
		{
			name:             "manual total keeps on tax change",
			in:               Update{ID: fixed.ID, Tax: &tax},
			expectedSubtotal: "0",
			expectedTotal:    "500",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.receivables.Update(ctx, tt.in)
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			if !got.Subtotal.Equal(dec(tt.expectedSubtotal)) {
				t.Errorf("Subtotal = %s, expected %s", got.Subtotal, tt.expectedSubtotal)
			}
			if !got.Total.Equal(dec(tt.expectedTotal)) {
				t.Errorf("Total = %s, expected %s", got.Total, tt.expectedTotal)
			}
		})
	}

	stored, err := f.receivables.Get(ctx, rc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Items) != 1 || !stored.Items[0].Total.Equal(dec("300")) {
		t.Errorf("Items = %+v, expected one line of 300", stored.Items)
	}
}

func TestUpdateItemsReopensPaidReceivable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account(t)

	rc, err := f.receivables.Add(ctx, Input{
		Client: model.ClientRef{Name: "Acme"},
		Items:  []model.LineItem{{Description: "Diseño", Quantity: dec("1"), Price: dec("1000")}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.receivables.Pay(ctx, rc.ID, a.ID, dec("1000"), ""); err != nil {
		t.Fatal(err)
	}

	got, err := f.receivables.Update(ctx, Update{ID: rc.ID, Items: []model.LineItem{
		{Description: "Diseño", Quantity: dec("1"), Price: dec("1000")},
		{Description: "Extra", Quantity: dec("1"), Price: dec("250")},
	}})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !got.Total.Equal(dec("1250")) || got.Status != model.StatusPending {
		t.Errorf("Update() = total %s status %q, expected 1250 pending", got.Total, got.Status)
	}
}

func TestAddValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		input Input
	}{
		{"no client", Input{Total: dec("100")}},
		{"zero total", Input{Client: model.ClientRef{Name: "Acme"}}},
		{"bad issued date", Input{Client: model.ClientRef{Name: "Acme"}, Total: dec("1"), IssuedDate: "ayer"}},
		{"bad due date", Input{Client: model.ClientRef{Name: "Acme"}, Total: dec("1"), DueDate: "2024-13-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.receivables.Add(context.Background(), tt.input); !model.IsValidation(err) {
				t.Errorf("Add() error = %v, expected validation error", err)
			}
		})
	}
}

func TestAddResolvesClientByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.receivables.AddClient(ctx, ClientInput{Name: "Acme SA", TaxID: "ACM010101AAA"})
	if err != nil {
		t.Fatalf("AddClient() error = %v", err)
	}
	rc, err := f.receivables.Add(ctx, Input{Client: model.ClientRef{ID: c.ID}, Total: dec("100")})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if rc.Client.Name != "Acme SA" || rc.Client.TaxID != "ACM010101AAA" {
		t.Errorf("Client = %+v", rc.Client)
	}

	_, err = f.receivables.Add(ctx, Input{Client: model.ClientRef{ID: "missing"}, Total: dec("100")})
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Add() with unknown client error = %v, expected ErrNotFound", err)
	}
}

func TestPayCollects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account(t)
	rc := f.invoice(t, "1160")

	got, err := f.receivables.Pay(ctx, rc.ID, a.ID, dec("600"), "spei-123")
	if err != nil {
		t.Fatalf("Pay() error = %v", err)
	}
	if got.Status != model.StatusPending || !got.PaidAmount.Equal(dec("600")) {
		t.Errorf("after partial Pay: status=%q paid=%s", got.Status, got.PaidAmount)
	}
	if got.Payments[0].Proof != "spei-123" || got.Payments[0].TransactionID == "" {
		t.Errorf("payment = %+v", got.Payments[0])
	}

	got, err = f.receivables.Pay(ctx, rc.ID, a.ID, dec("559.995"), "")
	if err != nil {
		t.Fatalf("Pay() error = %v", err)
	}
	if got.Status != model.StatusPaid {
		t.Errorf("Status = %q after collecting within a cent, expected %q", got.Status, model.StatusPaid)
	}

	acct, _ := f.ledger.GetAccount(ctx, a.ID)
	if !acct.Balance.Equal(dec("1159.995")) {
		t.Errorf("balance = %s, expected 1159.995", acct.Balance)
	}
	txns, _ := f.ledger.ListTransactions(ctx, a.ID)
	for _, txn := range txns {
		if txn.Direction != model.Income || txn.Category != CollectionCategory || txn.Description != "Cobro: Acme" {
			t.Errorf("unexpected collection transaction %+v", txn)
		}
	}
}

func TestPayErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account(t)
	rc := f.invoice(t, "100")

	if _, err := f.receivables.Pay(ctx, rc.ID, a.ID, dec("-1"), ""); !model.IsValidation(err) {
		t.Errorf("Pay() negative error = %v, expected validation error", err)
	}
	if _, err := f.receivables.Pay(ctx, "missing", a.ID, dec("1"), ""); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Pay() unknown receivable error = %v, expected ErrNotFound", err)
	}
	if _, err := f.receivables.Pay(ctx, rc.ID, "missing", dec("1"), ""); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Pay() unknown account error = %v, expected ErrNotFound", err)
	}

	txns, _ := f.ledger.ListTransactions(ctx, "")
	if len(txns) != 0 {
		t.Errorf("failed payments left %d transactions", len(txns))
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account(t)
	rc := f.invoice(t, "500")

	overdue := model.StatusOverdue
	got, err := f.receivables.Update(ctx, Update{ID: rc.ID, Status: &overdue, Version: rc.Version})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Status != model.StatusOverdue {
		t.Errorf("Status = %q, expected %q", got.Status, model.StatusOverdue)
	}

	bogus := model.ReceivableStatus("lost")
	if _, err := f.receivables.Update(ctx, Update{ID: rc.ID, Status: &bogus}); !model.IsValidation(err) {
		t.Errorf("Update() with unknown status error = %v, expected validation error", err)
	}
	if _, err := f.receivables.Update(ctx, Update{ID: rc.ID, Status: &overdue, Version: rc.Version}); !errors.Is(err, model.ErrConflict) {
		t.Errorf("stale Update() error = %v, expected ErrConflict", err)
	}

	if _, err := f.receivables.Pay(ctx, rc.ID, a.ID, dec("500"), ""); err != nil {
		t.Fatal(err)
	}
	// A settled receivable stays paid whatever status is requested.
	got, err = f.receivables.Update(ctx, Update{ID: rc.ID, Status: &overdue})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Status != model.StatusPaid {
		t.Errorf("Status = %q, expected %q", got.Status, model.StatusPaid)
	}

	// Raising the total reopens it.
	higher := dec("800")
	got, err = f.receivables.Update(ctx, Update{ID: rc.ID, Total: &higher})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Status != model.StatusPending {
		t.Errorf("Status = %q, expected %q", got.Status, model.StatusPending)
	}
}

func TestUpdatePayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account(t)
	rc := f.invoice(t, "1000")
	if _, err := f.receivables.Pay(ctx, rc.ID, a.ID, dec("1000"), ""); err != nil {
		t.Fatal(err)
	}

	date := fixedNow.AddDate(0, 0, -3)
	got, err := f.receivables.UpdatePayment(ctx, rc.ID, 0, date, dec("700"))
	if err != nil {
		t.Fatalf("UpdatePayment() error = %v", err)
	}
	if !got.PaidAmount.Equal(dec("700")) || got.Status != model.StatusPending {
		t.Errorf("UpdatePayment() paid=%s status=%q, expected 700 pending", got.PaidAmount, got.Status)
	}
	if !got.Payments[0].Date.Equal(date) {
		t.Errorf("payment date = %v, expected %v", got.Payments[0].Date, date)
	}

	if _, err := f.receivables.UpdatePayment(ctx, rc.ID, 1, date, dec("1")); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("UpdatePayment() out of range error = %v, expected ErrNotFound", err)
	}
	if _, err := f.receivables.UpdatePayment(ctx, rc.ID, 0, date, decimal.Zero); !model.IsValidation(err) {
		t.Errorf("UpdatePayment() zero amount error = %v, expected validation error", err)
	}
}

func TestDeletePayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account(t)
	rc := f.invoice(t, "1000")
	for _, amount := range []string{"600", "400"} {
		if _, err := f.receivables.Pay(ctx, rc.ID, a.ID, dec(amount), ""); err != nil {
			t.Fatal(err)
		}
	}

	got, err := f.receivables.DeletePayment(ctx, rc.ID, 0)
	if err != nil {
		t.Fatalf("DeletePayment() error = %v", err)
	}
	if !got.PaidAmount.Equal(dec("400")) || got.Status != model.StatusPending {
		t.Errorf("DeletePayment() paid=%s status=%q, expected 400 pending", got.PaidAmount, got.Status)
	}
	if len(got.Payments) != 1 || !got.Payments[0].Amount.Equal(dec("400")) {
		t.Errorf("payments = %+v", got.Payments)
	}

	if _, err := f.receivables.DeletePayment(ctx, rc.ID, 5); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("DeletePayment() out of range error = %v, expected ErrNotFound", err)
	}
	if _, err := f.receivables.DeletePayment(ctx, rc.ID, -1); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("DeletePayment(-1) error = %v, expected ErrNotFound", err)
	}
}

// Deleting a collection does not reverse the income transaction recorded for
// it, so the receivable and the account disagree afterwards. This test pins
// the current behavior until a product decision is made.
func TestDeletePaymentKeepsIncomeTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account(t)
	rc := f.invoice(t, "300")

	paid, err := f.receivables.Pay(ctx, rc.ID, a.ID, dec("300"), "")
	if err != nil {
		t.Fatal(err)
	}
	txnID := paid.Payments[0].TransactionID

	got, err := f.receivables.DeletePayment(ctx, rc.ID, 0)
	if err != nil {
		t.Fatalf("DeletePayment() error = %v", err)
	}
	if !got.PaidAmount.IsZero() {
		t.Errorf("PaidAmount = %s, expected 0", got.PaidAmount)
	}

	txns, _ := f.ledger.ListTransactions(ctx, a.ID)
	if len(txns) != 1 || txns[0].ID != txnID {
		t.Fatalf("income transaction was removed: %+v", txns)
	}
	acct, _ := f.ledger.GetAccount(ctx, a.ID)
	if !acct.Balance.Equal(dec("300")) {
		t.Errorf("balance = %s, expected 300", acct.Balance)
	}

	collected := decimal.Zero
	for _, txn := range txns {
		if txn.Category == CollectionCategory {
			collected = collected.Add(txn.Amount)
		}
	}
	if collected.Equal(got.PaidAmount) {
		t.Errorf("collected income %s matches paid amount; the reversal gap appears fixed, update this test", collected)
	} else {
		t.Logf("known gap: income collected %s, receivable paid amount %s", collected, got.PaidAmount)
	}

	// The account itself is still internally consistent.
	d, err := f.ledger.Reconcile(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(d) != 0 {
		t.Errorf("Reconcile() = %+v, expected no discrepancies", d)
	}
}

func TestDeleteReceivable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rc := f.invoice(t, "100")

	if err := f.receivables.Delete(ctx, rc.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := f.receivables.Get(ctx, rc.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, expected ErrNotFound", err)
	}
	if err := f.receivables.Delete(ctx, rc.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("second Delete() error = %v, expected ErrNotFound", err)
	}
	list, _ := f.receivables.List(ctx)
	if len(list) != 0 {
		t.Errorf("List() = %d, expected 0", len(list))
	}
}

func TestClients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.receivables.AddClient(ctx, ClientInput{Name: " "}); !model.IsValidation(err) {
		t.Errorf("AddClient() without name error = %v, expected validation error", err)
	}

	c, err := f.receivables.AddClient(ctx, ClientInput{Name: "Acme", Email: "a@acme.mx"})
	if err != nil {
		t.Fatalf("AddClient() error = %v", err)
	}

	got, err := f.receivables.UpdateClient(ctx, c.ID, ClientInput{Phone: "555-0101", Version: c.Version})
	if err != nil {
		t.Fatalf("UpdateClient() error = %v", err)
	}
	if got.Name != "Acme" || got.Email != "a@acme.mx" || got.Phone != "555-0101" {
		t.Errorf("UpdateClient() = %+v, expected only the phone to change", got)
	}
	if _, err := f.receivables.UpdateClient(ctx, c.ID, ClientInput{Phone: "x", Version: 1}); !errors.Is(err, model.ErrConflict) {
		t.Errorf("stale UpdateClient() error = %v, expected ErrConflict", err)
	}

	if err := f.receivables.DeleteClient(ctx, c.ID); err != nil {
		t.Fatalf("DeleteClient() error = %v", err)
	}
	if err := f.receivables.DeleteClient(ctx, c.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("second DeleteClient() error = %v, expected ErrNotFound", err)
	}
	clients, _ := f.receivables.ListClients(ctx)
	if len(clients) != 0 {
		t.Errorf("ListClients() = %d, expected 0", len(clients))
	}
}
