package cashflow

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/ledger"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/payable"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/receivable"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/store"
)

var start = time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func balances(points []Point) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Balance.String()
	}
	return out
}

func TestForecast(t *testing.T) {
	tests := []struct {
		name        string
		payables    []model.Payable
		receivables []model.Receivable
		days        int
		expected    []string
	}{
		{
			name:     "one bill due in three days",
			payables: []model.Payable{{Amount: dec("200"), DueDate: "2024-06-04"}},
			days:     5,
			expected: []string{"1000", "1000", "1000", "800", "800"},
		},
		{
			name:     "partially paid bill counts its outstanding part",
			payables: []model.Payable{{Amount: dec("500"), PaidAmount: dec("300"), DueDate: "2024-06-02"}},
			days:     3,
			expected: []string{"1000", "800", "800"},
		},
		{
			name:     "paid bills are skipped",
			payables: []model.Payable{{Amount: dec("500"), PaidAmount: dec("500"), IsPaid: true, DueDate: "2024-06-01"}},
			days:     2,
			expected: []string{"1000", "1000"},
		},
		{
			name: "receivables add their outstanding part",
			receivables: []model.Receivable{
				{Total: dec("1160"), PaidAmount: dec("160"), Status: model.StatusPending, DueDate: "2024-06-01"},
				{Total: dec("50"), Status: model.StatusOverdue, DueDate: "2024-06-03"},
				{Total: dec("999"), Status: model.StatusPaid, PaidAmount: dec("999"), DueDate: "2024-06-02"},
				{Total: dec("777"), Status: model.StatusPending},
			},
			days:     3,
			expected: []string{"2000", "2000", "2050"},
		},
		{
			name:     "obligations outside the window are ignored",
			payables: []model.Payable{{Amount: dec("1"), DueDate: "2024-05-31"}, {Amount: dec("1"), DueDate: "2024-06-10"}},
			days:     2,
			expected: []string{"1000", "1000"},
		},
		{
			name:     "same-day bill and collection net out",
			payables: []model.Payable{{Amount: dec("300"), DueDate: "2024-06-02"}},
			receivables: []model.Receivable{
				{Total: dec("100"), Status: model.StatusPending, DueDate: "2024-06-02"},
			},
			days:     2,
			expected: []string{"1000", "800"},
		},
		{
			name:     "no days",
			days:     0,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := Forecast(dec("1000"), tt.payables, tt.receivables, start, tt.days)
			got := balances(points)
			if len(got) != len(tt.expected) {
				t.Fatalf("Forecast() = %v, expected %v", got, tt.expected)
			}
			for i := range got {
				if !points[i].Balance.Equal(dec(tt.expected[i])) {
					t.Errorf("Forecast() = %v, expected %v", got, tt.expected)
					break
				}
			}
		})
	}
}

func TestForecastDates(t *testing.T) {
	points := Forecast(decimal.Zero, nil, nil, start, 3)
	expected := []string{"2024-06-01", "2024-06-02", "2024-06-03"}
	for i, p := range points {
		if p.Date != expected[i] {
			t.Errorf("points[%d].Date = %q, expected %q", i, p.Date, expected[i])
		}
	}
}

type fixture struct {
	cash        *Service
	ledger      *ledger.Service
	bills       *payable.Service
	receivables *receivable.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "ledger.bolt"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	clock := func() time.Time { return start }
	f := fixture{
		cash:        New(st),
		ledger:      ledger.New(st, nil),
		bills:       payable.New(st, nil),
		receivables: receivable.New(st, nil),
	}
	f.cash.Clock = clock
	f.ledger.Clock = clock
	f.bills.Clock = clock
	f.receivables.Clock = clock
	return f
}

func TestProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.ledger.CreateAccount(ctx, ledger.AccountInput{Name: "Efectivo", InitialBalance: dec("600")}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ledger.CreateAccount(ctx, ledger.AccountInput{Name: "Banco", InitialBalance: dec("400")}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.bills.Add(ctx, payable.Input{Name: "Luz", Amount: dec("200"), DueDate: "2024-06-04"}); err != nil {
		t.Fatal(err)
	}

	points, err := f.cash.Project(ctx, 5)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	expected := []string{"1000", "1000", "1000", "800", "800"}
	if len(points) != len(expected) {
		t.Fatalf("Project() = %v, expected %v", balances(points), expected)
	}
	for i := range expected {
		if !points[i].Balance.Equal(dec(expected[i])) {
			t.Errorf("Project() = %v, expected %v", balances(points), expected)
			break
		}
	}

	year, err := f.cash.Project(ctx, MaxProjectionDays)
	if err != nil || len(year) != MaxProjectionDays {
		t.Errorf("Project(%d) = %d points, %v", MaxProjectionDays, len(year), err)
	}
}

func TestProjectRejectsHorizon(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		days int
	}{
		{"zero", 0},
		{"negative", -3},
		{"above cap", MaxProjectionDays + 1},
		{"huge", math.MaxInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, err := f.cash.Project(context.Background(), tt.days)
			if !model.IsValidation(err) {
				t.Errorf("Project(%d) error = %v, expected validation error", tt.days, err)
			}
			if points != nil {
				t.Errorf("Project(%d) = %d points, expected none", tt.days, len(points))
			}
		})
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acct, err := f.ledger.CreateAccount(ctx, ledger.AccountInput{Name: "Banco", InitialBalance: dec("1000")})
	if err != nil {
		t.Fatal(err)
	}
	lastMonth := start.AddDate(0, -1, 0)
	entries := []ledger.Entry{
		{Direction: model.Income, Amount: dec("3000"), AccountID: acct.ID},
		{Direction: model.Expense, Amount: dec("1200"), AccountID: acct.ID},
		{Direction: model.Expense, Amount: dec("999"), AccountID: acct.ID, Date: &lastMonth},
	}
	for _, e := range entries {
		if _, err := f.ledger.RecordTransaction(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := f.bills.Add(ctx, payable.Input{Name: "Internet", Amount: dec("450"), DueDate: "2024-06-20"}); err != nil {
		t.Fatal(err)
	}
	rc, err := f.receivables.Add(ctx, receivable.Input{Client: model.ClientRef{Name: "Acme"}, Total: dec("300")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.receivables.Add(ctx, receivable.Input{Client: model.ClientRef{Name: "Beta"}, Total: dec("600")}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.receivables.Pay(ctx, rc.ID, acct.ID, dec("300"), ""); err != nil {
		t.Fatal(err)
	}

	h, err := f.cash.Health(ctx)
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}

	tests := []struct {
		name     string
		got      decimal.Decimal
		expected string
	}{
		{"income", h.Income, "3300"},
		{"expenses", h.Expenses, "1200"},
		{"savings", h.Savings, "2100"},
		{"pending payables", h.PendingPayables, "450"},
		{"total balance", h.TotalBalance, "2101"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.Equal(dec(tt.expected)) {
				t.Errorf("%s = %s, expected %s", tt.name, tt.got, tt.expected)
			}
		})
	}
	if h.Month != "2024-06" {
		t.Errorf("Month = %q, expected %q", h.Month, "2024-06")
	}
	if h.CollectionRatio != 33 {
		t.Errorf("CollectionRatio = %d, expected 33", h.CollectionRatio)
	}
}

func TestSameMonth(t *testing.T) {
	mexico := time.FixedZone("CST", -6*3600)
	ref := time.Date(2024, 6, 15, 0, 0, 0, 0, mexico)

	tests := []struct {
		name     string
		t        time.Time
		expected bool
	}{
		{"same month", time.Date(2024, 6, 1, 12, 0, 0, 0, mexico), true},
		{"previous month", time.Date(2024, 5, 31, 12, 0, 0, 0, mexico), false},
		{"utc instant that is still May locally", time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC), false},
		{"other year", time.Date(2023, 6, 15, 0, 0, 0, 0, mexico), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sameMonth(tt.t, ref); got != tt.expected {
				t.Errorf("sameMonth(%v, %v) = %v, expected %v", tt.t, ref, got, tt.expected)
			}
		})
	}
}
