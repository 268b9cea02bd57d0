package cashflow

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/ledger"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/store"
)

// Health summarises the current month.
type Health struct {
	Month           string          `json:"month"`
	Income          decimal.Decimal `json:"income"`
	Expenses        decimal.Decimal `json:"expenses"`
	Savings         decimal.Decimal `json:"savings"`
	CollectionRatio int64           `json:"collection_ratio"`
	PendingPayables decimal.Decimal `json:"pending_payables"`
	TotalBalance    decimal.Decimal `json:"total_balance"`
}

// Health computes the summary for the month containing Clock().
// Transfers count on both sides, as they are ordinary transactions.
func (s *Service) Health(ctx context.Context) (*Health, error) {
	now := s.Clock()
	h := &Health{Month: now.Format("2006-01")}

	err := s.store.View(ctx, func(r store.Repo) error {
		var err error
		if h.TotalBalance, err = ledger.TotalBalance(r); err != nil {
			return err
		}

		txns, err := r.ListTransactions("")
		if err != nil {
			return err
		}
		for _, t := range txns {
			if !sameMonth(t.Date, now) {
				continue
			}
			if t.Direction == model.Income {
				h.Income = h.Income.Add(t.Amount)
			} else {
				h.Expenses = h.Expenses.Add(t.Amount)
			}
		}

		payables, err := r.ListPayables()
		if err != nil {
			return err
		}
		for _, p := range payables {
			if !p.IsPaid {
				h.PendingPayables = h.PendingPayables.Add(p.Outstanding())
			}
		}

		receivables, err := r.ListReceivables()
		if err != nil {
			return err
		}
		billed, collected := decimal.Zero, decimal.Zero
		for _, rc := range receivables {
			billed = billed.Add(rc.Total)
			collected = collected.Add(rc.PaidAmount)
		}
		if billed.IsPositive() {
			h.CollectionRatio = collected.Mul(decimal.NewFromInt(100)).Div(billed).Round(0).IntPart()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.Savings = h.Income.Sub(h.Expenses)
	return h, nil
}

func sameMonth(a, b time.Time) bool {
	a = a.In(b.Location())
	return a.Year() == b.Year() && a.Month() == b.Month()
}
