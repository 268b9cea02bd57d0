package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/store"
)

// Discrepancy is an account whose stored balance differs from the balance
// implied by its opening balance and transactions.
type Discrepancy struct {
	AccountID string          `json:"account_id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	Expected  decimal.Decimal `json:"expected"`
}

// Difference is Balance minus Expected.
func (d Discrepancy) Difference() decimal.Decimal {
	return d.Balance.Sub(d.Expected)
}

// Reconcile recomputes every balance from the transactions and reports the
// accounts that disagree. An empty result means the ledger is consistent.
func (s *Service) Reconcile(ctx context.Context) ([]Discrepancy, error) {
	var out []Discrepancy
	err := s.store.View(ctx, func(r store.Repo) error {
		var err error
		out, err = Reconcile(r)
		return err
	})
	return out, err
}

// Reconcile checks every account visible through r.
func Reconcile(r store.Repo) ([]Discrepancy, error) {
	accounts, err := r.ListAccounts()
	if err != nil {
		return nil, err
	}
	txns, err := r.ListTransactions("")
	if err != nil {
		return nil, err
	}

	sums := make(map[string]decimal.Decimal, len(accounts))
	for _, t := range txns {
		sums[t.AccountID] = sums[t.AccountID].Add(t.Signed())
	}

	discrepancies := []Discrepancy{}
	for _, a := range accounts {
		expected := a.OpeningBalance.Add(sums[a.ID])
		if !expected.Equal(a.Balance) {
			discrepancies = append(discrepancies, Discrepancy{
				AccountID: a.ID,
				Name:      a.Name,
				Balance:   a.Balance,
				Expected:  expected,
			})
		}
	}
	return discrepancies, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}
