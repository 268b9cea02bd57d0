// Package ledger owns accounts and the transactions recorded against them.
// It is the only writer of account balances.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/store"
)

// TransferCategory is the category of both legs of a transfer.
const TransferCategory = "Transferencia"

// DefaultAccountColor is used when an account is created without a color.
const DefaultAccountColor = "#3B82F6"

// Entry is the input of RecordTransaction.
type Entry struct {
	Direction   model.Direction `json:"direction"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory,omitempty"`
	Description string          `json:"description"`
	AccountID   string          `json:"account_id"`
	// Date defaults to now.
	Date *time.Time `json:"date,omitempty"`
}

// AccountInput is the input of CreateAccount.
type AccountInput struct {
	Name           string            `json:"name"`
	Kind           model.AccountKind `json:"kind"`
	InitialBalance decimal.Decimal   `json:"initial_balance"`
	Color          string            `json:"color"`
}

// AccountUpdate changes the descriptive fields of an account. Nil fields are
// left untouched. A non-zero Version must match the stored one.
type AccountUpdate struct {
	Name    *string            `json:"name,omitempty"`
	Kind    *model.AccountKind `json:"kind,omitempty"`
	Color   *string            `json:"color,omitempty"`
	Version int64              `json:"version"`
}

// Service implements the account registry and transaction ledger.
type Service struct {
	store  store.Store
	logger *slog.Logger

	// Clock returns the current time. Tests replace it.
	Clock func() time.Time
}

// New creates a Service.
func New(st store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, logger: logger, Clock: time.Now}
}

// CreateAccount registers a new account whose balance starts at the initial balance.
func (s *Service) CreateAccount(ctx context.Context, in AccountInput) (*model.Account, error) {
	account, err := newAccount(in, s.Clock())
	if err != nil {
		return nil, err
	}

	err = s.store.Update(ctx, func(r store.Repo) error {
		return r.CreateAccount(account)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account created", "id", account.ID, "name", account.Name, "balance", account.Balance.String())
	return account, nil
}

// SeedAccounts creates accounts only when none exist yet. It reports how
// many were created.
func (s *Service) SeedAccounts(ctx context.Context, inputs []AccountInput) (int, error) {
	created := 0
	err := s.store.Update(ctx, func(r store.Repo) error {
		existing, err := r.ListAccounts()
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}
		now := s.Clock()
		for _, in := range inputs {
			account, err := newAccount(in, now)
			if err != nil {
				return fmt.Errorf("failed to seed account %q: %w", in.Name, err)
			}
			if err := r.CreateAccount(account); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if created > 0 {
		s.logger.Info("accounts seeded", "count", created)
	}
	return created, nil
}

func newAccount(in AccountInput, now time.Time) (*model.Account, error) {
	name := model.Sanitize(in.Name)
	if name == "" {
		return nil, model.Invalid("name", "account name is required")
	}
	kind := in.Kind
	if kind == "" {
		kind = model.AccountCash
	}
	if !kind.Valid() {
		return nil, model.Invalid("kind", fmt.Sprintf("unknown account kind %q", kind))
	}
	color := in.Color
	if color == "" {
		color = DefaultAccountColor
	}

	return &model.Account{
		ID:             uuid.NewString(),
		Name:           name,
		Kind:           kind,
		Balance:        in.InitialBalance,
		OpeningBalance: in.InitialBalance,
		Color:          color,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// UpdateAccount changes name, kind or color. The balance is never updated here.
func (s *Service) UpdateAccount(ctx context.Context, id string, in AccountUpdate) (*model.Account, error) {
	var account *model.Account
	err := s.store.Update(ctx, func(r store.Repo) error {
		var err error
		account, err = r.GetAccount(id)
		if err != nil {
			return err
		}
		if in.Version != 0 && in.Version != account.Version {
			return fmt.Errorf("%w: account %s", model.ErrConflict, id)
		}
		if in.Name != nil {
			name := model.Sanitize(*in.Name)
			if name == "" {
				return model.Invalid("name", "account name is required")
			}
			account.Name = name
		}
		if in.Kind != nil {
			if !in.Kind.Valid() {
				return model.Invalid("kind", fmt.Sprintf("unknown account kind %q", *in.Kind))
			}
			account.Kind = *in.Kind
		}
		if in.Color != nil {
			account.Color = *in.Color
		}
		account.UpdatedAt = s.Clock()
		return r.UpdateAccount(account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount removes an account together with its transactions.
func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	var removed int
	err := s.store.Update(ctx, func(r store.Repo) error {
		if _, err := r.GetAccount(id); err != nil {
			return err
		}
		var err error
		if removed, err = r.DeleteTransactionsByAccount(id); err != nil {
			return err
		}
		return r.DeleteAccount(id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("account deleted", "id", id, "transactions_removed", removed)
	return nil
}

// GetAccount returns one account.
func (s *Service) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	var account *model.Account
	err := s.store.View(ctx, func(r store.Repo) error {
		var err error
		account, err = r.GetAccount(id)
		return err
	})
	return account, err
}

// ListAccounts returns accounts in creation order.
func (s *Service) ListAccounts(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	err := s.store.View(ctx, func(r store.Repo) error {
		var err error
		accounts, err = r.ListAccounts()
		return err
	})
	return accounts, err
}

// TotalBalance sums every account balance.
func (s *Service) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.store.View(ctx, func(r store.Repo) error {
		var err error
		total, err = TotalBalance(r)
		return err
	})
	return total, err
}

// TotalBalance sums every account balance visible through r.
func TotalBalance(r store.Repo) (decimal.Decimal, error) {
	accounts, err := r.ListAccounts()
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total, nil
}

// RecordTransaction records a movement and adjusts the account balance in the
// same unit of work.
func (s *Service) RecordTransaction(ctx context.Context, e Entry) (*model.Transaction, error) {
	var txn *model.Transaction
	err := s.store.Update(ctx, func(r store.Repo) error {
		var err error
		txn, err = Record(r, e, s.Clock())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transaction recorded",
		"id", txn.ID,
		"account_id", txn.AccountID,
		"direction", txn.Direction,
		"amount", txn.Amount.String(),
	)
	return txn, nil
}

// Record writes a transaction and applies its balance effect through r.
// Callers run it inside Store.Update together with their own writes.
//
// A missing account is tolerated: the transaction is stored without any
// balance change.
func Record(r store.Repo, e Entry, now time.Time) (*model.Transaction, error) {
	if !e.Amount.IsPositive() {
		return nil, model.Invalid("amount", "amount must be positive")
	}
	if !e.Direction.Valid() {
		return nil, model.Invalid("direction", fmt.Sprintf("unknown direction %q", e.Direction))
	}

	date := now
	if e.Date != nil {
		date = *e.Date
	}
	txn := &model.Transaction{
		ID:          uuid.NewString(),
		Date:        date,
		Direction:   e.Direction,
		Amount:      e.Amount,
		Category:    e.Category,
		Subcategory: e.Subcategory,
		Description: model.Sanitize(e.Description),
		AccountID:   e.AccountID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := r.CreateTransaction(txn); err != nil {
		return nil, err
	}
	if err := adjust(r, txn.AccountID, txn.Signed(), now); err != nil {
		return nil, err
	}
	return txn, nil
}

// DeleteTransaction removes a transaction and reverses its balance effect.
// Unknown ids are ignored.
func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	var removed bool
	err := s.store.Update(ctx, func(r store.Repo) error {
		var err error
		removed, err = Reverse(r, id, s.Clock())
		return err
	})
	if err != nil {
		return err
	}
	if removed {
		s.logger.Info("transaction deleted", "id", id)
	}
	return nil
}

// Reverse deletes a transaction through r and undoes its balance effect.
// It reports whether the transaction existed.
func Reverse(r store.Repo, id string, now time.Time) (bool, error) {
	txn, err := r.GetTransaction(id)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := adjust(r, txn.AccountID, txn.Signed().Neg(), now); err != nil {
		return false, err
	}
	if err := r.DeleteTransaction(id); err != nil {
		return false, err
	}
	return true, nil
}

// adjust moves an account balance by delta. A missing account is a no-op.
func adjust(r store.Repo, accountID string, delta decimal.Decimal, now time.Time) error {
	account, err := r.GetAccount(accountID)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	account.Balance = account.Balance.Add(delta)
	account.UpdatedAt = now
	return r.UpdateAccount(account)
}

// ListTransactions returns transactions newest first, optionally limited to
// one account.
func (s *Service) ListTransactions(ctx context.Context, accountID string) ([]model.Transaction, error) {
	var txns []model.Transaction
	err := s.store.View(ctx, func(r store.Repo) error {
		var err error
		txns, err = r.ListTransactions(accountID)
		return err
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(txns)
	return txns, nil
}

// RecentTransactions returns at most limit transactions, newest first.
func (s *Service) RecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	txns, err := s.ListTransactions(ctx, "")
	if err != nil {
		return nil, err
	}
	if limit >= 0 && len(txns) > limit {
		txns = txns[:limit]
	}
	return txns, nil
}

// AttachEvidence stores a receipt reference on a transaction.
func (s *Service) AttachEvidence(ctx context.Context, id, ref string) (*model.Transaction, error) {
	var txn *model.Transaction
	err := s.store.Update(ctx, func(r store.Repo) error {
		var err error
		if txn, err = r.GetTransaction(id); err != nil {
			return err
		}
		txn.Evidence = ref
		txn.UpdatedAt = s.Clock()
		return r.UpdateTransaction(txn)
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Transfer moves amount from one account to another as an expense on the
// source and an income on the destination. It reports false, without
// writing anything, unless both accounts exist, amount is positive and the
// source balance covers it.
func (s *Service) Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) (bool, error) {
	ok := false
	err := s.store.Update(ctx, func(r store.Repo) error {
		if !amount.IsPositive() {
			return nil
		}
		from, err := r.GetAccount(fromID)
		if isNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		to, err := r.GetAccount(toID)
		if isNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if from.Balance.LessThan(amount) {
			return nil
		}

		now := s.Clock()
		if _, err := Record(r, Entry{
			Direction:   model.Expense,
			Amount:      amount,
			Category:    TransferCategory,
			Description: "Transferencia a " + to.Name,
			AccountID:   from.ID,
		}, now); err != nil {
			return err
		}
		if _, err := Record(r, Entry{
			Direction:   model.Income,
			Amount:      amount,
			Category:    TransferCategory,
			Description: "Transferencia de " + from.Name,
			AccountID:   to.ID,
		}, now); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if ok {
		s.logger.Info("transfer completed", "from", fromID, "to", toID, "amount", amount.String())
	} else {
		s.logger.Debug("transfer rejected", "from", fromID, "to", toID, "amount", amount.String())
	}
	return ok, nil
}

func sortNewestFirst(txns []model.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Date.After(txns[j].Date)
	})
}
