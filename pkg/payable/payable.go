// Package payable tracks bills owed by the ledger owner and their partial
// payments.
package payable

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/ledger"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/store"
)

// DefaultCategory is assigned to bills created without a category.
const DefaultCategory = "Servicios"

// Input is the input of Add.
type Input struct {
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	DueDate        string          `json:"due_date"`
	Category       string          `json:"category"`
	Subcategory    string          `json:"subcategory"`
	Recurring      bool            `json:"recurring"`
	Frequency      model.Frequency `json:"frequency"`
	PreviousAmount decimal.Decimal `json:"previous_amount"`
	Notes          string          `json:"notes"`
}

// Update carries the fields to merge onto an existing bill. Nil fields are
// left untouched. A non-zero Version must match the stored one.
type Update struct {
	ID             string           `json:"id"`
	Version        int64            `json:"version"`
	Name           *string          `json:"name,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	DueDate        *string          `json:"due_date,omitempty"`
	Category       *string          `json:"category,omitempty"`
	Subcategory    *string          `json:"subcategory,omitempty"`
	Recurring      *bool            `json:"recurring,omitempty"`
	Frequency      *model.Frequency `json:"frequency,omitempty"`
	PreviousAmount *decimal.Decimal `json:"previous_amount,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
}

// Service implements the payable tracker.
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

// Validate checks a bill against the required fields and the duplicate
// guard: no other bill may share its name (case-insensitive), amount
// (within 0.01) and due date.
func Validate(bill *model.Payable, existing []model.Payable) error {
	if len([]rune(model.Sanitize(bill.Name))) < 2 {
		return model.Invalid("name", "bill name is required")
	}
	if !bill.Amount.IsPositive() {
		return model.Invalid("amount", "amount must be greater than 0")
	}
	if bill.DueDate == "" {
		return model.Invalid("due_date", "due date is required")
	}
	if !model.ValidDate(bill.DueDate) {
		return model.Invalid("due_date", "due date must be YYYY-MM-DD")
	}
	if bill.Frequency != model.Weekly && bill.Frequency != model.Monthly {
		return model.Invalid("frequency", fmt.Sprintf("unknown frequency %q", bill.Frequency))
	}

	for _, other := range existing {
		if other.ID == bill.ID {
			continue
		}
		if strings.EqualFold(other.Name, bill.Name) &&
			other.Amount.Sub(bill.Amount).Abs().LessThan(model.Epsilon) &&
			other.DueDate == bill.DueDate {
			return model.Invalid("name", "a bill with the same name, amount and due date already exists")
		}
	}
	return nil
}

// Add creates a bill with defaults applied.
func (s *Service) Add(ctx context.Context, in Input) (*model.Payable, error) {
	now := s.Clock()
	bill := &model.Payable{
		ID:             uuid.NewString(),
		Name:           model.Sanitize(in.Name),
		Amount:         in.Amount,
		DueDate:        in.DueDate,
		Category:       in.Category,
		Subcategory:    in.Subcategory,
		Recurring:      in.Recurring,
		Frequency:      in.Frequency,
		PreviousAmount: in.PreviousAmount,
		Notes:          model.Sanitize(in.Notes),
		PaidAmount:     decimal.Zero,
		Payments:       []model.Payment{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if bill.Category == "" {
		bill.Category = DefaultCategory
	}
	if bill.Frequency == "" {
		bill.Frequency = model.Monthly
	}

	err := s.store.Update(ctx, func(r store.Repo) error {
		existing, err := r.ListPayables()
		if err != nil {
			return err
		}
		if err := Validate(bill, existing); err != nil {
			return err
		}
		return r.CreatePayable(bill)
	})
	if err != nil {
		s.logger.Debug("bill rejected", "name", bill.Name, "error", err)
		return nil, err
	}

	s.logger.Info("bill added", "id", bill.ID, "name", bill.Name, "amount", bill.Amount.String(), "due_date", bill.DueDate)
	return bill, nil
}

// Update merges fields onto an existing bill, re-validates it and recomputes
// the paid flag.
func (s *Service) Update(ctx context.Context, in Update) (*model.Payable, error) {
	var bill *model.Payable
	err := s.store.Update(ctx, func(r store.Repo) error {
		var err error
		if bill, err = r.GetPayable(in.ID); err != nil {
			return err
		}
		if in.Version != 0 && in.Version != bill.Version {
			return fmt.Errorf("%w: payable %s", model.ErrConflict, in.ID)
		}
		merge(bill, in)

		existing, err := r.ListPayables()
		if err != nil {
			return err
		}
		if err := Validate(bill, existing); err != nil {
			return err
		}
		bill.IsPaid = model.Settled(bill.PaidAmount, bill.Amount)
		bill.UpdatedAt = s.Clock()
		return r.UpdatePayable(bill)
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}

func merge(bill *model.Payable, in Update) {
	if in.Name != nil {
		bill.Name = model.Sanitize(*in.Name)
	}
	if in.Amount != nil {
		bill.Amount = *in.Amount
	}
	if in.DueDate != nil {
		bill.DueDate = *in.DueDate
	}
	if in.Category != nil {
		bill.Category = *in.Category
	}
	if in.Subcategory != nil {
		bill.Subcategory = *in.Subcategory
	}
	if in.Recurring != nil {
		bill.Recurring = *in.Recurring
	}
	if in.Frequency != nil {
		bill.Frequency = *in.Frequency
	}
	if in.PreviousAmount != nil {
		bill.PreviousAmount = *in.PreviousAmount
	}
	if in.Notes != nil {
		bill.Notes = model.Sanitize(*in.Notes)
	}
}

// Pay applies a partial payment from an account: it records the expense
// transaction, appends the payment and recomputes the paid flag, all in one
// unit of work.
func (s *Service) Pay(ctx context.Context, billID, accountID string, amount decimal.Decimal) (*model.Payable, error) {
	if !amount.IsPositive() {
		return nil, model.Invalid("amount", "payment amount must be positive")
	}

	var bill *model.Payable
	var txn *model.Transaction
	err := s.store.Update(ctx, func(r store.Repo) error {
		var err error
		if bill, err = r.GetPayable(billID); err != nil {
			return err
		}
		if _, err := r.GetAccount(accountID); err != nil {
			return err
		}

		now := s.Clock()
		category := bill.Category
		if category == "" {
			category = DefaultCategory
		}
		txn, err = ledger.Record(r, ledger.Entry{
			Direction:   model.Expense,
			Amount:      amount,
			Category:    category,
			Subcategory: bill.Subcategory,
			Description: "Pago parcial: " + bill.Name,
			AccountID:   accountID,
		}, now)
		if err != nil {
			return err
		}

		bill.Payments = append(bill.Payments, model.Payment{
			ID:            uuid.NewString(),
			TransactionID: txn.ID,
			Date:          now,
			Amount:        amount,
			AccountID:     accountID,
		})
		bill.PaidAmount = bill.PaidAmount.Add(amount)
		bill.IsPaid = model.Settled(bill.PaidAmount, bill.Amount)
		bill.UpdatedAt = now
		return r.UpdatePayable(bill)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bill paid",
		"id", bill.ID,
		"transaction_id", txn.ID,
		"amount", amount.String(),
		"paid_amount", bill.PaidAmount.String(),
		"is_paid", bill.IsPaid,
	)
	return bill, nil
}

// Unpay deletes every transaction produced by the bill's payments, restoring
// the account balances, and resets the bill to unpaid.
func (s *Service) Unpay(ctx context.Context, billID string) (*model.Payable, error) {
	var bill *model.Payable
	err := s.store.Update(ctx, func(r store.Repo) error {
		var err error
		if bill, err = r.GetPayable(billID); err != nil {
			return err
		}

		now := s.Clock()
		for _, p := range bill.Payments {
			if _, err := ledger.Reverse(r, p.TransactionID, now); err != nil {
				return err
			}
		}

		bill.Payments = []model.Payment{}
		bill.PaidAmount = decimal.Zero
		bill.IsPaid = false
		bill.UpdatedAt = now
		return r.UpdatePayable(bill)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bill unpaid", "id", billID)
	return bill, nil
}

// AttachReceipt stores a receipt reference on a bill.
func (s *Service) AttachReceipt(ctx context.Context, billID, ref string) (*model.Payable, error) {
	var bill *model.Payable
	err := s.store.Update(ctx, func(r store.Repo) error {
		var err error
		if bill, err = r.GetPayable(billID); err != nil {
			return err
		}
		bill.Receipt = ref
		bill.UpdatedAt = s.Clock()
		return r.UpdatePayable(bill)
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}

// Delete removes a bill. Transactions produced by its payments are kept;
// call Unpay first to reverse them.
func (s *Service) Delete(ctx context.Context, billID string) error {
	err := s.store.Update(ctx, func(r store.Repo) error {
		if _, err := r.GetPayable(billID); err != nil {
			return err
		}
		return r.DeletePayable(billID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("bill deleted", "id", billID)
	return nil
}

// Get returns one bill.
func (s *Service) Get(ctx context.Context, billID string) (*model.Payable, error) {
	var bill *model.Payable
	err := s.store.View(ctx, func(r store.Repo) error {
		var err error
		bill, err = r.GetPayable(billID)
		return err
	})
	return bill, err
}

// List returns every bill in creation order.
func (s *Service) List(ctx context.Context) ([]model.Payable, error) {
	var bills []model.Payable
	err := s.store.View(ctx, func(r store.Repo) error {
		var err error
		bills, err = r.ListPayables()
		return err
	})
	return bills, err
}

// Pending returns the bills that are not paid yet.
func (s *Service) Pending(ctx context.Context) ([]model.Payable, error) {
	bills, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	pending := []model.Payable{}
	for _, b := range bills {
		if !b.IsPaid {
			pending = append(pending, b)
		}
	}
	return pending, nil
}
