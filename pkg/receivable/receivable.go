// Package receivable tracks invoices owed to the ledger owner and the
// payments collected against them.
package receivable

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/ledger"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/store"
)

// CollectionCategory is the category of income recorded for a collection.
const CollectionCategory = "Cobranza"

// Input is the input of Add.
type Input struct {
	Number     string           `json:"number"`
	Client     model.ClientRef  `json:"client"`
	IssuedDate string           `json:"issued_date"`
	DueDate    string           `json:"due_date"`
	Items      []model.LineItem `json:"items"`
	Subtotal   decimal.Decimal  `json:"subtotal"`
	Tax        decimal.Decimal  `json:"tax"`
	Total      decimal.Decimal  `json:"total"`
	Logo       string           `json:"logo"`
	Notes      string           `json:"notes"`
}

// Update carries the fields to merge onto an existing receivable. Nil fields
// are left untouched. A non-zero Version must match the stored one.
type Update struct {
	ID         string                  `json:"id"`
	Version    int64                   `json:"version"`
	Number     *string                 `json:"number,omitempty"`
	Client     *model.ClientRef        `json:"client,omitempty"`
	IssuedDate *string                 `json:"issued_date,omitempty"`
	DueDate    *string                 `json:"due_date,omitempty"`
	Items      []model.LineItem        `json:"items,omitempty"`
	Subtotal   *decimal.Decimal        `json:"subtotal,omitempty"`
	Tax        *decimal.Decimal        `json:"tax,omitempty"`
	Total      *decimal.Decimal        `json:"total,omitempty"`
	Status     *model.ReceivableStatus `json:"status,omitempty"`
	Logo       *string                 `json:"logo,omitempty"`
	Notes      *string                 `json:"notes,omitempty"`
}

// Service implements the receivable tracker and the client registry.
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

// Add creates a pending receivable. Missing totals are derived from the line
// items; a missing number is generated from the creation time.
func (s *Service) Add(ctx context.Context, in Input) (*model.Receivable, error) {
	now := s.Clock()
	rc := &model.Receivable{
		ID:         uuid.NewString(),
		Number:     model.Sanitize(in.Number),
		Client:     sanitizeClient(in.Client),
		IssuedDate: in.IssuedDate,
		DueDate:    in.DueDate,
		Items:      in.Items,
		Subtotal:   in.Subtotal,
		Tax:        in.Tax,
		Total:      in.Total,
		Status:     model.StatusPending,
		PaidAmount: decimal.Zero,
		Payments:   []model.Collection{},
		Logo:       in.Logo,
		Notes:      model.Sanitize(in.Notes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if rc.Number == "" {
		rc.Number = generateNumber(now)
	}
	if rc.IssuedDate == "" {
		rc.IssuedDate = now.Format(model.DateLayout)
	}
	if rc.Items == nil {
		rc.Items = []model.LineItem{}
	}
	deriveTotals(rc)

	err := s.store.Update(ctx, func(r store.Repo) error {
		if err := resolveClient(r, &rc.Client); err != nil {
			return err
		}
		if err := validate(rc); err != nil {
			return err
		}
		return r.CreateReceivable(rc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("receivable added", "id", rc.ID, "number", rc.Number, "client", rc.Client.Name, "total", rc.Total.String())
	return rc, nil
}

// Update merges fields onto an existing receivable and recomputes its status.
// A caller may mark an unsettled receivable as overdue.
func (s *Service) Update(ctx context.Context, in Update) (*model.Receivable, error) {
	var rc *model.Receivable
	err := s.store.Update(ctx, func(r store.Repo) error {
		var err error
		if rc, err = r.GetReceivable(in.ID); err != nil {
			return err
		}
		if in.Version != 0 && in.Version != rc.Version {
			return fmt.Errorf("%w: receivable %s", model.ErrConflict, in.ID)
		}
		if in.Status != nil && !in.Status.Valid() {
			return model.Invalid("status", fmt.Sprintf("unknown status %q", *in.Status))
		}
		derived := rc.Total.Equal(rc.Subtotal.Add(rc.Tax))
		merge(rc, in)
		rederiveTotals(rc, in, derived)
		if err := resolveClient(r, &rc.Client); err != nil {
			return err
		}
		if err := validate(rc); err != nil {
			return err
		}

		requested := rc.Status
		rc.Status = settle(rc)
		if rc.Status == model.StatusPending && requested == model.StatusOverdue {
			rc.Status = model.StatusOverdue
		}
		rc.UpdatedAt = s.Clock()
		return r.UpdateReceivable(rc)
	})
	if err != nil {
		return nil, err
	}
	return rc, nil
}

func merge(rc *model.Receivable, in Update) {
	if in.Number != nil {
		rc.Number = model.Sanitize(*in.Number)
	}
	if in.Client != nil {
		rc.Client = sanitizeClient(*in.Client)
	}
	if in.IssuedDate != nil {
		rc.IssuedDate = *in.IssuedDate
	}
	if in.DueDate != nil {
		rc.DueDate = *in.DueDate
	}
	if in.Items != nil {
		rc.Items = append([]model.LineItem{}, in.Items...)
	}
	if in.Subtotal != nil {
		rc.Subtotal = *in.Subtotal
	}
	if in.Tax != nil {
		rc.Tax = *in.Tax
	}
	if in.Total != nil {
		rc.Total = *in.Total
	}
	if in.Status != nil {
		rc.Status = *in.Status
	}
	if in.Logo != nil {
		rc.Logo = *in.Logo
	}
	if in.Notes != nil {
		rc.Notes = model.Sanitize(*in.Notes)
	}
}

// Pay records a collection: an income transaction on the account, a payment
// entry, and the new paid amount and status, all in one unit of work.
func (s *Service) Pay(ctx context.Context, id, accountID string, amount decimal.Decimal, proof string) (*model.Receivable, error) {
	if !amount.IsPositive() {
		return nil, model.Invalid("amount", "payment amount must be positive")
	}

	var rc *model.Receivable
	err := s.store.Update(ctx, func(r store.Repo) error {
		var err error
		if rc, err = r.GetReceivable(id); err != nil {
			return err
		}
		if _, err := r.GetAccount(accountID); err != nil {
			return err
		}

		now := s.Clock()
		txn, err := ledger.Record(r, ledger.Entry{
			Direction:   model.Income,
			Amount:      amount,
			Category:    CollectionCategory,
			Description: "Cobro: " + rc.Client.Name,
			AccountID:   accountID,
		}, now)
		if err != nil {
			return err
		}

		rc.Payments = append(rc.Payments, model.Collection{
			ID:            uuid.NewString(),
			TransactionID: txn.ID,
			Date:          now,
			Amount:        amount,
			AccountID:     accountID,
			Proof:         proof,
		})
		rc.PaidAmount = rc.PaidAmount.Add(amount)
		if model.Settled(rc.PaidAmount, rc.Total) {
			rc.Status = model.StatusPaid
		}
		rc.UpdatedAt = now
		return r.UpdateReceivable(rc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("receivable collected",
		"id", rc.ID,
		"amount", amount.String(),
		"paid_amount", rc.PaidAmount.String(),
		"status", rc.Status,
	)
	return rc, nil
}

// DeletePayment removes one payment entry and its contribution to the paid
// amount. The income transaction recorded for it is left in place.
func (s *Service) DeletePayment(ctx context.Context, id string, index int) (*model.Receivable, error) {
	var rc *model.Receivable
	err := s.store.Update(ctx, func(r store.Repo) error {
		var err error
		if rc, err = r.GetReceivable(id); err != nil {
			return err
		}
		if index < 0 || index >= len(rc.Payments) {
			return model.NotFound("payment", fmt.Sprintf("%s#%d", id, index))
		}

		payment := rc.Payments[index]
		rc.PaidAmount = rc.PaidAmount.Sub(payment.Amount)
		if rc.PaidAmount.IsNegative() {
			rc.PaidAmount = decimal.Zero
		}
		rc.Status = settle(rc)
		rc.Payments = append(rc.Payments[:index], rc.Payments[index+1:]...)
		rc.UpdatedAt = s.Clock()
		return r.UpdateReceivable(rc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("receivable payment deleted", "id", id, "index", index, "paid_amount", rc.PaidAmount.String())
	return rc, nil
}

// UpdatePayment replaces the date and amount of one payment entry and
// recomputes the paid amount and status.
func (s *Service) UpdatePayment(ctx context.Context, id string, index int, date time.Time, amount decimal.Decimal) (*model.Receivable, error) {
	if !amount.IsPositive() {
		return nil, model.Invalid("amount", "payment amount must be positive")
	}

	var rc *model.Receivable
	err := s.store.Update(ctx, func(r store.Repo) error {
		var err error
		if rc, err = r.GetReceivable(id); err != nil {
			return err
		}
		if index < 0 || index >= len(rc.Payments) {
			return model.NotFound("payment", fmt.Sprintf("%s#%d", id, index))
		}

		payment := &rc.Payments[index]
		rc.PaidAmount = rc.PaidAmount.Sub(payment.Amount).Add(amount)
		payment.Date = date
		payment.Amount = amount
		rc.Status = settle(rc)
		rc.UpdatedAt = s.Clock()
		return r.UpdateReceivable(rc)
	})
	if err != nil {
		return nil, err
	}
	return rc, nil
}

// Delete removes a receivable. Collected income stays on the ledger.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.store.Update(ctx, func(r store.Repo) error {
		if _, err := r.GetReceivable(id); err != nil {
			return err
		}
		return r.DeleteReceivable(id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("receivable deleted", "id", id)
	return nil
}

// Get returns one receivable.
func (s *Service) Get(ctx context.Context, id string) (*model.Receivable, error) {
	var rc *model.Receivable
	err := s.store.View(ctx, func(r store.Repo) error {
		var err error
		rc, err = r.GetReceivable(id)
		return err
	})
	return rc, err
}

// List returns every receivable in creation order.
func (s *Service) List(ctx context.Context) ([]model.Receivable, error) {
	var out []model.Receivable
	err := s.store.View(ctx, func(r store.Repo) error {
		var err error
		out, err = r.ListReceivables()
		return err
	})
	return out, err
}

// settle returns paid when the paid amount covers the total, pending otherwise.
func settle(rc *model.Receivable) model.ReceivableStatus {
	if model.Settled(rc.PaidAmount, rc.Total) {
		return model.StatusPaid
	}
	return model.StatusPending
}

func validate(rc *model.Receivable) error {
	if rc.Client.Name == "" {
		return model.Invalid("client", "client name is required")
	}
	if !rc.Total.IsPositive() {
		return model.Invalid("total", "total must be greater than 0")
	}
	if !model.ValidDate(rc.IssuedDate) {
		return model.Invalid("issued_date", "issued date must be YYYY-MM-DD")
	}
	if rc.DueDate != "" && !model.ValidDate(rc.DueDate) {
		return model.Invalid("due_date", "due date must be YYYY-MM-DD")
	}
	return nil
}

// deriveTotals fills line totals, subtotal and total when they were omitted.
func deriveTotals(rc *model.Receivable) {
	sum := sumItems(rc.Items)
	if rc.Subtotal.IsZero() {
		rc.Subtotal = sum
	}
	if rc.Total.IsZero() {
		rc.Total = rc.Subtotal.Add(rc.Tax)
	}
}

// rederiveTotals recomputes the amounts an update made stale. New items
// replace the subtotal, and the total follows subtotal plus tax when the
// items change or when it was derived that way before. Amounts set by the
// update itself win.
func rederiveTotals(rc *model.Receivable, in Update, derived bool) {
	if in.Items != nil {
		sum := sumItems(rc.Items)
		if in.Subtotal == nil {
			rc.Subtotal = sum
		}
	}
	if in.Total != nil {
		return
	}
	if in.Items != nil || (derived && (in.Subtotal != nil || in.Tax != nil)) {
		rc.Total = rc.Subtotal.Add(rc.Tax)
	}
}

// sumItems fills omitted line totals and returns their sum.
func sumItems(items []model.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for i := range items {
		item := &items[i]
		item.Description = model.Sanitize(item.Description)
		if item.Total.IsZero() {
			item.Total = item.Quantity.Mul(item.Price)
		}
		sum = sum.Add(item.Total)
	}
	return sum
}

// resolveClient fills the denormalized client name and tax id from the
// client registry when only the id was given.
func resolveClient(r store.Repo, ref *model.ClientRef) error {
	if ref.ID == "" || ref.Name != "" {
		return nil
	}
	c, err := r.GetClient(ref.ID)
	if err != nil {
		return err
	}
	ref.Name = c.Name
	if ref.TaxID == "" {
		ref.TaxID = c.TaxID
	}
	return nil
}

func sanitizeClient(ref model.ClientRef) model.ClientRef {
	return model.ClientRef{
		ID:    ref.ID,
		Name:  model.Sanitize(ref.Name),
		TaxID: model.Sanitize(ref.TaxID),
	}
}

// generateNumber builds an invoice number from the last six digits of the
// creation time in milliseconds.
func generateNumber(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "A-" + ms
}
