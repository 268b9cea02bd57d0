// Package cashflow forecasts the total balance from the due dates of open
// obligations and summarises the ledger's financial health. It only reads.
package cashflow

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/ledger"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/store"
)

// MaxProjectionDays bounds the projection horizon to one leap year.
const MaxProjectionDays = 366

// Point is the projected state at the end of one day.
type Point struct {
	Date    string          `json:"date"`
	Balance decimal.Decimal `json:"balance"`
	In      decimal.Decimal `json:"in"`
	Out     decimal.Decimal `json:"out"`
}

// Service reads snapshots of the ledger.
type Service struct {
	store store.Store

	// Clock returns the current time. Tests replace it.
	Clock func() time.Time
}

// New creates a Service.
func New(st store.Store) *Service {
	return &Service{store: st, Clock: time.Now}
}

// Project forecasts the balance for each of the next days, today included.
// Settlement is assumed to happen in full on the due date, and recurring
// obligations are counted once. The horizon must be between 1 and
// MaxProjectionDays.
func (s *Service) Project(ctx context.Context, days int) ([]Point, error) {
	if days < 1 || days > MaxProjectionDays {
		return nil, model.Invalid("days", fmt.Sprintf("days must be between 1 and %d", MaxProjectionDays))
	}

	var (
		balance     decimal.Decimal
		payables    []model.Payable
		receivables []model.Receivable
	)
	err := s.store.View(ctx, func(r store.Repo) error {
		var err error
		if balance, err = ledger.TotalBalance(r); err != nil {
			return err
		}
		if payables, err = r.ListPayables(); err != nil {
			return err
		}
		receivables, err = r.ListReceivables()
		return err
	})
	if err != nil {
		return nil, err
	}
	return Forecast(balance, payables, receivables, s.Clock(), days), nil
}

// Forecast buckets the outstanding part of every open obligation on its due
// date and walks the balance forward from start.
func Forecast(balance decimal.Decimal, payables []model.Payable, receivables []model.Receivable, start time.Time, days int) []Point {
	out := map[string]decimal.Decimal{}
	for _, p := range payables {
		if p.IsPaid {
			continue
		}
		out[p.DueDate] = out[p.DueDate].Add(p.Outstanding())
	}
	in := map[string]decimal.Decimal{}
	for _, rc := range receivables {
		if rc.Status == model.StatusPaid || rc.DueDate == "" {
			continue
		}
		in[rc.DueDate] = in[rc.DueDate].Add(rc.Outstanding())
	}

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	points := make([]Point, 0, max(days, 0))
	for i := 0; i < days; i++ {
		date := day.AddDate(0, 0, i).Format(model.DateLayout)
		balance = balance.Sub(out[date]).Add(in[date])
		points = append(points, Point{
			Date:    date,
			Balance: balance,
			In:      in[date],
			Out:     out[date],
		})
	}
	return points
}
