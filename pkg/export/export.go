// Package export appends ledger transactions to monthly Beancount files,
// exporting each transaction once.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/beancount"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/converter"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/pathutil"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/store"
)

// Options filters and controls a run. Empty dates are unbounded.
type Options struct {
	From   string
	To     string
	DryRun bool
}

// Report summarises a run.
type Report struct {
	Exported int      `json:"exported"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Files    []string `json:"files"`
	// Preview holds the formatted entries of a dry run.
	Preview []string `json:"preview,omitempty"`
}

// Exporter writes new transactions through a Beancount repository and
// records them in the export history.
type Exporter struct {
	store     store.Store
	repo      beancount.Repository
	converter *converter.Converter
	paths     *pathutil.PathResolver
	logger    *slog.Logger

	// Clock stamps the export history. Tests replace it.
	Clock func() time.Time
}

// New creates an Exporter.
func New(st store.Store, repo beancount.Repository, cvtr *converter.Converter, paths *pathutil.PathResolver, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		store:     st,
		repo:      repo,
		converter: cvtr,
		paths:     paths,
		logger:    logger,
		Clock:     time.Now,
	}
}

type pending struct {
	txn     model.Transaction
	account *model.Account
}

// Run exports every transaction in range that has not been exported yet.
// A transaction that fails to append or to be recorded is logged and retried
// on the next run. The repository skips entries already in the file, so a
// retry after a failed record does not duplicate the entry.
func (e *Exporter) Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.From != "" && !model.ValidDate(opts.From) {
		return nil, model.Invalid("from", "date must be YYYY-MM-DD")
	}
	if opts.To != "" && !model.ValidDate(opts.To) {
		return nil, model.Invalid("to", "date must be YYYY-MM-DD")
	}

	var byMonth map[string][]pending
	report := &Report{Files: []string{}}

	err := e.store.View(ctx, func(r store.Repo) error {
		exported, err := r.ExportedIDs()
		if err != nil {
			return err
		}
		txns, err := r.ListTransactions("")
		if err != nil {
			return err
		}
		accounts, err := r.ListAccounts()
		if err != nil {
			return err
		}
		byID := make(map[string]*model.Account, len(accounts))
		for i := range accounts {
			byID[accounts[i].ID] = &accounts[i]
		}

		byMonth = make(map[string][]pending)
		for _, t := range txns {
			day := t.Date.Format(model.DateLayout)
			if (opts.From != "" && day < opts.From) || (opts.To != "" && day > opts.To) {
				continue
			}
			if exported[t.ID] {
				report.Skipped++
				continue
			}
			month := day[:7]
			byMonth[month] = append(byMonth[month], pending{txn: t, account: byID[t.AccountID]})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	months := make([]string, 0, len(byMonth))
	for month := range byMonth {
		months = append(months, month)
	}
	sort.Strings(months)

	for _, month := range months {
		items := byMonth[month]
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].txn.Date.Before(items[j].txn.Date)
		})

		if opts.DryRun {
			filePath, err := e.paths.GetMonthFilePath(month)
			if err != nil {
				return nil, fmt.Errorf("failed to get month file path: %w", err)
			}
			for _, item := range items {
				entry := e.converter.ConvertTransaction(item.txn, item.account)
				report.Preview = append(report.Preview, e.converter.FormatTransaction(entry))
			}
			report.Files = append(report.Files, filePath)
			continue
		}

		filePath, err := e.repo.EnsureMonthFile(month)
		if err != nil {
			return nil, fmt.Errorf("failed to ensure month file: %w", err)
		}

		written := 0
		for _, item := range items {
			entry := e.converter.ConvertTransaction(item.txn, item.account)
			appended, err := e.repo.AppendTransaction(month, item.txn.ID, e.converter.FormatTransaction(entry))
			if err != nil {
				e.logger.Error("Failed to append transaction", "transaction_id", item.txn.ID, "error", err)
				report.Failed++
				continue
			}
			if !appended {
				e.logger.Info("Entry already in file, recording export", "transaction_id", item.txn.ID, "path", filePath)
			}

			err = e.store.Update(ctx, func(r store.Repo) error {
				return r.MarkExported(model.ExportRecord{
					TransactionID: item.txn.ID,
					File:          filePath,
					ExportedAt:    e.Clock(),
				})
			})
			if err != nil {
				e.logger.Error("Failed to record export", "transaction_id", item.txn.ID, "error", err)
				report.Failed++
				continue
			}
			written++
		}

		report.Exported += written
		report.Files = append(report.Files, filePath)
		e.logger.Info("Updated file", "path", filePath, "transactions", written)
	}

	return report, nil
}
