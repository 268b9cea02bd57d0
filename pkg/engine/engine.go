// Package engine wires the ledger services over one store and runs
// classified commands through them.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/cashflow"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/catalog"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/classifier"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/config"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/db"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/ledger"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/payable"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/receivable"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/store"
)

// Engine is the ledger's domain surface.
type Engine struct {
	Ledger      *ledger.Service
	Payables    *payable.Service
	Receivables *receivable.Service
	Catalog     *catalog.Service
	Cashflow    *cashflow.Service
	Classifier  *classifier.Classifier

	store  store.Store
	seed   *config.Seed
	logger *slog.Logger
}

// New creates an Engine over st. A nil seed means config.DefaultSeed.
func New(st store.Store, seed *config.Seed, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if seed == nil {
		seed = config.DefaultSeed()
	}

	e := &Engine{
		Ledger:      ledger.New(st, logger),
		Payables:    payable.New(st, logger),
		Receivables: receivable.New(st, logger),
		Catalog:     catalog.New(st, logger),
		Cashflow:    cashflow.New(st),
		store:       st,
		seed:        seed,
		logger:      logger,
	}
	e.Classifier = classifier.New(actions{e}, seed.Keywords, logger)
	return e
}

// Open opens the store selected by cfg and creates an Engine over it.
func Open(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	st, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	seed, err := config.LoadSeed(cfg.Ledger.SeedFile)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return New(st, seed, logger), nil
}

// OpenStore opens the configured storage backend.
func OpenStore(cfg *config.Config) (store.Store, error) {
	paths := cfg.Paths()
	switch cfg.Store.Driver {
	case config.DriverBolt:
		st, err := store.New(paths.GetBoltPath())
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverSQLite, "":
		st, err := db.NewStore(paths.GetDatabasePath())
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// Store returns the underlying store.
func (e *Engine) Store() store.Store {
	return e.store
}

// Close closes the underlying store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// SetClock replaces the clock of every service.
func (e *Engine) SetClock(clock func() time.Time) {
	e.Ledger.Clock = clock
	e.Payables.Clock = clock
	e.Receivables.Clock = clock
	e.Catalog.Clock = clock
	e.Cashflow.Clock = clock
	e.Classifier.Clock = clock
}

// Classify runs text through the classifier and records the outcome in the
// command log. A failure to write the log is logged, not returned.
func (e *Engine) Classify(ctx context.Context, text string) classifier.Result {
	res := e.Classifier.Classify(ctx, text)

	rec := &model.CommandRecord{
		Text:      model.Sanitize(text),
		Kind:      string(res.Kind),
		Status:    string(res.Status),
		Message:   res.Message,
		CreatedAt: e.Classifier.Clock(),
	}
	err := e.store.Update(ctx, func(r store.Repo) error {
		return r.AppendCommand(rec)
	})
	if err != nil {
		e.logger.Error("Failed to record command", "error", err)
	}
	return res
}

// SeedReport counts what Seed created.
type SeedReport struct {
	Accounts   int `json:"accounts"`
	Categories int `json:"categories"`
}

// Seed creates the seed accounts and categories on an empty ledger. Each
// set is only written when none of its kind exists.
func (e *Engine) Seed(ctx context.Context) (*SeedReport, error) {
	inputs := make([]ledger.AccountInput, 0, len(e.seed.Accounts))
	for _, a := range e.seed.Accounts {
		inputs = append(inputs, ledger.AccountInput{
			Name:           a.Name,
			Kind:           a.Kind,
			InitialBalance: a.Balance,
			Color:          a.Color,
		})
	}

	report := &SeedReport{}
	var err error
	if report.Accounts, err = e.Ledger.SeedAccounts(ctx, inputs); err != nil {
		return nil, fmt.Errorf("failed to seed accounts: %w", err)
	}
	if report.Categories, err = e.Catalog.SeedCategories(ctx, e.seed.Categories); err != nil {
		return nil, fmt.Errorf("failed to seed categories: %w", err)
	}
	return report, nil
}

// Stats returns the command log and export history summary.
func (e *Engine) Stats(ctx context.Context) (*model.Stats, error) {
	var stats *model.Stats
	err := e.store.View(ctx, func(r store.Repo) error {
		var err error
		stats, err = r.Stats()
		return err
	})
	return stats, err
}
