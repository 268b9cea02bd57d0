package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/engine"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/export"
)

// Options tunes the router.
type Options struct {
	// ProjectionDays is the default horizon of GET /projection.
	ProjectionDays int
	// Exporter enables POST /export when set.
	Exporter *export.Exporter
	// Quiet disables request logging.
	Quiet bool
}

// NewRouter builds the HTTP handler for e.
func NewRouter(e *engine.Engine, opts Options) http.Handler {
	if opts.ProjectionDays <= 0 {
		opts.ProjectionDays = 30
	}

	accounts := NewAccountsHandler(e.Ledger)
	transactions := NewTransactionsHandler(e.Ledger)
	payables := NewPayablesHandler(e.Payables)
	receivables := NewReceivablesHandler(e.Receivables)
	catalog := NewCatalogHandler(e.Catalog)
	insights := NewInsightsHandler(e, opts.ProjectionDays, opts.Exporter)

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if !opts.Quiet {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", accounts.List)
			r.Post("/", accounts.Create)
			r.Get("/{id}", accounts.Get)
			r.Put("/{id}", accounts.Update)
			r.Delete("/{id}", accounts.Delete)
		})
		r.Post("/transfers", accounts.Transfer)
		r.Get("/balance", accounts.Balance)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", transactions.List)
			r.Post("/", transactions.Create)
			r.Delete("/{id}", transactions.Delete)
			r.Put("/{id}/evidence", transactions.AttachEvidence)
		})

		r.Route("/payables", func(r chi.Router) {
			r.Get("/", payables.List)
			r.Post("/", payables.Create)
			r.Get("/{id}", payables.Get)
			r.Put("/{id}", payables.Update)
			r.Delete("/{id}", payables.Delete)
			r.Post("/{id}/pay", payables.Pay)
			r.Post("/{id}/unpay", payables.Unpay)
			r.Put("/{id}/receipt", payables.AttachReceipt)
		})

		r.Route("/receivables", func(r chi.Router) {
			r.Get("/", receivables.List)
			r.Post("/", receivables.Create)
			r.Get("/{id}", receivables.Get)
			r.Put("/{id}", receivables.Update)
			r.Delete("/{id}", receivables.Delete)
			r.Post("/{id}/pay", receivables.Pay)
			r.Put("/{id}/payments/{index}", receivables.UpdatePayment)
			r.Delete("/{id}/payments/{index}", receivables.DeletePayment)
		})

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", receivables.ListClients)
			r.Post("/", receivables.CreateClient)
			r.Put("/{id}", receivables.UpdateClient)
			r.Delete("/{id}", receivables.DeleteClient)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", catalog.ListCategories)
			r.Post("/", catalog.CreateCategory)
			r.Put("/{id}", catalog.UpdateCategory)
			r.Delete("/{id}", catalog.DeleteCategory)
		})

		r.Route("/todos", func(r chi.Router) {
			r.Get("/", catalog.ListTodos)
			r.Post("/", catalog.CreateTodo)
			r.Post("/{id}/toggle", catalog.ToggleTodo)
			r.Delete("/{id}", catalog.DeleteTodo)
		})

		r.Post("/classify", insights.Classify)
		r.Get("/projection", insights.Projection)
		r.Get("/summary", insights.Health)
		r.Get("/reconcile", insights.Reconcile)
		r.Get("/stats", insights.Stats)
		r.Post("/export", insights.Export)
	})

	// Health check endpoint.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}
