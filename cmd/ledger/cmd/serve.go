package cmd

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/api"
)

var serveAddr string

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON HTTP API",
	Long: `Serve the ledger over HTTP under /api/v1, with a health check at /health.

Example:
  ledger serve
  ledger serve --addr :9090`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default LEDGER_HTTP_ADDR or :8080)")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	// Setup structured JSON logging.
	logLevel := slog.LevelInfo
	if debug || cfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	e := openEngine(cfg)
	defer func() {
		if err := e.Close(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	report, err := e.Seed(cmd.Context())
	exitOnError(err, "failed to seed ledger")
	if report.Accounts > 0 || report.Categories > 0 {
		slog.Info("ledger seeded", "accounts", report.Accounts, "categories", report.Categories)
	}

	exporter, err := newExporter(cfg, e)
	exitOnError(err, "failed to initialize exporter")

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	server := &http.Server{
		Addr: addr,
		Handler: api.NewRouter(e, api.Options{
			ProjectionDays: cfg.Ledger.ProjectionDays,
			Exporter:       exporter,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		slog.Info("shutting down server")
		if err := server.Close(); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("starting ledger API", "addr", addr, "store", cfg.Store.Driver)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		exitOnError(err, "server error")
	}

	slog.Info("server stopped")
}
