// Package cmd provides CLI commands for the ledger.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/config"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/engine"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Small-business obligation ledger",
	Long: `ledger tracks cash accounts, income and expenses, bills owed and
invoices receivable, and forecasts the cash balance from their due dates.

It supports:
- Free-text commands ("Super 500 con efectivo", "Factura de luz 500 pendiente")
- Cash-flow projection and balance reconciliation
- A JSON HTTP API
- Exporting transactions to Beancount files

Example:
  ledger seed
  ledger classify "Super 500 con efectivo"
  ledger project --days 14
  ledger serve`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logging
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statsCmd)
}

// Helper function to get config file path.
func getConfigFile() string {
	return cfgFile
}

// loadConfig loads and validates the configuration.
func loadConfig() *config.Config {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	err = cfg.Validate([]string{"store", "driver"}, []string{"store", "dataDir"})
	exitOnError(err, "invalid configuration")

	return cfg
}

// openEngine opens the configured store. Callers close the engine.
func openEngine(cfg *config.Config) *engine.Engine {
	slog.Debug("Opening store", "driver", cfg.Store.Driver, "data_dir", cfg.Store.DataDir)
	e, err := engine.Open(cfg, slog.Default())
	exitOnError(err, "failed to open store")
	return e
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
