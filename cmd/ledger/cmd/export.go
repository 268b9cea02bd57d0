package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/beancount"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/config"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/converter"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/engine"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/export"
)

var (
	dateFrom string
	dateTo   string
	dryRun   bool
)

// exportCmd represents the export command.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export transactions to Beancount",
	Long: `Export ledger transactions to monthly Beancount files.

This command:
1. Lists transactions in the date range
2. Filters out already exported transactions
3. Converts them to Beancount format using the account mapping
4. Appends to monthly Beancount files
5. Records export history

Example:
  ledger export
  ledger export --from 2024-01-01 --to 2024-01-31 --dry-run`,
	Run: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&dateFrom, "from", "", "Start date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&dateTo, "to", "", "End date (YYYY-MM-DD)")
	exportCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Dry run mode (no file writes)")
}

// newExporter builds the Beancount exporter for e.
func newExporter(cfg *config.Config, e *engine.Engine) (*export.Exporter, error) {
	mapper := converter.NewMapperFromConfig(converter.MappingConfig{})
	if cfg.Export.MappingFile != "" {
		var err error
		if mapper, err = converter.NewMapper(cfg.Export.MappingFile); err != nil {
			return nil, fmt.Errorf("failed to load account mapping: %w", err)
		}
	}

	paths := cfg.Paths()
	cvtr := converter.NewConverter(mapper, cfg.Ledger.Currency)
	repo := beancount.NewFileSystemRepository(paths, cfg.Ledger.Currency)
	return export.New(e.Store(), repo, cvtr, paths, slog.Default()), nil
}

func runExport(cmd *cobra.Command, args []string) {
	slog.Info("Starting export", "from", dateFrom, "to", dateTo, "dry_run", dryRun)

	cfg := loadConfig()
	e := openEngine(cfg)
	defer e.Close()

	exporter, err := newExporter(cfg, e)
	exitOnError(err, "failed to initialize exporter")

	report, err := exporter.Run(cmd.Context(), export.Options{From: dateFrom, To: dateTo, DryRun: dryRun})
	exitOnError(err, "failed to export")

	if dryRun {
		for _, file := range report.Files {
			fmt.Printf("[DRY RUN] Would append to %s\n", file)
		}
		for _, entry := range report.Preview {
			fmt.Println(entry)
		}
		return
	}

	if report.Exported == 0 && report.Failed == 0 {
		fmt.Println("No new transactions to export")
		return
	}

	fmt.Println("\n=== Export Summary ===")
	fmt.Printf("Exported: %d\n", report.Exported)
	fmt.Printf("Skipped:  %d\n", report.Skipped)
	fmt.Printf("Failed:   %d\n", report.Failed)
	for _, file := range report.Files {
		fmt.Printf("  %s\n", file)
	}
	fmt.Println()

	slog.Info("Export completed", "exported", report.Exported, "files_written", len(report.Files))
}
