package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/classifier"
)

var projectDays int

// classifyCmd represents the classify command.
var classifyCmd = &cobra.Command{
	Use:   "classify TEXT",
	Short: "Run a free-text command",
	Long: `Classify a free-text command and apply it to the ledger.

Commands are matched in order: reminders ("recordar ..."), bills
("factura ...", "... pendiente"), income ("cobré 1500") and finally
expenses ("super 500 con efectivo").

Example:
  ledger classify "Factura de luz 500 pendiente"
  ledger classify Super 500 con efectivo`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e := openEngine(loadConfig())
		defer e.Close()

		res := e.Classify(cmd.Context(), strings.Join(args, " "))
		fmt.Printf("[%s] %s\n", res.Kind, res.Message)
		if res.Status == classifier.StatusFailed {
			e.Close()
			exitOnError(res.Err, "command failed")
		}
	},
}

// projectCmd represents the project command.
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Forecast the total balance",
	Long: `Forecast the total balance day by day from the due dates of unpaid
bills and open invoices.

Example:
  ledger project --days 14`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		e := openEngine(cfg)
		defer e.Close()

		days := projectDays
		if !cmd.Flags().Changed("days") {
			days = cfg.Ledger.ProjectionDays
		}

		points, err := e.Cashflow.Project(cmd.Context(), days)
		exitOnError(err, "failed to project cash flow")

		fmt.Printf("%-12s %14s %14s %14s\n", "DATE", "IN", "OUT", "BALANCE")
		for _, p := range points {
			fmt.Printf("%-12s %14s %14s %14s\n", p.Date, p.In.StringFixed(2), p.Out.StringFixed(2), p.Balance.StringFixed(2))
		}
	},
}

// balanceCmd represents the balance command.
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show account balances",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		e := openEngine(cfg)
		defer e.Close()

		accounts, err := e.Ledger.ListAccounts(cmd.Context())
		exitOnError(err, "failed to list accounts")
		total, err := e.Ledger.TotalBalance(cmd.Context())
		exitOnError(err, "failed to compute balance")

		for _, a := range accounts {
			fmt.Printf("%-24s %-8s %14s\n", a.Name, a.Kind, a.Balance.StringFixed(2))
		}
		fmt.Printf("%-33s %14s %s\n", "TOTAL", total.StringFixed(2), cfg.Ledger.Currency)
	},
}

// reconcileCmd represents the reconcile command.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Check balances against transactions",
	Long: `Recompute every account balance from its opening balance and its
transactions, and report the accounts that disagree. Exits non-zero when a
discrepancy is found.`,
	Run: func(cmd *cobra.Command, args []string) {
		e := openEngine(loadConfig())
		defer e.Close()

		discrepancies, err := e.Ledger.Reconcile(cmd.Context())
		exitOnError(err, "failed to reconcile")

		if len(discrepancies) == 0 {
			fmt.Println("All balances match their transactions")
			return
		}
		for _, d := range discrepancies {
			fmt.Printf("%-24s balance %s, expected %s (diff %s)\n",
				d.Name, d.Balance.StringFixed(2), d.Expected.StringFixed(2), d.Difference().StringFixed(2))
		}
		e.Close()
		exitOnError(fmt.Errorf("%d account(s) out of balance", len(discrepancies)), "reconciliation failed")
	},
}

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default accounts and categories",
	Long: `Create the seed accounts and categories (LEDGER_SEED_FILE or the
built-in defaults). Each set is only created when the ledger has none.`,
	Run: func(cmd *cobra.Command, args []string) {
		e := openEngine(loadConfig())
		defer e.Close()

		report, err := e.Seed(cmd.Context())
		exitOnError(err, "failed to seed ledger")
		fmt.Printf("Seeded accounts: %d, categories: %d\n", report.Accounts, report.Categories)
	},
}

func init() {
	projectCmd.Flags().IntVar(&projectDays, "days", 30, "number of days to project")
}
