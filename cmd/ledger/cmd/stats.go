package cmd

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display command and export statistics",
	Long: `Display statistics about classified commands and exported transactions.

Shows:
- Number of classified commands per kind
- Total number of exported transactions
- Last command and last export timestamps

Example:
  ledger stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	slog.Info("Loading configuration")

	cfg := loadConfig()
	e := openEngine(cfg)
	defer e.Close()

	stats, err := e.Stats(cmd.Context())
	exitOnError(err, "failed to get statistics")

	kinds := make([]string, 0, len(stats.Commands))
	total := 0
	for kind, n := range stats.Commands {
		kinds = append(kinds, kind)
		total += n
	}
	sort.Strings(kinds)

	// Display statistics
	fmt.Println("\n=== Ledger Statistics ===")
	fmt.Printf("Total commands:        %d\n", total)
	for _, kind := range kinds {
		fmt.Printf("  %-20s %d\n", kind+":", stats.Commands[kind])
	}
	fmt.Printf("Exported transactions: %d\n", stats.Exported)

	if stats.LastCommand != nil {
		fmt.Printf("Last command:          %s\n", stats.LastCommand.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Printf("Last command:          (never)\n")
	}
	if stats.LastExport != nil {
		fmt.Printf("Last export:           %s\n", stats.LastExport.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Printf("Last export:           (never)\n")
	}

	fmt.Println()

	slog.Info("Statistics displayed successfully")
}
