// History command: list past scans from the local history store.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukaforge/datascout/internal/history"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past scans",
	Long: `History lists recent scans recorded in the local history database: when
they ran, what kind, which target, and how many matches they found. Search
terms are stored only as digests and are not shown.

Example:
  datascout history
  datascout history --limit 5`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "maximum number of runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	dataDir, err := resolveDataDir()
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}

	store, err := history.Open(dataDir)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	runs, err := store.RecentRuns(flagHistoryLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No scans recorded yet.")
		return nil
	}

	fmt.Printf("%-20s  %-4s  %-24s  %-6s  %8s  %-15s\n",
		"STARTED", "KIND", "TARGET", "FORMAT", "MATCHES", "STATUS")
	for _, r := range runs {
		target := r.Target
		if target == "" {
			target = "(all)"
		}
		if len(target) > 24 {
			target = target[:21] + "..."
		}
		fmt.Printf("%-20s  %-4s  %-24s  %-6s  %8d  %-15s\n",
			r.StartedAt, r.Kind, target, r.Format, r.Matches, r.Status)
	}
	return nil
}
