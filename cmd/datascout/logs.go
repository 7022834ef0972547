// Logs command: scan web-server access logs for a literal substring.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dukaforge/datascout/internal/history"
	"github.com/dukaforge/datascout/internal/logscan"
	"github.com/dukaforge/datascout/internal/runlog"
	"github.com/dukaforge/datascout/pkg/types"
)

var flagLogsTerm string

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Scan access logs for a literal substring",
	Long: `Logs searches every access log in --log-dir (rotated and gzip-compressed
files included) for lines containing --term and exports the matches to CSV.

The term is a literal substring, never a pattern.

Example:
  datascout logs --term 203.0.113.7
  datascout logs --term "GET /admin" --log-dir /var/log/nginx --pattern "access*log*"`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().StringVar(&flagLogsTerm, "term", "", "substring to search for (required)")
	logsCmd.Flags().String("log-dir", "", "directory holding the access logs")
	logsCmd.Flags().String("pattern", "", "glob pattern within the log directory")
	logsCmd.Flags().String("output-dir", "", "export directory (default: <data dir>/exports)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	if flagLogsTerm == "" {
		return types.ErrMissingTerm
	}

	dataDir, err := resolveDataDir()
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}

	outputDir := stringOpt(cmd, "output-dir", cfgKeyOutputDir)
	if outputDir == "" {
		outputDir = filepath.Join(dataDir, "exports")
	}

	cfg := logscan.Config{
		Dir:     stringOpt(cmd, "log-dir", cfgKeyLogDir),
		Pattern: stringOpt(cmd, "pattern", cfgKeyLogPattern),
		Term:    flagLogsTerm,
	}

	stamp := runlog.Stamp()
	cfg.OutDir = filepath.Join(outputDir, "scan_"+stamp)

	log, logPath, closeLog, err := runlog.New(dataDir, stamp, flagVerbose, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	rec := openRecorder(dataDir, log)
	defer rec.close()
	rec.start(history.Run{
		RunID:      rec.runID,
		Kind:       history.KindLogs,
		Target:     cfg.Dir,
		Format:     types.FormatCSV,
		TermSHA256: history.HashTerm(flagLogsTerm),
		StartedAt:  history.Now(),
	})

	log.Info("starting log scan", "run_id", rec.runID, "dir", cfg.Dir, "pattern", cfg.Pattern)

	summary, err := logscan.Scan(cmd.Context(), cfg, log)
	if err != nil {
		log.Error("log scan aborted", "error", err)
		rec.finishLogs(history.StatusFailed, nil)
		return err
	}
	rec.finishLogs(history.StatusCompleted, summary)

	fmt.Printf("Scanned %d log files: %d matching lines.\n", summary.Files, summary.Matches)
	if summary.ExportPath != "" {
		fmt.Println("Export:", summary.ExportPath)
	}
	fmt.Println("Run log:", logPath)
	return nil
}
