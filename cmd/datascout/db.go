// Db command: scan every table/column of a MySQL server for an exact-match
// value and export the owning rows.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dukaforge/datascout/internal/history"
	"github.com/dukaforge/datascout/internal/mysqlq"
	"github.com/dukaforge/datascout/internal/runlog"
	"github.com/dukaforge/datascout/internal/search"
	"github.com/dukaforge/datascout/pkg/types"
)

var (
	flagDBTerm    string
	flagDBAskPass bool
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Scan a MySQL server for an exact-match value",
	Long: `Db scans every table and column for a value equal to --term and exports
the owning rows, one file per database, as CSV or flat text. With --database
only that database is scanned; otherwise every non-system database is.

The term is compared for exact equality, never as a pattern. The password is
read from MYSQL_PWD or prompted for with --ask-pass; it is never taken from
a flag or stored anywhere.

Example:
  datascout db --term "O'Brien"
  datascout db --term 4916338506082832 --database billing --format txt
  datascout db --term secret@corp.example --host db1 --user auditor --ask-pass`,
	Args: cobra.NoArgs,
	RunE: runDB,
}

func init() {
	dbCmd.Flags().StringVar(&flagDBTerm, "term", "", "value to search for (required)")
	dbCmd.Flags().String("database", "", "scan only this database (default: all non-system databases)")
	dbCmd.Flags().String("format", "", "export format: csv or txt (default: config, csv)")
	dbCmd.Flags().String("host", "", "MySQL host")
	dbCmd.Flags().Int("port", 0, "MySQL port")
	dbCmd.Flags().String("user", "", "MySQL user")
	dbCmd.Flags().String("output-dir", "", "export directory (default: <data dir>/exports)")
	dbCmd.Flags().BoolVar(&flagDBAskPass, "ask-pass", false, "prompt for the MySQL password")
}

func runDB(cmd *cobra.Command, args []string) error {
	if flagDBTerm == "" {
		return types.ErrMissingTerm
	}

	cfg := types.Config{
		Host:     stringOpt(cmd, "host", cfgKeyHost),
		Port:     intOpt(cmd, "port", cfgKeyPort),
		User:     stringOpt(cmd, "user", cfgKeyUser),
		Format:   stringOpt(cmd, "format", cfgKeyFormat),
		Database: mustString(cmd, "database"),
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %q (valid: csv, txt)", err, cfg.Format)
	}

	dataDir, err := resolveDataDir()
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = dataDir
	cfg.OutputDir = stringOpt(cmd, "output-dir", cfgKeyOutputDir)
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(dataDir, "exports")
	}

	stamp := runlog.Stamp()
	log, logPath, closeLog, err := runlog.New(dataDir, stamp, flagVerbose, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	password, err := acquirePassword(flagDBAskPass)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	runner := mysqlq.NewClientRunner(cfg, password)
	defer runner.Wipe()

	exports := search.NewExportSet(filepath.Join(cfg.OutputDir, "scan_"+stamp), cfg.Format)
	defer exports.Close()

	rec := openRecorder(dataDir, log)
	defer rec.close()
	target := cfg.Database
	rec.start(history.Run{
		RunID:      rec.runID,
		Kind:       history.KindDB,
		Target:     target,
		Format:     cfg.Format,
		TermSHA256: history.HashTerm(flagDBTerm),
		StartedAt:  history.Now(),
	})

	if target == "" {
		target = "all databases"
	}
	log.Info("starting database scan", "run_id", rec.runID, "target", target, "format", cfg.Format)

	ctx := cmd.Context()
	scanner := search.New(runner, cfg, exports, log)
	if err := scanner.Prepare(ctx, flagDBTerm); err != nil {
		log.Error("escaping search term failed", "error", err)
		rec.finish(history.StatusFailed, nil)
		return err
	}

	summary, err := scanner.Run(ctx)
	if err != nil {
		log.Error("scan aborted", "error", err)
		rec.finish(history.StatusFailed, nil)
		return err
	}

	status := history.StatusCompleted
	if summary.NothingToScan {
		status = history.StatusNothingToScan
	}
	rec.finish(status, summary)

	if summary.NothingToScan {
		fmt.Println("No databases to scan.")
		return nil
	}
	fmt.Printf("Scanned %d columns across %d databases: %d matching rows (%d columns skipped).\n",
		summary.Units, summary.Databases, summary.Matches, summary.Skipped)
	for _, hit := range summary.Hits {
		fmt.Printf("  %s: %d rows -> %s\n", hit.Unit, hit.Matches, hit.ExportPath)
	}
	fmt.Println("Run log:", logPath)
	return nil
}

// mustString reads a string flag that is known to exist.
func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
