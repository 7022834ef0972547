// Shared helpers for datascout CLI commands: credential acquisition and
// best-effort history recording.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/dukaforge/datascout/internal/history"
	"github.com/dukaforge/datascout/internal/logscan"
	"github.com/dukaforge/datascout/internal/search"
)

// acquirePassword obtains the MySQL credential once for the run: a no-echo
// prompt with --ask-pass, otherwise the MYSQL_PWD environment variable. The
// variable is removed from this process's environment immediately so its
// lifetime is scoped to the query runner, which zeroes the returned bytes
// when the run ends.
func acquirePassword(askPass bool) ([]byte, error) {
	if askPass {
		fmt.Fprint(os.Stderr, "Password: ")
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		return pw, err
	}
	if env := os.Getenv("MYSQL_PWD"); env != "" {
		os.Unsetenv("MYSQL_PWD")
		return []byte(env), nil
	}
	return nil, nil
}

// recorder wraps the history store so scan commands can record runs without
// caring whether the store opened. History failures never fail a scan.
type recorder struct {
	store *history.Store
	log   *slog.Logger
	runID string
}

func openRecorder(dataDir string, log *slog.Logger) *recorder {
	rec := &recorder{log: log, runID: history.NewRunID()}
	store, err := history.Open(dataDir)
	if err != nil {
		log.Warn("scan history unavailable", "error", err)
		return rec
	}
	rec.store = store
	return rec
}

func (r *recorder) start(run history.Run) {
	if r.store == nil {
		return
	}
	if err := r.store.StartRun(run); err != nil {
		r.log.Warn("recording run start failed", "error", err)
	}
}

// finish records the run outcome. summary may be nil (failed runs).
func (r *recorder) finish(status string, summary *search.Summary) {
	if r.store == nil {
		return
	}
	var databases, columns, skipped int
	var matches int64
	if summary != nil {
		databases, columns, skipped = summary.Databases, summary.Units, summary.Skipped
		matches = summary.Matches
		for _, hit := range summary.Hits {
			if err := r.store.AddHit(r.runID, hit); err != nil {
				r.log.Warn("recording hit failed", "error", err)
			}
		}
	}
	if err := r.store.FinishRun(r.runID, status, databases, columns, matches, skipped); err != nil {
		r.log.Warn("recording run finish failed", "error", err)
	}
}

// finishLogs records the outcome of a log scan.
func (r *recorder) finishLogs(status string, summary *logscan.Summary) {
	if r.store == nil {
		return
	}
	var matches int64
	var files int
	if summary != nil {
		matches = int64(summary.Matches)
		files = summary.Files
	}
	if err := r.store.FinishRun(r.runID, status, 0, files, matches, 0); err != nil {
		r.log.Warn("recording run finish failed", "error", err)
	}
}

func (r *recorder) close() {
	if r.store != nil {
		_ = r.store.Close()
	}
}
