// Package runlog builds the per-run transcript logger: a line-oriented
// log/slog text log written to a timestamped file under the data directory
// and mirrored to the terminal.
package runlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// logSubdir is the directory under the data dir that collects run logs.
const logSubdir = "logs"

// Stamp returns the timestamp token shared by a run's log file and its
// export directory.
func Stamp() string {
	return time.Now().Format("20060102_150405")
}

// New creates the run log scan_<stamp>.log under dataDir/logs, mirrored to
// mirror (typically os.Stderr; pass nil for file-only). verbose lowers the
// level to Debug. It returns the logger, the log file path, and a close
// function.
func New(dataDir, stamp string, verbose bool, mirror io.Writer) (*slog.Logger, string, func() error, error) {
	dir := filepath.Join(dataDir, logSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", nil, fmt.Errorf("create log dir: %w", err)
	}

	path := filepath.Join(dir, "scan_"+stamp+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open run log: %w", err)
	}

	var w io.Writer = f
	if mirror != nil {
		w = io.MultiWriter(f, mirror)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return logger, path, f.Close, nil
}
