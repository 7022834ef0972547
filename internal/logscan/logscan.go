// Package logscan implements the access-log variant of the scan: glob the
// log directory (rotated and gzip-compressed files included), search every
// line for a literal substring, and export matching lines to CSV.
package logscan

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dukaforge/datascout/pkg/types"
)

// DefaultPattern matches the usual access-log rotation names: access.log,
// access.log.1, access_log.2.gz, and so on.
const DefaultPattern = "access*log*"

// maxLineBytes bounds a single log line; access logs with absurdly long
// request lines still fit.
const maxLineBytes = 1 << 20

// errExport separates export-side write failures (fatal) from per-file read
// failures (skip the file, keep scanning).
var errExport = errors.New("export write failed")

// Config holds the parameters of one log scan.
type Config struct {
	Dir     string // directory holding the logs
	Pattern string // glob pattern within Dir; DefaultPattern when empty
	Term    string // literal substring, never a pattern
	OutDir  string // directory receiving log_matches.csv
}

// Summary reports what one log scan did.
type Summary struct {
	Files      int
	Matches    int
	ExportPath string
}

// Scan walks every matching log file and appends matching lines to one CSV
// export with the header file_name,line_number,line. The export is created
// lazily on the first match, so a scan with no hits leaves nothing on disk.
// Per-file open and read errors skip the file and the scan continues.
func Scan(ctx context.Context, cfg Config, log *slog.Logger) (*Summary, error) {
	if cfg.Term == "" {
		return nil, types.ErrMissingTerm
	}
	pattern := cfg.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}

	paths, err := filepath.Glob(filepath.Join(cfg.Dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("bad log pattern %q: %w", pattern, err)
	}

	summary := &Summary{}
	var (
		out *os.File
		w   *csv.Writer
	)
	defer func() {
		if w != nil {
			w.Flush()
		}
		if out != nil {
			out.Close()
		}
	}()

	emit := func(path string, lineNo int, line string) error {
		if w == nil {
			if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
				return fmt.Errorf("%w: create export dir: %v", errExport, err)
			}
			exportPath := filepath.Join(cfg.OutDir, "log_matches.csv")
			f, err := os.OpenFile(exportPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("%w: open export file: %v", errExport, err)
			}
			out = f
			w = csv.NewWriter(f)
			summary.ExportPath = exportPath
			if err := w.Write([]string{"file_name", "line_number", "line"}); err != nil {
				return fmt.Errorf("%w: %v", errExport, err)
			}
		}
		if err := w.Write([]string{path, strconv.Itoa(lineNo), line}); err != nil {
			return fmt.Errorf("%w: %v", errExport, err)
		}
		return nil
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("log scan cancelled: %w", err)
		}

		log.Info("scanning log file", "file", path)
		n, err := scanFile(path, cfg.Term, emit)
		if errors.Is(err, errExport) {
			return nil, err
		}
		if err != nil {
			log.Warn("skipping unreadable log file", "file", path, "error", err)
			continue
		}
		summary.Files++
		summary.Matches += n
	}

	if w != nil {
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, fmt.Errorf("write export: %w", err)
		}
	}

	log.Info("log scan complete", "files", summary.Files, "matches", summary.Matches)
	return summary, nil
}

// scanFile searches one log file line by line, transparently decompressing
// *.gz rotations.
func scanFile(path, term string, emit func(string, int, string) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return 0, err
		}
		defer gz.Close()
		r = gz
	}

	matches := 0
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := sc.Text()
		if !strings.Contains(line, term) {
			continue
		}
		if err := emit(path, lineNo, line); err != nil {
			return matches, err
		}
		matches++
	}
	return matches, sc.Err()
}
