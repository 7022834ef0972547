package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukaforge/datascout/pkg/types"
)

// ExportSet manages the export files of one run: one file per (format,
// database) pair, created lazily the first time a matching row is appended,
// with the CSV header written exactly once per file. All writes are
// append-only; an ExportSet never rewrites or truncates a file.
type ExportSet struct {
	dir    string
	format string
	files  map[string]*exportFile
}

type exportFile struct {
	f             *os.File
	path          string
	headerWritten bool
}

// NewExportSet prepares an export set writing files of the given format
// under dir. The directory itself is created lazily with the first file, so
// a run with zero matches leaves nothing on disk.
func NewExportSet(dir, format string) *ExportSet {
	return &ExportSet{
		dir:    dir,
		format: format,
		files:  make(map[string]*exportFile),
	}
}

// Dir returns the directory exports are written to.
func (e *ExportSet) Dir() string { return e.dir }

// Paths returns the files created so far, in no particular order.
func (e *ExportSet) Paths() []string {
	paths := make([]string, 0, len(e.files))
	for _, f := range e.files {
		paths = append(paths, f.path)
	}
	return paths
}

// Append writes the matching rows of one scan unit to the database's export
// file. headers are the decoded column names of the unit's table; rows hold
// raw (still transport-escaped) field values. It returns the path of the
// file written to.
//
// The CSV header comes from the first table appended to a file; later tables
// sharing the file may differ in column sets and are appended without a new
// header.
func (e *ExportSet) Append(u types.Unit, headers []string, rows [][]string) (string, error) {
	f, err := e.file(u.Database)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	switch e.format {
	case types.FormatCSV:
		if !f.headerWritten {
			b.WriteString(csvHeader(headers))
			f.headerWritten = true
		}
		for _, fields := range rows {
			b.WriteString(csvRow(u, fields))
		}
	case types.FormatTXT:
		b.WriteString(textHeader(u))
		for _, fields := range rows {
			b.WriteString(textBlock(headers, fields))
		}
	default:
		return "", fmt.Errorf("%w: %q", types.ErrBadFormat, e.format)
	}

	if _, err := f.f.WriteString(b.String()); err != nil {
		return "", fmt.Errorf("append to %s: %w", f.path, err)
	}
	return f.path, nil
}

// Close closes every open export file. The ExportSet is unusable afterwards.
func (e *ExportSet) Close() error {
	var firstErr error
	for _, f := range e.files {
		if err := f.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	e.files = make(map[string]*exportFile)
	return firstErr
}

func (e *ExportSet) file(database string) (*exportFile, error) {
	if f, ok := e.files[database]; ok {
		return f, nil
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(e.dir, sanitizeFileName(database)+"_matches."+e.format)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open export file: %w", err)
	}

	ef := &exportFile{f: f, path: path}
	e.files[database] = ef
	return ef, nil
}

// sanitizeFileName maps a database name onto a safe file name component.
// Anything outside a conservative character set becomes an underscore.
func sanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
