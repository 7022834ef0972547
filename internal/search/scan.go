// Package search implements the database-wide exact-match scan: enumerating
// every table/column, counting matches for the search term, fetching the
// owning rows of each hit, and streaming them into per-database export files
// as CSV or flat text.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dukaforge/datascout/internal/mysqlq"
	"github.com/dukaforge/datascout/pkg/types"
)

// Scanner drives one run. It is strictly sequential: one runner is reused
// for every catalog lookup, count, and fetch, and the only cancellation
// point is between scan units.
type Scanner struct {
	runner  mysqlq.Runner
	cfg     types.Config
	log     *slog.Logger
	exports *ExportSet

	// lit is the server-verified literal rendering of the search term,
	// computed once by Prepare and invariant for the run. It is never
	// re-escaped per column.
	lit      string
	prepared bool

	skipped int
}

// Summary reports what one run did.
type Summary struct {
	Databases     int
	Units         int
	Skipped       int
	Matches       int64
	Hits          []types.Hit
	ExportDir     string
	NothingToScan bool
}

// New builds a Scanner. The ExportSet decides where and in which format
// matching rows land.
func New(r mysqlq.Runner, cfg types.Config, exports *ExportSet, log *slog.Logger) *Scanner {
	return &Scanner{runner: r, cfg: cfg, log: log, exports: exports}
}

// Prepare obtains the escaped literal for the search term. It must be called
// exactly once before Run; its failure is fatal before any per-database work.
func (s *Scanner) Prepare(ctx context.Context, term string) error {
	if term == "" {
		return types.ErrMissingTerm
	}
	lit, err := EscapeLiteral(ctx, s.runner, term)
	if err != nil {
		return err
	}
	s.lit = lit
	s.prepared = true
	return nil
}

// Run executes the scan. Transport errors abort with the partial exports and
// log left on disk; SQL-level errors on individual columns degrade to zero
// matches and the run continues.
func (s *Scanner) Run(ctx context.Context) (*Summary, error) {
	if !s.prepared {
		return nil, errors.New("scanner: Prepare must be called before Run")
	}

	dbs, err := s.databases(ctx)
	if err != nil {
		return nil, err
	}
	if len(dbs) == 0 {
		s.log.Info("no databases to scan")
		return &Summary{NothingToScan: true, Skipped: s.skipped}, nil
	}

	summary := &Summary{Databases: len(dbs), ExportDir: s.exports.Dir()}
	for _, db := range dbs {
		s.log.Info("scanning database", "database", db)

		cols, err := s.columns(ctx, db)
		if err != nil {
			return nil, err
		}

		for _, c := range cols {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("scan cancelled: %w", err)
			}
			summary.Units++

			unit := types.Unit{Database: db, Table: c.table, Column: c.column}
			n, err := s.count(ctx, unit)
			if err != nil {
				if errors.Is(err, types.ErrQuery) {
					s.log.Debug("column skipped", "unit", unit.String(), "error", err)
					s.skipped++
					continue
				}
				return nil, fmt.Errorf("count %s: %w", unit, err)
			}
			if n == 0 {
				continue
			}

			s.log.Info("match", "unit", unit.String(), "rows", n)
			headers, rows, err := s.fetch(ctx, unit)
			if err != nil {
				if errors.Is(err, types.ErrQuery) {
					s.log.Warn("matched column could not be fetched", "unit", unit.String(), "error", err)
					s.skipped++
					continue
				}
				return nil, fmt.Errorf("fetch %s: %w", unit, err)
			}

			path, err := s.exports.Append(unit, headers, rows)
			if err != nil {
				return nil, err
			}
			summary.Matches += n
			summary.Hits = append(summary.Hits, types.Hit{Unit: unit, Matches: n, ExportPath: path})
		}
	}

	summary.Skipped = s.skipped
	s.log.Info("scan complete",
		"databases", summary.Databases,
		"columns", summary.Units,
		"matches", summary.Matches,
		"skipped", summary.Skipped)
	return summary, nil
}

// count issues the per-unit count query. A SQL-level failure passes through
// for the caller to degrade; a non-numeric response degrades to zero here
// (binary or JSON columns may reject the comparison in exotic ways without
// erroring).
func (s *Scanner) count(ctx context.Context, u types.Unit) (int64, error) {
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s WHERE %s = '%s'",
		QuoteIdentifier(u.Database), QuoteIdentifier(u.Table), QuoteIdentifier(u.Column), s.lit)
	out, err := s.runner.Query(ctx, q)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(firstLine(out)), 10, 64)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// fetch retrieves the full matching rows of a unit plus the table's header
// in declared column order. The header normally comes from the fetch
// response itself; if that comes back empty the column names fall back to
// DESCRIBE. Returned row fields are still transport-escaped; headers are
// decoded.
func (s *Scanner) fetch(ctx context.Context, u types.Unit) ([]string, [][]string, error) {
	q := fmt.Sprintf("SELECT * FROM %s.%s WHERE %s = '%s'",
		QuoteIdentifier(u.Database), QuoteIdentifier(u.Table), QuoteIdentifier(u.Column), s.lit)
	out, err := s.runner.QueryHeader(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	if out == "" {
		// Defensive fallback, not a normal path: count said there are rows.
		headers, err := s.describe(ctx, u)
		return headers, nil, err
	}

	lines := strings.Split(out, "\n")
	rawHeader := splitFields(lines[0])
	headers := make([]string, len(rawHeader))
	for i, h := range rawHeader {
		headers[i] = UnescapeBatch(h)
	}

	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rows = append(rows, splitFields(line))
	}
	return headers, rows, nil
}

// describe returns the table's column names in declared order via the
// catalog's DESCRIBE.
func (s *Scanner) describe(ctx context.Context, u types.Unit) ([]string, error) {
	out, err := s.runner.Query(ctx, fmt.Sprintf("DESCRIBE %s.%s",
		QuoteIdentifier(u.Database), QuoteIdentifier(u.Table)))
	if err != nil {
		return nil, err
	}
	var headers []string
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		headers = append(headers, UnescapeBatch(splitFields(line)[0]))
	}
	return headers, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
