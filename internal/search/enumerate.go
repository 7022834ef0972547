package search

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// systemSchemas are the catalog's own namespaces, never scanned.
var systemSchemas = []string{"mysql", "information_schema", "performance_schema", "sys"}

// columnRef is one (table, column) pair within a database.
type columnRef struct {
	table  string
	column string
}

// databases returns the databases to scan. A caller-supplied database is the
// sole member and skips the catalog lookup entirely. Otherwise every
// non-system schema is returned, moved through base64 so exotic bytes in
// schema names survive the tabular response format. Ordering is whatever the
// catalog returns.
func (s *Scanner) databases(ctx context.Context) ([]string, error) {
	if s.cfg.Database != "" {
		return []string{s.cfg.Database}, nil
	}

	quoted := make([]string, len(systemSchemas))
	for i, name := range systemSchemas {
		quoted[i] = "'" + name + "'"
	}
	q := "SELECT TO_BASE64(SCHEMA_NAME) FROM information_schema.SCHEMATA" +
		" WHERE SCHEMA_NAME NOT IN (" + strings.Join(quoted, ",") + ")"

	out, err := s.runner.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}
	if out == "" {
		return nil, nil
	}

	var dbs []string
	for _, line := range strings.Split(out, "\n") {
		name, err := DecodeName(line)
		if err != nil {
			s.log.Warn("skipping database with unusable name", "error", err)
			s.skipped++
			continue
		}
		dbs = append(dbs, name)
	}
	return dbs, nil
}

// columns enumerates every (table, column) pair of one database via the
// catalog, names base64-encoded in transit. A pair whose name cannot be
// decoded is skipped and recorded; a failed catalog query aborts the run.
func (s *Scanner) columns(ctx context.Context, database string) ([]columnRef, error) {
	encoded := base64.StdEncoding.EncodeToString([]byte(database))
	q := fmt.Sprintf("SELECT TO_BASE64(TABLE_NAME), TO_BASE64(COLUMN_NAME)"+
		" FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = FROM_BASE64('%s')", encoded)

	out, err := s.runner.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", database, err)
	}
	if out == "" {
		return nil, nil
	}

	var cols []columnRef
	for _, line := range strings.Split(out, "\n") {
		fields := splitFields(line)
		if len(fields) != 2 {
			s.log.Warn("skipping malformed catalog row", "database", database, "row", line)
			s.skipped++
			continue
		}
		table, err := DecodeName(fields[0])
		if err != nil {
			s.log.Warn("skipping column with unusable table name", "database", database, "error", err)
			s.skipped++
			continue
		}
		column, err := DecodeName(fields[1])
		if err != nil {
			s.log.Warn("skipping column with unusable name", "database", database, "table", table, "error", err)
			s.skipped++
			continue
		}
		cols = append(cols, columnRef{table: table, column: column})
	}
	return cols, nil
}
