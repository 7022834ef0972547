package search

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukaforge/datascout/pkg/types"
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestScanner wires a Scanner to the fake runner with a temp export dir.
func newTestScanner(t *testing.T, fake *fakeRunner, cfg types.Config) (*Scanner, string) {
	t.Helper()
	if cfg.Format == "" {
		cfg.Format = types.FormatCSV
	}
	dir := filepath.Join(t.TempDir(), "exports")
	exports := NewExportSet(dir, cfg.Format)
	t.Cleanup(func() { _ = exports.Close() })
	return New(fake, cfg, exports, discardLogger()), dir
}

// prepare runs Prepare with a scripted QUOTE response for a plain term.
func prepare(t *testing.T, s *Scanner, fake *fakeRunner, term string) {
	t.Helper()
	fake.on("QUOTE(FROM_BASE64", "'"+term+"'")
	require.NoError(t, s.Prepare(context.Background(), term))
}

func TestScanTwoDatabasesApostropheTerm(t *testing.T) {
	fake := (&fakeRunner{}).
		on("QUOTE(FROM_BASE64", `'O\\'Brien'`).
		on("SCHEMATA", b64("alpha")+"\n"+b64("beta")).
		on("FROM_BASE64('"+b64("alpha")+"')", b64("customers")+"\t"+b64("name")).
		on("FROM_BASE64('"+b64("beta")+"')", b64("staff")+"\t"+b64("name")).
		on("SELECT COUNT(*) FROM `alpha`.`customers`", "1").
		on("SELECT COUNT(*) FROM `beta`.`staff`", "1").
		on("SELECT * FROM `alpha`.`customers`", "id\tname\n1\tO'Brien").
		on("SELECT * FROM `beta`.`staff`", "id\tname\n7\tO'Brien")

	s, dir := newTestScanner(t, fake, types.Config{})
	require.NoError(t, s.Prepare(context.Background(), "O'Brien"))

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Databases)
	assert.Equal(t, int64(2), summary.Matches)
	require.Len(t, summary.Hits, 2)

	// Every count and fetch query must carry the server-escaped literal, not
	// the raw term.
	for _, q := range fake.queriesContaining("WHERE `name` =") {
		assert.Contains(t, q, `= 'O\'Brien'`)
	}

	// One row per database, each prefixed with its own triple and carrying
	// the apostrophe unescaped exactly once.
	alpha, err := os.ReadFile(filepath.Join(dir, "alpha_matches.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(alpha), "\"alpha\",\"customers\",\"name\",\"1\",\"O'Brien\"\n")
	assert.Equal(t, 1, strings.Count(string(alpha), "O'Brien"))

	beta, err := os.ReadFile(filepath.Join(dir, "beta_matches.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(beta), "\"beta\",\"staff\",\"name\",\"7\",\"O'Brien\"\n")
}

func TestScanNothingToScan(t *testing.T) {
	fake := &fakeRunner{} // SCHEMATA query returns zero rows

	s, dir := newTestScanner(t, fake, types.Config{})
	prepare(t, s, fake, "needle")

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.NothingToScan)
	assert.Empty(t, summary.Hits)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "no export files on an empty catalog")
}

func TestScanNullVsEmptyNeverConflated(t *testing.T) {
	fake := (&fakeRunner{}).
		on("SCHEMATA", b64("shop")).
		on("information_schema.COLUMNS", b64("notes")+"\t"+b64("body")).
		on("SELECT COUNT(*)", "2").
		on("SELECT * FROM `shop`.`notes`", "id\tbody\textra\n1\tneedle\tNULL\n2\tneedle\t")

	s, dir := newTestScanner(t, fake, types.Config{})
	prepare(t, s, fake, "needle")

	_, err := s.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "shop_matches.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[1], ",NULL"), "NULL column renders the bare token: %q", lines[1])
	assert.True(t, strings.HasSuffix(lines[2], `,""`), "empty column renders quoted-empty: %q", lines[2])
}

func TestScanSkipsTypeIncompatibleColumn(t *testing.T) {
	fake := (&fakeRunner{}).
		on("SCHEMATA", b64("shop")).
		on("information_schema.COLUMNS", b64("t")+"\t"+b64("blob_col")+"\n"+b64("t")+"\t"+b64("name")).
		fail("WHERE `blob_col` =", fmt.Errorf("%w: Illegal mix of collations", types.ErrQuery)).
		on("SELECT COUNT(*) FROM `shop`.`t` WHERE `name`", "1").
		on("SELECT * FROM `shop`.`t` WHERE `name`", "id\tname\n1\tneedle")

	s, _ := newTestScanner(t, fake, types.Config{})
	prepare(t, s, fake, "needle")

	summary, err := s.Run(context.Background())
	require.NoError(t, err, "a per-unit query error must not abort the run")
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, int64(1), summary.Matches)
}

func TestScanAbortsOnTransportError(t *testing.T) {
	fake := (&fakeRunner{}).
		on("SCHEMATA", b64("shop")).
		on("information_schema.COLUMNS", b64("t")+"\t"+b64("a")+"\n"+b64("t")+"\t"+b64("b")).
		on("SELECT COUNT(*) FROM `shop`.`t` WHERE `a`", "1").
		on("SELECT * FROM `shop`.`t` WHERE `a`", "a\tb\nneedle\tx").
		fail("WHERE `b` =", fmt.Errorf("%w: Lost connection to MySQL server", types.ErrTransport))

	s, dir := newTestScanner(t, fake, types.Config{})
	prepare(t, s, fake, "needle")

	_, err := s.Run(context.Background())
	require.ErrorIs(t, err, types.ErrTransport)

	// Partial exports stay on disk for inspection.
	assert.FileExists(t, filepath.Join(dir, "shop_matches.csv"))
}

func TestScanNonNumericCountDegrades(t *testing.T) {
	fake := (&fakeRunner{}).
		on("SCHEMATA", b64("shop")).
		on("information_schema.COLUMNS", b64("t")+"\t"+b64("c")).
		on("SELECT COUNT(*)", "garbage")

	s, dir := newTestScanner(t, fake, types.Config{})
	prepare(t, s, fake, "needle")

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.Matches)
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestScanHeaderFallbackToDescribe(t *testing.T) {
	fake := (&fakeRunner{}).
		on("SCHEMATA", b64("shop")).
		on("information_schema.COLUMNS", b64("t")+"\t"+b64("c")).
		on("SELECT COUNT(*)", "1").
		on("SELECT * FROM `shop`.`t`", "").
		on("DESCRIBE `shop`.`t`", "id\tint\tNO\tPRI\tNULL\t\nc\tvarchar(50)\tYES\t\tNULL\t")

	s, dir := newTestScanner(t, fake, types.Config{})
	prepare(t, s, fake, "needle")

	_, err := s.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "shop_matches.csv"))
	require.NoError(t, err)
	assert.Equal(t, "database_name,table_name,column_name,\"id\",\"c\"\n", string(data))
}

func TestScanFlatTextNewlineTerm(t *testing.T) {
	fake := (&fakeRunner{}).
		on("QUOTE(FROM_BASE64", `'line1\\nline2'`).
		on("SCHEMATA", b64("shop")).
		on("information_schema.COLUMNS", b64("notes")+"\t"+b64("body")).
		on("SELECT COUNT(*)", "1").
		on("SELECT * FROM `shop`.`notes`", "id\tbody\n1\tline1\\nline2")

	s, dir := newTestScanner(t, fake, types.Config{Format: types.FormatTXT})
	require.NoError(t, s.Prepare(context.Background(), "line1\nline2"))

	_, err := s.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "shop_matches.txt"))
	require.NoError(t, err)
	want := "# Database: shop\n# Table: notes\n# Column: body\n" +
		"---\nid=1\nbody=line1\nline2\n"
	assert.Equal(t, want, string(data))
	assert.Equal(t, 1, strings.Count(string(data), "---\n"), "one well-formed block per row")
}

func TestScanIdempotence(t *testing.T) {
	script := func() *fakeRunner {
		return (&fakeRunner{}).
			on("SCHEMATA", b64("shop")).
			on("information_schema.COLUMNS", b64("t")+"\t"+b64("c")).
			on("SELECT COUNT(*)", "1").
			on("SELECT * FROM `shop`.`t`", "c\nneedle")
	}

	var contents []string
	for i := 0; i < 2; i++ {
		fake := script()
		s, dir := newTestScanner(t, fake, types.Config{})
		prepare(t, s, fake, "needle")
		_, err := s.Run(context.Background())
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(dir, "shop_matches.csv"))
		require.NoError(t, err)
		contents = append(contents, string(data))
	}
	assert.Equal(t, contents[0], contents[1], "unchanged data must export identically")
}

func TestScanQuotesIdentifiersWithBackticks(t *testing.T) {
	fake := (&fakeRunner{}).
		on("SCHEMATA", b64("shop")).
		on("information_schema.COLUMNS", b64("we`ird")+"\t"+b64("col`umn")).
		on("SELECT COUNT(*)", "0")

	s, _ := newTestScanner(t, fake, types.Config{})
	prepare(t, s, fake, "needle")

	_, err := s.Run(context.Background())
	require.NoError(t, err)

	counts := fake.queriesContaining("SELECT COUNT(*)")
	require.Len(t, counts, 1)
	assert.Contains(t, counts[0], "`we``ird`")
	assert.Contains(t, counts[0], "`col``umn`")
}

func TestScanCancelledBetweenUnits(t *testing.T) {
	fake := (&fakeRunner{}).
		on("SCHEMATA", b64("shop")).
		on("information_schema.COLUMNS", b64("t")+"\t"+b64("c"))

	s, _ := newTestScanner(t, fake, types.Config{})
	prepare(t, s, fake, "needle")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestScanRequiresPrepare(t *testing.T) {
	s, _ := newTestScanner(t, &fakeRunner{}, types.Config{})
	_, err := s.Run(context.Background())
	require.Error(t, err)
}
