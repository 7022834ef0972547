package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukaforge/datascout/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreRunLifecycle(t *testing.T) {
	s := openTestStore(t)

	id := NewRunID()
	require.NoError(t, s.StartRun(Run{
		RunID:      id,
		Kind:       KindDB,
		Target:     "shop",
		Format:     types.FormatCSV,
		TermSHA256: HashTerm("needle"),
		StartedAt:  Now(),
	}))

	hit := types.Hit{
		Unit:       types.Unit{Database: "shop", Table: "customers", Column: "name"},
		Matches:    3,
		ExportPath: "/tmp/exports/shop_matches.csv",
	}
	require.NoError(t, s.AddHit(id, hit))
	require.NoError(t, s.FinishRun(id, StatusCompleted, 1, 12, 3, 0))

	runs, err := s.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].RunID)
	assert.Equal(t, StatusCompleted, runs[0].Status)
	assert.Equal(t, int64(3), runs[0].Matches)
	assert.Equal(t, 12, runs[0].Columns)
	assert.NotEmpty(t, runs[0].FinishedAt)

	hits, err := s.Hits(id)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "customers", hits[0].Table)
	assert.Equal(t, int64(3), hits[0].MatchCount)
}

func TestStoreNeverHoldsTheTerm(t *testing.T) {
	digest := HashTerm("super secret value")
	assert.Len(t, digest, 64)
	assert.NotContains(t, digest, "secret")
	assert.Equal(t, digest, HashTerm("super secret value"), "digest must be deterministic")
	assert.NotEqual(t, digest, HashTerm("other value"))
}

func TestRecentRunsOrderAndLimit(t *testing.T) {
	s := openTestStore(t)

	for _, started := range []string{
		"2026-08-01T10:00:00Z",
		"2026-08-02T10:00:00Z",
		"2026-08-03T10:00:00Z",
	} {
		require.NoError(t, s.StartRun(Run{
			RunID:      NewRunID(),
			Kind:       KindLogs,
			Target:     "/var/log/apache2",
			Format:     types.FormatCSV,
			TermSHA256: HashTerm("t"),
			StartedAt:  started,
			Status:     StatusCompleted,
		}))
	}

	runs, err := s.RecentRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "2026-08-03T10:00:00Z", runs[0].StartedAt)
	assert.Equal(t, "2026-08-02T10:00:00Z", runs[1].StartedAt)
}

func TestStoreCloseIdempotent(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s1.StartRun(Run{
		RunID: NewRunID(), Kind: KindDB, Target: "", Format: types.FormatCSV,
		TermSHA256: HashTerm("x"), StartedAt: Now(), Status: StatusStarted,
	}))
	require.NoError(t, s1.Close())

	// Reopening must keep existing rows and not fail on existing schema.
	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()
	runs, err := s2.RecentRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
