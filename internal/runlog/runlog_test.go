package runlog

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesFileAndMirror(t *testing.T) {
	dir := t.TempDir()
	var mirror bytes.Buffer

	log, path, closeFn, err := New(dir, "20260824_120000", false, &mirror)
	require.NoError(t, err)

	log.Info("scan started", "term_sha256", "abc123")
	log.Debug("suppressed at info level")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "scan started")
	assert.NotContains(t, string(data), "suppressed")
	assert.Equal(t, string(data), mirror.String(), "mirror sees the same transcript")
	assert.True(t, strings.HasSuffix(path, "scan_20260824_120000.log"))
}

func TestNewVerboseEnablesDebug(t *testing.T) {
	dir := t.TempDir()

	log, path, closeFn, err := New(dir, "20260824_120001", true, nil)
	require.NoError(t, err)
	log.Debug("column skipped", "unit", "a.b.c")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "column skipped")
}
