package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRejectsInvalidConfig(t *testing.T) {
	t.Setenv("GAMESHOP_STORAGE_TYPE", "mongo")

	assert.Equal(t, 1, run())
}

func TestRunReturnsAfterStartupFailure(t *testing.T) {
	auditDir := t.TempDir()
	t.Setenv("GAMESHOP_AUDIT_LOG_DIR", auditDir)
	t.Setenv("GAMESHOP_CATALOG_FILE", filepath.Join(t.TempDir(), "missing.json"))

	require.Equal(t, 1, run())

	entries, err := os.ReadDir(auditDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(auditDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "failed to load catalog")
}
