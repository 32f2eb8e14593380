package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fangji-app/fangji/internal/db"
)

// openTestDB opens a throwaway file-backed database with the real migrations
// applied. A file (not :memory:) so every pooled connection sees the same db.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}
