package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestOpenInMemory(t *testing.T) {
	database, err := sql.Open("sqlite", DSN(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, database.Close()) })

	err = database.Ping()
	assert.NoError(t, err)
}

func TestMigrationsApply(t *testing.T) {
	database, err := sql.Open("sqlite", DSN(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, database.Close()) })

	err = Migrate(database)
	require.NoError(t, err)

	for _, table := range []string{"prescriptions", "herbs", "usage_instructions", "symptoms", "chat_history"} {
		var name string
		err = database.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	database, err := sql.Open("sqlite", DSN(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, database.Close()) })

	require.NoError(t, Migrate(database))
	assert.NoError(t, Migrate(database))
}
