package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesSettingsTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "filmlink.db")

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, path, db.Path())

	version, err := db.Version()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	_, err = db.Conn().Exec(`INSERT INTO settings (key, value) VALUES ('k', 'v')`)
	require.NoError(t, err)

	var value string
	require.NoError(t, db.Conn().QueryRow(`SELECT value FROM settings WHERE key = 'k'`).Scan(&value))
	assert.Equal(t, "v", value)
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "filmlink.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate())
}

func TestMigrateDown(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "filmlink.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.MigrateDown())

	_, err = db.Conn().Exec(`SELECT 1 FROM settings`)
	assert.Error(t, err)
}
