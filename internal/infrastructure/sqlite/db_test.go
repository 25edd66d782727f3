package sqlite

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNewDB_CreatesDirectory verifies that NewDB creates the parent directory if missing.
func TestNewDB_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "folio.db")

	db, err := NewDB(dbPath)
	require.NoError(t, err, "NewDB should succeed even with nested non-existent directories")
	defer db.Close()

	info, err := os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err, "Directory should exist after NewDB")
	require.True(t, info.IsDir())

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0700), info.Mode().Perm())
	}
}

// TestNewDB_AppliesSchema verifies that NewDB creates the documents and ops tables.
func TestNewDB_AppliesSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "folio.db")

	db, err := NewDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"documents", "ops"} {
		var name string
		err = db.conn.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "%s table should exist after schema", table)
		require.Equal(t, table, name)
	}
}

// TestNewDB_BacksUpExistingDatabase verifies that reopening an existing
// database writes a .bak copy before the schema runs.
func TestNewDB_BacksUpExistingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "folio.db")

	db1, err := NewDB(dbPath)
	require.NoError(t, err)
	_, err = db1.conn.Exec(
		`INSERT INTO documents (guid, title, body, revision, created_at, updated_at)
		VALUES ('g1', 'notes', 'hello', 0, 1, 1)`,
	)
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	db2, err := NewDB(dbPath)
	require.NoError(t, err)
	defer db2.Close()

	info, err := os.Stat(dbPath + ".bak")
	require.NoError(t, err, "backup file should exist after reopening")
	require.Greater(t, info.Size(), int64(0))
}

// TestNewDB_ReopenKeepsData verifies rows survive a close and reopen.
func TestNewDB_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "folio.db")

	db1, err := NewDB(dbPath)
	require.NoError(t, err)
	_, err = db1.conn.Exec(
		`INSERT INTO documents (guid, title, body, revision, created_at, updated_at)
		VALUES ('g1', 'notes', 'hello', 0, 1, 1)`,
	)
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	db2, err := NewDB(dbPath)
	require.NoError(t, err)
	defer db2.Close()

	var body string
	err = db2.conn.QueryRow(`SELECT body FROM documents WHERE guid = 'g1'`).Scan(&body)
	require.NoError(t, err)
	require.Equal(t, "hello", body)
}
