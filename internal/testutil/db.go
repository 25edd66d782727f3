// Package testutil provides test utilities for database setup.
package testutil

import (
	"database/sql"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/require"
)

// Schema contains the document store schema used by repository tests.
const Schema = `
CREATE TABLE documents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	guid TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	body TEXT NOT NULL DEFAULT '',
	revision INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	deleted_at INTEGER
);

CREATE TABLE ops (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	document_guid TEXT NOT NULL,
	seq INTEGER NOT NULL,
	kind TEXT NOT NULL,
	char_offset INTEGER NOT NULL,
	char_length INTEGER NOT NULL,
	body TEXT NOT NULL DEFAULT '',
	site TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	UNIQUE (document_guid, seq),
	FOREIGN KEY (document_guid) REFERENCES documents(guid)
);

CREATE INDEX idx_ops_document_seq ON ops(document_guid, seq);
`

// NewTestDB creates an in-memory SQLite database with the document store
// schema. The caller is responsible for closing the database.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	_, err = db.Exec(Schema)
	require.NoError(t, err)
	return db
}
