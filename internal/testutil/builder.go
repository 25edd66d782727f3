package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// docData holds all data for a document to be inserted.
type docData struct {
	guid      string
	title     string
	body      string
	revision  int64
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// opData holds data for an op log entry to be inserted.
type opData struct {
	docGUID string
	seq     int64
	kind    string
	offset  int
	length  int
	body    string
	site    string
}

// defaultDoc returns a docData with sensible defaults.
func defaultDoc(guid string) docData {
	now := time.Now()
	return docData{
		guid:      guid,
		title:     guid, // Default title is the GUID
		createdAt: now,
		updatedAt: now,
	}
}

// DocOption configures a document during builder setup.
type DocOption func(*docData)

func Title(title string) DocOption {
	return func(d *docData) { d.title = title }
}

func Body(body string) DocOption {
	return func(d *docData) { d.body = body }
}

func Revision(rev int64) DocOption {
	return func(d *docData) { d.revision = rev }
}

func CreatedAt(at time.Time) DocOption {
	return func(d *docData) { d.createdAt = at }
}

func UpdatedAt(at time.Time) DocOption {
	return func(d *docData) { d.updatedAt = at }
}

func Deleted(at time.Time) DocOption {
	return func(d *docData) { d.deletedAt = &at }
}

// Builder accumulates test data and inserts it in the correct order.
type Builder struct {
	t    *testing.T
	db   *sql.DB
	docs []docData
	ops  []opData
}

// NewBuilder creates a builder for the given test database.
func NewBuilder(t *testing.T, db *sql.DB) *Builder {
	t.Helper()
	return &Builder{t: t, db: db}
}

// WithDocument adds a document with optional configuration.
func (b *Builder) WithDocument(guid string, opts ...DocOption) *Builder {
	doc := defaultDoc(guid)
	for _, opt := range opts {
		opt(&doc)
	}
	b.docs = append(b.docs, doc)
	return b
}

// WithInsertOp adds an insert op to a document's log.
func (b *Builder) WithInsertOp(docGUID string, seq int64, offset int, body, site string) *Builder {
	b.ops = append(b.ops, opData{
		docGUID: docGUID, seq: seq, kind: "insert",
		offset: offset, length: len([]rune(body)), body: body, site: site,
	})
	return b
}

// WithRemoveOp adds a remove op to a document's log.
func (b *Builder) WithRemoveOp(docGUID string, seq int64, offset, length int, site string) *Builder {
	b.ops = append(b.ops, opData{
		docGUID: docGUID, seq: seq, kind: "remove",
		offset: offset, length: length, site: site,
	})
	return b
}

// Build inserts all accumulated data. Documents go first so op rows satisfy
// the foreign key.
func (b *Builder) Build() {
	b.t.Helper()
	for _, d := range b.docs {
		var deletedAt *int64
		if d.deletedAt != nil {
			ts := d.deletedAt.Unix()
			deletedAt = &ts
		}
		_, err := b.db.Exec(
			`INSERT INTO documents (guid, title, body, revision, created_at, updated_at, deleted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			d.guid, d.title, d.body, d.revision, d.createdAt.Unix(), d.updatedAt.Unix(), deletedAt,
		)
		require.NoError(b.t, err)
	}
	for _, op := range b.ops {
		_, err := b.db.Exec(
			`INSERT INTO ops (document_guid, seq, kind, char_offset, char_length, body, site, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			op.docGUID, op.seq, op.kind, op.offset, op.length, op.body, op.site, time.Now().Unix(),
		)
		require.NoError(b.t, err)
	}
}
