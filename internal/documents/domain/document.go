// Package domain provides the pure domain layer for stored documents with no
// infrastructure dependencies.
//
// The entity here is the persisted form of a document: its text snapshot,
// its revision counter, and the operation log describing how the text got
// there. Nothing in this package knows about layout, viewports, or SQL.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// OpKind names the two mutation kinds recorded in a document's op log.
type OpKind string

const (
	OpInsert OpKind = "insert"
	OpRemove OpKind = "remove"
)

// IsValid returns true if the kind is a recognized op kind.
func (k OpKind) IsValid() bool {
	return k == OpInsert || k == OpRemove
}

// Document is the domain entity for a stored document.
// All fields are unexported to enforce encapsulation; use the constructor
// and getter methods to access data.
type Document struct {
	id        int64
	guid      string
	title     string
	body      string
	revision  int64
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewDocument creates a new document with a fresh GUID at revision zero.
func NewDocument(title, body string) *Document {
	now := time.Now()
	return &Document{
		guid:      uuid.NewString(),
		title:     title,
		body:      body,
		createdAt: now,
		updatedAt: now,
	}
}

// Rehydrate reconstructs a document from persisted state.
func Rehydrate(id int64, guid, title, body string, revision int64, createdAt, updatedAt time.Time, deletedAt *time.Time) *Document {
	return &Document{
		id:        id,
		guid:      guid,
		title:     title,
		body:      body,
		revision:  revision,
		createdAt: createdAt,
		updatedAt: updatedAt,
		deletedAt: deletedAt,
	}
}

func (d *Document) ID() int64            { return d.id }
func (d *Document) GUID() string         { return d.guid }
func (d *Document) Title() string        { return d.title }
func (d *Document) Body() string         { return d.body }
func (d *Document) Revision() int64      { return d.revision }
func (d *Document) CreatedAt() time.Time { return d.createdAt }
func (d *Document) UpdatedAt() time.Time { return d.updatedAt }
func (d *Document) DeletedAt() *time.Time {
	return d.deletedAt
}

// SetID assigns the database identity after the first save.
func (d *Document) SetID(id int64) {
	d.id = id
}

// Rename changes the document title.
func (d *Document) Rename(title string) {
	d.title = title
	d.updatedAt = time.Now()
}

// UpdateBody replaces the text snapshot and bumps the revision. Each bump
// corresponds to one appended op (or one snapshot-diff batch).
func (d *Document) UpdateBody(body string) {
	d.body = body
	d.revision++
	d.updatedAt = time.Now()
}

// MarkDeleted soft-deletes the document.
func (d *Document) MarkDeleted() {
	now := time.Now()
	d.deletedAt = &now
	d.updatedAt = now
}

// IsDeleted returns true if the document has been soft-deleted.
func (d *Document) IsDeleted() bool {
	return d.deletedAt != nil
}

// Op is one recorded mutation in a document's op log. Ops are append-only
// and totally ordered per document by Seq.
type Op struct {
	ID           int64
	DocumentGUID string
	// Seq is the per-document sequence number, starting at 1.
	Seq    int64
	Kind   OpKind
	Offset int
	Length int
	// Body holds the inserted text; empty for removals.
	Body string
	// Site identifies the collaborator that produced the op.
	Site      string
	CreatedAt time.Time
}
