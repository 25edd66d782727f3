package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	doc := NewDocument("notes", "hello")

	require.NotEmpty(t, doc.GUID())
	require.Equal(t, "notes", doc.Title())
	require.Equal(t, "hello", doc.Body())
	require.Zero(t, doc.ID())
	require.Zero(t, doc.Revision())
	require.False(t, doc.IsDeleted())
}

func TestDocument_UpdateBodyBumpsRevision(t *testing.T) {
	doc := NewDocument("notes", "hello")

	doc.UpdateBody("hello world")
	doc.UpdateBody("hello world!")

	require.Equal(t, "hello world!", doc.Body())
	require.Equal(t, int64(2), doc.Revision())
}

func TestDocument_Rename(t *testing.T) {
	doc := NewDocument("notes", "")
	before := doc.UpdatedAt()

	doc.Rename("journal")

	require.Equal(t, "journal", doc.Title())
	require.False(t, doc.UpdatedAt().Before(before))
}

func TestDocument_MarkDeleted(t *testing.T) {
	doc := NewDocument("notes", "")
	require.False(t, doc.IsDeleted())

	doc.MarkDeleted()

	require.True(t, doc.IsDeleted())
	require.NotNil(t, doc.DeletedAt())
}

func TestRehydrate(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	doc := Rehydrate(7, "guid-1", "notes", "body", 3, created, updated, nil)

	require.Equal(t, int64(7), doc.ID())
	require.Equal(t, "guid-1", doc.GUID())
	require.Equal(t, int64(3), doc.Revision())
	require.Equal(t, created, doc.CreatedAt())
	require.Equal(t, updated, doc.UpdatedAt())
}

func TestOpKind_IsValid(t *testing.T) {
	require.True(t, OpInsert.IsValid())
	require.True(t, OpRemove.IsValid())
	require.False(t, OpKind("move").IsValid())
}
