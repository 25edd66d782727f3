package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zdavis/folio/internal/documents/domain"
	"github.com/zdavis/folio/internal/testutil"
)

func TestDocumentRepository_SaveInsertsAndSetsID(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer db.Close()
	repo := newDocumentRepository(db)

	doc := domain.NewDocument("notes", "hello world")
	require.NoError(t, repo.Save(doc))
	require.NotZero(t, doc.ID())

	found, err := repo.FindByGUID(doc.GUID())
	require.NoError(t, err)
	require.Equal(t, "notes", found.Title())
	require.Equal(t, "hello world", found.Body())
	require.Equal(t, int64(0), found.Revision())
}

func TestDocumentRepository_SaveUpdatesExisting(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer db.Close()
	repo := newDocumentRepository(db)

	doc := domain.NewDocument("notes", "hello")
	require.NoError(t, repo.Save(doc))

	doc.UpdateBody("hello world")
	doc.Rename("journal")
	require.NoError(t, repo.Save(doc))

	found, err := repo.FindByGUID(doc.GUID())
	require.NoError(t, err)
	require.Equal(t, "journal", found.Title())
	require.Equal(t, "hello world", found.Body())
	require.Equal(t, int64(1), found.Revision())
}

func TestDocumentRepository_FindByGUIDNotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer db.Close()
	repo := newDocumentRepository(db)

	_, err := repo.FindByGUID("missing")
	var notFound *domain.DocumentNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "missing", notFound.GUID)
}

func TestDocumentRepository_ListExcludesDeleted(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer db.Close()

	now := time.Now()
	testutil.NewBuilder(t, db).
		WithDocument("keep-1", testutil.Title("first"), testutil.UpdatedAt(now.Add(-time.Hour))).
		WithDocument("keep-2", testutil.Title("second"), testutil.UpdatedAt(now)).
		WithDocument("gone", testutil.Deleted(now)).
		Build()

	repo := newDocumentRepository(db)
	docs, err := repo.List()
	require.NoError(t, err)
	require.Len(t, docs, 2)
	// Most recently updated first.
	require.Equal(t, "keep-2", docs[0].GUID())
	require.Equal(t, "keep-1", docs[1].GUID())
}

func TestDocumentRepository_DeleteSoftDeletes(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer db.Close()
	repo := newDocumentRepository(db)

	doc := domain.NewDocument("notes", "hello")
	require.NoError(t, repo.Save(doc))
	require.NoError(t, repo.Delete(doc.GUID()))

	_, err := repo.FindByGUID(doc.GUID())
	var notFound *domain.DocumentNotFoundError
	require.ErrorAs(t, err, &notFound)

	// The row is still present, just marked deleted.
	var deletedAt *int64
	err = db.QueryRow(`SELECT deleted_at FROM documents WHERE guid = ?`, doc.GUID()).Scan(&deletedAt)
	require.NoError(t, err)
	require.NotNil(t, deletedAt)
}

func TestDocumentRepository_DeleteMissingReturnsNotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer db.Close()
	repo := newDocumentRepository(db)

	err := repo.Delete("missing")
	var notFound *domain.DocumentNotFoundError
	require.ErrorAs(t, err, &notFound)
}
