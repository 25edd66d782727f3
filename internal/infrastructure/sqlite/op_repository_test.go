package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zdavis/folio/internal/documents/domain"
	"github.com/zdavis/folio/internal/testutil"
)

func TestOpRepository_AppendAssignsSequence(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer db.Close()
	testutil.NewBuilder(t, db).WithDocument("doc-1").Build()
	repo := newOpRepository(db)

	first := &domain.Op{DocumentGUID: "doc-1", Kind: domain.OpInsert, Offset: 0, Length: 5, Body: "hello", Site: "site-a"}
	require.NoError(t, repo.Append(first))
	require.Equal(t, int64(1), first.Seq)
	require.NotZero(t, first.ID)

	second := &domain.Op{DocumentGUID: "doc-1", Kind: domain.OpRemove, Offset: 0, Length: 2, Site: "site-b"}
	require.NoError(t, repo.Append(second))
	require.Equal(t, int64(2), second.Seq)
}

func TestOpRepository_AppendRejectsInvalidKind(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer db.Close()
	repo := newOpRepository(db)

	err := repo.Append(&domain.Op{DocumentGUID: "doc-1", Kind: "replace"})
	require.Error(t, err)
}

func TestOpRepository_SequencesAreIndependentPerDocument(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer db.Close()
	testutil.NewBuilder(t, db).WithDocument("doc-1").WithDocument("doc-2").Build()
	repo := newOpRepository(db)

	a := &domain.Op{DocumentGUID: "doc-1", Kind: domain.OpInsert, Body: "x", Length: 1, Site: "s"}
	b := &domain.Op{DocumentGUID: "doc-2", Kind: domain.OpInsert, Body: "y", Length: 1, Site: "s"}
	require.NoError(t, repo.Append(a))
	require.NoError(t, repo.Append(b))
	require.Equal(t, int64(1), a.Seq)
	require.Equal(t, int64(1), b.Seq)
}

func TestOpRepository_ListSince(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer db.Close()
	testutil.NewBuilder(t, db).
		WithDocument("doc-1").
		WithInsertOp("doc-1", 1, 0, "hello", "site-a").
		WithInsertOp("doc-1", 2, 5, " world", "site-a").
		WithRemoveOp("doc-1", 3, 0, 1, "site-b").
		Build()
	repo := newOpRepository(db)

	ops, err := repo.ListSince("doc-1", 1)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	require.Equal(t, int64(2), ops[0].Seq)
	require.Equal(t, domain.OpInsert, ops[0].Kind)
	require.Equal(t, " world", ops[0].Body)
	require.Equal(t, int64(3), ops[1].Seq)
	require.Equal(t, domain.OpRemove, ops[1].Kind)
	require.Equal(t, 1, ops[1].Length)
}

func TestOpRepository_ListSinceEmptyLog(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer db.Close()
	repo := newOpRepository(db)

	ops, err := repo.ListSince("doc-1", 0)
	require.NoError(t, err)
	require.Empty(t, ops)
}

func TestOpRepository_LastSeq(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer db.Close()
	testutil.NewBuilder(t, db).
		WithDocument("doc-1").
		WithInsertOp("doc-1", 1, 0, "a", "s").
		WithInsertOp("doc-1", 2, 1, "b", "s").
		Build()
	repo := newOpRepository(db)

	seq, err := repo.LastSeq("doc-1")
	require.NoError(t, err)
	require.Equal(t, int64(2), seq)

	seq, err = repo.LastSeq("doc-2")
	require.NoError(t, err)
	require.Equal(t, int64(0), seq)
}
