package app

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/require"

	"github.com/zdavis/folio/internal/config"
	"github.com/zdavis/folio/internal/documents/domain"
	"github.com/zdavis/folio/internal/infrastructure/sqlite"
	"github.com/zdavis/folio/internal/pubsub"
	"github.com/zdavis/folio/internal/sequence"
	"github.com/zdavis/folio/internal/tracing"
)

func newTestApp(t *testing.T, body string) (Model, *sqlite.DB) {
	t.Helper()

	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "folio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	doc := domain.NewDocument("notes", body)
	require.NoError(t, db.Documents().Save(doc))

	cfg := config.Defaults()
	cfg.AutoSync = false
	cfg.UI.CursorBlink = false

	tracer, err := tracing.NewProvider(tracing.Config{})
	require.NoError(t, err)

	m := New(doc, Services{
		Docs:   db.Documents(),
		Ops:    db.Ops(),
		Config: &cfg,
		Tracer: tracer,
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 12})
	return updated.(Model), db
}

func TestNew_SeedsSequenceFromDocumentBody(t *testing.T) {
	m, _ := newTestApp(t, "hello world")

	require.Equal(t, "hello world", m.doc.Snapshot())
	require.False(t, m.view.Scheduler().Page().Empty())
}

func TestSave_AppendsOpsAndPersistsBody(t *testing.T) {
	m, db := newTestApp(t, "hello")

	m.doc.InsertText("!", 5)
	m.dirty = true
	m.save()

	require.NoError(t, m.SaveErr())
	require.False(t, m.Dirty())

	fresh, err := db.Documents().FindByGUID(m.document.GUID())
	require.NoError(t, err)
	require.Equal(t, "hello!", fresh.Body())
	require.Equal(t, int64(1), fresh.Revision())

	ops, err := db.Ops().ListSince(m.document.GUID(), 0)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Equal(t, domain.OpInsert, ops[0].Kind)
	require.Equal(t, 5, ops[0].Offset)
	require.Equal(t, "!", ops[0].Body)
	require.Equal(t, m.siteID, ops[0].Site)
}

func TestSave_NoopWhenBodyUnchanged(t *testing.T) {
	m, db := newTestApp(t, "hello")

	m.dirty = true
	m.save()

	require.False(t, m.Dirty())
	ops, err := db.Ops().ListSince(m.document.GUID(), 0)
	require.NoError(t, err)
	require.Empty(t, ops)
}

func TestPull_AppliesOtherSitesOps(t *testing.T) {
	m, db := newTestApp(t, "hello")

	op := &domain.Op{
		DocumentGUID: m.document.GUID(),
		Kind:         domain.OpInsert,
		Offset:       0,
		Length:       3,
		Body:         "ab ",
		Site:         "other-site",
	}
	require.NoError(t, db.Ops().Append(op))

	m.pull()

	require.Equal(t, "ab hello", m.doc.Snapshot())
	require.Equal(t, op.Seq, m.lastSeq)
}

func TestPull_SkipsOwnSiteOps(t *testing.T) {
	m, db := newTestApp(t, "hello")

	op := &domain.Op{
		DocumentGUID: m.document.GUID(),
		Kind:         domain.OpInsert,
		Offset:       0,
		Length:       1,
		Body:         "x",
		Site:         m.siteID,
	}
	require.NoError(t, db.Ops().Append(op))

	m.pull()

	require.Equal(t, "hello", m.doc.Snapshot())
	require.Equal(t, op.Seq, m.lastSeq)
}

func TestPull_RebasesDiffBaselineForNextSave(t *testing.T) {
	m, db := newTestApp(t, "hello")

	// Another process inserts, saves its body, and appends the op.
	remote, err := db.Documents().FindByGUID(m.document.GUID())
	require.NoError(t, err)
	remote.UpdateBody("XXhello")
	require.NoError(t, db.Documents().Save(remote))
	require.NoError(t, db.Ops().Append(&domain.Op{
		DocumentGUID: m.document.GUID(),
		Kind:         domain.OpInsert,
		Offset:       0,
		Length:       2,
		Body:         "XX",
		Site:         "other-site",
	}))

	m.pull()
	require.Equal(t, "XXhello", m.doc.Snapshot())

	// A save right after the pull has nothing of its own to push.
	m.dirty = true
	m.save()
	ops, err := db.Ops().ListSince(m.document.GUID(), 1)
	require.NoError(t, err)
	require.Empty(t, ops)
}

func TestPull_TruncatedOpLogFallsBackToSnapshotDiff(t *testing.T) {
	m, db := newTestApp(t, "hello")

	// Pretend we had seen ops that are gone now, and the persisted body
	// moved on without any log entries to replay.
	m.lastSeq = 5
	remote, err := db.Documents().FindByGUID(m.document.GUID())
	require.NoError(t, err)
	remote.UpdateBody("hello world")
	require.NoError(t, db.Documents().Save(remote))

	m.pull()

	require.Equal(t, "hello world", m.doc.Snapshot())
	require.Equal(t, int64(0), m.lastSeq)
}

func TestUpdate_LocalEditSchedulesAutosave(t *testing.T) {
	m, _ := newTestApp(t, "")
	m.services.Config.AutoSync = true

	m.doc.InsertText("a", 0)
	edit := sequence.Edit{Kind: sequence.Insert, Offset: 0, Length: 1, Origin: sequence.Local}
	updated, cmd := m.Update(pubsub.Event[sequence.Edit]{Type: pubsub.EditEvent, Payload: edit})
	m = updated.(Model)

	require.True(t, m.Dirty())
	require.True(t, m.saveScheduled)
	require.NotNil(t, cmd)
}

func TestUpdate_DBChangeTriggersPull(t *testing.T) {
	m, db := newTestApp(t, "hello")

	require.NoError(t, db.Ops().Append(&domain.Op{
		DocumentGUID: m.document.GUID(),
		Kind:         domain.OpRemove,
		Offset:       0,
		Length:       2,
		Site:         "other-site",
	}))

	updated, _ := m.Update(pubsub.Event[struct{}]{Type: pubsub.ChangedEvent})
	m = updated.(Model)

	require.Equal(t, "llo", m.doc.Snapshot())
}

func TestApp_EditAndQuitPersists(t *testing.T) {
	m, db := newTestApp(t, "hello")

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(60, 12))
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("hello"))
	}, teatest.WithDuration(3*time.Second))

	tm.Type("!")
	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	final := tm.FinalModel(t).(Model)
	fresh, err := db.Documents().FindByGUID(final.document.GUID())
	require.NoError(t, err)
	require.Equal(t, "!hello", fresh.Body())
}

func TestOpKindMapping(t *testing.T) {
	require.Equal(t, domain.OpInsert, opKind(sequence.Insert))
	require.Equal(t, domain.OpRemove, opKind(sequence.Remove))
}
