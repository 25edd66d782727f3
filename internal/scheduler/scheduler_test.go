package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zdavis/folio/internal/geometry"
	"github.com/zdavis/folio/internal/paginate"
	"github.com/zdavis/folio/internal/pubsub"
	"github.com/zdavis/folio/internal/sequence"
	"github.com/zdavis/folio/internal/tracing"
)

func newScheduler(text string, cols, rows int) (*Scheduler, *sequence.Doc) {
	doc := sequence.NewDoc(text, "body")
	ad := geometry.NewCell(geometry.DefaultCellW, geometry.DefaultCellH)
	engine := paginate.NewEngine(ad, float64(cols)*geometry.DefaultCellW, float64(rows)*geometry.DefaultCellH)
	return New(engine, doc), doc
}

func TestRequestRender_Coalesces(t *testing.T) {
	s, _ := newScheduler("hello", 20, 3)

	require.True(t, s.RequestRender())
	require.False(t, s.RequestRender())
	require.False(t, s.RequestRender())

	_, coalesced, _ := s.Stats()
	require.Equal(t, uint64(2), coalesced)
}

func TestFlush_ClearsPendingAndRenders(t *testing.T) {
	s, _ := newScheduler("hello world", 20, 3)

	s.RequestRender()
	page, err := s.Flush()
	require.NoError(t, err)
	require.False(t, s.RenderPending())
	require.Equal(t, 11, page.ViewportEndChar)

	renders, _, _ := s.Stats()
	require.Equal(t, uint64(1), renders)
}

func TestFlush_WithoutPendingReturnsLastPage(t *testing.T) {
	s, _ := newScheduler("hello", 20, 3)

	s.RequestRender()
	first, err := s.Flush()
	require.NoError(t, err)

	again, err := s.Flush()
	require.NoError(t, err)
	require.Same(t, first, again)

	renders, _, _ := s.Stats()
	require.Equal(t, uint64(1), renders)
}

func TestFlush_RebasesCursorBeforeLayout(t *testing.T) {
	s, doc := newScheduler("hello world", 40, 3)
	s.MoveCursorTo(5)
	_, err := s.Flush()
	require.NoError(t, err)

	// Remote insert ahead of the cursor arrives between flushes.
	doc.ApplyRemoteInsert("XX", 0)
	s.NoteEdit(sequence.Edit{Kind: sequence.Insert, Offset: 0, Length: 2, Origin: sequence.Remote})

	page, err := s.Flush()
	require.NoError(t, err)
	require.Equal(t, 7, s.CursorPos())
	require.True(t, page.Cursor.Bound)
	// The bound span begins exactly at the rebased cursor offset.
	sp := page.Lines[page.Cursor.Line].Spans[page.Cursor.Span]
	require.Equal(t, 7, sp.Start)
}

func TestFlush_RebasesViewportTopAcrossRemoteRemove(t *testing.T) {
	s, doc := newScheduler("alpha beta gamma delta omega", 10, 2)
	s.RequestRender()
	_, err := s.Flush()
	require.NoError(t, err)

	// Capacity estimates exist only after a first layout pass.
	s.ScrollRows(1)
	_, err = s.Flush()
	require.NoError(t, err)
	top := s.Viewport().TopChar
	require.Equal(t, 10, top)

	doc.ApplyRemoteRemove(0, 6)
	s.NoteEdit(sequence.Edit{Kind: sequence.Remove, Offset: 0, Length: 6, Origin: sequence.Remote})
	_, err = s.Flush()
	require.NoError(t, err)
	require.Equal(t, top-6, s.Viewport().TopChar)
}

func TestFlush_LocalEditsDoNotRebase(t *testing.T) {
	s, doc := newScheduler("hello world", 40, 3)
	s.MoveCursorTo(5)
	_, err := s.Flush()
	require.NoError(t, err)

	doc.InsertText("!!", 0)
	s.NoteEdit(sequence.Edit{Kind: sequence.Insert, Offset: 0, Length: 2, Origin: sequence.Local})
	_, err = s.Flush()
	require.NoError(t, err)
	require.Equal(t, 5, s.CursorPos())
}

func TestFlush_InconsistentTraversalRetriedOnNextFlush(t *testing.T) {
	seq := &flakySequence{doc: sequence.NewDoc("hello world", "body"), failures: 1}
	ad := geometry.NewCell(geometry.DefaultCellW, geometry.DefaultCellH)
	s := New(paginate.NewEngine(ad, 160, 48), seq)

	// The failed pass is abandoned without surfacing an error; the render
	// stays pending so the next flush can retry it.
	s.RequestRender()
	_, err := s.Flush()
	require.NoError(t, err)
	require.True(t, s.RenderPending())

	page, err := s.Flush()
	require.NoError(t, err)
	require.False(t, s.RenderPending())
	require.Equal(t, 11, page.ViewportEndChar)

	_, _, retries := s.Stats()
	require.Equal(t, uint64(1), retries)
}

func TestFlush_FailedRetrySurfacesError(t *testing.T) {
	seq := &flakySequence{doc: sequence.NewDoc("hello", "body"), failures: 2}
	ad := geometry.NewCell(geometry.DefaultCellW, geometry.DefaultCellH)
	s := New(paginate.NewEngine(ad, 160, 48), seq)

	s.RequestRender()
	_, err := s.Flush()
	require.NoError(t, err)
	require.True(t, s.RenderPending())

	_, err = s.Flush()
	require.ErrorIs(t, err, paginate.ErrTraversalInconsistent)
	require.True(t, s.RenderPending())

	// The traversal recovers; the render finally lands.
	page, err := s.Flush()
	require.NoError(t, err)
	require.False(t, s.RenderPending())
	require.Equal(t, 5, page.ViewportEndChar)
}

func TestFlush_EmitsLayoutSpans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	provider, err := tracing.NewProvider(tracing.Config{Enabled: true, Exporter: "file", FilePath: path})
	require.NoError(t, err)

	s, doc := newScheduler("hello world", 40, 3)
	s.SetTracer(provider.Tracer())
	s.MoveCursorTo(5)
	s.RequestRender() // coalesces into the pending render
	_, err = s.Flush()
	require.NoError(t, err)

	doc.ApplyRemoteInsert("!!", 0)
	s.NoteEdit(sequence.Edit{Kind: sequence.Insert, Offset: 0, Length: 2, Origin: sequence.Remote})
	_, err = s.Flush()
	require.NoError(t, err)
	require.Equal(t, 7, s.CursorPos())

	require.NoError(t, provider.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	require.Contains(t, out, tracing.SpanLayout)
	require.Contains(t, out, tracing.AttrEndChar)
	require.Contains(t, out, tracing.AttrLineCount)
	require.Contains(t, out, tracing.AttrCharsPerLine)
	require.Contains(t, out, tracing.EventRenderCoalesced)
	require.Contains(t, out, tracing.EventCursorRebased)
}

func TestFlush_FailedPassSpanCarriesError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	provider, err := tracing.NewProvider(tracing.Config{Enabled: true, Exporter: "file", FilePath: path})
	require.NoError(t, err)

	seq := &flakySequence{doc: sequence.NewDoc("hello", "body"), failures: 1}
	ad := geometry.NewCell(geometry.DefaultCellW, geometry.DefaultCellH)
	s := New(paginate.NewEngine(ad, 160, 48), seq)
	s.SetTracer(provider.Tracer())

	s.RequestRender()
	_, err = s.Flush()
	require.NoError(t, err)
	_, err = s.Flush()
	require.NoError(t, err)

	require.NoError(t, provider.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	require.Contains(t, out, tracing.AttrErrorMessage)
	require.Contains(t, out, tracing.EventLayoutRetried)
}

func TestEnsureCursorVisible_PullsViewportToCursor(t *testing.T) {
	s, _ := newScheduler("alpha beta gamma delta omega kappa sigma", 10, 2)
	s.RequestRender()
	_, err := s.Flush()
	require.NoError(t, err)
	end := s.Viewport().ViewportEndChar

	s.MoveCursorTo(35)
	require.Greater(t, 35, end)
	s.EnsureCursorVisible()
	_, err = s.Flush()
	require.NoError(t, err)

	vp := s.Viewport()
	require.LessOrEqual(t, vp.TopChar, 35)
	require.GreaterOrEqual(t, vp.ViewportEndChar, vp.TopChar)
}

func TestPageForwardAndBack(t *testing.T) {
	s, _ := newScheduler("alpha beta gamma delta omega kappa sigma tau", 10, 2)
	s.RequestRender()
	_, err := s.Flush()
	require.NoError(t, err)
	end := s.Viewport().ViewportEndChar

	s.PageForward()
	_, err = s.Flush()
	require.NoError(t, err)
	require.Equal(t, end, s.Viewport().TopChar)

	s.PageBack()
	_, err = s.Flush()
	require.NoError(t, err)
	require.GreaterOrEqual(t, s.Viewport().TopChar, 0)
	require.Less(t, s.Viewport().TopChar, end)
}

func TestScroll_ShiftsByHalfViewport(t *testing.T) {
	s, _ := newScheduler("alpha beta gamma delta omega kappa sigma tau", 10, 2)
	s.RequestRender()
	_, err := s.Flush()
	require.NoError(t, err)
	half := s.Viewport().ViewportCharCount / 2
	require.Greater(t, half, 0)

	s.Scroll(1)
	require.Equal(t, half, s.Viewport().TopChar)

	s.Scroll(-1)
	require.Equal(t, 0, s.Viewport().TopChar)
}

func TestScroll_BeforeFirstLayoutOnlyRequestsRender(t *testing.T) {
	s, _ := newScheduler("hello", 10, 2)

	s.Scroll(1)

	require.Equal(t, 0, s.Viewport().TopChar)
	require.True(t, s.RenderPending())
}

// flakySequence fails its first n traversals with a gap in the reported
// offsets, then behaves normally.
type flakySequence struct {
	doc      *sequence.Doc
	failures int
}

func (f *flakySequence) Len() int { return f.doc.Len() }

func (f *flakySequence) Traverse(from int, visit func(seg sequence.Segment, start int) bool) {
	if f.failures > 0 {
		f.failures--
		visit(sequence.Segment{Text: "x", StyleKey: "body"}, 0)
		visit(sequence.Segment{Text: "y", StyleKey: "body"}, 5)
		return
	}
	f.doc.Traverse(from, visit)
}

func (f *flakySequence) InsertText(text string, offset int) { f.doc.InsertText(text, offset) }
func (f *flakySequence) RemoveText(start, end int)          { f.doc.RemoveText(start, end) }
func (f *flakySequence) Events() *pubsub.Broker[sequence.Edit] {
	return f.doc.Events()
}
