// Package scheduler coalesces render requests and sequences the work a
// render pass depends on. Any number of edits and viewport changes between
// two flushes collapse into a single pending render; at flush time the
// cursor and viewport top are rebased over the queued edits first, then one
// layout pass runs.
package scheduler

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zdavis/folio/internal/cursor"
	"github.com/zdavis/folio/internal/log"
	"github.com/zdavis/folio/internal/paginate"
	"github.com/zdavis/folio/internal/sequence"
	"github.com/zdavis/folio/internal/tracing"
)

type Scheduler struct {
	engine *paginate.Engine
	seq    sequence.Sequence
	tracer trace.Tracer

	cur *cursor.Cursor
	vs  paginate.ViewportState

	pendingRender bool
	pendingEdits  []sequence.Edit
	page          *paginate.Page

	// retryArmed marks the next flush as the single retry of an abandoned
	// pass; a failure while armed surfaces to the caller.
	retryArmed bool

	renders       uint64
	coalesced     uint64
	retries       uint64
	lastCoalesced uint64
}

func New(engine *paginate.Engine, seq sequence.Sequence) *Scheduler {
	return &Scheduler{
		engine: engine,
		seq:    seq,
		tracer: noop.NewTracerProvider().Tracer("scheduler"),
		cur:    cursor.New(0, seq.Len()),
		page:   &paginate.Page{},
	}
}

// SetTracer routes layout pass spans through t. The scheduler starts with a
// no-op tracer, so hosts that never call this pay nothing.
func (s *Scheduler) SetTracer(t trace.Tracer) {
	if t != nil {
		s.tracer = t
	}
}

// NoteEdit queues a mutation notification for the next flush and requests a
// render. Edits are not acted on here; reacting immediately would rebase
// against a sequence state the pending layout has not seen yet.
func (s *Scheduler) NoteEdit(e sequence.Edit) {
	s.pendingEdits = append(s.pendingEdits, e)
	s.RequestRender()
}

// RequestRender marks a render as pending. Returns false when a render was
// already pending and this request coalesced into it.
func (s *Scheduler) RequestRender() bool {
	if s.pendingRender {
		s.coalesced++
		return false
	}
	s.pendingRender = true
	return true
}

func (s *Scheduler) RenderPending() bool {
	return s.pendingRender
}

// Flush runs the pending render, if any, and returns the current page.
//
// Order matters: queued edits rebase the cursor and the viewport top before
// layout, so the pass sees offsets consistent with the sequence it walks. A
// layout that reports an inconsistent traversal is abandoned; the render
// stays pending and the next flush is its one retry. A failure on that
// retry surfaces to the caller, with the last good page kept current.
func (s *Scheduler) Flush() (*paginate.Page, error) {
	if !s.pendingRender {
		return s.page, nil
	}

	_, span := s.tracer.Start(context.Background(), tracing.SpanLayout,
		trace.WithAttributes(attribute.Int(tracing.AttrTopChar, s.vs.TopChar)))
	defer span.End()

	if s.coalesced > s.lastCoalesced {
		span.AddEvent(tracing.EventRenderCoalesced)
		s.lastCoalesced = s.coalesced
	}
	if s.retryArmed {
		span.AddEvent(tracing.EventLayoutRetried)
	}

	length := s.seq.Len()
	rebased := false
	for _, e := range s.pendingEdits {
		before := s.cur.Pos
		s.cur.Rebase(e, length)
		s.vs.TopChar = rebaseOffset(s.vs.TopChar, e)
		if e.Origin == sequence.Remote && s.cur.Pos != before {
			rebased = true
		}
	}
	s.pendingEdits = s.pendingEdits[:0]
	s.cur.Clamp(length)
	if rebased {
		span.AddEvent(tracing.EventCursorRebased)
	}

	page, err := s.engine.Layout(s.seq, &s.vs, s.cur.Pos)
	if err != nil {
		span.SetAttributes(attribute.String(tracing.AttrErrorMessage, err.Error()))
		if s.retryArmed {
			s.retryArmed = false
			return s.page, err
		}
		s.retryArmed = true
		s.retries++
		log.Warn(log.CatSched, "layout failed, retrying on next flush", "err", err)
		return s.page, nil
	}

	s.retryArmed = false
	s.page = page
	s.pendingRender = false
	s.renders++
	span.SetAttributes(
		attribute.Int(tracing.AttrEndChar, s.vs.ViewportEndChar),
		attribute.Int(tracing.AttrLineCount, len(page.Lines)),
		attribute.Int(tracing.AttrCharsPerLine, s.vs.CharsPerLine),
	)
	return s.page, nil
}

// rebaseOffset shifts a viewport anchor offset across a remote edit, the
// same transform the cursor applies to its own position.
func rebaseOffset(off int, e sequence.Edit) int {
	if e.Origin != sequence.Remote {
		return off
	}
	switch e.Kind {
	case sequence.Insert:
		if e.Offset <= off {
			return off + e.Length
		}
	case sequence.Remove:
		if e.End() <= off {
			return off - e.Length
		}
		if e.Offset <= off {
			return e.Offset
		}
	}
	return off
}

// Page returns the most recently flushed page.
func (s *Scheduler) Page() *paginate.Page {
	return s.page
}

func (s *Scheduler) Viewport() paginate.ViewportState {
	return s.vs
}

func (s *Scheduler) CursorPos() int {
	return s.cur.Pos
}

// MoveCursorTo repositions the cursor, clamped to the document, and
// requests a render.
func (s *Scheduler) MoveCursorTo(pos int) {
	s.cur.MoveTo(pos, s.seq.Len())
	s.RequestRender()
}

// SetSize updates the viewport's pixel bounds and requests a render.
func (s *Scheduler) SetSize(width, height float64) {
	s.engine.SetSize(width, height)
	s.RequestRender()
}

// ScrollRows moves the viewport top by whole visual rows using the current
// capacity estimate. The next layout pass corrects any estimate error.
func (s *Scheduler) ScrollRows(rows int) {
	if s.vs.CharsPerLine < 1 {
		s.RequestRender()
		return
	}
	s.vs.TopChar += rows * s.vs.CharsPerLine
	if s.vs.TopChar < 0 {
		s.vs.TopChar = 0
	}
	if n := s.seq.Len(); s.vs.TopChar > n {
		s.vs.TopChar = n
	}
	s.RequestRender()
}

// Scroll shifts the viewport top by half an estimated viewport of
// characters in the given direction (negative up, positive down).
func (s *Scheduler) Scroll(direction int) {
	half := s.vs.ViewportCharCount / 2
	if half < 1 {
		s.RequestRender()
		return
	}
	s.vs.TopChar += direction * half
	if s.vs.TopChar < 0 {
		s.vs.TopChar = 0
	}
	if n := s.seq.Len(); s.vs.TopChar > n {
		s.vs.TopChar = n
	}
	s.RequestRender()
}

// PageForward advances the viewport so the previous bottom-of-view offset
// becomes the new top.
func (s *Scheduler) PageForward() {
	s.vs.TopChar = s.vs.ViewportEndChar
	s.RequestRender()
}

// PageBack retreats the viewport top by one estimated viewport of
// characters.
func (s *Scheduler) PageBack() {
	s.vs.TopChar -= s.vs.ViewportCharCount
	if s.vs.TopChar < 0 {
		s.vs.TopChar = 0
	}
	s.RequestRender()
}

// EnsureCursorVisible pulls the viewport to the cursor when the cursor sits
// outside the rendered range.
func (s *Scheduler) EnsureCursorVisible() {
	pos := s.cur.Pos
	if pos >= s.vs.TopChar && pos <= s.vs.ViewportEndChar {
		return
	}
	if pos < s.vs.TopChar {
		s.vs.TopChar = pos
	} else {
		half := s.vs.ViewportCharCount / 2
		s.vs.TopChar = pos - half
		if s.vs.TopChar < 0 {
			s.vs.TopChar = 0
		}
	}
	s.RequestRender()
}

// Stats reports renders performed, requests coalesced into an already
// pending render, and layout retries.
func (s *Scheduler) Stats() (renders, coalesced, retries uint64) {
	return s.renders, s.coalesced, s.retries
}
