// Package app contains the root application model. It owns a single open
// document: the sequence the view edits, the repositories it syncs with,
// and the watcher that signals op-log appends from other processes.
package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zdavis/folio/internal/config"
	"github.com/zdavis/folio/internal/documents/domain"
	"github.com/zdavis/folio/internal/flags"
	"github.com/zdavis/folio/internal/keys"
	"github.com/zdavis/folio/internal/log"
	"github.com/zdavis/folio/internal/pubsub"
	"github.com/zdavis/folio/internal/sequence"
	"github.com/zdavis/folio/internal/tracing"
	"github.com/zdavis/folio/internal/ui/docview"
	"github.com/zdavis/folio/internal/watcher"
)

const saveDebounce = 2 * time.Second

// Services bundles the dependencies the application model needs.
type Services struct {
	Docs       domain.DocumentRepository
	Ops        domain.OpRepository
	Config     *config.Config
	ConfigPath string
	DBPath     string
	Tracer     *tracing.Provider
	Flags      *flags.Registry
}

// saveTickMsg fires the debounced autosave.
type saveTickMsg time.Time

// Model is the root application state.
type Model struct {
	services Services
	document *domain.Document
	doc      *sequence.Doc
	view     docview.Model
	keys     keys.AppKeyMap

	// siteID identifies this process in the op log; ops we pull that carry
	// our own site are skipped.
	siteID  string
	lastSeq int64

	dirty         bool
	saveScheduled bool
	saveErr       error

	watcherHandle *watcher.Watcher
	changes       *pubsub.ContinuousListener[struct{}]

	width  int
	height int
}

// New creates the application model for an open document.
func New(document *domain.Document, services Services) Model {
	doc := sequence.NewDoc(document.Body(), "body")

	lastSeq, err := services.Ops.LastSeq(document.GUID())
	if err != nil {
		log.Warn(log.CatDB, "failed to read last op seq", "guid", document.GUID(), "error", err)
	}

	cfg := services.Config
	vcfg := docview.Config{
		CellWidth:     cfg.Viewport.CellWidth,
		CellHeight:    cfg.Viewport.CellHeight,
		CursorBlink:   cfg.UI.CursorBlink,
		BlinkInterval: time.Duration(cfg.UI.BlinkIntervalMS) * time.Millisecond,
		ShowStatusBar: cfg.UI.ShowStatusBar,
		ShowStats:     services.Flags.Enabled(flags.FlagRenderStats),
		Title:         document.Title(),
	}

	var (
		watcherHandle *watcher.Watcher
		changes       *pubsub.ContinuousListener[struct{}]
	)
	if cfg.AutoSync && services.DBPath != "" {
		w, werr := watcher.New(watcher.DefaultConfig(services.DBPath))
		if werr == nil {
			// Subscribe before Start so no change event can slip past.
			ln := pubsub.NewContinuousListener(context.Background(), w.Broker())
			if serr := w.Start(); serr == nil {
				watcherHandle = w
				changes = ln
			} else {
				_ = w.Stop()
				log.Warn(log.CatWatch, "failed to start db watcher", "error", serr)
			}
		} else {
			log.Warn(log.CatWatch, "failed to create db watcher", "error", werr)
		}
	}

	view := docview.New(doc, vcfg)
	if services.Tracer != nil {
		view.Scheduler().SetTracer(services.Tracer.Tracer())
	}

	return Model{
		services:      services,
		document:      document,
		doc:           doc,
		view:          view,
		keys:          keys.App(),
		siteID:        uuid.NewString(),
		lastSeq:       lastSeq,
		watcherHandle: watcherHandle,
		changes:       changes,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.view.Init()}
	if cmd := m.waitForChange(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	return m.changes.Listen()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.save()
			m.shutdown()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Save):
			m.save()
			return m, nil
		}
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, cmd

	case pubsub.Event[sequence.Edit]:
		var cmds []tea.Cmd
		if msg.Payload.Origin == sequence.Local {
			m.dirty = true
			if m.services.Config.AutoSync && !m.saveScheduled {
				m.saveScheduled = true
				cmds = append(cmds, tea.Tick(saveDebounce, func(t time.Time) tea.Msg {
					return saveTickMsg(t)
				}))
			}
		}
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case saveTickMsg:
		m.saveScheduled = false
		if m.dirty {
			m.save()
		}
		return m, nil

	case pubsub.Event[struct{}]:
		if msg.Type == pubsub.ChangedEvent {
			m.pull()
		}
		return m, m.waitForChange()
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

// save diffs the current document text against the persisted body, appends
// the resulting ops under this process's site, and stores the new body.
func (m *Model) save() {
	snapshot := m.doc.Snapshot()
	if snapshot == m.document.Body() {
		m.dirty = false
		return
	}

	_, span := m.services.Tracer.Tracer().Start(context.Background(), tracing.SpanSyncPush,
		trace.WithAttributes(
			attribute.String(tracing.AttrDocumentGUID, m.document.GUID()),
			attribute.String(tracing.AttrSiteID, m.siteID),
		))
	defer span.End()

	ops := sequence.Diff(m.document.Body(), snapshot)
	for _, op := range ops {
		rec := &domain.Op{
			DocumentGUID: m.document.GUID(),
			Kind:         opKind(op.Kind),
			Offset:       op.Offset,
			Length:       op.Length,
			Body:         op.Body,
			Site:         m.siteID,
		}
		if err := m.services.Ops.Append(rec); err != nil {
			m.saveErr = err
			span.SetStatus(codes.Error, err.Error())
			log.ErrorErr(log.CatDB, "failed to append op", err, "guid", m.document.GUID())
			return
		}
		m.lastSeq = rec.Seq
	}

	m.document.UpdateBody(snapshot)
	if err := m.services.Docs.Save(m.document); err != nil {
		m.saveErr = err
		span.SetStatus(codes.Error, err.Error())
		log.ErrorErr(log.CatDB, "failed to save document", err, "guid", m.document.GUID())
		return
	}

	span.SetAttributes(
		attribute.Int(tracing.AttrDocumentLen, m.doc.Len()),
		attribute.Int64(tracing.AttrRevision, m.document.Revision()),
	)
	m.dirty = false
	m.saveErr = nil
	log.Debug(log.CatDB, "document saved",
		"guid", m.document.GUID(),
		"ops", len(ops),
		"revision", m.document.Revision())
}

// pull applies ops appended by other processes since our last known
// sequence number. Applying them mutates the sequence as remote edits; the
// view's edit listener picks those up and rebases the cursor and viewport.
func (m *Model) pull() {
	_, span := m.services.Tracer.Tracer().Start(context.Background(), tracing.SpanSyncPull,
		trace.WithAttributes(attribute.String(tracing.AttrDocumentGUID, m.document.GUID())))
	defer span.End()

	ops, err := m.services.Ops.ListSince(m.document.GUID(), m.lastSeq)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.ErrorErr(log.CatDB, "failed to list ops", err, "guid", m.document.GUID())
		return
	}

	applied := 0
	for _, op := range ops {
		m.lastSeq = op.Seq
		if op.Site == m.siteID {
			continue
		}
		switch op.Kind {
		case domain.OpInsert:
			m.doc.ApplyRemoteInsert(op.Body, op.Offset)
		case domain.OpRemove:
			m.doc.ApplyRemoteRemove(op.Offset, op.Offset+op.Length)
		}
		applied++
	}

	if len(ops) == 0 {
		if last, lerr := m.services.Ops.LastSeq(m.document.GUID()); lerr == nil && last < m.lastSeq {
			// The op log was truncated; fall back to a snapshot diff
			// against the persisted body.
			m.lastSeq = last
			if fresh, ferr := m.services.Docs.FindByGUID(m.document.GUID()); ferr == nil && !m.dirty {
				for _, op := range sequence.Diff(m.doc.Snapshot(), fresh.Body()) {
					switch op.Kind {
					case sequence.Insert:
						m.doc.ApplyRemoteInsert(op.Body, op.Offset)
					case sequence.Remove:
						m.doc.ApplyRemoteRemove(op.Offset, op.Offset+op.Length)
					}
					applied++
				}
				m.document = fresh
			}
		}
	}

	if applied > 0 {
		// Re-anchor the diff baseline on the merged persisted state so the
		// next save does not replay remote text as our own ops.
		if fresh, err := m.services.Docs.FindByGUID(m.document.GUID()); err == nil {
			m.document = fresh
		}
		span.AddEvent(tracing.EventOpsApplied)
	}
	span.SetAttributes(attribute.Int(tracing.AttrOpsPulled, applied))
	log.Debug(log.CatDB, "pulled ops",
		"guid", m.document.GUID(),
		"total", len(ops),
		"applied", applied,
		"lastSeq", m.lastSeq)
}

func (m *Model) shutdown() {
	if m.watcherHandle != nil {
		if err := m.watcherHandle.Stop(); err != nil {
			log.Warn(log.CatWatch, "failed to stop watcher", "error", err)
		}
		m.watcherHandle = nil
	}
}

func opKind(k sequence.EditKind) domain.OpKind {
	if k == sequence.Insert {
		return domain.OpInsert
	}
	return domain.OpRemove
}

// View implements tea.Model.
func (m Model) View() string {
	return m.view.View()
}

// Dirty reports whether unsaved local edits exist.
func (m Model) Dirty() bool {
	return m.dirty
}

// SaveErr returns the most recent persistence error, if any.
func (m Model) SaveErr() error {
	return m.saveErr
}
