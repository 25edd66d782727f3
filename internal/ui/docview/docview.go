// Package docview renders a paginated viewport over a collaboratively
// edited document and routes keystrokes into sequence mutations.
package docview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wrap"

	"github.com/zdavis/folio/internal/geometry"
	"github.com/zdavis/folio/internal/keys"
	"github.com/zdavis/folio/internal/log"
	"github.com/zdavis/folio/internal/paginate"
	"github.com/zdavis/folio/internal/pubsub"
	"github.com/zdavis/folio/internal/resolve"
	"github.com/zdavis/folio/internal/scheduler"
	"github.com/zdavis/folio/internal/sequence"
	"github.com/zdavis/folio/internal/ui/styles"
)

// Config controls document view behavior.
type Config struct {
	CellWidth     float64
	CellHeight    float64
	CursorBlink   bool
	BlinkInterval time.Duration
	ShowStatusBar bool
	// ShowStats adds render counters to the status bar.
	ShowStats bool
	Title     string
}

// DefaultConfig returns the standard view configuration.
func DefaultConfig() Config {
	return Config{
		CellWidth:     geometry.DefaultCellW,
		CellHeight:    geometry.DefaultCellH,
		CursorBlink:   true,
		BlinkInterval: 530 * time.Millisecond,
		ShowStatusBar: true,
		Title:         "untitled",
	}
}

// blinkMsg toggles the cursor blink phase.
type blinkMsg time.Time

// Model is the document view component.
type Model struct {
	seq      sequence.Sequence
	sched    *scheduler.Scheduler
	engine   *paginate.Engine
	adapter  geometry.Adapter
	keys     keys.EditorKeyMap
	listener *pubsub.ContinuousListener[sequence.Edit]

	cfg    Config
	width  int
	height int

	blinkOn     bool
	remoteEdits int
	err         error
}

// New creates a document view over seq.
func New(seq sequence.Sequence, cfg Config) Model {
	ad := geometry.NewCell(cfg.CellWidth, cfg.CellHeight)
	engine := paginate.NewEngine(ad, 0, 0)
	return Model{
		seq:      seq,
		sched:    scheduler.New(engine, seq),
		engine:   engine,
		adapter:  ad,
		keys:     keys.Editor(),
		listener: pubsub.NewContinuousListener(context.Background(), seq.Events()),
		cfg:      cfg,
		blinkOn:  true,
	}
}

// Init starts the edit listener and the blink timer.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.listener.Listen()}
	if m.cfg.CursorBlink {
		cmds = append(cmds, m.blinkCmd())
	}
	return tea.Batch(cmds...)
}

func (m Model) blinkCmd() tea.Cmd {
	return tea.Tick(m.cfg.BlinkInterval, func(t time.Time) tea.Msg {
		return blinkMsg(t)
	})
}

// Update handles messages and flushes any pending render before returning.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		rows := m.contentRows()
		m.sched.SetSize(float64(msg.Width)*m.cfg.CellWidth, float64(rows)*m.cfg.CellHeight)

	case pubsub.Event[sequence.Edit]:
		m.sched.NoteEdit(msg.Payload)
		if msg.Payload.Origin == sequence.Remote {
			m.remoteEdits++
			log.Debug(log.CatUI, "remote edit observed",
				"kind", msg.Payload.Kind.String(),
				"offset", msg.Payload.Offset,
				"length", msg.Payload.Length)
		}
		cmd = m.listener.Listen()

	case blinkMsg:
		m.blinkOn = !m.blinkOn
		cmd = m.blinkCmd()

	case tea.KeyMsg:
		m = m.handleKey(msg)
	}

	m = m.flush()
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) Model {
	switch {
	case key.Matches(msg, m.keys.Left):
		m.moveCursorBy(-1)
	case key.Matches(msg, m.keys.Right):
		m.moveCursorBy(1)
	case key.Matches(msg, m.keys.Up):
		m.moveVertical(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveVertical(1)
	case key.Matches(msg, m.keys.Home):
		m.moveToLineEdge(false)
	case key.Matches(msg, m.keys.End):
		m.moveToLineEdge(true)
	case key.Matches(msg, m.keys.ScrollUp):
		m.sched.ScrollRows(-1)
	case key.Matches(msg, m.keys.ScrollDown):
		m.sched.ScrollRows(1)
	case key.Matches(msg, m.keys.HalfPageUp):
		m.sched.Scroll(-1)
	case key.Matches(msg, m.keys.HalfPageDown):
		m.sched.Scroll(1)
	case key.Matches(msg, m.keys.PageUp):
		m.sched.PageBack()
	case key.Matches(msg, m.keys.PageDown):
		m.sched.PageForward()
	case key.Matches(msg, m.keys.Backspace):
		pos := m.sched.CursorPos()
		if pos > 0 {
			m.seq.RemoveText(pos-1, pos)
			m.sched.MoveCursorTo(pos - 1)
			m.sched.EnsureCursorVisible()
		}
	case key.Matches(msg, m.keys.Delete):
		pos := m.sched.CursorPos()
		if pos < m.seq.Len() {
			m.seq.RemoveText(pos, pos+1)
		}
	case key.Matches(msg, m.keys.Enter):
		m.insertText("\n")
	default:
		if msg.Type == tea.KeyRunes {
			m.insertText(string(msg.Runes))
		} else if msg.Type == tea.KeySpace {
			m.insertText(" ")
		}
	}
	return m
}

func (m *Model) insertText(text string) {
	pos := m.sched.CursorPos()
	m.seq.InsertText(text, pos)
	m.sched.MoveCursorTo(pos + len([]rune(text)))
	m.sched.EnsureCursorVisible()
	m.blinkOn = true
}

func (m *Model) moveCursorBy(delta int) {
	pos := m.sched.CursorPos() + delta
	if pos < 0 {
		pos = 0
	}
	if pos > m.seq.Len() {
		pos = m.seq.Len()
	}
	m.sched.MoveCursorTo(pos)
	m.sched.EnsureCursorVisible()
	m.blinkOn = true
}

// moveVertical moves the cursor one visual row up or down. Movement within
// a wrapped line stays inside it; crossing a hard break resolves the same
// horizontal position in the adjacent line. Past the page edge it scrolls.
func (m *Model) moveVertical(dir int) {
	page := m.sched.Page()
	b := page.Cursor
	if !b.Bound || b.Line >= len(page.Lines) {
		m.sched.ScrollRows(dir)
		return
	}

	line := page.Lines[b.Line]
	run := m.lineRun(line)
	p := resolve.LeftEdge(m.adapter, run, m.sched.CursorPos()-line.Start())

	probeY := p.Y + float64(dir)*m.cfg.CellHeight
	if probeY >= 0 && probeY < line.Height {
		// Another visual row of the same hard line.
		off := resolve.OffsetAtPoint(m.adapter, run, geometry.Point{X: p.X, Y: probeY + m.cfg.CellHeight/2})
		m.moveWithin(line, off)
		return
	}

	target := b.Line + dir
	if target < 0 || target >= len(page.Lines) {
		m.sched.ScrollRows(dir)
		return
	}

	tl := page.Lines[target]
	trun := m.lineRun(tl)
	y := m.cfg.CellHeight / 2
	if dir < 0 && tl.Height > m.cfg.CellHeight {
		// Entering from below lands on the target's last visual row.
		y = tl.Height - m.cfg.CellHeight/2
	}
	off := resolve.OffsetAtPoint(m.adapter, trun, geometry.Point{X: p.X, Y: y})
	m.moveWithin(tl, off)
}

func (m *Model) moveWithin(line paginate.Line, off int) {
	pos := line.Start() + off
	if limit := line.Start() + line.Len(); pos > limit {
		pos = limit
	}
	m.sched.MoveCursorTo(pos)
	m.sched.EnsureCursorVisible()
	m.blinkOn = true
}

func (m *Model) moveToLineEdge(end bool) {
	page := m.sched.Page()
	b := page.Cursor
	if !b.Bound || b.Line >= len(page.Lines) {
		return
	}
	line := page.Lines[b.Line]
	pos := line.Start()
	if end {
		pos += line.Len()
	}
	m.sched.MoveCursorTo(pos)
	m.sched.EnsureCursorVisible()
	m.blinkOn = true
}

func (m *Model) lineRun(line paginate.Line) geometry.Run {
	w, _ := m.engine.Size()
	return geometry.Run{Text: line.Text(), StyleKey: "body", WrapWidth: w}
}

func (m Model) flush() Model {
	if !m.sched.RenderPending() {
		return m
	}
	_, err := m.sched.Flush()
	m.err = err
	return m
}

func (m Model) contentRows() int {
	rows := m.height - 1 // title line
	if m.cfg.ShowStatusBar {
		rows--
	}
	if rows < 0 {
		rows = 0
	}
	return rows
}

// View renders the title line, the current page, and the status bar.
func (m Model) View() string {
	if m.width < 1 || m.height < 1 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(styles.TitleStyle.Render(truncate.String(m.cfg.Title, uint(m.width))))
	sb.WriteString("\n")

	page := m.sched.Page()
	rows := m.contentRows()
	rendered := 0
	for i, line := range page.Lines {
		if rendered >= rows {
			break
		}
		text := m.renderLine(line, i == page.Cursor.Line && page.Cursor.Bound, page.Cursor)
		wrapped := wrap.String(text, m.width)
		for _, row := range strings.Split(wrapped, "\n") {
			if rendered >= rows {
				break
			}
			sb.WriteString(row)
			sb.WriteString("\n")
			rendered++
		}
	}
	for rendered < rows {
		sb.WriteString("\n")
		rendered++
	}

	if m.cfg.ShowStatusBar {
		sb.WriteString(m.statusBar())
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// renderLine draws one hard line, splicing in the cursor glyph when the
// cursor binds here and the blink phase is on.
func (m Model) renderLine(line paginate.Line, hasCursor bool, b paginate.CursorBinding) string {
	text := line.Text()
	if !hasCursor || !m.blinkOn {
		return styles.BodyStyle.Render(text)
	}

	runes := []rune(text)
	idx := m.sched.CursorPos() - line.Start()
	if idx < 0 {
		idx = 0
	}
	if b.Span == -1 || idx >= len(runes) {
		// Empty line or caret past the last character.
		return styles.BodyStyle.Render(text) + styles.CursorStyle.Render(" ")
	}

	before := string(runes[:idx])
	at := string(runes[idx])
	after := string(runes[idx+1:])
	return styles.BodyStyle.Render(before) + styles.CursorStyle.Render(at) + styles.BodyStyle.Render(after)
}

func (m Model) statusBar() string {
	pos := m.sched.CursorPos()
	status := fmt.Sprintf(" %d/%d", pos, m.seq.Len())
	if m.remoteEdits > 0 {
		status += fmt.Sprintf("  %d remote", m.remoteEdits)
	}
	if m.cfg.ShowStats {
		renders, coalesced, retries := m.sched.Stats()
		status += fmt.Sprintf("  r:%d c:%d t:%d", renders, coalesced, retries)
	}
	help := "↑↓←→ move · ^u/^d half page · pgup/pgdn page · ^s save · ^c quit "

	if m.err != nil {
		status = fmt.Sprintf(" %s", m.err)
		return styles.StatusBarErrorStyle.Render(truncate.String(status, uint(m.width)))
	}

	// Display width, not rune count: the help text carries wide-prone glyphs.
	gap := m.width - runewidth.StringWidth(status) - runewidth.StringWidth(help)
	if gap < 1 {
		return styles.StatusBarStyle.Render(truncate.String(status, uint(m.width)))
	}
	bar := status + strings.Repeat(" ", gap) + help
	return styles.StatusBarStyle.Render(bar)
}

// Err returns the most recent layout error, if any.
func (m Model) Err() error {
	return m.err
}

// CursorPos returns the current cursor offset.
func (m Model) CursorPos() int {
	return m.sched.CursorPos()
}

// Scheduler exposes the render scheduler for wiring by the app layer.
func (m Model) Scheduler() *scheduler.Scheduler {
	return m.sched
}
