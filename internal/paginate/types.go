// Package paginate lays a bounded viewport out over the sequence: it walks
// segments from the top-of-viewport offset, fills lines against the
// viewport's pixel budget, and prunes overflow at word boundaries.
//
// All layout output (spans, lines, pages) is transient: built fresh each
// render pass and discarded afterward. Nothing here survives a render, which
// is what keeps stale-segment bugs impossible when the sequence splits or
// merges segments between renders.
package paginate

import (
	"errors"
	"strings"
)

// ErrTraversalInconsistent reports that a segment contradicted earlier
// measurements mid-traversal, typically a concurrent mutation slipping
// through. The pass is abandoned; the scheduler restarts it once on the next
// tick.
var ErrTraversalInconsistent = errors.New("paginate: sequence traversal inconsistent")

// Span is a rendering-time slice of a segment: the text it contributes to
// one line, with enough offsets to map back into the sequence. Spans are
// owned by the current layout pass and rebuilt every render.
type Span struct {
	Text string
	// Start is the absolute sequence offset of the span's first rune.
	Start int
	// IntraOffset is the rune offset within the source segment where this
	// span begins, nonzero when the span was split off a larger segment.
	IntraOffset int
	// ClipOffset is the absolute offset where pruning force-cut the span.
	// -1 when the span was not clipped.
	ClipOffset int
	StyleKey   string

	runes int
}

// RuneLen returns the span length in runes.
func (s Span) RuneLen() int {
	return s.runes
}

// End returns the sequence offset immediately after the span.
func (s Span) End() int {
	return s.Start + s.runes
}

// Clipped reports whether pruning cut this span short.
func (s Span) Clipped() bool {
	return s.ClipOffset >= 0
}

// Line is one hard line of the page: the spans between two line breaks (or
// the viewport edges), wrapped at paint time to as many visual rows as its
// width requires.
type Line struct {
	Spans []Span
	// StartChar is the sequence offset of the line's first character (or of
	// the terminating newline, for a line with no spans).
	StartChar int
	// Y is the line's top edge relative to the viewport, Height its exact
	// rendered height (visual rows times line height).
	Y, Height float64
	// HardBreak records that the line was terminated by a newline character
	// in the sequence; the newline is not part of any span's text but
	// occupies one sequence offset.
	HardBreak bool
}

// Text returns the line's visible text (excluding any terminating newline).
func (l Line) Text() string {
	var sb strings.Builder
	for _, sp := range l.Spans {
		sb.WriteString(sp.Text)
	}
	return sb.String()
}

// Start returns the sequence offset of the line's first rune, or of the
// terminating newline for an empty line.
func (l Line) Start() int {
	return l.StartChar
}

// End returns the sequence offset immediately after the line, counting the
// terminating newline when present.
func (l Line) End() int {
	end := l.StartChar
	for _, sp := range l.Spans {
		end = sp.End()
	}
	if l.HardBreak {
		end++
	}
	return end
}

// Len returns the line length in runes, excluding the terminating newline.
func (l Line) Len() int {
	n := 0
	for _, sp := range l.Spans {
		n += sp.RuneLen()
	}
	return n
}

// Bottom returns the line's bottom edge.
func (l Line) Bottom() float64 {
	return l.Y + l.Height
}

// CursorBinding ties the cursor's visual marker to a span of the current
// page. It is a weak relation rebuilt every render, never ownership.
type CursorBinding struct {
	Bound bool
	Line  int
	// Span indexes the bound span within the line, or is -1 when the cursor
	// sits on an empty line and the marker anchors at the line origin.
	Span int
	// AtEnd anchors the marker after the span's last rune instead of before
	// its first.
	AtEnd bool
}

// Page is the full laid-out output of one render pass.
type Page struct {
	Lines []Line
	// ViewportEndChar is the sequence offset immediately after the last
	// rendered character: the authoritative bottom of visible content.
	ViewportEndChar int
	Cursor          CursorBinding
}

// Empty reports whether the page rendered no content.
func (p *Page) Empty() bool {
	return len(p.Lines) == 0
}

// FirstChar returns the sequence offset of the first rendered character.
func (p *Page) FirstChar() int {
	if len(p.Lines) == 0 {
		return 0
	}
	return p.Lines[0].Start()
}

// ViewportState is the persistent viewport bookkeeping. It outlives renders;
// everything else in this package does not.
type ViewportState struct {
	// TopChar is the sequence offset of the first visible character.
	TopChar int
	// CharsPerLine and ViewportCharCount are capacity estimates derived from
	// sampled glyph metrics, corrected by exact geometry during layout.
	CharsPerLine      int
	ViewportCharCount int
	// ViewportEndChar is the last computed bottom-of-view offset.
	ViewportEndChar int
}
