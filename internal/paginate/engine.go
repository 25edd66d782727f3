package paginate

import (
	"unicode"
	"unicode/utf8"

	"github.com/zdavis/folio/internal/geometry"
	"github.com/zdavis/folio/internal/log"
	"github.com/zdavis/folio/internal/resolve"
	"github.com/zdavis/folio/internal/sequence"
)

// Engine lays pages out against a pixel viewport. It holds only the adapter,
// sampled glyph estimates, and the current viewport size; all per-render
// state lives in the pass and dies with it.
type Engine struct {
	ad     geometry.Adapter
	est    geometry.Estimates
	width  float64
	height float64
}

func NewEngine(ad geometry.Adapter, width, height float64) *Engine {
	return &Engine{
		ad:     ad,
		est:    geometry.SampleEstimates(ad, "body"),
		width:  width,
		height: height,
	}
}

// SetSize updates the viewport's pixel bounds. The next Layout call picks
// the new size up; nothing already rendered is touched.
func (e *Engine) SetSize(width, height float64) {
	e.width = width
	e.height = height
}

func (e *Engine) Size() (width, height float64) {
	return e.width, e.height
}

func (e *Engine) Estimates() geometry.Estimates {
	return e.est
}

// Layout performs one full render pass: traverse segments from the
// viewport's top offset, fill lines until the estimated capacity is
// exceeded and exact geometry confirms overflow, then prune back to the
// viewport bounds at a word boundary. vs is updated in place with the
// corrected capacity estimates and the new bottom-of-view offset.
//
// The only error is ErrTraversalInconsistent, returned when a segment's
// start offset contradicts the running total; the caller retries the pass.
func (e *Engine) Layout(seq sequence.Sequence, vs *ViewportState, cursorPos int) (*Page, error) {
	length := seq.Len()
	if vs.TopChar < 0 {
		vs.TopChar = 0
	}
	if vs.TopChar > length {
		vs.TopChar = length
	}

	charsPerLine := int(e.width / e.est.WEst)
	linesPerView := int(e.height / e.est.HEst)
	if charsPerLine < 1 || linesPerView < 1 {
		vs.CharsPerLine = 0
		vs.ViewportCharCount = 0
		vs.ViewportEndChar = vs.TopChar
		return &Page{ViewportEndChar: vs.TopChar}, nil
	}
	vs.CharsPerLine = charsPerLine
	vs.ViewportCharCount = charsPerLine * linesPerView

	p := &pass{
		e:            e,
		top:          vs.TopChar,
		cursorPos:    cursorPos,
		charsPerLine: charsPerLine,
		capacity:     vs.ViewportCharCount,
		expectedNext: -1,
	}
	seq.Traverse(vs.TopChar, p.visit)
	if p.inconsistent {
		log.Warn(log.CatLayout, "traversal inconsistent, abandoning pass", "top", vs.TopChar)
		return nil, ErrTraversalInconsistent
	}
	p.finish()

	page := p.prune()
	p.bindCursor(page)

	vs.ViewportEndChar = page.ViewportEndChar
	log.Debug(log.CatLayout, "layout pass complete",
		"top", vs.TopChar, "end", page.ViewportEndChar, "lines", len(page.Lines))
	return page, nil
}

// pass is the transient state of a single layout traversal.
type pass struct {
	e *Engine

	top          int
	cursorPos    int
	charsPerLine int
	capacity     int

	lines []Line
	cur   Line
	curY  float64

	charsAccum   int
	producedAny  bool
	firstSeen    bool
	expectedNext int
	inconsistent bool

	cursorClaimed bool
	binding       CursorBinding
}

// visit is the traversal visitor. It slices the segment into line chunks,
// checks the capacity budget, and stops the traversal once exact geometry
// confirms the viewport is full.
func (p *pass) visit(seg sequence.Segment, segStart int) bool {
	segLen := utf8.RuneCountInString(seg.Text)
	if p.expectedNext >= 0 && segStart != p.expectedNext {
		p.inconsistent = true
		return false
	}
	p.expectedNext = segStart + segLen

	intra := 0
	if !p.firstSeen {
		p.firstSeen = true
		if segStart < p.top {
			intra = p.e.probeStart(seg, p.top-segStart, p.charsPerLine)
		}
		p.cur.StartChar = segStart + intra
	}

	p.consume(seg, segStart, intra)

	// The capacity estimate over-admits on purpose; only exact geometry may
	// end the traversal.
	if p.charsAccum > p.capacity && p.currentBottom() > p.e.height {
		return false
	}
	return true
}

// consume splits the segment tail into newline-delimited chunks and feeds
// each to the current line.
func (p *pass) consume(seg sequence.Segment, segStart, intra int) {
	runes := []rune(seg.Text)
	i := intra
	for i < len(runes) {
		j := i
		for j < len(runes) && runes[j] != '\n' {
			j++
		}
		if j > i {
			p.addChunk(string(runes[i:j]), segStart+i, i, seg.StyleKey)
		}
		if j < len(runes) {
			p.closeLine(true, segStart+j)
			p.charsAccum++
			i = j + 1
		} else {
			i = j
		}
	}
}

// addChunk appends one newline-free chunk to the current line, splitting it
// in two when the cursor falls strictly inside it so the marker has a span
// boundary to anchor on.
func (p *pass) addChunk(text string, absStart, intraOff int, styleKey string) {
	n := utf8.RuneCountInString(text)
	p.charsAccum += n
	p.producedAny = true

	if !p.cursorClaimed && p.cursorPos >= absStart && p.cursorPos <= absStart+n {
		at := p.cursorPos - absStart
		switch {
		case at > 0 && at < n:
			r := []rune(text)
			p.appendSpan(Span{
				Text:        string(r[:at]),
				Start:       absStart,
				IntraOffset: intraOff,
				ClipOffset:  -1,
				StyleKey:    styleKey,
				runes:       at,
			})
			idx := p.appendSpan(Span{
				Text:        string(r[at:]),
				Start:       absStart + at,
				IntraOffset: intraOff + at,
				ClipOffset:  -1,
				StyleKey:    styleKey,
				runes:       n - at,
			})
			p.binding = CursorBinding{Bound: true, Line: len(p.lines), Span: idx}
		case at == 0:
			idx := p.appendSpan(Span{Text: text, Start: absStart, IntraOffset: intraOff, ClipOffset: -1, StyleKey: styleKey, runes: n})
			p.binding = CursorBinding{Bound: true, Line: len(p.lines), Span: idx}
		default: // at == n
			idx := p.appendSpan(Span{Text: text, Start: absStart, IntraOffset: intraOff, ClipOffset: -1, StyleKey: styleKey, runes: n})
			p.binding = CursorBinding{Bound: true, Line: len(p.lines), Span: idx, AtEnd: true}
		}
		p.cursorClaimed = true
		return
	}
	p.appendSpan(Span{Text: text, Start: absStart, IntraOffset: intraOff, ClipOffset: -1, StyleKey: styleKey, runes: n})
}

func (p *pass) appendSpan(sp Span) int {
	if len(p.cur.Spans) == 0 {
		p.cur.StartChar = sp.Start
	}
	p.cur.Spans = append(p.cur.Spans, sp)
	return len(p.cur.Spans) - 1
}

// closeLine seals the current line, measuring its exact height, and starts
// the next one. endOffset is the sequence offset of the terminating newline
// (or of the first character past the line, for the final soft close).
func (p *pass) closeLine(hard bool, endOffset int) {
	if len(p.cur.Spans) == 0 {
		p.cur.StartChar = endOffset
		if hard && !p.cursorClaimed && p.cursorPos == endOffset {
			// Cursor on an empty line: anchor the marker at the line origin.
			p.binding = CursorBinding{Bound: true, Line: len(p.lines), Span: -1}
			p.cursorClaimed = true
		}
	}
	p.cur.Y = p.curY
	p.cur.Height = p.e.lineHeight(p.cur.Text(), p.lineStyle())
	p.cur.HardBreak = hard
	p.curY += p.cur.Height
	p.lines = append(p.lines, p.cur)
	p.producedAny = true
	p.cur = Line{StartChar: endOffset + boolToInt(hard)}
}

// finish seals any trailing open line. After a document ending in a newline
// it also emits the empty line the caret lands on past the final break.
func (p *pass) finish() {
	if len(p.cur.Spans) > 0 {
		p.closeLine(false, p.cur.Spans[len(p.cur.Spans)-1].End())
		return
	}
	if len(p.lines) > 0 && p.lines[len(p.lines)-1].HardBreak {
		if !p.cursorClaimed && p.cursorPos == p.cur.StartChar {
			p.binding = CursorBinding{Bound: true, Line: len(p.lines), Span: -1}
			p.cursorClaimed = true
		}
		p.cur.Y = p.curY
		p.cur.Height = p.e.est.HEst
		p.lines = append(p.lines, p.cur)
	}
}

// currentBottom returns the exact bottom edge of everything laid out so far,
// including the still-open line.
func (p *pass) currentBottom() float64 {
	if len(p.cur.Spans) == 0 {
		return p.curY
	}
	return p.curY + p.e.lineHeight(p.cur.Text(), p.lineStyle())
}

func (p *pass) lineStyle() string {
	if len(p.cur.Spans) > 0 {
		return p.cur.Spans[0].StyleKey
	}
	return "body"
}

// prune pops overflowing lines off the page bottom, then re-inserts the
// last-removed line clipped to the rows that still fit, cut back to a word
// boundary. The result's ViewportEndChar is the offset just past the last
// rendered character.
func (p *pass) prune() *Page {
	page := &Page{}
	lines := p.lines

	var retained *Line
	for len(lines) > 0 && lines[len(lines)-1].Bottom() > p.e.height {
		last := len(lines) - 1
		retained = &lines[last]
		lines = lines[:last]
	}
	if retained != nil {
		y := 0.0
		if len(lines) > 0 {
			y = lines[len(lines)-1].Bottom()
		}
		if rebuilt := p.reinsert(*retained, y); rebuilt != nil {
			lines = append(lines, *rebuilt)
		}
		log.Debug(log.CatLayout, "pruned overflow", "kept", len(lines))
	}

	page.Lines = lines
	switch {
	case len(lines) > 0:
		last := lines[len(lines)-1]
		// The last line's terminating newline is never rendered content.
		page.ViewportEndChar = last.StartChar + last.Len()
	case !p.producedAny:
		page.ViewportEndChar = p.top + p.charsAccum
	default:
		page.ViewportEndChar = p.top
	}
	return page
}

// reinsert rebuilds as much of a pruned line as fits between y and the
// viewport bottom. The first span that doesn't fit whole is clipped with an
// exact geometric probe at the last fully visible row, then trimmed back so
// the cut never lands mid-word. Returns nil when not even one row fits.
func (p *pass) reinsert(retained Line, y float64) *Line {
	rowsFit := int((p.e.height - y) / p.e.est.HEst)
	if rowsFit < 1 {
		return nil
	}

	rebuilt := Line{StartChar: retained.StartChar, Y: y}
	var prefix []rune
	for _, sp := range retained.Spans {
		candidate := string(prefix) + sp.Text
		if y+p.e.lineHeight(candidate, sp.StyleKey) <= p.e.height {
			rebuilt.Spans = append(rebuilt.Spans, sp)
			prefix = append(prefix, []rune(sp.Text)...)
			continue
		}

		run := geometry.Run{Text: candidate, StyleKey: sp.StyleKey, WrapWidth: p.e.width}
		probe := geometry.Point{
			X: p.e.width,
			Y: float64(rowsFit)*p.e.est.HEst - p.e.est.HEst/2,
		}
		cut := resolve.OffsetAtPoint(p.e.ad, run, probe)
		cut = trimEndToWordBoundary([]rune(candidate), cut)
		if keep := cut - len(prefix); keep > 0 {
			r := []rune(sp.Text)
			clipped := sp
			clipped.Text = string(r[:keep])
			clipped.runes = keep
			clipped.ClipOffset = sp.Start + keep
			rebuilt.Spans = append(rebuilt.Spans, clipped)
		}
		break
	}
	if len(rebuilt.Spans) == 0 {
		return nil
	}
	rebuilt.Height = p.e.lineHeight(rebuilt.Text(), rebuilt.Spans[0].StyleKey)
	// Content after the cut was dropped, so the hard break is not rendered.
	rebuilt.HardBreak = false
	return &rebuilt
}

// bindCursor attaches the binding recorded during traversal if it survived
// pruning, otherwise snaps the marker to the first rendered character.
func (p *pass) bindCursor(page *Page) {
	b := p.binding
	valid := b.Bound &&
		b.Line < len(page.Lines) &&
		(b.Span == -1 || b.Span < len(page.Lines[b.Line].Spans)) &&
		p.cursorPos <= page.ViewportEndChar
	if valid {
		page.Cursor = b
		return
	}
	if len(page.Lines) == 0 {
		return
	}
	snap := CursorBinding{Bound: true, Line: 0, Span: 0}
	if len(page.Lines[0].Spans) == 0 {
		snap.Span = -1
	}
	if b.Bound {
		log.Debug(log.CatCursor, "binding lost to pruning, snapping to top", "pos", p.cursorPos)
	}
	page.Cursor = snap
}

// probeStart finds where in the viewport's first segment rendering should
// begin when the top offset falls mid-segment. It walks visual rows downward
// from the estimated row until a row-start offset reaches the requested
// start, then trims back to the preceding word boundary so no render opens
// mid-word.
func (e *Engine) probeStart(seg sequence.Segment, want, charsPerLine int) int {
	runes := []rune(seg.Text)
	if want <= 0 {
		return 0
	}
	if want > len(runes) {
		want = len(runes)
	}

	run := geometry.Run{Text: seg.Text, StyleKey: seg.StyleKey, WrapWidth: e.width}
	row := want / charsPerLine
	if row > 0 {
		row-- // start one row above the estimate; the walk only moves down
	}
	best := 0
	for k := row; k <= row+len(runes); k++ {
		p := geometry.Point{X: 0.5, Y: float64(k)*e.est.HEst + e.est.HEst/2}
		probed := resolve.OffsetAtPoint(e.ad, run, p)
		if probed > want {
			break
		}
		best = probed
		if probed == want {
			break
		}
	}
	return trimStartToWordBoundary(runes, best)
}

// lineHeight measures the exact rendered height of a line's text at the
// current wrap width.
func (e *Engine) lineHeight(text, styleKey string) float64 {
	if text == "" {
		return e.est.HEst
	}
	boxes := e.ad.BoundingBoxes(geometry.Run{Text: text, StyleKey: styleKey, WrapWidth: e.width})
	if len(boxes) == 0 {
		return e.est.HEst
	}
	bottom := 0.0
	for _, b := range boxes {
		if edge := b.Y + b.H; edge > bottom {
			bottom = edge
		}
	}
	return bottom
}

// trimEndToWordBoundary pulls a cut offset back to just before the
// whitespace preceding it, so a clipped line never ends mid-word. A cut with
// no whitespace anywhere before it stays put: a single unbroken token is cut
// hard rather than dropped entirely.
func trimEndToWordBoundary(runes []rune, cut int) int {
	if cut >= len(runes) {
		return len(runes)
	}
	if cut <= 0 {
		return 0
	}
	if unicode.IsSpace(runes[cut]) || unicode.IsSpace(runes[cut-1]) {
		return cut
	}
	for i := cut - 1; i > 0; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return cut
}

// trimStartToWordBoundary pulls a mid-word start offset back to the first
// character after the preceding whitespace. A start already on whitespace is
// a boundary and stays put.
func trimStartToWordBoundary(runes []rune, start int) int {
	if start <= 0 {
		return 0
	}
	if start >= len(runes) || unicode.IsSpace(runes[start]) {
		return min(start, len(runes))
	}
	for start > 0 && !unicode.IsSpace(runes[start-1]) {
		start--
	}
	return start
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
