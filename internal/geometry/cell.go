package geometry

import (
	"context"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/zdavis/folio/internal/cachemanager"
)

// Default cell dimensions in pixels. One terminal cell is modeled as a
// classic 8x16 glyph cell so sub-cell pixel bracketing in the resolver stays
// meaningful.
const (
	DefaultCellW = 8.0
	DefaultCellH = 16.0
)

// Cell is a terminal-grid geometry adapter. Every grapheme cluster occupies
// an integral number of cells (per go-runewidth); combining runes inside a
// cluster get zero-width boxes so rune offsets and painted cells stay in
// agreement.
type Cell struct {
	CellW, CellH float64
	widths       cachemanager.CacheManager[string, float64]
}

// NewCell creates a cell adapter with the given cell size in pixels.
func NewCell(cellW, cellH float64) *Cell {
	if cellW <= 0 {
		cellW = DefaultCellW
	}
	if cellH <= 0 {
		cellH = DefaultCellH
	}
	return &Cell{
		CellW: cellW,
		CellH: cellH,
		widths: cachemanager.NewInMemoryCacheManager[string, float64](
			"glyph-widths", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval),
	}
}

var _ Adapter = (*Cell)(nil)

// MeasureWidth returns the advance width of text. Results are memoized;
// width is a pure function of (text, style) on a fixed grid.
func (c *Cell) MeasureWidth(text, styleKey string) float64 {
	if text == "" {
		return 0
	}
	key := styleKey + "\x00" + text
	if w, ok := c.widths.Get(context.Background(), key); ok {
		return w
	}
	w := float64(runewidth.StringWidth(text)) * c.CellW
	c.widths.Set(context.Background(), key, w, 0)
	return w
}

// BoundingBoxes lays the run out on the cell grid, wrapping at the run's
// wrap width and breaking at newlines. One box per rune, in offset order.
func (c *Cell) BoundingBoxes(r Run) []Rect {
	boxes := make([]Rect, 0, utf8.RuneCountInString(r.Text))
	x, y := r.Origin.X, r.Origin.Y

	rest := r.Text
	state := -1
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.StepString(rest, state)

		if cluster == "\n" || cluster == "\r\n" {
			// The break itself gets zero-width boxes at the row end.
			for range cluster {
				boxes = append(boxes, Rect{X: x, Y: y, W: 0, H: c.CellH})
			}
			x = r.Origin.X
			y += c.CellH
			continue
		}

		w := float64(runewidth.StringWidth(cluster)) * c.CellW
		if r.WrapWidth > 0 && x > r.Origin.X && x+w > r.Origin.X+r.WrapWidth {
			x = r.Origin.X
			y += c.CellH
		}

		boxes = append(boxes, Rect{X: x, Y: y, W: w, H: c.CellH})
		// Continuation runes of the cluster get zero-width boxes after it.
		for j := 1; j < utf8.RuneCountInString(cluster); j++ {
			boxes = append(boxes, Rect{X: x + w, Y: y, W: 0, H: c.CellH})
		}
		x += w
	}
	return boxes
}

// HitTest maps a point to the rune offset whose box contains it.
func (c *Cell) HitTest(p Point, r Run) (int, bool) {
	for i, box := range c.BoundingBoxes(r) {
		if box.Contains(p) {
			return i, true
		}
	}
	return 0, false
}
