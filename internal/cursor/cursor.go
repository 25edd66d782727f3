// Package cursor maintains a logical cursor offset into the sequence and
// keeps it correct as remote edits land.
package cursor

import (
	"github.com/zdavis/folio/internal/log"
	"github.com/zdavis/folio/internal/sequence"
)

// Cursor is a logical rune offset into the sequence. Its visual binding to a
// rendered span is rebuilt every render by the pagination engine; Cursor
// itself only tracks the offset.
type Cursor struct {
	Pos int
}

// New creates a cursor at offset pos, clamped to [0, length].
func New(pos, length int) *Cursor {
	c := &Cursor{Pos: pos}
	c.Clamp(length)
	return c
}

// Rebase adjusts the cursor for one remote edit. It must be called exactly
// once per remote notification, in delivery order, before the next render.
// Local edits never pass through here: the originating call site updates the
// cursor synchronously. length is the sequence length after the edit applied.
func (c *Cursor) Rebase(e sequence.Edit, length int) {
	if e.Origin != sequence.Remote {
		return
	}

	before := c.Pos
	switch e.Kind {
	case sequence.Insert:
		if e.Offset <= c.Pos {
			c.Pos += e.Length
		}
	case sequence.Remove:
		switch {
		case e.End() <= c.Pos:
			c.Pos -= e.Length
		case c.Pos >= e.Offset:
			// Cursor was inside the removed range; it lands at the cut.
			c.Pos = e.Offset
		}
	}
	c.Clamp(length)

	if c.Pos != before {
		log.Debug(log.CatCursor, "rebased", "from", before, "to", c.Pos, "kind", e.Kind, "offset", e.Offset, "len", e.Length)
	}
}

// Clamp forces the cursor into [0, length]. Out-of-range offsets are routine
// under concurrent edits, so clamping is silent and permissive.
func (c *Cursor) Clamp(length int) {
	if c.Pos < 0 {
		c.Pos = 0
	}
	if c.Pos > length {
		c.Pos = length
	}
}

// MoveTo places the cursor at pos, clamped to [0, length].
func (c *Cursor) MoveTo(pos, length int) {
	c.Pos = pos
	c.Clamp(length)
}
