// Package sequence defines folio's view of the collaboratively edited
// document: an ordered collection of characters addressed by rune offset.
//
// The view layer only ever consumes this contract: it reads segments through
// Traverse, issues local mutations, and observes an ordered notification
// stream. How the upstream service orders concurrent edits (OT, CRDT,
// tombstones) is outside folio; remote operations arriving here are assumed
// already transformed against everything the local site has seen.
package sequence

import (
	"github.com/zdavis/folio/internal/pubsub"
)

// EditKind discriminates mutation notifications.
type EditKind int

const (
	Insert EditKind = iota
	Remove
)

func (k EditKind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Remove:
		return "remove"
	default:
		return "unknown"
	}
}

// Origin records which side of the wire produced an edit.
type Origin int

const (
	Local Origin = iota
	Remote
)

func (o Origin) String() string {
	if o == Local {
		return "local"
	}
	return "remote"
}

// Edit is one entry of the observation stream. Offset and Length count runes.
// For Remove edits, Offset..Offset+Length is the removed range measured
// against the document as it was immediately before the edit applied.
type Edit struct {
	Kind   EditKind
	Offset int
	Length int
	Origin Origin
}

// End returns the exclusive end offset of the edit's range.
func (e Edit) End() int {
	return e.Offset + e.Length
}

// Op is a concrete mutation as exchanged with the document store and the
// upstream service: an Edit plus the inserted text. Body is empty for Remove.
type Op struct {
	Kind   EditKind
	Offset int
	Length int
	Body   string
}

// Segment is a contiguous run of text with shared formatting, owned
// exclusively by the sequence. The view reads it and never mutates it.
type Segment struct {
	Text     string
	StyleKey string
}

// Sequence is the externally-owned ordered character collection.
type Sequence interface {
	// Len returns the document length in runes.
	Len() int

	// Traverse visits segments in order starting from the segment containing
	// the rune offset from. The visitor receives each segment with its
	// absolute start offset; returning false stops the traversal. Each call
	// is a fresh, finite traversal.
	Traverse(from int, visit func(seg Segment, start int) bool)

	// InsertText inserts text at a rune offset. The offset is clamped to the
	// current document bounds. An equivalent Local edit is published on the
	// observation stream before the call returns.
	InsertText(text string, offset int)

	// RemoveText removes the rune range [start, end), clamped to the current
	// document bounds. An equivalent Local edit is published on the
	// observation stream before the call returns.
	RemoveText(start, end int)

	// Events is the ordered observation stream of mutation notifications.
	Events() *pubsub.Broker[Edit]
}
