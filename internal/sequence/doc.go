package sequence

import (
	"strings"

	"github.com/zdavis/folio/internal/log"
	"github.com/zdavis/folio/internal/pubsub"
)

// maxSegmentRunes bounds segment size so traversal stays lazy and per-segment
// rune conversion stays cheap.
const maxSegmentRunes = 512

type segment struct {
	text  string
	style string
	runes int
}

// Doc is an in-memory Sequence. It backs tests, the demo host, and documents
// loaded from the store. Concurrency control between sites is not its job:
// remote operations fed to ApplyRemoteInsert/ApplyRemoteRemove must already
// be transformed by the upstream service.
//
// Doc follows folio's single-threaded cooperative model: all calls happen on
// the update loop, so there is no internal locking. Mutations requested while
// a traversal is in progress are deferred and applied (with their
// notifications) when the traversal completes.
type Doc struct {
	segments []segment
	length   int
	events   *pubsub.Broker[Edit]

	traversing bool
	deferred   []func()
}

var _ Sequence = (*Doc)(nil)

// NewDoc creates a document with the given initial text and style key.
func NewDoc(text, styleKey string) *Doc {
	d := &Doc{events: pubsub.NewBroker[Edit]()}
	for _, chunk := range splitChunks(text) {
		d.segments = append(d.segments, segment{text: chunk, style: styleKey, runes: runeLen(chunk)})
		d.length += runeLen(chunk)
	}
	return d
}

// splitChunks cuts text into segment-sized pieces at rune boundaries.
func splitChunks(text string) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	var chunks []string
	for len(runes) > maxSegmentRunes {
		chunks = append(chunks, string(runes[:maxSegmentRunes]))
		runes = runes[maxSegmentRunes:]
	}
	return append(chunks, string(runes))
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

// Len returns the document length in runes.
func (d *Doc) Len() int {
	return d.length
}

// Events returns the observation stream broker.
func (d *Doc) Events() *pubsub.Broker[Edit] {
	return d.events
}

// Snapshot returns the full document text.
func (d *Doc) Snapshot() string {
	var sb strings.Builder
	for _, seg := range d.segments {
		sb.WriteString(seg.text)
	}
	return sb.String()
}

// SegmentCount reports the current number of segments.
func (d *Doc) SegmentCount() int {
	return len(d.segments)
}

// Traverse visits segments in order from the segment containing from.
func (d *Doc) Traverse(from int, visit func(seg Segment, start int) bool) {
	if from < 0 {
		from = 0
	}
	d.traversing = true
	defer d.finishTraversal()

	start := 0
	for _, seg := range d.segments {
		end := start + seg.runes
		if end > from {
			if !visit(Segment{Text: seg.text, StyleKey: seg.style}, start) {
				return
			}
		}
		start = end
	}
}

// finishTraversal applies mutations deferred during the traversal, in order.
func (d *Doc) finishTraversal() {
	d.traversing = false
	pending := d.deferred
	d.deferred = nil
	for _, apply := range pending {
		apply()
	}
}

// InsertText inserts text at offset as a local edit.
func (d *Doc) InsertText(text string, offset int) {
	d.insert(text, offset, Local)
}

// RemoveText removes [start, end) as a local edit.
func (d *Doc) RemoveText(start, end int) {
	d.remove(start, end, Local)
}

// ApplyRemoteInsert applies an already-transformed remote insertion.
func (d *Doc) ApplyRemoteInsert(text string, offset int) {
	d.insert(text, offset, Remote)
}

// ApplyRemoteRemove applies an already-transformed remote removal.
func (d *Doc) ApplyRemoteRemove(start, end int) {
	d.remove(start, end, Remote)
}

func (d *Doc) insert(text string, offset int, origin Origin) {
	if text == "" {
		return
	}
	if d.traversing {
		// Re-entrant mutation during traversal is disallowed; run it after
		// the traversal completes.
		d.deferred = append(d.deferred, func() { d.insert(text, offset, origin) })
		return
	}

	if offset < 0 {
		offset = 0
	}
	if offset > d.length {
		offset = d.length
	}
	n := runeLen(text)

	if len(d.segments) == 0 {
		for _, chunk := range splitChunks(text) {
			d.segments = append(d.segments, segment{text: chunk, style: "body", runes: runeLen(chunk)})
		}
		d.length = n
		d.publish(Edit{Kind: Insert, Offset: offset, Length: n, Origin: origin})
		return
	}

	idx, intra := d.locate(offset)
	seg := d.segments[idx]
	runes := []rune(seg.text)
	spliced := string(runes[:intra]) + text + string(runes[intra:])

	replacement := make([]segment, 0, 2)
	for _, chunk := range splitChunks(spliced) {
		replacement = append(replacement, segment{text: chunk, style: seg.style, runes: runeLen(chunk)})
	}
	d.segments = append(d.segments[:idx], append(replacement, d.segments[idx+1:]...)...)
	d.length += n

	log.Debug(log.CatSeq, "insert applied", "offset", offset, "runes", n, "origin", origin)
	d.publish(Edit{Kind: Insert, Offset: offset, Length: n, Origin: origin})
}

func (d *Doc) remove(start, end int, origin Origin) {
	if d.traversing {
		d.deferred = append(d.deferred, func() { d.remove(start, end, origin) })
		return
	}

	if start < 0 {
		start = 0
	}
	if end > d.length {
		end = d.length
	}
	if start >= end {
		return
	}
	n := end - start

	// Walk segments, trimming the removed range out of each one it touches.
	kept := d.segments[:0]
	segStart := 0
	for _, seg := range d.segments {
		segEnd := segStart + seg.runes
		if segEnd <= start || segStart >= end {
			kept = append(kept, seg)
			segStart = segEnd
			continue
		}

		cutFrom := max(start-segStart, 0)
		cutTo := min(end-segStart, seg.runes)
		runes := []rune(seg.text)
		remain := string(runes[:cutFrom]) + string(runes[cutTo:])
		if remain != "" {
			kept = append(kept, segment{text: remain, style: seg.style, runes: runeLen(remain)})
		}
		segStart = segEnd
	}
	d.segments = kept
	d.length -= n
	d.mergeSmallNeighbors()

	log.Debug(log.CatSeq, "remove applied", "start", start, "end", end, "origin", origin)
	d.publish(Edit{Kind: Remove, Offset: start, Length: n, Origin: origin})
}

// mergeSmallNeighbors joins adjacent same-style segments while the result
// stays within the segment size bound.
func (d *Doc) mergeSmallNeighbors() {
	if len(d.segments) < 2 {
		return
	}
	merged := d.segments[:1]
	for _, seg := range d.segments[1:] {
		last := &merged[len(merged)-1]
		if last.style == seg.style && last.runes+seg.runes <= maxSegmentRunes {
			last.text += seg.text
			last.runes += seg.runes
			continue
		}
		merged = append(merged, seg)
	}
	d.segments = merged
}

// locate maps an absolute offset to (segment index, intra-segment offset).
// offset must be within [0, length] and the document non-empty; an offset at
// the very end lands past the last rune of the final segment.
func (d *Doc) locate(offset int) (int, int) {
	start := 0
	for i, seg := range d.segments {
		end := start + seg.runes
		if offset < end || (offset == end && i == len(d.segments)-1) {
			return i, offset - start
		}
		start = end
	}
	last := len(d.segments) - 1
	return last, d.segments[last].runes
}

func (d *Doc) publish(e Edit) {
	d.events.Publish(pubsub.EditEvent, e)
}
