// Package resolve maps between character offsets and pixel positions within
// a rendered text run.
//
// Both directions lean on the same fact: offset-to-position is monotonic
// non-decreasing along a run in reading order, so coarse binary search works.
// Box geometry from wrapped text is not perfectly uniform, so the coarse
// search is refined by interval-halving on pixel space and, when the bracket
// alone cannot settle it, a bounded linear pixel scan.
package resolve

import (
	"github.com/zdavis/folio/internal/geometry"
)

const (
	// pixelEpsilon is the bracket width below which interval halving stops.
	pixelEpsilon = 10.0
	// maxLinearProbes bounds the fallback pixel scan.
	maxLinearProbes = 64
)

// OffsetAtPoint returns the rune offset in run best matching p.
//
// A direct hit-test settles most probes. On a geometry miss (point past the
// end of a wrapped row, above or below all content) the nearest offset in
// reading order is found by binary search over the bounding boxes; a point
// past a box's right edge resolves to the caret position after it, so a
// point at the right edge of the last box resolves to len(run).
func OffsetAtPoint(ad geometry.Adapter, run geometry.Run, p geometry.Point) int {
	if run.Empty() {
		return 0
	}
	if off, ok := ad.HitTest(p, run); ok {
		return off
	}

	boxes := ad.BoundingBoxes(run)
	if len(boxes) == 0 {
		return 0
	}

	// Greatest box at-or-before p in reading order.
	lo, hi := 0, len(boxes)-1
	best := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if boxAtOrBefore(boxes[mid], p) {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if best < 0 {
		return 0
	}
	if p.X >= boxes[best].X+boxes[best].W && sameRow(boxes[best], p.Y) {
		return best + 1
	}
	return best
}

// boxAtOrBefore reports whether box precedes or contains p in reading order.
func boxAtOrBefore(box geometry.Rect, p geometry.Point) bool {
	if box.Y+box.H <= p.Y {
		return true // strictly above p's row
	}
	if p.Y < box.Y {
		return false // strictly below p's row
	}
	return box.X <= p.X
}

func sameRow(box geometry.Rect, y float64) bool {
	return y >= box.Y && y < box.Y+box.H
}

// LeftEdge returns the on-screen position of the left edge of the character
// at targetOffset, the point a caret placed before that character occupies.
// targetOffset may equal the run length, meaning the caret after the last
// character. Offsets outside [0, len] are clamped.
//
// The search is seeded from the bounding boxes directly since the offset is
// known and only geometry is sought; hit-test probes verify the seed, and
// disagreement (zero-width continuation boxes, wrap seams) falls back to
// pixel bracketing and a bounded linear scan.
func LeftEdge(ad geometry.Adapter, run geometry.Run, targetOffset int) geometry.Point {
	boxes := ad.BoundingBoxes(run)
	if len(boxes) == 0 {
		return geometry.Point{X: run.Origin.X, Y: run.Origin.Y}
	}
	if targetOffset <= 0 {
		first := boxes[0]
		return geometry.Point{X: first.X, Y: first.Y + first.H/2}
	}
	if targetOffset >= len(boxes) {
		last := boxes[len(boxes)-1]
		return geometry.Point{X: last.X + last.W, Y: last.Y + last.H/2}
	}

	seed := boxes[targetOffset]
	probe := geometry.Point{X: seed.X, Y: seed.Y + seed.H/2}
	if off, ok := ad.HitTest(probe, run); ok && off == targetOffset {
		return probe
	}

	// Bracket within the seed's row. lo resolves before the target, hi at or
	// beyond it; halve the pixel interval until it collapses or a probe
	// lands exactly.
	rowStart, rowEnd := rowSpan(boxes, targetOffset)
	lo, hi := rowStart, rowEnd
	y := seed.Y + seed.H/2
	for hi-lo >= pixelEpsilon {
		mid := (lo + hi) / 2
		off, ok := ad.HitTest(geometry.Point{X: mid, Y: y}, run)
		if !ok {
			// Miss: no closer than the current best; shrink toward the seed.
			if mid > seed.X {
				hi = mid
			} else {
				lo = mid
			}
			continue
		}
		switch {
		case off == targetOffset:
			return geometry.Point{X: mid, Y: y}
		case off < targetOffset:
			lo = mid
		default:
			hi = mid
		}
	}

	// Bounded linear scan: find the pixel run resolving to the target and
	// report its midpoint.
	runStart, runEnd := -1.0, -1.0
	x := lo
	for i := 0; i < maxLinearProbes && x <= rowEnd; i++ {
		off, ok := ad.HitTest(geometry.Point{X: x, Y: y}, run)
		if ok && off == targetOffset {
			if runStart < 0 {
				runStart = x
			}
			runEnd = x
		} else if runStart >= 0 {
			break // past the run of pixels mapping to the target
		}
		x++
	}
	if runStart >= 0 {
		return geometry.Point{X: (runStart + runEnd) / 2, Y: y}
	}

	// Still inexact: the seed's own left edge is the best known bracket.
	return geometry.Point{X: seed.X, Y: y}
}

// rowSpan returns the horizontal pixel extent of the row containing offset.
func rowSpan(boxes []geometry.Rect, offset int) (float64, float64) {
	row := boxes[offset].Y
	start, end := boxes[offset].X, boxes[offset].X+boxes[offset].W
	for i := offset - 1; i >= 0 && boxes[i].Y == row; i-- {
		start = boxes[i].X
	}
	for i := offset + 1; i < len(boxes) && boxes[i].Y == row; i++ {
		end = boxes[i].X + boxes[i].W
	}
	return start, end
}
