// Package geometry defines the adapter contract between folio's layout core
// and whatever actually paints text.
//
// Everything above this package is geometry-agnostic arithmetic over the
// values an Adapter returns: layout and resolution never touch pixels or
// cells directly. The one concrete adapter folio ships, Cell, models a
// terminal grid; a GUI host would supply its own font-shaping adapter.
package geometry

// Point is a position in pixel space.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle in pixel space.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies inside r. The right and bottom edges are
// exclusive so adjacent character boxes never both claim a point.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Run is a text run handed to an adapter for measurement or hit-testing.
// Offsets into a run count runes, matching sequence offsets.
type Run struct {
	Text     string
	StyleKey string
	// Origin is the top-left corner of the run's first box.
	Origin Point
	// WrapWidth is the horizontal budget in pixels measured from Origin.X.
	// Zero or negative means the run never wraps.
	WrapWidth float64
}

// Empty reports whether the run has no content.
func (r Run) Empty() bool {
	return r.Text == ""
}

// Adapter measures text runs and hit-tests points against their rendered
// geometry. Implementations must be synchronous and side-effect free; width
// is a pure function of (text, style) for a fixed font configuration.
type Adapter interface {
	// MeasureWidth returns the advance width of text in pixels.
	MeasureWidth(text, styleKey string) float64

	// HitTest maps a point to the rune offset of the box containing it.
	// ok is false when the point lies outside every box (a geometry miss);
	// callers recover by falling back to their nearest known bracket.
	HitTest(p Point, r Run) (offset int, ok bool)

	// BoundingBoxes returns one rectangle per rune position in the run, in
	// offset order, wrapped at the run's wrap width.
	BoundingBoxes(r Run) []Rect
}

// Estimates carries the sampled average glyph width and line height used for
// fast viewport-capacity arithmetic. They may be imprecise; layout corrects
// against exact geometry.
type Estimates struct {
	WEst float64
	HEst float64
}

// SampleEstimates derives estimates from a single probe measurement.
func SampleEstimates(ad Adapter, styleKey string) Estimates {
	boxes := ad.BoundingBoxes(Run{Text: "M", StyleKey: styleKey})
	if len(boxes) == 0 {
		return Estimates{WEst: 1, HEst: 1}
	}
	est := Estimates{WEst: boxes[0].W, HEst: boxes[0].H}
	if est.WEst <= 0 {
		est.WEst = 1
	}
	if est.HEst <= 0 {
		est.HEst = 1
	}
	return est
}
