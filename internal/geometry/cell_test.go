package geometry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestCell() *Cell {
	return NewCell(DefaultCellW, DefaultCellH)
}

func TestCell_MeasureWidth_ASCII(t *testing.T) {
	c := newTestCell()
	require.Equal(t, 5*DefaultCellW, c.MeasureWidth("hello", "body"))
}

func TestCell_MeasureWidth_Empty(t *testing.T) {
	c := newTestCell()
	require.Equal(t, 0.0, c.MeasureWidth("", "body"))
}

func TestCell_MeasureWidth_Memoized(t *testing.T) {
	c := newTestCell()
	first := c.MeasureWidth("hello world", "body")
	second := c.MeasureWidth("hello world", "body")
	require.Equal(t, first, second)
}

func TestCell_MeasureWidth_WideRunes(t *testing.T) {
	c := newTestCell()
	// CJK characters occupy two cells each.
	require.Equal(t, 4*DefaultCellW, c.MeasureWidth("日本", "body"))
}

func TestCell_BoundingBoxes_SingleRow(t *testing.T) {
	c := newTestCell()
	boxes := c.BoundingBoxes(Run{Text: "abc"})

	require.Len(t, boxes, 3)
	for i, box := range boxes {
		require.Equal(t, float64(i)*DefaultCellW, box.X)
		require.Equal(t, 0.0, box.Y)
		require.Equal(t, DefaultCellW, box.W)
		require.Equal(t, DefaultCellH, box.H)
	}
}

func TestCell_BoundingBoxes_WrapsAtWidth(t *testing.T) {
	c := newTestCell()
	// Room for 4 cells per row; "abcdef" wraps after 'd'.
	boxes := c.BoundingBoxes(Run{Text: "abcdef", WrapWidth: 4 * DefaultCellW})

	require.Len(t, boxes, 6)
	require.Equal(t, 0.0, boxes[0].Y)
	require.Equal(t, 0.0, boxes[3].Y)
	require.Equal(t, DefaultCellH, boxes[4].Y)
	require.Equal(t, 0.0, boxes[4].X)
	require.Equal(t, DefaultCellW, boxes[5].X)
}

func TestCell_BoundingBoxes_ExactFitDoesNotWrap(t *testing.T) {
	c := newTestCell()
	boxes := c.BoundingBoxes(Run{Text: "abcd", WrapWidth: 4 * DefaultCellW})

	for _, box := range boxes {
		require.Equal(t, 0.0, box.Y)
	}
}

func TestCell_BoundingBoxes_NewlineStartsRow(t *testing.T) {
	c := newTestCell()
	boxes := c.BoundingBoxes(Run{Text: "ab\ncd"})

	require.Len(t, boxes, 5)
	require.Equal(t, 0.0, boxes[1].Y)
	// Newline box is zero width at the row end.
	require.Equal(t, 0.0, boxes[2].W)
	require.Equal(t, 0.0, boxes[2].Y)
	require.Equal(t, DefaultCellH, boxes[3].Y)
	require.Equal(t, 0.0, boxes[3].X)
}

func TestCell_BoundingBoxes_RespectsOrigin(t *testing.T) {
	c := newTestCell()
	boxes := c.BoundingBoxes(Run{Text: "ab", Origin: Point{X: 16, Y: 32}})

	require.Equal(t, 16.0, boxes[0].X)
	require.Equal(t, 32.0, boxes[0].Y)
	require.Equal(t, 16.0+DefaultCellW, boxes[1].X)
}

func TestCell_HitTest_Hit(t *testing.T) {
	c := newTestCell()
	run := Run{Text: "hello"}

	off, ok := c.HitTest(Point{X: 2*DefaultCellW + 1, Y: 1}, run)
	require.True(t, ok)
	require.Equal(t, 2, off)
}

func TestCell_HitTest_MissPastEnd(t *testing.T) {
	c := newTestCell()
	run := Run{Text: "hi"}

	_, ok := c.HitTest(Point{X: 10 * DefaultCellW, Y: 1}, run)
	require.False(t, ok)
}

func TestCell_HitTest_WrappedRow(t *testing.T) {
	c := newTestCell()
	run := Run{Text: "abcdef", WrapWidth: 4 * DefaultCellW}

	// 'e' is the first cell of the second row.
	off, ok := c.HitTest(Point{X: 1, Y: DefaultCellH + 1}, run)
	require.True(t, ok)
	require.Equal(t, 4, off)
}

func TestSampleEstimates(t *testing.T) {
	est := SampleEstimates(newTestCell(), "body")
	require.Equal(t, DefaultCellW, est.WEst)
	require.Equal(t, DefaultCellH, est.HEst)
}

func TestRect_Contains_EdgeExclusive(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 8, H: 16}
	require.True(t, r.Contains(Point{X: 0, Y: 0}))
	require.False(t, r.Contains(Point{X: 8, Y: 0}))
	require.False(t, r.Contains(Point{X: 0, Y: 16}))
}
