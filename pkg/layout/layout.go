// Package layout maps grid cells to normalized viewport rectangles.
package layout

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrInvalidGrid is returned for non-positive grid sizes or out of range cells.
var ErrInvalidGrid = errors.New("invalid grid")

// Viewport is a rectangle in normalized display coordinates, origin at the
// bottom-left, each edge in [0, 1].
type Viewport struct {
	Left, Bottom, Right, Top float64
}

// Full covers the whole display.
var Full = Viewport{Left: 0, Bottom: 0, Right: 1, Top: 1}

// ComputeViewport returns the rectangle for cell (row, col) of a rows x cols
// grid. Row 0 is the top row, column 0 the left column.
func ComputeViewport(row, col, rows, cols int) (Viewport, error) {
	if rows < 1 || cols < 1 {
		return Viewport{}, fmt.Errorf("%w: %dx%d", ErrInvalidGrid, rows, cols)
	}
	if row < 0 || row >= rows || col < 0 || col >= cols {
		return Viewport{}, fmt.Errorf("%w: cell (%d,%d) outside %dx%d", ErrInvalidGrid, row, col, rows, cols)
	}
	return Viewport{
		Left:   float64(col) / float64(cols),
		Bottom: float64(rows-(row+1)) / float64(rows),
		Right:  float64(col+1) / float64(cols),
		Top:    float64(rows-row) / float64(rows),
	}, nil
}

// Grid returns every cell's viewport in row-major order.
func Grid(rows, cols int) ([]Viewport, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGrid, rows, cols)
	}
	out := make([]Viewport, 0, rows*cols)
	for r := range rows {
		for c := range cols {
			vp, err := ComputeViewport(r, c, rows, cols)
			if err != nil {
				return nil, err
			}
			out = append(out, vp)
		}
	}
	return out, nil
}

// Width is Right - Left.
func (v Viewport) Width() float64 { return v.Right - v.Left }

// Height is Top - Bottom.
func (v Viewport) Height() float64 { return v.Top - v.Bottom }

// PixelRect maps the viewport onto a w x h surface with a top-left origin.
// Edges are rounded from the same fractions, so adjacent cells share their
// boundary and a grid tiles the surface without gaps.
func (v Viewport) PixelRect(w, h int) image.Rectangle {
	x := func(f float64) int { return int(math.Round(f * float64(w))) }
	y := func(f float64) int { return int(math.Round((1 - f) * float64(h))) }
	return image.Rect(x(v.Left), y(v.Top), x(v.Right), y(v.Bottom))
}

// Contains reports whether the normalized point (x, y), bottom-left origin,
// falls inside the viewport. Intervals are half-open except at the display's
// right and top edges, so each point belongs to exactly one cell of a grid.
func (v Viewport) Contains(x, y float64) bool {
	inX := x >= v.Left && (x < v.Right || (v.Right >= 1 && x <= v.Right))
	inY := y >= v.Bottom && (y < v.Top || (v.Top >= 1 && y <= v.Top))
	return inX && inY
}

// ContainsPixel reports whether pixel (px, py) of a w x h surface, top-left
// origin, lies inside the viewport's pixel rectangle.
func (v Viewport) ContainsPixel(px, py, w, h int) bool {
	return image.Pt(px, py).In(v.PixelRect(w, h))
}

// AspectRatio is the pixel width/height ratio of the viewport on a w x h
// surface, 1 when the rectangle is empty.
func (v Viewport) AspectRatio(w, h int) float64 {
	r := v.PixelRect(w, h)
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return 1
	}
	return float64(r.Dx()) / float64(r.Dy())
}

// String formats the viewport as (left, bottom, right, top).
func (v Viewport) String() string {
	return fmt.Sprintf("(%g, %g, %g, %g)", v.Left, v.Bottom, v.Right, v.Top)
}
