// Package render draws hand skeletons onto 2-D drawing surfaces.
package render

import (
	"image"
	"image/color"
)

// Point is a position on a drawing surface in pixels.
type Point struct {
	X, Y float64
}

// Surface is a 2-D drawing target.
// Implementations are not safe for concurrent use; the owner serializes access.
type Surface interface {
	// Clear erases everything previously drawn.
	Clear()
	// DrawLine strokes a straight line of the given width.
	DrawLine(p1, p2 Point, c color.Color, width float64)
	// DrawDisc fills a circle.
	DrawDisc(center Point, radius float64, c color.Color)
}

// Snapshotter is implemented by surfaces whose content can be read back.
type Snapshotter interface {
	// Snapshot returns a copy of the current content.
	Snapshot() image.Image
}

// Resizer is implemented by surfaces that can follow the source frame size.
type Resizer interface {
	// Resize reallocates the surface when the size differs and clears it.
	Resize(width, height int)
}
