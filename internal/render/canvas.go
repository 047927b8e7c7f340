package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// discSides is the number of polygon sides used to approximate a disc.
const discSides = 32

// Canvas is an in-memory RGBA surface with a transparent background.
type Canvas struct {
	img *image.RGBA
	ras *vector.Rasterizer
}

// NewCanvas creates a transparent canvas of the given size.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{
		img: image.NewRGBA(image.Rect(0, 0, width, height)),
		ras: vector.NewRasterizer(width, height),
	}
}

// Bounds returns the canvas rectangle.
func (c *Canvas) Bounds() image.Rectangle {
	return c.img.Bounds()
}

// Resize reallocates the canvas when its size differs from width x height.
func (c *Canvas) Resize(width, height int) {
	if b := c.img.Bounds(); b.Dx() == width && b.Dy() == height {
		return
	}
	c.img = image.NewRGBA(image.Rect(0, 0, width, height))
	c.ras = vector.NewRasterizer(width, height)
}

// Clear resets every pixel to transparent.
func (c *Canvas) Clear() {
	clear(c.img.Pix)
}

// DrawLine strokes the segment as a filled quad of the given width.
// A zero-length segment draws nothing.
func (c *Canvas) DrawLine(p1, p2 Point, col color.Color, width float64) {
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	l := math.Hypot(dx, dy)
	if l == 0 || width <= 0 {
		return
	}
	// Half-width normal.
	nx, ny := -dy/l*width/2, dx/l*width/2

	c.begin()
	c.ras.MoveTo(float32(p1.X+nx), float32(p1.Y+ny))
	c.ras.LineTo(float32(p2.X+nx), float32(p2.Y+ny))
	c.ras.LineTo(float32(p2.X-nx), float32(p2.Y-ny))
	c.ras.LineTo(float32(p1.X-nx), float32(p1.Y-ny))
	c.ras.ClosePath()
	c.fill(col)
}

// DrawDisc fills a circle approximated by a regular polygon.
func (c *Canvas) DrawDisc(center Point, radius float64, col color.Color) {
	if radius <= 0 {
		return
	}

	c.begin()
	for i := 0; i < discSides; i++ {
		a := 2 * math.Pi * float64(i) / discSides
		x := float32(center.X + radius*math.Cos(a))
		y := float32(center.Y + radius*math.Sin(a))
		if i == 0 {
			c.ras.MoveTo(x, y)
		} else {
			c.ras.LineTo(x, y)
		}
	}
	c.ras.ClosePath()
	c.fill(col)
}

// Snapshot returns a copy of the canvas.
func (c *Canvas) Snapshot() image.Image {
	out := image.NewRGBA(c.img.Bounds())
	copy(out.Pix, c.img.Pix)
	return out
}

func (c *Canvas) begin() {
	b := c.img.Bounds()
	c.ras.Reset(b.Dx(), b.Dy())
	c.ras.DrawOp = draw.Over
}

func (c *Canvas) fill(col color.Color) {
	c.ras.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{})
}
