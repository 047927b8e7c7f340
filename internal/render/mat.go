package render

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

// MatSurface draws onto an OpenCV matrix, for preview windows.
type MatSurface struct {
	mat gocv.Mat
}

// NewMatSurface allocates a black BGR matrix of the given size.
// Call Close when done to release it.
func NewMatSurface(width, height int) *MatSurface {
	return &MatSurface{
		mat: gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3),
	}
}

// Resize reallocates the matrix when its size differs from width x height.
func (m *MatSurface) Resize(width, height int) {
	if m.mat.Cols() == width && m.mat.Rows() == height {
		return
	}
	m.mat.Close()
	m.mat = gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
}

// Clear paints the whole matrix black.
func (m *MatSurface) Clear() {
	m.mat.SetTo(gocv.NewScalar(0, 0, 0, 0))
}

// DrawLine draws a line with its width rounded to whole pixels.
func (m *MatSurface) DrawLine(p1, p2 Point, c color.Color, width float64) {
	thickness := int(math.Max(1, math.Round(width)))
	gocv.Line(&m.mat, imagePoint(p1), imagePoint(p2), toRGBA(c), thickness)
}

// DrawDisc draws a filled circle.
func (m *MatSurface) DrawDisc(center Point, radius float64, c color.Color) {
	r := int(math.Round(radius))
	if r <= 0 {
		return
	}
	gocv.Circle(&m.mat, imagePoint(center), r, toRGBA(c), -1)
}

// Snapshot converts the matrix to an image.
// It returns nil if the conversion fails.
func (m *MatSurface) Snapshot() image.Image {
	img, err := m.mat.ToImage()
	if err != nil {
		return nil
	}
	return img
}

// Mat exposes the underlying matrix for display.
func (m *MatSurface) Mat() *gocv.Mat {
	return &m.mat
}

// Close releases the matrix.
func (m *MatSurface) Close() error {
	return m.mat.Close()
}

func imagePoint(p Point) image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

func toRGBA(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}
