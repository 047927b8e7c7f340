package render

import (
	"github.com/ayusman/handpose/internal/detector"
	"github.com/ayusman/handpose/internal/geometry"
)

// Per-hand element counts.
const (
	BonesPerHand  = geometry.NumFingers * 4
	JointsPerHand = detector.NumLandmarks
)

// Bone is a pair of landmark indices joined by a line.
type Bone [2]int

// Bones lists every bone of the skeleton, finger by finger from wrist to tip.
// No bone joins two different fingers.
var Bones = func() [BonesPerHand]Bone {
	var out [BonesPerHand]Bone
	n := 0
	for _, f := range geometry.Fingers {
		chain := f.Chain()
		for i := 0; i < len(chain)-1; i++ {
			out[n] = Bone{chain[i], chain[i+1]}
			n++
		}
	}
	return out
}()

// Renderer draws hand skeletons using a fixed style.
type Renderer struct {
	style Style
}

// NewRenderer creates a renderer with the given style.
func NewRenderer(style Style) *Renderer {
	return &Renderer{style: style}
}

// Style returns the renderer's style table.
func (r *Renderer) Style() Style {
	return r.style
}

// Render draws every hand onto the surface: bones first, then joint markers
// on top. It does not clear the surface. An empty hand list draws nothing.
func (r *Renderer) Render(s Surface, hands []detector.HandLandmarks) {
	for i := range hands {
		r.drawHand(s, &hands[i])
	}
}

// RenderMirrored draws the hands reflected across a frame of the given width.
// Use it when the landmarks come from a mirrored source so the skeleton lines
// up with the picture the user sees.
func (r *Renderer) RenderMirrored(s Surface, hands []detector.HandLandmarks, width float64) {
	for _, h := range hands {
		m := h.Mirrored(width)
		r.drawHand(s, &m)
	}
}

func (r *Renderer) drawHand(s Surface, h *detector.HandLandmarks) {
	for _, b := range Bones {
		s.DrawLine(pointOf(h.Points[b[0]]), pointOf(h.Points[b[1]]), r.style.Bone, r.style.BoneWidth)
	}
	for i, p := range h.Points {
		js := r.style.Joints[i]
		s.DrawDisc(pointOf(p), js.Radius, js.Color)
	}
}

func pointOf(p detector.Point3D) Point {
	return Point{X: p.X, Y: p.Y}
}
