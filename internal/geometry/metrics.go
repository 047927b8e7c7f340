package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/handpose/internal/detector"
)

// Degenerate is returned by scalar metrics when the geometry is undefined.
const Degenerate = -1.0

// minLength is the shortest segment treated as non-zero.
const minLength = 1e-9

// Vec converts a landmark to a gonum vector.
func Vec(p detector.Point3D) r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// Segment returns the vector from landmark a to landmark b and its length.
func Segment(h *detector.HandLandmarks, a, b int) (r3.Vec, float64) {
	v := r3.Sub(Vec(h.Points[b]), Vec(h.Points[a]))
	return v, r3.Norm(v)
}

// Segments returns the four bone vectors of a finger, wrist to tip.
func Segments(h *detector.HandLandmarks, f Finger) [4]r3.Vec {
	chain := f.Chain()
	var out [4]r3.Vec
	for i := 0; i < 4; i++ {
		out[i], _ = Segment(h, chain[i], chain[i+1])
	}
	return out
}

// ExtensionRatio is the straight-line distance from the finger's base joint
// to its tip divided by the summed lengths of the segments between them.
// The wrist is excluded so the ratio reflects the finger alone.
// 1.0 means fully extended; values near 0 mean the tip folds back to the base.
// Returns Degenerate when the finger has no length.
func ExtensionRatio(h *detector.HandLandmarks, f Finger) float64 {
	chain := f.Chain()

	var total float64
	for i := 1; i < len(chain)-1; i++ {
		_, l := Segment(h, chain[i], chain[i+1])
		total += l
	}
	if total < minLength {
		return Degenerate
	}

	_, straight := Segment(h, chain[1], chain[len(chain)-1])
	return straight / total
}

// CurlAngle is the angle in radians between the first and last segment of
// the finger, excluding the wrist segment. 0 means straight, π means the tip
// points back at the base. Returns Degenerate if either segment has no length.
func CurlAngle(h *detector.HandLandmarks, f Finger) float64 {
	chain := f.Chain()
	first, l1 := Segment(h, chain[1], chain[2])
	last, l2 := Segment(h, chain[3], chain[4])
	if l1 < minLength || l2 < minLength {
		return Degenerate
	}

	cos := r3.Dot(first, last) / (l1 * l2)
	return math.Acos(math.Max(-1, math.Min(1, cos)))
}

// Direction returns the unit vector from the finger's base joint to its tip.
// ok is false, and the vector zero, when base and tip coincide.
func Direction(h *detector.HandLandmarks, f Finger) (dir r3.Vec, ok bool) {
	chain := f.Chain()
	v, l := Segment(h, chain[1], chain[4])
	if l < minLength {
		return r3.Vec{}, false
	}
	return r3.Scale(1/l, v), true
}

// Direction2D projects a direction onto the image plane and normalizes it.
// ok is false when the projection has no length.
func Direction2D(dir r3.Vec) (r2.Vec, bool) {
	v := r2.Vec{X: dir.X, Y: dir.Y}
	l := r2.Norm(v)
	if l < minLength {
		return r2.Vec{}, false
	}
	return r2.Scale(1/l, v), true
}

// AngleBetween returns the angle in degrees between two image-plane vectors.
// Returns Degenerate if either vector has no length.
func AngleBetween(a, b r2.Vec) float64 {
	if r2.Norm(a) < minLength || r2.Norm(b) < minLength {
		return Degenerate
	}
	cos := r2.Cos(a, b)
	return math.Acos(math.Max(-1, math.Min(1, cos))) * 180 / math.Pi
}

// FingerMetrics holds the measurements of one finger.
type FingerMetrics struct {
	Finger       Finger
	Extension    float64 // ExtensionRatio, or Degenerate
	CurlAngle    float64 // radians, or Degenerate
	Direction    r3.Vec  // unit vector base to tip
	HasDirection bool
}

// Degenerate reports whether the finger could not be measured.
// A NaN extension counts as unmeasured.
func (m FingerMetrics) Degenerate() bool {
	return m.Extension == Degenerate || math.IsNaN(m.Extension) || !m.HasDirection
}

// Measure computes metrics for every finger of the hand.
func Measure(h *detector.HandLandmarks) [NumFingers]FingerMetrics {
	var out [NumFingers]FingerMetrics
	for _, f := range Fingers {
		dir, ok := Direction(h, f)
		out[f] = FingerMetrics{
			Finger:       f,
			Extension:    ExtensionRatio(h, f),
			CurlAngle:    CurlAngle(h, f),
			Direction:    dir,
			HasDirection: ok,
		}
	}
	return out
}
