package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/handpose/internal/detector"
)

func TestFinger_Chain(t *testing.T) {
	assert.Equal(t, [5]int{0, 1, 2, 3, 4}, Thumb.Chain())
	assert.Equal(t, [5]int{0, 5, 6, 7, 8}, Index.Chain())
	assert.Equal(t, [5]int{0, 9, 10, 11, 12}, Middle.Chain())
	assert.Equal(t, [5]int{0, 13, 14, 15, 16}, Ring.Chain())
	assert.Equal(t, [5]int{0, 17, 18, 19, 20}, Pinky.Chain())
}

func TestParseFinger(t *testing.T) {
	for _, f := range Fingers {
		parsed, err := ParseFinger(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}

	parsed, err := ParseFinger(" Index ")
	require.NoError(t, err)
	assert.Equal(t, Index, parsed)

	_, err = ParseFinger("toe")
	assert.Error(t, err)
}

func TestFinger_TextRoundTrip(t *testing.T) {
	text, err := Ring.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "ring", string(text))

	var f Finger
	require.NoError(t, f.UnmarshalText([]byte("pinky")))
	assert.Equal(t, Pinky, f)

	_, err = Finger(9).MarshalText()
	assert.Error(t, err)
}

func TestSegment(t *testing.T) {
	h := detector.OpenPalmLandmarks()

	v, l := Segment(&h, detector.IndexMCP, detector.IndexPIP)
	assert.InDelta(t, 0, v.X, 1e-9)
	assert.InDelta(t, -60, v.Y, 1e-9)
	assert.InDelta(t, 60, l, 1e-9)

	segs := Segments(&h, Index)
	assert.InDelta(t, 0, segs[3].X, 1e-9)
	assert.InDelta(t, -35, segs[3].Y, 1e-9)
}

func TestExtensionRatio(t *testing.T) {
	t.Run("straight finger is fully extended", func(t *testing.T) {
		h := detector.OpenPalmLandmarks()
		for _, f := range []Finger{Index, Middle, Ring, Pinky} {
			assert.InDelta(t, 1.0, ExtensionRatio(&h, f), 1e-9, f.String())
		}
		assert.Greater(t, ExtensionRatio(&h, Thumb), 0.99)
	})

	t.Run("curled finger is well below extended", func(t *testing.T) {
		h := detector.FistLandmarks()
		for _, f := range Fingers {
			r := ExtensionRatio(&h, f)
			assert.Less(t, r, 0.3, f.String())
			assert.GreaterOrEqual(t, r, 0.0, f.String())
		}
	})

	t.Run("zero length finger is degenerate", func(t *testing.T) {
		var h detector.HandLandmarks
		assert.Equal(t, Degenerate, ExtensionRatio(&h, Index))
	})
}

func TestCurlAngle(t *testing.T) {
	open := detector.OpenPalmLandmarks()
	assert.InDelta(t, 0, CurlAngle(&open, Index), 1e-9)

	fist := detector.FistLandmarks()
	// Curled fixture fingers fold back on themselves.
	assert.InDelta(t, math.Pi, CurlAngle(&fist, Index), 1e-9)

	var empty detector.HandLandmarks
	assert.Equal(t, Degenerate, CurlAngle(&empty, Middle))
}

func TestDirection(t *testing.T) {
	t.Run("extended finger points up", func(t *testing.T) {
		h := detector.OpenPalmLandmarks()
		dir, ok := Direction(&h, Middle)
		require.True(t, ok)
		assert.InDelta(t, 0, dir.X, 1e-9)
		assert.InDelta(t, -1, dir.Y, 1e-9)
	})

	t.Run("unit length", func(t *testing.T) {
		h := detector.ThumbsUpLandmarks()
		dir, ok := Direction(&h, Thumb)
		require.True(t, ok)
		assert.InDelta(t, 1, math.Sqrt(dir.X*dir.X+dir.Y*dir.Y+dir.Z*dir.Z), 1e-9)
	})

	t.Run("coincident base and tip", func(t *testing.T) {
		var h detector.HandLandmarks
		dir, ok := Direction(&h, Thumb)
		assert.False(t, ok)
		assert.Zero(t, dir)
	})
}

func TestAngleBetween(t *testing.T) {
	up := r2.Vec{X: 0, Y: -1}
	right := r2.Vec{X: 1, Y: 0}

	assert.InDelta(t, 0, AngleBetween(up, up), 1e-9)
	assert.InDelta(t, 90, AngleBetween(up, right), 1e-9)
	assert.InDelta(t, 45, AngleBetween(up, r2.Vec{X: 1, Y: -1}), 1e-9)
	assert.Equal(t, Degenerate, AngleBetween(up, r2.Vec{}))
}

func TestMeasure(t *testing.T) {
	h := detector.VictoryLandmarks()
	m := Measure(&h)

	assert.Greater(t, m[Index].Extension, 0.9)
	assert.Greater(t, m[Middle].Extension, 0.9)
	assert.Less(t, m[Thumb].Extension, 0.3)
	assert.Less(t, m[Ring].Extension, 0.3)
	assert.Less(t, m[Pinky].Extension, 0.3)

	for _, f := range Fingers {
		assert.Equal(t, f, m[f].Finger)
		assert.False(t, m[f].Degenerate(), f.String())
	}

	var empty detector.HandLandmarks
	for _, fm := range Measure(&empty) {
		assert.True(t, fm.Degenerate())
	}
}
