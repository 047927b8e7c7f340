// Package detector provides hand pose estimation interfaces and landmark types.
package detector

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrMalformedHand is returned when an estimator produces a hand that does not
// have exactly NumLandmarks points.
var ErrMalformedHand = errors.New("malformed hand")

// Point3D represents a landmark position in image pixel space.
// Z is the relative depth reported by the estimator, zero when unavailable.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 landmarks of one detected hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness,omitempty"` // "Left" or "Right"
	Score      float64               `json:"score,omitempty"`
}

// NewHandLandmarks builds a hand from an ordered point list.
// The list must contain exactly NumLandmarks points; anything else is
// rejected with ErrMalformedHand rather than truncated or padded, as is a
// point with a NaN or infinite coordinate.
func NewHandLandmarks(points []Point3D, handedness string, score float64) (HandLandmarks, error) {
	if len(points) != NumLandmarks {
		return HandLandmarks{}, fmt.Errorf("%w: got %d landmarks, want %d", ErrMalformedHand, len(points), NumLandmarks)
	}
	for i, p := range points {
		if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			return HandLandmarks{}, fmt.Errorf("%w: landmark %d is not finite", ErrMalformedHand, i)
		}
	}

	h := HandLandmarks{
		Handedness: handedness,
		Score:      score,
	}
	copy(h.Points[:], points)
	return h, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// UnmarshalJSON decodes a hand and enforces the landmark count.
func (h *HandLandmarks) UnmarshalJSON(data []byte) error {
	var raw struct {
		Points     []Point3D `json:"points"`
		Handedness string    `json:"handedness"`
		Score      float64   `json:"score"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, err := NewHandLandmarks(raw.Points, raw.Handedness, raw.Score)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Mirrored returns a copy of the hand reflected horizontally across an image
// of the given width, so x becomes width - x.
func (h HandLandmarks) Mirrored(width float64) HandLandmarks {
	out := h
	for i := range out.Points {
		out.Points[i].X = width - out.Points[i].X
	}
	return out
}

// CloneHands returns a deep copy of the given hands.
// A nil or empty input yields nil.
func CloneHands(hands []HandLandmarks) []HandLandmarks {
	if len(hands) == 0 {
		return nil
	}
	out := make([]HandLandmarks, len(hands))
	copy(out, hands)
	return out
}
