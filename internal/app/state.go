package app

import (
	"fmt"
	"time"

	"github.com/ayusman/handpose/internal/detector"
)

// State is the lifecycle stage of the detection loop.
type State int

const (
	// StateIdle means Start has not been called.
	StateIdle State = iota
	// StateLoading means the pose model is being loaded.
	// The loop stays here if loading fails.
	StateLoading
	// StateRunning means cycles are being polled.
	StateRunning
	// StateStopped is terminal; the video source has been released.
	StateStopped
)

var stateNames = [...]string{"idle", "loading", "running", "stopped"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Gesture is a recognised gesture as published to readers.
type Gesture struct {
	Name  string  `json:"name"`
	Emoji string  `json:"emoji,omitempty"`
	Asset string  `json:"asset,omitempty"`
	Score float64 `json:"score"`
}

// Detection is the result of one published cycle.
// A nil Gesture means "no gesture".
type Detection struct {
	Seq       uint64                   `json:"seq"`
	Timestamp time.Time                `json:"timestamp"`
	Hands     []detector.HandLandmarks `json:"hands"`
	Gesture   *Gesture                 `json:"gesture"`
}

// Clone returns a deep copy of the detection.
func (d Detection) Clone() Detection {
	out := d
	out.Hands = detector.CloneHands(d.Hands)
	if d.Gesture != nil {
		g := *d.Gesture
		out.Gesture = &g
	}
	return out
}

// Snapshot is a read-only view of the loop for status reporting.
type Snapshot struct {
	State     State     `json:"state"`
	Enabled   bool      `json:"enabled"`
	Detection Detection `json:"detection"`
}
