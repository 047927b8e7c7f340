// Package geometry measures finger pose from a single hand's landmarks.
//
// All functions are pure and deterministic. Degenerate geometry (a
// zero-length segment or chain) produces the Degenerate sentinel instead of
// dividing by zero.
package geometry

import (
	"fmt"
	"strings"

	"github.com/ayusman/handpose/internal/detector"
)

// Finger identifies one of the five fingers.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

// NumFingers is the number of fingers on a hand.
const NumFingers = 5

// Fingers lists all fingers in anatomical order.
var Fingers = [NumFingers]Finger{Thumb, Index, Middle, Ring, Pinky}

// chains maps each finger to its joint indices from wrist to tip.
var chains = [NumFingers][5]int{
	Thumb:  {detector.Wrist, detector.ThumbCMC, detector.ThumbMCP, detector.ThumbIP, detector.ThumbTip},
	Index:  {detector.Wrist, detector.IndexMCP, detector.IndexPIP, detector.IndexDIP, detector.IndexTip},
	Middle: {detector.Wrist, detector.MiddleMCP, detector.MiddlePIP, detector.MiddleDIP, detector.MiddleTip},
	Ring:   {detector.Wrist, detector.RingMCP, detector.RingPIP, detector.RingDIP, detector.RingTip},
	Pinky:  {detector.Wrist, detector.PinkyMCP, detector.PinkyPIP, detector.PinkyDIP, detector.PinkyTip},
}

var fingerNames = [NumFingers]string{"thumb", "index", "middle", "ring", "pinky"}

// Chain returns the finger's joint indices ordered from wrist to tip.
func (f Finger) Chain() [5]int {
	return chains[f]
}

// Valid reports whether f names a real finger.
func (f Finger) Valid() bool {
	return f >= Thumb && f <= Pinky
}

func (f Finger) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Finger(%d)", int(f))
	}
	return fingerNames[f]
}

// ParseFinger converts a finger name such as "index" into a Finger.
func ParseFinger(name string) (Finger, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range fingerNames {
		if n == name {
			return Finger(i), nil
		}
	}
	return 0, fmt.Errorf("unknown finger %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (f Finger) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid finger %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Finger) UnmarshalText(text []byte) error {
	parsed, err := ParseFinger(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
