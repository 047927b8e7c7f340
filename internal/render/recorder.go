package render

import (
	"image/color"
	"sync"
)

// Line is a recorded DrawLine call.
type Line struct {
	P1, P2 Point
	Color  color.Color
	Width  float64
}

// Disc is a recorded DrawDisc call.
type Disc struct {
	Center Point
	Radius float64
	Color  color.Color
}

// Recorder is a Surface that remembers what was drawn since the last Clear.
// It is safe for concurrent use so tests can inspect it while a loop draws.
type Recorder struct {
	mu     sync.Mutex
	lines  []Line
	discs  []Disc
	clears int
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Clear drops everything recorded so far.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = nil
	r.discs = nil
	r.clears++
}

// DrawLine records a line.
func (r *Recorder) DrawLine(p1, p2 Point, c color.Color, width float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, Line{P1: p1, P2: p2, Color: c, Width: width})
}

// DrawDisc records a disc.
func (r *Recorder) DrawDisc(center Point, radius float64, c color.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discs = append(r.discs, Disc{Center: center, Radius: radius, Color: c})
}

// Lines returns the lines drawn since the last Clear.
func (r *Recorder) Lines() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line(nil), r.lines...)
}

// Discs returns the discs drawn since the last Clear.
func (r *Recorder) Discs() []Disc {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Disc(nil), r.discs...)
}

// Clears returns how many times Clear was called.
func (r *Recorder) Clears() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clears
}
