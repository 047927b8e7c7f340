package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// MockSource plays back pre-recorded frames for testing.
// Without frames it hands out blank frames of its configured size.
type MockSource struct {
	mu       sync.Mutex
	frames   []*gocv.Mat
	index    int
	loop     bool
	width    int
	height   int
	mirrored bool
	running  bool
	ready    bool
	opens    int
	closes   int
	reads    int
	openErr  error
	openW    int
	openH    int
}

// NewMockSource creates a ready source of the given size that loops over frames.
func NewMockSource(width, height int, frames ...*gocv.Mat) *MockSource {
	return &MockSource{
		frames: frames,
		loop:   true,
		width:  width,
		height: height,
		ready:  true,
	}
}

func (s *MockSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	if s.openErr != nil {
		return s.openErr
	}
	if s.openW > 0 && s.openH > 0 {
		s.width, s.height = s.openW, s.openH
	}
	s.running = true
	s.index = 0
	return nil
}

func (s *MockSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.closes++
	return nil
}

func (s *MockSource) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && s.ready
}

func (s *MockSource) CurrentFrame() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, ErrCameraNotOpen
	}
	if !s.ready {
		return nil, ErrNotReady
	}
	s.reads++

	if len(s.frames) == 0 {
		blank := gocv.NewMatWithSize(s.height, s.width, gocv.MatTypeCV8UC3)
		return &blank, nil
	}

	if s.index >= len(s.frames) {
		if !s.loop {
			return nil, fmt.Errorf("no more frames")
		}
		s.index = 0
	}

	// Clone the frame so the original isn't modified
	frame := s.frames[s.index].Clone()
	s.index++

	return &frame, nil
}

func (s *MockSource) Dimensions() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *MockSource) Mirrored() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mirrored
}

// SetReady toggles whether the source reports itself ready.
func (s *MockSource) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// SetMirrored toggles the mirrored flag.
func (s *MockSource) SetMirrored(mirrored bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirrored = mirrored
}

// SetLoop controls whether playback restarts after the last frame.
func (s *MockSource) SetLoop(loop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loop = loop
}

// SetOpenError makes Open fail with err.
func (s *MockSource) SetOpenError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openErr = err
}

// SetOpenSize makes Open switch the frame size to width x height, the way a
// camera settles on the resolution the device supports.
func (s *MockSource) SetOpenSize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openW, s.openH = width, height
}

// SetFrames replaces the frame sequence
func (s *MockSource) SetFrames(frames []*gocv.Mat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = frames
	s.index = 0
}

// IsOpen reports whether the source is open.
func (s *MockSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Opens returns how many times Open was called.
func (s *MockSource) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

// Closes returns how many times Close was called.
func (s *MockSource) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Reads returns how many frames have been handed out.
func (s *MockSource) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}
