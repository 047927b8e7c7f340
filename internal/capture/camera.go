// Package capture provides video sources for the detection loop, backed by
// GoCV (OpenCV) cameras.
package capture

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 10
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrNotReady is returned when the source is open but has no frame to give.
	ErrNotReady = errors.New("video source not ready")
)

// Source is a single stream of video frames.
type Source interface {
	Open() error
	Close() error
	// IsReady reports whether CurrentFrame can produce a frame now.
	IsReady() bool
	// CurrentFrame grabs the latest frame.
	// The caller is responsible for closing the returned Mat.
	CurrentFrame() (*gocv.Mat, error)
	// Dimensions returns the frame size in pixels.
	Dimensions() (width, height int)
	// Mirrored reports whether frames are shown to the user flipped
	// horizontally, so landmarks must be reflected before drawing.
	Mirrored() bool
}

// CameraConfig holds camera settings.
type CameraConfig struct {
	DeviceID int
	Width    int
	Height   int
	FPS      int
	Mirror   bool
}

// DefaultCameraConfig returns the default camera settings for device 0.
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		FPS:    DefaultFPS,
		Mirror: true,
	}
}

// Camera manages video capture from a camera device using GoCV.
type Camera struct {
	config  CameraConfig
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	width   int
	height  int
}

// NewCamera creates a new Camera. Zero size or FPS fields fall back to the defaults.
func NewCamera(config CameraConfig) *Camera {
	if config.Width <= 0 {
		config.Width = DefaultWidth
	}
	if config.Height <= 0 {
		config.Height = DefaultHeight
	}
	if config.FPS <= 0 {
		config.FPS = DefaultFPS
	}
	return &Camera{
		config: config,
		width:  config.Width,
		height: config.Height,
	}
}

// Open opens the camera for capturing frames at the configured resolution.
// The device may pick a different size; Dimensions reports the actual one.
func (c *Camera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.config.DeviceID)
	if err != nil {
		return err
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.config.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.config.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(c.config.FPS))

	if w := int(capture.Get(gocv.VideoCaptureFrameWidth)); w > 0 {
		c.width = w
	}
	if h := int(capture.Get(gocv.VideoCaptureFrameHeight)); h > 0 {
		c.height = h
	}

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources. It is safe to call more than once.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// IsReady returns true if the camera is open and can be read.
func (c *Camera) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running && c.capture != nil && c.capture.IsOpened()
}

// CurrentFrame reads a single frame from the camera.
// The caller is responsible for closing the returned Mat.
func (c *Camera) CurrentFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, ErrNotReady
	}

	return &mat, nil
}

// Dimensions returns the frame size negotiated with the device, or the
// configured size before Open.
func (c *Camera) Dimensions() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.width, c.height
}

// Mirrored reports whether the camera is shown as a selfie view.
func (c *Camera) Mirrored() bool {
	return c.config.Mirror
}

// FPS returns the configured frames per second.
func (c *Camera) FPS() int {
	return c.config.FPS
}
