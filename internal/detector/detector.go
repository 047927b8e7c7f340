package detector

import (
	"context"
	"errors"

	"gocv.io/x/gocv"
)

// ErrModelNotLoaded is returned by Estimate when Load has not completed.
var ErrModelNotLoaded = errors.New("pose estimator not loaded")

// Estimator defines the interface for hand pose estimation implementations.
type Estimator interface {
	// Load initializes the underlying model. It must complete successfully
	// before the first call to Estimate.
	Load(ctx context.Context) error

	// Estimate analyzes a video frame and returns the detected hands in
	// image pixel space. Returns an empty slice if no hands are detected.
	Estimate(ctx context.Context, frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the estimator.
	Close() error
}

// Config holds configuration options for hand pose estimation.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ScriptPath overrides the location of mediapipe_service.py.
	ScriptPath string

	// PythonPath overrides the interpreter used to run the service.
	PythonPath string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
