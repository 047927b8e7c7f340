// Package config loads the handpose runtime configuration from a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ayusman/handpose/internal/capture"
	"github.com/ayusman/handpose/internal/detector"
	"github.com/ayusman/handpose/internal/gesture"
)

// maxFileSize caps the config file size.
const maxFileSize = 1 * 1024 * 1024 // 1MB

// Duration is a time.Duration that reads and writes as a string like "100ms".
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"100ms\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Camera holds video source settings.
type Camera struct {
	DeviceID int  `json:"device_id"`
	Width    int  `json:"width"`
	Height   int  `json:"height"`
	FPS      int  `json:"fps"`
	Mirror   bool `json:"mirror"`
}

// Estimator holds pose model settings.
type Estimator struct {
	MaxHands        int     `json:"max_hands"`
	MinConfidence   float64 `json:"min_confidence"`
	MinTrackingConf float64 `json:"min_tracking_confidence"`
	ScriptPath      string  `json:"script_path,omitempty"`
	PythonPath      string  `json:"python_path,omitempty"`
}

// Config is the root configuration.
type Config struct {
	Camera       Camera    `json:"camera"`
	Estimator    Estimator `json:"estimator"`
	PollInterval Duration  `json:"poll_interval"`
	Threshold    float64   `json:"threshold"`
	DataDir      string    `json:"data_dir"`
	Listen       string    `json:"listen"`
	StaticDir    string    `json:"static_dir,omitempty"`
	Tray         bool      `json:"tray"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cam := capture.DefaultCameraConfig()
	est := detector.DefaultConfig()

	dataDir := ".handpose"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".handpose")
	}

	return &Config{
		Camera: Camera{
			DeviceID: cam.DeviceID,
			Width:    cam.Width,
			Height:   cam.Height,
			FPS:      cam.FPS,
			Mirror:   cam.Mirror,
		},
		Estimator: Estimator{
			MaxHands:        est.MaxHands,
			MinConfidence:   est.MinConfidence,
			MinTrackingConf: est.MinTrackingConf,
		},
		PollInterval: Duration(100 * time.Millisecond),
		Threshold:    gesture.DefaultThreshold,
		DataDir:      dataDir,
		Listen:       ":8080",
		Tray:         true,
	}
}

// Load reads a JSON config file over the defaults.
// The file must have a .json extension and be under 1MB.
// Fields omitted from the file keep their default values.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.Camera.DeviceID < 0 {
		return fmt.Errorf("camera.device_id must be non-negative, got %d", c.Camera.DeviceID)
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("camera size must be positive, got %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("camera.fps must be positive, got %d", c.Camera.FPS)
	}
	if c.Estimator.MaxHands < 1 {
		return fmt.Errorf("estimator.max_hands must be at least 1, got %d", c.Estimator.MaxHands)
	}
	if c.Estimator.MinConfidence < 0 || c.Estimator.MinConfidence > 1 {
		return fmt.Errorf("estimator.min_confidence must be between 0 and 1, got %f", c.Estimator.MinConfidence)
	}
	if c.Estimator.MinTrackingConf < 0 || c.Estimator.MinTrackingConf > 1 {
		return fmt.Errorf("estimator.min_tracking_confidence must be between 0 and 1, got %f", c.Estimator.MinTrackingConf)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", time.Duration(c.PollInterval))
	}
	if c.Threshold < 0 || c.Threshold > gesture.MaxScore {
		return fmt.Errorf("threshold must be between 0 and %v, got %f", gesture.MaxScore, c.Threshold)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	return nil
}

// DBPath returns the SQLite database location inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "handpose.db")
}

// CameraConfig converts the camera section for capture.NewCamera.
func (c *Config) CameraConfig() capture.CameraConfig {
	return capture.CameraConfig{
		DeviceID: c.Camera.DeviceID,
		Width:    c.Camera.Width,
		Height:   c.Camera.Height,
		FPS:      c.Camera.FPS,
		Mirror:   c.Camera.Mirror,
	}
}

// DetectorConfig converts the estimator section for the pose estimator.
func (c *Config) DetectorConfig() detector.Config {
	return detector.Config{
		MaxHands:        c.Estimator.MaxHands,
		MinConfidence:   c.Estimator.MinConfidence,
		MinTrackingConf: c.Estimator.MinTrackingConf,
		ScriptPath:      c.Estimator.ScriptPath,
		PythonPath:      c.Estimator.PythonPath,
	}
}

// Interval returns the poll interval as a time.Duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.PollInterval)
}
