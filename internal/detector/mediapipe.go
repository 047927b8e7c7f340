package detector

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// MediaPipeEstimator implements Estimator using a Python MediaPipe subprocess.
//
// Protocol: each request is a 4-byte big-endian length followed by a JPEG
// encoded frame on stdin. Each response is one JSON line on stdout with
// landmark coordinates normalized to [0,1]. After start-up the service writes
// a single {"ready": true} line once the model is loaded.
type MediaPipeEstimator struct {
	config     Config
	scriptPath string
	pythonPath string
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	mu         sync.Mutex // serializes requests and the process lifecycle
	loaded     bool

	// procMu guards proc separately from mu so a hung request can be
	// interrupted by killing the process.
	procMu sync.Mutex
	proc   *os.Process
	killed bool
}

// NewMediaPipeEstimator creates a new MediaPipe estimator.
// The Python process is not started until Load is called.
func NewMediaPipeEstimator(config Config) (*MediaPipeEstimator, error) {
	scriptPath := config.ScriptPath
	if scriptPath == "" {
		scriptPath = findMediaPipeScript()
	}
	if scriptPath == "" {
		return nil, fmt.Errorf("mediapipe_service.py not found")
	}

	pythonPath := config.PythonPath
	if pythonPath == "" {
		pythonPath = findVenvPython()
	}
	if pythonPath == "" {
		pythonPath = "python3"
	}

	return &MediaPipeEstimator{
		config:     config,
		scriptPath: scriptPath,
		pythonPath: pythonPath,
	}, nil
}

// Load starts the Python service and waits for its ready handshake.
func (d *MediaPipeEstimator) Load(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.loaded {
		return nil
	}

	d.cmd = exec.Command(d.pythonPath, d.scriptPath,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.procMu.Lock()
	d.proc = d.cmd.Process
	d.procMu.Unlock()

	r := d.stdout
	ready := make(chan error, 1)
	go func() {
		line, err := r.ReadString('\n')
		if err != nil {
			ready <- fmt.Errorf("read handshake: %w", err)
			return
		}
		var hs struct {
			Ready bool   `json:"ready"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal([]byte(line), &hs); err != nil {
			ready <- fmt.Errorf("parse handshake: %w", err)
			return
		}
		if !hs.Ready {
			ready <- fmt.Errorf("mediapipe service not ready: %s", hs.Error)
			return
		}
		ready <- nil
	}()

	select {
	case err := <-ready:
		if err != nil {
			d.shutdown()
			return err
		}
	case <-ctx.Done():
		d.kill()
		<-ready
		d.shutdown()
		return ctx.Err()
	}

	d.loaded = true
	return nil
}

// Estimate analyzes a frame and returns detected hand landmarks in pixel space.
func (d *MediaPipeEstimator) Estimate(ctx context.Context, frame *gocv.Mat) ([]HandLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.loaded {
		return nil, ErrModelNotLoaded
	}
	if frame == nil || frame.Empty() {
		return nil, errors.New("empty frame")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Cancelling ctx kills the service so a blocked read returns.
	stop := context.AfterFunc(ctx, d.kill)
	defer stop()

	// Encode frame as JPEG
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	// Write length (4 bytes big-endian) + data
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	// Read JSON response
	line, err := d.stdout.ReadString('\n')
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("read response: %w", err)
	}

	return decodeResponse([]byte(line), float64(frame.Cols()), float64(frame.Rows()))
}

// Close kills the Python process and waits for it to exit. A Load or
// Estimate blocked on the service returns with an error.
func (d *MediaPipeEstimator) Close() error {
	d.kill()

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

// kill terminates the service process, if any.
func (d *MediaPipeEstimator) kill() {
	d.procMu.Lock()
	defer d.procMu.Unlock()
	if d.proc != nil && !d.killed {
		d.proc.Kill()
		d.killed = true
	}
}

// shutdown reaps the process. The caller holds d.mu.
func (d *MediaPipeEstimator) shutdown() error {
	if d.cmd == nil {
		return nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()

	d.procMu.Lock()
	killed := d.killed
	d.proc = nil
	d.killed = false
	d.procMu.Unlock()

	d.loaded = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	var exitErr *exec.ExitError
	if killed && errors.As(err, &exitErr) {
		return nil
	}
	return err
}

// decodeResponse parses one response line and scales normalized coordinates
// to a width x height image.
func decodeResponse(line []byte, width, height float64) ([]HandLandmarks, error) {
	var response struct {
		Hands []jsonHand `json:"hands"`
		Error string     `json:"error"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("mediapipe service: %s", response.Error)
	}

	result := make([]HandLandmarks, 0, len(response.Hands))
	for i, h := range response.Hands {
		hand, err := h.toHandLandmarks(width, height)
		if err != nil {
			return nil, fmt.Errorf("hand %d: %w", i, err)
		}
		result = append(result, hand)
	}

	return result, nil
}

func findMediaPipeScript() string {
	// Get executable directory
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/mediapipe_service.py",
		"../scripts/mediapipe_service.py",
		filepath.Join(execDir, "scripts/mediapipe_service.py"),
		filepath.Join(os.Getenv("HOME"), ".handpose/scripts/mediapipe_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".handpose/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonHand represents the JSON structure from the Python service.
type jsonHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

func (h jsonHand) toHandLandmarks(width, height float64) (HandLandmarks, error) {
	points := make([]Point3D, len(h.Points))
	for i, p := range h.Points {
		// MediaPipe reports z on roughly the same scale as x.
		points[i] = Point3D{X: p.X * width, Y: p.Y * height, Z: p.Z * width}
	}
	return NewHandLandmarks(points, h.Handedness, h.Score)
}
