// Package app runs the hand pose detection loop: it polls a video source,
// estimates landmarks, draws the skeleton overlay and publishes the
// recognised gesture.
package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/ayusman/handpose/internal/capture"
	"github.com/ayusman/handpose/internal/detector"
	"github.com/ayusman/handpose/internal/gesture"
	"github.com/ayusman/handpose/internal/render"
)

// DefaultPollInterval is the period between detection cycles.
const DefaultPollInterval = 100 * time.Millisecond

// subscriberBuffer is how many detections a slow subscriber may lag behind
// before the oldest are dropped.
const subscriberBuffer = 16

var (
	// ErrModelLoad is returned by Start when the pose model fails to load.
	ErrModelLoad = errors.New("failed to load pose model")
	// ErrEstimation wraps per-cycle estimator failures in the log.
	ErrEstimation = errors.New("pose estimation failed")
	// ErrAlreadyStarted is returned by Start when called more than once.
	ErrAlreadyStarted = errors.New("detection loop already started")
	// ErrStopped is returned by Start once the loop has been stopped.
	ErrStopped = errors.New("detection loop stopped")
)

// Config holds configuration options for the application.
type Config struct {
	Source    capture.Source
	Estimator detector.Estimator

	// Classifier defaults to the built-in library at the default threshold.
	Classifier *gesture.Classifier
	// Renderer defaults to the stock style.
	Renderer *render.Renderer
	// Surface defaults to a transparent canvas the size of the source.
	Surface render.Surface

	PollInterval time.Duration
	// Logf defaults to log.Printf.
	Logf func(format string, args ...any)
}

// App owns the detection loop together with its drawing surface and
// published detection. Readers only ever see copies.
type App struct {
	config Config

	mu         sync.RWMutex
	state      State
	enabled    bool
	classifier *gesture.Classifier
	latest     Detection
	seq        uint64
	subs       map[int]chan Detection
	nextSub    int
	cancel     context.CancelFunc
	started    chan struct{} // closed when Start returns
	done       chan struct{} // closed when the loop goroutine exits

	releaseOnce sync.Once
}

// New creates a new App instance with the given configuration.
func New(config Config) (*App, error) {
	if config.Source == nil {
		return nil, errors.New("video source is required")
	}
	if config.Estimator == nil {
		return nil, errors.New("pose estimator is required")
	}

	if config.Classifier == nil {
		templates, err := gesture.Library()
		if err != nil {
			return nil, err
		}
		config.Classifier = gesture.NewClassifier(templates, gesture.DefaultThreshold)
	}
	if config.Renderer == nil {
		config.Renderer = render.NewRenderer(render.DefaultStyle())
	}
	if config.Surface == nil {
		w, h := config.Source.Dimensions()
		config.Surface = render.NewCanvas(w, h)
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.Logf == nil {
		config.Logf = log.Printf
	}

	return &App{
		config:     config,
		state:      StateIdle,
		enabled:    true,
		classifier: config.Classifier,
		subs:       make(map[int]chan Detection),
	}, nil
}

// Start opens the video source, loads the pose model and, once the model
// reports ready, starts polling. It blocks until the loop is running or
// loading has failed.
//
// A model load failure is returned wrapped in ErrModelLoad; the state stays
// StateLoading and the source and estimator are released. Cancelling ctx
// stops the loop as if Stop had been called.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	switch a.state {
	case StateIdle:
	case StateStopped:
		a.mu.Unlock()
		return ErrStopped
	default:
		a.mu.Unlock()
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.state = StateLoading
	a.cancel = cancel
	a.started = make(chan struct{})
	defer close(a.started)
	a.mu.Unlock()

	// A source that cannot be opened only makes every cycle a no-op.
	if err := a.config.Source.Open(); err != nil {
		a.config.Logf("Error opening video source: %v", err)
	}
	// The source may settle on a different frame size than it was asked for.
	a.mu.Lock()
	a.fitSurfaceLocked()
	a.mu.Unlock()

	a.config.Logf("Loading pose model")
	loadErr := a.config.Estimator.Load(runCtx)

	a.mu.Lock()
	if a.state == StateStopped {
		a.mu.Unlock()
		cancel()
		a.release()
		return ErrStopped
	}
	if loadErr != nil {
		a.mu.Unlock()
		cancel()
		a.release()
		return fmt.Errorf("%w: %w", ErrModelLoad, loadErr)
	}
	a.state = StateRunning
	a.done = make(chan struct{})
	done := a.done
	a.mu.Unlock()

	go a.runPipeline(runCtx, done)

	a.config.Logf("Detection pipeline started")
	return nil
}

// Stop cancels polling, waits for the loop to exit, clears the published
// detection and releases the video source and estimator. An estimator call in flight is abandoned; its result
// is discarded. No draw or publish happens after Stop returns.
// Stop is idempotent and may be called in any state.
func (a *App) Stop() {
	a.mu.Lock()
	if a.state == StateStopped {
		a.mu.Unlock()
		return
	}
	a.state = StateStopped
	cancel, started, done := a.cancel, a.started, a.done
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if started != nil {
		<-started
	}
	if done != nil {
		<-done
	}
	a.mu.Lock()
	a.clearLocked()
	a.mu.Unlock()
	a.release()

	a.config.Logf("Detection pipeline stopped")
}

// release closes the source and the estimator exactly once.
func (a *App) release() {
	a.releaseOnce.Do(func() {
		if err := a.config.Source.Close(); err != nil {
			a.config.Logf("Error closing video source: %v", err)
		}
		if err := a.config.Estimator.Close(); err != nil {
			a.config.Logf("Error closing estimator: %v", err)
		}
	})
}

// State returns the current lifecycle state.
func (a *App) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// SetEnabled pauses or resumes detection without stopping the loop.
// Disabling clears the overlay and publishes "no gesture".
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.enabled == enabled {
		return
	}
	a.enabled = enabled
	if !enabled && a.state == StateRunning {
		a.publishLocked(nil, nil)
	}
}

// IsEnabled returns whether gesture detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Classifier returns the classifier used by the loop.
func (a *App) Classifier() *gesture.Classifier {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.classifier
}

// SetClassifier swaps the classifier, for example after a custom template is
// added. It takes effect from the next cycle.
func (a *App) SetClassifier(c *gesture.Classifier) {
	if c == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.classifier = c
}

// Snapshot returns the state, the enabled flag and a copy of the latest detection.
func (a *App) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Snapshot{
		State:     a.state,
		Enabled:   a.enabled,
		Detection: a.latest.Clone(),
	}
}

// LatestHands returns a copy of the hands published by the last cycle.
func (a *App) LatestHands() []detector.HandLandmarks {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return detector.CloneHands(a.latest.Hands)
}

// LatestGesture returns the last published gesture, or false for "no gesture".
func (a *App) LatestGesture() (Gesture, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.latest.Gesture == nil {
		return Gesture{}, false
	}
	return *a.latest.Gesture, true
}

// Overlay returns a copy of the drawing surface when it can be read back.
func (a *App) Overlay() (image.Image, bool) {
	s, ok := a.config.Surface.(render.Snapshotter)
	if !ok {
		return nil, false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	img := s.Snapshot()
	return img, img != nil
}

// Subscribe returns a channel receiving every published detection in order,
// and a function to unsubscribe. A subscriber that falls behind loses the
// oldest detections. The channel is closed when the loop stops.
func (a *App) Subscribe() (<-chan Detection, func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ch := make(chan Detection, subscriberBuffer)
	if a.state == StateStopped {
		close(ch)
		return ch, func() {}
	}

	id := a.nextSub
	a.nextSub++
	a.subs[id] = ch

	return ch, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if c, ok := a.subs[id]; ok {
			delete(a.subs, id)
			close(c)
		}
	}
}
