package detector

import (
	"context"
	"sync"

	"gocv.io/x/gocv"
)

// MockEstimator is a test implementation of the Estimator interface.
// It allows tests to control load and estimation results.
type MockEstimator struct {
	mu      sync.Mutex
	hands   []HandLandmarks
	err     error
	loadErr error
	loaded  bool
	closed  bool
	calls   int
	block   <-chan struct{}
	onCall  func()
}

// NewMockEstimator creates a new MockEstimator instance.
func NewMockEstimator() *MockEstimator {
	return &MockEstimator{}
}

// SetHands sets the hands that will be returned by Estimate.
func (m *MockEstimator) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Estimate.
func (m *MockEstimator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetLoadError sets the error that will be returned by Load.
func (m *MockEstimator) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// SetBlock makes Estimate wait until ch is closed before returning.
// The wait ignores the context, like an inference call that cannot be interrupted.
func (m *MockEstimator) SetBlock(ch <-chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.block = ch
}

// OnCall registers fn to run at the start of every Estimate call.
func (m *MockEstimator) OnCall(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCall = fn
}

// Load marks the estimator as loaded unless a load error is configured.
func (m *MockEstimator) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return m.loadErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.loaded = true
	return nil
}

// Estimate returns the pre-configured hands or error.
func (m *MockEstimator) Estimate(ctx context.Context, frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	m.calls++
	onCall, block := m.onCall, m.block
	m.mu.Unlock()

	if onCall != nil {
		onCall()
	}
	if block != nil {
		<-block
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return nil, ErrModelNotLoaded
	}
	if m.err != nil {
		return nil, m.err
	}
	return CloneHands(m.hands), nil
}

// Close marks the estimator as closed.
func (m *MockEstimator) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Calls returns how many times Estimate has been invoked.
func (m *MockEstimator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Loaded reports whether Load has succeeded.
func (m *MockEstimator) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// Closed reports whether Close has been called.
func (m *MockEstimator) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
