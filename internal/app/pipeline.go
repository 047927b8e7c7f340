package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handpose/internal/capture"
	"github.com/ayusman/handpose/internal/detector"
	"github.com/ayusman/handpose/internal/render"
)

// runPipeline is the main detection loop. Cycles run one at a time on the
// loop goroutine, so a slow estimator delays the next tick instead of
// overlapping it.
//
// Cycle logic:
// 1. Skip if cancelled, disabled or the source is not ready
// 2. Grab a frame and estimate hands (the only blocking step)
// 3. Discard the result if cancelled meanwhile
// 4. Classify the first hand
// 5. Clear and redraw the overlay, then publish
func (a *App) runPipeline(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer a.shutdown()

	ticker := time.NewTicker(a.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runCycle(ctx)
		}
	}
}

// runCycle performs one detection cycle.
func (a *App) runCycle(ctx context.Context) {
	if ctx.Err() != nil || !a.IsEnabled() {
		return
	}

	src := a.config.Source
	if !src.IsReady() {
		return
	}

	frame, err := src.CurrentFrame()
	if err != nil {
		if !errors.Is(err, capture.ErrNotReady) {
			a.config.Logf("Error reading frame: %v", err)
		}
		return
	}

	hands, err := a.estimate(ctx, frame)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		if !errors.Is(err, detector.ErrMalformedHand) {
			a.config.Logf("%v", fmt.Errorf("%w: %w", ErrEstimation, err))
			return
		}
		a.config.Logf("Discarding malformed hand: %v", err)
		hands = nil
	}

	var g *Gesture
	if len(hands) > 0 {
		if m, ok := a.Classifier().Best(&hands[0]); ok {
			g = &Gesture{
				Name:  m.Template.Name,
				Emoji: m.Template.Emoji,
				Asset: m.Template.Asset,
				Score: m.Score,
			}
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Stop may have landed while the lock was free.
	if ctx.Err() != nil || a.state != StateRunning || !a.enabled {
		return
	}
	a.publishLocked(hands, g)
}

// estimate runs the estimator on its own goroutine so cancellation can
// abandon a call in flight. The goroutine owns the frame and closes it.
func (a *App) estimate(ctx context.Context, frame *gocv.Mat) ([]detector.HandLandmarks, error) {
	type result struct {
		hands []detector.HandLandmarks
		err   error
	}

	ch := make(chan result, 1)
	go func() {
		defer frame.Close()
		hands, err := a.config.Estimator.Estimate(ctx, frame)
		ch <- result{hands: hands, err: err}
	}()

	select {
	case r := <-ch:
		return r.hands, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// publishLocked clears the overlay, draws the first hand, stores the
// detection and fans it out to subscribers. The caller holds a.mu.
func (a *App) publishLocked(hands []detector.HandLandmarks, g *Gesture) {
	a.fitSurfaceLocked()
	s := a.config.Surface
	s.Clear()
	if len(hands) > 0 {
		first := hands[:1]
		if a.config.Source.Mirrored() {
			w, _ := a.config.Source.Dimensions()
			a.config.Renderer.RenderMirrored(s, first, float64(w))
		} else {
			a.config.Renderer.Render(s, first)
		}
	}

	a.seq++
	a.latest = Detection{
		Seq:       a.seq,
		Timestamp: time.Now(),
		Hands:     detector.CloneHands(hands),
		Gesture:   g,
	}

	for _, ch := range a.subs {
		d := a.latest.Clone()
		select {
		case ch <- d:
		default:
			// Drop the oldest so the newest is always delivered.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- d:
			default:
			}
		}
	}
}

// fitSurfaceLocked matches the surface to the current source frame size.
// The caller holds a.mu.
func (a *App) fitSurfaceLocked() {
	r, ok := a.config.Surface.(render.Resizer)
	if !ok {
		return
	}
	if w, h := a.config.Source.Dimensions(); w > 0 && h > 0 {
		r.Resize(w, h)
	}
}

// clearLocked drops the published detection and erases a drawn skeleton.
// The caller holds a.mu.
func (a *App) clearLocked() {
	if len(a.latest.Hands) > 0 {
		a.config.Surface.Clear()
	}
	a.latest = Detection{Seq: a.latest.Seq}
}

// shutdown runs when the loop exits on any path.
func (a *App) shutdown() {
	a.mu.Lock()
	a.state = StateStopped
	a.clearLocked()
	for id, ch := range a.subs {
		delete(a.subs, id)
		close(ch)
	}
	a.mu.Unlock()

	a.release()
}
