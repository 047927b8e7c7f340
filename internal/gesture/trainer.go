package gesture

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/handpose/internal/detector"
	"github.com/ayusman/handpose/internal/geometry"
)

// Training constants.
const (
	// boundaryMargin is how close a finger's mean extension must be to a band
	// boundary before the neighbouring band is also accepted.
	boundaryMargin = 0.1
	// neighbourConfidence is the confidence given to that neighbouring band.
	neighbourConfidence = 0.8
	// trainedTolerance is the direction tolerance of trained templates.
	trainedTolerance = 30.0
)

// Trainer derives gesture templates from recorded hands.
type Trainer struct{}

// NewTrainer creates a new Trainer instance.
func NewTrainer() *Trainer {
	return &Trainer{}
}

// ParseSamples decodes raw JSON hands, rejecting any without 21 landmarks.
func (t *Trainer) ParseSamples(raw []json.RawMessage) ([]detector.HandLandmarks, error) {
	hands := make([]detector.HandLandmarks, 0, len(raw))
	for i, r := range raw {
		var h detector.HandLandmarks
		if err := json.Unmarshal(r, &h); err != nil {
			return nil, fmt.Errorf("failed to parse sample %d: %w", i, err)
		}
		hands = append(hands, h)
	}
	return hands, nil
}

// Train averages finger curl across samples into a template.
// Extended fingers additionally get the averaged pointing direction.
func (t *Trainer) Train(name string, samples []detector.HandLandmarks) (*Template, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples provided")
	}

	metrics := make([][geometry.NumFingers]geometry.FingerMetrics, len(samples))
	for i := range samples {
		metrics[i] = geometry.Measure(&samples[i])
	}

	tmpl := &Template{Name: name}
	for _, f := range geometry.Fingers {
		var sumExt float64
		var sumDir r2.Vec
		var n int
		for _, m := range metrics {
			fm := m[f]
			if fm.Degenerate() {
				continue
			}
			sumExt += fm.Extension
			if d, ok := geometry.Direction2D(fm.Direction); ok {
				sumDir = r2.Add(sumDir, d)
			}
			n++
		}
		if n == 0 {
			return nil, fmt.Errorf("finger %s could not be measured in any sample", f)
		}

		mean := sumExt / float64(n)
		curl := CurlFor(mean)
		fe := FingerExpectation{
			Finger: f,
			Curls:  []CurlExpectation{{Curl: curl, Confidence: 1}},
		}
		if neighbour, ok := nearBoundary(mean, curl); ok {
			fe.Curls = append(fe.Curls, CurlExpectation{Curl: neighbour, Confidence: neighbourConfidence})
		}

		if curl == NoCurl && r2.Norm(sumDir) > 0 {
			fe.Directions = []DirectionExpectation{{
				Direction:  NearestDirection(sumDir),
				Confidence: 1,
				Tolerance:  trainedTolerance,
			}}
		}
		tmpl.Fingers = append(tmpl.Fingers, fe)
	}

	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// nearBoundary returns the adjacent curl band when the extension lies within
// boundaryMargin of the edge between the two.
func nearBoundary(extension float64, curl Curl) (Curl, bool) {
	switch curl {
	case NoCurl:
		if extension-noCurlMin < boundaryMargin {
			return HalfCurl, true
		}
	case HalfCurl:
		if noCurlMin-extension < boundaryMargin {
			return NoCurl, true
		}
		if extension-halfCurlMin < boundaryMargin {
			return FullCurl, true
		}
	case FullCurl:
		if halfCurlMin-extension < boundaryMargin {
			return HalfCurl, true
		}
	}
	return "", false
}
