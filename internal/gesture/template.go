// Package gesture provides gesture templates and the landmark classifier.
package gesture

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/handpose/internal/geometry"
)

// Scoring constants.
const (
	// MaxScore is the score of a hand that satisfies every expectation of a template.
	MaxScore = 10.0
	// DefaultThreshold is the score a match must exceed to be accepted.
	DefaultThreshold = 7.0
	// CurlFalloff is how far outside a curl band the extension ratio may be
	// before the credit for that band drops to zero.
	CurlFalloff = 0.2
	// DefaultDirectionTolerance is the angle in degrees within which a
	// direction earns full credit when a template does not specify one.
	DefaultDirectionTolerance = 22.5
	// DirectionFalloff is the angle in degrees beyond the tolerance at which
	// direction credit drops to zero.
	DirectionFalloff = 30.0
)

// ErrInvalidTemplate is returned when a template definition fails validation.
var ErrInvalidTemplate = errors.New("invalid gesture template")

// Curl describes how bent a finger is.
type Curl string

const (
	NoCurl   Curl = "none"
	HalfCurl Curl = "half"
	FullCurl Curl = "full"
)

// Extension ratio boundaries between curl bands.
const (
	noCurlMin   = 0.85
	halfCurlMin = 0.5
)

// band returns the extension ratio range [lo, hi) covered by the curl.
func (c Curl) band() (lo, hi float64, ok bool) {
	switch c {
	case NoCurl:
		return noCurlMin, math.Inf(1), true
	case HalfCurl:
		return halfCurlMin, noCurlMin, true
	case FullCurl:
		return math.Inf(-1), halfCurlMin, true
	}
	return 0, 0, false
}

// CurlFor classifies an extension ratio into a curl band.
func CurlFor(extension float64) Curl {
	switch {
	case extension >= noCurlMin:
		return NoCurl
	case extension >= halfCurlMin:
		return HalfCurl
	default:
		return FullCurl
	}
}

// Direction names a pointing direction in image space (y grows downward).
type Direction string

const (
	Up        Direction = "up"
	Down      Direction = "down"
	Left      Direction = "left"
	Right     Direction = "right"
	UpLeft    Direction = "up_left"
	UpRight   Direction = "up_right"
	DownLeft  Direction = "down_left"
	DownRight Direction = "down_right"
)

var directionVectors = map[Direction]r2.Vec{
	Up:        {X: 0, Y: -1},
	Down:      {X: 0, Y: 1},
	Left:      {X: -1, Y: 0},
	Right:     {X: 1, Y: 0},
	UpLeft:    {X: -math.Sqrt2 / 2, Y: -math.Sqrt2 / 2},
	UpRight:   {X: math.Sqrt2 / 2, Y: -math.Sqrt2 / 2},
	DownLeft:  {X: -math.Sqrt2 / 2, Y: math.Sqrt2 / 2},
	DownRight: {X: math.Sqrt2 / 2, Y: math.Sqrt2 / 2},
}

// directionOrder fixes iteration order for NearestDirection.
var directionOrder = []Direction{Up, UpRight, Right, DownRight, Down, DownLeft, Left, UpLeft}

// Vector returns the unit vector for the direction.
func (d Direction) Vector() (r2.Vec, bool) {
	v, ok := directionVectors[d]
	return v, ok
}

// NearestDirection returns the named direction closest to v.
func NearestDirection(v r2.Vec) Direction {
	best, bestAngle := Up, math.Inf(1)
	for _, d := range directionOrder {
		a := geometry.AngleBetween(v, directionVectors[d])
		if a != geometry.Degenerate && a < bestAngle {
			best, bestAngle = d, a
		}
	}
	return best
}

// CurlExpectation accepts one curl band with a confidence in (0, 1].
type CurlExpectation struct {
	Curl       Curl    `json:"curl"`
	Confidence float64 `json:"confidence"`
}

// DirectionExpectation accepts one direction with a confidence in (0, 1].
// Tolerance is in degrees; zero means DefaultDirectionTolerance.
type DirectionExpectation struct {
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"confidence"`
	Tolerance  float64   `json:"tolerance,omitempty"`
}

// FingerExpectation describes what a template expects from one finger.
// Weight scales the finger's contribution; zero means 1.
type FingerExpectation struct {
	Finger     geometry.Finger        `json:"finger"`
	Weight     float64                `json:"weight,omitempty"`
	Curls      []CurlExpectation      `json:"curls,omitempty"`
	Directions []DirectionExpectation `json:"directions,omitempty"`
}

func (e FingerExpectation) weight() float64 {
	if e.Weight == 0 {
		return 1
	}
	return e.Weight
}

// Template is a named gesture description.
type Template struct {
	ID      string              `json:"id,omitempty"`
	Name    string              `json:"name"`
	Emoji   string              `json:"emoji,omitempty"`
	Asset   string              `json:"asset,omitempty"`
	Fingers []FingerExpectation `json:"fingers"`
}

// Validate checks that the template is well formed.
func (t *Template) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil template", ErrInvalidTemplate)
	}
	if t.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if len(t.Fingers) == 0 {
		return fmt.Errorf("%w: %s: at least one finger is required", ErrInvalidTemplate, t.Name)
	}

	seen := make(map[geometry.Finger]bool)
	for _, fe := range t.Fingers {
		if !fe.Finger.Valid() {
			return fmt.Errorf("%w: %s: invalid finger %d", ErrInvalidTemplate, t.Name, int(fe.Finger))
		}
		if seen[fe.Finger] {
			return fmt.Errorf("%w: %s: finger %s listed twice", ErrInvalidTemplate, t.Name, fe.Finger)
		}
		seen[fe.Finger] = true

		if fe.Weight < 0 {
			return fmt.Errorf("%w: %s: negative weight for %s", ErrInvalidTemplate, t.Name, fe.Finger)
		}
		if len(fe.Curls) == 0 && len(fe.Directions) == 0 {
			return fmt.Errorf("%w: %s: %s has no expectations", ErrInvalidTemplate, t.Name, fe.Finger)
		}
		for _, c := range fe.Curls {
			if _, _, ok := c.Curl.band(); !ok {
				return fmt.Errorf("%w: %s: unknown curl %q", ErrInvalidTemplate, t.Name, c.Curl)
			}
			if c.Confidence <= 0 || c.Confidence > 1 {
				return fmt.Errorf("%w: %s: curl confidence %v out of range (0,1]", ErrInvalidTemplate, t.Name, c.Confidence)
			}
		}
		for _, d := range fe.Directions {
			if _, ok := d.Direction.Vector(); !ok {
				return fmt.Errorf("%w: %s: unknown direction %q", ErrInvalidTemplate, t.Name, d.Direction)
			}
			if d.Confidence <= 0 || d.Confidence > 1 {
				return fmt.Errorf("%w: %s: direction confidence %v out of range (0,1]", ErrInvalidTemplate, t.Name, d.Confidence)
			}
			if d.Tolerance < 0 || d.Tolerance >= 180 {
				return fmt.Errorf("%w: %s: direction tolerance %v out of range [0,180)", ErrInvalidTemplate, t.Name, d.Tolerance)
			}
		}
	}
	return nil
}

// Score rates measured finger metrics against the template on a 0 to MaxScore scale.
func (t *Template) Score(metrics [geometry.NumFingers]geometry.FingerMetrics) float64 {
	var total, weights float64
	for _, fe := range t.Fingers {
		w := fe.weight()
		weights += w
		total += w * fingerCredit(metrics[fe.Finger], fe)
	}
	if weights == 0 {
		return 0
	}
	return MaxScore * total / weights
}

// fingerCredit returns the credit in [0, 1] a finger earns against its
// expectation. Curl and direction credits multiply, so a correctly pointed
// finger with the wrong curl earns nothing.
func fingerCredit(m geometry.FingerMetrics, fe FingerExpectation) float64 {
	if m.Degenerate() {
		return 0
	}

	credit := 1.0
	if len(fe.Curls) > 0 {
		credit *= curlCredit(m.Extension, fe.Curls)
	}
	if len(fe.Directions) > 0 {
		credit *= directionCredit(m, fe.Directions)
	}
	return credit
}

func curlCredit(extension float64, expected []CurlExpectation) float64 {
	var best float64
	for _, c := range expected {
		lo, hi, _ := c.Curl.band()
		var outside float64
		switch {
		case extension < lo:
			outside = lo - extension
		case extension >= hi:
			outside = extension - hi
		}
		credit := c.Confidence * math.Max(0, 1-outside/CurlFalloff)
		best = math.Max(best, credit)
	}
	return best
}

func directionCredit(m geometry.FingerMetrics, expected []DirectionExpectation) float64 {
	dir, ok := geometry.Direction2D(m.Direction)
	if !ok {
		return 0
	}

	var best float64
	for _, d := range expected {
		want, _ := d.Direction.Vector()
		tol := d.Tolerance
		if tol == 0 {
			tol = DefaultDirectionTolerance
		}
		angle := geometry.AngleBetween(dir, want)
		if angle == geometry.Degenerate {
			continue
		}
		closeness := 1.0
		if angle > tol {
			closeness = math.Max(0, 1-(angle-tol)/DirectionFalloff)
		}
		best = math.Max(best, d.Confidence*closeness)
	}
	return best
}

// ParseTemplate decodes and validates a single JSON template definition.
func ParseTemplate(data []byte) (*Template, error) {
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseTemplates decodes and validates a JSON array of templates.
// Names must be unique within the list.
func ParseTemplates(data []byte) ([]*Template, error) {
	var list []*Template
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	names := make(map[string]bool, len(list))
	for _, t := range list {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if names[t.Name] {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidTemplate, t.Name)
		}
		names[t.Name] = true
	}
	return list, nil
}
