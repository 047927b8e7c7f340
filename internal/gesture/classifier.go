package gesture

import (
	"sort"

	"github.com/ayusman/handpose/internal/detector"
	"github.com/ayusman/handpose/internal/geometry"
)

// Match represents a scored template for one hand.
type Match struct {
	Template *Template // The scored template
	Score    float64   // 0 to MaxScore, higher is better
}

// Name returns the template name, or "" for the zero Match.
func (m Match) Name() string {
	if m.Template == nil {
		return ""
	}
	return m.Template.Name
}

// Classifier scores a hand against an ordered, immutable template list.
type Classifier struct {
	templates []*Template
	threshold float64
}

// NewClassifier creates a classifier over the given templates.
// The order of templates is the tie-break order: on equal scores the earlier
// template ranks first.
func NewClassifier(templates []*Template, threshold float64) *Classifier {
	list := make([]*Template, 0, len(templates))
	for _, t := range templates {
		if t != nil {
			list = append(list, t)
		}
	}
	return &Classifier{
		templates: list,
		threshold: threshold,
	}
}

// Templates returns the classifier's templates in tie-break order.
func (c *Classifier) Templates() []*Template {
	out := make([]*Template, len(c.templates))
	copy(out, c.templates)
	return out
}

// Threshold returns the acceptance threshold.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// Classify scores the hand against every template.
// Returns matches sorted by score in descending order (best matches first);
// equal scores keep template order. A nil hand yields no matches.
func (c *Classifier) Classify(hand *detector.HandLandmarks) []Match {
	if hand == nil || len(c.templates) == 0 {
		return nil
	}

	metrics := geometry.Measure(hand)

	matches := make([]Match, 0, len(c.templates))
	for _, t := range c.templates {
		matches = append(matches, Match{Template: t, Score: t.Score(metrics)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}

// Best returns the top match if its score exceeds the threshold.
// Otherwise it returns the zero Match (no gesture, score 0) and false.
func (c *Classifier) Best(hand *detector.HandLandmarks) (Match, bool) {
	matches := c.Classify(hand)
	// Written as !(>) so a NaN score is rejected.
	if len(matches) == 0 || !(matches[0].Score > c.threshold) {
		return Match{}, false
	}
	return matches[0], true
}
