// Package testdata holds recorded hands for tests.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/ayusman/handpose/internal/detector"
)

//go:embed hands/*.json
var handsFS embed.FS

// LoadRaw returns the JSON of a recorded hand by name, without the extension.
func LoadRaw(name string) ([]byte, error) {
	data, err := handsFS.ReadFile("hands/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load hand %s: %w", name, err)
	}
	return data, nil
}

// LoadHand decodes a recorded hand by name. Recordings that do not have
// exactly 21 points fail with detector.ErrMalformedHand.
func LoadHand(name string) (detector.HandLandmarks, error) {
	data, err := LoadRaw(name)
	if err != nil {
		return detector.HandLandmarks{}, err
	}

	var h detector.HandLandmarks
	if err := json.Unmarshal(data, &h); err != nil {
		return detector.HandLandmarks{}, fmt.Errorf("decode hand %s: %w", name, err)
	}
	return h, nil
}
