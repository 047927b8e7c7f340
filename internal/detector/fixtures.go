package detector

// Preset hands in pixel space for a 640x480 frame, palm facing the camera.
// Y grows downwards, so an upward-pointing finger has decreasing Y.

const fixtureWristX, fixtureWristY = 320.0, 430.0

// Finger base x positions.
const (
	fixtureIndexX  = 360.0
	fixtureMiddleX = 330.0
	fixtureRingX   = 300.0
	fixturePinkyX  = 272.0
)

func newFixtureHand() HandLandmarks {
	h := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}
	h.Points[Wrist] = Point3D{X: fixtureWristX, Y: fixtureWristY}
	return h
}

// extendFinger places a straight finger pointing up from its MCP joint.
func extendFinger(h *HandLandmarks, mcp int, x float64) {
	h.Points[mcp] = Point3D{X: x, Y: 300}
	h.Points[mcp+1] = Point3D{X: x, Y: 240}
	h.Points[mcp+2] = Point3D{X: x, Y: 200}
	h.Points[mcp+3] = Point3D{X: x, Y: 165}
}

// curlFinger folds a finger back so its tip rests just below the MCP joint.
func curlFinger(h *HandLandmarks, mcp int, x float64) {
	h.Points[mcp] = Point3D{X: x, Y: 300, Z: -5}
	h.Points[mcp+1] = Point3D{X: x, Y: 265, Z: -5}
	h.Points[mcp+2] = Point3D{X: x, Y: 285, Z: -5}
	h.Points[mcp+3] = Point3D{X: x, Y: 310, Z: -5}
}

func curlThumb(h *HandLandmarks) {
	h.Points[ThumbCMC] = Point3D{X: 370, Y: 405}
	h.Points[ThumbMCP] = Point3D{X: 395, Y: 375}
	h.Points[ThumbIP] = Point3D{X: 385, Y: 350}
	h.Points[ThumbTip] = Point3D{X: 367, Y: 385}
}

// VictoryLandmarks returns a preset hand making a victory sign.
// Index and middle fingers are extended in a V, the rest are curled.
func VictoryLandmarks() HandLandmarks {
	h := newFixtureHand()
	curlThumb(&h)

	// Index leans right, middle leans left.
	h.Points[IndexMCP] = Point3D{X: 360, Y: 300}
	h.Points[IndexPIP] = Point3D{X: 372, Y: 240}
	h.Points[IndexDIP] = Point3D{X: 380, Y: 200}
	h.Points[IndexTip] = Point3D{X: 387, Y: 165}

	h.Points[MiddleMCP] = Point3D{X: 330, Y: 300}
	h.Points[MiddlePIP] = Point3D{X: 318, Y: 240}
	h.Points[MiddleDIP] = Point3D{X: 310, Y: 200}
	h.Points[MiddleTip] = Point3D{X: 303, Y: 165}

	curlFinger(&h, RingMCP, fixtureRingX)
	curlFinger(&h, PinkyMCP, fixturePinkyX)
	return h
}

// ThumbsUpLandmarks returns a preset hand making a thumbs up gesture.
// The thumb is extended upward while other fingers are curled.
func ThumbsUpLandmarks() HandLandmarks {
	h := newFixtureHand()

	h.Points[ThumbCMC] = Point3D{X: 370, Y: 405}
	h.Points[ThumbMCP] = Point3D{X: 385, Y: 360}
	h.Points[ThumbIP] = Point3D{X: 385, Y: 320}
	h.Points[ThumbTip] = Point3D{X: 385, Y: 280}

	curlFinger(&h, IndexMCP, fixtureIndexX)
	curlFinger(&h, MiddleMCP, fixtureMiddleX)
	curlFinger(&h, RingMCP, fixtureRingX)
	curlFinger(&h, PinkyMCP, fixturePinkyX)
	return h
}

// OpenPalmLandmarks returns a preset hand with every finger extended.
// The thumb points out to the side and up.
func OpenPalmLandmarks() HandLandmarks {
	h := newFixtureHand()

	h.Points[ThumbCMC] = Point3D{X: 370, Y: 405}
	h.Points[ThumbMCP] = Point3D{X: 410, Y: 380}
	h.Points[ThumbIP] = Point3D{X: 445, Y: 360}
	h.Points[ThumbTip] = Point3D{X: 475, Y: 345}

	extendFinger(&h, IndexMCP, fixtureIndexX)
	extendFinger(&h, MiddleMCP, fixtureMiddleX)
	extendFinger(&h, RingMCP, fixtureRingX)
	extendFinger(&h, PinkyMCP, fixturePinkyX)
	return h
}

// FistLandmarks returns a preset hand with every finger curled.
func FistLandmarks() HandLandmarks {
	h := newFixtureHand()
	curlThumb(&h)
	curlFinger(&h, IndexMCP, fixtureIndexX)
	curlFinger(&h, MiddleMCP, fixtureMiddleX)
	curlFinger(&h, RingMCP, fixtureRingX)
	curlFinger(&h, PinkyMCP, fixturePinkyX)
	return h
}
