package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/handpose/internal/app"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// landmarksMessage is one detection as sent to WebSocket clients.
type landmarksMessage struct {
	Seq       uint64       `json:"seq"`
	Timestamp int64        `json:"timestamp"`
	Hands     any          `json:"hands"`
	Gesture   *app.Gesture `json:"gesture"`
}

func toMessage(d app.Detection) landmarksMessage {
	m := landmarksMessage{
		Seq:       d.Seq,
		Timestamp: d.Timestamp.UnixMilli(),
		Hands:     d.Hands,
		Gesture:   d.Gesture,
	}
	if d.Hands == nil {
		m.Hands = []any{}
	}
	return m
}

// LandmarksHandler pushes every published detection to WebSocket clients.
type LandmarksHandler struct {
	pipeline Pipeline
}

// NewLandmarksHandler creates a new LandmarksHandler for the given pipeline.
func NewLandmarksHandler(p Pipeline) *LandmarksHandler {
	return &LandmarksHandler{pipeline: p}
}

// ServeHTTP upgrades the connection and streams detections until the client
// disconnects or the loop stops.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	detections, unsubscribe := h.pipeline.Subscribe()
	defer unsubscribe()

	// Read until the client goes away; incoming messages are ignored.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case d, ok := <-detections:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "detection stopped"))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(toMessage(d)); err != nil {
				return
			}
		}
	}
}
