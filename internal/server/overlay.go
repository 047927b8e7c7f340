package server

import (
	"bytes"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
)

// maxOverlayWidth bounds the ?width= query on overlay images.
const maxOverlayWidth = 4096

// overlayWidth parses the optional ?width= query. Zero means native size.
func overlayWidth(r *http.Request) (int, error) {
	v := r.URL.Query().Get("width")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 || n > maxOverlayWidth {
		return 0, fmt.Errorf("invalid width %q", v)
	}
	return n, nil
}

// encodeOverlay encodes img as PNG, scaled to width when non-zero.
func encodeOverlay(img image.Image, width int) ([]byte, error) {
	if width > 0 && width != img.Bounds().Dx() {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// OverlayHandler serves the current skeleton overlay as a transparent PNG.
type OverlayHandler struct {
	pipeline Pipeline
}

// NewOverlayHandler creates a new OverlayHandler for the given pipeline.
func NewOverlayHandler(p Pipeline) *OverlayHandler {
	return &OverlayHandler{pipeline: p}
}

// ServeHTTP writes the overlay image.
func (h *OverlayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	width, err := overlayWidth(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	img, ok := h.pipeline.Overlay()
	if !ok {
		http.Error(w, "Overlay not available", http.StatusNotFound)
		return
	}

	data, err := encodeOverlay(img, width)
	if err != nil {
		http.Error(w, "Failed to encode overlay", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

// OverlayStreamHandler streams the overlay as multipart PNG frames, one per
// published detection.
type OverlayStreamHandler struct {
	pipeline Pipeline
}

// NewOverlayStreamHandler creates a new OverlayStreamHandler for the given pipeline.
func NewOverlayStreamHandler(p Pipeline) *OverlayStreamHandler {
	return &OverlayStreamHandler{pipeline: p}
}

// ServeHTTP streams frames until the client goes away or the loop stops.
func (h *OverlayStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	width, err := overlayWidth(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, ok := h.pipeline.Overlay(); !ok {
		http.Error(w, "Overlay not available", http.StatusNotFound)
		return
	}

	detections, unsubscribe := h.pipeline.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Send the current overlay first so clients never start blank.
	if !h.writeFrame(w, width) {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case _, ok := <-detections:
			if !ok {
				return
			}
			if !h.writeFrame(w, width) {
				return
			}
		}
	}
}

func (h *OverlayStreamHandler) writeFrame(w http.ResponseWriter, width int) bool {
	img, ok := h.pipeline.Overlay()
	if !ok {
		return false
	}
	data, err := encodeOverlay(img, width)
	if err != nil {
		return false
	}

	fmt.Fprintf(w, "--frame\r\n")
	fmt.Fprintf(w, "Content-Type: image/png\r\n")
	fmt.Fprintf(w, "X-Timestamp: %d\r\n", time.Now().UnixMilli())
	fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(data))
	if _, err := w.Write(data); err != nil {
		return false
	}
	fmt.Fprintf(w, "\r\n")

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return true
}
