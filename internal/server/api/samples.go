package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/handpose/internal/detector"
	"github.com/ayusman/handpose/internal/gesture"
	"github.com/ayusman/handpose/internal/store"
)

// SamplesHandler handles HTTP requests for gesture sample resources.
// Posting samples replaces the stored ones and retrains the template.
type SamplesHandler struct {
	store    *store.Store
	trainer  *gesture.Trainer
	onChange func()
}

// NewSamplesHandler creates a new SamplesHandler with the given store.
func NewSamplesHandler(s *store.Store, onChange func()) *SamplesHandler {
	return &SamplesHandler{
		store:    s,
		trainer:  gesture.NewTrainer(),
		onChange: onChange,
	}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/gestures/{id}/samples
func (h *SamplesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/gestures/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[1] != "samples" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	gestureID := parts[0]

	switch r.Method {
	case http.MethodGet:
		h.list(w, r, gestureID)
	case http.MethodPost:
		h.replace(w, r, gestureID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type replaceSamplesRequest struct {
	Samples []json.RawMessage `json:"samples"`
}

type listSamplesResponse struct {
	GestureID string                   `json:"gesture_id"`
	Samples   []detector.HandLandmarks `json:"samples"`
}

// list handles GET /api/gestures/{id}/samples
func (h *SamplesHandler) list(w http.ResponseWriter, r *http.Request, gestureID string) {
	if _, err := h.store.Gestures().GetByID(gestureID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get gesture")
		return
	}

	samples, err := h.store.Samples().GetByGestureID(gestureID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}
	if samples == nil {
		samples = []detector.HandLandmarks{}
	}

	writeJSON(w, http.StatusOK, listSamplesResponse{GestureID: gestureID, Samples: samples})
}

// replace handles POST /api/gestures/{id}/samples
func (h *SamplesHandler) replace(w http.ResponseWriter, r *http.Request, gestureID string) {
	if _, ok := builtin(gestureID); ok {
		writeError(w, http.StatusForbidden, "Built-in gestures are read-only")
		return
	}

	g, err := h.store.Gestures().GetByID(gestureID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get gesture")
		return
	}

	var req replaceSamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "At least one sample is required")
		return
	}

	samples, err := h.trainer.ParseSamples(req.Samples)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tmpl, err := h.trainer.Train(g.Name, samples)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tmpl.Emoji = g.Emoji
	tmpl.Asset = g.Asset

	definition, err := json.Marshal(tmpl)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode gesture")
		return
	}
	g.Definition = definition

	if err := h.store.Gestures().Update(g); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update gesture")
		return
	}
	if err := h.store.Samples().Replace(g.ID, samples); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save samples")
		return
	}
	g.Samples = len(samples)

	if h.onChange != nil {
		h.onChange()
	}
	writeJSON(w, http.StatusCreated, toResponse(g))
}
