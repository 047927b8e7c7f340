// Package api provides HTTP API handlers for gesture templates.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/handpose/internal/gesture"
	"github.com/ayusman/handpose/internal/store"
)

// GestureHandler handles HTTP requests for gesture resources.
// Built-in templates are listed alongside custom ones but are read-only.
type GestureHandler struct {
	store    *store.Store
	trainer  *gesture.Trainer
	onChange func()
}

// NewGestureHandler creates a new GestureHandler with the given store.
// onChange, if set, is called after custom templates are added, changed or removed.
func NewGestureHandler(s *store.Store, onChange func()) *GestureHandler {
	return &GestureHandler{
		store:    s,
		trainer:  gesture.NewTrainer(),
		onChange: onChange,
	}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/gestures or /api/gestures/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/gestures")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createGestureRequest struct {
	Name    string                      `json:"name"`
	Emoji   string                      `json:"emoji"`
	Asset   string                      `json:"asset"`
	Fingers []gesture.FingerExpectation `json:"fingers"`
	Samples []json.RawMessage           `json:"samples"`
}

type updateGestureRequest struct {
	Name    string                      `json:"name"`
	Emoji   string                      `json:"emoji"`
	Asset   string                      `json:"asset"`
	Fingers []gesture.FingerExpectation `json:"fingers"`
}

type gestureResponse struct {
	ID        string                      `json:"id"`
	Name      string                      `json:"name"`
	Emoji     string                      `json:"emoji,omitempty"`
	Asset     string                      `json:"asset,omitempty"`
	Builtin   bool                        `json:"builtin"`
	Fingers   []gesture.FingerExpectation `json:"fingers"`
	Samples   int                         `json:"samples"`
	CreatedAt string                      `json:"created_at,omitempty"`
	UpdatedAt string                      `json:"updated_at,omitempty"`
}

type listGesturesResponse struct {
	Gestures []gestureResponse `json:"gestures"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func builtinResponse(t *gesture.Template) gestureResponse {
	return gestureResponse{
		ID:      t.ID,
		Name:    t.Name,
		Emoji:   t.Emoji,
		Asset:   t.Asset,
		Builtin: true,
		Fingers: t.Fingers,
	}
}

// toResponse converts a store.Gesture to a gestureResponse.
func toResponse(g *store.Gesture) gestureResponse {
	resp := gestureResponse{
		ID:        g.ID,
		Name:      g.Name,
		Emoji:     g.Emoji,
		Asset:     g.Asset,
		Samples:   g.Samples,
		CreatedAt: g.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: g.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if t, err := gesture.ParseTemplate(g.Definition); err == nil {
		resp.Fingers = t.Fingers
	}
	return resp
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// builtin returns the built-in template with the given id or name.
func builtin(key string) (*gesture.Template, bool) {
	for _, t := range gesture.MustLibrary() {
		if t.ID == key || t.Name == key {
			return t, true
		}
	}
	return nil, false
}

func (h *GestureHandler) changed() {
	if h.onChange != nil {
		h.onChange()
	}
}

// list handles GET /api/gestures and returns built-in then custom gestures
// in tie-break order.
func (h *GestureHandler) list(w http.ResponseWriter, r *http.Request) {
	gestures, err := h.store.Gestures().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list gestures")
		return
	}

	library := gesture.MustLibrary()
	response := listGesturesResponse{
		Gestures: make([]gestureResponse, 0, len(library)+len(gestures)),
	}

	for _, t := range library {
		response.Gestures = append(response.Gestures, builtinResponse(t))
	}
	for _, g := range gestures {
		response.Gestures = append(response.Gestures, toResponse(g))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/gestures/{id} and returns a single gesture.
func (h *GestureHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	if t, ok := builtin(id); ok && t.ID == id {
		writeJSON(w, http.StatusOK, builtinResponse(t))
		return
	}

	g, err := h.store.Gestures().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get gesture")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(g))
}

// create handles POST /api/gestures. The template comes either from explicit
// finger expectations or is trained from recorded sample hands.
func (h *GestureHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createGestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if _, ok := builtin(req.Name); ok {
		writeError(w, http.StatusConflict, "Name is taken by a built-in gesture")
		return
	}

	var tmpl *gesture.Template
	samples, err := h.trainer.ParseSamples(req.Samples)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch {
	case len(samples) > 0:
		tmpl, err = h.trainer.Train(req.Name, samples)
	case len(req.Fingers) > 0:
		tmpl = &gesture.Template{Name: req.Name, Fingers: req.Fingers}
		err = tmpl.Validate()
	default:
		writeError(w, http.StatusBadRequest, "Either fingers or samples are required")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tmpl.Emoji = req.Emoji
	tmpl.Asset = req.Asset

	definition, err := json.Marshal(tmpl)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode gesture")
		return
	}

	g := &store.Gesture{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Emoji:      req.Emoji,
		Asset:      req.Asset,
		Definition: definition,
	}

	if err := h.store.Gestures().Create(g); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			writeError(w, http.StatusConflict, "Gesture name already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create gesture")
		return
	}

	if len(samples) > 0 {
		if err := h.store.Samples().Replace(g.ID, samples); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save samples")
			return
		}
		g.Samples = len(samples)
	}

	h.changed()
	writeJSON(w, http.StatusCreated, toResponse(g))
}

// update handles PUT /api/gestures/{id} and updates a custom gesture.
func (h *GestureHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := builtin(id); ok {
		writeError(w, http.StatusForbidden, "Built-in gestures are read-only")
		return
	}

	g, err := h.store.Gestures().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get gesture")
		return
	}

	var req updateGestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" && req.Name != g.Name {
		if _, ok := builtin(req.Name); ok {
			writeError(w, http.StatusConflict, "Name is taken by a built-in gesture")
			return
		}
		g.Name = req.Name
	}
	if req.Emoji != "" {
		g.Emoji = req.Emoji
	}
	if req.Asset != "" {
		g.Asset = req.Asset
	}
	if len(req.Fingers) > 0 {
		tmpl := &gesture.Template{Name: g.Name, Fingers: req.Fingers}
		if err := tmpl.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		definition, err := json.Marshal(tmpl)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to encode gesture")
			return
		}
		g.Definition = definition
	}

	if err := h.store.Gestures().Update(g); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			writeError(w, http.StatusConflict, "Gesture name already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update gesture")
		return
	}

	h.changed()
	writeJSON(w, http.StatusOK, toResponse(g))
}

// delete handles DELETE /api/gestures/{id} and removes a custom gesture.
func (h *GestureHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := builtin(id); ok {
		writeError(w, http.StatusForbidden, "Built-in gestures are read-only")
		return
	}

	err := h.store.Gestures().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete gesture")
		return
	}

	h.changed()
	w.WriteHeader(http.StatusNoContent)
}
