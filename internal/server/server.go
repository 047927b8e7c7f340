// Package server provides the HTTP server for the handpose detection loop.
package server

import (
	"encoding/json"
	"image"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/handpose/internal/app"
	"github.com/ayusman/handpose/internal/gesture"
	"github.com/ayusman/handpose/internal/server/api"
	"github.com/ayusman/handpose/internal/store"
)

// Pipeline is the part of the detection loop the server reads and controls.
// *app.App satisfies it.
type Pipeline interface {
	Snapshot() app.Snapshot
	Overlay() (image.Image, bool)
	Subscribe() (<-chan app.Detection, func())
	SetEnabled(enabled bool)
	IsEnabled() bool
	Classifier() *gesture.Classifier
	SetClassifier(c *gesture.Classifier)
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Pipeline  Pipeline
}

// Server represents the HTTP server for the handpose application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Register gesture API handler if Store is configured
	if s.config.Store != nil {
		gestureHandler := api.NewGestureHandler(s.config.Store, s.reloadTemplates)
		samplesHandler := api.NewSamplesHandler(s.config.Store, s.reloadTemplates)

		// Use a wrapper to route between gestures and samples handlers
		gestureRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/samples") {
				samplesHandler.ServeHTTP(w, r)
				return
			}
			gestureHandler.ServeHTTP(w, r)
		})

		s.mux.Handle("/api/gestures", gestureRouter)
		s.mux.Handle("/api/gestures/", gestureRouter)
	}

	if s.config.Pipeline != nil {
		s.mux.HandleFunc("/api/state", s.handleState)
		s.mux.HandleFunc("/api/enabled", s.handleEnabled)
		s.mux.Handle("/api/overlay.png", NewOverlayHandler(s.config.Pipeline))
		s.mux.Handle("/api/overlay/stream", NewOverlayStreamHandler(s.config.Pipeline))
		s.mux.Handle("/api/landmarks", NewLandmarksHandler(s.config.Pipeline))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// reloadTemplates rebuilds the classifier from the library and the store,
// keeping the current threshold.
func (s *Server) reloadTemplates() {
	if s.config.Pipeline == nil {
		return
	}
	templates, err := app.LoadTemplates(s.config.Store)
	if err != nil {
		log.Printf("Error reloading gestures: %v", err)
		return
	}
	threshold := gesture.DefaultThreshold
	if c := s.config.Pipeline.Classifier(); c != nil {
		threshold = c.Threshold()
	}
	s.config.Pipeline.SetClassifier(gesture.NewClassifier(templates, threshold))
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	writeJSON(w, http.StatusOK, response)
}

// handleState handles GET /api/state and returns the loop snapshot.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.config.Pipeline.Snapshot())
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

type enabledResponse struct {
	Enabled bool `json:"enabled"`
}

// handleEnabled reads or sets whether detection runs. A change is persisted
// when a store is configured.
func (s *Server) handleEnabled(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, enabledResponse{Enabled: s.config.Pipeline.IsEnabled()})
	case http.MethodPut:
		var req enabledRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "enabled is required"})
			return
		}
		s.config.Pipeline.SetEnabled(*req.Enabled)
		if s.config.Store != nil {
			if err := s.config.Store.Settings().SetBool(store.SettingEnabled, *req.Enabled); err != nil {
				log.Printf("Error saving setting %s: %v", store.SettingEnabled, err)
			}
		}
		writeJSON(w, http.StatusOK, enabledResponse{Enabled: *req.Enabled})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
