package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ayusman/handpose/internal/app"
	"github.com/ayusman/handpose/internal/gesture"
	"github.com/ayusman/handpose/internal/store"
)

// fakePipeline is an in-memory Pipeline for handler tests.
type fakePipeline struct {
	mu         sync.Mutex
	snapshot   app.Snapshot
	overlay    image.Image
	classifier *gesture.Classifier
	subs       []chan app.Detection
}

func newFakePipeline() *fakePipeline {
	return &fakePipeline{
		snapshot:   app.Snapshot{State: app.StateRunning, Enabled: true},
		classifier: gesture.NewClassifier(gesture.MustLibrary(), 8),
	}
}

func (f *fakePipeline) Snapshot() app.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot
}

func (f *fakePipeline) Overlay() (image.Image, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overlay, f.overlay != nil
}

func (f *fakePipeline) Subscribe() (<-chan app.Detection, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan app.Detection, 4)
	f.subs = append(f.subs, ch)
	return ch, func() {}
}

func (f *fakePipeline) publish(d app.Detection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		ch <- d
	}
}

func (f *fakePipeline) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakePipeline) SetEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot.Enabled = enabled
}

func (f *fakePipeline) IsEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot.Enabled
}

func (f *fakePipeline) Classifier() *gesture.Classifier {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.classifier
}

func (f *fakePipeline) SetClassifier(c *gesture.Classifier) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classifier = c
}

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}

		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/api/nonexistent", "/api/state", "/api/gestures", "/api/overlay.png"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusNotFound, rec.Code)
		}
	}
}

func TestServer_StaticFiles(t *testing.T) {
	tmpDir := t.TempDir()

	testContent := "<html><body>Hello, World!</body></html>"
	if err := os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	s := New(Config{StaticDir: tmpDir})

	t.Run("serves index.html at root path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		if rec.Body.String() != testContent {
			t.Errorf("expected body %q, got %q", testContent, rec.Body.String())
		}
	})

	t.Run("returns 404 for non-existent static files", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nonexistent.html", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestServer_State(t *testing.T) {
	p := newFakePipeline()
	p.snapshot.Detection = app.Detection{
		Seq:     3,
		Gesture: &app.Gesture{Name: "victory", Emoji: "✌️", Score: 9.5},
	}
	s := New(Config{Pipeline: p})

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response struct {
		State     string `json:"state"`
		Enabled   bool   `json:"enabled"`
		Detection struct {
			Seq     uint64 `json:"seq"`
			Gesture *struct {
				Name  string  `json:"name"`
				Score float64 `json:"score"`
			} `json:"gesture"`
		} `json:"detection"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.State != "running" || !response.Enabled {
		t.Errorf("unexpected state %q enabled=%v", response.State, response.Enabled)
	}
	if response.Detection.Seq != 3 || response.Detection.Gesture == nil || response.Detection.Gesture.Name != "victory" {
		t.Errorf("unexpected detection: %+v", response.Detection)
	}
}

func TestServer_Enabled(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer st.Close()

	p := newFakePipeline()
	s := New(Config{Pipeline: p, Store: st})

	req := httptest.NewRequest(http.MethodPut, "/api/enabled", bytes.NewBufferString(`{"enabled": false}`))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if p.IsEnabled() {
		t.Error("expected pipeline to be disabled")
	}
	if st.Settings().GetBool(store.SettingEnabled, true) {
		t.Error("expected disabled setting to be persisted")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/enabled", nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	var response enabledResponse
	json.NewDecoder(rec.Body).Decode(&response)
	if response.Enabled {
		t.Error("expected GET to report disabled")
	}

	for _, body := range []string{`{}`, `{"enabled": "yes"}`, `nope`} {
		req := httptest.NewRequest(http.MethodPut, "/api/enabled", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected status %d, got %d", body, http.StatusBadRequest, rec.Code)
		}
	}
}

func testOverlay() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 48))
	img.Set(10, 10, color.NRGBA{R: 255, A: 255})
	return img
}

func TestServer_Overlay(t *testing.T) {
	p := newFakePipeline()
	s := New(Config{Pipeline: p})

	t.Run("not available", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/overlay.png", nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})

	p.overlay = testOverlay()

	tests := []struct {
		query         string
		status        int
		width, height int
	}{
		{"", http.StatusOK, 64, 48},
		{"?width=32", http.StatusOK, 32, 24},
		{"?width=0", http.StatusBadRequest, 0, 0},
		{"?width=abc", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run("query "+tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/overlay.png"+tt.query, nil)
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}
			if tt.status != http.StatusOK {
				return
			}
			if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
				t.Errorf("expected Content-Type image/png, got %s", ct)
			}
			img, err := png.Decode(rec.Body)
			if err != nil {
				t.Fatalf("failed to decode png: %v", err)
			}
			if b := img.Bounds(); b.Dx() != tt.width || b.Dy() != tt.height {
				t.Errorf("expected %dx%d, got %dx%d", tt.width, tt.height, b.Dx(), b.Dy())
			}
		})
	}
}

func TestServer_ReloadTemplates(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer st.Close()

	p := newFakePipeline()
	s := New(Config{Pipeline: p, Store: st})

	body := `{"name": "point", "fingers": [{"finger": "index", "curls": [{"curl": "none", "confidence": 1}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/gestures", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	c := p.Classifier()
	templates := c.Templates()
	if len(templates) != len(gesture.MustLibrary())+1 {
		t.Fatalf("expected classifier to gain the new template, got %d templates", len(templates))
	}
	if templates[len(templates)-1].Name != "point" {
		t.Errorf("expected custom template last, got %q", templates[len(templates)-1].Name)
	}
	if c.Threshold() != 8 {
		t.Errorf("expected threshold to be kept, got %v", c.Threshold())
	}
}

func TestNew(t *testing.T) {
	t.Run("creates server with config", func(t *testing.T) {
		cfg := Config{StaticDir: "/some/path"}
		s := New(cfg)

		if s == nil {
			t.Fatal("expected non-nil server")
		}

		if s.config.StaticDir != cfg.StaticDir {
			t.Errorf("expected StaticDir %s, got %s", cfg.StaticDir, s.config.StaticDir)
		}
	})

	t.Run("server implements http.Handler", func(t *testing.T) {
		s := New(Config{})
		var _ http.Handler = s
	})

	t.Run("app satisfies Pipeline", func(t *testing.T) {
		var _ Pipeline = (*app.App)(nil)
	})
}
