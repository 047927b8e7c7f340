package store

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ayusman/handpose/internal/detector"
)

// newTestStore creates a new Store in a temporary directory for testing.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

const testDefinition = `{"name":"point","fingers":[{"finger":"index","curls":[{"curl":"none","confidence":1}]}]}`

func newTestGesture(id, name string) *Gesture {
	return &Gesture{
		ID:         id,
		Name:       name,
		Emoji:      "👉",
		Asset:      name + ".png",
		Definition: json.RawMessage(testDefinition),
	}
}

func TestGestureRepository_Create(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	gesture := newTestGesture("test-gesture-1", "point")

	if err := repo.Create(gesture); err != nil {
		t.Fatalf("failed to create gesture: %v", err)
	}

	// Verify CreatedAt, UpdatedAt and Position are set
	if gesture.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set after create")
	}
	if gesture.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set after create")
	}
	if gesture.Position != 1 {
		t.Errorf("Position = %d, want 1", gesture.Position)
	}

	retrieved, err := repo.GetByID("test-gesture-1")
	if err != nil {
		t.Fatalf("failed to get gesture: %v", err)
	}

	if retrieved.Name != "point" {
		t.Errorf("Name = %q, want %q", retrieved.Name, "point")
	}
	if retrieved.Emoji != "👉" {
		t.Errorf("Emoji = %q, want %q", retrieved.Emoji, "👉")
	}
	if retrieved.Asset != "point.png" {
		t.Errorf("Asset = %q, want %q", retrieved.Asset, "point.png")
	}
	if string(retrieved.Definition) != testDefinition {
		t.Errorf("Definition = %s, want %s", retrieved.Definition, testDefinition)
	}

	byName, err := repo.GetByName("point")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if byName.ID != "test-gesture-1" {
		t.Errorf("GetByName() ID = %q, want %q", byName.ID, "test-gesture-1")
	}
}

func TestGestureRepository_Create_DuplicateName(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	if err := repo.Create(newTestGesture("g1", "point")); err != nil {
		t.Fatalf("failed to create first gesture: %v", err)
	}

	err := repo.Create(newTestGesture("g2", "point"))
	if !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestGestureRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	// Empty list
	gestures, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(gestures) != 0 {
		t.Errorf("expected 0 gestures, got %d", len(gestures))
	}

	for _, g := range []*Gesture{
		newTestGesture("g1", "first"),
		newTestGesture("g2", "second"),
		newTestGesture("g3", "third"),
	} {
		if err := repo.Create(g); err != nil {
			t.Fatalf("failed to create gesture: %v", err)
		}
	}

	gestures, err = repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := []string{"first", "second", "third"}
	if len(gestures) != len(want) {
		t.Fatalf("expected %d gestures, got %d", len(want), len(gestures))
	}
	for i, g := range gestures {
		if g.Name != want[i] {
			t.Errorf("gestures[%d].Name = %q, want %q", i, g.Name, want[i])
		}
		if g.Position != i+1 {
			t.Errorf("gestures[%d].Position = %d, want %d", i, g.Position, i+1)
		}
	}
}

func TestGestureRepository_List_ExplicitPosition(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	late := newTestGesture("g1", "late")
	late.Position = 10
	early := newTestGesture("g2", "early")
	early.Position = 5

	repo.Create(late)
	repo.Create(early)

	gestures, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(gestures) != 2 || gestures[0].Name != "early" || gestures[1].Name != "late" {
		t.Errorf("List() did not order by position: %v, %v", gestures[0].Name, gestures[1].Name)
	}
}

func TestGestureRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	repo.Create(newTestGesture("g1", "point"))
	if err := s.Samples().Replace("g1", []detector.HandLandmarks{detector.VictoryLandmarks()}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	if err := repo.Delete("g1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := repo.GetByID("g1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Samples are removed with their gesture
	hands, err := s.Samples().GetByGestureID("g1")
	if err != nil {
		t.Fatalf("GetByGestureID() error = %v", err)
	}
	if len(hands) != 0 {
		t.Errorf("expected samples to cascade, got %d", len(hands))
	}
}

func TestGestureRepository_NotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	if err := repo.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByName("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByName() error = %v, want ErrNotFound", err)
	}
	if err := repo.Update(newTestGesture("missing", "missing")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestGestureRepository_Update(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	g := newTestGesture("g1", "point")
	repo.Create(g)
	originalUpdatedAt := g.UpdatedAt

	g.Name = "pointing"
	g.Emoji = "☝️"
	if err := repo.Update(g); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !g.UpdatedAt.After(originalUpdatedAt) && !g.UpdatedAt.Equal(originalUpdatedAt) {
		t.Error("UpdatedAt should not go backwards")
	}

	retrieved, err := repo.GetByID("g1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if retrieved.Name != "pointing" || retrieved.Emoji != "☝️" {
		t.Errorf("update not persisted: %+v", retrieved)
	}

	repo.Create(newTestGesture("g2", "other"))
	g.Name = "other"
	if err := repo.Update(g); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName renaming onto another gesture, got %v", err)
	}
}

func TestSampleRepository_Replace(t *testing.T) {
	s := newTestStore(t)
	s.Gestures().Create(newTestGesture("g1", "victory2"))

	hands := []detector.HandLandmarks{detector.VictoryLandmarks(), detector.OpenPalmLandmarks()}
	if err := s.Samples().Replace("g1", hands); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	got, err := s.Samples().GetByGestureID("g1")
	if err != nil {
		t.Fatalf("GetByGestureID() error = %v", err)
	}
	if len(got) != 2 || got[0] != hands[0] || got[1] != hands[1] {
		t.Errorf("GetByGestureID() returned unexpected samples")
	}

	g, _ := s.Gestures().GetByID("g1")
	if g.Samples != 2 {
		t.Errorf("Samples = %d, want 2", g.Samples)
	}

	// Replacing drops the old samples
	if err := s.Samples().Replace("g1", hands[:1]); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	got, _ = s.Samples().GetByGestureID("g1")
	if len(got) != 1 {
		t.Errorf("expected 1 sample after replace, got %d", len(got))
	}
}

func TestSampleRepository_Replace_UnknownGesture(t *testing.T) {
	s := newTestStore(t)

	err := s.Samples().Replace("missing", []detector.HandLandmarks{detector.FistLandmarks()})
	if err == nil {
		t.Error("expected error for unknown gesture")
	}
}

func TestSettingsRepository(t *testing.T) {
	s := newTestStore(t)
	settings := s.Settings()

	if _, err := settings.Get(SettingEnabled); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on missing key error = %v, want ErrNotFound", err)
	}
	if !settings.GetBool(SettingEnabled, true) {
		t.Error("GetBool() should return the default for a missing key")
	}

	if err := settings.SetBool(SettingEnabled, false); err != nil {
		t.Fatalf("SetBool() error = %v", err)
	}
	if settings.GetBool(SettingEnabled, true) {
		t.Error("GetBool() = true after SetBool(false)")
	}

	if err := settings.Set(SettingEnabled, "not-a-bool"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !settings.GetBool(SettingEnabled, true) {
		t.Error("GetBool() should fall back to the default for an unparsable value")
	}
}
