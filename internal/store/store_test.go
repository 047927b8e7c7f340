package store

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ayusman/handpose/internal/detector"
)

func TestNew_CreatesDataDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "data", "handpose.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestNew_AppliesAllMigrations(t *testing.T) {
	s := newTestStore(t)

	v, err := s.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if v != len(migrations) {
		t.Errorf("SchemaVersion() = %d, want %d", v, len(migrations))
	}

	for _, table := range []string{"gestures", "gesture_samples", "settings"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q missing: %v", table, err)
		}
	}
}

func TestNew_UpgradesOlderSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "old.db")

	// A database written before the settings table existed.
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, stmt := range migrations[0] {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed schema: %v", err)
		}
	}
	if _, err := db.Exec(`PRAGMA user_version = 1`); err != nil {
		t.Fatalf("seed version: %v", err)
	}
	if _, err := db.Exec(
		`INSERT INTO gestures (id, name, definition, position) VALUES ('g1', 'point', ?, 0)`,
		testDefinition,
	); err != nil {
		t.Fatalf("seed gesture: %v", err)
	}
	db.Close()

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	if v, _ := s.SchemaVersion(); v != len(migrations) {
		t.Errorf("SchemaVersion() = %d after upgrade, want %d", v, len(migrations))
	}
	if err := s.Settings().SetBool(SettingEnabled, false); err != nil {
		t.Errorf("settings unusable after upgrade: %v", err)
	}
	if _, err := s.Gestures().GetByName("point"); err != nil {
		t.Errorf("existing gesture lost in upgrade: %v", err)
	}
}

func TestNew_RejectsNewerSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "future.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec(`PRAGMA user_version = 99`); err != nil {
		t.Fatalf("seed version: %v", err)
	}
	db.Close()

	if s, err := New(dbPath); err == nil {
		s.Close()
		t.Fatal("New() accepted a schema from a newer version")
	}
}

func TestStore_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "handpose.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	first, second := newTestGesture("g1", "point"), newTestGesture("g2", "pinch")
	for _, g := range []*Gesture{first, second} {
		if err := s.Gestures().Create(g); err != nil {
			t.Fatalf("Create(%s) error = %v", g.Name, err)
		}
	}
	if err := s.Settings().SetBool(SettingEnabled, false); err != nil {
		t.Fatalf("SetBool() error = %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	list, err := s.Gestures().List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].Name != "point" || list[1].Name != "pinch" {
		t.Errorf("List() after reopen = %v, want point then pinch", names(list))
	}
	if s.Settings().GetBool(SettingEnabled, true) {
		t.Error("enabled setting lost on reopen")
	}
}

func TestStore_DeleteCascadesToSamples(t *testing.T) {
	s := newTestStore(t)

	g := newTestGesture("g1", "point")
	if err := s.Gestures().Create(g); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	hands := []detector.HandLandmarks{detector.FistLandmarks(), detector.FistLandmarks()}
	if err := s.Samples().Replace(g.ID, hands); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	if err := s.Gestures().Delete(g.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var n int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM gesture_samples`).Scan(&n); err != nil {
		t.Fatalf("count samples: %v", err)
	}
	if n != 0 {
		t.Errorf("%d samples left after deleting their gesture", n)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	boom := errors.New("boom")

	err := withTx(s.DB(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO settings (key, value) VALUES ('k', 'v')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("withTx() error = %v, want boom", err)
	}

	if _, err := s.Settings().Get("k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after rollback error = %v, want ErrNotFound", err)
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if _, err := s.DB().Exec("SELECT 1"); err == nil {
		t.Error("queries should fail after Close")
	}
}

func names(gestures []*Gesture) []string {
	out := make([]string, len(gestures))
	for i, g := range gestures {
		out[i] = g.Name
	}
	return out
}
