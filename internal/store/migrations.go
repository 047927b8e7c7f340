package store

import (
	"database/sql"
	"fmt"
)

// migrations are applied in order; the schema version stored in
// PRAGMA user_version is the number already applied.
var migrations = [][]string{
	// 1: custom gestures and the hands they were derived from
	{
		`CREATE TABLE IF NOT EXISTS gestures (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			emoji TEXT NOT NULL DEFAULT '',
			asset TEXT NOT NULL DEFAULT '',
			definition TEXT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			samples INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS gesture_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gesture_id TEXT NOT NULL REFERENCES gestures(id) ON DELETE CASCADE,
			sample_index INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_gestures_position ON gestures(position)`,
		`CREATE INDEX IF NOT EXISTS idx_gesture_samples_gesture_id ON gesture_samples(gesture_id)`,
	},
	// 2: key-value settings, such as whether detection is enabled
	{
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	},
}

// SchemaVersion returns the number of migrations applied to the database.
func (s *Store) SchemaVersion() (int, error) {
	var v int
	if err := s.db.QueryRow(`PRAGMA user_version`).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// runMigrations applies the migrations newer than the stored schema version,
// each in its own transaction.
func (s *Store) runMigrations() error {
	current, err := s.SchemaVersion()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, len(migrations))
	}

	for i := current; i < len(migrations); i++ {
		version := i + 1
		err := withTx(s.db, func(tx *sql.Tx) error {
			for _, stmt := range migrations[i] {
				if _, err := tx.Exec(stmt); err != nil {
					return err
				}
			}
			// PRAGMA does not take bind parameters.
			_, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, version))
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d: %w", version, err)
		}
	}

	return nil
}
