package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ayusman/handpose/internal/detector"
)

// SampleRepository stores the recorded hands a custom gesture was trained from.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Replace stores hands as the samples of a gesture, dropping any previous
// ones, and updates the gesture's sample count in the same transaction.
func (r *SampleRepository) Replace(gestureID string, hands []detector.HandLandmarks) error {
	return withTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM gesture_samples WHERE gesture_id = ?`, gestureID); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`INSERT INTO gesture_samples (gesture_id, sample_index, data) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, h := range hands {
			data, err := json.Marshal(h)
			if err != nil {
				return fmt.Errorf("encode sample %d: %w", i, err)
			}
			if _, err := stmt.Exec(gestureID, i, string(data)); err != nil {
				return err
			}
		}

		result, err := tx.Exec(`UPDATE gestures SET samples = ?, updated_at = ? WHERE id = ?`,
			len(hands), time.Now(), gestureID)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// GetByGestureID retrieves the samples of a gesture in recording order.
func (r *SampleRepository) GetByGestureID(gestureID string) ([]detector.HandLandmarks, error) {
	rows, err := r.db.Query(
		`SELECT data FROM gesture_samples
		 WHERE gesture_id = ?
		 ORDER BY sample_index`,
		gestureID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hands []detector.HandLandmarks
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var h detector.HandLandmarks
		if err := json.Unmarshal([]byte(data), &h); err != nil {
			return nil, fmt.Errorf("decode sample %d: %w", len(hands), err)
		}
		hands = append(hands, h)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return hands, nil
}
