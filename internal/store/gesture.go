package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName is returned when a gesture name is already taken.
	ErrDuplicateName = errors.New("gesture name already exists")
)

// Gesture represents a custom gesture template stored in the database.
// Definition holds the template as JSON; Position orders custom templates
// after the built-in ones for tie-breaking.
type Gesture struct {
	ID         string
	Name       string
	Emoji      string
	Asset      string
	Definition json.RawMessage
	Position   int
	Samples    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// GestureRepository provides CRUD operations for gestures.
type GestureRepository struct {
	db *sql.DB
}

// Gestures returns the gesture repository for this store.
func (s *Store) Gestures() *GestureRepository {
	return &GestureRepository{db: s.db}
}

const gestureColumns = `id, name, emoji, asset, definition, position, samples, created_at, updated_at`

// Create inserts a new gesture into the database.
// A zero Position places the gesture after every existing one.
func (r *GestureRepository) Create(g *Gesture) error {
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now

	if g.Position == 0 {
		var max sql.NullInt64
		if err := r.db.QueryRow(`SELECT MAX(position) FROM gestures`).Scan(&max); err != nil {
			return err
		}
		g.Position = int(max.Int64) + 1
	}

	_, err := r.db.Exec(
		`INSERT INTO gestures (`+gestureColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.Emoji, g.Asset, string(g.Definition), g.Position, g.Samples, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return err
	}

	return nil
}

// GetByID retrieves a gesture by its ID.
func (r *GestureRepository) GetByID(id string) (*Gesture, error) {
	return r.get(`SELECT `+gestureColumns+` FROM gestures WHERE id = ?`, id)
}

// GetByName retrieves a gesture by its name.
func (r *GestureRepository) GetByName(name string) (*Gesture, error) {
	return r.get(`SELECT `+gestureColumns+` FROM gestures WHERE name = ?`, name)
}

func (r *GestureRepository) get(query string, arg any) (*Gesture, error) {
	g, err := scanGesture(r.db.QueryRow(query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

// List retrieves all gestures in tie-break order.
func (r *GestureRepository) List() ([]*Gesture, error) {
	rows, err := r.db.Query(
		`SELECT ` + gestureColumns + ` FROM gestures ORDER BY position, created_at`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gestures []*Gesture
	for rows.Next() {
		g, err := scanGesture(rows)
		if err != nil {
			return nil, err
		}
		gestures = append(gestures, g)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return gestures, nil
}

// Update updates an existing gesture in the database.
func (r *GestureRepository) Update(g *Gesture) error {
	g.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE gestures SET name = ?, emoji = ?, asset = ?, definition = ?, position = ?, samples = ?, updated_at = ?
		 WHERE id = ?`,
		g.Name, g.Emoji, g.Asset, string(g.Definition), g.Position, g.Samples, g.UpdatedAt, g.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a gesture and its samples by ID.
func (r *GestureRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM gestures WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGesture(row rowScanner) (*Gesture, error) {
	g := &Gesture{}
	var definition string

	err := row.Scan(&g.ID, &g.Name, &g.Emoji, &g.Asset, &definition, &g.Position, &g.Samples, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}

	g.Definition = json.RawMessage(definition)
	return g, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
