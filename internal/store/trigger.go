package store

import (
	"database/sql"
	"errors"
	"time"
)

// Trigger represents an expression threshold trigger stored in the database.
// A trigger fires when the named blendshape's retargeted weight stays at or
// above the threshold for the configured number of consecutive frames.
type Trigger struct {
	ID         string
	Name       string
	Blendshape string
	Threshold  float64
	HoldFrames int
	CooldownMs int
	Enabled    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TriggerRepository provides CRUD operations for triggers.
type TriggerRepository struct {
	db *sql.DB
}

// Triggers returns the trigger repository for this store.
func (s *Store) Triggers() *TriggerRepository {
	return &TriggerRepository{db: s.db}
}

// Create inserts a new trigger into the database.
func (r *TriggerRepository) Create(t *Trigger) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO triggers (id, name, blendshape, threshold, hold_frames, cooldown_ms, enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Blendshape, t.Threshold, t.HoldFrames, t.CooldownMs, t.Enabled, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

// GetByID retrieves a trigger by its ID.
func (r *TriggerRepository) GetByID(id string) (*Trigger, error) {
	t := &Trigger{}
	var enabled int

	err := r.db.QueryRow(
		`SELECT id, name, blendshape, threshold, hold_frames, cooldown_ms, enabled, created_at, updated_at
		 FROM triggers WHERE id = ?`,
		id,
	).Scan(&t.ID, &t.Name, &t.Blendshape, &t.Threshold, &t.HoldFrames, &t.CooldownMs, &enabled, &t.CreatedAt, &t.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	t.Enabled = enabled != 0
	return t, nil
}

// List retrieves all triggers from the database.
func (r *TriggerRepository) List() ([]*Trigger, error) {
	rows, err := r.db.Query(
		`SELECT id, name, blendshape, threshold, hold_frames, cooldown_ms, enabled, created_at, updated_at
		 FROM triggers ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triggers []*Trigger
	for rows.Next() {
		t := &Trigger{}
		var enabled int
		if err := rows.Scan(&t.ID, &t.Name, &t.Blendshape, &t.Threshold, &t.HoldFrames, &t.CooldownMs, &enabled, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.Enabled = enabled != 0
		triggers = append(triggers, t)
	}

	return triggers, rows.Err()
}

// Update modifies an existing trigger.
func (r *TriggerRepository) Update(t *Trigger) error {
	t.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE triggers SET name = ?, blendshape = ?, threshold = ?, hold_frames = ?, cooldown_ms = ?, enabled = ?, updated_at = ?
		 WHERE id = ?`,
		t.Name, t.Blendshape, t.Threshold, t.HoldFrames, t.CooldownMs, t.Enabled, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a trigger by its ID. Bound actions cascade.
func (r *TriggerRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM triggers WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
