package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Avatar represents an avatar model reference stored in the database.
type Avatar struct {
	ID        string
	Name      string
	ModelURL  string
	PoseScale float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AvatarRepository provides CRUD operations for avatars.
type AvatarRepository struct {
	db *sql.DB
}

// Avatars returns the avatar repository for this store.
func (s *Store) Avatars() *AvatarRepository {
	return &AvatarRepository{db: s.db}
}

// Create inserts a new avatar into the database.
func (r *AvatarRepository) Create(a *Avatar) error {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	if a.PoseScale <= 0 {
		a.PoseScale = 40
	}

	_, err := r.db.Exec(
		`INSERT INTO avatars (id, name, model_url, pose_scale, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.ModelURL, a.PoseScale, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

// GetByID retrieves an avatar by its ID.
func (r *AvatarRepository) GetByID(id string) (*Avatar, error) {
	a := &Avatar{}

	err := r.db.QueryRow(
		`SELECT id, name, model_url, pose_scale, created_at, updated_at
		 FROM avatars WHERE id = ?`,
		id,
	).Scan(&a.ID, &a.Name, &a.ModelURL, &a.PoseScale, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return a, nil
}

// GetByName retrieves an avatar by its name.
func (r *AvatarRepository) GetByName(name string) (*Avatar, error) {
	a := &Avatar{}

	err := r.db.QueryRow(
		`SELECT id, name, model_url, pose_scale, created_at, updated_at
		 FROM avatars WHERE name = ?`,
		name,
	).Scan(&a.ID, &a.Name, &a.ModelURL, &a.PoseScale, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return a, nil
}

// List retrieves all avatars from the database.
func (r *AvatarRepository) List() ([]*Avatar, error) {
	rows, err := r.db.Query(
		`SELECT id, name, model_url, pose_scale, created_at, updated_at
		 FROM avatars ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var avatars []*Avatar
	for rows.Next() {
		a := &Avatar{}
		if err := rows.Scan(&a.ID, &a.Name, &a.ModelURL, &a.PoseScale, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		avatars = append(avatars, a)
	}

	return avatars, rows.Err()
}

// Update modifies an existing avatar.
func (r *AvatarRepository) Update(a *Avatar) error {
	a.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE avatars SET name = ?, model_url = ?, pose_scale = ?, updated_at = ?
		 WHERE id = ?`,
		a.Name, a.ModelURL, a.PoseScale, a.UpdatedAt, a.ID,
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

// Delete removes an avatar by its ID.
func (r *AvatarRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM avatars WHERE id = ?`, id)
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
