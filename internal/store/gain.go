package store

import (
	"database/sql"
	"errors"
	"time"
)

// GainRule represents one row of the retargeting gain table. Rules are
// evaluated in ascending priority order; the first category that appears as a
// substring of a blendshape name wins.
type GainRule struct {
	ID         string
	Category   string
	Multiplier float64
	Priority   int
	CreatedAt  time.Time
}

// GainRuleRepository provides CRUD operations for gain rules.
type GainRuleRepository struct {
	db *sql.DB
}

// GainRules returns the gain rule repository for this store.
func (s *Store) GainRules() *GainRuleRepository {
	return &GainRuleRepository{db: s.db}
}

// Create inserts a new gain rule into the database.
func (r *GainRuleRepository) Create(g *GainRule) error {
	g.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO gain_rules (id, category, multiplier, priority, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		g.ID, g.Category, g.Multiplier, g.Priority, g.CreatedAt,
	)
	return err
}

// GetByID retrieves a gain rule by its ID.
func (r *GainRuleRepository) GetByID(id string) (*GainRule, error) {
	g := &GainRule{}

	err := r.db.QueryRow(
		`SELECT id, category, multiplier, priority, created_at
		 FROM gain_rules WHERE id = ?`,
		id,
	).Scan(&g.ID, &g.Category, &g.Multiplier, &g.Priority, &g.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return g, nil
}

// List retrieves all gain rules ordered by priority.
func (r *GainRuleRepository) List() ([]*GainRule, error) {
	rows, err := r.db.Query(
		`SELECT id, category, multiplier, priority, created_at
		 FROM gain_rules ORDER BY priority ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*GainRule
	for rows.Next() {
		g := &GainRule{}
		if err := rows.Scan(&g.ID, &g.Category, &g.Multiplier, &g.Priority, &g.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, g)
	}

	return rules, rows.Err()
}

// Update modifies an existing gain rule.
func (r *GainRuleRepository) Update(g *GainRule) error {
	result, err := r.db.Exec(
		`UPDATE gain_rules SET category = ?, multiplier = ?, priority = ? WHERE id = ?`,
		g.Category, g.Multiplier, g.Priority, g.ID,
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

// Delete removes a gain rule by its ID.
func (r *GainRuleRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM gain_rules WHERE id = ?`, id)
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

// Replace swaps the entire gain table for the given rules in one transaction,
// assigning priorities from slice order.
func (r *GainRuleRepository) Replace(rules []*GainRule) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM gain_rules`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO gain_rules (id, category, multiplier, priority, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for i, g := range rules {
		g.Priority = i
		g.CreatedAt = now
		if _, err := stmt.Exec(g.ID, g.Category, g.Multiplier, g.Priority, g.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}
