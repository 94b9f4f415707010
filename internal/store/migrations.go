package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Avatars table - stores avatar model references
		`CREATE TABLE IF NOT EXISTS avatars (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			model_url TEXT NOT NULL,
			pose_scale REAL NOT NULL DEFAULT 40,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Gain rules table - stores the ordered retargeting gain table
		`CREATE TABLE IF NOT EXISTS gain_rules (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL UNIQUE,
			multiplier REAL NOT NULL DEFAULT 1.0,
			priority INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Triggers table - stores expression threshold triggers
		`CREATE TABLE IF NOT EXISTS triggers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			blendshape TEXT NOT NULL,
			threshold REAL NOT NULL DEFAULT 0.8,
			hold_frames INTEGER NOT NULL DEFAULT 3,
			cooldown_ms INTEGER NOT NULL DEFAULT 1000,
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Actions table - stores actions to execute when triggers fire
		`CREATE TABLE IF NOT EXISTS actions (
			id TEXT PRIMARY KEY,
			trigger_id TEXT NOT NULL REFERENCES triggers(id) ON DELETE CASCADE,
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_gain_rules_priority ON gain_rules(priority)`,
		`CREATE INDEX IF NOT EXISTS idx_actions_trigger_id ON actions(trigger_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
