package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Aliases: extra spoken phrases bound to a builtin command or a plugin action
		`CREATE TABLE IF NOT EXISTS aliases (
			id TEXT PRIMARY KEY,
			phrase TEXT NOT NULL UNIQUE,
			target TEXT NOT NULL DEFAULT '',
			plugin_name TEXT NOT NULL DEFAULT '',
			action_name TEXT NOT NULL DEFAULT '',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			CHECK (target != '' OR (plugin_name != '' AND action_name != ''))
		)`,

		// History: transcribed commands and dictations
		`CREATE TABLE IF NOT EXISTS history (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			kind TEXT NOT NULL CHECK(kind IN ('command', 'dictation')),
			matched TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
