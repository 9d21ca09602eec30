package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	conn *sql.DB
	Path string
}

// OpenDB opens a SQLite database with WAL mode and foreign keys enabled,
// creating the schema if needed. ":memory:" gives a private database.
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Pragmas are per connection, and each ":memory:" connection is its own database.
	conn.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	d := &DB{conn: conn, Path: path}
	if err := d.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return d, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying sql.DB for custom queries
func (d *DB) Conn() *sql.DB {
	return d.conn
}

func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			league TEXT NOT NULL,
			label TEXT NOT NULL,
			total_builds INTEGER NOT NULL,
			ascendancy_filter TEXT,
			min_level INTEGER,
			max_level INTEGER,
			scraped_at TEXT NOT NULL,
			scraper_version TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_league ON snapshots(league, scraped_at)`,
		`CREATE TABLE IF NOT EXISTS builds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			rank INTEGER NOT NULL,
			character_name TEXT NOT NULL,
			account_name TEXT,
			level INTEGER NOT NULL,
			ascendancy TEXT NOT NULL,
			life INTEGER NOT NULL,
			energy_shield INTEGER NOT NULL,
			effective_hp INTEGER NOT NULL,
			dps INTEGER NOT NULL,
			main_skill TEXT NOT NULL,
			profile_url TEXT NOT NULL,
			UNIQUE(snapshot_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_builds_snapshot ON builds(snapshot_id)`,
		`CREATE TABLE IF NOT EXISTS build_keystones (
			build_id INTEGER NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (build_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS skill_groups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			build_id INTEGER NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			slot TEXT NOT NULL,
			enabled INTEGER NOT NULL,
			UNIQUE(build_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS gems (
			group_id INTEGER NOT NULL REFERENCES skill_groups(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			level INTEGER NOT NULL,
			quality INTEGER NOT NULL,
			enabled INTEGER NOT NULL,
			is_support INTEGER NOT NULL,
			PRIMARY KEY (group_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			build_id INTEGER NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			slot TEXT NOT NULL,
			name TEXT NOT NULL,
			rarity TEXT NOT NULL,
			PRIMARY KEY (build_id, position)
		)`,
	}

	for _, m := range migrations {
		if _, err := d.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
