// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite: no CGo, no C
// compiler, cross-compiles anywhere Go does. The job history is small and
// single-writer, which is exactly SQLite's comfort zone.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the job repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath (":memory:" for tests) and runs
// migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Fail fast on a bad path or permissions rather than on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a job row is being written.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS render_jobs (
			id             TEXT PRIMARY KEY,
			status         TEXT NOT NULL,
			artifact_count INTEGER NOT NULL DEFAULT 0,
			exit_code      INTEGER NOT NULL DEFAULT 0,
			stderr         TEXT NOT NULL DEFAULT '',
			duration_ms    INTEGER NOT NULL DEFAULT 0,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_render_jobs_created_at ON render_jobs(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating render_jobs table: %w", err)
	}
	return nil
}
