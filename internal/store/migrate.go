package store

import (
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is the latest schema version supported by the migrator.
const SchemaVersion = 1

// Migrate ensures the SQLite schema exists and every bay has a status row.
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}

	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}

	if current >= SchemaVersion {
		return nil
	}

	transaction, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer func() {
		_ = transaction.Rollback()
	}()

	_, err = transaction.Exec(`
		CREATE TABLE IF NOT EXISTS bay_status (
			bay INTEGER PRIMARY KEY,
			timer_running INTEGER NOT NULL DEFAULT 0,
			pump_running INTEGER NOT NULL DEFAULT 0,
			timer_runtime REAL NOT NULL DEFAULT 0,
			pump_runtime REAL NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create bay_status table: %w", err)
	}

	_, err = transaction.Exec(`
		CREATE TABLE IF NOT EXISTS bay_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uuid TEXT NOT NULL UNIQUE,
			bay INTEGER NOT NULL,
			timer_time REAL NOT NULL,
			pump_time REAL NOT NULL,
			created_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create bay_sessions table: %w", err)
	}

	_, err = transaction.Exec(`
		CREATE TABLE IF NOT EXISTS bay_maintenance_inserts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uuid TEXT NOT NULL UNIQUE,
			bay INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create bay_maintenance_inserts table: %w", err)
	}

	_, err = transaction.Exec(`CREATE INDEX IF NOT EXISTS idx_bay_sessions_bay ON bay_sessions(bay, created_at);`)
	if err != nil {
		return fmt.Errorf("migrate: create idx_bay_sessions_bay: %w", err)
	}

	_, err = transaction.Exec(`CREATE INDEX IF NOT EXISTS idx_bay_maintenance_inserts_bay ON bay_maintenance_inserts(bay);`)
	if err != nil {
		return fmt.Errorf("migrate: create idx_bay_maintenance_inserts_bay: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for bay := 1; bay <= NumBays; bay++ {
		_, err = transaction.Exec(`INSERT OR IGNORE INTO bay_status (bay, updated_at) VALUES (?, ?);`, bay, now)
		if err != nil {
			return fmt.Errorf("migrate: create status for bay %d: %w", bay, err)
		}
	}

	_, err = transaction.Exec(`INSERT INTO schema_migrations(version) VALUES (?);`, SchemaVersion)
	if err != nil {
		return fmt.Errorf("migrate: record schema version: %w", err)
	}

	err = transaction.Commit()
	if err != nil {
		return fmt.Errorf("migrate: commit transaction: %w", err)
	}

	return nil
}
