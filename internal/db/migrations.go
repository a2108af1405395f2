package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS listings (
		id            TEXT     PRIMARY KEY,
		canonical_url TEXT     NOT NULL UNIQUE,
		market        TEXT     NOT NULL DEFAULT '',
		record_json   TEXT     NOT NULL,
		imported_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_market ON listings(market)`,
	`CREATE TABLE IF NOT EXISTS snippets (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		subject_key TEXT    NOT NULL,
		source      TEXT    NOT NULL,
		text        TEXT    NOT NULL,
		author      TEXT    NOT NULL DEFAULT '',
		permalink   TEXT    NOT NULL DEFAULT '',
		posted_at   DATETIME,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_snippets_subject ON snippets(subject_key)`,
	`CREATE TABLE IF NOT EXISTS takeaways (
		subject_key TEXT     PRIMARY KEY,
		positive    TEXT     NOT NULL DEFAULT '[]',
		negative    TEXT     NOT NULL DEFAULT '[]',
		created_at  DATETIME NOT NULL,
		expires_at  DATETIME NOT NULL
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
