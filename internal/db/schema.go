package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Collection tables keep a position
// column so a full-overwrite write reads back in the same order.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS inventory_items (
    position INTEGER NOT NULL,
    upc      TEXT PRIMARY KEY,
    name     TEXT NOT NULL,
    model    TEXT NOT NULL,
    quantity INTEGER NOT NULL CHECK (quantity >= 0)
);

CREATE TABLE IF NOT EXISTS removals (
    position   INTEGER PRIMARY KEY,
    id         TEXT,
    item_name  TEXT NOT NULL,
    model      TEXT NOT NULL,
    upc        TEXT NOT NULL,
    amount     INTEGER NOT NULL CHECK (amount > 0),
    employee   TEXT NOT NULL,
    purpose    TEXT NOT NULL,
    store      TEXT NOT NULL,
    removed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_removals_upc ON removals(upc);

CREATE TABLE IF NOT EXISTS activity (
    position  INTEGER PRIMARY KEY,
    id        TEXT,
    logged_at DATETIME NOT NULL,
    type      TEXT NOT NULL,
    field     TEXT NOT NULL,
    value     TEXT NOT NULL,
    details   TEXT
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
