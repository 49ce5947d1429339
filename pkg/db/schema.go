package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema v1: profiles, the API listener and the device registry.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
    version     INTEGER PRIMARY KEY,
    applied_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS profiles (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL UNIQUE,
    timezone    TEXT NOT NULL DEFAULT 'UTC',
    is_active   INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS api_servers (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    profile_id  INTEGER NOT NULL UNIQUE REFERENCES profiles(id) ON DELETE CASCADE,
    host        TEXT NOT NULL DEFAULT '0.0.0.0',
    port        INTEGER NOT NULL DEFAULT 8080,
    created_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS devices (
    id           TEXT NOT NULL,
    profile_id   INTEGER NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    name         TEXT NOT NULL,
    type         TEXT NOT NULL,
    room         TEXT NOT NULL DEFAULT '',
    state        TEXT NOT NULL DEFAULT '{}',
    position     INTEGER NOT NULL DEFAULT 0,
    last_updated TEXT,
    PRIMARY KEY (profile_id, id)
);

CREATE TABLE IF NOT EXISTS rooms (
    profile_id  INTEGER NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    name        TEXT NOT NULL,
    position    INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (profile_id, name)
);

CREATE INDEX IF NOT EXISTS idx_profiles_active ON profiles(is_active);
CREATE INDEX IF NOT EXISTS idx_devices_room ON devices(profile_id, room);
`

// Schema v2: assistant settings and the command journal.
const schemaV2 = `
CREATE TABLE IF NOT EXISTS assistant_settings (
    profile_id   INTEGER PRIMARY KEY REFERENCES profiles(id) ON DELETE CASCADE,
    backend      TEXT NOT NULL DEFAULT 'ollama',
    model        TEXT NOT NULL DEFAULT 'llama3.2',
    host         TEXT NOT NULL DEFAULT 'http://localhost:11434',
    timeout_ms   INTEGER NOT NULL DEFAULT 60000,
    max_steps    INTEGER NOT NULL DEFAULT 6,
    mode         TEXT NOT NULL DEFAULT 'agent',
    memory_limit INTEGER NOT NULL DEFAULT 50,
    devices_path TEXT NOT NULL DEFAULT '',
    mqtt_broker  TEXT NOT NULL DEFAULT '',
    updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS command_history (
    id          TEXT PRIMARY KEY,
    profile_id  INTEGER NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    ts          TEXT NOT NULL,
    command     TEXT NOT NULL,
    devices     TEXT NOT NULL DEFAULT '[]',
    action      TEXT NOT NULL,
    success     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_ts ON command_history(profile_id, ts);
`

var migrations = []string{schemaV1, schemaV2}

// Migrate applies every migration newer than the recorded schema version.
func (db *DB) Migrate(ctx context.Context) error {
	version, err := db.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		if err := db.apply(ctx, i+1, migrations[i]); err != nil {
			return fmt.Errorf("failed to apply schema v%d: %w", i+1, err)
		}
	}
	return nil
}

// SchemaVersion returns the current schema version, or 0 for a fresh file.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&count)
	if err != nil || count == 0 {
		return 0, err
	}

	var version int
	err = db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	return version, err
}

func (db *DB) apply(ctx context.Context, version int, ddl string) error {
	return db.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
		return nil
	})
}

// CurrentSchemaVersion is the version Migrate brings a database to.
func CurrentSchemaVersion() int {
	return len(migrations)
}
