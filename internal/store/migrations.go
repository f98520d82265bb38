package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "notes: tracked vault notes",
		SQL: `
CREATE TABLE notes (
    id           INTEGER PRIMARY KEY,
    path         TEXT NOT NULL UNIQUE,
    checksum     TEXT NOT NULL,
    merge_count  INTEGER NOT NULL DEFAULT 0,
    created_at   INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL
);

CREATE INDEX idx_notes_updated_at ON notes(updated_at DESC);
`,
	},
	{
		Version:     2,
		Description: "merge_runs: one row per regeneration",
		SQL: `
CREATE TABLE merge_runs (
    id                     TEXT PRIMARY KEY,
    note_path              TEXT NOT NULL,
    status                 TEXT NOT NULL CHECK (status IN ('written', 'unchanged', 'restored')),
    existing_checksum      TEXT NOT NULL DEFAULT '',
    fresh_checksum         TEXT NOT NULL DEFAULT '',
    result_checksum        TEXT NOT NULL DEFAULT '',
    preserved_paragraphs   INTEGER NOT NULL DEFAULT 0,
    preserved_attachments  INTEGER NOT NULL DEFAULT 0,
    preserved_blocks       INTEGER NOT NULL DEFAULT 0,
    preserved_keys         TEXT NOT NULL DEFAULT '[]',
    created_at             INTEGER NOT NULL
);

CREATE INDEX idx_runs_note_path  ON merge_runs(note_path);
CREATE INDEX idx_runs_created_at ON merge_runs(created_at DESC);
`,
	},
	{
		Version:     3,
		Description: "snapshots: note content before a run overwrote it",
		SQL: `
CREATE TABLE snapshots (
    id          INTEGER PRIMARY KEY,
    run_id      TEXT NOT NULL UNIQUE,
    note_path   TEXT NOT NULL,
    codec       TEXT NOT NULL CHECK (codec IN ('none', 'zstd')),
    size        INTEGER NOT NULL,
    data        BLOB NOT NULL,
    created_at  INTEGER NOT NULL,
    FOREIGN KEY (run_id) REFERENCES merge_runs(id) ON DELETE CASCADE
);

CREATE INDEX idx_snapshots_note_path ON snapshots(note_path, created_at DESC);
`,
	},
}

func (db *DB) migrate() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
