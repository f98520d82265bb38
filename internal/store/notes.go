package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Note is a vault note the regenerator has written at least once.
type Note struct {
	ID         int64  `json:"id"`
	Path       string `json:"path"`
	Checksum   string `json:"checksum"`
	MergeCount int    `json:"merge_count"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
}

// UpsertNote records the checksum of the content now on disk for path and
// bumps its merge count.
func (db *DB) UpsertNote(path, checksum string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO notes (path, checksum, merge_count, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum = excluded.checksum,
			merge_count = notes.merge_count + 1,
			updated_at = excluded.updated_at
	`, path, checksum, now, now)
	if err != nil {
		return fmt.Errorf("upsert note: %w", err)
	}
	return nil
}

// GetNote returns the note at path, or nil if it is not tracked.
func (db *DB) GetNote(path string) (*Note, error) {
	var n Note
	err := db.QueryRow(`
		SELECT id, path, checksum, merge_count, created_at, updated_at
		FROM notes WHERE path = ?
	`, path).Scan(&n.ID, &n.Path, &n.Checksum, &n.MergeCount, &n.CreatedAt, &n.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return &n, nil
}

// ListNotes returns tracked notes, most recently updated first.
func (db *DB) ListNotes() ([]Note, error) {
	rows, err := db.Query(`
		SELECT id, path, checksum, merge_count, created_at, updated_at
		FROM notes ORDER BY updated_at DESC, path
	`)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Path, &n.Checksum, &n.MergeCount, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
