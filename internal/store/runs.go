package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	RunWritten   = "written"
	RunUnchanged = "unchanged"
	RunRestored  = "restored"
)

// MergeRun records one regeneration (or restore) of a note.
type MergeRun struct {
	ID                   string   `json:"id"`
	NotePath             string   `json:"note_path"`
	Status               string   `json:"status"`
	ExistingChecksum     string   `json:"existing_checksum"`
	FreshChecksum        string   `json:"fresh_checksum"`
	ResultChecksum       string   `json:"result_checksum"`
	PreservedParagraphs  int      `json:"preserved_paragraphs"`
	PreservedAttachments int      `json:"preserved_attachments"`
	PreservedBlocks      int      `json:"preserved_blocks"`
	PreservedKeys        []string `json:"preserved_keys"`
	CreatedAt            int64    `json:"created_at"`
}

// RecordRun inserts run, assigning an ID and timestamp when they are unset.
func (db *DB) RecordRun(run *MergeRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixMilli()
	}
	keys := run.PreservedKeys
	if keys == nil {
		keys = []string{}
	}
	keysJSON, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("marshal preserved keys: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO merge_runs (id, note_path, status, existing_checksum, fresh_checksum, result_checksum,
			preserved_paragraphs, preserved_attachments, preserved_blocks, preserved_keys, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.NotePath, run.Status, run.ExistingChecksum, run.FreshChecksum, run.ResultChecksum,
		run.PreservedParagraphs, run.PreservedAttachments, run.PreservedBlocks, string(keysJSON), run.CreatedAt)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

const runColumns = `id, note_path, status, existing_checksum, fresh_checksum, result_checksum,
	preserved_paragraphs, preserved_attachments, preserved_blocks, preserved_keys, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*MergeRun, error) {
	var r MergeRun
	var keys string
	if err := row.Scan(&r.ID, &r.NotePath, &r.Status, &r.ExistingChecksum, &r.FreshChecksum, &r.ResultChecksum,
		&r.PreservedParagraphs, &r.PreservedAttachments, &r.PreservedBlocks, &keys, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(keys), &r.PreservedKeys); err != nil {
		return nil, fmt.Errorf("decode preserved keys for run %s: %w", r.ID, err)
	}
	return &r, nil
}

// GetRun returns the run with the given ID, or ErrNotFound.
func (db *DB) GetRun(id string) (*MergeRun, error) {
	run, err := scanRun(db.QueryRow(`SELECT `+runColumns+` FROM merge_runs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first. An empty notePath lists
// runs for every note.
func (db *DB) ListRuns(notePath string, limit int) ([]MergeRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT `+runColumns+` FROM merge_runs
		WHERE ? = '' OR note_path = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, notePath, notePath, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []MergeRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and, by cascade, its snapshot.
func (db *DB) DeleteRun(id string) error {
	if _, err := db.Exec(`DELETE FROM merge_runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}
