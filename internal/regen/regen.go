// Package regen rewrites vault notes from fresh renders without losing what
// the user added to them.
package regen

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lazypower/notekeeper/internal/merge"
	"github.com/lazypower/notekeeper/internal/store"
	"github.com/lazypower/notekeeper/internal/vault"
)

// ErrNoSnapshot is returned by Restore when the run overwrote nothing.
var ErrNoSnapshot = errors.New("run has no snapshot")

const recentCacheSize = 1024

// Outcome describes what a regeneration did to a note.
type Outcome struct {
	RunID                    string   `json:"run_id"`
	Path                     string   `json:"path"`
	Status                   string   `json:"status"`
	Cached                   bool     `json:"cached,omitempty"`
	Checksum                 string   `json:"checksum"`
	PreservedParagraphCount  int      `json:"preserved_paragraph_count"`
	PreservedAttachmentCount int      `json:"preserved_attachment_count"`
	PreservedBlockCount      int      `json:"preserved_block_count"`
	PreservedFrontmatterKeys []string `json:"preserved_frontmatter_keys"`
}

// Written reports whether the note on disk changed.
func (o *Outcome) Written() bool {
	return o.Status == store.RunWritten || o.Status == store.RunRestored
}

// recentEntry remembers the inputs of the last run that left a note in its
// merged state. Merging is idempotent, so the same inputs again are a no-op.
type recentEntry struct {
	existingSum string
	freshSum    string
	outcome     Outcome
}

// Regenerator runs the read, merge and write pipeline for vault notes.
// Calls for the same note are serialized; different notes proceed in
// parallel.
type Regenerator struct {
	DB       *store.DB
	Vault    *vault.Vault
	Folder   string // generator-owned attachment folder
	Options  merge.Options
	Compress bool // zstd-compress snapshots

	locks    *keyedMutex
	recent   *lru.Cache[string, recentEntry]
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a Regenerator with the default merge policy and compressed
// snapshots.
func New(db *store.DB, v *vault.Vault, folder string) (*Regenerator, error) {
	cache, err := lru.New[string, recentEntry](recentCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create recent cache: %w", err)
	}
	return &Regenerator{
		DB:       db,
		Vault:    v,
		Folder:   folder,
		Options:  merge.DefaultOptions(),
		Compress: true,
		locks:    newKeyedMutex(),
		recent:   cache,
		stopCh:   make(chan struct{}),
	}, nil
}

// Regenerate merges fresh into the note at notePath and writes the result.
// The write is skipped when the merged note equals what is on disk. A note
// that does not exist yet is created from fresh. Notes are locked, cached and
// recorded under their canonical vault path, so "./a.md" and "a.md" are the
// same note.
func (r *Regenerator) Regenerate(ctx context.Context, notePath, fresh string) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	notePath, err := r.Vault.Key(notePath)
	if err != nil {
		return nil, err
	}

	unlock := r.locks.Lock(notePath)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	existing, exists, err := r.Vault.Read(notePath)
	if err != nil {
		return nil, err
	}
	existingSum := store.Checksum(existing)
	freshSum := store.Checksum(fresh)

	if e, ok := r.recent.Get(notePath); ok && exists && e.existingSum == existingSum && e.freshSum == freshSum {
		out := e.outcome
		out.RunID = ""
		out.Status = store.RunUnchanged
		out.Cached = true
		return &out, nil
	}

	result := merge.PreserveWithOptions(existing, fresh, r.Folder, r.Options)
	resultSum := store.Checksum(result.Content)

	run := &store.MergeRun{
		NotePath:             notePath,
		Status:               store.RunWritten,
		ExistingChecksum:     existingSum,
		FreshChecksum:        freshSum,
		ResultChecksum:       resultSum,
		PreservedParagraphs:  result.PreservedParagraphCount,
		PreservedAttachments: result.PreservedAttachmentCount,
		PreservedBlocks:      result.PreservedBlockCount,
		PreservedKeys:        result.PreservedFrontmatterKeys,
	}

	if exists && result.Content == existing {
		run.Status = store.RunUnchanged
		if err := r.DB.RecordRun(run); err != nil {
			return nil, err
		}
		out := outcomeFor(run)
		r.recent.Add(notePath, recentEntry{existingSum: existingSum, freshSum: freshSum, outcome: *out})
		log.Printf("regen: %s unchanged", notePath)
		return out, nil
	}

	if err := r.DB.RecordRun(run); err != nil {
		return nil, err
	}
	if exists && existing != "" {
		if _, err := r.DB.SaveSnapshot(run.ID, notePath, existing, r.Compress); err != nil {
			r.discardRun(run.ID)
			return nil, err
		}
	}
	if err := r.Vault.WriteAtomic(notePath, result.Content); err != nil {
		r.discardRun(run.ID)
		return nil, fmt.Errorf("write %s: %w", notePath, err)
	}
	if err := r.DB.UpsertNote(notePath, resultSum); err != nil {
		log.Printf("regen: track %s: %v", notePath, err)
	}

	out := outcomeFor(run)
	r.recent.Add(notePath, recentEntry{existingSum: resultSum, freshSum: freshSum, outcome: *out})
	log.Printf("regen: wrote %s (paragraphs=%d attachments=%d blocks=%d keys=%v)",
		notePath, result.PreservedParagraphCount, result.PreservedAttachmentCount,
		result.PreservedBlockCount, result.PreservedFrontmatterKeys)
	return out, nil
}

// Restore writes the snapshot taken before runID back to its note. The
// content being replaced is itself snapshotted, so a restore can be undone
// by restoring the run it records.
func (r *Regenerator) Restore(ctx context.Context, runID string) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := r.DB.GetRun(runID)
	if err != nil {
		return nil, err
	}
	snapshot, _, err := r.DB.GetSnapshot(runID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNoSnapshot)
	}
	if err != nil {
		return nil, err
	}

	notePath, err := r.Vault.Key(target.NotePath)
	if err != nil {
		return nil, err
	}
	unlock := r.locks.Lock(notePath)
	defer unlock()

	current, exists, err := r.Vault.Read(notePath)
	if err != nil {
		return nil, err
	}
	snapshotSum := store.Checksum(snapshot)

	run := &store.MergeRun{
		NotePath:         notePath,
		Status:           store.RunRestored,
		ExistingChecksum: store.Checksum(current),
		ResultChecksum:   snapshotSum,
		PreservedKeys:    []string{},
	}
	if err := r.DB.RecordRun(run); err != nil {
		return nil, err
	}
	if exists && current != "" {
		if _, err := r.DB.SaveSnapshot(run.ID, notePath, current, r.Compress); err != nil {
			r.discardRun(run.ID)
			return nil, err
		}
	}
	if err := r.Vault.WriteAtomic(notePath, snapshot); err != nil {
		r.discardRun(run.ID)
		return nil, fmt.Errorf("write %s: %w", notePath, err)
	}
	if err := r.DB.UpsertNote(notePath, snapshotSum); err != nil {
		log.Printf("regen: track %s: %v", notePath, err)
	}
	r.recent.Remove(notePath)

	log.Printf("regen: restored %s from run %s", notePath, runID)
	return outcomeFor(run), nil
}

func (r *Regenerator) discardRun(id string) {
	if err := r.DB.DeleteRun(id); err != nil {
		log.Printf("regen: discard run %s: %v", id, err)
	}
}

func outcomeFor(run *store.MergeRun) *Outcome {
	keys := run.PreservedKeys
	if keys == nil {
		keys = []string{}
	}
	return &Outcome{
		RunID:                    run.ID,
		Path:                     run.NotePath,
		Status:                   run.Status,
		Checksum:                 run.ResultChecksum,
		PreservedParagraphCount:  run.PreservedParagraphs,
		PreservedAttachmentCount: run.PreservedAttachments,
		PreservedBlockCount:      run.PreservedBlocks,
		PreservedFrontmatterKeys: keys,
	}
}

// StartPruneTimer prunes old snapshots on startup and then daily, keeping
// the newest retain per note.
func (r *Regenerator) StartPruneTimer(retain int) {
	if retain <= 0 {
		return
	}
	if _, err := r.DB.PruneSnapshots(retain); err != nil {
		log.Printf("regen: prune error: %v", err)
	}

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := r.DB.PruneSnapshots(retain); err != nil {
					log.Printf("regen: prune error: %v", err)
				}
			case <-r.stopCh:
				return
			}
		}
	}()
}

// Stop shuts down background goroutines. It is safe to call more than once.
func (r *Regenerator) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}
