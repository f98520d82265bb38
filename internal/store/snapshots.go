package store

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

// Snapshot codecs.
const (
	CodecNone = "none"
	CodecZstd = "zstd"
)

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// Checksum returns the hex blake3-256 digest of content.
func Checksum(content string) string {
	sum := blake3.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// compress zstd-encodes data, falling back to the raw bytes when
// compression would not shrink them.
func compress(data []byte) ([]byte, string) {
	encoded := zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)))
	if len(encoded) >= len(data) {
		return data, CodecNone
	}
	return encoded, CodecZstd
}

func decompress(data []byte, codec string) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil
	case CodecZstd:
		out, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown snapshot codec %q", codec)
	}
}

// SnapshotInfo describes a stored snapshot without its content.
type SnapshotInfo struct {
	RunID     string `json:"run_id"`
	NotePath  string `json:"note_path"`
	Codec     string `json:"codec"`
	Size      int    `json:"size"`
	StoredLen int    `json:"stored_len"`
	CreatedAt int64  `json:"created_at"`
}

// SaveSnapshot stores the note content that runID is about to overwrite.
// The run must already be recorded.
func (db *DB) SaveSnapshot(runID, notePath, content string, useCompression bool) (*SnapshotInfo, error) {
	data, codec := []byte(content), CodecNone
	if useCompression {
		data, codec = compress(data)
	}
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO snapshots (run_id, note_path, codec, size, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, notePath, codec, len(content), data, now)
	if err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	return &SnapshotInfo{
		RunID:     runID,
		NotePath:  notePath,
		Codec:     codec,
		Size:      len(content),
		StoredLen: len(data),
		CreatedAt: now,
	}, nil
}

// GetSnapshot returns the decompressed snapshot for runID, or ErrNotFound.
func (db *DB) GetSnapshot(runID string) (string, *SnapshotInfo, error) {
	var info SnapshotInfo
	var data []byte
	err := db.QueryRow(`
		SELECT run_id, note_path, codec, size, data, created_at
		FROM snapshots WHERE run_id = ?
	`, runID).Scan(&info.RunID, &info.NotePath, &info.Codec, &info.Size, &data, &info.CreatedAt)
	if err == sql.ErrNoRows {
		return "", nil, fmt.Errorf("snapshot for run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return "", nil, fmt.Errorf("get snapshot: %w", err)
	}
	info.StoredLen = len(data)

	content, err := decompress(data, info.Codec)
	if err != nil {
		return "", nil, fmt.Errorf("snapshot for run %s: %w", runID, err)
	}
	if len(content) != info.Size {
		return "", nil, fmt.Errorf("snapshot for run %s: size %d, want %d", runID, len(content), info.Size)
	}
	return string(content), &info, nil
}

// PruneSnapshots deletes all but the newest retain snapshots of each note and
// returns the number removed. A retain of zero keeps everything.
func (db *DB) PruneSnapshots(retain int) (int64, error) {
	if retain <= 0 {
		return 0, nil
	}
	result, err := db.Exec(`
		DELETE FROM snapshots WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY note_path ORDER BY created_at DESC, id DESC
				) AS rn
				FROM snapshots
			) WHERE rn > ?
		)
	`, retain)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	n, _ := result.RowsAffected()
	if n > 0 {
		log.Printf("store: pruned %d snapshots (retain %d per note)", n, retain)
	}
	return n, nil
}
