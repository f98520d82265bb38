// Package vault reads and writes notes under a vault root directory.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned when a resolved path escapes the vault boundary.
var ErrPathEscape = errors.New("path escapes vault boundary")

// ErrNotNote is returned for paths that are not markdown notes.
var ErrNotNote = errors.New("not a markdown note")

// Vault is a directory of markdown notes.
type Vault struct {
	Root string
}

// New returns a Vault rooted at root.
func New(root string) *Vault {
	return &Vault{Root: root}
}

// Resolve joins a slash-separated note path onto the vault root and checks
// that it stays inside the vault and names a .md file.
func (v *Vault) Resolve(rel string) (string, error) {
	if !strings.EqualFold(filepath.Ext(rel), ".md") {
		return "", fmt.Errorf("%w: %s", ErrNotNote, rel)
	}
	rootAbs, err := filepath.Abs(v.Root)
	if err != nil {
		return "", fmt.Errorf("resolve vault path: %w", err)
	}
	abs, err := filepath.Abs(filepath.Join(rootAbs, filepath.FromSlash(rel)))
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, rootAbs+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, rel)
	}
	return abs, nil
}

// Key returns the canonical slash-separated path of rel relative to the
// vault root. Paths that name the same file share one key.
func (v *Vault) Key(rel string) (string, error) {
	abs, err := v.Resolve(rel)
	if err != nil {
		return "", err
	}
	rootAbs, err := filepath.Abs(v.Root)
	if err != nil {
		return "", fmt.Errorf("resolve vault path: %w", err)
	}
	key, err := filepath.Rel(rootAbs, abs)
	if err != nil {
		return "", fmt.Errorf("relative note path: %w", err)
	}
	return filepath.ToSlash(key), nil
}

// Read returns the note at rel. A missing note reads as empty with
// exists=false.
func (v *Vault) Read(rel string) (content string, exists bool, err error) {
	path, err := v.Resolve(rel)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read note: %w", err)
	}
	return string(data), true, nil
}

// WriteAtomic replaces the note at rel with content. The data is written to a
// temp file in the same directory and renamed over the target, so readers
// never observe a partial note.
func (v *Vault) WriteAtomic(rel, content string) error {
	path, err := v.Resolve(rel)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create note dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename note: %w", err)
	}
	return nil
}
