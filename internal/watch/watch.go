// Package watch regenerates vault notes as their renders land in a render
// directory.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/lazypower/notekeeper/internal/regen"
)

// Regenerator is the part of regen.Regenerator the watcher drives.
type Regenerator interface {
	Regenerate(ctx context.Context, notePath, fresh string) (*regen.Outcome, error)
}

// Watcher maps <RenderDir>/<rel>.md onto the vault note <rel>.md.
type Watcher struct {
	RenderDir string
	Debounce  time.Duration
	Regen     Regenerator

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
	wg      sync.WaitGroup
	fsw     *fsnotify.Watcher
}

// New creates a Watcher for dir.
func New(dir string, debounce time.Duration, r Regenerator) *Watcher {
	return &Watcher{
		RenderDir: dir,
		Debounce:  debounce,
		Regen:     r,
		pending:   make(map[string]*time.Timer),
	}
}

// Run watches until ctx is cancelled. Pending renders are dropped on
// shutdown; regenerations already running are waited for.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	w.fsw = fsw
	defer fsw.Close()

	if err := w.addDirs(w.RenderDir); err != nil {
		return fmt.Errorf("add directories to watcher: %w", err)
	}
	log.Printf("watch: watching %s", w.RenderDir)

	for {
		select {
		case <-ctx.Done():
			w.stopPending()
			w.wg.Wait()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: watcher error: %v", err)
		}
	}
}

// addDirs recursively adds directories, skipping hidden ones.
func (w *Watcher) addDirs(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addDirs(event.Name); err != nil {
				log.Printf("watch: add %s: %v", event.Name, err)
			}
			return
		}
	}
	w.schedule(ctx, event.Name)
}

// schedule (re)starts the debounce timer for a render file.
func (w *Watcher) schedule(ctx context.Context, absPath string) {
	if !strings.HasSuffix(absPath, ".md") || strings.Contains(filepath.ToSlash(absPath), "/.") {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, ok := w.pending[absPath]; ok {
		t.Reset(w.Debounce)
		return
	}
	w.pending[absPath] = time.AfterFunc(w.Debounce, func() {
		w.mu.Lock()
		delete(w.pending, absPath)
		if w.closed {
			w.mu.Unlock()
			return
		}
		w.wg.Add(1)
		w.mu.Unlock()
		defer w.wg.Done()
		w.process(ctx, absPath)
	})
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	for p, t := range w.pending {
		t.Stop()
		delete(w.pending, p)
	}
}

func (w *Watcher) process(ctx context.Context, absPath string) {
	if ctx.Err() != nil {
		return
	}
	rel, err := filepath.Rel(w.RenderDir, absPath)
	if err != nil {
		log.Printf("watch: failed to get relative path for %s: %v", absPath, err)
		return
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		log.Printf("watch: failed to read %s: %v", absPath, err)
		return
	}
	out, err := w.Regen.Regenerate(ctx, filepath.ToSlash(rel), string(data))
	if err != nil {
		log.Printf("watch: regenerate %s: %v", rel, err)
		return
	}
	log.Printf("watch: %s %s", rel, out.Status)
}
