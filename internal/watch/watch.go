// Package watch re-runs a callback when chapter files change.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/bookkit/internal/parser"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for more changes.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc handles one batch of changed chapter paths.
type ChangeFunc func(ctx context.Context, changed []string) error

// Watcher observes a chapters directory. Callbacks run on the watcher's
// goroutine, one at a time.
type Watcher struct {
	dir      string
	debounce time.Duration
	log      *slog.Logger
	fsw      *fsnotify.Watcher

	hashes  map[string]string
	pending map[string]struct{}
}

// New creates a watcher for dir. Call Run to start it.
func New(dir string, debounce time.Duration, log *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		log:      log,
		fsw:      fsw,
		hashes:   make(map[string]string),
		pending:  make(map[string]struct{}),
	}, nil
}

// Run watches until ctx is cancelled, calling fn after each quiet period that
// follows a content change. Errors from fn are logged and watching continues.
func (w *Watcher) Run(ctx context.Context, fn ChangeFunc) error {
	defer w.fsw.Close()

	if err := w.addTree(w.dir); err != nil {
		return err
	}
	w.log.Info("watching chapters", "dir", w.dir, "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(ev) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)

		case <-timer.C:
			changed := w.flush()
			if len(changed) == 0 {
				continue
			}
			w.log.Debug("chapters changed", "paths", changed)
			if err := fn(ctx, changed); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				w.log.Error("rerun failed", "error", err)
			}
		}
	}
}

// handle records an event and reports whether it concerns a chapter.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.log.Warn("watch new directory", "path", ev.Name, "error", err)
			}
			return false
		}
	}
	if !parser.IsChapterFile(ev.Name) || ev.Op == fsnotify.Chmod {
		return false
	}
	w.pending[ev.Name] = struct{}{}
	return true
}

// flush returns the pending paths whose content actually changed.
func (w *Watcher) flush() []string {
	var changed []string
	for path := range w.pending {
		sum, err := hashFile(path)
		switch {
		case err != nil:
			if _, known := w.hashes[path]; known {
				delete(w.hashes, path)
				changed = append(changed, path)
			}
		case w.hashes[path] != sum:
			w.hashes[path] = sum
			changed = append(changed, path)
		}
	}
	clear(w.pending)
	sort.Strings(changed)
	return changed
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			return nil
		}
		if parser.IsChapterFile(path) {
			if sum, err := hashFile(path); err == nil {
				w.hashes[path] = sum
			}
		}
		return nil
	})
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:]), nil
}
