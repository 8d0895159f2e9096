package mirror

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher rebuilds the mirror when the document file changes on disk. It
// exists for deployments where operators edit the document directly instead
// of going through the API.
type Watcher struct {
	path     string
	syncer   *Syncer
	debounce time.Duration
	log      *logrus.Logger

	mu      sync.Mutex
	dirty   bool
	dirtyAt time.Time
}

// NewWatcher creates a watcher over the document at path. A zero debounce
// falls back to two seconds so editor write bursts collapse into one
// rebuild.
func NewWatcher(path string, syncer *Syncer, debounce time.Duration, log *logrus.Logger) *Watcher {
	if log == nil {
		log = logrus.New()
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Watcher{
		path:     path,
		syncer:   syncer,
		debounce: debounce,
		log:      log,
	}
}

// Run watches the document until ctx is cancelled. The parent directory is
// watched rather than the file itself so replace-by-rename writers still
// generate events.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	w.log.Infof("Watching document store: %s", w.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			w.markDirty()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warnf("Watcher error: %v", err)
		case <-ticker.C:
			if !w.takeReady() {
				continue
			}
			count, err := w.syncer.RebuildAll(ctx)
			if err != nil {
				w.log.Errorf("Mirror rebuild failed: %v", err)
				continue
			}
			w.log.Infof("Mirror rebuilt with %d datasets", count)
		}
	}
}

// markDirty records a change and restarts the debounce clock.
func (w *Watcher) markDirty() {
	w.mu.Lock()
	w.dirty = true
	w.dirtyAt = time.Now()
	w.mu.Unlock()
}

// takeReady reports whether a change has settled for the debounce period,
// clearing the flag when it has.
func (w *Watcher) takeReady() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dirty || time.Since(w.dirtyAt) < w.debounce {
		return false
	}
	w.dirty = false
	return true
}
