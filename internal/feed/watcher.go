package feed

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a Store whenever its feed file changes on disk.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	done     chan struct{}
	store    *Store
	debounce time.Duration
}

// NewWatcher starts watching the directory holding the store's feed file.
// The directory is watched rather than the file so editors that replace
// the file on save are still seen.
func NewWatcher(store *Store, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create feed watcher: %w", err)
	}

	dir := filepath.Dir(store.Path())
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Printf("INFO: Watching %s for feed changes (auto-reload enabled)", store.Path())

	fw := &Watcher{
		watcher:  w,
		done:     make(chan struct{}),
		store:    store,
		debounce: debounce,
	}
	go fw.watchLoop(w)
	return fw, nil
}

// Stop ends the watch. It is safe to call more than once.
func (fw *Watcher) Stop() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.watcher == nil {
		return
	}
	close(fw.done)
	fw.watcher.Close()
	fw.watcher = nil
	log.Printf("INFO: Feed watcher stopped")
}

func (fw *Watcher) watchLoop(w *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	target := filepath.Base(fw.store.Path())

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(fw.debounce, func() {
					log.Printf("INFO: Feed change detected: %s", event.Name)
					fw.store.Reload()
				})
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Printf("ERROR: Feed watcher error: %v", err)

		case <-fw.done:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		}
	}
}
