package main

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tecnoter/ttsh/internal/config"
)

const configDebounce = 500 * time.Millisecond

// configWatcher reports edits to config.json. Listeners, keys and limits
// are bound at startup, so a change only takes effect after a restart.
type configWatcher struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
	dir     string
	changed func(path string)
}

func newConfigWatcher(dir string) (*configWatcher, error) {
	return watchConfig(dir, func(path string) { handleConfigChange(dir, path) })
}

// watchConfig calls changed, debounced, whenever config.json in dir is
// written or replaced.
func watchConfig(dir string, changed func(path string)) (*configWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Printf("INFO: Watching %s for config changes", dir)

	cw := &configWatcher{watcher: w, done: make(chan struct{}), dir: dir, changed: changed}
	go cw.watchLoop(w)
	return cw, nil
}

// Stop ends the watch. It is safe to call more than once.
func (cw *configWatcher) Stop() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.watcher == nil {
		return
	}
	close(cw.done)
	cw.watcher.Close()
	cw.watcher = nil
	log.Printf("INFO: Configuration file watcher stopped")
}

func (cw *configWatcher) watchLoop(w *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if !strings.EqualFold(filepath.Base(event.Name), "config.json") {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(configDebounce, func() { cw.changed(name) })

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Printf("ERROR: Config file watcher error: %v", err)

		case <-cw.done:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		}
	}
}

// handleConfigChange checks the edited file still parses and asks for a
// restart.
func handleConfigChange(dir, path string) {
	log.Printf("INFO: Config file change detected: %s", filepath.Base(path))
	if _, err := config.LoadServerConfig(dir); err != nil {
		log.Printf("ERROR: Edited config.json does not load: %v", err)
		return
	}
	log.Printf("WARN: config.json changed - server restart required for changes to take effect")
}
