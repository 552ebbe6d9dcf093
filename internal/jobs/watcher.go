// Package jobs contains background workers for the assistant.
package jobs

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reloader re-chunks and re-indexes the knowledge base.
type Reloader interface {
	Reload(ctx context.Context) (int, error)
}

// watchedExtensions mirrors the document extensions the knowledge loader
// accepts; events for other files are ignored.
var watchedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// Watcher reloads the knowledge base when files in the watched directory
// change. Bursts of events (editor save, git checkout) collapse into a
// single reload via a debounce timer.
type Watcher struct {
	reloader Reloader
	dir      string
	debounce time.Duration

	fsw      *fsnotify.Watcher
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewWatcher creates a new Watcher instance
func NewWatcher(reloader Reloader, dir string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		reloader: reloader,
		dir:      dir,
		debounce: debounce,
		fsw:      fsw,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}, nil
}

// Start begins the watch loop. It blocks until the context is cancelled or
// Stop is called; run it in its own goroutine.
func (w *Watcher) Start(ctx context.Context) {
	defer close(w.doneChan)

	log.Printf("knowledge watcher started on %s (debounce %v)", w.dir, w.debounce)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			log.Println("knowledge watcher stopped: context cancelled")
			return
		case <-w.stopChan:
			log.Println("knowledge watcher stopped: stop signal received")
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			pending = true
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("knowledge watcher error: %v", err)
		case <-timer.C:
			pending = false
			// A failed reload keeps the previous index serving.
			if _, err := w.reloader.Reload(ctx); err != nil {
				log.Printf("knowledge auto-reload failed: %v", err)
			}
		}
	}
}

// Stop gracefully stops the watcher.
func (w *Watcher) Stop() {
	close(w.stopChan)
	<-w.doneChan
	w.fsw.Close()
	log.Println("knowledge watcher shutdown complete")
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !watchedExtensions[filepath.Ext(event.Name)] {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
