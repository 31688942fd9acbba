// Package watcher turns filesystem changes to one file into debounced
// "changed" signals that handlers can be connected to.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/worksets/internal/log"
	"github.com/zjrosen/worksets/internal/pubsub"
)

// Changed is emitted once per debounced burst of writes to the watched file.
const Changed pubsub.EventType = "changed"

// Watcher monitors a single file and emits Changed on its broker.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration
	broker    *pubsub.Broker[string]
	done      chan struct{}
	stopped   chan struct{} // closed when loop returns
	started   atomic.Bool
	stopOnce  sync.Once
}

// Config holds watcher configuration options.
type Config struct {
	Path        string
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		DebounceDur: 500 * time.Millisecond,
	}
}

// New creates a watcher. Call Start to begin watching.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		path:      filepath.Clean(cfg.Path),
		debounce:  cfg.DebounceDur,
		broker:    pubsub.NewBroker[string](),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}, nil
}

// Connect registers fn for event. The payload is the watched path.
func (w *Watcher) Connect(event pubsub.EventType, fn func(pubsub.Event[string])) pubsub.HandlerID {
	return w.broker.Connect(event, fn)
}

// Disconnect removes a handler registered with Connect.
func (w *Watcher) Disconnect(id pubsub.HandlerID) bool {
	return w.broker.Disconnect(id)
}

// Start watches the directory containing the file, so the file may be
// replaced atomically by editors.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.path)
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}

	w.started.Store(true)
	go w.loop()

	log.Debug(log.CatWatcher, "Watching", "path", w.path)
	return nil
}

// Stop terminates the watcher and closes the broker. Idempotent.
// It returns once the event loop has exited, so no handler is still running
// afterwards. Must not be called from a Changed handler.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
		if w.started.Load() {
			<-w.stopped
		}
		w.broker.Close()
	})
	return err
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	defer close(w.stopped)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C
			pending = true

		case <-timerC:
			timerC = nil
			if pending {
				pending = false
				w.broker.Publish(Changed, w.path)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "fsnotify error", err, "path", w.path)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent reports writes, creates and renames of the watched file.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Clean(event.Name) == w.path
}
