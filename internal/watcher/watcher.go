// Package watcher implements the Watch Orchestrator: it monitors
// config files, input files, and wildcard directories for changes and
// debounces rapid bursts into a single invalidation pass. The
// object-pool and backpressure-eviction machinery a browser-asset
// watcher would need is dropped: a project graph sees orders of
// magnitude fewer files, so a plain map-based debounce is sufficient.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/projtool/internal/logging"
)

// EventType classifies a file system change.
type EventType int

const (
	EventCreated EventType = iota
	EventModified
	EventRemoved
	EventRenamed
)

// ChangeEvent is a single debounced file system change.
type ChangeEvent struct {
	Path    string
	Type    EventType
	ModTime time.Time
}

// ChangeHandler is notified with a deduplicated batch of changes once
// the debounce window closes.
type ChangeHandler func(events []ChangeEvent)

// Orchestrator watches a set of paths and dispatches debounced change
// batches to registered handlers.
type Orchestrator struct {
	watcher *fsnotify.Watcher
	delay   time.Duration
	log     logging.Logger

	mu       sync.Mutex
	pending  map[string]ChangeEvent
	timer    *time.Timer
	handlers []ChangeHandler
	stopped  bool
}

// New creates an Orchestrator with the given debounce delay.
func New(delay time.Duration, log logging.Logger) (*Orchestrator, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if log == nil {
		log = logging.NewTestLogger()
	}
	return &Orchestrator{
		watcher: w,
		delay:   delay,
		log:     log,
		pending: make(map[string]ChangeEvent),
	}, nil
}

// AddHandler registers a callback invoked with every debounced batch.
func (o *Orchestrator) AddHandler(h ChangeHandler) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handlers = append(o.handlers, h)
}

// Watch adds a single path (typically a config file) to the watch set.
func (o *Orchestrator) Watch(path string) error {
	clean, err := validateWatchPath(path)
	if err != nil {
		return err
	}
	return o.watcher.Add(clean)
}

// WatchRecursive adds root and every subdirectory beneath it except
// hidden ones (names starting with "."), for wildcard directories that
// must be watched for new input files.
func (o *Orchestrator) WatchRecursive(root string) error {
	clean, err := validateWatchPath(root)
	if err != nil {
		return err
	}
	return filepath.Walk(clean, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if name := info.Name(); name != "." && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		return o.watcher.Add(path)
	})
}

// validateWatchPath rejects paths that climb above the working
// directory before handing a path to fsnotify.
func validateWatchPath(path string) (string, error) {
	clean := filepath.Clean(path)
	abs, err := filepath.Abs(clean)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %s: %w", path, err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	if !strings.HasPrefix(abs, cwd) {
		return "", fmt.Errorf("path %s is outside the working directory", path)
	}
	return clean, nil
}

// Start begins watching in the background until ctx is cancelled.
func (o *Orchestrator) Start(ctx context.Context) {
	go o.loop(ctx)
}

// Stop releases the underlying fsnotify watcher and cancels any
// pending debounce timer.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return nil
	}
	o.stopped = true
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	return o.watcher.Close()
}

func (o *Orchestrator) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-o.watcher.Events:
			if !ok {
				return
			}
			o.record(event)
		case err, ok := <-o.watcher.Errors:
			if !ok {
				return
			}
			o.log.Error(context.Background(), err, "file watcher error")
		}
	}
}

func (o *Orchestrator) record(event fsnotify.Event) {
	var eventType EventType
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		eventType = EventCreated
	case event.Op&fsnotify.Write == fsnotify.Write:
		eventType = EventModified
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		eventType = EventRemoved
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		eventType = EventRenamed
	default:
		eventType = EventModified
	}

	modTime := time.Now()
	if info, err := os.Stat(event.Name); err == nil {
		modTime = info.ModTime()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return
	}
	o.pending[event.Name] = ChangeEvent{Path: event.Name, Type: eventType, ModTime: modTime}

	if o.timer != nil {
		o.timer.Stop()
	}
	o.timer = time.AfterFunc(o.delay, o.flush)
}

func (o *Orchestrator) flush() {
	o.mu.Lock()
	if len(o.pending) == 0 {
		o.mu.Unlock()
		return
	}
	batch := make([]ChangeEvent, 0, len(o.pending))
	for _, e := range o.pending {
		batch = append(batch, e)
	}
	o.pending = make(map[string]ChangeEvent)
	handlers := o.handlers
	o.mu.Unlock()

	for _, h := range handlers {
		h(batch)
	}
}
