// Package watcher reports changes to the files a planner store keeps on
// disk, so an open session can reload tasks written by another process.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay is how long the watch loop waits for the event stream to go
// quiet. A temp write followed by a rename arrives as one reload.
const debounceDelay = 100 * time.Millisecond

// Files written next to the store that never carry task data.
var ignoredSuffixes = []string{".lock", ".tmp", "activity.jsonl"}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDelay replaces the default quiet period.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) { w.delay = d }
}

// Watcher turns bursts of store file events into single reload calls.
type Watcher struct {
	fsw    *fsnotify.Watcher
	reload func()
	delay  time.Duration
}

// New watches each distinct path. reload runs on the Run goroutine once the
// store has been quiet for the debounce delay.
func New(paths []string, reload func(), opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	seen := make([]string, 0, len(paths))
	for _, p := range paths {
		p = filepath.Clean(p)
		if slices.Contains(seen, p) {
			continue
		}
		seen = append(seen, p)
		if err := fsw.Add(p); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", p, err)
		}
	}

	w := &Watcher{fsw: fsw, reload: reload, delay: debounceDelay}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run blocks until ctx ends or the watcher is closed. Watch errors go to
// onErr when it is non-nil. A reload still pending at exit is dropped.
func (w *Watcher) Run(ctx context.Context, onErr func(error)) {
	quiet := time.NewTimer(w.delay)
	quiet.Stop()
	defer quiet.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-quiet.C:
			w.reload()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if Relevant(ev) {
				quiet.Reset(w.delay)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if onErr != nil {
				onErr(err)
			}
		}
	}
}

// Relevant reports whether ev may have changed stored tasks.
func Relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(ev.Name)
	return !slices.ContainsFunc(ignoredSuffixes, func(s string) bool {
		return strings.HasSuffix(name, s)
	})
}

// Close stops watching. Run returns once the event channels drain.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
