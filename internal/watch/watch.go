// Package watch notices writes to a list directory made by other processes, so a long-running
// shell (TUI or web) can reload the list when the CLI changes it.
package watch

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 150 * time.Millisecond

type Watcher struct {
	w        *fsnotify.Watcher
	prefix   string
	debounce time.Duration
}

// New watches dir for writes to files whose name starts with prefix (the database and its
// write-ahead log). Only write events count: readers create and remove the log file too.
func New(dir, prefix string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{w: fw, prefix: prefix, debounce: debounce}, nil
}

func (w *Watcher) Close() error { return w.w.Close() }

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) {
		return false
	}
	base := filepath.Base(ev.Name)
	// Readers touch the shared-memory index; only data and WAL writes mean new content.
	if strings.HasSuffix(base, "-shm") {
		return false
	}
	return strings.HasPrefix(base, w.prefix)
}

// Next blocks until a relevant write happens, then waits out the debounce window so a burst
// of writes is reported once. It returns ctx.Err() or the watcher's error.
func (w *Watcher) Next(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-w.w.Errors:
			if !ok {
				return context.Canceled
			}
			return err
		case ev, ok := <-w.w.Events:
			if !ok {
				return context.Canceled
			}
			if !w.relevant(ev) {
				continue
			}
			return w.drain(ctx)
		}
	}
}

func (w *Watcher) drain(ctx context.Context) error {
	t := time.NewTimer(w.debounce)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		case _, ok := <-w.w.Events:
			if !ok {
				return nil
			}
		}
	}
}

// Run calls fn after every reported change until ctx is done or the watcher fails.
func (w *Watcher) Run(ctx context.Context, fn func()) error {
	for {
		if err := w.Next(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fn()
	}
}
