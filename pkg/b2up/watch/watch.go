// Package watch re-runs the backup when the source tree changes.
// Filesystem events reset a debounce timer so bursts of writes
// coalesce into one run; a minimum interval keeps runs apart.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/farmergreg/rfsnotify"
	"gopkg.in/fsnotify.v1"

	"github.com/jamesainslie/b2up/pkg/b2up/logging"
)

// Default timing for event coalescing.
const (
	DefaultDebounce    = 30 * time.Second
	DefaultMinInterval = 10 * time.Minute
)

// Watcher observes a source tree and triggers runs when events settle.
type Watcher struct {
	// Source is the directory watched recursively.
	Source string

	// Debounce is how long events must be quiet before a run fires.
	Debounce time.Duration

	// MinInterval is the minimum spacing between run starts.
	MinInterval time.Duration

	// Run executes one backup; runs are strictly sequential.
	Run func(ctx context.Context) error

	Log *logging.Logger
}

// Watch blocks until ctx is cancelled, triggering Run as events
// settle. A run failure is logged and watching continues.
func (w *Watcher) Watch(ctx context.Context) error {
	if w.Debounce <= 0 {
		w.Debounce = DefaultDebounce
	}
	if w.MinInterval <= 0 {
		w.MinInterval = DefaultMinInterval
	}

	watcher, err := rfsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.AddRecursive(w.Source); err != nil {
		return fmt.Errorf("watching %s: %w", w.Source, err)
	}

	w.Log.Info("watching for changes", "source", w.Source,
		"debounce", w.Debounce, "min-interval", w.MinInterval)

	events := make(chan struct{}, 1)
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				// Permission-only changes never need a new upload.
				if ev.Op == fsnotify.Chmod {
					continue
				}
				w.Log.Debug("filesystem event", "op", ev.Op.String(), "path", ev.Name)
				select {
				case events <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.Log.Warn("watcher error", "error", err)
			case <-ctx.Done():
				return
			}
		}
	}()

	return w.loop(ctx, events)
}

// loop is the debounce state machine, separated from the filesystem
// plumbing so it can be driven directly in tests.
func (w *Watcher) loop(ctx context.Context, events <-chan struct{}) error {
	debounce := time.NewTimer(w.Debounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	var (
		pending bool
		lastRun time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-events:
			pending = true
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(w.Debounce)

		case <-debounce.C:
			if !pending {
				continue
			}

			if wait := w.MinInterval - time.Since(lastRun); !lastRun.IsZero() && wait > 0 {
				w.Log.Debug("deferring run", "wait", wait)
				debounce.Reset(wait)
				continue
			}

			pending = false
			lastRun = time.Now()

			w.Log.Info("changes settled, starting backup")
			if err := w.Run(ctx); err != nil {
				w.Log.Warn("triggered run failed", "error", err)
			}
		}
	}
}
