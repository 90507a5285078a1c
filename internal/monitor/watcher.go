package monitor

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher turns changes to the copy log into scan requests. Events are
// filtered by file name pattern and debounced.
type Watcher struct {
	dir      string
	pattern  string
	debounce time.Duration
	queue    *Queue
	log      zerolog.Logger
}

// NewWatcher watches dir for files whose base name matches pattern.
func NewWatcher(dir, pattern string, debounce time.Duration, queue *Queue, log zerolog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	return &Watcher{dir: dir, pattern: pattern, debounce: debounce, queue: queue, log: log}
}

// Run watches until ctx is done. It returns an error only when the watch
// cannot be established or fsnotify shuts down unexpectedly.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", w.dir, err)
	}
	w.log.Info().Str("dir", w.dir).Str("pattern", w.pattern).Msg("watching copy log")

	var pending time.Time
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("fsnotify event channel closed")
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if match, _ := filepath.Match(w.pattern, filepath.Base(event.Name)); !match {
				continue
			}
			pending = time.Now()

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("fsnotify error channel closed")
			}
			w.log.Warn().Err(err).Msg("fsnotify error")

		case <-ticker.C:
			if !pending.IsZero() && time.Since(pending) >= w.debounce {
				pending = time.Time{}
				if w.queue.Request() {
					w.log.Debug().Msg("copy log changed, scan requested")
				}
			}
		}
	}
}
