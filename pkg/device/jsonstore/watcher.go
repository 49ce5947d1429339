package jsonstore

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce coalesces the bursts of events an editor save produces.
const DefaultDebounce = 250 * time.Millisecond

// Watcher calls a reload function after the document changes on disk.
// It watches the parent directory, since atomic replacements (including our
// own Save) swap the inode and would drop a watch placed on the file itself.
type Watcher struct {
	path     string
	reload   func(context.Context) error
	debounce time.Duration
}

// NewWatcher creates a watcher for the document at path.
func NewWatcher(path string, reload func(context.Context) error) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		reload:   reload,
		debounce: DefaultDebounce,
	}
}

// SetDebounce overrides the quiet period before a reload.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run blocks until ctx is cancelled. Reload failures are logged and the
// previous registry contents stay in place.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Info().Str("path", w.path).Msg("watching device document")

	var pending *time.Timer
	var fire <-chan time.Time
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if pending == nil {
				pending = time.NewTimer(w.debounce)
			} else {
				pending.Reset(w.debounce)
			}
			fire = pending.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Str("path", w.path).Msg("file watcher error")

		case <-fire:
			fire = nil
			if err := w.reload(ctx); err != nil {
				log.Warn().Err(err).Str("path", w.path).Msg("failed to reload device document")
				continue
			}
			log.Debug().Str("path", w.path).Msg("device document reloaded")
		}
	}
}
