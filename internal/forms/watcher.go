// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package forms

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates cached forms when their files change. It is run as
// a supervised service; Serve blocks until ctx is canceled.
type Watcher struct {
	store *Store

	// ready, if set, is closed once the directory is being watched.
	ready chan struct{}
}

// NewWatcher returns a Watcher for store's directory.
func NewWatcher(store *Store) *Watcher {
	return &Watcher{store: store}
}

// Serve implements suture.Service.
func (w *Watcher) Serve(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create forms watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.store.dir); err != nil {
		return fmt.Errorf("watch forms dir %s: %w", w.store.dir, err)
	}
	// Anything cached before the watch started may already be stale.
	w.store.InvalidateAll()
	w.store.log.Info().Str("dir", w.store.dir).Msg("Watching form files")
	if w.ready != nil {
		close(w.ready)
		w.ready = nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("forms watcher closed")
			}
			w.handle(ev)

		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("forms watcher closed")
			}
			w.store.log.Warn().Err(err).Msg("Forms watcher error")
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	name, ok := nameFromPath(ev.Name)
	if !ok {
		return
	}
	w.store.log.Debug().Str("form", name).Str("op", ev.Op.String()).Msg("Form file changed")
	w.store.Invalidate(name)
}

// String implements fmt.Stringer.
func (w *Watcher) String() string {
	return "forms-watcher"
}
