package registry

import (
	"context"
	"path/filepath"

	"github.com/fwojciec/manhwa"
)

// Watch applies plugin events from w until ctx is done or the event
// stream closes. An added or changed file is reloaded when it is the file
// serving its key and loaded otherwise. A removed file unloads its key, unless the
// key is currently served from a different file. Failures are logged and
// never stop the loop.
func (r *Registry) Watch(ctx context.Context, w manhwa.PluginWatcher) error {
	events := w.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			r.apply(ctx, ev)
		}
	}
}

func (r *Registry) apply(ctx context.Context, ev manhwa.PluginEvent) {
	key := manhwa.PluginKey(ev.Path)
	r.logger.Debug("plugin event", "kind", ev.Kind.String(), "key", key, "path", ev.Path)

	switch ev.Kind {
	case manhwa.PluginAdded, manhwa.PluginChanged:
		// Only the serving file may take its key down on a failed reload.
		// Any other file goes through Load, which replaces the key on
		// success and leaves it untouched on failure.
		if path, ok := r.pathOf(key); ok && filepath.Clean(path) == filepath.Clean(ev.Path) {
			_ = r.Reload(ctx, key, ev.Path)
		} else {
			_ = r.Load(ctx, ev.Path)
		}
	case manhwa.PluginRemoved:
		path, ok := r.pathOf(key)
		if ok && filepath.Clean(path) != filepath.Clean(ev.Path) {
			r.logger.Info("plugin removal ignored", "key", key, "path", ev.Path, "loaded_from", path)
			return
		}
		r.Unload(key)
	}
}
