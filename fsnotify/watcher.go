// Package fsnotify implements manhwa.PluginWatcher on top of
// github.com/fsnotify/fsnotify.
package fsnotify

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/fwojciec/manhwa"
)

var _ manhwa.PluginWatcher = (*Watcher)(nil)

// Watcher reports changes to plugin files in one directory. Dotfiles and
// files without a recognized extension are ignored. Writes that leave a
// file's content unchanged are not reported.
type Watcher struct {
	watcher    *fsnotify.Watcher
	extensions map[string]bool
	logger     *slog.Logger

	events  chan manhwa.PluginEvent
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	digests map[string]uint64 // owned by the run goroutine
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger for watcher errors.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher starts watching dir for files with one of the given extensions.
func NewWatcher(dir string, extensions []string, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, manhwa.Errorf(manhwa.EINTERNAL, "create watcher: %v", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, manhwa.Errorf(manhwa.EINVALID, "watch %s: %v", dir, err)
	}

	w := newWatcher(fw, extensions, opts...)
	w.wg.Add(1)
	go w.run()
	return w, nil
}

func newWatcher(fw *fsnotify.Watcher, extensions []string, opts ...Option) *Watcher {
	w := &Watcher{
		watcher:    fw,
		extensions: make(map[string]bool, len(extensions)),
		logger:     slog.New(slog.DiscardHandler),
		events:     make(chan manhwa.PluginEvent),
		done:       make(chan struct{}),
		digests:    make(map[string]uint64),
	}
	for _, ext := range extensions {
		w.extensions[strings.ToLower(ext)] = true
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Events returns the plugin event stream. It is closed by Close.
func (w *Watcher) Events() <-chan manhwa.PluginEvent {
	return w.events
}

// Close stops watching and closes the event stream.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()
	defer close(w.events)

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			pe, ok := w.translate(ev)
			if !ok {
				continue
			}
			select {
			case w.events <- pe:
			case <-w.done:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("plugin watcher error", "err", err)
		}
	}
}

// translate maps a filesystem event to a plugin event. It reports false
// for events that should not reach the registry.
func (w *Watcher) translate(ev fsnotify.Event) (manhwa.PluginEvent, bool) {
	path := ev.Name
	if manhwa.IsHidden(path) || !w.extensions[strings.ToLower(filepath.Ext(path))] {
		return manhwa.PluginEvent{}, false
	}

	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		delete(w.digests, path)
		return manhwa.PluginEvent{Kind: manhwa.PluginRemoved, Path: path}, true

	case ev.Has(fsnotify.Create):
		if sum, ok := digest(path); ok {
			w.digests[path] = sum
		}
		return manhwa.PluginEvent{Kind: manhwa.PluginAdded, Path: path}, true

	case ev.Has(fsnotify.Write):
		sum, ok := digest(path)
		if !ok {
			return manhwa.PluginEvent{}, false
		}
		if prev, seen := w.digests[path]; seen && prev == sum {
			return manhwa.PluginEvent{}, false
		}
		w.digests[path] = sum
		return manhwa.PluginEvent{Kind: manhwa.PluginChanged, Path: path}, true
	}

	return manhwa.PluginEvent{}, false
}

func digest(path string) (uint64, bool) {
	src, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	return xxhash.Sum64(src), true
}
