// Package registry owns the set of loaded extractor plugins. Plugins are
// loaded from descriptor files, keyed by file name, and can be replaced
// while lookups are being served.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/manhwa"
)

// DefaultConstructTimeout bounds a single factory call.
const DefaultConstructTimeout = 5 * time.Second

var _ manhwa.ExtractorLookup = (*Registry)(nil)

// Registry maps plugin keys to live extractor instances.
//
// Lookups take a read lock and never wait for a plugin to be constructed:
// Load and Reload build the new instance first and only lock the map to
// swap it in. Mutations are serialized with respect to each other.
type Registry struct {
	catalog          *manhwa.Catalog
	decoders         map[string]manhwa.DescriptorDecoder
	logger           *slog.Logger
	observer         manhwa.RegistryObserver
	constructTimeout time.Duration

	mutate sync.Mutex // serializes mutations

	mu      sync.RWMutex
	entries map[string]*entry
	closed  bool
}

type entry struct {
	path      string
	export    string
	extractor manhwa.Extractor
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithObserver sets an observer notified after every successful mutation.
func WithObserver(o manhwa.RegistryObserver) Option {
	return func(r *Registry) {
		r.observer = o
	}
}

// WithConstructTimeout sets how long a factory may take before the load fails.
func WithConstructTimeout(d time.Duration) Option {
	return func(r *Registry) {
		r.constructTimeout = d
	}
}

// WithDecoder registers dec for files with the given extensions.
func WithDecoder(dec manhwa.DescriptorDecoder, extensions ...string) Option {
	return func(r *Registry) {
		for _, ext := range extensions {
			r.decoders[strings.ToLower(ext)] = dec
		}
	}
}

// New creates an empty Registry that constructs extractors from catalog.
func New(catalog *manhwa.Catalog, opts ...Option) *Registry {
	r := &Registry{
		catalog:          catalog,
		decoders:         make(map[string]manhwa.DescriptorDecoder),
		logger:           slog.New(slog.DiscardHandler),
		constructTimeout: DefaultConstructTimeout,
		entries:          make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Extensions returns the recognized plugin file extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.decoders))
	for ext := range r.decoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Recognized reports whether path has a recognized plugin extension.
func (r *Registry) Recognized(path string) bool {
	_, ok := r.decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Lookup returns the extractor registered under key.
// Returns ENOTFOUND if no extractor is registered.
func (r *Registry) Lookup(key string) (manhwa.Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[key]
	if !ok {
		return nil, manhwa.Errorf(manhwa.ENOTFOUND, "plugin %q not found", key)
	}
	return e.extractor, nil
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load constructs the extractor declared by the descriptor at path and
// registers it under the file's base name, replacing any existing entry.
//
// The export marked default is used when it can be constructed; otherwise
// the first constructible export in declaration order. Returns ELOAD when
// no export can be constructed, in which case the registry is unchanged.
func (r *Registry) Load(ctx context.Context, path string) error {
	r.mutate.Lock()
	defer r.mutate.Unlock()

	key := manhwa.PluginKey(path)
	e, err := r.build(ctx, path)
	if err != nil {
		r.logger.Error("plugin load failed", "key", key, "path", path, "err", err)
		return err
	}

	old, err := r.swap(key, e)
	if err != nil {
		closeExtractor(e.extractor)
		return err
	}
	r.discard(key, old)

	r.logger.Info("plugin loaded", "key", key, "path", path, "export", e.export)
	r.notify(manhwa.RegistryLoaded, key)
	return nil
}

// Reload replaces the extractor under key with one built from path. The
// new instance is constructed before the old one is removed, so lookups
// keep succeeding throughout a successful reload. Nothing of the old
// instance is carried over.
//
// If path cannot be loaded the entry is removed and ELOAD is returned.
func (r *Registry) Reload(ctx context.Context, key, path string) error {
	r.mutate.Lock()
	defer r.mutate.Unlock()

	e, err := r.build(ctx, path)
	if err != nil {
		r.logger.Error("plugin reload failed", "key", key, "path", path, "err", err)
		if r.remove(key) {
			r.notify(manhwa.RegistryUnloaded, key)
		}
		return err
	}

	old, err := r.swap(key, e)
	if err != nil {
		closeExtractor(e.extractor)
		return err
	}
	r.discard(key, old)

	r.logger.Info("plugin reloaded", "key", key, "path", path, "export", e.export)
	r.notify(manhwa.RegistryReloaded, key)
	return nil
}

// Unload removes the entry for key. Unloading an absent key is a no-op
// and reports false.
func (r *Registry) Unload(key string) bool {
	r.mutate.Lock()
	defer r.mutate.Unlock()

	if !r.remove(key) {
		r.logger.Info("plugin not loaded", "key", key)
		return false
	}
	r.logger.Info("plugin unloaded", "key", key)
	r.notify(manhwa.RegistryUnloaded, key)
	return true
}

// ScanDirectory loads every recognized plugin file in dir whose key is not
// registered yet. Dotfiles are skipped. Load failures are logged and do not
// stop the scan; only failure to read dir is returned.
func (r *Registry) ScanDirectory(ctx context.Context, dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scan plugin directory: %w", err)
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.IsDir() || manhwa.IsHidden(f.Name()) || !r.Recognized(f.Name()) {
			continue
		}
		key := manhwa.PluginKey(f.Name())
		if r.has(key) {
			continue
		}
		// Failures are logged by Load.
		_ = r.Load(ctx, filepath.Join(dir, f.Name()))
	}
	return nil
}

// Close drops every entry. Extractors implementing io.Closer are closed.
// The registry rejects loads after Close.
func (r *Registry) Close() error {
	r.mutate.Lock()
	defer r.mutate.Unlock()

	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.closed = true
	r.mu.Unlock()

	var errs []error
	for key, e := range entries {
		if err := closeExtractor(e.extractor); err != nil {
			errs = append(errs, fmt.Errorf("close plugin %q: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

// pathOf returns the source path of the entry under key.
func (r *Registry) pathOf(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[key]
	if !ok {
		return "", false
	}
	return e.path, true
}

// swap installs e under key and returns the entry it replaced.
func (r *Registry) swap(key string, e *entry) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, manhwa.Errorf(manhwa.EINVALID, "registry is closed")
	}
	old := r.entries[key]
	r.entries[key] = e
	return old, nil
}

// remove deletes and discards the entry under key.
func (r *Registry) remove(key string) bool {
	r.mu.Lock()
	old, ok := r.entries[key]
	delete(r.entries, key)
	r.mu.Unlock()

	if ok {
		r.discard(key, old)
	}
	return ok
}

func (r *Registry) discard(key string, e *entry) {
	if e == nil {
		return
	}
	if err := closeExtractor(e.extractor); err != nil {
		r.logger.Warn("plugin close failed", "key", key, "err", err)
	}
}

func (r *Registry) notify(kind manhwa.RegistryChangeKind, key string) {
	if r.observer != nil {
		r.observer.Observe(manhwa.RegistryChange{Kind: kind, Key: key})
	}
}

func closeExtractor(ext manhwa.Extractor) error {
	if c, ok := ext.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
