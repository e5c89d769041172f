package manhwa

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Descriptor is the decoded form of a plugin source file.
type Descriptor struct {
	// Exports are the extractors the file declares, in declaration order.
	Exports []Export
}

// Export declares one extractor inside a descriptor.
type Export struct {
	// Name identifies the export within its descriptor.
	Name string

	// Kind names the Factory used to construct the extractor.
	Kind string

	// Default marks the export to prefer when the descriptor declares several.
	Default bool

	// Identity overrides the factory's built-in identity fields when set.
	Identity Identity

	// Settings are passed to the factory verbatim.
	Settings map[string]string
}

// Setting returns the named setting or def when unset or empty.
func (e *Export) Setting(name, def string) string {
	if v := e.Settings[name]; v != "" {
		return v
	}
	return def
}

// Factory constructs an extractor from an export. A factory returning an
// error marks the export as not constructible.
type Factory func(ctx context.Context, export Export) (Extractor, error)

// DescriptorDecoder parses plugin source files of one format.
type DescriptorDecoder interface {
	// Decode parses src. The filename is used in diagnostics only.
	Decode(filename string, src []byte) (*Descriptor, error)
}

// Catalog maps factory kinds to factories. Extractors are compiled into the
// binary and registered here; descriptor files only select and configure them.
//
// Catalog is safe for concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]Factory)}
}

// Register adds a factory for kind.
// If a factory is already registered for kind, it is replaced.
func (c *Catalog) Register(kind string, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[kind] = f
}

// Factory returns the factory registered for kind.
func (c *Catalog) Factory(kind string) (Factory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.factories[kind]
	return f, ok
}

// Kinds returns all registered kinds in sorted order.
func (c *Catalog) Kinds() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	kinds := make([]string, 0, len(c.factories))
	for k := range c.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// PluginKey derives the registry key for a plugin source file: its base
// name without the extension.
func PluginKey(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsHidden reports whether the file at path is a dotfile.
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
