package manhwa

// PluginEventKind classifies a change to a plugin source file.
type PluginEventKind int

const (
	PluginAdded PluginEventKind = iota + 1
	PluginChanged
	PluginRemoved
)

func (k PluginEventKind) String() string {
	switch k {
	case PluginAdded:
		return "added"
	case PluginChanged:
		return "changed"
	case PluginRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// PluginEvent reports a change to the plugin source file at Path.
type PluginEvent struct {
	Kind PluginEventKind
	Path string
}

// PluginWatcher emits events for plugin source files. Filtering of dotfiles
// and unrecognized extensions happens in the watcher.
type PluginWatcher interface {
	// Events returns the event stream. The channel is closed when the
	// watcher is closed.
	Events() <-chan PluginEvent

	// Close stops the watcher.
	Close() error
}

// RegistryChangeKind classifies a registry mutation.
type RegistryChangeKind string

const (
	RegistryLoaded   RegistryChangeKind = "loaded"
	RegistryReloaded RegistryChangeKind = "reloaded"
	RegistryUnloaded RegistryChangeKind = "unloaded"
)

// RegistryChange describes a completed registry mutation.
type RegistryChange struct {
	Kind RegistryChangeKind `json:"kind"`
	Key  string             `json:"key"`
}

// RegistryObserver is notified after the registry changes.
// Observe must not block.
type RegistryObserver interface {
	Observe(change RegistryChange)
}
