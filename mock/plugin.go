package mock

import "github.com/fwojciec/manhwa"

var _ manhwa.DescriptorDecoder = (*DescriptorDecoder)(nil)

// DescriptorDecoder is a mock implementation of manhwa.DescriptorDecoder.
type DescriptorDecoder struct {
	DecodeFn func(filename string, src []byte) (*manhwa.Descriptor, error)
}

func (d *DescriptorDecoder) Decode(filename string, src []byte) (*manhwa.Descriptor, error) {
	return d.DecodeFn(filename, src)
}

var _ manhwa.PluginWatcher = (*PluginWatcher)(nil)

// PluginWatcher is a mock implementation of manhwa.PluginWatcher.
type PluginWatcher struct {
	EventsFn func() <-chan manhwa.PluginEvent
	CloseFn  func() error
}

func (w *PluginWatcher) Events() <-chan manhwa.PluginEvent {
	return w.EventsFn()
}

func (w *PluginWatcher) Close() error {
	return w.CloseFn()
}

var _ manhwa.RegistryObserver = (*RegistryObserver)(nil)

// RegistryObserver is a mock implementation of manhwa.RegistryObserver.
type RegistryObserver struct {
	ObserveFn func(change manhwa.RegistryChange)
}

func (o *RegistryObserver) Observe(change manhwa.RegistryChange) {
	o.ObserveFn(change)
}
