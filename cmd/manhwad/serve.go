package main

import (
	"fmt"

	"github.com/fwojciec/manhwa"
	"github.com/fwojciec/manhwa/fsnotify"
	mgin "github.com/fwojciec/manhwa/gin"
)

// Run executes the serve command. It blocks until the context is done.
func (c *ServeCmd) Run(deps *Dependencies) error {
	if deps.Config.Watch {
		w, err := fsnotify.NewWatcher(deps.Config.PluginDir, deps.Registry.Extensions(), fsnotify.WithLogger(deps.Logger))
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", manhwa.ErrorMessage(err))
			return err
		}
		watched := make(chan struct{})
		go func() {
			defer close(watched)
			_ = deps.Registry.Watch(deps.Ctx, w)
		}()
		defer func() {
			_ = w.Close()
			<-watched
		}()
	}

	s := mgin.NewServer(deps.Extractors,
		mgin.WithLogger(deps.Logger),
		mgin.WithEvents(deps.Hub),
	)
	s.Addr = deps.Config.Addr
	if err := s.Open(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", manhwa.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Serving %d plugins on %s\n", len(deps.Extractors.Keys()), s.URL())

	<-deps.Ctx.Done()

	// Subscribers get a close frame before the listener goes away.
	_ = deps.Hub.Close()
	return s.Close()
}
