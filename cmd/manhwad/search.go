package main

import (
	"fmt"

	"github.com/fwojciec/manhwa"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	ext, err := deps.Extractors.Lookup(c.Key)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", manhwa.ErrorMessage(err))
		return err
	}

	works, err := ext.SearchByTitle(deps.Ctx, c.Title)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", manhwa.ErrorMessage(err))
		return err
	}

	if len(works) == 0 {
		fmt.Fprintf(deps.Stdout, "No results for %q.\n", c.Title)
		return nil
	}

	for _, w := range works {
		fmt.Fprintf(deps.Stdout, "%s  %s\n", w.Metadata.Title, w.Metadata.URL)
	}
	return nil
}
