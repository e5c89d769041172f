package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/manhwa"
)

// Run executes the work command.
func (c *WorkCmd) Run(deps *Dependencies) error {
	ext, err := deps.Extractors.Lookup(c.Key)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", manhwa.ErrorMessage(err))
		return err
	}

	work, err := ext.FetchWorkByID(deps.Ctx, c.ID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", manhwa.ErrorMessage(err))
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(work)
	}

	m := work.Metadata
	fmt.Fprintf(deps.Stdout, "Title:    %s\n", m.Title)
	fmt.Fprintf(deps.Stdout, "Author:   %s\n", m.Author)
	fmt.Fprintf(deps.Stdout, "Genre:    %s\n", m.Genre)
	fmt.Fprintf(deps.Stdout, "Status:   %s\n", m.Status)
	fmt.Fprintf(deps.Stdout, "Rating:   %s\n", m.Rating)
	fmt.Fprintf(deps.Stdout, "URL:      %s\n", m.URL)
	fmt.Fprintf(deps.Stdout, "Chapters: %d\n", len(work.Chapters))
	for _, ch := range work.Chapters {
		fmt.Fprintf(deps.Stdout, "  #%d  %s  %s  %s\n", ch.Number, ch.Title, ch.ReleaseDate, ch.URL)
	}
	return nil
}
