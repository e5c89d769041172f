package mock

import (
	"context"

	"github.com/fwojciec/manhwa"
)

var _ manhwa.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of manhwa.Extractor.
type Extractor struct {
	IdentityFn          func() manhwa.Identity
	SearchByTitleFn     func(ctx context.Context, query string) ([]*manhwa.Work, error)
	FetchWorkByIDFn     func(ctx context.Context, id string) (*manhwa.Work, error)
	FetchChapterPagesFn func(ctx context.Context, chapterURL string) ([]string, error)
}

func (e *Extractor) Identity() manhwa.Identity {
	return e.IdentityFn()
}

func (e *Extractor) SearchByTitle(ctx context.Context, query string) ([]*manhwa.Work, error) {
	return e.SearchByTitleFn(ctx, query)
}

func (e *Extractor) FetchWorkByID(ctx context.Context, id string) (*manhwa.Work, error) {
	return e.FetchWorkByIDFn(ctx, id)
}

func (e *Extractor) FetchChapterPages(ctx context.Context, chapterURL string) ([]string, error) {
	return e.FetchChapterPagesFn(ctx, chapterURL)
}

var _ manhwa.ExtractorLookup = (*ExtractorLookup)(nil)

// ExtractorLookup is a mock implementation of manhwa.ExtractorLookup.
type ExtractorLookup struct {
	LookupFn func(key string) (manhwa.Extractor, error)
	KeysFn   func() []string
}

func (l *ExtractorLookup) Lookup(key string) (manhwa.Extractor, error) {
	return l.LookupFn(key)
}

func (l *ExtractorLookup) Keys() []string {
	return l.KeysFn()
}
