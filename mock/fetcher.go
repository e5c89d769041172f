package mock

import (
	"context"

	"github.com/fwojciec/manhwa"
)

var _ manhwa.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of manhwa.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*manhwa.Page, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*manhwa.Page, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}
