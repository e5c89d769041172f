// Package slog provides logging decorators for manhwa interfaces using
// the standard library's log/slog.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/manhwa"
)

// Ensure LoggingFetcher implements manhwa.Fetcher.
var _ manhwa.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with debug logging.
type LoggingFetcher struct {
	next   manhwa.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next manhwa.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the URL being fetched and delegates to the wrapped fetcher.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (page *manhwa.Page, err error) {
	defer func(begin time.Time) {
		var final string
		var size int
		if page != nil {
			final, size = page.URL, len(page.HTML)
		}
		f.logger.Debug("fetch",
			"url", url,
			"final_url", final,
			"bytes", size,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
