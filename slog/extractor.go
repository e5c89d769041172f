package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/manhwa"
)

// Ensure LoggingExtractor implements manhwa.Extractor.
var _ manhwa.Extractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps an Extractor and logs every operation with the
// registry key it was resolved from.
type LoggingExtractor struct {
	next   manhwa.Extractor
	key    string
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next manhwa.Extractor, key string, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, key: key, logger: logger}
}

// Identity delegates to the wrapped extractor.
func (e *LoggingExtractor) Identity() manhwa.Identity {
	return e.next.Identity()
}

// SearchByTitle delegates to the wrapped extractor and logs the result count.
func (e *LoggingExtractor) SearchByTitle(ctx context.Context, query string) (works []*manhwa.Work, err error) {
	defer func(begin time.Time) {
		e.logger.Info("search",
			"key", e.key,
			"query", query,
			"count", len(works),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.SearchByTitle(ctx, query)
}

// FetchWorkByID delegates to the wrapped extractor and logs the chapter count.
func (e *LoggingExtractor) FetchWorkByID(ctx context.Context, id string) (work *manhwa.Work, err error) {
	defer func(begin time.Time) {
		var chapters int
		if work != nil {
			chapters = len(work.Chapters)
		}
		e.logger.Info("fetch work",
			"key", e.key,
			"id", id,
			"chapters", chapters,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.FetchWorkByID(ctx, id)
}

// FetchChapterPages delegates to the wrapped extractor and logs the image count.
func (e *LoggingExtractor) FetchChapterPages(ctx context.Context, chapterURL string) (images []string, err error) {
	defer func(begin time.Time) {
		e.logger.Info("fetch chapter pages",
			"key", e.key,
			"url", chapterURL,
			"count", len(images),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.FetchChapterPages(ctx, chapterURL)
}

// Ensure LoggingLookup implements manhwa.ExtractorLookup.
var _ manhwa.ExtractorLookup = (*LoggingLookup)(nil)

// LoggingLookup wraps an ExtractorLookup so that every extractor it
// returns is a LoggingExtractor.
type LoggingLookup struct {
	next   manhwa.ExtractorLookup
	logger *slog.Logger
}

// NewLoggingLookup creates a new LoggingLookup.
func NewLoggingLookup(next manhwa.ExtractorLookup, logger *slog.Logger) *LoggingLookup {
	return &LoggingLookup{next: next, logger: logger}
}

// Lookup resolves key and wraps the extractor with logging.
func (l *LoggingLookup) Lookup(key string) (manhwa.Extractor, error) {
	ext, err := l.next.Lookup(key)
	if err != nil {
		return nil, err
	}
	return NewLoggingExtractor(ext, key, l.logger), nil
}

// Keys delegates to the wrapped lookup.
func (l *LoggingLookup) Keys() []string {
	return l.next.Keys()
}
