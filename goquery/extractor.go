// Package goquery implements manhwa.Extractor by scraping server-rendered
// HTML with goquery. One engine serves every site; a Site value tells it
// where to find things.
package goquery

import (
	"cmp"
	"context"
	"slices"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/manhwa"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds concurrent index page fetches.
const DefaultConcurrency = 4

var _ manhwa.Extractor = (*Extractor)(nil)

// Extractor scrapes one site described by a Site.
// Extractor holds no state besides its configuration and is safe for
// concurrent use.
type Extractor struct {
	site        Site
	fetcher     manhwa.Fetcher
	concurrency int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithConcurrency sets how many chapter index pages are fetched at once.
func WithConcurrency(n int) Option {
	return func(e *Extractor) {
		e.concurrency = n
	}
}

// NewExtractor creates an Extractor for site that fetches pages with fetcher.
func NewExtractor(site Site, fetcher manhwa.Fetcher, opts ...Option) *Extractor {
	e := &Extractor{
		site:        site,
		fetcher:     fetcher,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Identity returns the site's identity fields.
func (e *Extractor) Identity() manhwa.Identity {
	return e.site.Identity
}

// SearchByTitle fetches the search page once and then the title page of
// every result concurrently. A single failing title fetch fails the search.
// Results keep the order of the links on the search page.
func (e *Extractor) SearchByTitle(ctx context.Context, query string) ([]*manhwa.Work, error) {
	searchURL := e.site.SearchURL(query)
	page, err := e.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(page.HTML)
	if err != nil {
		return nil, err
	}

	cards := doc.Find(e.site.Card)
	if cards.Length() == 0 {
		return []*manhwa.Work{}, nil
	}

	var links []string
	cards.Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Find(e.site.CardLink).First().Attr("href")
		if !ok || href == "" || isNonHTTPLink(href) {
			return
		}
		links = append(links, resolveURL(page.URL, href))
	})
	if len(links) == 0 {
		return nil, manhwa.Errorf(manhwa.EPARSE, "%d result cards without links at %s", cards.Length(), searchURL)
	}

	works := make([]*manhwa.Work, len(links))
	g, ctx := errgroup.WithContext(ctx)
	for i, link := range links {
		g.Go(func() error {
			m, _, err := e.fetchMetadata(ctx, link)
			if err != nil {
				return err
			}
			works[i] = manhwa.NewSearchWork(m)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return works, nil
}

// FetchWorkByID resolves the canonical page for id and returns its
// metadata and full chapter index, ordered by ascending chapter number.
func (e *Extractor) FetchWorkByID(ctx context.Context, id string) (*manhwa.Work, error) {
	m, doc, err := e.fetchMetadata(ctx, e.site.WorkURL(id))
	if err != nil {
		return nil, err
	}

	chapters, err := e.fetchChapters(ctx, m.URL, doc)
	if err != nil {
		return nil, err
	}

	return &manhwa.Work{Metadata: m, Chapters: chapters}, nil
}

// FetchChapterPages returns the image URLs of a chapter in DOM order. The
// URL is read from the lazy-load attribute; images without it are skipped.
func (e *Extractor) FetchChapterPages(ctx context.Context, chapterURL string) ([]string, error) {
	page, err := e.fetcher.Fetch(ctx, chapterURL)
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(page.HTML)
	if err != nil {
		return nil, err
	}

	container := doc.Find(e.site.ImageContainer).First()
	if container.Length() == 0 {
		return nil, manhwa.Errorf(manhwa.EPARSE, "no image container at %s", chapterURL)
	}

	images := []string{}
	container.ChildrenFiltered(e.site.Image).Each(func(_ int, img *goquery.Selection) {
		if src, ok := img.Attr(e.site.ImageAttr); ok && src != "" {
			images = append(images, resolveURL(page.URL, src))
		}
	})
	return images, nil
}

// fetchMetadata fetches a title page and parses its metadata. The URL the
// page was served from becomes the canonical URL. The parsed document is
// returned so the caller can reuse it as the first chapter index page.
func (e *Extractor) fetchMetadata(ctx context.Context, rawURL string) (manhwa.Metadata, *goquery.Document, error) {
	page, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return manhwa.Metadata{}, nil, err
	}
	canonical := page.URL
	if canonical == "" {
		canonical = rawURL
	}

	doc, err := parseDocument(page.HTML)
	if err != nil {
		return manhwa.Metadata{}, nil, err
	}
	m, err := e.parseMetadata(doc, canonical)
	if err != nil {
		return manhwa.Metadata{}, nil, err
	}
	return m, doc, nil
}

// fetchChapters reads the newest chapter number from the canonical page,
// fetches every index page and merges their entries.
func (e *Extractor) fetchChapters(ctx context.Context, canonical string, first *goquery.Document) ([]*manhwa.Chapter, error) {
	entries := first.Find(e.site.Chapter)
	if entries.Length() == 0 {
		return []*manhwa.Chapter{}, nil
	}

	newest, ok := parseOrdinal(text(entries.First(), e.site.ChapterNumber))
	if !ok {
		return nil, manhwa.Errorf(manhwa.EPARSE, "no chapter number in first entry at %s", canonical)
	}

	count := PageCount(newest, e.site.PageSize)
	if count == 0 {
		count = 1
	}
	if limit := e.site.maxIndexPages(); count > limit {
		return nil, manhwa.Errorf(manhwa.EPARSE, "chapter #%d needs %d index pages at %s, limit is %d", newest, count, canonical, limit)
	}

	pages := make([][]*manhwa.Chapter, count)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.concurrency, 1))
	for i := range count {
		g.Go(func() error {
			pageURL, err := withPage(canonical, e.site.PageParam, i+1)
			if err != nil {
				return err
			}
			page, err := e.fetcher.Fetch(ctx, pageURL)
			if err != nil {
				return err
			}
			doc, err := parseDocument(page.HTML)
			if err != nil {
				return err
			}
			pages[i] = e.parseChapters(doc, page.URL)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return mergeChapters(pages), nil
}

// mergeChapters concatenates index pages in page order, drops repeated
// chapter URLs and sorts by ascending chapter number. Entries with the same
// number keep their relative order.
func mergeChapters(pages [][]*manhwa.Chapter) []*manhwa.Chapter {
	seen := make(map[string]bool)
	chapters := []*manhwa.Chapter{}
	for _, page := range pages {
		for _, ch := range page {
			if ch.URL != "" {
				if seen[ch.URL] {
					continue
				}
				seen[ch.URL] = true
			}
			chapters = append(chapters, ch)
		}
	}
	slices.SortStableFunc(chapters, func(a, b *manhwa.Chapter) int {
		return cmp.Compare(a.Number, b.Number)
	})
	return chapters
}
