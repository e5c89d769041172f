package goquery

import (
	"net/url"
	"strings"

	"github.com/fwojciec/manhwa"
)

// Template placeholders expanded by Site.WorkURL and Site.SearchURL.
const (
	idPlaceholder    = "{id}"
	queryPlaceholder = "{query}"
)

// DefaultMaxIndexPages bounds the chapter index pages fetched for one work
// when a Site does not set MaxIndexPages.
const DefaultMaxIndexPages = 500

// Site describes where an Extractor finds things on one external site.
// Selectors are CSS selectors evaluated with goquery.
type Site struct {
	Identity manhwa.Identity

	// WorkTemplate builds the page of a single title from its id. The site
	// is expected to redirect it to the canonical page.
	WorkTemplate string

	// SearchTemplate builds the search results page from a query.
	SearchTemplate string

	// Search results.
	Card     string
	CardLink string

	// Metadata fields on the title page.
	Title       string
	Author      string
	AuthorStrip []string
	Description string
	Genre       string
	Rating      string
	Thumbnail   string

	// Status is copied verbatim into every Metadata.
	Status string

	// Chapter index on the title page.
	Chapter       string
	ChapterLink   string
	ChapterTitle  string
	ChapterDate   string
	ChapterNumber string

	// PageSize is the number of chapters listed per index page.
	PageSize int

	// PageParam is the query parameter selecting an index page.
	PageParam string

	// MaxIndexPages caps the index pages a single work may need. The page
	// count comes from the newest chapter label, so a bogus label fails the
	// fetch instead of fanning out. Zero means DefaultMaxIndexPages.
	MaxIndexPages int

	// Chapter viewer. Images are the direct children of ImageContainer
	// matching Image, and the real URL is read from ImageAttr.
	ImageContainer string
	Image          string
	ImageAttr      string
}

// WorkURL expands the work template for id.
func (s Site) WorkURL(id string) string {
	return strings.ReplaceAll(s.WorkTemplate, idPlaceholder, url.QueryEscape(id))
}

// SearchURL expands the search template for query.
func (s Site) SearchURL(query string) string {
	return strings.ReplaceAll(s.SearchTemplate, queryPlaceholder, url.QueryEscape(query))
}

// Validate returns an error if the site cannot be scraped.
func (s Site) Validate() error {
	switch {
	case !strings.Contains(s.WorkTemplate, idPlaceholder):
		return manhwa.Errorf(manhwa.EINVALID, "work template must contain %s", idPlaceholder)
	case !strings.Contains(s.SearchTemplate, queryPlaceholder):
		return manhwa.Errorf(manhwa.EINVALID, "search template must contain %s", queryPlaceholder)
	case s.Title == "":
		return manhwa.Errorf(manhwa.EINVALID, "title selector required")
	case s.Card == "" || s.CardLink == "":
		return manhwa.Errorf(manhwa.EINVALID, "search card selectors required")
	case s.Chapter == "":
		return manhwa.Errorf(manhwa.EINVALID, "chapter selector required")
	case s.ImageContainer == "" || s.Image == "" || s.ImageAttr == "":
		return manhwa.Errorf(manhwa.EINVALID, "image selectors required")
	case s.PageSize <= 0:
		return manhwa.Errorf(manhwa.EINVALID, "page size must be positive, got %d", s.PageSize)
	case s.PageParam == "":
		return manhwa.Errorf(manhwa.EINVALID, "page parameter required")
	case s.MaxIndexPages < 0:
		return manhwa.Errorf(manhwa.EINVALID, "max index pages must not be negative, got %d", s.MaxIndexPages)
	}
	return nil
}

func (s Site) maxIndexPages() int {
	if s.MaxIndexPages > 0 {
		return s.MaxIndexPages
	}
	return DefaultMaxIndexPages
}

// PageCount returns how many index pages list chapters 1..newest when each
// page holds pageSize chapters.
func PageCount(newest, pageSize int) int {
	if newest <= 0 || pageSize <= 0 {
		return 0
	}
	return (newest + pageSize - 1) / pageSize
}
