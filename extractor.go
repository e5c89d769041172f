package manhwa

import "context"

// Identity holds the static descriptive fields of an extractor.
type Identity struct {
	SiteName        string `json:"siteName"`
	SiteURL         string `json:"siteUrl"`
	SiteLogo        string `json:"siteLogo"`
	SiteDescription string `json:"siteDescription"`
	Developer       string `json:"pluginDeveloper"`
}

// Extractor scrapes one external site. Every plugin resolves to an
// Extractor instance.
//
// Implementations must be safe for concurrent use and must not retry
// internally. Transport failures are reported as ENETWORK, missing
// mandatory page structure as EPARSE.
type Extractor interface {
	// Identity returns the extractor's descriptive fields.
	Identity() Identity

	// SearchByTitle returns metadata-only works matching query, in the order
	// the site lists them.
	SearchByTitle(ctx context.Context, query string) ([]*Work, error)

	// FetchWorkByID returns the work with its full chapter index.
	FetchWorkByID(ctx context.Context, id string) (*Work, error)

	// FetchChapterPages returns the image URLs of a chapter in reading order.
	FetchChapterPages(ctx context.Context, chapterURL string) ([]string, error)
}

// ExtractorLookup resolves registry keys to extractors.
type ExtractorLookup interface {
	// Lookup returns the extractor registered under key.
	// Returns ENOTFOUND if no extractor is registered.
	Lookup(key string) (Extractor, error)

	// Keys returns the registered keys in sorted order.
	Keys() []string
}
