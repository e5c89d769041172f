package manhwa

import "context"

// Page is a fetched HTML document.
type Page struct {
	// URL is the final URL after redirects.
	URL string

	// HTML is the response body.
	HTML string
}

// Fetcher retrieves HTML from URLs.
// Implementations may use browser automation to handle JavaScript-rendered content.
type Fetcher interface {
	// Fetch retrieves url and returns the page along with the URL it was
	// finally served from. The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (*Page, error)

	// Close releases fetcher resources.
	Close() error
}
