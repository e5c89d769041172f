// Package http provides an HTTP-based implementation of manhwa.Fetcher
// for sites that serve their pages without requiring JavaScript.
package http

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/fwojciec/manhwa"
	"golang.org/x/net/publicsuffix"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
// Kept consistent with rod.DefaultFetchTimeout (10s).
const DefaultFetchTimeout = 10 * time.Second

// DefaultUserAgent is sent with every request unless overridden.
// Some sites serve a reduced page to clients without a browser user agent.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0 Safari/537.36"

// DefaultMaxBodySize caps how much of a response body is read. Title and
// index pages are well under a megabyte.
const DefaultMaxBodySize = 16 << 20

// Ensure Fetcher implements manhwa.Fetcher at compile time.
var _ manhwa.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML content from URLs using HTTP requests.
// Redirects are followed and the final URL is reported in the returned page.
// Cookies set by a site are kept for the lifetime of the Fetcher.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	userAgent   string
	maxBodySize int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the largest response body accepted, in bytes.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:     DefaultFetchTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}

	// cookiejar.New only fails on a nil PublicSuffixList.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})

	f.client = &http.Client{
		Timeout: f.timeout,
		Jar:     jar,
	}

	return f
}

// Fetch retrieves the HTML content from the given URL.
// Transport failures and non-2xx responses are reported as ENETWORK.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*manhwa.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, manhwa.Errorf(manhwa.EINVALID, "invalid url %q: %v", url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, manhwa.WrapErrorf(manhwa.ENETWORK, err, "fetch %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, manhwa.Errorf(manhwa.ENETWORK, "HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, manhwa.WrapErrorf(manhwa.ENETWORK, err, "read %s: %v", url, err)
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, manhwa.Errorf(manhwa.ENETWORK, "body of %s exceeds %d bytes", url, f.maxBodySize)
	}

	return &manhwa.Page{
		URL:  resp.Request.URL.String(),
		HTML: string(body),
	}, nil
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
