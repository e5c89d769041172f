// Package rod provides a browser-backed implementation of manhwa.Fetcher
// for sites that build their chapter lists or image containers in
// JavaScript.
package rod

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fwojciec/manhwa"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout is the default timeout for a single page fetch.
const DefaultFetchTimeout = 10 * time.Second

// DefaultMaxPages is the number of pages rendered before the browser is
// restarted. Chrome does not release memory between pages.
const DefaultMaxPages = 75

// Ensure Fetcher implements manhwa.Fetcher at compile time.
var _ manhwa.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	timeout  time.Duration
	maxPages int

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	pages    int
	closed   bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout sets the timeout applied to each Fetch call.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxPages sets how many pages are rendered before the browser is recycled.
func WithMaxPages(n int) Option {
	return func(f *Fetcher) {
		f.maxPages = n
	}
}

// NewFetcher creates a new Fetcher that launches a headless Chrome browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:  DefaultFetchTimeout,
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(f)
	}

	if err := f.launch(); err != nil {
		return nil, err
	}
	return f, nil
}

// Fetch navigates to the URL and returns the rendered HTML together with
// the URL the browser ended up on.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*manhwa.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, f.wrap(ctx, url, err)
	}

	browser, err := f.acquire()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, manhwa.Errorf(manhwa.ENETWORK, "open page: %v", err)
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return nil, f.wrap(ctx, url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, f.wrap(ctx, url, err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, f.wrap(ctx, url, err)
	}

	final := url
	if info, err := page.Info(); err == nil && info.URL != "" {
		final = info.URL
	}

	return &manhwa.Page{URL: final, HTML: html}, nil
}

// wrap reports every failure as ENETWORK. Context errors stay matchable
// with errors.Is.
func (f *Fetcher) wrap(ctx context.Context, url string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return manhwa.WrapErrorf(manhwa.ENETWORK, ctxErr, "fetch %s: %v", url, ctxErr)
	}
	return manhwa.WrapErrorf(manhwa.ENETWORK, err, "fetch %s: %v", url, err)
}

// acquire returns the current browser, restarting it once maxPages have
// been rendered. If the restart fails the old browser keeps serving.
func (f *Fetcher) acquire() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, manhwa.Errorf(manhwa.EINVALID, "fetcher is closed")
	}

	if f.maxPages > 0 && f.pages >= f.maxPages {
		oldBrowser, oldLauncher := f.browser, f.launcher
		if err := f.launch(); err == nil {
			_ = oldBrowser.Close()
			oldLauncher.Kill()
		} else {
			f.browser, f.launcher = oldBrowser, oldLauncher
		}
		f.pages = 0
	}
	f.pages++

	return f.browser, nil
}

func (f *Fetcher) launch() error {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(true)

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("connecting to browser: %w", err)
	}

	f.browser = browser
	f.launcher = l
	return nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	err := f.browser.Close()
	f.launcher.Kill()
	return err
}
