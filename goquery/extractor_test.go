package goquery_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/manhwa"
	"github.com/fwojciec/manhwa/goquery"
	"github.com/fwojciec/manhwa/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "https://webtoon.test"

// site is a fake external site. Each route maps a requested URL to the URL
// it is served from (after redirects) and its body.
type site struct {
	mu     sync.Mutex
	routes map[string]route
	calls  map[string]int
}

type route struct {
	final string
	html  string
	err   error
	delay time.Duration
}

func newSite() *site {
	return &site{routes: make(map[string]route), calls: make(map[string]int)}
}

func (s *site) serve(url, html string) {
	s.routes[url] = route{final: url, html: html}
}

func (s *site) redirect(from, to string) {
	s.routes[from] = route{final: to, html: s.routes[to].html}
}

func (s *site) called(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[url]
}

func (s *site) fetcher() *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (*manhwa.Page, error) {
			s.mu.Lock()
			s.calls[url]++
			r, ok := s.routes[url]
			s.mu.Unlock()
			if !ok {
				return nil, manhwa.Errorf(manhwa.ENETWORK, "HTTP 404 for %s", url)
			}
			if r.delay > 0 {
				select {
				case <-time.After(r.delay):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			if r.err != nil {
				return nil, r.err
			}
			return &manhwa.Page{URL: r.final, HTML: r.html}, nil
		},
		CloseFn: func() error { return nil },
	}
}

type titlePage struct {
	Title     string
	Thumbnail bool
	Numbers   []int
}

func (p titlePage) html() string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	if p.Thumbnail {
		b.WriteString(`<div class="detail_body banner" style="background:#ffffff url('https://cdn.webtoon.test/thumb.jpg') no-repeat 100% 100%">`)
	} else {
		b.WriteString(`<div class="detail_body banner">`)
	}
	b.WriteString(`<div class="info"><h2 class="genre">Fantasy</h2>`)
	if p.Title != "" {
		fmt.Fprintf(&b, `<h1 class="subj">%s</h1>`, p.Title)
	}
	b.WriteString(`<div class="author_area">
		SIU
		<button class="ico_info2">author info</button>
	</div></div>
	<p class="summary">What do you desire?</p>
	<em id="_starScoreAverage" class="cont">9.84</em>
	</div>
	<ul id="_listUl">`)
	for _, n := range p.Numbers {
		fmt.Fprintf(&b, `<li><a href="/en/fantasy/tower-of-god/ep-%[1]d/viewer?title_no=95&amp;episode_no=%[1]d">
			<span class="thmb"><img src="placeholder.gif"></span>
			<span class="subj"><span>Episode %[1]d</span></span>
			<span class="date">Jan %[1]d, 2024</span>
			<span class="tx">#%[1]d</span>
		</a></li>`, n)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

// descending returns from, from-1, ..., to.
func descending(from, to int) []int {
	var ns []int
	for n := from; n >= to; n-- {
		ns = append(ns, n)
	}
	return ns
}

func canonicalURL(slug, id string) string {
	return base + "/en/fantasy/" + slug + "/list?title_no=" + id
}

func indexURL(slug, id string, page int) string {
	return fmt.Sprintf("%s/en/fantasy/%s/list?page=%d&title_no=%s", base, slug, page, id)
}

// serveTitle registers a title with newest chapter newest, split into pages
// of ten, reachable by id through a redirect.
func serveTitle(s *site, slug, id, title string, newest int) {
	first := titlePage{Title: title, Thumbnail: true, Numbers: descending(newest, max(newest-9, 1))}
	s.serve(canonicalURL(slug, id), first.html())
	for page := 1; page <= goquery.PageCount(newest, 10); page++ {
		hi := newest - (page-1)*10
		lo := max(hi-9, 1)
		s.serve(indexURL(slug, id, page), titlePage{Title: title, Numbers: descending(hi, lo)}.html())
	}
	s.redirect(base+"/en/fantasy/your-throne/list?title_no="+id, canonicalURL(slug, id))
}

func TestPageCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, goquery.PageCount(23, 10))
	assert.Equal(t, 2, goquery.PageCount(20, 10))
	assert.Equal(t, 1, goquery.PageCount(1, 10))
	assert.Equal(t, 0, goquery.PageCount(0, 10))
}

func TestExtractor_FetchWorkByID(t *testing.T) {
	t.Parallel()

	t.Run("adopts the redirected URL as canonical", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		serveTitle(s, "tower-of-god", "95", "Tower of God", 23)
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		work, err := ext.FetchWorkByID(context.Background(), "95")

		require.NoError(t, err)
		assert.Equal(t, canonicalURL("tower-of-god", "95"), work.Metadata.URL)
	})

	t.Run("parses metadata from the title page", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		serveTitle(s, "tower-of-god", "95", "Tower of God", 3)
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		work, err := ext.FetchWorkByID(context.Background(), "95")

		require.NoError(t, err)
		assert.Equal(t, manhwa.Metadata{
			Title:       "Tower of God",
			Author:      "SIU",
			Description: "What do you desire?",
			Genre:       "Fantasy",
			Status:      manhwa.StatusUnknown,
			Rating:      "9.84",
			Thumbnail:   "https://cdn.webtoon.test/thumb.jpg",
			URL:         canonicalURL("tower-of-god", "95"),
		}, work.Metadata)
	})

	t.Run("fetches one index page per ten chapters", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		serveTitle(s, "tower-of-god", "95", "Tower of God", 23)
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		work, err := ext.FetchWorkByID(context.Background(), "95")

		require.NoError(t, err)
		assert.Len(t, work.Chapters, 23)
		for page := 1; page <= 3; page++ {
			assert.Equal(t, 1, s.called(indexURL("tower-of-god", "95", page)), "page %d", page)
		}
		assert.Zero(t, s.called(indexURL("tower-of-god", "95", 4)))
	})

	t.Run("returns chapters sorted by ascending number", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		serveTitle(s, "tower-of-god", "95", "Tower of God", 23)
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		work, err := ext.FetchWorkByID(context.Background(), "95")

		require.NoError(t, err)
		require.Len(t, work.Chapters, 23)
		for i, ch := range work.Chapters {
			assert.Equal(t, i+1, ch.Number)
		}
		first := work.Chapters[0]
		assert.Equal(t, "Episode 1", first.Title)
		assert.Equal(t, "Jan 1, 2024", first.ReleaseDate)
		assert.Equal(t, base+"/en/fantasy/tower-of-god/ep-1/viewer?title_no=95&episode_no=1", first.URL)
	})

	t.Run("drops chapters repeated across index pages", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		serveTitle(s, "tower-of-god", "95", "Tower of God", 12)
		// The second page overlaps the first, as when a chapter is
		// published between two page fetches.
		s.serve(indexURL("tower-of-god", "95", 2), titlePage{Title: "Tower of God", Numbers: descending(3, 1)}.html())
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		work, err := ext.FetchWorkByID(context.Background(), "95")

		require.NoError(t, err)
		require.Len(t, work.Chapters, 12)
		assert.Equal(t, 1, work.Chapters[0].Number)
		assert.Equal(t, 12, work.Chapters[11].Number)
	})

	t.Run("uses sentinel for missing thumbnail", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		s.serve(canonicalURL("tower-of-god", "95"), titlePage{Title: "Tower of God"}.html())
		s.redirect(base+"/en/fantasy/your-throne/list?title_no=95", canonicalURL("tower-of-god", "95"))
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		work, err := ext.FetchWorkByID(context.Background(), "95")

		require.NoError(t, err)
		assert.Equal(t, "Tower of God", work.Metadata.Title)
		assert.Equal(t, manhwa.ThumbnailNotFound, work.Metadata.Thumbnail)
	})

	t.Run("returns empty chapter list for a title without chapters", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		s.serve(canonicalURL("tower-of-god", "95"), titlePage{Title: "Tower of God"}.html())
		s.redirect(base+"/en/fantasy/your-throne/list?title_no=95", canonicalURL("tower-of-god", "95"))
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		work, err := ext.FetchWorkByID(context.Background(), "95")

		require.NoError(t, err)
		require.NotNil(t, work.Chapters)
		assert.Empty(t, work.Chapters)
	})

	t.Run("fails with parse error when title is missing", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		s.serve(canonicalURL("tower-of-god", "95"), titlePage{Numbers: []int{1}}.html())
		s.redirect(base+"/en/fantasy/your-throne/list?title_no=95", canonicalURL("tower-of-god", "95"))
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		_, err := ext.FetchWorkByID(context.Background(), "95")

		require.Error(t, err)
		assert.Equal(t, manhwa.EPARSE, manhwa.ErrorCode(err))
	})

	t.Run("fails when an index page cannot be fetched", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		serveTitle(s, "tower-of-god", "95", "Tower of God", 23)
		delete(s.routes, indexURL("tower-of-god", "95", 2))
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		_, err := ext.FetchWorkByID(context.Background(), "95")

		require.Error(t, err)
		assert.Equal(t, manhwa.ENETWORK, manhwa.ErrorCode(err))
	})

	t.Run("fails with parse error when the newest label needs too many index pages", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		s.serve(canonicalURL("tower-of-god", "95"), titlePage{Title: "Tower of God", Numbers: []int{2000000000}}.html())
		s.redirect(base+"/en/fantasy/your-throne/list?title_no=95", canonicalURL("tower-of-god", "95"))
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		_, err := ext.FetchWorkByID(context.Background(), "95")

		require.Error(t, err)
		assert.Equal(t, manhwa.EPARSE, manhwa.ErrorCode(err))
		assert.Zero(t, s.called(indexURL("tower-of-god", "95", 1)))
	})

	t.Run("honors the site index page limit", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		serveTitle(s, "tower-of-god", "95", "Tower of God", 23)
		webtoon := goquery.WebtoonAt(base)
		webtoon.MaxIndexPages = 2
		ext := goquery.NewExtractor(webtoon, s.fetcher())

		_, err := ext.FetchWorkByID(context.Background(), "95")

		require.Error(t, err)
		assert.Equal(t, manhwa.EPARSE, manhwa.ErrorCode(err))
		assert.Zero(t, s.called(indexURL("tower-of-god", "95", 1)))
	})

	t.Run("fails with network error when the title page is unreachable", func(t *testing.T) {
		t.Parallel()

		ext := goquery.NewExtractor(goquery.WebtoonAt(base), newSite().fetcher())

		_, err := ext.FetchWorkByID(context.Background(), "404")

		require.Error(t, err)
		assert.Equal(t, manhwa.ENETWORK, manhwa.ErrorCode(err))
	})
}

func searchPage(links ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><ul class="card_lst">`)
	for _, l := range links {
		if l == "" {
			b.WriteString(`<li><span class="subj">No link</span></li>`)
			continue
		}
		fmt.Fprintf(&b, `<li><a href="%s" class="card_item"><p class="subj">x</p></a></li>`, l)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

func TestExtractor_SearchByTitle(t *testing.T) {
	t.Parallel()

	t.Run("returns one metadata-only work per result card", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		serveTitle(s, "tower-of-god", "95", "Tower of God", 23)
		serveTitle(s, "the-god-of-high-school", "66", "The God of High School", 5)
		s.serve(base+"/en/search?keyword=god", searchPage(
			canonicalURL("tower-of-god", "95"),
			canonicalURL("the-god-of-high-school", "66"),
		))
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		works, err := ext.SearchByTitle(context.Background(), "god")

		require.NoError(t, err)
		require.Len(t, works, 2)
		assert.Equal(t, "Tower of God", works[0].Metadata.Title)
		assert.Equal(t, "The God of High School", works[1].Metadata.Title)
		for _, w := range works {
			require.NotNil(t, w.Chapters)
			assert.Empty(t, w.Chapters)
		}
		// Search never touches the chapter index.
		assert.Zero(t, s.called(indexURL("tower-of-god", "95", 1)))
	})

	t.Run("keeps result order when fetches complete out of order", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		serveTitle(s, "tower-of-god", "95", "Tower of God", 1)
		serveTitle(s, "the-god-of-high-school", "66", "The God of High School", 1)
		slow := s.routes[canonicalURL("tower-of-god", "95")]
		slow.delay = 50 * time.Millisecond
		s.routes[canonicalURL("tower-of-god", "95")] = slow
		s.serve(base+"/en/search?keyword=god", searchPage(
			canonicalURL("tower-of-god", "95"),
			canonicalURL("the-god-of-high-school", "66"),
		))
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		works, err := ext.SearchByTitle(context.Background(), "god")

		require.NoError(t, err)
		require.Len(t, works, 2)
		assert.Equal(t, "Tower of God", works[0].Metadata.Title)
		assert.Equal(t, "The God of High School", works[1].Metadata.Title)
	})

	t.Run("resolves relative result links", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		serveTitle(s, "tower-of-god", "95", "Tower of God", 1)
		s.serve(base+"/en/search?keyword=tower", searchPage("/en/fantasy/tower-of-god/list?title_no=95"))
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		works, err := ext.SearchByTitle(context.Background(), "tower")

		require.NoError(t, err)
		require.Len(t, works, 1)
		assert.Equal(t, canonicalURL("tower-of-god", "95"), works[0].Metadata.URL)
	})

	t.Run("escapes the query", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		s.serve(base+"/en/search?keyword=tower+of+god", searchPage())
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		_, err := ext.SearchByTitle(context.Background(), "tower of god")

		require.NoError(t, err)
		assert.Equal(t, 1, s.called(base+"/en/search?keyword=tower+of+god"))
	})

	t.Run("fails the whole search when one title fetch fails", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		serveTitle(s, "tower-of-god", "95", "Tower of God", 1)
		s.serve(base+"/en/search?keyword=god", searchPage(
			canonicalURL("tower-of-god", "95"),
			canonicalURL("missing", "1"),
		))
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		works, err := ext.SearchByTitle(context.Background(), "god")

		require.Error(t, err)
		assert.Nil(t, works)
		assert.Equal(t, manhwa.ENETWORK, manhwa.ErrorCode(err))
	})

	t.Run("returns no works when there are no result cards", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		s.serve(base+"/en/search?keyword=nothing", `<html><body><p>No results</p></body></html>`)
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		works, err := ext.SearchByTitle(context.Background(), "nothing")

		require.NoError(t, err)
		assert.Empty(t, works)
	})

	t.Run("fails with parse error when cards have no links", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		s.serve(base+"/en/search?keyword=god", searchPage("", ""))
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		_, err := ext.SearchByTitle(context.Background(), "god")

		require.Error(t, err)
		assert.Equal(t, manhwa.EPARSE, manhwa.ErrorCode(err))
	})
}

func TestExtractor_FetchChapterPages(t *testing.T) {
	t.Parallel()

	viewer := base + "/en/fantasy/tower-of-god/ep-1/viewer?title_no=95&episode_no=1"

	t.Run("returns lazy-load URLs in DOM order", func(t *testing.T) {
		t.Parallel()

		var b strings.Builder
		b.WriteString(`<html><body><div class="viewer_img" id="_imageList">`)
		for _, n := range []int{3, 1, 4, 5, 2} {
			fmt.Fprintf(&b, `<img src="https://static.webtoon.test/bg_transparency.png" data-url="https://cdn.webtoon.test/%d.jpg" class="_images">`, n)
		}
		b.WriteString(`</div></body></html>`)

		s := newSite()
		s.serve(viewer, b.String())
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		images, err := ext.FetchChapterPages(context.Background(), viewer)

		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://cdn.webtoon.test/3.jpg",
			"https://cdn.webtoon.test/1.jpg",
			"https://cdn.webtoon.test/4.jpg",
			"https://cdn.webtoon.test/5.jpg",
			"https://cdn.webtoon.test/2.jpg",
		}, images)
	})

	t.Run("skips images without the lazy-load attribute", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		s.serve(viewer, `<div id="_imageList">
			<img src="https://static.webtoon.test/ad.png">
			<img data-url="https://cdn.webtoon.test/1.jpg">
		</div>`)
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		images, err := ext.FetchChapterPages(context.Background(), viewer)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://cdn.webtoon.test/1.jpg"}, images)
	})

	t.Run("ignores images nested below the container", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		s.serve(viewer, `<div id="_imageList">
			<img data-url="https://cdn.webtoon.test/1.jpg">
			<div class="ad"><img data-url="https://ads.webtoon.test/banner.jpg"></div>
		</div>`)
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		images, err := ext.FetchChapterPages(context.Background(), viewer)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://cdn.webtoon.test/1.jpg"}, images)
	})

	t.Run("fails with parse error when the image container is missing", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		s.serve(viewer, `<html><body><p>This episode is not available.</p></body></html>`)
		ext := goquery.NewExtractor(goquery.WebtoonAt(base), s.fetcher())

		_, err := ext.FetchChapterPages(context.Background(), viewer)

		require.Error(t, err)
		assert.Equal(t, manhwa.EPARSE, manhwa.ErrorCode(err))
	})
}
