package goquery

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/manhwa"
)

var (
	reBackgroundURL = regexp.MustCompile(`url\((?:["']?)([^"')]+)(?:["']?)\)`)
	reOrdinal       = regexp.MustCompile(`\d+`)
	reSpace         = regexp.MustCompile(`\s+`)
)

func parseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, manhwa.Errorf(manhwa.EPARSE, "failed to parse HTML: %v", err)
	}
	return doc, nil
}

// text returns the trimmed text of the first match of selector, or "".
func text(sel *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(sel.Find(selector).First().Text())
}

// parseMetadata reads the title page fields. pageURL is the canonical URL.
func (e *Extractor) parseMetadata(doc *goquery.Document, pageURL string) (manhwa.Metadata, error) {
	s := e.site
	title := text(doc.Selection, s.Title)
	if title == "" {
		return manhwa.Metadata{}, manhwa.Errorf(manhwa.EPARSE, "no title at %s", pageURL)
	}

	return manhwa.Metadata{
		Title:       title,
		Author:      cleanAuthor(text(doc.Selection, s.Author), s.AuthorStrip),
		Description: text(doc.Selection, s.Description),
		Genre:       text(doc.Selection, s.Genre),
		Status:      s.Status,
		Rating:      text(doc.Selection, s.Rating),
		Thumbnail:   thumbnail(doc.Selection, s.Thumbnail, pageURL),
		URL:         pageURL,
	}, nil
}

// cleanAuthor collapses whitespace and removes labels the site renders next
// to the author names.
func cleanAuthor(raw string, strip []string) string {
	author := reSpace.ReplaceAllString(raw, " ")
	for _, s := range strip {
		author = strings.ReplaceAll(author, s, "")
	}
	author = strings.ReplaceAll(author, " ,", ",")
	return strings.TrimSpace(reSpace.ReplaceAllString(author, " "))
}

// thumbnail reads the cover image from the background of the element's
// style attribute, falling back to its src. Missing covers yield the
// ThumbnailNotFound sentinel.
func thumbnail(doc *goquery.Selection, selector, pageURL string) string {
	if selector == "" {
		return manhwa.ThumbnailNotFound
	}
	sel := doc.Find(selector).First()
	if style, ok := sel.Attr("style"); ok {
		if m := reBackgroundURL.FindStringSubmatch(style); m != nil {
			return resolveURL(pageURL, strings.TrimSpace(m[1]))
		}
	}
	if src, ok := sel.Attr("src"); ok && strings.TrimSpace(src) != "" {
		return resolveURL(pageURL, strings.TrimSpace(src))
	}
	return manhwa.ThumbnailNotFound
}

// parseOrdinal extracts the chapter number from a label such as "#23".
func parseOrdinal(label string) (int, bool) {
	m := reOrdinal.FindString(label)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseChapters reads every chapter entry of one index page in DOM order.
func (e *Extractor) parseChapters(doc *goquery.Document, pageURL string) []*manhwa.Chapter {
	s := e.site
	var chapters []*manhwa.Chapter
	doc.Find(s.Chapter).Each(func(_ int, li *goquery.Selection) {
		href, _ := li.Find(s.ChapterLink).First().Attr("href")
		n, _ := parseOrdinal(text(li, s.ChapterNumber))
		chapters = append(chapters, &manhwa.Chapter{
			Title:       text(li, s.ChapterTitle),
			URL:         resolveURL(pageURL, href),
			ReleaseDate: text(li, s.ChapterDate),
			Number:      n,
		})
	})
	return chapters
}

// resolveURL resolves href against base. Unparseable input is returned as is.
func resolveURL(base, href string) string {
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}

// withPage returns rawURL with the page parameter set to page.
func withPage(rawURL, param string, page int) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", manhwa.Errorf(manhwa.EINVALID, "invalid index url %q: %v", rawURL, err)
	}
	q := u.Query()
	q.Set(param, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
