package goquery

import (
	"context"
	"strconv"
	"strings"

	"github.com/fwojciec/manhwa"
)

// Factory kinds provided by this package.
const (
	KindWebtoon  = "webtoon"
	KindSelector = "selector"
)

// Register adds the factories of this package to catalog. Extractors they
// build fetch pages with fetcher.
func Register(catalog *manhwa.Catalog, fetcher manhwa.Fetcher, opts ...Option) {
	catalog.Register(KindWebtoon, WebtoonFactory(fetcher, opts...))
	catalog.Register(KindSelector, SelectorFactory(fetcher, opts...))
}

// WebtoonFactory builds Webtoon extractors. The optional base_url setting
// points the extractor at another origin.
func WebtoonFactory(fetcher manhwa.Fetcher, opts ...Option) manhwa.Factory {
	return func(ctx context.Context, export manhwa.Export) (manhwa.Extractor, error) {
		site := WebtoonAt(export.Setting("base_url", WebtoonBaseURL))
		site.Identity = mergeIdentity(site.Identity, export.Identity)
		if err := site.Validate(); err != nil {
			return nil, err
		}
		return NewExtractor(site, fetcher, opts...), nil
	}
}

// SelectorFactory builds extractors whose selectors come from the export's
// settings. Settings that are not given keep the Webtoon value.
func SelectorFactory(fetcher manhwa.Fetcher, opts ...Option) manhwa.Factory {
	return func(ctx context.Context, export manhwa.Export) (manhwa.Extractor, error) {
		site, err := siteFromSettings(export)
		if err != nil {
			return nil, err
		}
		return NewExtractor(site, fetcher, opts...), nil
	}
}

func siteFromSettings(export manhwa.Export) (Site, error) {
	s := WebtoonAt(export.Setting("base_url", WebtoonBaseURL))
	set := func(dst *string, name string) {
		*dst = export.Setting(name, *dst)
	}

	set(&s.WorkTemplate, "work_url")
	set(&s.SearchTemplate, "search_url")
	set(&s.Card, "card")
	set(&s.CardLink, "card_link")
	set(&s.Title, "title")
	set(&s.Author, "author")
	set(&s.Description, "description")
	set(&s.Genre, "genre")
	set(&s.Rating, "rating")
	set(&s.Thumbnail, "thumbnail")
	set(&s.Status, "status")
	set(&s.Chapter, "chapter")
	set(&s.ChapterLink, "chapter_link")
	set(&s.ChapterTitle, "chapter_title")
	set(&s.ChapterDate, "chapter_date")
	set(&s.ChapterNumber, "chapter_number")
	set(&s.PageParam, "page_param")
	set(&s.ImageContainer, "image_container")
	set(&s.Image, "image")
	set(&s.ImageAttr, "image_attr")

	if v := export.Setting("author_strip", ""); v != "" {
		s.AuthorStrip = strings.Split(v, ",")
	}
	for name, dst := range map[string]*int{
		"page_size":       &s.PageSize,
		"max_index_pages": &s.MaxIndexPages,
	} {
		v := export.Setting(name, "")
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return Site{}, manhwa.Errorf(manhwa.EINVALID, "%s %q is not a number", name, v)
		}
		*dst = n
	}

	s.Identity = mergeIdentity(manhwa.Identity{
		SiteName: export.Name,
		SiteURL:  export.Setting("base_url", ""),
	}, export.Identity)

	if err := s.Validate(); err != nil {
		return Site{}, err
	}
	return s, nil
}

// mergeIdentity returns base with every non-empty field of override applied.
func mergeIdentity(base, override manhwa.Identity) manhwa.Identity {
	pick := func(b, o string) string {
		if o != "" {
			return o
		}
		return b
	}
	return manhwa.Identity{
		SiteName:        pick(base.SiteName, override.SiteName),
		SiteURL:         pick(base.SiteURL, override.SiteURL),
		SiteLogo:        pick(base.SiteLogo, override.SiteLogo),
		SiteDescription: pick(base.SiteDescription, override.SiteDescription),
		Developer:       pick(base.Developer, override.Developer),
	}
}
