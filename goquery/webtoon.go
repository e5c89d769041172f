package goquery

import (
	"strings"

	"github.com/fwojciec/manhwa"
)

// WebtoonBaseURL is the origin of the English Webtoon site.
const WebtoonBaseURL = "https://www.webtoons.com"

// Webtoon returns the site description for webtoons.com originals.
// Only webtoons.com/en/... pages are supported.
func Webtoon() Site {
	return WebtoonAt(WebtoonBaseURL)
}

// WebtoonAt returns the Webtoon site description rooted at base instead of
// the public origin.
func WebtoonAt(base string) Site {
	base = strings.TrimSuffix(base, "/")
	return Site{
		Identity: manhwa.Identity{
			SiteName:  "Webtoon",
			SiteURL:   base + "/",
			SiteLogo:  base + "/favicon.ico",
			Developer: "HollowHuu",
		},

		// Any slug works: the site redirects title_no to the canonical page.
		WorkTemplate:   base + "/en/fantasy/your-throne/list?title_no=" + idPlaceholder,
		SearchTemplate: base + "/en/search?keyword=" + queryPlaceholder,

		Card:     "ul.card_lst li",
		CardLink: "a[href]",

		Title:       "div.info h1",
		Author:      "div.author_area",
		AuthorStrip: []string{"author info"},
		Description: "p.summary",
		Genre:       "div.info h2",
		Rating:      "em#_starScoreAverage",
		Thumbnail:   "div.detail_body",

		// Completed series are republished, so no status is exposed.
		Status: manhwa.StatusUnknown,

		Chapter:       "ul#_listUl li",
		ChapterLink:   "a[href]",
		ChapterTitle:  "span.subj",
		ChapterDate:   "span.date",
		ChapterNumber: "span.tx",

		PageSize:  10,
		PageParam: "page",

		ImageContainer: "div#_imageList",
		Image:          "img",
		ImageAttr:      "data-url",
	}
}
