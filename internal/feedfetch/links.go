package feedfetch

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pulsek12.com/pulse/internal/textnorm"
)

const maxDiscoveredLinks = 100

var genericLinkText = map[string]struct{}{
	"read more": {}, "more": {}, "continue reading": {}, "full story": {},
	"click here": {}, "here": {}, "home": {}, "news": {}, "next": {},
	"previous": {}, "share": {}, "subscribe": {},
}

// ExtractArticleLinks discovers likely-article links on a section page,
// for feeds without RSS. Only same-domain links with article-shaped
// paths survive; titles fall back from link text to the URL slug.
func ExtractArticleLinks(pageHTML, pageURL string) []Item {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	pageDomain := textnorm.Domain(pageURL)

	seen := make(map[string]struct{}, 64)
	items := make([]Item, 0, 32)

	doc.Find("a[href]").EachWithBreak(func(_ int, anchor *goquery.Selection) bool {
		href, _ := anchor.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return true
		}

		resolved, err := base.Parse(href)
		if err != nil {
			return true
		}
		absolute := resolved.String()
		if textnorm.Domain(absolute) != pageDomain {
			return true
		}
		if !looksLikeArticlePath(resolved.Path) {
			return true
		}
		if _, dup := seen[absolute]; dup {
			return true
		}
		seen[absolute] = struct{}{}

		title := strings.Join(strings.Fields(anchor.Text()), " ")
		if isGenericLinkText(title) {
			title = ""
		}
		if title == "" {
			title = strings.TrimSpace(anchor.AttrOr("title", ""))
		}
		if title == "" {
			title = textnorm.BuildTitleFromURL(absolute)
		}
		if title == "" {
			return true
		}

		items = append(items, Item{Title: title, URL: absolute})
		return len(items) < maxDiscoveredLinks
	})

	return items
}

// looksLikeArticlePath keeps slugs and dated paths, rejecting section
// roots and utility pages.
func looksLikeArticlePath(path string) bool {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return false
	}
	segments := strings.Split(trimmed, "/")
	last := segments[len(segments)-1]
	last = strings.TrimSuffix(last, ".html")
	last = strings.TrimSuffix(last, ".htm")

	// A slug with several hyphenated words is the strongest signal.
	if strings.Count(last, "-") >= 2 && len(last) >= 16 {
		return true
	}
	// Dated archives: /2025/04/slug
	if len(segments) >= 3 && len(segments[0]) == 4 && strings.HasPrefix(segments[0], "20") {
		return true
	}
	return false
}

func isGenericLinkText(text string) bool {
	_, generic := genericLinkText[strings.ToLower(strings.TrimSpace(text))]
	return generic
}
