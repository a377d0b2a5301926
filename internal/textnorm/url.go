package textnorm

import (
	"net/url"
	"strings"
)

var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"utm_id":       {},
	"gclid":        {},
	"fbclid":       {},
	"mc_cid":       {},
	"mc_eid":       {},
}

// NormalizeURL strips tracking query parameters and the fragment so the
// same article fetched twice maps to one row. Unparseable input is
// returned unchanged, which keeps the operation idempotent.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return trimmed
	}

	query := parsed.Query()
	for key := range query {
		lower := strings.ToLower(key)
		if _, tracked := trackingParams[lower]; tracked || strings.HasPrefix(lower, "utm_") {
			query.Del(key)
		}
	}
	parsed.RawQuery = query.Encode()
	parsed.Fragment = ""

	return parsed.String()
}

// Domain extracts the lowercase registrable host, with any www. prefix
// removed. Returns "" when the URL cannot be parsed.
func Domain(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// IsGoogleNewsURL reports whether the URL is a Google News redirect that
// must be resolved before storage.
func IsGoogleNewsURL(raw string) bool {
	return strings.Contains(Domain(raw), "news.google.com") ||
		Domain(raw) == "news.google.com"
}

var jobPathMarkers = []string{"/jobs/", "/careers/", "/job/", "/vacancies/"}

var jobTitlePatterns = []string{
	"hiring",
	"job listing",
	"job opening",
	"now hiring",
	"apply now",
	"careers at",
	"we're hiring",
}

// IsJobListing flags recruitment pages that leak into education feeds.
func IsJobListing(rawURL, title string) bool {
	lowerURL := strings.ToLower(rawURL)
	for _, marker := range jobPathMarkers {
		if strings.Contains(lowerURL, marker) {
			return true
		}
	}
	if strings.HasPrefix(Domain(rawURL), "jobs.") {
		return true
	}

	lowerTitle := strings.ToLower(title)
	for _, pattern := range jobTitlePatterns {
		if strings.Contains(lowerTitle, pattern) {
			return true
		}
	}
	return false
}

// BuildTitleFromURL derives a readable title from the last path segment
// of an article URL, for scrape feeds whose links carry no text.
func BuildTitleFromURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	slug := segments[len(segments)-1]
	slug = strings.TrimSuffix(slug, ".html")
	slug = strings.TrimSuffix(slug, ".htm")
	slug = strings.ReplaceAll(slug, "-", " ")
	slug = strings.ReplaceAll(slug, "_", " ")
	slug = strings.TrimSpace(slug)
	if slug == "" || len(slug) < 12 {
		return ""
	}

	words := strings.Fields(slug)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}
