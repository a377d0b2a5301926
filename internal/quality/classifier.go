// Package quality labels ingested items as articles, non-articles, or
// uncertain using URL and text heuristics alone. Classification is a pure
// function so the same item always gets the same verdict.
package quality

import (
	"math"
	"regexp"
	"strings"
)

// Labels assigned by Classify.
const (
	LabelArticle    = "article"
	LabelNonArticle = "non_article"
	LabelUncertain  = "uncertain"
)

// Verdict is the classifier output. Score is the clamped additive score;
// Reasons lists every adjustment that fired, for audit.
type Verdict struct {
	Label   string
	Score   float64
	Reasons []string
}

var nonArticlePathPatterns = []string{
	"/about", "/contact", "/staff", "/people/", "/person/", "/profile/",
	"/author/", "/authors/", "/bio/", "/team/", "/leadership/", "/board-of",
	"/careers", "/jobs", "/events", "/newsletters", "/subscribe", "/donate",
	"/advertise", "/privacy", "/terms", "/tag/", "/tags/", "/topic/",
	"/topics/", "/category/", "/categories/", "/page/", "/search",
	"/archive", "/feed",
}

var articlePathHintRe = regexp.MustCompile(
	`(/news/|/article/|/articles/|/story/|/stories/|/post/|/20\d{2}/\d{1,2}/|-20\d{2}|\.html$)`,
)

var biographyTextPatterns = []string{
	"is a reporter", "is a staff writer", "is an editor", "is a columnist",
	"is a contributing", "covers education for", "joined the newsroom",
	"prior to joining", "before joining", "graduated from", "holds a degree",
	"received her", "received his", "can be reached at",
}

var promotionalTextPatterns = []string{
	"subscribe to", "sign up for", "our newsletter", "become a member",
	"support our journalism", "donate today", "sponsored content",
	"advertise with", "free trial", "limited time offer",
}

var sectionTitlePatterns = []string{
	"latest news", "news archive", "all stories", "staff directory",
	"about us", "contact us", "our team", "press releases", "sitemap",
	"newsletter", "photo gallery", "event calendar", "opinion section",
}

var genericSectionSegments = map[string]struct{}{
	"news": {}, "education": {}, "opinion": {}, "sports": {}, "local": {},
	"politics": {}, "community": {}, "schools": {}, "k12": {}, "blog": {},
	"index": {}, "home": {},
}

var personNameTitleRe = regexp.MustCompile(`^[A-Z][a-z]+(?: [A-Z]\.)? [A-Z][a-z]+(?:-[A-Z][a-z]+)?$`)

// Classify scores one item. The inputs are the normalized URL, cleaned
// title, and best-known summary; no I/O happens here.
func Classify(rawURL, title, summary string) Verdict {
	score := 0.5
	reasons := make([]string, 0, 4)

	lowerURL := strings.ToLower(rawURL)
	lowerTitle := strings.ToLower(strings.TrimSpace(title))
	lowerSummary := strings.ToLower(strings.TrimSpace(summary))

	nonArticlePath := matchesAny(lowerURL, nonArticlePathPatterns)
	sectionPath := isSectionIndexPath(lowerURL)
	articleHint := !sectionPath && articlePathHintRe.MatchString(lowerURL)
	biography := matchesAny(lowerSummary, biographyTextPatterns) ||
		matchesAny(lowerTitle, biographyTextPatterns)
	promotional := matchesAny(lowerSummary, promotionalTextPatterns)
	sectionTitle := matchesAny(lowerTitle, sectionTitlePatterns) || isBareSectionTitle(lowerTitle)
	personName := personNameTitleRe.MatchString(strings.TrimSpace(title))

	if nonArticlePath {
		score -= 0.55
		reasons = append(reasons, "non_article_path")
	}
	if articleHint {
		score += 0.2
		reasons = append(reasons, "article_path_hint")
	}
	if biography {
		score -= 0.45
		reasons = append(reasons, "biography_text")
	}
	if promotional {
		score -= 0.25
		reasons = append(reasons, "promotional_text")
	}
	if sectionTitle {
		score -= 0.45
		reasons = append(reasons, "section_index_title")
	}
	if sectionPath && !articleHint {
		score -= 0.5
		reasons = append(reasons, "section_index_path")
	}
	if personName {
		score -= 0.2
		reasons = append(reasons, "person_name_title")
	}
	if len(strings.TrimSpace(summary)) >= 80 {
		score += 0.08
		reasons = append(reasons, "substantial_summary")
	}
	if !personName && len(strings.TrimSpace(title)) >= 32 {
		score += 0.08
		reasons = append(reasons, "substantial_title")
	}

	// Hard overrides for unambiguous profile and section-index pages.
	if nonArticlePath && (biography || personName) {
		return Verdict{
			Label:   LabelNonArticle,
			Score:   0.1,
			Reasons: append(reasons, "profile_page_override"),
		}
	}
	if sectionPath && !articleHint && (sectionTitle || len(strings.TrimSpace(summary)) < 70) {
		return Verdict{
			Label:   LabelNonArticle,
			Score:   0.08,
			Reasons: append(reasons, "section_index_override"),
		}
	}

	score = clamp01(score)
	label := LabelUncertain
	switch {
	case score <= 0.35:
		label = LabelNonArticle
	case score >= 0.65:
		label = LabelArticle
	}

	return Verdict{Label: label, Score: round2(score), Reasons: reasons}
}

// isSectionIndexPath flags URLs whose path is empty or a single generic
// section segment, e.g. https://example.com/news/.
func isSectionIndexPath(lowerURL string) bool {
	stripped := lowerURL
	if idx := strings.Index(stripped, "://"); idx >= 0 {
		stripped = stripped[idx+3:]
	}
	if idx := strings.IndexAny(stripped, "?#"); idx >= 0 {
		stripped = stripped[:idx]
	}
	slash := strings.Index(stripped, "/")
	if slash < 0 {
		return true
	}
	path := strings.Trim(stripped[slash:], "/")
	if path == "" {
		return true
	}
	segments := strings.Split(path, "/")
	if len(segments) > 2 {
		return false
	}
	for _, segment := range segments {
		if _, generic := genericSectionSegments[segment]; !generic {
			return false
		}
	}
	return true
}

// isBareSectionTitle matches one- or two-word generic section names used
// as a page title ("News", "Local Schools").
func isBareSectionTitle(lowerTitle string) bool {
	words := strings.Fields(lowerTitle)
	if len(words) == 0 || len(words) > 2 {
		return false
	}
	for _, word := range words {
		if _, generic := genericSectionSegments[word]; !generic {
			return false
		}
	}
	return true
}

func matchesAny(haystack string, patterns []string) bool {
	if haystack == "" {
		return false
	}
	for _, pattern := range patterns {
		if strings.Contains(haystack, pattern) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
