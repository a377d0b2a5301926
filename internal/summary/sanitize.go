// Package summary builds, scores, and adjudicates preview summaries for
// articles and stories. Everything here is deterministic; AI adjudication
// lives behind an interface so the pipeline works without it.
package summary

import (
	"regexp"
	"strings"
)

const (
	minSummaryChars = 40
	maxSummaryChars = 320
)

var (
	markdownImageRe = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	markdownLinkRe  = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	rawURLRe        = regexp.MustCompile(`https?://\S+`)
	emailRe         = regexp.MustCompile(`\b[\w.+-]+@[\w.-]+\.\w{2,}\b`)
	spaceRe         = regexp.MustCompile(`\s+`)
)

// Junk phrases that mark the start of boilerplate; text from the first
// occurrence onward is dropped.
var junkPhrases = []string{
	"read more",
	"click here",
	"continue reading",
	"subscribe to",
	"sign up for",
	"originally published",
	"this article first appeared",
	"download our app",
	"share this story",
	"follow us on",
	"related:",
}

var trailingBoilerplateRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bthe post\b.*\bappeared first on\b.*$`),
	regexp.MustCompile(`(?i)\bappeared first on\b.*$`),
	regexp.MustCompile(`(?i)\(photo(?:graph)?s?\s*(?:by|:)[^)]*\)`),
	regexp.MustCompile(`(?i)\b(?:photo|image|credit)s?\s*(?:by|:)\s+[A-Z][\w. -]{2,40}(?:/\s*Getty Images)?\.?\s*$`),
	regexp.MustCompile(`(?i)\bgetty images\b\.?`),
}

// Sanitize strips markup, URLs, credits, and boilerplate from a raw
// summary candidate. Returns "" when nothing usable remains: too short,
// contact/share junk up front, or excessive token repetition.
func Sanitize(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	text = markdownImageRe.ReplaceAllString(text, " ")
	text = markdownLinkRe.ReplaceAllString(text, "$1")
	text = rawURLRe.ReplaceAllString(text, " ")
	text = emailRe.ReplaceAllString(text, " ")

	for _, re := range trailingBoilerplateRes {
		text = re.ReplaceAllString(text, " ")
	}

	lower := strings.ToLower(text)
	cut := len(text)
	for _, phrase := range junkPhrases {
		if idx := strings.Index(lower, phrase); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	text = text[:cut]

	text = strings.Trim(spaceRe.ReplaceAllString(text, " "), " -–—|•")
	if len(text) < minSummaryChars {
		return ""
	}
	if isRepetitive(text) {
		return ""
	}

	if len(text) > maxSummaryChars {
		text = truncateAtWord(text, maxSummaryChars) + "…"
	}
	return text
}

// isRepetitive rejects texts that circle the same few tokens, a common
// shape for scraped share bars and nav text.
func isRepetitive(text string) bool {
	words := strings.Fields(strings.ToLower(text))
	if len(words) < 16 {
		return false
	}
	unique := make(map[string]struct{}, len(words))
	for _, word := range words {
		unique[word] = struct{}{}
	}
	return float64(len(unique))/float64(len(words)) < 0.55
}

func truncateAtWord(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	if idx := strings.LastIndex(cut, " "); idx > limit/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:-")
}

var stopTokens = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "have": {}, "in": {},
	"is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {},
	"that": {}, "the": {}, "their": {}, "this": {}, "to": {}, "was": {},
	"were": {}, "will": {}, "with": {},
}

func meaningfulTokens(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		token := strings.Trim(field, `.,;:!?"'()[]{}«»“”’`)
		if token == "" {
			continue
		}
		if _, stop := stopTokens[token]; stop {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// IsHeadlineEcho reports whether a summary merely restates the headline:
// near-total meaningful-token overlap with barely more words, or a short
// continuation that starts with the title itself.
func IsHeadlineEcho(summary, title string) bool {
	summary = strings.TrimSpace(summary)
	title = strings.TrimSpace(title)
	if summary == "" || title == "" {
		return false
	}

	titleTokens := meaningfulTokens(title)
	if len(titleTokens) == 0 {
		return false
	}
	summaryTokens := meaningfulTokens(summary)

	titleSet := make(map[string]struct{}, len(titleTokens))
	for _, token := range titleTokens {
		titleSet[token] = struct{}{}
	}
	overlap := 0
	for _, token := range summaryTokens {
		if _, ok := titleSet[token]; ok {
			overlap++
		}
	}

	if len(summaryTokens) > 0 {
		ratio := float64(overlap) / float64(len(summaryTokens))
		if ratio >= 0.92 && len(summaryTokens) <= len(titleTokens)+7 {
			return true
		}
	}

	lowerSummary := strings.ToLower(summary)
	lowerTitle := strings.ToLower(strings.TrimRight(title, ".!?"))
	if strings.HasPrefix(lowerSummary, lowerTitle) && len(summary) <= len(title)+55 {
		return true
	}
	return false
}

var syntheticShapeRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^district leaders and families are watching`),
	regexp.MustCompile(`(?i)^new developments around\b`),
	regexp.MustCompile(`(?i)\bwhy it matters:`),
	regexp.MustCompile(`(?i)\bthe development signals\b`),
	regexp.MustCompile(`(?i)\bworth watching as details emerge\b`),
}

// IsSyntheticShape reports whether text matches the generated-fallback
// template family, so regenerated briefs never masquerade as reporting.
func IsSyntheticShape(text string) bool {
	for _, re := range syntheticShapeRes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
