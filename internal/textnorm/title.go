package textnorm

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	trailingDateRe = regexp.MustCompile(`\s*·\s*[A-Z][a-z]{2,8}\.?\s+\d{1,2}\s*$`)
	outletPrefixRe = regexp.MustCompile(`^[A-Z][\w.&' -]{2,40}\s*\|\s*`)
)

// CleanTitle normalizes a feed headline: collapses whitespace, strips the
// publisher suffix after the final " - ", drops a leading "Outlet | "
// prefix and a trailing "· Mon DD" date tag. Returns "" for bare wire
// labels like "From Chalkbeat" so callers can skip the item.
func CleanTitle(raw string) string {
	title := whitespaceRe.ReplaceAllString(strings.TrimSpace(raw), " ")
	if title == "" {
		return ""
	}

	title = outletPrefixRe.ReplaceAllString(title, "")
	title = trailingDateRe.ReplaceAllString(title, "")

	if idx := strings.LastIndex(title, " - "); idx > 0 {
		head := strings.TrimSpace(title[:idx])
		tail := strings.TrimSpace(title[idx+3:])
		if looksLikePublisher(tail) && len(strings.Fields(head)) >= 4 {
			title = head
		}
	}

	title = strings.TrimSpace(title)
	if isWireLabel(title) {
		return ""
	}
	return title
}

// isWireLabel matches bare attributions like "From Chalkbeat Colorado"
// that some aggregators emit instead of a headline. The remainder must
// read as an outlet name, not a sentence.
func isWireLabel(title string) bool {
	words := strings.Fields(title)
	if len(words) < 2 || len(words) > 5 {
		return false
	}
	switch strings.ToLower(words[0]) {
	case "from", "via", "per":
	default:
		return false
	}
	for _, word := range words[1:] {
		r := rune(word[0])
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// IsWireTitle reports whether a title is only a wire attribution label
// with no headline content. Article listings filter these out.
func IsWireTitle(title string) bool {
	return isWireLabel(strings.TrimSpace(title))
}

// looksLikePublisher heuristically identifies an outlet name in a
// headline suffix: short, mostly capitalized, no sentence punctuation.
func looksLikePublisher(s string) bool {
	if s == "" || len(s) > 48 {
		return false
	}
	words := strings.Fields(s)
	if len(words) == 0 || len(words) > 5 {
		return false
	}
	if strings.ContainsAny(s, ".?!,:;") && !strings.HasSuffix(s, ".com") {
		return false
	}
	capitalized := 0
	for _, word := range words {
		r := rune(word[0])
		if r >= 'A' && r <= 'Z' {
			capitalized++
		}
	}
	return capitalized*2 >= len(words)
}

var titleCaseAcronyms = map[string]string{
	"ai":    "AI",
	"ap":    "AP",
	"doe":   "DOE",
	"esl":   "ESL",
	"essa":  "ESSA",
	"fafsa": "FAFSA",
	"gpa":   "GPA",
	"iep":   "IEP",
	"k-12":  "K-12",
	"lausd": "LAUSD",
	"nyc":   "NYC",
	"pta":   "PTA",
	"sat":   "SAT",
	"stem":  "STEM",
	"us":    "US",
	"u.s.":  "U.S.",
}

var titleCaseSmallWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "as": {}, "at": {}, "but": {},
	"by": {}, "for": {}, "in": {}, "of": {}, "on": {}, "or": {},
	"the": {}, "to": {}, "with": {},
}

// NormalizeTitleCase upgrades an all-lowercase headline to title case,
// keeping known acronyms uppercase and small words lowercase. Headlines
// that already carry capitalization are returned unchanged.
func NormalizeTitleCase(title string) string {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" || strings.ToLower(trimmed) != trimmed {
		return trimmed
	}

	words := strings.Fields(trimmed)
	for i, word := range words {
		if replacement, ok := titleCaseAcronyms[word]; ok {
			words[i] = replacement
			continue
		}
		if _, small := titleCaseSmallWords[word]; small && i > 0 && i < len(words)-1 {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// ShortenStoryTitle trims runaway story titles at a sentence or clause
// boundary. Titles under the limits pass through untouched.
func ShortenStoryTitle(title string) string {
	const maxChars = 160
	const maxWords = 24

	trimmed := strings.TrimSpace(title)
	words := strings.Fields(trimmed)
	if len(trimmed) <= maxChars && len(words) <= maxWords {
		return trimmed
	}

	for _, sep := range []string{". ", "; ", " — ", ": "} {
		if idx := strings.Index(trimmed, sep); idx >= 40 && idx < maxChars {
			return strings.TrimSpace(trimmed[:idx])
		}
	}

	if len(words) > maxWords {
		words = words[:maxWords]
	}
	short := strings.Join(words, " ")
	if len(short) > maxChars {
		short = strings.TrimSpace(short[:maxChars])
		if idx := strings.LastIndex(short, " "); idx > 0 {
			short = short[:idx]
		}
	}
	return short
}
