package ranking

import (
	"strings"
)

var topicStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {},
	"this": {}, "that": {}, "into": {}, "over": {}, "under": {},
	"after": {}, "before": {}, "about": {}, "amid": {}, "amidst": {},
	"will": {}, "would": {}, "could": {}, "should": {}, "what": {},
	"why": {}, "how": {}, "says": {}, "say": {}, "report": {},
	"reports": {}, "latest": {}, "update": {}, "updates": {},
}

const maxTopicTokens = 14

func normalizeTopicToken(token string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(token) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	t := b.String()
	if t == "" {
		return ""
	}
	switch {
	case len(t) > 4 && strings.HasSuffix(t, "ies"):
		t = t[:len(t)-3] + "y"
	case len(t) > 4 && strings.HasSuffix(t, "es"):
		t = t[:len(t)-2]
	case len(t) > 3 && strings.HasSuffix(t, "s"):
		t = t[:len(t)-1]
	}
	switch {
	case len(t) > 5 && strings.HasSuffix(t, "ing"):
		t = t[:len(t)-3]
	case len(t) > 4 && strings.HasSuffix(t, "ed"):
		t = t[:len(t)-2]
	}
	return t
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// topicTokens reduces a story title to a small set of stemmed content
// tokens used for near-duplicate detection across the ranked list.
func topicTokens(title string) map[string]struct{} {
	tokens := make(map[string]struct{}, maxTopicTokens)
	for _, raw := range strings.Fields(title) {
		t := normalizeTopicToken(raw)
		if len(t) < 3 && !(len(t) >= 2 && isDigits(t)) {
			continue
		}
		if _, stop := topicStopwords[t]; stop {
			continue
		}
		tokens[t] = struct{}{}
		if len(tokens) >= maxTopicTokens {
			break
		}
	}
	return tokens
}

func topicOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	overlap := 0
	for t := range a {
		if _, ok := b[t]; ok {
			overlap++
		}
	}
	min := len(a)
	if len(b) < min {
		min = len(b)
	}
	return float64(overlap) / float64(min)
}

var previewStopwords = map[string]struct{}{
	"that": {}, "this": {}, "with": {}, "from": {}, "which": {},
	"their": {}, "there": {}, "about": {}, "after": {}, "before": {},
	"under": {}, "over": {}, "into": {}, "while": {}, "where": {},
	"when": {},
}

func previewTokens(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		b.WriteRune(' ')
	}
	for _, t := range strings.Fields(b.String()) {
		if len(t) < 4 {
			continue
		}
		if _, stop := previewStopwords[t]; stop {
			continue
		}
		tokens[t] = struct{}{}
	}
	return tokens
}

// previewsNearDuplicate reports whether two preview texts say the same
// thing. Exact match after whitespace folding, or a high token overlap
// against the shorter set.
func previewsNearDuplicate(a, b string) bool {
	na := strings.Join(strings.Fields(strings.ToLower(a)), " ")
	nb := strings.Join(strings.Fields(strings.ToLower(b)), " ")
	if na == nb {
		return true
	}
	return topicOverlap(previewTokens(na), previewTokens(nb)) >= 0.82
}
