// Package grouping clusters articles into stories: a lexical story key
// buckets near-identical headlines, and a similarity pass merges stories
// that drifted apart on wording.
package grouping

import (
	"sort"
	"strings"
)

// Stopwords dropped from story keys. School vocabulary so common on an
// education site that it carries no discriminating signal is included.
var keyStopwords = map[string]struct{}{
	"a": {}, "about": {}, "after": {}, "amid": {}, "an": {}, "and": {},
	"are": {}, "as": {}, "at": {}, "before": {}, "by": {}, "could": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "how": {}, "in": {},
	"into": {}, "is": {}, "it": {}, "its": {}, "more": {}, "new": {},
	"of": {}, "on": {}, "over": {}, "said": {}, "says": {}, "school": {},
	"schools": {}, "than": {}, "that": {}, "the": {}, "their": {},
	"this": {}, "to": {}, "under": {}, "up": {}, "was": {}, "what": {},
	"when": {}, "why": {}, "will": {}, "with": {},
}

// StoryKey derives the lexical bucket key for a headline: meaningful
// tokens, deduplicated in order, capped at eight, then sorted so word
// order does not split a story.
func StoryKey(title string) string {
	tokens := titleTokens(title)
	if len(tokens) == 0 {
		return ""
	}
	if len(tokens) > 8 {
		tokens = tokens[:8]
	}
	sort.Strings(tokens)
	return strings.Join(tokens, "-")
}

// titleTokens lowercases, strips punctuation, and drops stopwords and
// tokens of two characters or fewer, preserving first-seen order.
func titleTokens(title string) []string {
	fields := strings.Fields(strings.ToLower(title))
	tokens := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		token := stripNonAlnum(field)
		if len(token) <= 2 {
			continue
		}
		if _, stop := keyStopwords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}

func stripNonAlnum(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Aliases expand abbreviations common in education headlines so that
// e.g. "LAUSD" and "Los Angeles Unified" land on shared tokens.
var tokenAliases = map[string][]string{
	"lausd": {"los", "angeles", "unified"},
	"la":    {"los", "angeles"},
	"supe":  {"superintendent"},
}

// normalizeMergeToken stems common suffixes so singular/plural and
// tense variants of the same word match. Length guards avoid mangling
// short words.
func normalizeMergeToken(token string) string {
	switch {
	case len(token) > 4 && strings.HasSuffix(token, "ies"):
		return token[:len(token)-3] + "y"
	case len(token) > 5 && strings.HasSuffix(token, "ing"):
		return token[:len(token)-3]
	case len(token) > 4 && strings.HasSuffix(token, "ed"):
		return token[:len(token)-2]
	case len(token) > 4 && strings.HasSuffix(token, "es"):
		return token[:len(token)-2]
	case len(token) > 3 && strings.HasSuffix(token, "s"):
		return token[:len(token)-1]
	default:
		return token
	}
}

const maxMergeTokens = 24

// mergeTokens builds the expanded comparison token set for a story from
// its display title and its story key, with alias expansion and
// suffix stemming, capped at maxMergeTokens.
func mergeTokens(title, storyKey string) map[string]struct{} {
	raw := titleTokens(title)
	raw = append(raw, strings.Split(storyKey, "-")...)

	tokens := make(map[string]struct{}, maxMergeTokens)
	add := func(token string) bool {
		if token == "" {
			return true
		}
		if len(tokens) >= maxMergeTokens {
			return false
		}
		tokens[token] = struct{}{}
		return true
	}

	for _, token := range raw {
		if aliases, ok := tokenAliases[token]; ok {
			for _, alias := range aliases {
				if !add(normalizeMergeToken(alias)) {
					return tokens
				}
			}
			continue
		}
		if !add(normalizeMergeToken(token)) {
			return tokens
		}
	}
	return tokens
}

// overlapRatio is |A ∩ B| / min(|A|, |B|).
func overlapRatio(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	shared := 0
	for token := range small {
		if _, ok := large[token]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}
