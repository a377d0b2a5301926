package ranking

import "strings"

// StoryType buckets a story by its editorial shape. Classification is
// keyword-driven and intentionally cheap; it runs on every homepage build.
type StoryType string

const (
	TypeBreaking  StoryType = "breaking"
	TypePolicy    StoryType = "policy"
	TypeFeature   StoryType = "feature"
	TypeEvergreen StoryType = "evergreen"
	TypeOpinion   StoryType = "opinion"
)

// Audience identifies a reader segment for homepage filtering.
type Audience string

const (
	AudienceTeachers Audience = "teachers"
	AudienceAdmins   Audience = "admins"
	AudienceEdtech   Audience = "edtech"
)

var audienceKeywords = map[Audience][]string{
	AudienceTeachers: {
		"teacher", "teachers", "classroom", "instruction", "curriculum",
		"lesson", "professional development", "literacy", "math",
		"student learning",
	},
	AudienceAdmins: {
		"superintendent", "principal", "district", "school board",
		"budget", "funding", "policy", "state", "accountability",
		"compliance",
	},
	AudienceEdtech: {
		"edtech", "education technology", "ai", "platform", "software",
		"tools", "data privacy", "cybersecurity", "implementation",
	},
}

// ParseAudience maps a query-string value onto a known audience.
func ParseAudience(raw string) (Audience, bool) {
	a := Audience(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := audienceKeywords[a]
	return a, ok
}

// MatchesAudience reports whether the story text mentions any of the
// audience's keywords.
func MatchesAudience(text string, audience Audience) bool {
	terms, ok := audienceKeywords[audience]
	if !ok {
		return false
	}
	lowered := strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}

var impactTerms = []string{
	"legislation", "bill", "policy", "funding", "budget",
	"superintendent", "district", "statewide", "board", "mandate",
}

var urgencyTerms = []string{
	"emergency", "closure", "lockdown", "safety", "security",
	"threat", "shooting", "outbreak", "urgent",
}

var noveltyTerms = []string{
	"pilot", "launch", "new", "first", "rollout", "initiative",
	"program", "expansion",
}

var relevanceTerms = []string{
	"teacher", "students", "classroom", "curriculum", "school",
	"k-12", "k12", "principal", "edtech",
}

var breakingHints = []string{
	"breaking", "just announced", "emergency", "court blocks",
	"lawsuit", "injunction", "passes house", "passes senate",
	"signed into law", "state of emergency", "closure",
}

var policyHints = []string{
	"policy", "bill", "law", "mandate", "regulation", "funding",
	"budget", "board", "superintendent", "federal", "state",
}

var opinionHints = []string{
	"opinion", "op-ed", "analysis", "commentary", "essay",
	"guest column", "letter to the editor",
}

var evergreenHints = []string{
	"how to", "guide", "tips", "checklist", "strategies",
	"lesson plan", "best practices", "classroom management",
	"worksheets", "activities", "explainer",
}

func countHits(lowered string, terms []string) int {
	hits := 0
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			hits++
		}
	}
	return hits
}

func cappedHits(lowered string, terms []string) int {
	hits := countHits(lowered, terms)
	if hits > 3 {
		return 3
	}
	return hits
}

// classifyStoryType walks the hint families in priority order. The
// evergreen bucket only applies when the story also looks stale and
// thinly covered, so a how-to angle on a breaking event stays news.
func classifyStoryType(lowered string, weakEvergreenSignals bool) StoryType {
	if countHits(lowered, opinionHints) > 0 {
		return TypeOpinion
	}
	if countHits(lowered, breakingHints) > 0 {
		return TypeBreaking
	}
	if countHits(lowered, policyHints) > 0 {
		return TypePolicy
	}
	if countHits(lowered, evergreenHints) > 0 && weakEvergreenSignals {
		return TypeEvergreen
	}
	return TypeFeature
}
