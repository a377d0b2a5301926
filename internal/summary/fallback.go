package summary

import (
	"strings"
)

// hashString is a 31-rolling hash over the topic, kept in int32 space so
// the same topic always picks the same template variant.
func hashString(s string) int {
	var hash int32
	for _, r := range s {
		hash = hash*31 + int32(r)
	}
	if hash < 0 {
		hash = -hash
	}
	return int(hash)
}

func pickVariant(variants []string, topic string) string {
	if len(variants) == 0 {
		return ""
	}
	return variants[hashString(topic)%len(variants)]
}

type fallbackCategory struct {
	keywords []string
	leads    []string
	matters  []string
}

var fallbackCategories = []fallbackCategory{
	{
		keywords: []string{"budget", "funding", "cut", "levy", "bond", "salary", "pay", "money", "grant"},
		leads: []string{
			"New developments around %s put school finances back in focus.",
			"New developments around %s are reshaping budget conversations in local districts.",
		},
		matters: []string{
			"Why it matters: funding decisions like this ripple into staffing and classroom resources.",
			"Why it matters: district leaders and families are watching how the dollars land.",
		},
	},
	{
		keywords: []string{"policy", "law", "bill", "legislature", "board", "vote", "rule", "mandate", "court"},
		leads: []string{
			"New developments around %s signal a policy shift schools will have to absorb.",
			"New developments around %s are moving through the policy pipeline.",
		},
		matters: []string{
			"Why it matters: the development signals how far officials are willing to push on schools policy.",
			"Why it matters: districts will need to adjust practice once the rules settle.",
		},
	},
	{
		keywords: []string{"teacher", "student", "classroom", "curriculum", "reading", "math", "test", "enrollment", "attendance"},
		leads: []string{
			"New developments around %s touch daily life in classrooms.",
			"New developments around %s are drawing attention from educators.",
		},
		matters: []string{
			"Why it matters: district leaders and families are watching what this means for students.",
			"Why it matters: classroom-level changes tend to follow news like this quickly.",
		},
	},
}

var fallbackGeneral = fallbackCategory{
	leads: []string{
		"New developments around %s are emerging in the education world.",
		"New developments around %s are drawing coverage across education outlets.",
	},
	matters: []string{
		"Why it matters: worth watching as details emerge.",
		"Why it matters: district leaders and families are watching closely.",
	},
}

// TopicFromTitle distills a sanitized headline into the topic phrase used
// by the synthetic brief. Returns "" for titles too thin to describe.
func TopicFromTitle(title string) string {
	topic := strings.TrimSpace(title)
	topic = strings.TrimRight(topic, ".!?")
	if len(topic) < 12 {
		return ""
	}
	words := strings.Fields(topic)
	if len(words) > 12 {
		words = words[:12]
		topic = strings.Join(words, " ")
	}
	// Lowercase the leading word unless it is an acronym.
	if first := words[0]; len(first) > 1 && first != strings.ToUpper(first) {
		words[0] = strings.ToLower(first[:1]) + first[1:]
		topic = strings.Join(words, " ")
	}
	return topic
}

// GenerateFallback builds the deterministic two-sentence synthetic brief
// for a headline. Returns "" when no usable topic can be extracted; the
// caller then leaves the article summaryless.
func GenerateFallback(title string) string {
	topic := TopicFromTitle(title)
	if topic == "" {
		return ""
	}

	category := fallbackGeneral
	lowerTopic := strings.ToLower(topic)
matching:
	for _, c := range fallbackCategories {
		for _, keyword := range c.keywords {
			if strings.Contains(lowerTopic, keyword) {
				category = c
				break matching
			}
		}
	}

	lead := strings.Replace(pickVariant(category.leads, topic), "%s", topic, 1)
	matters := pickVariant(category.matters, topic)
	return lead + " " + matters
}
