// Package relevance gates items to the site's audience: US education
// news written in English.
package relevance

import "strings"

// Non-US markers veto an item unless a US marker co-occurs, so a story
// about "UK-style phonics in Texas schools" still passes.
var nonUSIndicators = []string{
	"ofsted", "gcse", "a-level", "nhs", "uk schools", "u.k.",
	"england", "scotland", "wales", "northern ireland", "brexit",
	"ontario", "alberta", "british columbia", "canadian",
	"new south wales", "queensland", "victoria state", "australian",
	"new zealand", "delhi", "mumbai", "bangalore", "pakistan",
	"nigeria", "kenya", "south africa", "singapore", "philippines",
	"european union", "eu schools",
}

var usIndicators = []string{
	"u.s.", "us schools", "united states", "federal", "congress",
	"white house", "department of education", "title i", "title ix",
	"state board", "school district", "superintendent", "charter school",
	"common core", "fafsa", "essa", "head start", "pell grant",
	"alabama", "alaska", "arizona", "arkansas", "california", "colorado",
	"connecticut", "delaware", "florida", "georgia", "hawaii", "idaho",
	"illinois", "indiana", "iowa", "kansas", "kentucky", "louisiana",
	"maine", "maryland", "massachusetts", "michigan", "minnesota",
	"mississippi", "missouri", "montana", "nebraska", "nevada",
	"new hampshire", "new jersey", "new mexico", "new york",
	"north carolina", "north dakota", "ohio", "oklahoma", "oregon",
	"pennsylvania", "rhode island", "south carolina", "south dakota",
	"tennessee", "texas", "utah", "vermont", "virginia", "washington",
	"west virginia", "wisconsin", "wyoming",
}

// IsUSStory reports whether the combined title and summary pass the
// US-locale heuristic. Items with no locale signal at all pass; only a
// non-US marker without any US co-occurrence vetoes.
func IsUSStory(title, summaryText string) bool {
	text := strings.ToLower(title + " " + summaryText)

	foreign := false
	for _, indicator := range nonUSIndicators {
		if strings.Contains(text, indicator) {
			foreign = true
			break
		}
	}
	if !foreign {
		return true
	}
	for _, indicator := range usIndicators {
		if strings.Contains(text, indicator) {
			return true
		}
	}
	return false
}
