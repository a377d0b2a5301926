package ingest

import "strings"

// trustedSites get a weight bump regardless of tier. These are the
// outlets whose education desks we follow closely.
var trustedSites = map[string]struct{}{
	"edsource.org":        {},
	"ednc.org":            {},
	"the74million.org":    {},
	"hechingerreport.org": {},
	"chalkbeat.org":       {},
	"k12dive.com":         {},
	"edweek.org":          {},
	"npr.org":             {},
	"apnews.com":          {},
	"edsurge.com":         {},
}

// Tier A: statewide education nonprofits and local journalism outlets
// with dedicated education coverage.
var tierADomains = map[string]struct{}{
	"edsource.org":         {},
	"ednc.org":             {},
	"chalkbeat.org":        {},
	"apnews.com":           {},
	"npr.org":              {},
	"texastribune.org":     {},
	"calmatters.org":       {},
	"mississippitoday.org": {},
}

// Government and district domains count as tier A by pattern.
var tierAPatterns = []string{".gov", ".k12."}

var tierBDomains = map[string]struct{}{
	"the74million.org":           {},
	"hechingerreport.org":        {},
	"k12dive.com":                {},
	"edsurge.com":                {},
	"eschoolnews.com":            {},
	"districtadministration.com": {},
	"edtechmagazine.com":         {},
	"edutopia.org":               {},
	"educationnext.org":          {},
	"brookings.edu":              {},
	"rand.org":                   {},
	"kqed.org":                   {},
	"edweek.org":                 {},
}

// Local TV affiliates are tier B by pattern.
var tierBPatterns = []string{"abc", "nbc", "cbs", "fox", "kxan", "wral", "ktla"}

// Tier C: press-release wires, content farms, and vendor blogs. Rejected
// outright at ingest.
var tierCDomains = map[string]struct{}{
	"prnewswire.com":    {},
	"businesswire.com":  {},
	"globenewswire.com": {},
	"prweb.com":         {},
	"einnews.com":       {},
	"openpr.com":        {},
}

var tierCPatterns = []string{"pressrelease", "newswire", "sponsored"}

// Sources matching these get their weight capped regardless of tier.
var downweightPatterns = []string{"edtechinnovationhub", "ethi"}

// resolveTier maps a domain onto a source tier, preferring an explicit
// hint from the feed registry over the pattern tables.
func resolveTier(domain, hint string) string {
	if hint != "" && hint != "unknown" {
		return hint
	}
	if _, ok := tierADomains[domain]; ok {
		return "A"
	}
	for _, p := range tierAPatterns {
		if strings.Contains(domain, p) {
			return "A"
		}
	}
	if _, ok := tierBDomains[domain]; ok {
		return "B"
	}
	for _, p := range tierBPatterns {
		if strings.HasPrefix(domain, p) {
			return "B"
		}
	}
	if _, ok := tierCDomains[domain]; ok {
		return "C"
	}
	for _, p := range tierCPatterns {
		if strings.Contains(domain, p) {
			return "C"
		}
	}
	return "unknown"
}

// sourceWeight derives the authority weight stored on a new source row.
func sourceWeight(domain, tier string) float64 {
	weight := 0.9
	if _, trusted := trustedSites[domain]; trusted {
		weight = 1.2
	} else if tier == "A" {
		weight = 1.1
	} else if tier == "B" {
		weight = 1.0
	}
	for _, p := range downweightPatterns {
		if strings.Contains(domain, p) {
			if weight > 0.7 {
				weight = 0.7
			}
			break
		}
	}
	return weight
}
