package ingest

import (
	"fmt"
	"net/url"

	"pulsek12.com/pulse/internal/db"
)

// Feed types understood by the fetch stage.
const (
	feedTypeRSS       = "rss"
	feedTypeDiscovery = "discovery"
	feedTypeScrape    = "scrape"
)

const discoveryDays = 7

type discoveryQuery struct {
	name  string
	query string
}

var discoveryQueries = []discoveryQuery{
	{
		name:  "Google News: AI & EdTech",
		query: `"AI in education" OR "artificial intelligence schools" OR "edtech" OR "education technology trends"`,
	},
	{
		name:  "Google News: Policy & Legislation",
		query: `"K-12 policy" OR "education legislation" OR "school funding" OR "education budget"`,
	},
	{
		name:  "Google News: Teaching & Instruction",
		query: `"instructional strategies" OR "teacher professional development" OR "learning gaps" OR "math instruction" OR "literacy"`,
	},
	{
		name:  "Google News: Safety & Privacy",
		query: `"school safety technology" OR "student data privacy" OR "education cybersecurity" OR "student behavior policy"`,
	},
	{
		name:  "Google News: Student Wellness",
		query: `"chronic absenteeism" OR "student mental health" OR "MTSS" OR "school attendance" OR "SEL"`,
	},
	{
		name:  "Google News: General K-12",
		query: `"K-12 education" OR "public schools" OR "school districts"`,
	},
}

var curatedFeeds = []db.FeedSeed{
	{Name: "The 74", URL: "https://www.the74million.org/feed/", FeedType: feedTypeRSS, Tier: "B"},
	{Name: "Hechinger Report", URL: "https://hechingerreport.org/feed/", FeedType: feedTypeRSS, Tier: "B"},
	{Name: "EdSurge", URL: "https://www.edsurge.com/news", FeedType: feedTypeScrape, Tier: "B"},
	{Name: "K-12 Dive", URL: "https://www.k12dive.com/", FeedType: feedTypeScrape, Tier: "B"},
	{Name: "EdSource", URL: "https://edsource.org/feed", FeedType: feedTypeRSS, Tier: "A"},
	{Name: "EdNC", URL: "https://www.ednc.org/feed/", FeedType: feedTypeRSS, Tier: "A"},
	{Name: "eSchool News", URL: "https://www.eschoolnews.com/feed/", FeedType: feedTypeRSS, Tier: "B"},
	{Name: "District Administration", URL: "https://districtadministration.com/feed/", FeedType: feedTypeRSS, Tier: "B"},
	{Name: "EdTech Magazine", URL: "https://edtechmagazine.com/k12/rss.xml", FeedType: feedTypeRSS, Tier: "B"},
	{Name: "Edutopia", URL: "https://www.edutopia.org/", FeedType: feedTypeScrape, Tier: "B"},
	{Name: "Education Next", URL: "https://www.educationnext.org/feed/", FeedType: feedTypeRSS, Tier: "unknown"},
	{Name: "Brookings Education", URL: "https://www.brookings.edu/topic/education/", FeedType: feedTypeScrape, Tier: "B"},
	{Name: "RAND Education", URL: "https://www.rand.org/topics/education-and-literacy.html", FeedType: feedTypeScrape, Tier: "B"},
	{Name: "KQED Education", URL: "https://www.kqed.org/education", FeedType: feedTypeScrape, Tier: "B"},
	{Name: "Chalkbeat", URL: "https://www.chalkbeat.org/", FeedType: feedTypeScrape, Tier: "B"},
}

// feedReplacements migrates feeds whose RSS endpoints went away to
// page-scrape mode. Applied before every run so old registries heal.
var feedReplacements = map[string]string{
	"https://www.edsurge.com/news/rss.xml":            "https://www.edsurge.com/news",
	"https://www.k12dive.com/feeds/news/":             "https://www.k12dive.com/",
	"https://www.edutopia.org/rss.xml":                "https://www.edutopia.org/",
	"https://www.brookings.edu/topic/education/feed/": "https://www.brookings.edu/topic/education/",
	"https://www.rand.org/topics/education.feed.xml":  "https://www.rand.org/topics/education-and-literacy.html",
	"https://www.kqed.org/education/feed":             "https://www.kqed.org/education",
	"https://www.chalkbeat.org/feed/":                 "https://www.chalkbeat.org/",
}

// googleNewsSearchURL builds a Google News RSS search feed scoped to
// recent US results.
func googleNewsSearchURL(query string, daysBack int) string {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("%s when:%dd", query, daysBack))
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")
	return "https://news.google.com/rss/search?" + params.Encode()
}

// DefaultSeeds returns the curated feed list plus the discovery queries.
func DefaultSeeds() []db.FeedSeed {
	seeds := make([]db.FeedSeed, 0, len(curatedFeeds)+len(discoveryQueries))
	seeds = append(seeds, curatedFeeds...)
	for _, q := range discoveryQueries {
		seeds = append(seeds, db.FeedSeed{
			Name:     q.name,
			URL:      googleNewsSearchURL(q.query, discoveryDays),
			FeedType: feedTypeDiscovery,
			Tier:     "unknown",
		})
	}
	return seeds
}
