package ingest

import (
	"net/url"
	"strings"
	"testing"

	"pulsek12.com/pulse/internal/db"
	"pulsek12.com/pulse/internal/summary"
)

func TestResolveTier(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		domain string
		hint   string
		want   string
	}{
		{name: "registry hint wins", domain: "example.com", hint: "A", want: "A"},
		{name: "statewide nonprofit", domain: "edsource.org", hint: "unknown", want: "A"},
		{name: "government domain", domain: "ed.gov", hint: "", want: "A"},
		{name: "district domain", domain: "cityschools.k12.tn.us", hint: "", want: "A"},
		{name: "national trade", domain: "brookings.edu", hint: "", want: "B"},
		{name: "tv affiliate prefix", domain: "abc11.com", hint: "", want: "B"},
		{name: "press wire", domain: "prnewswire.com", hint: "", want: "C"},
		{name: "press release pattern", domain: "schoolpressrelease.net", hint: "", want: "C"},
		{name: "unrecognized", domain: "someblog.io", hint: "", want: "unknown"},
		{name: "hint cannot rescue wire", domain: "prnewswire.com", hint: "unknown", want: "C"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveTier(tc.domain, tc.hint); got != tc.want {
				t.Fatalf("resolveTier(%q, %q) = %q, want %q", tc.domain, tc.hint, got, tc.want)
			}
		})
	}
}

func TestSourceWeight(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		domain string
		tier   string
		want   float64
	}{
		{name: "trusted site", domain: "edsource.org", tier: "A", want: 1.2},
		{name: "trusted overrides tier B", domain: "k12dive.com", tier: "B", want: 1.2},
		{name: "tier A", domain: "texastribune.org", tier: "A", want: 1.1},
		{name: "tier B", domain: "eschoolnews.com", tier: "B", want: 1.0},
		{name: "unknown", domain: "someblog.io", tier: "unknown", want: 0.9},
		{name: "downweight cap", domain: "edtechinnovationhub.com", tier: "unknown", want: 0.7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := sourceWeight(tc.domain, tc.tier); got != tc.want {
				t.Fatalf("sourceWeight(%q, %q) = %v, want %v", tc.domain, tc.tier, got, tc.want)
			}
		})
	}
}

func TestGoogleNewsSearchURL(t *testing.T) {
	t.Parallel()

	raw := googleNewsSearchURL(`"K-12 education" OR "public schools"`, 7)
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	if parsed.Host != "news.google.com" || parsed.Path != "/rss/search" {
		t.Fatalf("unexpected endpoint %s%s", parsed.Host, parsed.Path)
	}

	q := parsed.Query()
	if got := q.Get("q"); !strings.HasSuffix(got, " when:7d") {
		t.Fatalf("query %q missing recency window", got)
	}
	if q.Get("hl") != "en-US" || q.Get("gl") != "US" || q.Get("ceid") != "US:en" {
		t.Fatalf("unexpected locale params: %v", q)
	}
}

func TestDefaultSeeds(t *testing.T) {
	t.Parallel()

	seeds := DefaultSeeds()
	if len(seeds) != len(curatedFeeds)+len(discoveryQueries) {
		t.Fatalf("got %d seeds, want %d", len(seeds), len(curatedFeeds)+len(discoveryQueries))
	}

	seen := make(map[string]bool, len(seeds))
	discovery := 0
	for _, seed := range seeds {
		if seed.Name == "" || seed.URL == "" {
			t.Fatalf("incomplete seed %+v", seed)
		}
		if seen[seed.URL] {
			t.Fatalf("duplicate seed url %s", seed.URL)
		}
		seen[seed.URL] = true

		if seed.FeedType == feedTypeDiscovery {
			discovery++
			if !strings.HasPrefix(seed.URL, "https://news.google.com/rss/search?") {
				t.Fatalf("discovery seed with non-search url %s", seed.URL)
			}
			if seed.Tier != "unknown" {
				t.Fatalf("discovery seed %s has tier %q", seed.Name, seed.Tier)
			}
		}
	}
	if discovery != len(discoveryQueries) {
		t.Fatalf("got %d discovery seeds, want %d", discovery, len(discoveryQueries))
	}
}

func TestFeedReplacementsTargetSeededURLs(t *testing.T) {
	t.Parallel()

	known := make(map[string]bool, len(curatedFeeds))
	for _, seed := range curatedFeeds {
		known[seed.URL] = true
	}
	for oldURL, newURL := range feedReplacements {
		if oldURL == newURL {
			t.Fatalf("replacement maps %s to itself", oldURL)
		}
		if !known[newURL] {
			t.Fatalf("replacement target %s is not a curated feed", newURL)
		}
	}
}

func TestShouldScrapeItem(t *testing.T) {
	t.Parallel()

	svc := &Service{}

	strong := summary.NewCandidateSet("District expands tutoring program")
	strong.Add(summary.SourceRSS, "The district will hire eighty new tutors to support struggling readers in every elementary school starting this January.")
	if len(strong.Candidates()) != 1 || strong.Candidates()[0].Score < 0.62 {
		t.Fatalf("fixture candidate too weak: %+v", strong.Candidates())
	}

	empty := summary.NewCandidateSet("District expands tutoring program")

	cases := []struct {
		name       string
		candidates *summary.CandidateSet
		feed       db.Feed
		want       bool
	}{
		{name: "scrape feeds always scrape", candidates: strong, feed: db.Feed{FeedType: feedTypeScrape}, want: true},
		{name: "strong rss candidate skips scrape", candidates: strong, feed: db.Feed{FeedType: feedTypeRSS}, want: false},
		{name: "no candidates scrape", candidates: empty, feed: db.Feed{FeedType: feedTypeRSS}, want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := svc.shouldScrapeItem(tc.candidates, tc.feed); got != tc.want {
				t.Fatalf("shouldScrapeItem() = %v, want %v", got, tc.want)
			}
		})
	}
}
